package render

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// DefaultBarWidth is the width of the progress bar in cells.
const DefaultBarWidth = 30

// Progress renders ingestion progress as a single line.
type Progress struct {
	bar    progress.Model
	styles *Styles
}

// NewProgress creates a progress renderer. Plain styles produce a text
// counter instead of a bar.
func NewProgress(styles *Styles, width int) *Progress {
	if styles == nil {
		styles = DefaultStyles()
	}
	if width <= 0 {
		width = DefaultBarWidth
	}

	theme := styles.Theme()
	bar := progress.New(
		progress.WithGradient(string(theme.Primary), string(theme.Secondary)),
		progress.WithWidth(width),
	)
	return &Progress{bar: bar, styles: styles}
}

// Line renders p. With an unknown estimate the bar stays empty.
func (r *Progress) Line(p domain.IngestProgress) string {
	counts := fmt.Sprintf("%d/%d chunks", p.Processed, p.Estimated)
	if p.Estimated <= 0 {
		counts = fmt.Sprintf("%d chunks", p.Processed)
	}

	if r.styles.IsPlain() {
		return fmt.Sprintf("Processing %s: %s (%d indexed)", p.DocumentID, counts, p.Indexed)
	}
	return fmt.Sprintf("Processing %s %s %s",
		r.styles.Label.Render(p.DocumentID), r.bar.ViewAs(Fraction(p)), r.styles.Muted.Render(counts))
}

// Fraction returns the completed share of p in [0, 1].
func Fraction(p domain.IngestProgress) float64 {
	if p.Estimated <= 0 {
		return 0
	}
	f := float64(p.Processed) / float64(p.Estimated)
	return min(max(f, 0), 1)
}
