package render

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// PreviewWidth is the maximum number of characters of chunk text shown
// in the results table.
const PreviewWidth = 60

// ResultsTable renders search results as a table with rank, relevance
// (three decimals), source document and a content preview.
func ResultsTable(results []domain.SearchResult, styles *Styles) string {
	if styles == nil {
		styles = DefaultStyles()
	}

	rows := make([][]string, len(results))
	for i := range results {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.3f", results[i].RelevanceScore),
			results[i].Metadata.DocumentID,
			Preview(results[i].Document, PreviewWidth),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.Border).
		Headers("Rank", "Relevance", "Source", "Content Preview").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.Header
			case col == 0:
				return styles.Rank
			case col == 1:
				return styles.Cell.Align(lipgloss.Right)
			default:
				return styles.Cell
			}
		})

	return t.String()
}

// Preview collapses whitespace in text and cuts it to at most width
// characters, ending with "..." when shortened.
func Preview(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	if width <= 0 || utf8.RuneCountInString(text) <= width {
		return text
	}
	if width <= 3 {
		return string([]rune(text)[:width])
	}
	return string([]rune(text)[:width-3]) + "..."
}
