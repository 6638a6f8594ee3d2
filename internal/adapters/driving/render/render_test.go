package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()
	require.NotNil(t, theme)
	assert.NotEmpty(t, theme.Primary)
	assert.NotEqual(t, theme.Primary, theme.Secondary)
	assert.NotEqual(t, theme.Success, theme.Error)
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)
	require.NotNil(t, styles)
	assert.Equal(t, DefaultTheme(), styles.Theme())
	assert.False(t, styles.IsPlain())
	assert.True(t, styles.Title.GetBold())
}

func TestForTerminal(t *testing.T) {
	assert.False(t, ForTerminal(true).IsPlain())
	assert.True(t, ForTerminal(false).IsPlain())
	assert.Equal(t, "ok", PlainStyles().Success.Render("ok"))
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short", "hello world", 60, "hello world"},
		{"whitespace collapsed", "hello\n\n  world\t!", 60, "hello world !"},
		{"truncated", "abcdefghij", 8, "abcde..."},
		{"exact", "abcdefgh", 8, "abcdefgh"},
		{"runes", "ééééééééé", 6, "ééé..."},
		{"tiny width", "abcdef", 2, "ab"},
		{"no limit", "abc def", 0, "abc def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Preview(tt.text, tt.width))
		})
	}
}

func TestResultsTable(t *testing.T) {
	results := []domain.SearchResult{
		domain.NewSearchResult("alice_chunk_0", "Alice was beginning to get very tired",
			domain.ChunkMetadata{DocumentID: "alice"}, 0.1234),
		domain.NewSearchResult("bob_chunk_7", strings.Repeat("long text ", 20),
			domain.ChunkMetadata{DocumentID: "bob"}, 1.5),
	}

	out := ResultsTable(results, PlainStyles())

	assert.Contains(t, out, "Rank")
	assert.Contains(t, out, "Relevance")
	assert.Contains(t, out, "Source")
	assert.Contains(t, out, "Content Preview")
	assert.Contains(t, out, "0.877")
	assert.Contains(t, out, "-0.500")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "Alice was beginning to get very tired")
	assert.Contains(t, out, "...")
	assert.Less(t, strings.Index(out, "alice"), strings.Index(out, "bob"))
}

func TestFraction(t *testing.T) {
	assert.Zero(t, Fraction(domain.IngestProgress{Processed: 5}))
	assert.InDelta(t, 0.5, Fraction(domain.IngestProgress{Processed: 5, Estimated: 10}), 1e-9)
	assert.InDelta(t, 1.0, Fraction(domain.IngestProgress{Processed: 12, Estimated: 10}), 1e-9)
}

func TestProgress_Line(t *testing.T) {
	p := domain.IngestProgress{DocumentID: "alice", Processed: 10, Indexed: 9, Estimated: 40}

	plain := NewProgress(PlainStyles(), 0).Line(p)
	assert.Equal(t, "Processing alice: 10/40 chunks (9 indexed)", plain)

	unknown := NewProgress(PlainStyles(), 0).Line(domain.IngestProgress{DocumentID: "x", Processed: 3})
	assert.Equal(t, "Processing x: 3 chunks (0 indexed)", unknown)

	styled := NewProgress(DefaultStyles(), 20).Line(p)
	assert.Contains(t, styled, "alice")
	assert.Contains(t, styled, "10/40 chunks")
	assert.Contains(t, styled, "25%")
}
