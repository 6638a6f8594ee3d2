package chunk

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driving/render"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

func newTestView(width, height int) *View {
	v := NewView(render.PlainStyles(), keymap.DefaultKeyMap())
	v.SetDimensions(width, height)
	return v
}

func longResult(lines int) domain.SearchResult {
	parts := make([]string, lines)
	for i := range parts {
		parts[i] = "line"
	}
	return domain.NewSearchResult("doc_2", strings.Join(parts, "\n"),
		domain.ChunkMetadata{DocumentID: "doc", ChunkIndex: 2, ChunkSize: 42, SourceFile: "notes.txt"}, 0.25)
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected []string
	}{
		{"fits", "hello world", 20, []string{"hello world"}},
		{"breaks on spaces", "the quick brown fox", 10, []string{"the quick", "brown fox"}},
		{"keeps blank lines", "a\n\nb", 10, []string{"a", "", "b"}},
		{"splits long words", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"counts runes", "ééééé ü", 5, []string{"ééééé", "ü"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, wrap(tt.text, tt.width))
		})
	}
}

func TestView_NoResult(t *testing.T) {
	v := newTestView(80, 24)

	assert.Contains(t, v.View(), "(No result selected)")
	assert.Nil(t, v.Result())
}

func TestView_SetResult(t *testing.T) {
	v := newTestView(80, 24)

	v.SetResult(domain.NewSearchResult("alice_0", "Alice was beginning to get very tired",
		domain.ChunkMetadata{DocumentID: "alice", ChunkIndex: 0, ChunkSize: 37, SourceFile: "alice.txt"}, 0.2))

	require.NotNil(t, v.Result())
	view := v.View()
	assert.Contains(t, view, "alice #0")
	assert.Contains(t, view, "Relevance 0.800 · alice.txt · 37 characters")
	assert.Contains(t, view, "Alice was beginning to get very tired")
	assert.NotContains(t, view, "Line 1-")
}

func TestView_EmptyContent(t *testing.T) {
	v := newTestView(80, 24)

	v.SetResult(domain.NewSearchResult("x_0", "", domain.ChunkMetadata{DocumentID: "x"}, 0))

	assert.Contains(t, v.View(), "(No content)")
}

func TestView_Scrolling(t *testing.T) {
	// 24 rows leave 16 visible lines; 40 lines give a max offset of 24.
	v := newTestView(80, 24)
	v.SetResult(longResult(40))

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 1, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 17, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 24, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 24, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	assert.Equal(t, 0, v.ScrollOffset())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	assert.Equal(t, 24, v.ScrollOffset())
	assert.Contains(t, v.View(), "[100%] Line 25-40 of 40")

	v.Update(tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 8, v.ScrollOffset())
}

func TestView_SetResultResetsScroll(t *testing.T) {
	v := newTestView(80, 24)
	v.SetResult(longResult(40))
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})

	v.SetResult(longResult(40))

	assert.Equal(t, 0, v.ScrollOffset())
}

func TestView_ResizeClampsScroll(t *testing.T) {
	v := newTestView(80, 24)
	v.SetResult(longResult(40))
	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})

	v.Update(tea.WindowSizeMsg{Width: 80, Height: 48})

	assert.Equal(t, 0, v.ScrollOffset())
}

func TestView_BackAndQuit(t *testing.T) {
	v := newTestView(80, 24)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSearch}, cmd())

	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())
}
