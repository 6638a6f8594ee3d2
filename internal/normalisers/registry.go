package normalisers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/normalisers/docx"
	"github.com/custodia-labs/docrag/internal/normalisers/html"
	"github.com/custodia-labs/docrag/internal/normalisers/markdown"
)

// Ensure Registry implements the lookup port.
var _ driven.NormaliserLookup = (*Registry)(nil)

// Registry maps file extensions to normalisers.
type Registry struct {
	byExt map[string]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]driven.Normaliser)}
}

// NewDefaultRegistry returns a registry with the built-in normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	return r
}

// Register adds n for each of its extensions. A later registration for
// the same extension replaces the earlier one.
func (r *Registry) Register(n driven.Normaliser) {
	for _, ext := range n.Extensions() {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// ForPath returns the normaliser for the file extension of path,
// or nil when the file should be read as plain text.
func (r *Registry) ForPath(path string) driven.Normaliser {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
