// Package html provides a Normaliser for HTML documents. Tags, scripts
// and styles are dropped and entities decoded; block elements become
// line breaks so the chunker's paragraph and line separators still apply.
package html
