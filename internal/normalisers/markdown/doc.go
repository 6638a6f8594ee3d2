// Package markdown provides a Normaliser for markdown documents.
package markdown
