// Package docx provides a Normaliser for Word (Office Open XML) documents.
package docx
