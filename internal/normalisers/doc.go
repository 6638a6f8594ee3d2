// Package normalisers turns structured document formats into plain text
// ready for chunking. Each sub-package handles one format; the Registry
// selects one by file extension.
package normalisers
