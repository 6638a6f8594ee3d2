// Package render formats command output: styled status lines, the search
// results table and the ingestion progress bar. Styles degrade to plain
// text when output is not a terminal.
package render
