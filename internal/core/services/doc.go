// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - CollectionService: open, reset, inspect and clean collections
//   - IngestService: chunk, embed and batch-write documents
//   - SearchService: embed a query and rank nearest chunks
//   - SettingsService: layered settings (defaults, file, environment)
package services
