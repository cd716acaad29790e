// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - IngestionService: discover, extract, chunk, embed and store PDFs
//   - RetrievalService: embed a query and rank stored chunks
//   - SettingsService: typed access to the configuration file
//
// Services never construct adapters; every dependency is passed in.
package services
