// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Extractor: Turns PDF bytes into page records (strategy cascade)
//   - PostProcessorPipeline: Splits pages into chunks
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Persists chunks with their vectors and searches them
//   - FileSource: Lists and reads source files
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or extractor package
package driven
