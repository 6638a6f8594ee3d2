// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Chunker: Splits document text into overlap-joined chunks
//   - Normaliser: Extracts text from markdown, HTML and DOCX files
//   - EmbeddingService: Generates vector embeddings (Ollama, OpenAI)
//   - LLMService: Chat completion for grounded answers (Ollama, OpenAI, Anthropic)
//   - VectorStore: Collection lifecycle over persisted chunk records
//   - VectorCollection: Bulk add, nearest neighbour query and count
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
