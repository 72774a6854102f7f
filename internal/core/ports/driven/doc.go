// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Normaliser: Extracts text from one document format
//   - NormaliserRegistry: Selects the appropriate normaliser
//   - PostProcessor: Segments and classifies document text into chunks
//   - CommandRunner: Runs shell commands for the plan executor
//   - PlanStore: Persists build plans
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Generator: Text generation across providers. Without it, synthesis is rule-based.
//   - LLMService: One provider back-end, wrapped by a Generator.
//   - Cache: Persistent cache for processed documents and analyses.
//   - PromptStore: User-editable prompt templates. Defaults are embedded.
//   - ErrorReporter: Sink for classified failures.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
