package driven

// PromptStore supplies the templates used when a generation provider is
// available. Names are the Prompt* constants below.
type PromptStore interface {
	// Load returns the template for name, falling back to the built-in
	// version when the user's copy is missing or empty.
	Load(name string) (string, error)

	// Reload forgets cached templates so the next Load reads them again.
	Reload()
}

const (
	// PromptAnalysisSystem declares the JSON schema of an analysis response.
	// It takes no format arguments.
	PromptAnalysisSystem = "analysis_system"

	// PromptArchitectureAnalysis asks for the analysis itself. Its single %s
	// receives the document digest.
	PromptArchitectureAnalysis = "architecture_analysis"
)

// PromptStoreAware is implemented by services whose prompts can be
// overridden. Without a store they use the built-in templates.
type PromptStoreAware interface {
	SetPromptStore(store PromptStore)
}
