package domain

// Generation is the response of a text-generation provider.
type Generation struct {
	// Content is the generated text.
	Content string

	// Provider identifies which back-end produced the text.
	Provider AIProvider

	// Model is the model name used.
	Model string

	// TokensUsed is the provider-reported or estimated token total.
	TokensUsed int

	// Confidence is the provider's fixed confidence estimate.
	Confidence float64

	// CostUSD is an estimate based on per-1k-token pricing.
	CostUSD float64
}
