package segmenter

import "unicode"

// TokenCounter estimates how many model tokens a piece of text occupies.
// Implementations must be deterministic and monotonic: appending text to a
// string never lowers its count.
type TokenCounter interface {
	CountTokens(text string) int
}

// EstimateCounter approximates BPE tokenisation without a vocabulary.
// Each run of letters or digits costs one token per four characters
// (rounded up) and every other non-space rune costs one token.
type EstimateCounter struct{}

// CountTokens implements TokenCounter.
func (EstimateCounter) CountTokens(text string) int {
	tokens := 0
	run := 0
	flush := func() {
		if run > 0 {
			tokens += (run + 3) / 4
			run = 0
		}
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			run++
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens++
		}
	}
	flush()

	return tokens
}

// CounterFunc adapts a plain function to TokenCounter.
type CounterFunc func(text string) int

// CountTokens implements TokenCounter.
func (f CounterFunc) CountTokens(text string) int {
	return f(text)
}
