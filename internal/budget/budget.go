// Package budget estimates prompt sizes and trims retrieved context to fit a
// token budget. Because the assistant supports multiple LLM backends with
// different tokenizers, it uses a conservative character-based heuristic:
// 1 token ≈ 4 characters.
package budget

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// separatorTokens approximates the cost of the separator placed between
	// two rendered context chunks.
	separatorTokens = 1
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// FitTail keeps the longest prefix of items whose rendered size, plus
// fixedTokens for the rest of the prompt, fits within maxTokens. Items are
// assumed to be ranked best-first, so the lowest ranked are dropped.
// A maxTokens of zero or less disables trimming.
func FitTail[T any](items []T, render func(T) string, fixedTokens, maxTokens int) []T {
	if maxTokens <= 0 {
		return items
	}
	used := fixedTokens
	for i, it := range items {
		cost := Estimate(render(it))
		if i > 0 {
			cost += separatorTokens
		}
		if used+cost > maxTokens {
			return items[:i]
		}
		used += cost
	}
	return items
}
