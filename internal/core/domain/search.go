package domain

import (
	"strings"
	"unicode/utf8"
)

// DefaultTopK is the number of results returned when the caller does not ask
// for a specific count.
const DefaultTopK = 5

// QueryResult is one ranked retrieval hit.
type QueryResult struct {
	// Content is the matched chunk text.
	Content string `json:"content"`

	// Metadata carries source, page and any caller-supplied attributes.
	Metadata map[string]any `json:"metadata"`

	// Score is the relevance in [0, 1]; higher is more relevant.
	Score float64 `json:"score"`
}

// Source returns the source path recorded in the metadata, if any.
func (r QueryResult) Source() string {
	s, _ := r.Metadata[MetaSource].(string)
	return s
}

// Page returns the page number recorded in the metadata, or 0.
func (r QueryResult) Page() int {
	switch v := r.Metadata[MetaPage].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// RelevanceFromCosine maps a cosine similarity in [-1, 1] onto [0, 1].
// Inputs outside the range are clamped.
func RelevanceFromCosine(cos float64) float64 {
	score := (1 + cos) / 2
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

// Preview shortens content for display. When content exceeds maxRunes it is
// cut at the last sentence end in the final third of the window, or failing
// that at the last space. An ellipsis marks the cut.
func Preview(content string, maxRunes int) string {
	content = strings.TrimSpace(content)
	if maxRunes <= 0 || utf8.RuneCountInString(content) <= maxRunes {
		return content
	}

	runes := []rune(content)
	window := string(runes[:maxRunes])
	floor := len(string(runes[:maxRunes*2/3]))

	if i := strings.LastIndexAny(window, ".!?"); i >= floor {
		return window[:i+1] + "..."
	}
	if i := strings.LastIndex(window, " "); i > 0 {
		return window[:i] + "..."
	}
	return window + "..."
}
