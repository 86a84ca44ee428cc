// Package segmenter splits long transcripts into bounded, order-preserving
// word chunks so each fits a language model's input window.
package segmenter

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"meeting-insights-go/internal/types"
)

const DefaultMaxWords = 5000

// Segment splits text on whitespace and groups the words into chunks of at
// most maxWords, rejoined with single spaces. Empty text yields no chunks.
// A non-positive maxWords falls back to DefaultMaxWords.
func Segment(text string, maxWords int) []types.Chunk {
	if maxWords <= 0 {
		maxWords = DefaultMaxWords
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	groups := lo.Chunk(words, maxWords)
	chunks := make([]types.Chunk, len(groups))
	for i, g := range groups {
		chunks[i] = types.Chunk{
			Index:     i,
			Text:      strings.Join(g, " "),
			WordCount: len(g),
		}
	}
	return chunks
}

func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Truncate keeps the first maxWords words of text. The second return value
// reports whether anything was cut.
func Truncate(text string, maxWords int) (string, bool) {
	words := strings.Fields(text)
	if maxWords <= 0 || len(words) <= maxWords {
		return strings.Join(words, " "), false
	}
	return strings.Join(words[:maxWords], " "), true
}

// Join reassembles chunks in index order.
func Join(chunks []types.Chunk) string {
	sorted := append([]types.Chunk(nil), chunks...)
	slices.SortFunc(sorted, func(a, b types.Chunk) int { return a.Index - b.Index })
	return strings.Join(lo.Map(sorted, func(c types.Chunk, _ int) string { return c.Text }), " ")
}
