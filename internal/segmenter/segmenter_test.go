package segmenter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(w, " ")
}

func TestSegmentCounts(t *testing.T) {
	tests := []struct {
		name      string
		words     int
		max       int
		wantSizes []int
	}{
		{"single chunk under limit", 2000, 5000, []int{2000}},
		{"exact limit", 5000, 5000, []int{5000}},
		{"three chunks", 12000, 5000, []int{5000, 5000, 2000}},
		{"one word per chunk", 3, 1, []int{1, 1, 1}},
		{"even split", 10, 5, []int{5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := Segment(words(tt.words), tt.max)
			require.Len(t, chunks, len(tt.wantSizes))
			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				assert.Equal(t, tt.wantSizes[i], c.WordCount)
				assert.Equal(t, tt.wantSizes[i], WordCount(c.Text))
			}
		})
	}
}

func TestSegmentReconstructsNormalizedText(t *testing.T) {
	inputs := []string{
		"  alpha\tbeta\n\ngamma   delta epsilon  ",
		words(12345),
		"one",
		"a b c d e f g h i j k",
	}
	for _, in := range inputs {
		for _, max := range []int{1, 2, 3, 7, 5000} {
			chunks := Segment(in, max)
			assert.Equal(t, strings.Join(strings.Fields(in), " "), Join(chunks))
			for i, c := range chunks {
				if i < len(chunks)-1 {
					assert.Equal(t, max, c.WordCount, "every chunk but the last is full")
				}
			}
		}
	}
}

func TestSegmentSingleChunkEqualsNormalizedText(t *testing.T) {
	text := words(2000)
	chunks := Segment(text, 5000)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0].Text)
}

func TestSegmentEmpty(t *testing.T) {
	assert.Empty(t, Segment("", 10))
	assert.Empty(t, Segment("   \n\t ", 10))
}

func TestSegmentDeterministic(t *testing.T) {
	text := words(777)
	assert.Equal(t, Segment(text, 100), Segment(text, 100))
}

func TestSegmentDefaultMax(t *testing.T) {
	chunks := Segment(words(DefaultMaxWords+1), 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[1].WordCount)
}

func TestJoinReordersByIndex(t *testing.T) {
	chunks := Segment("a b c d", 2)
	chunks[0], chunks[1] = chunks[1], chunks[0]
	assert.Equal(t, "a b c d", Join(chunks))
}

func TestTruncate(t *testing.T) {
	out, cut := Truncate(words(3500), 3000)
	assert.True(t, cut)
	assert.Equal(t, 3000, WordCount(out))
	assert.True(t, strings.HasPrefix(out, "w0 w1"))

	out, cut = Truncate("  short   text ", 3000)
	assert.False(t, cut)
	assert.Equal(t, "short text", out)
}
