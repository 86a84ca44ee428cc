package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Mock is a deterministic offline backend, enabled with USE_MOCK_LLM=true.
// Summaries echo the first sentences; action items come from
// "<Name> will <task> [by <deadline>]." sentences.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return "mock" }

var (
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]?`)
	willRe     = regexp.MustCompile(`^([A-Z][a-z]+) will (.+?)(?: by ([^.!?]+))?[.!?]?$`)
)

func (m *Mock) Complete(ctx context.Context, prompt string, _ CompletionOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch {
	case strings.HasSuffix(prompt, "Action Items:"):
		return mockActionItems(between(prompt, "Transcript:\n", "\n\nAction Items:")), nil
	case strings.HasSuffix(prompt, "Summary:"):
		return mockSummary(between(prompt, "Transcript:\n", "\n\nSummary:")), nil
	}
	return "", fmt.Errorf("mock: unrecognized prompt")
}

func between(s, start, end string) string {
	i := strings.LastIndex(s, start)
	j := strings.LastIndex(s, end)
	if i < 0 || j < i {
		return s
	}
	return s[i+len(start) : j]
}

func mockSummary(transcript string) string {
	sentences := sentenceRe.FindAllString(transcript, 3)
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	return "The meeting covered: " + strings.Join(sentences, " ")
}

func mockActionItems(transcript string) string {
	var lines []string
	for _, s := range sentenceRe.FindAllString(transcript, -1) {
		mm := willRe.FindStringSubmatch(strings.TrimSpace(s))
		if mm == nil {
			continue
		}
		deadline := mm[3]
		if deadline == "" {
			deadline = "Not specified"
		}
		lines = append(lines, fmt.Sprintf("- Task: %s | Owner: %s | Deadline: %s", mm[2], mm[1], deadline))
	}
	if len(lines) == 0 {
		return noActionItems
	}
	return strings.Join(lines, "\n")
}
