package pipeline

import (
	"strings"

	"meeting-insights-go/internal/segmenter"
)

const (
	minTranscriptWords = 50
	minMeetingKeywords = 3
	warnTooShort       = "transcript too short"
	warnNotMeetingLike = "content doesn't seem like a meeting"
)

var meetingKeywords = []string{
	"meeting", "discuss", "agenda", "action", "will", "should", "need",
	"follow", "deadline", "project", "team", "work", "task", "complete",
	"send", "review", "update", "call",
}

// ValidateTranscript returns non-fatal quality warnings for a transcript.
func ValidateTranscript(text string) []string {
	var warnings []string
	if segmenter.WordCount(text) < minTranscriptWords {
		warnings = append(warnings, warnTooShort)
	}

	lower := strings.ToLower(text)
	found := 0
	for _, kw := range meetingKeywords {
		if strings.Contains(lower, kw) {
			found++
		}
	}
	if found < minMeetingKeywords {
		warnings = append(warnings, warnNotMeetingLike)
	}
	return warnings
}
