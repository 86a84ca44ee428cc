// Package extractor turns transcript text into a meeting summary and action
// items by prompting an injected text-intelligence backend.
package extractor

import (
	"context"
	"errors"
	"strings"

	"meeting-insights-go/internal/apperror"
	"meeting-insights-go/internal/logger"
	"meeting-insights-go/internal/segmenter"
	"meeting-insights-go/internal/types"
)

const DefaultSummaryMaxWords = 3000

var (
	summaryOptions     = CompletionOptions{Temperature: 0.5, MaxOutputTokens: 300}
	actionItemsOptions = CompletionOptions{Temperature: 0.3, MaxOutputTokens: 1000}
)

// Client is stateless per call and safe for concurrent use.
type Client struct {
	backend         TextIntelligence
	log             *logger.Logger
	summaryMaxWords int
}

func NewClient(backend TextIntelligence, log *logger.Logger, summaryMaxWords int) *Client {
	if summaryMaxWords <= 0 {
		summaryMaxWords = DefaultSummaryMaxWords
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		backend:         backend,
		log:             log.WithComponent("extractor"),
		summaryMaxWords: summaryMaxWords,
	}
}

// Summarize summarizes the first summaryMaxWords words of the transcript in a
// single call.
func (c *Client) Summarize(ctx context.Context, transcript string) (types.MeetingSummary, error) {
	input, truncated := segmenter.Truncate(transcript, c.summaryMaxWords)
	if input == "" {
		return types.MeetingSummary{}, apperror.ExtractionChunkFailed(0, errors.New("empty summary input"))
	}

	out, err := c.backend.Complete(ctx, BuildSummaryPrompt(input), summaryOptions)
	if err != nil {
		c.log.WithError(err).Warn("summary call failed")
		return types.MeetingSummary{}, apperror.ExtractionChunkFailed(0, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return types.MeetingSummary{}, apperror.ExtractionChunkFailed(0, errors.New("empty summary"))
	}

	c.log.WithField("source_words", segmenter.WordCount(input)).
		WithField("truncated", truncated).
		Debug("summary generated")
	return types.MeetingSummary{
		Text:            out,
		SourceWordCount: segmenter.WordCount(input),
		Truncated:       truncated,
	}, nil
}

// ExtractActionItems runs one extraction call for one chunk. Any failure is
// returned as an ExtractionChunkFailed error alongside zero items.
func (c *Client) ExtractActionItems(ctx context.Context, chunk types.Chunk) ([]types.ActionItem, error) {
	log := c.log.WithField("chunk", chunk.Index)

	out, err := c.backend.Complete(ctx, BuildActionItemsPrompt(chunk.Text), actionItemsOptions)
	if err != nil {
		log.WithError(err).Warn("action item call failed")
		return nil, apperror.ExtractionChunkFailed(chunk.Index, err)
	}
	items, err := ParseActionItems(out)
	if err != nil {
		log.WithError(err).WithField("raw_len", len(out)).Warn("action item output unparseable")
		return nil, apperror.ExtractionChunkFailed(chunk.Index, err)
	}

	log.WithField("items", len(items)).Debug("action items extracted")
	return items, nil
}
