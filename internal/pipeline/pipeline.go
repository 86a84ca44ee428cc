// Package pipeline sequences one meeting recording through transcription,
// segmentation, summarization and per-chunk action item extraction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"meeting-insights-go/internal/apperror"
	"meeting-insights-go/internal/config"
	"meeting-insights-go/internal/dedup"
	"meeting-insights-go/internal/logger"
	"meeting-insights-go/internal/metrics"
	"meeting-insights-go/internal/segmenter"
	"meeting-insights-go/internal/transcription"
	"meeting-insights-go/internal/types"
	"meeting-insights-go/internal/workpool"
)

type State string

const (
	StateReceived              State = "received"
	StateTranscribing          State = "transcribing"
	StateNeedsSegmentation     State = "needs_segmentation"
	StateSummarizing           State = "summarizing"
	StateExtractingActionItems State = "extracting_action_items"
	StateDeduplicating         State = "deduplicating"
	StateComplete              State = "complete"
	StateFailed                State = "failed"
)

// Transcriber is satisfied by *transcription.Router.
type Transcriber interface {
	Transcribe(ctx context.Context, audio types.AudioInput, req transcription.Request) (*types.TranscriptionResult, error)
}

// Extractor is satisfied by *extractor.Client.
type Extractor interface {
	Summarize(ctx context.Context, transcript string) (types.MeetingSummary, error)
	ExtractActionItems(ctx context.Context, chunk types.Chunk) ([]types.ActionItem, error)
}

type Options struct {
	MaxWordsPerChunk    int
	MaxConcurrentChunks int
	TranscribeTimeout   time.Duration
	ExtractTimeout      time.Duration
	// FallbackOnFailure retries transcription once on the next qualifying
	// backend when the selected one fails.
	FallbackOnFailure bool
}

func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		MaxWordsPerChunk:    cfg.MaxWordsPerChunk,
		MaxConcurrentChunks: cfg.MaxConcurrentChunks,
		TranscribeTimeout:   cfg.TranscribeTimeoutDuration(),
		ExtractTimeout:      cfg.ExtractTimeoutDuration(),
		FallbackOnFailure:   cfg.FallbackOnFailure,
	}
}

// Request holds per-run caller options.
type Request struct {
	Translate    bool
	ForceBackend string
	// OnState, when set, is called synchronously on every state transition.
	OnState func(State)
}

type Orchestrator struct {
	transcriber Transcriber
	extractor   Extractor
	opts        Options
	log         *logger.Logger
	metrics     *metrics.Metrics
}

func New(t Transcriber, e Extractor, opts Options, log *logger.Logger, m *metrics.Metrics) *Orchestrator {
	if opts.MaxWordsPerChunk <= 0 {
		opts.MaxWordsPerChunk = segmenter.DefaultMaxWords
	}
	if opts.MaxConcurrentChunks <= 0 {
		opts.MaxConcurrentChunks = 4
	}
	if opts.TranscribeTimeout <= 0 {
		opts.TranscribeTimeout = 5 * time.Minute
	}
	if opts.ExtractTimeout <= 0 {
		opts.ExtractTimeout = time.Minute
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Orchestrator{
		transcriber: t,
		extractor:   e,
		opts:        opts,
		log:         log.WithComponent("pipeline"),
		metrics:     m,
	}
}

// run is the per-call state. Nothing in it is shared with other runs.
type run struct {
	log     *logger.Logger
	result  types.PipelineResult
	onState func(State)
}

func (r *run) enter(s State) {
	r.log.WithField("state", string(s)).Debug("pipeline state")
	if r.onState != nil {
		r.onState(s)
	}
}

// Run processes one recording. On failure the returned result still carries
// whatever was produced before the failure, with Diagnostics.Incomplete set.
func (o *Orchestrator) Run(ctx context.Context, audio types.AudioInput, req Request) (types.PipelineResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	r := &run{
		log:     o.log.WithRun(runID),
		onState: req.OnState,
		result: types.PipelineResult{
			RunID:       runID,
			AudioName:   audio.Name,
			ActionItems: []types.ActionItem{},
			StartedAt:   start.UTC(),
		},
	}
	r.log.WithFields(logrus.Fields{
		"audio":     audio.Name,
		"size_mb":   fmt.Sprintf("%.2f", audio.SizeMB()),
		"translate": req.Translate,
	}).Info("pipeline run started")
	r.enter(StateReceived)

	err := o.run(ctx, audio, req, r)
	r.result.DurationMs = time.Since(start).Milliseconds()

	if err != nil {
		r.result.Diagnostics.Incomplete = true
		r.enter(StateFailed)
		r.log.WithError(err).WithField("hint", apperror.Hint(err)).Error("pipeline run failed")
		o.metrics.RunFinished("failed", time.Since(start))
		return r.result, err
	}

	outcome := "ok"
	if len(r.result.Diagnostics.ChunkFailures) > 0 || r.result.Diagnostics.SummaryError != "" {
		outcome = "degraded"
	}
	r.enter(StateComplete)
	r.log.WithFields(logrus.Fields{
		"action_items": len(r.result.ActionItems),
		"chunks":       r.result.Diagnostics.ChunkCount,
		"outcome":      outcome,
		"duration_ms":  r.result.DurationMs,
	}).Info("pipeline run complete")
	o.metrics.RunFinished(outcome, time.Since(start))
	return r.result, nil
}

func (o *Orchestrator) run(ctx context.Context, audio types.AudioInput, req Request, r *run) error {
	r.enter(StateTranscribing)
	tr, err := o.transcribe(ctx, audio, req, r)
	if err != nil {
		return err
	}
	r.result.Transcript = *tr
	if tr.Text == "" {
		return apperror.EmptyTranscript(tr.Backend)
	}
	r.result.Diagnostics.Warnings = ValidateTranscript(tr.Text)
	for _, w := range r.result.Diagnostics.Warnings {
		r.log.WithField("warning", w).Warn("transcript validation")
	}

	r.enter(StateNeedsSegmentation)
	chunks := segmenter.Segment(tr.Text, o.opts.MaxWordsPerChunk)
	r.result.Diagnostics.ChunkCount = len(chunks)
	r.log.WithFields(logrus.Fields{
		"words":     segmenter.WordCount(tr.Text),
		"chunks":    len(chunks),
		"segmented": len(chunks) > 1,
	}).Info("transcript segmented")

	r.enter(StateSummarizing)
	o.summarize(ctx, tr.Text, r)

	r.enter(StateExtractingActionItems)
	perChunk := o.extractAll(ctx, chunks, r)

	r.enter(StateDeduplicating)
	merged := dedup.Merge(perChunk)

	if err := ctx.Err(); err != nil {
		r.result.Diagnostics.PartialActionItems = merged
		return apperror.Cancelled(apperror.StageExtraction, err)
	}
	r.result.ActionItems = merged
	return nil
}

// transcribe runs the router with its own timeout. When the selected backend
// fails and fallback is enabled, it retries once with that backend excluded.
// A timeout is never retried.
func (o *Orchestrator) transcribe(ctx context.Context, audio types.AudioInput, req Request, r *run) (*types.TranscriptionResult, error) {
	treq := transcription.Request{Translate: req.Translate, ForceBackend: req.ForceBackend}
	tr, err := o.transcribeOnce(ctx, audio, treq)
	if err == nil {
		return tr, nil
	}

	ae, ok := apperror.As(err)
	if !ok || ae.Kind != apperror.KindTranscriptionFailed || !o.opts.FallbackOnFailure ||
		req.ForceBackend != "" || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return nil, err
	}

	r.log.WithField("failed_backend", ae.Backend).Warn("transcription failed, trying next backend")
	treq.Exclude = []string{ae.Backend}
	tr, ferr := o.transcribeOnce(ctx, audio, treq)
	if ferr != nil {
		if errors.Is(ferr, apperror.ErrUnsupportedInput) {
			// nothing else qualifies; the original failure is the useful one
			return nil, err
		}
		return nil, ferr
	}
	r.result.Diagnostics.FallbackFrom = ae.Backend
	return tr, nil
}

func (o *Orchestrator) transcribeOnce(ctx context.Context, audio types.AudioInput, req transcription.Request) (*types.TranscriptionResult, error) {
	tctx, cancel := context.WithTimeout(ctx, o.opts.TranscribeTimeout)
	defer cancel()
	return o.transcriber.Transcribe(tctx, audio, req)
}

// summarize failures are recorded, not fatal: action items are still useful
// without a summary.
func (o *Orchestrator) summarize(ctx context.Context, text string, r *run) {
	sctx, cancel := context.WithTimeout(ctx, o.opts.ExtractTimeout)
	defer cancel()

	summary, err := o.extractor.Summarize(sctx, text)
	if err != nil {
		r.result.Diagnostics.SummaryError = err.Error()
		r.log.WithError(err).Warn("summary failed")
		return
	}
	r.result.Summary = summary
}

// extractAll fans out one extraction call per chunk, bounded by
// MaxConcurrentChunks. Results are indexed by chunk so the merge sees them in
// chunk order regardless of completion order. A failed chunk contributes no
// items and never cancels its siblings.
func (o *Orchestrator) extractAll(ctx context.Context, chunks []types.Chunk, r *run) [][]types.ActionItem {
	results := make([][]types.ActionItem, len(chunks))
	errs := make([]error, len(chunks))
	sem := workpool.NewLimiter(o.opts.MaxConcurrentChunks)

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		if err := sem.Acquire(ctx); err != nil {
			errs[i] = apperror.ExtractionChunkFailed(chunk.Index, err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release()

			cctx, cancel := context.WithTimeout(ctx, o.opts.ExtractTimeout)
			defer cancel()
			results[i], errs[i] = o.extractor.ExtractActionItems(cctx, chunk)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		o.metrics.ChunkExtracted(err == nil)
		if err == nil {
			continue
		}
		results[i] = nil
		r.result.Diagnostics.ChunkFailures = append(r.result.Diagnostics.ChunkFailures, types.ChunkFailure{
			Index: chunks[i].Index,
			Error: err.Error(),
		})
		r.log.WithError(err).WithField("chunk", chunks[i].Index).Warn("chunk extraction failed")
	}
	return results
}
