package transcription

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"
	"meeting-insights-go/internal/config"
	"meeting-insights-go/internal/types"
)

// Whisper is the fast backend: an OpenAI-compatible Whisper endpoint (Groq
// by default) with a small upload limit.
type Whisper struct {
	client          *openai.Client
	apiKey          string
	model           string
	maxSize         int64
	retryMaxElapsed time.Duration
}

func NewWhisper(cfg config.GroqConfig) *Whisper {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.WhisperModel
	if model == "" {
		model = "whisper-large-v3-turbo"
	}
	return &Whisper{
		client:          openai.NewClientWithConfig(clientConfig),
		apiKey:          cfg.APIKey,
		model:           model,
		maxSize:         cfg.MaxBytes(),
		retryMaxElapsed: 20 * time.Second,
	}
}

func (w *Whisper) Name() string        { return "groq" }
func (w *Whisper) MaxInputSize() int64 { return w.maxSize }
func (w *Whisper) IsAvailable() bool   { return w.apiKey != "" }

// Transcribe without translation forces English. With translation it first
// detects the spoken language, then calls the translation endpoint only when
// the audio is not already English.
func (w *Whisper) Transcribe(ctx context.Context, audio types.AudioInput, opts Options) (*types.TranscriptionResult, error) {
	if !opts.Translate {
		resp, err := w.call(ctx, audio, "en", w.client.CreateTranscription)
		if err != nil {
			return nil, err
		}
		return toResult(resp, "en"), nil
	}

	detected, err := w.call(ctx, audio, "", w.client.CreateTranscription)
	if err != nil {
		return nil, err
	}
	lang := normalizeLanguage(detected.Language)
	if lang == "en" || lang == "" {
		return toResult(detected, "en"), nil
	}

	translated, err := w.call(ctx, audio, "", w.client.CreateTranslation)
	if err != nil {
		return nil, fmt.Errorf("translate from %s: %w", lang, err)
	}
	res := toResult(translated, "en")
	res.SourceLanguage = lang
	res.Translated = true
	return res, nil
}

type audioCall func(context.Context, openai.AudioRequest) (openai.AudioResponse, error)

func (w *Whisper) call(ctx context.Context, audio types.AudioInput, language string, fn audioCall) (openai.AudioResponse, error) {
	var resp openai.AudioResponse
	op := func() error {
		reader, closeFn, err := openAudio(audio)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer closeFn()

		resp, err = fn(ctx, openai.AudioRequest{
			Model:    w.model,
			FilePath: audioFileName(audio),
			Reader:   reader,
			Language: language,
			Format:   openai.AudioResponseFormatVerboseJSON,
		})
		if err != nil && isPermanentAPIError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = w.retryMaxElapsed
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return openai.AudioResponse{}, err
	}
	return resp, nil
}

func toResult(resp openai.AudioResponse, language string) *types.TranscriptionResult {
	res := &types.TranscriptionResult{Text: resp.Text, Language: language}
	for _, s := range resp.Segments {
		res.Segments = append(res.Segments, types.Segment{Start: s.Start, End: s.End, Text: strings.TrimSpace(s.Text)})
	}
	return res
}

// openAudio returns a fresh reader per attempt so retries resend the whole file.
func openAudio(audio types.AudioInput) (io.Reader, func(), error) {
	if audio.Data != nil {
		return bytes.NewReader(audio.Data), func() {}, nil
	}
	f, err := os.Open(audio.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open audio: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func audioFileName(audio types.AudioInput) string {
	if audio.Name != "" {
		return audio.Name
	}
	if audio.Path != "" {
		return filepath.Base(audio.Path)
	}
	return "audio.mp3"
}

// normalizeLanguage maps Whisper's language names ("english") to ISO codes.
func normalizeLanguage(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if code, ok := languageCodes[lang]; ok {
		return code
	}
	return lang
}

var languageCodes = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"hindi":      "hi",
	"portuguese": "pt",
	"italian":    "it",
	"japanese":   "ja",
	"chinese":    "zh",
	"arabic":     "ar",
	"russian":    "ru",
	"korean":     "ko",
	"dutch":      "nl",
	"urdu":       "ur",
}

func isPermanentAPIError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	return status >= 400 && status < 500 && status != http.StatusTooManyRequests
}
