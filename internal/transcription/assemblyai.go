package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"meeting-insights-go/internal/config"
	"meeting-insights-go/internal/logger"
	"meeting-insights-go/internal/types"
)

// AssemblyAI is the large-file backend. Audio is uploaded, a transcript job
// is published, and the job is polled until it completes.
type AssemblyAI struct {
	apiKey       string
	baseURL      string
	maxSize      int64
	httpClient   *http.Client
	log          *logger.Logger
	pollInterval time.Duration
	requestRetry time.Duration
}

func NewAssemblyAI(cfg config.AssemblyAIConfig, log *logger.Logger) *AssemblyAI {
	if log == nil {
		log = logger.Discard()
	}
	return &AssemblyAI{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxSize:      cfg.MaxBytes(),
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
		log:          log.WithComponent("assemblyai"),
		pollInterval: 3 * time.Second,
		requestRetry: 15 * time.Second,
	}
}

func (a *AssemblyAI) Name() string        { return "assemblyai" }
func (a *AssemblyAI) MaxInputSize() int64 { return a.maxSize }
func (a *AssemblyAI) IsAvailable() bool   { return a.apiKey != "" }

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL          string `json:"audio_url"`
	LanguageDetection bool   `json:"language_detection,omitempty"`
	LanguageCode      string `json:"language_code,omitempty"`
}

type transcriptResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"` // queued, processing, completed, error
	Text         string `json:"text"`
	LanguageCode string `json:"language_code"`
	Error        string `json:"error"`
	Utterances   []struct {
		Start int64  `json:"start"`
		End   int64  `json:"end"`
		Text  string `json:"text"`
	} `json:"utterances"`
}

// Transcribe never translates. With Translate set the job runs language
// detection and the detected language is reported untranslated.
func (a *AssemblyAI) Transcribe(ctx context.Context, audio types.AudioInput, opts Options) (*types.TranscriptionResult, error) {
	log := a.log.WithField("audio", audio.Name)
	log.WithField("size_mb", fmt.Sprintf("%.2f", audio.SizeMB())).Info("uploading audio")

	uploadURL, err := a.upload(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	req := transcriptRequest{AudioURL: uploadURL}
	if opts.Translate {
		req.LanguageDetection = true
	} else {
		req.LanguageCode = "en"
	}

	var job transcriptResponse
	if err := a.doJSON(ctx, http.MethodPost, "/transcript", req, &job); err != nil {
		return nil, fmt.Errorf("publish transcript: %w", err)
	}
	log.WithField("job_id", job.ID).Info("transcript job queued")

	done, err := a.pollUntilDone(ctx, job.ID, log)
	if err != nil {
		return nil, err
	}

	lang := done.LanguageCode
	if lang == "" {
		lang = "en"
	}
	res := &types.TranscriptionResult{Text: done.Text, Language: lang}
	if lang != "en" && !strings.HasPrefix(lang, "en_") {
		res.SourceLanguage = lang
	}
	for _, u := range done.Utterances {
		res.Segments = append(res.Segments, types.Segment{
			Start: float64(u.Start) / 1000,
			End:   float64(u.End) / 1000,
			Text:  u.Text,
		})
	}
	return res, nil
}

func (a *AssemblyAI) upload(ctx context.Context, audio types.AudioInput) (string, error) {
	var out uploadResponse
	newReq := func() (*http.Request, error) {
		body, closeFn, err := openAudio(audio)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/upload", readCloser{body, closeFn})
		if err != nil {
			closeFn()
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		return req, nil
	}
	if err := a.do(ctx, newReq, &out); err != nil {
		return "", err
	}
	if out.UploadURL == "" {
		return "", errors.New("upload returned no url")
	}
	return out.UploadURL, nil
}

func (a *AssemblyAI) pollUntilDone(ctx context.Context, id string, log *logrus.Entry) (*transcriptResponse, error) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	for {
		var s transcriptResponse
		if err := a.doJSON(ctx, http.MethodGet, "/transcript/"+id, nil, &s); err != nil {
			return nil, fmt.Errorf("poll transcript %s: %w", id, err)
		}

		log.WithFields(logrus.Fields{"job_id": id, "status": s.Status}).Debug("polling transcription")

		switch s.Status {
		case "completed":
			return &s, nil
		case "error":
			return nil, fmt.Errorf("transcript %s failed: %s", id, s.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *AssemblyAI) doJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return err
		}
	}
	newReq := func() (*http.Request, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}
	return a.do(ctx, newReq, out)
}

// do sends a fresh request per attempt, retrying transport errors, 429 and
// 5xx responses.
func (a *AssemblyAI) do(ctx context.Context, newReq func() (*http.Request, error), out any) error {
	op := func() error {
		req, err := newReq()
		if err != nil {
			return err
		}
		req.Header.Set("authorization", a.apiKey)

		resp, err := a.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return fmt.Errorf("server error %d: %s", resp.StatusCode, body)
		case resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("request rejected %d: %s", resp.StatusCode, body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, string(body)))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = a.requestRetry
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

type readCloser struct {
	io.Reader
	closeFn func()
}

func (r readCloser) Close() error {
	r.closeFn()
	return nil
}
