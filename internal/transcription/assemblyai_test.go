package transcription

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"meeting-insights-go/internal/config"
	"meeting-insights-go/internal/logger"
)

type fakeAssembly struct {
	mu         sync.Mutex
	polls      atomic.Int32
	readyAfter int32
	final      string
	lastJob    transcriptRequest
	uploaded   []byte
}

func (f *fakeAssembly) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aai-test", r.Header.Get("authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			f.uploaded = body
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]string{"upload_url": "https://cdn.example/abc"})
		case r.Method == http.MethodPost && r.URL.Path == "/transcript":
			var job transcriptRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&job))
			f.mu.Lock()
			f.lastJob = job
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/transcript/job-1":
			n := f.polls.Add(1)
			if n < f.readyAfter {
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "job-1", "status": "processing"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":            "job-1",
				"status":        f.final,
				"text":          "John will review the onboarding flow.",
				"language_code": "en",
				"error":         "audio too short",
			})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}
}

func (f *fakeAssembly) snapshot() (transcriptRequest, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastJob, f.uploaded
}

func newTestAssemblyAI(t *testing.T, f *fakeAssembly) *AssemblyAI {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	a := NewAssemblyAI(config.AssemblyAIConfig{APIKey: "aai-test", BaseURL: srv.URL + "/", MaxMB: 5120}, logger.Discard())
	a.pollInterval = 5 * time.Millisecond
	a.requestRetry = time.Second
	return a
}

func TestAssemblyAIUploadPublishPoll(t *testing.T) {
	f := &fakeAssembly{readyAfter: 3, final: "completed"}
	a := newTestAssemblyAI(t, f)

	res, err := a.Transcribe(context.Background(), sampleAudio(), Options{})
	require.NoError(t, err)
	job, uploaded := f.snapshot()
	assert.Equal(t, "John will review the onboarding flow.", res.Text)
	assert.Equal(t, "en", res.Language)
	assert.Equal(t, "https://cdn.example/abc", job.AudioURL)
	assert.Equal(t, "en", job.LanguageCode)
	assert.False(t, job.LanguageDetection)
	assert.Equal(t, []byte("ID3-fake-audio"), uploaded)
	assert.EqualValues(t, 3, f.polls.Load())
}

func TestAssemblyAITranslateRequestsDetection(t *testing.T) {
	f := &fakeAssembly{readyAfter: 1, final: "completed"}
	a := newTestAssemblyAI(t, f)

	res, err := a.Transcribe(context.Background(), sampleAudio(), Options{Translate: true})
	require.NoError(t, err)
	job, _ := f.snapshot()
	assert.True(t, job.LanguageDetection)
	assert.Empty(t, job.LanguageCode)
	assert.False(t, res.Translated)
}

func TestAssemblyAIJobError(t *testing.T) {
	f := &fakeAssembly{readyAfter: 1, final: "error"}
	a := newTestAssemblyAI(t, f)

	_, err := a.Transcribe(context.Background(), sampleAudio(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio too short")
}

func TestAssemblyAIPollHonoursContext(t *testing.T) {
	f := &fakeAssembly{readyAfter: 1 << 30, final: "completed"}
	a := newTestAssemblyAI(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := a.Transcribe(ctx, sampleAudio(), Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAssemblyAIRejectsBadKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"Authentication error"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	a := NewAssemblyAI(config.AssemblyAIConfig{APIKey: "bad", BaseURL: srv.URL, MaxMB: 5120}, nil)
	_, err := a.Transcribe(context.Background(), sampleAudio(), Options{})
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}
