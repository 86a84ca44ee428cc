package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"meeting-insights-go/internal/apperror"
	"meeting-insights-go/internal/logger"
	"meeting-insights-go/internal/metrics"
	"meeting-insights-go/internal/types"
)

// Route is one row of the routing table, snapshotted at selection time.
type Route struct {
	Backend   Backend
	Name      string
	MaxSize   int64
	Available bool
}

// Request carries per-run routing options.
type Request struct {
	Translate bool
	// ForceBackend bypasses table ordering but still enforces the named
	// backend's capacity and availability.
	ForceBackend string
	// Exclude drops backends from consideration, used for explicit fallback.
	Exclude []string
}

// Plan describes the routing decision for an input without running it.
type Plan struct {
	Backend          string `json:"backend"`
	MaxInputSize     int64  `json:"max_input_size_bytes"`
	SizeBytes        int64  `json:"size_bytes"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

type Router struct {
	backends []Backend
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewRouter(log *logger.Logger, m *metrics.Metrics, backends ...Backend) *Router {
	if log == nil {
		log = logger.Discard()
	}
	return &Router{backends: backends, log: log.WithComponent("router"), metrics: m}
}

// Table evaluates every backend's capacity and availability in priority order.
func (r *Router) Table() []Route {
	table := make([]Route, 0, len(r.backends))
	for _, b := range r.backends {
		table = append(table, Route{
			Backend:   b,
			Name:      b.Name(),
			MaxSize:   b.MaxInputSize(),
			Available: b.IsAvailable(),
		})
	}
	return table
}

// Select picks the first available row whose capacity covers size, skipping
// excluded names. It is pure: the same table and size always give the same row.
func Select(table []Route, size int64, exclude ...string) (Route, error) {
	if size <= 0 {
		return Route{}, apperror.InvalidInput("empty audio input", nil)
	}

	var unavailable []error
	considered, available := 0, 0
	for _, row := range table {
		if isExcluded(row.Name, exclude) {
			continue
		}
		considered++
		if !row.Available {
			unavailable = append(unavailable, apperror.BackendUnavailable(row.Name, "not configured or not authorized"))
			continue
		}
		available++
		if row.MaxSize >= size {
			return row, nil
		}
	}

	switch {
	case considered == 0:
		return Route{}, apperror.NoBackendAvailable("no transcription backend configured", nil)
	case available == 0:
		return Route{}, apperror.NoBackendAvailable("no transcription backend is available", errors.Join(unavailable...))
	default:
		return Route{}, apperror.UnsupportedInput(
			fmt.Sprintf("input of %.1f MB exceeds every available backend's limit", float64(size)/(1024*1024)), nil)
	}
}

// selectForced resolves an explicitly requested backend.
func selectForced(table []Route, size int64, name string) (Route, error) {
	for _, row := range table {
		if !strings.EqualFold(row.Name, name) {
			continue
		}
		if !row.Available {
			return Route{}, apperror.BackendUnavailable(row.Name, "forced backend is not configured or not authorized")
		}
		if size <= 0 {
			return Route{}, apperror.InvalidInput("empty audio input", nil)
		}
		if row.MaxSize < size {
			return Route{}, apperror.UnsupportedInput(
				fmt.Sprintf("%s supports at most %.0f MB", row.Name, float64(row.MaxSize)/(1024*1024)), nil)
		}
		return row, nil
	}
	return Route{}, apperror.UnknownBackend(name)
}

func (r *Router) route(size int64, req Request) (Route, error) {
	table := r.Table()
	for _, row := range table {
		if !row.Available {
			r.metrics.BackendSkipped(row.Name, "unavailable")
		}
	}
	if req.ForceBackend != "" {
		return selectForced(table, size, req.ForceBackend)
	}
	return Select(table, size, req.Exclude...)
}

// Plan reports which backend would handle an input of the given size.
func (r *Router) Plan(size int64, force string) (Plan, error) {
	row, err := r.route(size, Request{ForceBackend: force})
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Backend:          row.Name,
		MaxInputSize:     row.MaxSize,
		SizeBytes:        size,
		EstimatedMinutes: EstimateMinutes(size),
	}, nil
}

// Transcribe selects a backend, runs it once and normalizes its result. A
// backend failure is returned as TranscriptionFailed; the router never moves
// on to another backend by itself.
func (r *Router) Transcribe(ctx context.Context, audio types.AudioInput, req Request) (*types.TranscriptionResult, error) {
	row, err := r.route(audio.Size, req)
	if err != nil {
		r.log.WithError(err).WithField("size_bytes", audio.Size).Warn("no transcription backend qualifies")
		return nil, err
	}

	log := r.log.WithField("backend", row.Name).WithField("size_bytes", audio.Size).WithField("translate", req.Translate)
	log.Info("transcription backend selected")
	r.metrics.BackendSelected(row.Name)

	res, err := row.Backend.Transcribe(ctx, audio, Options{Translate: req.Translate})
	if err != nil {
		log.WithError(err).Warn("transcription backend failed")
		var ae *apperror.Error
		if !errors.As(err, &ae) {
			ae = apperror.TranscriptionFailed(row.Name, err)
		}
		r.metrics.TranscriptionFailed(row.Name, string(ae.Kind))
		return nil, ae
	}
	if res == nil {
		r.metrics.TranscriptionFailed(row.Name, string(apperror.KindTranscriptionFailed))
		return nil, apperror.TranscriptionFailed(row.Name, errors.New("backend returned no result"))
	}

	out := *res
	out.Backend = row.Name
	out.Text = strings.TrimSpace(out.Text)
	if out.Language == "" {
		out.Language = "en"
	}
	return &out, nil
}

// EstimateMinutes gives a rough processing time for an upload.
func EstimateMinutes(size int64) int {
	sizeMB := float64(size) / (1024 * 1024)
	rate := 0.08
	if sizeMB < 20 {
		rate = 0.12
	}
	return max(1, int(sizeMB*rate))
}

func isExcluded(name string, exclude []string) bool {
	for _, e := range exclude {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}
