// Package server exposes the meeting pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"meeting-insights-go/internal/app"
	"meeting-insights-go/internal/apperror"
	"meeting-insights-go/internal/logger"
	"meeting-insights-go/internal/pipeline"
	"meeting-insights-go/internal/report"
	"meeting-insights-go/internal/transcription"
	"meeting-insights-go/internal/types"
)

// Runner is satisfied by *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context, audio types.AudioInput, req pipeline.Request) (types.PipelineResult, error)
}

// Planner is satisfied by *transcription.Router.
type Planner interface {
	Plan(size int64, force string) (transcription.Plan, error)
}

type Server struct {
	runner    Runner
	planner   Planner
	metrics   http.Handler
	log       *logger.Logger
	uploadMax int64
}

func New(runner Runner, planner Planner, metrics http.Handler, log *logger.Logger, uploadMax int64) *Server {
	if log == nil {
		log = logger.Discard()
	}
	if metrics == nil {
		metrics = http.NotFoundHandler()
	}
	return &Server{runner: runner, planner: planner, metrics: metrics, log: log, uploadMax: uploadMax}
}

// FromApp builds a server over a wired application.
func FromApp(a *app.App) *Server {
	return New(a.Orchestrator, a.Router, a.Metrics.Handler(), a.Log, a.Config.Server.UploadMaxBytes())
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.health)
	mux.Handle("GET /metrics", s.metrics)
	mux.HandleFunc("GET /route", s.route)
	mux.HandleFunc("POST /process", s.process)
	mux.HandleFunc("POST /report", s.report)
	return mux
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.log.WithRequest(r).Debug("health check")
	fmt.Fprint(w, "ok")
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "route")

	size, err := strconv.ParseInt(r.URL.Query().Get("size_bytes"), 10, 64)
	if err != nil {
		reqLog.Warn("missing or invalid size_bytes")
		http.Error(w, "missing or invalid size_bytes", http.StatusBadRequest)
		return
	}
	plan, err := s.planner.Plan(size, r.URL.Query().Get("backend"))
	if err != nil {
		s.writeError(w, reqLog, err, nil)
		return
	}
	reqLog.WithField("backend", plan.Backend).WithField("size_bytes", size).Info("route planned")
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "process")
	res, err := s.runUpload(w, r, reqLog)
	if err != nil {
		s.writeError(w, reqLog, err, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "report")
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "txt"
	}
	if format != "txt" && format != "xlsx" {
		http.Error(w, "format must be txt or xlsx", http.StatusBadRequest)
		return
	}

	res, err := s.runUpload(w, r, reqLog)
	if err != nil {
		s.writeError(w, reqLog, err, res)
		return
	}

	contentType, ext := report.ContentType(format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_report%s"`, res.AudioName, ext))
	if err := report.Write(w, format, *res); err != nil {
		reqLog.WithError(err).Error("failed to write report")
	}
}

// runUpload reads the multipart "audio" field and runs the pipeline on it.
func (s *Server) runUpload(w http.ResponseWriter, r *http.Request, reqLog *logrus.Entry) (*types.PipelineResult, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMax+(1<<20))
	file, hdr, err := r.FormFile("audio")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, apperror.UnsupportedInput(fmt.Sprintf("upload exceeds %d MB", s.uploadMax/(1024*1024)), err)
		}
		return nil, errBadRequest{fmt.Errorf("missing audio file: %w", err)}
	}
	defer file.Close()

	audio, err := app.FromReader(hdr.Filename, file, s.uploadMax)
	if err != nil {
		return nil, err
	}

	q := r.URL.Query()
	translate, _ := strconv.ParseBool(q.Get("translate"))
	req := pipeline.Request{Translate: translate, ForceBackend: q.Get("backend")}

	reqLog = reqLog.WithField("audio", audio.Name).WithField("size_bytes", audio.Size)
	reqLog.Info("process request received")

	start := time.Now()
	res, err := s.runner.Run(r.Context(), audio, req)
	reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).WithField("run_id", res.RunID).Info("pipeline finished")
	return &res, err
}

type errBadRequest struct{ error }

func (e errBadRequest) Unwrap() error { return e.error }

type errorBody struct {
	Error  string                `json:"error"`
	Kind   apperror.Kind         `json:"kind,omitempty"`
	Hint   string                `json:"hint,omitempty"`
	Result *types.PipelineResult `json:"result,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, reqLog *logrus.Entry, err error, partial *types.PipelineResult) {
	status := http.StatusInternalServerError
	body := errorBody{Error: err.Error(), Hint: apperror.Hint(err), Result: partial}

	var bad errBadRequest
	if ae, ok := apperror.As(err); ok {
		status = ae.HTTPStatus()
		body.Kind = ae.Kind
	} else if errors.As(err, &bad) {
		status = http.StatusBadRequest
	} else if errors.Is(err, context.Canceled) {
		status = 499
	}
	reqLog.WithError(err).WithField("status", status).Warn("request failed")
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
