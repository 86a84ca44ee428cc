// Package apperror classifies pipeline failures by kind and stage so callers
// can decide on remediation (shrink the file, retry, pick another backend).
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindUnsupportedInput      Kind = "unsupported_input"
	KindBackendUnavailable    Kind = "backend_unavailable"
	KindTranscriptionFailed   Kind = "transcription_failed"
	KindExtractionChunkFailed Kind = "extraction_chunk_failed"
	KindEmptyTranscript       Kind = "empty_transcript"
	KindCancelled             Kind = "cancelled"
)

type Stage string

const (
	StageInput         Stage = "input"
	StageTranscription Stage = "transcription"
	StageExtraction    Stage = "extraction"
)

// Sentinels for errors.Is matching on kind alone.
var (
	ErrUnsupportedInput      = &Error{Kind: KindUnsupportedInput}
	ErrBackendUnavailable    = &Error{Kind: KindBackendUnavailable}
	ErrTranscriptionFailed   = &Error{Kind: KindTranscriptionFailed}
	ErrExtractionChunkFailed = &Error{Kind: KindExtractionChunkFailed}
	ErrEmptyTranscript       = &Error{Kind: KindEmptyTranscript}
	ErrCancelled             = &Error{Kind: KindCancelled}
)

type Error struct {
	Kind    Kind   `json:"kind"`
	Stage   Stage  `json:"stage"`
	Backend string `json:"backend,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
	// Status overrides the kind's default HTTP status.
	Status int `json:"-"`
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s [%s]", e.Kind, e.Stage)
	if e.Backend != "" {
		msg += " backend=" + e.Backend
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Fatal reports whether the error aborts a pipeline run.
func (e *Error) Fatal() bool {
	return e.Kind != KindExtractionChunkFailed
}

func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Kind {
	case KindUnsupportedInput:
		if errors.Is(e.Cause, ErrBackendUnavailable) {
			return http.StatusServiceUnavailable
		}
		return http.StatusRequestEntityTooLarge
	case KindBackendUnavailable:
		return http.StatusServiceUnavailable
	case KindEmptyTranscript:
		return http.StatusUnprocessableEntity
	case KindCancelled:
		if errors.Is(e.Cause, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusRequestTimeout
	default:
		return http.StatusBadGateway
	}
}

func UnsupportedInput(msg string, cause error) *Error {
	return &Error{Kind: KindUnsupportedInput, Stage: StageInput, Message: msg, Cause: cause}
}

// UnsupportedFormat rejects a file extension no backend accepts.
func UnsupportedFormat(msg string) *Error {
	return &Error{Kind: KindUnsupportedInput, Stage: StageInput, Message: msg, Status: http.StatusUnsupportedMediaType}
}

// InvalidInput covers malformed requests: empty audio, bad URLs.
func InvalidInput(msg string, cause error) *Error {
	return &Error{Kind: KindUnsupportedInput, Stage: StageInput, Message: msg, Cause: cause, Status: http.StatusBadRequest}
}

func UnknownBackend(name string) *Error {
	return &Error{Kind: KindUnsupportedInput, Stage: StageTranscription, Backend: name, Message: fmt.Sprintf("unknown transcription backend %q", name), Status: http.StatusBadRequest}
}

// NoBackendAvailable is returned when every backend is unconfigured. cause
// joins the per-backend BackendUnavailable errors, if any.
func NoBackendAvailable(msg string, cause error) *Error {
	return &Error{Kind: KindUnsupportedInput, Stage: StageTranscription, Message: msg, Cause: cause, Status: http.StatusServiceUnavailable}
}

func BackendUnavailable(backend, msg string) *Error {
	return &Error{Kind: KindBackendUnavailable, Stage: StageTranscription, Backend: backend, Message: msg}
}

func TranscriptionFailed(backend string, cause error) *Error {
	return &Error{Kind: KindTranscriptionFailed, Stage: StageTranscription, Backend: backend, Message: "backend returned an error or unusable result", Cause: cause}
}

func ExtractionChunkFailed(chunk int, cause error) *Error {
	return &Error{Kind: KindExtractionChunkFailed, Stage: StageExtraction, Message: fmt.Sprintf("chunk %d", chunk), Cause: cause}
}

// Cancelled marks a run stopped by its context during stage.
func Cancelled(stage Stage, cause error) *Error {
	return &Error{Kind: KindCancelled, Stage: stage, Message: fmt.Sprintf("run cancelled during %s", stage), Cause: cause}
}

func EmptyTranscript(backend string) *Error {
	return &Error{Kind: KindEmptyTranscript, Stage: StageTranscription, Backend: backend, Message: "transcription produced no usable text"}
}

// As unwraps err to the first *Error in its chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Hint returns a user-facing remediation for err, or "" when none applies.
func Hint(err error) string {
	ae, ok := As(err)
	if !ok {
		return ""
	}
	switch ae.Kind {
	case KindUnsupportedInput:
		switch ae.Status {
		case http.StatusServiceUnavailable:
			return "No transcription backend is configured. Check your API keys."
		case http.StatusUnsupportedMediaType:
			return "Convert the recording to a supported audio format such as mp3 or wav."
		case http.StatusBadRequest:
			if ae.Backend != "" {
				return "Pick one of the registered backends, or let the router choose automatically."
			}
			return "Check the request: the audio must be non-empty and the URL well formed."
		}
		if errors.Is(ae.Cause, ErrBackendUnavailable) {
			return "No transcription backend is configured. Check your API keys."
		}
		return "File too large for the configured backends. Shrink the file or add a large-file backend API key for files > 25 MB."
	case KindBackendUnavailable:
		return "Double-check the API key for the selected backend, or let the router choose automatically."
	case KindTranscriptionFailed:
		return "Retry the request or choose a different transcription backend."
	case KindEmptyTranscript:
		return "The recording contains no recognizable speech."
	case KindExtractionChunkFailed:
		return "Some sections could not be analyzed; results may be incomplete."
	case KindCancelled:
		if ae.Stage == StageExtraction {
			return "The run stopped before extraction finished; partial action items are in the diagnostics."
		}
		return "The run stopped before it finished. Retry with a longer timeout."
	}
	return ""
}
