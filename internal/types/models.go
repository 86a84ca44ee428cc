package types

import "time"

// Sentinel defaults used when an action item carries no owner or deadline.
const (
	DefaultOwner    = "Unassigned"
	DefaultDeadline = "Not specified"
)

// AudioInput is an uploaded meeting recording. Either Path or Data is set.
type AudioInput struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Data     []byte `json:"-"`
	Size     int64  `json:"size_bytes"`
	MIMEType string `json:"mime_type,omitempty"`
}

// SizeMB reports the input size in mebibytes.
func (a AudioInput) SizeMB() float64 {
	return float64(a.Size) / (1024 * 1024)
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type TranscriptionResult struct {
	Text           string    `json:"text"`
	Language       string    `json:"language"`
	SourceLanguage string    `json:"source_language,omitempty"`
	Segments       []Segment `json:"segments,omitempty"`
	Backend        string    `json:"backend"`
	Translated     bool      `json:"translated"`
}

type Chunk struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
}

// ActionItem is the {task, owner, deadline} triple consumed by reports and exports.
type ActionItem struct {
	Task     string `json:"task"`
	Owner    string `json:"owner"`
	Deadline string `json:"deadline"`
}

type MeetingSummary struct {
	Text            string `json:"text"`
	SourceWordCount int    `json:"source_word_count"`
	Truncated       bool   `json:"truncated"`
}

// ChunkFailure records a chunk whose extraction degraded to zero items.
type ChunkFailure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type Diagnostics struct {
	ChunkCount    int            `json:"chunk_count"`
	ChunkFailures []ChunkFailure `json:"chunk_failures,omitempty"`
	SummaryError  string         `json:"summary_error,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
	// PartialActionItems is only populated on a failed run, best effort.
	PartialActionItems []ActionItem `json:"partial_action_items,omitempty"`
	Incomplete         bool         `json:"incomplete,omitempty"`
	FallbackFrom       string       `json:"fallback_from,omitempty"`
}

type PipelineResult struct {
	RunID       string              `json:"run_id"`
	AudioName   string              `json:"audio_name"`
	Transcript  TranscriptionResult `json:"transcript"`
	Summary     MeetingSummary      `json:"summary"`
	ActionItems []ActionItem        `json:"action_items"`
	Diagnostics Diagnostics         `json:"diagnostics"`
	StartedAt   time.Time           `json:"started_at"`
	DurationMs  int64               `json:"duration_ms"`
}
