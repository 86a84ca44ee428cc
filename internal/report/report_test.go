package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"meeting-insights-go/internal/types"
)

func sampleResult() types.PipelineResult {
	return types.PipelineResult{
		RunID:     "run-1",
		AudioName: "weekly.mp3",
		Transcript: types.TranscriptionResult{
			Text:     "Sarah will send the report by Friday.",
			Language: "en",
			Backend:  "groq",
			Segments: []types.Segment{{Start: 0, End: 3.5, Text: "Sarah will send the report by Friday."}},
		},
		Summary: types.MeetingSummary{Text: "The team agreed on the report.", Truncated: true},
		ActionItems: []types.ActionItem{
			{Task: "Send the report", Owner: "Sarah", Deadline: "Friday"},
			{Task: "Book a room", Owner: types.DefaultOwner, Deadline: types.DefaultDeadline},
		},
		Diagnostics: types.Diagnostics{ChunkCount: 1},
	}
}

func TestText(t *testing.T) {
	out := Text(sampleResult())

	rule := strings.Repeat("=", 50)
	assert.True(t, strings.HasPrefix(out, "MEETING ANALYSIS REPORT\n"+rule+"\n\nSUMMARY:\n"))
	assert.Contains(t, out, "The team agreed on the report.\n"+TruncationNote)
	assert.Contains(t, out, "ACTION ITEMS:\n- Send the report (Owner: Sarah, Deadline: Friday)\n- Book a room (Owner: Unassigned, Deadline: Not specified)")
	assert.Contains(t, out, "FULL TRANSCRIPT:\nSarah will send the report by Friday.\n")
	assert.Equal(t, 3, strings.Count(out, rule))
	assert.NotContains(t, out, "NOTE:")
}

func TestTextDegradedRun(t *testing.T) {
	res := sampleResult()
	res.Summary = types.MeetingSummary{}
	res.ActionItems = nil
	res.Diagnostics = types.Diagnostics{
		ChunkCount:    3,
		ChunkFailures: []types.ChunkFailure{{Index: 1, Error: "timeout"}},
		SummaryError:  "rate limited",
	}

	out := Text(res)
	assert.Contains(t, out, "SUMMARY:\nSummary unavailable. rate limited")
	assert.Contains(t, out, "ACTION ITEMS:\nNo action items found.")
	assert.Contains(t, out, "NOTE: 1 of 3 transcript sections could not be analyzed.")
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "XLSX", sampleResult()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Action Items", "Transcript"}, f.GetSheetList())

	rows, err := f.GetRows("Action Items")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"#", "Task", "Owner", "Deadline"}, rows[0])
	assert.Equal(t, []string{"1", "Send the report", "Sarah", "Friday"}, rows[1])

	backend, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "groq", backend)

	seg, err := f.GetCellValue("Transcript", "C2")
	require.NoError(t, err)
	assert.Equal(t, "Sarah will send the report by Friday.", seg)
}

func TestXLSXWithoutSegments(t *testing.T) {
	res := sampleResult()
	res.Transcript.Segments = nil

	f, err := XLSX(res)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Transcript", "A1")
	require.NoError(t, err)
	assert.Equal(t, res.Transcript.Text, v)
}

func TestContentType(t *testing.T) {
	ct, ext := ContentType("xlsx")
	assert.Contains(t, ct, "spreadsheetml")
	assert.Equal(t, ".xlsx", ext)

	ct, ext = ContentType("txt")
	assert.Equal(t, "text/plain; charset=utf-8", ct)
	assert.Equal(t, ".txt", ext)
}
