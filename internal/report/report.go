// Package report renders a pipeline result as a plain-text or xlsx document.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"meeting-insights-go/internal/types"
)

const (
	TruncationNote = "(summarized from first portion of long transcript)"
	noItemsLine    = "No action items found."

	sheetSummary    = "Summary"
	sheetItems      = "Action Items"
	sheetTranscript = "Transcript"
)

var rule = strings.Repeat("=", 50)

// FormatActionItems renders one "- Task (Owner, Deadline)" line per item.
func FormatActionItems(items []types.ActionItem) string {
	if len(items) == 0 {
		return noItemsLine
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("- %s (Owner: %s, Deadline: %s)", it.Task, it.Owner, it.Deadline)
	}
	return strings.Join(lines, "\n")
}

func summaryText(res types.PipelineResult) string {
	text := res.Summary.Text
	if text == "" {
		text = "Summary unavailable."
		if res.Diagnostics.SummaryError != "" {
			text += " " + res.Diagnostics.SummaryError
		}
	}
	if res.Summary.Truncated {
		text += "\n" + TruncationNote
	}
	return text
}

// Text builds the complete plain-text report.
func Text(res types.PipelineResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MEETING ANALYSIS REPORT\n%s\n\n", rule)
	fmt.Fprintf(&b, "SUMMARY:\n%s\n\n%s\n\n", summaryText(res), rule)
	fmt.Fprintf(&b, "ACTION ITEMS:\n%s\n\n%s\n\n", FormatActionItems(res.ActionItems), rule)
	fmt.Fprintf(&b, "FULL TRANSCRIPT:\n%s\n", res.Transcript.Text)
	if len(res.Diagnostics.ChunkFailures) > 0 {
		fmt.Fprintf(&b, "\nNOTE: %d of %d transcript sections could not be analyzed.\n",
			len(res.Diagnostics.ChunkFailures), res.Diagnostics.ChunkCount)
	}
	return b.String()
}

// WriteText writes the plain-text report to w.
func WriteText(w io.Writer, res types.PipelineResult) error {
	_, err := io.WriteString(w, Text(res))
	return err
}

// XLSX builds a workbook with Summary, Action Items and Transcript sheets.
// The caller closes the returned file.
func XLSX(res types.PipelineResult) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, s := range []string{sheetItems, sheetTranscript} {
		if _, err := f.NewSheet(s); err != nil {
			return nil, fmt.Errorf("new sheet %s: %w", s, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, err
	}

	summaryRows := [][]any{
		{"Run ID", res.RunID},
		{"Audio", res.AudioName},
		{"Backend", res.Transcript.Backend},
		{"Language", res.Transcript.Language},
		{"Source language", res.Transcript.SourceLanguage},
		{"Summary", summaryText(res)},
		{"Action items", len(res.ActionItems)},
		{"Chunks", res.Diagnostics.ChunkCount},
		{"Failed chunks", len(res.Diagnostics.ChunkFailures)},
		{"Warnings", strings.Join(res.Diagnostics.Warnings, "; ")},
	}
	for i, row := range summaryRows {
		if err := setRow(f, sheetSummary, i+1, row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(sheetSummary, "A", "A", 18)
	_ = f.SetColWidth(sheetSummary, "B", "B", 100)
	_ = f.SetCellStyle(sheetSummary, "A1", fmt.Sprintf("A%d", len(summaryRows)), bold)
	_ = f.SetCellStyle(sheetSummary, "B6", "B6", wrap)

	if err := setRow(f, sheetItems, 1, []any{"#", "Task", "Owner", "Deadline"}); err != nil {
		return nil, err
	}
	for i, it := range res.ActionItems {
		if err := setRow(f, sheetItems, i+2, []any{i + 1, it.Task, it.Owner, it.Deadline}); err != nil {
			return nil, err
		}
	}
	_ = f.SetCellStyle(sheetItems, "A1", "D1", bold)
	_ = f.SetColWidth(sheetItems, "B", "B", 70)
	_ = f.SetColWidth(sheetItems, "C", "D", 20)

	if err := transcriptSheet(f, res, bold, wrap); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// transcriptSheet writes timed segments when the backend returned them, or
// the whole text in a single cell otherwise.
func transcriptSheet(f *excelize.File, res types.PipelineResult, bold, wrap int) error {
	if len(res.Transcript.Segments) == 0 {
		if err := f.SetCellValue(sheetTranscript, "A1", res.Transcript.Text); err != nil {
			return err
		}
		_ = f.SetColWidth(sheetTranscript, "A", "A", 120)
		return f.SetCellStyle(sheetTranscript, "A1", "A1", wrap)
	}

	if err := setRow(f, sheetTranscript, 1, []any{"Start (s)", "End (s)", "Text"}); err != nil {
		return err
	}
	for i, s := range res.Transcript.Segments {
		if err := setRow(f, sheetTranscript, i+2, []any{s.Start, s.End, s.Text}); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(sheetTranscript, "C", "C", 100)
	return f.SetCellStyle(sheetTranscript, "A1", "C1", bold)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// WriteXLSX streams the workbook to w.
func WriteXLSX(w io.Writer, res types.PipelineResult) error {
	f, err := XLSX(res)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// Write picks the format by name: "xlsx" or anything else for text.
func Write(w io.Writer, format string, res types.PipelineResult) error {
	if strings.EqualFold(format, "xlsx") {
		return WriteXLSX(w, res)
	}
	return WriteText(w, res)
}

// ContentType returns the MIME type and file extension for a format.
func ContentType(format string) (string, string) {
	if strings.EqualFold(format, "xlsx") {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"
	}
	return "text/plain; charset=utf-8", ".txt"
}
