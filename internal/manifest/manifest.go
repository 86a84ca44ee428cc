// Package manifest loads batch job lists from an xlsx workbook.
package manifest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Entry is one recording to process.
type Entry struct {
	Row       int
	ID        string
	Audio     string // local path or http(s) URL
	Translate bool
	Backend   string
}

// IsURL reports whether the entry points at a remote recording.
func (e Entry) IsURL() bool {
	l := strings.ToLower(e.Audio)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Load reads the first sheet and auto-detects columns by header. Relative
// audio paths are resolved against the manifest's directory. Rows without
// an audio reference are skipped.
func Load(path string) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("no data rows")
	}

	cols := detectColumns(rows[0])
	if cols.audio == -1 {
		return nil, fmt.Errorf("no audio column in header %q", rows[0])
	}

	base := filepath.Dir(path)
	var out []Entry
	for i, r := range rows[1:] {
		e := Entry{Row: i + 2}
		e.Audio = cell(r, cols.audio)
		if e.Audio == "" {
			continue
		}
		if !e.IsURL() && !filepath.IsAbs(e.Audio) {
			e.Audio = filepath.Join(base, e.Audio)
		}
		e.ID = cell(r, cols.id)
		if e.ID == "" {
			e.ID = strconv.Itoa(e.Row)
		}
		e.Translate = parseBool(cell(r, cols.translate))
		e.Backend = strings.ToLower(cell(r, cols.backend))
		out = append(out, e)
	}
	return out, nil
}

type columns struct {
	id, audio, translate, backend int
}

func detectColumns(header []string) columns {
	c := columns{id: -1, audio: -1, translate: -1, backend: -1}
	for i, h := range header {
		l := strings.ToLower(strings.TrimSpace(h))
		switch {
		case strings.Contains(l, "audio") || strings.Contains(l, "record") || strings.Contains(l, "file") || strings.Contains(l, "url") || strings.Contains(l, "path"):
			if c.audio == -1 {
				c.audio = i
			}
		case strings.Contains(l, "translat"):
			c.translate = i
		case strings.Contains(l, "backend") || strings.Contains(l, "engine"):
			c.backend = i
		case l == "id" || strings.Contains(l, "meeting id") || strings.Contains(l, "name"):
			if c.id == -1 {
				c.id = i
			}
		}
	}
	return c
}

func cell(r []string, idx int) string {
	if idx < 0 || idx >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[idx])
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "y", "yes", "true", "x":
		return true
	}
	return false
}
