package extractor

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"meeting-insights-go/internal/types"
)

var ErrMalformedOutput = errors.New("no parseable action items in model output")

var (
	bulletRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s*`)
	// - Owner: Task (Due: deadline)
	legacyRe = regexp.MustCompile(`(?i)^([^:]{1,60}):\s*(.+?)\s*(?:\(\s*(?:(?:due|deadline)\s*:\s*(.+?)|no deadline(?: specified)?)\s*\))?$`)
)

// ParseActionItems reads model output defensively. It accepts a JSON array of
// {task, owner, deadline} objects, one item per line, or one field per line;
// lines it cannot read are skipped. Output with nothing usable is
// ErrMalformedOutput, except an explicit "no action items" answer (the
// sentinel phrase or an empty JSON array), which is an empty success.
func ParseActionItems(raw string) ([]types.ActionItem, error) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
	if raw == "" {
		return nil, ErrMalformedOutput
	}

	items, emptyArray := parseJSONItems(raw)
	if len(items) > 0 {
		return items, nil
	}
	if items = parseLines(raw); len(items) > 0 {
		return items, nil
	}
	if emptyArray || strings.Contains(strings.ToUpper(raw), noActionItems) {
		return []types.ActionItem{}, nil
	}
	return nil, ErrMalformedOutput
}

type jsonItem struct {
	Task     string `json:"task"`
	Owner    string `json:"owner"`
	Deadline string `json:"deadline"`
}

// parseJSONItems tries every balanced array in s until one decodes as a
// list of items. emptyArray reports a decodable array with no elements.
func parseJSONItems(s string) (items []types.ActionItem, emptyArray bool) {
	for _, arr := range jsonArrays(s) {
		var parsed []jsonItem
		if err := json.Unmarshal([]byte(arr), &parsed); err != nil {
			continue
		}
		if len(parsed) == 0 {
			emptyArray = true
			continue
		}
		for _, p := range parsed {
			if it, ok := newItem(p.Task, p.Owner, p.Deadline); ok {
				items = append(items, it)
			}
		}
		if len(items) > 0 {
			return items, emptyArray
		}
	}
	return nil, emptyArray
}

// fieldGroup collects "Task:" / "Owner:" / "Deadline:" lines that belong to
// one item.
type fieldGroup struct {
	task, owner, deadline string
}

func (g *fieldGroup) flush(items []types.ActionItem) []types.ActionItem {
	if it, ok := newItem(g.task, g.owner, g.deadline); ok {
		items = append(items, it)
	}
	*g = fieldGroup{}
	return items
}

func parseLines(raw string) []types.ActionItem {
	items := []types.ActionItem{}
	var group fieldGroup
	for _, line := range strings.Split(raw, "\n") {
		clean := cleanLine(line)
		if key, value, ok := fieldLine(clean); ok {
			if key == "task" && group.task != "" {
				items = group.flush(items)
			}
			switch key {
			case "task":
				group.task = value
			case "owner":
				group.owner = value
			case "deadline":
				group.deadline = value
			}
			continue
		}
		items = group.flush(items)
		if it, ok := parseLine(line); ok {
			items = append(items, it)
		}
	}
	return group.flush(items)
}

func cleanLine(line string) string {
	line = strings.ReplaceAll(line, "**", "")
	return strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
}

// fieldKey maps a label to task, owner or deadline.
func fieldKey(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "task", "action", "what":
		return "task"
	case "owner", "assignee", "responsible", "who":
		return "owner"
	case "deadline", "due", "due date", "when":
		return "deadline"
	}
	return ""
}

// fieldLine matches a single "Label: value" line without pipes.
func fieldLine(line string) (key, value string, ok bool) {
	if strings.Contains(line, "|") {
		return "", "", false
	}
	label, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", false
	}
	if key = fieldKey(label); key == "" {
		return "", "", false
	}
	return key, value, true
}

func parseLine(line string) (types.ActionItem, bool) {
	bulleted := bulletRe.MatchString(strings.ReplaceAll(line, "**", ""))
	line = cleanLine(line)
	if line == "" {
		return types.ActionItem{}, false
	}

	if strings.Contains(line, "|") {
		var task, owner, deadline string
		for _, field := range strings.Split(line, "|") {
			k, v, ok := strings.Cut(field, ":")
			if !ok {
				continue
			}
			switch fieldKey(k) {
			case "task":
				task = v
			case "owner":
				owner = v
			case "deadline":
				deadline = v
			}
		}
		return newItem(task, owner, deadline)
	}

	// The owner-first form is only trusted on bullet lines; prose like
	// "Note: ..." would otherwise turn into an item.
	if !bulleted {
		return types.ActionItem{}, false
	}
	m := legacyRe.FindStringSubmatch(line)
	if m == nil || fieldKey(m[1]) != "" {
		return types.ActionItem{}, false
	}
	return newItem(m[2], m[1], m[3])
}

func newItem(task, owner, deadline string) (types.ActionItem, bool) {
	task = strings.Join(strings.Fields(task), " ")
	if task == "" {
		return types.ActionItem{}, false
	}
	return types.ActionItem{
		Task:     task,
		Owner:    normalizeOwner(owner),
		Deadline: normalizeDeadline(deadline),
	}, true
}

func normalizeOwner(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	switch strings.ToLower(s) {
	case "", "team", "none", "n/a", "unknown", "-", "unassigned", "not specified":
		return types.DefaultOwner
	}
	return s
}

func normalizeDeadline(s string) string {
	s = strings.Trim(strings.TrimSpace(s), "[]")
	switch strings.ToLower(s) {
	case "", "none", "n/a", "-", "not specified", "unspecified", "not mentioned",
		"no deadline", "no deadline specified", "no deadline mentioned":
		return types.DefaultDeadline
	}
	return s
}

// jsonArrays returns every balanced JSON array candidate in s, in order of
// their opening bracket, after stripping the markdown fences models like to
// add.
func jsonArrays(s string) []string {
	for _, r := range []string{"```json", "```"} {
		s = strings.ReplaceAll(s, r, "")
	}
	var out []string
	for start := strings.Index(s, "["); start != -1; {
		if arr := balancedArray(s, start); arr != "" {
			out = append(out, arr)
		}
		next := strings.Index(s[start+1:], "[")
		if next == -1 {
			break
		}
		start += next + 1
	}
	return out
}

func balancedArray(s string, start int) string {
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
