// Package dedup merges per-chunk action-item lists into one ordered,
// duplicate-free list.
package dedup

import (
	"strings"

	"meeting-insights-go/internal/types"
)

// Key is the dedup identity of a task: trimmed, whitespace collapsed, lowercased.
func Key(task string) string {
	return strings.ToLower(strings.Join(strings.Fields(task), " "))
}

// Merge walks lists in order and keeps the first occurrence of each task key.
// A repeat may fill an owner or deadline that is still the sentinel default;
// a value that is already known is never overwritten.
func Merge(lists [][]types.ActionItem) []types.ActionItem {
	out := []types.ActionItem{}
	seen := map[string]int{}
	for _, list := range lists {
		for _, item := range list {
			key := Key(item.Task)
			if key == "" {
				continue
			}
			item = normalize(item)
			idx, ok := seen[key]
			if !ok {
				seen[key] = len(out)
				out = append(out, item)
				continue
			}
			existing := &out[idx]
			if isDefaultOwner(existing.Owner) && !isDefaultOwner(item.Owner) {
				existing.Owner = item.Owner
			}
			if isDefaultDeadline(existing.Deadline) && !isDefaultDeadline(item.Deadline) {
				existing.Deadline = item.Deadline
			}
		}
	}
	return out
}

func normalize(item types.ActionItem) types.ActionItem {
	item.Task = strings.Join(strings.Fields(item.Task), " ")
	item.Owner = strings.TrimSpace(item.Owner)
	item.Deadline = strings.TrimSpace(item.Deadline)
	if isDefaultOwner(item.Owner) {
		item.Owner = types.DefaultOwner
	}
	if isDefaultDeadline(item.Deadline) {
		item.Deadline = types.DefaultDeadline
	}
	return item
}

func isDefaultOwner(s string) bool {
	return s == "" || strings.EqualFold(s, types.DefaultOwner)
}

func isDefaultDeadline(s string) bool {
	return s == "" || strings.EqualFold(s, types.DefaultDeadline)
}
