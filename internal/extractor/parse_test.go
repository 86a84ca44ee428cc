package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"meeting-insights-go/internal/types"
)

func TestParseActionItems(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []types.ActionItem
	}{
		{
			name: "pipe format",
			raw: `- Task: Send the Q3 report | Owner: Sarah | Deadline: Friday
- Task: Book the venue | Owner: Unassigned | Deadline: Not specified`,
			want: []types.ActionItem{
				{Task: "Send the Q3 report", Owner: "Sarah", Deadline: "Friday"},
				{Task: "Book the venue", Owner: types.DefaultOwner, Deadline: types.DefaultDeadline},
			},
		},
		{
			name: "owner first format with due",
			raw: `Action Items:
- John: Update the roadmap (Due: next Monday)
- Team: Review the budget (No deadline specified)
* **Priya**: Call the vendor`,
			want: []types.ActionItem{
				{Task: "Update the roadmap", Owner: "John", Deadline: "next Monday"},
				{Task: "Review the budget", Owner: types.DefaultOwner, Deadline: types.DefaultDeadline},
				{Task: "Call the vendor", Owner: "Priya", Deadline: types.DefaultDeadline},
			},
		},
		{
			name: "json array in fences",
			raw: "```json\n[{\"task\":\"Draft plan\",\"owner\":\"\",\"deadline\":\"June 1\"},{\"task\":\"\"}]\n```",
			want: []types.ActionItem{
				{Task: "Draft plan", Owner: types.DefaultOwner, Deadline: "June 1"},
			},
		},
		{
			name: "malformed lines skipped",
			raw: `Here you go:
- Task: Ship v2 | Owner: Kim | Deadline: Q4
- ??? garbage
random prose line`,
			want: []types.ActionItem{
				{Task: "Ship v2", Owner: "Kim", Deadline: "Q4"},
			},
		},
		{
			name: "no action items sentinel",
			raw:  "NO ACTION ITEMS FOUND",
			want: []types.ActionItem{},
		},
		{
			name: "one field per line",
			raw: `- Task: Send the report to finance
  Owner: Sarah
  Deadline: Friday
- Task: Book the venue
  Owner: Omar`,
			want: []types.ActionItem{
				{Task: "Send the report to finance", Owner: "Sarah", Deadline: "Friday"},
				{Task: "Book the venue", Owner: "Omar", Deadline: types.DefaultDeadline},
			},
		},
		{
			name: "empty json array",
			raw:  "[]",
			want: []types.ActionItem{},
		},
		{
			name: "empty json array in fences",
			raw:  "```json\n[]\n```",
			want: []types.ActionItem{},
		},
		{
			name: "bracketed prose before the array",
			raw:  `Found [2] items: [{"task":"Send report","owner":"Sarah","deadline":"Friday"}]`,
			want: []types.ActionItem{
				{Task: "Send report", Owner: "Sarah", Deadline: "Friday"},
			},
		},
		{
			name: "sentinel mentioned alongside real items",
			raw: `- Task: Send the report | Owner: Sarah | Deadline: Friday
Budget discussion: NO ACTION ITEMS FOUND`,
			want: []types.ActionItem{
				{Task: "Send the report", Owner: "Sarah", Deadline: "Friday"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseActionItems(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseActionItemsMalformed(t *testing.T) {
	for _, raw := range []string{"", "   ", "I could not understand the transcript.", "[not json"} {
		_, err := ParseActionItems(raw)
		assert.ErrorIs(t, err, ErrMalformedOutput, raw)
	}
}

func TestJSONArraysIgnoresBracketsInStrings(t *testing.T) {
	s := `prefix [{"task":"fix [bug]"}] suffix`
	assert.Equal(t, `[{"task":"fix [bug]"}]`, jsonArrays(s)[0])
}

func TestJSONArraysReturnsEveryCandidate(t *testing.T) {
	s := `Found [2] items: [{"task":"a"}]`
	assert.Equal(t, []string{"[2]", `[{"task":"a"}]`}, jsonArrays(s))
}
