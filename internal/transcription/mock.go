package transcription

import (
	"context"
	"strings"

	"meeting-insights-go/internal/types"
)

// mockTranscript is returned for every input when USE_MOCK_TRANSCRIBE is set.
const mockTranscript = `Good morning everyone, thanks for joining the weekly project meeting. ` +
	`The agenda today covers the release schedule, the budget review and the customer demo. ` +
	`We need to finish testing before the release and the team agreed the current plan is realistic. ` +
	`Sarah will send the updated budget to finance by Friday. ` +
	`John will review the onboarding flow by next Wednesday. ` +
	`Priya will schedule the customer demo call. ` +
	`We should also discuss the hiring plan at the next meeting and follow up on open support tickets. ` +
	`Thanks everyone, let's complete these tasks and update the project board.`

// Mock is an offline backend that accepts any size and returns a fixed meeting.
type Mock struct {
	Text string
}

func NewMock() *Mock {
	return &Mock{Text: mockTranscript}
}

func (m *Mock) Name() string        { return "mock" }
func (m *Mock) MaxInputSize() int64 { return 1 << 40 }
func (m *Mock) IsAvailable() bool   { return true }

func (m *Mock) Transcribe(ctx context.Context, _ types.AudioInput, _ Options) (*types.TranscriptionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &types.TranscriptionResult{Text: strings.TrimSpace(m.Text), Language: "en"}, nil
}
