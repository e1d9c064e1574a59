package transcription

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"conversation-validator-go/internal/types"
)

// MockDriver answers every message with a deterministic reply. It stands in
// for the live agent when USE_MOCK or DRIVER=mock is set.
type MockDriver struct {
	// Failures maps case type -> error message reported as a failed capture.
	Failures map[string]string
	// Replies overrides the canned reply for a message containing the key.
	Replies map[string]string
	Now     func() time.Time
}

func NewMockDriver() *MockDriver {
	return &MockDriver{Now: time.Now}
}

func (d *MockDriver) Name() string { return "mock" }

func (d *MockDriver) Run(ctx context.Context, script types.Script) (types.ConversationResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ConversationResult{}, err
	}
	if msg, ok := d.Failures[script.CaseType]; ok {
		return types.ConversationResult{Success: false, Error: msg}, nil
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	res := types.ConversationResult{Success: true}
	for i, m := range script.Messages {
		reply := d.reply(m)
		res.Conversation = append(res.Conversation, types.TranscriptTurn{
			Turn:           i + 1,
			UserInput:      m,
			AIResponse:     reply,
			ResponseTimeMs: int64(800 + 150*i),
			Timestamp:      now(),
		})
		res.FinalState = append(res.FinalState,
			types.UIMessage{Index: 2 * i, Content: m, IsUser: true},
			types.UIMessage{Index: 2*i + 1, Content: reply, IsAI: true},
		)
	}
	return res, nil
}

func (d *MockDriver) reply(msg string) string {
	lower := strings.ToLower(msg)
	keys := make([]string, 0, len(d.Replies))
	for k := range d.Replies {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return d.Replies[k]
		}
	}
	return fmt.Sprintf("I'm sorry to hear that, and I understand this is difficult. You said: %q. "+
		"An attorney will review the information you shared. This is not legal advice.", msg)
}
