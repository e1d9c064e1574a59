package transcription

import (
	"context"

	"conversation-validator-go/internal/dataset"
	"conversation-validator-go/internal/types"
)

// ReplayDriver returns recorded conversations by case type.
type ReplayDriver struct {
	recs map[string]types.ConversationResult
}

func NewReplayDriver(recs []dataset.Recording) *ReplayDriver {
	m := make(map[string]types.ConversationResult, len(recs))
	for _, r := range recs {
		m[r.CaseType] = r.Result
	}
	return &ReplayDriver{recs: m}
}

func (d *ReplayDriver) Name() string { return "replay" }

func (d *ReplayDriver) Run(ctx context.Context, script types.Script) (types.ConversationResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ConversationResult{}, err
	}
	res, ok := d.recs[script.CaseType]
	if !ok {
		return types.ConversationResult{Success: false, Error: "no recorded conversation for case type " + script.CaseType}, nil
	}
	return res, nil
}
