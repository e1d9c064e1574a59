// Package transcription runs a rendered script against the agent under test
// and returns the captured conversation.
package transcription

import (
	"context"
	"fmt"
	"strings"

	"conversation-validator-go/internal/config"
	"conversation-validator-go/internal/dataset"
	"conversation-validator-go/internal/types"
)

// Driver captures one conversation. A returned error and a result with
// Success false both mean the capture cannot be trusted.
type Driver interface {
	Name() string
	Run(ctx context.Context, script types.Script) (types.ConversationResult, error)
}

// New builds the driver selected by cfg.Driver.
func New(cfg *config.Config) (Driver, error) {
	switch cfg.Driver {
	case config.DriverMock, "":
		return NewMockDriver(), nil
	case config.DriverHTTP:
		if cfg.DriverURL == "" {
			return nil, fmt.Errorf("DRIVER_URL not set")
		}
		return NewHTTPDriver(cfg.DriverURL), nil
	case config.DriverCommand:
		argv := strings.Fields(cfg.DriverCommand)
		if len(argv) == 0 {
			return nil, fmt.Errorf("DRIVER_COMMAND not set")
		}
		return NewCommandDriver(argv...), nil
	case config.DriverReplay:
		if cfg.ReplayPath == "" {
			return nil, fmt.Errorf("REPLAY_PATH not set")
		}
		recs, err := dataset.Load(cfg.ReplayPath)
		if err != nil {
			return nil, fmt.Errorf("load replay workbook: %w", err)
		}
		return NewReplayDriver(recs), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}
