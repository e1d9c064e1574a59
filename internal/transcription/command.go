package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/types"
)

// CommandDriver runs an external automation script, for example
// "node runner.js". The script JSON is written to stdin and the
// ConversationResult JSON is read from stdout.
type CommandDriver struct {
	Argv []string
	log  *logrus.Entry
}

func NewCommandDriver(argv ...string) *CommandDriver {
	return &CommandDriver{
		Argv: argv,
		log:  logger.New().Component("transcription.command"),
	}
}

func (d *CommandDriver) Name() string { return "command" }

// Run reports a non-zero exit as Success false carrying stderr. Errors are
// returned only when the process could not be run or its output was not a
// ConversationResult.
func (d *CommandDriver) Run(ctx context.Context, script types.Script) (types.ConversationResult, error) {
	if len(d.Argv) == 0 {
		return types.ConversationResult{}, errors.New("no command configured")
	}
	input, err := json.Marshal(script)
	if err != nil {
		return types.ConversationResult{}, err
	}

	cmd := exec.CommandContext(ctx, d.Argv[0], d.Argv[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Env = append(os.Environ(), "AGENT_URL="+script.AgentURL, "CASE_TYPE="+script.CaseType)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	log := d.log.WithFields(logrus.Fields{
		"case_type":   script.CaseType,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if ctx.Err() != nil {
		return types.ConversationResult{}, fmt.Errorf("capture command: %w", ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = exitErr.Error()
		}
		log.WithField("exit_code", exitErr.ExitCode()).Error("capture script failed")
		return types.ConversationResult{Success: false, Error: msg}, nil
	}
	if err != nil {
		return types.ConversationResult{}, fmt.Errorf("capture command: %w", err)
	}

	raw := extractJSON(stdout.String())
	if raw == "" {
		return types.ConversationResult{}, fmt.Errorf("capture command: no JSON object on stdout")
	}
	var res types.ConversationResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return types.ConversationResult{}, fmt.Errorf("capture command: decode result: %w", err)
	}
	log.WithField("turns", len(res.Conversation)).Info("conversation captured")
	return res, nil
}

// extractJSON returns the first balanced JSON object in s. Scripts may log
// before printing their result, so leading text is skipped. Braces inside
// string literals are ignored.
func extractJSON(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for start := strings.Index(s, "{"); start != -1; {
		depth := 0
		inString, escaped := false, false
	scan:
		for i := start; i < len(s); i++ {
			c := s[i]
			switch {
			case escaped:
				escaped = false
			case inString && c == '\\':
				escaped = true
			case c == '"':
				inString = !inString
			case inString:
			case c == '{':
				depth++
			case c == '}':
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate
					}
					break scan
				}
			}
		}
		next := strings.Index(s[start+1:], "{")
		if next == -1 {
			return ""
		}
		start += next + 1
	}
	return ""
}
