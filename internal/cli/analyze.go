package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"conversation-validator-go/internal/aggregator"
	"conversation-validator-go/internal/config"
	"conversation-validator-go/internal/report"
	"conversation-validator-go/internal/template"
	"conversation-validator-go/internal/types"
)

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <template> <result.json>",
		Short: "Analyze an already captured conversation against one template",
		Long: `Scores a conversation result (the JSON a driver emits: success,
conversation, final_state, error) against a template without contacting the
agent. Exits 1 when the capture failed or a reply contained prohibited content.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, rootOpts, config.Load(), args[0], args[1])
		},
	}
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *RootOptions, cfg *config.Config, tplPath, resultPath string) error {
	out := newFormatter(opts, cmd)

	tpl, err := template.LoadFile(tplPath)
	if err != nil {
		out.Error(err.Error(), nil)
		return WrapExitError(ExitFailure, "invalid template", err)
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		out.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "read result", err)
	}
	var result types.ConversationResult
	if err := json.Unmarshal(data, &result); err != nil {
		out.Error("result is not a conversation result: "+err.Error(), nil)
		return WrapExitError(ExitCommandError, "decode result", err)
	}

	analyzer, _, err := newAnalyzer(cfg)
	if err != nil {
		out.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "analysis registry", err)
	}

	start := time.Now()
	rep, err := analyzer.Analyze(cmd.Context(), tpl, &result)
	elapsed := time.Since(start)

	batch := aggregator.Aggregate([]types.Outcome{{
		TemplateID:    tpl.ID(),
		Conversation:  &result,
		Report:        rep,
		Err:           err,
		ExecutionTime: &elapsed,
		Timestamp:     time.Now(),
	}}, time.Now())
	detail := batch.DetailedResults[0]
	detail.ConversationData = nil

	if werr := out.Success(detail, report.Markdown(batch)); werr != nil {
		return werr
	}
	if err != nil {
		return WrapExitError(ExitFailure, "analysis failed", err)
	}
	if !rep.ComplianceCheck.IsCompliant {
		return NewExitError(ExitFailure, fmt.Sprintf("prohibited content: %v", rep.ComplianceCheck.Violations))
	}
	return nil
}
