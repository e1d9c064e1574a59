package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"conversation-validator-go/internal/config"
	"conversation-validator-go/internal/dataset"
	"conversation-validator-go/internal/pipeline"
	"conversation-validator-go/internal/report"
	"conversation-validator-go/internal/template"
	"conversation-validator-go/internal/transcription"
	"conversation-validator-go/internal/types"
)

type runFlags struct {
	output      string
	driver      string
	record      string
	agentURL    string
	concurrency int
	vars        string
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	Summary         types.BatchSummary `json:"summary"`
	Reports         report.Paths       `json:"reports"`
	Recording       string             `json:"recording,omitempty"`
	Failed          int                `json:"failed"`
	Violating       int                `json:"violating"`
	Recommendations []string           `json:"recommendations"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [templates-dir]",
		Short: "Run every template against the agent and write the validation report",
		Long: `Loads every *.yaml/*.yml template, captures one conversation per template
with the configured driver, analyzes it and writes validation_report.json,
validation_summary.md, validation_summary.html and validation_report.xlsx.

Exits 1 when any template failed or any reply contained prohibited content.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if len(args) == 1 {
				cfg.TemplatesDir = args[0]
			}
			f.apply(cfg)
			return runRun(cmd, rootOpts, cfg, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "report directory (default $OUTPUT_DIR or validation_results)")
	cmd.Flags().StringVar(&f.driver, "driver", "", "transcript driver: mock|http|command|replay (default $DRIVER)")
	cmd.Flags().StringVar(&f.record, "record", "", "also save captured transcripts to this xlsx workbook")
	cmd.Flags().StringVar(&f.agentURL, "agent-url", "", "URL of the agent under test (default $AGENT_URL)")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "templates captured at once (default $CONCURRENCY)")
	cmd.Flags().StringVar(&f.vars, "vars", "", "placeholder values, k=v,k2=v2 (default $TEMPLATE_VARS)")
	return cmd
}

func (f *runFlags) apply(cfg *config.Config) {
	if f.output != "" {
		cfg.OutputDir = f.output
	}
	if f.driver != "" {
		cfg.Driver = f.driver
	}
	if f.agentURL != "" {
		cfg.AgentURL = f.agentURL
	}
	if f.concurrency > 0 {
		cfg.Concurrency = f.concurrency
	}
	if f.vars != "" {
		cfg.TemplateVars = config.ParseVars(f.vars)
	}
}

func runRun(cmd *cobra.Command, opts *RootOptions, cfg *config.Config, f *runFlags) error {
	out := newFormatter(opts, cmd)

	entries, err := template.LoadDir(cfg.TemplatesDir)
	if err != nil {
		out.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "load templates", err)
	}
	if len(entries) == 0 {
		out.Error("no templates found in "+cfg.TemplatesDir, nil)
		return NewExitError(ExitCommandError, "no templates found in "+cfg.TemplatesDir)
	}
	out.VerboseLog("Found %d template(s) in %s", len(entries), cfg.TemplatesDir)

	driver, err := transcription.New(cfg)
	if err != nil {
		out.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "transcript driver", err)
	}
	analyzer, m, err := newAnalyzer(cfg)
	if err != nil {
		out.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "analysis registry", err)
	}

	runner := pipeline.FromConfig(cfg, driver, analyzer, m)
	batch, outcomes, err := runner.Batch(cmd.Context(), entries)
	if err != nil {
		out.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "run interrupted", err)
	}

	paths, err := report.Write(cfg.OutputDir, batch)
	if err != nil {
		out.Error(err.Error(), nil)
		return WrapExitError(ExitCommandError, "write report", err)
	}

	res := RunResult{
		Summary:         batch.Summary,
		Reports:         paths,
		Recommendations: batch.Recommendations,
	}
	if f.record != "" {
		if err := dataset.Save(f.record, recordings(outcomes)); err != nil {
			out.Error(err.Error(), nil)
			return WrapExitError(ExitCommandError, "save recording", err)
		}
		res.Recording = f.record
	}
	res.Failed, res.Violating = tally(batch)

	if err := out.Success(res, runText(res)); err != nil {
		return err
	}
	if res.Failed > 0 || res.Violating > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d template(s) failed, %d with prohibited content", res.Failed, res.Violating))
	}
	return nil
}

// recordings keeps every outcome that produced a transcript.
func recordings(outcomes []types.Outcome) []dataset.Recording {
	var recs []dataset.Recording
	for _, o := range outcomes {
		if o.Conversation == nil {
			continue
		}
		recs = append(recs, dataset.Recording{CaseType: o.TemplateID, Result: *o.Conversation})
	}
	return recs
}

func runText(r RunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Templates tested: %d\n", r.Summary.TotalTemplatesTested)
	fmt.Fprintf(&b, "Successful conversations: %d\n", r.Summary.SuccessfulConversations)
	fmt.Fprintf(&b, "Average execution time: %.2fs\n", r.Summary.AvgExecutionTime)
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	fmt.Fprintf(&b, "Report: %s\n", r.Reports.JSON)
	fmt.Fprintf(&b, "Summary: %s\n", r.Reports.Markdown)
	if r.Recording != "" {
		fmt.Fprintf(&b, "Recording: %s\n", r.Recording)
	}
	if r.Failed == 0 && r.Violating == 0 {
		b.WriteString("✓ All templates passed\n")
	}
	return b.String()
}
