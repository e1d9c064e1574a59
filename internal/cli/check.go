package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"conversation-validator-go/internal/config"
	"conversation-validator-go/internal/template"
	"conversation-validator-go/internal/types"
)

// TemplateCheck is the check result for one template file.
type TemplateCheck struct {
	Path       string   `json:"path"`
	Template   string   `json:"template"`
	Valid      bool     `json:"valid"`
	Problems   []string `json:"problems,omitempty"`
	Unresolved []string `json:"unresolved_placeholders,omitempty"`
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Valid     bool            `json:"valid"`
	Templates []TemplateCheck `json:"templates"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var vars string
	cmd := &cobra.Command{
		Use:   "check [templates-dir]",
		Short: "Validate templates without running any conversation",
		Long: `Loads every template, reports schema and turn-numbering problems, and
lists placeholders that the configured variables leave unresolved.
Unresolved placeholders are warnings; invalid templates exit 1.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if len(args) == 1 {
				cfg.TemplatesDir = args[0]
			}
			if vars != "" {
				cfg.TemplateVars = config.ParseVars(vars)
			}
			return runCheck(cmd, rootOpts, cfg)
		},
	}
	cmd.Flags().StringVar(&vars, "vars", "", "placeholder values, k=v,k2=v2 (default $TEMPLATE_VARS)")
	return cmd
}

func runCheck(cmd *cobra.Command, opts *RootOptions, cfg *config.Config) error {
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

	res := CheckResult{Valid: true, Templates: make([]TemplateCheck, 0, len(entries))}
	for _, e := range entries {
		out.VerboseLog("Checking %s", e.Path)
		tc := TemplateCheck{Path: e.Path, Template: e.ID(), Valid: e.Err == nil}
		if e.Err != nil {
			res.Valid = false
			tc.Problems = problems(e.Err)
		} else {
			tc.Unresolved = template.Unresolved(template.Render(e.Template, cfg.AgentURL, cfg.TemplateVars))
		}
		res.Templates = append(res.Templates, tc)
	}

	if err := out.Success(res, checkText(res)); err != nil {
		return err
	}
	if !res.Valid {
		return NewExitError(ExitFailure, "invalid templates found")
	}
	return nil
}

func problems(err error) []string {
	var ce *types.ConfigurationError
	if errors.As(err, &ce) {
		return ce.Problems
	}
	return []string{err.Error()}
}

func checkText(r CheckResult) string {
	var b strings.Builder
	for _, t := range r.Templates {
		if !t.Valid {
			fmt.Fprintf(&b, "✗ %s\n", t.Path)
			for _, p := range t.Problems {
				fmt.Fprintf(&b, "    %s\n", p)
			}
			continue
		}
		fmt.Fprintf(&b, "✓ %s (%s)\n", t.Path, t.Template)
		if len(t.Unresolved) > 0 {
			fmt.Fprintf(&b, "    warning: unresolved placeholders %s\n", strings.Join(t.Unresolved, ", "))
		}
	}
	if r.Valid {
		b.WriteString("✓ All templates valid\n")
	}
	return b.String()
}
