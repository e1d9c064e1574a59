package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"conversation-validator-go/internal/config"
	"conversation-validator-go/internal/metrics"
	"conversation-validator-go/internal/pipeline"
	"conversation-validator-go/internal/processor"
	"conversation-validator-go/internal/registry"
	"conversation-validator-go/internal/types"
)

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newAnalyzer wires the analysis engine from cfg. The CLI has no metrics
// endpoint, so collectors go to a private registry.
func newAnalyzer(cfg *config.Config) (*processor.Analyzer, *metrics.Metrics, error) {
	reg, err := registry.LoadOrDefault(cfg.RegistryPath)
	if err != nil {
		return nil, nil, err
	}
	m := metrics.NewMetrics(prometheus.NewRegistry())
	return pipeline.NewAnalyzer(cfg, reg, m), m, nil
}

// tally counts templates that failed outright and analyzed templates with
// at least one compliance violation.
func tally(b types.BatchReport) (failed, violating int) {
	for _, d := range b.DetailedResults {
		switch {
		case d.Analysis == nil:
			failed++
		case !d.Analysis.ComplianceCheck.IsCompliant:
			violating++
		}
	}
	return failed, violating
}
