package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"conversation-validator-go/internal/aggregator"
	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/metrics"
	"conversation-validator-go/internal/processor"
	"conversation-validator-go/internal/template"
	"conversation-validator-go/internal/transcription"
	"conversation-validator-go/internal/types"
)

// Runner executes templates: render -> capture -> analyze.
type Runner struct {
	Driver         transcription.Driver
	Analyzer       *processor.Analyzer
	AgentURL       string
	Vars           map[string]string
	CaptureTimeout time.Duration
	Concurrency    int
	Metrics        *metrics.Metrics
	Now            func() time.Time
	log            *logrus.Entry
}

func NewRunner(driver transcription.Driver, analyzer *processor.Analyzer) *Runner {
	return &Runner{
		Driver:         driver,
		Analyzer:       analyzer,
		Vars:           template.DefaultVars(),
		CaptureTimeout: 300 * time.Second,
		Concurrency:    4,
		Now:            time.Now,
		log:            logger.New().Component("pipeline"),
	}
}

// Run processes every entry and returns one outcome per entry, in entry
// order. A failing template never stops the others; the returned error is
// only set when ctx was cancelled.
func (r *Runner) Run(ctx context.Context, entries []template.Entry) ([]types.Outcome, error) {
	out := make([]types.Outcome, len(entries))

	g := new(errgroup.Group)
	limit := r.Concurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			out[i] = r.runEntry(ctx, e)
			return nil
		})
	}
	_ = g.Wait()
	return out, ctx.Err()
}

// Batch runs entries and folds the outcomes into a report tagged with a
// fresh run id.
func (r *Runner) Batch(ctx context.Context, entries []template.Entry) (types.BatchReport, []types.Outcome, error) {
	runID := uuid.NewString()
	r.log.WithFields(logrus.Fields{"run_id": runID, "templates": len(entries), "driver": r.Driver.Name()}).Info("batch started")

	outcomes, err := r.Run(ctx, entries)
	report := aggregator.Aggregate(outcomes, r.now())
	report.Summary.RunID = runID

	r.log.WithFields(logrus.Fields{
		"run_id":     runID,
		"total":      report.Summary.TotalTemplatesTested,
		"successful": report.Summary.SuccessfulConversations,
	}).Info("batch finished")
	return report, outcomes, err
}

func (r *Runner) runEntry(ctx context.Context, e template.Entry) types.Outcome {
	if e.Err != nil {
		r.log.WithError(e.Err).WithField("path", e.Path).Warn("template rejected")
		r.Metrics.TemplateDone(string(types.KindOf(e.Err)))
		return types.Outcome{TemplateID: e.ID(), Err: e.Err, Timestamp: r.now()}
	}
	return r.RunTemplate(ctx, e.Template)
}

// RunTemplate captures and analyzes one template.
func (r *Runner) RunTemplate(ctx context.Context, tpl *types.Template) types.Outcome {
	log := r.log.WithField("template", tpl.ID())
	log.Info("executing conversation template")
	start := time.Now()

	script := template.Render(tpl, r.AgentURL, r.Vars)
	if missing := template.Unresolved(script); len(missing) > 0 {
		log.WithField("placeholders", missing).Warn("unresolved placeholders sent to agent")
	}

	result, err := r.capture(ctx, script)
	outcome := types.Outcome{TemplateID: tpl.ID(), Timestamp: r.now()}
	if err != nil {
		log.WithError(err).Error("conversation capture failed")
		outcome.Err = &types.CaptureFailure{Message: err.Error()}
	} else {
		outcome.Conversation = &result
		outcome.Report, outcome.Err = r.Analyzer.Analyze(ctx, tpl, &result)
	}
	elapsed := time.Since(start)
	outcome.ExecutionTime = &elapsed

	status := "ok"
	if outcome.Err != nil {
		status = string(types.KindOf(outcome.Err))
		log.WithError(outcome.Err).Warn("template failed")
	}
	r.Metrics.TemplateDone(status)
	return outcome
}

func (r *Runner) capture(ctx context.Context, script types.Script) (types.ConversationResult, error) {
	if r.CaptureTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.CaptureTimeout)
		defer cancel()
	}
	start := time.Now()
	res, err := r.Driver.Run(ctx, script)
	if r.Metrics != nil {
		r.Metrics.CaptureDuration.WithLabelValues(r.Driver.Name()).Observe(time.Since(start).Seconds())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return res, errors.New("capture timed out after " + r.CaptureTimeout.String())
	}
	return res, err
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
