package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-validator-go/internal/config"
	"conversation-validator-go/internal/metrics"
	"conversation-validator-go/internal/registry"
	"conversation-validator-go/internal/template"
	"conversation-validator-go/internal/transcription"
	"conversation-validator-go/internal/types"
)

// funcDriver adapts a function to transcription.Driver.
type funcDriver func(ctx context.Context, s types.Script) (types.ConversationResult, error)

func (f funcDriver) Name() string { return "func" }
func (f funcDriver) Run(ctx context.Context, s types.Script) (types.ConversationResult, error) {
	return f(ctx, s)
}

func offlineConfig() *config.Config {
	return &config.Config{UseMockEmbeddings: true, UseMockNER: true, Concurrency: 3, CaptureTimeoutSec: 5}
}

func tpl(caseType string, prohibited ...string) *types.Template {
	return &types.Template{
		CaseType: caseType,
		ConversationFlow: []types.TemplateTurn{
			{Turn: 1, UserInput: "Hi, my name is {name}. I was in a car accident in {city}.", ExpectedAIThemes: []string{"empathy", "accident"}},
		},
		ValidationCriteria: types.ValidationCriteria{
			InformationCapture: []string{"client_name", "location"},
			ToneRequirements:   []string{"empathetic", "legally_compliant"},
			ProhibitedContent:  prohibited,
		},
	}
}

func TestBatch_EndToEndWithMockDriver(t *testing.T) {
	cfg := offlineConfig()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	analyzer := NewAnalyzer(cfg, registry.Default(), m)

	driver := transcription.NewMockDriver()
	driver.Failures = map[string]string{"dog_bite": "agent offline"}
	driver.Replies = map[string]string{"slipped": "You will definitely win this one, I'm sorry it happened."}

	slip := tpl("slip_and_fall", "you will definitely win")
	slip.ConversationFlow[0].UserInput = "I slipped at a store"

	entries := []template.Entry{
		{Path: "car.yaml", Template: tpl("car_accident", "you will definitely win")},
		{Path: "broken.yaml", Err: &types.ConfigurationError{Source: "broken.yaml", Problems: []string{"case_type is required"}}},
		{Path: "dog.yaml", Template: tpl("dog_bite")},
		{Path: "slip.yaml", Template: slip},
	}

	r := FromConfig(cfg, driver, analyzer, m)
	report, outcomes, err := r.Batch(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	assert.NotEmpty(t, report.Summary.RunID)
	assert.Equal(t, 4, report.Summary.TotalTemplatesTested)
	assert.Equal(t, 2, report.Summary.SuccessfulConversations)

	ids := []string{}
	for _, d := range report.DetailedResults {
		ids = append(ids, d.Template)
	}
	assert.Equal(t, []string{"car_accident", "broken.yaml", "dog_bite", "slip_and_fall"}, ids)

	car := report.DetailedResults[0].Analysis
	require.NotNil(t, car)
	assert.True(t, car.ComplianceCheck.IsCompliant)
	assert.True(t, car.ToneAnalysis["empathetic"].MeetsRequirement)
	assert.True(t, car.ToneAnalysis["legally_compliant"].MeetsRequirement)
	assert.Equal(t, []string{"John Smith"}, car.InformationExtraction["client_name"].EntitiesFound)
	assert.Equal(t, []string{"San Francisco"}, car.InformationExtraction["location"].EntitiesFound)

	assert.Equal(t, types.ErrKindConfiguration, report.DetailedResults[1].ErrorKind)
	assert.Nil(t, report.DetailedResults[1].ExecutionTime)
	assert.Equal(t, types.ErrKindCapture, report.DetailedResults[2].ErrorKind)
	assert.Equal(t, "conversation execution failed: agent offline", report.DetailedResults[2].Error)
	assert.NotNil(t, report.DetailedResults[2].ExecutionTime)

	slipReport := report.DetailedResults[3].Analysis
	require.NotNil(t, slipReport)
	assert.Equal(t, []string{"you will definitely win"}, slipReport.ComplianceCheck.Violations)
	assert.Contains(t, report.Recommendations,
		"Compliance violations detected: you will definitely win. Review AI boundaries and constraints.")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TemplatesProcessed.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TemplatesProcessed.WithLabelValues(string(types.ErrKindCapture))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TemplatesProcessed.WithLabelValues(string(types.ErrKindConfiguration))))
}

func TestRun_PreservesOrderUnderConcurrency(t *testing.T) {
	var inflight, peak int32
	driver := funcDriver(func(ctx context.Context, s types.Script) (types.ConversationResult, error) {
		n := atomic.AddInt32(&inflight, 1)
		defer atomic.AddInt32(&inflight, -1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		if s.CaseType == "first" {
			time.Sleep(50 * time.Millisecond)
		}
		return types.ConversationResult{Success: true, Conversation: []types.TranscriptTurn{{Turn: 1, AIResponse: s.CaseType + " reply text"}}}, nil
	})
	cfg := offlineConfig()
	cfg.Concurrency = 2
	r := FromConfig(cfg, driver, NewAnalyzer(cfg, registry.Default(), nil), nil)

	names := []string{"first", "second", "third", "fourth", "fifth"}
	entries := make([]template.Entry, len(names))
	for i, n := range names {
		entries[i] = template.Entry{Template: tpl(n)}
	}

	outcomes, err := r.Run(context.Background(), entries)
	require.NoError(t, err)
	for i, n := range names {
		assert.Equal(t, n, outcomes[i].TemplateID)
		require.NotNil(t, outcomes[i].Conversation)
		assert.Equal(t, n+" reply text", outcomes[i].Conversation.Conversation[0].AIResponse)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestRunTemplate_CaptureTimeout(t *testing.T) {
	driver := funcDriver(func(ctx context.Context, s types.Script) (types.ConversationResult, error) {
		<-ctx.Done()
		return types.ConversationResult{}, ctx.Err()
	})
	cfg := offlineConfig()
	r := FromConfig(cfg, driver, NewAnalyzer(cfg, registry.Default(), nil), nil)
	r.CaptureTimeout = 20 * time.Millisecond

	out := r.RunTemplate(context.Background(), tpl("slow"))
	require.Error(t, out.Err)
	assert.Equal(t, types.ErrKindCapture, types.KindOf(out.Err))
	assert.Contains(t, out.Err.Error(), "capture timed out")
	assert.Nil(t, out.Report)
}

func TestRunTemplate_DriverErrorIsCaptureFailure(t *testing.T) {
	driver := funcDriver(func(ctx context.Context, s types.Script) (types.ConversationResult, error) {
		return types.ConversationResult{}, errors.New("chromium exited")
	})
	cfg := offlineConfig()
	r := FromConfig(cfg, driver, NewAnalyzer(cfg, registry.Default(), nil), nil)

	out := r.RunTemplate(context.Background(), tpl("x"))
	var cf *types.CaptureFailure
	require.ErrorAs(t, out.Err, &cf)
	assert.Equal(t, "chromium exited", cf.Message)
	assert.Nil(t, out.Conversation)
}

func TestRunTemplate_SubstitutesVariables(t *testing.T) {
	var got types.Script
	driver := funcDriver(func(ctx context.Context, s types.Script) (types.ConversationResult, error) {
		got = s
		return types.ConversationResult{Success: true}, nil
	})
	cfg := offlineConfig()
	cfg.AgentURL = "https://agent.example"
	cfg.TemplateVars = map[string]string{"name": "Ana Diaz", "city": "Reno"}
	r := FromConfig(cfg, driver, NewAnalyzer(cfg, registry.Default(), nil), nil)

	out := r.RunTemplate(context.Background(), tpl("x"))
	require.NoError(t, out.Err)
	assert.Equal(t, []string{"Hi, my name is Ana Diaz. I was in a car accident in Reno."}, got.Messages)
	assert.Equal(t, "https://agent.example", got.AgentURL)
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := offlineConfig()
	r := FromConfig(cfg, transcription.NewMockDriver(), NewAnalyzer(cfg, registry.Default(), nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := r.Run(ctx, []template.Entry{{Template: tpl("a")}})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, outcomes, 1)
	assert.Equal(t, types.ErrKindCapture, types.KindOf(outcomes[0].Err))
}
