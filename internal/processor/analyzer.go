package processor

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"conversation-validator-go/internal/compliance"
	"conversation-validator-go/internal/extractor"
	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/metrics"
	"conversation-validator-go/internal/similarity"
	"conversation-validator-go/internal/tone"
	"conversation-validator-go/internal/types"
)

// MinResponseChars is the length a reply must exceed to count as a
// successful turn.
const MinResponseChars = 10

// Deps are the shared, read-only collaborators of an Analyzer.
type Deps struct {
	Scorer     *similarity.Scorer
	Extractor  *extractor.Extractor
	Tone       *tone.Analyzer
	Compliance *compliance.Checker
	Metrics    *metrics.Metrics // optional
}

// Analyzer turns a captured conversation into an AnalysisReport.
// It holds no per-call state and may be shared between goroutines.
type Analyzer struct {
	deps Deps
	log  *logrus.Entry
}

func New(deps Deps) *Analyzer {
	if deps.Compliance == nil {
		deps.Compliance = compliance.NewChecker()
	}
	if deps.Extractor != nil && deps.Metrics != nil {
		deps.Extractor.OnServiceFailure(deps.Metrics.ServiceFailed)
	}
	return &Analyzer{
		deps: deps,
		log:  logger.New().Component("turn-analyzer"),
	}
}

// Analyze scores result against tpl. A failed capture returns
// *types.CaptureFailure without running any sub-analysis. Embedding failures
// degrade the affected turn and never fail the call.
func (a *Analyzer) Analyze(ctx context.Context, tpl *types.Template, result *types.ConversationResult) (*types.AnalysisReport, error) {
	if result == nil {
		return nil, &types.CaptureFailure{Message: "no conversation result"}
	}
	if !result.Success {
		return nil, &types.CaptureFailure{Message: result.Error}
	}

	start := time.Now()
	log := a.log.WithField("template", tpl.ID())

	report := &types.AnalysisReport{
		SemanticSimilarity: map[string]types.TurnSimilarity{},
		RequiredElements:   map[string][]types.ElementCheck{},
	}

	for _, turn := range result.Conversation {
		tt, ok := tpl.TurnByNumber(turn.Turn)
		if !ok {
			report.SkippedTurns = append(report.SkippedTurns, turn.Turn)
			continue
		}
		key := TurnKey(turn.Turn)
		report.SemanticSimilarity[key] = a.scoreTurn(ctx, log, turn, tt)
		if len(tt.RequiredElements) > 0 {
			report.RequiredElements[key] = CheckElements(turn.AIResponse, tt.RequiredElements)
		}
	}
	if len(report.RequiredElements) == 0 {
		report.RequiredElements = nil
	}
	if n := len(report.SkippedTurns); n > 0 {
		log.WithField("skipped_turns", report.SkippedTurns).Debug("transcript turns without a template turn")
		if a.deps.Metrics != nil {
			a.deps.Metrics.SkippedTurns.Add(float64(n))
		}
	}

	fullText := FullText(result.Conversation)
	criteria := tpl.ValidationCriteria

	if a.deps.Extractor != nil {
		report.InformationExtraction = a.deps.Extractor.ExtractAll(ctx, fullText, criteria.InformationCapture)
	} else {
		report.InformationExtraction = map[string]types.ExtractionResult{}
	}
	if a.deps.Tone != nil {
		report.ToneAnalysis = a.deps.Tone.Analyze(fullText, criteria.ToneRequirements)
	} else {
		report.ToneAnalysis = map[string]types.ToneScore{}
	}

	violations := a.deps.Compliance.Check(fullText, criteria.ProhibitedContent)
	report.ComplianceCheck = types.ComplianceResult{
		Violations:  violations,
		IsCompliant: len(violations) == 0,
	}
	report.PerformanceMetrics = Performance(result.Conversation)

	if a.deps.Metrics != nil {
		a.deps.Metrics.ComplianceViolations.Add(float64(len(violations)))
		a.deps.Metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}
	log.WithFields(logrus.Fields{
		"turns":        len(result.Conversation),
		"violations":   len(violations),
		"duration_ms":  time.Since(start).Milliseconds(),
		"is_compliant": report.ComplianceCheck.IsCompliant,
	}).Info("conversation analyzed")
	return report, nil
}

func (a *Analyzer) scoreTurn(ctx context.Context, log *logrus.Entry, turn types.TranscriptTurn, tt types.TemplateTurn) types.TurnSimilarity {
	themes := tt.ExpectedAIThemes
	if themes == nil {
		themes = []string{}
	}
	ts := types.TurnSimilarity{ExpectedThemes: themes, SimilarityScores: map[string]float64{}}
	if a.deps.Scorer == nil || len(themes) == 0 {
		return ts
	}

	scores, err := a.deps.Scorer.Score(ctx, turn.AIResponse, themes)
	if err != nil {
		log.WithError(err).WithField("turn", turn.Turn).Warn("similarity scoring failed, recording zero alignment")
		a.deps.Metrics.ServiceFailed("embedding")
		ts.Error = err.Error()
		return ts
	}
	ts.SimilarityScores = scores
	ts.AvgSimilarity = similarity.Mean(scores)
	if a.deps.Metrics != nil {
		a.deps.Metrics.TurnAlignment.Observe(ts.AvgSimilarity)
	}
	return ts
}

// TurnKey is the report key for a turn number.
func TurnKey(n int) string {
	return fmt.Sprintf("turn_%d", n)
}

// FullText joins the agent replies in transcript order with single spaces.
func FullText(turns []types.TranscriptTurn) string {
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = t.AIResponse
	}
	return strings.Join(parts, " ")
}

// Performance summarizes latency and reply length over every turn,
// matched or not.
func Performance(turns []types.TranscriptTurn) types.PerformanceMetrics {
	pm := types.PerformanceMetrics{TotalTurns: len(turns)}
	if len(turns) == 0 {
		return pm
	}
	var sum int64
	for _, t := range turns {
		sum += t.ResponseTimeMs
		if t.ResponseTimeMs > pm.MaxResponseTimeMs {
			pm.MaxResponseTimeMs = t.ResponseTimeMs
		}
		if utf8.RuneCountInString(t.AIResponse) > MinResponseChars {
			pm.SuccessfulTurns++
		}
	}
	pm.AvgResponseTimeMs = float64(sum) / float64(len(turns))
	return pm
}

// CheckElements marks an element present when either of its first two words
// occurs in the lowercased reply.
func CheckElements(reply string, elements []string) []types.ElementCheck {
	lower := strings.ToLower(reply)
	out := make([]types.ElementCheck, len(elements))
	for i, el := range elements {
		words := strings.Fields(strings.ToLower(el))
		if len(words) > 2 {
			words = words[:2]
		}
		present := false
		for _, w := range words {
			if strings.Contains(lower, w) {
				present = true
				break
			}
		}
		out[i] = types.ElementCheck{Element: el, Present: present}
	}
	return out
}
