package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"conversation-validator-go/internal/embedding"
	"conversation-validator-go/internal/entities"
	"conversation-validator-go/internal/extractor"
	"conversation-validator-go/internal/metrics"
	"conversation-validator-go/internal/similarity"
	"conversation-validator-go/internal/tone"
	"conversation-validator-go/internal/types"
)

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	vecs, _ := args.Get(0).([][]float32)
	return vecs, args.Error(1)
}

type mockNER struct {
	mock.Mock
}

func (m *mockNER) Entities(ctx context.Context, text string) ([]types.Entity, error) {
	args := m.Called(ctx, text)
	ents, _ := args.Get(0).([]types.Entity)
	return ents, args.Error(1)
}

func newAnalyzer(svc embedding.Service, ner entities.Extractor, m *metrics.Metrics) *Analyzer {
	return New(Deps{
		Scorer:    similarity.NewScorer(svc),
		Extractor: extractor.New(extractor.DefaultRules(), ner),
		Tone:      tone.NewAnalyzer(tone.DefaultProfiles()),
		Metrics:   m,
	})
}

func oneTurnTemplate(prohibited ...string) *types.Template {
	return &types.Template{
		CaseType:     "car_accident",
		PracticeArea: "personal_injury",
		ConversationFlow: []types.TemplateTurn{{
			Turn:             1,
			UserInput:        "I was in an accident",
			ExpectedAIThemes: []string{"empathy", "legal disclaimer"},
		}},
		ValidationCriteria: types.ValidationCriteria{
			InformationCapture: []string{"accident_details"},
			ToneRequirements:   []string{"empathetic", "legally_compliant"},
			ProhibitedContent:  prohibited,
		},
	}
}

func TestAnalyze_EmpatheticDisclaimedReply(t *testing.T) {
	a := newAnalyzer(embedding.NewHashEmbedder(embedding.DefaultHashDims), entities.NewGazetteer(nil), nil)
	result := &types.ConversationResult{
		Success: true,
		Conversation: []types.TranscriptTurn{{
			Turn:           1,
			UserInput:      "I was in an accident",
			AIResponse:     "I'm sorry to hear about the accident. This is not legal advice, an attorney will review your case.",
			ResponseTimeMs: 1200,
		}},
	}

	report, err := a.Analyze(context.Background(), oneTurnTemplate(), result)
	require.NoError(t, err)

	assert.True(t, report.ToneAnalysis["empathetic"].MeetsRequirement)
	assert.True(t, report.ToneAnalysis["legally_compliant"].MeetsRequirement)
	assert.True(t, report.ComplianceCheck.IsCompliant)
	assert.Empty(t, report.ComplianceCheck.Violations)

	turn := report.SemanticSimilarity["turn_1"]
	assert.Equal(t, []string{"empathy", "legal disclaimer"}, turn.ExpectedThemes)
	require.Len(t, turn.SimilarityScores, 2)
	for theme, s := range turn.SimilarityScores {
		assert.GreaterOrEqual(t, s, 0.0, theme)
		assert.LessOrEqual(t, s, 1.0, theme)
	}
	assert.Empty(t, turn.Error)

	assert.True(t, report.InformationExtraction["accident_details"].Extracted)
	assert.Equal(t, types.PerformanceMetrics{
		AvgResponseTimeMs: 1200, MaxResponseTimeMs: 1200, TotalTurns: 1, SuccessfulTurns: 1,
	}, report.PerformanceMetrics)
}

func TestAnalyze_ProhibitedPhrase(t *testing.T) {
	a := newAnalyzer(embedding.NewHashEmbedder(64), nil, nil)
	result := &types.ConversationResult{
		Success: true,
		Conversation: []types.TranscriptTurn{
			{Turn: 1, AIResponse: "Don't worry, You Will Definitely Win this case."},
		},
	}

	report, err := a.Analyze(context.Background(), oneTurnTemplate("you will definitely win", "guaranteed payout"), result)
	require.NoError(t, err)
	assert.Equal(t, []string{"you will definitely win"}, report.ComplianceCheck.Violations)
	assert.False(t, report.ComplianceCheck.IsCompliant)
}

func TestAnalyze_CaptureFailureShortCircuits(t *testing.T) {
	emb := &mockEmbedder{}
	ner := &mockNER{}
	a := newAnalyzer(emb, ner, nil)

	report, err := a.Analyze(context.Background(), oneTurnTemplate("x"), &types.ConversationResult{
		Success: false,
		Error:   "timeout waiting for #message-input",
	})
	assert.Nil(t, report)
	require.Error(t, err)

	var cf *types.CaptureFailure
	require.ErrorAs(t, err, &cf)
	assert.Equal(t, "timeout waiting for #message-input", cf.Message)
	emb.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
	ner.AssertNotCalled(t, "Entities", mock.Anything, mock.Anything)

	_, err = a.Analyze(context.Background(), oneTurnTemplate(), nil)
	assert.Equal(t, types.ErrKindCapture, types.KindOf(err))
}

func TestAnalyze_SkipsUnmatchedTurns(t *testing.T) {
	a := newAnalyzer(embedding.NewHashEmbedder(64), nil, nil)
	result := &types.ConversationResult{
		Success: true,
		Conversation: []types.TranscriptTurn{
			{Turn: 1, AIResponse: "first reply here", ResponseTimeMs: 100},
			{Turn: 3, AIResponse: "third", ResponseTimeMs: 300},
			{Turn: 2, AIResponse: "exactly10c", ResponseTimeMs: 200},
		},
	}

	report, err := a.Analyze(context.Background(), oneTurnTemplate(), result)
	require.NoError(t, err)

	assert.Len(t, report.SemanticSimilarity, 1)
	assert.Contains(t, report.SemanticSimilarity, "turn_1")
	assert.Equal(t, []int{3, 2}, report.SkippedTurns)
	assert.Equal(t, types.PerformanceMetrics{
		AvgResponseTimeMs: 200, MaxResponseTimeMs: 300, TotalTurns: 3, SuccessfulTurns: 1,
	}, report.PerformanceMetrics, "performance covers every turn")
}

func TestAnalyze_EmbeddingFailureDegradesTurn(t *testing.T) {
	emb := &mockEmbedder{}
	emb.On("Encode", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	m := metrics.NewMetrics(prometheus.NewRegistry())
	a := newAnalyzer(emb, nil, m)

	report, err := a.Analyze(context.Background(), oneTurnTemplate(), &types.ConversationResult{
		Success:      true,
		Conversation: []types.TranscriptTurn{{Turn: 1, AIResponse: "I'm sorry, that sounds difficult."}},
	})
	require.NoError(t, err)

	turn := report.SemanticSimilarity["turn_1"]
	assert.Equal(t, 0.0, turn.AvgSimilarity)
	assert.Empty(t, turn.SimilarityScores)
	assert.Contains(t, turn.Error, "connection refused")
	assert.True(t, report.ToneAnalysis["empathetic"].MeetsRequirement, "other sub-scores still run")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceFailures.WithLabelValues("embedding")))
}

func TestAnalyze_NERFailureIsCounted(t *testing.T) {
	ner := &mockNER{}
	ner.On("Entities", mock.Anything, mock.Anything).Return(nil, errors.New("ner down")).Once()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	a := newAnalyzer(embedding.NewHashEmbedder(64), ner, m)

	tpl := oneTurnTemplate()
	tpl.ValidationCriteria.InformationCapture = []string{"client_name", "location"}
	report, err := a.Analyze(context.Background(), tpl, &types.ConversationResult{
		Success:      true,
		Conversation: []types.TranscriptTurn{{Turn: 1, AIResponse: "Thanks, and where are you located?"}},
	})
	require.NoError(t, err)

	assert.True(t, report.InformationExtraction["location"].Extracted)
	assert.Empty(t, report.InformationExtraction["client_name"].EntitiesFound)
	ner.AssertNumberOfCalls(t, "Entities", 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ServiceFailures.WithLabelValues("ner")))
}

func TestAnalyze_EmptyTranscript(t *testing.T) {
	a := newAnalyzer(embedding.NewHashEmbedder(64), nil, nil)

	report, err := a.Analyze(context.Background(), oneTurnTemplate(), &types.ConversationResult{Success: true})
	require.NoError(t, err)
	assert.Equal(t, types.PerformanceMetrics{}, report.PerformanceMetrics)
	assert.Empty(t, report.SemanticSimilarity)
	assert.True(t, report.ComplianceCheck.IsCompliant)
	_, ok := report.AvgAlignment()
	assert.False(t, ok)
}

func TestAnalyze_EmptyThemesScoreZero(t *testing.T) {
	emb := &mockEmbedder{}
	a := newAnalyzer(emb, nil, nil)
	tpl := &types.Template{CaseType: "x", ConversationFlow: []types.TemplateTurn{{Turn: 1, UserInput: "hi"}}}

	report, err := a.Analyze(context.Background(), tpl, &types.ConversationResult{
		Success:      true,
		Conversation: []types.TranscriptTurn{{Turn: 1, AIResponse: "hello there friend"}},
	})
	require.NoError(t, err)
	assert.Equal(t, types.TurnSimilarity{ExpectedThemes: []string{}, SimilarityScores: map[string]float64{}}, report.SemanticSimilarity["turn_1"])
	emb.AssertNotCalled(t, "Encode", mock.Anything, mock.Anything)
}

func TestCheckElements(t *testing.T) {
	got := CheckElements("I'm so sorry. Can you share the date of the crash?", []string{
		"express sympathy",
		"share accident date",
		"mention attorney review",
		"",
	})
	assert.Equal(t, []types.ElementCheck{
		{Element: "express sympathy", Present: false},
		{Element: "share accident date", Present: true},
		{Element: "mention attorney review", Present: false},
		{Element: "", Present: false},
	}, got)
}

func TestFullText(t *testing.T) {
	assert.Equal(t, "a  c", FullText([]types.TranscriptTurn{{AIResponse: "a"}, {AIResponse: ""}, {AIResponse: "c"}}))
	assert.Equal(t, "", FullText(nil))
}
