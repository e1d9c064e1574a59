package aggregator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-validator-go/internal/types"
)

var now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func dur(d time.Duration) *time.Duration { return &d }

func TestAggregate_Empty(t *testing.T) {
	b := Aggregate(nil, now)
	assert.Equal(t, 0, b.Summary.TotalTemplatesTested)
	assert.Equal(t, 0, b.Summary.SuccessfulConversations)
	assert.Equal(t, 0.0, b.Summary.AvgExecutionTime)
	assert.Equal(t, "2026-03-14T09:30:00Z", b.Summary.Timestamp)
	assert.NotNil(t, b.DetailedResults)
	assert.Empty(t, b.Recommendations)
}

func TestAggregate_MixedOutcomes(t *testing.T) {
	ok := &types.AnalysisReport{
		SemanticSimilarity: map[string]types.TurnSimilarity{
			"turn_1": {AvgSimilarity: 0.3},
			"turn_2": {AvgSimilarity: 0.4},
		},
		ComplianceCheck: types.ComplianceResult{Violations: []string{"you will definitely win"}},
	}
	items := []types.Outcome{
		{TemplateID: "car_accident", Report: ok, ExecutionTime: dur(4 * time.Second)},
		{TemplateID: "slip_and_fall", Err: &types.CaptureFailure{Message: "browser crashed"}, ExecutionTime: dur(2 * time.Second)},
		{TemplateID: "broken.yaml", Err: &types.ConfigurationError{Source: "broken.yaml", Problems: []string{"case_type is required"}}},
		{TemplateID: "dog_bite", Err: errors.New("boom"), Timestamp: now.Add(-time.Minute)},
	}

	b := Aggregate(items, now)

	assert.Equal(t, 4, b.Summary.TotalTemplatesTested)
	assert.Equal(t, 1, b.Summary.SuccessfulConversations)
	assert.InDelta(t, 3.0, b.Summary.AvgExecutionTime, 1e-9, "items without a time are excluded")

	require.Len(t, b.DetailedResults, 4)
	assert.Equal(t, "car_accident", b.DetailedResults[0].Template)
	assert.Same(t, ok, b.DetailedResults[0].Analysis)
	assert.Empty(t, b.DetailedResults[0].Error)

	assert.Equal(t, "conversation execution failed: browser crashed", b.DetailedResults[1].Error)
	assert.Equal(t, types.ErrKindCapture, b.DetailedResults[1].ErrorKind)
	assert.Equal(t, types.ErrKindConfiguration, b.DetailedResults[2].ErrorKind)
	assert.Nil(t, b.DetailedResults[2].ExecutionTime)
	assert.Equal(t, types.ErrKindInternal, b.DetailedResults[3].ErrorKind)
	assert.Equal(t, "2026-03-14T09:29:00Z", b.DetailedResults[3].Timestamp)

	assert.Equal(t, []string{
		"AI response alignment with expected themes is low (0.35). Consider refining training data or prompts.",
		"Compliance violations detected: you will definitely win. Review AI boundaries and constraints.",
	}, b.Recommendations)
}

func TestAggregate_AllFailedStillReports(t *testing.T) {
	b := Aggregate([]types.Outcome{
		{TemplateID: "a", Err: &types.CaptureFailure{}},
		{TemplateID: "b", Err: &types.CaptureFailure{}},
	}, now)
	assert.Equal(t, 2, b.Summary.TotalTemplatesTested)
	assert.Equal(t, 0, b.Summary.SuccessfulConversations)
	assert.Empty(t, b.Recommendations)
}
