package aggregator

import (
	"time"

	"conversation-validator-go/internal/actionable"
	"conversation-validator-go/internal/types"
)

// TimeFormat is used for every timestamp in a batch report.
const TimeFormat = time.RFC3339

// Aggregate folds template outcomes into a batch report. It does no I/O and
// keeps the input order in detailed_results.
func Aggregate(items []types.Outcome, now time.Time) types.BatchReport {
	results := make([]types.DetailedResult, 0, len(items))
	reports := make([]*types.AnalysisReport, 0, len(items))

	successful := 0
	timed := 0
	var totalSecs float64

	for _, it := range items {
		dr := types.DetailedResult{
			Template:         it.TemplateID,
			ConversationData: it.Conversation,
			Analysis:         it.Report,
			Timestamp:        stamp(it.Timestamp, now),
		}
		if it.ExecutionTime != nil {
			secs := it.ExecutionTime.Seconds()
			dr.ExecutionTime = &secs
			totalSecs += secs
			timed++
		}
		if it.Report != nil {
			successful++
			reports = append(reports, it.Report)
		} else if it.Err != nil {
			dr.Error = it.Err.Error()
			dr.ErrorKind = types.KindOf(it.Err)
		}
		results = append(results, dr)
	}

	avg := 0.0
	if timed > 0 {
		avg = totalSecs / float64(timed)
	}

	return types.BatchReport{
		Summary: types.BatchSummary{
			TotalTemplatesTested:    len(items),
			SuccessfulConversations: successful,
			AvgExecutionTime:        avg,
			Timestamp:               now.Format(TimeFormat),
		},
		DetailedResults: results,
		Recommendations: actionable.Generate(reports),
	}
}

func stamp(t, fallback time.Time) string {
	if t.IsZero() {
		return fallback.Format(TimeFormat)
	}
	return t.Format(TimeFormat)
}
