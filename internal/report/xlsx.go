package report

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"conversation-validator-go/internal/types"
)

const (
	summarySheet = "Summary"
	resultsSheet = "Results"
)

var resultsHeader = []interface{}{
	"template", "status", "execution_time_s", "semantic_alignment", "compliant", "violations",
	"total_turns", "successful_turns", "avg_response_time_ms", "error_kind", "error", "timestamp",
}

// Workbook writes a two-sheet spreadsheet: run summary and one row per template.
func Workbook(path string, b types.BatchReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return err
	}
	summary := [][]interface{}{
		{"run_id", b.Summary.RunID},
		{"timestamp", b.Summary.Timestamp},
		{"total_templates_tested", b.Summary.TotalTemplatesTested},
		{"successful_conversations", b.Summary.SuccessfulConversations},
		{"avg_execution_time_s", b.Summary.AvgExecutionTime},
	}
	for _, rec := range b.Recommendations {
		summary = append(summary, []interface{}{"recommendation", rec})
	}
	for i, row := range summary {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(resultsSheet); err != nil {
		return err
	}
	if err := setRow(f, resultsSheet, 1, resultsHeader); err != nil {
		return err
	}
	for i, r := range b.DetailedResults {
		if err := setRow(f, resultsSheet, i+2, resultRow(r)); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func resultRow(r types.DetailedResult) []interface{} {
	row := make([]interface{}, len(resultsHeader))
	for i := range row {
		row[i] = ""
	}
	row[0] = r.Template
	if r.ExecutionTime != nil {
		row[2] = *r.ExecutionTime
	}
	row[11] = r.Timestamp
	if r.Analysis == nil {
		row[1] = "failed"
		row[9] = string(r.ErrorKind)
		row[10] = r.Error
		return row
	}
	a := r.Analysis
	row[1] = "analyzed"
	if avg, ok := a.AvgAlignment(); ok {
		row[3] = avg
	}
	row[4] = a.ComplianceCheck.IsCompliant
	row[5] = strings.Join(a.ComplianceCheck.Violations, ", ")
	row[6] = a.PerformanceMetrics.TotalTurns
	row[7] = a.PerformanceMetrics.SuccessfulTurns
	row[8] = a.PerformanceMetrics.AvgResponseTimeMs
	return row
}

func setRow(f *excelize.File, sheet string, row int, vals []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &vals)
}
