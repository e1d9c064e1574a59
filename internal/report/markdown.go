package report

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"conversation-validator-go/internal/types"
)

var printer = message.NewPrinter(language.English)

// Markdown is the reviewer digest: summary, recommendations, then per
// template execution time, thematic alignment and compliance status.
func Markdown(b types.BatchReport) string {
	var sb strings.Builder
	p := func(format string, a ...interface{}) { sb.WriteString(printer.Sprintf(format, a...)) }

	s := b.Summary
	p("# Conversation Validation Report\n\n")
	p("## Summary\n")
	p("- **Templates Tested**: %d\n", s.TotalTemplatesTested)
	p("- **Successful Conversations**: %d\n", s.SuccessfulConversations)
	p("- **Average Execution Time**: %.2f seconds\n", s.AvgExecutionTime)
	p("- **Report Generated**: %s\n", s.Timestamp)
	if s.RunID != "" {
		p("- **Run ID**: %s\n", s.RunID)
	}

	p("\n## Recommendations\n")
	if len(b.Recommendations) == 0 {
		p("- None\n")
	}
	for _, rec := range b.Recommendations {
		p("- %s\n", rec)
	}

	p("\n## Detailed Results\n")
	for _, r := range b.DetailedResults {
		p("\n### %s\n", r.Template)
		if r.ExecutionTime != nil {
			p("- **Execution Time**: %.2fs\n", *r.ExecutionTime)
		}
		if r.Analysis == nil {
			kind := r.ErrorKind
			if kind == "" {
				kind = types.ErrKindInternal
			}
			p("- **Status**: ❌ Failed (%s)\n", string(kind))
			if r.Error != "" {
				p("- **Error**: %s\n", r.Error)
			}
			continue
		}
		if avg, ok := r.Analysis.AvgAlignment(); ok {
			p("- **Semantic Alignment**: %.2f\n", avg)
		}
		if r.Analysis.ComplianceCheck.IsCompliant {
			p("- **Compliance**: ✅ Pass\n")
		} else {
			p("- **Compliance**: ❌ Violations detected (%s)\n", strings.Join(r.Analysis.ComplianceCheck.Violations, ", "))
		}
		if n := len(r.Analysis.SkippedTurns); n > 0 {
			p("- **Skipped Turns**: %d\n", n)
		}
	}
	return sb.String()
}
