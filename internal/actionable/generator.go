// Package actionable turns a batch of analysis reports into the short list of
// recommendations shown to compliance reviewers. The rule set is small on
// purpose; every rule is a plain threshold a reviewer can check by hand.
package actionable

import (
	"fmt"
	"sort"
	"strings"

	"conversation-validator-go/internal/types"
)

// LowAlignmentThreshold is the pooled mean turn alignment below which the
// batch is flagged.
const LowAlignmentThreshold = 0.6

// Rule inspects the successful reports of a batch and either emits one
// recommendation or stays silent.
type Rule func(reports []*types.AnalysisReport) (string, bool)

// Rules are evaluated in this order.
var Rules = []Rule{LowAlignment, ComplianceViolations}

// Generate runs every rule. nil reports are ignored.
func Generate(reports []*types.AnalysisReport) []string {
	ok := make([]*types.AnalysisReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			ok = append(ok, r)
		}
	}
	recs := []string{}
	for _, rule := range Rules {
		if rec, fired := rule(ok); fired {
			recs = append(recs, rec)
		}
	}
	return recs
}

// LowAlignment pools avg_similarity over every turn of every report.
func LowAlignment(reports []*types.AnalysisReport) (string, bool) {
	pooled := PooledAlignment(reports)
	if len(pooled) == 0 {
		return "", false
	}
	sum := 0.0
	for _, v := range pooled {
		sum += v
	}
	mean := sum / float64(len(pooled))
	if mean >= LowAlignmentThreshold {
		return "", false
	}
	return fmt.Sprintf("AI response alignment with expected themes is low (%.2f). Consider refining training data or prompts.", mean), true
}

// ComplianceViolations lists each violated phrase once, in first-seen order.
func ComplianceViolations(reports []*types.AnalysisReport) (string, bool) {
	unique := UniqueViolations(reports)
	if len(unique) == 0 {
		return "", false
	}
	return fmt.Sprintf("Compliance violations detected: %s. Review AI boundaries and constraints.", strings.Join(unique, ", ")), true
}

// PooledAlignment collects avg_similarity per turn, reports in order and
// turns by key within a report.
func PooledAlignment(reports []*types.AnalysisReport) []float64 {
	var out []float64
	for _, r := range reports {
		keys := make([]string, 0, len(r.SemanticSimilarity))
		for k := range r.SemanticSimilarity {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out = append(out, r.SemanticSimilarity[k].AvgSimilarity)
		}
	}
	return out
}

func UniqueViolations(reports []*types.AnalysisReport) []string {
	var out []string
	seen := map[string]bool{}
	for _, r := range reports {
		for _, v := range r.ComplianceCheck.Violations {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
