// internal/types/report_models.go
package types

import "time"

// --------------------------------------------
// Per-conversation analysis report
// --------------------------------------------
type AnalysisReport struct {
	SemanticSimilarity    map[string]TurnSimilarity   `json:"semantic_similarity"`
	InformationExtraction map[string]ExtractionResult `json:"information_extraction"`
	ToneAnalysis          map[string]ToneScore        `json:"tone_analysis"`
	ComplianceCheck       ComplianceResult            `json:"compliance_check"`
	PerformanceMetrics    PerformanceMetrics          `json:"performance_metrics"`
	RequiredElements      map[string][]ElementCheck   `json:"required_elements,omitempty"`
	SkippedTurns          []int                       `json:"skipped_turns,omitempty"`
}

// --------------------------------------------
// Thematic alignment for one turn
// --------------------------------------------
type TurnSimilarity struct {
	ExpectedThemes   []string           `json:"expected_themes"`
	SimilarityScores map[string]float64 `json:"similarity_scores"`
	AvgSimilarity    float64            `json:"avg_similarity"`
	Error            string             `json:"error,omitempty"`
}

// --------------------------------------------
// Information capture for one information type
// --------------------------------------------
type ExtractionResult struct {
	EntitiesFound        []string `json:"entities_found"`
	KeywordsFound        []string `json:"keywords_found"`
	ExtractionConfidence int      `json:"extraction_confidence"`
	Extracted            bool     `json:"extracted"`
	// Recognized is false when the information type has no extraction rule.
	Recognized bool `json:"recognized"`
}

// --------------------------------------------
// Tone profile score
// --------------------------------------------
type ToneScore struct {
	IndicatorsFound  []string `json:"indicators_found"`
	Score            float64  `json:"score"` // 0–1
	MeetsRequirement bool     `json:"meets_requirement"`
	Recognized       bool     `json:"recognized"`
}

type ComplianceResult struct {
	Violations  []string `json:"violations"`
	IsCompliant bool     `json:"is_compliant"`
}

type PerformanceMetrics struct {
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	MaxResponseTimeMs int64   `json:"max_response_time_ms"`
	TotalTurns        int     `json:"total_turns"`
	SuccessfulTurns   int     `json:"successful_turns"`
}

type ElementCheck struct {
	Element string `json:"element"`
	Present bool   `json:"present"`
}

// AvgAlignment is the mean avg_similarity across analyzed turns, 0 when none.
func (r *AnalysisReport) AvgAlignment() (float64, bool) {
	if len(r.SemanticSimilarity) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, ts := range r.SemanticSimilarity {
		sum += ts.AvgSimilarity
	}
	return sum / float64(len(r.SemanticSimilarity)), true
}

// --------------------------------------------
// Aggregator input: one template outcome
// --------------------------------------------
type Outcome struct {
	TemplateID    string
	Conversation  *ConversationResult
	Report        *AnalysisReport
	Err           error
	ExecutionTime *time.Duration
	Timestamp     time.Time
}

// --------------------------------------------
// Batch report
// --------------------------------------------
type BatchReport struct {
	Summary         BatchSummary     `json:"summary"`
	DetailedResults []DetailedResult `json:"detailed_results"`
	Recommendations []string         `json:"recommendations"`
}

type BatchSummary struct {
	RunID                   string  `json:"run_id,omitempty"`
	TotalTemplatesTested    int     `json:"total_templates_tested"`
	SuccessfulConversations int     `json:"successful_conversations"`
	AvgExecutionTime        float64 `json:"avg_execution_time"` // seconds
	Timestamp               string  `json:"timestamp"`
}

type DetailedResult struct {
	Template         string              `json:"template"`
	ExecutionTime    *float64            `json:"execution_time,omitempty"` // seconds
	ConversationData *ConversationResult `json:"conversation_data,omitempty"`
	Analysis         *AnalysisReport     `json:"analysis,omitempty"`
	Error            string              `json:"error,omitempty"`
	ErrorKind        ErrorKind           `json:"error_kind,omitempty"`
	Timestamp        string              `json:"timestamp"`
}
