package types

import "time"

// --------------------------------------------
// Lawyer-approved conversation template
// --------------------------------------------
type Template struct {
	CaseType           string             `json:"case_type" yaml:"case_type"`
	PracticeArea       string             `json:"practice_area" yaml:"practice_area"`
	ConversationFlow   []TemplateTurn     `json:"conversation_flow" yaml:"conversation_flow"`
	ValidationCriteria ValidationCriteria `json:"validation_criteria" yaml:"validation_criteria"`

	// Source is the file the template was loaded from, empty for inline templates.
	Source string `json:"-" yaml:"-"`
}

type TemplateTurn struct {
	Turn             int      `json:"turn" yaml:"turn"`
	UserInput        string   `json:"user_input" yaml:"user_input"`
	ExpectedAIThemes []string `json:"expected_ai_themes" yaml:"expected_ai_themes"`
	RequiredElements []string `json:"required_elements" yaml:"required_elements"`
}

type ValidationCriteria struct {
	InformationCapture []string `json:"information_capture" yaml:"information_capture"`
	ToneRequirements   []string `json:"tone_requirements" yaml:"tone_requirements"`
	ProhibitedContent  []string `json:"prohibited_content" yaml:"prohibited_content"`
}

// ID names the template in batch results.
func (t *Template) ID() string {
	if t.CaseType != "" {
		return t.CaseType
	}
	return t.Source
}

// TurnByNumber returns the template turn with the given number.
func (t *Template) TurnByNumber(n int) (TemplateTurn, bool) {
	for _, tt := range t.ConversationFlow {
		if tt.Turn == n {
			return tt, true
		}
	}
	return TemplateTurn{}, false
}

// --------------------------------------------
// Script handed to a transcript driver
// (placeholders already substituted)
// --------------------------------------------
type Script struct {
	CaseType string   `json:"case_type"`
	AgentURL string   `json:"agent_url,omitempty"`
	Messages []string `json:"messages"`
}

// --------------------------------------------
// Observed transcript
// --------------------------------------------
type TranscriptTurn struct {
	Turn           int       `json:"turn"`
	UserInput      string    `json:"user_input"`
	AIResponse     string    `json:"ai_response"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Timestamp      time.Time `json:"timestamp"`
}

type UIMessage struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
	IsUser  bool   `json:"isUser"`
	IsAI    bool   `json:"isAI"`
}

type ConversationResult struct {
	Success      bool             `json:"success"`
	Conversation []TranscriptTurn `json:"conversation"`
	FinalState   []UIMessage      `json:"final_state,omitempty"`
	Error        string           `json:"error,omitempty"`
}

// Entity is a named entity reported by an entity extractor.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}
