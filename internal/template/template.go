// Package template loads lawyer-approved conversation templates and renders
// them into scripts for a transcript driver.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"conversation-validator-go/internal/types"
)

// Entry is one template file. Exactly one of Template and Err is set.
type Entry struct {
	Path     string
	Template *types.Template
	Err      error
}

// ID names the entry in batch results: the case type when the file loaded,
// the file name otherwise.
func (e Entry) ID() string {
	if e.Template != nil {
		return e.Template.ID()
	}
	return filepath.Base(e.Path)
}

// LoadFile reads, schema-checks and decodes one template file.
// Validation failures are returned as *types.ConfigurationError.
func LoadFile(path string) (*types.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes template YAML; source names it in errors.
func Parse(data []byte, source string) (*types.Template, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &types.ConfigurationError{Source: source, Problems: []string{"yaml: " + err.Error()}}
	}
	if problems := schemaProblems(doc); len(problems) > 0 {
		return nil, &types.ConfigurationError{Source: source, Problems: problems}
	}

	var tpl types.Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, &types.ConfigurationError{Source: source, Problems: []string{"yaml: " + err.Error()}}
	}
	tpl.Source = source
	if err := Validate(&tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Validate checks what the schema cannot: turn numbers must be unique and
// increasing. It also covers templates built in code or decoded from JSON.
func Validate(tpl *types.Template) error {
	var problems []string
	if strings.TrimSpace(tpl.CaseType) == "" {
		problems = append(problems, "case_type is required")
	}
	if len(tpl.ConversationFlow) == 0 {
		problems = append(problems, "conversation_flow must have at least one turn")
	}
	prev := 0
	seen := map[int]bool{}
	for i, t := range tpl.ConversationFlow {
		switch {
		case t.Turn < 1:
			problems = append(problems, fmt.Sprintf("conversation_flow[%d]: turn must be >= 1", i))
		case seen[t.Turn]:
			problems = append(problems, fmt.Sprintf("conversation_flow[%d]: duplicate turn %d", i, t.Turn))
		case t.Turn < prev:
			problems = append(problems, fmt.Sprintf("conversation_flow[%d]: turn %d out of order", i, t.Turn))
		}
		seen[t.Turn] = true
		if t.Turn > prev {
			prev = t.Turn
		}
		if strings.TrimSpace(t.UserInput) == "" {
			problems = append(problems, fmt.Sprintf("conversation_flow[%d]: user_input is required", i))
		}
	}
	for _, p := range tpl.ValidationCriteria.ProhibitedContent {
		if strings.TrimSpace(p) == "" {
			problems = append(problems, "validation_criteria.prohibited_content: empty phrase")
			break
		}
	}
	if len(problems) > 0 {
		src := tpl.Source
		if src == "" {
			src = tpl.CaseType
		}
		return &types.ConfigurationError{Source: src, Problems: problems}
	}
	return nil
}

// LoadDir loads every *.yaml and *.yml file in dir, in file name order.
// A bad file becomes an Entry with Err set; only an unreadable directory
// fails the call.
func LoadDir(dir string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates directory: %s is not a directory", dir)
	}

	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, m...)
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		tpl, err := LoadFile(p)
		entries = append(entries, Entry{Path: p, Template: tpl, Err: err})
	}
	return entries, nil
}
