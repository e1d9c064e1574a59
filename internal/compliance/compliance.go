// Package compliance flags prohibited phrases in an agent's replies.
//
// Matching is literal: a phrase is a violation only when it appears as a
// case-insensitive substring of the text. Paraphrases are not caught.
package compliance

import "strings"

type Checker struct{}

func NewChecker() *Checker { return &Checker{} }

// Check returns the prohibited phrases found in text, in the caller's order.
// Duplicate phrases in prohibited produce duplicate violations.
func (c *Checker) Check(text string, prohibited []string) []string {
	lower := strings.ToLower(text)
	violations := []string{}
	for _, phrase := range prohibited {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			violations = append(violations, phrase)
		}
	}
	return violations
}
