package template

import (
	"regexp"
	"sort"
	"strings"

	"conversation-validator-go/internal/types"
)

// DefaultVars are the sample values substituted into user inputs.
func DefaultVars() map[string]string {
	return map[string]string{
		"name":  "John Smith",
		"city":  "San Francisco",
		"state": "California",
	}
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Substitute replaces each {key} in s with vars[key]. Unknown placeholders
// are left as written.
func Substitute(s string, vars map[string]string) string {
	if len(vars) == 0 {
		return s
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Placeholders lists the distinct placeholder names left in s, in order of
// first appearance.
func Placeholders(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Render builds the script a driver runs: one message per template turn,
// in flow order, with placeholders substituted.
func Render(tpl *types.Template, agentURL string, vars map[string]string) types.Script {
	msgs := make([]string, len(tpl.ConversationFlow))
	for i, t := range tpl.ConversationFlow {
		msgs[i] = Substitute(t.UserInput, vars)
	}
	return types.Script{CaseType: tpl.CaseType, AgentURL: agentURL, Messages: msgs}
}

// Unresolved reports placeholders a rendered script still carries.
func Unresolved(s types.Script) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range s.Messages {
		for _, p := range Placeholders(m) {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}
