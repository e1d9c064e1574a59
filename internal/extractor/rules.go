package extractor

// Rule says how to decide whether an information type was captured.
type Rule struct {
	// Entities lists NER labels whose mentions count as evidence.
	Entities []string `mapstructure:"entities" yaml:"entities"`
	// Keywords are matched as case-insensitive substrings of the full text.
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
	// DedupeEntities counts each distinct surface text once instead of once per mention.
	DedupeEntities bool `mapstructure:"dedupe_entities" yaml:"dedupe_entities"`
}

// Rules maps information type -> rule.
type Rules map[string]Rule

// DefaultRules is the rule table used when no registry file is configured.
func DefaultRules() Rules {
	return Rules{
		"client_name": {
			Entities: []string{"PERSON"},
			Keywords: []string{"name is", "called", "my name"},
		},
		"location": {
			Entities: []string{"GPE", "LOC"},
			Keywords: []string{"live in", "from", "located"},
		},
		"accident_details": {
			Keywords: []string{"accident", "crash", "collision", "hit"},
		},
		"fault_determination": {
			Keywords: []string{"red light", "fault", "responsible", "caused"},
		},
	}
}

// Lookup returns the rule for infoType and whether the type is known.
func (r Rules) Lookup(infoType string) (Rule, bool) {
	rule, ok := r[infoType]
	return rule, ok
}

func (r Rule) needsEntities() bool {
	return len(r.Entities) > 0
}
