package tone

import (
	"strings"

	"conversation-validator-go/internal/types"
)

// Profiles maps profile name -> indicator phrases.
type Profiles map[string][]string

// DefaultProfiles returns the built-in indicator lists.
func DefaultProfiles() Profiles {
	return Profiles{
		"professional":      {"attorney", "legal", "information", "assist", "help"},
		"empathetic":        {"sorry", "understand", "difficult", "experience"},
		"legally_compliant": {"not legal advice", "attorney will", "cannot provide advice"},
	}
}

// Analyzer scores text against tone profiles.
type Analyzer struct {
	profiles Profiles
}

func NewAnalyzer(profiles Profiles) *Analyzer {
	return &Analyzer{profiles: profiles}
}

// Analyze scores every requested profile. A requested name that is not in
// the registry yields a zero score with Recognized false.
func (a *Analyzer) Analyze(text string, requested []string) map[string]types.ToneScore {
	lower := strings.ToLower(text)
	out := make(map[string]types.ToneScore, len(requested))
	for _, name := range requested {
		indicators, ok := a.profiles[name]
		if !ok {
			out[name] = types.ToneScore{IndicatorsFound: []string{}}
			continue
		}
		found := []string{}
		for _, ind := range indicators {
			if strings.Contains(lower, strings.ToLower(ind)) {
				found = append(found, ind)
			}
		}
		score := 0.0
		if len(indicators) > 0 {
			score = float64(len(found)) / float64(len(indicators))
		}
		out[name] = types.ToneScore{
			IndicatorsFound:  found,
			Score:            score,
			MeetsRequirement: len(found) > 0,
			Recognized:       true,
		}
	}
	return out
}
