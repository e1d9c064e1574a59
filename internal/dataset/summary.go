package dataset

import "sort"

// Summary describes a set of recordings.
type Summary struct {
	Recordings        int            `json:"recordings"`
	Turns             int            `json:"turns"`
	TurnsByCase       map[string]int `json:"turns_by_case"`
	FailedCases       []string       `json:"failed_cases"`
	AvgResponseTimeMs float64        `json:"avg_response_time_ms"`
}

func Summarize(recs []Recording) Summary {
	s := Summary{
		Recordings:  len(recs),
		TurnsByCase: map[string]int{},
		FailedCases: []string{},
	}
	var total int64
	for _, r := range recs {
		n := len(r.Result.Conversation)
		s.Turns += n
		s.TurnsByCase[r.CaseType] += n
		if !r.Result.Success {
			s.FailedCases = append(s.FailedCases, r.CaseType)
		}
		for _, t := range r.Result.Conversation {
			total += t.ResponseTimeMs
		}
	}
	sort.Strings(s.FailedCases)
	if s.Turns > 0 {
		s.AvgResponseTimeMs = float64(total) / float64(s.Turns)
	}
	return s
}
