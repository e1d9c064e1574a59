package entities

import (
	"context"
	"sort"
	"strings"

	"conversation-validator-go/internal/types"
)

// Gazetteer is an offline extractor that labels known phrases.
// Matching is case-insensitive; every occurrence is reported.
type Gazetteer struct {
	phrases map[string][]string // label -> phrases
}

func NewGazetteer(phrases map[string][]string) *Gazetteer {
	cp := make(map[string][]string, len(phrases))
	for label, list := range phrases {
		cp[label] = append([]string(nil), list...)
	}
	return &Gazetteer{phrases: cp}
}

type mention struct {
	pos    int
	entity types.Entity
}

func (g *Gazetteer) Entities(_ context.Context, text string) ([]types.Entity, error) {
	lower := strings.ToLower(text)
	// surface text can only be sliced from the original when lowering kept byte offsets
	sameOffsets := len(lower) == len(text)

	labels := make([]string, 0, len(g.phrases))
	for label := range g.phrases {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var found []mention
	for _, label := range labels {
		for _, phrase := range g.phrases[label] {
			p := strings.ToLower(phrase)
			if p == "" {
				continue
			}
			for start := 0; start < len(lower); {
				i := strings.Index(lower[start:], p)
				if i < 0 {
					break
				}
				pos := start + i
				surface := phrase
				if sameOffsets {
					surface = text[pos : pos+len(p)]
				}
				found = append(found, mention{pos: pos, entity: types.Entity{Text: surface, Label: label}})
				start = pos + len(p)
			}
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })
	out := make([]types.Entity, len(found))
	for i, m := range found {
		out[i] = m.entity
	}
	return out, nil
}
