package extractor

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"conversation-validator-go/internal/entities"
	"conversation-validator-go/internal/logger"
	"conversation-validator-go/internal/types"
)

// FailureHook is told about entity service failures. Metrics plug in here.
type FailureHook func(service string)

// Extractor decides which information types a conversation captured.
type Extractor struct {
	rules     Rules
	ner       entities.Extractor
	onFailure FailureHook
	log       *logrus.Entry
}

// New builds an extractor over rules. ner may be nil when no rule uses entity
// labels; entity evidence is then always empty.
func New(rules Rules, ner entities.Extractor) *Extractor {
	return &Extractor{
		rules: rules,
		ner:   ner,
		log:   logger.New().Component("information-extractor"),
	}
}

// OnServiceFailure registers a hook called when the entity service fails.
func (e *Extractor) OnServiceFailure(h FailureHook) {
	e.onFailure = h
}

// Extract evaluates one information type against text.
func (e *Extractor) Extract(ctx context.Context, text, infoType string) types.ExtractionResult {
	rule, ok := e.rules.Lookup(infoType)
	if !ok {
		return unknown()
	}
	var ents []types.Entity
	if rule.needsEntities() {
		ents = e.entities(ctx, text)
	}
	return apply(rule, text, ents)
}

// ExtractAll evaluates every requested type, calling the entity service at
// most once for the whole text.
func (e *Extractor) ExtractAll(ctx context.Context, text string, infoTypes []string) map[string]types.ExtractionResult {
	out := make(map[string]types.ExtractionResult, len(infoTypes))

	var ents []types.Entity
	fetched := false
	for _, it := range infoTypes {
		rule, ok := e.rules.Lookup(it)
		if !ok {
			e.log.WithField("information_type", it).Debug("unknown information type")
			out[it] = unknown()
			continue
		}
		if rule.needsEntities() && !fetched {
			ents = e.entities(ctx, text)
			fetched = true
		}
		out[it] = apply(rule, text, ents)
	}
	return out
}

func (e *Extractor) entities(ctx context.Context, text string) []types.Entity {
	if e.ner == nil {
		return nil
	}
	ents, err := e.ner.Entities(ctx, text)
	if err != nil {
		e.log.WithError(err).Warn("entity extraction failed, continuing with keywords only")
		if e.onFailure != nil {
			e.onFailure("ner")
		}
		return nil
	}
	return ents
}

func apply(rule Rule, text string, ents []types.Entity) types.ExtractionResult {
	labels := make(map[string]bool, len(rule.Entities))
	for _, l := range rule.Entities {
		labels[l] = true
	}

	found := []string{}
	seen := map[string]bool{}
	for _, ent := range ents {
		if !labels[ent.Label] {
			continue
		}
		if rule.DedupeEntities {
			if seen[ent.Text] {
				continue
			}
			seen[ent.Text] = true
		}
		found = append(found, ent.Text)
	}

	lower := strings.ToLower(text)
	keywords := []string{}
	for _, kw := range rule.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			keywords = append(keywords, kw)
		}
	}

	confidence := len(found) + len(keywords)
	return types.ExtractionResult{
		EntitiesFound:        found,
		KeywordsFound:        keywords,
		ExtractionConfidence: confidence,
		Extracted:            confidence > 0,
		Recognized:           true,
	}
}

func unknown() types.ExtractionResult {
	return types.ExtractionResult{
		EntitiesFound: []string{},
		KeywordsFound: []string{},
	}
}
