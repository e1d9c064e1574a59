package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-validator-go/internal/entities"
	"conversation-validator-go/internal/types"
)

type countingNER struct {
	calls int
	ents  []types.Entity
	err   error
}

func (c *countingNER) Entities(_ context.Context, _ string) ([]types.Entity, error) {
	c.calls++
	return c.ents, c.err
}

func TestExtract_UnknownType(t *testing.T) {
	ner := &countingNER{}
	ex := New(DefaultRules(), ner)

	res := ex.Extract(context.Background(), "my name is John and I live in Austin", "favorite_color")
	assert.False(t, res.Extracted)
	assert.False(t, res.Recognized)
	assert.Equal(t, 0, res.ExtractionConfidence)
	assert.Empty(t, res.EntitiesFound)
	assert.Empty(t, res.KeywordsFound)
	assert.Zero(t, ner.calls)
}

func TestExtract_KeywordsAreCaseInsensitive(t *testing.T) {
	ex := New(DefaultRules(), nil)

	res := ex.Extract(context.Background(), "The other driver RAN a Red Light and caused the CRASH.", "fault_determination")
	require.True(t, res.Recognized)
	assert.Equal(t, []string{"red light", "caused"}, res.KeywordsFound)
	assert.Equal(t, 2, res.ExtractionConfidence)
	assert.True(t, res.Extracted)
}

func TestExtract_EntitiesPerMention(t *testing.T) {
	ner := entities.NewGazetteer(map[string][]string{"PERSON": {"John Smith"}, "ORG": {"Acme"}})
	ex := New(DefaultRules(), ner)

	res := ex.Extract(context.Background(), "Thanks John Smith. John Smith, Acme will call.", "client_name")
	assert.Equal(t, []string{"John Smith", "John Smith"}, res.EntitiesFound)
	assert.Empty(t, res.KeywordsFound)
	assert.Equal(t, 2, res.ExtractionConfidence)
	assert.Equal(t, len(res.EntitiesFound)+len(res.KeywordsFound), res.ExtractionConfidence)
}

func TestExtract_DedupeWhenRuleAsks(t *testing.T) {
	rules := Rules{"client_name": {Entities: []string{"PERSON"}, DedupeEntities: true}}
	ner := entities.NewGazetteer(map[string][]string{"PERSON": {"John Smith"}})
	ex := New(rules, ner)

	res := ex.Extract(context.Background(), "John Smith, John Smith", "client_name")
	assert.Equal(t, []string{"John Smith"}, res.EntitiesFound)
	assert.Equal(t, 1, res.ExtractionConfidence)
}

func TestExtractAll_SingleEntityCall(t *testing.T) {
	ner := &countingNER{ents: []types.Entity{{Text: "Austin", Label: "GPE"}, {Text: "Jane", Label: "PERSON"}}}
	ex := New(DefaultRules(), ner)

	out := ex.ExtractAll(context.Background(), "Jane from Austin had an accident",
		[]string{"client_name", "location", "accident_details", "unknown_type"})

	assert.Equal(t, 1, ner.calls)
	assert.Equal(t, []string{"Jane"}, out["client_name"].EntitiesFound)
	assert.Equal(t, []string{"Austin"}, out["location"].EntitiesFound)
	assert.Equal(t, []string{"from"}, out["location"].KeywordsFound)
	assert.Equal(t, []string{"accident"}, out["accident_details"].KeywordsFound)
	assert.False(t, out["unknown_type"].Recognized)
}

func TestExtract_EntityServiceFailureDegrades(t *testing.T) {
	ner := &countingNER{err: &types.ServiceFailure{Service: "ner", Err: errors.New("down")}}
	ex := New(DefaultRules(), ner)
	var failures []string
	ex.OnServiceFailure(func(service string) { failures = append(failures, service) })

	res := ex.Extract(context.Background(), "my name is Jane", "client_name")
	assert.Empty(t, res.EntitiesFound)
	assert.Equal(t, []string{"name is", "my name"}, res.KeywordsFound)
	assert.True(t, res.Extracted)
	assert.Equal(t, []string{"ner"}, failures)
}
