package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversation-validator-go/internal/extractor"
	"conversation-validator-go/internal/tone"
)

func TestLoad_OverridesSections(t *testing.T) {
	reg, err := Load("testdata/registry.yaml")
	require.NoError(t, err)

	assert.Equal(t, extractor.Rule{
		Entities:       []string{"PERSON"},
		Keywords:       []string{"my name is"},
		DedupeEntities: true,
	}, reg.Rules["client_name"])
	assert.Equal(t, []string{"injured", "hurt", "hospital"}, reg.Rules["injury"].Keywords)
	_, hasLocation := reg.Rules["location"]
	assert.False(t, hasLocation, "a rules section replaces the defaults")

	assert.Equal(t, tone.Profiles{"reassuring": {"don't worry", "we can help"}}, reg.Profiles)
	assert.Equal(t, Default().Gazetteer, reg.Gazetteer, "missing section keeps defaults")
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("tone_profile:\n  x: [a]\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("information_types:\n  x:\n    keyword: [a]\n"))
	assert.Error(t, err)
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("information_types: [unclosed"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	reg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), reg)

	_, err = LoadOrDefault("testdata/missing.yaml")
	assert.Error(t, err)
}
