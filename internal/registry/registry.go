// Package registry loads the extraction rules, tone profiles and offline
// gazetteer that the analyzers are built from.
package registry

import (
	"fmt"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"conversation-validator-go/internal/extractor"
	"conversation-validator-go/internal/tone"
)

// Registry is read-only once loaded and safe to share between goroutines.
type Registry struct {
	Rules     extractor.Rules     `mapstructure:"information_types"`
	Profiles  tone.Profiles       `mapstructure:"tone_profiles"`
	Gazetteer map[string][]string `mapstructure:"gazetteer"`
}

// Default returns the built-in registry.
func Default() *Registry {
	return &Registry{
		Rules:    extractor.DefaultRules(),
		Profiles: tone.DefaultProfiles(),
		Gazetteer: map[string][]string{
			"PERSON": {"John Smith"},
			"GPE":    {"San Francisco", "California"},
		},
	}
}

// Load reads a registry file. Sections missing from the file keep their
// built-in defaults; unknown keys are rejected.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Registry, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	var decoded Registry
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &decoded,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	reg := Default()
	if decoded.Rules != nil {
		reg.Rules = decoded.Rules
	}
	if decoded.Profiles != nil {
		reg.Profiles = decoded.Profiles
	}
	if decoded.Gazetteer != nil {
		reg.Gazetteer = decoded.Gazetteer
	}
	return reg, nil
}

// LoadOrDefault loads path, or returns Default when path is empty.
func LoadOrDefault(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
