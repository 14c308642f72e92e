package lexicon

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries tunable parser and resolver settings. Zero values fall
// back to the defaults from DefaultConfig.
type Config struct {
	FuzzyThreshold       float64           `yaml:"fuzzy_threshold"`        // minimum similarity for a fuzzy candidate
	MaxCandidates        int               `yaml:"max_candidates"`         // cap on disambiguation candidates
	AutocorrectThreshold float64           `yaml:"autocorrect_threshold"`  // confidence above which a single fuzzy hit is offered as a correction; weaker hits stay unresolved
	Separators           []string          `yaml:"separators,omitempty"`   // multi-command separators override
	VerbSynonyms         map[string]string `yaml:"verb_synonyms,omitempty"` // extra alias -> canonical verb
}

// DefaultConfig returns the stock parser tuning.
func DefaultConfig() Config {
	return Config{
		FuzzyThreshold:       0.6,
		MaxCandidates:        5,
		AutocorrectThreshold: 0.75,
	}
}

// LoadConfig reads tuning overrides from a YAML file. Missing keys keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("lexicon config: %w", err)
	}
	if cfg.FuzzyThreshold <= 0 {
		cfg.FuzzyThreshold = DefaultConfig().FuzzyThreshold
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultConfig().MaxCandidates
	}
	if cfg.AutocorrectThreshold <= 0 {
		cfg.AutocorrectThreshold = DefaultConfig().AutocorrectThreshold
	}
	return cfg, nil
}

// ApplyConfig merges tuning overrides into the lexicon.
func (l *Lexicon) ApplyConfig(cfg Config) {
	if len(cfg.Separators) > 0 {
		l.Separators = cfg.Separators
	}
	for alias, verb := range cfg.VerbSynonyms {
		if _, ok := l.Verbs[verb]; ok {
			l.VerbAliases[alias] = verb
		}
	}
}
