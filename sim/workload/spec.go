package workload

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadSynthesisSpec reads and parses a YAML synthesis specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected. The returned
// config is already validated, so a non-nil result is ready for Synthesize.
func LoadSynthesisSpec(path string) (*SynthesisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading synthesis spec: %w", err)
	}
	var cfg SynthesisConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing synthesis spec: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid synthesis spec: %w", err)
	}
	return &cfg, nil
}
