package recommend

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadInput reads a one-shot allocation request from a YAML file: session
// facts, the practice code catalog, and optional payer preferences.
func LoadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var in Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	if in.Session.DurationMinutes <= 0 {
		return nil, fmt.Errorf("session duration_minutes must be positive")
	}
	if in.Session.Payer == "" {
		return nil, fmt.Errorf("session payer is required")
	}
	return &in, nil
}
