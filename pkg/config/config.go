// Package config loads YAML configuration files, expanding ${ENV}
// references in the raw text before decoding.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator lets a config type check itself after decoding.
type Validator interface {
	Validate() error
}

// Load reads filename, expands environment variable references, and
// decodes the result into target. If target implements Validator, the
// decoded value is validated before Load returns.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", filename, err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("config: parse %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config: validate %s: %w", filename, err)
		}
	}
	return nil
}
