package config

import (
	"fmt"
	"os"
)

// LoadConfig loads and parses a campaign configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if err := validateExperiment(&cfg.Experiment); err != nil {
		return fmt.Errorf("experiment validation failed: %w", err)
	}
	if err := validateDesign(&cfg.Design); err != nil {
		return fmt.Errorf("design validation failed: %w", err)
	}
	if err := validatePolicy(&cfg.Policy, cfg.Design.N); err != nil {
		return fmt.Errorf("policy validation failed: %w", err)
	}

	if cfg.Storage != nil && cfg.Storage.Path == "" {
		return fmt.Errorf("storage path cannot be empty")
	}

	return nil
}

// validateExperiment validates the experiment configuration
func validateExperiment(e *ExperimentConfig) error {
	if e.Name == "" {
		return fmt.Errorf("experiment name cannot be empty")
	}
	for i, s := range e.NoiseStd {
		if s < 0 {
			return fmt.Errorf("noise_std[%d] cannot be negative, got %f", i, s)
		}
	}
	return nil
}

// validateDesign validates the initial design configuration
func validateDesign(d *DesignConfig) error {
	validDesigns := map[string]bool{
		"random":          true,
		"latin_hypercube": true,
	}
	if !validDesigns[d.Name] {
		return fmt.Errorf("invalid design name: %s (must be random or latin_hypercube)", d.Name)
	}
	if d.N < 1 {
		return fmt.Errorf("design n must be positive, got %d", d.N)
	}
	return nil
}

// validatePolicy validates the policy configuration
func validatePolicy(p *PolicyConfig, designN int) error {
	if p.NMax < 1 {
		return fmt.Errorf("n_max must be positive, got %d", p.NMax)
	}
	if p.NMax <= designN {
		return fmt.Errorf("n_max (%d) must exceed the initial design size (%d)", p.NMax, designN)
	}
	if p.Acquisition == "" {
		return fmt.Errorf("acquisition cannot be empty")
	}
	if p.BatchSize < 0 {
		return fmt.Errorf("batch_size cannot be negative, got %d", p.BatchSize)
	}
	if p.NumRestarts < 0 {
		return fmt.Errorf("num_restarts cannot be negative, got %d", p.NumRestarts)
	}
	if p.RawSamples < 0 {
		return fmt.Errorf("raw_samples cannot be negative, got %d", p.RawSamples)
	}
	if p.TargetColumn < 0 {
		return fmt.Errorf("target_column cannot be negative, got %d", p.TargetColumn)
	}
	return nil
}
