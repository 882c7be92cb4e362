package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a Settings record from a YAML file, overlaying
// it onto Default(). Configuration errors are fatal at startup; callers
// are expected to exit non-zero on error.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := Validate(s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks the bounds and required fields a Settings record must
// satisfy before the miner can start.
func Validate(s Settings) error {
	if len(s.PlotDirs) == 0 {
		return fmt.Errorf("config: plotDirs must be non-empty")
	}
	if s.URL == "" {
		return fmt.Errorf("config: url is required")
	}
	if s.HTTPTimeout < MinHTTPTimeout || s.HTTPTimeout > MaxHTTPTimeout {
		return fmt.Errorf("config: httpTimeout %s out of bounds [%s, %s]", s.HTTPTimeout, MinHTTPTimeout, MaxHTTPTimeout)
	}
	if s.MiningInfoInterval < MinMiningInfoInterval || s.MiningInfoInterval > MaxMiningInfoInterval {
		return fmt.Errorf("config: miningInfoInterval %s out of bounds [%s, %s]", s.MiningInfoInterval, MinMiningInfoInterval, MaxMiningInfoInterval)
	}
	if s.CPUBuffersPerDrive <= 0 {
		return fmt.Errorf("config: cpuBuffersPerDrive must be positive")
	}
	if s.BufferChunks <= 0 {
		return fmt.Errorf("config: bufferChunks must be positive")
	}
	return nil
}
