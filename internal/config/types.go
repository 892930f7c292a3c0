// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"

	"modguard/pkg/collision"
)

type (
	// Config is the complete tool configuration.
	Config struct {
		// Exclude names packages removed from the inventory before
		// detection.
		Exclude []string `mapstructure:"exclude"`
		// SiteDirs lists installed-packages directories to inventory. Empty
		// means the conventional locations under the scanned project.
		SiteDirs []string `mapstructure:"site_dirs"`
		// MaxWorkers bounds parallel gathering and scanning.
		MaxWorkers int `mapstructure:"max_workers"`
		// DefaultSeverity labels conflicts with no observed usage.
		DefaultSeverity string `mapstructure:"default_severity"`
		// Versions maps package names to known published versions, used to
		// concretize "latest" version constraints.
		Versions map[string][]string `mapstructure:"versions"`

		UI UIConfig `mapstructure:"ui"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		Verbose bool `mapstructure:"verbose"`
	}
)

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		MaxWorkers:      8,
		DefaultSeverity: string(collision.DefaultSeverity),
	}
}

// Validate checks field constraints viper cannot express.
func (c *Config) Validate() error {
	if c.MaxWorkers < 1 {
		return fmt.Errorf("max_workers: must be at least 1, got %d", c.MaxWorkers)
	}
	if !collision.Severity(c.DefaultSeverity).IsValid() {
		return fmt.Errorf("default_severity: unknown severity %q", c.DefaultSeverity)
	}
	seen := make(map[string]bool)
	for i, name := range c.Exclude {
		if name == "" {
			return fmt.Errorf("exclude[%d]: empty package name", i)
		}
		if seen[name] {
			return fmt.Errorf("exclude[%d]: duplicate package %q", i, name)
		}
		seen[name] = true
	}
	return nil
}
