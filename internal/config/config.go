// Package config loads and validates service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wallacegraphics/packslip/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// Output artifact formats.
const (
	OutputPDF = "pdf"
	OutputZIP = "zip"
)

// Config holds all configuration for packing slip generation.
type Config struct {
	Workers       int           `yaml:"workers"`       // concurrent renders per batch (0 = default)
	PoolSize      int           `yaml:"poolSize"`      // browser page pool size (0 = auto)
	RenderTimeout string        `yaml:"renderTimeout"` // per-slip timeout, e.g. "30s"
	Output        string        `yaml:"output"`        // "pdf" or "zip"
	Company       CompanyConfig `yaml:"company"`
}

// CompanyConfig is the printer identity shown on slips.
type CompanyConfig struct {
	Name        string `yaml:"name"`
	AddressLine string `yaml:"addressLine"`
	JobNumber   string `yaml:"jobNumber"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputPDF,
	}
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. Called automatically by Load, but
// available for consumers who construct Config manually.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers: must be non-negative, got %d", c.Workers)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("poolSize: must be non-negative, got %d", c.PoolSize)
	}
	if c.RenderTimeout != "" {
		d, err := time.ParseDuration(c.RenderTimeout)
		if err != nil {
			return fmt.Errorf("renderTimeout: invalid duration %q", c.RenderTimeout)
		}
		if d <= 0 {
			return fmt.Errorf("renderTimeout: must be positive, got %s", c.RenderTimeout)
		}
	}
	if c.Output != "" {
		switch strings.ToLower(c.Output) {
		case OutputPDF, OutputZIP:
		default:
			return fmt.Errorf("output: invalid value %q (must be pdf or zip)", c.Output)
		}
	}
	return nil
}

// Dump renders the effective configuration as YAML, for debug output.
func (c *Config) Dump() ([]byte, error) {
	return yamlutil.Marshal(c)
}

// Timeout parses RenderTimeout, returning zero when unset. Validate
// must have been called first.
func (c *Config) Timeout() time.Duration {
	if c.RenderTimeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.RenderTimeout)
	return d
}
