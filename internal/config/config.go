package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Defaults when a field is left zero.
const (
	DefaultServiceURL      = "http://127.0.0.1:8000/api"
	DefaultTimeout         = 30 * time.Second
	DefaultDebounce        = 800 * time.Millisecond
	DefaultStitchMaxPoints = 20000
	DefaultOutputDir       = "sigscope-out"
	DefaultSurfaceAddr     = "127.0.0.1:8088"
)

// ProjectConfig holds project-level settings loaded from sigscope.yml.
type ProjectConfig struct {
	ServiceURL      string                   `yaml:"serviceURL,omitempty"`
	Timeout         time.Duration            `yaml:"timeout,omitempty"`
	Debounce        time.Duration            `yaml:"debounce,omitempty"`
	StitchMaxPoints int                      `yaml:"stitchMaxPoints,omitempty"`
	OutputDir       string                   `yaml:"outputDir,omitempty"`
	SurfaceAddr     string                   `yaml:"surfaceAddr,omitempty"`
	Verbose         bool                     `yaml:"verbose,omitempty"`
	Charts          map[string]ChartOverride `yaml:"charts,omitempty"`
}

// ChartOverride adjusts one built-in chart definition by id.
type ChartOverride struct {
	Title           string `yaml:"title,omitempty"`
	SubKey          string `yaml:"subKey,omitempty"`
	StitchMaxPoints int    `yaml:"stitchMaxPoints,omitempty"`
	Disabled        bool   `yaml:"disabled,omitempty"`
}

// Load attempts to read sigscope.yml or sigscope.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"sigscope.yml", "sigscope.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// Validate rejects negative durations and point caps.
func (c *ProjectConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative")
	}
	if c.StitchMaxPoints < 0 {
		return fmt.Errorf("stitchMaxPoints must not be negative")
	}
	for id, o := range c.Charts {
		if o.StitchMaxPoints < 0 {
			return fmt.Errorf("charts.%s.stitchMaxPoints must not be negative", id)
		}
	}
	return nil
}

// Defaults returns a copy of c with every zero field set to its default.
func (c ProjectConfig) Defaults() ProjectConfig {
	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Debounce == 0 {
		c.Debounce = DefaultDebounce
	}
	if c.StitchMaxPoints == 0 {
		c.StitchMaxPoints = DefaultStitchMaxPoints
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.SurfaceAddr == "" {
		c.SurfaceAddr = DefaultSurfaceAddr
	}
	return c
}
