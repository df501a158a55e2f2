// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
)

// SurfaceConfig names one UI surface to watch.
type SurfaceConfig struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url" validate:"required,url"`
}

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via
// CLI flags.
type Config struct {
	// Surfaces and paths
	Surfaces           []SurfaceConfig `json:"surfaces,omitempty" validate:"dive"`
	SourceRoot         string          `json:"source_root,omitempty"`
	BaselineSourceRoot string          `json:"baseline_source_root,omitempty"`
	BaselineDir        string          `json:"baseline_dir,omitempty"`
	WorkDir            string          `json:"work_dir,omitempty"`
	ReportPath         string          `json:"report_path,omitempty"`
	KnowledgePath      string          `json:"knowledge_path,omitempty"`

	// Thresholds and limits.
	// DiffThreshold is the diff percent above which a surface is regressed;
	// PassThreshold is the percent at or below which a fix verifies.
	DiffThreshold      float64 `json:"diff_threshold,omitempty" validate:"gte=0,lte=100"`
	PassThreshold      float64 `json:"pass_threshold,omitempty" validate:"gte=0,lte=100"`
	RequireImprovement bool    `json:"require_improvement,omitempty"`
	// MaxAttemptsPerIssue caps candidate trials per issue; 0 tries every one.
	MaxAttemptsPerIssue int `json:"max_attempts_per_issue,omitempty" validate:"gte=0"`
	// Workers bounds surface-level parallelism; 0 or 1 is serial.
	Workers int `json:"workers,omitempty" validate:"gte=0"`
	// ModifiedWindow is a duration like "24h"; source files changed within
	// it score higher during localization.
	ModifiedWindow string `json:"modified_window,omitempty"`

	// Behavior
	APIKey      string `json:"api_key,omitempty"`      // Gemini API key
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL knowledge base (overrides knowledge_path)
	KeepBackups bool   `json:"keep_backups,omitempty"` // retain backups of committed fixes
	Verbose     bool   `json:"verbose,omitempty"`      // print detailed debug information
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values. Required fields
// are checked later, after CLI flags are merged.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.ModifiedWindow != "" {
		if _, err := time.ParseDuration(c.ModifiedWindow); err != nil {
			return fmt.Errorf("config error: 'modified_window' is not a duration: %w", err)
		}
	}
	if c.SourceRoot != "" {
		if info, err := os.Stat(c.SourceRoot); err != nil || !info.IsDir() {
			return fmt.Errorf("config error: source root not found: %s", c.SourceRoot)
		}
	}
	if c.BaselineSourceRoot != "" {
		if info, err := os.Stat(c.BaselineSourceRoot); err != nil || !info.IsDir() {
			return fmt.Errorf("config error: baseline source root not found: %s", c.BaselineSourceRoot)
		}
	}
	return nil
}

// ModifiedWindowDuration parses the modified window, zero when unset.
func (c *Config) ModifiedWindowDuration() time.Duration {
	if c.ModifiedWindow == "" {
		return 0
	}
	d, err := time.ParseDuration(c.ModifiedWindow)
	if err != nil {
		return 0
	}
	return d
}

// MergeWithDefaults returns a new Config with unset fields filled from
// defaults. This is used to apply config file values as defaults for CLI
// flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if len(result.Surfaces) == 0 {
		result.Surfaces = defaults.Surfaces
	}
	if result.SourceRoot == "" {
		result.SourceRoot = defaults.SourceRoot
	}
	if result.BaselineSourceRoot == "" {
		result.BaselineSourceRoot = defaults.BaselineSourceRoot
	}
	if result.BaselineDir == "" {
		result.BaselineDir = defaults.BaselineDir
	}
	if result.WorkDir == "" {
		result.WorkDir = defaults.WorkDir
	}
	if result.ReportPath == "" {
		result.ReportPath = defaults.ReportPath
	}
	if result.KnowledgePath == "" {
		result.KnowledgePath = defaults.KnowledgePath
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.ModifiedWindow == "" {
		result.ModifiedWindow = defaults.ModifiedWindow
	}

	if result.DiffThreshold == 0 {
		result.DiffThreshold = defaults.DiffThreshold
	}
	if result.PassThreshold == 0 {
		result.PassThreshold = defaults.PassThreshold
	}
	if result.MaxAttemptsPerIssue == 0 {
		result.MaxAttemptsPerIssue = defaults.MaxAttemptsPerIssue
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}
