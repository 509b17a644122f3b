package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a ledger directory.
const FileName = "saldo.yaml"

// Config represents the top-level saldo.yaml configuration.
type Config struct {
	Company CompanyConfig `yaml:"company"`
	Import  ImportConfig  `yaml:"import"`
	Log     LogConfig     `yaml:"log"`
	Git     GitConfig     `yaml:"git"`
}

// CompanyConfig identifies who owns the ledger.
type CompanyConfig struct {
	Name string `yaml:"name"`
}

// ImportConfig controls how statements are accepted.
type ImportConfig struct {
	// AllowPartialCommit lets a batch with flagged rows commit its clean rows.
	// An opening balance mismatch always blocks.
	AllowPartialCommit bool `yaml:"allow_partial_commit"`
	// ReferenceDate ("YYYY-MM-DD") pins the year used for year-less dates.
	// Empty means the day the import runs.
	ReferenceDate string `yaml:"reference_date,omitempty"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// GitConfig controls git history of the ledger directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a saldo.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.Import.Reference(time.Time{}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(companyName string) *Config {
	return &Config{
		Company: CompanyConfig{Name: companyName},
		Import:  ImportConfig{AllowPartialCommit: false},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Saldo",
			AuthorEmail: "saldo@cleared.dev",
		},
	}
}

// Reference returns the configured reference date, or now when none is set.
func (c ImportConfig) Reference(now time.Time) (time.Time, error) {
	if c.ReferenceDate == "" {
		return now, nil
	}
	t, err := time.Parse("2006-01-02", c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing reference_date %q: %w", c.ReferenceDate, err)
	}
	return t, nil
}
