package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"flowgen/internal/domain"
)

// Config holds all configuration for the flowgen tool.
type Config struct {
	Scan    ScanConfig    `yaml:"scan"`
	Remote  RemoteConfig  `yaml:"remote"`
	Render  RenderConfig  `yaml:"render"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig controls which files become components.
type ScanConfig struct {
	Extensions   []string `yaml:"extensions"`
	ExcludeDirs  []string `yaml:"exclude_dirs"`  // doublestar patterns
	ExcludeFiles []string `yaml:"exclude_files"` // doublestar patterns
	BasePath     string   `yaml:"base_path"`
}

// RemoteConfig identifies a GitHub repository to scan.
type RemoteConfig struct {
	Owner          string `yaml:"owner"`
	Repo           string `yaml:"repo"`
	Ref            string `yaml:"ref"`
	Path           string `yaml:"path"`
	TokenEnv       string `yaml:"token_env"` // Environment variable holding the token
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	CacheSize      int    `yaml:"cache_size"`
}

// RenderConfig holds diagram output configuration.
type RenderConfig struct {
	Direction string `yaml:"direction"` // "TD", "LR", "BT", "RL"
	Output    string `yaml:"output"`
	Heading   string `yaml:"heading"`
}

// StoreConfig controls forest persistence.
type StoreConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Extensions:   []string{"js", "jsx", "ts", "tsx"},
			ExcludeDirs:  []string{"**/node_modules", "**/.git", "**/dist", "**/build", "**/.next", "**/coverage", "**/vendor"},
			ExcludeFiles: []string{"**/package-lock.json", "**/yarn.lock", "**/pnpm-lock.yaml", "**/.env", "**/.env.*"},
		},
		Remote: RemoteConfig{
			TokenEnv:       "GITHUB_TOKEN",
			BaseURL:        "https://api.github.com",
			TimeoutSeconds: 30,
			CacheSize:      512,
		},
		Render: RenderConfig{
			Direction: "TD",
			Output:    "component-flow.md",
			Heading:   "# Component Flow",
		},
		Store: StoreConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for flowgen.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "flowgen.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".flowgen", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings no command can run with.
func (c *Config) Validate() error {
	hasExt := false
	for _, ext := range c.Scan.Extensions {
		if strings.TrimSpace(ext) != "" {
			hasExt = true
			break
		}
	}
	if !hasExt {
		return &domain.ConfigurationError{Field: "scan.extensions", Reason: "at least one extension is required"}
	}
	if !domain.ValidDirection(c.Render.Direction) {
		return &domain.ConfigurationError{Field: "render.direction", Reason: "unknown direction " + c.Render.Direction}
	}
	if c.Remote.TimeoutSeconds < 0 {
		return &domain.ConfigurationError{Field: "remote.timeout_seconds", Reason: "must not be negative"}
	}
	return nil
}

// ForestDBPath returns the path to the forest database.
func ForestDBPath(dir string) string {
	return filepath.Join(dir, ".flowgen", "forest.db")
}

// EnsureFlowDir ensures the .flowgen directory exists.
func EnsureFlowDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".flowgen"), 0755)
}
