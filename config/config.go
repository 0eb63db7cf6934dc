package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the treewalk tool.
type Config struct {
	Walk     WalkConfig     `yaml:"walk"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// WalkConfig holds the default traversal options applied by the CLI.
// Flags override individual fields per invocation.
type WalkConfig struct {
	// MaxDepth limits descent; -1 means unlimited, 0 visits only the
	// root.
	MaxDepth       int      `yaml:"max_depth"`
	IncludeFiles   bool     `yaml:"include_files"`
	IncludeDirs    bool     `yaml:"include_dirs"`
	FollowSymlinks bool     `yaml:"follow_symlinks"`
	Exts           []string `yaml:"exts"`
	Match          []string `yaml:"match"`
	Skip           []string `yaml:"skip"`
}

// SnapshotConfig holds snapshot storage configuration.
type SnapshotConfig struct {
	// Keep bounds how many snapshots are retained per root; 0 keeps
	// all of them.
	Keep int `yaml:"keep"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Walk: WalkConfig{
			MaxDepth:     -1,
			IncludeFiles: true,
			IncludeDirs:  true,
			Skip:         []string{"**/.git", "**/node_modules", "**/vendor"},
		},
		Snapshot: SnapshotConfig{
			Keep: 0,
		},
		Logging: LoggingConfig{
			Level: "info",
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

// LoadFromDir loads configuration from a directory (looks for
// treewalk.yaml, then .treewalk/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "treewalk.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".treewalk", "config.yaml")
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

// SnapshotDBPath returns the path to the snapshot database.
func SnapshotDBPath(dir string) string {
	return filepath.Join(dir, ".treewalk", "snapshots.db")
}

// EnsureStateDir ensures the .treewalk directory exists.
func EnsureStateDir(dir string) error {
	return os.MkdirAll(filepath.Join(dir, ".treewalk"), 0755)
}
