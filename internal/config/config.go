// Package config loads the planc.yaml project manifest.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProjectConfigFile is the name of the project-level manifest.
const ProjectConfigFile = "planc.yaml"

// Config is the complete project configuration.
type Config struct {
	Sources SourcesConfig `yaml:"sources"`
	Cache   CacheConfig   `yaml:"cache"`
	Watch   WatchConfig   `yaml:"watch"`
	Output  OutputConfig  `yaml:"output"`
}

// SourcesConfig selects the planning files the driver operates on.
type SourcesConfig struct {
	// Include is a list of doublestar glob patterns, relative to the
	// manifest's directory (default: all .anml and .hddl files).
	Include []string `yaml:"include"`
	// Exclude patterns are applied after Include.
	Exclude []string `yaml:"exclude"`
}

// CacheConfig configures the on-disk compile-result cache.
type CacheConfig struct {
	// Enabled toggles the cache (default: true).
	Enabled bool `yaml:"enabled"`
	// Path is the bolt database location, relative to the manifest's
	// directory (default: .planc/cache.db).
	Path string `yaml:"path"`
}

// WatchConfig tunes the file watcher.
type WatchConfig struct {
	// Debounce is how long to coalesce change bursts before recompiling
	// (default: 300ms).
	Debounce time.Duration `yaml:"debounce"`
}

// OutputConfig controls diagnostic rendering.
type OutputConfig struct {
	// Explain renders caret snippets under each diagnostic.
	Explain bool `yaml:"explain"`
	// MaxErrors truncates output after this many diagnostics per file
	// (0 = unlimited).
	MaxErrors int `yaml:"max_errors"`
}

// DefaultConfig returns a Config with the defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Sources: SourcesConfig{
			Include: []string{"**/*.anml", "**/*.hddl"},
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(".planc", "cache.db"),
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Sources.Include) == 0 {
		return fmt.Errorf("sources.include must list at least one pattern")
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required when the cache is enabled")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	if c.Output.MaxErrors < 0 {
		return fmt.Errorf("output.max_errors must not be negative")
	}
	return nil
}

// LoadFromFile loads the manifest at path on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Find searches for planc.yaml in dir and its parents. It returns the
// manifest path and the project root, or empty strings when none exists.
func Find(dir string) (string, string) {
	for {
		p := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p, dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ""
		}
		dir = parent
	}
}

// Load resolves the project configuration for the working directory:
// the nearest manifest when one exists, the defaults otherwise. The
// returned root is the directory globs and cache paths resolve against.
func Load(cwd string) (*Config, string, error) {
	path, root := Find(cwd)
	if path == "" {
		return DefaultConfig(), cwd, nil
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, root, nil
}
