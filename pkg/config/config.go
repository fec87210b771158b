// Package config loads the inlay.yaml project configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the resolved project configuration.
type Config struct {
	// CrateRoot is the crate entry file the scan starts from.
	CrateRoot string

	// Features are the cargo features considered enabled when
	// following #[cfg(feature = "...")] gated modules.
	Features []string

	// Output is the path of the generated C++ translation unit.
	Output string

	// Store is the metadata database path, ":memory:" for none.
	Store string

	// IncludeHidden includes hidden files when scanning directories.
	IncludeHidden bool

	// MaxFileSize caps the size of scanned files (0 = no limit).
	MaxFileSize int64
}

// yamlConfig mirrors the on-disk layout.
type yamlConfig struct {
	Crate struct {
		Root     string   `yaml:"root"`
		Features []string `yaml:"features"`
	} `yaml:"crate"`
	Output struct {
		Cpp   string `yaml:"cpp"`
		Store string `yaml:"store"`
	} `yaml:"output"`
	Scan struct {
		IncludeHidden bool  `yaml:"include_hidden"`
		MaxFileSize   int64 `yaml:"max_file_size"`
	} `yaml:"scan"`
}

// Default returns the configuration used when no inlay.yaml exists.
func Default() *Config {
	return &Config{
		CrateRoot: "src/lib.rs",
		Output:    "cpp_closures.cpp",
		Store:     ":memory:",
	}
}

// Load parses configuration from YAML bytes, filling unset fields
// with defaults.
func Load(data []byte) (*Config, error) {
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := Default()
	if y.Crate.Root != "" {
		cfg.CrateRoot = y.Crate.Root
	}
	cfg.Features = y.Crate.Features
	if y.Output.Cpp != "" {
		cfg.Output = y.Output.Cpp
	}
	if y.Output.Store != "" {
		cfg.Store = y.Output.Store
	}
	cfg.IncludeHidden = y.Scan.IncludeHidden
	cfg.MaxFileSize = y.Scan.MaxFileSize
	return cfg, nil
}

// LoadFile loads configuration from a YAML file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return Load(data)
}

// FeatureSet returns the enabled features as a lookup set.
func (c *Config) FeatureSet() map[string]bool {
	set := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		set[f] = true
	}
	return set
}
