// Package config loads the optional CLI configuration file. Both YAML and
// JSON with comments are accepted.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Style     string   `yaml:"style"`
	OutDir    string   `yaml:"out-dir"`
	LoadPaths []string `yaml:"load-paths"`
	Indented  bool     `yaml:"indented"`
	Seed      *int64   `yaml:"seed"`
}

// Load reads the config file at path. Relative directories in it are taken
// relative to the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	dir := filepath.Dir(path)

	if cfg.OutDir != "" && !filepath.IsAbs(cfg.OutDir) {
		cfg.OutDir = filepath.Join(dir, cfg.OutDir)
	}
	for i, p := range cfg.LoadPaths {
		if !filepath.IsAbs(p) {
			cfg.LoadPaths[i] = filepath.Join(dir, p)
		}
	}

	return cfg, nil
}

// Parse decodes data. An ext of ".json" or ".jsonc" strips comments and
// trailing commas first.
func Parse(data []byte, ext string) (*Config, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
