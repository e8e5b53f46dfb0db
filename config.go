package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dipolesim/dipoleserv/source"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen    string        `yaml:"listen"`
	Verbose   bool          `yaml:"verbose"`
	StaticDir string        `yaml:"static_dir"`
	Source    source.Config `yaml:"source"`

	// how long static dataset responses are cached, server and client side
	DatasetTTL time.Duration `yaml:"dataset_ttl"`
	// in-process solution vector cache
	SolutionTTL time.Duration `yaml:"solution_ttl"`
	TopomapSize int           `yaml:"topomap_size"`
	// grid spacing of the candidate positions, in the units of source_locs.csv
	HullSpacing float64 `yaml:"hull_spacing"`
}

func defaultConfig() Config {
	return Config{
		Listen:      ":8081",
		StaticDir:   "./web/dist",
		Source:      source.Config{Kind: "dir", Dir: "doc/_data"},
		DatasetTTL:  24 * time.Hour,
		SolutionTTL: 10 * time.Minute,
		TopomapSize: 400,
		HullSpacing: 0.02,
	}
}

// loadConfig reads a YAML config on top of the defaults. An empty path means defaults only.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.TopomapSize <= 0 || cfg.TopomapSize > maxTopomapSize {
		return cfg, fmt.Errorf("topomap_size must be in (0, %d]", maxTopomapSize)
	}
	if cfg.HullSpacing <= 0 {
		return cfg, fmt.Errorf("hull_spacing must be positive")
	}
	return cfg, nil
}
