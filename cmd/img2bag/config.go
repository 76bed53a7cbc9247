package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig is the --config file. Keys match the long flag names.
type fileConfig struct {
	Directories     []string `yaml:"directories" toml:"directories"`
	Topics          []string `yaml:"topics" toml:"topics"`
	CameraInfoTopic string   `yaml:"camera-info-topic" toml:"camera-info-topic"`
	ImageSize       string   `yaml:"image-size" toml:"image-size"`
	Timestamp       int64    `yaml:"timestamp" toml:"timestamp"`
	Rate            float64  `yaml:"rate" toml:"rate"`
	RecursiveDirs   bool     `yaml:"recursive-dirs" toml:"recursive-dirs"`
	Output          string   `yaml:"output" toml:"output"`
	Format          string   `yaml:"format" toml:"format"`
}

// loadConfigFile reads YAML, JSON or TOML, picked by extension. JSON is
// parsed as YAML.
func loadConfigFile(path string) (*fileConfig, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc := &fileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(bs, fc)
	default:
		err = yaml.Unmarshal(bs, fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// splitList accepts "a,b", "[a, b]" or repeated flags.
func splitList(vs []string) []string {
	var out []string
	for _, v := range vs {
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(strings.Trim(strings.TrimSpace(p), "[]"))
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
