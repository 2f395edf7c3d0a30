package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Settings holds all tunables for the archive service and CLI.
type Settings struct {
	MetadataCacheSize    int      `yaml:"metadata_cache_size"`    // scan cache capacity (default: 50)
	DetailsCacheSize     int      `yaml:"details_cache_size"`     // page-details cache capacity (default: 50)
	Encodings            []string `yaml:"encodings"`              // candidate ZIP filename encodings, probe order
	PreferredEncoding    string   `yaml:"preferred_encoding"`     // tried before the candidates when set
	BsdtarPath           string   `yaml:"bsdtar_path"`            // CBR fallback binary (default: "bsdtar")
	BsdtarTimeoutSeconds int      `yaml:"bsdtar_timeout_seconds"` // per-invocation fallback timeout (default: 30)
	SevenZip             bool     `yaml:"seven_zip"`              // enable CB7 support (default: true)
	Workers              int      `yaml:"workers"`                // scan command parallelism (default: runtime.NumCPU())
}

// Default returns the settings used when no config file is given.
func Default() Settings {
	return Settings{
		MetadataCacheSize:    50,
		DetailsCacheSize:     50,
		BsdtarPath:           "bsdtar",
		BsdtarTimeoutSeconds: 30,
		SevenZip:             true,
		Workers:              runtime.NumCPU(),
	}
}

// Load reads a YAML settings file over the defaults.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s, nil
}
