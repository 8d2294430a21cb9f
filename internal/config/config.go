// Package config loads the toolkit configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the resolved settings. Command-line flags override these;
// the zero value of any field means "use the default".
type Config struct {
	// MultiwfnPath locates the Multiwfn executable.
	MultiwfnPath string `yaml:"multiwfn_path"`
	// ScriptDirs are searched for runnable example scripts.
	ScriptDirs []string `yaml:"script_dirs"`
	// Catalog is the sqlite database recording tool invocations.
	Catalog string `yaml:"catalog"`

	// File is the configuration file that was actually read; empty when
	// the defaults were used.
	File string `yaml:"-"`
}

// DefaultPath returns ~/.config/wfnkit/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "wfnkit", "config.yaml"), nil
}

// Load reads the configuration at path, or the default location when path
// is empty. A missing file yields the defaults; a malformed or unknown
// field is an error. Typos in field names are rejected rather than
// silently ignored.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		cfg.File = path
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.MultiwfnPath == "" {
		cfg.MultiwfnPath = defaultMultiwfnPath()
	}
	if len(cfg.ScriptDirs) == 0 {
		cfg.ScriptDirs = []string{
			filepath.Join("examples", "scripts"),
			filepath.Join("examples", "EDA"),
		}
	}
	if cfg.Catalog == "" {
		cfg.Catalog = defaultCatalogPath()
	}
}

// defaultMultiwfnPath prefers a Multiwfn binary in the working directory
// and otherwise leaves resolution to $PATH.
func defaultMultiwfnPath() string {
	abs, err := filepath.Abs("Multiwfn")
	if err != nil {
		return "Multiwfn"
	}
	if _, err := os.Stat(abs); err != nil {
		return "Multiwfn"
	}
	return abs
}

func defaultCatalogPath() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "wfnkit-catalog.db"
	}
	return filepath.Join(cache, "wfnkit", "catalog.db")
}
