package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the configuration file name looked up by ResolvePath.
const FileName = "stagewright.yaml"

// ErrNotFound is returned by ResolvePath when no candidate exists.
var ErrNotFound = errors.New("config: no configuration file found")

// Candidates returns the configuration search order:
// $XDG_CONFIG_HOME/stagewright/stagewright.yaml (or
// ~/.config/stagewright/stagewright.yaml), then ./stagewright.yaml.
func Candidates() []string {
	var candidates []string

	if xdg, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "stagewright", FileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "stagewright", FileName))
	}

	return append(candidates, FileName)
}

// ResolvePath returns the first existing candidate.
func ResolvePath() (string, error) {
	candidates := Candidates()
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w (searched: %v)", ErrNotFound, candidates)
}

// LoadOrDefault loads path, or the resolved path when empty. When path is
// empty and nothing is found it starts from an empty version "1" config.
// Overrides run before defaults are applied, so derived paths follow them.
// The result is validated.
func LoadOrDefault(path string, overrides ...func(*Config)) (*Config, string, error) {
	var cfg *Config
	if path == "" {
		resolved, err := ResolvePath()
		switch {
		case errors.Is(err, ErrNotFound):
			cfg = &Config{Version: CurrentVersion}
		case err != nil:
			return nil, "", err
		default:
			path = resolved
		}
	}

	if cfg == nil {
		loaded, err := Load(path)
		if err != nil {
			return nil, path, err
		}
		cfg = loaded
	}

	for _, override := range overrides {
		override(cfg)
	}
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
