// Package config resolves grillo settings from defaults, a YAML file and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDBPath    = "tasks.db"
	DefaultExportDir = "exports"
	DefaultLogLevel  = "warn"

	EnvConfig   = "GRILLO_CONFIG"
	EnvDB       = "GRILLO_DB"
	EnvLogLevel = "GRILLO_LOG_LEVEL"

	projectFile = "grillo.yaml"
	appName     = "grillo"
	userFile    = "config.yaml"
)

type Config struct {
	DBPath    string `yaml:"db"`
	ExportDir string `yaml:"export_dir"`
	LogLevel  string `yaml:"log_level"`
	ASCII     bool   `yaml:"ascii"`

	// Path of the file the values were read from, empty when none was found.
	Source string `yaml:"-"`
}

func Default() Config {
	return Config{
		DBPath:    DefaultDBPath,
		ExportDir: DefaultExportDir,
		LogLevel:  DefaultLogLevel,
	}
}

// Load applies, in order: defaults, the first config file found, then
// GRILLO_DB and GRILLO_LOG_LEVEL. Flags are applied by the caller.
func Load() (Config, error) {
	cfg := Default()
	path, err := findConfigFile()
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("loading config file %s: %w", path, err)
		}
		cfg.Source = path
	}
	applyEnv(&cfg)
	return cfg, nil
}

// findConfigFile returns $GRILLO_CONFIG (which must exist), else ./grillo.yaml,
// else the user config file, else "".
func findConfigFile() (string, error) {
	if env := strings.TrimSpace(os.Getenv(EnvConfig)); env != "" {
		if _, err := os.Stat(env); err != nil {
			return "", fmt.Errorf("%s: %w", EnvConfig, err)
		}
		return env, nil
	}
	if _, err := os.Stat(projectFile); err == nil {
		return projectFile, nil
	}
	if dir, err := userConfigDir(); err == nil {
		p := filepath.Join(dir, appName, userFile)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

func userConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config"), nil
}

func loadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Decode(cfg, bytes.NewReader(b))
}

// Decode overlays YAML from r onto cfg. Unknown keys are rejected; empty
// values keep whatever cfg already holds.
func Decode(cfg *Config, r io.Reader) error {
	var fileCfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	if strings.TrimSpace(fileCfg.DBPath) != "" {
		cfg.DBPath = expandHome(strings.TrimSpace(fileCfg.DBPath))
	}
	if strings.TrimSpace(fileCfg.ExportDir) != "" {
		cfg.ExportDir = expandHome(strings.TrimSpace(fileCfg.ExportDir))
	}
	if strings.TrimSpace(fileCfg.LogLevel) != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(fileCfg.LogLevel))
	}
	if fileCfg.ASCII {
		cfg.ASCII = true
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDB)); v != "" {
		cfg.DBPath = expandHome(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
