// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

// Package config resolves runtime settings from defaults, an optional TOML or
// YAML file and the environment. Command line flags are applied last by the
// caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	EnvHost       = "OSCDBG_HOST"
	EnvPort       = "OSCDBG_PORT"
	EnvListenPort = "OSCDBG_LISTEN_PORT"
	EnvHistory    = "OSCDBG_HISTORY"
	EnvLogLevel   = "OSCDBG_LOG_LEVEL"
	EnvNoColor    = "OSCDBG_NO_COLOR"
)

type Config struct {
	Host       string `toml:"host" yaml:"host"`
	Port       int    `toml:"port" yaml:"port"`
	ListenPort int    `toml:"listen_port" yaml:"listen_port"`
	History    string `toml:"history" yaml:"history"`
	LogLevel   string `toml:"log_level" yaml:"log_level"`
	NoColor    bool   `toml:"no_color" yaml:"no_color"`
}

func Default() Config {
	return Config{
		Host:       "127.0.0.1",
		Port:       57110,
		ListenPort: 57120,
		History:    "~/.oscdbg_history",
		LogLevel:   "info",
	}
}

// Load returns the defaults overlaid with the file at path, when path is not
// empty, and then with the environment.
func Load(path string, lookupEnv func(string) (string, bool)) (Config, error) {
	c := Default()
	if path != "" {
		if err := c.LoadFile(path); err != nil {
			return c, err
		}
	}
	if err := c.ApplyEnv(lookupEnv); err != nil {
		return c, err
	}
	return c, nil
}

// LoadFile overlays the settings found in a file. The format is chosen by
// extension: .toml, .yaml or .yml.
func (c *Config) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(content), c); err != nil {
			return fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, c); err != nil {
			return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	return nil
}

// ApplyEnv overlays every OSCDBG_ variable that is set.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) error {
	if v, ok := lookupEnv(EnvHost); ok {
		c.Host = v
	}
	if v, ok := lookupEnv(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.Port = port
	}
	if v, ok := lookupEnv(EnvListenPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvListenPort, err)
		}
		c.ListenPort = port
	}
	if v, ok := lookupEnv(EnvHistory); ok {
		c.History = v
	}
	if v, ok := lookupEnv(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookupEnv(EnvNoColor); ok {
		noColor, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvNoColor, err)
		}
		c.NoColor = noColor
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("host must not be empty"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range 1-65535", c.Port))
	}
	if c.ListenPort < 1 || c.ListenPort > 65535 {
		errs = append(errs, fmt.Errorf("listen port %d is out of range 1-65535", c.ListenPort))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// HistoryPath returns History with a leading ~ replaced by the home
// directory. An empty result disables history.
func (c Config) HistoryPath() (string, error) {
	if c.History == "" || (c.History != "~" && !strings.HasPrefix(c.History, "~/")) {
		return c.History, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(c.History, "~")), nil
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("invalid log level %q: expected debug, info, warn or error", s)
	}
	return level, nil
}
