// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	c, err := Load("", env(nil))
	require.NoError(t, err)
	require.Equal(t, Default(), c)
	require.Equal(t, "127.0.0.1", c.Host)
	require.Equal(t, 57110, c.Port)
	require.Equal(t, 57120, c.ListenPort)
	require.NoError(t, c.Validate())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "toml",
			file:    "oscdbg.toml",
			content: "host = \"10.0.0.2\"\nport = 9000\nno_color = true\n",
		},
		{
			name:    "yaml",
			file:    "oscdbg.yaml",
			content: "host: 10.0.0.2\nport: 9000\nno_color: true\n",
		},
		{
			name:    "yml",
			file:    "oscdbg.YML",
			content: "host: 10.0.0.2\nport: 9000\nno_color: true\n",
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			c, err := Load(writeFile(t, testCase.file, testCase.content), env(nil))
			require.NoError(t, err)
			require.Equal(t, "10.0.0.2", c.Host)
			require.Equal(t, 9000, c.Port)
			require.True(t, c.NoColor)
			// untouched keys keep their defaults
			require.Equal(t, 57120, c.ListenPort)
			require.Equal(t, "info", c.LogLevel)
		})
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(writeFile(t, "oscdbg.json", "{}"), env(nil))
	require.ErrorContains(t, err, "unsupported config file extension")

	_, err = Load(writeFile(t, "bad.toml", "port = ="), env(nil))
	require.ErrorContains(t, err, "failed to parse TOML")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"), env(nil))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "oscdbg.toml", "host = \"10.0.0.2\"\nport = 9000\n")
	c, err := Load(path, env(map[string]string{
		EnvPort:       "9001",
		EnvListenPort: "9002",
		EnvLogLevel:   "debug",
		EnvNoColor:    "true",
		EnvHistory:    "",
	}))
	require.NoError(t, err)
	require.Equal(t, "10.0.0.2", c.Host)
	require.Equal(t, 9001, c.Port)
	require.Equal(t, 9002, c.ListenPort)
	require.Equal(t, "debug", c.LogLevel)
	require.True(t, c.NoColor)
	require.Equal(t, "", c.History)
}

func TestEnvErrors(t *testing.T) {
	t.Parallel()

	for _, key := range []string{EnvPort, EnvListenPort, EnvNoColor} {
		_, err := Load("", env(map[string]string{key: "lemon"}))
		require.ErrorContains(t, err, key)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	c := Default()
	c.Host = " "
	c.Port = 0
	c.ListenPort = 70000
	c.LogLevel = "loud"
	err := c.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "host must not be empty")
	require.ErrorContains(t, err, "port 0 is out of range")
	require.ErrorContains(t, err, "listen port 70000 is out of range")
	require.ErrorContains(t, err, "invalid log level")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)
}

func TestHistoryPath(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	c := Default()
	path, err := c.HistoryPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, ".oscdbg_history"), path)

	c.History = "/tmp/h"
	path, err = c.HistoryPath()
	require.NoError(t, err)
	require.Equal(t, "/tmp/h", path)

	c.History = ""
	path, err = c.HistoryPath()
	require.NoError(t, err)
	require.Equal(t, "", path)
}
