// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDir_EnvVar(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, "/custom/config/gatehouse", ConfigDir())
}

func TestConfigDir_Default(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/testuser")
	assert.Equal(t, "/home/testuser/.config/gatehouse", ConfigDir())
}

func TestConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	path := filepath.Join(base, "gatehouse", "config.yaml")

	assert.Empty(t, ConfigFile(), "no file yet")

	require.NoError(t, os.MkdirAll(path, 0o700))
	assert.Empty(t, ConfigFile(), "a directory is not a config file")

	require.NoError(t, os.Remove(path))
	require.NoError(t, os.WriteFile(path, []byte("http:\n  addr: \":3000\"\n"), 0o600))
	assert.Equal(t, path, ConfigFile())
}
