// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package xdg provides XDG Base Directory paths for gatehouse.
package xdg

import (
	"os"
	"path/filepath"
)

const (
	appName        = "gatehouse"
	configFileName = "config.yaml"
)

// ConfigDir returns the XDG config directory for gatehouse.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns ConfigDir()/config.yaml if it is a regular file, or ""
// when there is none.
func ConfigFile() string {
	path := filepath.Join(ConfigDir(), configFileName)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return ""
	}
	return path
}
