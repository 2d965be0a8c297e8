// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

// LocalConfigName is looked up in the working directory before the XDG path.
const LocalConfigName = "inoue.toml"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultDBPath returns the default path for the history database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), "inoue", "inoue.db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "inoue", "config.toml")
}

// ResolveConfigPath picks the explicit path, then inoue.toml in the working
// directory, then the XDG default.
func ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if info, err := os.Stat(LocalConfigName); err == nil && !info.IsDir() {
		return LocalConfigName
	}
	return DefaultConfigPath()
}
