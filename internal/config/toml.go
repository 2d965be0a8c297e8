// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Inoue InoueConfig `toml:"inoue"`
}

// InoueConfig maps downloader settings. Unset keys stay nil.
type InoueConfig struct {
	Username       *string `toml:"username"`
	APIURL         *string `toml:"api-url"`
	UserAgent      *string `toml:"user-agent"`
	FilenameFormat *string `toml:"filename-format"`
	BaseURL        *string `toml:"base-url"`
	Timeout        *string `toml:"timeout"`
	LogLevel       *string `toml:"log-level"`
	History        *bool   `toml:"history"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	return cfg, nil
}
