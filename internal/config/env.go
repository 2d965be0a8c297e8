package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvUsername       = "INOUE_USERNAME"
	EnvAPIURL         = "INOUE_API_URL"
	EnvUserAgent      = "INOUE_USER_AGENT"
	EnvFilenameFormat = "INOUE_FILENAME_FORMAT"
	EnvBaseURL        = "INOUE_BASE_URL"
)

// LoadDotEnv loads variables from a .env file without overriding the ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any INOUE_* variables that are set.
func ApplyEnv(cfg *FileConfig) {
	envString(EnvUsername, &cfg.Inoue.Username)
	envString(EnvAPIURL, &cfg.Inoue.APIURL)
	envString(EnvUserAgent, &cfg.Inoue.UserAgent)
	envString(EnvFilenameFormat, &cfg.Inoue.FilenameFormat)
	envString(EnvBaseURL, &cfg.Inoue.BaseURL)
}

func envString(name string, target **string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*target = &v
	}
}
