package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("expected missing file to be fine: %v", err)
	}
	if cfg.Inoue.Username != nil {
		t.Fatalf("expected empty config")
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[inoue]
username = "alice"
api-url = "https://replays.test/%s"
filename-format = "%Y-%m-%d_%o.ttrm"
timeout = "30s"
history = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Inoue.Username == nil || *cfg.Inoue.Username != "alice" {
		t.Fatalf("unexpected username: %v", cfg.Inoue.Username)
	}
	if cfg.Inoue.APIURL == nil || *cfg.Inoue.APIURL != "https://replays.test/%s" {
		t.Fatalf("unexpected api url")
	}
	if cfg.Inoue.Timeout == nil || *cfg.Inoue.Timeout != "30s" {
		t.Fatalf("unexpected timeout")
	}
	if cfg.Inoue.History == nil || *cfg.Inoue.History {
		t.Fatalf("expected history=false")
	}
	if cfg.Inoue.UserAgent != nil {
		t.Fatalf("expected unset user agent to stay nil")
	}
}

func TestLoadConfigRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"syntax.toml":  "[inoue\nusername=",
		"unknown.toml": "[inoue]\nusernam = \"typo\"\n",
	} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected error for %s", name)
		}
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	file := "file-user"
	cfg := FileConfig{Inoue: InoueConfig{Username: &file}}
	t.Setenv(EnvUsername, "env-user")
	t.Setenv(EnvAPIURL, "")
	ApplyEnv(&cfg)
	if *cfg.Inoue.Username != "env-user" {
		t.Fatalf("expected env override, got %q", *cfg.Inoue.Username)
	}
	if cfg.Inoue.APIURL != nil {
		t.Fatalf("expected empty env var to be ignored")
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("INOUE_USER_AGENT=dotenv-agent\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvUserAgent, "")
	if err := os.Unsetenv(EnvUserAgent); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv(EnvUserAgent); got != "dotenv-agent" {
		t.Fatalf("expected dotenv value, got %q", got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing .env to be fine: %v", err)
	}
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	{
		wd, err := os.Getwd()
		if err != nil {
			t.Fatalf("getwd: %v", err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("chdir: %v", err)
		}
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	if got := ResolveConfigPath("explicit.toml"); got != "explicit.toml" {
		t.Fatalf("expected explicit path, got %q", got)
	}
	if got := ResolveConfigPath(""); got != filepath.Join(dir, "xdg", "inoue", "config.toml") {
		t.Fatalf("expected XDG path, got %q", got)
	}
	if err := os.WriteFile(filepath.Join(dir, LocalConfigName), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := ResolveConfigPath(""); got != LocalConfigName {
		t.Fatalf("expected local config, got %q", got)
	}
}
