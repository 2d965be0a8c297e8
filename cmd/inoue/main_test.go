package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/inoue/internal/config"
	"github.com/verte-zerg/inoue/internal/errs"
	"github.com/verte-zerg/inoue/internal/model"
	"github.com/verte-zerg/inoue/internal/store"
)

// isolate runs the test in a temp working directory with XDG paths and INOUE_*
// variables pointing nowhere.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
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
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg-config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg-data"))
	for _, name := range []string{
		config.EnvUsername,
		config.EnvAPIURL,
		config.EnvUserAgent,
		config.EnvFilenameFormat,
		config.EnvBaseURL,
	} {
		t.Setenv(name, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveConfigPrecedence(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, config.LocalConfigName), `[inoue]
username = "file-user"
api-url = "https://replays.test/%s"
filename-format = "%Y_%o.ttrm"
timeout = "5s"
`)
	t.Setenv(config.EnvUsername, "env-user")

	cmd := newRootCmd()
	if err := cmd.ParseFlags([]string{"--filename-format", "%r.ttrm"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Username != "env-user" {
		t.Fatalf("expected env to override file, got %q", cfg.Username)
	}
	if cfg.APIURLTemplate != "https://replays.test/%s" {
		t.Fatalf("expected file api url, got %q", cfg.APIURLTemplate)
	}
	if cfg.FilenameFormat != "%r.ttrm" {
		t.Fatalf("expected flag to override file, got %q", cfg.FilenameFormat)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("expected 5s timeout, got %v", cfg.Timeout)
	}
	if cfg.UserAgent != defaultUserAgent {
		t.Fatalf("expected default user agent, got %q", cfg.UserAgent)
	}
	if !cfg.History {
		t.Fatal("expected history enabled by default")
	}

	cmd = newRootCmd()
	if err := cmd.ParseFlags([]string{"--username", "flag-user", "--no-history"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err = resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Username != "flag-user" {
		t.Fatalf("expected flag to override env, got %q", cfg.Username)
	}
	if cfg.History {
		t.Fatal("expected --no-history to disable history")
	}
}

func TestResolveConfigDotEnv(t *testing.T) {
	dir := isolate(t)
	if err := os.Unsetenv(config.EnvUsername); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	if err := os.Unsetenv(config.EnvAPIURL); err != nil {
		t.Fatalf("unsetenv: %v", err)
	}
	writeFile(t, filepath.Join(dir, dotEnvName), "INOUE_USERNAME=dot-user\nINOUE_API_URL=https://dot.test/%s\n")

	cmd := newRootCmd()
	cfg, err := resolveConfig(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Username != "dot-user" || cfg.APIURLTemplate != "https://dot.test/%s" {
		t.Fatalf("expected .env values, got %+v", cfg)
	}
}

func TestResolveConfigBadFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, config.LocalConfigName), "[inoue]\nusername = \n")

	_, err := resolveConfig(newRootCmd())
	if !errs.Is(err, errs.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := model.Config{
		Username:       "alice",
		APIURLTemplate: "https://replays.test/%s",
		FilenameFormat: "%r.ttrm",
		Timeout:        time.Second,
	}
	if err := validateConfig(valid); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}

	cases := map[string]func(*model.Config){
		"empty username":   func(c *model.Config) { c.Username = "" },
		"missing %s":       func(c *model.Config) { c.APIURLTemplate = "https://replays.test/" },
		"two %s":           func(c *model.Config) { c.APIURLTemplate = "https://replays.test/%s/%s" },
		"empty format":     func(c *model.Config) { c.FilenameFormat = "" },
		"negative timeout": func(c *model.Config) { c.Timeout = -time.Second },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		err := validateConfig(cfg)
		if !errs.Is(err, errs.KindConfiguration) {
			t.Fatalf("%s: expected configuration error, got %v", name, err)
		}
	}
}

func TestRenderPreview(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	got, err := renderPreview("%Y-%m-%d_%o_%r.ttrm", "abc", "bob", "2024-03-05T18:04:59.000Z", "alice", now)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "2024-03-05_bob_abc.ttrm" {
		t.Fatalf("unexpected preview %q", got)
	}

	got, err = renderPreview("%Y%m%d %U", "abc", "bob", "", "alice", now)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "20240102 ALICE" {
		t.Fatalf("expected current time fallback, got %q", got)
	}

	if _, err := renderPreview("%q", "abc", "bob", "", "alice", now); !errs.Is(err, errs.KindConfiguration) {
		t.Fatalf("expected template error, got %v", err)
	}
	if _, err := renderPreview("%r", "abc", "bob", "yesterday", "alice", now); err == nil {
		t.Fatal("expected bad --played-at to fail")
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inoue", "config.toml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if cfg.Inoue.Username != nil {
		t.Fatal("expected every key commented out")
	}

	writeFile(t, path, "[inoue]\nusername = \"kept\"\n")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	cfg, err = config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Inoue.Username == nil || *cfg.Inoue.Username != "kept" {
		t.Fatal("expected existing config to be left alone")
	}
}

func newTetrioServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/alice", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"user":{"_id":"u1","username":"alice"}}}`)
	})
	mux.HandleFunc("/api/streams/league_userrecent_u1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"records":[`+
			`{"replayid":"r1","ts":"2024-03-05T18:04:59.000Z","endcontext":[{"user":{"username":"alice"}},{"user":{"username":"bob"}}]},`+
			`{"replayid":"r2","ts":"not a time","endcontext":[]}`+
			`]}}`)
	})
	mux.HandleFunc("/replay/r1", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "replay-bytes")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunDownloadsIntoDirectory(t *testing.T) {
	dir := isolate(t)
	target := filepath.Join(dir, "replays")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	srv := newTetrioServer(t)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{
		target,
		"--username", "alice",
		"--base-url", srv.URL + "/api",
		"--api-url", srv.URL + "/replay/%s",
		"--filename-format", "%o/%r.ttrm",
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v\nstderr: %s", err, errOut.String())
	}

	data, err := os.ReadFile(filepath.Join(target, "bob", "r1.ttrm"))
	if err != nil {
		t.Fatalf("read replay: %v", err)
	}
	if string(data) != "replay-bytes" {
		t.Fatalf("unexpected replay content %q", data)
	}
	for _, want := range []string{"INOUE v" + version, "Resolved UserID: 'u1'", "OK!", "Done: 1 saved"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in output:\n%s", want, out.String())
		}
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	records, err := st.ListDownloads(context.Background(), model.HistoryFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ReplayID != "r1" || records[0].Opponent != "bob" {
		t.Fatalf("unexpected history %+v", records)
	}
	runs, err := st.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Outcome != "success" || runs[0].Summary.Saved != 1 {
		t.Fatalf("unexpected runs %+v", runs)
	}
}

func TestRunFailsWithoutUsername(t *testing.T) {
	isolate(t)
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--api-url", "https://replays.test/%s"})
	err := cmd.Execute()
	if !errs.Is(err, errs.KindConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(errOut.String(), "username must not be empty") {
		t.Fatalf("expected diagnostic on stderr, got %q", errOut.String())
	}
}
