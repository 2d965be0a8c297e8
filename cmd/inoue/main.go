// Package main provides the CLI entrypoint for inoue.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/inoue/internal/config"
	"github.com/verte-zerg/inoue/internal/console"
	"github.com/verte-zerg/inoue/internal/download"
	"github.com/verte-zerg/inoue/internal/errs"
	"github.com/verte-zerg/inoue/internal/extract"
	"github.com/verte-zerg/inoue/internal/filename"
	"github.com/verte-zerg/inoue/internal/history"
	"github.com/verte-zerg/inoue/internal/logging"
	"github.com/verte-zerg/inoue/internal/model"
	"github.com/verte-zerg/inoue/internal/store"
	"github.com/verte-zerg/inoue/internal/tetrio"
)

const version = "0.3"

const (
	defaultUserAgent      = "inoue/" + version
	defaultFilenameFormat = "%Y-%m-%d_%H-%M_%o_%r.ttrm"
	defaultTimeout        = "60s"
	defaultPreviewReplay  = "65e6d1c0f2a8b7c4d3e2f1a0"
	defaultPreviewOpp     = "opponent"
	dotEnvName            = ".env"
)

var (
	rootConfigPath     string
	rootUsername       string
	rootAPIURL         string
	rootUserAgent      string
	rootFilenameFormat string
	rootBaseURL        string
	rootTimeout        string
	rootLogLevel       string
	rootNoHistory      bool

	historyLast     int
	historyOpponent string
	historyPlain    bool

	previewFormat   string
	previewReplayID string
	previewOpponent string
	previewPlayedAt string
	previewUsername string
)

// reportedError marks an error the console reporter already printed.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }

func (e reportedError) Unwrap() error { return e.err }

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			logErrf("inoue: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "inoue [dir]",
		Short:         "Download recent TETR.IO league replays",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDownloadCmd,
	}

	rootCmd.Flags().StringVar(&rootConfigPath, "config", "", "config file (default: ./inoue.toml, then XDG config)")
	rootCmd.Flags().StringVar(&rootUsername, "username", "", "player whose replays are downloaded")
	rootCmd.Flags().StringVar(&rootAPIURL, "api-url", "", "replay download URL with one %s for the replay id")
	rootCmd.Flags().StringVar(&rootUserAgent, "user-agent", defaultUserAgent, "User-Agent header for all requests")
	rootCmd.Flags().StringVar(&rootFilenameFormat, "filename-format", defaultFilenameFormat, "output path template")
	rootCmd.Flags().StringVar(&rootBaseURL, "base-url", tetrio.DefaultBaseURL, "stats API base URL")
	rootCmd.Flags().StringVar(&rootTimeout, "timeout", defaultTimeout, "per-request timeout (0 disables)")
	rootCmd.Flags().StringVar(&rootLogLevel, "log-level", logging.DefaultLevel, "diagnostic log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&rootNoHistory, "no-history", false, "do not record downloads in the history database")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newPreviewCmd())

	return rootCmd
}

func runDownloadCmd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	reporter := console.New(out, errOut)
	reporter.Banner(version)

	fail := func(err error) error {
		reporter.Fatal(err)
		return reportedError{err: err}
	}

	if len(args) == 1 {
		if err := os.Chdir(args[0]); err != nil {
			return fail(errs.IO("chdir", "couldn't change directory", err))
		}
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return fail(err)
	}

	logger := logging.New(cfg.LogLevel)
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()
	runID := uuid.NewString()
	startedAt := time.Now().UTC()

	var recorder download.Recorder
	var st *store.Store
	if cfg.History {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			logger.Warn("history disabled", zap.Error(err))
		} else {
			db := st
			defer func() {
				if cerr := db.Close(); cerr != nil {
					logger.Warn("failed to close db", zap.Error(cerr))
				}
			}()
			run := model.RunRecord{ID: runID, Username: cfg.Username, StartedAt: startedAt}
			if err := st.BeginRun(ctx, run); err != nil {
				logger.Warn("failed to record run", zap.Error(err))
				st = nil
			} else {
				recorder = st
			}
		}
	}

	client := tetrio.NewClient(cfg.UserAgent, cfg.Timeout, logger)
	downloader := download.New(cfg, download.Deps{
		Fetcher:  client,
		Reporter: reporter,
		Recorder: recorder,
		Logger:   logger,
		RunID:    runID,
	})
	summary, runErr := downloader.Run(ctx)

	if st != nil {
		outcome := "success"
		if runErr != nil {
			outcome = "failure"
		}
		run := model.RunRecord{
			ID:        runID,
			Username:  cfg.Username,
			UserID:    summary.UserID,
			StartedAt: startedAt,
			EndedAt:   time.Now().UTC(),
			Outcome:   outcome,
			Summary:   summary,
		}
		if err := st.FinishRun(ctx, run); err != nil {
			logger.Warn("failed to finish run", zap.Error(err))
		}
	}

	if runErr != nil {
		return fail(runErr)
	}
	reporter.Summary(summary)
	return nil
}

// resolveConfig merges flags, environment, config file and defaults, in that
// order of precedence, and validates the result.
func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	if err := config.LoadDotEnv(dotEnvName); err != nil {
		return model.Config{}, errs.Configuration("load .env", "configuration error", err)
	}
	path := config.ResolveConfigPath(rootConfigPath)
	fileCfg, err := config.LoadConfig(path)
	if err != nil {
		return model.Config{}, errs.Configuration("load config", "configuration error", err)
	}
	config.ApplyEnv(&fileCfg)

	applyStringConfig(cmd, "username", &rootUsername, fileCfg.Inoue.Username)
	applyStringConfig(cmd, "api-url", &rootAPIURL, fileCfg.Inoue.APIURL)
	applyStringConfig(cmd, "user-agent", &rootUserAgent, fileCfg.Inoue.UserAgent)
	applyStringConfig(cmd, "filename-format", &rootFilenameFormat, fileCfg.Inoue.FilenameFormat)
	applyStringConfig(cmd, "base-url", &rootBaseURL, fileCfg.Inoue.BaseURL)
	applyStringConfig(cmd, "timeout", &rootTimeout, fileCfg.Inoue.Timeout)
	applyStringConfig(cmd, "log-level", &rootLogLevel, fileCfg.Inoue.LogLevel)

	keepHistory := true
	if fileCfg.Inoue.History != nil {
		keepHistory = *fileCfg.Inoue.History
	}
	if rootNoHistory {
		keepHistory = false
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(rootTimeout))
	if err != nil {
		return model.Config{}, errs.Configuration("config", fmt.Sprintf("invalid timeout %q", rootTimeout), err)
	}

	cfg := model.Config{
		Username:       strings.TrimSpace(rootUsername),
		APIURLTemplate: strings.TrimSpace(rootAPIURL),
		UserAgent:      rootUserAgent,
		FilenameFormat: rootFilenameFormat,
		BaseURL:        strings.TrimSpace(rootBaseURL),
		Timeout:        timeout,
		LogLevel:       strings.TrimSpace(rootLogLevel),
		History:        keepHistory,
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Username == "" {
		return errs.Configuration("config", "username must not be empty (set --username, INOUE_USERNAME or username in the config file)", nil)
	}
	if err := tetrio.ValidateReplayTemplate(cfg.APIURLTemplate); err != nil {
		return err
	}
	if cfg.FilenameFormat == "" {
		return errs.Configuration("config", "filename-format must not be empty", nil)
	}
	if cfg.Timeout < 0 {
		return errs.Configuration("config", "timeout must be >= 0", nil)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := writeDefaultConfig(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// writeDefaultConfig creates the commented template unless a file exists.
func writeDefaultConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List downloaded replays",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to the last N downloads")
	cmd.Flags().StringVar(&historyOpponent, "opponent", "", "only show games against this opponent")
	cmd.Flags().BoolVar(&historyPlain, "plain", false, "print a plain table instead of the interactive view")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	records, err := st.ListDownloads(context.Background(), model.HistoryFilter{
		Opponent: strings.TrimSpace(historyOpponent),
		Last:     historyLast,
	})
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	now := time.Now()
	if historyPlain || len(records) == 0 || !isTerminal(os.Stdout) {
		return history.WritePlain(cmd.OutOrStdout(), records, now)
	}

	program := tea.NewProgram(history.NewModel(records, now), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func newPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a filename from the configured format",
		Args:  cobra.NoArgs,
		RunE:  runPreviewCmd,
	}
	cmd.Flags().StringVar(&previewFormat, "format", defaultFilenameFormat, "filename format to render")
	cmd.Flags().StringVar(&previewUsername, "username", "", "username for %u and %U")
	cmd.Flags().StringVar(&previewReplayID, "replay-id", defaultPreviewReplay, "replay id for %r")
	cmd.Flags().StringVar(&previewOpponent, "opponent", defaultPreviewOpp, "opponent for %o and %O")
	cmd.Flags().StringVar(&previewPlayedAt, "played-at", "", "game timestamp, e.g. 2024-03-05T18:04:00.000Z (default: now)")
	return cmd
}

func runPreviewCmd(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(dotEnvName); err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.ResolveConfigPath(""))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&fileCfg)
	applyStringConfig(cmd, "format", &previewFormat, fileCfg.Inoue.FilenameFormat)
	applyStringConfig(cmd, "username", &previewUsername, fileCfg.Inoue.Username)

	path, err := renderPreview(previewFormat, previewReplayID, previewOpponent, previewPlayedAt, previewUsername, time.Now())
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func renderPreview(format, replayID, opponent, playedAt, username string, now time.Time) (string, error) {
	at := now.UTC().Truncate(time.Second)
	if playedAt != "" {
		parsed, err := extract.ParseTimestamp(playedAt)
		if err != nil {
			return "", fmt.Errorf("invalid --played-at value: %w", err)
		}
		at = parsed
	}
	game := model.GameRecord{
		ReplayID: replayID,
		Opponent: model.TruncateBytes(opponent, model.MaxOpponentLen),
		PlayedAt: at,
	}
	return filename.Render(format, game, username)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# inoue configuration
# Uncomment a value to enable it. CLI flags and INOUE_* variables override config values.

[inoue]
# username = ""                 # Player whose recent replays are downloaded
# api-url = ""                  # Replay download URL, %%s is replaced by the replay id
# user-agent = %q
# filename-format = %q
#                               # %%Y %%y %%m %%d %%H %%M %%S date, %%s unix time,
#                               # %%o/%%O opponent, %%u/%%U username, %%r replay id, %%%% literal
# base-url = %q
# timeout = %q                 # Per-request timeout, "0" disables
# log-level = %q                # debug, info, warn, error
# history = true                # Record downloads for 'inoue history'
`,
		defaultUserAgent,
		defaultFilenameFormat,
		tetrio.DefaultBaseURL,
		defaultTimeout,
		logging.DefaultLevel,
	)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
