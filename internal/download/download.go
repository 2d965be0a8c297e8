// Package download resolves a player, lists recent games and saves replays.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/inoue/internal/apijson"
	"github.com/verte-zerg/inoue/internal/errs"
	"github.com/verte-zerg/inoue/internal/extract"
	"github.com/verte-zerg/inoue/internal/filename"
	"github.com/verte-zerg/inoue/internal/model"
	"github.com/verte-zerg/inoue/internal/tetrio"
)

// Fetcher performs a blocking GET and returns the buffered response.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (tetrio.Response, error)
}

// Reporter receives progress for console output.
type Reporter interface {
	ResolvingUser(username string)
	ResolvedUser(id model.UserID)
	FoundGame(game model.GameRecord)
	AlreadySaved(game model.GameRecord, path string)
	Downloading(game model.GameRecord)
	Saved(game model.GameRecord, path string, size int)
	DownloadFailed(game model.GameRecord, err error)
}

// Recorder keeps a ledger of saved replays.
type Recorder interface {
	RecordDownload(ctx context.Context, rec model.DownloadRecord) error
}

// Deps are the collaborators of a Downloader. Fetcher is required; the rest
// have working defaults.
type Deps struct {
	Fetcher  Fetcher
	FS       Filesystem
	Reporter Reporter
	Recorder Recorder
	Logger   *zap.Logger
	RunID    string
	Now      func() time.Time
}

// Downloader runs one sequential download pass.
type Downloader struct {
	cfg       model.Config
	endpoints tetrio.Endpoints
	fetcher   Fetcher
	fs        Filesystem
	reporter  Reporter
	recorder  Recorder
	logger    *zap.Logger
	runID     string
	now       func() time.Time
}

type outcome int

const (
	outcomeSaved outcome = iota
	outcomeSkipped
	outcomeFailed
)

// New builds a Downloader for cfg.
func New(cfg model.Config, deps Deps) *Downloader {
	d := &Downloader{
		cfg:       cfg,
		endpoints: tetrio.NewEndpoints(cfg.BaseURL),
		fetcher:   deps.Fetcher,
		fs:        deps.FS,
		reporter:  deps.Reporter,
		recorder:  deps.Recorder,
		logger:    deps.Logger,
		runID:     deps.RunID,
		now:       deps.Now,
	}
	if d.fs == nil {
		d.fs = OSFilesystem{}
	}
	if d.reporter == nil {
		d.reporter = nopReporter{}
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Run resolves the configured user, fetches the recent games and downloads
// each missing replay in order. A returned error is fatal for the whole run;
// per-replay problems are reported and counted in the summary instead.
func (d *Downloader) Run(ctx context.Context) (model.Summary, error) {
	var summary model.Summary

	id, err := d.resolveUser(ctx)
	if err != nil {
		return summary, err
	}
	summary.UserID = id

	games, err := d.fetchGames(ctx, id)
	if err != nil {
		return summary, err
	}
	summary.Found = len(games)
	for _, game := range games {
		d.reporter.FoundGame(game)
	}

	for _, game := range games {
		result, err := d.downloadGame(ctx, game)
		if err != nil {
			return summary, err
		}
		switch result {
		case outcomeSaved:
			summary.Saved++
		case outcomeSkipped:
			summary.Skipped++
		case outcomeFailed:
			summary.Failed++
		}
	}
	return summary, nil
}

func (d *Downloader) resolveUser(ctx context.Context) (model.UserID, error) {
	d.reporter.ResolvingUser(d.cfg.Username)
	resp, err := d.fetcher.Fetch(ctx, d.endpoints.UserURL(d.cfg.Username))
	if err != nil {
		return "", fmt.Errorf("failed to resolve username: %w", err)
	}
	doc, err := apijson.Parse(resp.Body)
	if err != nil {
		return "", fmt.Errorf("invalid server response while resolving username (%s): %w", resp.Status, err)
	}
	id, err := extract.ExtractUserID(doc)
	if err != nil {
		return "", fmt.Errorf("invalid server response while resolving username (%s): %w", resp.Status, err)
	}
	d.reporter.ResolvedUser(id)
	return id, nil
}

func (d *Downloader) fetchGames(ctx context.Context, id model.UserID) ([]model.GameRecord, error) {
	resp, err := d.fetcher.Fetch(ctx, d.endpoints.RecentURL(id))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent games: %w", err)
	}
	doc, err := apijson.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error while parsing games: %w", err)
	}
	games, skipped, err := extract.ExtractGames(doc, d.cfg.Username)
	if err != nil {
		return nil, fmt.Errorf("error while parsing games: %w", err)
	}
	for _, s := range skipped {
		d.logger.Info("skipping unreadable record", zap.Int("index", s.Index), zap.Error(s.Err))
	}
	if len(games) == 0 {
		return nil, errs.APIFormat("parse games", fmt.Sprintf("error while parsing games: no usable records (%d skipped)", len(skipped)), nil)
	}
	return games, nil
}

func (d *Downloader) downloadGame(ctx context.Context, game model.GameRecord) (outcome, error) {
	path, err := filename.Render(d.cfg.FilenameFormat, game, d.cfg.Username)
	if err != nil {
		return outcomeFailed, err
	}

	exists, err := d.fs.Exists(path)
	if err != nil {
		return outcomeFailed, errs.IO("check "+path, "failed to stat output file", err)
	}
	if exists {
		d.reporter.AlreadySaved(game, path)
		return outcomeSkipped, nil
	}

	w, err := d.fs.Create(path)
	if err != nil {
		return outcomeFailed, errs.IO("open "+path, "couldn't open output file", err)
	}

	d.reporter.Downloading(game)
	resp, err := d.fetcher.Fetch(ctx, tetrio.ReplayURL(d.cfg.APIURLTemplate, game.ReplayID))
	if err != nil {
		d.discard(w, path)
		return outcomeFailed, fmt.Errorf("failed to download %s: %w", game.ReplayID, err)
	}
	if resp.StatusCode != http.StatusOK {
		d.discard(w, path)
		d.reporter.DownloadFailed(game, errs.HTTPStatus("download "+game.ReplayID, resp.StatusCode, string(resp.Body)))
		return outcomeFailed, nil
	}
	if len(resp.Body) == 0 {
		d.discard(w, path)
		d.reporter.DownloadFailed(game, errs.IO("save "+path, "server returned an empty replay", nil))
		return outcomeFailed, nil
	}

	n, err := w.Write(resp.Body)
	if err == nil && n != len(resp.Body) {
		err = fmt.Errorf("wrote %d of %d bytes", n, len(resp.Body))
	}
	if err != nil {
		d.discard(w, path)
		d.reporter.DownloadFailed(game, errs.IO("save "+path, "saving failed", err))
		return outcomeFailed, nil
	}
	if err := w.Close(); err != nil {
		d.remove(path)
		d.reporter.DownloadFailed(game, errs.IO("save "+path, "saving failed", err))
		return outcomeFailed, nil
	}

	d.reporter.Saved(game, path, len(resp.Body))
	d.record(ctx, game, path, len(resp.Body))
	return outcomeSaved, nil
}

// discard closes and deletes a partial file so a later run retries it.
func (d *Downloader) discard(w io.Closer, path string) {
	if err := w.Close(); err != nil {
		d.logger.Debug("close partial file", zap.String("path", path), zap.Error(err))
	}
	d.remove(path)
}

func (d *Downloader) remove(path string) {
	if err := d.fs.Remove(path); err != nil {
		d.logger.Warn("failed to delete partial file", zap.String("path", path), zap.Error(err))
	}
}

func (d *Downloader) record(ctx context.Context, game model.GameRecord, path string, size int) {
	if d.recorder == nil {
		return
	}
	rec := model.DownloadRecord{
		RunID:    d.runID,
		ReplayID: game.ReplayID,
		Opponent: game.Opponent,
		PlayedAt: game.PlayedAt,
		Path:     path,
		Bytes:    int64(size),
		SavedAt:  d.now(),
	}
	if err := d.recorder.RecordDownload(ctx, rec); err != nil {
		d.logger.Warn("failed to record download", zap.String("replay", game.ReplayID), zap.Error(err))
	}
}

type nopReporter struct{}

func (nopReporter) ResolvingUser(string) {}
func (nopReporter) ResolvedUser(model.UserID) {}
func (nopReporter) FoundGame(model.GameRecord) {}
func (nopReporter) AlreadySaved(model.GameRecord, string) {}
func (nopReporter) Downloading(model.GameRecord) {}
func (nopReporter) Saved(model.GameRecord, string, int) {}
func (nopReporter) DownloadFailed(model.GameRecord, error) {}
