// Package store handles SQLite persistence of the download history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/inoue/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for run and download history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL DEFAULT 'running',
			found INTEGER NOT NULL DEFAULT 0,
			saved INTEGER NOT NULL DEFAULT 0,
			skipped INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL,
			replay_id TEXT NOT NULL,
			opponent TEXT NOT NULL,
			played_at TEXT NOT NULL,
			path TEXT NOT NULL,
			bytes INTEGER NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_saved_at ON downloads(saved_at);`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_replay_id ON downloads(replay_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginRun inserts a run row in the running state.
func (s *Store) BeginRun(ctx context.Context, run model.RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, username, started_at) VALUES (?, ?, ?)`,
		run.ID, run.Username, run.StartedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// FinishRun stores the outcome and counters of a run.
func (s *Store) FinishRun(ctx context.Context, run model.RunRecord) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET user_id = ?, ended_at = ?, outcome = ?, found = ?, saved = ?, skipped = ?, failed = ?
		 WHERE id = ?`,
		string(run.Summary.UserID),
		run.EndedAt.UTC().Format(timeLayout),
		run.Outcome,
		run.Summary.Found,
		run.Summary.Saved,
		run.Summary.Skipped,
		run.Summary.Failed,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", run.ID)
	}
	return nil
}

// RecordDownload stores one saved replay.
func (s *Store) RecordDownload(ctx context.Context, rec model.DownloadRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO downloads (run_id, replay_id, opponent, played_at, path, bytes, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID,
		rec.ReplayID,
		rec.Opponent,
		rec.PlayedAt.UTC().Format(timeLayout),
		rec.Path,
		rec.Bytes,
		rec.SavedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}
	return nil
}

// ListDownloads returns saved replays newest first.
func (s *Store) ListDownloads(ctx context.Context, filter model.HistoryFilter) ([]model.DownloadRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Opponent != "" {
		clauses = append(clauses, "LOWER(opponent) = LOWER(?)")
		args = append(args, filter.Opponent)
	}
	query := fmt.Sprintf(`SELECT run_id, replay_id, opponent, played_at, path, bytes, saved_at
		FROM downloads
		WHERE %s
		ORDER BY saved_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if filter.Last > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DownloadRecord
	for rows.Next() {
		var rec model.DownloadRecord
		var playedAt, savedAt string
		if err := rows.Scan(&rec.RunID, &rec.ReplayID, &rec.Opponent, &playedAt, &rec.Path, &rec.Bytes, &savedAt); err != nil {
			return nil, err
		}
		if rec.PlayedAt, err = time.Parse(timeLayout, playedAt); err != nil {
			return nil, err
		}
		if rec.SavedAt, err = time.Parse(timeLayout, savedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	query := `SELECT id, username, user_id, started_at, ended_at, outcome, found, saved, skipped, failed
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		var userID, startedAt, endedAt string
		if err := rows.Scan(&run.ID, &run.Username, &userID, &startedAt, &endedAt, &run.Outcome,
			&run.Summary.Found, &run.Summary.Saved, &run.Summary.Skipped, &run.Summary.Failed); err != nil {
			return nil, err
		}
		run.UserID = model.UserID(userID)
		run.Summary.UserID = run.UserID
		if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, err
		}
		if endedAt != "" {
			if run.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
				return nil, err
			}
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
