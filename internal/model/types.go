// Package model defines shared data structures.
package model

import (
	"time"
	"unicode/utf8"
)

// Length caps for values copied out of API responses.
const (
	MaxUserIDLen   = 63
	MaxReplayIDLen = 31
	MaxOpponentLen = 31
)

// UserID identifies a player on the stats API.
type UserID string

// GameRecord is one past match from the recent-games stream.
type GameRecord struct {
	ReplayID string
	Opponent string
	PlayedAt time.Time
}

// Config is the resolved runtime configuration.
type Config struct {
	Username       string
	APIURLTemplate string
	UserAgent      string
	FilenameFormat string
	BaseURL        string
	Timeout        time.Duration
	LogLevel       string
	History        bool
}

// DownloadRecord is a saved replay as kept in the history ledger.
type DownloadRecord struct {
	RunID    string
	ReplayID string
	Opponent string
	PlayedAt time.Time
	Path     string
	Bytes    int64
	SavedAt  time.Time
}

// RunRecord summarizes one downloader run in the history ledger.
type RunRecord struct {
	ID        string
	Username  string
	UserID    UserID
	StartedAt time.Time
	EndedAt   time.Time
	Outcome   string
	Summary   Summary
}

// Summary counts per-record outcomes of a run.
type Summary struct {
	UserID  UserID
	Found   int
	Saved   int
	Skipped int
	Failed  int
}

// HistoryFilter selects entries for the history listing.
type HistoryFilter struct {
	Opponent string
	Last     int
}

// MaxUsernameLen bounds case-transformed usernames in rendered filenames.
const MaxUsernameLen = 31

// TruncateBytes cuts s to at most limit bytes without splitting a rune.
func TruncateBytes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
