// Package console prints download progress for humans.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/verte-zerg/inoue/internal/model"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A")).Bold(true)
	skipStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

const playedAtLayout = "2006-01-02 15:04"

// Reporter writes one status line per step. Failures also go to errOut.
type Reporter struct {
	out    io.Writer
	errOut io.Writer
	color  bool
}

// New builds a reporter; colour is used only when out is a terminal.
func New(out, errOut io.Writer) *Reporter {
	return &Reporter{out: out, errOut: errOut, color: ShouldUseColor(out)}
}

// NewPlain builds a reporter that never emits colour.
func NewPlain(out, errOut io.Writer) *Reporter {
	return &Reporter{out: out, errOut: errOut}
}

// ShouldUseColor reports whether w is a terminal and NO_COLOR is unset.
func ShouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// Banner prints the program name and version.
func (r *Reporter) Banner(version string) {
	r.printf(r.out, "%s\n", r.style(titleStyle, "INOUE v"+version))
}

// ResolvingUser implements download.Reporter.
func (r *Reporter) ResolvingUser(username string) {
	r.printf(r.out, "Resolving username %s...\n", r.style(idStyle, username))
}

// ResolvedUser implements download.Reporter.
func (r *Reporter) ResolvedUser(id model.UserID) {
	r.printf(r.out, "Resolved UserID: '%s'\n", id)
}

// FoundGame implements download.Reporter.
func (r *Reporter) FoundGame(game model.GameRecord) {
	opponent := game.Opponent
	if opponent == "" {
		opponent = "?"
	}
	r.printf(r.out, "Found game '%s' against '%s', played on %s\n",
		r.style(idStyle, game.ReplayID), opponent, game.PlayedAt.Format(playedAtLayout))
}

// AlreadySaved implements download.Reporter.
func (r *Reporter) AlreadySaved(game model.GameRecord, _ string) {
	r.printf(r.out, "%s\n", r.style(skipStyle, fmt.Sprintf("Game %s already saved, skipping...", game.ReplayID)))
}

// Downloading implements download.Reporter.
func (r *Reporter) Downloading(game model.GameRecord) {
	r.printf(r.out, "Downloading %s... ", game.ReplayID)
}

// Saved implements download.Reporter.
func (r *Reporter) Saved(_ model.GameRecord, path string, size int) {
	r.printf(r.out, "%s (%s, %s)\n", r.style(okStyle, "OK!"), humanize.Bytes(uint64(size)), path)
}

// DownloadFailed implements download.Reporter.
func (r *Reporter) DownloadFailed(game model.GameRecord, err error) {
	r.printf(r.out, "%s\n", r.style(failStyle, "FAILED"))
	r.printf(r.errOut, "%s: %v\n", game.ReplayID, err)
}

// Summary prints the per-run totals.
func (r *Reporter) Summary(s model.Summary) {
	r.printf(r.out, "Done: %d saved, %d already present, %d failed (of %d games)\n",
		s.Saved, s.Skipped, s.Failed, s.Found)
}

// Fatal prints a run-ending error.
func (r *Reporter) Fatal(err error) {
	r.printf(r.errOut, "%s %v\n", r.style(failStyle, "inoue:"), err)
}

func (r *Reporter) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *Reporter) printf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		// Best-effort console output.
		_ = err
	}
}
