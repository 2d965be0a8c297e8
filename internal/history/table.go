// Package history renders the saved-replay ledger.
package history

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/inoue/internal/model"
)

const playedLayout = "2006-01-02 15:04"

var headers = []string{"Saved", "Replay", "Opponent", "Played", "Size", "Path"}

// rows turns records into display cells, one row per record.
func rows(records []model.DownloadRecord, now time.Time) [][]string {
	out := make([][]string, 0, len(records))
	for _, rec := range records {
		opponent := rec.Opponent
		if opponent == "" {
			opponent = "-"
		}
		out = append(out, []string{
			humanize.RelTime(rec.SavedAt, now, "ago", "from now"),
			rec.ReplayID,
			opponent,
			rec.PlayedAt.Format(playedLayout),
			humanize.Bytes(uint64(rec.Bytes)),
			rec.Path,
		})
	}
	return out
}

// WritePlain prints records as an aligned text table.
func WritePlain(w io.Writer, records []model.DownloadRecord, now time.Time) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No downloads recorded yet.")
		return err
	}
	for _, line := range formatTable(headers, rows(records, now), map[int]bool{4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func formatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i] && i < len(widths)-1))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

// displayWidth counts terminal cells, so wide opponent names stay aligned.
func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
