// Package extract pulls typed records out of stats API responses.
package extract

import (
	"fmt"
	"time"

	"github.com/verte-zerg/inoue/internal/errs"
)

const timestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp reads the fixed-width YYYY-MM-DDTHH:MM:SS prefix of text and
// returns it as a UTC time. Fractional seconds and zone suffixes are dropped.
func ParseTimestamp(text string) (time.Time, error) {
	if len(text) < len(timestampLayout) {
		return time.Time{}, errs.APIFormat("parse timestamp", fmt.Sprintf("%q is too short", text), nil)
	}
	prefix := text[:len(timestampLayout)]
	for i := 0; i < len(timestampLayout); i++ {
		want := timestampLayout[i]
		got := prefix[i]
		if want >= '0' && want <= '9' {
			if got < '0' || got > '9' {
				return time.Time{}, errs.APIFormat("parse timestamp", fmt.Sprintf("%q: expected digit at offset %d", text, i), nil)
			}
			continue
		}
		if got != want {
			return time.Time{}, errs.APIFormat("parse timestamp", fmt.Sprintf("%q: expected %q at offset %d", text, want, i), nil)
		}
	}
	ts, err := time.ParseInLocation(timestampLayout, prefix, time.UTC)
	if err != nil {
		return time.Time{}, errs.APIFormat("parse timestamp", fmt.Sprintf("%q", text), err)
	}
	return ts, nil
}
