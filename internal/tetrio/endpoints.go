package tetrio

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/verte-zerg/inoue/internal/errs"
	"github.com/verte-zerg/inoue/internal/model"
)

// DefaultBaseURL is the public stats API root.
const DefaultBaseURL = "https://ch.tetr.io/api"

// ReplayPlaceholder marks where the replay id goes in an API URL template.
const ReplayPlaceholder = "%s"

// Endpoints builds stats API URLs under a base URL.
type Endpoints struct {
	BaseURL string
}

// NewEndpoints trims trailing slashes and falls back to DefaultBaseURL.
func NewEndpoints(baseURL string) Endpoints {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Endpoints{BaseURL: baseURL}
}

// UserURL is the user lookup document for username.
func (e Endpoints) UserURL(username string) string {
	return e.BaseURL + "/users/" + url.PathEscape(username)
}

// RecentURL is the recent league games stream for a user id.
func (e Endpoints) RecentURL(id model.UserID) string {
	return e.BaseURL + "/streams/league_userrecent_" + url.PathEscape(string(id))
}

// ValidateReplayTemplate checks that template has exactly one insertion point.
func ValidateReplayTemplate(template string) error {
	if n := strings.Count(template, ReplayPlaceholder); n != 1 {
		return errs.Configuration("api-url", fmt.Sprintf("%q must contain exactly one %s, found %d", template, ReplayPlaceholder, n), nil)
	}
	return nil
}

// ReplayURL substitutes replayID into template.
func ReplayURL(template, replayID string) string {
	return strings.Replace(template, ReplayPlaceholder, url.PathEscape(replayID), 1)
}
