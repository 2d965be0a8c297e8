package extract

import (
	"fmt"

	"github.com/verte-zerg/inoue/internal/apijson"
	"github.com/verte-zerg/inoue/internal/errs"
	"github.com/verte-zerg/inoue/internal/model"
)

// RecordError explains why one entry of the records array was skipped.
type RecordError struct {
	Index int
	Err   error
}

func (e RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Index, e.Err)
}

func (e RecordError) Unwrap() error {
	return e.Err
}

// ExtractGames reads data.records from a recent-games response. Entries that
// cannot be read are reported in skipped and leave no gap in games. An error
// is returned only when the envelope or the records array itself is unusable.
func ExtractGames(doc apijson.Document, username string) (games []model.GameRecord, skipped []RecordError, err error) {
	data, ok := apijson.Unwrap(doc)
	if !ok {
		return nil, nil, errs.APIFormat("parse games", "unsuccessful or malformed envelope", nil)
	}
	records, ok := apijson.GetPath(data, "records")
	if !ok || !records.IsArray() {
		return nil, nil, errs.APIFormat("parse games", "data.records is not an array", nil)
	}

	index := 0
	records.Elements(func(entry apijson.Node) bool {
		game, gerr := extractGame(entry, username)
		if gerr != nil {
			skipped = append(skipped, RecordError{Index: index, Err: gerr})
		} else {
			games = append(games, game)
		}
		index++
		return true
	})
	return games, skipped, nil
}

func extractGame(entry apijson.Node, username string) (model.GameRecord, error) {
	if !entry.IsObject() {
		return model.GameRecord{}, fmt.Errorf("entry is not an object")
	}

	replayID, err := requireString(entry, "replayid")
	if err != nil {
		return model.GameRecord{}, err
	}
	if replayID == "" || len(replayID) > model.MaxReplayIDLen {
		return model.GameRecord{}, fmt.Errorf("replayid must be 1-%d bytes, got %d", model.MaxReplayIDLen, len(replayID))
	}

	rawTS, err := requireString(entry, "ts")
	if err != nil {
		return model.GameRecord{}, err
	}
	playedAt, err := ParseTimestamp(rawTS)
	if err != nil {
		return model.GameRecord{}, err
	}

	opponent, err := findOpponent(entry, username)
	if err != nil {
		return model.GameRecord{}, err
	}

	return model.GameRecord{
		ReplayID: replayID,
		Opponent: model.TruncateBytes(opponent, model.MaxOpponentLen),
		PlayedAt: playedAt,
	}, nil
}

// findOpponent returns the first endcontext username that differs from
// username. A missing endcontext is fine; a malformed participant seen before
// the match is not.
func findOpponent(entry apijson.Node, username string) (string, error) {
	endcontext, ok := apijson.GetPath(entry, "endcontext")
	if !ok || !endcontext.IsArray() {
		return "", nil
	}
	var (
		opponent string
		ferr     error
	)
	endcontext.Elements(func(participant apijson.Node) bool {
		name, err := requireString(participant, "user.username")
		if err != nil {
			ferr = fmt.Errorf("endcontext: %w", err)
			return false
		}
		if name != username {
			opponent = name
			return false
		}
		return true
	})
	if ferr != nil {
		return "", ferr
	}
	return opponent, nil
}

func requireString(n apijson.Node, path string) (string, error) {
	node, ok := apijson.GetPath(n, path)
	if !ok {
		return "", fmt.Errorf("missing %s", path)
	}
	s, ok := node.String()
	if !ok {
		return "", fmt.Errorf("%s is not a string", path)
	}
	return s, nil
}
