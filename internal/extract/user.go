package extract

import (
	"fmt"

	"github.com/verte-zerg/inoue/internal/apijson"
	"github.com/verte-zerg/inoue/internal/errs"
	"github.com/verte-zerg/inoue/internal/model"
)

// ExtractUserID reads data.user._id from a user lookup response.
func ExtractUserID(doc apijson.Document) (model.UserID, error) {
	data, ok := apijson.Unwrap(doc)
	if !ok {
		return "", errs.APIFormat("resolve user", "unsuccessful or malformed envelope", nil)
	}
	node, ok := apijson.GetPath(data, "user._id")
	if !ok {
		return "", errs.APIFormat("resolve user", "missing user._id", nil)
	}
	id, ok := node.String()
	if !ok || id == "" {
		return "", errs.APIFormat("resolve user", "user._id is not a non-empty string", nil)
	}
	if len(id) > model.MaxUserIDLen {
		return "", errs.APIFormat("resolve user", fmt.Sprintf("user._id is %d bytes, limit is %d", len(id), model.MaxUserIDLen), nil)
	}
	return model.UserID(id), nil
}
