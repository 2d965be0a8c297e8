// Package filename renders replay file paths from %-directive templates.
package filename

import (
	"fmt"
	"strconv"
	"strings"

	strftime "github.com/ncruces/go-strftime"

	"github.com/verte-zerg/inoue/internal/errs"
	"github.com/verte-zerg/inoue/internal/model"
)

// BadTemplateError reports an unknown or missing directive.
type BadTemplateError struct {
	Template  string
	Offset    int
	Directive byte
	Trailing  bool
}

func (e *BadTemplateError) Error() string {
	if e.Trailing {
		return fmt.Sprintf("filename format %q ends with a bare %%", e.Template)
	}
	return fmt.Sprintf("filename format %q: unknown directive %%%c at offset %d", e.Template, e.Directive, e.Offset)
}

// ErrorKind places template errors among configuration errors.
func (e *BadTemplateError) ErrorKind() errs.Kind {
	return errs.KindConfiguration
}

// Render expands template for game. Literal text is copied as is; every %
// starts a one-character directive:
//
//	%Y %y %m %d %H %M %S  calendar fields of PlayedAt
//	%s                    PlayedAt as Unix seconds
//	%o %O                 opponent, lower/upper case
//	%u %U                 username, as is/upper case
//	%r                    replay id
//	%%                    a literal %
func Render(template string, game model.GameRecord, username string) (string, error) {
	var b strings.Builder
	b.Grow(len(template) + 32)
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(template) {
			return "", &BadTemplateError{Template: template, Offset: i, Trailing: true}
		}
		i++
		d := template[i]
		switch d {
		case 'Y', 'y', 'm', 'd', 'H', 'M', 'S':
			b.WriteString(strftime.Format("%"+string(d), game.PlayedAt))
		case 's':
			b.WriteString(strconv.FormatInt(game.PlayedAt.Unix(), 10))
		case 'o':
			b.WriteString(strings.ToLower(model.TruncateBytes(game.Opponent, model.MaxOpponentLen)))
		case 'O':
			b.WriteString(strings.ToUpper(model.TruncateBytes(game.Opponent, model.MaxOpponentLen)))
		case 'u':
			b.WriteString(username)
		case 'U':
			b.WriteString(strings.ToUpper(model.TruncateBytes(username, model.MaxUsernameLen)))
		case 'r':
			b.WriteString(game.ReplayID)
		case '%':
			b.WriteByte('%')
		default:
			return "", &BadTemplateError{Template: template, Offset: i - 1, Directive: d}
		}
	}
	return b.String(), nil
}
