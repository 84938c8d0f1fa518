package sqlxrepos

import (
	"database/sql"
	"database/sql/driver"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

// wrapDBErr wraps a repository error, promoting connection-level failures to
// shutdown errors so the server restarts instead of limping along.
func wrapDBErr(err error, msg string) error {
	switch errors.Cause(err) {
	case driver.ErrBadConn, sql.ErrConnDone:
		return core.NewShutdownError(msg + ": " + err.Error())
	}
	return errors.Wrap(err, msg)
}

// trapNoRowsErr translates sql.ErrNoRows into the domain's not-found error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return wrapDBErr(err, msg)
}

// orderingClause renders an ORDER BY body, dropping fields outside the
// allowed set to keep user-supplied orderings out of raw SQL.
func orderingClause(ordering []core.DBOrdering, allowed ...string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		var ok bool
		for _, field := range allowed {
			if ord.Field == field {
				ok = true
				break
			}
		}
		if !ok {
			continue
		}
		parts = append(parts, ord.String())
	}
	return strings.Join(parts, ", ")
}
