package database

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsConnError reports whether err means the database itself is unreachable
// (closed handle, file that cannot be opened, failing or read-only volume)
// rather than a problem with one query.
func IsConnError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_FULL:
			return true
		}
		return false
	}

	// database/sql does not export this one.
	return strings.Contains(err.Error(), "sql: database is closed")
}
