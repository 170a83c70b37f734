package sqlitestore

import (
	"errors"
	"fmt"

	"lotto/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	// extended codes such as SQLITE_BUSY_SNAPSHOT share the primary code in the low byte
	code := sqliteErr.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}

// wrapError annotates err with op and tags lock contention as models.ErrStoreBusy
func wrapError(op string, err error) error {
	if isBusyError(err) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrStoreBusy, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
