package repository

import (
	"errors"
	"fmt"

	"lotto/models"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATEs raised when a row lock could not be taken in time
const (
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
)

func isBusyError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure:
		return true
	}
	return false
}

// wrapError annotates err with op and tags lock contention as models.ErrStoreBusy
func wrapError(op string, err error) error {
	if isBusyError(err) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrStoreBusy, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
