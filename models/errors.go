package models

import "errors"

var (
	// ErrUserNotFound is returned when the player has no ledger account
	ErrUserNotFound = errors.New("user not found")

	// ErrDailyLimitReached is returned when today's attempts are used up
	ErrDailyLimitReached = errors.New("daily lottery limit reached")

	// ErrInsufficientBalance is returned when there is nothing to stake
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrStoreBusy is returned by the ledger store when the transaction scope
	// could not be acquired within the bounded lock wait
	ErrStoreBusy = errors.New("ledger store busy")
)
