package models

import (
	"time"

	"github.com/google/uuid"
)

// OutcomeKind identifies how a lottery roll was settled
type OutcomeKind string

const (
	OutcomeLoss     OutcomeKind = "loss"
	OutcomeRefund   OutcomeKind = "refund"
	OutcomeDouble   OutcomeKind = "double"
	OutcomeTransfer OutcomeKind = "transfer"
	OutcomeJackpot  OutcomeKind = "jackpot"

	// OutcomeTransferRefund is settled when a transfer was rolled but no other
	// account exists; the stake goes back to the player.
	OutcomeTransferRefund OutcomeKind = "transfer_refund"
)

// FailureReason classifies why a play did not settle
type FailureReason string

const (
	FailureUserNotFound        FailureReason = "user_not_found"
	FailureDailyLimitReached   FailureReason = "daily_limit_reached"
	FailureInsufficientBalance FailureReason = "insufficient_balance"
	FailureBusy                FailureReason = "busy"
	FailureSystemError         FailureReason = "system_error"
)

// PlayRecord is the audit row written alongside every settled play
type PlayRecord struct {
	ID             uuid.UUID   `db:"id"`
	UserID         string      `db:"user_id"`
	Outcome        OutcomeKind `db:"outcome"`
	Roll           int         `db:"roll"`
	Bet            int64       `db:"bet"`
	Payout         int64       `db:"payout"`
	BalanceAfter   int64       `db:"balance_after"`
	TransferTarget *string     `db:"transfer_target"`
	PlayDate       time.Time   `db:"play_date"`
	PlayCount      int         `db:"play_count"`
	CreatedAt      time.Time   `db:"created_at"`
}

// PlayResult is returned to the command-dispatch layer for every play.
// Exactly one of the success payload or Reason is meaningful.
type PlayResult struct {
	Success bool
	Message string

	// success payload
	Outcome           OutcomeKind
	Bet               int64
	Payout            int64
	ResultingBalance  int64
	RemainingAttempts int
	TransferTarget    string

	// failure payload
	Reason FailureReason
}
