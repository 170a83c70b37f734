package service

import (
	"context"
	"time"

	"lotto/events"
	"lotto/models"
)

// AccountRepository defines the ledger operations a play performs on the users table.
// Implementations bound to a unit of work hold the account's row lock from
// GetByUserID until the transaction ends.
type AccountRepository interface {
	// GetByUserID retrieves and locks an account, returning nil if it does not exist
	GetByUserID(ctx context.Context, userID string) (*models.User, error)

	// SetBalance overwrites an account's balance
	SetBalance(ctx context.Context, userID string, amount int64) error

	// AddBalance atomically increments an account's balance and returns the new balance.
	// Negative amounts are rejected.
	AddBalance(ctx context.Context, userID string, amount int64) (int64, error)

	// RecordPlay stores the date and count of the account's latest play
	RecordPlay(ctx context.Context, userID string, playDate time.Time, count int) error

	// PickRandomOther returns a uniformly random account other than excludeUserID.
	// The bool is false when no such account exists.
	PickRandomOther(ctx context.Context, excludeUserID string) (string, bool, error)
}

// PlayHistoryRepository defines the interface for the lottery audit journal
type PlayHistoryRepository interface {
	// Record appends a settled play
	Record(ctx context.Context, play *models.PlayRecord) error

	// GetByUser returns the most recent plays of a user, newest first
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.PlayRecord, error)
}

// LotteryService defines the lottery operations exposed to adapters
type LotteryService interface {
	// Play stakes the user's whole balance on one weighted draw
	Play(ctx context.Context, userID string) *models.PlayResult

	// Rules renders the help text for the active policy
	Rules() string

	// History returns the user's recent plays
	History(ctx context.Context, userID string, limit int) ([]*models.PlayRecord, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork manages one ledger transaction and the repositories bound to it
type UnitOfWork interface {
	// Begin acquires the exclusive transaction scope, failing with
	// models.ErrStoreBusy when the bounded lock wait elapses
	Begin(ctx context.Context) error
	Commit() error
	// Rollback discards the transaction; calling it after Commit is a no-op
	Rollback() error

	AccountRepository() AccountRepository
	PlayHistoryRepository() PlayHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates new UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
