package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lotto/database"
	"lotto/events"
	"lotto/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements service.UnitOfWork on a PostgreSQL transaction
type unitOfWork struct {
	db               *database.DB
	lockTimeout      time.Duration
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	playHistoryRepo  service.PlayHistoryRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory.
// lockTimeout bounds every lock wait inside a unit of work.
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus, lockTimeout time.Duration) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:          db,
		eventBus:    eventBus,
		lockTimeout: lockTimeout,
	}
}

type unitOfWorkFactory struct {
	db          *database.DB
	eventBus    *events.Bus
	lockTimeout time.Duration
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		lockTimeout:      f.lockTimeout,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction with a bounded lock wait
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return wrapError("failed to begin transaction", err)
	}

	if u.lockTimeout > 0 {
		_, err = tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)",
			fmt.Sprintf("%dms", u.lockTimeout.Milliseconds()))
		if err != nil {
			_ = tx.Rollback(ctx)
			return wrapError("failed to set lock timeout", err)
		}
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newUserRepositoryWithTx(tx)
	u.playHistoryRepo = newPlayHistoryRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes queued events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		// pgx has already rolled back; make the deferred Rollback a no-op
		u.tx = nil
		u.transactionalBus.Discard()
		return wrapError("failed to commit transaction", err)
	}

	u.tx = nil
	u.transactionalBus.Flush(u.ctx)

	return nil
}

// Rollback rolls back the transaction and drops queued events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	// the caller's context may already be cancelled; rollback must still reach the server
	err := u.tx.Rollback(context.WithoutCancel(u.ctx))
	u.tx = nil
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// PlayHistoryRepository returns the play history repository for this unit of work
func (u *unitOfWork) PlayHistoryRepository() service.PlayHistoryRepository {
	if u.playHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.playHistoryRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
