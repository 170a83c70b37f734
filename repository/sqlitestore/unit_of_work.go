package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lotto/database"
	"lotto/events"
	"lotto/service"
)

// unitOfWork implements service.UnitOfWork on a SQLite write transaction.
// The handle is opened with _txlock=immediate, so Begin takes the database
// write lock up front and waits at most the configured busy_timeout for it.
type unitOfWork struct {
	db               *database.SQLiteDB
	tx               *sql.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	playHistoryRepo  service.PlayHistoryRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.SQLiteDB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.SQLiteDB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new immediate transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError("failed to begin transaction", err)
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

	if err := u.tx.Commit(); err != nil {
		// a failed COMMIT can leave the transaction open
		_ = u.tx.Rollback()
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

	err := u.tx.Rollback()
	u.tx = nil
	u.transactionalBus.Discard()

	if err != nil && !errors.Is(err, sql.ErrTxDone) {
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
