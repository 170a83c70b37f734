package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lotto/database"
	"lotto/models"
)

// UserRepository implements service.AccountRepository on SQLite.
// Inside a unit of work the whole database is write-locked, so reads need no row lock.
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a user repository outside of any transaction
func NewUserRepository(db *database.SQLiteDB) *UserRepository {
	return &UserRepository{q: db.DB}
}

func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByUserID retrieves a user, returning nil if it does not exist
func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT user_id, balance, last_lottery_date, daily_lottery_count, created_at, updated_at
		FROM users
		WHERE user_id = ?
	`

	var (
		user      models.User
		lastPlay  sql.NullString
		createdAt string
		updatedAt string
	)
	err := r.q.QueryRowContext(ctx, query, userID).Scan(
		&user.UserID,
		&user.Balance,
		&lastPlay,
		&user.DailyLotteryCount,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(fmt.Sprintf("failed to get user %s", userID), err)
	}

	if lastPlay.Valid {
		day, err := parseDate(lastPlay.String)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", userID, err)
		}
		user.LastLotteryDate = &day
	}
	if user.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}
	if user.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("user %s: %w", userID, err)
	}

	return &user, nil
}

// SetBalance overwrites a user's balance
func (r *UserRepository) SetBalance(ctx context.Context, userID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("balance cannot be negative: %d", amount)
	}

	query := `UPDATE users SET balance = ?, updated_at = ? WHERE user_id = ?`

	result, err := r.q.ExecContext(ctx, query, amount, formatTimestamp(time.Now()), userID)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to set balance for user %s", userID), err)
	}

	return requireRow(result, "set balance", userID)
}

// AddBalance increments a user's balance in a single statement
func (r *UserRepository) AddBalance(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("amount must be non-negative: %d", amount)
	}

	query := `
		UPDATE users
		SET balance = balance + ?, updated_at = ?
		WHERE user_id = ?
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRowContext(ctx, query, amount, formatTimestamp(time.Now()), userID).Scan(&newBalance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("add balance for user %s: %w", userID, models.ErrUserNotFound)
	}
	if err != nil {
		return 0, wrapError(fmt.Sprintf("failed to add balance for user %s", userID), err)
	}

	return newBalance, nil
}

// RecordPlay stores the date and daily count of the user's latest play
func (r *UserRepository) RecordPlay(ctx context.Context, userID string, playDate time.Time, count int) error {
	query := `
		UPDATE users
		SET last_lottery_date = ?, daily_lottery_count = ?, updated_at = ?
		WHERE user_id = ?
	`

	result, err := r.q.ExecContext(ctx, query, formatDate(playDate), count, formatTimestamp(time.Now()), userID)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to record play for user %s", userID), err)
	}

	return requireRow(result, "record play", userID)
}

// PickRandomOther returns a random user other than excludeUserID
func (r *UserRepository) PickRandomOther(ctx context.Context, excludeUserID string) (string, bool, error) {
	query := `SELECT user_id FROM users WHERE user_id <> ? ORDER BY RANDOM() LIMIT 1`

	var userID string
	err := r.q.QueryRowContext(ctx, query, excludeUserID).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapError("failed to pick random user", err)
	}

	return userID, true, nil
}

// Create inserts an account. The lottery never calls it; the CLI seed command and tests do.
func (r *UserRepository) Create(ctx context.Context, userID string, balance int64) error {
	now := formatTimestamp(time.Now())
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (user_id, balance, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		userID, balance, now, now)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to create user %s", userID), err)
	}
	return nil
}

func requireRow(result sql.Result, op, userID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s for user %s: %w", op, userID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s for user %s: %w", op, userID, models.ErrUserNotFound)
	}
	return nil
}
