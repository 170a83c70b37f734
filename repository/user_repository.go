package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lotto/database"
	"lotto/models"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements service.AccountRepository on PostgreSQL
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a user repository outside of any transaction
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a user repository bound to a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByUserID retrieves a user and takes its row lock for the rest of the transaction
func (r *UserRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	query := `
		SELECT user_id, balance, last_lottery_date, daily_lottery_count, created_at, updated_at
		FROM users
		WHERE user_id = $1
		FOR UPDATE
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Balance,
		&user.LastLotteryDate,
		&user.DailyLotteryCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError(fmt.Sprintf("failed to get user %s", userID), err)
	}

	return &user, nil
}

// SetBalance overwrites a user's balance
func (r *UserRepository) SetBalance(ctx context.Context, userID string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("balance cannot be negative: %d", amount)
	}

	query := `
		UPDATE users
		SET balance = $1, updated_at = NOW()
		WHERE user_id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to set balance for user %s", userID), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("set balance for user %s: %w", userID, models.ErrUserNotFound)
	}

	return nil
}

// AddBalance increments a user's balance in a single statement
func (r *UserRepository) AddBalance(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("amount must be non-negative: %d", amount)
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING balance
	`

	var newBalance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
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
		SET last_lottery_date = $1, daily_lottery_count = $2, updated_at = NOW()
		WHERE user_id = $3
	`

	result, err := r.q.Exec(ctx, query, models.TruncateToDate(playDate), count, userID)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to record play for user %s", userID), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("record play for user %s: %w", userID, models.ErrUserNotFound)
	}

	return nil
}

// PickRandomOther returns a random user other than excludeUserID
func (r *UserRepository) PickRandomOther(ctx context.Context, excludeUserID string) (string, bool, error) {
	query := `
		SELECT user_id
		FROM users
		WHERE user_id <> $1
		ORDER BY random()
		LIMIT 1
	`

	var userID string
	err := r.q.QueryRow(ctx, query, excludeUserID).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapError("failed to pick random user", err)
	}

	return userID, true, nil
}

// Create inserts an account. The lottery never calls it; the CLI seed command and tests do.
func (r *UserRepository) Create(ctx context.Context, userID string, balance int64) error {
	query := `INSERT INTO users (user_id, balance) VALUES ($1, $2)`

	if _, err := r.q.Exec(ctx, query, userID, balance); err != nil {
		return wrapError(fmt.Sprintf("failed to create user %s", userID), err)
	}
	return nil
}
