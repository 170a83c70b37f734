package testutil

import (
	"context"
	"testing"
	"time"

	"lotto/database"
	"lotto/models"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// CreateTestUser creates a test account with default values
func CreateTestUser(userID string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		UserID:    userID,
		Balance:   1000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestUserWithBalance creates a test account with a specific balance
func CreateTestUserWithBalance(userID string, balance int64) *models.User {
	user := CreateTestUser(userID)
	user.Balance = balance
	return user
}

// WithLastPlay sets the play counters of a test account
func WithLastPlay(user *models.User, day time.Time, count int) *models.User {
	date := models.TruncateToDate(day)
	user.LastLotteryDate = &date
	user.DailyLotteryCount = count
	return user
}

// SeedUsers inserts accounts directly, since the ledger never creates them itself
func SeedUsers(t *testing.T, db *database.DB, users ...*models.User) {
	t.Helper()

	err := db.WithTransaction(context.Background(), func(tx pgx.Tx) error {
		for _, u := range users {
			_, err := tx.Exec(context.Background(), `
				INSERT INTO users (user_id, balance, last_lottery_date, daily_lottery_count)
				VALUES ($1, $2, $3, $4)
			`, u.UserID, u.Balance, u.LastLotteryDate, u.DailyLotteryCount)
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

// TotalBalance sums every account balance
func TotalBalance(t *testing.T, db *database.DB) int64 {
	t.Helper()

	var total int64
	err := db.QueryRow(context.Background(), "SELECT COALESCE(SUM(balance), 0) FROM users").Scan(&total)
	require.NoError(t, err)
	return total
}
