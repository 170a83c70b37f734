package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lotto/database"
	"lotto/models"

	"github.com/stretchr/testify/require"
)

// SetupSQLiteDatabase creates a migrated SQLite file under t.TempDir
func SetupSQLiteDatabase(t *testing.T, busyTimeout time.Duration) *database.SQLiteDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lotto.db")
	err := database.MigrateUp(database.MigrationTarget{Driver: database.DriverSQLite, DSN: path})
	require.NoError(t, err)

	db, err := database.OpenSQLite(context.Background(), path, busyTimeout)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// SeedSQLiteUsers inserts accounts into a SQLite ledger
func SeedSQLiteUsers(t *testing.T, db *database.SQLiteDB, users ...*models.User) {
	t.Helper()

	for _, u := range users {
		var lastPlay any
		if u.LastLotteryDate != nil {
			lastPlay = u.LastLotteryDate.UTC().Format("2006-01-02")
		}
		_, err := db.ExecContext(context.Background(), `
			INSERT INTO users (user_id, balance, last_lottery_date, daily_lottery_count)
			VALUES (?, ?, ?, ?)
		`, u.UserID, u.Balance, lastPlay, u.DailyLotteryCount)
		require.NoError(t, err)
	}
}

// SQLiteTotalBalance sums every account balance in a SQLite ledger
func SQLiteTotalBalance(t *testing.T, db *database.SQLiteDB) int64 {
	t.Helper()

	var total int64
	err := db.QueryRowContext(context.Background(), "SELECT COALESCE(SUM(balance), 0) FROM users").Scan(&total)
	require.NoError(t, err)
	return total
}
