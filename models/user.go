package models

import (
	"time"
)

// User represents a ledger account keyed by an opaque user ID
type User struct {
	UserID            string     `db:"user_id"`
	Balance           int64      `db:"balance"`
	LastLotteryDate   *time.Time `db:"last_lottery_date"` // UTC calendar date of the last successful play
	DailyLotteryCount int        `db:"daily_lottery_count"`
	CreatedAt         time.Time  `db:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at"`
}

// PlayedOn reports whether the user's last recorded play falls on the given UTC date
func (u *User) PlayedOn(day time.Time) bool {
	if u.LastLotteryDate == nil {
		return false
	}
	return SameDate(*u.LastLotteryDate, day)
}

// SameDate compares two instants by UTC calendar date
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// TruncateToDate returns midnight UTC of the given instant's UTC date
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
