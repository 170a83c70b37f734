package service

import (
	"time"

	"lotto/models"
)

// GetCurrentPlayDate returns the UTC calendar date a play at now counts towards
func GetCurrentPlayDate(now time.Time) time.Time {
	return models.TruncateToDate(now)
}

// GetNextResetTime returns the next UTC midnight, when daily attempts start over
func GetNextResetTime(now time.Time) time.Time {
	return GetCurrentPlayDate(now).AddDate(0, 0, 1)
}
