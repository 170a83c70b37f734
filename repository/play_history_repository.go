package repository

import (
	"context"
	"fmt"

	"lotto/database"
	"lotto/models"

	"github.com/google/uuid"
)

// PlayHistoryRepository implements service.PlayHistoryRepository on PostgreSQL
type PlayHistoryRepository struct {
	q queryable
}

// NewPlayHistoryRepository creates a play history repository outside of any transaction
func NewPlayHistoryRepository(db *database.DB) *PlayHistoryRepository {
	return &PlayHistoryRepository{q: db.Pool}
}

func newPlayHistoryRepositoryWithTx(tx queryable) *PlayHistoryRepository {
	return &PlayHistoryRepository{q: tx}
}

// Record appends a play to the journal, assigning an ID if it has none
func (r *PlayHistoryRepository) Record(ctx context.Context, play *models.PlayRecord) error {
	if play.ID == uuid.Nil {
		play.ID = uuid.New()
	}

	query := `
		INSERT INTO lottery_plays
		(id, user_id, outcome, roll, bet, payout, balance_after, transfer_target, play_date, play_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		play.ID,
		play.UserID,
		string(play.Outcome),
		play.Roll,
		play.Bet,
		play.Payout,
		play.BalanceAfter,
		play.TransferTarget,
		models.TruncateToDate(play.PlayDate),
		play.PlayCount,
	).Scan(&play.CreatedAt)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to record play for user %s", play.UserID), err)
	}

	return nil
}

// GetByUser returns the most recent plays of a user
func (r *PlayHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.PlayRecord, error) {
	query := `
		SELECT id, user_id, outcome, roll, bet, payout, balance_after, transfer_target,
		       play_date, play_count, created_at
		FROM lottery_plays
		WHERE user_id = $1
		ORDER BY created_at DESC, play_count DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("failed to get plays for user %s", userID), err)
	}
	defer rows.Close()

	var plays []*models.PlayRecord
	for rows.Next() {
		var play models.PlayRecord
		var outcome string
		err := rows.Scan(
			&play.ID,
			&play.UserID,
			&outcome,
			&play.Roll,
			&play.Bet,
			&play.Payout,
			&play.BalanceAfter,
			&play.TransferTarget,
			&play.PlayDate,
			&play.PlayCount,
			&play.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		play.Outcome = models.OutcomeKind(outcome)
		plays = append(plays, &play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plays: %w", err)
	}

	return plays, nil
}
