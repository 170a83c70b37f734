package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lotto/database"
	"lotto/models"

	"github.com/google/uuid"
)

// PlayHistoryRepository implements service.PlayHistoryRepository on SQLite
type PlayHistoryRepository struct {
	q queryable
}

// NewPlayHistoryRepository creates a play history repository outside of any transaction
func NewPlayHistoryRepository(db *database.SQLiteDB) *PlayHistoryRepository {
	return &PlayHistoryRepository{q: db.DB}
}

func newPlayHistoryRepositoryWithTx(tx queryable) *PlayHistoryRepository {
	return &PlayHistoryRepository{q: tx}
}

// Record appends a play to the journal, assigning an ID if it has none
func (r *PlayHistoryRepository) Record(ctx context.Context, play *models.PlayRecord) error {
	if play.ID == uuid.Nil {
		play.ID = uuid.New()
	}
	if play.CreatedAt.IsZero() {
		play.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO lottery_plays
		(id, user_id, outcome, roll, bet, payout, balance_after, transfer_target, play_date, play_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.q.ExecContext(ctx, query,
		play.ID.String(),
		play.UserID,
		string(play.Outcome),
		play.Roll,
		play.Bet,
		play.Payout,
		play.BalanceAfter,
		play.TransferTarget,
		formatDate(play.PlayDate),
		play.PlayCount,
		formatTimestamp(play.CreatedAt),
	)
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
		WHERE user_id = ?
		ORDER BY created_at DESC, play_date DESC, play_count DESC
		LIMIT ?
	`

	rows, err := r.q.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("failed to get plays for user %s", userID), err)
	}
	defer rows.Close()

	var plays []*models.PlayRecord
	for rows.Next() {
		var (
			play      models.PlayRecord
			id        string
			outcome   string
			target    sql.NullString
			playDate  string
			createdAt string
		)
		err := rows.Scan(
			&id,
			&play.UserID,
			&outcome,
			&play.Roll,
			&play.Bet,
			&play.Payout,
			&play.BalanceAfter,
			&target,
			&playDate,
			&play.PlayCount,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}

		if play.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid play id %q: %w", id, err)
		}
		if play.PlayDate, err = parseDate(playDate); err != nil {
			return nil, err
		}
		if play.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		play.Outcome = models.OutcomeKind(outcome)
		if target.Valid {
			play.TransferTarget = &target.String
		}

		plays = append(plays, &play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plays: %w", err)
	}

	return plays, nil
}
