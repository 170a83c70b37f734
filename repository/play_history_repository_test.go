package repository

import (
	"context"
	"testing"
	"time"

	"lotto/models"
	"lotto/repository/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayHistoryRepository_RecordAndGetByUser(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewPlayHistoryRepository(testDB.DB)
	ctx := context.Background()

	testutil.SeedUsers(t, testDB.DB,
		testutil.CreateTestUserWithBalance("11112222", 0),
		testutil.CreateTestUserWithBalance("33334444", 0),
	)

	day := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	target := "33334444"
	first := &models.PlayRecord{
		UserID: "11112222", Outcome: models.OutcomeDouble, Roll: 75,
		Bet: 100, Payout: 200, BalanceAfter: 200, PlayDate: day, PlayCount: 1,
	}
	second := &models.PlayRecord{
		UserID: "11112222", Outcome: models.OutcomeTransfer, Roll: 90,
		Bet: 200, BalanceAfter: 0, TransferTarget: &target, PlayDate: day, PlayCount: 2,
	}

	require.NoError(t, repo.Record(ctx, first))
	require.NoError(t, repo.Record(ctx, second))
	assert.NotEqual(t, uuid.Nil, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	plays, err := repo.GetByUser(ctx, "11112222", 10)
	require.NoError(t, err)
	require.Len(t, plays, 2)

	assert.Equal(t, second.ID, plays[0].ID)
	assert.Equal(t, models.OutcomeTransfer, plays[0].Outcome)
	require.NotNil(t, plays[0].TransferTarget)
	assert.Equal(t, target, *plays[0].TransferTarget)
	assert.Equal(t, 2, plays[0].PlayCount)
	assert.True(t, models.SameDate(day, plays[0].PlayDate))

	assert.Equal(t, first.ID, plays[1].ID)
	assert.Nil(t, plays[1].TransferTarget)
	assert.Equal(t, int64(200), plays[1].Payout)

	limited, err := repo.GetByUser(ctx, "11112222", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.GetByUser(ctx, "33334444", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
