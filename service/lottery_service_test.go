package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"lotto/events"
	"lotto/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

type lotteryMocks struct {
	factory   *MockUnitOfWorkFactory
	uow       *MockUnitOfWork
	accounts  *MockAccountRepository
	history   *MockPlayHistoryRepository
	publisher *MockEventPublisher
}

func newLotteryMocks() *lotteryMocks {
	m := &lotteryMocks{
		factory:   new(MockUnitOfWorkFactory),
		uow:       new(MockUnitOfWork),
		accounts:  new(MockAccountRepository),
		history:   new(MockPlayHistoryRepository),
		publisher: new(MockEventPublisher),
	}
	m.uow.SetRepositories(m.accounts, m.history, m.publisher)
	m.factory.On("Create").Return(m.uow)
	return m
}

func (m *lotteryMocks) service(rolls ...int) LotteryService {
	return NewLotteryService(m.factory, LotteryConfig{
		MaxDailyAttempts: 10,
		Policy:           DefaultPolicy(),
		Roller:           FixedRoller(rolls...),
		Now:              func() time.Time { return testNow },
	})
}

func (m *lotteryMocks) assertAll(t *testing.T) {
	m.factory.AssertExpectations(t)
	m.uow.AssertExpectations(t)
	m.accounts.AssertExpectations(t)
	m.history.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

// expectSettlement sets up the calls every settled play makes
func (m *lotteryMocks) expectSettlement(ctx context.Context, userID string, count int) {
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.accounts.On("SetBalance", ctx, userID, int64(0)).Return(nil)
	m.accounts.On("RecordPlay", ctx, userID, GetCurrentPlayDate(testNow), count).Return(nil)
	m.publisher.On("Publish", mock.Anything).Return()
}

func todayDate() *time.Time {
	d := GetCurrentPlayDate(testNow)
	return &d
}

func yesterdayDate() *time.Time {
	d := GetCurrentPlayDate(testNow).AddDate(0, 0, -1)
	return &d
}

func TestLotteryService_Play_Outcomes(t *testing.T) {
	tests := []struct {
		name       string
		roll       int
		bet        int64
		outcome    models.OutcomeKind
		payout     int64
		messageHas string
	}{
		{"loss", 1, 1000, models.OutcomeLoss, 0, "Lost it all"},
		{"refund", 60, 1000, models.OutcomeRefund, 1000, "Solid as a rock"},
		{"double", 75, 1000, models.OutcomeDouble, 2000, "multiplied by 2"},
		{"jackpot", 100, 1000, models.OutcomeJackpot, 10000, "Jackpot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newLotteryMocks()
			m.expectSettlement(ctx, "user-1", 1)

			m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{UserID: "user-1", Balance: tt.bet}, nil)
			if tt.payout > 0 {
				m.accounts.On("AddBalance", ctx, "user-1", tt.payout).Return(tt.payout, nil)
			}
			m.history.On("Record", ctx, mock.MatchedBy(func(p *models.PlayRecord) bool {
				return p.UserID == "user-1" &&
					p.Outcome == tt.outcome &&
					p.Roll == tt.roll &&
					p.Bet == tt.bet &&
					p.Payout == tt.payout &&
					p.BalanceAfter == tt.payout &&
					p.PlayCount == 1 &&
					p.TransferTarget == nil
			})).Return(nil)

			result := m.service(tt.roll).Play(ctx, "user-1")

			require.True(t, result.Success, result.Message)
			assert.Equal(t, tt.outcome, result.Outcome)
			assert.Equal(t, tt.bet, result.Bet)
			assert.Equal(t, tt.payout, result.Payout)
			assert.Equal(t, tt.payout, result.ResultingBalance)
			assert.Equal(t, 9, result.RemainingAttempts)
			assert.Contains(t, result.Message, tt.messageHas)
			m.assertAll(t)
		})
	}
}

func TestLotteryService_Play_Transfer(t *testing.T) {
	ctx := context.Background()
	m := newLotteryMocks()
	m.expectSettlement(ctx, "12345678", 1)

	m.accounts.On("GetByUserID", ctx, "12345678").Return(&models.User{UserID: "12345678", Balance: 700}, nil)
	m.accounts.On("PickRandomOther", ctx, "12345678").Return("98765432", true, nil)
	m.accounts.On("AddBalance", ctx, "98765432", int64(700)).Return(int64(900), nil)
	m.history.On("Record", ctx, mock.MatchedBy(func(p *models.PlayRecord) bool {
		return p.Outcome == models.OutcomeTransfer &&
			p.Payout == 0 &&
			p.TransferTarget != nil && *p.TransferTarget == "98765432"
	})).Return(nil)

	result := m.service(90).Play(ctx, "12345678")

	require.True(t, result.Success)
	assert.Equal(t, models.OutcomeTransfer, result.Outcome)
	assert.Equal(t, int64(700), result.Bet)
	assert.Equal(t, int64(0), result.Payout)
	assert.Equal(t, int64(0), result.ResultingBalance)
	assert.Equal(t, "98765432", result.TransferTarget)
	assert.Contains(t, result.Message, "[9876****]")
	assert.NotContains(t, result.Message, "98765432")

	// player never credited
	m.accounts.AssertNotCalled(t, "AddBalance", ctx, "12345678", mock.Anything)

	m.publisher.AssertCalled(t, "Publish", events.BalanceChangeEvent{
		UserID:          "98765432",
		OldBalance:      200,
		NewBalance:      900,
		ChangeAmount:    700,
		TransactionType: models.TransactionTypeLottoTransferIn,
	})
	m.publisher.AssertCalled(t, "Publish", events.BalanceChangeEvent{
		UserID:          "12345678",
		OldBalance:      700,
		NewBalance:      0,
		ChangeAmount:    -700,
		TransactionType: models.TransactionTypeLottoTransferOut,
	})
	m.assertAll(t)
}

func TestLotteryService_Play_TransferWithoutOtherUser(t *testing.T) {
	ctx := context.Background()
	m := newLotteryMocks()
	m.expectSettlement(ctx, "solo", 1)

	m.accounts.On("GetByUserID", ctx, "solo").Return(&models.User{UserID: "solo", Balance: 300}, nil)
	m.accounts.On("PickRandomOther", ctx, "solo").Return("", false, nil)
	m.accounts.On("AddBalance", ctx, "solo", int64(300)).Return(int64(300), nil)
	m.history.On("Record", ctx, mock.Anything).Return(nil)

	result := m.service(81).Play(ctx, "solo")

	require.True(t, result.Success)
	assert.Equal(t, models.OutcomeTransferRefund, result.Outcome)
	assert.Equal(t, int64(300), result.Payout)
	assert.Equal(t, int64(300), result.ResultingBalance)
	assert.Empty(t, result.TransferTarget)
	m.assertAll(t)
}

func TestLotteryService_Play_DailyCounter(t *testing.T) {
	tests := []struct {
		name          string
		lastPlay      *time.Time
		count         int
		wantCount     int
		wantRemaining int
	}{
		{"first play ever", nil, 0, 1, 9},
		{"same day increments", todayDate(), 3, 4, 6},
		{"last allowed attempt", todayDate(), 9, 10, 0},
		{"new day resets even at limit", yesterdayDate(), 10, 1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newLotteryMocks()
			m.expectSettlement(ctx, "user-1", tt.wantCount)

			m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{
				UserID:            "user-1",
				Balance:           100,
				LastLotteryDate:   tt.lastPlay,
				DailyLotteryCount: tt.count,
			}, nil)
			m.history.On("Record", ctx, mock.MatchedBy(func(p *models.PlayRecord) bool {
				return p.PlayCount == tt.wantCount
			})).Return(nil)

			result := m.service(1).Play(ctx, "user-1")

			require.True(t, result.Success)
			assert.Equal(t, tt.wantRemaining, result.RemainingAttempts)
			m.assertAll(t)
		})
	}
}

func TestLotteryService_Play_Ineligible(t *testing.T) {
	tests := []struct {
		name   string
		user   *models.User
		reason models.FailureReason
	}{
		{"user not found", nil, models.FailureUserNotFound},
		{
			"daily limit reached",
			&models.User{UserID: "user-1", Balance: 100, LastLotteryDate: todayDate(), DailyLotteryCount: 10},
			models.FailureDailyLimitReached,
		},
		{
			"zero balance",
			&models.User{UserID: "user-1", Balance: 0},
			models.FailureInsufficientBalance,
		},
		{
			"zero balance does not consume attempt",
			&models.User{UserID: "user-1", Balance: 0, LastLotteryDate: todayDate(), DailyLotteryCount: 5},
			models.FailureInsufficientBalance,
		},
		{
			// limit is checked before balance
			"limit and zero balance",
			&models.User{UserID: "user-1", Balance: 0, LastLotteryDate: todayDate(), DailyLotteryCount: 10},
			models.FailureDailyLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newLotteryMocks()
			m.uow.On("Begin", ctx).Return(nil)
			m.uow.On("Rollback").Return(nil)
			m.accounts.On("GetByUserID", ctx, "user-1").Return(tt.user, nil)

			result := m.service(1).Play(ctx, "user-1")

			assert.False(t, result.Success)
			assert.Equal(t, tt.reason, result.Reason)
			assert.NotEmpty(t, result.Message)

			m.uow.AssertNotCalled(t, "Commit")
			m.accounts.AssertNotCalled(t, "SetBalance", mock.Anything, mock.Anything, mock.Anything)
			m.accounts.AssertNotCalled(t, "RecordPlay", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			m.publisher.AssertNotCalled(t, "Publish", mock.Anything)
			m.assertAll(t)
		})
	}
}

func TestLotteryService_Play_DailyLimitMessage(t *testing.T) {
	ctx := context.Background()
	m := newLotteryMocks()
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{
		UserID: "user-1", Balance: 100, LastLotteryDate: todayDate(), DailyLotteryCount: 10,
	}, nil)

	result := m.service(1).Play(ctx, "user-1")

	// testNow is 14:00 UTC
	assert.Equal(t, "No attempts left today, attempts reset in 10h00m", result.Message)
}

func TestLotteryService_Play_Failures(t *testing.T) {
	busy := fmt.Errorf("lock wait: %w", models.ErrStoreBusy)

	tests := []struct {
		name   string
		setup  func(ctx context.Context, m *lotteryMocks)
		reason models.FailureReason
	}{
		{
			name: "busy at begin",
			setup: func(ctx context.Context, m *lotteryMocks) {
				m.uow.On("Begin", ctx).Return(busy)
			},
			reason: models.FailureBusy,
		},
		{
			name: "busy reading player",
			setup: func(ctx context.Context, m *lotteryMocks) {
				m.uow.On("Begin", ctx).Return(nil)
				m.uow.On("Rollback").Return(nil)
				m.accounts.On("GetByUserID", ctx, "user-1").Return(nil, busy)
			},
			reason: models.FailureBusy,
		},
		{
			name: "store fault reading player",
			setup: func(ctx context.Context, m *lotteryMocks) {
				m.uow.On("Begin", ctx).Return(nil)
				m.uow.On("Rollback").Return(nil)
				m.accounts.On("GetByUserID", ctx, "user-1").Return(nil, errors.New("connection reset"))
			},
			reason: models.FailureSystemError,
		},
		{
			name: "stake deduction fails",
			setup: func(ctx context.Context, m *lotteryMocks) {
				m.uow.On("Begin", ctx).Return(nil)
				m.uow.On("Rollback").Return(nil)
				m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{UserID: "user-1", Balance: 100}, nil)
				m.accounts.On("SetBalance", ctx, "user-1", int64(0)).Return(errors.New("disk full"))
			},
			reason: models.FailureSystemError,
		},
		{
			name: "transfer target vanished",
			setup: func(ctx context.Context, m *lotteryMocks) {
				m.uow.On("Begin", ctx).Return(nil)
				m.uow.On("Rollback").Return(nil)
				m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{UserID: "user-1", Balance: 100}, nil)
				m.accounts.On("SetBalance", ctx, "user-1", int64(0)).Return(nil)
				m.accounts.On("PickRandomOther", ctx, "user-1").Return("user-2", true, nil)
				m.accounts.On("AddBalance", ctx, "user-2", int64(100)).
					Return(int64(0), fmt.Errorf("add balance: %w", models.ErrUserNotFound))
			},
			reason: models.FailureSystemError,
		},
		{
			name: "deadlock crediting transfer target",
			setup: func(ctx context.Context, m *lotteryMocks) {
				m.uow.On("Begin", ctx).Return(nil)
				m.uow.On("Rollback").Return(nil)
				m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{UserID: "user-1", Balance: 100}, nil)
				m.accounts.On("SetBalance", ctx, "user-1", int64(0)).Return(nil)
				m.accounts.On("PickRandomOther", ctx, "user-1").Return("user-2", true, nil)
				m.accounts.On("AddBalance", ctx, "user-2", int64(100)).Return(int64(0), busy)
			},
			reason: models.FailureBusy,
		},
		{
			name: "history insert fails",
			setup: func(ctx context.Context, m *lotteryMocks) {
				m.uow.On("Begin", ctx).Return(nil)
				m.uow.On("Rollback").Return(nil)
				m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{UserID: "user-1", Balance: 100}, nil)
				m.accounts.On("SetBalance", ctx, "user-1", int64(0)).Return(nil)
				m.accounts.On("PickRandomOther", ctx, "user-1").Return("user-2", true, nil)
				m.accounts.On("AddBalance", ctx, "user-2", int64(100)).Return(int64(100), nil)
				m.accounts.On("RecordPlay", ctx, "user-1", GetCurrentPlayDate(testNow), 1).Return(nil)
				m.history.On("Record", ctx, mock.Anything).Return(errors.New("constraint violation"))
			},
			reason: models.FailureSystemError,
		},
		{
			name: "commit fails",
			setup: func(ctx context.Context, m *lotteryMocks) {
				m.uow.On("Begin", ctx).Return(nil)
				m.uow.On("Rollback").Return(nil)
				m.uow.On("Commit").Return(errors.New("commit failed"))
				m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{UserID: "user-1", Balance: 100}, nil)
				m.accounts.On("SetBalance", ctx, "user-1", int64(0)).Return(nil)
				m.accounts.On("PickRandomOther", ctx, "user-1").Return("user-2", true, nil)
				m.accounts.On("AddBalance", ctx, "user-2", int64(100)).Return(int64(100), nil)
				m.accounts.On("RecordPlay", ctx, "user-1", GetCurrentPlayDate(testNow), 1).Return(nil)
				m.history.On("Record", ctx, mock.Anything).Return(nil)
				m.publisher.On("Publish", mock.Anything).Return()
			},
			reason: models.FailureSystemError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			m := newLotteryMocks()
			tt.setup(ctx, m)

			// roll 90 is a transfer
			result := m.service(90).Play(ctx, "user-1")

			assert.False(t, result.Success)
			assert.Equal(t, tt.reason, result.Reason)
			m.assertAll(t)
		})
	}
}

func TestLotteryService_Play_PayoutOverflow(t *testing.T) {
	ctx := context.Background()
	m := newLotteryMocks()
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.accounts.On("GetByUserID", ctx, "whale").Return(&models.User{UserID: "whale", Balance: math.MaxInt64 / 5}, nil)
	m.accounts.On("SetBalance", ctx, "whale", int64(0)).Return(nil)

	result := m.service(100).Play(ctx, "whale")

	assert.False(t, result.Success)
	assert.Equal(t, models.FailureSystemError, result.Reason)
	m.uow.AssertNotCalled(t, "Commit")
	m.assertAll(t)
}

func TestLotteryService_Rules(t *testing.T) {
	m := newLotteryMocks()
	rules := m.service().Rules()

	assert.Contains(t, rules, "at most 10 times per day")
	assert.Contains(t, rules, "50% chance: lose the whole stake")
	assert.Contains(t, rules, "20% chance: stake refunded")
	assert.Contains(t, rules, "10% chance: stake returned 2x")
	assert.Contains(t, rules, "19% chance: stake moves to a random other user")
	assert.Contains(t, rules, "1% chance: stake returned 10x")
	assert.Contains(t, rules, "balance of 0 cannot play")

	policy, err := ParsePolicy("loss:60,refund:25,double:15")
	require.NoError(t, err)
	custom := NewLotteryService(m.factory, LotteryConfig{MaxDailyAttempts: 3, Policy: policy})

	assert.Contains(t, custom.Rules(), "at most 3 times per day")
	assert.NotContains(t, custom.Rules(), "random other user")
}

func TestLotteryService_History(t *testing.T) {
	ctx := context.Background()
	m := newLotteryMocks()
	plays := []*models.PlayRecord{{UserID: "user-1", Outcome: models.OutcomeLoss}}

	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil)
	m.uow.On("Rollback").Return(nil)
	m.accounts.On("GetByUserID", ctx, "user-1").Return(&models.User{UserID: "user-1"}, nil)
	m.accounts.On("GetByUserID", ctx, "ghost").Return(nil, nil)
	m.history.On("GetByUser", ctx, "user-1", MaxHistoryLimit).Return(plays, nil)

	svc := m.service()

	got, err := svc.History(ctx, "user-1", 1000)
	require.NoError(t, err)
	assert.Equal(t, plays, got)

	_, err = svc.History(ctx, "ghost", 5)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want models.FailureReason
	}{
		{models.ErrUserNotFound, models.FailureUserNotFound},
		{models.ErrDailyLimitReached, models.FailureDailyLimitReached},
		{models.ErrInsufficientBalance, models.FailureInsufficientBalance},
		{fmt.Errorf("x: %w", models.ErrStoreBusy), models.FailureBusy},
		{settleErr("credit", fmt.Errorf("x: %w", models.ErrStoreBusy)), models.FailureBusy},
		{settleErr("credit", models.ErrUserNotFound), models.FailureSystemError},
		{errors.New("boom"), models.FailureSystemError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), tt.err.Error())
	}
}

func TestMaskUserID(t *testing.T) {
	assert.Equal(t, "1234****", MaskUserID("12345678"))
	assert.Equal(t, "ab****", MaskUserID("ab"))
	assert.Equal(t, "猫猫猫猫****", MaskUserID("猫猫猫猫猫"))
}
