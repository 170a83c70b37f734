package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lotto/events"
	"lotto/metrics"
	"lotto/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultMaxDailyAttempts = 10
	DefaultHistoryLimit     = 10
	MaxHistoryLimit         = 100
)

// LotteryConfig is the immutable configuration of a lottery service
type LotteryConfig struct {
	MaxDailyAttempts int
	Policy           *Policy
	CurrencyName     string

	// Roller and Now default to RandomRoller and time.Now
	Roller Roller
	Now    func() time.Time
}

type lotteryService struct {
	uowFactory UnitOfWorkFactory
	cfg        LotteryConfig
}

// NewLotteryService creates a new lottery service
func NewLotteryService(uowFactory UnitOfWorkFactory, cfg LotteryConfig) LotteryService {
	if cfg.MaxDailyAttempts <= 0 {
		cfg.MaxDailyAttempts = DefaultMaxDailyAttempts
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultPolicy()
	}
	if cfg.CurrencyName == "" {
		cfg.CurrencyName = "coins"
	}
	if cfg.Roller == nil {
		cfg.Roller = RandomRoller
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &lotteryService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// settlementError marks a failure after eligibility passed
type settlementError struct {
	op  string
	err error
}

func (e *settlementError) Error() string { return e.op + ": " + e.err.Error() }
func (e *settlementError) Unwrap() error { return e.err }

func settleErr(op string, err error) error {
	return &settlementError{op: op, err: err}
}

func (s *lotteryService) Play(ctx context.Context, userID string) *models.PlayResult {
	start := time.Now()

	result, err := s.play(ctx, userID)
	if err != nil {
		result = s.failure(userID, err)
	}

	metrics.ObservePlay(result, time.Since(start))
	return result
}

func (s *lotteryService) play(ctx context.Context, userID string) (*models.PlayResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, settleErr("failed to begin transaction", err)
	}
	defer uow.Rollback() // No-op if already committed

	accounts := uow.AccountRepository()

	user, err := accounts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, settleErr("failed to get user", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	today := GetCurrentPlayDate(s.cfg.Now())
	newCount := 1
	if user.PlayedOn(today) {
		if user.DailyLotteryCount >= s.cfg.MaxDailyAttempts {
			return nil, models.ErrDailyLimitReached
		}
		newCount = user.DailyLotteryCount + 1
	}

	// checked after the limit and without touching the counters
	if user.Balance <= 0 {
		return nil, models.ErrInsufficientBalance
	}

	bet := user.Balance
	if err := accounts.SetBalance(ctx, userID, 0); err != nil {
		return nil, settleErr("failed to take stake", err)
	}

	roll := s.cfg.Roller(s.cfg.Policy.Total())
	rule, err := s.cfg.Policy.Resolve(roll)
	if err != nil {
		return nil, settleErr("failed to resolve roll", err)
	}

	outcome := rule.Kind
	var (
		payout        int64
		target        string
		targetBalance int64
	)

	if rule.Kind == models.OutcomeTransfer {
		other, found, err := accounts.PickRandomOther(ctx, userID)
		if err != nil {
			return nil, settleErr("failed to pick transfer target", err)
		}
		if found {
			target = other
			targetBalance, err = accounts.AddBalance(ctx, target, bet)
			if err != nil {
				return nil, settleErr("failed to credit transfer target", err)
			}
		} else {
			outcome = models.OutcomeTransferRefund
			payout = bet
		}
	} else {
		payout, err = rule.Payout(bet)
		if err != nil {
			return nil, settleErr("failed to compute payout", err)
		}
	}

	var balanceAfter int64
	if payout > 0 {
		balanceAfter, err = accounts.AddBalance(ctx, userID, payout)
		if err != nil {
			return nil, settleErr("failed to credit payout", err)
		}
	}

	if err := accounts.RecordPlay(ctx, userID, today, newCount); err != nil {
		return nil, settleErr("failed to record play", err)
	}

	record := &models.PlayRecord{
		ID:           uuid.New(),
		UserID:       userID,
		Outcome:      outcome,
		Roll:         roll,
		Bet:          bet,
		Payout:       payout,
		BalanceAfter: balanceAfter,
		PlayDate:     today,
		PlayCount:    newCount,
	}
	if target != "" {
		record.TransferTarget = &target
	}
	if err := uow.PlayHistoryRepository().Record(ctx, record); err != nil {
		return nil, settleErr("failed to record play history", err)
	}

	s.publishSettlement(uow.EventBus(), record, targetBalance)

	if err := uow.Commit(); err != nil {
		return nil, settleErr("failed to commit transaction", err)
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"outcome":   outcome,
		"roll":      roll,
		"bet":       bet,
		"payout":    payout,
		"target":    target,
		"playCount": newCount,
	}).Info("Lottery play settled")

	return &models.PlayResult{
		Success:           true,
		Message:           s.outcomeMessage(rule, outcome, bet, target),
		Outcome:           outcome,
		Bet:               bet,
		Payout:            payout,
		ResultingBalance:  balanceAfter,
		RemainingAttempts: s.cfg.MaxDailyAttempts - newCount,
		TransferTarget:    target,
	}, nil
}

func (s *lotteryService) publishSettlement(bus EventPublisher, record *models.PlayRecord, targetBalance int64) {
	playerChange := events.BalanceChangeEvent{
		UserID:          record.UserID,
		OldBalance:      record.Bet,
		NewBalance:      record.BalanceAfter,
		ChangeAmount:    record.BalanceAfter - record.Bet,
		TransactionType: models.TransactionTypeLottoPayout,
	}
	if record.Payout == 0 {
		playerChange.TransactionType = models.TransactionTypeLottoStake
	}

	var target string
	if record.TransferTarget != nil {
		target = *record.TransferTarget
		playerChange.TransactionType = models.TransactionTypeLottoTransferOut
	}
	bus.Publish(playerChange)

	if target != "" {
		bus.Publish(events.BalanceChangeEvent{
			UserID:          target,
			OldBalance:      targetBalance - record.Bet,
			NewBalance:      targetBalance,
			ChangeAmount:    record.Bet,
			TransactionType: models.TransactionTypeLottoTransferIn,
		})
	}

	bus.Publish(events.PlayCompletedEvent{
		PlayID:         record.ID.String(),
		UserID:         record.UserID,
		Outcome:        record.Outcome,
		Bet:            record.Bet,
		Payout:         record.Payout,
		BalanceAfter:   record.BalanceAfter,
		TransferTarget: target,
		PlayCount:      record.PlayCount,
	})
}

var failureMessages = map[models.FailureReason]string{
	models.FailureUserNotFound:        "User does not exist",
	models.FailureDailyLimitReached:   "No attempts left today",
	models.FailureInsufficientBalance: "Insufficient balance",
	models.FailureBusy:                "System busy, please try again later",
	models.FailureSystemError:         "System error",
}

// ClassifyError maps a play error onto the reason reported to the player
func ClassifyError(err error) models.FailureReason {
	var settleErr *settlementError
	switch {
	case errors.Is(err, models.ErrStoreBusy):
		return models.FailureBusy
	case errors.As(err, &settleErr):
		return models.FailureSystemError
	case errors.Is(err, models.ErrUserNotFound):
		return models.FailureUserNotFound
	case errors.Is(err, models.ErrDailyLimitReached):
		return models.FailureDailyLimitReached
	case errors.Is(err, models.ErrInsufficientBalance):
		return models.FailureInsufficientBalance
	}
	return models.FailureSystemError
}

func (s *lotteryService) failure(userID string, err error) *models.PlayResult {
	reason := ClassifyError(err)
	message := failureMessages[reason]

	fields := log.Fields{"user_id": userID, "reason": reason}
	switch reason {
	case models.FailureSystemError:
		log.WithFields(fields).WithError(err).Error("Lottery play failed")
	case models.FailureBusy:
		log.WithFields(fields).WithError(err).Warn("Lottery play rejected, ledger busy")
	default:
		log.WithFields(fields).Debug("Lottery play not eligible")
	}

	if reason == models.FailureDailyLimitReached {
		now := s.cfg.Now()
		wait := GetNextResetTime(now).Sub(now).Round(time.Minute)
		message = fmt.Sprintf("%s, attempts reset in %s", message, formatWait(wait))
	}

	return &models.PlayResult{
		Success: false,
		Message: message,
		Reason:  reason,
	}
}

func (s *lotteryService) outcomeMessage(rule OutcomeRule, outcome models.OutcomeKind, bet int64, target string) string {
	switch outcome {
	case models.OutcomeLoss:
		return fmt.Sprintf("Lost it all! Every one of your %s is gone", s.cfg.CurrencyName)
	case models.OutcomeRefund:
		return "Solid as a rock! Your stake comes back untouched"
	case models.OutcomeDouble:
		return fmt.Sprintf("A little lucky! Your stake is multiplied by %d", rule.Multiplier)
	case models.OutcomeJackpot:
		return fmt.Sprintf("Jackpot! Your stake is multiplied by %d!", rule.Multiplier)
	case models.OutcomeTransfer:
		return fmt.Sprintf("Stars shifted! %d %s moved to user [%s]", bet, s.cfg.CurrencyName, MaskUserID(target))
	case models.OutcomeTransferRefund:
		return fmt.Sprintf("Stars shifted, but nobody else is here. Your %s are refunded", s.cfg.CurrencyName)
	}
	return string(outcome)
}

// MaskUserID keeps the first four characters of a user ID
func MaskUserID(userID string) string {
	runes := []rune(userID)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return string(runes) + "****"
}

func formatWait(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

// Rules renders the help text from the live outcome table and limit
func (s *lotteryService) Rules() string {
	var b strings.Builder

	b.WriteString("🎰 Lottery rules\n\n")
	b.WriteString("1. Entry:\n")
	fmt.Fprintf(&b, "- Each user may play at most %d times per day (UTC).\n", s.cfg.MaxDailyAttempts)
	fmt.Fprintf(&b, "- Every play stakes your entire %s balance.\n\n", s.cfg.CurrencyName)

	b.WriteString("2. Outcomes:\n")
	total := s.cfg.Policy.Total()
	for _, rule := range s.cfg.Policy.Rules() {
		if rule.Weight == 0 {
			continue
		}
		pct := float64(rule.Weight) * 100 / float64(total)
		fmt.Fprintf(&b, "- %s chance: %s\n", formatPercent(pct), describeRule(rule))
	}

	b.WriteString("\n3. Balance:\n")
	b.WriteString("- A balance of 0 cannot play and does not use up an attempt.\n")

	return b.String()
}

func describeRule(rule OutcomeRule) string {
	switch rule.Kind {
	case models.OutcomeLoss:
		return "lose the whole stake"
	case models.OutcomeRefund:
		return "stake refunded"
	case models.OutcomeDouble, models.OutcomeJackpot:
		return fmt.Sprintf("stake returned %dx", rule.Multiplier)
	case models.OutcomeTransfer:
		return "stake moves to a random other user (refunded if there is nobody else)"
	}
	return string(rule.Kind)
}

func formatPercent(pct float64) string {
	if pct == float64(int64(pct)) {
		return fmt.Sprintf("%d%%", int64(pct))
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// History returns the most recent plays of a user, newest first
func (s *lotteryService) History(ctx context.Context, userID string, limit int) ([]*models.PlayRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.AccountRepository().GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	plays, err := uow.PlayHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get play history: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plays, nil
}
