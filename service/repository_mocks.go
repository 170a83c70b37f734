package service

import (
	"context"
	"time"

	"lotto/events"
	"lotto/models"

	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAccountRepository) SetBalance(ctx context.Context, userID string, amount int64) error {
	args := m.Called(ctx, userID, amount)
	return args.Error(0)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, userID string, amount int64) (int64, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) RecordPlay(ctx context.Context, userID string, playDate time.Time, count int) error {
	args := m.Called(ctx, userID, playDate, count)
	return args.Error(0)
}

func (m *MockAccountRepository) PickRandomOther(ctx context.Context, excludeUserID string) (string, bool, error) {
	args := m.Called(ctx, excludeUserID)
	return args.String(0), args.Bool(1), args.Error(2)
}

// MockPlayHistoryRepository is a mock implementation of PlayHistoryRepository
type MockPlayHistoryRepository struct {
	mock.Mock
}

func (m *MockPlayHistoryRepository) Record(ctx context.Context, play *models.PlayRecord) error {
	args := m.Called(ctx, play)
	return args.Error(0)
}

func (m *MockPlayHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.PlayRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PlayRecord), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	accountRepo     AccountRepository
	playHistoryRepo PlayHistoryRepository
	eventBus        EventPublisher
}

// SetRepositories wires the repositories the mock hands out
func (m *MockUnitOfWork) SetRepositories(accountRepo AccountRepository, playHistoryRepo PlayHistoryRepository, eventBus EventPublisher) {
	m.accountRepo = accountRepo
	m.playHistoryRepo = playHistoryRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository {
	return m.accountRepo
}

func (m *MockUnitOfWork) PlayHistoryRepository() PlayHistoryRepository {
	return m.playHistoryRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
