package service

import (
	"context"
	"time"

	"bookie/events"
	"bookie/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, username string, initialBalance decimal.Decimal) (*models.User, error) {
	args := m.Called(ctx, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) DebitIfSufficient(ctx context.Context, username string, stake decimal.Decimal) (*models.User, error) {
	args := m.Called(ctx, username, stake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Credit(ctx context.Context, username string, amount decimal.Decimal) (*models.User, error) {
	args := m.Called(ctx, username, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ApplyLedgerDeltas(ctx context.Context, username string, profitDelta, lossesDelta decimal.Decimal) (*models.User, error) {
	args := m.Called(ctx, username, profitDelta, lossesDelta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRank(ctx context.Context, username string, rank int) error {
	args := m.Called(ctx, username, rank)
	return args.Error(0)
}

func (m *MockUserRepository) CountProfitGreaterThan(ctx context.Context, profit decimal.Decimal) (int, error) {
	args := m.Called(ctx, profit)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockUserRepository) Leaderboard(ctx context.Context, offset, limit int) ([]*models.User, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// MockWagerRepository is a mock implementation of WagerRepository
type MockWagerRepository struct {
	mock.Mock
}

func (m *MockWagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockWagerRepository) GetByID(ctx context.Context, id string) (*models.Wager, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetActiveByEventID(ctx context.Context, eventID string) ([]*models.Wager, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) GetByUser(ctx context.Context, username string, limit int) ([]*models.Wager, error) {
	args := m.Called(ctx, username, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Wager), args.Error(1)
}

func (m *MockWagerRepository) CountActiveByUser(ctx context.Context, username string) (int, error) {
	args := m.Called(ctx, username)
	return args.Int(0), args.Error(1)
}

func (m *MockWagerRepository) SettleLeg(ctx context.Context, legID int64, outcome models.LegOutcome) (bool, error) {
	args := m.Called(ctx, legID, outcome)
	return args.Bool(0), args.Error(1)
}

func (m *MockWagerRepository) Settle(ctx context.Context, id string, outcome models.WagerOutcome, payout, profit decimal.Decimal, settledAt time.Time) (bool, error) {
	args := m.Called(ctx, id, outcome, payout, profit, settledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockWagerRepository) Cancel(ctx context.Context, id string, cancelledAt time.Time) (bool, error) {
	args := m.Called(ctx, id, cancelledAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockWagerRepository) DailyProfit(ctx context.Context, username string, from, to time.Time) ([]*models.DailyProfit, error) {
	args := m.Called(ctx, username, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DailyProfit), args.Error(1)
}

// MockLedgerEntryRepository is a mock implementation of LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) GetByUser(ctx context.Context, username string, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, username, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) GetByDateRange(ctx context.Context, username string, from, to time.Time) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, username, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockEventFeed is a mock implementation of EventFeed for testing
type MockEventFeed struct {
	mock.Mock
}

func (m *MockEventFeed) CommenceTimes(ctx context.Context, sportKey string, eventIDs []string) (map[string]time.Time, error) {
	args := m.Called(ctx, sportKey, eventIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]time.Time), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// noopPublisher discards events; used when a test does not care about them
type noopPublisher struct{}

func (noopPublisher) Publish(events.Event) {}

// MockRankCalculator is a mock implementation of RankCalculator
type MockRankCalculator struct {
	mock.Mock
}

func (m *MockRankCalculator) Recompute(ctx context.Context, username string) (*models.RankStanding, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RankStanding), args.Error(1)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// provided via SetRepositories; Begin/Commit/Rollback go through expectations.
type MockUnitOfWork struct {
	mock.Mock
	userRepo   UserRepository
	wagerRepo  WagerRepository
	ledgerRepo LedgerEntryRepository
	eventBus   EventPublisher
}

func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, wagerRepo WagerRepository, ledgerRepo LedgerEntryRepository) {
	m.userRepo = userRepo
	m.wagerRepo = wagerRepo
	m.ledgerRepo = ledgerRepo
}

func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
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

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) WagerRepository() WagerRepository {
	return m.wagerRepo
}

func (m *MockUnitOfWork) LedgerEntryRepository() LedgerEntryRepository {
	return m.ledgerRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		return noopPublisher{}
	}
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
