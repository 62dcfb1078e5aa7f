package service

import (
	"context"
	"time"

	"bookie/events"
	"bookie/models"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user ledger data access
type UserRepository interface {
	// GetByUsername retrieves a user by username, returning nil when missing
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, username string, initialBalance decimal.Decimal) (*models.User, error)

	// DebitIfSufficient atomically debits the stake, failing when balance < stake
	DebitIfSufficient(ctx context.Context, username string, stake decimal.Decimal) (*models.User, error)

	// Credit atomically adds to the user's balance
	Credit(ctx context.Context, username string, amount decimal.Decimal) (*models.User, error)

	// ApplyLedgerDeltas applies profit/losses deltas as one atomic increment
	ApplyLedgerDeltas(ctx context.Context, username string, profitDelta, lossesDelta decimal.Decimal) (*models.User, error)

	// UpdateRank writes the recomputed rank back to the user record
	UpdateRank(ctx context.Context, username string, rank int) error

	// CountProfitGreaterThan counts users with strictly greater profit
	CountProfitGreaterThan(ctx context.Context, profit decimal.Decimal) (int, error)

	// Count returns the total user population size
	Count(ctx context.Context) (int, error)

	// Leaderboard returns one page of users sorted by profit descending
	Leaderboard(ctx context.Context, offset, limit int) ([]*models.User, error)
}

// WagerRepository defines the interface for wager data access
type WagerRepository interface {
	// Create inserts a wager and its legs with normalized event ids
	Create(ctx context.Context, wager *models.Wager) error

	// GetByID retrieves a wager with its legs, returning nil when missing
	GetByID(ctx context.Context, id string) (*models.Wager, error)

	// GetActiveByEventID returns active wagers with a leg on the event
	GetActiveByEventID(ctx context.Context, eventID string) ([]*models.Wager, error)

	// GetByUser returns the user's wagers, newest first
	GetByUser(ctx context.Context, username string, limit int) ([]*models.Wager, error)

	// CountActiveByUser counts the user's open wagers
	CountActiveByUser(ctx context.Context, username string) (int, error)

	// SettleLeg grades a single leg, guarded on it still being active
	SettleLeg(ctx context.Context, legID int64, outcome models.LegOutcome) (bool, error)

	// Settle conditionally transitions active -> settled; false means the
	// wager was already terminal
	Settle(ctx context.Context, id string, outcome models.WagerOutcome, payout, profit decimal.Decimal, settledAt time.Time) (bool, error)

	// Cancel conditionally transitions active -> cancelled
	Cancel(ctx context.Context, id string, cancelledAt time.Time) (bool, error)

	// DailyProfit buckets settled-wager profit by day over [from, to)
	DailyProfit(ctx context.Context, username string, from, to time.Time) ([]*models.DailyProfit, error)
}

// LedgerEntryRepository defines the interface for the balance audit trail
type LedgerEntryRepository interface {
	// Record appends an audit entry for a committed balance mutation
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// GetByUser returns the user's most recent entries
	GetByUser(ctx context.Context, username string, limit int) ([]*models.LedgerEntry, error)

	// GetByDateRange returns the user's entries within [from, to)
	GetByDateRange(ctx context.Context, username string, from, to time.Time) ([]*models.LedgerEntry, error)
}

// EventFeed is the external oracle for event schedules. Cancellation uses it
// to confirm that no referenced event has started.
type EventFeed interface {
	// CommenceTimes resolves start times for the given event ids within a
	// sport. Ids absent from the result are unknown to the feed.
	CommenceTimes(ctx context.Context, sportKey string, eventIDs []string) (map[string]time.Time, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UserService defines the interface for registration and user lookups
type UserService interface {
	// Register creates a new user with the configured starting balance
	Register(ctx context.Context, username string) (*models.User, error)

	// GetUser retrieves a user, failing with a not-found error when missing
	GetUser(ctx context.Context, username string) (*models.User, error)
}

// BettingService defines the interface for wager creation
type BettingService interface {
	// PlaceWager creates a wager and debits its stake as one committed unit
	PlaceWager(ctx context.Context, username string, amount decimal.Decimal, legs []*models.Leg) (*models.Wager, error)

	// GetWager retrieves a wager by id
	GetWager(ctx context.Context, wagerID string) (*models.Wager, error)

	// GetUserWagers returns the user's wagers, newest first
	GetUserWagers(ctx context.Context, username string, limit int) ([]*models.Wager, error)
}

// SettlementEngine finalizes wagers once their event completes
type SettlementEngine interface {
	// Settle settles every active wager referencing the event. Wagers already
	// settled by a concurrent call are skipped; a user whose ledger update
	// fails is reported but does not abort the batch.
	Settle(ctx context.Context, eventID, winner string, finalScore models.FinalScore) (*models.SettlementReport, error)
}

// CancellationService refunds wagers before any referenced event starts
type CancellationService interface {
	// Cancel refuses unless the requester owns the active wager and every
	// leg's event is confirmed not yet started by the event feed.
	Cancel(ctx context.Context, wagerID, requester string) (*models.CancellationResult, error)
}

// RankCalculator recomputes competitive standing over the user population
type RankCalculator interface {
	// Recompute derives rank, percentile-from-top, and tier for the user and
	// writes the rank back. The population snapshot is advisory, not
	// linearizable.
	Recompute(ctx context.Context, username string) (*models.RankStanding, error)
}

// LedgerService is the outward read surface over the financial data model
type LedgerService interface {
	// GetUserLedger returns balance, profit/loss totals, rank and tier
	GetUserLedger(ctx context.Context, username string) (*models.UserLedger, error)

	// Leaderboard returns a bounded page sorted by profit descending
	Leaderboard(ctx context.Context, offset, limit int) ([]*models.LeaderboardEntry, error)

	// DailyProfit buckets the user's settled profit over a date range
	DailyProfit(ctx context.Context, username string, from, to time.Time) ([]*models.DailyProfit, error)

	// DailyProfitWindow buckets over the trailing N days ending now
	DailyProfitWindow(ctx context.Context, username string, days int) ([]*models.DailyProfit, error)

	// GetEntries returns the user's recent audit entries
	GetEntries(ctx context.Context, username string, limit int) ([]*models.LedgerEntry, error)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	WagerRepository() WagerRepository
	LedgerEntryRepository() LedgerEntryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
