package service

import (
	"context"
	"fmt"
	"time"

	"bookie/models"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger read service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
	}
}

// GetUserLedger assembles the user's financial standing in one snapshot:
// balance, profit and loss totals, open wager count, and derived rank/tier.
func (s *ledgerService) GetUserLedger(ctx context.Context, username string) (*models.UserLedger, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %q: %w", username, err)
	}
	if user == nil {
		return nil, NewError(KindNotFound, "user %q not found", username)
	}

	standing, err := computeStanding(ctx, uow.UserRepository(), user)
	if err != nil {
		return nil, err
	}

	activeWagers, err := uow.WagerRepository().CountActiveByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to count active wagers: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.UserLedger{
		Username:      user.Username,
		Balance:       user.Balance,
		Profit:        user.Profit,
		Losses:        user.Losses,
		WageredAmount: user.WageredAmount,
		Rank:          standing.Rank,
		Tier:          standing.Tier,
		Percentile:    standing.Percentile,
		ActiveWagers:  activeWagers,
	}, nil
}

// Leaderboard returns one profit-sorted page. Ranks are positional within
// the full ordering, so page two starts at offset+1, and ties share order by
// username rather than sharing a rank.
func (s *ledgerService) Leaderboard(ctx context.Context, offset, limit int) ([]*models.LeaderboardEntry, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	users, err := uow.UserRepository().Leaderboard(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard page: %w", err)
	}

	total, err := uow.UserRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count user population: %w", err)
	}
	if total < 1 {
		total = 1
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	entries := make([]*models.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		rank := offset + i + 1
		percentile := 100 * (1 - float64(rank-1)/float64(total))
		entries = append(entries, &models.LeaderboardEntry{
			Rank:     rank,
			Username: user.Username,
			Profit:   user.Profit,
			Losses:   user.Losses,
			Balance:  user.Balance,
			Tier:     models.TierForPercentile(percentile),
		})
	}
	return entries, nil
}

func (s *ledgerService) DailyProfit(ctx context.Context, username string, from, to time.Time) ([]*models.DailyProfit, error) {
	if !to.After(from) {
		return nil, NewError(KindValidation, "invalid date range: %s is not before %s", from, to)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	buckets, err := uow.WagerRepository().DailyProfit(ctx, username, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily profit for %q: %w", username, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return buckets, nil
}

func (s *ledgerService) DailyProfitWindow(ctx context.Context, username string, days int) ([]*models.DailyProfit, error) {
	if days <= 0 {
		days = 7
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)
	return s.DailyProfit(ctx, username, from, to)
}

func (s *ledgerService) GetEntries(ctx context.Context, username string, limit int) ([]*models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entries, err := uow.LedgerEntryRepository().GetByUser(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger entries for %q: %w", username, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return entries, nil
}
