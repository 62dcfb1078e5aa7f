package service

import (
	"context"
	"fmt"

	"bookie/models"
)

type rankService struct {
	uowFactory UnitOfWorkFactory
}

// NewRankCalculator creates a new rank calculator
func NewRankCalculator(uowFactory UnitOfWorkFactory) RankCalculator {
	return &rankService{
		uowFactory: uowFactory,
	}
}

// Recompute derives the user's rank from a population snapshot and writes it
// back. Rank = 1 + count of users with strictly greater profit. The snapshot
// may be stale immediately after concurrent writes; ranks are advisory and
// re-derived on each settlement.
func (s *rankService) Recompute(ctx context.Context, username string) (*models.RankStanding, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, NewError(KindNotFound, "user %q not found", username)
	}

	standing, err := computeStanding(ctx, uow.UserRepository(), user)
	if err != nil {
		return nil, err
	}

	if err := uow.UserRepository().UpdateRank(ctx, username, standing.Rank); err != nil {
		return nil, fmt.Errorf("failed to persist rank: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return standing, nil
}

// computeStanding derives rank, percentile-from-top, and tier without writing
// anything. Shared by the rank calculator and the read surface.
func computeStanding(ctx context.Context, repo UserRepository, user *models.User) (*models.RankStanding, error) {
	greater, err := repo.CountProfitGreaterThan(ctx, user.Profit)
	if err != nil {
		return nil, fmt.Errorf("failed to count users above %q: %w", user.Username, err)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count user population: %w", err)
	}
	if total < 1 {
		total = 1
	}

	rank := greater + 1
	percentile := 100 * (1 - float64(rank-1)/float64(total))

	return &models.RankStanding{
		Username:   user.Username,
		Rank:       rank,
		Percentile: percentile,
		Tier:       models.TierForPercentile(percentile),
		TotalUsers: total,
	}, nil
}
