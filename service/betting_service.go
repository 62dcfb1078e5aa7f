package service

import (
	"context"
	"fmt"

	"bookie/events"
	"bookie/metrics"
	"bookie/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type bettingService struct {
	uowFactory      UnitOfWorkFactory
	maxActiveWagers int
	maxLegs         int
}

// NewBettingService creates a new betting service
func NewBettingService(uowFactory UnitOfWorkFactory, maxActiveWagers, maxLegs int) BettingService {
	return &bettingService{
		uowFactory:      uowFactory,
		maxActiveWagers: maxActiveWagers,
		maxLegs:         maxLegs,
	}
}

// PlaceWager debits the stake and records the wager in one transaction, so a
// stake is never held without a wager and a wager never exists unfunded.
func (s *bettingService) PlaceWager(ctx context.Context, username string, amount decimal.Decimal, legs []*models.Leg) (*models.Wager, error) {
	if username == "" {
		return nil, NewError(KindValidation, "username is required")
	}
	if amount.Sign() <= 0 {
		return nil, NewError(KindValidation, "wager amount must be positive, got %s", amount)
	}
	if err := validateLegs(legs, s.maxLegs); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	active, err := uow.WagerRepository().CountActiveByUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to count active wagers: %w", err)
	}
	if s.maxActiveWagers > 0 && active >= s.maxActiveWagers {
		return nil, NewError(KindConflict,
			"user %q already has %d active wagers (limit %d)", username, active, s.maxActiveWagers)
	}

	user, err := uow.UserRepository().DebitIfSufficient(ctx, username, amount)
	if err != nil {
		return nil, err
	}

	wager := &models.Wager{
		ID:       uuid.New().String(),
		Username: username,
		Amount:   amount.Round(2),
		Legs:     legs,
		Status:   models.WagerStatusActive,
	}
	if err := uow.WagerRepository().Create(ctx, wager); err != nil {
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	entry := &models.LedgerEntry{
		Username:     username,
		Amount:       amount.Neg(),
		BalanceAfter: user.Balance,
		EntryType:    models.EntryTypeWagerStake,
		Metadata:     map[string]any{"wager_id": wager.ID},
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record stake entry: %w", err)
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		WagerID:  wager.ID,
		Username: username,
		Amount:   amount,
		Legs:     len(legs),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit wager: %w", err)
	}

	metrics.WagersPlaced.Inc()
	log.WithFields(log.Fields{
		"wagerID":  wager.ID,
		"username": username,
		"amount":   amount,
		"legs":     len(legs),
	}).Info("Wager placed")

	return wager, nil
}

func validateLegs(legs []*models.Leg, maxLegs int) error {
	if len(legs) == 0 {
		return NewError(KindValidation, "a wager needs at least one leg")
	}
	if maxLegs > 0 && len(legs) > maxLegs {
		return NewError(KindValidation, "too many legs: %d (limit %d)", len(legs), maxLegs)
	}
	seen := make(map[string]struct{}, len(legs))
	for i, leg := range legs {
		if models.NormalizeEventID(leg.EventID) == "" {
			return NewError(KindValidation, "leg %d: event id is required", i)
		}
		if leg.SportKey == "" {
			return NewError(KindValidation, "leg %d: sport key is required", i)
		}
		if leg.Selection == "" {
			return NewError(KindValidation, "leg %d: selection is required", i)
		}
		if leg.Market == "" {
			leg.Market = models.MarketMoneyline
		}
		key := models.NormalizeEventID(leg.EventID)
		if _, dup := seen[key]; dup {
			return NewError(KindValidation, "leg %d: duplicate event %q in one wager", i, leg.EventID)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (s *bettingService) GetWager(ctx context.Context, wagerID string) (*models.Wager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.WagerRepository().GetByID(ctx, wagerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wager %s: %w", wagerID, err)
	}
	if wager == nil {
		return nil, NewError(KindNotFound, "wager %s not found", wagerID)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return wager, nil
}

func (s *bettingService) GetUserWagers(ctx context.Context, username string, limit int) ([]*models.Wager, error) {
	if limit <= 0 {
		limit = 50
	}
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetByUser(ctx, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load wagers for %q: %w", username, err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return wagers, nil
}
