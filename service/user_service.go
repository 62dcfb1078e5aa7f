package service

import (
	"context"
	"fmt"
	"strings"

	"bookie/events"
	"bookie/metrics"
	"bookie/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type userService struct {
	uowFactory      UnitOfWorkFactory
	startingBalance decimal.Decimal
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, startingBalance decimal.Decimal) UserService {
	return &userService{
		uowFactory:      uowFactory,
		startingBalance: startingBalance,
	}
}

// Register creates the account with the configured starting balance and
// writes the matching initial deposit audit entry.
func (s *userService) Register(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewError(KindValidation, "username is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().Create(ctx, username, s.startingBalance)
	if err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		Username:     username,
		Amount:       s.startingBalance,
		BalanceAfter: user.Balance,
		EntryType:    models.EntryTypeInitialDeposit,
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record initial deposit: %w", err)
	}

	uow.EventBus().Publish(events.UserRegisteredEvent{
		Username:       username,
		InitialBalance: user.Balance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	metrics.UsersRegistered.Inc()
	log.WithFields(log.Fields{
		"username": username,
		"balance":  user.Balance,
	}).Info("User registered")

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, username string) (*models.User, error) {
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
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return user, nil
}
