package testutil

import (
	"bookie/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewWager creates an active single-leg wager for tests
func NewWager(username, eventID, selection string, amount decimal.Decimal, odds int) *models.Wager {
	id := uuid.New().String()
	return &models.Wager{
		ID:       id,
		Username: username,
		Amount:   amount,
		Status:   models.WagerStatusActive,
		Legs: []*models.Leg{
			{
				WagerID:   id,
				EventID:   eventID,
				SportKey:  "basketball_nba",
				League:    "NBA",
				Market:    models.MarketMoneyline,
				Selection: selection,
				Odds:      odds,
				Status:    models.LegStatusActive,
			},
		},
	}
}

// NewParlay creates an active wager with one leg per (eventID, selection) pair
func NewParlay(username string, amount decimal.Decimal, legs map[string]string, odds int) *models.Wager {
	id := uuid.New().String()
	wager := &models.Wager{
		ID:       id,
		Username: username,
		Amount:   amount,
		Status:   models.WagerStatusActive,
	}
	for eventID, selection := range legs {
		wager.Legs = append(wager.Legs, &models.Leg{
			WagerID:   id,
			EventID:   eventID,
			SportKey:  "basketball_nba",
			League:    "NBA",
			Market:    models.MarketMoneyline,
			Selection: selection,
			Odds:      odds,
			Status:    models.LegStatusActive,
		})
	}
	return wager
}

// NewLedgerEntry creates a ledger entry for tests
func NewLedgerEntry(username string, amount, balanceAfter decimal.Decimal, entryType models.EntryType) *models.LedgerEntry {
	return &models.LedgerEntry{
		Username:     username,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		EntryType:    entryType,
		Metadata: map[string]any{
			"test": true,
		},
	}
}
