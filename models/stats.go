package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaderboardEntry is a user's row in the profit-sorted leaderboard
type LeaderboardEntry struct {
	Rank     int
	Username string
	Profit   decimal.Decimal
	Losses   decimal.Decimal
	Balance  decimal.Decimal
	Tier     string
}

// DailyProfit is one day's bucket of settled-wager profit for a user
type DailyProfit struct {
	Date   time.Time
	Profit decimal.Decimal
	Wagers int
}

// UserLedger is the outward read projection of a user's financial standing
type UserLedger struct {
	Username      string
	Balance       decimal.Decimal
	Profit        decimal.Decimal
	Losses        decimal.Decimal
	WageredAmount decimal.Decimal
	Rank          int
	Tier          string
	Percentile    float64
	ActiveWagers  int
}
