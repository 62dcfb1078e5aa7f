package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinalScore is the completed event's score as supplied by the trigger
type FinalScore struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// WagerSettlement is the per-wager line item of a settlement report
type WagerSettlement struct {
	WagerID      string
	Username     string
	Outcome      WagerOutcome
	Wager        decimal.Decimal
	Payout       decimal.Decimal
	ProfitChange decimal.Decimal
}

// UserSettlementSummary aggregates the ledger effect of one settlement batch
// on a single user
type UserSettlementSummary struct {
	Username      string
	WagersSettled int
	Wins          int
	Losses        int
	ProfitChange  decimal.Decimal
	LossesChange  decimal.Decimal
	OldProfit     decimal.Decimal
	NewProfit     decimal.Decimal
	NewBalance    decimal.Decimal
	NewRank       int
	Tier          string
	// LedgerError is set when the user's ledger update failed; the batch
	// continues past it and the caller decides how to repair.
	LedgerError string
}

// SettlementReport is returned by the settlement engine for one event trigger
type SettlementReport struct {
	EventID       string
	Winner        string
	FinalScore    FinalScore
	WagersSettled int
	LegsSettled   int
	UsersAffected int
	SettledAt     time.Time
	Wagers        []*WagerSettlement
	Users         []*UserSettlementSummary
}

// CancellationResult is returned by a successful pre-event cancellation
type CancellationResult struct {
	WagerID     string
	Username    string
	Refund      decimal.Decimal
	NewBalance  decimal.Decimal
	CancelledAt time.Time
}
