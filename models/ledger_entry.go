package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a balance mutation in the audit ledger
type EntryType string

const (
	EntryTypeInitialDeposit EntryType = "initial_deposit"
	EntryTypeWagerStake     EntryType = "wager_stake"
	EntryTypeWagerPayout    EntryType = "wager_payout"
	EntryTypeWagerRefund    EntryType = "wager_refund"
)

// LedgerEntry records one committed balance mutation. Amount is signed:
// debits are negative, credits positive.
type LedgerEntry struct {
	ID           int64           `db:"id"`
	Username     string          `db:"username"`
	Amount       decimal.Decimal `db:"amount"`
	BalanceAfter decimal.Decimal `db:"balance_after"`
	EntryType    EntryType       `db:"entry_type"`
	Metadata     map[string]any  `db:"metadata"`
	CreatedAt    time.Time       `db:"created_at"`
}
