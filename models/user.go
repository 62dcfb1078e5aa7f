package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a bettor and their financial ledger
type User struct {
	Username      string          `db:"username"`
	Balance       decimal.Decimal `db:"balance"`
	Profit        decimal.Decimal `db:"profit"`
	Losses        decimal.Decimal `db:"losses"`
	Rank          int             `db:"rank"`
	WageredAmount decimal.Decimal `db:"wagered_amount"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}
