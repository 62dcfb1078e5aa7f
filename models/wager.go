package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WagerStatus represents the lifecycle state of a wager
type WagerStatus string

const (
	WagerStatusActive    WagerStatus = "active"
	WagerStatusSettled   WagerStatus = "settled"
	WagerStatusCancelled WagerStatus = "cancelled"
)

// WagerOutcome is the final result of a settled or cancelled wager
type WagerOutcome string

const (
	WagerOutcomeWin       WagerOutcome = "win"
	WagerOutcomeLoss      WagerOutcome = "loss"
	WagerOutcomeCancelled WagerOutcome = "cancelled"
)

// LegStatus mirrors the wager lifecycle at the individual selection level
type LegStatus string

const (
	LegStatusActive    LegStatus = "active"
	LegStatusSettled   LegStatus = "settled"
	LegStatusCancelled LegStatus = "cancelled"
)

// LegOutcome is the graded result of a single leg
type LegOutcome string

const (
	LegOutcomeWin  LegOutcome = "win"
	LegOutcomeLoss LegOutcome = "loss"
)

// Market identifies the market kind a leg was priced against.
// Only moneyline legs are graded today; spread and total are carried in the
// data model so extending the grader does not require a schema change.
type Market string

const (
	MarketMoneyline Market = "moneyline"
	MarketSpread    Market = "spread"
	MarketTotal     Market = "total"
)

// Wager represents one bet, single or multi-leg (parlay)
type Wager struct {
	ID        string          `db:"id"`
	Username  string          `db:"username"`
	Amount    decimal.Decimal `db:"amount"`
	Legs      []*Leg          `db:"-"`
	Status    WagerStatus     `db:"status"`
	Outcome   *WagerOutcome   `db:"outcome"`
	Payout    decimal.Decimal `db:"payout"`
	Profit    decimal.Decimal `db:"profit"`
	CreatedAt time.Time       `db:"created_at"`
	SettledAt *time.Time      `db:"settled_at"`
}

// Leg is one selection within a wager, tied to one external event
type Leg struct {
	ID        int64           `db:"id"`
	WagerID   string          `db:"wager_id"`
	EventID   string          `db:"event_id"`
	SportKey  string          `db:"sport_key"`
	League    string          `db:"league"`
	Market    Market          `db:"market"`
	Selection string          `db:"selection"`
	Line      decimal.Decimal `db:"line"`
	Odds      int             `db:"odds"`
	Status    LegStatus       `db:"status"`
	Outcome   *LegOutcome     `db:"outcome"`
}

// NormalizeEventID produces the canonical event-id key enforced at write time.
// Settlement and cancellation look wagers up by this key only, so no fallback
// queries are needed.
func NormalizeEventID(eventID string) string {
	return strings.ToLower(strings.TrimSpace(eventID))
}

// IsTerminal reports whether the wager has left the active state
func (w *Wager) IsTerminal() bool {
	return w.Status == WagerStatusSettled || w.Status == WagerStatusCancelled
}

// LegForEvent returns the leg referencing the given normalized event id, or nil
func (w *Wager) LegForEvent(eventID string) *Leg {
	key := NormalizeEventID(eventID)
	for _, leg := range w.Legs {
		if leg.EventID == key {
			return leg
		}
	}
	return nil
}

// HasLostLeg reports whether any leg has been graded as a loss
func (w *Wager) HasLostLeg() bool {
	for _, leg := range w.Legs {
		if leg.Outcome != nil && *leg.Outcome == LegOutcomeLoss {
			return true
		}
	}
	return false
}

// AllLegsWon reports whether every leg has been graded and won
func (w *Wager) AllLegsWon() bool {
	for _, leg := range w.Legs {
		if leg.Outcome == nil || *leg.Outcome != LegOutcomeWin {
			return false
		}
	}
	return len(w.Legs) > 0
}
