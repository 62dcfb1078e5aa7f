package service

import (
	"strings"

	"bookie/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Payout converts a stake and American odds into the total return on a win,
// rounded to cents. Negative odds are the favorite branch (stake to win 100
// units); non-negative odds the underdog branch. Odds of exactly 0 fall into
// the non-negative branch and degenerate to returning the stake.
func Payout(stake decimal.Decimal, odds int) decimal.Decimal {
	o := decimal.NewFromInt(int64(odds))
	var winnings decimal.Decimal
	if odds < 0 {
		winnings = stake.Mul(hundred).Div(o.Abs())
	} else {
		winnings = stake.Mul(o).Div(hundred)
	}
	return stake.Add(winnings).Round(2)
}

// ParlayPayout compounds the per-leg decimal returns over a multi-leg wager:
// stake times the product of each leg's return multiplier. A single leg
// reduces exactly to Payout.
func ParlayPayout(stake decimal.Decimal, odds []int) decimal.Decimal {
	total := stake
	for _, o := range odds {
		total = Payout(total, o)
	}
	return total
}

// Profit is the signed ledger delta a settled wager contributes: total return
// minus stake on a win, the negated stake on a loss.
func Profit(stake, payout decimal.Decimal, outcome models.WagerOutcome) decimal.Decimal {
	if outcome == models.WagerOutcomeWin {
		return payout.Sub(stake)
	}
	return stake.Neg()
}

// GradeLeg grades one selection against the event winner by case-insensitive
// match. This is moneyline-only grading: spread and total legs carried in the
// data model are graded the same way, a known limitation of the market model
// rather than of this function.
func GradeLeg(leg *models.Leg, winner string) models.LegOutcome {
	if strings.EqualFold(strings.TrimSpace(leg.Selection), strings.TrimSpace(winner)) {
		return models.LegOutcomeWin
	}
	return models.LegOutcomeLoss
}
