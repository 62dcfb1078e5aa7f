package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bookie/events"
	"bookie/metrics"
	"bookie/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type settlementEngine struct {
	uowFactory UnitOfWorkFactory
	rank       RankCalculator
}

// NewSettlementEngine creates a new settlement engine
func NewSettlementEngine(uowFactory UnitOfWorkFactory, rank RankCalculator) SettlementEngine {
	return &settlementEngine{
		uowFactory: uowFactory,
		rank:       rank,
	}
}

// userDeltas accumulates the ledger effect of one settlement batch on a user
type userDeltas struct {
	wagersSettled int
	wins          int
	losses        int
	profitChange  decimal.Decimal
	lossesChange  decimal.Decimal
	payoutCredit  decimal.Decimal
	wagerIDs      []string
}

// Settle finalizes every active wager referencing the completed event.
//
// Wager transitions happen first, inside one transaction: each wager's
// matching leg is graded, and the wager is finalized when terminal (any leg
// lost, or all legs won). The conditional status update makes settlement
// at-most-once per wager; a wager claimed by a concurrent call is skipped and
// excluded from the report. Per-user deltas are then flushed one user at a
// time so a missing user is reported without aborting the rest, and rank is
// recomputed per affected user.
func (s *settlementEngine) Settle(ctx context.Context, eventID, winner string, finalScore models.FinalScore) (*models.SettlementReport, error) {
	start := time.Now()

	key := models.NormalizeEventID(eventID)
	if key == "" {
		return nil, NewError(KindValidation, "event id is required")
	}
	if winner == "" {
		return nil, NewError(KindValidation, "winner is required")
	}

	report := &models.SettlementReport{
		EventID:    key,
		Winner:     winner,
		FinalScore: finalScore,
		SettledAt:  start.UTC(),
	}

	deltas, err := s.settleWagers(ctx, report, key, winner)
	if err != nil {
		return nil, err
	}
	if len(deltas) == 0 {
		log.WithField("eventID", key).Info("No active wagers found for event")
		return report, nil
	}

	s.flushUserDeltas(ctx, report, deltas)

	metrics.WagersSettled.Add(float64(report.WagersSettled))
	metrics.SettlementDuration.Observe(time.Since(start).Seconds())

	log.WithFields(log.Fields{
		"eventID":       key,
		"winner":        winner,
		"wagersSettled": report.WagersSettled,
		"legsSettled":   report.LegsSettled,
		"usersAffected": report.UsersAffected,
	}).Info("Settlement batch completed")

	return report, nil
}

// settleWagers runs the wager transition phase in one transaction and returns
// the accumulated per-user deltas.
func (s *settlementEngine) settleWagers(ctx context.Context, report *models.SettlementReport, eventID, winner string) (map[string]*userDeltas, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wagers, err := uow.WagerRepository().GetActiveByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to find wagers for event %q: %w", eventID, err)
	}
	if len(wagers) == 0 {
		return nil, nil
	}

	deltas := make(map[string]*userDeltas)

	for _, wager := range wagers {
		leg := wager.LegForEvent(eventID)
		if leg == nil || leg.Status != models.LegStatusActive {
			continue
		}

		legOutcome := GradeLeg(leg, winner)
		graded, err := uow.WagerRepository().SettleLeg(ctx, leg.ID, legOutcome)
		if err != nil {
			return nil, fmt.Errorf("failed to settle leg %d: %w", leg.ID, err)
		}
		if !graded {
			// Another settlement already graded this leg; leave the wager alone.
			continue
		}
		leg.Outcome = &legOutcome
		leg.Status = models.LegStatusSettled
		report.LegsSettled++

		outcome, payout, done := finalizeOutcome(wager, legOutcome)
		if !done {
			// Parlay with unresolved legs on other events; finalized once the
			// last leg's event settles.
			continue
		}
		profit := Profit(wager.Amount, payout, outcome)

		settled, err := uow.WagerRepository().Settle(ctx, wager.ID, outcome, payout, profit, report.SettledAt)
		if err != nil {
			return nil, fmt.Errorf("failed to settle wager %s: %w", wager.ID, err)
		}
		if !settled {
			// Concurrent settlement won the conditional write; skip, don't retry.
			log.WithField("wagerID", wager.ID).Debug("Wager already settled, skipping")
			continue
		}

		acc, ok := deltas[wager.Username]
		if !ok {
			acc = &userDeltas{}
			deltas[wager.Username] = acc
		}
		acc.wagersSettled++
		acc.profitChange = acc.profitChange.Add(profit)
		acc.wagerIDs = append(acc.wagerIDs, wager.ID)
		if outcome == models.WagerOutcomeWin {
			acc.wins++
			acc.payoutCredit = acc.payoutCredit.Add(payout)
		} else {
			acc.losses++
			acc.lossesChange = acc.lossesChange.Add(wager.Amount)
		}

		report.WagersSettled++
		report.Wagers = append(report.Wagers, &models.WagerSettlement{
			WagerID:      wager.ID,
			Username:     wager.Username,
			Outcome:      outcome,
			Wager:        wager.Amount,
			Payout:       payout,
			ProfitChange: profit,
		})

		uow.EventBus().Publish(events.WagerSettledEvent{
			WagerID:  wager.ID,
			Username: wager.Username,
			EventID:  eventID,
			Outcome:  string(outcome),
			Payout:   payout,
			Profit:   profit,
		})
	}

	uow.EventBus().Publish(events.EventSettledEvent{
		EventID:       eventID,
		Winner:        winner,
		WagersSettled: report.WagersSettled,
		UsersAffected: len(deltas),
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement transaction: %w", err)
	}
	return deltas, nil
}

// finalizeOutcome decides whether the wager is terminal after grading one leg
func finalizeOutcome(wager *models.Wager, legOutcome models.LegOutcome) (models.WagerOutcome, decimal.Decimal, bool) {
	if legOutcome == models.LegOutcomeLoss {
		return models.WagerOutcomeLoss, decimal.Zero, true
	}
	if wager.AllLegsWon() {
		odds := make([]int, len(wager.Legs))
		for i, l := range wager.Legs {
			odds[i] = l.Odds
		}
		return models.WagerOutcomeWin, ParlayPayout(wager.Amount, odds), true
	}
	return "", decimal.Zero, false
}

// flushUserDeltas applies the accumulated deltas one user per transaction.
// Winning payouts are credited back to spendable balance alongside the profit
// increment; a failure for one user is recorded on their summary and the
// batch continues.
func (s *settlementEngine) flushUserDeltas(ctx context.Context, report *models.SettlementReport, deltas map[string]*userDeltas) {
	usernames := make([]string, 0, len(deltas))
	for username := range deltas {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	for _, username := range usernames {
		acc := deltas[username]
		summary := &models.UserSettlementSummary{
			Username:      username,
			WagersSettled: acc.wagersSettled,
			Wins:          acc.wins,
			Losses:        acc.losses,
			ProfitChange:  acc.profitChange,
			LossesChange:  acc.lossesChange,
		}
		report.Users = append(report.Users, summary)

		if err := s.flushUser(ctx, summary, acc); err != nil {
			summary.LedgerError = err.Error()
			log.WithError(err).WithField("username", username).Error("User ledger update failed during settlement")
			continue
		}
		report.UsersAffected++

		standing, err := s.rank.Recompute(ctx, username)
		if err != nil {
			log.WithError(err).WithField("username", username).Warn("Rank recomputation failed after settlement")
			continue
		}
		summary.NewRank = standing.Rank
		summary.Tier = standing.Tier
	}
}

func (s *settlementEngine) flushUser(ctx context.Context, summary *models.UserSettlementSummary, acc *userDeltas) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().ApplyLedgerDeltas(ctx, summary.Username, acc.profitChange, acc.lossesChange)
	if err != nil {
		return err
	}
	summary.NewProfit = user.Profit
	summary.OldProfit = user.Profit.Sub(acc.profitChange)
	summary.NewBalance = user.Balance

	if acc.payoutCredit.Sign() > 0 {
		credited, err := uow.UserRepository().Credit(ctx, summary.Username, acc.payoutCredit)
		if err != nil {
			return WrapError(KindReconciliation, err,
				"payout credit of %s for user %q could not be confirmed", acc.payoutCredit, summary.Username)
		}
		summary.NewBalance = credited.Balance

		entry := &models.LedgerEntry{
			Username:     summary.Username,
			Amount:       acc.payoutCredit,
			BalanceAfter: credited.Balance,
			EntryType:    models.EntryTypeWagerPayout,
			Metadata: map[string]any{
				"wager_ids": acc.wagerIDs,
				"wins":      acc.wins,
			},
		}
		if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
			return fmt.Errorf("failed to record payout entry: %w", err)
		}
	}

	if err := uow.Commit(); err != nil {
		// The wagers were already finalized in the first phase, so a lost
		// ledger commit leaves this user's balance behind their settled wagers.
		return WrapError(KindReconciliation, err,
			"ledger update for user %q could not be committed", summary.Username)
	}
	if acc.payoutCredit.Sign() > 0 {
		metrics.PayoutTotal.Add(acc.payoutCredit.InexactFloat64())
	}
	return nil
}
