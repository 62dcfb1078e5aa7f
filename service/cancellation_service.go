package service

import (
	"context"
	"fmt"
	"time"

	"bookie/events"
	"bookie/metrics"
	"bookie/models"

	log "github.com/sirupsen/logrus"
)

type cancellationService struct {
	uowFactory UnitOfWorkFactory
	feed       EventFeed
}

// NewCancellationService creates a new cancellation service
func NewCancellationService(uowFactory UnitOfWorkFactory, feed EventFeed) CancellationService {
	return &cancellationService{
		uowFactory: uowFactory,
		feed:       feed,
	}
}

// Cancel voids an active wager and refunds the full stake to the owner.
//
// Cancellation is only allowed while every leg's event is verifiably in the
// future. The commence times come from the upstream feed; if the feed is
// unreachable, or an event is unknown to it, the cancellation is refused
// rather than risking a cancel after tip-off.
func (s *cancellationService) Cancel(ctx context.Context, wagerID, requester string) (*models.CancellationResult, error) {
	if wagerID == "" {
		return nil, NewError(KindValidation, "wager id is required")
	}
	if requester == "" {
		return nil, NewError(KindValidation, "requester is required")
	}

	wager, err := s.loadWager(ctx, wagerID)
	if err != nil {
		return nil, err
	}
	if wager.Username != requester {
		metrics.CancellationsRefused.Inc()
		return nil, NewError(KindValidation, "wager %s does not belong to %q", wagerID, requester)
	}
	if wager.Status != models.WagerStatusActive {
		metrics.CancellationsRefused.Inc()
		return nil, NewError(KindConflict, "wager %s is already %s", wagerID, wager.Status)
	}

	if err := s.verifyNotCommenced(ctx, wager); err != nil {
		metrics.CancellationsRefused.Inc()
		return nil, err
	}

	return s.cancelAndRefund(ctx, wager)
}

func (s *cancellationService) loadWager(ctx context.Context, wagerID string) (*models.Wager, error) {
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

// verifyNotCommenced checks every leg's event against the feed's commence
// times. The transaction is deliberately not held open across this network
// call; the conditional cancel below handles any race with settlement.
func (s *cancellationService) verifyNotCommenced(ctx context.Context, wager *models.Wager) error {
	now := time.Now().UTC()

	bySport := make(map[string][]string)
	for _, leg := range wager.Legs {
		bySport[leg.SportKey] = append(bySport[leg.SportKey], leg.EventID)
	}

	for sportKey, eventIDs := range bySport {
		times, err := s.feed.CommenceTimes(ctx, sportKey, eventIDs)
		if err != nil {
			return WrapError(KindUpstreamUnavailable, err,
				"cannot verify commence times for sport %q", sportKey)
		}
		for _, eventID := range eventIDs {
			commence, ok := times[models.NormalizeEventID(eventID)]
			if !ok {
				return NewError(KindConflict,
					"event %q is unknown to the feed, refusing cancellation", eventID)
			}
			if !commence.After(now) {
				return NewError(KindConflict,
					"event %q has already commenced, wager can no longer be cancelled", eventID)
			}
		}
	}
	return nil
}

func (s *cancellationService) cancelAndRefund(ctx context.Context, wager *models.Wager) (*models.CancellationResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cancelledAt := time.Now().UTC()
	cancelled, err := uow.WagerRepository().Cancel(ctx, wager.ID, cancelledAt)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel wager %s: %w", wager.ID, err)
	}
	if !cancelled {
		// Settlement won the race between our status check and now.
		return nil, NewError(KindConflict, "wager %s was settled concurrently", wager.ID)
	}

	user, err := uow.UserRepository().Credit(ctx, wager.Username, wager.Amount)
	if err != nil {
		// The wager is marked cancelled inside this transaction, so rollback
		// leaves it active. Still classify as reconciliation so callers treat
		// the account as suspect until inspected.
		return nil, WrapError(KindReconciliation, err,
			"refund of %s to %q could not be applied", wager.Amount, wager.Username)
	}

	entry := &models.LedgerEntry{
		Username:     wager.Username,
		Amount:       wager.Amount,
		BalanceAfter: user.Balance,
		EntryType:    models.EntryTypeWagerRefund,
		Metadata:     map[string]any{"wager_id": wager.ID},
	}
	if err := uow.LedgerEntryRepository().Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record refund entry: %w", err)
	}

	uow.EventBus().Publish(events.WagerCancelledEvent{
		WagerID:  wager.ID,
		Username: wager.Username,
		Refund:   wager.Amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	metrics.WagersCancelled.Inc()
	log.WithFields(log.Fields{
		"wagerID":  wager.ID,
		"username": wager.Username,
		"refund":   wager.Amount,
	}).Info("Wager cancelled and refunded")

	return &models.CancellationResult{
		WagerID:     wager.ID,
		Username:    wager.Username,
		Refund:      wager.Amount,
		NewBalance:  user.Balance,
		CancelledAt: cancelledAt,
	}, nil
}
