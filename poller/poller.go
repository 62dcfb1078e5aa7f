// Package poller periodically pulls completed games from the odds feed and
// drives settlement for them.
package poller

import (
	"context"
	"time"

	"bookie/feed"
	"bookie/models"

	log "github.com/sirupsen/logrus"
)

// ResultSource lists completed games for a sport
type ResultSource interface {
	CompletedGames(ctx context.Context, sportKey string, daysBack int) ([]*feed.CompletedGame, error)
}

// Settler finalizes wagers for a completed event
type Settler interface {
	Settle(ctx context.Context, eventID, winner string, finalScore models.FinalScore) (*models.SettlementReport, error)
}

// Poller drives settlement off the feed on a fixed interval. Settlement is
// idempotent, so seeing the same completed game on consecutive polls is
// harmless.
type Poller struct {
	source   ResultSource
	settler  Settler
	sports   []string
	daysBack int
	interval time.Duration
}

// New creates a poller over the given sports
func New(source ResultSource, settler Settler, sports []string, daysBack int, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{
		source:   source,
		settler:  settler,
		sports:   sports,
		daysBack: daysBack,
		interval: interval,
	}
}

// Run polls until the context is cancelled. One failing sport does not stop
// the others.
func (p *Poller) Run(ctx context.Context) {
	log.WithFields(log.Fields{
		"sports":   p.sports,
		"interval": p.interval,
	}).Info("Settlement poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info("Settlement poller stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single settlement sweep over all configured sports
func (p *Poller) PollOnce(ctx context.Context) {
	for _, sportKey := range p.sports {
		games, err := p.source.CompletedGames(ctx, sportKey, p.daysBack)
		if err != nil {
			log.WithError(err).WithField("sport", sportKey).Warn("Failed to fetch completed games")
			continue
		}

		for _, game := range games {
			if game.Winner == "" {
				// A draw cannot be graded against a winner selection; leave
				// those wagers for manual settlement.
				log.WithField("eventID", game.ID).Warn("Completed game ended in a draw, skipping")
				continue
			}

			report, err := p.settler.Settle(ctx, game.ID, game.Winner, game.FinalScore)
			if err != nil {
				log.WithError(err).WithField("eventID", game.ID).Error("Settlement failed")
				continue
			}
			if report.WagersSettled > 0 {
				log.WithFields(log.Fields{
					"eventID":       game.ID,
					"winner":        game.Winner,
					"wagersSettled": report.WagersSettled,
				}).Info("Settled wagers for completed game")
			}
		}
	}
}
