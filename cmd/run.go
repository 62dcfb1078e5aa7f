package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bookie/config"
	"bookie/database"
	"bookie/events"
	"bookie/feed"
	"bookie/models"
	"bookie/poller"
	"bookie/repository"
	"bookie/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// app holds the wired application graph
type app struct {
	db         *database.DB
	eventBus   *events.Bus
	oddsClient *feed.Client

	users        service.UserService
	betting      service.BettingService
	settlement   service.SettlementEngine
	cancellation service.CancellationService
	rank         service.RankCalculator
	ledger       service.LedgerService
}

// buildApp connects the database and wires every service
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	var feedOpts []feed.Option
	if cfg.OddsBaseURL != "" {
		feedOpts = append(feedOpts, feed.WithBaseURL(cfg.OddsBaseURL))
	}
	oddsClient := feed.NewClient(cfg.OddsAPIKey, feedOpts...)

	rankCalculator := service.NewRankCalculator(uowFactory)

	return &app{
		db:           db,
		eventBus:     eventBus,
		oddsClient:   oddsClient,
		users:        service.NewUserService(uowFactory, cfg.StartingBalance),
		betting:      service.NewBettingService(uowFactory, cfg.MaxActiveWagers, cfg.MaxWagerLegs),
		settlement:   service.NewSettlementEngine(uowFactory, rankCalculator),
		cancellation: service.NewCancellationService(uowFactory, oddsClient),
		rank:         rankCalculator,
		ledger:       service.NewLedgerService(uowFactory),
	}, nil
}

func (a *app) close() {
	a.db.Close()
}

// Run initializes the application and serves until the context is cancelled
func Run(ctx context.Context) error {
	log.Info("Starting bookie...")

	cfg := config.Get()

	application, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("Services initialized")

	var natsPublisher *events.NATSPublisher
	var natsSubscriber *events.NATSSettlementSubscriber
	if cfg.NATSEnabled {
		log.WithField("url", cfg.NATSURL).Info("Connecting to NATS...")
		natsPublisher, err = events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to initialize NATS publisher: %w", err)
		}
		natsPublisher.AttachTo(application.eventBus)

		settle := func(ctx context.Context, eventID, winner string, finalScore models.FinalScore) error {
			_, err := application.settlement.Settle(ctx, eventID, winner, finalScore)
			return err
		}
		natsSubscriber, err = events.NewNATSSettlementSubscriber(cfg.NATSURL, settle)
		if err != nil {
			return fmt.Errorf("failed to initialize NATS subscriber: %w", err)
		}
		if err := natsSubscriber.Start(); err != nil {
			return fmt.Errorf("failed to start NATS subscriber: %w", err)
		}
	}

	if len(cfg.SettlePollSports) > 0 {
		settlePoller := poller.New(application.oddsClient, application.settlement,
			cfg.SettlePollSports, cfg.SettleLookbackDays, cfg.SettlePollInterval)
		go settlePoller.Run(ctx)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("Metrics listener started")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Metrics listener failed")
			}
		}()
	}

	log.WithField("environment", cfg.Environment).Info("Bookie is running")
	<-ctx.Done()

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Metrics listener shutdown failed")
		}
	}
	if natsSubscriber != nil {
		natsSubscriber.Close()
	}
	if natsPublisher != nil {
		natsPublisher.Close()
	}

	log.Info("Closing database connection...")
	application.close()

	log.Info("Shutdown completed")
	return nil
}
