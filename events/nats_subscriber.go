package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookie/models"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// SettleSubject is the subject external result forwarders publish completed
// events on to request settlement.
const SettleSubject = "bookie.settle.requests"

// SettleRequest is the wire shape of a settlement trigger
type SettleRequest struct {
	EventID    string            `json:"event_id"`
	Winner     string            `json:"winner"`
	FinalScore models.FinalScore `json:"final_score"`
}

// SettleFunc is invoked for each well-formed settlement request
type SettleFunc func(ctx context.Context, eventID, winner string, finalScore models.FinalScore) error

// NATSSettlementSubscriber consumes settlement triggers from NATS, so an
// external results pipeline can drive settlement instead of, or alongside,
// the built-in feed poller.
type NATSSettlementSubscriber struct {
	conn    *nats.Conn
	settle  SettleFunc
	timeout time.Duration
	sub     *nats.Subscription
}

// NewNATSSettlementSubscriber connects to NATS and prepares the subscriber
func NewNATSSettlementSubscriber(url string, settle SettleFunc) (*NATSSettlementSubscriber, error) {
	conn, err := nats.Connect(url,
		nats.Name("bookie-settler"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSSettlementSubscriber{
		conn:    conn,
		settle:  settle,
		timeout: 2 * time.Minute,
	}, nil
}

// Start subscribes in a queue group so multiple instances share the stream
func (s *NATSSettlementSubscriber) Start() error {
	sub, err := s.conn.QueueSubscribe(SettleSubject, "bookie-settlers", s.handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", SettleSubject, err)
	}
	s.sub = sub
	log.WithField("subject", SettleSubject).Info("Settlement subscriber started")
	return nil
}

func (s *NATSSettlementSubscriber) handle(msg *nats.Msg) {
	var req SettleRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.WithError(err).Warn("Dropping malformed settlement request")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.settle(ctx, req.EventID, req.Winner, req.FinalScore); err != nil {
		// Settlement is idempotent, so a redelivered or retried request is safe
		log.WithError(err).WithField("eventID", req.EventID).Error("Settlement request failed")
	}
}

// Close unsubscribes and drains the connection
func (s *NATSSettlementSubscriber) Close() {
	if s.sub != nil {
		if err := s.sub.Unsubscribe(); err != nil {
			log.WithError(err).Warn("Failed to unsubscribe settlement subscriber")
		}
	}
	if err := s.conn.Drain(); err != nil {
		log.WithError(err).Warn("Failed to drain NATS connection")
	}
}
