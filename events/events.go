package events

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeUserRegistered EventType = "user_registered"
	EventTypeWagerPlaced    EventType = "wager_placed"
	EventTypeWagerSettled   EventType = "wager_settled"
	EventTypeWagerCancelled EventType = "wager_cancelled"
	EventTypeEventSettled   EventType = "event_settled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// UserRegisteredEvent represents a new user registration
type UserRegisteredEvent struct {
	Username       string          `json:"username"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

func (e UserRegisteredEvent) Type() EventType {
	return EventTypeUserRegistered
}

// WagerPlacedEvent represents a wager that was created with its stake debited
type WagerPlacedEvent struct {
	WagerID  string          `json:"wager_id"`
	Username string          `json:"username"`
	Amount   decimal.Decimal `json:"amount"`
	Legs     int             `json:"legs"`
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// WagerSettledEvent represents one wager finalized by settlement
type WagerSettledEvent struct {
	WagerID  string          `json:"wager_id"`
	Username string          `json:"username"`
	EventID  string          `json:"event_id"`
	Outcome  string          `json:"outcome"`
	Payout   decimal.Decimal `json:"payout"`
	Profit   decimal.Decimal `json:"profit"`
}

func (e WagerSettledEvent) Type() EventType {
	return EventTypeWagerSettled
}

// WagerCancelledEvent represents a pre-event cancellation with its refund
type WagerCancelledEvent struct {
	WagerID  string          `json:"wager_id"`
	Username string          `json:"username"`
	Refund   decimal.Decimal `json:"refund"`
}

func (e WagerCancelledEvent) Type() EventType {
	return EventTypeWagerCancelled
}

// EventSettledEvent summarizes a completed settlement batch for one event
type EventSettledEvent struct {
	EventID       string `json:"event_id"`
	Winner        string `json:"winner"`
	WagersSettled int    `json:"wagers_settled"`
	UsersAffected int    `json:"users_affected"`
}

func (e EventSettledEvent) Type() EventType {
	return EventTypeEventSettled
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers asynchronously
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and flushes
// them to the real bus only after the database commit succeeds.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional wrapper over the bus
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits pending events after a successful commit. Handlers run under a
// background context so they outlive the transaction's context.
func (b *TransactionalBus) Flush() {
	ctx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(ctx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
