package repository

import (
	"context"
	"fmt"
	"time"

	"bookie/database"
	"bookie/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WagerRepository implements the service.WagerRepository interface
type WagerRepository struct {
	q queryable
}

// NewWagerRepository creates a new wager repository
func NewWagerRepository(db *database.DB) *WagerRepository {
	return &WagerRepository{q: db.Pool}
}

// newWagerRepositoryWithTx creates a new wager repository with a transaction
func newWagerRepositoryWithTx(tx queryable) *WagerRepository {
	return &WagerRepository{q: tx}
}

const wagerColumns = `id, username, amount, status, outcome, payout, profit, created_at, settled_at`

func scanWager(row pgx.Row) (*models.Wager, error) {
	var w models.Wager
	var outcome *string
	err := row.Scan(
		&w.ID,
		&w.Username,
		&w.Amount,
		&w.Status,
		&outcome,
		&w.Payout,
		&w.Profit,
		&w.CreatedAt,
		&w.SettledAt,
	)
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		o := models.WagerOutcome(*outcome)
		w.Outcome = &o
	}
	return &w, nil
}

// Create inserts a wager and its legs. Leg event ids are normalized at write
// time so settlement lookups need a single canonical key.
func (r *WagerRepository) Create(ctx context.Context, wager *models.Wager) error {
	query := `
		INSERT INTO wagers (id, username, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := r.q.QueryRow(ctx, query,
		wager.ID,
		wager.Username,
		wager.Amount,
		wager.Status,
	).Scan(&wager.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wager for user %q: %w", wager.Username, err)
	}

	legQuery := `
		INSERT INTO wager_legs (wager_id, event_id, sport_key, league, market, selection, line, odds, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	for _, leg := range wager.Legs {
		leg.WagerID = wager.ID
		leg.EventID = models.NormalizeEventID(leg.EventID)
		leg.Status = models.LegStatusActive
		err := r.q.QueryRow(ctx, legQuery,
			leg.WagerID,
			leg.EventID,
			leg.SportKey,
			leg.League,
			leg.Market,
			leg.Selection,
			leg.Line,
			leg.Odds,
			leg.Status,
		).Scan(&leg.ID)
		if err != nil {
			return fmt.Errorf("failed to create leg for wager %s: %w", wager.ID, err)
		}
	}
	return nil
}

// GetByID retrieves a wager with its legs, returning nil when missing
func (r *WagerRepository) GetByID(ctx context.Context, id string) (*models.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE id = $1`

	wager, err := scanWager(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wager %s: %w", id, err)
	}

	if err := r.loadLegs(ctx, []*models.Wager{wager}); err != nil {
		return nil, err
	}
	return wager, nil
}

// GetActiveByEventID returns every active wager with a leg referencing the
// event. The id is normalized to the canonical key before querying.
func (r *WagerRepository) GetActiveByEventID(ctx context.Context, eventID string) ([]*models.Wager, error) {
	key := models.NormalizeEventID(eventID)
	query := `
		SELECT DISTINCT w.id, w.username, w.amount, w.status, w.outcome, w.payout, w.profit, w.created_at, w.settled_at
		FROM wagers w
		JOIN wager_legs l ON l.wager_id = w.id
		WHERE l.event_id = $1 AND w.status = 'active'
		ORDER BY w.created_at ASC, w.id ASC`

	wagers, err := r.queryWagers(ctx, query, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get active wagers for event %q: %w", key, err)
	}
	return wagers, nil
}

// GetByUser returns the user's wagers, newest first
func (r *WagerRepository) GetByUser(ctx context.Context, username string, limit int) ([]*models.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2`

	wagers, err := r.queryWagers(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers for user %q: %w", username, err)
	}
	return wagers, nil
}

// CountActiveByUser returns the number of the user's open wagers
func (r *WagerRepository) CountActiveByUser(ctx context.Context, username string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM wagers WHERE username = $1 AND status = 'active'`,
		username,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active wagers for user %q: %w", username, err)
	}
	return count, nil
}

// SettleLeg grades a single leg, guarded on the leg still being active
func (r *WagerRepository) SettleLeg(ctx context.Context, legID int64, outcome models.LegOutcome) (bool, error) {
	query := `
		UPDATE wager_legs
		SET status = 'settled', outcome = $1
		WHERE id = $2 AND status = 'active'`

	result, err := r.q.Exec(ctx, query, outcome, legID)
	if err != nil {
		return false, fmt.Errorf("failed to settle leg %d: %w", legID, err)
	}
	return result.RowsAffected() > 0, nil
}

// Settle transitions a wager from active to settled in a single conditional
// write keyed on the current status. Returns false when the wager was already
// terminal, which a concurrent settlement treats as "skip, not retry".
func (r *WagerRepository) Settle(ctx context.Context, id string, outcome models.WagerOutcome, payout, profit decimal.Decimal, settledAt time.Time) (bool, error) {
	query := `
		UPDATE wagers
		SET status = 'settled', outcome = $1, payout = $2, profit = $3, settled_at = $4
		WHERE id = $5 AND status = 'active'`

	result, err := r.q.Exec(ctx, query, outcome, payout, profit, settledAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to settle wager %s: %w", id, err)
	}
	return result.RowsAffected() > 0, nil
}

// Cancel transitions a wager from active to cancelled with the same
// conditional guard as Settle, cancelling its open legs alongside.
func (r *WagerRepository) Cancel(ctx context.Context, id string, cancelledAt time.Time) (bool, error) {
	query := `
		UPDATE wagers
		SET status = 'cancelled', outcome = 'cancelled', settled_at = $1
		WHERE id = $2 AND status = 'active'`

	result, err := r.q.Exec(ctx, query, cancelledAt, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel wager %s: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	_, err = r.q.Exec(ctx,
		`UPDATE wager_legs SET status = 'cancelled' WHERE wager_id = $1 AND status = 'active'`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to cancel legs of wager %s: %w", id, err)
	}
	return true, nil
}

// DailyProfit buckets the user's settled-wager profit by day over [from, to)
func (r *WagerRepository) DailyProfit(ctx context.Context, username string, from, to time.Time) ([]*models.DailyProfit, error) {
	query := `
		SELECT date_trunc('day', settled_at) AS day, COALESCE(SUM(profit), 0), COUNT(*)
		FROM wagers
		WHERE username = $1 AND status = 'settled' AND settled_at >= $2 AND settled_at < $3
		GROUP BY day
		ORDER BY day ASC`

	rows, err := r.q.Query(ctx, query, username, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily profit for user %q: %w", username, err)
	}
	defer rows.Close()

	var buckets []*models.DailyProfit
	for rows.Next() {
		var b models.DailyProfit
		if err := rows.Scan(&b.Date, &b.Profit, &b.Wagers); err != nil {
			return nil, fmt.Errorf("failed to scan daily profit row: %w", err)
		}
		buckets = append(buckets, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily profit rows: %w", err)
	}
	return buckets, nil
}

func (r *WagerRepository) queryWagers(ctx context.Context, query string, args ...any) ([]*models.Wager, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wagers []*models.Wager
	for rows.Next() {
		wager, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager: %w", err)
		}
		wagers = append(wagers, wager)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadLegs(ctx, wagers); err != nil {
		return nil, err
	}
	return wagers, nil
}

func (r *WagerRepository) loadLegs(ctx context.Context, wagers []*models.Wager) error {
	if len(wagers) == 0 {
		return nil
	}

	byID := make(map[string]*models.Wager, len(wagers))
	ids := make([]string, 0, len(wagers))
	for _, w := range wagers {
		byID[w.ID] = w
		ids = append(ids, w.ID)
	}

	query := `
		SELECT id, wager_id, event_id, sport_key, league, market, selection, COALESCE(line, 0), odds, status, outcome
		FROM wager_legs
		WHERE wager_id = ANY($1)
		ORDER BY id ASC`

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to query wager legs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leg models.Leg
		var outcome *string
		err := rows.Scan(
			&leg.ID,
			&leg.WagerID,
			&leg.EventID,
			&leg.SportKey,
			&leg.League,
			&leg.Market,
			&leg.Selection,
			&leg.Line,
			&leg.Odds,
			&leg.Status,
			&outcome,
		)
		if err != nil {
			return fmt.Errorf("failed to scan wager leg: %w", err)
		}
		if outcome != nil {
			o := models.LegOutcome(*outcome)
			leg.Outcome = &o
		}
		if w, ok := byID[leg.WagerID]; ok {
			w.Legs = append(w.Legs, &leg)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate wager legs: %w", err)
	}
	return nil
}
