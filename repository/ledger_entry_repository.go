package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookie/database"
	"bookie/models"
)

// LedgerEntryRepository implements the service.LedgerEntryRepository interface
type LedgerEntryRepository struct {
	q queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

// newLedgerEntryRepositoryWithTx creates a new ledger entry repository with a transaction
func newLedgerEntryRepositoryWithTx(tx queryable) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Record appends an audit entry for a committed balance mutation
func (r *LedgerEntryRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger entry metadata: %w", err)
	}

	query := `
		INSERT INTO ledger_entries (username, amount, balance_after, entry_type, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = r.q.QueryRow(ctx, query,
		entry.Username,
		entry.Amount,
		entry.BalanceAfter,
		entry.EntryType,
		metadataJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry for user %q: %w", entry.Username, err)
	}
	return nil
}

// GetByUser returns the user's most recent entries
func (r *LedgerEntryRepository) GetByUser(ctx context.Context, username string, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, username, amount, balance_after, entry_type, metadata, created_at
		FROM ledger_entries
		WHERE username = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.queryEntries(ctx, query, username, limit)
}

// GetByDateRange returns the user's entries within [from, to)
func (r *LedgerEntryRepository) GetByDateRange(ctx context.Context, username string, from, to time.Time) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, username, amount, balance_after, entry_type, metadata, created_at
		FROM ledger_entries
		WHERE username = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at ASC`

	return r.queryEntries(ctx, query, username, from, to)
}

func (r *LedgerEntryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*models.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var metadataJSON []byte
		err := rows.Scan(
			&entry.ID,
			&entry.Username,
			&entry.Amount,
			&entry.BalanceAfter,
			&entry.EntryType,
			&metadataJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal ledger entry metadata: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}
