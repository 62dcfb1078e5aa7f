package repository

import (
	"context"
	"errors"
	"fmt"

	"bookie/database"
	"bookie/models"
	"bookie/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `username, balance, profit, losses, rank, wagered_amount, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.Username,
		&user.Balance,
		&user.Profit,
		&user.Losses,
		&user.Rank,
		&user.WageredAmount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername retrieves a user by username, returning nil when missing
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %q: %w", username, err)
	}
	return user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, username string, initialBalance decimal.Decimal) (*models.User, error) {
	query := `
		INSERT INTO users (username, balance)
		VALUES ($1, $2)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, username, initialBalance))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, service.NewError(service.KindConflict, "username %q is already taken", username)
		}
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}
	return user, nil
}

// DebitIfSufficient atomically debits the stake from the user's balance,
// failing without any change when the balance is below the stake. The check
// and the write are a single conditional UPDATE, so concurrent placements by
// the same user cannot overdraw.
func (r *UserRepository) DebitIfSufficient(ctx context.Context, username string, stake decimal.Decimal) (*models.User, error) {
	if stake.Sign() <= 0 {
		return nil, service.NewError(service.KindValidation, "debit amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1,
		    wagered_amount = wagered_amount + $1,
		    updated_at = NOW()
		WHERE username = $2 AND balance >= $1
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, stake, username))
	if err == pgx.ErrNoRows {
		existing, lookupErr := r.GetByUsername(ctx, username)
		if lookupErr != nil {
			return nil, fmt.Errorf("failed to check user after debit refusal: %w", lookupErr)
		}
		if existing == nil {
			return nil, service.NewError(service.KindNotFound, "user %q not found", username)
		}
		return nil, service.NewError(service.KindConflict,
			"insufficient balance: have %s, need %s", existing.Balance, stake)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to debit balance for user %q: %w", username, err)
	}
	return user, nil
}

// Credit atomically adds to the user's balance
func (r *UserRepository) Credit(ctx context.Context, username string, amount decimal.Decimal) (*models.User, error) {
	if amount.Sign() <= 0 {
		return nil, service.NewError(service.KindValidation, "credit amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE username = $2
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, amount, username))
	if err == pgx.ErrNoRows {
		return nil, service.NewError(service.KindNotFound, "user %q not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to credit balance for user %q: %w", username, err)
	}
	return user, nil
}

// ApplyLedgerDeltas applies accumulated profit and losses deltas as a single
// atomic increment against the stored values. Concurrent settlements touching
// the same user compose instead of overwriting each other.
func (r *UserRepository) ApplyLedgerDeltas(ctx context.Context, username string, profitDelta, lossesDelta decimal.Decimal) (*models.User, error) {
	query := `
		UPDATE users
		SET profit = profit + $1,
		    losses = losses + $2,
		    updated_at = NOW()
		WHERE username = $3
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, profitDelta, lossesDelta, username))
	if err == pgx.ErrNoRows {
		return nil, service.NewError(service.KindNotFound, "user %q not found", username)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to apply ledger deltas for user %q: %w", username, err)
	}
	return user, nil
}

// UpdateRank writes the recomputed rank back to the user record
func (r *UserRepository) UpdateRank(ctx context.Context, username string, rank int) error {
	query := `UPDATE users SET rank = $1, updated_at = NOW() WHERE username = $2`

	result, err := r.q.Exec(ctx, query, rank, username)
	if err != nil {
		return fmt.Errorf("failed to update rank for user %q: %w", username, err)
	}
	if result.RowsAffected() == 0 {
		return service.NewError(service.KindNotFound, "user %q not found", username)
	}
	return nil
}

// CountProfitGreaterThan returns the number of users with strictly greater profit
func (r *UserRepository) CountProfitGreaterThan(ctx context.Context, profit decimal.Decimal) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE profit > $1`, profit).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by profit: %w", err)
	}
	return count, nil
}

// Count returns the total user population size
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Leaderboard returns one page of users sorted by profit descending
func (r *UserRepository) Leaderboard(ctx context.Context, offset, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY profit DESC, username ASC
		OFFSET $1 LIMIT $2`

	rows, err := r.q.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard rows: %w", err)
	}
	return users, nil
}
