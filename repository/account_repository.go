package repository

import (
	"context"
	"errors"
	"fmt"

	"scratcher/database"
	"scratcher/models"

	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, loyalty_points, loyalty_level, created_at, updated_at`

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.LoyaltyPoints,
		&account.LoyaltyLevel,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}

	return account, nil
}

// Create inserts a bronze account. A concurrent creator wins silently.
func (r *AccountRepository) Create(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id)
		VALUES ($1)
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account %d: %w", id, err)
	}

	return account, nil
}

// AddLoyaltyPoints adds points to an account
func (r *AccountRepository) AddLoyaltyPoints(ctx context.Context, id int64, points int64) (*models.Account, error) {
	query := `
		UPDATE accounts
		SET loyalty_points = loyalty_points + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	account, err := scanAccount(r.q.QueryRow(ctx, query, id, points))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add loyalty points to account %d: %w", id, err)
	}

	return account, nil
}

// UpdateLoyaltyLevel stores a new loyalty level
func (r *AccountRepository) UpdateLoyaltyLevel(ctx context.Context, id int64, level models.LoyaltyLevel) error {
	query := `UPDATE accounts SET loyalty_level = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id, level)
	if err != nil {
		return fmt.Errorf("failed to update loyalty level of account %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", id)
	}

	return nil
}

// Count returns the number of accounts
func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return n, nil
}
