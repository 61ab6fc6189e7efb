package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scratcher/database"
	"scratcher/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var transactionColumns = []string{
	"id", "account_id", "kind", "amount", "status", "payment_method",
	"external_ref", "description", "metadata", "created_at", "processed_at",
}

// TransactionRepository implements the TransactionRepository interface
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.AccountID,
		&tx.Kind,
		&tx.Amount,
		&tx.Status,
		&tx.PaymentMethod,
		&tx.ExternalRef,
		&tx.Description,
		&tx.Metadata,
		&tx.CreatedAt,
		&tx.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Create appends a journal entry
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	metadata := tx.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	query := `
		INSERT INTO transactions (account_id, kind, amount, status, payment_method, external_ref, description, metadata, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		tx.AccountID,
		tx.Kind,
		tx.Amount,
		tx.Status,
		tx.PaymentMethod,
		tx.ExternalRef,
		tx.Description,
		metadata,
		tx.ProcessedAt,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create %s transaction: %w", tx.Kind, err)
	}

	return nil
}

// GetByID retrieves a journal entry
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves and locks a journal entry
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error) {
	return r.get(ctx, id, true)
}

func (r *TransactionRepository) get(ctx context.Context, id int64, forUpdate bool) (*models.Transaction, error) {
	builder := psql.Select(transactionColumns...).
		From("transactions").
		Where(sq.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction query: %w", err)
	}

	tx, err := scanTransaction(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}

	return tx, nil
}

// MarkSettled moves a pending entry to a terminal status
func (r *TransactionRepository) MarkSettled(ctx context.Context, id int64, status models.TransactionStatus, processedAt time.Time) (bool, error) {
	query := `
		UPDATE transactions
		SET status = $2, processed_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, id, status, processedAt)
	if err != nil {
		return false, fmt.Errorf("failed to settle transaction %d: %w", id, err)
	}

	return result.RowsAffected() == 1, nil
}

// List returns an account's entries newest first
func (r *TransactionRepository) List(ctx context.Context, accountID int64, filter models.TransactionFilter) ([]*models.Transaction, error) {
	builder := psql.Select(transactionColumns...).
		From("transactions").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("created_at DESC", "id DESC")

	if filter.Kind != "" {
		builder = builder.Where(sq.Eq{"kind": filter.Kind})
	}
	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction list query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// SumWithdrawalsSince totals pending and completed withdrawals
func (r *TransactionRepository) SumWithdrawalsSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE account_id = $1
		  AND kind = 'withdrawal'
		  AND status IN ('pending', 'completed')
		  AND created_at >= $2
	`

	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, accountID, since).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum withdrawals for account %d: %w", accountID, err)
	}

	return total, nil
}

// SumCompletedSince totals completed entries per kind
func (r *TransactionRepository) SumCompletedSince(ctx context.Context, accountID int64, since time.Time) (map[models.TransactionKind]decimal.Decimal, error) {
	query, args, err := psql.Select("kind", "COALESCE(SUM(amount), 0)").
		From("transactions").
		Where(sq.Eq{"account_id": accountID, "status": models.TransactionStatusCompleted}).
		Where(sq.GtOrEq{"created_at": since}).
		GroupBy("kind").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build transaction totals query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to total transactions for account %d: %w", accountID, err)
	}
	defer rows.Close()

	totals := make(map[models.TransactionKind]decimal.Decimal)
	for rows.Next() {
		var kind models.TransactionKind
		var sum decimal.Decimal
		if err := rows.Scan(&kind, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan transaction total: %w", err)
		}
		totals[kind] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction totals: %w", err)
	}

	return totals, nil
}

// ListPending returns pending deposits and withdrawals, oldest first
func (r *TransactionRepository) ListPending(ctx context.Context, limit int) ([]*models.Transaction, error) {
	builder := psql.Select(transactionColumns...).
		From("transactions").
		Where(sq.Eq{
			"status": models.TransactionStatusPending,
			"kind":   []models.TransactionKind{models.TransactionKindDeposit, models.TransactionKindWithdrawal},
		}).
		OrderBy("created_at", "id")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build pending transaction query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
