package repository

import (
	"context"
	"errors"
	"fmt"

	"scratcher/database"
	"scratcher/models"

	"github.com/jackc/pgx/v5"
)

const walletColumns = `account_id, balance, bonus_balance, total_deposited, total_withdrawn, created_at, updated_at`

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository with a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

func scanWallet(row pgx.Row) (*models.Wallet, error) {
	var wallet models.Wallet
	err := row.Scan(
		&wallet.AccountID,
		&wallet.Balance,
		&wallet.BonusBalance,
		&wallet.TotalDeposited,
		&wallet.TotalWithdrawn,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Create inserts an empty wallet
func (r *WalletRepository) Create(ctx context.Context, accountID int64) (*models.Wallet, error) {
	query := `INSERT INTO wallets (account_id) VALUES ($1) RETURNING ` + walletColumns

	wallet, err := scanWallet(r.q.QueryRow(ctx, query, accountID))
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet for account %d: %w", accountID, err)
	}

	return wallet, nil
}

// Get reads a wallet without locking it
func (r *WalletRepository) Get(ctx context.Context, accountID int64) (*models.Wallet, error) {
	return r.get(ctx, `SELECT `+walletColumns+` FROM wallets WHERE account_id = $1`, accountID)
}

// GetForUpdate reads a wallet and locks its row
func (r *WalletRepository) GetForUpdate(ctx context.Context, accountID int64) (*models.Wallet, error) {
	return r.get(ctx, `SELECT `+walletColumns+` FROM wallets WHERE account_id = $1 FOR UPDATE`, accountID)
}

func (r *WalletRepository) get(ctx context.Context, query string, accountID int64) (*models.Wallet, error) {
	wallet, err := scanWallet(r.q.QueryRow(ctx, query, accountID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for account %d: %w", accountID, err)
	}

	return wallet, nil
}

// Save writes balances and totals
func (r *WalletRepository) Save(ctx context.Context, wallet *models.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $2, bonus_balance = $3, total_deposited = $4, total_withdrawn = $5, updated_at = $6
		WHERE account_id = $1
	`

	result, err := r.q.Exec(ctx, query,
		wallet.AccountID,
		wallet.Balance,
		wallet.BonusBalance,
		wallet.TotalDeposited,
		wallet.TotalWithdrawn,
		wallet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save wallet for account %d: %w", wallet.AccountID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("wallet for account %d not found", wallet.AccountID)
	}

	return nil
}
