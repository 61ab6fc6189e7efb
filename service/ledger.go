package service

import (
	"context"
	"errors"
	"fmt"

	"scratcher/models"

	"github.com/shopspring/decimal"
)

// BalanceMove describes one wallet mutation
type BalanceMove struct {
	Before models.Wallet
	After  *models.Wallet
	Split  models.DebitSplit
}

// Ledger applies credits and debits to wallets. Every mutation locks the
// wallet row for the unit of work first, so two units of work touching the
// same account are serialized.
type Ledger struct {
	clock Clock
}

// NewLedger creates a ledger
func NewLedger(clock Clock) *Ledger {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &Ledger{clock: clock}
}

// Lock reads and locks the wallet of accountID
func (l *Ledger) Lock(ctx context.Context, uow UnitOfWork, accountID int64) (*models.Wallet, error) {
	wallet, err := uow.WalletRepository().GetForUpdate(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}
	return wallet, nil
}

// Credit adds a positive amount to the principal or bonus balance
func (l *Ledger) Credit(ctx context.Context, uow UnitOfWork, accountID int64, amount decimal.Decimal, dest models.BalanceKind) (*BalanceMove, error) {
	return l.mutate(ctx, uow, accountID, func(w *models.Wallet) (models.DebitSplit, error) {
		return models.DebitSplit{}, w.Credit(amount, dest)
	})
}

// Debit removes a positive amount according to source. On ErrInsufficientFunds
// the wallet is unchanged.
func (l *Ledger) Debit(ctx context.Context, uow UnitOfWork, accountID int64, amount decimal.Decimal, source models.PaymentSource) (*BalanceMove, error) {
	if source == models.PaymentFreePlay {
		return nil, fmt.Errorf("free plays are funded by bonus free games, not the wallet")
	}
	return l.mutate(ctx, uow, accountID, func(w *models.Wallet) (models.DebitSplit, error) {
		return w.Debit(amount, source)
	})
}

// RecordDeposit credits an approved deposit to principal and the deposit total
func (l *Ledger) RecordDeposit(ctx context.Context, uow UnitOfWork, accountID int64, amount decimal.Decimal) (*BalanceMove, error) {
	return l.mutate(ctx, uow, accountID, func(w *models.Wallet) (models.DebitSplit, error) {
		if err := w.Credit(amount, models.BalancePrincipal); err != nil {
			return models.DebitSplit{}, err
		}
		w.TotalDeposited = w.TotalDeposited.Add(models.Money(amount))
		return models.DebitSplit{}, nil
	})
}

// RecordWithdrawal adds an approved withdrawal to the withdrawal total. The
// funds already left the principal balance when the withdrawal was requested.
func (l *Ledger) RecordWithdrawal(ctx context.Context, uow UnitOfWork, accountID int64, amount decimal.Decimal) (*BalanceMove, error) {
	return l.mutate(ctx, uow, accountID, func(w *models.Wallet) (models.DebitSplit, error) {
		w.TotalWithdrawn = w.TotalWithdrawn.Add(models.Money(amount))
		return models.DebitSplit{}, nil
	})
}

// CanWithdraw reports whether principal alone covers amount
func (l *Ledger) CanWithdraw(wallet *models.Wallet, amount decimal.Decimal) bool {
	return wallet.CanWithdraw(amount)
}

// CanSpend returns principal plus bonus
func (l *Ledger) CanSpend(wallet *models.Wallet) decimal.Decimal {
	return wallet.Spendable()
}

func (l *Ledger) mutate(ctx context.Context, uow UnitOfWork, accountID int64, apply func(w *models.Wallet) (models.DebitSplit, error)) (*BalanceMove, error) {
	wallet, err := l.Lock(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}

	before := *wallet
	split, err := apply(wallet)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientBalance) {
			return nil, fmt.Errorf("%w: need more than %s available", ErrInsufficientFunds, before.Spendable().StringFixed(models.MoneyPlaces))
		}
		if errors.Is(err, models.ErrNonPositiveAmount) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		return nil, err
	}

	wallet.UpdatedAt = l.clock.Now()
	if err := uow.WalletRepository().Save(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}
	return &BalanceMove{Before: before, After: wallet, Split: split}, nil
}
