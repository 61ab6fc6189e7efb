package service

import (
	"context"
	"fmt"

	"scratcher/models"
)

// Journal appends transaction entries and settles pending ones. Entries are
// never edited except for the single pending to completed/failed move.
type Journal struct {
	clock Clock
}

// NewJournal creates a journal
func NewJournal(clock Clock) *Journal {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &Journal{clock: clock}
}

// AppendCompleted records an entry whose money already moved
func (j *Journal) AppendCompleted(ctx context.Context, uow UnitOfWork, entry *models.Transaction) error {
	now := j.clock.Now()
	entry.Status = models.TransactionStatusCompleted
	entry.ProcessedAt = &now
	return j.append(ctx, uow, entry)
}

// AppendPending records an entry awaiting a settlement callback
func (j *Journal) AppendPending(ctx context.Context, uow UnitOfWork, entry *models.Transaction) error {
	entry.Status = models.TransactionStatusPending
	entry.ProcessedAt = nil
	return j.append(ctx, uow, entry)
}

func (j *Journal) append(ctx context.Context, uow UnitOfWork, entry *models.Transaction) error {
	entry.Amount = models.Money(entry.Amount)
	if entry.Amount.IsNegative() {
		return fmt.Errorf("%w: journal amounts are never negative", ErrInvalidAmount)
	}
	if entry.Metadata == nil {
		entry.Metadata = map[string]any{}
	}
	if err := uow.TransactionRepository().Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to append %s entry: %w", entry.Kind, err)
	}
	return nil
}

// Settle locks a pending entry and moves it to completed or failed. An entry
// that is already terminal yields ErrSettlementConflict.
func (j *Journal) Settle(ctx context.Context, uow UnitOfWork, transactionID int64, outcome models.SettlementOutcome) (*models.Transaction, error) {
	if !outcome.Valid() {
		return nil, fmt.Errorf("unknown settlement outcome %q", outcome)
	}

	repo := uow.TransactionRepository()
	entry, err := repo.GetByIDForUpdate(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if entry == nil {
		return nil, fmt.Errorf("%w: %d", ErrTransactionNotFound, transactionID)
	}

	if err := entry.Settle(outcome, j.clock.Now()); err != nil {
		return nil, fmt.Errorf("%w: transaction %d is %s", ErrSettlementConflict, transactionID, entry.Status)
	}

	updated, err := repo.MarkSettled(ctx, entry.ID, entry.Status, *entry.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to settle transaction: %w", err)
	}
	if !updated {
		return nil, fmt.Errorf("%w: transaction %d changed concurrently", ErrSettlementConflict, transactionID)
	}
	return entry, nil
}
