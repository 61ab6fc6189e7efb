package service

import (
	"context"

	"scratcher/events"
	"scratcher/models"
)

// recordBalanceChange journals entry for a wallet move and stages the matching
// BalanceChangeEvent. Every wallet mutation that creates a journal entry goes
// through here so the journal and the wallet never disagree. move is nil for
// entries that do not touch a balance.
func recordBalanceChange(ctx context.Context, uow UnitOfWork, journal *Journal, move *BalanceMove, entry *models.Transaction) error {
	var err error
	if entry.Status == models.TransactionStatusPending {
		err = journal.AppendPending(ctx, uow, entry)
	} else {
		err = journal.AppendCompleted(ctx, uow, entry)
	}
	if err != nil {
		return err
	}

	publishBalanceChange(uow, move, entry)
	return nil
}

// publishBalanceChange stages a BalanceChangeEvent for a move tied to an
// existing journal entry
func publishBalanceChange(uow UnitOfWork, move *BalanceMove, entry *models.Transaction) {
	if move == nil {
		return
	}
	uow.EventBus().Publish(events.BalanceChangeEvent{
		AccountID:       entry.AccountID,
		TransactionID:   entry.ID,
		Kind:            entry.Kind,
		Amount:          entry.Amount,
		OldBalance:      move.Before.Balance,
		NewBalance:      move.After.Balance,
		OldBonusBalance: move.Before.BonusBalance,
		NewBonusBalance: move.After.BonusBalance,
	})
}
