package repository

import (
	"context"
	"errors"
	"fmt"

	"scratcher/database"
	"scratcher/events"
	"scratcher/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	accountRepo      service.AccountRepository
	walletRepo       service.WalletRepository
	transactionRepo  service.TransactionRepository
	playRepo         service.PlayRepository
	bonusRepo        service.BonusRepository
	missionRepo      service.MissionRepository
	gameConfigRepo   service.GameConfigRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	// commit and rollback must still reach the server after the caller gives up
	u.ctx = context.WithoutCancel(ctx)

	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.walletRepo = newWalletRepositoryWithTx(tx)
	u.transactionRepo = newTransactionRepositoryWithTx(tx)
	u.playRepo = newPlayRepositoryWithTx(tx)
	u.bonusRepo = newBonusRepositoryWithTx(tx)
	u.missionRepo = newMissionRepositoryWithTx(tx)
	u.gameConfigRepo = newGameConfigRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// AccountRepository returns the account repository for this unit of work
func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// WalletRepository returns the wallet repository for this unit of work
func (u *unitOfWork) WalletRepository() service.WalletRepository {
	if u.walletRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.walletRepo
}

// TransactionRepository returns the transaction journal for this unit of work
func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	if u.transactionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionRepo
}

// PlayRepository returns the play repository for this unit of work
func (u *unitOfWork) PlayRepository() service.PlayRepository {
	if u.playRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.playRepo
}

// BonusRepository returns the bonus repository for this unit of work
func (u *unitOfWork) BonusRepository() service.BonusRepository {
	if u.bonusRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.bonusRepo
}

// MissionRepository returns the mission repository for this unit of work
func (u *unitOfWork) MissionRepository() service.MissionRepository {
	if u.missionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.missionRepo
}

// GameConfigRepository returns the game config repository for this unit of work
func (u *unitOfWork) GameConfigRepository() service.GameConfigRepository {
	if u.gameConfigRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.gameConfigRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
