package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"scratcher/events"
	"scratcher/models"
	"scratcher/service"
)

// Store keeps every table in process memory. A unit of work holds the store
// lock from Begin until Commit or Rollback, so units are serialized across
// all accounts. Rollback replays an undo log of the rows the unit wrote.
type Store struct {
	mu    sync.Mutex
	clock service.Clock
	data  *tables
}

type tables struct {
	accounts     map[int64]*models.Account
	wallets      map[int64]*models.Wallet
	transactions map[int64]*models.Transaction
	plays        map[int64]*models.Play
	bonuses      map[int64]*models.Bonus
	missions     map[int64]*models.Mission
	configs      map[int64]*models.GameConfig

	nextTransactionID int64
	nextPlayID        int64
	nextBonusID       int64
	nextMissionID     int64
}

func newTables() *tables {
	return &tables{
		accounts:     map[int64]*models.Account{},
		wallets:      map[int64]*models.Wallet{},
		transactions: map[int64]*models.Transaction{},
		plays:        map[int64]*models.Play{},
		bonuses:      map[int64]*models.Bonus{},
		missions:     map[int64]*models.Mission{},
		configs:      map[int64]*models.GameConfig{},
	}
}

// NewStore creates an empty store. clock stamps created_at columns.
func NewStore(clock service.Clock) *Store {
	if clock == nil {
		clock = service.NewSystemClock()
	}
	return &Store{clock: clock, data: newTables()}
}

// Seed stores game configs outside any unit of work
func (s *Store) Seed(configs ...*models.GameConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("failed to seed game config: %w", err)
		}
		stored := cloneGameConfig(cfg)
		stored.CreatedAt = s.clock.Now()
		s.data.configs[cfg.ID] = stored
	}
	return nil
}

// NewUnitOfWorkFactory creates a UnitOfWork factory over the store
func NewUnitOfWorkFactory(store *Store, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{store: store, eventBus: eventBus}
}

type unitOfWorkFactory struct {
	store    *Store
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		store:            f.store,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// unitOfWork implements the UnitOfWork interface over a Store
type unitOfWork struct {
	store            *Store
	ctx              context.Context
	undo             undoLog
	started          bool
	transactionalBus *events.TransactionalBus
}

// Begin takes the store lock
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.started {
		return fmt.Errorf("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.store.mu.Lock()
	u.undo.reset()
	u.ctx = context.WithoutCancel(ctx)
	u.started = true
	return nil
}

// Commit releases the lock and flushes staged events
func (u *unitOfWork) Commit() error {
	if !u.started {
		return fmt.Errorf("no transaction to commit")
	}

	u.undo.reset()
	u.started = false
	u.store.mu.Unlock()

	u.transactionalBus.Flush(u.ctx)
	return nil
}

// Rollback reverts every write made since Begin
func (u *unitOfWork) Rollback() error {
	if !u.started {
		return nil
	}

	u.undo.revert()
	u.started = false
	u.store.mu.Unlock()

	u.transactionalBus.Discard()
	return nil
}

func (u *unitOfWork) tables() *tables {
	if !u.started {
		panic("unit of work not started - call Begin() first")
	}
	return u.store.data
}

func (u *unitOfWork) AccountRepository() service.AccountRepository {
	return &accountRepository{t: u.tables(), undo: &u.undo, clock: u.store.clock}
}

func (u *unitOfWork) WalletRepository() service.WalletRepository {
	return &walletRepository{t: u.tables(), undo: &u.undo, clock: u.store.clock}
}

func (u *unitOfWork) TransactionRepository() service.TransactionRepository {
	return &transactionRepository{t: u.tables(), undo: &u.undo, clock: u.store.clock}
}

func (u *unitOfWork) PlayRepository() service.PlayRepository {
	return &playRepository{t: u.tables(), undo: &u.undo}
}

func (u *unitOfWork) BonusRepository() service.BonusRepository {
	return &bonusRepository{t: u.tables(), undo: &u.undo, clock: u.store.clock}
}

func (u *unitOfWork) MissionRepository() service.MissionRepository {
	return &missionRepository{t: u.tables(), undo: &u.undo}
}

func (u *unitOfWork) GameConfigRepository() service.GameConfigRepository {
	return &gameConfigRepository{t: u.tables(), undo: &u.undo, clock: u.store.clock}
}

func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	return &c
}

func cloneWallet(w *models.Wallet) *models.Wallet {
	c := *w
	return &c
}

func cloneTransaction(t *models.Transaction) *models.Transaction {
	c := *t
	c.Metadata = maps.Clone(t.Metadata)
	if t.ExternalRef != nil {
		ref := *t.ExternalRef
		c.ExternalRef = &ref
	}
	if t.ProcessedAt != nil {
		at := *t.ProcessedAt
		c.ProcessedAt = &at
	}
	return &c
}

func clonePlay(p *models.Play) *models.Play {
	c := *p
	c.Outcome.Grid = slices.Clone(p.Outcome.Grid)
	if p.Outcome.WinningCombination != nil {
		wc := *p.Outcome.WinningCombination
		wc.Positions = slices.Clone(wc.Positions)
		c.Outcome.WinningCombination = &wc
	}
	if p.BonusID != nil {
		id := *p.BonusID
		c.BonusID = &id
	}
	return &c
}

func cloneBonus(b *models.Bonus) *models.Bonus {
	c := *b
	c.Metadata = maps.Clone(b.Metadata)
	if b.ClaimedAt != nil {
		at := *b.ClaimedAt
		c.ClaimedAt = &at
	}
	return &c
}

func cloneMission(m *models.Mission) *models.Mission {
	c := *m
	if m.CompletedAt != nil {
		at := *m.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func cloneGameConfig(g *models.GameConfig) *models.GameConfig {
	c := *g
	c.Symbols = slices.Clone(g.Symbols)
	c.Tiers = slices.Clone(g.Tiers)
	if g.WinProbability != nil {
		p := *g.WinProbability
		c.WinProbability = &p
	}
	return &c
}
