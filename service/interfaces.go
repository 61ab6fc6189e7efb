package service

import (
	"context"
	"time"

	"scratcher/events"
	"scratcher/models"

	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByID retrieves an account, returning nil if it does not exist
	GetByID(ctx context.Context, id int64) (*models.Account, error)

	// Create inserts a bronze account with no points. It returns nil when
	// the account already exists.
	Create(ctx context.Context, id int64) (*models.Account, error)

	// AddLoyaltyPoints adds points and returns the updated account
	AddLoyaltyPoints(ctx context.Context, id int64, points int64) (*models.Account, error)

	// UpdateLoyaltyLevel stores a new level
	UpdateLoyaltyLevel(ctx context.Context, id int64, level models.LoyaltyLevel) error

	// Count returns the number of accounts
	Count(ctx context.Context) (int64, error)
}

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	// Create inserts an empty wallet for an account
	Create(ctx context.Context, accountID int64) (*models.Wallet, error)

	// Get reads a wallet without locking it, returning nil if missing
	Get(ctx context.Context, accountID int64) (*models.Wallet, error)

	// GetForUpdate reads and locks a wallet until the unit of work ends,
	// returning nil if missing
	GetForUpdate(ctx context.Context, accountID int64) (*models.Wallet, error)

	// Save writes balances and totals of a wallet locked by GetForUpdate
	Save(ctx context.Context, wallet *models.Wallet) error
}

// TransactionRepository defines the interface for the transaction journal
type TransactionRepository interface {
	// Create appends an entry and fills in ID and CreatedAt
	Create(ctx context.Context, tx *models.Transaction) error

	// GetByID retrieves an entry, returning nil if missing
	GetByID(ctx context.Context, id int64) (*models.Transaction, error)

	// GetByIDForUpdate retrieves and locks an entry, returning nil if missing
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error)

	// MarkSettled moves a pending entry to status. It reports false when the
	// entry was no longer pending.
	MarkSettled(ctx context.Context, id int64, status models.TransactionStatus, processedAt time.Time) (bool, error)

	// List returns an account's entries, newest first
	List(ctx context.Context, accountID int64, filter models.TransactionFilter) ([]*models.Transaction, error)

	// SumWithdrawalsSince totals pending and completed withdrawals created at or after since
	SumWithdrawalsSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error)

	// SumCompletedSince totals an account's completed entries per kind
	SumCompletedSince(ctx context.Context, accountID int64, since time.Time) (map[models.TransactionKind]decimal.Decimal, error)

	// ListPending returns pending deposits and withdrawals of every account,
	// oldest first
	ListPending(ctx context.Context, limit int) ([]*models.Transaction, error)
}

// PlayRepository defines the interface for play records
type PlayRepository interface {
	// Create stores a play and fills in ID
	Create(ctx context.Context, play *models.Play) error

	// ListByAccount returns the most recent plays of an account
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Play, error)

	// ListWinsSince returns plays that paid a prize at or after since, newest first
	ListWinsSince(ctx context.Context, since time.Time, limit int) ([]*models.WinnerEntry, error)

	// TotalsSince aggregates every play at or after since
	TotalsSince(ctx context.Context, since time.Time) (*models.PlayTotals, error)
}

// BonusRepository defines the interface for bonus credits
type BonusRepository interface {
	// Create stores a bonus. It reports false, without error, when a once-per-day
	// bonus of the same type was already issued on the bonus's IssuedOn day.
	Create(ctx context.Context, bonus *models.Bonus) (bool, error)

	// GetByIDForUpdate retrieves and locks a bonus, returning nil if missing
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Bonus, error)

	// FindPlayableForUpdate locks the active, unexpired bonus with free games
	// that expires soonest, returning nil if there is none
	FindPlayableForUpdate(ctx context.Context, accountID int64, now time.Time) (*models.Bonus, error)

	// ConsumeFreeGame takes one free game from an active bonus. It reports
	// false when the bonus had none left.
	ConsumeFreeGame(ctx context.Context, id int64, now time.Time) (bool, error)

	// Update writes status, claimed amount and claim time
	Update(ctx context.Context, bonus *models.Bonus) error

	// ExistsForDay reports whether a bonus of bonusType was issued on day
	ExistsForDay(ctx context.Context, accountID int64, bonusType models.BonusType, day time.Time) (bool, error)

	// ListByAccount returns an account's bonuses, optionally by status
	ListByAccount(ctx context.Context, accountID int64, status *models.BonusStatus) ([]*models.Bonus, error)

	// ExpireBefore marks active bonuses whose expiry is at or before now as
	// expired and returns how many changed
	ExpireBefore(ctx context.Context, now time.Time) (int64, error)
}

// MissionRepository defines the interface for missions
type MissionRepository interface {
	// Create stores a mission. It reports false, without error, when the
	// template was already issued to the account that day.
	Create(ctx context.Context, mission *models.Mission) (bool, error)

	// GetByIDForUpdate retrieves and locks a mission, returning nil if missing
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Mission, error)

	// ListActiveByEventForUpdate locks the unexpired active missions counting kind
	ListActiveByEventForUpdate(ctx context.Context, accountID int64, kind models.MissionEventKind, now time.Time) ([]*models.Mission, error)

	// Update writes progress, status and completion time
	Update(ctx context.Context, mission *models.Mission) error

	// ListByAccount returns missions issued on or after since
	ListByAccount(ctx context.Context, accountID int64, since time.Time) ([]*models.Mission, error)
}

// GameConfigRepository defines the interface for the config store
type GameConfigRepository interface {
	// GetByID retrieves a config, returning nil if missing
	GetByID(ctx context.Context, id int64) (*models.GameConfig, error)

	// ListActive returns the playable configs ordered by ID
	ListActive(ctx context.Context) ([]*models.GameConfig, error)

	// Upsert inserts or replaces a config
	Upsert(ctx context.Context, cfg *models.GameConfig) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes staged events
	Commit() error

	// Rollback rolls back the transaction and discards staged events. It is a
	// no-op after Commit.
	Rollback() error

	// Repository getters
	AccountRepository() AccountRepository
	WalletRepository() WalletRepository
	TransactionRepository() TransactionRepository
	PlayRepository() PlayRepository
	BonusRepository() BonusRepository
	MissionRepository() MissionRepository
	GameConfigRepository() GameConfigRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// PlayService defines the play orchestrator
type PlayService interface {
	// Play buys and reveals one card. With useFreePlay the stake is covered
	// by a bonus free game instead of the wallet.
	Play(ctx context.Context, accountID, configID int64, useFreePlay bool) (*models.PlayResult, error)

	// ListGames returns the playable game configs
	ListGames(ctx context.Context) ([]*models.GameConfig, error)

	// RecentPlays returns an account's latest plays
	RecentPlays(ctx context.Context, accountID int64, limit int) ([]*models.Play, error)
}

// WalletService defines deposits, withdrawals and settlement
type WalletService interface {
	GetBalance(ctx context.Context, accountID int64) (*models.Wallet, error)
	RequestDeposit(ctx context.Context, accountID int64, amount decimal.Decimal, method string) (*models.Transaction, error)
	RequestWithdrawal(ctx context.Context, accountID int64, amount decimal.Decimal, pixKey string) (*models.Transaction, error)
	ApplySettlement(ctx context.Context, callback SettlementCallback) (*models.Transaction, error)
	ListTransactions(ctx context.Context, accountID int64, filter models.TransactionFilter) ([]*models.Transaction, error)
	GetTransaction(ctx context.Context, accountID, transactionID int64) (*models.Transaction, error)
	ResubmitPending(ctx context.Context) (int, error)
}

// StatsService defines the public feeds and per-account summaries
type StatsService interface {
	WinnersFeed(ctx context.Context, limit int) ([]*models.WinnerEntry, error)
	PublicStats(ctx context.Context) (*models.PublicStats, error)
	MonthlySummary(ctx context.Context, accountID int64) (*models.MonthlySummary, error)
}

// ProgressionService defines bonuses, loyalty and missions
type ProgressionService interface {
	IssueDailyBonus(ctx context.Context, accountID int64) (*models.Bonus, error)
	IssueDailyMissions(ctx context.Context, accountID int64) ([]*models.Mission, error)
	ClaimBonus(ctx context.Context, accountID, bonusID int64) (*models.Bonus, *models.Wallet, error)
	ClaimMission(ctx context.Context, accountID, missionID int64) (*MissionClaim, error)
	ListBonuses(ctx context.Context, accountID int64, activeOnly bool) ([]*models.Bonus, error)
	ListMissions(ctx context.Context, accountID int64) ([]*models.Mission, error)
	ExpireBonuses(ctx context.Context) (int64, error)
}

// AccountService defines account bootstrap
type AccountService interface {
	// GetOrCreateAccount returns the account, creating it with a wallet,
	// welcome bonus and the day's missions on first sight
	GetOrCreateAccount(ctx context.Context, accountID int64) (*models.Account, error)

	// Login grants the daily bonus and missions
	Login(ctx context.Context, accountID int64) (*LoginResult, error)
}

// SettlementRequest asks a gateway to process a pending deposit or withdrawal
type SettlementRequest struct {
	TransactionID int64                  `json:"transaction_id"`
	AccountID     int64                  `json:"account_id"`
	Kind          models.TransactionKind `json:"kind"`
	Amount        decimal.Decimal        `json:"amount"`
	Method        string                 `json:"method"`
	ExternalRef   string                 `json:"external_ref"`
	Destination   string                 `json:"destination,omitempty"`
}

// SettlementCallback is the gateway's verdict on a request
type SettlementCallback struct {
	TransactionID int64                    `json:"transaction_id"`
	Outcome       models.SettlementOutcome `json:"outcome"`
}

// SettlementGateway forwards requests to an external payment processor.
// Verdicts come back asynchronously as SettlementCallbacks.
type SettlementGateway interface {
	Submit(ctx context.Context, req SettlementRequest) error
}

// SettlementSink accepts callbacks for asynchronous application
type SettlementSink interface {
	Deliver(ctx context.Context, callback SettlementCallback) error
}
