package service

import (
	"context"
	"time"

	"scratcher/events"
	"scratcher/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, id int64) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) AddLoyaltyPoints(ctx context.Context, id int64, points int64) (*models.Account, error) {
	args := m.Called(ctx, id, points)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateLoyaltyLevel(ctx context.Context, id int64, level models.LoyaltyLevel) error {
	args := m.Called(ctx, id, level)
	return args.Error(0)
}

func (m *MockAccountRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockWalletRepository is a mock implementation of WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, accountID int64) (*models.Wallet, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Get(ctx context.Context, accountID int64) (*models.Wallet, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetForUpdate(ctx context.Context, accountID int64) (*models.Wallet, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Save(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) MarkSettled(ctx context.Context, id int64, status models.TransactionStatus, processedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, status, processedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, accountID int64, filter models.TransactionFilter) ([]*models.Transaction, error) {
	args := m.Called(ctx, accountID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SumWithdrawalsSince(ctx context.Context, accountID int64, since time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, accountID, since)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) SumCompletedSince(ctx context.Context, accountID int64, since time.Time) (map[models.TransactionKind]decimal.Decimal, error) {
	args := m.Called(ctx, accountID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.TransactionKind]decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) ListPending(ctx context.Context, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

// MockPlayRepository is a mock implementation of PlayRepository
type MockPlayRepository struct {
	mock.Mock
}

func (m *MockPlayRepository) Create(ctx context.Context, play *models.Play) error {
	args := m.Called(ctx, play)
	return args.Error(0)
}

func (m *MockPlayRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Play, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Play), args.Error(1)
}

func (m *MockPlayRepository) ListWinsSince(ctx context.Context, since time.Time, limit int) ([]*models.WinnerEntry, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WinnerEntry), args.Error(1)
}

func (m *MockPlayRepository) TotalsSince(ctx context.Context, since time.Time) (*models.PlayTotals, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayTotals), args.Error(1)
}

// MockBonusRepository is a mock implementation of BonusRepository
type MockBonusRepository struct {
	mock.Mock
}

func (m *MockBonusRepository) Create(ctx context.Context, bonus *models.Bonus) (bool, error) {
	args := m.Called(ctx, bonus)
	return args.Bool(0), args.Error(1)
}

func (m *MockBonusRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Bonus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bonus), args.Error(1)
}

func (m *MockBonusRepository) FindPlayableForUpdate(ctx context.Context, accountID int64, now time.Time) (*models.Bonus, error) {
	args := m.Called(ctx, accountID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bonus), args.Error(1)
}

func (m *MockBonusRepository) ConsumeFreeGame(ctx context.Context, id int64, now time.Time) (bool, error) {
	args := m.Called(ctx, id, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockBonusRepository) Update(ctx context.Context, bonus *models.Bonus) error {
	args := m.Called(ctx, bonus)
	return args.Error(0)
}

func (m *MockBonusRepository) ExistsForDay(ctx context.Context, accountID int64, bonusType models.BonusType, day time.Time) (bool, error) {
	args := m.Called(ctx, accountID, bonusType, day)
	return args.Bool(0), args.Error(1)
}

func (m *MockBonusRepository) ListByAccount(ctx context.Context, accountID int64, status *models.BonusStatus) ([]*models.Bonus, error) {
	args := m.Called(ctx, accountID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bonus), args.Error(1)
}

func (m *MockBonusRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// MockMissionRepository is a mock implementation of MissionRepository
type MockMissionRepository struct {
	mock.Mock
}

func (m *MockMissionRepository) Create(ctx context.Context, mission *models.Mission) (bool, error) {
	args := m.Called(ctx, mission)
	return args.Bool(0), args.Error(1)
}

func (m *MockMissionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Mission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Mission), args.Error(1)
}

func (m *MockMissionRepository) ListActiveByEventForUpdate(ctx context.Context, accountID int64, kind models.MissionEventKind, now time.Time) ([]*models.Mission, error) {
	args := m.Called(ctx, accountID, kind, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Mission), args.Error(1)
}

func (m *MockMissionRepository) Update(ctx context.Context, mission *models.Mission) error {
	args := m.Called(ctx, mission)
	return args.Error(0)
}

func (m *MockMissionRepository) ListByAccount(ctx context.Context, accountID int64, since time.Time) ([]*models.Mission, error) {
	args := m.Called(ctx, accountID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Mission), args.Error(1)
}

// MockGameConfigRepository is a mock implementation of GameConfigRepository
type MockGameConfigRepository struct {
	mock.Mock
}

func (m *MockGameConfigRepository) GetByID(ctx context.Context, id int64) (*models.GameConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameConfig), args.Error(1)
}

func (m *MockGameConfigRepository) ListActive(ctx context.Context) ([]*models.GameConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameConfig), args.Error(1)
}

func (m *MockGameConfigRepository) Upsert(ctx context.Context, cfg *models.GameConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository getters
// return whatever SetRepositories installed.
type MockUnitOfWork struct {
	mock.Mock

	accountRepo     AccountRepository
	walletRepo      WalletRepository
	transactionRepo TransactionRepository
	playRepo        PlayRepository
	bonusRepo       BonusRepository
	missionRepo     MissionRepository
	gameConfigRepo  GameConfigRepository
	eventBus        EventPublisher
}

// MockRepositories bundles the mocks a service test wires into a unit of work
type MockRepositories struct {
	Accounts     *MockAccountRepository
	Wallets      *MockWalletRepository
	Transactions *MockTransactionRepository
	Plays        *MockPlayRepository
	Bonuses      *MockBonusRepository
	Missions     *MockMissionRepository
	GameConfigs  *MockGameConfigRepository
	Events       *MockEventPublisher
}

// NewMockRepositories creates a fresh set of repository mocks
func NewMockRepositories() *MockRepositories {
	return &MockRepositories{
		Accounts:     new(MockAccountRepository),
		Wallets:      new(MockWalletRepository),
		Transactions: new(MockTransactionRepository),
		Plays:        new(MockPlayRepository),
		Bonuses:      new(MockBonusRepository),
		Missions:     new(MockMissionRepository),
		GameConfigs:  new(MockGameConfigRepository),
		Events:       new(MockEventPublisher),
	}
}

// AssertExpectations asserts every repository mock
func (r *MockRepositories) AssertExpectations(t mock.TestingT) {
	r.Accounts.AssertExpectations(t)
	r.Wallets.AssertExpectations(t)
	r.Transactions.AssertExpectations(t)
	r.Plays.AssertExpectations(t)
	r.Bonuses.AssertExpectations(t)
	r.Missions.AssertExpectations(t)
	r.GameConfigs.AssertExpectations(t)
	r.Events.AssertExpectations(t)
}

// SetRepositories installs the repositories the getters return
func (m *MockUnitOfWork) SetRepositories(repos *MockRepositories) {
	m.accountRepo = repos.Accounts
	m.walletRepo = repos.Wallets
	m.transactionRepo = repos.Transactions
	m.playRepo = repos.Plays
	m.bonusRepo = repos.Bonuses
	m.missionRepo = repos.Missions
	m.gameConfigRepo = repos.GameConfigs
	m.eventBus = repos.Events
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository         { return m.accountRepo }
func (m *MockUnitOfWork) WalletRepository() WalletRepository           { return m.walletRepo }
func (m *MockUnitOfWork) TransactionRepository() TransactionRepository { return m.transactionRepo }
func (m *MockUnitOfWork) PlayRepository() PlayRepository               { return m.playRepo }
func (m *MockUnitOfWork) BonusRepository() BonusRepository             { return m.bonusRepo }
func (m *MockUnitOfWork) MissionRepository() MissionRepository         { return m.missionRepo }
func (m *MockUnitOfWork) GameConfigRepository() GameConfigRepository   { return m.gameConfigRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher                     { return m.eventBus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
