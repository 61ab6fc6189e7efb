package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"scratcher/config"
	"scratcher/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const (
	TestAccountID = 424242
	TestConfigID  = 1
	TestBonusID   = 77
)

// TestNow is the wall time every fake clock starts at
var TestNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// FakeClock is a manually advanced Clock. After fires immediately with the
// time the timer would have expired at.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock stopped at TestNow
func NewFakeClock() *FakeClock {
	return &FakeClock{now: TestNow}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.Now().Add(d)
	return ch
}

// Advance moves the clock forward
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// FixtureProgression returns the progression rules of the built-in catalog
func FixtureProgression() config.Progression {
	return config.DefaultCatalog().Progression
}

// FixtureGameConfig returns a 10.00 card whose win chance is p and whose only
// prize tier pays twice the price
func FixtureGameConfig(p float64) *models.GameConfig {
	return &models.GameConfig{
		ID:             TestConfigID,
		Name:           "Lucky Scratch",
		Theme:          "classic",
		Price:          models.MustMoney("10.00"),
		MaxPrize:       models.MustMoney("5000.00"),
		Symbols:        models.DefaultSymbols,
		GridSize:       models.DefaultGridSize,
		WinProbability: &p,
		Tiers:          []models.PrizeTier{{Multiplier: decimal.NewFromInt(2), Cumulative: 1.0}},
		Active:         true,
	}
}

// FixtureWallet returns a wallet holding balance principal and bonus bonus
func FixtureWallet(balance, bonus string) *models.Wallet {
	w := models.NewWallet(TestAccountID)
	w.CreatedAt = TestNow
	w.Balance = models.MustMoney(balance)
	w.BonusBalance = models.MustMoney(bonus)
	return w
}

// assertMoney compares a decimal against its two-place string form
func assertMoney(t *testing.T, expected string, actual decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, expected, actual.StringFixed(models.MoneyPlaces), msgAndArgs...)
}

// newMockUoW wires a fresh set of repository mocks into a unit of work
// handed out by the returned factory
func newMockUoW() (*MockUnitOfWorkFactory, *MockUnitOfWork, *MockRepositories) {
	repos := NewMockRepositories()
	uow := new(MockUnitOfWork)
	uow.SetRepositories(repos)
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	return factory, uow, repos
}

// expectCommittedUoW sets up a unit of work that begins, commits and rolls back
func expectCommittedUoW(uow *MockUnitOfWork) {
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Commit").Return(nil)
	uow.On("Rollback").Return(nil)
}

// expectAbortedUoW sets up a unit of work that begins and only rolls back
func expectAbortedUoW(uow *MockUnitOfWork) {
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback").Return(nil)
}

// assignTransactionIDs makes the transaction mock number entries from start
func assignTransactionIDs(repo *MockTransactionRepository, start int64) {
	next := start
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Transaction")).Return(nil).Run(func(args mock.Arguments) {
		tx := args.Get(1).(*models.Transaction)
		tx.ID = next
		tx.CreatedAt = TestNow
		next++
	})
}

// recordingGateway collects submitted requests
type recordingGateway struct {
	mu       sync.Mutex
	requests []SettlementRequest
	err      error
}

func (g *recordingGateway) Submit(_ context.Context, req SettlementRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	return g.err
}

func (g *recordingGateway) Requests() []SettlementRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SettlementRequest(nil), g.requests...)
}

// FixtureWalletLimits mirrors the limits of the test config
func FixtureWalletLimits() WalletLimits {
	return WalletLimits{
		MinDeposit:           models.MustMoney("10.00"),
		MaxDeposit:           models.MustMoney("10000.00"),
		MinWithdrawal:        models.MustMoney("20.00"),
		MaxWithdrawal:        models.MustMoney("50000.00"),
		DailyWithdrawalLimit: models.MustMoney("5000.00"),
	}
}
