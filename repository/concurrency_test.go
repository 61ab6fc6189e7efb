package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"scratcher/config"
	"scratcher/events"
	"scratcher/models"
	"scratcher/repository/testutil"
	"scratcher/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playConcurrently fires n plays at once and counts how they ended
func playConcurrently(t *testing.T, plays service.PlayService, accountID int64, n int, freePlay bool, refusal error) (succeeded, refused int) {
	t.Helper()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := plays.Play(ctx, accountID, 1, freePlay)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, refusal):
				refused++
			default:
				t.Errorf("unexpected play error: %v", err)
			}
		}()
	}
	wg.Wait()
	return succeeded, refused
}

func TestPlayService_ConcurrentPlaysOnPostgres(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	const accountID = 6001
	const attempts = 8

	cfg := testutil.CreateTestGameConfig(1, "10.00")
	never := 0.0
	cfg.WinProbability = &never
	require.NoError(t, SeedGameConfigs(ctx, testDB.DB, []*models.GameConfig{cfg}))
	createTestAccount(t, testDB.DB, accountID)

	wallets := NewWalletRepository(testDB.DB)
	wallet, err := wallets.Get(ctx, accountID)
	require.NoError(t, err)
	wallet.Balance = models.MustMoney("30.00")
	require.NoError(t, wallets.Save(ctx, wallet))

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	generator := service.NewOutcomeGenerator(service.NewSeededRandomSource(7), nil)
	plays := service.NewPlayService(factory, generator, config.DefaultCatalog().Progression, nil)

	t.Run("paid plays never overdraw", func(t *testing.T) {
		succeeded, refused := playConcurrently(t, plays, accountID, attempts, false, service.ErrInsufficientFunds)
		assert.Equal(t, 3, succeeded)
		assert.Equal(t, attempts-3, refused)

		wallet, err := wallets.Get(ctx, accountID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.IsZero(), "balance %s", wallet.Balance)
		assert.False(t, wallet.BonusBalance.IsNegative())

		entries, err := NewTransactionRepository(testDB.DB).List(ctx, accountID, models.TransactionFilter{Kind: models.TransactionKindStake, Limit: 100})
		require.NoError(t, err)
		staked := decimal.Zero
		for _, e := range entries {
			staked = staked.Add(e.Amount)
		}
		assert.Len(t, entries, 3)
		assert.True(t, staked.Equal(models.MustMoney("30.00")), "journal staked %s", staked)
	})

	t.Run("a single free game is consumed once", func(t *testing.T) {
		bonus := testutil.CreateTestBonus(accountID, models.BonusTypeMissionReward, "0", 1, testNow)
		_, err := NewBonusRepository(testDB.DB).Create(ctx, bonus)
		require.NoError(t, err)

		succeeded, refused := playConcurrently(t, plays, accountID, attempts, true, service.ErrNoFreePlayAvailable)
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, attempts-1, refused)

		stored, err := NewBonusRepository(testDB.DB).GetByIDForUpdate(ctx, bonus.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.FreeGames)
		assert.Equal(t, models.BonusStatusClaimed, stored.Status)

		recent, err := NewPlayRepository(testDB.DB).ListByAccount(ctx, accountID, 50)
		require.NoError(t, err)
		free := 0
		for _, p := range recent {
			if p.FreePlay {
				free++
			}
		}
		assert.Equal(t, 1, free)

		wallet, err := wallets.Get(ctx, accountID)
		require.NoError(t, err)
		assert.True(t, wallet.Balance.IsZero())
	})
}
