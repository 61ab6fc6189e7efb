package repository

import (
	"context"
	"testing"
	"time"

	"scratcher/events"
	"scratcher/models"
	"scratcher/repository/testutil"
	"scratcher/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedGameConfigs(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	configs := []*models.GameConfig{
		testutil.CreateTestGameConfig(1, "2.00"),
		testutil.CreateTestGameConfig(2, "10.00"),
	}
	require.NoError(t, SeedGameConfigs(ctx, testDB.DB, configs))
	require.NoError(t, SeedGameConfigs(ctx, testDB.DB, configs))

	active, err := NewGameConfigRepository(testDB.DB).ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(1), active[0].ID)
	assert.True(t, active[1].Price.Equal(models.MustMoney("10.00")))
}

func TestGameConfigRepository_Upsert(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewGameConfigRepository(testDB.DB)
	ctx := context.Background()

	cfg := testutil.CreateTestGameConfig(1, "5.00")
	require.NoError(t, repo.Upsert(ctx, cfg))

	stored, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, cfg.Symbols, stored.Symbols)
	assert.Len(t, stored.Tiers, len(models.DefaultPrizeTiers()))
	assert.True(t, stored.Tiers[4].Max)
	assert.Nil(t, stored.WinProbability)
	require.NoError(t, stored.Validate())

	p := 0.35
	cfg.WinProbability = &p
	cfg.Active = false
	require.NoError(t, repo.Upsert(ctx, cfg))

	stored, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stored.WinProbability)
	assert.Equal(t, 0.35, *stored.WinProbability)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	missing, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPlayRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	createTestAccount(t, testDB.DB, 6001)
	require.NoError(t, NewGameConfigRepository(testDB.DB).Upsert(context.Background(), testutil.CreateTestGameConfig(1, "10.00")))
	repo := NewPlayRepository(testDB.DB)
	ctx := context.Background()

	play := &models.Play{
		AccountID: 6001,
		ConfigID:  1,
		Outcome: models.Outcome{
			Grid:        []string{"a", "b", "c", "a", "b", "c", "a", "d", "e"},
			IsWinner:    true,
			Prize:       models.MustMoney("25.00"),
			Probability: 0.2,
			WinningCombination: &models.WinningCombination{
				Symbol:    "a",
				Positions: []int{0, 3, 6},
				Rule:      models.WinRuleThreeOfAKind,
			},
		},
		Stake:    models.MustMoney("10.00"),
		Prize:    models.MustMoney("25.00"),
		PlayedAt: testNow,
	}
	require.NoError(t, repo.Create(ctx, play))
	assert.NotZero(t, play.ID)

	plays, err := repo.ListByAccount(ctx, 6001, 10)
	require.NoError(t, err)
	require.Len(t, plays, 1)
	assert.Equal(t, play.Outcome.Grid, plays[0].Outcome.Grid)
	require.NotNil(t, plays[0].Outcome.WinningCombination)
	assert.Equal(t, []int{0, 3, 6}, plays[0].Outcome.WinningCombination.Positions)
	assert.True(t, models.MustMoney("25.00").Equal(plays[0].Outcome.Prize))
	assert.Nil(t, plays[0].BonusID)
}

func TestPlayRepository_WinnersAndTotals(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()
	createTestAccount(t, testDB.DB, 6101)
	createTestAccount(t, testDB.DB, 6102)
	require.NoError(t, NewGameConfigRepository(testDB.DB).Upsert(ctx, testutil.CreateTestGameConfig(1, "10.00")))
	repo := NewPlayRepository(testDB.DB)

	record := func(accountID int64, prize string, playedAt time.Time) *models.Play {
		play := &models.Play{
			AccountID: accountID,
			ConfigID:  1,
			Outcome:   models.Outcome{Grid: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}, Prize: models.MustMoney(prize)},
			Stake:     models.MustMoney("10.00"),
			Prize:     models.MustMoney(prize),
			PlayedAt:  playedAt,
		}
		require.NoError(t, repo.Create(ctx, play))
		return play
	}

	old := record(6101, "500.00", testNow.Add(-3*24*time.Hour))
	record(6101, "0", testNow.Add(-time.Minute))
	small := record(6102, "20.00", testNow.Add(-2*time.Hour))
	latest := record(6101, "30.00", testNow.Add(-time.Hour))

	t.Run("wins of the last day newest first", func(t *testing.T) {
		winners, err := repo.ListWinsSince(ctx, testNow.Add(-24*time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, winners, 2)
		assert.Equal(t, latest.ID, winners[0].PlayID)
		assert.Equal(t, int64(6101), winners[0].AccountID)
		assert.Equal(t, small.ID, winners[1].PlayID)
		assert.Equal(t, "Test Card", winners[0].GameName)
		assert.True(t, models.MustMoney("30.00").Equal(winners[0].Prize))

		winners, err = repo.ListWinsSince(ctx, testNow.Add(-24*time.Hour), 1)
		require.NoError(t, err)
		assert.Len(t, winners, 1)
	})

	t.Run("totals over a window", func(t *testing.T) {
		day, err := repo.TotalsSince(ctx, testNow.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(3), day.Games)
		assert.True(t, models.MustMoney("50.00").Equal(day.Prizes), "got %s", day.Prizes)
		assert.True(t, models.MustMoney("30.00").Equal(day.BiggestPrize))

		week, err := repo.TotalsSince(ctx, testNow.Add(-7*24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(4), week.Games)
		assert.True(t, old.Prize.Equal(week.BiggestPrize))

		none, err := repo.TotalsSince(ctx, testNow.Add(time.Hour))
		require.NoError(t, err)
		assert.Zero(t, none.Games)
		assert.True(t, none.Prizes.IsZero())
	})

	t.Run("accounts are counted", func(t *testing.T) {
		n, err := NewAccountRepository(testDB.DB).Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	createTestAccount(t, testDB.DB, 7001)
	ctx := context.Background()

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeBonusIssued, func(_ context.Context, e events.Event) {
		received <- e
	})
	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	_, err := uow.BonusRepository().Create(ctx, testutil.CreateTestBonus(7001, models.BonusTypeDaily, "0", 1, testNow))
	require.NoError(t, err)
	uow.EventBus().Publish(events.BonusIssuedEvent{AccountID: 7001})
	require.NoError(t, uow.Rollback())
	require.NoError(t, uow.Rollback())

	exists, err := NewBonusRepository(testDB.DB).ExistsForDay(ctx, 7001, models.BonusTypeDaily, service.UTCDay(testNow))
	require.NoError(t, err)
	assert.False(t, exists)

	uow = factory.Create()
	require.NoError(t, uow.Begin(ctx))
	_, err = uow.BonusRepository().Create(ctx, testutil.CreateTestBonus(7001, models.BonusTypeDaily, "0", 1, testNow))
	require.NoError(t, err)
	uow.EventBus().Publish(events.BonusIssuedEvent{AccountID: 7001})
	require.NoError(t, uow.Commit())

	select {
	case e := <-received:
		assert.Equal(t, int64(7001), e.(events.BonusIssuedEvent).AccountID)
	case <-time.After(5 * time.Second):
		t.Fatal("committed event was not delivered")
	}
}

func TestUnitOfWork_RepositoriesRequireBegin(t *testing.T) {
	uow := NewUnitOfWorkFactory(nil, events.NewBus()).Create()

	assert.Panics(t, func() { uow.WalletRepository() })
	assert.NoError(t, uow.Rollback())
	assert.Error(t, uow.Commit())
}
