package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"scratcher/events"
	"scratcher/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPlayService(factory UnitOfWorkFactory, clock Clock) PlayService {
	generator := NewOutcomeGenerator(NewSeededRandomSource(1), nil)
	return NewPlayService(factory, generator, FixtureProgression(), clock)
}

func TestPlayService_Play_Win(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	cfg := FixtureGameConfig(1.0)
	wallet := FixtureWallet("50.00", "0.00")

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(cfg, nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil).Twice()
	assignTransactionIDs(repos.Transactions, 100)
	repos.Plays.On("Create", ctx, mock.MatchedBy(func(p *models.Play) bool {
		return p.AccountID == TestAccountID &&
			p.Stake.Equal(models.MustMoney("10.00")) &&
			p.Prize.Equal(models.MustMoney("20.00")) &&
			!p.FreePlay
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Play).ID = 9
	})
	repos.Missions.On("ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventGamePlayed, TestNow).Return([]*models.Mission{}, nil)
	repos.Missions.On("ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventPrizeWon, TestNow).Return([]*models.Mission{}, nil)
	repos.Accounts.On("AddLoyaltyPoints", ctx, int64(TestAccountID), int64(100)).Return(&models.Account{
		ID:            TestAccountID,
		LoyaltyPoints: 100,
		LoyaltyLevel:  models.LoyaltyBronze,
	}, nil)

	var published []events.Event
	repos.Events.On("Publish", mock.Anything).Return().Run(func(args mock.Arguments) {
		published = append(published, args.Get(0).(events.Event))
	})

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, false)

	require.NoError(t, err)
	assert.True(t, result.Outcome.IsWinner)
	assertMoney(t, "20.00", result.Outcome.Prize)
	assertMoney(t, "60.00", result.Wallet.Balance)
	assert.Equal(t, int64(9), result.Play.ID)
	assert.Equal(t, int64(100), result.LoyaltyPointsEarned)
	require.NotNil(t, result.Outcome.WinningCombination)
	assert.Len(t, result.Outcome.WinningCombination.Positions, 3)
	for _, pos := range result.Outcome.WinningCombination.Positions {
		assert.Equal(t, result.Outcome.WinningCombination.Symbol, result.Outcome.Grid[pos])
	}

	var types []events.EventType
	for _, e := range published {
		types = append(types, e.Type())
	}
	assert.Equal(t, []events.EventType{
		events.EventTypeBalanceChange,
		events.EventTypeBalanceChange,
		events.EventTypeGamePlayed,
		events.EventTypePrizeWon,
	}, types)

	factory.AssertExpectations(t)
	uow.AssertExpectations(t)
	repos.AssertExpectations(t)
}

func TestPlayService_Play_Loss(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	wallet := FixtureWallet("50.00", "0.00")

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(0), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil).Once()
	repos.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Kind == models.TransactionKindStake &&
			tx.Amount.Equal(models.MustMoney("10.00")) &&
			tx.Status == models.TransactionStatusCompleted &&
			tx.PaymentMethod == models.PaymentMethodBalance
	})).Return(nil).Once()
	repos.Plays.On("Create", ctx, mock.AnythingOfType("*models.Play")).Return(nil)
	repos.Missions.On("ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventGamePlayed, TestNow).Return([]*models.Mission{}, nil)
	repos.Accounts.On("AddLoyaltyPoints", ctx, int64(TestAccountID), int64(100)).Return(&models.Account{
		ID:            TestAccountID,
		LoyaltyPoints: 100,
		LoyaltyLevel:  models.LoyaltyBronze,
	}, nil)
	repos.Events.On("Publish", mock.Anything).Return()

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, false)

	require.NoError(t, err)
	assert.False(t, result.Outcome.IsWinner)
	assert.Nil(t, result.Outcome.WinningCombination)
	assertMoney(t, "0.00", result.Outcome.Prize)
	assertMoney(t, "40.00", result.Wallet.Balance)
	assert.Len(t, result.Outcome.Grid, models.DefaultGridSize)

	repos.Missions.AssertNotCalled(t, "ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventPrizeWon, TestNow)
	repos.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestPlayService_Play_BonusBalanceSpentFirst(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	wallet := FixtureWallet("50.00", "4.00")

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(0), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil)
	repos.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Metadata["from_bonus"] == "4.00" && tx.Metadata["from_principal"] == "6.00"
	})).Return(nil)
	repos.Plays.On("Create", ctx, mock.AnythingOfType("*models.Play")).Return(nil)
	repos.Missions.On("ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventGamePlayed, TestNow).Return([]*models.Mission{}, nil)
	repos.Accounts.On("AddLoyaltyPoints", ctx, int64(TestAccountID), int64(100)).Return(&models.Account{ID: TestAccountID, LoyaltyPoints: 100}, nil)
	repos.Events.On("Publish", mock.Anything).Return()

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, false)

	require.NoError(t, err)
	assertMoney(t, "0.00", result.Wallet.BonusBalance)
	assertMoney(t, "44.00", result.Wallet.Balance)
	repos.AssertExpectations(t)
}

func TestPlayService_Play_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(1.0), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("6.00", "3.99"), nil)

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, false)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	repos.Wallets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repos.Transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	uow.AssertNotCalled(t, "Commit")
	uow.AssertExpectations(t)
}

func TestPlayService_Play_ConfigNotFound(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	repos.GameConfigs.On("GetByID", ctx, int64(99)).Return(nil, nil)

	service := newTestPlayService(factory, NewFakeClock())
	_, err := service.Play(ctx, TestAccountID, 99, false)

	assert.ErrorIs(t, err, ErrConfigNotFound)
	repos.Wallets.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything)
}

func TestPlayService_Play_InactiveConfig(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	cfg := FixtureGameConfig(0.5)
	cfg.Active = false
	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(cfg, nil)

	service := newTestPlayService(factory, NewFakeClock())
	_, err := service.Play(ctx, TestAccountID, TestConfigID, false)

	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestPlayService_Play_FreePlay(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	wallet := FixtureWallet("0.00", "0.00")
	bonus := &models.Bonus{
		ID:        TestBonusID,
		AccountID: TestAccountID,
		Type:      models.BonusTypeWelcome,
		FreeGames: 3,
		Status:    models.BonusStatusActive,
		ExpiresAt: TestNow.Add(168 * time.Hour),
	}

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(0), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Bonuses.On("FindPlayableForUpdate", ctx, int64(TestAccountID), TestNow).Return(bonus, nil)
	repos.Bonuses.On("ConsumeFreeGame", ctx, int64(TestBonusID), TestNow).Return(true, nil)
	repos.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Kind == models.TransactionKindStake &&
			tx.Amount.IsZero() &&
			tx.PaymentMethod == models.PaymentMethodFree
	})).Return(nil)
	repos.Plays.On("Create", ctx, mock.MatchedBy(func(p *models.Play) bool {
		return p.FreePlay && p.Stake.IsZero() && p.BonusID != nil && *p.BonusID == TestBonusID
	})).Return(nil)
	repos.Missions.On("ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventGamePlayed, TestNow).Return([]*models.Mission{}, nil)
	repos.Events.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		return e.Type() == events.EventTypeGamePlayed
	})).Return().Once()

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, true)

	require.NoError(t, err)
	assert.True(t, result.Play.FreePlay)
	assert.Equal(t, int64(0), result.LoyaltyPointsEarned)
	assertMoney(t, "0.00", result.Wallet.Balance)

	repos.Wallets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repos.Accounts.AssertNotCalled(t, "AddLoyaltyPoints", mock.Anything, mock.Anything, mock.Anything)
	repos.AssertExpectations(t)
}

func TestPlayService_Play_LastFreeGameClaimsBonus(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	wallet := FixtureWallet("0.00", "0.00")
	bonus := &models.Bonus{
		ID:            TestBonusID,
		AccountID:     TestAccountID,
		Type:          models.BonusTypeLevelUp,
		Amount:        models.MustMoney("10.00"),
		ClaimedAmount: decimal.Zero,
		FreeGames:     1,
		Status:        models.BonusStatusActive,
		ExpiresAt:     TestNow.Add(time.Hour),
	}

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(0), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil)
	repos.Bonuses.On("FindPlayableForUpdate", ctx, int64(TestAccountID), TestNow).Return(bonus, nil)
	repos.Bonuses.On("ConsumeFreeGame", ctx, int64(TestBonusID), TestNow).Return(true, nil)
	repos.Bonuses.On("Update", ctx, mock.MatchedBy(func(b *models.Bonus) bool {
		return b.ID == TestBonusID &&
			b.Status == models.BonusStatusClaimed &&
			b.FreeGames == 0 &&
			b.ClaimedAmount.Equal(b.Amount)
	})).Return(nil)
	repos.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Kind == models.TransactionKindStake && tx.Amount.IsZero()
	})).Return(nil)
	repos.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Kind == models.TransactionKindBonusCredit && tx.Amount.Equal(models.MustMoney("10.00"))
	})).Return(nil)
	repos.Plays.On("Create", ctx, mock.AnythingOfType("*models.Play")).Return(nil)
	repos.Missions.On("ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventGamePlayed, TestNow).Return([]*models.Mission{}, nil)
	repos.Events.On("Publish", mock.Anything).Return()

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, true)

	require.NoError(t, err)
	assert.Equal(t, models.BonusStatusClaimed, bonus.Status)
	assertMoney(t, "10.00", result.Wallet.BonusBalance)
	assertMoney(t, "0.00", result.Wallet.Balance)
	repos.AssertExpectations(t)
}

func TestPlayService_Play_NoFreePlayAvailable(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(0.5), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("100.00", "0.00"), nil)
	repos.Bonuses.On("FindPlayableForUpdate", ctx, int64(TestAccountID), TestNow).Return(nil, nil)

	service := newTestPlayService(factory, NewFakeClock())
	_, err := service.Play(ctx, TestAccountID, TestConfigID, true)

	assert.ErrorIs(t, err, ErrNoFreePlayAvailable)
	uow.AssertNotCalled(t, "Commit")
}

func TestPlayService_Play_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	wallet := FixtureWallet("50.00", "0.00")

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(0), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil)
	repos.Transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)
	repos.Events.On("Publish", mock.Anything).Return()
	repos.Plays.On("Create", ctx, mock.AnythingOfType("*models.Play")).Return(errors.New("connection reset"))

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, false)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrPlayFailed)
	var failed *PlayFailedError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, failed.Cause.Error(), "connection reset")
	uow.AssertNotCalled(t, "Commit")
	uow.AssertCalled(t, "Rollback")
}

func TestPlayService_Play_CompletesMission(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	wallet := FixtureWallet("50.00", "0.00")
	mission := &models.Mission{
		ID:        5,
		AccountID: TestAccountID,
		Template:  "play_3",
		EventKind: models.MissionEventGamePlayed,
		Target:    3,
		Current:   2,
		Status:    models.MissionStatusActive,
		ExpiresAt: TestNow.Add(time.Hour),
	}

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(0), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil)
	repos.Transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)
	repos.Plays.On("Create", ctx, mock.AnythingOfType("*models.Play")).Return(nil)
	repos.Missions.On("ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventGamePlayed, TestNow).Return([]*models.Mission{mission}, nil)
	repos.Missions.On("Update", ctx, mission).Return(nil)
	repos.Accounts.On("AddLoyaltyPoints", ctx, int64(TestAccountID), int64(100)).Return(&models.Account{ID: TestAccountID, LoyaltyPoints: 100}, nil)
	repos.Events.On("Publish", mock.Anything).Return()

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, false)

	require.NoError(t, err)
	require.Len(t, result.CompletedMissions, 1)
	assert.Equal(t, models.MissionStatusCompleted, result.CompletedMissions[0].Status)
	assert.Equal(t, 3, result.CompletedMissions[0].Current)
	repos.Events.AssertCalled(t, "Publish", events.MissionCompletedEvent{
		AccountID: TestAccountID,
		MissionID: 5,
		Template:  "play_3",
	})
}

func TestPlayService_Play_LevelUpIssuesBonus(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	wallet := FixtureWallet("50.00", "0.00")

	repos.GameConfigs.On("GetByID", ctx, int64(TestConfigID)).Return(FixtureGameConfig(0), nil)
	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil)
	repos.Transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)
	repos.Plays.On("Create", ctx, mock.AnythingOfType("*models.Play")).Return(nil)
	repos.Missions.On("ListActiveByEventForUpdate", ctx, int64(TestAccountID), models.MissionEventGamePlayed, TestNow).Return([]*models.Mission{}, nil)
	repos.Accounts.On("AddLoyaltyPoints", ctx, int64(TestAccountID), int64(100)).Return(&models.Account{
		ID:            TestAccountID,
		LoyaltyPoints: 1050,
		LoyaltyLevel:  models.LoyaltyBronze,
	}, nil)
	repos.Accounts.On("UpdateLoyaltyLevel", ctx, int64(TestAccountID), models.LoyaltySilver).Return(nil)
	repos.Bonuses.On("Create", ctx, mock.MatchedBy(func(b *models.Bonus) bool {
		return b.Type == models.BonusTypeLevelUp && b.FreeGames == 2 && b.Amount.Equal(models.MustMoney("10.00"))
	})).Return(true, nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Bonus).ID = 31
	})
	repos.Events.On("Publish", mock.Anything).Return()

	service := newTestPlayService(factory, NewFakeClock())
	result, err := service.Play(ctx, TestAccountID, TestConfigID, false)

	require.NoError(t, err)
	require.Len(t, result.LevelUpBonuses, 1)
	assert.Equal(t, int64(31), result.LevelUpBonuses[0].ID)
	repos.Events.AssertCalled(t, "Publish", events.LoyaltyLevelUpEvent{
		AccountID: TestAccountID,
		OldLevel:  models.LoyaltyBronze,
		NewLevel:  models.LoyaltySilver,
		Points:    1050,
	})
	repos.AssertExpectations(t)
}
