package service

import (
	"context"
	"testing"
	"time"

	"scratcher/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestProgressionService(factory UnitOfWorkFactory) ProgressionService {
	return NewProgressionService(factory, FixtureProgression(), NewFakeClock())
}

func TestProgressionService_IssueDailyBonus_OncePerDay(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Bonuses.On("ExistsForDay", ctx, int64(TestAccountID), models.BonusTypeDaily, UTCDay(TestNow)).Return(true, nil)

	service := newTestProgressionService(factory)
	bonus, err := service.IssueDailyBonus(ctx, TestAccountID)

	require.NoError(t, err)
	assert.Nil(t, bonus)
	repos.Bonuses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProgressionService_IssueDailyBonus(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Bonuses.On("ExistsForDay", ctx, int64(TestAccountID), models.BonusTypeDaily, UTCDay(TestNow)).Return(false, nil)
	repos.Bonuses.On("Create", ctx, mock.MatchedBy(func(b *models.Bonus) bool {
		return b.Type == models.BonusTypeDaily &&
			b.FreeGames == 1 &&
			b.Status == models.BonusStatusActive &&
			b.ExpiresAt.Equal(TestNow.Add(24*time.Hour))
	})).Return(true, nil)
	repos.Events.On("Publish", mock.AnythingOfType("events.BonusIssuedEvent")).Return()

	service := newTestProgressionService(factory)
	bonus, err := service.IssueDailyBonus(ctx, TestAccountID)

	require.NoError(t, err)
	require.NotNil(t, bonus)
	assert.Equal(t, UTCDay(TestNow), bonus.IssuedOn)
	repos.AssertExpectations(t)
}

func TestProgressionService_ClaimBonus(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	wallet := FixtureWallet("5.00", "0.00")
	bonus := &models.Bonus{
		ID:            TestBonusID,
		AccountID:     TestAccountID,
		Type:          models.BonusTypeReload,
		Amount:        models.MustMoney("15.00"),
		ClaimedAmount: decimal.Zero,
		Status:        models.BonusStatusActive,
		ExpiresAt:     TestNow.Add(time.Hour),
	}

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil)
	repos.Bonuses.On("GetByIDForUpdate", ctx, int64(TestBonusID)).Return(bonus, nil)
	repos.Bonuses.On("Update", ctx, bonus).Return(nil)
	repos.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *models.Transaction) bool {
		return tx.Kind == models.TransactionKindBonusCredit && tx.Amount.Equal(models.MustMoney("15.00"))
	})).Return(nil)
	repos.Events.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()

	service := newTestProgressionService(factory)
	claimed, updated, err := service.ClaimBonus(ctx, TestAccountID, TestBonusID)

	require.NoError(t, err)
	assert.Equal(t, models.BonusStatusClaimed, claimed.Status)
	assertMoney(t, "15.00", claimed.ClaimedAmount)
	assertMoney(t, "15.00", updated.BonusBalance)
	assertMoney(t, "5.00", updated.Balance)
	repos.AssertExpectations(t)
}

func TestProgressionService_ClaimBonus_KeepsFreeGamesActive(t *testing.T) {
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
		FreeGames:     2,
		Status:        models.BonusStatusActive,
		ExpiresAt:     TestNow.Add(time.Hour),
	}

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Wallets.On("Save", ctx, wallet).Return(nil)
	repos.Bonuses.On("GetByIDForUpdate", ctx, int64(TestBonusID)).Return(bonus, nil)
	repos.Bonuses.On("Update", ctx, bonus).Return(nil)
	repos.Transactions.On("Create", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)
	repos.Events.On("Publish", mock.Anything).Return()

	service := newTestProgressionService(factory)
	claimed, _, err := service.ClaimBonus(ctx, TestAccountID, TestBonusID)

	require.NoError(t, err)
	assert.Equal(t, models.BonusStatusActive, claimed.Status)
	assert.Equal(t, 2, claimed.FreeGames)
}

func TestProgressionService_ClaimBonus_Expired(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	wallet := FixtureWallet("0.00", "0.00")
	bonus := &models.Bonus{
		ID:        TestBonusID,
		AccountID: TestAccountID,
		Amount:    models.MustMoney("10.00"),
		Status:    models.BonusStatusActive,
		ExpiresAt: TestNow,
	}

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(wallet, nil)
	repos.Bonuses.On("GetByIDForUpdate", ctx, int64(TestBonusID)).Return(bonus, nil)
	repos.Bonuses.On("Update", ctx, mock.MatchedBy(func(b *models.Bonus) bool {
		return b.Status == models.BonusStatusExpired
	})).Return(nil)

	service := newTestProgressionService(factory)
	_, _, err := service.ClaimBonus(ctx, TestAccountID, TestBonusID)

	assert.ErrorIs(t, err, ErrBonusExpired)
	assert.True(t, IsBonusUnavailable(err))
	repos.Wallets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestProgressionService_ClaimBonus_NotActive(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Bonuses.On("GetByIDForUpdate", ctx, int64(TestBonusID)).Return(&models.Bonus{
		ID:        TestBonusID,
		AccountID: TestAccountID,
		Status:    models.BonusStatusClaimed,
	}, nil)

	service := newTestProgressionService(factory)
	_, _, err := service.ClaimBonus(ctx, TestAccountID, TestBonusID)

	assert.ErrorIs(t, err, ErrBonusNotActive)
}

func TestProgressionService_ClaimBonus_NothingLeft(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Bonuses.On("GetByIDForUpdate", ctx, int64(TestBonusID)).Return(&models.Bonus{
		ID:            TestBonusID,
		AccountID:     TestAccountID,
		Type:          models.BonusTypeWelcome,
		Amount:        decimal.Zero,
		ClaimedAmount: decimal.Zero,
		FreeGames:     3,
		Status:        models.BonusStatusActive,
		ExpiresAt:     TestNow.Add(time.Hour),
	}, nil)

	service := newTestProgressionService(factory)
	_, _, err := service.ClaimBonus(ctx, TestAccountID, TestBonusID)

	assert.ErrorIs(t, err, ErrNothingToClaim)
	assert.NotErrorIs(t, err, ErrBonusNotActive)
	repos.Wallets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repos.Bonuses.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProgressionService_ClaimBonus_OtherAccount(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Bonuses.On("GetByIDForUpdate", ctx, int64(TestBonusID)).Return(&models.Bonus{ID: TestBonusID, AccountID: 1}, nil)

	service := newTestProgressionService(factory)
	_, _, err := service.ClaimBonus(ctx, TestAccountID, TestBonusID)

	assert.ErrorIs(t, err, ErrBonusNotFound)
}

func TestProgressionService_ClaimMission_Points(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	mission := &models.Mission{
		ID:          3,
		AccountID:   TestAccountID,
		Template:    "play_3",
		Target:      3,
		Current:     3,
		RewardType:  models.MissionRewardPoints,
		RewardValue: decimal.NewFromInt(50),
		Status:      models.MissionStatusCompleted,
	}

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Missions.On("GetByIDForUpdate", ctx, int64(3)).Return(mission, nil)
	repos.Missions.On("Update", ctx, mock.MatchedBy(func(m *models.Mission) bool {
		return m.Status == models.MissionStatusClaimed
	})).Return(nil)
	repos.Accounts.On("AddLoyaltyPoints", ctx, int64(TestAccountID), int64(50)).Return(&models.Account{ID: TestAccountID, LoyaltyPoints: 50}, nil)

	service := newTestProgressionService(factory)
	claim, err := service.ClaimMission(ctx, TestAccountID, 3)

	require.NoError(t, err)
	assert.Equal(t, int64(50), claim.PointsAwarded)
	assert.Nil(t, claim.RewardBonus)
	repos.AssertExpectations(t)
}

func TestProgressionService_ClaimMission_FreeGames(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	mission := &models.Mission{
		ID:          4,
		AccountID:   TestAccountID,
		Name:        "Win a prize",
		RewardType:  models.MissionRewardFreeGames,
		RewardValue: decimal.NewFromInt(1),
		Status:      models.MissionStatusCompleted,
	}

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Missions.On("GetByIDForUpdate", ctx, int64(4)).Return(mission, nil)
	repos.Missions.On("Update", ctx, mission).Return(nil)
	repos.Bonuses.On("Create", ctx, mock.MatchedBy(func(b *models.Bonus) bool {
		return b.Type == models.BonusTypeMissionReward &&
			b.FreeGames == 1 &&
			b.Amount.IsZero() &&
			b.ExpiresAt.Equal(TestNow.Add(168*time.Hour))
	})).Return(true, nil)
	repos.Events.On("Publish", mock.AnythingOfType("events.BonusIssuedEvent")).Return()

	service := newTestProgressionService(factory)
	claim, err := service.ClaimMission(ctx, TestAccountID, 4)

	require.NoError(t, err)
	require.NotNil(t, claim.RewardBonus)
	assert.Equal(t, 1, claim.RewardBonus.FreeGames)
}

func TestProgressionService_ClaimMission_NotCompleted(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	repos.Wallets.On("GetForUpdate", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Missions.On("GetByIDForUpdate", ctx, int64(5)).Return(&models.Mission{
		ID:        5,
		AccountID: TestAccountID,
		Status:    models.MissionStatusActive,
	}, nil)

	service := newTestProgressionService(factory)
	_, err := service.ClaimMission(ctx, TestAccountID, 5)

	assert.ErrorIs(t, err, ErrMissionNotCompleted)
}

func TestProgressionService_ListBonusesHidesExpired(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	live := &models.Bonus{ID: 1, Status: models.BonusStatusActive, ExpiresAt: TestNow.Add(time.Minute)}
	stale := &models.Bonus{ID: 2, Status: models.BonusStatusActive, ExpiresAt: TestNow.Add(-time.Minute)}
	active := models.BonusStatusActive
	repos.Bonuses.On("ListByAccount", ctx, int64(TestAccountID), &active).Return([]*models.Bonus{live, stale}, nil)

	service := newTestProgressionService(factory)
	bonuses, err := service.ListBonuses(ctx, TestAccountID, true)

	require.NoError(t, err)
	require.Len(t, bonuses, 1)
	assert.Equal(t, int64(1), bonuses[0].ID)
}

func TestProgressionService_ExpireBonuses(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	repos.Bonuses.On("ExpireBefore", ctx, TestNow).Return(int64(3), nil)

	service := newTestProgressionService(factory)
	n, err := service.ExpireBonuses(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestAccountService_GetOrCreateAccount_New(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectCommittedUoW(uow)

	account := &models.Account{ID: TestAccountID, LoyaltyLevel: models.LoyaltyBronze}
	repos.Accounts.On("GetByID", ctx, int64(TestAccountID)).Return(nil, nil)
	repos.Accounts.On("Create", ctx, int64(TestAccountID)).Return(account, nil)
	repos.Wallets.On("Create", ctx, int64(TestAccountID)).Return(FixtureWallet("0.00", "0.00"), nil)
	repos.Bonuses.On("ExistsForDay", ctx, int64(TestAccountID), models.BonusTypeWelcome, UTCDay(TestNow)).Return(false, nil)
	repos.Bonuses.On("Create", ctx, mock.MatchedBy(func(b *models.Bonus) bool {
		return b.Type == models.BonusTypeWelcome && b.FreeGames == 3
	})).Return(true, nil)
	repos.Missions.On("Create", ctx, mock.AnythingOfType("*models.Mission")).Return(true, nil).Twice()
	repos.Events.On("Publish", mock.AnythingOfType("events.BonusIssuedEvent")).Return()

	service := NewAccountService(factory, FixtureProgression(), NewFakeClock())
	got, err := service.GetOrCreateAccount(ctx, TestAccountID)

	require.NoError(t, err)
	assert.Equal(t, account, got)
	repos.AssertExpectations(t)
}

func TestAccountService_GetOrCreateAccount_LostRace(t *testing.T) {
	ctx := context.Background()
	factory, uow, repos := newMockUoW()
	expectAbortedUoW(uow)

	account := &models.Account{ID: TestAccountID}
	repos.Accounts.On("GetByID", ctx, int64(TestAccountID)).Return(nil, nil).Once()
	repos.Accounts.On("Create", ctx, int64(TestAccountID)).Return(nil, nil)
	repos.Accounts.On("GetByID", ctx, int64(TestAccountID)).Return(account, nil).Once()

	service := NewAccountService(factory, FixtureProgression(), NewFakeClock())
	got, err := service.GetOrCreateAccount(ctx, TestAccountID)

	require.NoError(t, err)
	assert.Equal(t, account, got)
	repos.Wallets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
