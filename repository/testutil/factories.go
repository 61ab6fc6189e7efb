package testutil

import (
	"time"

	"scratcher/models"

	"github.com/shopspring/decimal"
)

// CreateTestGameConfig creates an active game config with the default tiers
func CreateTestGameConfig(id int64, price string) *models.GameConfig {
	return &models.GameConfig{
		ID:          id,
		Name:        "Test Card",
		Theme:       "classic",
		Description: "integration test card",
		Price:       models.MustMoney(price),
		MaxPrize:    models.Money(models.MustMoney(price).Mul(decimal.NewFromInt(500))),
		Symbols:     models.DefaultSymbols,
		GridSize:    models.DefaultGridSize,
		Tiers:       models.DefaultPrizeTiers(),
		Active:      true,
	}
}

// CreateTestDeposit creates a pending PIX deposit
func CreateTestDeposit(accountID int64, amount, ref string) *models.Transaction {
	return &models.Transaction{
		AccountID:     accountID,
		Kind:          models.TransactionKindDeposit,
		Amount:        models.MustMoney(amount),
		Status:        models.TransactionStatusPending,
		PaymentMethod: models.PaymentMethodPIX,
		ExternalRef:   &ref,
		Description:   "PIX deposit",
		Metadata:      map[string]any{"test": true},
	}
}

// CreateTestWithdrawal creates a pending PIX withdrawal
func CreateTestWithdrawal(accountID int64, amount string) *models.Transaction {
	tx := CreateTestDeposit(accountID, amount, "")
	tx.Kind = models.TransactionKindWithdrawal
	tx.ExternalRef = nil
	tx.Description = "PIX withdrawal"
	return tx
}

// CreateTestBonus creates an active bonus issued on the UTC day of now
func CreateTestBonus(accountID int64, bonusType models.BonusType, amount string, freeGames int, now time.Time) *models.Bonus {
	return &models.Bonus{
		AccountID:     accountID,
		Type:          bonusType,
		Amount:        models.MustMoney(amount),
		ClaimedAmount: decimal.Zero,
		FreeGames:     freeGames,
		Status:        models.BonusStatusActive,
		IssuedOn:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		ExpiresAt:     now.Add(24 * time.Hour),
		Metadata:      map[string]any{"source": "test"},
	}
}

// CreateTestMission creates an active mission counting plays
func CreateTestMission(accountID int64, template string, target int, now time.Time) *models.Mission {
	return &models.Mission{
		AccountID:   accountID,
		Template:    template,
		Name:        "Play " + template,
		EventKind:   models.MissionEventGamePlayed,
		Target:      target,
		RewardType:  models.MissionRewardPoints,
		RewardValue: models.MustMoney("50"),
		Status:      models.MissionStatusActive,
		IssuedOn:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		ExpiresAt:   now.Add(24 * time.Hour),
	}
}
