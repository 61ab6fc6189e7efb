package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOddsCurve_Probability(t *testing.T) {
	curve := DefaultOddsCurve()

	tests := []struct {
		name     string
		price    string
		expected float64
	}{
		{"cheap card", "2.00", 0.15},
		{"just below premium", "9.99", 0.15},
		{"premium boundary", "10.00", 0.20},
		{"expensive card", "50.00", 0.20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, curve.Probability(MustMoney(tt.price)))
		})
	}
}

func TestOddsCurve_UnorderedBands(t *testing.T) {
	curve := OddsCurve{
		{MinPrice: decimal.NewFromInt(20), Probability: 0.3},
		{MinPrice: decimal.NewFromInt(5), Probability: 0.1},
		{MinPrice: decimal.NewFromInt(10), Probability: 0.2},
	}

	assert.Equal(t, 0.0, curve.Probability(MustMoney("4.00")))
	assert.Equal(t, 0.1, curve.Probability(MustMoney("5.00")))
	assert.Equal(t, 0.2, curve.Probability(MustMoney("15.00")))
	assert.Equal(t, 0.3, curve.Probability(MustMoney("25.00")))
}

func TestGameConfig_TierPrizeClampsToMax(t *testing.T) {
	cfg := &GameConfig{Price: MustMoney("10.00"), MaxPrize: MustMoney("50.00")}

	assert.True(t, MustMoney("25.00").Equal(cfg.TierPrize(PrizeTier{Multiplier: decimal.NewFromFloat(2.5)})))
	assert.True(t, MustMoney("50.00").Equal(cfg.TierPrize(PrizeTier{Multiplier: decimal.NewFromInt(10)})))
	assert.True(t, MustMoney("50.00").Equal(cfg.TierPrize(PrizeTier{Max: true})))
}

func TestGameConfig_Validate(t *testing.T) {
	valid := func() *GameConfig {
		return &GameConfig{ID: 1, Price: MustMoney("5.00"), MaxPrize: MustMoney("500.00"), Tiers: DefaultPrizeTiers()}
	}
	bad := 1.5

	tests := []struct {
		name        string
		mutate      func(c *GameConfig)
		expectError bool
	}{
		{"valid", func(c *GameConfig) {}, false},
		{"default tiers when empty", func(c *GameConfig) { c.Tiers = nil }, false},
		{"zero price", func(c *GameConfig) { c.Price = decimal.Zero }, true},
		{"max prize below price", func(c *GameConfig) { c.MaxPrize = MustMoney("1.00") }, true},
		{"probability out of range", func(c *GameConfig) { c.WinProbability = &bad }, true},
		{"tiers not increasing", func(c *GameConfig) { c.Tiers[1].Cumulative = 0.5 }, true},
		{"tiers do not reach one", func(c *GameConfig) { c.Tiers = c.Tiers[:4] }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
