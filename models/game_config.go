package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultGridSize is the number of cells on a 3x3 card
const DefaultGridSize = 9

// DefaultSymbols are used when a game config does not list its own
var DefaultSymbols = []string{"🍀", "💎", "💰", "⭐", "🎯", "🏆", "🎁", "🔥"}

// PrizeTier is one bucket of the cumulative prize distribution. A tier pays
// Multiplier x price, or the config's max prize when Max is set.
type PrizeTier struct {
	Multiplier decimal.Decimal `json:"multiplier"`
	Max        bool            `json:"max,omitempty"`
	Cumulative float64         `json:"cumulative"`
}

// DefaultPrizeTiers mirrors the house distribution: 60% break even, 25% 2.5x,
// 10% 5x, 4% 10x, 1% max prize.
func DefaultPrizeTiers() []PrizeTier {
	return []PrizeTier{
		{Multiplier: decimal.NewFromInt(1), Cumulative: 0.60},
		{Multiplier: decimal.NewFromFloat(2.5), Cumulative: 0.85},
		{Multiplier: decimal.NewFromInt(5), Cumulative: 0.95},
		{Multiplier: decimal.NewFromInt(10), Cumulative: 0.99},
		{Max: true, Cumulative: 1.0},
	}
}

// GameConfig describes one scratch card category. Configs are managed by
// operators and never mutated by play.
type GameConfig struct {
	ID             int64           `db:"id"`
	Name           string          `db:"name"`
	Theme          string          `db:"theme"`
	Description    string          `db:"description"`
	Price          decimal.Decimal `db:"price"`
	MaxPrize       decimal.Decimal `db:"max_prize"`
	Symbols        []string        `db:"symbols"`
	GridSize       int             `db:"grid_size"`
	WinProbability *float64        `db:"win_probability"` // overrides the odds curve when set
	Tiers          []PrizeTier     `db:"tiers"`
	Active         bool            `db:"active"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Validate checks the invariants a config must hold before it can be played
func (c *GameConfig) Validate() error {
	if !c.Price.IsPositive() {
		return fmt.Errorf("game config %d: price must be positive", c.ID)
	}
	if c.MaxPrize.LessThan(c.Price) {
		return fmt.Errorf("game config %d: max prize must be at least the price", c.ID)
	}
	if c.WinProbability != nil && (*c.WinProbability < 0 || *c.WinProbability > 1) {
		return fmt.Errorf("game config %d: win probability must be within [0,1]", c.ID)
	}
	prev := 0.0
	for i, tier := range c.Tiers {
		if tier.Cumulative <= prev || tier.Cumulative > 1 {
			return fmt.Errorf("game config %d: tier %d cumulative bound %.4f is not increasing within (0,1]", c.ID, i, tier.Cumulative)
		}
		if !tier.Max && !tier.Multiplier.IsPositive() {
			return fmt.Errorf("game config %d: tier %d multiplier must be positive", c.ID, i)
		}
		prev = tier.Cumulative
	}
	if len(c.Tiers) > 0 && prev != 1.0 {
		return fmt.Errorf("game config %d: tier distribution sums to %.4f, want 1.0", c.ID, prev)
	}
	return nil
}

// EffectiveSymbols returns the configured symbol set or the defaults
func (c *GameConfig) EffectiveSymbols() []string {
	if len(c.Symbols) == 0 {
		return DefaultSymbols
	}
	return c.Symbols
}

// EffectiveGridSize returns the configured grid size or 9
func (c *GameConfig) EffectiveGridSize() int {
	if c.GridSize < 3 {
		return DefaultGridSize
	}
	return c.GridSize
}

// EffectiveTiers returns the configured tiers or the default distribution
func (c *GameConfig) EffectiveTiers() []PrizeTier {
	if len(c.Tiers) == 0 {
		return DefaultPrizeTiers()
	}
	return c.Tiers
}

// TierPrize resolves a tier to a prize for this config, clamped to MaxPrize
func (c *GameConfig) TierPrize(tier PrizeTier) decimal.Decimal {
	prize := c.MaxPrize
	if !tier.Max {
		prize = c.Price.Mul(tier.Multiplier)
	}
	if prize.GreaterThan(c.MaxPrize) {
		prize = c.MaxPrize
	}
	return Money(prize)
}

// PriceBand maps a minimum stake price to a win probability
type PriceBand struct {
	MinPrice    decimal.Decimal
	Probability float64
}

// OddsCurve is the operator-tuned win probability by price. Bands are
// matched from the highest MinPrice down.
type OddsCurve []PriceBand

// DefaultOddsCurve gives premium cards (price >= 10) a 20% win rate and
// everything else 15%.
func DefaultOddsCurve() OddsCurve {
	return OddsCurve{
		{MinPrice: decimal.Zero, Probability: 0.15},
		{MinPrice: decimal.NewFromInt(10), Probability: 0.20},
	}
}

// Probability returns the win probability for a stake price
func (o OddsCurve) Probability(price decimal.Decimal) float64 {
	best := -1
	for i, band := range o {
		if price.LessThan(band.MinPrice) {
			continue
		}
		if best < 0 || band.MinPrice.GreaterThan(o[best].MinPrice) {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return o[best].Probability
}
