package service

import (
	"scratcher/models"

	"github.com/shopspring/decimal"
)

// winningCells is how many cells a winning card shows the same symbol in
const winningCells = 3

// OutcomeGenerator draws scratch card outcomes. It holds no mutable state and
// is safe for concurrent use when its RandomSource is.
type OutcomeGenerator struct {
	rng  RandomSource
	odds models.OddsCurve
}

// NewOutcomeGenerator creates a generator. A nil odds curve uses the default
// 15% / 20% curve.
func NewOutcomeGenerator(rng RandomSource, odds models.OddsCurve) *OutcomeGenerator {
	if rng == nil {
		rng = NewRandomSource()
	}
	if len(odds) == 0 {
		odds = models.DefaultOddsCurve()
	}
	return &OutcomeGenerator{rng: rng, odds: odds}
}

// WinProbability returns the chance a card of cfg wins
func (g *OutcomeGenerator) WinProbability(cfg *models.GameConfig) float64 {
	if cfg.WinProbability != nil {
		return *cfg.WinProbability
	}
	return g.odds.Probability(cfg.Price)
}

// Generate produces one outcome for cfg
func (g *OutcomeGenerator) Generate(cfg *models.GameConfig) *models.Outcome {
	symbols := cfg.EffectiveSymbols()
	size := cfg.EffectiveGridSize()

	grid := make([]string, size)
	for i := range grid {
		grid[i] = symbols[g.rng.IntN(len(symbols))]
	}

	p := g.WinProbability(cfg)
	outcome := &models.Outcome{
		Grid:        grid,
		Prize:       decimal.Zero,
		Probability: p,
	}
	if g.rng.Float64() >= p {
		return outcome
	}

	outcome.IsWinner = true
	outcome.Prize = cfg.TierPrize(g.pickTier(cfg.EffectiveTiers()))

	symbol := symbols[g.rng.IntN(len(symbols))]
	positions := g.choosePositions(size, winningCells)
	for _, pos := range positions {
		grid[pos] = symbol
	}
	outcome.WinningCombination = &models.WinningCombination{
		Symbol:    symbol,
		Positions: positions,
		Rule:      models.WinRuleThreeOfAKind,
	}
	return outcome
}

// pickTier walks the cumulative bounds and returns the first tier above the
// draw, or the smallest tier if the draw falls past every bound
func (g *OutcomeGenerator) pickTier(tiers []models.PrizeTier) models.PrizeTier {
	r := g.rng.Float64()
	for _, tier := range tiers {
		if tier.Cumulative > r {
			return tier
		}
	}
	return smallestTier(tiers)
}

func smallestTier(tiers []models.PrizeTier) models.PrizeTier {
	best := tiers[0]
	for _, tier := range tiers[1:] {
		if best.Max || (!tier.Max && tier.Multiplier.LessThan(best.Multiplier)) {
			best = tier
		}
	}
	return best
}

// choosePositions picks k distinct cells out of n with a partial Fisher-Yates shuffle
func (g *OutcomeGenerator) choosePositions(n, k int) []int {
	if k > n {
		k = n
	}
	cells := make([]int, n)
	for i := range cells {
		cells[i] = i
	}
	for i := 0; i < k; i++ {
		j := i + g.rng.IntN(n-i)
		cells[i], cells[j] = cells[j], cells[i]
	}
	return cells[:k]
}
