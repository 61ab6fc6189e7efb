package models

import (
	"time"
)

// LoyaltyLevel is the tier an account reaches by accumulating loyalty points
type LoyaltyLevel string

const (
	LoyaltyBronze  LoyaltyLevel = "bronze"
	LoyaltySilver  LoyaltyLevel = "silver"
	LoyaltyGold    LoyaltyLevel = "gold"
	LoyaltyDiamond LoyaltyLevel = "diamond"
)

// Account is the wagering-side view of a player. The ID is issued by the
// identity service and trusted as given.
type Account struct {
	ID            int64        `db:"id"`
	LoyaltyPoints int64        `db:"loyalty_points"`
	LoyaltyLevel  LoyaltyLevel `db:"loyalty_level"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

// LoyaltyThreshold is the minimum point total for a level
type LoyaltyThreshold struct {
	Level     LoyaltyLevel
	MinPoints int64
}

// LoyaltyLadder lists thresholds in ascending order of MinPoints
type LoyaltyLadder []LoyaltyThreshold

// DefaultLoyaltyLadder is bronze 0, silver 1000, gold 5000, diamond 20000
func DefaultLoyaltyLadder() LoyaltyLadder {
	return LoyaltyLadder{
		{Level: LoyaltyBronze, MinPoints: 0},
		{Level: LoyaltySilver, MinPoints: 1000},
		{Level: LoyaltyGold, MinPoints: 5000},
		{Level: LoyaltyDiamond, MinPoints: 20000},
	}
}

// LevelFor returns the highest level whose threshold points reaches
func (l LoyaltyLadder) LevelFor(points int64) LoyaltyLevel {
	level := LoyaltyBronze
	for _, t := range l {
		if points >= t.MinPoints {
			level = t.Level
		}
	}
	return level
}

// Crossed returns the thresholds passed when moving from before to after
// points, lowest first. The starting level is never included.
func (l LoyaltyLadder) Crossed(before, after int64) []LoyaltyThreshold {
	var crossed []LoyaltyThreshold
	for _, t := range l {
		if t.MinPoints > before && t.MinPoints <= after {
			crossed = append(crossed, t)
		}
	}
	return crossed
}
