package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MissionEventKind is the gameplay event a mission counts
type MissionEventKind string

const (
	MissionEventGamePlayed MissionEventKind = "game_played"
	MissionEventPrizeWon   MissionEventKind = "prize_won"
)

// MissionRewardType is what a completed mission pays out when claimed
type MissionRewardType string

const (
	MissionRewardPoints     MissionRewardType = "points"
	MissionRewardFreeGames  MissionRewardType = "free_games"
	MissionRewardBonusMoney MissionRewardType = "bonus_money"
)

// MissionStatus is the lifecycle state of a mission
type MissionStatus string

const (
	MissionStatusActive    MissionStatus = "active"
	MissionStatusCompleted MissionStatus = "completed"
	MissionStatusClaimed   MissionStatus = "claimed"
)

// Mission tracks progress toward a daily goal
type Mission struct {
	ID          int64             `db:"id"`
	AccountID   int64             `db:"account_id"`
	Template    string            `db:"template"`
	Name        string            `db:"name"`
	Description string            `db:"description"`
	EventKind   MissionEventKind  `db:"event_kind"`
	Target      int               `db:"target"`
	Current     int               `db:"current"`
	RewardType  MissionRewardType `db:"reward_type"`
	RewardValue decimal.Decimal   `db:"reward_value"`
	Status      MissionStatus     `db:"status"`
	IssuedOn    time.Time         `db:"issued_on"`
	ExpiresAt   time.Time         `db:"expires_at"`
	CompletedAt *time.Time        `db:"completed_at"`
}

// Advance records progress and reports whether this call completed the
// mission. Completed and claimed missions do not move.
func (m *Mission) Advance(by int, now time.Time) bool {
	if m.Status != MissionStatusActive || by <= 0 || !now.Before(m.ExpiresAt) {
		return false
	}
	m.Current += by
	if m.Current < m.Target {
		return false
	}
	m.Current = m.Target
	m.Status = MissionStatusCompleted
	completed := now
	m.CompletedAt = &completed
	return true
}
