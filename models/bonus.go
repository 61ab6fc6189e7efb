package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusType identifies why a bonus was issued
type BonusType string

const (
	BonusTypeWelcome       BonusType = "welcome"
	BonusTypeDaily         BonusType = "daily"
	BonusTypeReload        BonusType = "reload"
	BonusTypeLevelUp       BonusType = "level_up"
	BonusTypeMissionReward BonusType = "mission_reward"
)

// OncePerDay reports whether at most one bonus of this type may be issued
// per account per UTC day
func (t BonusType) OncePerDay() bool {
	switch t {
	case BonusTypeWelcome, BonusTypeDaily, BonusTypeReload:
		return true
	}
	return false
}

// BonusStatus is the lifecycle state of a bonus credit
type BonusStatus string

const (
	BonusStatusActive  BonusStatus = "active"
	BonusStatusClaimed BonusStatus = "claimed"
	BonusStatusExpired BonusStatus = "expired"
)

// Bonus is a promotional credit: a monetary amount that can be claimed into
// the bonus balance and a count of free games.
type Bonus struct {
	ID            int64           `db:"id"`
	AccountID     int64           `db:"account_id"`
	Type          BonusType       `db:"bonus_type"`
	Amount        decimal.Decimal `db:"amount"`
	ClaimedAmount decimal.Decimal `db:"claimed_amount"`
	FreeGames     int             `db:"free_games"`
	Status        BonusStatus     `db:"status"`
	IssuedOn      time.Time       `db:"issued_on"` // UTC date
	ExpiresAt     time.Time       `db:"expires_at"`
	ClaimedAt     *time.Time      `db:"claimed_at"`
	Metadata      map[string]any  `db:"metadata"`
	CreatedAt     time.Time       `db:"created_at"`
}

// IsExpired reports whether the bonus has passed its expiry at now
func (b *Bonus) IsExpired(now time.Time) bool {
	return !now.Before(b.ExpiresAt)
}

// Playable reports whether the bonus can fund a free play at now
func (b *Bonus) Playable(now time.Time) bool {
	return b.Status == BonusStatusActive && b.FreeGames > 0 && !b.IsExpired(now)
}

// Unclaimed returns the monetary part still waiting to be claimed
func (b *Bonus) Unclaimed() decimal.Decimal {
	return b.Amount.Sub(b.ClaimedAmount)
}
