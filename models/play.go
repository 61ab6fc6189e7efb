package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WinRuleThreeOfAKind is the only win rule cards currently render
const WinRuleThreeOfAKind = "3_of_a_kind"

// WinningCombination describes the cells forced to show a winning symbol
type WinningCombination struct {
	Symbol    string `json:"symbol"`
	Positions []int  `json:"positions"`
	Rule      string `json:"rule"`
}

// Outcome is a generated scratch card. It is created once per play and owned
// by the Play that consumed it.
type Outcome struct {
	Grid               []string            `json:"grid"`
	IsWinner           bool                `json:"is_winner"`
	Prize              decimal.Decimal     `json:"prize"`
	Probability        float64             `json:"probability"`
	WinningCombination *WinningCombination `json:"winning_combination,omitempty"`
}

// Play links an account, the outcome it consumed, and the money that moved
type Play struct {
	ID        int64           `db:"id"`
	AccountID int64           `db:"account_id"`
	ConfigID  int64           `db:"config_id"`
	Outcome   Outcome         `db:"outcome"`
	Stake     decimal.Decimal `db:"stake"`
	Prize     decimal.Decimal `db:"prize"`
	FreePlay  bool            `db:"free_play"`
	BonusID   *int64          `db:"bonus_id"`
	PlayedAt  time.Time       `db:"played_at"`
}

// PlayResult is returned to the caller of a play
type PlayResult struct {
	Play                *Play
	Outcome             *Outcome
	Wallet              *Wallet
	CompletedMissions   []*Mission
	LevelUpBonuses      []*Bonus
	LoyaltyPointsEarned int64
}
