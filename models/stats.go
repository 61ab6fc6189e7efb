package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WinnerEntry is one winning play in the public winners feed
type WinnerEntry struct {
	PlayID    int64
	AccountID int64
	GameName  string
	Prize     decimal.Decimal
	PlayedAt  time.Time
}

// PlayTotals aggregates plays over a period
type PlayTotals struct {
	Games        int64
	Prizes       decimal.Decimal
	BiggestPrize decimal.Decimal
}

// PublicStats are the numbers shown to every player
type PublicStats struct {
	TotalPlayers     int64
	TodayGames       int64
	TodayPrizes      decimal.Decimal
	BiggestPrizeWeek decimal.Decimal
}

// MonthlySummary totals an account's completed journal entries since the
// start of the UTC month
type MonthlySummary struct {
	Since       time.Time
	Wallet      *Wallet
	Deposits    decimal.Decimal
	Withdrawals decimal.Decimal
	GamesSpent  decimal.Decimal
	PrizesWon   decimal.Decimal
}

// NetResult is what the account's games returned: prizes minus stakes
func (s *MonthlySummary) NetResult() decimal.Decimal {
	return s.PrizesWon.Sub(s.GamesSpent)
}
