package service

import (
	"context"
	"fmt"
	"time"

	"scratcher/models"
)

const (
	// MaxWinnersFeed caps the public winners feed
	MaxWinnersFeed = 50

	winnersWindow = 24 * time.Hour
	weekWindow    = 7 * 24 * time.Hour
)

// statsService implements the StatsService interface
type statsService struct {
	uowFactory UnitOfWorkFactory
	clock      Clock
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory, clock Clock) StatsService {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &statsService{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// WinnersFeed returns the winning plays of the last day, newest first
func (s *statsService) WinnersFeed(ctx context.Context, limit int) ([]*models.WinnerEntry, error) {
	if limit <= 0 || limit > MaxWinnersFeed {
		limit = MaxWinnersFeed
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	winners, err := uow.PlayRepository().ListWinsSince(ctx, s.clock.Now().Add(-winnersWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	return winners, nil
}

// PublicStats returns the platform-wide counters shown to every player
func (s *statsService) PublicStats(ctx context.Context) (*models.PublicStats, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	now := s.clock.Now()

	players, err := uow.AccountRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}

	today, err := uow.PlayRepository().TotalsSince(ctx, UTCDay(now))
	if err != nil {
		return nil, fmt.Errorf("failed to total today's plays: %w", err)
	}

	week, err := uow.PlayRepository().TotalsSince(ctx, now.Add(-weekWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to total this week's plays: %w", err)
	}

	return &models.PublicStats{
		TotalPlayers:     players,
		TodayGames:       today.Games,
		TodayPrizes:      today.Prizes,
		BiggestPrizeWeek: week.BiggestPrize,
	}, nil
}

// MonthlySummary totals an account's settled money movements since the
// start of the current UTC month
func (s *statsService) MonthlySummary(ctx context.Context, accountID int64) (*models.MonthlySummary, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().Get(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}

	since := UTCMonth(s.clock.Now())
	totals, err := uow.TransactionRepository().SumCompletedSince(ctx, accountID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to total transactions: %w", err)
	}

	return &models.MonthlySummary{
		Since:       since,
		Wallet:      wallet,
		Deposits:    models.Money(totals[models.TransactionKindDeposit]),
		Withdrawals: models.Money(totals[models.TransactionKindWithdrawal]),
		GamesSpent:  models.Money(totals[models.TransactionKindStake]),
		PrizesWon:   models.Money(totals[models.TransactionKindPrize]),
	}, nil
}
