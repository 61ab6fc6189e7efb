package service

import (
	"context"
	"fmt"

	"scratcher/config"
	"scratcher/events"
	"scratcher/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type playService struct {
	uowFactory  UnitOfWorkFactory
	generator   *OutcomeGenerator
	ledger      *Ledger
	journal     *Journal
	progression *progressionTracker
	clock       Clock
}

// NewPlayService creates the play orchestrator
func NewPlayService(uowFactory UnitOfWorkFactory, generator *OutcomeGenerator, rules config.Progression, clock Clock) PlayService {
	if clock == nil {
		clock = NewSystemClock()
	}
	ledger := NewLedger(clock)
	journal := NewJournal(clock)
	return &playService{
		uowFactory:  uowFactory,
		generator:   generator,
		ledger:      ledger,
		journal:     journal,
		progression: newProgressionTracker(rules, clock, ledger, journal),
		clock:       clock,
	}
}

// Play runs Requested -> FundsChecked -> OutcomeGenerated -> Settled ->
// Completed in one unit of work. Nothing is written before funds are checked,
// and any failure after that rolls the whole play back.
func (s *playService) Play(ctx context.Context, accountID, configID int64, useFreePlay bool) (*models.PlayResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cfg, err := uow.GameConfigRepository().GetByID(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to load game config: %w", err)
	}
	if cfg == nil || !cfg.Active {
		return nil, fmt.Errorf("%w: %d", ErrConfigNotFound, configID)
	}

	// The wallet lock serializes this play against every other money
	// operation of the account until commit or rollback.
	wallet, err := s.ledger.Lock(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}

	var bonus *models.Bonus
	if useFreePlay {
		bonus, err = uow.BonusRepository().FindPlayableForUpdate(ctx, accountID, s.clock.Now())
		if err != nil {
			return nil, fmt.Errorf("failed to find free play bonus: %w", err)
		}
		if bonus == nil {
			return nil, ErrNoFreePlayAvailable
		}
	} else if available := s.ledger.CanSpend(wallet); available.LessThan(cfg.Price) {
		return nil, fmt.Errorf("%w: card costs %s, available %s", ErrInsufficientFunds,
			cfg.Price.StringFixed(models.MoneyPlaces), available.StringFixed(models.MoneyPlaces))
	}

	outcome := s.generator.Generate(cfg)

	result, err := s.settle(ctx, uow, wallet, cfg, outcome, bonus)
	if err != nil {
		return nil, &PlayFailedError{Cause: err}
	}

	if err := uow.Commit(); err != nil {
		return nil, &PlayFailedError{Cause: fmt.Errorf("failed to commit transaction: %w", err)}
	}

	log.WithFields(log.Fields{
		"accountID": accountID,
		"configID":  configID,
		"playID":    result.Play.ID,
		"freePlay":  result.Play.FreePlay,
		"won":       outcome.IsWinner,
		"prize":     outcome.Prize.StringFixed(models.MoneyPlaces),
	}).Debug("Play completed")

	return result, nil
}

// settle moves the money, records the play and updates progression
func (s *playService) settle(ctx context.Context, uow UnitOfWork, wallet *models.Wallet, cfg *models.GameConfig, outcome *models.Outcome, bonus *models.Bonus) (*models.PlayResult, error) {
	accountID := wallet.AccountID
	now := s.clock.Now()
	freePlay := bonus != nil
	stake := cfg.Price

	if freePlay {
		consumed, err := uow.BonusRepository().ConsumeFreeGame(ctx, bonus.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to consume free game: %w", err)
		}
		if !consumed {
			return nil, ErrNoFreePlayAvailable
		}
		stake = decimal.Zero

		// the last free game spends the bonus; money still on it goes to
		// the bonus balance
		if bonus.FreeGames == 1 {
			bonus.FreeGames = 0
			bonus.Status = models.BonusStatusClaimed
			if bonus.Unclaimed().IsPositive() {
				move, err := s.progression.creditBonusMoney(ctx, uow, bonus, now)
				if err != nil {
					return nil, err
				}
				if err := uow.BonusRepository().Update(ctx, bonus); err != nil {
					return nil, fmt.Errorf("failed to update bonus: %w", err)
				}
				wallet = move.After
			}
		}

		entry := &models.Transaction{
			AccountID:     accountID,
			Kind:          models.TransactionKindStake,
			Amount:        decimal.Zero,
			PaymentMethod: models.PaymentMethodFree,
			Description:   fmt.Sprintf("Free play: %s", cfg.Name),
			Metadata: map[string]any{
				"config_id": cfg.ID,
				"bonus_id":  bonus.ID,
				"price":     cfg.Price.StringFixed(models.MoneyPlaces),
			},
		}
		if err := recordBalanceChange(ctx, uow, s.journal, nil, entry); err != nil {
			return nil, err
		}
	} else {
		move, err := s.ledger.Debit(ctx, uow, accountID, cfg.Price, models.PaymentBonusFirst)
		if err != nil {
			return nil, err
		}
		method := models.PaymentMethodBalance
		if move.Split.FromPrincipal.IsZero() {
			method = models.PaymentMethodBonus
		}
		entry := &models.Transaction{
			AccountID:     accountID,
			Kind:          models.TransactionKindStake,
			Amount:        cfg.Price,
			PaymentMethod: method,
			Description:   fmt.Sprintf("Card purchase: %s", cfg.Name),
			Metadata: map[string]any{
				"config_id":      cfg.ID,
				"from_bonus":     move.Split.FromBonus.StringFixed(models.MoneyPlaces),
				"from_principal": move.Split.FromPrincipal.StringFixed(models.MoneyPlaces),
			},
		}
		if err := recordBalanceChange(ctx, uow, s.journal, move, entry); err != nil {
			return nil, err
		}
		wallet = move.After
	}

	if outcome.IsWinner && outcome.Prize.IsPositive() {
		move, err := s.ledger.Credit(ctx, uow, accountID, outcome.Prize, models.BalancePrincipal)
		if err != nil {
			return nil, err
		}
		entry := &models.Transaction{
			AccountID:     accountID,
			Kind:          models.TransactionKindPrize,
			Amount:        outcome.Prize,
			PaymentMethod: models.PaymentMethodBalance,
			Description:   fmt.Sprintf("Prize: %s", cfg.Name),
			Metadata: map[string]any{
				"config_id": cfg.ID,
				"symbol":    outcome.WinningCombination.Symbol,
				"free_play": freePlay,
			},
		}
		if err := recordBalanceChange(ctx, uow, s.journal, move, entry); err != nil {
			return nil, err
		}
		wallet = move.After
	}

	play := &models.Play{
		AccountID: accountID,
		ConfigID:  cfg.ID,
		Outcome:   *outcome,
		Stake:     stake,
		Prize:     outcome.Prize,
		FreePlay:  freePlay,
		PlayedAt:  now,
	}
	if freePlay {
		play.BonusID = &bonus.ID
	}
	if err := uow.PlayRepository().Create(ctx, play); err != nil {
		return nil, fmt.Errorf("failed to record play: %w", err)
	}

	progress, err := s.progression.recordPlay(ctx, uow, accountID, stake, freePlay, outcome.IsWinner)
	if err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.GamePlayedEvent{
		AccountID: accountID,
		PlayID:    play.ID,
		ConfigID:  cfg.ID,
		Stake:     stake,
		Prize:     outcome.Prize,
		FreePlay:  freePlay,
		Won:       outcome.IsWinner,
	})
	if outcome.IsWinner {
		uow.EventBus().Publish(events.PrizeWonEvent{
			AccountID: accountID,
			PlayID:    play.ID,
			ConfigID:  cfg.ID,
			Prize:     outcome.Prize,
			Symbol:    outcome.WinningCombination.Symbol,
		})
	}

	return &models.PlayResult{
		Play:                play,
		Outcome:             outcome,
		Wallet:              wallet,
		CompletedMissions:   progress.completedMissions,
		LevelUpBonuses:      progress.levelUpBonuses,
		LoyaltyPointsEarned: progress.points,
	}, nil
}

// ListGames returns the active game configs
func (s *playService) ListGames(ctx context.Context) ([]*models.GameConfig, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	configs, err := uow.GameConfigRepository().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return configs, nil
}

// RecentPlays returns an account's latest plays, newest first
func (s *playService) RecentPlays(ctx context.Context, accountID int64, limit int) ([]*models.Play, error) {
	if limit <= 0 {
		limit = 10
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plays, err := uow.PlayRepository().ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plays: %w", err)
	}
	return plays, nil
}
