package service

import (
	"context"
	"fmt"

	"scratcher/config"
	"scratcher/models"

	log "github.com/sirupsen/logrus"
)

// LoginResult lists what a login granted
type LoginResult struct {
	Account    *models.Account
	DailyBonus *models.Bonus // nil if already granted today
	Missions   []*models.Mission
}

type accountService struct {
	uowFactory UnitOfWorkFactory
	tracker    *progressionTracker
	clock      Clock
}

// NewAccountService creates the account service
func NewAccountService(uowFactory UnitOfWorkFactory, rules config.Progression, clock Clock) AccountService {
	if clock == nil {
		clock = NewSystemClock()
	}
	ledger := NewLedger(clock)
	journal := NewJournal(clock)
	return &accountService{
		uowFactory: uowFactory,
		tracker:    newProgressionTracker(rules, clock, ledger, journal),
		clock:      clock,
	}
}

// GetOrCreateAccount retrieves an existing account or creates one together
// with its wallet, welcome bonus and today's missions
func (s *accountService) GetOrCreateAccount(ctx context.Context, accountID int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing account: %w", err)
	}
	if account != nil {
		return account, nil
	}

	account, err = uow.AccountRepository().Create(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	if account == nil {
		// Lost a race with a concurrent first request
		account, err = uow.AccountRepository().GetByID(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("failed to get account: %w", err)
		}
		return account, nil
	}

	if _, err := uow.WalletRepository().Create(ctx, accountID); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	if _, err := s.tracker.issueWelcomeBonus(ctx, uow, accountID); err != nil {
		return nil, err
	}
	if _, err := s.tracker.issueDailyMissions(ctx, uow, accountID); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("accountID", accountID).Info("Created account")
	return account, nil
}

// Login makes sure the account exists, then grants the daily bonus and
// today's missions. Repeated logins on the same UTC day grant nothing new.
func (s *accountService) Login(ctx context.Context, accountID int64) (*LoginResult, error) {
	account, err := s.GetOrCreateAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Serializes concurrent logins of the same account
	if _, err := s.tracker.ledger.Lock(ctx, uow, accountID); err != nil {
		return nil, err
	}

	bonus, err := s.tracker.issueDailyBonus(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}
	missions, err := s.tracker.issueDailyMissions(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &LoginResult{Account: account, DailyBonus: bonus, Missions: missions}, nil
}
