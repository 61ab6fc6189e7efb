package service

import (
	"context"
	"errors"
	"fmt"

	"scratcher/config"
	"scratcher/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// MissionClaim is the result of claiming a completed mission
type MissionClaim struct {
	Mission        *models.Mission
	PointsAwarded  int64
	RewardBonus    *models.Bonus
	LevelUpBonuses []*models.Bonus
}

type progressionService struct {
	uowFactory UnitOfWorkFactory
	tracker    *progressionTracker
	ledger     *Ledger
	clock      Clock
}

// NewProgressionService creates the bonus, loyalty and mission service
func NewProgressionService(uowFactory UnitOfWorkFactory, rules config.Progression, clock Clock) ProgressionService {
	if clock == nil {
		clock = NewSystemClock()
	}
	ledger := NewLedger(clock)
	return &progressionService{
		uowFactory: uowFactory,
		tracker:    newProgressionTracker(rules, clock, ledger, NewJournal(clock)),
		ledger:     ledger,
		clock:      clock,
	}
}

// IssueDailyBonus grants today's free game. It returns nil if the account
// already received it today.
func (s *progressionService) IssueDailyBonus(ctx context.Context, accountID int64) (*models.Bonus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.ledger.Lock(ctx, uow, accountID); err != nil {
		return nil, err
	}

	bonus, err := s.tracker.issueDailyBonus(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return bonus, nil
}

// IssueDailyMissions creates today's missions the account does not have yet
func (s *progressionService) IssueDailyMissions(ctx context.Context, accountID int64) ([]*models.Mission, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.ledger.Lock(ctx, uow, accountID); err != nil {
		return nil, err
	}

	missions, err := s.tracker.issueDailyMissions(ctx, uow, accountID)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return missions, nil
}

// ClaimBonus moves a bonus's unclaimed amount into the bonus balance. Free
// games stay playable; the bonus becomes claimed once nothing is left on it.
func (s *progressionService) ClaimBonus(ctx context.Context, accountID, bonusID int64) (*models.Bonus, *models.Wallet, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.ledger.Lock(ctx, uow, accountID); err != nil {
		return nil, nil, err
	}

	bonus, err := uow.BonusRepository().GetByIDForUpdate(ctx, bonusID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load bonus: %w", err)
	}
	if bonus == nil || bonus.AccountID != accountID {
		return nil, nil, fmt.Errorf("%w: %d", ErrBonusNotFound, bonusID)
	}
	if bonus.Status != models.BonusStatusActive {
		return nil, nil, fmt.Errorf("%w: bonus %d is %s", ErrBonusNotActive, bonusID, bonus.Status)
	}

	now := s.clock.Now()
	if bonus.IsExpired(now) {
		bonus.Status = models.BonusStatusExpired
		if err := uow.BonusRepository().Update(ctx, bonus); err != nil {
			return nil, nil, fmt.Errorf("failed to expire bonus: %w", err)
		}
		if err := uow.Commit(); err != nil {
			return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, nil, fmt.Errorf("%w: bonus %d", ErrBonusExpired, bonusID)
	}

	amount := bonus.Unclaimed()
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: bonus %d", ErrNothingToClaim, bonusID)
	}

	move, err := s.tracker.creditBonusMoney(ctx, uow, bonus, now)
	if err != nil {
		return nil, nil, err
	}
	if bonus.FreeGames == 0 {
		bonus.Status = models.BonusStatusClaimed
	}
	if err := uow.BonusRepository().Update(ctx, bonus); err != nil {
		return nil, nil, fmt.Errorf("failed to update bonus: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"accountID": accountID,
		"bonusID":   bonusID,
		"amount":    amount.StringFixed(models.MoneyPlaces),
	}).Info("Bonus claimed")

	return bonus, move.After, nil
}

// ClaimMission pays out a completed mission. Points go to loyalty, free games
// and money become a mission_reward bonus.
func (s *progressionService) ClaimMission(ctx context.Context, accountID, missionID int64) (*MissionClaim, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := s.ledger.Lock(ctx, uow, accountID); err != nil {
		return nil, err
	}

	mission, err := uow.MissionRepository().GetByIDForUpdate(ctx, missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mission: %w", err)
	}
	if mission == nil || mission.AccountID != accountID {
		return nil, fmt.Errorf("%w: %d", ErrMissionNotFound, missionID)
	}
	if mission.Status != models.MissionStatusCompleted {
		return nil, fmt.Errorf("%w: mission %d is %s", ErrMissionNotCompleted, missionID, mission.Status)
	}

	mission.Status = models.MissionStatusClaimed
	if err := uow.MissionRepository().Update(ctx, mission); err != nil {
		return nil, fmt.Errorf("failed to update mission: %w", err)
	}

	claim := &MissionClaim{Mission: mission}
	rules := s.tracker.rules.Missions
	switch mission.RewardType {
	case models.MissionRewardPoints:
		claim.PointsAwarded = mission.RewardValue.Floor().IntPart()
		claim.LevelUpBonuses, err = s.tracker.addLoyaltyPoints(ctx, uow, accountID, claim.PointsAwarded)
	case models.MissionRewardFreeGames:
		claim.RewardBonus, err = s.tracker.issueBonus(ctx, uow, accountID, models.BonusTypeMissionReward, config.BonusGrant{
			FreeGames: int(mission.RewardValue.IntPart()),
			Amount:    decimal.Zero,
			ValidFor:  rules.RewardValidFor,
		}, map[string]any{"mission_id": mission.ID, "description": mission.Name})
	case models.MissionRewardBonusMoney:
		claim.RewardBonus, err = s.tracker.issueBonus(ctx, uow, accountID, models.BonusTypeMissionReward, config.BonusGrant{
			Amount:   mission.RewardValue,
			ValidFor: rules.RewardValidFor,
		}, map[string]any{"mission_id": mission.ID, "description": mission.Name})
	default:
		err = fmt.Errorf("unknown mission reward type %q", mission.RewardType)
	}
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return claim, nil
}

func (s *progressionService) ListBonuses(ctx context.Context, accountID int64, activeOnly bool) ([]*models.Bonus, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	var status *models.BonusStatus
	if activeOnly {
		active := models.BonusStatusActive
		status = &active
	}
	bonuses, err := uow.BonusRepository().ListByAccount(ctx, accountID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses: %w", err)
	}
	if !activeOnly {
		return bonuses, nil
	}

	now := s.clock.Now()
	live := bonuses[:0]
	for _, b := range bonuses {
		if !b.IsExpired(now) {
			live = append(live, b)
		}
	}
	return live, nil
}

// ListMissions returns the missions issued today
func (s *progressionService) ListMissions(ctx context.Context, accountID int64) ([]*models.Mission, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	missions, err := uow.MissionRepository().ListByAccount(ctx, accountID, UTCDay(s.clock.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to list missions: %w", err)
	}
	return missions, nil
}

// ExpireBonuses marks every active bonus past its expiry as expired
func (s *progressionService) ExpireBonuses(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	n, err := uow.BonusRepository().ExpireBefore(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire bonuses: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return n, nil
}

// IsBonusUnavailable reports whether err means the bonus cannot be used
func IsBonusUnavailable(err error) bool {
	return errors.Is(err, ErrBonusNotActive) || errors.Is(err, ErrBonusExpired) || errors.Is(err, ErrBonusNotFound)
}
