package service

import (
	"context"
	"fmt"
	"time"

	"scratcher/config"
	"scratcher/events"
	"scratcher/models"

	"github.com/shopspring/decimal"
)

// progressionTracker applies bonus, loyalty and mission rules inside a unit of
// work owned by the caller
type progressionTracker struct {
	rules   config.Progression
	ladder  models.LoyaltyLadder
	clock   Clock
	ledger  *Ledger
	journal *Journal
}

func newProgressionTracker(rules config.Progression, clock Clock, ledger *Ledger, journal *Journal) *progressionTracker {
	ladder := rules.Loyalty.Ladder()
	if len(ladder) == 0 {
		ladder = models.DefaultLoyaltyLadder()
	}
	return &progressionTracker{rules: rules, ladder: ladder, clock: clock, ledger: ledger, journal: journal}
}

// playProgress is what a single play changed in progression
type playProgress struct {
	points            int64
	completedMissions []*models.Mission
	levelUpBonuses    []*models.Bonus
}

// issueBonus creates a bonus. Once-per-day types return nil when the account
// already has one for today.
func (t *progressionTracker) issueBonus(ctx context.Context, uow UnitOfWork, accountID int64, bonusType models.BonusType, grant config.BonusGrant, metadata map[string]any) (*models.Bonus, error) {
	now := t.clock.Now()
	day := UTCDay(now)

	if bonusType.OncePerDay() {
		exists, err := uow.BonusRepository().ExistsForDay(ctx, accountID, bonusType, day)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s bonus: %w", bonusType, err)
		}
		if exists {
			return nil, nil
		}
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	bonus := &models.Bonus{
		AccountID:     accountID,
		Type:          bonusType,
		Amount:        models.Money(grant.Amount),
		ClaimedAmount: decimal.Zero,
		FreeGames:     grant.FreeGames,
		Status:        models.BonusStatusActive,
		IssuedOn:      day,
		ExpiresAt:     now.Add(grant.ValidFor),
		Metadata:      metadata,
	}
	created, err := uow.BonusRepository().Create(ctx, bonus)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bonus: %w", bonusType, err)
	}
	if !created {
		return nil, nil
	}

	uow.EventBus().Publish(events.BonusIssuedEvent{
		AccountID: accountID,
		BonusID:   bonus.ID,
		BonusType: bonusType,
		Amount:    bonus.Amount,
		FreeGames: bonus.FreeGames,
	})
	return bonus, nil
}

func (t *progressionTracker) issueWelcomeBonus(ctx context.Context, uow UnitOfWork, accountID int64) (*models.Bonus, error) {
	return t.issueBonus(ctx, uow, accountID, models.BonusTypeWelcome, t.rules.Welcome, map[string]any{
		"description": fmt.Sprintf("Welcome bonus - %d free games", t.rules.Welcome.FreeGames),
	})
}

func (t *progressionTracker) issueDailyBonus(ctx context.Context, uow UnitOfWork, accountID int64) (*models.Bonus, error) {
	return t.issueBonus(ctx, uow, accountID, models.BonusTypeDaily, t.rules.Daily, map[string]any{
		"description": "Daily free game",
	})
}

// issueReloadBonus grants the percentage bonus for an approved deposit, if
// the deposit reaches a reload tier
func (t *progressionTracker) issueReloadBonus(ctx context.Context, uow UnitOfWork, accountID int64, deposit decimal.Decimal) (*models.Bonus, error) {
	amount := t.rules.Reload.BonusFor(deposit)
	if !amount.IsPositive() {
		return nil, nil
	}
	grant := config.BonusGrant{Amount: amount, ValidFor: t.rules.Reload.ValidFor}
	return t.issueBonus(ctx, uow, accountID, models.BonusTypeReload, grant, map[string]any{
		"description":    "Reload bonus",
		"deposit_amount": deposit.StringFixed(models.MoneyPlaces),
	})
}

// issueDailyMissions creates today's missions that the account does not have yet
func (t *progressionTracker) issueDailyMissions(ctx context.Context, uow UnitOfWork, accountID int64) ([]*models.Mission, error) {
	now := t.clock.Now()
	validFor := t.rules.Missions.ValidFor
	if validFor <= 0 {
		validFor = 24 * time.Hour
	}

	var issued []*models.Mission
	for _, tmpl := range t.rules.Missions.Templates {
		mission := &models.Mission{
			AccountID:   accountID,
			Template:    tmpl.Template,
			Name:        tmpl.Name,
			Description: tmpl.Description,
			EventKind:   tmpl.Event,
			Target:      tmpl.Target,
			RewardType:  tmpl.RewardType,
			RewardValue: tmpl.RewardValue,
			Status:      models.MissionStatusActive,
			IssuedOn:    UTCDay(now),
			ExpiresAt:   now.Add(validFor),
		}
		created, err := uow.MissionRepository().Create(ctx, mission)
		if err != nil {
			return nil, fmt.Errorf("failed to create mission %s: %w", tmpl.Template, err)
		}
		if created {
			issued = append(issued, mission)
		}
	}
	return issued, nil
}

// recordPlay advances missions and loyalty for one settled play
func (t *progressionTracker) recordPlay(ctx context.Context, uow UnitOfWork, accountID int64, stake decimal.Decimal, freePlay, won bool) (*playProgress, error) {
	progress := &playProgress{}

	completed, err := t.advanceMissions(ctx, uow, accountID, models.MissionEventGamePlayed)
	if err != nil {
		return nil, err
	}
	progress.completedMissions = append(progress.completedMissions, completed...)

	if won {
		completed, err := t.advanceMissions(ctx, uow, accountID, models.MissionEventPrizeWon)
		if err != nil {
			return nil, err
		}
		progress.completedMissions = append(progress.completedMissions, completed...)
	}

	if !freePlay {
		progress.points = t.rules.Loyalty.PointsFor(stake)
		levelUps, err := t.addLoyaltyPoints(ctx, uow, accountID, progress.points)
		if err != nil {
			return nil, err
		}
		progress.levelUpBonuses = levelUps
	}
	return progress, nil
}

// advanceMissions counts one event against every matching active mission and
// returns the missions this event completed
func (t *progressionTracker) advanceMissions(ctx context.Context, uow UnitOfWork, accountID int64, kind models.MissionEventKind) ([]*models.Mission, error) {
	now := t.clock.Now()
	missions, err := uow.MissionRepository().ListActiveByEventForUpdate(ctx, accountID, kind, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s missions: %w", kind, err)
	}

	var completed []*models.Mission
	for _, m := range missions {
		before := m.Current
		done := m.Advance(1, now)
		if m.Current == before && !done {
			continue
		}
		if err := uow.MissionRepository().Update(ctx, m); err != nil {
			return nil, fmt.Errorf("failed to update mission %d: %w", m.ID, err)
		}
		if done {
			completed = append(completed, m)
			uow.EventBus().Publish(events.MissionCompletedEvent{
				AccountID: accountID,
				MissionID: m.ID,
				Template:  m.Template,
			})
		}
	}
	return completed, nil
}

// addLoyaltyPoints adds points, moves the account's level and issues one
// level-up bonus for every threshold crossed
func (t *progressionTracker) addLoyaltyPoints(ctx context.Context, uow UnitOfWork, accountID int64, points int64) ([]*models.Bonus, error) {
	if points <= 0 {
		return nil, nil
	}

	account, err := uow.AccountRepository().AddLoyaltyPoints(ctx, accountID, points)
	if err != nil {
		return nil, fmt.Errorf("failed to add loyalty points: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	}

	crossed := t.ladder.Crossed(account.LoyaltyPoints-points, account.LoyaltyPoints)
	if len(crossed) == 0 {
		return nil, nil
	}

	newLevel := t.ladder.LevelFor(account.LoyaltyPoints)
	if newLevel != account.LoyaltyLevel {
		if err := uow.AccountRepository().UpdateLoyaltyLevel(ctx, accountID, newLevel); err != nil {
			return nil, fmt.Errorf("failed to update loyalty level: %w", err)
		}
	}

	var bonuses []*models.Bonus
	oldLevel := account.LoyaltyLevel
	for _, threshold := range crossed {
		uow.EventBus().Publish(events.LoyaltyLevelUpEvent{
			AccountID: accountID,
			OldLevel:  oldLevel,
			NewLevel:  threshold.Level,
			Points:    account.LoyaltyPoints,
		})
		oldLevel = threshold.Level

		reward, ok := t.rules.Loyalty.Reward(threshold.Level)
		if !ok {
			continue
		}
		grant := config.BonusGrant{FreeGames: reward.FreeGames, Amount: reward.Amount, ValidFor: t.rules.Loyalty.LevelUpValidFor}
		bonus, err := t.issueBonus(ctx, uow, accountID, models.BonusTypeLevelUp, grant, map[string]any{
			"description": fmt.Sprintf("Level up to %s", threshold.Level),
			"level":       string(threshold.Level),
		})
		if err != nil {
			return nil, err
		}
		if bonus != nil {
			bonuses = append(bonuses, bonus)
		}
	}
	return bonuses, nil
}

// creditBonusMoney moves a bonus's unclaimed amount into the bonus balance
// and records the claim on it. The caller sets the status and persists it.
func (t *progressionTracker) creditBonusMoney(ctx context.Context, uow UnitOfWork, bonus *models.Bonus, now time.Time) (*BalanceMove, error) {
	amount := bonus.Unclaimed()
	move, err := t.ledger.Credit(ctx, uow, bonus.AccountID, amount, models.BalanceBonus)
	if err != nil {
		return nil, err
	}
	entry := &models.Transaction{
		AccountID:     bonus.AccountID,
		Kind:          models.TransactionKindBonusCredit,
		Amount:        amount,
		PaymentMethod: models.PaymentMethodBonus,
		Description:   fmt.Sprintf("%s bonus claimed", bonus.Type),
		Metadata:      map[string]any{"bonus_id": bonus.ID, "bonus_type": string(bonus.Type)},
	}
	if err := recordBalanceChange(ctx, uow, t.journal, move, entry); err != nil {
		return nil, err
	}

	bonus.ClaimedAmount = bonus.Amount
	bonus.ClaimedAt = &now
	return move, nil
}
