package repository

import (
	"context"
	"fmt"
	"time"

	"scratcher/database"
	"scratcher/models"
)

// PlayRepository implements the PlayRepository interface
type PlayRepository struct {
	q queryable
}

// NewPlayRepository creates a new play repository
func NewPlayRepository(db *database.DB) *PlayRepository {
	return &PlayRepository{q: db.Pool}
}

// newPlayRepositoryWithTx creates a new play repository with a transaction
func newPlayRepositoryWithTx(tx queryable) *PlayRepository {
	return &PlayRepository{q: tx}
}

// Create stores a play
func (r *PlayRepository) Create(ctx context.Context, play *models.Play) error {
	query := `
		INSERT INTO plays (account_id, config_id, outcome, stake, prize, free_play, bonus_id, played_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		play.AccountID,
		play.ConfigID,
		play.Outcome,
		play.Stake,
		play.Prize,
		play.FreePlay,
		play.BonusID,
		play.PlayedAt,
	).Scan(&play.ID)
	if err != nil {
		return fmt.Errorf("failed to create play: %w", err)
	}

	return nil
}

// ListByAccount returns an account's most recent plays
func (r *PlayRepository) ListByAccount(ctx context.Context, accountID int64, limit int) ([]*models.Play, error) {
	query := `
		SELECT id, account_id, config_id, outcome, stake, prize, free_play, bonus_id, played_at
		FROM plays
		WHERE account_id = $1
		ORDER BY played_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list plays for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var plays []*models.Play
	for rows.Next() {
		var play models.Play
		err := rows.Scan(
			&play.ID,
			&play.AccountID,
			&play.ConfigID,
			&play.Outcome,
			&play.Stake,
			&play.Prize,
			&play.FreePlay,
			&play.BonusID,
			&play.PlayedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		plays = append(plays, &play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plays: %w", err)
	}

	return plays, nil
}

// ListWinsSince returns the winning plays of every account, newest first
func (r *PlayRepository) ListWinsSince(ctx context.Context, since time.Time, limit int) ([]*models.WinnerEntry, error) {
	query := `
		SELECT p.id, p.account_id, g.name, p.prize, p.played_at
		FROM plays p
		JOIN game_configs g ON g.id = p.config_id
		WHERE p.prize > 0 AND p.played_at >= $1
		ORDER BY p.played_at DESC, p.id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list winning plays: %w", err)
	}
	defer rows.Close()

	var winners []*models.WinnerEntry
	for rows.Next() {
		var w models.WinnerEntry
		if err := rows.Scan(&w.PlayID, &w.AccountID, &w.GameName, &w.Prize, &w.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan winning play: %w", err)
		}
		winners = append(winners, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating winning plays: %w", err)
	}

	return winners, nil
}

// TotalsSince counts plays and sums prizes at or after since
func (r *PlayRepository) TotalsSince(ctx context.Context, since time.Time) (*models.PlayTotals, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(prize), 0), COALESCE(MAX(prize), 0)
		FROM plays
		WHERE played_at >= $1
	`

	var totals models.PlayTotals
	if err := r.q.QueryRow(ctx, query, since).Scan(&totals.Games, &totals.Prizes, &totals.BiggestPrize); err != nil {
		return nil, fmt.Errorf("failed to total plays: %w", err)
	}
	return &totals, nil
}
