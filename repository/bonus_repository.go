package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scratcher/database"
	"scratcher/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var bonusColumns = []string{
	"id", "account_id", "bonus_type", "amount", "claimed_amount", "free_games",
	"status", "issued_on", "expires_at", "claimed_at", "metadata", "created_at",
}

// BonusRepository implements the BonusRepository interface
type BonusRepository struct {
	q queryable
}

// NewBonusRepository creates a new bonus repository
func NewBonusRepository(db *database.DB) *BonusRepository {
	return &BonusRepository{q: db.Pool}
}

// newBonusRepositoryWithTx creates a new bonus repository with a transaction
func newBonusRepositoryWithTx(tx queryable) *BonusRepository {
	return &BonusRepository{q: tx}
}

func scanBonus(row pgx.Row) (*models.Bonus, error) {
	var bonus models.Bonus
	err := row.Scan(
		&bonus.ID,
		&bonus.AccountID,
		&bonus.Type,
		&bonus.Amount,
		&bonus.ClaimedAmount,
		&bonus.FreeGames,
		&bonus.Status,
		&bonus.IssuedOn,
		&bonus.ExpiresAt,
		&bonus.ClaimedAt,
		&bonus.Metadata,
		&bonus.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bonus, nil
}

// Create stores a bonus. Once-per-day types lose silently to an earlier grant
// on the same day.
func (r *BonusRepository) Create(ctx context.Context, bonus *models.Bonus) (bool, error) {
	metadata := bonus.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	query := `
		INSERT INTO bonuses (account_id, bonus_type, amount, claimed_amount, free_games, status, issued_on, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (account_id, bonus_type, issued_on)
			WHERE bonus_type IN ('welcome', 'daily', 'reload')
			DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bonus.AccountID,
		bonus.Type,
		bonus.Amount,
		bonus.ClaimedAmount,
		bonus.FreeGames,
		bonus.Status,
		bonus.IssuedOn,
		bonus.ExpiresAt,
		metadata,
	).Scan(&bonus.ID, &bonus.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create %s bonus: %w", bonus.Type, err)
	}

	return true, nil
}

// GetByIDForUpdate retrieves and locks a bonus
func (r *BonusRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Bonus, error) {
	query, args, err := psql.Select(bonusColumns...).
		From("bonuses").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build bonus query: %w", err)
	}

	bonus, err := scanBonus(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bonus %d: %w", id, err)
	}

	return bonus, nil
}

// FindPlayableForUpdate locks the soonest-expiring bonus that still has free games
func (r *BonusRepository) FindPlayableForUpdate(ctx context.Context, accountID int64, now time.Time) (*models.Bonus, error) {
	query, args, err := psql.Select(bonusColumns...).
		From("bonuses").
		Where(sq.Eq{"account_id": accountID, "status": models.BonusStatusActive}).
		Where(sq.Gt{"free_games": 0, "expires_at": now}).
		OrderBy("expires_at", "id").
		Limit(1).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build playable bonus query: %w", err)
	}

	bonus, err := scanBonus(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find playable bonus for account %d: %w", accountID, err)
	}

	return bonus, nil
}

// ConsumeFreeGame takes one free game. Taking the last one marks the bonus
// claimed.
func (r *BonusRepository) ConsumeFreeGame(ctx context.Context, id int64, now time.Time) (bool, error) {
	query := `
		UPDATE bonuses
		SET free_games = free_games - 1,
		    status = CASE
		        WHEN free_games = 1 THEN 'claimed'
		        ELSE status
		    END
		WHERE id = $1 AND status = 'active' AND free_games > 0 AND expires_at > $2
	`

	result, err := r.q.Exec(ctx, query, id, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume free game of bonus %d: %w", id, err)
	}

	return result.RowsAffected() == 1, nil
}

// Update writes status, claimed amount and claim time
func (r *BonusRepository) Update(ctx context.Context, bonus *models.Bonus) error {
	query := `
		UPDATE bonuses
		SET status = $2, claimed_amount = $3, claimed_at = $4, free_games = $5
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, bonus.ID, bonus.Status, bonus.ClaimedAmount, bonus.ClaimedAt, bonus.FreeGames)
	if err != nil {
		return fmt.Errorf("failed to update bonus %d: %w", bonus.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bonus %d not found", bonus.ID)
	}

	return nil
}

// ExistsForDay reports whether a bonus type was issued on a UTC day
func (r *BonusRepository) ExistsForDay(ctx context.Context, accountID int64, bonusType models.BonusType, day time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bonuses
			WHERE account_id = $1 AND bonus_type = $2 AND issued_on = $3
		)
	`

	var exists bool
	if err := r.q.QueryRow(ctx, query, accountID, bonusType, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s bonus for account %d: %w", bonusType, accountID, err)
	}

	return exists, nil
}

// ListByAccount returns an account's bonuses newest first
func (r *BonusRepository) ListByAccount(ctx context.Context, accountID int64, status *models.BonusStatus) ([]*models.Bonus, error) {
	builder := psql.Select(bonusColumns...).
		From("bonuses").
		Where(sq.Eq{"account_id": accountID}).
		OrderBy("created_at DESC", "id DESC")
	if status != nil {
		builder = builder.Where(sq.Eq{"status": *status})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build bonus list query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bonuses for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var bonuses []*models.Bonus
	for rows.Next() {
		bonus, err := scanBonus(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bonus: %w", err)
		}
		bonuses = append(bonuses, bonus)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bonuses: %w", err)
	}

	return bonuses, nil
}

// ExpireBefore expires active bonuses whose expiry has passed
func (r *BonusRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE bonuses SET status = 'expired' WHERE status = 'active' AND expires_at <= $1`

	result, err := r.q.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire bonuses: %w", err)
	}

	return result.RowsAffected(), nil
}
