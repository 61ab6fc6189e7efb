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

var missionColumns = []string{
	"id", "account_id", "template", "name", "description", "event_kind", "target", "current",
	"reward_type", "reward_value", "status", "issued_on", "expires_at", "completed_at",
}

// MissionRepository implements the MissionRepository interface
type MissionRepository struct {
	q queryable
}

// NewMissionRepository creates a new mission repository
func NewMissionRepository(db *database.DB) *MissionRepository {
	return &MissionRepository{q: db.Pool}
}

// newMissionRepositoryWithTx creates a new mission repository with a transaction
func newMissionRepositoryWithTx(tx queryable) *MissionRepository {
	return &MissionRepository{q: tx}
}

func scanMission(row pgx.Row) (*models.Mission, error) {
	var m models.Mission
	err := row.Scan(
		&m.ID,
		&m.AccountID,
		&m.Template,
		&m.Name,
		&m.Description,
		&m.EventKind,
		&m.Target,
		&m.Current,
		&m.RewardType,
		&m.RewardValue,
		&m.Status,
		&m.IssuedOn,
		&m.ExpiresAt,
		&m.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MissionRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]*models.Mission, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build mission query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query missions: %w", err)
	}
	defer rows.Close()

	var missions []*models.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mission: %w", err)
		}
		missions = append(missions, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missions: %w", err)
	}

	return missions, nil
}

// Create stores a mission unless the template was already issued that day
func (r *MissionRepository) Create(ctx context.Context, mission *models.Mission) (bool, error) {
	query := `
		INSERT INTO missions (account_id, template, name, description, event_kind, target, current,
			reward_type, reward_value, status, issued_on, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id, template, issued_on) DO NOTHING
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		mission.AccountID,
		mission.Template,
		mission.Name,
		mission.Description,
		mission.EventKind,
		mission.Target,
		mission.Current,
		mission.RewardType,
		mission.RewardValue,
		mission.Status,
		mission.IssuedOn,
		mission.ExpiresAt,
	).Scan(&mission.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create mission %s: %w", mission.Template, err)
	}

	return true, nil
}

// GetByIDForUpdate retrieves and locks a mission
func (r *MissionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Mission, error) {
	query, args, err := psql.Select(missionColumns...).
		From("missions").
		Where(sq.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build mission query: %w", err)
	}

	m, err := scanMission(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mission %d: %w", id, err)
	}

	return m, nil
}

// ListActiveByEventForUpdate locks the running missions that count kind
func (r *MissionRepository) ListActiveByEventForUpdate(ctx context.Context, accountID int64, kind models.MissionEventKind, now time.Time) ([]*models.Mission, error) {
	return r.list(ctx, psql.Select(missionColumns...).
		From("missions").
		Where(sq.Eq{"account_id": accountID, "event_kind": kind, "status": models.MissionStatusActive}).
		Where(sq.Gt{"expires_at": now}).
		OrderBy("id").
		Suffix("FOR UPDATE"))
}

// Update writes progress, status and completion time
func (r *MissionRepository) Update(ctx context.Context, mission *models.Mission) error {
	query := `UPDATE missions SET current = $2, status = $3, completed_at = $4 WHERE id = $1`

	result, err := r.q.Exec(ctx, query, mission.ID, mission.Current, mission.Status, mission.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update mission %d: %w", mission.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("mission %d not found", mission.ID)
	}

	return nil
}

// ListByAccount returns missions issued on or after since
func (r *MissionRepository) ListByAccount(ctx context.Context, accountID int64, since time.Time) ([]*models.Mission, error) {
	return r.list(ctx, psql.Select(missionColumns...).
		From("missions").
		Where(sq.Eq{"account_id": accountID}).
		Where(sq.GtOrEq{"issued_on": since}).
		OrderBy("issued_on DESC", "id"))
}
