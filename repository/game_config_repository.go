package repository

import (
	"context"
	"errors"
	"fmt"

	"scratcher/database"
	"scratcher/models"

	"github.com/jackc/pgx/v5"
)

const gameConfigColumns = `id, name, theme, description, price, max_prize, symbols, grid_size, win_probability, tiers, active, created_at`

// GameConfigRepository implements the GameConfigRepository interface
type GameConfigRepository struct {
	q queryable
}

// NewGameConfigRepository creates a new game config repository
func NewGameConfigRepository(db *database.DB) *GameConfigRepository {
	return &GameConfigRepository{q: db.Pool}
}

// newGameConfigRepositoryWithTx creates a new game config repository with a transaction
func newGameConfigRepositoryWithTx(tx queryable) *GameConfigRepository {
	return &GameConfigRepository{q: tx}
}

func scanGameConfig(row pgx.Row) (*models.GameConfig, error) {
	var cfg models.GameConfig
	err := row.Scan(
		&cfg.ID,
		&cfg.Name,
		&cfg.Theme,
		&cfg.Description,
		&cfg.Price,
		&cfg.MaxPrize,
		&cfg.Symbols,
		&cfg.GridSize,
		&cfg.WinProbability,
		&cfg.Tiers,
		&cfg.Active,
		&cfg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GetByID retrieves a game config
func (r *GameConfigRepository) GetByID(ctx context.Context, id int64) (*models.GameConfig, error) {
	query := `SELECT ` + gameConfigColumns + ` FROM game_configs WHERE id = $1`

	cfg, err := scanGameConfig(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game config %d: %w", id, err)
	}

	return cfg, nil
}

// ListActive returns the playable configs
func (r *GameConfigRepository) ListActive(ctx context.Context) ([]*models.GameConfig, error) {
	query := `SELECT ` + gameConfigColumns + ` FROM game_configs WHERE active ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list game configs: %w", err)
	}
	defer rows.Close()

	var configs []*models.GameConfig
	for rows.Next() {
		cfg, err := scanGameConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game config: %w", err)
		}
		configs = append(configs, cfg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game configs: %w", err)
	}

	return configs, nil
}

// Upsert inserts or replaces a game config
func (r *GameConfigRepository) Upsert(ctx context.Context, cfg *models.GameConfig) error {
	symbols := cfg.Symbols
	if symbols == nil {
		symbols = []string{}
	}
	tiers := cfg.Tiers
	if tiers == nil {
		tiers = []models.PrizeTier{}
	}
	gridSize := cfg.GridSize
	if gridSize == 0 {
		gridSize = models.DefaultGridSize
	}

	query := `
		INSERT INTO game_configs (id, name, theme, description, price, max_prize, symbols, grid_size, win_probability, tiers, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			theme = EXCLUDED.theme,
			description = EXCLUDED.description,
			price = EXCLUDED.price,
			max_prize = EXCLUDED.max_prize,
			symbols = EXCLUDED.symbols,
			grid_size = EXCLUDED.grid_size,
			win_probability = EXCLUDED.win_probability,
			tiers = EXCLUDED.tiers,
			active = EXCLUDED.active
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		cfg.ID,
		cfg.Name,
		cfg.Theme,
		cfg.Description,
		cfg.Price,
		cfg.MaxPrize,
		symbols,
		gridSize,
		cfg.WinProbability,
		tiers,
		cfg.Active,
	).Scan(&cfg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert game config %d: %w", cfg.ID, err)
	}

	return nil
}

// SeedGameConfigs upserts every config in one transaction
func SeedGameConfigs(ctx context.Context, db *database.DB, configs []*models.GameConfig) error {
	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		repo := newGameConfigRepositoryWithTx(tx)
		for _, cfg := range configs {
			if err := repo.Upsert(ctx, cfg); err != nil {
				return fmt.Errorf("failed to seed game config %d: %w", cfg.ID, err)
			}
		}
		return nil
	})
}
