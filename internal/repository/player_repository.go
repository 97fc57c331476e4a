package repository

import (
	"context"
	"errors"
	"fmt"

	"leaguevote/internal/domain"
	"leaguevote/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PostgresPlayerRepository struct {
	db *database.PostgresDB
}

func NewPlayerRepository(db *database.PostgresDB) *PostgresPlayerRepository {
	return &PostgresPlayerRepository{db: db}
}

// GetByID gets a player by ID
func (r *PostgresPlayerRepository) GetByID(ctx context.Context, id string) (*domain.Player, error) {
	var player domain.Player
	query := `SELECT id, team_id, name, motm_count FROM players WHERE id = $1`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&player.ID,
		&player.TeamID,
		&player.Name,
		&player.MOTMCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &player, nil
}

// AdjustMOTMCount adds delta to the player's award counter, never going below zero
func (r *PostgresPlayerRepository) AdjustMOTMCount(ctx context.Context, id string, delta int) error {
	query := `UPDATE players SET motm_count = GREATEST(motm_count + $2, 0) WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to update motm count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update motm count: player %s not found", id)
	}

	return nil
}
