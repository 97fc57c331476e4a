package repository

import (
	"context"
	"errors"
	"fmt"

	"leaguevote/internal/domain"
	"leaguevote/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PostgresAwardRepository struct {
	db *database.PostgresDB
}

func NewAwardRepository(db *database.PostgresDB) *PostgresAwardRepository {
	return &PostgresAwardRepository{db: db}
}

// Create inserts an award guarded by UNIQUE (match_id)
func (r *PostgresAwardRepository) Create(ctx context.Context, award *domain.Award) error {
	query := `
		INSERT INTO motm_awards (id, match_id, player_id, vote_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		award.ID,
		award.MatchID,
		award.PlayerID,
		award.VoteCount,
		award.CreatedAt,
	)

	if err != nil {
		if _, ok := database.UniqueViolation(err); ok {
			return domain.ErrAwardExists
		}
		return fmt.Errorf("failed to create award: %w", err)
	}

	return nil
}

// GetByMatchID gets the award for a match
func (r *PostgresAwardRepository) GetByMatchID(ctx context.Context, matchID string) (*domain.Award, error) {
	var award domain.Award
	query := `
		SELECT id, match_id, player_id, vote_count, created_at
		FROM motm_awards
		WHERE match_id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, matchID).Scan(
		&award.ID,
		&award.MatchID,
		&award.PlayerID,
		&award.VoteCount,
		&award.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get award: %w", err)
	}

	return &award, nil
}

// DeleteByMatchID removes the award for a match and returns the removed row
func (r *PostgresAwardRepository) DeleteByMatchID(ctx context.Context, matchID string) (*domain.Award, error) {
	var award domain.Award
	query := `
		DELETE FROM motm_awards
		WHERE match_id = $1
		RETURNING id, match_id, player_id, vote_count, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, matchID).Scan(
		&award.ID,
		&award.MatchID,
		&award.PlayerID,
		&award.VoteCount,
		&award.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAwardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete award: %w", err)
	}

	return &award, nil
}
