package repository

import (
	"context"
	"errors"
	"fmt"

	"leaguevote/internal/domain"
	"leaguevote/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PostgresMatchRepository struct {
	db *database.PostgresDB
}

func NewMatchRepository(db *database.PostgresDB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

const matchColumns = `id, home_team_id, away_team_id, home_score, away_score, status, updated_at`

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var match domain.Match
	var status string
	err := row.Scan(
		&match.ID,
		&match.HomeTeamID,
		&match.AwayTeamID,
		&match.HomeScore,
		&match.AwayScore,
		&status,
		&match.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	match.Status = domain.MatchStatus(status)
	return &match, nil
}

// GetByID gets a match by ID
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// ListFinishedWithoutAward gets finished matches that have not been awarded
func (r *PostgresMatchRepository) ListFinishedWithoutAward(ctx context.Context) ([]*domain.Match, error) {
	query := `
		SELECT m.id, m.home_team_id, m.away_team_id, m.home_score, m.away_score, m.status, m.updated_at
		FROM matches m
		LEFT JOIN motm_awards a ON a.match_id = m.id
		WHERE m.status = 'finished' AND a.id IS NULL
		ORDER BY m.updated_at ASC NULLS LAST, m.id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished matches: %w", err)
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list finished matches: %w", err)
	}

	return matches, nil
}
