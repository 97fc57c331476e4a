package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leaguevote/internal/domain"
	"leaguevote/pkg/database"

	"github.com/jackc/pgx/v5"
)

type PostgresVoteRepository struct {
	db *database.PostgresDB
}

func NewVoteRepository(db *database.PostgresDB) *PostgresVoteRepository {
	return &PostgresVoteRepository{db: db}
}

// Create inserts a vote. The UNIQUE (match_id, voter_id) constraint makes the
// duplicate check atomic with the write.
func (r *PostgresVoteRepository) Create(ctx context.Context, vote *domain.Vote) error {
	query := `
		INSERT INTO votes (id, match_id, player_id, voter_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		vote.ID,
		vote.MatchID,
		vote.PlayerID,
		vote.VoterID,
		vote.CreatedAt,
	)

	if err != nil {
		if _, ok := database.UniqueViolation(err); ok {
			return domain.ErrDuplicateVote
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}

	return nil
}

// GetByMatchAndVoter gets the voter's ballot for a match
func (r *PostgresVoteRepository) GetByMatchAndVoter(ctx context.Context, matchID, voterID string) (*domain.Vote, error) {
	var vote domain.Vote
	query := `
		SELECT id, match_id, player_id, voter_id, created_at
		FROM votes
		WHERE match_id = $1 AND voter_id = $2
	`

	err := r.db.Pool.QueryRow(ctx, query, matchID, voterID).Scan(
		&vote.ID,
		&vote.MatchID,
		&vote.PlayerID,
		&vote.VoterID,
		&vote.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return &vote, nil
}

// ListByMatchUntil gets the match's votes cast at or before until
func (r *PostgresVoteRepository) ListByMatchUntil(ctx context.Context, matchID string, until time.Time) ([]*domain.Vote, error) {
	query := `
		SELECT id, match_id, player_id, voter_id, created_at
		FROM votes
		WHERE match_id = $1 AND created_at <= $2
		ORDER BY created_at ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, matchID, until)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []*domain.Vote
	for rows.Next() {
		var vote domain.Vote
		if err := rows.Scan(&vote.ID, &vote.MatchID, &vote.PlayerID, &vote.VoterID, &vote.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, &vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}

	return votes, nil
}

// CountByMatch gets the number of votes for a match
func (r *PostgresVoteRepository) CountByMatch(ctx context.Context, matchID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM votes WHERE match_id = $1`

	if err := r.db.Pool.QueryRow(ctx, query, matchID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}

	return count, nil
}
