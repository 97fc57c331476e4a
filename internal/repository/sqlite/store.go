// Package sqlite is a single-file store used for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"leaguevote/internal/domain"
	"leaguevote/internal/repository"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the embedded schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Repositories exposes the store through the repository interfaces
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Match:  (*matchRepo)(s),
		Player: (*playerRepo)(s),
		Vote:   (*voteRepo)(s),
		Award:  (*awardRepo)(s),
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toNanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// Seeding helpers for fixtures and tests.

func (s *Store) CreateTeam(ctx context.Context, team *domain.Team) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO teams (id, name) VALUES (?, ?)`, team.ID, team.Name)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (s *Store) CreatePlayer(ctx context.Context, player *domain.Player) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players (id, team_id, name, motm_count) VALUES (?, ?, ?, ?)`,
		player.ID, player.TeamID, player.Name, player.MOTMCount)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// SaveMatch inserts the match or replaces its score, status and updated_at
func (s *Store) SaveMatch(ctx context.Context, match *domain.Match) error {
	var updatedAt sql.NullInt64
	if match.UpdatedAt != nil {
		updatedAt = sql.NullInt64{Int64: toNanos(*match.UpdatedAt), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (id, home_team_id, away_team_id, home_score, away_score, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			home_score = excluded.home_score,
			away_score = excluded.away_score,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		match.ID, match.HomeTeamID, match.AwayTeamID, match.HomeScore, match.AwayScore,
		string(match.Status), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

type matchRepo Store

func scanMatch(scan func(dest ...any) error) (*domain.Match, error) {
	var match domain.Match
	var status string
	var updatedAt sql.NullInt64
	if err := scan(&match.ID, &match.HomeTeamID, &match.AwayTeamID, &match.HomeScore, &match.AwayScore, &status, &updatedAt); err != nil {
		return nil, err
	}
	match.Status = domain.MatchStatus(status)
	if updatedAt.Valid {
		t := fromNanos(updatedAt.Int64)
		match.UpdatedAt = &t
	}
	return &match, nil
}

func (r *matchRepo) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, home_team_id, away_team_id, home_score, away_score, status, updated_at
		FROM matches WHERE id = ?`, id)
	match, err := scanMatch(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

func (r *matchRepo) ListFinishedWithoutAward(ctx context.Context) ([]*domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.home_team_id, m.away_team_id, m.home_score, m.away_score, m.status, m.updated_at
		FROM matches m
		LEFT JOIN motm_awards a ON a.match_id = m.id
		WHERE m.status = 'finished' AND a.id IS NULL
		ORDER BY m.updated_at IS NULL, m.updated_at, m.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished matches: %w", err)
	}
	defer rows.Close()

	var matches []*domain.Match
	for rows.Next() {
		match, err := scanMatch(rows.Scan)
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

type playerRepo Store

func (r *playerRepo) GetByID(ctx context.Context, id string) (*domain.Player, error) {
	var player domain.Player
	err := r.db.QueryRowContext(ctx, `SELECT id, team_id, name, motm_count FROM players WHERE id = ?`, id).
		Scan(&player.ID, &player.TeamID, &player.Name, &player.MOTMCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return &player, nil
}

func (r *playerRepo) AdjustMOTMCount(ctx context.Context, id string, delta int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE players SET motm_count = MAX(motm_count + ?, 0) WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("failed to update motm count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update motm count: player %s not found", id)
	}
	return nil
}

type voteRepo Store

func (r *voteRepo) Create(ctx context.Context, vote *domain.Vote) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO votes (id, match_id, player_id, voter_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		vote.ID, vote.MatchID, vote.PlayerID, vote.VoterID, toNanos(vote.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateVote
		}
		return fmt.Errorf("failed to create vote: %w", err)
	}
	return nil
}

func scanVote(scan func(dest ...any) error) (*domain.Vote, error) {
	var vote domain.Vote
	var createdAt int64
	if err := scan(&vote.ID, &vote.MatchID, &vote.PlayerID, &vote.VoterID, &createdAt); err != nil {
		return nil, err
	}
	vote.CreatedAt = fromNanos(createdAt)
	return &vote, nil
}

func (r *voteRepo) GetByMatchAndVoter(ctx context.Context, matchID, voterID string) (*domain.Vote, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, match_id, player_id, voter_id, created_at
		FROM votes WHERE match_id = ? AND voter_id = ?`, matchID, voterID)
	vote, err := scanVote(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return vote, nil
}

func (r *voteRepo) ListByMatchUntil(ctx context.Context, matchID string, until time.Time) ([]*domain.Vote, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, match_id, player_id, voter_id, created_at
		FROM votes WHERE match_id = ? AND created_at <= ?
		ORDER BY created_at`, matchID, toNanos(until))
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	var votes []*domain.Vote
	for rows.Next() {
		vote, err := scanVote(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, vote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	return votes, nil
}

func (r *voteRepo) CountByMatch(ctx context.Context, matchID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM votes WHERE match_id = ?`, matchID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count votes: %w", err)
	}
	return count, nil
}

type awardRepo Store

func (r *awardRepo) Create(ctx context.Context, award *domain.Award) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO motm_awards (id, match_id, player_id, vote_count, created_at) VALUES (?, ?, ?, ?, ?)`,
		award.ID, award.MatchID, award.PlayerID, award.VoteCount, toNanos(award.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAwardExists
		}
		return fmt.Errorf("failed to create award: %w", err)
	}
	return nil
}

func scanAward(scan func(dest ...any) error) (*domain.Award, error) {
	var award domain.Award
	var createdAt int64
	if err := scan(&award.ID, &award.MatchID, &award.PlayerID, &award.VoteCount, &createdAt); err != nil {
		return nil, err
	}
	award.CreatedAt = fromNanos(createdAt)
	return &award, nil
}

func (r *awardRepo) GetByMatchID(ctx context.Context, matchID string) (*domain.Award, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, match_id, player_id, vote_count, created_at
		FROM motm_awards WHERE match_id = ?`, matchID)
	award, err := scanAward(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get award: %w", err)
	}
	return award, nil
}

func (r *awardRepo) DeleteByMatchID(ctx context.Context, matchID string) (*domain.Award, error) {
	award, err := r.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if award == nil {
		return nil, domain.ErrAwardNotFound
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM motm_awards WHERE match_id = ?`, matchID); err != nil {
		return nil, fmt.Errorf("failed to delete award: %w", err)
	}
	return award, nil
}
