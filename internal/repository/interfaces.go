package repository

import (
	"context"
	"time"

	"leaguevote/internal/domain"
)

// Lookups return (nil, nil) when the row does not exist.

// MatchRepository defines read access to fixtures
type MatchRepository interface {
	// GetByID retrieves a match by ID
	GetByID(ctx context.Context, id string) (*domain.Match, error)

	// ListFinishedWithoutAward returns finished matches that have no award yet
	ListFinishedWithoutAward(ctx context.Context) ([]*domain.Match, error)
}

// PlayerRepository defines access to rostered players
type PlayerRepository interface {
	// GetByID retrieves a player by ID
	GetByID(ctx context.Context, id string) (*domain.Player, error)

	// AdjustMOTMCount adds delta to the player's cumulative award counter
	AdjustMOTMCount(ctx context.Context, id string, delta int) error
}

// VoteRepository defines access to ballots
type VoteRepository interface {
	// Create inserts a vote; returns domain.ErrDuplicateVote when the voter already voted in the match
	Create(ctx context.Context, vote *domain.Vote) error

	// GetByMatchAndVoter retrieves the voter's ballot for a match
	GetByMatchAndVoter(ctx context.Context, matchID, voterID string) (*domain.Vote, error)

	// ListByMatchUntil returns the match's votes created at or before until
	ListByMatchUntil(ctx context.Context, matchID string, until time.Time) ([]*domain.Vote, error)

	// CountByMatch returns the total number of votes for a match
	CountByMatch(ctx context.Context, matchID string) (int, error)
}

// AwardRepository defines access to Man of the Match awards
type AwardRepository interface {
	// Create inserts an award; returns domain.ErrAwardExists when the match already has one
	Create(ctx context.Context, award *domain.Award) error

	// GetByMatchID retrieves the award for a match
	GetByMatchID(ctx context.Context, matchID string) (*domain.Award, error)

	// DeleteByMatchID removes the award for a match; returns domain.ErrAwardNotFound if none
	DeleteByMatchID(ctx context.Context, matchID string) (*domain.Award, error)
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Match  MatchRepository
	Player PlayerRepository
	Vote   VoteRepository
	Award  AwardRepository
}
