package domain

import "errors"

// Vote intake failures, in validation order.
var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUnverifiedIdentity = errors.New("email address is not verified")
	ErrVotingClosed       = errors.New("voting is closed for this match")
	ErrInvalidPlayer      = errors.New("player is not part of this match")
	ErrDuplicateVote      = errors.New("already voted for this match")
	ErrStorageFailure     = errors.New("storage failure")
)

var (
	ErrMatchNotFound = errors.New("match not found")
	ErrAwardNotFound = errors.New("award not found")
	// ErrAwardExists is returned by the store when a match already has an award.
	ErrAwardExists = errors.New("award already exists for match")
	// ErrResultsHidden means the caller has not voted in the match yet.
	ErrResultsHidden = errors.New("results are visible after you vote")
)
