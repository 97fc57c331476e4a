package service

import (
	"time"

	"leaguevote/internal/domain"
)

// IsVotingOpen reports whether votes for match are accepted at now.
// Live matches are always open; finished matches stay open for grace after updated_at.
// A finished match without updated_at is closed.
func IsVotingOpen(match *domain.Match, now time.Time, grace time.Duration) bool {
	if match == nil {
		return false
	}
	switch match.Status {
	case domain.MatchStatusLive:
		return true
	case domain.MatchStatusFinished:
		endsAt, ok := VotingEndsAt(match, grace)
		return ok && now.Before(endsAt)
	default:
		return false
	}
}

// VotingEndsAt returns the instant voting closes for a finished match
func VotingEndsAt(match *domain.Match, grace time.Duration) (time.Time, bool) {
	if match == nil || match.Status != domain.MatchStatusFinished || match.UpdatedAt == nil {
		return time.Time{}, false
	}
	return match.UpdatedAt.Add(grace), true
}

// CanRevealResults is the per-voter guard on tallies: only voters see them.
func CanRevealResults(hasVoted bool) bool {
	return hasVoted
}
