package domain

import (
	"time"
)

// Vote is a single Player of the Match ballot. At most one exists per (MatchID, VoterID).
type Vote struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	PlayerID  string    `json:"player_id"`
	VoterID   string    `json:"voter_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CastVoteRequest represents a vote submission request
type CastVoteRequest struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
}

// CastVoteResult represents the response after voting
type CastVoteResult struct {
	VoteID    string    `json:"vote_id"`
	MatchID   string    `json:"match_id"`
	PlayerID  string    `json:"player_id"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	// Warnings carries non-fatal problems, e.g. the confirmation could not be queued.
	Warnings []string `json:"warnings,omitempty"`
}

// PlayerTally is the number of in-window votes for one player
type PlayerTally struct {
	PlayerID string `json:"player_id"`
	Votes    int    `json:"votes"`
}

// VotingStatus is the public view of a match's voting window
type VotingStatus struct {
	MatchID      string      `json:"match_id"`
	MatchStatus  MatchStatus `json:"match_status"`
	VotingOpen   bool        `json:"voting_open"`
	VotingEndsAt *time.Time  `json:"voting_ends_at,omitempty"`
	TotalVotes   int         `json:"total_votes"`
	UserHasVoted bool        `json:"user_has_voted"`
}

// VotingResults is the per-player tally, only revealed to voters of the match
type VotingResults struct {
	MatchID    string        `json:"match_id"`
	VotingOpen bool          `json:"voting_open"`
	TotalVotes int           `json:"total_votes"`
	Tally      []PlayerTally `json:"tally"`
	CountedAt  time.Time     `json:"counted_at"`
	Award      *Award        `json:"award,omitempty"`
}
