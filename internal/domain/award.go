package domain

import "time"

// Award is the Man of the Match for a single match. At most one exists per MatchID.
type Award struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	PlayerID  string    `json:"player_id"`
	VoteCount int       `json:"vote_count"`
	CreatedAt time.Time `json:"created_at"`
}

// AwardRunSummary is returned to the external trigger after one batch pass
type AwardRunSummary struct {
	ProcessedCount int      `json:"processed_count"`
	AwardedMatches []string `json:"awarded_matches"`
	FailedMatches  []string `json:"failed_matches,omitempty"`
}
