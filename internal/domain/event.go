package domain

import "time"

type EventType string

const (
	EventVoteCast    EventType = "vote_cast"
	EventMOTMAwarded EventType = "motm_awarded"
	EventMOTMRevoked EventType = "motm_revoked"
)

// Event is pushed to realtime subscribers of a match
type Event struct {
	Type    EventType   `json:"type"`
	MatchID string      `json:"match_id"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}
