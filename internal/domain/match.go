package domain

import "time"

// MatchStatus is the lifecycle state of a fixture
type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusFinished  MatchStatus = "finished"
)

// Valid reports whether s is a known status.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusLive, MatchStatusFinished:
		return true
	}
	return false
}

// Match represents a fixture between two teams.
// UpdatedAt is the last state change and doubles as the finish time once Status is finished.
type Match struct {
	ID         string      `json:"id"`
	HomeTeamID string      `json:"home_team_id"`
	AwayTeamID string      `json:"away_team_id"`
	HomeScore  int         `json:"home_score"`
	AwayScore  int         `json:"away_score"`
	Status     MatchStatus `json:"status"`
	UpdatedAt  *time.Time  `json:"updated_at,omitempty"`
}

// HasTeam reports whether teamID is one of the two contesting teams.
func (m *Match) HasTeam(teamID string) bool {
	return teamID != "" && (teamID == m.HomeTeamID || teamID == m.AwayTeamID)
}
