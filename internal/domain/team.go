package domain

// Team represents a league team
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Player represents a rostered player
type Player struct {
	ID        string `json:"id"`
	TeamID    string `json:"team_id"`
	Name      string `json:"name"`
	MOTMCount int    `json:"motm_count"`
}
