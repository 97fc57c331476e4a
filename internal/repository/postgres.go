package repository

import "leaguevote/pkg/database"

// NewPostgresRepositories wires every repository to the same pool
func NewPostgresRepositories(db *database.PostgresDB) *Repositories {
	return &Repositories{
		Match:  NewMatchRepository(db),
		Player: NewPlayerRepository(db),
		Vote:   NewVoteRepository(db),
		Award:  NewAwardRepository(db),
	}
}
