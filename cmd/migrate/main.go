package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [drop|up|seed|rls]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := execAll(ctx, conn, dropStatements, "Dropped"); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := execAll(ctx, conn, schemaStatements, "Created"); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	case "rls":
		if err := execAll(ctx, conn, rlsStatements, "Applied"); err != nil {
			log.Fatalf("Failed to apply row level security: %v", err)
		}
		fmt.Println("✅ Row level security policies applied successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS motm_awards CASCADE`,
	`DROP TABLE IF EXISTS votes CASCADE`,
	`DROP TABLE IF EXISTS matches CASCADE`,
	`DROP TABLE IF EXISTS players CASCADE`,
	`DROP TABLE IF EXISTS teams CASCADE`,
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS players (
		id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL REFERENCES teams(id),
		name TEXT NOT NULL,
		motm_count INTEGER NOT NULL DEFAULT 0
	)`,

	// updated_at doubles as the final whistle once status is finished
	`CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		home_team_id TEXT NOT NULL REFERENCES teams(id),
		away_team_id TEXT NOT NULL REFERENCES teams(id),
		home_score INTEGER NOT NULL DEFAULT 0,
		away_score INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'live', 'finished')),
		updated_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS votes (
		id TEXT PRIMARY KEY,
		match_id TEXT NOT NULL REFERENCES matches(id),
		player_id TEXT NOT NULL REFERENCES players(id),
		voter_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT votes_match_voter_key UNIQUE (match_id, voter_id)
	)`,

	`CREATE TABLE IF NOT EXISTS motm_awards (
		id TEXT PRIMARY KEY,
		match_id TEXT NOT NULL REFERENCES matches(id),
		player_id TEXT NOT NULL REFERENCES players(id),
		vote_count INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT motm_awards_match_key UNIQUE (match_id)
	)`,

	// Create indexes
	`CREATE INDEX IF NOT EXISTS idx_votes_match_created ON votes(match_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_status_updated ON matches(status, updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_players_team ON players(team_id)`,
}

// rlsStatements lock the tables down for Supabase clients. The API connects
// with the service role and bypasses these policies.
var rlsStatements = []string{
	`ALTER TABLE votes ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE motm_awards ENABLE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS votes_insert_own ON votes`,
	`CREATE POLICY votes_insert_own ON votes FOR INSERT TO authenticated
		WITH CHECK (auth.uid()::text = voter_id)`,
	`DROP POLICY IF EXISTS votes_select_own ON votes`,
	`CREATE POLICY votes_select_own ON votes FOR SELECT TO authenticated
		USING (auth.uid()::text = voter_id)`,
	`DROP POLICY IF EXISTS motm_awards_read ON motm_awards`,
	`CREATE POLICY motm_awards_read ON motm_awards FOR SELECT USING (true)`,
	`DROP POLICY IF EXISTS motm_awards_service_write ON motm_awards`,
	`CREATE POLICY motm_awards_service_write ON motm_awards FOR ALL TO service_role
		USING (true) WITH CHECK (true)`,
}

func execAll(ctx context.Context, conn *pgx.Conn, statements []string, verb string) error {
	for _, query := range statements {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  %s: %s\n", verb, summarize(query))
	}
	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	queries := []string{
		`INSERT INTO teams (id, name) VALUES
			('harbour-fc', 'Harbour FC'),
			('valley-united', 'Valley United')
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,

		`INSERT INTO players (id, team_id, name) VALUES
			('hfc-9', 'harbour-fc', 'Sam Okafor'),
			('hfc-1', 'harbour-fc', 'Lee Marsh'),
			('vu-10', 'valley-united', 'Dani Ruiz'),
			('vu-4', 'valley-united', 'Chris Holt')
		ON CONFLICT (id) DO UPDATE SET team_id = EXCLUDED.team_id, name = EXCLUDED.name`,

		`INSERT INTO matches (id, home_team_id, away_team_id, home_score, away_score, status, updated_at) VALUES
			('md1-hfc-vu', 'harbour-fc', 'valley-united', 2, 1, 'finished', NOW()),
			('md2-vu-hfc', 'valley-united', 'harbour-fc', 0, 0, 'scheduled', NULL)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			updated_at = EXCLUDED.updated_at`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to seed: %w\nQuery: %s", err, summarize(query))
		}
		fmt.Printf("  Seeded: %s\n", summarize(query))
	}

	return tx.Commit(ctx)
}

func summarize(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
