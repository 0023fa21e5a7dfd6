package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Rebuilds tally counters from the votes table. Run after a restore or when
// counters drifted; completed tallies are frozen and left untouched.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Build connection string
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	// Connect to database
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	log.Println("Connected to database successfully")

	// Step 1: Create missing tally rows
	result, err := db.Exec(`
		INSERT INTO tallies (market_id, total_votes, yes_votes, no_votes, invalid_votes, total_stake_voted, completed, updated_at)
		SELECT m.id, 0, 0, 0, 0, 0, false, NOW()
		FROM markets m
		LEFT JOIN tallies t ON t.market_id = m.id
		WHERE t.id IS NULL
	`)
	if err != nil {
		log.Fatalf("Failed to create missing tallies: %v", err)
	}
	created, _ := result.RowsAffected()
	log.Printf("Created %d missing tally rows", created)

	// Step 2: Recount open tallies from votes
	result, err = db.Exec(`
		UPDATE tallies t SET
			total_votes       = v.total,
			yes_votes         = v.yes,
			no_votes          = v.no,
			invalid_votes     = v.invalid,
			total_stake_voted = v.stake,
			updated_at        = NOW()
		FROM (
			SELECT market_id,
			       COUNT(*)                                    AS total,
			       COUNT(*) FILTER (WHERE outcome = 1)         AS yes,
			       COUNT(*) FILTER (WHERE outcome = 0)         AS no,
			       COUNT(*) FILTER (WHERE outcome = 2)         AS invalid,
			       COALESCE(SUM(stake_at_vote), 0)             AS stake
			FROM votes
			GROUP BY market_id
		) v
		WHERE t.market_id = v.market_id AND t.completed = false
	`)
	if err != nil {
		log.Fatalf("Failed to recount tallies: %v", err)
	}
	recounted, _ := result.RowsAffected()
	log.Printf("Recounted %d open tallies", recounted)

	fmt.Println("✅ Tally backfill completed")
}
