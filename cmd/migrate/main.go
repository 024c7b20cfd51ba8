package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"

	"terminfinder/pkg/database"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [up|drop|seed]")
		os.Exit(1)
	}
	command := os.Args[1]

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "up":
		if err := inTx(ctx, conn, database.CreateSchema); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "drop":
		if err := inTx(ctx, conn, database.DropSchema); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "seed":
		if err := inTx(ctx, conn, seedData); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func inTx(ctx context.Context, conn *pgx.Conn, fn func(context.Context, pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// seedData inserts a small demo data set: one standard poll and one matrix
// poll with a couple of slots each.
func seedData(ctx context.Context, tx pgx.Tx) error {
	base := time.Now().Add(24 * time.Hour).Truncate(time.Hour)

	var standardID int64
	err := tx.QueryRow(ctx, `
		INSERT INTO polls (public_id, title, description, kind, allow_changes, max_participants, is_active)
		VALUES ('demo-std1', 'Team dinner', 'Pick the evenings that work for you', 'standard', TRUE, 8, TRUE)
		RETURNING id`).Scan(&standardID)
	if err != nil {
		return fmt.Errorf("failed to seed standard poll: %w", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := tx.Exec(ctx, `
			INSERT INTO poll_options (poll_id, slot) VALUES ($1, $2)`,
			standardID, base.AddDate(0, 0, i)); err != nil {
			return fmt.Errorf("failed to seed options: %w", err)
		}
	}

	var matrixID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO polls (public_id, title, description, kind, allow_changes, allow_multi_bookings, resource_label, max_participants, is_active)
		VALUES ('demo-mtx1', 'Rehearsal rooms', 'Book a room per evening', 'matrix', TRUE, TRUE, 'Room', 1, TRUE)
		RETURNING id`).Scan(&matrixID)
	if err != nil {
		return fmt.Errorf("failed to seed matrix poll: %w", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := tx.Exec(ctx, `
			INSERT INTO poll_options (poll_id, slot) VALUES ($1, $2)`,
			matrixID, base.AddDate(0, 0, i)); err != nil {
			return fmt.Errorf("failed to seed options: %w", err)
		}
	}
	for i, name := range []string{"Room A", "Room B"} {
		if _, err := tx.Exec(ctx, `
			INSERT INTO poll_resources (poll_id, name, sort_order) VALUES ($1, $2, $3)`,
			matrixID, name, i); err != nil {
			return fmt.Errorf("failed to seed resources: %w", err)
		}
	}

	return nil
}
