package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"tool-rack-lookup/internal/store"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration")
	status := flag.Bool("status", false, "print migration status and exit")
	flag.Parse()

	_ = godotenv.Load()
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := store.OpenDB(ctx, dsn)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	switch {
	case *status:
		err = store.MigrationStatus(ctx, db)
	case *down:
		err = store.MigrateDown(ctx, db)
	default:
		err = store.Migrate(ctx, db)
	}
	if err != nil {
		log.Fatal(err)
	}
	log.Println("Done")
}
