package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/Isba24ha/Barliberty-vultr/internal/config"
	"github.com/Isba24ha/Barliberty-vultr/internal/database"
)

func main() {
	// 1. Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file found, using system environment")
	}

	// 2. Connect database
	db, err := database.Connect(config.Load())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// 3. Run migrations and seed data
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed")
}
