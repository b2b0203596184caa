package main

import (
	"log"
	"os"

	"ai-chat-be/internal/model"
	"ai-chat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Starting GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	color.Yellow("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate Models
	color.Yellow("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.Chat{},
		&model.Message{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Post-Migration: the delete-cascade from chats to messages must hold
	// even if the FK predates the constraint tag.
	color.Yellow("Step 3: Enforcing cascade delete on messages...")

	cascadeSQL := `
	DO $$ BEGIN
	  IF NOT EXISTS (
	    SELECT 1 FROM information_schema.referential_constraints
	    WHERE constraint_name = 'fk_chats_messages' AND delete_rule = 'CASCADE'
	  ) THEN
	    ALTER TABLE messages DROP CONSTRAINT IF EXISTS fk_chats_messages;
	    ALTER TABLE messages ADD CONSTRAINT fk_chats_messages
	      FOREIGN KEY (chat_id) REFERENCES chats(id) ON DELETE CASCADE;
	  END IF;
	END $$;`

	if err := db.Exec(cascadeSQL).Error; err != nil {
		log.Printf("Warn: Failed to enforce cascade constraint: %v", err)
	}

	color.Green("Migration completed successfully.")
}
