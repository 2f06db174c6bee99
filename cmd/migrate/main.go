package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/plotcraft/backend-go/internal/config"
	"github.com/plotcraft/backend-go/internal/database"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"
)

func main() {
	action := flag.String("action", "up", "Migration action: up, down, version, status, goto, force, create")
	version := flag.Uint("version", 0, "Target version for goto/force")
	name := flag.String("name", "", "Migration name for create")
	path := flag.String("path", "", "Migrations directory (default from config)")
	flag.Parse()

	_ = godotenv.Load()
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GetAppConfig()

	dir := *path
	if dir == "" {
		dir = cfg.Database.MigrationsPath
	}

	if *action == "create" {
		if *name == "" {
			log.Fatal("-name is required for create")
		}
		file, err := database.CreateMigrationFile(dir, *name)
		if err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		fmt.Println("Created", file)
		return
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	manager, err := database.NewMigrationManager(db, dir, logger)
	if err != nil {
		log.Fatalf("Failed to create migration manager: %v", err)
	}
	defer manager.Close()

	switch *action {
	case "up":
		if err := manager.Up(); err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}

	case "down":
		if err := manager.Down(); err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}

	case "version", "status":
		current, dirty, err := manager.Version()
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		fmt.Printf("Current version: %d", current)
		if dirty {
			fmt.Print(" (dirty - manual intervention required)")
		}
		fmt.Println()
		if *action == "version" {
			return
		}

		pending, err := manager.Pending()
		if err != nil {
			log.Fatalf("Failed to check pending migrations: %v", err)
		}
		if pending {
			fmt.Println("Status: Pending migrations available")
		} else {
			fmt.Println("Status: All migrations applied")
		}

	case "goto":
		if *version == 0 {
			log.Fatal("-version must be specified for goto")
		}
		if err := manager.MigrateTo(*version); err != nil {
			log.Fatalf("Migration to version %d failed: %v", *version, err)
		}

	case "force":
		if err := manager.ForceVersion(*version); err != nil {
			log.Fatalf("Force failed: %v", err)
		}

	default:
		fmt.Printf("Unknown action: %s\n", *action)
		fmt.Println("Available actions: up, down, version, status, goto, force, create")
		os.Exit(1)
	}
}
