package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leaguereg/internal/config"
	"leaguereg/internal/database"
	"leaguereg/internal/service"
)

func main() {
	output := flag.String("output", "", "Output file path (default: roster_YYYYMMDD_HHMMSS.json, - for stdout)")
	flag.Parse()

	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Run migrations to ensure schema is up to date
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	exportService := service.NewExportService(db)

	if *output == "-" {
		if _, err := exportService.Export(os.Stdout); err != nil {
			log.Fatal().Err(err).Msg("Export failed")
		}
		return
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = fmt.Sprintf("roster_%s.json", time.Now().Format("20060102_150405"))
	}

	// Ensure directory exists
	if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("Failed to create output directory")
		}
	}

	if err := exportService.ExportToFile(outputPath); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	fmt.Printf("Roster exported to %s\n", outputPath)
}
