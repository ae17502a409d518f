package service

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
	"leaguereg/internal/repository"
)

const exportVersion = "1.0"

// RosterExport is the complete registration roster written by Export
type RosterExport struct {
	Version      string            `json:"version"`
	ExportedAt   time.Time         `json:"exportedAt"`
	DatabaseType string            `json:"databaseType"`
	Guardians    []models.Guardian `json:"guardians"`
	Players      []models.Player   `json:"players"`
	Teams        []models.Team     `json:"teams"`
	Payments     []models.Payment  `json:"payments"`
	Summary      RosterSummary     `json:"summary"`
}

// RosterSummary counts what the roster holds
type RosterSummary struct {
	Guardians       int   `json:"guardians"`
	Players         int   `json:"players"`
	PaidSeasons     int   `json:"paidSeasons"`
	Teams           int   `json:"teams"`
	PaidTournaments int   `json:"paidTournaments"`
	Payments        int   `json:"payments"`
	CollectedCents  int64 `json:"collectedCents"`
}

// ExportService dumps the registration roster for offline use
type ExportService struct {
	db  *database.DB
	now func() time.Time
}

// NewExportService creates a new export service
func NewExportService(db *database.DB) *ExportService {
	return &ExportService{db: db, now: time.Now}
}

// Collect reads every guardian, player, team and payment with their history
func (s *ExportService) Collect() (*RosterExport, error) {
	roster := &RosterExport{
		Version:      exportVersion,
		ExportedAt:   s.now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	var err error
	if roster.Guardians, err = repository.NewGuardianRepository(s.db).ListGuardians(); err != nil {
		return nil, fmt.Errorf("failed to export guardians: %w", err)
	}
	if roster.Players, err = repository.NewPlayerRepository(s.db).ListPlayers(); err != nil {
		return nil, fmt.Errorf("failed to export players: %w", err)
	}
	if roster.Teams, err = repository.NewTeamRepository(s.db).ListTeams(); err != nil {
		return nil, fmt.Errorf("failed to export teams: %w", err)
	}
	if roster.Payments, err = repository.NewPaymentRepository(s.db).ListPayments(); err != nil {
		return nil, fmt.Errorf("failed to export payments: %w", err)
	}

	roster.Summary = summarize(roster)
	return roster, nil
}

func summarize(r *RosterExport) RosterSummary {
	sum := RosterSummary{
		Guardians: len(r.Guardians),
		Players:   len(r.Players),
		Teams:     len(r.Teams),
		Payments:  len(r.Payments),
	}
	for _, p := range r.Players {
		for _, season := range p.Seasons {
			if season.PaymentComplete {
				sum.PaidSeasons++
			}
		}
	}
	for _, t := range r.Teams {
		for _, tr := range t.Tournaments {
			if tr.PaymentComplete {
				sum.PaidTournaments++
			}
		}
	}
	for _, p := range r.Payments {
		sum.CollectedCents += p.AmountCents
	}
	return sum
}

// Export writes the roster as indented JSON
func (s *ExportService) Export(w io.Writer) (*RosterExport, error) {
	roster, err := s.Collect()
	if err != nil {
		return nil, err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(roster); err != nil {
		return nil, fmt.Errorf("failed to encode roster: %w", err)
	}
	return roster, nil
}

// ExportToFile writes the roster to outputPath
func (s *ExportService) ExportToFile(outputPath string) error {
	log.Info().Str("path", outputPath).Msg("Starting roster export")

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	roster, err := s.Export(file)
	if err != nil {
		return err
	}

	log.Info().
		Int("guardians", roster.Summary.Guardians).
		Int("players", roster.Summary.Players).
		Int("teams", roster.Summary.Teams).
		Int("payments", roster.Summary.Payments).
		Str("collected", models.FormatCents(roster.Summary.CollectedCents)).
		Msg("Roster exported")
	return nil
}
