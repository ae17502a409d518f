package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
	"leaguereg/internal/security"
)

// TeamRepository stores tournament teams and their tournament history
type TeamRepository struct {
	db database.DBTX
}

func NewTeamRepository(db database.DBTX) *TeamRepository {
	return &TeamRepository{db: db}
}

const teamColumns = `id, guardian_id, name, grade, sex, level_of_competition, coach_ids,
	payment_complete, payment_status, created_at`

func scanTeam(row interface{ Scan(...interface{}) error }) (*models.Team, error) {
	t := &models.Team{}
	var coachIDs string
	err := row.Scan(
		&t.ID, &t.GuardianID, &t.Name, &t.Grade, &t.Sex, &t.LevelOfCompetition, &coachIDs,
		&t.PaymentComplete, &t.PaymentStatus, &t.CreatedAt,
	)
	if coachIDs != "" {
		t.CoachIDs = strings.Split(coachIDs, ",")
	}
	return t, err
}

// CreateTeam inserts a team, assigning an id when it has none
func (r *TeamRepository) CreateTeam(t *models.Team) error {
	if t.ID == "" {
		t.ID = security.NewEntityID()
	}

	query := `
		INSERT INTO teams (id, guardian_id, name, grade, sex, level_of_competition, coach_ids,
			payment_complete, payment_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		t.ID, t.GuardianID, t.Name, string(t.Grade), string(t.Sex), t.LevelOfCompetition,
		strings.Join(t.CoachIDs, ","), t.PaymentComplete, t.PaymentStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// FindDuplicate returns a team of the same guardian with the same name, grade and sex
func (r *TeamRepository) FindDuplicate(guardianID, name string, grade models.Grade, sex models.Gender) (*models.Team, error) {
	query := "SELECT " + teamColumns + " FROM teams WHERE guardian_id = ? AND name = ? AND grade = ? AND sex = ?"
	t, err := scanTeam(r.db.QueryRow(query, guardianID, name, string(grade), string(sex)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up duplicate team: %w", err)
	}
	return t, nil
}

// GetTeamByID retrieves a team together with its tournament history
func (r *TeamRepository) GetTeamByID(id string) (*models.Team, error) {
	query := "SELECT " + teamColumns + " FROM teams WHERE id = ?"
	t, err := scanTeam(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	if t.Tournaments, err = r.GetTournamentHistory(t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTeamsByGuardian returns a guardian's teams with their tournament history
func (r *TeamRepository) ListTeamsByGuardian(guardianID string) ([]models.Team, error) {
	query := "SELECT " + teamColumns + " FROM teams WHERE guardian_id = ? ORDER BY created_at, id"
	return r.list(query, guardianID)
}

// ListTeams returns every team, used by the roster export
func (r *TeamRepository) ListTeams() ([]models.Team, error) {
	query := "SELECT " + teamColumns + " FROM teams ORDER BY created_at, id"
	return r.list(query)
}

func (r *TeamRepository) list(query string, args ...interface{}) ([]models.Team, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}

	var teams []models.Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}
	rows.Close()

	for i := range teams {
		if teams[i].Tournaments, err = r.GetTournamentHistory(teams[i].ID); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

// GetTournamentHistory returns a team's tournament registrations in insertion order
func (r *TeamRepository) GetTournamentHistory(teamID string) ([]models.TournamentRegistration, error) {
	query := `
		SELECT tournament, year, payment_status, payment_complete, amount_paid,
			payment_id, card_brand, card_last4, registered_at
		FROM tournament_registrations
		WHERE team_id = ?
		ORDER BY id
	`
	rows, err := r.db.Query(query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament history: %w", err)
	}
	defer rows.Close()

	var history []models.TournamentRegistration
	for rows.Next() {
		var tr models.TournamentRegistration
		if err := rows.Scan(
			&tr.Tournament, &tr.Year, &tr.PaymentStatus, &tr.PaymentComplete, &tr.AmountPaid,
			&tr.PaymentID, &tr.CardBrand, &tr.CardLast4, &tr.RegisteredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament registration: %w", err)
		}
		history = append(history, tr)
	}
	return history, rows.Err()
}

// AddTournamentRegistration appends an entry to a team's tournament history
func (r *TeamRepository) AddTournamentRegistration(teamID string, tr models.TournamentRegistration) error {
	query := `
		INSERT INTO tournament_registrations (team_id, tournament, year, payment_status,
			payment_complete, amount_paid, payment_id, card_brand, card_last4)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		teamID, tr.Tournament, tr.Year, tr.PaymentStatus,
		tr.PaymentComplete, tr.AmountPaid, tr.PaymentID, tr.CardBrand, tr.CardLast4,
	)
	if err != nil {
		return fmt.Errorf("failed to add tournament registration: %w", err)
	}
	return nil
}

// SetPaymentStatus updates the team's top-level payment fields
func (r *TeamRepository) SetPaymentStatus(teamID, status string, complete bool) error {
	query := "UPDATE teams SET payment_status = ?, payment_complete = ? WHERE id = ?"
	if _, err := r.db.Exec(query, status, complete, teamID); err != nil {
		return fmt.Errorf("failed to update team payment status: %w", err)
	}
	return nil
}
