package repository

import (
	"database/sql"
	"fmt"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
	"leaguereg/internal/security"
)

// PlayerRepository stores players and their season history
type PlayerRepository struct {
	db database.DBTX
}

// NewPlayerRepository creates a new player repository
func NewPlayerRepository(db database.DBTX) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, parent_id, full_name, gender, dob, school_name, grade, is_grade_overridden,
	health_concerns, aau_number, payment_complete, payment_status, created_at`

func scanPlayer(row interface{ Scan(...interface{}) error }) (*models.Player, error) {
	p := &models.Player{}
	err := row.Scan(
		&p.ID, &p.ParentID, &p.FullName, &p.Gender, &p.DateOfBirth, &p.SchoolName, &p.Grade,
		&p.IsGradeOverridden, &p.HealthConcerns, &p.AAUNumber, &p.PaymentComplete, &p.PaymentStatus,
		&p.CreatedAt,
	)
	return p, err
}

// CreatePlayer inserts a player, assigning an id when it has none
func (r *PlayerRepository) CreatePlayer(p *models.Player) error {
	if p.ID == "" {
		p.ID = security.NewEntityID()
	}

	query := `
		INSERT INTO players (id, parent_id, full_name, gender, dob, school_name, grade, is_grade_overridden,
			health_concerns, aau_number, payment_complete, payment_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		p.ID, p.ParentID, p.FullName, string(p.Gender), p.DateOfBirth, p.SchoolName, string(p.Grade),
		p.IsGradeOverridden, p.HealthConcerns, p.AAUNumber, p.PaymentComplete, p.PaymentStatus,
	)
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	return nil
}

// FindDuplicate returns an existing player with the same name, date of birth and gender
func (r *PlayerRepository) FindDuplicate(fullName, dob string, gender models.Gender) (*models.Player, error) {
	query := "SELECT " + playerColumns + " FROM players WHERE full_name = ? AND dob = ? AND gender = ?"
	p, err := scanPlayer(r.db.QueryRow(query, fullName, dob, string(gender)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up duplicate player: %w", err)
	}
	return p, nil
}

// GetPlayerByID retrieves a player together with its season history
func (r *PlayerRepository) GetPlayerByID(id string) (*models.Player, error) {
	query := "SELECT " + playerColumns + " FROM players WHERE id = ?"
	p, err := scanPlayer(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if p.Seasons, err = r.GetSeasonHistory(p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlayersByParent returns a guardian's players with their season history
func (r *PlayerRepository) ListPlayersByParent(parentID string) ([]models.Player, error) {
	query := "SELECT " + playerColumns + " FROM players WHERE parent_id = ? ORDER BY created_at, id"
	return r.list(query, parentID)
}

// ListPlayers returns every player, used by the roster export
func (r *PlayerRepository) ListPlayers() ([]models.Player, error) {
	query := "SELECT " + playerColumns + " FROM players ORDER BY created_at, id"
	return r.list(query)
}

func (r *PlayerRepository) list(query string, args ...interface{}) ([]models.Player, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query players: %w", err)
	}

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate players: %w", err)
	}
	rows.Close()

	// History is loaded after the cursor is closed; SQLite transactions hold one connection.
	for i := range players {
		if players[i].Seasons, err = r.GetSeasonHistory(players[i].ID); err != nil {
			return nil, err
		}
	}
	return players, nil
}

// GetSeasonHistory returns a player's season registrations in insertion order
func (r *PlayerRepository) GetSeasonHistory(playerID string) ([]models.SeasonRegistration, error) {
	query := `
		SELECT season, year, tryout_id, payment_status, payment_complete, amount_paid,
			payment_id, card_brand, card_last4, registered_at
		FROM season_registrations
		WHERE player_id = ?
		ORDER BY id
	`
	rows, err := r.db.Query(query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season history: %w", err)
	}
	defer rows.Close()

	var history []models.SeasonRegistration
	for rows.Next() {
		var s models.SeasonRegistration
		if err := rows.Scan(
			&s.Season, &s.Year, &s.TryoutID, &s.PaymentStatus, &s.PaymentComplete, &s.AmountPaid,
			&s.PaymentID, &s.CardBrand, &s.CardLast4, &s.RegisteredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan season registration: %w", err)
		}
		history = append(history, s)
	}
	return history, rows.Err()
}

// AddSeasonRegistration appends an entry to a player's season history
func (r *PlayerRepository) AddSeasonRegistration(playerID string, s models.SeasonRegistration) error {
	query := `
		INSERT INTO season_registrations (player_id, season, year, tryout_id, payment_status,
			payment_complete, amount_paid, payment_id, card_brand, card_last4)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		playerID, s.Season, s.Year, s.TryoutID, s.PaymentStatus,
		s.PaymentComplete, s.AmountPaid, s.PaymentID, s.CardBrand, s.CardLast4,
	)
	if err != nil {
		return fmt.Errorf("failed to add season registration: %w", err)
	}
	return nil
}

// SetPaymentStatus updates the player's top-level payment fields
func (r *PlayerRepository) SetPaymentStatus(playerID, status string, complete bool) error {
	query := `
		UPDATE players
		SET payment_status = ?, payment_complete = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, status, complete, playerID); err != nil {
		return fmt.Errorf("failed to update player payment status: %w", err)
	}
	return nil
}
