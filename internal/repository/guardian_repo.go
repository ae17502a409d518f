package repository

import (
	"database/sql"
	"fmt"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
	"leaguereg/internal/security"
)

// GuardianRepository stores primary and additional guardians
type GuardianRepository struct {
	db database.DBTX
}

func NewGuardianRepository(db database.DBTX) *GuardianRepository {
	return &GuardianRepository{db: db}
}

const guardianColumns = `id, COALESCE(user_id, 0), primary_guardian_id, full_name, relationship, phone, email,
	street, street2, city, state, zip, is_coach, aau_number, is_primary, shares_primary_address, created_at`

func scanGuardian(row interface{ Scan(...interface{}) error }) (*models.Guardian, error) {
	g := &models.Guardian{}
	var primaryID string
	err := row.Scan(
		&g.ID, &g.UserID, &primaryID, &g.FullName, &g.Relationship, &g.Phone, &g.Email,
		&g.Address.Street, &g.Address.Street2, &g.Address.City, &g.Address.State, &g.Address.Zip,
		&g.IsCoach, &g.AAUNumber, &g.IsPrimary, &g.SharesPrimaryAddress, &g.CreatedAt,
	)
	return g, err
}

// CreateGuardian inserts a guardian, assigning an id when it has none.
// Additional guardians are linked to their primary through primaryID.
func (r *GuardianRepository) CreateGuardian(g *models.Guardian, primaryID string) error {
	if g.ID == "" {
		g.ID = security.NewEntityID()
	}

	var userID interface{}
	if g.UserID != 0 {
		userID = g.UserID
	}

	query := `
		INSERT INTO guardians (id, user_id, primary_guardian_id, full_name, relationship, phone, email,
			street, street2, city, state, zip, is_coach, aau_number, is_primary, shares_primary_address)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		g.ID, userID, primaryID, g.FullName, g.Relationship, g.Phone, g.Email,
		g.Address.Street, g.Address.Street2, g.Address.City, g.Address.State, g.Address.Zip,
		g.IsCoach, g.AAUNumber, g.IsPrimary, g.SharesPrimaryAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to create guardian: %w", err)
	}
	return nil
}

// GetGuardianByID retrieves a guardian by id
func (r *GuardianRepository) GetGuardianByID(id string) (*models.Guardian, error) {
	query := "SELECT " + guardianColumns + " FROM guardians WHERE id = ?"
	g, err := scanGuardian(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guardian: %w", err)
	}
	return g, nil
}

// GetPrimaryGuardianByUserID returns the primary guardian registered by an account
func (r *GuardianRepository) GetPrimaryGuardianByUserID(userID int64) (*models.Guardian, error) {
	query := "SELECT " + guardianColumns + " FROM guardians WHERE user_id = ? AND is_primary = ?"
	g, err := scanGuardian(r.db.QueryRow(query, userID, true))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guardian: %w", err)
	}
	return g, nil
}

// ListAdditionalGuardians returns guardians attached to a primary guardian
func (r *GuardianRepository) ListAdditionalGuardians(primaryID string) ([]models.Guardian, error) {
	query := "SELECT " + guardianColumns + " FROM guardians WHERE primary_guardian_id = ? ORDER BY created_at, id"
	return r.list(query, primaryID)
}

// ListGuardians returns every guardian, used by the roster export
func (r *GuardianRepository) ListGuardians() ([]models.Guardian, error) {
	query := "SELECT " + guardianColumns + " FROM guardians ORDER BY created_at, id"
	return r.list(query)
}

func (r *GuardianRepository) list(query string, args ...interface{}) ([]models.Guardian, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query guardians: %w", err)
	}
	defer rows.Close()

	var guardians []models.Guardian
	for rows.Next() {
		g, err := scanGuardian(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guardian: %w", err)
		}
		guardians = append(guardians, *g)
	}
	return guardians, rows.Err()
}

// UpdateGuardian overwrites the contact and address fields of a guardian
func (r *GuardianRepository) UpdateGuardian(g *models.Guardian) error {
	query := `
		UPDATE guardians
		SET full_name = ?, relationship = ?, phone = ?, email = ?,
			street = ?, street2 = ?, city = ?, state = ?, zip = ?,
			is_coach = ?, aau_number = ?, shares_primary_address = ?
		WHERE id = ?
	`
	_, err := r.db.Exec(query,
		g.FullName, g.Relationship, g.Phone, g.Email,
		g.Address.Street, g.Address.Street2, g.Address.City, g.Address.State, g.Address.Zip,
		g.IsCoach, g.AAUNumber, g.SharesPrimaryAddress, g.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update guardian: %w", err)
	}
	return nil
}
