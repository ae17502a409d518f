package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
)

// FormRepository stores one RegistrationFormConfig per registration kind as JSON
type FormRepository struct {
	db database.DBTX
}

func NewFormRepository(db database.DBTX) *FormRepository {
	return &FormRepository{db: db}
}

// GetForm retrieves the form config of a kind, or nil when none is stored
func (r *FormRepository) GetForm(kind string) (*models.RegistrationFormConfig, error) {
	var raw string
	var cfg models.RegistrationFormConfig
	err := r.db.QueryRow("SELECT config, updated_at FROM registration_forms WHERE kind = ?", kind).
		Scan(&raw, &cfg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get registration form: %w", err)
	}

	updatedAt := cfg.UpdatedAt
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode registration form %s: %w", kind, err)
	}
	cfg.Kind = kind
	cfg.UpdatedAt = updatedAt
	return &cfg, nil
}

// SaveForm inserts or replaces the form config of cfg.Kind
func (r *FormRepository) SaveForm(cfg *models.RegistrationFormConfig) error {
	if cfg.Kind == "" {
		return fmt.Errorf("registration form kind is required")
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode registration form: %w", err)
	}
	if _, err := r.db.Exec(r.db.GetDialect().UpsertFormQuery(), cfg.Kind, string(raw)); err != nil {
		return fmt.Errorf("failed to save registration form: %w", err)
	}
	return nil
}
