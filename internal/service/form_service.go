package service

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"leaguereg/internal/models"
	"leaguereg/internal/registration"
	"leaguereg/internal/repository"
)

// FormService loads registration form configs, seeding a default the first
// time a kind is requested
type FormService struct {
	formRepo *repository.FormRepository
	year     int
}

func NewFormService(formRepo *repository.FormRepository, registrationYear int) *FormService {
	return &FormService{formRepo: formRepo, year: registrationYear}
}

// GetForm returns the config of a registration kind
func (s *FormService) GetForm(kind string) (*models.RegistrationFormConfig, error) {
	if _, err := registration.KindByName(kind); err != nil {
		return nil, err
	}

	cfg, err := s.formRepo.GetForm(kind)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg = defaultForm(kind, s.year)
	if err := s.formRepo.SaveForm(cfg); err != nil {
		return nil, fmt.Errorf("failed to seed %s form: %w", kind, err)
	}
	log.Info().Str("kind", kind).Int("year", s.year).Msg("Seeded default registration form")
	return cfg, nil
}

// SaveForm replaces the config of a registration kind
func (s *FormService) SaveForm(cfg *models.RegistrationFormConfig) error {
	if _, err := registration.KindByName(cfg.Kind); err != nil {
		return err
	}
	for _, price := range []models.Dollars{cfg.BasePrice, cfg.TournamentFee, cfg.TryoutFee} {
		if _, err := price.Cents(); err != nil {
			return err
		}
	}
	for _, p := range cfg.Packages {
		if _, err := p.Price.Cents(); err != nil {
			return fmt.Errorf("package %s: %w", p.ID, err)
		}
	}
	return s.formRepo.SaveForm(cfg)
}

func defaultForm(kind string, year int) *models.RegistrationFormConfig {
	cfg := &models.RegistrationFormConfig{
		Kind:            kind,
		Active:          true,
		RequiresPayment: true,
		Year:            year,
	}

	switch kind {
	case registration.KindPlayer:
		cfg.Season = "Spring"
		cfg.BasePrice = "75"
	case registration.KindTournament:
		cfg.TournamentName = "Summer Slam"
		cfg.TournamentFee = "350"
	case registration.KindTraining:
		cfg.Season = "Fall Training"
		cfg.BasePrice = "120"
		cfg.Packages = []models.PricingPackage{
			{ID: "weekly", Name: "Weekly", Price: "40"},
			{ID: "full", Name: "Full Session", Price: "120"},
		}
	case registration.KindTryout:
		cfg.Season = "Spring"
		cfg.TryoutID = "tryout-" + strconv.Itoa(year)
		cfg.TryoutFee = "25"
		cfg.BasePrice = "25"
	}
	return cfg
}
