package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"leaguereg/internal/models"
	"leaguereg/internal/registration"
	"leaguereg/internal/repository"
)

// repositoryStore persists wizard drafts through the repositories. A player
// with the same name, date of birth and gender, or a team of the same
// guardian with the same name, grade and sex, is reported as a duplicate.
type repositoryStore struct {
	playerRepo *repository.PlayerRepository
	teamRepo   *repository.TeamRepository
}

func newRepositoryStore(playerRepo *repository.PlayerRepository, teamRepo *repository.TeamRepository) *repositoryStore {
	return &repositoryStore{playerRepo: playerRepo, teamRepo: teamRepo}
}

func (s *repositoryStore) SavePlayer(ctx context.Context, parentID string, p models.Player, target registration.Target) (string, error) {
	existing, err := s.playerRepo.FindDuplicate(p.FullName, p.DateOfBirth, p.Gender)
	if err != nil {
		return "", registration.NetworkError("", err)
	}
	if existing != nil {
		return "", registration.DuplicateEntityError(existing.ID)
	}

	p.ID = ""
	p.ParentID = parentID
	if err := s.playerRepo.CreatePlayer(&p); err != nil {
		return "", registration.NetworkError("", err)
	}
	log.Ctx(ctx).Info().Str("player_id", p.ID).Str("season", target.Name).Msg("Player saved")
	return p.ID, nil
}

func (s *repositoryStore) SaveTeam(ctx context.Context, guardianID string, t models.Team) (string, error) {
	existing, err := s.teamRepo.FindDuplicate(guardianID, t.Name, t.Grade, t.Sex)
	if err != nil {
		return "", registration.NetworkError("", err)
	}
	if existing != nil {
		return "", registration.DuplicateEntityError(existing.ID)
	}

	t.ID = ""
	t.GuardianID = guardianID
	if err := s.teamRepo.CreateTeam(&t); err != nil {
		return "", registration.NetworkError("", err)
	}
	log.Ctx(ctx).Info().Str("team_id", t.ID).Msg("Team saved")
	return t.ID, nil
}
