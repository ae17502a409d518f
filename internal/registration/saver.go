package registration

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"leaguereg/internal/models"
)

// EntityStore persists draft players and teams. A store that finds the
// entity already registered returns DuplicateEntityError with its id.
type EntityStore interface {
	SavePlayer(ctx context.Context, parentID string, p models.Player, target Target) (string, error)
	SaveTeam(ctx context.Context, guardianID string, t models.Team) (string, error)
}

// Locker provides a short-lived exclusive lock keyed by string
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

const defaultSaveLockTTL = 30 * time.Second

// DraftSaver persists the drafts of a wizard at most once
type DraftSaver struct {
	store   EntityStore
	locker  Locker
	lockTTL time.Duration
}

func NewDraftSaver(store EntityStore, locker Locker) *DraftSaver {
	return &DraftSaver{store: store, locker: locker, lockTTL: defaultSaveLockTTL}
}

func (d *DraftSaver) lock(ctx context.Context, s State, what string) (func(), error) {
	key := "save:" + what + ":" + s.ID
	ok, err := d.locker.Acquire(ctx, key, d.lockTTL)
	if err != nil {
		return nil, NetworkError("", err)
	}
	if !ok {
		return nil, ValidationError("Your " + what + " are already being saved.")
	}
	return func() {
		if err := d.locker.Release(context.WithoutCancel(ctx), key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to release save lock")
		}
	}, nil
}

// SavePlayers persists every player without an id and records the ids.
// Players that already have ids are skipped and a duplicate reported by the
// store is adopted, so repeating the call never creates a second record.
func (d *DraftSaver) SavePlayers(ctx context.Context, s State) (State, error) {
	if s.Done() {
		return s, nil
	}
	if s.PlayersSaved && allPlayersSaved(s.Players) {
		return s, nil
	}
	if s.Guardian.ID == "" {
		return s, PreconditionError("Please complete the guardian step before saving players.")
	}

	unlock, err := d.lock(ctx, s, "players")
	if err != nil {
		return s, err
	}
	defer unlock()

	next := s.clone()
	for i := range next.Players {
		p := &next.Players[i]
		if p.ID != "" {
			continue
		}
		if p.ParentID == "" {
			p.ParentID = next.Guardian.ID
		}

		id, err := d.store.SavePlayer(ctx, p.ParentID, *p, next.Target)
		if err != nil {
			var e *Error
			if !errors.As(err, &e) || e.Kind != DuplicateEntity || e.ExistingID == "" {
				// ids saved so far are kept so a retry does not duplicate them
				return next, err
			}
			log.Info().Str("player", p.FullName).Str("player_id", e.ExistingID).Msg("player already registered, adopting existing record")
			id = e.ExistingID
		}
		p.ID = id
	}

	next.PlayersSaved = true
	return next, nil
}

// SaveTeams persists every team without an id, under the same rules as SavePlayers
func (d *DraftSaver) SaveTeams(ctx context.Context, s State) (State, error) {
	if s.Done() {
		return s, nil
	}
	if s.TeamsSaved && allTeamsSaved(s.Teams) {
		return s, nil
	}
	if s.Guardian.ID == "" {
		return s, PreconditionError("Please complete the guardian step before saving teams.")
	}

	unlock, err := d.lock(ctx, s, "teams")
	if err != nil {
		return s, err
	}
	defer unlock()

	next := s.clone()
	for i := range next.Teams {
		t := &next.Teams[i]
		if t.ID != "" {
			continue
		}
		if t.GuardianID == "" {
			t.GuardianID = next.Guardian.ID
		}

		id, err := d.store.SaveTeam(ctx, t.GuardianID, *t)
		if err != nil {
			var e *Error
			if !errors.As(err, &e) || e.Kind != DuplicateEntity || e.ExistingID == "" {
				return next, err
			}
			id = e.ExistingID
		}
		t.ID = id
	}

	next.TeamsSaved = true
	return next, nil
}

func allPlayersSaved(players []models.Player) bool {
	for _, p := range players {
		if p.ID == "" {
			return false
		}
	}
	return true
}

func allTeamsSaved(teams []models.Team) bool {
	for _, t := range teams {
		if t.ID == "" {
			return false
		}
	}
	return true
}
