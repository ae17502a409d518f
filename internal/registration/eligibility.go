package registration

import (
	"strings"

	"github.com/rs/zerolog/log"

	"leaguereg/internal/models"
)

// MatchRule selects how a history record is compared with a target
type MatchRule string

const (
	// MatchSeason compares the literal season or tournament name and the year
	MatchSeason MatchRule = "season"
	// MatchTryout additionally requires the tryout id to be equal
	MatchTryout MatchRule = "tryout"
	// MatchTraining accepts the literal name or any name containing "training"
	MatchTraining MatchRule = "training"
)

const trainingMarker = "training"

// Target is the season, tournament, training or tryout being paid for
type Target struct {
	Name     string    `json:"name"`
	Year     int       `json:"year"`
	TryoutID string    `json:"tryoutId,omitempty"`
	Match    MatchRule `json:"match"`
}

// usesTopLevelFallback is true for tryout targets that carry no tryout id.
// Those are judged on the entity's top-level payment fields instead of its history.
func (t Target) usesTopLevelFallback() bool {
	return t.Match == MatchTryout && t.TryoutID == ""
}

func (t Target) matches(r models.PaymentRecord) bool {
	if r.Year != t.Year {
		return false
	}
	switch t.Match {
	case MatchTryout:
		return r.Name == t.Name && r.TryoutID == t.TryoutID
	case MatchTraining:
		return r.Name == t.Name || strings.Contains(r.Name, trainingMarker)
	default:
		return r.Name == t.Name
	}
}

// Registrant is anything that can be paid for: players and teams
type Registrant interface {
	RegistrantID() string
	PaymentHistory() []models.PaymentRecord
	TopLevelPayment() (status string, complete bool)
}

// Partition splits a roster into entities already paid for the target and
// entities that still owe. Input order is preserved in both halves.
type Partition[E Registrant] struct {
	Paid   []E
	Unpaid []E
}

// IsPaid reports whether e already holds a paid registration for target.
// Entities without an id, or without any matching paid record, are unpaid.
func IsPaid(e Registrant, target Target) bool {
	if e.RegistrantID() == "" {
		return false
	}

	if target.usesTopLevelFallback() {
		status, complete := e.TopLevelPayment()
		return status == models.PaymentStatusPaid || complete
	}

	for _, r := range e.PaymentHistory() {
		if target.matches(r) && r.Paid() {
			return true
		}
	}
	return false
}

// Resolve partitions entities into paid and unpaid for target
func Resolve[E Registrant](entities []E, target Target) Partition[E] {
	if target.usesTopLevelFallback() && len(entities) > 0 {
		log.Warn().
			Str("target", target.Name).
			Int("year", target.Year).
			Msg("tryout target has no tryout id, checking top-level payment status")
	}

	p := Partition[E]{
		Paid:   make([]E, 0, len(entities)),
		Unpaid: make([]E, 0, len(entities)),
	}
	for _, e := range entities {
		if IsPaid(e, target) {
			p.Paid = append(p.Paid, e)
		} else {
			p.Unpaid = append(p.Unpaid, e)
		}
	}
	return p
}

// PlayerRefs returns pointers into players so they satisfy Registrant
func PlayerRefs(players []models.Player) []*models.Player {
	refs := make([]*models.Player, len(players))
	for i := range players {
		refs[i] = &players[i]
	}
	return refs
}

// TeamRefs returns pointers into teams so they satisfy Registrant
func TeamRefs(teams []models.Team) []*models.Team {
	refs := make([]*models.Team, len(teams))
	for i := range teams {
		refs[i] = &teams[i]
	}
	return refs
}
