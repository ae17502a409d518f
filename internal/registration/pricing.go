package registration

import (
	"fmt"

	"leaguereg/internal/models"
)

// UnitPrice returns the per-entity price in cents for a flow.
// Tournament fees are per team; every other flow is per player, using the
// selected package, then a configured tryout fee, then the base price.
func UnitPrice(cfg *models.RegistrationFormConfig, kind Kind, selected *models.PricingPackage) (int64, error) {
	if cfg == nil {
		return 0, ValidationError("This registration is not configured yet.")
	}

	var price models.Dollars
	switch {
	case kind.Name() == KindTournament:
		price = cfg.TournamentFee
	case selected != nil:
		price = selected.Price
	case kind.Name() == KindTryout && !cfg.TryoutFee.IsZero():
		price = cfg.TryoutFee
	default:
		price = cfg.BasePrice
	}

	cents, err := price.Cents()
	if err != nil {
		return 0, &Error{Kind: Validation, Message: "This registration has an invalid price configured.", Err: err}
	}
	return cents, nil
}

// ComputeAmount returns the total owed in cents for count eligible entities.
// Dollar amounts are scaled to cents exactly once, inside UnitPrice.
func ComputeAmount(count int, cfg *models.RegistrationFormConfig, kind Kind, selected *models.PricingPackage) (int64, error) {
	if count <= 0 {
		return 0, nil
	}
	unit, err := UnitPrice(cfg, kind, selected)
	if err != nil {
		return 0, err
	}
	return unit * int64(count), nil
}

// Quote is the eligibility and price summary shown before payment
type Quote struct {
	Kind           string   `json:"kind"`
	Target         Target   `json:"target"`
	PaidIDs        []string `json:"paidIds"`
	PayableIDs     []string `json:"payableIds"`
	EligibleCount  int      `json:"eligibleCount"`
	UnitCents      int64    `json:"unitCents"`
	AmountCents    int64    `json:"amountCents"`
	AmountDisplay  string   `json:"amountDisplay"`
	PackageID      string   `json:"packageId,omitempty"`
	UnsavedEntries int      `json:"unsavedEntries"`
}

// BuildQuote resolves eligibility for the wizard's roster and prices it.
// Player flows price the selected players that still owe; tournaments
// price every unpaid team, including teams not saved yet.
func BuildQuote(s State, cfg *models.RegistrationFormConfig) (Quote, error) {
	kind, err := KindByName(s.Kind)
	if err != nil {
		return Quote{}, &Error{Kind: Precondition, Message: "Unknown registration type.", Err: err}
	}

	q := Quote{Kind: kind.Name(), Target: s.Target}
	if s.Package != nil {
		q.PackageID = s.Package.ID
	}

	switch kind.EntityKind() {
	case EntityTeam:
		part := Resolve(TeamRefs(s.Teams), s.Target)
		for _, t := range part.Paid {
			q.PaidIDs = append(q.PaidIDs, t.ID)
		}
		for _, t := range part.Unpaid {
			if t.ID == "" {
				q.UnsavedEntries++
				continue
			}
			q.PayableIDs = append(q.PayableIDs, t.ID)
		}
		q.EligibleCount = len(part.Unpaid)
	default:
		part := Resolve(PlayerRefs(s.payablePlayers(kind)), s.Target)
		for _, p := range part.Paid {
			q.PaidIDs = append(q.PaidIDs, p.ID)
		}
		for _, p := range part.Unpaid {
			if p.ID == "" {
				q.UnsavedEntries++
				continue
			}
			q.PayableIDs = append(q.PayableIDs, p.ID)
		}
		q.EligibleCount = len(part.Unpaid)
	}

	if q.UnitCents, err = UnitPrice(cfg, kind, s.Package); err != nil {
		return Quote{}, err
	}
	if q.AmountCents, err = ComputeAmount(q.EligibleCount, cfg, kind, s.Package); err != nil {
		return Quote{}, err
	}
	q.AmountDisplay = models.FormatCents(q.AmountCents)
	return q, nil
}

func (q Quote) String() string {
	return fmt.Sprintf("%s %s: %d x %s = %s", q.Kind, q.Target.Name, q.EligibleCount,
		models.FormatCents(q.UnitCents), q.AmountDisplay)
}

// Unpaid returns the roster entries of the wizard that still owe for its
// target, in roster order. Unsaved entries are included.
func Unpaid(s State) ([]models.Player, []models.Team, error) {
	kind, err := KindByName(s.Kind)
	if err != nil {
		return nil, nil, &Error{Kind: Precondition, Message: "Unknown registration type.", Err: err}
	}

	if kind.EntityKind() == EntityTeam {
		var teams []models.Team
		for _, t := range Resolve(TeamRefs(s.Teams), s.Target).Unpaid {
			teams = append(teams, *t)
		}
		return nil, teams, nil
	}

	var players []models.Player
	for _, p := range Resolve(PlayerRefs(s.payablePlayers(kind)), s.Target).Unpaid {
		players = append(players, *p)
	}
	return players, nil, nil
}
