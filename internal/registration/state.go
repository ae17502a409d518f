package registration

import (
	"slices"

	"leaguereg/internal/models"
	"leaguereg/internal/payments"
)

// SessionContext is what the caller knows about the visitor when a wizard
// starts. PendingEmail carries an account created on an earlier page load
// that has not been verified yet.
type SessionContext struct {
	Authenticated bool
	UserID        int64
	Email         string
	PendingEmail  string
	Guardian      *models.Guardian
}

// Receipt is what a successful payment leaves on the wizard
type Receipt struct {
	PaymentID          string               `json:"paymentId"`
	ProcessorPaymentID string               `json:"processorPaymentId,omitempty"`
	ReceiptURL         string               `json:"receiptUrl,omitempty"`
	AmountCents        int64                `json:"amountCents"`
	Card               payments.CardDetails `json:"card"`
	Players            []models.Player      `json:"players,omitempty"`
	Teams              []models.Team        `json:"teams,omitempty"`
}

// State is one registration session. It is a value: every operation
// returns a new State and leaves its input untouched.
type State struct {
	ID                  string                 `json:"id"`
	Kind                string                 `json:"kind"`
	CurrentStep         Step                   `json:"currentStep"`
	Authenticated       bool                   `json:"authenticated"`
	GuardianRegistered  bool                   `json:"guardianRegistered"`
	EmailVerified       bool                   `json:"emailVerified"`
	PendingEmail        string                 `json:"pendingEmail,omitempty"`
	UserID              int64                  `json:"userId,omitempty"`
	Guardian            models.Guardian        `json:"guardian"`
	AdditionalGuardians []models.Guardian      `json:"additionalGuardians,omitempty"`
	Players             []models.Player        `json:"players,omitempty"`
	Teams               []models.Team          `json:"teams,omitempty"`
	SelectedIDs         []string               `json:"selectedIds,omitempty"`
	Package             *models.PricingPackage `json:"package,omitempty"`
	Target              Target                 `json:"target"`
	InFlight            bool                   `json:"inFlight"`
	PlayersSaved        bool                   `json:"playersSaved"`
	TeamsSaved          bool                   `json:"teamsSaved"`
	TermsAccepted       bool                   `json:"termsAccepted"`
	Receipt             *Receipt               `json:"receipt,omitempty"`
	Error               string                 `json:"error,omitempty"`
}

// Done reports whether the wizard reached its terminal step
func (s State) Done() bool {
	return s.CurrentStep == StepSuccess
}

// clone deep-copies every slice and pointer so the copy can be changed freely
func (s State) clone() State {
	c := s
	c.AdditionalGuardians = slices.Clone(s.AdditionalGuardians)
	c.Players = make([]models.Player, len(s.Players))
	for i, p := range s.Players {
		p.Seasons = slices.Clone(p.Seasons)
		c.Players[i] = p
	}
	if s.Players == nil {
		c.Players = nil
	}
	c.Teams = make([]models.Team, len(s.Teams))
	for i, t := range s.Teams {
		t.CoachIDs = slices.Clone(t.CoachIDs)
		t.Tournaments = slices.Clone(t.Tournaments)
		c.Teams[i] = t
	}
	if s.Teams == nil {
		c.Teams = nil
	}
	c.SelectedIDs = slices.Clone(s.SelectedIDs)
	if s.Package != nil {
		pkg := *s.Package
		c.Package = &pkg
	}
	if s.Receipt != nil {
		r := *s.Receipt
		c.Receipt = &r
	}
	return c
}

func (s State) selected(id string) bool {
	return slices.Contains(s.SelectedIDs, id)
}

// payablePlayers is the roster a player flow charges for: every drafted
// player in the player flow, the selected players otherwise.
func (s State) payablePlayers(kind Kind) []models.Player {
	if kind.SelectionStep() == StepPlayer {
		return s.Players
	}
	var out []models.Player
	for _, p := range s.Players {
		if p.ID != "" && s.selected(p.ID) {
			out = append(out, p)
		}
	}
	return out
}
