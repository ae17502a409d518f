package registration

import (
	"fmt"

	"leaguereg/internal/models"
	"leaguereg/internal/payments"
)

// EntityKind says whether a registration covers players or teams
type EntityKind string

const (
	EntityPlayer EntityKind = "player"
	EntityTeam   EntityKind = "team"
)

// Registration kind names
const (
	KindPlayer     = "player"
	KindTournament = "tournament"
	KindTraining   = "training"
	KindTryout     = "tryout"
)

// Kind is the closed set of registration flows. Each variant owns its step
// sequence, its eligibility target and its payment endpoint.
type Kind interface {
	Name() string
	Steps() []Step
	// SelectionStep is where the roster is chosen or drafted
	SelectionStep() Step
	// PaymentStep is the step that can only be left through CompletePayment
	PaymentStep() Step
	EntityKind() EntityKind
	Target(cfg *models.RegistrationFormConfig) Target
	PaymentEndpoint() payments.Endpoint

	isKind()
}

type PlayerKind struct{}

func (PlayerKind) Name() string                       { return KindPlayer }
func (PlayerKind) Steps() []Step                      { return playerSteps }
func (PlayerKind) SelectionStep() Step                { return StepPlayer }
func (PlayerKind) PaymentStep() Step                  { return StepReview }
func (PlayerKind) EntityKind() EntityKind             { return EntityPlayer }
func (PlayerKind) PaymentEndpoint() payments.Endpoint { return payments.EndpointProcess }
func (PlayerKind) isKind()                            {}

func (PlayerKind) Target(cfg *models.RegistrationFormConfig) Target {
	return Target{Name: cfg.Season, Year: cfg.Year, Match: MatchSeason}
}

type TournamentKind struct{}

func (TournamentKind) Name() string                       { return KindTournament }
func (TournamentKind) Steps() []Step                      { return tournamentSteps }
func (TournamentKind) SelectionStep() Step                { return StepTeam }
func (TournamentKind) PaymentStep() Step                  { return StepPayment }
func (TournamentKind) EntityKind() EntityKind             { return EntityTeam }
func (TournamentKind) PaymentEndpoint() payments.Endpoint { return payments.EndpointTournamentTeams }
func (TournamentKind) isKind()                            {}

func (TournamentKind) Target(cfg *models.RegistrationFormConfig) Target {
	return Target{Name: cfg.TournamentName, Year: cfg.Year, Match: MatchSeason}
}

type TrainingKind struct{}

func (TrainingKind) Name() string                       { return KindTraining }
func (TrainingKind) Steps() []Step                      { return selectionSteps }
func (TrainingKind) SelectionStep() Step                { return StepPlayerSelect }
func (TrainingKind) PaymentStep() Step                  { return StepPayment }
func (TrainingKind) EntityKind() EntityKind             { return EntityPlayer }
func (TrainingKind) PaymentEndpoint() payments.Endpoint { return payments.EndpointProcess }
func (TrainingKind) isKind()                            {}

func (TrainingKind) Target(cfg *models.RegistrationFormConfig) Target {
	return Target{Name: cfg.Season, Year: cfg.Year, Match: MatchTraining}
}

type TryoutKind struct{}

func (TryoutKind) Name() string                       { return KindTryout }
func (TryoutKind) Steps() []Step                      { return selectionSteps }
func (TryoutKind) SelectionStep() Step                { return StepPlayerSelect }
func (TryoutKind) PaymentStep() Step                  { return StepPayment }
func (TryoutKind) EntityKind() EntityKind             { return EntityPlayer }
func (TryoutKind) PaymentEndpoint() payments.Endpoint { return payments.EndpointTryout }
func (TryoutKind) isKind()                            {}

func (TryoutKind) Target(cfg *models.RegistrationFormConfig) Target {
	return Target{Name: cfg.Season, Year: cfg.Year, TryoutID: cfg.TryoutID, Match: MatchTryout}
}

// Kinds lists every registration flow
var Kinds = []Kind{PlayerKind{}, TournamentKind{}, TrainingKind{}, TryoutKind{}}

// KindByName returns the flow with the given name
func KindByName(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.Name() == name {
			return k, nil
		}
	}
	return nil, fmt.Errorf("unknown registration kind %q", name)
}
