package registration

import (
	"errors"
	"fmt"

	"leaguereg/internal/validation"
)

const (
	msgInFlight       = "Please wait for the current request to finish."
	msgPaymentPending = "Complete payment to finish your registration."
)

// Controller sequences the steps of a registration wizard. It holds no
// state of its own; every method maps a State to a new State.
type Controller struct{}

func NewController() *Controller {
	return &Controller{}
}

func kindOf(s State) (Kind, error) {
	return KindByName(s.Kind)
}

// Start opens a wizard for kind. Signed-in visitors skip account creation:
// they land on the guardian step, or on the selection step when their
// guardian record already exists.
func (c *Controller) Start(kind Kind, sc SessionContext) State {
	s := State{
		Kind:        kind.Name(),
		CurrentStep: StepAccount,
	}

	switch {
	case sc.Authenticated:
		s.Authenticated = true
		s.EmailVerified = true
		s.UserID = sc.UserID
		s.PendingEmail = sc.Email
		s.CurrentStep = StepGuardian
		if sc.Guardian != nil {
			s.Guardian = *sc.Guardian
			s.GuardianRegistered = true
			s.CurrentStep = kind.SelectionStep()
		}
	case sc.PendingEmail != "":
		s.PendingEmail = sc.PendingEmail
		s.CurrentStep = StepVerifyEmail
	}
	return s
}

// IsAccessible reports whether step may be shown. Account steps are closed
// for good once the visitor is signed in or has a guardian record; any other
// step is reachable when it is not ahead of the current one.
func (c *Controller) IsAccessible(s State, step Step) bool {
	kind, err := kindOf(s)
	if err != nil {
		return false
	}
	steps := kind.Steps()
	target := indexOf(steps, step)
	if target < 0 {
		return false
	}
	if step.preAuth() && (s.Authenticated || s.GuardianRegistered) {
		return false
	}
	return target <= indexOf(steps, s.CurrentStep)
}

// firstAccessible is the step GoBack cannot move behind
func (c *Controller) firstAccessible(s State, steps []Step) int {
	for i, step := range steps {
		if c.IsAccessible(s, step) {
			return i
		}
	}
	return indexOf(steps, s.CurrentStep)
}

// ValidateStep checks the data the current step needs before moving on
func (c *Controller) ValidateStep(s State) error {
	kind, err := kindOf(s)
	if err != nil {
		return &Error{Kind: Precondition, Message: "Unknown registration type.", Err: err}
	}
	if s.CurrentStep == kind.PaymentStep() {
		return ValidationError(msgPaymentPending)
	}

	switch s.CurrentStep {
	case StepAccount:
		if err := validation.ValidateEmail(s.PendingEmail); err != nil {
			return ValidationError("Please create your account to continue.")
		}
	case StepVerifyEmail:
		if !s.EmailVerified {
			return ValidationError("Please verify your email address to continue.")
		}
	case StepGuardian:
		if err := validation.ValidateGuardian(s.Guardian, true); err != nil {
			return fieldError("Guardian", err)
		}
		for i, g := range s.AdditionalGuardians {
			if err := validation.ValidateGuardian(g, !g.SharesPrimaryAddress); err != nil {
				return fieldError(fmt.Sprintf("Additional guardian %d", i+1), err)
			}
		}
	case StepPlayer:
		if len(s.Players) == 0 {
			return ValidationError("Please add at least one player.")
		}
		for i, p := range s.Players {
			if err := validation.ValidatePlayer(p); err != nil {
				return fieldError(fmt.Sprintf("Player %d", i+1), err)
			}
		}
	case StepTeam:
		if len(s.Teams) == 0 {
			return ValidationError("Please add at least one team.")
		}
		for i, t := range s.Teams {
			if err := validation.ValidateTeam(t); err != nil {
				return fieldError(fmt.Sprintf("Team %d", i+1), err)
			}
		}
	case StepPlayerSelect:
		if len(s.SelectedIDs) == 0 {
			return ValidationError("Please select at least one player.")
		}
	case StepSuccess:
		return ValidationError("This registration is already complete.")
	}
	return nil
}

func fieldError(prefix string, err error) *Error {
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		return &Error{Kind: Validation, Message: fmt.Sprintf("%s: %s", prefix, ve.Message), Err: err}
	}
	return &Error{Kind: Validation, Message: prefix + ": " + err.Error(), Err: err}
}

// Advance moves forward exactly one step when the current step validates.
// Otherwise the step is unchanged and the error slot explains why.
func (c *Controller) Advance(s State) State {
	if s.Done() {
		return s
	}
	if s.InFlight {
		return c.Fail(s, ValidationError(msgInFlight))
	}
	if err := c.ValidateStep(s); err != nil {
		return c.Fail(s, err)
	}

	kind, _ := kindOf(s)
	steps := kind.Steps()
	next := s.clone()
	next.CurrentStep = steps[indexOf(steps, s.CurrentStep)+1]
	next.Error = ""
	return next
}

// GoBack moves back one step. It is a no-op on the first accessible step
// and on the success step, and is refused while a call is in flight.
func (c *Controller) GoBack(s State) State {
	if s.Done() {
		return s
	}
	if s.InFlight {
		return c.Fail(s, ValidationError(msgInFlight))
	}
	kind, err := kindOf(s)
	if err != nil {
		return s
	}

	steps := kind.Steps()
	current := indexOf(steps, s.CurrentStep)
	if current <= c.firstAccessible(s, steps) {
		return s
	}

	next := s.clone()
	next.CurrentStep = steps[current-1]
	next.Error = ""
	return next
}

// JumpTo moves directly to step if it is accessible. It never skips ahead.
func (c *Controller) JumpTo(s State, step Step) (State, bool) {
	if s.Done() || s.InFlight {
		return s, false
	}
	if !c.IsAccessible(s, step) {
		return s, false
	}
	next := s.clone()
	next.CurrentStep = step
	next.Error = ""
	return next, true
}

// Fail places the user-facing message for err in the error slot
func (c *Controller) Fail(s State, err error) State {
	if s.Done() || err == nil {
		return s
	}
	next := s.clone()
	next.Error = UserMessage(err)
	return next
}

// BeginCall marks a network call as running. It returns false when one is
// already running, which callers treat as a duplicate click.
func (c *Controller) BeginCall(s State) (State, bool) {
	if s.Done() || s.InFlight {
		return s, false
	}
	next := s.clone()
	next.InFlight = true
	next.Error = ""
	return next, true
}

// EndCall clears the in-flight flag
func (c *Controller) EndCall(s State) State {
	if !s.InFlight {
		return s
	}
	next := s.clone()
	next.InFlight = false
	return next
}

// CompletePayment records the receipt and enters the terminal step
func (c *Controller) CompletePayment(s State, receipt Receipt) State {
	if s.Done() {
		return s
	}
	kind, err := kindOf(s)
	if err != nil {
		return s
	}
	if s.CurrentStep != kind.PaymentStep() {
		return c.Fail(s, PreconditionError("Please finish the earlier steps before paying."))
	}

	next := s.clone()
	next.Receipt = &receipt
	next.CurrentStep = StepSuccess
	next.InFlight = false
	next.Error = ""
	return next
}
