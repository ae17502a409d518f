package registration

// Step is one screen of a registration wizard
type Step string

const (
	StepAccount      Step = "account"
	StepVerifyEmail  Step = "verifyEmail"
	StepGuardian     Step = "guardian"
	StepPlayer       Step = "player"
	StepReview       Step = "review"
	StepTeam         Step = "team"
	StepPlayerSelect Step = "playerSelect"
	StepPayment      Step = "payment"
	StepSuccess      Step = "success"
)

var (
	playerSteps     = []Step{StepAccount, StepVerifyEmail, StepGuardian, StepPlayer, StepReview, StepSuccess}
	tournamentSteps = []Step{StepAccount, StepVerifyEmail, StepGuardian, StepTeam, StepPayment, StepSuccess}
	selectionSteps  = []Step{StepAccount, StepVerifyEmail, StepGuardian, StepPlayerSelect, StepPayment, StepSuccess}
)

// preAuth reports whether a step belongs to account creation
func (s Step) preAuth() bool {
	return s == StepAccount || s == StepVerifyEmail
}

func indexOf(steps []Step, step Step) int {
	for i, s := range steps {
		if s == step {
			return i
		}
	}
	return -1
}
