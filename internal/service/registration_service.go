package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
	"leaguereg/internal/payments"
	"leaguereg/internal/registration"
	"leaguereg/internal/repository"
	"leaguereg/internal/security"
	"leaguereg/internal/validation"
)

var (
	ErrUnknownKind        = errors.New("unknown registration kind")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrNotWizardOwner     = errors.New("registration belongs to another account")
)

const (
	wizardLockTTL = 2 * time.Minute
	msgBusy       = "Please wait for the current request to finish."
)

// WizardStore keeps wizard state between requests and provides the
// per-wizard lock every mutating request runs under
type WizardStore interface {
	Save(ctx context.Context, s registration.State) error
	Load(ctx context.Context, id string) (registration.State, error)
	Delete(ctx context.Context, id string) error
	registration.Locker
}

// Visitor is what the HTTP layer knows about the caller
type Visitor struct {
	User         *models.User
	PendingEmail string
}

// AccountInput creates the account on the account step
type AccountInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AdvanceInput carries what the current step needs to be left: the new
// account on the account step, the emailed token on the verification step
type AdvanceInput struct {
	Account *AccountInput `json:"account,omitempty"`
	Token   string        `json:"token,omitempty"`
}

// AdvanceResult is the advanced wizard plus the session created when an
// email verification signed the visitor in
type AdvanceResult struct {
	State   registration.State
	Session *models.Session
}

// Draft edit operations accepted by Update
const (
	OpGuardianSet      = "guardian.set"
	OpGuardianAdd      = "guardian.add"
	OpGuardianSetExtra = "guardian.setExtra"
	OpGuardianRemove   = "guardian.remove"
	OpPlayerAdd        = "player.add"
	OpPlayerSet        = "player.set"
	OpPlayerRemove     = "player.remove"
	OpTeamAdd          = "team.add"
	OpTeamSet          = "team.set"
	OpTeamRemove       = "team.remove"
	OpToggleSelection  = "select"
	OpSelectPackage    = "package"
	OpAcceptTerms      = "terms"
)

// UpdateInput is one draft edit
type UpdateInput struct {
	Op    string `json:"op"`
	Index int    `json:"index"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// PayInput is the card token and receipt address submitted on the payment step
type PayInput struct {
	Tokenization registration.Tokenization `json:"tokenization"`
	Email        string                    `json:"email"`
}

// RegistrationService runs registration wizards: it loads and stores their
// state, drives the controller and performs the network side effects each
// step needs
type RegistrationService struct {
	db           *database.DB
	store        WizardStore
	forms        *FormService
	auth         *AuthService
	emailService *EmailService

	guardianRepo *repository.GuardianRepository
	playerRepo   *repository.PlayerRepository
	teamRepo     *repository.TeamRepository

	ctrl        *registration.Controller
	saver       *registration.DraftSaver
	coordinator *registration.Coordinator
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(db *database.DB, store WizardStore, gateway payments.Gateway, forms *FormService, auth *AuthService, emailService *EmailService, currency string) *RegistrationService {
	playerRepo := repository.NewPlayerRepository(db)
	teamRepo := repository.NewTeamRepository(db)

	return &RegistrationService{
		db:           db,
		store:        store,
		forms:        forms,
		auth:         auth,
		emailService: emailService,
		guardianRepo: repository.NewGuardianRepository(db),
		playerRepo:   playerRepo,
		teamRepo:     teamRepo,
		ctrl:         registration.NewController(),
		saver:        registration.NewDraftSaver(newRepositoryStore(playerRepo, teamRepo), store),
		coordinator:  registration.NewCoordinator(gateway, currency),
	}
}

// Start opens a new wizard of the given kind for the visitor
func (s *RegistrationService) Start(ctx context.Context, kindName string, v Visitor) (registration.State, error) {
	kind, err := registration.KindByName(kindName)
	if err != nil {
		return registration.State{}, fmt.Errorf("%w: %s", ErrUnknownKind, kindName)
	}

	cfg, err := s.forms.GetForm(kind.Name())
	if err != nil {
		return registration.State{}, err
	}
	if !cfg.Active {
		return registration.State{}, ErrRegistrationClosed
	}

	sc := registration.SessionContext{PendingEmail: v.PendingEmail}
	if v.User != nil {
		sc.UserID = v.User.ID
		sc.Email = v.User.Email
		sc.Authenticated = v.User.EmailVerified
		if !v.User.EmailVerified {
			sc.PendingEmail = v.User.Email
		} else {
			guardian, err := s.guardianRepo.GetPrimaryGuardianByUserID(v.User.ID)
			if err != nil {
				return registration.State{}, err
			}
			sc.Guardian = guardian
		}
	}

	st := s.ctrl.Start(kind, sc)
	st.ID = security.NewEntityID()
	st.Target = kind.Target(cfg)

	if st.GuardianRegistered {
		additional, err := s.guardianRepo.ListAdditionalGuardians(st.Guardian.ID)
		if err != nil {
			return registration.State{}, err
		}
		st = registration.MarkGuardianRegistered(st, st.Guardian, additional)
		if st, err = s.loadRoster(st, kind); err != nil {
			return registration.State{}, err
		}
	}

	if err := s.store.Save(ctx, st); err != nil {
		return registration.State{}, err
	}

	log.Ctx(ctx).Info().
		Str("wizard_id", st.ID).
		Str("kind", st.Kind).
		Str("step", string(st.CurrentStep)).
		Msg("Registration started")
	return st, nil
}

// loadRoster fills a returning guardian's saved players or teams into the
// wizard of a flow that pays for existing entities
func (s *RegistrationService) loadRoster(st registration.State, kind registration.Kind) (registration.State, error) {
	switch kind.SelectionStep() {
	case registration.StepPlayerSelect:
		players, err := s.playerRepo.ListPlayersByParent(st.Guardian.ID)
		if err != nil {
			return st, err
		}
		st.Players = players
		st.PlayersSaved = true
	case registration.StepTeam:
		teams, err := s.teamRepo.ListTeamsByGuardian(st.Guardian.ID)
		if err != nil {
			return st, err
		}
		st.Teams = teams
		st.TeamsSaved = true
	}
	return st, nil
}

// Get returns the stored wizard
func (s *RegistrationService) Get(ctx context.Context, id string) (registration.State, error) {
	return s.store.Load(ctx, id)
}

// CheckOwner returns ErrNotWizardOwner when the wizard is signed in to an
// account other than user's. Wizards not yet tied to an account are open
// to whoever holds their id.
func (s *RegistrationService) CheckOwner(ctx context.Context, id string, user *models.User) error {
	st, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	if st.UserID == 0 {
		return nil
	}
	if user == nil || user.ID != st.UserID {
		return ErrNotWizardOwner
	}
	return nil
}

// withWizard runs fn on the stored wizard under its lock and stores the
// result. An error from fn lands in the wizard's error slot. When another
// request holds the lock the wizard is returned unchanged with a busy message.
func (s *RegistrationService) withWizard(ctx context.Context, id string, fn func(registration.State) (registration.State, error)) (registration.State, error) {
	lockKey := "wizard:" + id
	acquired, err := s.store.Acquire(ctx, lockKey, wizardLockTTL)
	if err != nil {
		return registration.State{}, err
	}
	if acquired {
		defer func() {
			if err := s.store.Release(context.WithoutCancel(ctx), lockKey); err != nil {
				log.Ctx(ctx).Warn().Err(err).Str("wizard_id", id).Msg("failed to release wizard lock")
			}
		}()
	}

	st, err := s.store.Load(ctx, id)
	if err != nil {
		return registration.State{}, err
	}
	if !acquired {
		return s.ctrl.Fail(st, registration.ValidationError(msgBusy)), nil
	}

	next, err := fn(st)
	if err != nil {
		log.Ctx(ctx).Debug().Err(err).Str("wizard_id", id).Str("kind", registration.KindOf(err).String()).Msg("wizard operation failed")
		next = s.ctrl.Fail(next, err)
	}

	// fn may have charged a card, so the result is stored even if the client has gone
	if err := s.store.Save(context.WithoutCancel(ctx), next); err != nil {
		return registration.State{}, err
	}
	return next, nil
}

// Advance performs the side effect of the current step, if any, and moves
// the wizard one step forward when the step validates
func (s *RegistrationService) Advance(ctx context.Context, id string, in AdvanceInput) (*AdvanceResult, error) {
	var session *models.Session

	st, err := s.withWizard(ctx, id, func(st registration.State) (registration.State, error) {
		if st.Done() || st.InFlight {
			return s.ctrl.Advance(st), nil
		}

		var err error
		switch st.CurrentStep {
		case registration.StepAccount:
			if in.Account != nil {
				if st, err = s.createAccount(ctx, st, *in.Account); err != nil {
					return st, err
				}
			}
		case registration.StepVerifyEmail:
			if in.Token != "" {
				if st, session, err = s.verifyEmail(st, in.Token); err != nil {
					return st, err
				}
			}
		case registration.StepGuardian:
			if err := s.ctrl.ValidateStep(st); err != nil {
				return st, err
			}
			if st, err = s.registerGuardian(st); err != nil {
				return st, err
			}
		case registration.StepPlayer:
			if err := s.ctrl.ValidateStep(st); err != nil {
				return st, err
			}
			if st, err = s.saver.SavePlayers(ctx, st); err != nil {
				return st, err
			}
		case registration.StepTeam:
			if err := s.ctrl.ValidateStep(st); err != nil {
				return st, err
			}
			if st, err = s.saver.SaveTeams(ctx, st); err != nil {
				return st, err
			}
		}
		return s.ctrl.Advance(st), nil
	})
	if err != nil {
		return nil, err
	}
	return &AdvanceResult{State: st, Session: session}, nil
}

func (s *RegistrationService) createAccount(ctx context.Context, st registration.State, in AccountInput) (registration.State, error) {
	user, err := s.auth.CreateAccount(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		var ve validation.ValidationError
		switch {
		case errors.Is(err, ErrEmailTaken):
			return st, &registration.Error{Kind: registration.Validation, Message: "An account with this email already exists. Please sign in instead.", Err: err}
		case errors.As(err, &ve):
			return st, &registration.Error{Kind: registration.Validation, Message: ve.Message, Err: err}
		default:
			return st, registration.NetworkError("", err)
		}
	}
	return registration.MarkAccountCreated(st, user.Email), nil
}

func (s *RegistrationService) verifyEmail(st registration.State, token string) (registration.State, *models.Session, error) {
	session, user, err := s.auth.VerifyEmail(token)
	if err != nil {
		if errors.Is(err, security.ErrInvalidToken) {
			return st, nil, &registration.Error{Kind: registration.Validation, Message: "This verification link is invalid or has expired.", Err: err}
		}
		return st, nil, registration.NetworkError("", err)
	}
	if st.PendingEmail != "" && st.PendingEmail != user.Email {
		return st, nil, registration.ValidationError("This verification link belongs to a different account.")
	}

	st = registration.MarkEmailVerified(st, user.ID)

	guardian, err := s.guardianRepo.GetPrimaryGuardianByUserID(user.ID)
	if err != nil {
		return st, session, registration.NetworkError("", err)
	}
	if guardian != nil {
		st.Guardian = *guardian
	}
	return st, session, nil
}

// registerGuardian persists the primary and additional guardians in one
// transaction. Addresses of guardians sharing the primary's are copied here.
func (s *RegistrationService) registerGuardian(st registration.State) (registration.State, error) {
	primary := st.Guardian
	primary.IsPrimary = true
	primary.SharesPrimaryAddress = false
	primary.UserID = st.UserID
	if primary.Email == "" {
		primary.Email = st.PendingEmail
	}
	additional := registration.ResolveGuardianAddresses(primary, st.AdditionalGuardians)

	err := s.db.InTx(func(tx *database.Tx) error {
		repo := repository.NewGuardianRepository(tx)

		var err error
		if primary.ID == "" {
			err = repo.CreateGuardian(&primary, "")
		} else {
			err = repo.UpdateGuardian(&primary)
		}
		if err != nil {
			return err
		}

		for i := range additional {
			g := &additional[i]
			g.IsPrimary = false
			if g.ID == "" {
				err = repo.CreateGuardian(g, primary.ID)
			} else {
				err = repo.UpdateGuardian(g)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return st, registration.NetworkError("", err)
	}

	if w := primary.CoachWarning(); w != "" {
		log.Info().Str("guardian_id", primary.ID).Msg(w)
	}
	return registration.MarkGuardianRegistered(st, primary, additional), nil
}

// Back moves the wizard one step back
func (s *RegistrationService) Back(ctx context.Context, id string) (registration.State, error) {
	return s.withWizard(ctx, id, func(st registration.State) (registration.State, error) {
		return s.ctrl.GoBack(st), nil
	})
}

// Jump moves the wizard to an earlier accessible step
func (s *RegistrationService) Jump(ctx context.Context, id string, step registration.Step) (registration.State, error) {
	return s.withWizard(ctx, id, func(st registration.State) (registration.State, error) {
		next, ok := s.ctrl.JumpTo(st, step)
		if !ok {
			return st, registration.ValidationError("That step is not available yet.")
		}
		return next, nil
	})
}

// Update applies one draft edit
func (s *RegistrationService) Update(ctx context.Context, id string, in UpdateInput) (registration.State, error) {
	return s.withWizard(ctx, id, func(st registration.State) (registration.State, error) {
		if st.InFlight {
			return st, registration.ValidationError(msgBusy)
		}

		switch in.Op {
		case OpGuardianSet:
			return registration.UpdateGuardianField(st, in.Field, in.Value)
		case OpGuardianAdd:
			return registration.AddGuardian(st), nil
		case OpGuardianSetExtra:
			return registration.UpdateAdditionalGuardianField(st, in.Index, in.Field, in.Value)
		case OpGuardianRemove:
			return registration.RemoveGuardian(st, in.Index)
		case OpPlayerAdd:
			return registration.AddPlayer(st), nil
		case OpPlayerSet:
			return registration.UpdatePlayerField(st, in.Index, in.Field, in.Value)
		case OpPlayerRemove:
			return registration.RemovePlayer(st, in.Index)
		case OpTeamAdd:
			return registration.AddTeam(st), nil
		case OpTeamSet:
			return registration.UpdateTeamField(st, in.Index, in.Field, in.Value)
		case OpTeamRemove:
			return registration.RemoveTeam(st, in.Index)
		case OpToggleSelection:
			return registration.ToggleSelection(st, in.Value)
		case OpSelectPackage:
			return s.selectPackage(st, in.Value)
		case OpAcceptTerms:
			accepted, err := strconv.ParseBool(in.Value)
			if err != nil {
				return st, registration.ValidationError("terms must be true or false.")
			}
			return registration.AcceptTerms(st, accepted), nil
		default:
			return st, registration.ValidationError(fmt.Sprintf("Unknown update %q.", in.Op))
		}
	})
}

func (s *RegistrationService) selectPackage(st registration.State, packageID string) (registration.State, error) {
	if packageID == "" {
		return registration.SelectPackage(st, nil), nil
	}
	cfg, err := s.forms.GetForm(st.Kind)
	if err != nil {
		return st, registration.NetworkError("", err)
	}
	pkg := cfg.Package(packageID)
	if pkg == nil {
		return st, registration.ValidationError("That package is no longer offered.")
	}
	return registration.SelectPackage(st, pkg), nil
}

// SavePlayers persists the wizard's draft players
func (s *RegistrationService) SavePlayers(ctx context.Context, id string) (registration.State, error) {
	return s.withWizard(ctx, id, func(st registration.State) (registration.State, error) {
		return s.saver.SavePlayers(ctx, st)
	})
}

// SaveTeams persists the wizard's draft teams
func (s *RegistrationService) SaveTeams(ctx context.Context, id string) (registration.State, error) {
	return s.withWizard(ctx, id, func(st registration.State) (registration.State, error) {
		return s.saver.SaveTeams(ctx, st)
	})
}

// Quote resolves eligibility and prices the wizard's roster
func (s *RegistrationService) Quote(ctx context.Context, id string) (registration.Quote, error) {
	st, err := s.store.Load(ctx, id)
	if err != nil {
		return registration.Quote{}, err
	}
	cfg, err := s.forms.GetForm(st.Kind)
	if err != nil {
		return registration.Quote{}, err
	}
	return registration.BuildQuote(st, cfg)
}

// Pay charges the card for every entry that still owes and completes the wizard
func (s *RegistrationService) Pay(ctx context.Context, id string, in PayInput) (registration.State, error) {
	return s.withWizard(ctx, id, func(st registration.State) (registration.State, error) {
		if st.Done() {
			return st, nil
		}
		kind, err := registration.KindByName(st.Kind)
		if err != nil {
			return st, registration.PreconditionError("Unknown registration type.")
		}
		if st.CurrentStep != kind.PaymentStep() {
			return st, registration.PreconditionError("Please finish the earlier steps before paying.")
		}
		if !st.TermsAccepted {
			return st, registration.ValidationError("Please accept the terms and waiver to continue.")
		}

		cfg, err := s.forms.GetForm(st.Kind)
		if err != nil {
			return st, registration.NetworkError("", err)
		}

		players, teams, err := registration.Unpaid(st)
		if err != nil {
			return st, err
		}
		count := len(players) + len(teams)
		if count == 0 {
			return st, registration.ValidationError("Everyone selected is already registered and paid.")
		}
		amount, err := registration.ComputeAmount(count, cfg, kind, st.Package)
		if err != nil {
			return st, err
		}

		email := in.Email
		if email == "" {
			email = st.Guardian.Email
		}
		if email == "" {
			email = st.PendingEmail
		}

		busy, ok := s.ctrl.BeginCall(st)
		if !ok {
			return st, registration.ValidationError(msgBusy)
		}

		// Once the call starts it runs to its response, even if the client disconnects
		ctx := context.WithoutCancel(ctx)
		if err := s.store.Save(ctx, busy); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("wizard_id", id).Msg("failed to store in-flight wizard")
		}

		sub := registration.Submission{
			Kind:         kind,
			AmountCents:  amount,
			Tokenization: in.Tokenization,
			Email:        email,
			Players:      players,
			Teams:        teams,
			Target:       st.Target,
		}
		if st.Package != nil {
			sub.Metadata = map[string]string{payments.MetaPackageID: st.Package.ID}
		}

		receipt, err := s.coordinator.Submit(ctx, sub)
		if err != nil {
			return s.ctrl.EndCall(busy), err
		}

		done := s.ctrl.CompletePayment(busy, *receipt)
		s.sendReceipt(ctx, email, done.Kind, sub, receipt)
		return done, nil
	})
}

func (s *RegistrationService) sendReceipt(ctx context.Context, email, kind string, sub registration.Submission, receipt *registration.Receipt) {
	if s.emailService == nil {
		return
	}

	var names []string
	for _, p := range sub.Players {
		names = append(names, p.FullName)
	}
	for _, t := range sub.Teams {
		names = append(names, t.Name)
	}

	err := s.emailService.SendPaymentReceipt(ctx, email, ReceiptEmail{
		Kind:        kind,
		PaymentID:   receipt.PaymentID,
		AmountCents: receipt.AmountCents,
		CardBrand:   receipt.Card.Brand,
		CardLast4:   receipt.Card.Last4,
		ReceiptURL:  receipt.ReceiptURL,
		Names:       names,
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("payment_id", receipt.PaymentID).Msg("failed to send payment receipt")
	}
}
