package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
	"leaguereg/internal/payments"
	"leaguereg/internal/registration"
	"leaguereg/internal/repository"
	"leaguereg/internal/security"
	"leaguereg/internal/session"
)

type RegistrationServiceTestSuite struct {
	suite.Suite
	ctx context.Context

	db     *database.DB
	mr     *miniredis.Miniredis
	client *redis.Client
	store  *session.RedisStore

	tokens *security.TokenIssuer
	users  *repository.UserRepository
	forms  *FormService
	auth   *AuthService
	svc    *RegistrationService
}

func (s *RegistrationServiceTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := database.Initialize(filepath.Join(s.T().TempDir(), "service.db"))
	s.Require().NoError(err)
	s.Require().NoError(db.RunMigrations("../../migrations"))
	s.db = db

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.store, err = session.NewRedis(&session.Config{RedisClient: s.client, TTL: time.Hour})
	s.Require().NoError(err)

	emails, err := NewEmailService("", "", "", "http://localhost:8080", false)
	s.Require().NoError(err)

	s.tokens = security.NewTokenIssuer("test-secret", time.Hour)
	s.users = repository.NewUserRepository(db)
	s.auth = NewAuthService(s.users, s.tokens, emails, time.Hour)
	s.forms = NewFormService(repository.NewFormRepository(db), 2025)
	s.svc = NewRegistrationService(db, s.store, payments.NewLedgerGateway(db), s.forms, s.auth, emails, "USD")
}

func (s *RegistrationServiceTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
	s.db.Close()
}

func TestRegistrationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceTestSuite))
}

func okCard() registration.Tokenization {
	return registration.Tokenization{
		Status: registration.TokenStatusOK,
		Token:  "cnon:card-nonce-ok",
		Card:   payments.CardDetails{Brand: "VISA", Last4: "1111"},
	}
}

func (s *RegistrationServiceTestSuite) update(id, op string, index int, field, value string) registration.State {
	st, err := s.svc.Update(s.ctx, id, UpdateInput{Op: op, Index: index, Field: field, Value: value})
	s.Require().NoError(err)
	s.Require().Empty(st.Error, "%s %s=%s", op, field, value)
	return st
}

func (s *RegistrationServiceTestSuite) fillGuardian(id string) {
	s.update(id, OpGuardianSet, 0, registration.FieldFullName, "Pat Parent")
	s.update(id, OpGuardianSet, 0, registration.FieldRelationship, "Mother")
	s.update(id, OpGuardianSet, 0, registration.FieldPhone, "(206) 555-0100")
	s.update(id, OpGuardianSet, 0, registration.FieldStreet, "1 Main St")
	s.update(id, OpGuardianSet, 0, registration.FieldCity, "Seattle")
	s.update(id, OpGuardianSet, 0, registration.FieldState, "WA")
	s.update(id, OpGuardianSet, 0, registration.FieldZip, "98101")
}

func (s *RegistrationServiceTestSuite) advance(id string, in AdvanceInput) *AdvanceResult {
	res, err := s.svc.Advance(s.ctx, id, in)
	s.Require().NoError(err)
	return res
}

// signUp walks a new visitor through account creation and verification
func (s *RegistrationServiceTestSuite) signUp(kind string) registration.State {
	st, err := s.svc.Start(s.ctx, kind, Visitor{})
	s.Require().NoError(err)
	s.Equal(registration.StepAccount, st.CurrentStep)

	res := s.advance(st.ID, AdvanceInput{Account: &AccountInput{Email: "pat@example.com", Password: "correct-horse", Name: "Pat Parent"}})
	s.Require().Empty(res.State.Error)
	s.Equal(registration.StepVerifyEmail, res.State.CurrentStep)

	user, err := s.users.GetUserByEmail("pat@example.com")
	s.Require().NoError(err)
	token, err := s.tokens.IssueVerificationToken(user.ID, user.Email)
	s.Require().NoError(err)

	res = s.advance(st.ID, AdvanceInput{Token: token})
	s.Require().Empty(res.State.Error)
	s.Require().NotNil(res.Session)
	s.Equal(registration.StepGuardian, res.State.CurrentStep)
	s.True(res.State.Authenticated)

	s.fillGuardian(st.ID)
	res = s.advance(st.ID, AdvanceInput{})
	s.Require().Empty(res.State.Error)
	s.NotEmpty(res.State.Guardian.ID)
	return res.State
}

func (s *RegistrationServiceTestSuite) TestPlayerFlowEndToEnd() {
	st := s.signUp(registration.KindPlayer)
	s.Equal(registration.StepPlayer, st.CurrentStep)
	id := st.ID

	s.update(id, OpPlayerAdd, 0, "", "")
	s.update(id, OpPlayerSet, 0, registration.FieldFullName, "Jamie Parent")
	s.update(id, OpPlayerSet, 0, registration.FieldGender, "Female")
	st = s.update(id, OpPlayerSet, 0, registration.FieldDateOfBirth, "2014-03-02")
	s.Equal(models.Grade("6"), st.Players[0].Grade)

	res := s.advance(id, AdvanceInput{})
	s.Require().Empty(res.State.Error)
	s.Equal(registration.StepReview, res.State.CurrentStep)
	s.True(res.State.PlayersSaved)
	playerID := res.State.Players[0].ID
	s.True(security.IsEntityID(playerID))

	quote, err := s.svc.Quote(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(1, quote.EligibleCount)
	s.Equal(int64(7500), quote.AmountCents)

	st, err = s.svc.Pay(s.ctx, id, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.Equal("Please accept the terms and waiver to continue.", st.Error)

	s.update(id, OpAcceptTerms, 0, "", "true")
	st, err = s.svc.Pay(s.ctx, id, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.Require().Empty(st.Error)
	s.True(st.Done())
	s.Require().NotNil(st.Receipt)
	s.Equal(int64(7500), st.Receipt.AmountCents)

	player, err := repository.NewPlayerRepository(s.db).GetPlayerByID(playerID)
	s.Require().NoError(err)
	s.Require().Len(player.Seasons, 1)
	s.Equal("Spring", player.Seasons[0].Season)
	s.Equal(2025, player.Seasons[0].Year)
	s.True(registration.IsPaid(player, st.Target))

	// a paid player is no longer eligible on the next visit
	user, err := s.users.GetUserByEmail("pat@example.com")
	s.Require().NoError(err)
	again, err := s.svc.Start(s.ctx, registration.KindPlayer, Visitor{User: user})
	s.Require().NoError(err)
	s.Equal(registration.StepPlayer, again.CurrentStep)
	s.True(again.GuardianRegistered)
}

func (s *RegistrationServiceTestSuite) TestTryoutFlowPaysOnlyUnpaidSelection() {
	st := s.signUp(registration.KindTryout)
	s.Equal(registration.StepPlayerSelect, st.CurrentStep)
	id := st.ID

	drafts := []struct{ name, dob string }{
		{name: "Jamie Parent", dob: "2013-04-01"},
		{name: "Alex Parent", dob: "2015-06-12"},
	}
	for i, d := range drafts {
		s.update(id, OpPlayerAdd, 0, "", "")
		s.update(id, OpPlayerSet, i, registration.FieldFullName, d.name)
		s.update(id, OpPlayerSet, i, registration.FieldGender, "Male")
		s.update(id, OpPlayerSet, i, registration.FieldDateOfBirth, d.dob)
	}
	st, err := s.svc.SavePlayers(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Empty(st.Error)

	for _, p := range st.Players {
		s.update(id, OpToggleSelection, 0, "", p.ID)
	}
	res := s.advance(id, AdvanceInput{})
	s.Require().Empty(res.State.Error)
	s.Equal(registration.StepPayment, res.State.CurrentStep)

	s.update(id, OpAcceptTerms, 0, "", "true")
	st, err = s.svc.Pay(s.ctx, id, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.Require().Empty(st.Error)
	s.Equal(int64(5000), st.Receipt.AmountCents)

	// the second tryout wizard sees both players as paid
	user, err := s.users.GetUserByEmail("pat@example.com")
	s.Require().NoError(err)
	again, err := s.svc.Start(s.ctx, registration.KindTryout, Visitor{User: user})
	s.Require().NoError(err)
	s.Equal(registration.StepPlayerSelect, again.CurrentStep)
	s.Len(again.Players, 2)

	for _, p := range again.Players {
		s.update(again.ID, OpToggleSelection, 0, "", p.ID)
	}
	s.advance(again.ID, AdvanceInput{})
	s.update(again.ID, OpAcceptTerms, 0, "", "true")

	quote, err := s.svc.Quote(s.ctx, again.ID)
	s.Require().NoError(err)
	s.Equal(0, quote.EligibleCount)
	s.Len(quote.PaidIDs, 2)

	st, err = s.svc.Pay(s.ctx, again.ID, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.Equal("Everyone selected is already registered and paid.", st.Error)
	s.False(st.Done())
}

func (s *RegistrationServiceTestSuite) TestTournamentWithUnsavedTeamIsRefused() {
	st := s.signUp(registration.KindTournament)
	s.Equal(registration.StepTeam, st.CurrentStep)
	id := st.ID

	s.update(id, OpTeamAdd, 0, "", "")
	s.update(id, OpTeamSet, 0, registration.FieldName, "Rockets")
	s.update(id, OpTeamSet, 0, registration.FieldGrade, "6")
	s.update(id, OpTeamSet, 0, registration.FieldSex, "Male")
	s.update(id, OpTeamSet, 0, registration.FieldLevelOfCompetition, "Gold")

	res := s.advance(id, AdvanceInput{})
	s.Require().Empty(res.State.Error)
	s.Equal(registration.StepPayment, res.State.CurrentStep)
	s.True(res.State.TeamsSaved)

	// a team drafted on the payment step has no id yet
	s.update(id, OpTeamAdd, 0, "", "")
	s.update(id, OpAcceptTerms, 0, "", "true")

	st, err := s.svc.Pay(s.ctx, id, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.Equal("Please save your teams first, then return to payment.", st.Error)
	s.Equal(registration.StepPayment, st.CurrentStep)
	s.False(st.InFlight)

	recorded, err := repository.NewPaymentRepository(s.db).ListPayments()
	s.Require().NoError(err)
	s.Empty(recorded)

	s.update(id, OpTeamRemove, 1, "", "")
	st, err = s.svc.Pay(s.ctx, id, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.Require().Empty(st.Error)
	s.Equal(int64(35000), st.Receipt.AmountCents)
	s.Require().Len(st.Receipt.Teams, 1)
	s.Equal("Summer Slam", st.Receipt.Teams[0].Tournaments[0].Tournament)
}

func (s *RegistrationServiceTestSuite) TestDeclinedCardKeepsWizardOnPayment() {
	st := s.signUp(registration.KindPlayer)
	id := st.ID

	s.update(id, OpPlayerAdd, 0, "", "")
	s.update(id, OpPlayerSet, 0, registration.FieldFullName, "Jamie Parent")
	s.update(id, OpPlayerSet, 0, registration.FieldGender, "Female")
	s.update(id, OpPlayerSet, 0, registration.FieldDateOfBirth, "2014-03-02")
	s.advance(id, AdvanceInput{})
	s.update(id, OpAcceptTerms, 0, "", "true")

	card := okCard()
	card.Token = payments.DeclineTestNonce
	st, err := s.svc.Pay(s.ctx, id, PayInput{Tokenization: card})
	s.Require().NoError(err)
	s.Equal("Your payment was declined: Card was declined.", st.Error)
	s.Equal(registration.StepReview, st.CurrentStep)
	s.False(st.InFlight)

	st, err = s.svc.Pay(s.ctx, id, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.True(st.Done())
}

// cancellingGateway drops the caller's context once the backend has answered,
// as a client disconnecting mid-payment does
type cancellingGateway struct {
	payments.Gateway
	cancel context.CancelFunc
	err    error
}

func (g *cancellingGateway) Process(ctx context.Context, endpoint payments.Endpoint, req *payments.Request) (*payments.Response, error) {
	resp, err := g.Gateway.Process(ctx, endpoint, req)
	g.cancel()
	if g.err != nil {
		return nil, g.err
	}
	return resp, err
}

// readyToPay walks a new guardian to the review step with one unpaid player
func (s *RegistrationServiceTestSuite) readyToPay() string {
	st := s.signUp(registration.KindPlayer)
	id := st.ID

	s.update(id, OpPlayerAdd, 0, "", "")
	s.update(id, OpPlayerSet, 0, registration.FieldFullName, "Jamie Parent")
	s.update(id, OpPlayerSet, 0, registration.FieldGender, "Female")
	s.update(id, OpPlayerSet, 0, registration.FieldDateOfBirth, "2014-03-02")
	s.advance(id, AdvanceInput{})
	s.update(id, OpAcceptTerms, 0, "", "true")
	return id
}

func (s *RegistrationServiceTestSuite) withGateway(gw payments.Gateway) *RegistrationService {
	emails, err := NewEmailService("", "", "", "http://localhost:8080", false)
	s.Require().NoError(err)
	return NewRegistrationService(s.db, s.store, gw, s.forms, s.auth, emails, "USD")
}

func (s *RegistrationServiceTestSuite) TestDisconnectAfterChargeCompletesWizard() {
	id := s.readyToPay()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	svc := s.withGateway(&cancellingGateway{Gateway: payments.NewLedgerGateway(s.db), cancel: cancel})

	st, err := svc.Pay(ctx, id, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.True(st.Done())

	stored, err := s.store.Load(s.ctx, id)
	s.Require().NoError(err)
	s.True(stored.Done())
	s.False(stored.InFlight)
	s.Require().NotNil(stored.Receipt)
	s.Equal(int64(7500), stored.Receipt.AmountCents)

	ok, err := s.store.Acquire(s.ctx, "wizard:"+id, time.Minute)
	s.Require().NoError(err)
	s.True(ok, "wizard lock is released")

	recorded, err := repository.NewPaymentRepository(s.db).ListPayments()
	s.Require().NoError(err)
	s.Len(recorded, 1)
}

func (s *RegistrationServiceTestSuite) TestDisconnectOnFailedChargeKeepsWizardUsable() {
	id := s.readyToPay()

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	gw := &cancellingGateway{Gateway: payments.NewLedgerGateway(s.db), cancel: cancel, err: errors.New("connection reset")}
	svc := s.withGateway(gw)

	st, err := svc.Pay(ctx, id, PayInput{Tokenization: okCard()})
	s.Require().NoError(err)
	s.NotEmpty(st.Error)

	stored, err := s.store.Load(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(registration.StepReview, stored.CurrentStep)
	s.False(stored.InFlight)

	st, err = s.svc.Back(s.ctx, id)
	s.Require().NoError(err)
	s.NotEqual(msgBusy, st.Error)
}

func (s *RegistrationServiceTestSuite) TestCheckOwner() {
	anonymous, err := s.svc.Start(s.ctx, registration.KindPlayer, Visitor{})
	s.Require().NoError(err)
	s.NoError(s.svc.CheckOwner(s.ctx, anonymous.ID, nil))

	id := s.readyToPay()
	owner, err := s.users.GetUserByEmail("pat@example.com")
	s.Require().NoError(err)

	s.NoError(s.svc.CheckOwner(s.ctx, id, owner))
	s.ErrorIs(s.svc.CheckOwner(s.ctx, id, nil), ErrNotWizardOwner)
	s.ErrorIs(s.svc.CheckOwner(s.ctx, id, &models.User{ID: owner.ID + 1}), ErrNotWizardOwner)
	s.ErrorIs(s.svc.CheckOwner(s.ctx, "0123456789abcdef01234567", owner), session.ErrWizardNotFound)
}

func (s *RegistrationServiceTestSuite) TestBusyWizardRejectsRequests() {
	st, err := s.svc.Start(s.ctx, registration.KindPlayer, Visitor{})
	s.Require().NoError(err)

	ok, err := s.store.Acquire(s.ctx, "wizard:"+st.ID, time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	res := s.advance(st.ID, AdvanceInput{Account: &AccountInput{Email: "pat@example.com", Password: "correct-horse", Name: "Pat"}})
	s.Equal(msgBusy, res.State.Error)
	s.Equal(registration.StepAccount, res.State.CurrentStep)

	user, err := s.users.GetUserByEmail("pat@example.com")
	s.Require().NoError(err)
	s.Nil(user, "no account is created while the wizard is busy")
}

func (s *RegistrationServiceTestSuite) TestAccountErrorsStayOnAccountStep() {
	st, err := s.svc.Start(s.ctx, registration.KindPlayer, Visitor{})
	s.Require().NoError(err)

	res := s.advance(st.ID, AdvanceInput{Account: &AccountInput{Email: "pat@example.com", Password: "short", Name: "Pat"}})
	s.Equal(registration.StepAccount, res.State.CurrentStep)
	s.Contains(res.State.Error, "8 characters")

	_, err = s.auth.CreateAccount(s.ctx, "taken@example.com", "correct-horse", "Taken")
	s.Require().NoError(err)
	res = s.advance(st.ID, AdvanceInput{Account: &AccountInput{Email: "taken@example.com", Password: "correct-horse", Name: "Pat"}})
	s.Contains(res.State.Error, "already exists")

	res = s.advance(st.ID, AdvanceInput{Account: &AccountInput{Email: "pat@example.com", Password: "correct-horse", Name: "Pat"}})
	s.Equal(registration.StepVerifyEmail, res.State.CurrentStep)

	res = s.advance(st.ID, AdvanceInput{Token: "not-a-token"})
	s.Equal(registration.StepVerifyEmail, res.State.CurrentStep)
	s.Equal("This verification link is invalid or has expired.", res.State.Error)
	s.Nil(res.Session)
}

func (s *RegistrationServiceTestSuite) TestNavigation() {
	st := s.signUp(registration.KindTraining)
	id := st.ID

	back, err := s.svc.Back(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(registration.StepGuardian, back.CurrentStep)

	back, err = s.svc.Back(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(registration.StepGuardian, back.CurrentStep)

	jumped, err := s.svc.Jump(s.ctx, id, registration.StepPayment)
	s.Require().NoError(err)
	s.Equal(registration.StepGuardian, jumped.CurrentStep)
	s.Equal("That step is not available yet.", jumped.Error)

	_, err = s.svc.Get(s.ctx, "missing")
	s.ErrorIs(err, session.ErrWizardNotFound)
}

func (s *RegistrationServiceTestSuite) TestSelectPackage() {
	st := s.signUp(registration.KindTraining)

	st = s.update(st.ID, OpSelectPackage, 0, "", "weekly")
	s.Require().NotNil(st.Package)
	s.Equal(models.Dollars("40"), st.Package.Price)

	st, err := s.svc.Update(s.ctx, st.ID, UpdateInput{Op: OpSelectPackage, Value: "platinum"})
	s.Require().NoError(err)
	s.Equal("That package is no longer offered.", st.Error)
}

func (s *RegistrationServiceTestSuite) TestStartErrors() {
	_, err := s.svc.Start(s.ctx, "camp", Visitor{})
	s.ErrorIs(err, ErrUnknownKind)

	cfg, err := s.forms.GetForm(registration.KindPlayer)
	s.Require().NoError(err)
	cfg.Active = false
	s.Require().NoError(s.forms.SaveForm(cfg))

	_, err = s.svc.Start(s.ctx, registration.KindPlayer, Visitor{})
	s.ErrorIs(err, ErrRegistrationClosed)
}
