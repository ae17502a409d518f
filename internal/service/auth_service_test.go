package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"leaguereg/internal/database"
	"leaguereg/internal/repository"
	"leaguereg/internal/security"
	"leaguereg/internal/validation"
)

type AuthServiceTestSuite struct {
	suite.Suite
	ctx    context.Context
	db     *database.DB
	users  *repository.UserRepository
	tokens *security.TokenIssuer
	auth   *AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.ctx = context.Background()

	db, err := database.Initialize(filepath.Join(s.T().TempDir(), "auth.db"))
	s.Require().NoError(err)
	s.Require().NoError(db.RunMigrations("../../migrations"))
	s.db = db

	emails, err := NewEmailService("", "", "", "http://localhost:8080", false)
	s.Require().NoError(err)

	s.users = repository.NewUserRepository(db)
	s.tokens = security.NewTokenIssuer("test-secret", time.Hour)
	s.auth = NewAuthService(s.users, s.tokens, emails, time.Hour)
}

func (s *AuthServiceTestSuite) TearDownTest() {
	s.db.Close()
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) TestCreateAccount() {
	user, err := s.auth.CreateAccount(s.ctx, "  Pat@Example.com ", "correct-horse", "Pat Parent")
	s.Require().NoError(err)
	s.Equal("pat@example.com", user.Email)
	s.False(user.EmailVerified)
	s.NotEqual("correct-horse", user.PasswordHash)
	s.True(security.CheckPassword("correct-horse", user.PasswordHash))

	_, err = s.auth.CreateAccount(s.ctx, "pat@example.com", "another-pass", "Pat Again")
	s.ErrorIs(err, ErrEmailTaken)
}

func (s *AuthServiceTestSuite) TestCreateAccountValidation() {
	tests := []struct {
		name     string
		email    string
		password string
		userName string
	}{
		{name: "bad email", email: "not-an-email", password: "correct-horse", userName: "Pat"},
		{name: "short password", email: "pat@example.com", password: "short", userName: "Pat"},
		{name: "missing name", email: "pat@example.com", password: "correct-horse", userName: ""},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.auth.CreateAccount(s.ctx, tt.email, tt.password, tt.userName)
			var verr validation.ValidationError
			s.ErrorAs(err, &verr)
		})
	}
}

func (s *AuthServiceTestSuite) TestVerifyEmail() {
	user, err := s.auth.CreateAccount(s.ctx, "pat@example.com", "correct-horse", "Pat Parent")
	s.Require().NoError(err)

	token, err := s.tokens.IssueVerificationToken(user.ID, user.Email)
	s.Require().NoError(err)

	session, verified, err := s.auth.VerifyEmail(token)
	s.Require().NoError(err)
	s.Require().NotNil(session)
	s.Equal(user.ID, session.UserID)
	s.True(verified.EmailVerified)

	stored, err := s.users.GetUserByID(user.ID)
	s.Require().NoError(err)
	s.True(stored.EmailVerified)

	// a second click on the same link signs in again
	_, _, err = s.auth.VerifyEmail(token)
	s.NoError(err)
}

func (s *AuthServiceTestSuite) TestVerifyEmailRejectsForeignTokens() {
	user, err := s.auth.CreateAccount(s.ctx, "pat@example.com", "correct-horse", "Pat Parent")
	s.Require().NoError(err)

	forged, err := security.NewTokenIssuer("other-secret", time.Hour).IssueVerificationToken(user.ID, user.Email)
	s.Require().NoError(err)
	_, _, err = s.auth.VerifyEmail(forged)
	s.ErrorIs(err, security.ErrInvalidToken)

	wrongEmail, err := s.tokens.IssueVerificationToken(user.ID, "someone@example.com")
	s.Require().NoError(err)
	_, _, err = s.auth.VerifyEmail(wrongEmail)
	s.ErrorIs(err, security.ErrInvalidToken)

	unknownUser, err := s.tokens.IssueVerificationToken(user.ID+100, user.Email)
	s.Require().NoError(err)
	_, _, err = s.auth.VerifyEmail(unknownUser)
	s.ErrorIs(err, security.ErrInvalidToken)

	_, _, err = s.auth.VerifyEmail("garbage")
	s.ErrorIs(err, security.ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestLogin() {
	user, err := s.auth.CreateAccount(s.ctx, "pat@example.com", "correct-horse", "Pat Parent")
	s.Require().NoError(err)

	_, _, err = s.auth.Login("pat@example.com", "wrong-password")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, _, err = s.auth.Login("nobody@example.com", "correct-horse")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, unverified, err := s.auth.Login("pat@example.com", "correct-horse")
	s.ErrorIs(err, ErrEmailNotVerified)
	s.Require().NotNil(unverified)
	s.Equal(user.ID, unverified.ID)

	s.Require().NoError(s.users.MarkEmailVerified(user.ID))
	session, loggedIn, err := s.auth.Login("PAT@example.com", "correct-horse")
	s.Require().NoError(err)
	s.Equal(user.ID, loggedIn.ID)

	current, err := s.auth.ValidateSession(session.ID)
	s.Require().NoError(err)
	s.Equal(user.ID, current.ID)

	s.Require().NoError(s.auth.Logout(session.ID))
	_, err = s.auth.ValidateSession(session.ID)
	s.ErrorIs(err, ErrSessionNotFound)
}

func (s *AuthServiceTestSuite) TestExpiredSessions() {
	user, err := s.users.CreateUser("pat@example.com", "hash", "Pat Parent")
	s.Require().NoError(err)

	_, err = s.users.CreateSession("expired-session", user.ID, time.Now().Add(-time.Minute))
	s.Require().NoError(err)
	_, err = s.users.CreateSession("live-session", user.ID, time.Now().Add(time.Hour))
	s.Require().NoError(err)

	_, err = s.auth.ValidateSession("expired-session")
	s.ErrorIs(err, ErrSessionExpired)

	_, err = s.users.CreateSession("expired-again", user.ID, time.Now().Add(-time.Minute))
	s.Require().NoError(err)
	s.Require().NoError(s.auth.CleanupExpiredSessions())

	gone, err := s.users.GetSession("expired-again")
	s.Require().NoError(err)
	s.Nil(gone)

	live, err := s.users.GetSession("live-session")
	s.Require().NoError(err)
	s.NotNil(live)
}
