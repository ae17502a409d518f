package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"leaguereg/internal/models"
	"leaguereg/internal/security"
	"leaguereg/internal/service"
	"leaguereg/internal/validation"
)

// AuthHandler handles account and session requests
type AuthHandler struct {
	authService *service.AuthService
	csrf        *security.CSRFGenerator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, csrf *security.CSRFGenerator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		csrf:        csrf,
	}
}

type userView struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"emailVerified"`
}

func newUserView(u *models.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, EmailVerified: u.EmailVerified}
}

type sessionResponse struct {
	User      userView `json:"user"`
	CSRFToken string   `json:"csrfToken,omitempty"`
}

// startSession sets the session cookie and returns the CSRF token bound to it
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, session *models.Session) string {
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	token, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to generate CSRF token")
		return ""
	}
	return token
}

// CreateAccount handles POST /api/accounts
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var in service.AccountInput
	if !decodeJSON(w, r, &in) {
		return
	}

	user, err := h.authService.CreateAccount(r.Context(), in.Email, in.Password, in.Name)
	if err != nil {
		var ve validation.ValidationError
		switch {
		case errors.As(err, &ve):
			respondWithError(w, r, http.StatusBadRequest, ve.Message, "", nil)
		case errors.Is(err, service.ErrEmailTaken):
			respondWithError(w, r, http.StatusConflict, "An account with this email already exists.", "", nil)
		default:
			respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Failed to create account", err)
		}
		return
	}

	writeJSON(w, r, http.StatusCreated, sessionResponse{User: newUserView(user)})
}

// VerifyEmail handles POST /api/accounts/verify
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	session, user, err := h.authService.VerifyEmail(in.Token)
	if err != nil {
		if errors.Is(err, security.ErrInvalidToken) {
			respondWithError(w, r, http.StatusBadRequest, "This verification link is invalid or has expired.", "", nil)
			return
		}
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Failed to verify email", err)
		return
	}

	token := h.startSession(w, r, session)
	writeJSON(w, r, http.StatusOK, sessionResponse{User: newUserView(user), CSRFToken: token})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}

	session, user, err := h.authService.Login(in.Email, in.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, r, http.StatusUnauthorized, "Invalid email or password", "", nil)
		return
	case errors.Is(err, service.ErrEmailNotVerified):
		if sendErr := h.authService.SendVerification(r.Context(), user); sendErr != nil {
			log.Ctx(r.Context()).Warn().Err(sendErr).Msg("failed to resend verification email")
		}
		respondWithError(w, r, http.StatusForbidden, "Please verify your email address. We sent you a new link.", "", nil)
		return
	case err != nil:
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Failed to log in", err)
		return
	}

	token := h.startSession(w, r, session)
	writeJSON(w, r, http.StatusOK, sessionResponse{User: newUserView(user), CSRFToken: token})
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := GetSessionIDFromContext(r.Context()); sessionID != "" {
		if err := h.authService.Logout(sessionID); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to delete session")
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, r, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	token, _ := h.csrf.GenerateToken(GetSessionIDFromContext(r.Context()))
	writeJSON(w, r, http.StatusOK, sessionResponse{User: newUserView(user), CSRFToken: token})
}
