package handlers

import (
	"errors"
	"net/http"

	"leaguereg/internal/registration"
	"leaguereg/internal/security"
	"leaguereg/internal/service"
	"leaguereg/internal/session"
)

// RegistrationHandler exposes the registration wizards over JSON
type RegistrationHandler struct {
	registrations *service.RegistrationService
	forms         *service.FormService
	csrf          *security.CSRFGenerator
}

// NewRegistrationHandler creates a new registration handler
func NewRegistrationHandler(registrations *service.RegistrationService, forms *service.FormService, csrf *security.CSRFGenerator) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		forms:         forms,
		csrf:          csrf,
	}
}

type wizardResponse struct {
	Registration registration.State `json:"registration"`
	CSRFToken    string             `json:"csrfToken,omitempty"`
}

// respondWithServiceError maps lookup and configuration failures to HTTP
// statuses. Wizard step failures never get here: they travel in the
// wizard's error slot with a 200.
func (h *RegistrationHandler) respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrWizardNotFound), errors.Is(err, service.ErrNotWizardOwner):
		respondWithError(w, r, http.StatusNotFound, ErrRegistrationNotFound, "", nil)
	case errors.Is(err, service.ErrUnknownKind):
		respondWithError(w, r, http.StatusNotFound, ErrRegistrationKind, "", nil)
	case errors.Is(err, service.ErrRegistrationClosed):
		respondWithError(w, r, http.StatusConflict, ErrRegistrationClosedMsg, "", nil)
	default:
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Registration request failed", err)
	}
}

func (h *RegistrationHandler) respond(w http.ResponseWriter, r *http.Request, st registration.State, err error) {
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, wizardResponse{Registration: st})
}

// RequireOwner hides a signed-in wizard from every session but its owner's.
// It must run after OptionalAuth.
func (h *RegistrationHandler) RequireOwner(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.registrations.CheckOwner(r.Context(), r.PathValue("id"), GetUserFromContext(r.Context())); err != nil {
			h.respondWithServiceError(w, r, err)
			return
		}
		next(w, r)
	}
}

// GetForm handles GET /api/forms/{kind}
func (h *RegistrationHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	if _, err := registration.KindByName(kind); err != nil {
		respondWithError(w, r, http.StatusNotFound, ErrRegistrationKind, "", nil)
		return
	}

	cfg, err := h.forms.GetForm(kind)
	if err != nil {
		respondWithError(w, r, http.StatusInternalServerError, ErrInternalServerError, "Failed to load form", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"form": cfg})
}

// Start handles POST /api/registrations/{kind}
func (h *RegistrationHandler) Start(w http.ResponseWriter, r *http.Request) {
	visitor := service.Visitor{User: GetUserFromContext(r.Context())}

	st, err := h.registrations.Start(r.Context(), r.PathValue("kind"), visitor)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, wizardResponse{Registration: st})
}

// Get handles GET /api/registrations/{id}
func (h *RegistrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.registrations.Get(r.Context(), r.PathValue("id"))
	h.respond(w, r, st, err)
}

// Advance handles POST /api/registrations/{id}/advance. A successful email
// verification signs the visitor in, so the response may set the session cookie.
func (h *RegistrationHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var in service.AdvanceInput
	if r.ContentLength != 0 && !decodeJSON(w, r, &in) {
		return
	}

	res, err := h.registrations.Advance(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.respondWithServiceError(w, r, err)
		return
	}

	resp := wizardResponse{Registration: res.State}
	if res.Session != nil {
		http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, res.Session.ID, res.Session.ExpiresAt))
		resp.CSRFToken, _ = h.csrf.GenerateToken(res.Session.ID)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// Back handles POST /api/registrations/{id}/back
func (h *RegistrationHandler) Back(w http.ResponseWriter, r *http.Request) {
	st, err := h.registrations.Back(r.Context(), r.PathValue("id"))
	h.respond(w, r, st, err)
}

// Jump handles POST /api/registrations/{id}/jump/{step}
func (h *RegistrationHandler) Jump(w http.ResponseWriter, r *http.Request) {
	step := registration.Step(r.PathValue("step"))
	st, err := h.registrations.Jump(r.Context(), r.PathValue("id"), step)
	h.respond(w, r, st, err)
}

// Update handles POST /api/registrations/{id}/update
func (h *RegistrationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateInput
	if !decodeJSON(w, r, &in) {
		return
	}
	st, err := h.registrations.Update(r.Context(), r.PathValue("id"), in)
	h.respond(w, r, st, err)
}

// SavePlayers handles POST /api/registrations/{id}/players/save
func (h *RegistrationHandler) SavePlayers(w http.ResponseWriter, r *http.Request) {
	st, err := h.registrations.SavePlayers(r.Context(), r.PathValue("id"))
	h.respond(w, r, st, err)
}

// SaveTeams handles POST /api/registrations/{id}/teams/save
func (h *RegistrationHandler) SaveTeams(w http.ResponseWriter, r *http.Request) {
	st, err := h.registrations.SaveTeams(r.Context(), r.PathValue("id"))
	h.respond(w, r, st, err)
}

// Quote handles GET /api/registrations/{id}/quote
func (h *RegistrationHandler) Quote(w http.ResponseWriter, r *http.Request) {
	quote, err := h.registrations.Quote(r.Context(), r.PathValue("id"))
	if err != nil {
		var rerr *registration.Error
		if errors.As(err, &rerr) {
			respondWithError(w, r, http.StatusUnprocessableEntity, registration.UserMessage(err), "", nil)
			return
		}
		h.respondWithServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"quote": quote})
}

// Pay handles POST /api/registrations/{id}/payment
func (h *RegistrationHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var in service.PayInput
	if !decodeJSON(w, r, &in) {
		return
	}
	st, err := h.registrations.Pay(r.Context(), r.PathValue("id"), in)
	h.respond(w, r, st, err)
}
