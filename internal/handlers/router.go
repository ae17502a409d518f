package handlers

import (
	"net/http"
)

// NewRouter registers every API route and wraps the mux with request logging
func NewRouter(mw *Middleware, authHandler *AuthHandler, registrationHandler *RegistrationHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Accounts
	mux.HandleFunc("POST /api/accounts", mw.RateLimit(authHandler.CreateAccount))
	mux.HandleFunc("POST /api/accounts/verify", mw.RateLimit(authHandler.VerifyEmail))
	mux.HandleFunc("POST /api/login", mw.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/logout", mw.OptionalAuth(mw.CSRFProtect(authHandler.Logout)))
	mux.HandleFunc("GET /api/me", mw.RequireAuth(authHandler.Me))

	// Registration wizards
	mux.HandleFunc("GET /api/forms/{kind}", registrationHandler.GetForm)
	mux.HandleFunc("POST /api/registrations/{kind}", mw.OptionalAuth(mw.CSRFProtect(registrationHandler.Start)))

	owned := func(h http.HandlerFunc) http.HandlerFunc {
		return mw.OptionalAuth(registrationHandler.RequireOwner(h))
	}
	wizard := func(h http.HandlerFunc) http.HandlerFunc {
		return mw.OptionalAuth(mw.CSRFProtect(registrationHandler.RequireOwner(h)))
	}
	mux.HandleFunc("GET /api/registrations/{id}", owned(registrationHandler.Get))
	mux.HandleFunc("GET /api/registrations/{id}/quote", owned(registrationHandler.Quote))
	mux.HandleFunc("POST /api/registrations/{id}/advance", mw.RateLimit(wizard(registrationHandler.Advance)))
	mux.HandleFunc("POST /api/registrations/{id}/back", wizard(registrationHandler.Back))
	mux.HandleFunc("POST /api/registrations/{id}/jump/{step}", wizard(registrationHandler.Jump))
	mux.HandleFunc("POST /api/registrations/{id}/update", wizard(registrationHandler.Update))
	mux.HandleFunc("POST /api/registrations/{id}/players/save", wizard(registrationHandler.SavePlayers))
	mux.HandleFunc("POST /api/registrations/{id}/teams/save", wizard(registrationHandler.SaveTeams))
	mux.HandleFunc("POST /api/registrations/{id}/payment", wizard(registrationHandler.Pay))

	return Logging(mux)
}
