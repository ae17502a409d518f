package handlers

const (
	CSRFHeaderName = "X-CSRF-Token"
	maxBodyBytes   = 1 << 20

	ErrInvalidJSON           = "Invalid request body"
	ErrUnauthorized          = "Unauthorized"
	ErrForbidden             = "Invalid or missing CSRF token"
	ErrInternalServerError   = "Internal server error"
	ErrRegistrationNotFound  = "Registration not found"
	ErrRegistrationKind      = "Unknown registration kind"
	ErrRegistrationClosedMsg = "Registration is closed"
)
