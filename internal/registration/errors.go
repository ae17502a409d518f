package registration

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors. Every kind is recoverable.
type ErrorKind int

const (
	Validation ErrorKind = iota + 1
	DuplicateEntity
	Network
	PaymentDeclined
	Precondition
)

func (k ErrorKind) String() string {
	switch k {
	case Validation:
		return "validation"
	case DuplicateEntity:
		return "duplicate_entity"
	case Network:
		return "network"
	case PaymentDeclined:
		return "payment_declined"
	case Precondition:
		return "precondition"
	default:
		return "unknown"
	}
}

const (
	genericNetworkMessage  = "We couldn't reach the server. Please check your connection and try again."
	genericDeclinedMessage = "Your payment was declined. Please check your card details or try another card."
	genericFailureMessage  = "Something went wrong. Please try again."
)

// Error is the single error type produced by the engine
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error

	// ExistingID is set on DuplicateEntity errors when the backend names the
	// entity that already exists.
	ExistingID string
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(message string) *Error {
	return &Error{Kind: Validation, Message: message}
}

func PreconditionError(message string) *Error {
	return &Error{Kind: Precondition, Message: message}
}

// DuplicateEntityError reports that the entity already exists under existingID
func DuplicateEntityError(existingID string) *Error {
	return &Error{Kind: DuplicateEntity, Message: "already registered", ExistingID: existingID}
}

// NetworkError wraps a transport failure. message may be empty, in which
// case the user sees a generic connectivity message.
func NetworkError(message string, err error) *Error {
	return &Error{Kind: Network, Message: message, Err: err}
}

// DeclinedError carries the processor's decline detail
func DeclinedError(detail string, err error) *Error {
	return &Error{Kind: PaymentDeclined, Message: detail, Err: err}
}

// KindOf returns the ErrorKind of err, or 0 when err is not an engine error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err is an engine error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// UserMessage maps any error to exactly one human-readable message
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return genericFailureMessage
	}

	switch e.Kind {
	case Network:
		if e.Message != "" {
			return e.Message
		}
		return genericNetworkMessage
	case PaymentDeclined:
		if e.Message != "" {
			return "Your payment was declined: " + e.Message
		}
		return genericDeclinedMessage
	default:
		if e.Message != "" {
			return e.Message
		}
		return genericFailureMessage
	}
}
