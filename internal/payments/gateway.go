package payments

//go:generate mockgen -package=mocks -destination=mocks/mock_gateway.go leaguereg/internal/payments Gateway

import (
	"context"
	"fmt"

	"leaguereg/internal/models"
)

// Endpoint selects the backend operation a payment is submitted to
type Endpoint string

const (
	EndpointProcess         Endpoint = "process"
	EndpointTryout          Endpoint = "tryout"
	EndpointTournamentTeams Endpoint = "tournament-teams"
)

// Metadata keys understood by the gateways
const (
	MetaKind       = "kind"
	MetaSeason     = "season"
	MetaYear       = "year"
	MetaTryoutID   = "tryoutId"
	MetaTournament = "tournament"
	MetaPackageID  = "packageId"
)

// CardDetails is display-only card metadata returned by the tokenization widget
type CardDetails struct {
	Brand    string `json:"brand,omitempty"`
	Last4    string `json:"last4,omitempty"`
	ExpMonth int    `json:"expMonth,omitempty"`
	ExpYear  int    `json:"expYear,omitempty"`
}

// Request is one payment submission
type Request struct {
	IdempotencyKey string            `json:"idempotencyKey"`
	Token          string            `json:"token"`
	SourceID       string            `json:"sourceId"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Email          string            `json:"email"`
	Players        []string          `json:"players,omitempty"`
	TeamIDs        []string          `json:"teamIds,omitempty"`
	CardDetails    CardDetails       `json:"cardDetails"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Response is the backend's answer to a payment submission
type Response struct {
	Success            bool            `json:"success"`
	PaymentID          string          `json:"paymentId"`
	ProcessorPaymentID string          `json:"squarePaymentId,omitempty"`
	ReceiptURL         string          `json:"receiptUrl,omitempty"`
	Players            []models.Player `json:"players,omitempty"`
	Teams              []models.Team   `json:"teams,omitempty"`
	Message            string          `json:"message,omitempty"`
}

// Gateway submits payments to a payment-processing backend
type Gateway interface {
	Name() string
	Process(ctx context.Context, endpoint Endpoint, req *Request) (*Response, error)
}

// DeclinedError is a processor decline; Detail is safe to show to the payer
type DeclinedError struct {
	Code   string
	Detail string
}

func (e *DeclinedError) Error() string {
	if e.Code == "" {
		return "payment declined: " + e.Detail
	}
	return fmt.Sprintf("payment declined (%s): %s", e.Code, e.Detail)
}

// TransportError is any failure to get an answer from the backend
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("payment backend unreachable: %v", e.Err)
	case e.Status != 0:
		return fmt.Sprintf("payment backend returned %d: %s", e.Status, e.Message)
	default:
		return "payment backend error: " + e.Message
	}
}

func (e *TransportError) Unwrap() error { return e.Err }
