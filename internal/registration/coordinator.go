package registration

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"leaguereg/internal/models"
	"leaguereg/internal/payments"
	"leaguereg/internal/security"
	"leaguereg/internal/validation"
)

// TokenStatusOK is the status the tokenization widget reports for a usable card
const TokenStatusOK = "OK"

// Tokenization is the result handed over by the card-tokenization widget.
// Only the token and display metadata are ever seen here.
type Tokenization struct {
	Status string               `json:"status"`
	Token  string               `json:"token"`
	Card   payments.CardDetails `json:"card"`
	Errors []string             `json:"errors,omitempty"`
}

// Submission is everything needed to take one payment
type Submission struct {
	Kind         Kind
	AmountCents  int64
	Tokenization Tokenization
	Email        string
	Players      []models.Player
	Teams        []models.Team
	Target       Target
	Metadata     map[string]string
}

// Coordinator turns a priced roster and a card token into exactly one
// payment request. It never retries and never edits entity history itself.
type Coordinator struct {
	gateway  payments.Gateway
	currency string
	newKey   func() string
}

func NewCoordinator(gateway payments.Gateway, currency string) *Coordinator {
	if currency == "" {
		currency = "USD"
	}
	return &Coordinator{gateway: gateway, currency: currency, newKey: uuid.NewString}
}

func (c *Coordinator) precheck(sub Submission) error {
	if sub.Tokenization.Status != TokenStatusOK || sub.Tokenization.Token == "" {
		msg := "Your card details could not be verified. Please check them and try again."
		if len(sub.Tokenization.Errors) > 0 {
			msg = "Card error: " + strings.Join(sub.Tokenization.Errors, "; ")
		}
		return ValidationError(msg)
	}
	if err := validation.ValidateEmail(sub.Email); err != nil {
		return ValidationError("Please provide a valid email address for the receipt.")
	}

	count := len(sub.Players)
	if sub.Kind.EntityKind() == EntityTeam {
		count = len(sub.Teams)
	}
	if count == 0 {
		return ValidationError("There is nothing left to pay for.")
	}
	if sub.AmountCents <= 0 {
		return ValidationError("The amount due must be greater than zero.")
	}

	if sub.Kind.EntityKind() == EntityTeam {
		for _, t := range sub.Teams {
			if t.ID == "" {
				return PreconditionError("Please save your teams first, then return to payment.")
			}
		}
	}
	return nil
}

// entityIDs filters the roster down to ids the backend will accept. Teams
// need a 24-character hex id; players without any id are dropped and logged.
func (c *Coordinator) entityIDs(sub Submission) (players, teams []string, total int) {
	if sub.Kind.EntityKind() == EntityTeam {
		for _, t := range sub.Teams {
			if !security.IsEntityID(t.ID) {
				log.Warn().Str("team", t.Name).Str("team_id", t.ID).Msg("team ID is not a valid identifier, skipping")
				continue
			}
			teams = append(teams, t.ID)
		}
		return nil, teams, len(sub.Teams)
	}

	for _, p := range sub.Players {
		if p.ID == "" {
			log.Warn().Str("player", p.FullName).Msg("player has no ID, skipping")
			continue
		}
		players = append(players, p.ID)
	}
	return players, nil, len(sub.Players)
}

func (c *Coordinator) metadata(sub Submission) map[string]string {
	md := map[string]string{
		payments.MetaKind: sub.Kind.Name(),
		payments.MetaYear: strconv.Itoa(sub.Target.Year),
	}
	if sub.Kind.EntityKind() == EntityTeam {
		md[payments.MetaTournament] = sub.Target.Name
	} else {
		md[payments.MetaSeason] = sub.Target.Name
	}
	if sub.Target.TryoutID != "" {
		md[payments.MetaTryoutID] = sub.Target.TryoutID
	}
	for k, v := range sub.Metadata {
		if _, taken := md[k]; !taken {
			md[k] = v
		}
	}
	return md
}

// Submit validates the submission and sends it to the gateway once
func (c *Coordinator) Submit(ctx context.Context, sub Submission) (*Receipt, error) {
	if err := c.precheck(sub); err != nil {
		return nil, err
	}

	playerIDs, teamIDs, total := c.entityIDs(sub)
	kept := len(playerIDs) + len(teamIDs)
	if kept == 0 {
		return nil, ValidationError("None of the selected entries have been saved yet. Please save them first.")
	}

	// Pricing is linear in the roster size, so dropped entries come off pro rata.
	amount := sub.AmountCents
	if kept != total {
		amount = sub.AmountCents / int64(total) * int64(kept)
	}

	req := &payments.Request{
		IdempotencyKey: c.newKey(),
		Token:          sub.Tokenization.Token,
		SourceID:       sub.Tokenization.Token,
		Amount:         amount,
		Currency:       c.currency,
		Email:          strings.TrimSpace(sub.Email),
		Players:        playerIDs,
		TeamIDs:        teamIDs,
		CardDetails:    sub.Tokenization.Card,
		Metadata:       c.metadata(sub),
	}

	endpoint := sub.Kind.PaymentEndpoint()
	logger := log.With().
		Str("kind", sub.Kind.Name()).
		Str("endpoint", string(endpoint)).
		Int64("amount", amount).
		Int("entities", kept).
		Logger()

	resp, err := c.gateway.Process(ctx, endpoint, req)
	if err != nil {
		logger.Error().Err(err).Msg("Payment failed")
		return nil, mapGatewayError(err)
	}
	if !resp.Success {
		logger.Warn().Str("message", resp.Message).Msg("Payment not accepted")
		return nil, DeclinedError(resp.Message, nil)
	}

	logger.Info().Str("payment_id", resp.PaymentID).Msg("Payment processed")
	return &Receipt{
		PaymentID:          resp.PaymentID,
		ProcessorPaymentID: resp.ProcessorPaymentID,
		ReceiptURL:         resp.ReceiptURL,
		AmountCents:        amount,
		Card:               sub.Tokenization.Card,
		Players:            resp.Players,
		Teams:              resp.Teams,
	}, nil
}

func mapGatewayError(err error) error {
	var declined *payments.DeclinedError
	if errors.As(err, &declined) {
		return DeclinedError(declined.Detail, err)
	}
	var transport *payments.TransportError
	if errors.As(err, &transport) && transport.Err == nil {
		return NetworkError(transport.Message, err)
	}
	return NetworkError("", err)
}
