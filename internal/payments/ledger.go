package payments

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
	"leaguereg/internal/repository"
	"leaguereg/internal/security"
)

// DeclineTestNonce is the sandbox card nonce that the ledger always declines
const DeclineTestNonce = "cnon:card-declined"

// LedgerGateway processes payments against the local database: it records
// the payment and appends a paid history entry to every covered entity in
// one transaction. It stands in for a card processor in development.
type LedgerGateway struct {
	db *database.DB
}

func NewLedgerGateway(db *database.DB) *LedgerGateway {
	return &LedgerGateway{db: db}
}

func (g *LedgerGateway) Name() string { return "ledger" }

func (g *LedgerGateway) Process(ctx context.Context, endpoint Endpoint, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Err: err}
	}
	if req.Token == DeclineTestNonce {
		return nil, &DeclinedError{Code: "CARD_DECLINED", Detail: "Card was declined."}
	}
	if req.Amount <= 0 {
		return nil, &TransportError{Status: 400, Message: "amount must be positive"}
	}

	year, _ := strconv.Atoi(req.Metadata[MetaYear])

	tx, err := g.db.Begin()
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer tx.Rollback()

	payment := &models.Payment{
		ProcessorPaymentID: "ledger-" + security.NewEntityID(),
		Kind:               req.Metadata[MetaKind],
		AmountCents:        req.Amount,
		Currency:           req.Currency,
		Email:              req.Email,
		CardBrand:          req.CardDetails.Brand,
		CardLast4:          req.CardDetails.Last4,
	}
	if err := repository.NewPaymentRepository(tx).CreatePayment(payment); err != nil {
		return nil, &TransportError{Err: err}
	}

	resp := &Response{
		Success:            true,
		PaymentID:          payment.ID,
		ProcessorPaymentID: payment.ProcessorPaymentID,
	}

	switch endpoint {
	case EndpointTournamentTeams:
		resp.Teams, err = g.recordTeams(tx, req, payment, year)
	case EndpointProcess, EndpointTryout:
		resp.Players, err = g.recordPlayers(tx, req, payment, year)
	default:
		err = &TransportError{Status: 404, Message: fmt.Sprintf("unknown endpoint %q", endpoint)}
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, &TransportError{Err: err}
	}

	log.Info().
		Str("payment_id", payment.ID).
		Str("endpoint", string(endpoint)).
		Int64("amount", req.Amount).
		Int("players", len(resp.Players)).
		Int("teams", len(resp.Teams)).
		Msg("Ledger payment recorded")

	return resp, nil
}

// share splits the amount evenly; the first entity absorbs the remainder
func share(total int64, n, i int) int64 {
	each := total / int64(n)
	if i == 0 {
		return each + total%int64(n)
	}
	return each
}

func (g *LedgerGateway) recordPlayers(tx *database.Tx, req *Request, payment *models.Payment, year int) ([]models.Player, error) {
	if len(req.Players) == 0 {
		return nil, &TransportError{Status: 400, Message: "no players in request"}
	}

	players := repository.NewPlayerRepository(tx)
	updated := make([]models.Player, 0, len(req.Players))
	for i, id := range req.Players {
		p, err := players.GetPlayerByID(id)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		if p == nil {
			return nil, &TransportError{Status: 404, Message: fmt.Sprintf("player %s not found", id)}
		}

		entry := models.SeasonRegistration{
			Season:          req.Metadata[MetaSeason],
			Year:            year,
			TryoutID:        req.Metadata[MetaTryoutID],
			PaymentStatus:   models.PaymentStatusPaid,
			PaymentComplete: true,
			AmountPaid:      share(req.Amount, len(req.Players), i),
			PaymentID:       payment.ID,
			CardBrand:       payment.CardBrand,
			CardLast4:       payment.CardLast4,
		}
		if err := players.AddSeasonRegistration(id, entry); err != nil {
			return nil, &TransportError{Err: err}
		}
		if err := players.SetPaymentStatus(id, models.PaymentStatusPaid, true); err != nil {
			return nil, &TransportError{Err: err}
		}

		if p, err = players.GetPlayerByID(id); err != nil {
			return nil, &TransportError{Err: err}
		}
		updated = append(updated, *p)
	}
	return updated, nil
}

func (g *LedgerGateway) recordTeams(tx *database.Tx, req *Request, payment *models.Payment, year int) ([]models.Team, error) {
	if len(req.TeamIDs) == 0 {
		return nil, &TransportError{Status: 400, Message: "no teams in request"}
	}

	teams := repository.NewTeamRepository(tx)
	updated := make([]models.Team, 0, len(req.TeamIDs))
	for i, id := range req.TeamIDs {
		t, err := teams.GetTeamByID(id)
		if err != nil {
			return nil, &TransportError{Err: err}
		}
		if t == nil {
			return nil, &TransportError{Status: 404, Message: fmt.Sprintf("team %s not found", id)}
		}

		entry := models.TournamentRegistration{
			Tournament:      req.Metadata[MetaTournament],
			Year:            year,
			PaymentStatus:   models.PaymentStatusPaid,
			PaymentComplete: true,
			AmountPaid:      share(req.Amount, len(req.TeamIDs), i),
			PaymentID:       payment.ID,
			CardBrand:       payment.CardBrand,
			CardLast4:       payment.CardLast4,
		}
		if err := teams.AddTournamentRegistration(id, entry); err != nil {
			return nil, &TransportError{Err: err}
		}
		if err := teams.SetPaymentStatus(id, models.PaymentStatusPaid, true); err != nil {
			return nil, &TransportError{Err: err}
		}

		if t, err = teams.GetTeamByID(id); err != nil {
			return nil, &TransportError{Err: err}
		}
		updated = append(updated, *t)
	}
	return updated, nil
}
