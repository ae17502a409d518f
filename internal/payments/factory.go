package payments

import (
	"context"
	"fmt"

	"leaguereg/internal/config"
	"leaguereg/internal/database"
)

// NewGateway picks the payment backend configured by PAYMENT_PROVIDER
func NewGateway(ctx context.Context, cfg *config.Config, db *database.DB) (Gateway, error) {
	switch cfg.PaymentProvider {
	case "ledger", "":
		return NewLedgerGateway(db), nil
	case "http":
		if cfg.PaymentAPIURL == "" {
			return nil, fmt.Errorf("PAYMENT_API_URL is required for the http payment provider")
		}
		return NewHTTPGateway(ctx, cfg.PaymentAPIURL, cfg.PaymentAPIToken), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.PaymentProvider)
	}
}
