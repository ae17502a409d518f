package models

import "time"

// Payment is a processed card payment covering one or more players or teams
type Payment struct {
	ID                 string    `json:"id"`
	ProcessorPaymentID string    `json:"processorPaymentId,omitempty"`
	Kind               string    `json:"kind"`
	AmountCents        int64     `json:"amount"`
	Currency           string    `json:"currency"`
	Email              string    `json:"email"`
	CardBrand          string    `json:"cardBrand,omitempty"`
	CardLast4          string    `json:"cardLast4,omitempty"`
	ReceiptURL         string    `json:"receiptUrl,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}
