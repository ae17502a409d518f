package repository

import (
	"database/sql"
	"fmt"
	"time"

	"leaguereg/internal/database"
	"leaguereg/internal/models"
	"leaguereg/internal/security"
)

// PaymentRepository records processed card payments
type PaymentRepository struct {
	db database.DBTX
}

func NewPaymentRepository(db database.DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, processor_payment_id, kind, amount_cents, currency, email,
	card_brand, card_last4, receipt_url, created_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.ID, &p.ProcessorPaymentID, &p.Kind, &p.AmountCents, &p.Currency, &p.Email,
		&p.CardBrand, &p.CardLast4, &p.ReceiptURL, &p.CreatedAt,
	)
	return p, err
}

// CreatePayment inserts a payment, assigning an id when it has none
func (r *PaymentRepository) CreatePayment(p *models.Payment) error {
	if p.ID == "" {
		p.ID = security.NewEntityID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payments (id, processor_payment_id, kind, amount_cents, currency, email,
			card_brand, card_last4, receipt_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		p.ID, p.ProcessorPaymentID, p.Kind, p.AmountCents, p.Currency, p.Email,
		p.CardBrand, p.CardLast4, p.ReceiptURL, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by id
func (r *PaymentRepository) GetPayment(id string) (*models.Payment, error) {
	query := "SELECT " + paymentColumns + " FROM payments WHERE id = ?"
	p, err := scanPayment(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// ListPayments returns every payment, newest first
func (r *PaymentRepository) ListPayments() ([]models.Payment, error) {
	rows, err := r.db.Query("SELECT " + paymentColumns + " FROM payments ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
