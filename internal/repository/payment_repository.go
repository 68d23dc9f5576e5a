package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenhangar/ghe-billing/internal/model"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `
	id,
	invoice_number,
	payment_status_id,
	created_at,
	due_date,
	total_charge,
	invoice_image,
	paid_at,
	contract_ids
`

func (r *PaymentRepository) ListPayments(ctx context.Context) ([]model.Payment, error) {
	payments := make([]model.Payment, 0)
	err := r.db.WithContext(ctx).Raw(`
		SELECT` + paymentColumns + `
		FROM payments
		ORDER BY created_at DESC
	`).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *PaymentRepository) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).Raw(`
		SELECT`+paymentColumns+`
		FROM payments
		WHERE id = ?
		LIMIT 1
	`, id).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &payment, nil
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error) {
	contractIDs := payment.ContractIDs
	if len(contractIDs) == 0 {
		contractIDs = []byte("[]")
	}

	var saved model.Payment
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO payments (
			invoice_number,
			payment_status_id,
			created_at,
			due_date,
			total_charge,
			invoice_image,
			contract_ids
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING`+paymentColumns,
		payment.InvoiceNumber,
		int(payment.Status),
		payment.CreatedAt,
		payment.DueDate,
		payment.TotalCharge,
		payment.InvoiceImage,
		contractIDs,
	).Scan(&saved).Error
	if err != nil {
		return nil, classify(err)
	}
	return &saved, nil
}

// MarkPaid only moves unpaid rows. A row that is already paid, including one
// paid by a concurrent request, yields ErrConflict.
func (r *PaymentRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*model.Payment, error) {
	var saved model.Payment
	err := r.db.WithContext(ctx).Raw(`
		UPDATE payments
		SET payment_status_id = ?, paid_at = ?
		WHERE id = ? AND payment_status_id = ?
		RETURNING`+paymentColumns,
		int(model.PaymentStatusPaid),
		paidAt,
		id,
		int(model.PaymentStatusUnpaid),
	).Scan(&saved).Error
	if err != nil {
		return nil, classify(err)
	}
	if saved.ID == uuid.Nil {
		return nil, ErrConflict
	}
	return &saved, nil
}
