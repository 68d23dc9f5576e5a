package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/greenhangar/ghe-billing/internal/billing"
	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/selection"
)

const InvoiceNumberLayout = "20060102"

type PaymentStore interface {
	ListPayments(ctx context.Context) ([]model.Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	CreatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*model.Payment, error)
}

type PaymentService struct {
	store   PaymentStore
	metrics Recorder
	loc     *time.Location
	now     func() time.Time
}

func NewPaymentService(store PaymentStore, metrics Recorder, loc *time.Location, now func() time.Time) *PaymentService {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &PaymentService{store: store, metrics: metrics, loc: loc, now: now}
}

// PaymentRecord is a payment as submitted by a client. Empty strings and a
// nil status count as missing.
type PaymentRecord struct {
	InvoiceNumber   string
	PaymentStatusID *int
	CreatedAt       string
	DueDate         string
	TotalCharge     string
	InvoiceImage    string
}

func (s *PaymentService) ListPayments(ctx context.Context) ([]model.Payment, error) {
	payments, err := s.store.ListPayments(ctx)
	return emptyIfNil(payments, err)
}

// CreatePayment fixes total_charge from the contracts being invoiced. The
// caller passes the already eligible set.
func (s *PaymentService) CreatePayment(ctx context.Context, contracts []model.Contract) (*model.Payment, error) {
	now := s.now().In(s.loc)
	_, monthEnd := selection.MonthBounds(now)

	ids := make([]uuid.UUID, 0, len(contracts))
	for _, c := range contracts {
		ids = append(ids, c.ID)
	}
	contractIDs, err := json.Marshal(ids)
	if err != nil {
		return nil, err
	}

	payment := model.Payment{
		InvoiceNumber: now.Format(InvoiceNumberLayout),
		Status:        model.PaymentStatusUnpaid,
		CreatedAt:     now,
		DueDate:       monthEnd,
		TotalCharge:   billing.Aggregate(contracts).Rounded().Total,
		ContractIDs:   contractIDs,
	}
	return s.create(ctx, payment)
}

func (s *PaymentService) RecordPayment(ctx context.Context, record PaymentRecord) (*model.Payment, error) {
	var missing []string
	if strings.TrimSpace(record.InvoiceNumber) == "" {
		missing = append(missing, "invoice_number")
	}
	if record.PaymentStatusID == nil {
		missing = append(missing, "payment_status_id")
	}
	if strings.TrimSpace(record.CreatedAt) == "" {
		missing = append(missing, "created_at")
	}
	if strings.TrimSpace(record.DueDate) == "" {
		missing = append(missing, "due_date")
	}
	if strings.TrimSpace(record.TotalCharge) == "" {
		missing = append(missing, "total_charge")
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}

	if model.PaymentStatus(*record.PaymentStatusID) != model.PaymentStatusUnpaid {
		return nil, fmt.Errorf("%w: new payments must be unpaid", ErrInvalidInput)
	}
	createdAt, err := parseTimestamp(record.CreatedAt, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: created_at: %v", ErrInvalidInput, err)
	}
	dueDate, err := parseTimestamp(record.DueDate, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: due_date: %v", ErrInvalidInput, err)
	}
	total, err := billing.ParseAmount(record.TotalCharge)
	if err != nil {
		return nil, fmt.Errorf("%w: total_charge: %v", ErrInvalidInput, err)
	}
	if err := billing.ValidateNonNegative(total); err != nil {
		return nil, fmt.Errorf("%w: total_charge: %v", ErrInvalidInput, err)
	}

	return s.create(ctx, model.Payment{
		InvoiceNumber: strings.TrimSpace(record.InvoiceNumber),
		Status:        model.PaymentStatusUnpaid,
		CreatedAt:     createdAt,
		DueDate:       dueDate,
		TotalCharge:   billing.Round(total),
		InvoiceImage:  record.InvoiceImage,
	})
}

// MarkPaid moves an unpaid payment to paid. Paid is terminal.
func (s *PaymentService) MarkPaid(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: payment_id is required", ErrInvalidInput)
	}
	current, err := s.store.GetPayment(ctx, id)
	if err != nil {
		return nil, readError(err)
	}
	if current.IsPaid() {
		return nil, fmt.Errorf("%w: payment %s is already paid", ErrInvalidState, current.InvoiceNumber)
	}

	saved, err := s.store.MarkPaid(ctx, id, s.now())
	if err != nil {
		return nil, writeError(err)
	}
	s.metrics.PaymentMarkedPaid()
	return saved, nil
}

func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, statusID int) (*model.Payment, error) {
	if model.PaymentStatus(statusID) != model.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: payment_status_id can only be set to %d", ErrInvalidInput, model.PaymentStatusPaid)
	}
	return s.MarkPaid(ctx, id)
}

func (s *PaymentService) create(ctx context.Context, payment model.Payment) (*model.Payment, error) {
	saved, err := s.store.CreatePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	s.metrics.PaymentCreated()
	return saved, nil
}

func parseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC 3339 timestamp or YYYY-MM-DD date")
	}
	return t, nil
}
