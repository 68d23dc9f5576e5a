package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type PaymentStatus int

const (
	PaymentStatusUnpaid PaymentStatus = 1
	PaymentStatusPaid   PaymentStatus = 2
)

func (s PaymentStatus) String() string {
	switch s {
	case PaymentStatusUnpaid:
		return "Unpaid"
	case PaymentStatusPaid:
		return "Paid"
	default:
		return "Unknown"
	}
}

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusUnpaid || s == PaymentStatusPaid
}

type Payment struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Status        PaymentStatus   `json:"payment_status_id" gorm:"column:payment_status_id"`
	CreatedAt     time.Time       `json:"created_at"`
	DueDate       time.Time       `json:"due_date"`
	TotalCharge   decimal.Decimal `json:"total_charge"`
	InvoiceImage  string          `json:"invoice_image"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
	ContractIDs   datatypes.JSON  `json:"contract_ids,omitempty" gorm:"column:contract_ids"`
}

func (p Payment) IsPaid() bool {
	return p.Status == PaymentStatusPaid
}
