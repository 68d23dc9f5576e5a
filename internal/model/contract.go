package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ContractStatusDelivered      = "Delivered"
	ContractStatusDeliveryFailed = "Delivery Failed"
	ContractStatusCancelled      = "Cancelled"
)

var hundred = decimal.NewFromInt(100)

type Contract struct {
	ID              uuid.UUID       `json:"id"`
	DeliveryCharge  decimal.Decimal `json:"delivery_charge"`
	Surcharge       decimal.Decimal `json:"surcharge"`
	Discount        decimal.Decimal `json:"discount"`
	Status          string          `json:"status"`
	PickupLocation  string          `json:"pickup_location"`
	DropOffLocation string          `json:"drop_off_location"`
	ContractorID    *uuid.UUID      `json:"contractor_id,omitempty"`
	SubcontractorID *uuid.UUID      `json:"subcontractor_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
	Luggage         []Luggage       `json:"luggage"`
}

type Luggage struct {
	ID           uuid.UUID       `json:"id"`
	ContractID   uuid.UUID       `json:"contract_id"`
	Owner        string          `json:"luggage_owner"`
	CaseNumber   string          `json:"case_number"`
	FlightNumber string          `json:"flight_number"`
	Weight       decimal.Decimal `json:"weight"`
	Contact      string          `json:"contact_number"`
	Position     int             `json:"-"`
}

// RowAmount is the pre-discount figure printed per row on a statement.
func (c Contract) RowAmount() decimal.Decimal {
	return c.DeliveryCharge.Add(c.Surcharge)
}

// Total is always derived from the stored charge fields, never persisted.
func (c Contract) Total() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(c.Discount.Div(hundred))
	return c.RowAmount().Mul(factor)
}

func (c Contract) IsCancelled() bool {
	return strings.EqualFold(strings.TrimSpace(c.Status), ContractStatusCancelled)
}

// EffectiveDate is delivered_at when the contract was delivered, created_at otherwise.
func (c Contract) EffectiveDate() time.Time {
	if c.DeliveredAt != nil && !c.DeliveredAt.IsZero() {
		return *c.DeliveredAt
	}
	return c.CreatedAt
}

func (c Contract) FirstLuggage() (Luggage, bool) {
	if len(c.Luggage) == 0 {
		return Luggage{}, false
	}
	return c.Luggage[0], true
}
