package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DocumentFormat string

const (
	DocumentFormatPDF  DocumentFormat = "pdf"
	DocumentFormatXLSX DocumentFormat = "xlsx"
)

type StatementRow struct {
	Number       int
	ContractID   uuid.UUID
	LuggageOwner string
	FlightNumber string
	Address      string
	ReceivedAt   time.Time
	Status       string
	Amount       decimal.Decimal
	Remarks      string
}

// Statement is the statement of account over an eligible contract set.
// An empty Rows slice renders as the "no contracts selected" placeholder.
type Statement struct {
	Title           string
	DateRange       string
	Rows            []StatementRow
	Subtotal        decimal.Decimal
	SurchargeTotal  decimal.Decimal
	DiscountAverage decimal.Decimal
	Total           decimal.Decimal
	Currency        string
	GeneratedAt     time.Time
}

func (s Statement) IsEmpty() bool {
	return len(s.Rows) == 0
}

type Party struct {
	Name    string
	Address string
	TIN     string
}

type InvoiceLine struct {
	Quantity    int
	Unit        string
	Description string
	Amount      decimal.Decimal
}

type Invoice struct {
	Number        string
	IssuedAt      time.Time
	DueDate       time.Time
	Issuer        Party
	BillTo        Party
	Terms         string
	PaymentMethod string
	Line          InvoiceLine
	Vatable       decimal.Decimal
	VAT           decimal.Decimal
	AmountDue     decimal.Decimal
	Currency      string
}
