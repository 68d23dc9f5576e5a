package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/greenhangar/ghe-billing/internal/billing"
	"github.com/greenhangar/ghe-billing/internal/config"
	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/selection"
)

const (
	StatementTitle        = "GHE TRANSMITTAL - AIRPORT CLIENTS PROPERTY IRREGULARITY SUMMARY REPORT"
	NoContractsSelected   = "No contracts selected"
	NoDateRange           = "No Data"
	invoiceUnit           = "PCS"
	dateRangeLayout       = "2006-01-02"
	fileMonthLayout       = "January-2006"
	invoicePeriodLayout   = "January 2, 2006"
	contentTypePDF        = "application/pdf"
	contentTypeXLSX       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	documentKindStatement = "statement"
	documentKindInvoice   = "invoice"
)

type PDFRenderer interface {
	Statement(stmt model.Statement) ([]byte, error)
	Invoice(inv model.Invoice) ([]byte, error)
}

type SpreadsheetRenderer interface {
	Statement(stmt model.Statement) ([]byte, error)
}

type DocumentService struct {
	selection *SelectionService
	payments  *PaymentService
	pdf       PDFRenderer
	excel     SpreadsheetRenderer
	billing   config.BillingConfig
	metrics   Recorder
	now       func() time.Time
}

type DocumentResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

type InvoiceResult struct {
	DocumentResult
	Invoice model.Invoice
	Payment model.Payment
}

func NewDocumentService(
	selectionService *SelectionService,
	payments *PaymentService,
	pdf PDFRenderer,
	excel SpreadsheetRenderer,
	billingCfg config.BillingConfig,
	metrics Recorder,
	now func() time.Time,
) *DocumentService {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if now == nil {
		now = time.Now
	}
	if billingCfg.Location == nil {
		billingCfg.Location = time.UTC
	}
	return &DocumentService{
		selection: selectionService,
		payments:  payments,
		pdf:       pdf,
		excel:     excel,
		billing:   billingCfg,
		metrics:   metrics,
		now:       now,
	}
}

// GenerateStatement renders the statement for the operator's selected,
// eligible contracts. An empty selection renders a placeholder document.
func (s *DocumentService) GenerateStatement(ctx context.Context, principal model.Principal, format model.DocumentFormat) (*DocumentResult, error) {
	if format == "" {
		format = model.DocumentFormatPDF
	}
	if format != model.DocumentFormatPDF && format != model.DocumentFormatXLSX {
		return nil, fmt.Errorf("%w: format must be pdf or xlsx", ErrInvalidInput)
	}

	month, _, selected, err := s.selection.Working(ctx, principal)
	if err != nil {
		return nil, err
	}
	stmt := BuildStatement(selection.EligibleForBilling(selected), s.billing.Currency, s.billing.Location, s.now().In(s.billing.Location))

	var (
		content     []byte
		contentType string
	)
	switch format {
	case model.DocumentFormatXLSX:
		content, err = s.excel.Statement(stmt)
		contentType = contentTypeXLSX
	default:
		content, err = s.pdf.Statement(stmt)
		contentType = contentTypePDF
	}
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}

	s.metrics.DocumentGenerated(documentKindStatement)
	return &DocumentResult{
		FileName:    StatementFileName(month, format),
		ContentType: contentType,
		Content:     content,
	}, nil
}

// GenerateInvoice records the payment first and renders the invoice only when
// the store accepted it.
func (s *DocumentService) GenerateInvoice(ctx context.Context, principal model.Principal) (*InvoiceResult, error) {
	month, visible, selected, err := s.selection.Working(ctx, principal)
	if err != nil {
		return nil, err
	}
	contracts := selection.ContractsForInvoice(visible, selected)
	if len(contracts) == 0 {
		return nil, fmt.Errorf("%w: no eligible contracts to invoice for %s", ErrInvalidInput, month.Format(selection.MonthLayout))
	}

	payment, err := s.payments.CreatePayment(ctx, contracts)
	if err != nil {
		return nil, err
	}

	// The invoice is dated from the stored payment so number and due date match it.
	invoice := BuildInvoice(contracts, s.billing, payment.CreatedAt.In(s.billing.Location))
	content, err := s.pdf.Invoice(invoice)
	if err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}

	s.metrics.DocumentGenerated(documentKindInvoice)
	return &InvoiceResult{
		DocumentResult: DocumentResult{
			FileName:    InvoiceFileName(month),
			ContentType: contentTypePDF,
			Content:     content,
		},
		Invoice: invoice,
		Payment: *payment,
	}, nil
}

// BuildStatement lays out the rows of an eligible contract set. Row amounts
// exclude the discount; the total includes it. Dates are shown in loc.
func BuildStatement(contracts []model.Contract, currency string, loc *time.Location, now time.Time) model.Statement {
	if loc == nil {
		loc = time.UTC
	}
	totals := billing.Aggregate(contracts).Rounded()
	stmt := model.Statement{
		Title:           StatementTitle,
		DateRange:       DateRange(contracts, loc),
		Rows:            make([]model.StatementRow, 0, len(contracts)),
		Subtotal:        totals.Subtotal,
		SurchargeTotal:  totals.SurchargeTotal,
		DiscountAverage: totals.DiscountAverage,
		Total:           totals.Total,
		Currency:        currency,
		GeneratedAt:     now,
	}

	for i, c := range contracts {
		row := model.StatementRow{
			Number:     i + 1,
			ContractID: c.ID,
			Address:    c.DropOffLocation,
			ReceivedAt: c.EffectiveDate().In(loc),
			Status:     c.Status,
			Amount:     billing.Round(c.RowAmount()),
		}
		if luggage, ok := c.FirstLuggage(); ok {
			row.LuggageOwner = luggage.Owner
			row.FlightNumber = luggage.FlightNumber
		}
		if strings.EqualFold(strings.TrimSpace(c.Status), model.ContractStatusDeliveryFailed) {
			row.Remarks = model.ContractStatusDeliveryFailed
		}
		stmt.Rows = append(stmt.Rows, row)
	}
	return stmt
}

// BuildInvoice produces the single aggregate line for the contract set. The
// billing period in the description is the calendar month of now.
func BuildInvoice(contracts []model.Contract, cfg config.BillingConfig, now time.Time) model.Invoice {
	monthStart, monthEnd := selection.MonthBounds(now)
	amounts := billing.Invoice(contracts, cfg.VATAmount)

	return model.Invoice{
		Number:   now.Format(InvoiceNumberLayout),
		IssuedAt: now,
		DueDate:  monthEnd,
		Issuer: model.Party{
			Name:    cfg.IssuerName,
			Address: cfg.IssuerAddress,
			TIN:     cfg.IssuerTIN,
		},
		BillTo: model.Party{
			Name:    cfg.BillToName,
			Address: cfg.BillToAddress,
			TIN:     cfg.BillToTIN,
		},
		Terms:         cfg.PaymentTerms,
		PaymentMethod: cfg.PaymentMethod,
		Line: model.InvoiceLine{
			Quantity: len(contracts),
			Unit:     invoiceUnit,
			Description: fmt.Sprintf("PIR Luggage Delivery - %s to %s",
				monthStart.Format(invoicePeriodLayout),
				monthEnd.Format(invoicePeriodLayout),
			),
			Amount: amounts.Vatable,
		},
		Vatable:   amounts.Vatable,
		VAT:       amounts.VAT,
		AmountDue: amounts.AmountDue,
		Currency:  cfg.Currency,
	}
}

// DateRange spans the effective dates of the contracts as calendar days in loc.
func DateRange(contracts []model.Contract, loc *time.Location) string {
	if len(contracts) == 0 {
		return NoDateRange
	}
	if loc == nil {
		loc = time.UTC
	}
	first := contracts[0].EffectiveDate()
	last := first
	for _, c := range contracts[1:] {
		date := c.EffectiveDate()
		if date.Before(first) {
			first = date
		}
		if date.After(last) {
			last = date
		}
	}
	return first.In(loc).Format(dateRangeLayout) + " TO " + last.In(loc).Format(dateRangeLayout)
}

func StatementFileName(month time.Time, format model.DocumentFormat) string {
	ext := string(format)
	if ext == "" {
		ext = string(model.DocumentFormatPDF)
	}
	return fmt.Sprintf("GHE-Transmittal-Report-%s.%s", month.Format(fileMonthLayout), ext)
}

func InvoiceFileName(month time.Time) string {
	return fmt.Sprintf("Invoice-%s.pdf", month.Format(fileMonthLayout))
}
