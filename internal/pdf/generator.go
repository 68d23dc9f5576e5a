package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/greenhangar/ghe-billing/internal/billing"
	"github.com/greenhangar/ghe-billing/internal/model"
)

const (
	fontName          = "Helvetica"
	noContractsNotice = "No contracts selected"
)

var (
	statementHeaders = []string{"No.", "Tracking ID", "Luggage Owner", "Flight No.", "Address", "Date Received", "Status", "Amount", "Remarks"}
	statementWidths  = []float64{10, 62, 35, 20, 50, 25, 25, 22, 18}
	statementAligns  = []string{"C", "L", "L", "L", "L", "C", "L", "R", "L"}

	invoiceHeaders = []string{"QTY", "UNIT", "DESCRIPTION", "AMOUNT"}
	invoiceWidths  = []float64{20, 20, 105, 35}
	invoiceAligns  = []string{"C", "C", "L", "R"}
)

// Generator renders statements and invoices with the built-in Helvetica
// font. Text is translated to cp1252 before drawing.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Statement(stmt model.Statement) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 13)
	pdf.MultiCell(0, 7, tr(stmt.Title), "", "C", false)
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, tr("Period: "+stmt.DateRange), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if stmt.IsEmpty() {
		pdf.SetFont(fontName, "B", 14)
		pdf.CellFormat(0, 30, noContractsNotice, "1", 1, "C", false, 0, "")
		statementFooter(pdf, tr, stmt)
		return output(pdf)
	}

	pdf.SetFont(fontName, "B", 8)
	drawTableRow(pdf, tr, statementHeaders, statementWidths, statementAligns, true)
	pdf.SetFont(fontName, "", 8)
	for _, row := range stmt.Rows {
		cols := []string{
			fmt.Sprintf("%d", row.Number),
			row.ContractID.String(),
			safeValue(row.LuggageOwner),
			safeValue(row.FlightNumber),
			safeValue(row.Address),
			formatDate(row.ReceivedAt),
			safeValue(row.Status),
			formatAmount(row.Amount),
			row.Remarks,
		}
		drawTableRow(pdf, tr, cols, statementWidths, statementAligns, false)
	}

	pdf.Ln(4)
	labelWidth, valueWidth := 60.0, 40.0
	offset := sum(statementWidths) - labelWidth - valueWidth
	totals := []struct {
		label string
		value string
		bold  bool
	}{
		{label: "Subtotal", value: currency(stmt.Currency, stmt.Subtotal)},
		{label: "Surcharge Total", value: currency(stmt.Currency, stmt.SurchargeTotal)},
		{label: "Discount (Average)", value: stmt.DiscountAverage.StringFixed(2) + "%"},
		{label: "TOTAL", value: currency(stmt.Currency, stmt.Total), bold: true},
	}
	for _, line := range totals {
		style := ""
		if line.bold {
			style = "B"
		}
		pdf.SetFont(fontName, style, 10)
		pdf.CellFormat(offset, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(labelWidth, 6, line.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueWidth, 6, line.value, "", 1, "R", false, 0, "")
	}

	statementFooter(pdf, tr, stmt)
	return output(pdf)
}

func (g *Generator) Invoice(inv model.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont(fontName, "B", 14)
	pdf.CellFormat(0, 7, tr(inv.Issuer.Name), "", 1, "C", false, 0, "")
	pdf.SetFont(fontName, "", 9)
	if inv.Issuer.Address != "" {
		pdf.CellFormat(0, 5, tr(inv.Issuer.Address), "", 1, "C", false, 0, "")
	}
	if inv.Issuer.TIN != "" {
		pdf.CellFormat(0, 5, tr("VAT Reg. TIN: "+inv.Issuer.TIN), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(fontName, "B", 16)
	pdf.CellFormat(0, 9, "SERVICE INVOICE", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontName, "", 10)
	keyValue(pdf, tr, "Invoice No.", inv.Number)
	keyValue(pdf, tr, "Date", formatLongDate(inv.IssuedAt))
	keyValue(pdf, tr, "Due Date", formatLongDate(inv.DueDate))
	pdf.Ln(3)

	pdf.SetFont(fontName, "B", 10)
	pdf.CellFormat(0, 6, "BILL TO", "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	keyValue(pdf, tr, "Registered Name", inv.BillTo.Name)
	keyValue(pdf, tr, "Business Address", safeValue(inv.BillTo.Address))
	keyValue(pdf, tr, "TIN", safeValue(inv.BillTo.TIN))
	keyValue(pdf, tr, "Terms", safeValue(inv.Terms))
	keyValue(pdf, tr, "Payment Method", safeValue(inv.PaymentMethod))
	pdf.Ln(4)

	pdf.SetFont(fontName, "B", 9)
	drawTableRow(pdf, tr, invoiceHeaders, invoiceWidths, invoiceAligns, true)
	pdf.SetFont(fontName, "", 9)
	drawTableRow(pdf, tr, []string{
		fmt.Sprintf("%d", inv.Line.Quantity),
		inv.Line.Unit,
		inv.Line.Description,
		formatAmount(inv.Line.Amount),
	}, invoiceWidths, invoiceAligns, false)
	pdf.Ln(4)

	labelWidth := invoiceWidths[0] + invoiceWidths[1] + invoiceWidths[2]
	amounts := []struct {
		label string
		value decimal.Decimal
		bold  bool
	}{
		{label: "VATABLE SALES", value: inv.Vatable},
		{label: "VAT", value: inv.VAT},
		{label: "TOTAL AMOUNT DUE", value: inv.AmountDue, bold: true},
	}
	for _, line := range amounts {
		style := ""
		if line.bold {
			style = "B"
		}
		pdf.SetFont(fontName, style, 10)
		pdf.CellFormat(labelWidth, 7, line.label, "1", 0, "R", false, 0, "")
		pdf.CellFormat(invoiceWidths[3], 7, currency(inv.Currency, line.value), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(12)
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, "Received by: ______________________________", "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date: ______________________________", "", 1, "L", false, 0, "")

	return output(pdf)
}

func statementFooter(pdf *gofpdf.Fpdf, tr func(string) string, stmt model.Statement) {
	pdf.Ln(10)
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 6, "Received by: ______________________________", "", 1, "L", false, 0, "")
	pdf.Ln(2)
	pdf.CellFormat(0, 6, tr("GENERATED ON: "+formatDateTime(stmt.GeneratedAt)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total PIR submitted: %d", len(stmt.Rows)), "", 1, "L", false, 0, "")
}

func drawTableRow(pdf *gofpdf.Fpdf, tr func(string) string, cols []string, widths []float64, aligns []string, header bool) {
	fill := false
	if header {
		pdf.SetFillColor(230, 230, 230)
		fill = true
	}
	for i, col := range cols {
		text := tr(col)
		if !header {
			text = fit(pdf, text, widths[i]-2)
		}
		align := aligns[i]
		if header {
			align = "C"
		}
		pdf.CellFormat(widths[i], 7, text, "1", 0, align, fill, 0, "")
	}
	pdf.Ln(-1)
}

func keyValue(pdf *gofpdf.Fpdf, tr func(string) string, key, value string) {
	pdf.CellFormat(40, 6, key+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
}

// fit shortens already translated (single byte) text with an ellipsis until
// it fits the cell width.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	for len(text) > 0 && pdf.GetStringWidth(text+"...") > width {
		text = text[:len(text)-1]
	}
	return text + "..."
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func currency(code string, value decimal.Decimal) string {
	if code == "" {
		return formatAmount(value)
	}
	return code + " " + formatAmount(value)
}

func formatAmount(value decimal.Decimal) string {
	return billing.FormatAmount(value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatLongDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("January 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("January 2, 2006 3:04 PM")
}
