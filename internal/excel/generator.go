package excel

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/greenhangar/ghe-billing/internal/model"
)

const (
	summarySheet      = "Summary"
	contractsSheet    = "Contracts"
	noContractsNotice = "No contracts selected"
	amountFormat      = 4 // #,##0.00
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Statement writes a summary sheet and one row per contract. Amounts are
// stored as numbers so the sheet can be re-totalled.
func (g *Generator) Statement(stmt model.Statement) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	st, err := newStyles(file)
	if err != nil {
		return nil, err
	}
	if err := g.writeSummary(file, stmt, st); err != nil {
		return nil, err
	}
	if _, err := file.NewSheet(contractsSheet); err != nil {
		return nil, err
	}
	if err := g.writeContracts(file, stmt, st); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type styles struct {
	bold   int
	amount int
}

func newStyles(file *excelize.File) (styles, error) {
	bold, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return styles{}, err
	}
	amount, err := file.NewStyle(&excelize.Style{NumFmt: amountFormat})
	if err != nil {
		return styles{}, err
	}
	return styles{bold: bold, amount: amount}, nil
}

func (g *Generator) writeSummary(file *excelize.File, stmt model.Statement, st styles) error {
	sheet := summarySheet
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", stmt.Title)
	_ = file.SetCellStyle(sheet, "A1", "A1", st.bold)
	set("A3", "Period")
	set("B3", stmt.DateRange)
	set("A4", "Generated on")
	set("B4", formatDateTime(stmt.GeneratedAt))
	set("A5", "Currency")
	set("B5", stmt.Currency)
	set("A6", "Total PIR submitted")
	set("B6", len(stmt.Rows))

	set("A8", "Subtotal")
	set("B8", amount(stmt.Subtotal))
	set("A9", "Surcharge Total")
	set("B9", amount(stmt.SurchargeTotal))
	set("A10", "Discount (Average) %")
	set("B10", amount(stmt.DiscountAverage))
	set("A11", "TOTAL")
	set("B11", amount(stmt.Total))
	_ = file.SetCellStyle(sheet, "B8", "B11", st.amount)
	_ = file.SetCellStyle(sheet, "A11", "A11", st.bold)

	_ = file.SetColWidth(sheet, "A", "A", 24)
	_ = file.SetColWidth(sheet, "B", "B", 28)
	return nil
}

func (g *Generator) writeContracts(file *excelize.File, stmt model.Statement, st styles) error {
	sheet := contractsSheet
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"No.",
		"Tracking ID",
		"Luggage Owner",
		"Flight No.",
		"Address",
		"Date Received",
		"Status",
		"Amount",
		"Remarks",
	}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		set(cell, header)
	}
	_ = file.SetCellStyle(sheet, "A1", "I1", st.bold)

	if stmt.IsEmpty() {
		set("A2", noContractsNotice)
		return nil
	}

	for i, row := range stmt.Rows {
		r := i + 2
		set(fmt.Sprintf("A%d", r), row.Number)
		set(fmt.Sprintf("B%d", r), row.ContractID.String())
		set(fmt.Sprintf("C%d", r), row.LuggageOwner)
		set(fmt.Sprintf("D%d", r), row.FlightNumber)
		set(fmt.Sprintf("E%d", r), row.Address)
		set(fmt.Sprintf("F%d", r), formatDate(row.ReceivedAt))
		set(fmt.Sprintf("G%d", r), row.Status)
		set(fmt.Sprintf("H%d", r), amount(row.Amount))
		set(fmt.Sprintf("I%d", r), row.Remarks)
	}
	last := len(stmt.Rows) + 1
	_ = file.SetCellStyle(sheet, "H2", fmt.Sprintf("H%d", last), st.amount)

	_ = file.SetColWidth(sheet, "A", "A", 6)
	_ = file.SetColWidth(sheet, "B", "B", 38)
	_ = file.SetColWidth(sheet, "C", "C", 28)
	_ = file.SetColWidth(sheet, "D", "D", 12)
	_ = file.SetColWidth(sheet, "E", "E", 48)
	_ = file.SetColWidth(sheet, "F", "G", 16)
	_ = file.SetColWidth(sheet, "H", "H", 14)
	_ = file.SetColWidth(sheet, "I", "I", 18)
	return nil
}

func amount(value decimal.Decimal) float64 {
	return value.Round(2).InexactFloat64()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
