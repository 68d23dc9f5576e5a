package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/greenhangar/ghe-billing/internal/model"
)

func openWorkbook(t *testing.T, content []byte) *excelize.File {
	t.Helper()
	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return file
}

func cell(t *testing.T, file *excelize.File, sheet, axis string) string {
	t.Helper()
	value, err := file.GetCellValue(sheet, axis)
	require.NoError(t, err)
	return value
}

func TestGenerator_Statement(t *testing.T) {
	id := uuid.New()
	stmt := model.Statement{
		Title:           "GHE TRANSMITTAL - AIRPORT CLIENTS PROPERTY IRREGULARITY SUMMARY REPORT",
		DateRange:       "2025-03-02 TO 2025-03-06",
		Subtotal:        decimal.RequireFromString("1300"),
		SurchargeTotal:  decimal.RequireFromString("100"),
		DiscountAverage: decimal.RequireFromString("5"),
		Total:           decimal.RequireFromString("1340"),
		Currency:        "PHP",
		GeneratedAt:     time.Date(2025, 3, 31, 17, 5, 0, 0, time.UTC),
		Rows: []model.StatementRow{
			{
				Number:       1,
				ContractID:   id,
				LuggageOwner: "Juan Dela Cruz",
				FlightNumber: "Z2 431",
				Address:      "Parañaque City",
				ReceivedAt:   time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
				Status:       "Delivery Failed",
				Amount:       decimal.RequireFromString("1250.5"),
				Remarks:      "Delivery Failed",
			},
		},
	}

	out, err := NewGenerator().Statement(stmt)
	require.NoError(t, err)
	file := openWorkbook(t, out)

	assert.Equal(t, []string{"Summary", "Contracts"}, file.GetSheetList())
	assert.Equal(t, stmt.DateRange, cell(t, file, "Summary", "B3"))
	assert.Equal(t, "1", cell(t, file, "Summary", "B6"))
	assert.Equal(t, "1,340.00", cell(t, file, "Summary", "B11"))

	assert.Equal(t, "Tracking ID", cell(t, file, "Contracts", "B1"))
	assert.Equal(t, id.String(), cell(t, file, "Contracts", "B2"))
	assert.Equal(t, "Parañaque City", cell(t, file, "Contracts", "E2"))
	assert.Equal(t, "2025-03-06", cell(t, file, "Contracts", "F2"))
	assert.Equal(t, "1,250.50", cell(t, file, "Contracts", "H2"))
	assert.Equal(t, "Delivery Failed", cell(t, file, "Contracts", "I2"))
}

func TestGenerator_StatementPlaceholder(t *testing.T) {
	out, err := NewGenerator().Statement(model.Statement{DateRange: "No Data"})
	require.NoError(t, err)
	file := openWorkbook(t, out)

	assert.Equal(t, "No contracts selected", cell(t, file, "Contracts", "A2"))
	assert.Equal(t, "0", cell(t, file, "Summary", "B6"))
	assert.Equal(t, "No Data", cell(t, file, "Summary", "B3"))
}
