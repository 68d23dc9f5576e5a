package selection

import (
	"fmt"
	"strings"
	"time"

	"github.com/greenhangar/ghe-billing/internal/model"
)

const MonthLayout = "2006-01"

// MonthStart returns midnight of the first day of t's month in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthBounds returns the first and the last instant of the calendar month.
func MonthBounds(month time.Time) (time.Time, time.Time) {
	start := MonthStart(month)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

func SameMonth(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func ParseMonth(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if loc == nil {
		loc = time.UTC
	}
	month, err := time.ParseInLocation(MonthLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("month must be in YYYY-MM format")
	}
	return month, nil
}

// FilterByMonth keeps contracts created within the month, bounds inclusive.
// Boundaries are taken in month's location.
func FilterByMonth(contracts []model.Contract, month time.Time) []model.Contract {
	start, end := MonthBounds(month)
	result := make([]model.Contract, 0, len(contracts))
	for _, c := range contracts {
		created := c.CreatedAt.In(month.Location())
		if created.Before(start) || created.After(end) {
			continue
		}
		result = append(result, c)
	}
	return result
}

// EligibleForBilling drops cancelled contracts. Statements and invoices both use it.
func EligibleForBilling(contracts []model.Contract) []model.Contract {
	result := make([]model.Contract, 0, len(contracts))
	for _, c := range contracts {
		if c.IsCancelled() {
			continue
		}
		result = append(result, c)
	}
	return result
}

// ContractsForInvoice bills the explicit selection when there is one and every
// contract of the month otherwise.
func ContractsForInvoice(monthContracts, selected []model.Contract) []model.Contract {
	if len(selected) > 0 {
		return EligibleForBilling(selected)
	}
	return EligibleForBilling(monthContracts)
}
