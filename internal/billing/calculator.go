package billing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/greenhangar/ghe-billing/internal/model"
)

const moneyPlaces = 2

var (
	ErrNotNumber   = errors.New("value is not a number")
	ErrNegative    = errors.New("value must not be negative")
	ErrOutOfBounds = errors.New("value is out of range")
	ErrPrecision   = errors.New("value has more than two decimal places")

	hundred = decimal.NewFromInt(100)
)

// Totals are the aggregate figures of a contract set. Sums are kept unrounded;
// call Rounded before presenting or persisting them.
type Totals struct {
	Count           int             `json:"count"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	SurchargeTotal  decimal.Decimal `json:"surcharge_total"`
	DiscountAverage decimal.Decimal `json:"discount_average"`
	Total           decimal.Decimal `json:"total"`
}

func Aggregate(contracts []model.Contract) Totals {
	totals := Totals{
		Count:           len(contracts),
		Subtotal:        decimal.Zero,
		SurchargeTotal:  decimal.Zero,
		DiscountAverage: decimal.Zero,
		Total:           decimal.Zero,
	}
	if len(contracts) == 0 {
		return totals
	}

	discountSum := decimal.Zero
	for _, c := range contracts {
		totals.Subtotal = totals.Subtotal.Add(c.DeliveryCharge)
		totals.SurchargeTotal = totals.SurchargeTotal.Add(c.Surcharge)
		discountSum = discountSum.Add(c.Discount)
		totals.Total = totals.Total.Add(c.Total())
	}
	totals.DiscountAverage = discountSum.Div(decimal.NewFromInt(int64(len(contracts))))
	return totals
}

func (t Totals) Rounded() Totals {
	return Totals{
		Count:           t.Count,
		Subtotal:        Round(t.Subtotal),
		SurchargeTotal:  Round(t.SurchargeTotal),
		DiscountAverage: Round(t.DiscountAverage),
		Total:           Round(t.Total),
	}
}

// InvoiceAmounts holds the bottom block of an invoice. VAT is a flat amount,
// not a rate applied to the vatable figure.
type InvoiceAmounts struct {
	Vatable   decimal.Decimal `json:"vatable"`
	VAT       decimal.Decimal `json:"vat"`
	AmountDue decimal.Decimal `json:"amount_due"`
}

func Invoice(contracts []model.Contract, vat decimal.Decimal) InvoiceAmounts {
	vatable := Aggregate(contracts).Total
	return InvoiceAmounts{
		Vatable:   Round(vatable),
		VAT:       Round(vat),
		AmountDue: Round(vatable.Add(vat)),
	}
}

// Round rounds half away from zero to two decimal places.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(moneyPlaces)
}

// FormatAmount renders a money value with thousands separators and two decimals.
func FormatAmount(value decimal.Decimal) string {
	fixed := Round(value).StringFixed(moneyPlaces)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

// ParseAmount accepts at most two decimal places, matching the NUMERIC
// columns amounts are stored in.
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: empty value", ErrNotNumber)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotNumber, raw)
	}
	if !value.Equal(value.Round(moneyPlaces)) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrPrecision, raw)
	}
	return value, nil
}

// ValidateNonNegative is used for prices and surcharges.
func ValidateNonNegative(value decimal.Decimal) error {
	if value.IsNegative() {
		return ErrNegative
	}
	return nil
}

// ValidateDiscount accepts percentages in [0, 100].
func ValidateDiscount(value decimal.Decimal) error {
	if value.IsNegative() || value.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrOutOfBounds)
	}
	return nil
}
