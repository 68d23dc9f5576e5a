package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestContract_TotalIsOrderIndependent(t *testing.T) {
	base := Contract{DeliveryCharge: decimal.RequireFromString("850")}

	surchargeFirst := base
	surchargeFirst.Surcharge = decimal.RequireFromString("150")
	surchargeFirst.Discount = decimal.RequireFromString("20")

	discountFirst := base
	discountFirst.Discount = decimal.RequireFromString("20")
	discountFirst.Surcharge = decimal.RequireFromString("150")

	assert.True(t, surchargeFirst.Total().Equal(discountFirst.Total()))
	assert.True(t, decimal.RequireFromString("800").Equal(surchargeFirst.Total()))
}

func TestContract_IsCancelled(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"Cancelled", true},
		{"cancelled", true},
		{" CANCELLED ", true},
		{"Delivered", false},
		{"Delivery Failed", false},
		{"Cancellation Requested", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, Contract{Status: tt.status}.IsCancelled())
		})
	}
}

func TestContract_EffectiveDate(t *testing.T) {
	created := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	delivered := time.Date(2025, 3, 4, 17, 30, 0, 0, time.UTC)

	assert.Equal(t, created, Contract{CreatedAt: created}.EffectiveDate())
	assert.Equal(t, delivered, Contract{CreatedAt: created, DeliveredAt: &delivered}.EffectiveDate())
}
