package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PricingRegion struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type City struct {
	ID       uuid.UUID `json:"id"`
	RegionID uuid.UUID `json:"region_id"`
	Name     string    `json:"name"`
}

// PricingEntry is the base delivery price for one city.
type PricingEntry struct {
	ID        uuid.UUID       `json:"id"`
	RegionID  uuid.UUID       `json:"region_id"`
	Region    string          `json:"region"`
	City      string          `json:"city"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updated_at"`
}
