package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenhangar/ghe-billing/internal/billing"
	"github.com/greenhangar/ghe-billing/internal/model"
)

type PricingStore interface {
	ListRegions(ctx context.Context) ([]model.PricingRegion, error)
	ListCitiesByRegion(ctx context.Context, regionID uuid.UUID) ([]model.City, error)
	ListPricing(ctx context.Context) ([]model.PricingEntry, error)
	GetPricing(ctx context.Context, cityID uuid.UUID) (*model.PricingEntry, error)
	UpdatePrice(ctx context.Context, cityID uuid.UUID, price decimal.Decimal, updatedAt time.Time) (*model.PricingEntry, error)
}

type PricingService struct {
	store PricingStore
	now   func() time.Time
}

func NewPricingService(store PricingStore, now func() time.Time) *PricingService {
	if now == nil {
		now = time.Now
	}
	return &PricingService{store: store, now: now}
}

func (s *PricingService) ListRegions(ctx context.Context) ([]model.PricingRegion, error) {
	regions, err := s.store.ListRegions(ctx)
	return emptyIfNil(regions, err)
}

func (s *PricingService) ListCitiesByRegion(ctx context.Context, regionID uuid.UUID) ([]model.City, error) {
	if regionID == uuid.Nil {
		return nil, fmt.Errorf("%w: region_id is required", ErrInvalidInput)
	}
	cities, err := s.store.ListCitiesByRegion(ctx, regionID)
	return emptyIfNil(cities, err)
}

func (s *PricingService) GetPriceByCity(ctx context.Context, cityID uuid.UUID) (*model.PricingEntry, error) {
	if cityID == uuid.Nil {
		return nil, fmt.Errorf("%w: city_id is required", ErrInvalidInput)
	}
	entry, err := s.store.GetPricing(ctx, cityID)
	if err != nil {
		return nil, readError(err)
	}
	return entry, nil
}

func (s *PricingService) ListPricing(ctx context.Context) ([]model.PricingEntry, error) {
	entries, err := s.store.ListPricing(ctx)
	return emptyIfNil(entries, err)
}

// UpdatePrice validates the raw value before touching the store. The previous
// price is not kept anywhere.
func (s *PricingService) UpdatePrice(ctx context.Context, cityID uuid.UUID, rawPrice string) (*model.PricingEntry, error) {
	if cityID == uuid.Nil {
		return nil, fmt.Errorf("%w: city_id is required", ErrInvalidInput)
	}
	price, err := billing.ParseAmount(rawPrice)
	if err != nil {
		return nil, fmt.Errorf("%w: price: %v", ErrInvalidInput, err)
	}
	if err := billing.ValidateNonNegative(price); err != nil {
		return nil, fmt.Errorf("%w: price: %v", ErrInvalidInput, err)
	}

	entry, err := s.store.UpdatePrice(ctx, cityID, price, s.now())
	if err != nil {
		return nil, writeError(err)
	}
	return entry, nil
}

// FilterPricing keeps entries of the given region (exact match, empty for all)
// whose city contains citySearch, ignoring case.
func FilterPricing(entries []model.PricingEntry, region, citySearch string) []model.PricingEntry {
	region = strings.TrimSpace(region)
	citySearch = strings.ToLower(strings.TrimSpace(citySearch))

	result := make([]model.PricingEntry, 0, len(entries))
	for _, entry := range entries {
		if region != "" && entry.Region != region {
			continue
		}
		if citySearch != "" && !strings.Contains(strings.ToLower(entry.City), citySearch) {
			continue
		}
		result = append(result, entry)
	}
	return result
}
