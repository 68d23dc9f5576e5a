package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenhangar/ghe-billing/internal/model"
)

type PricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

func (r *PricingRepository) ListRegions(ctx context.Context) ([]model.PricingRegion, error) {
	regions := make([]model.PricingRegion, 0)
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, region AS name
		FROM pricing_region
		ORDER BY region
	`).Scan(&regions).Error
	if err != nil {
		return nil, err
	}
	return regions, nil
}

func (r *PricingRepository) ListCitiesByRegion(ctx context.Context, regionID uuid.UUID) ([]model.City, error) {
	cities := make([]model.City, 0)
	err := r.db.WithContext(ctx).Raw(`
		SELECT id, region_id, city AS name
		FROM pricing
		WHERE region_id = ?
		ORDER BY city
	`, regionID).Scan(&cities).Error
	if err != nil {
		return nil, err
	}
	return cities, nil
}

func (r *PricingRepository) ListPricing(ctx context.Context) ([]model.PricingEntry, error) {
	entries := make([]model.PricingEntry, 0)
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id, p.region_id, pr.region, p.city, p.price, p.updated_at
		FROM pricing p
		JOIN pricing_region pr ON pr.id = p.region_id
		ORDER BY pr.region, p.city
	`).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *PricingRepository) GetPricing(ctx context.Context, cityID uuid.UUID) (*model.PricingEntry, error) {
	var entry model.PricingEntry
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id, p.region_id, pr.region, p.city, p.price, p.updated_at
		FROM pricing p
		JOIN pricing_region pr ON pr.id = p.region_id
		WHERE p.id = ?
		LIMIT 1
	`, cityID).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &entry, nil
}

// UpdatePrice writes price and updated_at in one statement.
func (r *PricingRepository) UpdatePrice(ctx context.Context, cityID uuid.UUID, price decimal.Decimal, updatedAt time.Time) (*model.PricingEntry, error) {
	var entry model.PricingEntry
	err := r.db.WithContext(ctx).Raw(`
		WITH updated AS (
			UPDATE pricing
			SET price = ?, updated_at = ?
			WHERE id = ?
			RETURNING id, region_id, city, price, updated_at
		)
		SELECT u.id, u.region_id, pr.region, u.city, u.price, u.updated_at
		FROM updated u
		JOIN pricing_region pr ON pr.id = u.region_id
	`, price, updatedAt, cityID).Scan(&entry).Error
	if err != nil {
		return nil, classify(err)
	}
	if entry.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &entry, nil
}
