// Package memstore keeps ledger, pricing, payment and profile rows in memory.
// It follows the same error contract as the PostgreSQL repositories and backs
// service and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/repository"
)

type Store struct {
	mu            sync.RWMutex
	contracts     map[uuid.UUID]model.Contract
	regions       map[uuid.UUID]model.PricingRegion
	pricing       map[uuid.UUID]model.PricingEntry
	payments      map[uuid.UUID]model.Payment
	profiles      map[uuid.UUID]model.Profile
	identityTypes []model.IdentityType
	writeErr      error
}

func New() *Store {
	return &Store{
		contracts: make(map[uuid.UUID]model.Contract),
		regions:   make(map[uuid.UUID]model.PricingRegion),
		pricing:   make(map[uuid.UUID]model.PricingEntry),
		payments:  make(map[uuid.UUID]model.Payment),
		profiles:  make(map[uuid.UUID]model.Profile),
	}
}

// FailWrites makes every subsequent write return err. Pass nil to recover.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

func (s *Store) AddContract(c model.Contract) model.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.contracts[c.ID] = cloneContract(c)
	return c
}

func (s *Store) AddRegion(name string) model.PricingRegion {
	s.mu.Lock()
	defer s.mu.Unlock()
	region := model.PricingRegion{ID: uuid.New(), Name: name}
	s.regions[region.ID] = region
	return region
}

func (s *Store) AddCity(region model.PricingRegion, city string, price decimal.Decimal, updatedAt time.Time) model.PricingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := model.PricingEntry{
		ID:        uuid.New(),
		RegionID:  region.ID,
		Region:    region.Name,
		City:      city,
		Price:     price,
		UpdatedAt: updatedAt,
	}
	s.pricing[entry.ID] = entry
	return entry
}

func (s *Store) AddProfile(p model.Profile) model.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.profiles[p.ID] = p
	return p
}

func (s *Store) AddIdentityType(name string) model.IdentityType {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.IdentityType{ID: len(s.identityTypes) + 1, Name: name}
	s.identityTypes = append(s.identityTypes, t)
	return t
}

func (s *Store) ListContracts(ctx context.Context) ([]model.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contracts := make([]model.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		contracts = append(contracts, cloneContract(c))
	}
	sort.Slice(contracts, func(i, j int) bool {
		return contracts[i].CreatedAt.After(contracts[j].CreatedAt)
	})
	return contracts, nil
}

func (s *Store) GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c = cloneContract(c)
	return &c, nil
}

func (s *Store) UpdateSurcharge(ctx context.Context, id uuid.UUID, surcharge decimal.Decimal) error {
	return s.updateContract(id, func(c *model.Contract) { c.Surcharge = surcharge })
}

func (s *Store) UpdateDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal) error {
	return s.updateContract(id, func(c *model.Contract) { c.Discount = discount })
}

func (s *Store) updateContract(id uuid.UUID, fn func(c *model.Contract)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	c, ok := s.contracts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	fn(&c)
	s.contracts[id] = c
	return nil
}

func (s *Store) ListRegions(ctx context.Context) ([]model.PricingRegion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regions := make([]model.PricingRegion, 0, len(s.regions))
	for _, r := range s.regions {
		regions = append(regions, r)
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Name < regions[j].Name })
	return regions, nil
}

func (s *Store) ListCitiesByRegion(ctx context.Context, regionID uuid.UUID) ([]model.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cities := make([]model.City, 0)
	for _, p := range s.pricing {
		if p.RegionID == regionID {
			cities = append(cities, model.City{ID: p.ID, RegionID: p.RegionID, Name: p.City})
		}
	}
	sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
	return cities, nil
}

func (s *Store) ListPricing(ctx context.Context) ([]model.PricingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]model.PricingEntry, 0, len(s.pricing))
	for _, p := range s.pricing {
		entries = append(entries, p)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Region != entries[j].Region {
			return entries[i].Region < entries[j].Region
		}
		return entries[i].City < entries[j].City
	})
	return entries, nil
}

func (s *Store) GetPricing(ctx context.Context, cityID uuid.UUID) (*model.PricingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pricing[cityID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (s *Store) UpdatePrice(ctx context.Context, cityID uuid.UUID, price decimal.Decimal, updatedAt time.Time) (*model.PricingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	p, ok := s.pricing[cityID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.Price = price
	p.UpdatedAt = updatedAt
	s.pricing[cityID] = p
	return &p, nil
}

func (s *Store) ListPayments(ctx context.Context) ([]model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payments := make([]model.Payment, 0, len(s.payments))
	for _, p := range s.payments {
		payments = append(payments, p)
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (s *Store) CreatePayment(ctx context.Context, payment model.Payment) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	payment.ID = uuid.New()
	if len(payment.ContractIDs) == 0 {
		payment.ContractIDs = []byte("[]")
	}
	s.payments[payment.ID] = payment
	return &payment, nil
}

func (s *Store) MarkPaid(ctx context.Context, id uuid.UUID, paidAt time.Time) (*model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	p, ok := s.payments[id]
	if !ok || p.Status != model.PaymentStatusUnpaid {
		return nil, repository.ErrConflict
	}
	p.Status = model.PaymentStatusPaid
	p.PaidAt = &paidAt
	s.payments[id] = p
	return &p, nil
}

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, profile model.Profile) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	current, ok := s.profiles[profile.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	profile.Email = current.Email
	profile.GovIDProof = current.GovIDProof
	profile.GovIDProofBack = current.GovIDProofBack
	s.profiles[profile.ID] = profile
	return &profile, nil
}

func (s *Store) SetIdentityDocument(ctx context.Context, id uuid.UUID, side model.DocumentSide, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	p, ok := s.profiles[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if side == model.DocumentSideBack {
		p.GovIDProofBack = key
	} else {
		p.GovIDProof = key
	}
	s.profiles[id] = p
	return nil
}

func (s *Store) ListIdentityTypes(ctx context.Context) ([]model.IdentityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]model.IdentityType, len(s.identityTypes))
	copy(types, s.identityTypes)
	return types, nil
}

func cloneContract(c model.Contract) model.Contract {
	luggage := make([]model.Luggage, len(c.Luggage))
	copy(luggage, c.Luggage)
	c.Luggage = luggage
	return c
}
