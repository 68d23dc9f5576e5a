package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenhangar/ghe-billing/internal/billing"
	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/selection"
)

type ContractStore interface {
	ListContracts(ctx context.Context) ([]model.Contract, error)
	GetContract(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	UpdateSurcharge(ctx context.Context, id uuid.UUID, surcharge decimal.Decimal) error
	UpdateDiscount(ctx context.Context, id uuid.UUID, discount decimal.Decimal) error
}

type LedgerService struct {
	store ContractStore
}

func NewLedgerService(store ContractStore) *LedgerService {
	return &LedgerService{store: store}
}

func (s *LedgerService) ListContracts(ctx context.Context) ([]model.Contract, error) {
	contracts, err := s.store.ListContracts(ctx)
	return emptyIfNil(contracts, err)
}

func (s *LedgerService) ListContractsForMonth(ctx context.Context, month time.Time) ([]model.Contract, error) {
	contracts, err := s.store.ListContracts(ctx)
	if err != nil {
		return nil, err
	}
	return selection.FilterByMonth(contracts, month), nil
}

// SetSurcharge persists the surcharge alone. The returned contract is re-read
// so its total reflects whatever discount is stored.
func (s *LedgerService) SetSurcharge(ctx context.Context, id uuid.UUID, rawSurcharge string) (*model.Contract, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: contractId is required", ErrInvalidInput)
	}
	surcharge, err := billing.ParseAmount(rawSurcharge)
	if err != nil {
		return nil, fmt.Errorf("%w: surcharge: %v", ErrInvalidInput, err)
	}
	if err := billing.ValidateNonNegative(surcharge); err != nil {
		return nil, fmt.Errorf("%w: surcharge: %v", ErrInvalidInput, err)
	}

	if err := s.store.UpdateSurcharge(ctx, id, surcharge); err != nil {
		return nil, writeError(err)
	}
	return s.reload(ctx, id)
}

func (s *LedgerService) SetDiscount(ctx context.Context, id uuid.UUID, rawDiscount string) (*model.Contract, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: contractId is required", ErrInvalidInput)
	}
	discount, err := billing.ParseAmount(rawDiscount)
	if err != nil {
		return nil, fmt.Errorf("%w: discount: %v", ErrInvalidInput, err)
	}
	if err := billing.ValidateDiscount(discount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.store.UpdateDiscount(ctx, id, discount); err != nil {
		return nil, writeError(err)
	}
	return s.reload(ctx, id)
}

func (s *LedgerService) Summarize(ctx context.Context, month time.Time) (billing.Summary, error) {
	contracts, err := s.ListContractsForMonth(ctx, month)
	if err != nil {
		return billing.Summary{}, err
	}
	return billing.Summarize(contracts), nil
}

func (s *LedgerService) reload(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	contract, err := s.store.GetContract(ctx, id)
	if err != nil {
		return nil, readError(err)
	}
	return contract, nil
}
