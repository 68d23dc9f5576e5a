package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greenhangar/ghe-billing/internal/model"
	"github.com/greenhangar/ghe-billing/internal/selection"
)

// SelectionService drives the per-operator month and selection workspace.
// Contracts are read before the workspace lock is taken.
type SelectionService struct {
	ledger *LedgerService
	store  *selection.Store
}

func NewSelectionService(ledger *LedgerService, store *selection.Store) *SelectionService {
	return &SelectionService{ledger: ledger, store: store}
}

func (s *SelectionService) Snapshot(ctx context.Context, principal model.Principal) (selection.Snapshot, error) {
	var snapshot selection.Snapshot
	err := s.store.With(principal.UserID, func(w *selection.Workspace) error {
		snapshot = w.Snapshot()
		return nil
	})
	return snapshot, err
}

func (s *SelectionService) SetMonth(ctx context.Context, principal model.Principal, rawMonth string) (selection.Snapshot, error) {
	month, err := selection.ParseMonth(rawMonth, s.store.Location())
	if err != nil {
		return selection.Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var snapshot selection.Snapshot
	err = s.store.With(principal.UserID, func(w *selection.Workspace) error {
		w.SetMonth(month)
		snapshot = w.Snapshot()
		return nil
	})
	return snapshot, err
}

// Toggle only accepts contracts visible in the active month.
func (s *SelectionService) Toggle(ctx context.Context, principal model.Principal, contractID uuid.UUID) (selection.Snapshot, error) {
	if contractID == uuid.Nil {
		return selection.Snapshot{}, fmt.Errorf("%w: contract_id is required", ErrInvalidInput)
	}
	contracts, err := s.ledger.ListContracts(ctx)
	if err != nil {
		return selection.Snapshot{}, err
	}

	var snapshot selection.Snapshot
	err = s.store.With(principal.UserID, func(w *selection.Workspace) error {
		if !containsContract(selection.FilterByMonth(contracts, w.Month()), contractID) {
			return fmt.Errorf("%w: contract is not in the active month", ErrInvalidInput)
		}
		w.Toggle(contractID)
		snapshot = w.Snapshot()
		return nil
	})
	return snapshot, err
}

func (s *SelectionService) SelectAllVisible(ctx context.Context, principal model.Principal) (selection.Snapshot, error) {
	return s.withVisible(ctx, principal, func(w *selection.Workspace, visible []model.Contract) {
		w.SelectAllVisible(visible)
	})
}

func (s *SelectionService) DeselectAllVisible(ctx context.Context, principal model.Principal) (selection.Snapshot, error) {
	return s.withVisible(ctx, principal, func(w *selection.Workspace, visible []model.Contract) {
		w.DeselectAllVisible(visible)
	})
}

// Reset discards the operator's month and selection.
func (s *SelectionService) Reset(ctx context.Context, principal model.Principal) (selection.Snapshot, error) {
	s.store.Reset(principal.UserID)
	return s.Snapshot(ctx, principal)
}

// Working returns the active month, every contract of that month and the
// selected subset.
func (s *SelectionService) Working(ctx context.Context, principal model.Principal) (time.Time, []model.Contract, []model.Contract, error) {
	contracts, err := s.ledger.ListContracts(ctx)
	if err != nil {
		return time.Time{}, nil, nil, err
	}

	var (
		month    time.Time
		visible  []model.Contract
		selected []model.Contract
	)
	err = s.store.With(principal.UserID, func(w *selection.Workspace) error {
		month = w.Month()
		visible = selection.FilterByMonth(contracts, month)
		selected = w.Selected(visible)
		return nil
	})
	if err != nil {
		return time.Time{}, nil, nil, err
	}
	return month, visible, selected, nil
}

func (s *SelectionService) withVisible(
	ctx context.Context,
	principal model.Principal,
	fn func(w *selection.Workspace, visible []model.Contract),
) (selection.Snapshot, error) {
	contracts, err := s.ledger.ListContracts(ctx)
	if err != nil {
		return selection.Snapshot{}, err
	}

	var snapshot selection.Snapshot
	err = s.store.With(principal.UserID, func(w *selection.Workspace) error {
		fn(w, selection.FilterByMonth(contracts, w.Month()))
		snapshot = w.Snapshot()
		return nil
	})
	return snapshot, err
}

func containsContract(contracts []model.Contract, id uuid.UUID) bool {
	for _, c := range contracts {
		if c.ID == id {
			return true
		}
	}
	return false
}
