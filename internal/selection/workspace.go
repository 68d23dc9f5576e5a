package selection

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/greenhangar/ghe-billing/internal/model"
)

// Workspace is one operator's active month and selected contract ids.
// It is not safe for concurrent use; Store serialises access.
type Workspace struct {
	month    time.Time
	selected map[uuid.UUID]struct{}
}

func NewWorkspace(month time.Time) *Workspace {
	return &Workspace{
		month:    MonthStart(month),
		selected: make(map[uuid.UUID]struct{}),
	}
}

func (w *Workspace) Month() time.Time {
	return w.month
}

// SetMonth switches the active month. Moving to a different calendar month
// clears the selection; it reports whether that happened.
func (w *Workspace) SetMonth(month time.Time) bool {
	month = MonthStart(month)
	if SameMonth(w.month, month) {
		return false
	}
	w.month = month
	w.Clear()
	return true
}

// Toggle flips the id and reports whether it is selected afterwards.
func (w *Workspace) Toggle(id uuid.UUID) bool {
	if _, ok := w.selected[id]; ok {
		delete(w.selected, id)
		return false
	}
	w.selected[id] = struct{}{}
	return true
}

func (w *Workspace) SelectAllVisible(filtered []model.Contract) int {
	added := 0
	for _, c := range filtered {
		if _, ok := w.selected[c.ID]; ok {
			continue
		}
		w.selected[c.ID] = struct{}{}
		added++
	}
	return added
}

func (w *Workspace) DeselectAllVisible(filtered []model.Contract) int {
	removed := 0
	for _, c := range filtered {
		if _, ok := w.selected[c.ID]; !ok {
			continue
		}
		delete(w.selected, c.ID)
		removed++
	}
	return removed
}

func (w *Workspace) IsSelected(id uuid.UUID) bool {
	_, ok := w.selected[id]
	return ok
}

func (w *Workspace) Count() int {
	return len(w.selected)
}

func (w *Workspace) Clear() {
	w.selected = make(map[uuid.UUID]struct{})
}

func (w *Workspace) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(w.selected))
	for id := range w.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// Selected returns the contracts whose ids are selected, in input order.
func (w *Workspace) Selected(contracts []model.Contract) []model.Contract {
	result := make([]model.Contract, 0, len(w.selected))
	for _, c := range contracts {
		if w.IsSelected(c.ID) {
			result = append(result, c)
		}
	}
	return result
}

type Snapshot struct {
	Month       string      `json:"month"`
	ContractIDs []uuid.UUID `json:"contract_ids"`
	Count       int         `json:"count"`
}

func (w *Workspace) Snapshot() Snapshot {
	return Snapshot{
		Month:       w.month.Format(MonthLayout),
		ContractIDs: w.IDs(),
		Count:       w.Count(),
	}
}
