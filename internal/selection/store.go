package selection

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps one workspace per operator. Workspaces live only in this process.
type Store struct {
	mu         sync.Mutex
	workspaces map[uuid.UUID]*Workspace
	loc        *time.Location
	now        func() time.Time
}

func NewStore(loc *time.Location, now func() time.Time) *Store {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		workspaces: make(map[uuid.UUID]*Workspace),
		loc:        loc,
		now:        now,
	}
}

// With runs fn against the user's workspace while holding the store lock.
// A missing workspace is created at the current month.
func (s *Store) With(userID uuid.UUID, fn func(w *Workspace) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workspaces[userID]
	if !ok {
		w = NewWorkspace(s.now().In(s.loc))
		s.workspaces[userID] = w
	}
	return fn(w)
}

// Reset drops the user's workspace; the next access starts over at the current month.
func (s *Store) Reset(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workspaces, userID)
}

func (s *Store) Location() *time.Location {
	return s.loc
}
