// Package materials holds the in-memory material store. State lives for
// the lifetime of the process; a restart starts from the seed rows.
package materials

import (
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/mockerp/alchemy-bridge/internal/errs"
)

// Store is an insertion-ordered, in-memory material table.
type Store struct {
	mu      sync.Mutex
	order   []string
	byID    map[string]*Material
	seq     int // monotonic; survives deletes so ids never collide
	nowFunc func() time.Time

	// onRevert fires after a successful revert. Wired to the token
	// cache invalidation; the original does this on every revert even
	// though a revert does not strictly require a fresh token.
	onRevert func()
}

// NewStore creates an empty store. onRevert may be nil.
func NewStore(onRevert func()) *Store {
	if onRevert == nil {
		onRevert = func() {}
	}
	return &Store{
		byID:     map[string]*Material{},
		nowFunc:  time.Now,
		onRevert: onRevert,
	}
}

// Seed inserts the demo rows the UI starts with.
func (s *Store) Seed() {
	_, _ = s.Add("Demo Polymer A-100", "Raw material", "Research")
	_, _ = s.Add("Test Compound XY-50", "Intermediate", "Experimental")
}

// Add creates a Pending material with a fresh MOCK-### id.
func (s *Store) Add(tradeName, category, materialStatus string) (Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	m := &Material{
		ID:             fmt.Sprintf("MOCK-%03d", s.seq),
		TradeName:      tradeName,
		Category:       category,
		MaterialStatus: materialStatus,
		TransferStatus: StatusPending,
		LastModified:   s.nowFunc(),
	}
	s.order = append(s.order, m.ID)
	s.byID[m.ID] = m
	return *m, nil
}

// Get returns a copy of the material with the given id.
func (s *Store) Get(id string) (Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return Material{}, fmt.Errorf("material %s: %w", id, errs.ErrNotFound)
	}
	return *m, nil
}

// SetTransferred marks the material Transferred and writes the three
// Alchemy fields as a group. Re-transfers overwrite prior values.
func (s *Store) SetTransferred(id, code string, externalID int64, url string) (Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return Material{}, fmt.Errorf("material %s: %w", id, errs.ErrNotFound)
	}
	m.TransferStatus = StatusTransferred
	m.AlchemyCode = code
	m.AlchemyID = externalID
	m.AlchemyURL = url
	m.LastModified = s.nowFunc()
	return *m, nil
}

// Revert resets the material to Pending, clears the Alchemy fields as a
// group and fires the revert hook.
func (s *Store) Revert(id string) (Material, error) {
	s.mu.Lock()
	m, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Material{}, fmt.Errorf("material %s: %w", id, errs.ErrNotFound)
	}
	m.TransferStatus = StatusPending
	m.AlchemyCode = ""
	m.AlchemyID = 0
	m.AlchemyURL = ""
	m.LastModified = s.nowFunc()
	out := *m
	hook := s.onRevert
	s.mu.Unlock()

	hook()
	return out, nil
}

// Delete removes the material permanently. There is no undo.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("material %s: %w", id, errs.ErrNotFound)
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List yields copies of all materials in insertion order. The sequence
// is restartable; each range loop walks a consistent snapshot of ids.
func (s *Store) List() iter.Seq[Material] {
	return func(yield func(Material) bool) {
		s.mu.Lock()
		ids := make([]string, len(s.order))
		copy(ids, s.order)
		s.mu.Unlock()

		for _, id := range ids {
			s.mu.Lock()
			m, ok := s.byID[id]
			var out Material
			if ok {
				out = *m
			}
			s.mu.Unlock()
			if !ok {
				continue
			}
			if !yield(out) {
				return
			}
		}
	}
}

// Len reports the current number of materials.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
