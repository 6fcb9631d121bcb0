// Package store provides in-memory implementations of the drawer
// persistence interfaces, used in tests and for ephemeral dev servers.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumapos/cash-engine/drawer"
)

// =============================================================================
// MEMORY MOVEMENT STORE
// =============================================================================

type MemoryMovements struct {
	mu        sync.RWMutex
	movements []drawer.CashMovement
	nextSeq   int64
}

func NewMemoryMovements() *MemoryMovements {
	return &MemoryMovements{nextSeq: 1}
}

// Append stores a movement and assigns its Seq. Movements are kept sorted
// ascending by (Timestamp, Seq); insertion uses binary search so repeated
// appends stay cheap.
func (m *MemoryMovements) Append(_ context.Context, mov *drawer.CashMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mov.Seq = m.nextSeq
	m.nextSeq++

	i := sort.Search(len(m.movements), func(i int) bool {
		return m.movements[i].Timestamp.After(mov.Timestamp)
	})

	m.movements = append(m.movements, drawer.CashMovement{})
	copy(m.movements[i+1:], m.movements[i:])
	m.movements[i] = *mov
	return nil
}

func (m *MemoryMovements) Load(_ context.Context) ([]drawer.CashMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]drawer.CashMovement, len(m.movements))
	copy(result, m.movements)
	return result, nil
}

func (m *MemoryMovements) LoadRange(_ context.Context, from, to time.Time) ([]drawer.CashMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []drawer.CashMovement
	for _, mov := range m.movements {
		if !mov.Timestamp.Before(from) && mov.Timestamp.Before(to) {
			result = append(result, mov)
		}
	}
	return result, nil
}

func (m *MemoryMovements) Get(_ context.Context, id string) (*drawer.CashMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, mov := range m.movements {
		if mov.ID == id {
			found := mov
			return &found, nil
		}
	}
	return nil, drawer.ErrMovementNotFound
}

func (m *MemoryMovements) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, mov := range m.movements {
		if mov.ID == id {
			if mov.IsZCut {
				return drawer.ErrImmutableZCut
			}
			m.movements = append(m.movements[:i], m.movements[i+1:]...)
			return nil
		}
	}
	return drawer.ErrMovementNotFound
}

// =============================================================================
// MEMORY SALES STORE
// =============================================================================

type MemorySales struct {
	mu           sync.RWMutex
	transactions []drawer.Transaction
}

func NewMemorySales() *MemorySales {
	return &MemorySales{}
}

func (s *MemorySales) Record(_ context.Context, tx *drawer.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.transactions), func(i int) bool {
		return s.transactions[i].Date.After(tx.Date)
	})
	s.transactions = append(s.transactions, drawer.Transaction{})
	copy(s.transactions[i+1:], s.transactions[i:])
	s.transactions[i] = *tx
	return nil
}

func (s *MemorySales) LoadSince(_ context.Context, t time.Time) ([]drawer.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []drawer.Transaction
	for _, tx := range s.transactions {
		if !tx.Date.Before(t) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (s *MemorySales) LoadRange(_ context.Context, from, to time.Time) ([]drawer.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []drawer.Transaction
	for _, tx := range s.transactions {
		if !tx.Date.Before(from) && tx.Date.Before(to) {
			result = append(result, tx)
		}
	}
	return result, nil
}
