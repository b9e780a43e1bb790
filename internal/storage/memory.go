package storage

import (
	"context"
	"sync"

	"github.com/Rajdeepm07/expensechart/internal/core"
)

// MemoryStore keeps the persisted state in process memory. It is the
// default backend and gives tests clean per-instance isolation.
type MemoryStore struct {
	mu    sync.Mutex
	state State
	seen  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.seen {
		return nil, nil
	}

	out := State{
		Owner:    m.state.Owner,
		NextID:   m.state.NextID,
		Expenses: make([]StoredExpense, len(m.state.Expenses)),
	}
	copy(out.Expenses, m.state.Expenses)
	return &out, nil
}

func (m *MemoryStore) InsertExpense(ctx context.Context, e core.Expense, nextID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Expenses = append(m.state.Expenses, StoredExpense{Expense: e})
	m.state.NextID = nextID
	m.seen = true
	return nil
}

func (m *MemoryStore) MarkRemoved(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.state.Expenses {
		if m.state.Expenses[i].Expense.ID == id {
			m.state.Expenses[i].Removed = true
			break
		}
	}
	m.seen = true
	return nil
}

func (m *MemoryStore) SaveOwner(ctx context.Context, owner core.OwnerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Owner = owner
	m.seen = true
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

var _ StateStore = (*MemoryStore)(nil)
