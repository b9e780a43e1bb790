// Package ledger implements the single-owner expense ledger: monotonic id
// assignment, tombstone-based removal, insertion-ordered enumeration and
// the live-total aggregate.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Rajdeepm07/expensechart/internal/core"
	"github.com/Rajdeepm07/expensechart/internal/events"
	"github.com/Rajdeepm07/expensechart/internal/storage"
)

// entry is the two-state lifecycle of an issued id: live, then absent.
// There is no resurrection; a removed id is indistinguishable from one
// that was never issued.
type entry struct {
	expense core.Expense
	live    bool
}

// Ledger holds all ledger state for one instance. Mutations are gated on
// the owner identity and serialized; reads are public.
//
// The id index is append-only and never compacted: removal flags the entry
// absent but keeps its id in the index, trading a permanently growing
// enumeration for O(1) deletes. Enumeration consumers must re-check
// liveness per id.
type Ledger struct {
	mu      sync.Mutex
	owner   core.OwnerID
	nextID  int64
	entries map[int64]entry
	ids     []int64

	store storage.StateStore
	pub   events.Publisher
}

// New creates a ledger owned by owner, restoring persisted state from
// store when there is any. A persisted owner wins over the owner argument.
// Both store and pub may be nil: the ledger then runs without persistence
// or notifications.
func New(ctx context.Context, owner core.OwnerID, store storage.StateStore, pub events.Publisher) (*Ledger, error) {
	if owner.IsNull() {
		return nil, core.ErrInvalidOwner
	}

	l := &Ledger{
		owner:   owner,
		nextID:  1,
		entries: make(map[int64]entry),
		store:   store,
		pub:     pub,
	}

	if store != nil {
		state, err := store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load ledger state: %w", err)
		}
		if state != nil {
			l.restore(state)
		}
	}

	return l, nil
}

func (l *Ledger) restore(state *storage.State) {
	if !state.Owner.IsNull() {
		l.owner = state.Owner
	}
	if state.NextID > l.nextID {
		l.nextID = state.NextID
	}
	for _, row := range state.Expenses {
		l.ids = append(l.ids, row.Expense.ID)
		l.entries[row.Expense.ID] = entry{expense: row.Expense, live: !row.Removed}
	}
}

// AddExpense records a new expense and returns its id. Only the owner may
// add; any other caller gets core.ErrUnauthorized. Ids start at 1, grow
// strictly and are never reused, so id 0 never refers to a real expense.
// Emits an ExpenseAdded notification on success.
func (l *Ledger) AddExpense(ctx context.Context, caller core.OwnerID, title string, amountCents int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return 0, core.ErrUnauthorized
	}
	amount := core.Money{Cents: amountCents}
	if err := amount.Validate(); err != nil {
		return 0, err
	}

	exp := core.Expense{
		ID:        l.nextID,
		Title:     title,
		Amount:    amount,
		CreatedAt: time.Now().Unix(),
	}

	if l.store != nil {
		if err := l.store.InsertExpense(ctx, exp, l.nextID+1); err != nil {
			return 0, fmt.Errorf("persist expense: %w", err)
		}
	}

	l.nextID++
	l.entries[exp.ID] = entry{expense: exp, live: true}
	l.ids = append(l.ids, exp.ID)

	l.publishAdded(ctx, events.ExpenseAdded{
		ID:          exp.ID,
		Title:       exp.Title,
		AmountCents: exp.Amount.Cents,
		Timestamp:   exp.CreatedAt,
	})

	return exp.ID, nil
}

// RemoveExpense tombstones a live expense. Only the owner may remove.
// Ids never issued and ids already removed are indistinguishable: both
// fail with core.ErrNotFound. The id index keeps the removed id; only the
// entry state changes. Emits an ExpenseRemoved notification on success.
func (l *Ledger) RemoveExpense(ctx context.Context, caller core.OwnerID, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return core.ErrUnauthorized
	}
	e, ok := l.entries[id]
	if !ok || !e.live {
		return core.ErrNotFound
	}

	if l.store != nil {
		if err := l.store.MarkRemoved(ctx, id); err != nil {
			return fmt.Errorf("persist removal: %w", err)
		}
	}

	e.live = false
	l.entries[id] = e

	l.publishRemoved(ctx, events.ExpenseRemoved{ID: id})

	return nil
}

// Expense returns the live expense with the given id. Any caller may read.
// Removed and never-issued ids both fail with core.ErrNotFound.
func (l *Ledger) Expense(ctx context.Context, id int64) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[id]
	if !ok || !e.live {
		return core.Expense{}, core.ErrNotFound
	}
	return e.expense, nil
}

// ExpenseIDs returns every id ever issued, in insertion order, including
// ids whose expense has since been removed. Callers filter tombstones by
// re-querying Expense and tolerating ErrNotFound.
func (l *Ledger) ExpenseIDs(ctx context.Context) []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]int64, len(l.ids))
	copy(out, l.ids)
	return out
}

// Total returns the sum of amounts over live expenses, scanning the id
// index in order and skipping tombstones silently. Overflow of the
// accumulator panics; see core.AddCents.
func (l *Ledger) Total(ctx context.Context) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, id := range l.ids {
		e, ok := l.entries[id]
		if !ok || !e.live {
			continue
		}
		total = core.AddCents(total, e.expense.Amount.Cents)
	}
	return total
}

// TransferOwnership hands the ledger to newOwner. Only the current owner
// may transfer, and the null identity is rejected with
// core.ErrInvalidOwner. No notification is emitted for this transition;
// add and remove are the only notifying mutations.
func (l *Ledger) TransferOwnership(ctx context.Context, caller, newOwner core.OwnerID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.owner {
		return core.ErrUnauthorized
	}
	if newOwner.IsNull() {
		return core.ErrInvalidOwner
	}

	if l.store != nil {
		if err := l.store.SaveOwner(ctx, newOwner); err != nil {
			return fmt.Errorf("persist owner: %w", err)
		}
	}

	l.owner = newOwner
	return nil
}

// Owner returns the current owner identity. Any caller may read.
func (l *Ledger) Owner() core.OwnerID {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.owner
}

// Notifications are emitted while still serialized so their order matches
// the mutation order. A failed publish is logged and never rolls back the
// mutation; the expense is already durable.
func (l *Ledger) publishAdded(ctx context.Context, event events.ExpenseAdded) {
	if l.pub == nil {
		return
	}
	if err := l.pub.PublishExpenseAdded(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense added notification",
			"id", event.ID, "error", err)
	}
}

func (l *Ledger) publishRemoved(ctx context.Context, event events.ExpenseRemoved) {
	if l.pub == nil {
		return
	}
	if err := l.pub.PublishExpenseRemoved(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense removed notification",
			"id", event.ID, "error", err)
	}
}
