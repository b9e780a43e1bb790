// Package memory provides an in-process notification recorder. It is the
// default publisher backend and doubles as the observer used by tests to
// assert emitted notifications.
package memory

import (
	"context"
	"sync"

	"github.com/Rajdeepm07/expensechart/internal/events"
)

type Recorder struct {
	mu      sync.Mutex
	added   []events.ExpenseAdded
	removed []events.ExpenseRemoved
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PublishExpenseAdded(ctx context.Context, event events.ExpenseAdded) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.added = append(r.added, event)
	return nil
}

func (r *Recorder) PublishExpenseRemoved(ctx context.Context, event events.ExpenseRemoved) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removed = append(r.removed, event)
	return nil
}

// Added returns a copy of the recorded ExpenseAdded notifications in
// emission order.
func (r *Recorder) Added() []events.ExpenseAdded {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]events.ExpenseAdded, len(r.added))
	copy(out, r.added)
	return out
}

// Removed returns a copy of the recorded ExpenseRemoved notifications in
// emission order.
func (r *Recorder) Removed() []events.ExpenseRemoved {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]events.ExpenseRemoved, len(r.removed))
	copy(out, r.removed)
	return out
}

var _ events.Publisher = (*Recorder)(nil)
