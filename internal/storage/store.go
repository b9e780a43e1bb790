// Package storage provides durable state stores for the expense ledger.
//
// A store is the external collaborator that makes ledger state survive
// restarts. Every implementation persists the same layout: the owner
// identity, the next id counter, and the expense rows in insertion order.
// Removed expenses stay in place flagged as removed so a reload reproduces
// the non-compacted enumeration order exactly.
package storage

import (
	"context"

	"github.com/Rajdeepm07/expensechart/internal/core"
)

// StoredExpense is one persisted row. Removed rows keep their insertion
// slot; only the flag changes.
type StoredExpense struct {
	Expense core.Expense
	Removed bool
}

// State is a full snapshot of persisted ledger state.
type State struct {
	Owner    core.OwnerID
	NextID   int64
	Expenses []StoredExpense
}

// StateStore persists ledger mutations. Each method is atomic: either the
// whole mutation is durable or none of it is.
type StateStore interface {
	// Load restores the persisted state, or returns nil when the store
	// holds no state yet.
	Load(ctx context.Context) (*State, error)

	// InsertExpense appends one expense row and advances the persisted
	// next id counter.
	InsertExpense(ctx context.Context, e core.Expense, nextID int64) error

	// MarkRemoved flags an expense row as removed without moving it.
	MarkRemoved(ctx context.Context, id int64) error

	// SaveOwner replaces the persisted owner identity.
	SaveOwner(ctx context.Context, owner core.OwnerID) error

	Close() error
}
