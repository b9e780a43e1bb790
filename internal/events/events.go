// Package events defines the notifications emitted by the ledger as an
// observable side effect of successful mutations, and the publisher
// abstraction the ledger emits them through.
package events

import (
	"context"
	"encoding/json"
)

// ExpenseAdded is emitted after a successful add, at most once per call.
type ExpenseAdded struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Timestamp   int64  `json:"timestamp"`
}

// ExpenseRemoved is emitted after a successful remove, at most once per call.
// Ownership transfers emit nothing.
type ExpenseRemoved struct {
	ID int64 `json:"id"`
}

// Publisher delivers ledger notifications to external consumers, for
// example dashboards. Delivery failures never roll back the mutation
// that triggered them.
type Publisher interface {
	PublishExpenseAdded(ctx context.Context, event ExpenseAdded) error
	PublishExpenseRemoved(ctx context.Context, event ExpenseRemoved) error
}

func (e ExpenseAdded) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func (e ExpenseRemoved) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseAddedFromJSON decodes an ExpenseAdded notification body.
func ExpenseAddedFromJSON(data []byte) (*ExpenseAdded, error) {
	var e ExpenseAdded
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ExpenseRemovedFromJSON decodes an ExpenseRemoved notification body.
func ExpenseRemovedFromJSON(data []byte) (*ExpenseRemoved, error) {
	var e ExpenseRemoved
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
