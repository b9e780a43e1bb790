package core

import (
	"errors"
	"math"
)

type (
	// OwnerID is the opaque identity compared against the ledger owner on
	// gated operations. The zero value is the null identity and never
	// authorizes anything.
	OwnerID string

	Money struct {
		Cents int64
	}

	// Expense is immutable once created. ID is assigned by the ledger,
	// starts at 1 and is never reused. CreatedAt is a unix timestamp
	// captured at creation and never updated.
	Expense struct {
		ID        int64
		Title     string
		Amount    Money
		CreatedAt int64
	}
)

var (
	ErrUnauthorized  = errors.New("caller is not the ledger owner")
	ErrNotFound      = errors.New("expense not found")
	ErrInvalidOwner  = errors.New("invalid owner identity")
	ErrInvalidAmount = errors.New("invalid amount")
)

// IsNull reports whether the identity is the null identity.
func (o OwnerID) IsNull() bool {
	return o == ""
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// AddCents adds b to a and panics on int64 overflow. Totals are aggregates
// over caller-supplied amounts; silent wraparound would corrupt them, so
// overflow is treated as a fatal arithmetic error.
func AddCents(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		panic("core: total overflows int64")
	}
	if b < 0 && a < math.MinInt64-b {
		panic("core: total underflows int64")
	}
	return a + b
}
