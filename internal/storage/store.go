// Package storage persists ledger records. Every query is owner-scoped:
// no implementation may return or touch a record whose owner differs from
// the caller.
package storage

import (
	"context"
	"errors"

	"ledgerd/internal/core"
)

// ErrNotFound covers both "no such record" and "not yours". The two are
// deliberately indistinguishable so callers cannot probe other owners'
// records.
var ErrNotFound = errors.New("transaction not found or unauthorized")

// Store is the ledger store contract. Insert assigns the record ID and
// returns the stored record; ListByOwner returns newest-first by CreatedAt;
// DeleteOwned removes the record matching id AND owner in one atomic
// conditional step, returning ErrNotFound when nothing matches.
type Store interface {
	Insert(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	ListByOwner(ctx context.Context, kind core.Kind, ownerID string) ([]core.Transaction, error)
	DeleteOwned(ctx context.Context, kind core.Kind, id, ownerID string) error
	Close() error
}
