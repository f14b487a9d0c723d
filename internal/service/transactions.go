// Package service enforces validation and ownership rules around the
// ledger store and announces committed mutations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ledgerd/internal/amqp"
	"ledgerd/internal/auth"
	"ledgerd/internal/core"
	"ledgerd/internal/storage"
)

// EventPublisher is what the service needs from the AMQP client. A nil
// publisher disables eventing.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// Fields is the client-controlled part of a record. Owner, ID and creation
// time are never taken from here.
type Fields struct {
	Title       string
	Amount      core.Money
	Category    string
	Description string
	Date        core.Date
}

type Transactions struct {
	store  storage.Store
	events EventPublisher
	now    func() time.Time
}

func NewTransactions(store storage.Store, events EventPublisher) *Transactions {
	return &Transactions{
		store:  store,
		events: events,
		now:    time.Now,
	}
}

// Create validates the fields and persists a new record owned by the
// verified identity. The owner comes from the identity alone.
func (s *Transactions) Create(ctx context.Context, identity auth.Identity, kind core.Kind, f Fields) (core.Transaction, error) {
	tx := core.Transaction{
		OwnerID:     identity.ID,
		Kind:        kind,
		Title:       f.Title,
		Amount:      f.Amount,
		Category:    f.Category,
		Description: f.Description,
		Date:        f.Date,
		CreatedAt:   s.now(),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.Insert(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save %s: %w", kind, err)
	}

	// Best effort: the record is committed, a broker outage must not undo that.
	s.publish(ctx, amqp.NewCreatedEvent(created))
	return created, nil
}

// List returns every record of the given kind owned by the identity,
// newest first.
func (s *Transactions) List(ctx context.Context, identity auth.Identity, kind core.Kind) ([]core.Transaction, error) {
	txs, err := s.store.ListByOwner(ctx, kind, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("list %ss: %w", kind, err)
	}
	return txs, nil
}

// Delete removes the record if and only if the identity owns it. A missing
// record and someone else's record both come back as storage.ErrNotFound.
func (s *Transactions) Delete(ctx context.Context, identity auth.Identity, kind core.Kind, id string) error {
	if err := s.store.DeleteOwned(ctx, kind, id, identity.ID); err != nil {
		if err == storage.ErrNotFound {
			return err
		}
		return fmt.Errorf("delete %s: %w", kind, err)
	}

	s.publish(ctx, amqp.NewDeletedEvent(kind, id, identity.ID))
	return nil
}

func (s *Transactions) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"error", err, "action", event.Action, "kind", event.Kind, "id", event.ID)
	}
}

// Close releases the underlying store.
func (s *Transactions) Close() error {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return fmt.Errorf("close store: %w", err)
		}
	}
	return nil
}
