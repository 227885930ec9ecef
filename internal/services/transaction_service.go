package services

import (
	"context"
	"fmt"
	"time"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/store"
)

// TransactionService handles transaction writes: it normalizes and
// validates the record, assigns the reference and timestamps, persists
// it and publishes a mutation event.
type TransactionService struct {
	store  store.Store
	events Publisher
	now    func() time.Time
}

func NewTransactionService(s store.Store, events Publisher) *TransactionService {
	return &TransactionService{store: s, events: events, now: time.Now}
}

// Add stores a new transaction. ID, Ref and timestamps are assigned
// here; the caller supplies owner, kind, amount, category, date and
// description.
func (s *TransactionService) Add(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = 0
	t.Ref = core.NewTransactionRef()
	t.Category = core.NormalizeCategory(t.Category)
	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	stored, err := s.store.AppendTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("append transaction: %w", err)
	}

	publishMutation(ctx, s.events, stored.Owner, "transactions", amqp.ActionCreated, stored.ID)
	return stored, nil
}

// List returns the owner's transactions in insertion order.
func (s *TransactionService) List(ctx context.Context, owner string) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, owner)
}

// Get fetches one transaction by owner and ID.
func (s *TransactionService) Get(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, owner, id)
}

// Update replaces the mutable fields of an existing transaction. Ref
// and CreatedAt are preserved from the stored record; UpdatedAt is
// bumped.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, t.Owner, t.ID)
	if err != nil {
		return core.Transaction{}, err
	}

	t.Ref = existing.Ref
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = s.now()
	t.Category = core.NormalizeCategory(t.Category)

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	publishMutation(ctx, s.events, t.Owner, "transactions", amqp.ActionUpdated, t.ID)
	return t, nil
}

// Delete removes one transaction.
func (s *TransactionService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteTransaction(ctx, owner, id); err != nil {
		return err
	}
	publishMutation(ctx, s.events, owner, "transactions", amqp.ActionDeleted, id)
	return nil
}
