package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/store"
)

func TestTransactionServiceAddAssignsRefAndNormalizes(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewTransactionService(openStore(t), pub)

	got, err := svc.Add(ctx, core.Transaction{
		Owner:    "alice",
		Kind:     core.Expense,
		Amount:   core.Money{Cents: 1250},
		Category: "  groceries ",
		Date:     mustDate(t, "2025-06-10"),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if got.ID != 1 {
		t.Errorf("first ID = %d, want 1", got.ID)
	}
	if !strings.HasPrefix(got.Ref, "TXN-") || len(got.Ref) != 12 {
		t.Errorf("ref = %q, want TXN- plus 8 hex chars", got.Ref)
	}
	if got.Category != "Groceries" {
		t.Errorf("category = %q, want normalized Groceries", got.Category)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("timestamps not set together: %v / %v", got.CreatedAt, got.UpdatedAt)
	}

	if len(pub.messages) != 1 || pub.messages[0].Action != amqp.ActionCreated {
		t.Fatalf("expected one created event, got %+v", pub.messages)
	}
	if pub.messages[0].Collection != "transactions" || pub.messages[0].RecordID != got.ID {
		t.Errorf("event = %+v", pub.messages[0])
	}
}

func TestTransactionServiceAddRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(openStore(t), nil)

	_, err := svc.Add(ctx, core.Transaction{
		Owner:    "alice",
		Kind:     "loan",
		Amount:   core.Money{Cents: 100},
		Category: "Misc",
		Date:     mustDate(t, "2025-06-10"),
	})
	if !errors.Is(err, core.ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestTransactionServiceUpdatePreservesRefAndCreatedAt(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(openStore(t), nil)

	orig, err := svc.Add(ctx, core.Transaction{
		Owner:    "alice",
		Kind:     core.Income,
		Amount:   core.Money{Cents: 500000},
		Category: "Salary",
		Date:     mustDate(t, "2025-06-01"),
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	updated, err := svc.Update(ctx, core.Transaction{
		ID:       orig.ID,
		Owner:    "alice",
		Kind:     core.Income,
		Amount:   core.Money{Cents: 510000},
		Category: "salary",
		Date:     mustDate(t, "2025-06-01"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Ref != orig.Ref {
		t.Errorf("ref changed on update: %q -> %q", orig.Ref, updated.Ref)
	}
	if !updated.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("created_at changed on update")
	}
	if updated.Amount.Cents != 510000 {
		t.Errorf("amount = %d, want 510000", updated.Amount.Cents)
	}
}

func TestTransactionServiceDeleteMissing(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(openStore(t), nil)

	if err := svc.Delete(ctx, "alice", 42); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionServiceOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	svc := NewTransactionService(openStore(t), nil)

	for _, owner := range []string{"alice", "bob"} {
		_, err := svc.Add(ctx, core.Transaction{
			Owner:    owner,
			Kind:     core.Expense,
			Amount:   core.Money{Cents: 100},
			Category: "Misc",
			Date:     mustDate(t, "2025-06-10"),
		})
		if err != nil {
			t.Fatalf("add for %s: %v", owner, err)
		}
	}

	listed, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].Owner != "alice" {
		t.Fatalf("owner isolation broken: %+v", listed)
	}
}
