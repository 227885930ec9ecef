// Package store defines the persistence ports the engine layers depend
// on. Each backend owns exactly one in-memory (or on-disk) copy of every
// collection per process; callers never reach shared mutable state
// directly, they go through these interfaces.
package store

import (
	"context"
	"errors"

	"finbook/internal/core"
)

var (
	// ErrNotFound is returned for lookups that match no record.
	ErrNotFound = errors.New("record not found")
	// ErrExists is returned when a uniqueness constraint would break.
	ErrExists = errors.New("record already exists")
)

type (
	UserStore interface {
		// CreateUser persists a new user. Usernames are unique;
		// duplicates fail with ErrExists.
		CreateUser(ctx context.Context, u core.User) error
		// FindUser looks a user up by username.
		FindUser(ctx context.Context, username string) (core.User, error)
		// ListUsers returns every registered user in insertion order.
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	TransactionStore interface {
		// AppendTransaction stores a transaction. A zero ID is
		// replaced with the owner's next sequential ID (max + 1).
		AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		// ListTransactions returns the owner's transactions in
		// insertion order.
		ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error)
		// GetTransaction fetches one transaction by owner and ID.
		GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error)
		// UpdateTransaction replaces the record matching (owner, ID).
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		// DeleteTransaction removes the record matching (owner, ID).
		DeleteTransaction(ctx context.Context, owner string, id int64) error
	}

	BudgetStore interface {
		// SetBudget inserts or overwrites the limit for the budget's
		// (owner, category, month) triple.
		SetBudget(ctx context.Context, b core.Budget) error
		// ListBudgets returns the owner's budgets for one month in
		// insertion order. An empty month matches every month.
		ListBudgets(ctx context.Context, owner, month string) ([]core.Budget, error)
		// DeleteBudget removes one (owner, category, month) row.
		DeleteBudget(ctx context.Context, owner, category, month string) error
	}

	GoalStore interface {
		AppendGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		ListGoals(ctx context.Context, owner string) ([]core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, owner string, id int64) error
	}

	RecurringStore interface {
		AppendRule(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error)
		ListRules(ctx context.Context, owner string) ([]core.RecurringRule, error)
		UpdateRule(ctx context.Context, r core.RecurringRule) error
		DeleteRule(ctx context.Context, owner string, id int64) error
	}

	ReminderStore interface {
		AppendReminder(ctx context.Context, r core.Reminder) (core.Reminder, error)
		ListReminders(ctx context.Context, owner string) ([]core.Reminder, error)
		DeleteReminder(ctx context.Context, owner string, id int64) error
	}
)

// Store is the unified persistence port: one object per process owning
// every collection.
type Store interface {
	UserStore
	TransactionStore
	BudgetStore
	GoalStore
	RecurringStore
	ReminderStore

	Close() error
}
