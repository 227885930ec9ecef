// Package jsonfile persists each collection as one JSON array file
// under a data directory, loaded fully at open and rewritten in full on
// every mutation. A missing or unreadable file is treated as an empty
// collection; individual records that fail validation are dropped at
// load with a counter, so historical junk never aborts a report.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"finbook/internal/core"
	"finbook/internal/store"
)

const (
	usersFile        = "users.json"
	transactionsFile = "transactions.json"
	budgetsFile      = "budgets.json"
	goalsFile        = "goals.json"
	recurringFile    = "recurring.json"
	remindersFile    = "reminders.json"
)

// Store owns the single in-memory copy of every collection and mirrors
// each mutation to disk with a whole-file rewrite. A failed rewrite
// rolls the in-memory copy back, so memory never drifts ahead of disk.
type Store struct {
	mu  sync.Mutex
	dir string

	users     []core.User
	txns      []core.Transaction
	budgets   []core.Budget
	goals     []core.Goal
	rules     []core.RecurringRule
	reminders []core.Reminder

	// Records dropped during load because they failed validation.
	Skipped int
}

var _ store.Store = (*Store)(nil)

// Open loads all collections from dir, creating it if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s := &Store{dir: dir}

	s.users = loadCollection[core.User](filepath.Join(dir, usersFile))

	raw := loadCollection[core.Transaction](filepath.Join(dir, transactionsFile))
	s.txns = make([]core.Transaction, 0, len(raw))
	for _, t := range raw {
		if err := t.Validate(); err != nil {
			s.Skipped++
			slog.Warn("Skipping invalid transaction record",
				"owner", t.Owner, "id", t.ID, "error", err)
			continue
		}
		s.txns = append(s.txns, t)
	}

	s.budgets = loadCollection[core.Budget](filepath.Join(dir, budgetsFile))
	s.goals = loadCollection[core.Goal](filepath.Join(dir, goalsFile))
	s.rules = loadCollection[core.RecurringRule](filepath.Join(dir, recurringFile))
	s.reminders = loadCollection[core.Reminder](filepath.Join(dir, remindersFile))

	if s.Skipped > 0 {
		slog.Warn("Loaded data directory with invalid records skipped",
			"dir", dir, "skipped", s.Skipped)
	}
	return s, nil
}

// loadCollection reads a JSON array file, treating absence or corruption
// as an empty collection.
func loadCollection[T any](path string) []T {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		slog.Warn("Collection file is corrupt, starting empty", "path", path, "error", err)
		return nil
	}
	return out
}

// saveCollection rewrites the whole file. Best-effort single-process
// overwrite; cross-process races are out of scope.
func (s *Store) saveCollection(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

// Dir returns the data directory backing this store.
func (s *Store) Dir() string { return s.dir }

// --- users ---

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return store.ErrExists
		}
	}
	s.users = append(s.users, u)
	if err := s.saveCollection(usersFile, s.users); err != nil {
		s.users = s.users[:len(s.users)-1]
		return err
	}
	return nil
}

func (s *Store) FindUser(_ context.Context, username string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.User(nil), s.users...), nil
}

// --- transactions ---

func (s *Store) AppendTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextTransactionID(t.Owner)
	}
	s.txns = append(s.txns, t)
	if err := s.saveCollection(transactionsFile, s.txns); err != nil {
		s.txns = s.txns[:len(s.txns)-1]
		return core.Transaction{}, err
	}
	return t, nil
}

// nextTransactionID returns max existing ID for the owner plus one.
// Callers must hold s.mu.
func (s *Store) nextTransactionID(owner string) int64 {
	var max int64
	for _, t := range s.txns {
		if t.Owner == owner && t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

func (s *Store) ListTransactions(_ context.Context, owner string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.txns {
		if t.Owner == owner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, owner string, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txns {
		if t.Owner == owner && t.ID == id {
			return t, nil
		}
	}
	return core.Transaction{}, store.ErrNotFound
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].Owner == t.Owner && s.txns[i].ID == t.ID {
			prev := s.txns[i]
			s.txns[i] = t
			if err := s.saveCollection(transactionsFile, s.txns); err != nil {
				s.txns[i] = prev
				return err
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.txns {
		if s.txns[i].Owner == owner && s.txns[i].ID == id {
			// The full slice expression forces a fresh backing array
			// so a failed save leaves the collection intact.
			next := append(s.txns[:i:i], s.txns[i+1:]...)
			if err := s.saveCollection(transactionsFile, next); err != nil {
				return err
			}
			s.txns = next
			return nil
		}
	}
	return store.ErrNotFound
}

// --- budgets ---

func (s *Store) SetBudget(_ context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].Owner == b.Owner &&
			s.budgets[i].Category == b.Category &&
			s.budgets[i].Month == b.Month {
			prev := s.budgets[i].Limit
			s.budgets[i].Limit = b.Limit
			if err := s.saveCollection(budgetsFile, s.budgets); err != nil {
				s.budgets[i].Limit = prev
				return err
			}
			return nil
		}
	}
	s.budgets = append(s.budgets, b)
	if err := s.saveCollection(budgetsFile, s.budgets); err != nil {
		s.budgets = s.budgets[:len(s.budgets)-1]
		return err
	}
	return nil
}

func (s *Store) ListBudgets(_ context.Context, owner, month string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.Owner == owner && (month == "" || b.Month == month) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, owner, category, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.budgets {
		if s.budgets[i].Owner == owner &&
			s.budgets[i].Category == category &&
			s.budgets[i].Month == month {
			next := append(s.budgets[:i:i], s.budgets[i+1:]...)
			if err := s.saveCollection(budgetsFile, next); err != nil {
				return err
			}
			s.budgets = next
			return nil
		}
	}
	return store.ErrNotFound
}

// --- goals ---

func (s *Store) AppendGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == 0 {
		var max int64
		for _, existing := range s.goals {
			if existing.Owner == g.Owner && existing.ID > max {
				max = existing.ID
			}
		}
		g.ID = max + 1
	}
	s.goals = append(s.goals, g)
	if err := s.saveCollection(goalsFile, s.goals); err != nil {
		s.goals = s.goals[:len(s.goals)-1]
		return core.Goal{}, err
	}
	return g, nil
}

func (s *Store) ListGoals(_ context.Context, owner string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Goal
	for _, g := range s.goals {
		if g.Owner == owner {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].Owner == g.Owner && s.goals[i].ID == g.ID {
			prev := s.goals[i]
			s.goals[i] = g
			if err := s.saveCollection(goalsFile, s.goals); err != nil {
				s.goals[i] = prev
				return err
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].Owner == owner && s.goals[i].ID == id {
			next := append(s.goals[:i:i], s.goals[i+1:]...)
			if err := s.saveCollection(goalsFile, next); err != nil {
				return err
			}
			s.goals = next
			return nil
		}
	}
	return store.ErrNotFound
}

// --- recurring rules ---

func (s *Store) AppendRule(_ context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		var max int64
		for _, existing := range s.rules {
			if existing.Owner == r.Owner && existing.ID > max {
				max = existing.ID
			}
		}
		r.ID = max + 1
	}
	s.rules = append(s.rules, r)
	if err := s.saveCollection(recurringFile, s.rules); err != nil {
		s.rules = s.rules[:len(s.rules)-1]
		return core.RecurringRule{}, err
	}
	return r, nil
}

func (s *Store) ListRules(_ context.Context, owner string) ([]core.RecurringRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.RecurringRule
	for _, r := range s.rules {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) UpdateRule(_ context.Context, r core.RecurringRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].Owner == r.Owner && s.rules[i].ID == r.ID {
			prev := s.rules[i]
			s.rules[i] = r
			if err := s.saveCollection(recurringFile, s.rules); err != nil {
				s.rules[i] = prev
				return err
			}
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *Store) DeleteRule(_ context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rules {
		if s.rules[i].Owner == owner && s.rules[i].ID == id {
			next := append(s.rules[:i:i], s.rules[i+1:]...)
			if err := s.saveCollection(recurringFile, next); err != nil {
				return err
			}
			s.rules = next
			return nil
		}
	}
	return store.ErrNotFound
}

// --- reminders ---

func (s *Store) AppendReminder(_ context.Context, r core.Reminder) (core.Reminder, error) {
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == 0 {
		var max int64
		for _, existing := range s.reminders {
			if existing.Owner == r.Owner && existing.ID > max {
				max = existing.ID
			}
		}
		r.ID = max + 1
	}
	s.reminders = append(s.reminders, r)
	if err := s.saveCollection(remindersFile, s.reminders); err != nil {
		s.reminders = s.reminders[:len(s.reminders)-1]
		return core.Reminder{}, err
	}
	return r, nil
}

func (s *Store) ListReminders(_ context.Context, owner string) ([]core.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Reminder
	for _, r := range s.reminders {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) DeleteReminder(_ context.Context, owner string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reminders {
		if s.reminders[i].Owner == owner && s.reminders[i].ID == id {
			next := append(s.reminders[:i:i], s.reminders[i+1:]...)
			if err := s.saveCollection(remindersFile, next); err != nil {
				return err
			}
			s.reminders = next
			return nil
		}
	}
	return store.ErrNotFound
}
