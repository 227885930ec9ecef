// Package sqlite is the SQLite-backed store, selectable with
// DATA_BACKEND=sqlite for installations that outgrow flat JSON files.
// Per-owner record IDs follow the same max-plus-one sequence as the
// jsonfile backend so datasets can move between the two.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finbook/internal/core"
	"finbook/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

var _ store.Store = (*Repository)(nil)

// Open opens (and migrates) the database at dbPath, creating parent
// directories as needed.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(s string) core.Date {
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}
	}
	return d
}

// --- users ---

func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, currency, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.Currency, formatTime(u.CreatedAt))
	if err != nil {
		var exists bool
		checkErr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE username = ?)`, u.Username).Scan(&exists)
		if checkErr == nil && exists {
			return store.ErrExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) FindUser(ctx context.Context, username string) (core.User, error) {
	var u core.User
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, currency, created_at
		 FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Currency, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, store.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, password_hash, currency, created_at FROM users ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		var createdAt string
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Currency, &createdAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt = parseTime(createdAt)
		out = append(out, u)
	}
	return out, rows.Err()
}

// --- transactions ---

func (r *Repository) AppendTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if t.ID == 0 {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM transactions WHERE owner = ?`,
			t.Owner).Scan(&t.ID); err != nil {
			return core.Transaction{}, fmt.Errorf("next transaction id: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions
		 (owner, id, ref, kind, amount_cents, category, txn_date, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Owner, t.ID, t.Ref, string(t.Kind), t.Amount.Cents, t.Category,
		t.Date.ISO(), t.Description, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

const txnColumns = `owner, id, ref, kind, amount_cents, category, txn_date, description, created_at, updated_at`

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var t core.Transaction
	var kind, date, createdAt, updatedAt string
	err := scan(&t.Owner, &t.ID, &t.Ref, &kind, &t.Amount.Cents, &t.Category,
		&date, &t.Description, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Kind = core.Kind(kind)
	t.Date = parseDate(date)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

func (r *Repository) ListTransactions(ctx context.Context, owner string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE owner = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) GetTransaction(ctx context.Context, owner string, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE owner = ? AND id = ?`, owner, id)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET kind = ?, amount_cents = ?, category = ?, txn_date = ?, description = ?, updated_at = ?
		 WHERE owner = ? AND id = ?`,
		string(t.Kind), t.Amount.Cents, t.Category, t.Date.ISO(), t.Description,
		formatTime(t.UpdatedAt), t.Owner, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteTransaction(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// --- budgets ---

func (r *Repository) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (owner, category, month, limit_cents) VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner, category, month) DO UPDATE SET limit_cents = excluded.limit_cents`,
		b.Owner, b.Category, b.Month, b.Limit.Cents)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

func (r *Repository) ListBudgets(ctx context.Context, owner, month string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner, category, month, limit_cents FROM budgets
		 WHERE owner = ? AND (? = '' OR month = ?) ORDER BY rowid`, owner, month, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.Owner, &b.Category, &b.Month, &b.Limit.Cents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteBudget(ctx context.Context, owner, category, month string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE owner = ? AND category = ? AND month = ?`,
		owner, category, month)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

// --- goals ---

func (r *Repository) AppendGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Goal{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if g.ID == 0 {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM goals WHERE owner = ?`,
			g.Owner).Scan(&g.ID); err != nil {
			return core.Goal{}, fmt.Errorf("next goal id: %w", err)
		}
	}
	deadline := ""
	if !g.Deadline.IsZero() {
		deadline = g.Deadline.ISO()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO goals (owner, id, name, target_cents, saved_cents, deadline, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.Owner, g.ID, g.Name, g.Target.Cents, g.Saved.Cents, deadline, formatTime(g.CreatedAt))
	if err != nil {
		return core.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Goal{}, fmt.Errorf("commit: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGoals(ctx context.Context, owner string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner, id, name, target_cents, saved_cents, deadline, created_at
		 FROM goals WHERE owner = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		var g core.Goal
		var deadline, createdAt string
		if err := rows.Scan(&g.Owner, &g.ID, &g.Name, &g.Target.Cents, &g.Saved.Cents,
			&deadline, &createdAt); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		if deadline != "" {
			g.Deadline = parseDate(deadline)
		}
		g.CreatedAt = parseTime(createdAt)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateGoal(ctx context.Context, g core.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	deadline := ""
	if !g.Deadline.IsZero() {
		deadline = g.Deadline.ISO()
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET name = ?, target_cents = ?, saved_cents = ?, deadline = ?
		 WHERE owner = ? AND id = ?`,
		g.Name, g.Target.Cents, g.Saved.Cents, deadline, g.Owner, g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteGoal(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM goals WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

// --- recurring rules ---

func (r *Repository) AppendRule(ctx context.Context, rule core.RecurringRule) (core.RecurringRule, error) {
	if err := rule.Validate(); err != nil {
		return core.RecurringRule{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if rule.ID == 0 {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM recurring_rules WHERE owner = ?`,
			rule.Owner).Scan(&rule.ID); err != nil {
			return core.RecurringRule{}, fmt.Errorf("next rule id: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO recurring_rules
		 (owner, id, kind, amount_cents, category, frequency, next_date, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.Owner, rule.ID, string(rule.Kind), rule.Amount.Cents, rule.Category,
		string(rule.Frequency), rule.Next.ISO(), rule.Description, formatTime(rule.CreatedAt))
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("insert rule: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.RecurringRule{}, fmt.Errorf("commit: %w", err)
	}
	return rule, nil
}

func (r *Repository) ListRules(ctx context.Context, owner string) ([]core.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner, id, kind, amount_cents, category, frequency, next_date, description, created_at
		 FROM recurring_rules WHERE owner = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringRule
	for rows.Next() {
		var rule core.RecurringRule
		var kind, frequency, next, createdAt string
		if err := rows.Scan(&rule.Owner, &rule.ID, &kind, &rule.Amount.Cents, &rule.Category,
			&frequency, &next, &rule.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Kind = core.Kind(kind)
		rule.Frequency = core.Frequency(frequency)
		rule.Next = parseDate(next)
		rule.CreatedAt = parseTime(createdAt)
		out = append(out, rule)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateRule(ctx context.Context, rule core.RecurringRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules
		 SET kind = ?, amount_cents = ?, category = ?, frequency = ?, next_date = ?, description = ?
		 WHERE owner = ? AND id = ?`,
		string(rule.Kind), rule.Amount.Cents, rule.Category, string(rule.Frequency),
		rule.Next.ISO(), rule.Description, rule.Owner, rule.ID)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteRule(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_rules WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return requireRow(res)
}

// --- reminders ---

func (r *Repository) AppendReminder(ctx context.Context, rem core.Reminder) (core.Reminder, error) {
	if err := rem.Validate(); err != nil {
		return core.Reminder{}, err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if rem.ID == 0 {
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(id), 0) + 1 FROM reminders WHERE owner = ?`,
			rem.Owner).Scan(&rem.ID); err != nil {
			return core.Reminder{}, fmt.Errorf("next reminder id: %w", err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO reminders (owner, id, title, due_date, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rem.Owner, rem.ID, rem.Title, rem.Due.ISO(), rem.Notes, formatTime(rem.CreatedAt))
	if err != nil {
		return core.Reminder{}, fmt.Errorf("insert reminder: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Reminder{}, fmt.Errorf("commit: %w", err)
	}
	return rem, nil
}

func (r *Repository) ListReminders(ctx context.Context, owner string) ([]core.Reminder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner, id, title, due_date, notes, created_at
		 FROM reminders WHERE owner = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var out []core.Reminder
	for rows.Next() {
		var rem core.Reminder
		var due, createdAt string
		if err := rows.Scan(&rem.Owner, &rem.ID, &rem.Title, &due, &rem.Notes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		rem.Due = parseDate(due)
		rem.CreatedAt = parseTime(createdAt)
		out = append(out, rem)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteReminder(ctx context.Context, owner string, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	return requireRow(res)
}
