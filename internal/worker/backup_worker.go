// Package worker contains the backup worker: it listens for mutation
// events and keeps a per-owner JSON snapshot of all collections on
// disk, so records survive a lost or corrupted primary store.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/log"
	"finbook/internal/store"
)

// Snapshot is one owner's complete data at a point in time.
type Snapshot struct {
	Owner        string               `json:"owner"`
	TakenAt      time.Time            `json:"taken_at"`
	Transactions []core.Transaction   `json:"transactions"`
	Budgets      []core.Budget        `json:"budgets"`
	Goals        []core.Goal          `json:"goals"`
	Recurring    []core.RecurringRule `json:"recurring"`
	Reminders    []core.Reminder      `json:"reminders"`
}

// BackupWorker snapshots owner data to a backup directory.
type BackupWorker struct {
	store store.Store
	dir   string
}

func NewBackupWorker(s store.Store, dir string) *BackupWorker {
	return &BackupWorker{store: s, dir: dir}
}

// HandleMutation re-snapshots the owner named in the message. Any
// mutation triggers a full owner snapshot; per-collection deltas are
// not worth the bookkeeping at this data size.
func (w *BackupWorker) HandleMutation(ctx context.Context, msg *amqp.MutationMessage) error {
	slog.InfoContext(ctx, "Processing mutation message",
		log.FieldComponent, log.ComponentBackup,
		log.FieldOwner, msg.Owner,
		"collection", msg.Collection,
		"action", msg.Action)

	if err := w.BackupOwner(ctx, msg.Owner); err != nil {
		return fmt.Errorf("backup owner %s: %w", msg.Owner, err)
	}
	return nil
}

// BackupOwner writes a snapshot of every collection the owner has. The
// file is written atomically so a crash never leaves a torn snapshot.
func (w *BackupWorker) BackupOwner(ctx context.Context, owner string) error {
	snap := Snapshot{Owner: owner, TakenAt: time.Now().UTC()}

	var err error
	if snap.Transactions, err = w.store.ListTransactions(ctx, owner); err != nil {
		return fmt.Errorf("list transactions: %w", err)
	}
	if snap.Budgets, err = w.store.ListBudgets(ctx, owner, ""); err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}
	if snap.Goals, err = w.store.ListGoals(ctx, owner); err != nil {
		return fmt.Errorf("list goals: %w", err)
	}
	if snap.Recurring, err = w.store.ListRules(ctx, owner); err != nil {
		return fmt.Errorf("list recurring rules: %w", err)
	}
	if snap.Reminders, err = w.store.ListReminders(ctx, owner); err != nil {
		return fmt.Errorf("list reminders: %w", err)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	final := filepath.Join(w.dir, owner+".json")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot written",
		log.FieldComponent, log.ComponentBackup,
		log.FieldOwner, owner,
		"path", final,
		"transactions", len(snap.Transactions))
	return nil
}

// BackupAll snapshots every registered owner. Used at startup and on a
// periodic timer as a catch-up for lost messages.
func (w *BackupWorker) BackupAll(ctx context.Context) error {
	users, err := w.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	errCount := 0
	for _, u := range users {
		if err := w.BackupOwner(ctx, u.Username); err != nil {
			slog.ErrorContext(ctx, "Owner backup failed",
				log.FieldComponent, log.ComponentBackup,
				log.FieldOwner, u.Username,
				log.FieldError, err)
			errCount++
		}
	}
	if errCount > 0 {
		return fmt.Errorf("%d of %d owner backups failed", errCount, len(users))
	}

	slog.InfoContext(ctx, "Full backup completed",
		log.FieldComponent, log.ComponentBackup,
		"owners", len(users))
	return nil
}
