package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/store"
)

// dueSoonDays is the lookahead window for upcoming reminders.
const dueSoonDays = 7

// ReminderService manages dated notes and the due-soon window.
type ReminderService struct {
	store  store.Store
	events Publisher
	now    func() time.Time
}

func NewReminderService(s store.Store, events Publisher) *ReminderService {
	return &ReminderService{store: s, events: events, now: time.Now}
}

// Add stores a new reminder.
func (s *ReminderService) Add(ctx context.Context, r core.Reminder) (core.Reminder, error) {
	r.ID = 0
	r.CreatedAt = s.now()
	if err := r.Validate(); err != nil {
		return core.Reminder{}, err
	}

	stored, err := s.store.AppendReminder(ctx, r)
	if err != nil {
		return core.Reminder{}, fmt.Errorf("append reminder: %w", err)
	}
	publishMutation(ctx, s.events, stored.Owner, "reminders", amqp.ActionCreated, stored.ID)
	return stored, nil
}

// List returns the owner's reminders sorted by due date.
func (s *ReminderService) List(ctx context.Context, owner string) ([]core.Reminder, error) {
	reminders, err := s.store.ListReminders(ctx, owner)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(reminders, func(i, j int) bool {
		return reminders[i].Due.Before(reminders[j].Due)
	})
	return reminders, nil
}

// DueSoon returns reminders due between today and seven days out,
// inclusive on both ends, sorted by due date.
func (s *ReminderService) DueSoon(ctx context.Context, owner string, today core.Date) ([]core.Reminder, error) {
	reminders, err := s.List(ctx, owner)
	if err != nil {
		return nil, err
	}
	limit := core.DateOf(today.AddDate(0, 0, dueSoonDays))

	out := make([]core.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if r.Due.Before(today) || r.Due.After(limit) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Delete removes one reminder.
func (s *ReminderService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteReminder(ctx, owner, id); err != nil {
		return err
	}
	publishMutation(ctx, s.events, owner, "reminders", amqp.ActionDeleted, id)
	return nil
}
