package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/store"
)

// recurringDescription is used when a rule carries no description.
const recurringDescription = "(recurring)"

// RecurringService manages recurring rules and materializes the
// transactions they are due for.
type RecurringService struct {
	store  store.Store
	events Publisher
	now    func() time.Time
}

func NewRecurringService(s store.Store, events Publisher) *RecurringService {
	return &RecurringService{store: s, events: events, now: time.Now}
}

// Add stores a new rule. A zero Next date defaults to today.
func (s *RecurringService) Add(ctx context.Context, r core.RecurringRule) (core.RecurringRule, error) {
	r.ID = 0
	r.Category = core.NormalizeCategory(r.Category)
	r.CreatedAt = s.now()
	if r.Next.IsZero() {
		r.Next = core.DateOf(s.now())
	}
	if err := r.Validate(); err != nil {
		return core.RecurringRule{}, err
	}

	stored, err := s.store.AppendRule(ctx, r)
	if err != nil {
		return core.RecurringRule{}, fmt.Errorf("append rule: %w", err)
	}
	publishMutation(ctx, s.events, stored.Owner, "recurring", amqp.ActionCreated, stored.ID)
	return stored, nil
}

// List returns the owner's rules in insertion order.
func (s *RecurringService) List(ctx context.Context, owner string) ([]core.RecurringRule, error) {
	return s.store.ListRules(ctx, owner)
}

// Delete removes one rule.
func (s *RecurringService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteRule(ctx, owner, id); err != nil {
		return err
	}
	publishMutation(ctx, s.events, owner, "recurring", amqp.ActionDeleted, id)
	return nil
}

// ApplyDue materializes every occurrence due on or before today across
// the owner's rules, advancing each rule's next date past today. A rule
// that fell months behind catches up with one transaction per missed
// occurrence, dated when it would have happened.
func (s *RecurringService) ApplyDue(ctx context.Context, owner string, today core.Date) ([]core.Transaction, error) {
	rules, err := s.store.ListRules(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	var created []core.Transaction
	for _, r := range rules {
		advanced := false
		for !r.Next.After(today) {
			desc := r.Description
			if desc == "" {
				desc = recurringDescription
			}
			t := core.Transaction{
				Ref:         core.NewTransactionRef(),
				Owner:       r.Owner,
				Kind:        r.Kind,
				Amount:      r.Amount,
				Category:    r.Category,
				Date:        r.Next,
				Description: desc,
				CreatedAt:   r.Next.Time,
				UpdatedAt:   r.Next.Time,
			}
			stored, err := s.store.AppendTransaction(ctx, t)
			if err != nil {
				return created, fmt.Errorf("materialize rule %d: %w", r.ID, err)
			}
			created = append(created, stored)
			r.Next = Advance(r.Next, r.Frequency)
			advanced = true
		}
		if advanced {
			if err := s.store.UpdateRule(ctx, r); err != nil {
				return created, fmt.Errorf("advance rule %d: %w", r.ID, err)
			}
		}
	}

	if len(created) > 0 {
		slog.InfoContext(ctx, "Applied due recurring rules",
			"owner", owner,
			"occurrences", len(created),
			"as_of", today.ISO())
		publishMutation(ctx, s.events, owner, "transactions", amqp.ActionCreated, 0)
	}
	return created, nil
}

// Advance moves a date one step along a frequency. Daily adds a day,
// weekly adds seven. Monthly moves to the same day of the next month,
// clamped down to its last day, so the 31st lands on Feb 29 and stays
// on the 29th from then on.
func Advance(d core.Date, freq core.Frequency) core.Date {
	switch freq {
	case core.Daily:
		return core.DateOf(d.AddDate(0, 0, 1))
	case core.Weekly:
		return core.DateOf(d.AddDate(0, 0, 7))
	default:
		year, month := d.YearMonth()
		month++
		if month > 12 {
			month = 1
			year++
		}
		day := d.Day()
		if last := daysIn(year, month); day > last {
			day = last
		}
		return core.NewDate(year, month, day)
	}
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
