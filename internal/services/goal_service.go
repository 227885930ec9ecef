package services

import (
	"context"
	"fmt"
	"time"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/report"
	"finbook/internal/store"
)

// GoalProgress is a goal with its derived completion figures. Percent
// is not capped at 100: overshooting the target keeps counting.
type GoalProgress struct {
	core.Goal
	Percent float64 `json:"percent"`
	BarFill int     `json:"bar_fill"`
}

// GoalService manages savings goals and their progress increments.
type GoalService struct {
	store  store.Store
	events Publisher
	now    func() time.Time
}

func NewGoalService(s store.Store, events Publisher) *GoalService {
	return &GoalService{store: s, events: events, now: time.Now}
}

// Add stores a new goal. Saved starts at zero regardless of input.
func (s *GoalService) Add(ctx context.Context, g core.Goal) (core.Goal, error) {
	g.ID = 0
	g.Saved = core.Money{}
	g.CreatedAt = s.now()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}

	stored, err := s.store.AppendGoal(ctx, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("append goal: %w", err)
	}
	publishMutation(ctx, s.events, stored.Owner, "goals", amqp.ActionCreated, stored.ID)
	return stored, nil
}

// AddProgress increments a goal's saved amount. Only positive amounts
// are accepted; saved may end up past the target.
func (s *GoalService) AddProgress(ctx context.Context, owner string, id int64, amount core.Money) (core.Goal, error) {
	if err := amount.Validate(); err != nil {
		return core.Goal{}, err
	}
	goals, err := s.store.ListGoals(ctx, owner)
	if err != nil {
		return core.Goal{}, fmt.Errorf("list goals: %w", err)
	}
	for _, g := range goals {
		if g.ID != id {
			continue
		}
		g.Saved = g.Saved.Add(amount)
		if err := s.store.UpdateGoal(ctx, g); err != nil {
			return core.Goal{}, fmt.Errorf("update goal: %w", err)
		}
		publishMutation(ctx, s.events, owner, "goals", amqp.ActionUpdated, id)
		return g, nil
	}
	return core.Goal{}, store.ErrNotFound
}

// List returns the owner's goals with completion figures, in insertion
// order.
func (s *GoalService) List(ctx context.Context, owner string) ([]GoalProgress, error) {
	goals, err := s.store.ListGoals(ctx, owner)
	if err != nil {
		return nil, err
	}
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		pct := report.Percent(g.Saved, g.Target)
		out = append(out, GoalProgress{
			Goal:    g,
			Percent: pct,
			BarFill: report.BarFill(pct, report.BarWidth),
		})
	}
	return out, nil
}

// Delete removes one goal.
func (s *GoalService) Delete(ctx context.Context, owner string, id int64) error {
	if err := s.store.DeleteGoal(ctx, owner, id); err != nil {
		return err
	}
	publishMutation(ctx, s.events, owner, "goals", amqp.ActionDeleted, id)
	return nil
}
