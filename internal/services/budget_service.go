package services

import (
	"context"
	"fmt"

	"finbook/internal/amqp"
	"finbook/internal/core"
	"finbook/internal/report"
	"finbook/internal/store"
)

// Budget statuses as shown in progress rows.
const (
	BudgetStatusOK   = "OK"
	BudgetStatusOver = "OVER"
)

// BudgetProgress is one evaluated budget row: spend against limit for
// a category in the requested month.
type BudgetProgress struct {
	Category string     `json:"category"`
	Spent    core.Money `json:"spent"`
	Limit    core.Money `json:"limit"`
	Percent  float64    `json:"percent"`
	BarFill  int        `json:"bar_fill"`
	Status   string     `json:"status"`
}

// BudgetService sets spending limits and evaluates them against the
// month's expenses.
type BudgetService struct {
	store  store.Store
	events Publisher
}

func NewBudgetService(s store.Store, events Publisher) *BudgetService {
	return &BudgetService{store: s, events: events}
}

// Set inserts or overwrites the limit for (owner, category, month).
func (s *BudgetService) Set(ctx context.Context, b core.Budget) error {
	b.Category = core.NormalizeCategory(b.Category)
	if err := b.Validate(); err != nil {
		return err
	}
	if err := s.store.SetBudget(ctx, b); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	publishMutation(ctx, s.events, b.Owner, "budgets", amqp.ActionUpdated, 0)
	return nil
}

// Delete removes one budget row.
func (s *BudgetService) Delete(ctx context.Context, owner, category, month string) error {
	category = core.NormalizeCategory(category)
	if err := s.store.DeleteBudget(ctx, owner, category, month); err != nil {
		return err
	}
	publishMutation(ctx, s.events, owner, "budgets", amqp.ActionDeleted, 0)
	return nil
}

// Progress evaluates every budget the owner set for a month against
// that month's expenses. Rows come back in the budgets' insertion
// order. A budget is OVER once spending reaches the limit, not only
// when it exceeds it.
func (s *BudgetService) Progress(ctx context.Context, owner, month string) ([]BudgetProgress, error) {
	budgets, err := s.store.ListBudgets(ctx, owner, month)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	txns, err := s.store.ListTransactions(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	spent := map[string]int64{}
	for _, t := range txns {
		if t.Kind == core.Expense && t.Date.MonthKey() == month {
			spent[t.Category] += t.Amount.Cents
		}
	}

	rows := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		used := core.Money{Cents: spent[b.Category]}
		pct := report.Percent(used, b.Limit)
		status := BudgetStatusOK
		if used.Cents >= b.Limit.Cents {
			status = BudgetStatusOver
		}
		rows = append(rows, BudgetProgress{
			Category: b.Category,
			Spent:    used,
			Limit:    b.Limit,
			Percent:  pct,
			BarFill:  report.BarFill(pct, report.BarWidth),
			Status:   status,
		})
	}
	return rows, nil
}
