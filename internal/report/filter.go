package report

import (
	"fmt"
	"sort"
	"strings"

	"finbook/internal/core"
)

// Filter describes a transaction search. All clauses are optional
// strings straight from user input; a clause that fails to parse is
// skipped with a warning instead of failing the whole search.
type Filter struct {
	Start     string // YYYY-MM-DD inclusive
	End       string // YYYY-MM-DD inclusive
	Category  string // case-insensitive substring
	MinAmount string // decimal
	MaxAmount string // decimal
	SortBy    string // date | amount | category | kind (default date)
	Order     string // asc | desc (default asc)
}

// Search applies the filter and returns matches plus warnings for any
// ignored clauses.
func Search(txns []core.Transaction, f Filter) ([]core.Transaction, []string) {
	var warnings []string

	var start, end core.Date
	if s := strings.TrimSpace(f.Start); s != "" {
		if d, err := core.ParseDate(s); err == nil {
			start = d
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid start date %q, ignoring", s))
		}
	}
	if s := strings.TrimSpace(f.End); s != "" {
		if d, err := core.ParseDate(s); err == nil {
			end = d
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid end date %q, ignoring", s))
		}
	}

	minSet, maxSet := false, false
	var min, max core.Money
	if s := strings.TrimSpace(f.MinAmount); s != "" {
		if m, err := core.ParseSignedMoney(s); err == nil {
			min, minSet = m, true
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid min amount %q, ignoring", s))
		}
	}
	if s := strings.TrimSpace(f.MaxAmount); s != "" {
		if m, err := core.ParseSignedMoney(s); err == nil {
			max, maxSet = m, true
		} else {
			warnings = append(warnings, fmt.Sprintf("invalid max amount %q, ignoring", s))
		}
	}

	category := strings.ToLower(strings.TrimSpace(f.Category))

	var out []core.Transaction
	for _, t := range txns {
		if !start.IsZero() && t.Date.Before(start) {
			continue
		}
		if !end.IsZero() && t.Date.After(end) {
			continue
		}
		if category != "" && !strings.Contains(strings.ToLower(t.Category), category) {
			continue
		}
		if minSet && t.Amount.Cents < min.Cents {
			continue
		}
		if maxSet && t.Amount.Cents > max.Cents {
			continue
		}
		out = append(out, t)
	}

	sortTransactions(out, f.SortBy, f.Order)
	return out, warnings
}

func sortTransactions(txns []core.Transaction, by, order string) {
	desc := strings.EqualFold(strings.TrimSpace(order), "desc")

	var less func(a, b core.Transaction) bool
	switch strings.ToLower(strings.TrimSpace(by)) {
	case "amount":
		less = func(a, b core.Transaction) bool { return a.Amount.Cents < b.Amount.Cents }
	case "category":
		less = func(a, b core.Transaction) bool { return a.Category < b.Category }
	case "kind":
		less = func(a, b core.Transaction) bool { return a.Kind < b.Kind }
	default: // date
		less = func(a, b core.Transaction) bool { return a.Date.Before(b.Date) }
	}

	sort.SliceStable(txns, func(i, j int) bool {
		if desc {
			return less(txns[j], txns[i])
		}
		return less(txns[i], txns[j])
	})
}
