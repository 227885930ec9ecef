// Package report is the aggregation engine: pure functions that turn an
// owner's transaction sequence into exact cent totals, per-month
// buckets, expense category breakdowns and the derived display values
// (percent shares, bar fill units). Nothing here touches storage or
// formatting for humans; handlers layer that on top.
package report

import (
	"math"
	"sort"
	"time"

	"finbook/internal/core"
)

// Summary is the exact income/expense/net triple for a transaction set.
type Summary struct {
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Net     core.Money `json:"net"`
}

// MonthBucket aggregates one calendar month.
type MonthBucket struct {
	Year    int        `json:"year"`
	Month   int        `json:"month"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
	Net     core.Money `json:"net"`
}

// Key renders the bucket month as YYYY-MM.
func (b MonthBucket) Key() string {
	return core.NewDate(b.Year, b.Month, 1).MonthKey()
}

// CategoryTotal is one row of an expense breakdown.
type CategoryTotal struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
	Percent  float64    `json:"percent"`
	BarFill  int        `json:"bar_fill"`
}

// BarWidth is the fixed width every bar fill value is computed against.
const BarWidth = 20

// Totals sums a transaction set. Amounts are integer cents, so the
// income − expense = net identity holds exactly at any volume. An empty
// set yields zeros.
func Totals(txns []core.Transaction) Summary {
	var s Summary
	for _, t := range txns {
		switch t.Kind {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(t.Amount)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// MonthBuckets partitions transactions by (year, month) of their date
// and returns the buckets in ascending chronological order. Every
// transaction lands in exactly one bucket; zero-dated records were
// already excluded at the store boundary.
func MonthBuckets(txns []core.Transaction) []MonthBucket {
	type ym struct{ y, m int }
	grouped := make(map[ym]*MonthBucket)
	for _, t := range txns {
		if t.Date.IsZero() {
			continue
		}
		y, m := t.Date.YearMonth()
		key := ym{y, m}
		b, ok := grouped[key]
		if !ok {
			b = &MonthBucket{Year: y, Month: m}
			grouped[key] = b
		}
		switch t.Kind {
		case core.Income:
			b.Income = b.Income.Add(t.Amount)
		case core.Expense:
			b.Expense = b.Expense.Add(t.Amount)
		}
	}

	out := make([]MonthBucket, 0, len(grouped))
	for _, b := range grouped {
		b.Net = b.Income.Sub(b.Expense)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// CategoryTotals sums expense transactions per category. Income is
// excluded, so the row totals always add up to the set's expense total.
// Blank categories collapse into the Uncategorized sentinel. Rows come
// back sorted by descending total with percent shares and bar fills
// precomputed against the expense total.
func CategoryTotals(txns []core.Transaction) []CategoryTotal {
	grouped := make(map[string]core.Money)
	var total core.Money
	for _, t := range txns {
		if t.Kind != core.Expense {
			continue
		}
		cat := t.Category
		if cat == "" {
			cat = core.UncategorizedLabel
		}
		grouped[cat] = grouped[cat].Add(t.Amount)
		total = total.Add(t.Amount)
	}

	out := make([]CategoryTotal, 0, len(grouped))
	for cat, amt := range grouped {
		pct := Percent(amt, total)
		out = append(out, CategoryTotal{
			Category: cat,
			Total:    amt,
			Percent:  pct,
			BarFill:  BarFill(pct, BarWidth),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total.Cents != out[j].Total.Cents {
			return out[i].Total.Cents > out[j].Total.Cents
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Percent returns part/total as a percentage, or 0 when the total is
// not positive. Division by zero is a policy decision here, not a
// runtime concern for callers.
func Percent(part, total core.Money) float64 {
	if total.Cents <= 0 {
		return 0
	}
	return float64(part.Cents) / float64(total.Cents) * 100
}

// BarFill converts a percentage into the number of filled units of a
// fixed-width bar, rounded half-up and clamped to [0, width].
func BarFill(pct float64, width int) int {
	filled := int(math.Round(float64(width) * pct / 100))
	if filled < 0 {
		return 0
	}
	if filled > width {
		return width
	}
	return filled
}

// InMonth filters a transaction set to one calendar month.
func InMonth(txns []core.Transaction, year, month int) []core.Transaction {
	var out []core.Transaction
	for _, t := range txns {
		y, m := t.Date.YearMonth()
		if y == year && m == month {
			out = append(out, t)
		}
	}
	return out
}

// Dashboard is the landing summary: all-time and current-month totals
// plus the most recent entries.
type Dashboard struct {
	AllTime Summary            `json:"all_time"`
	Year    int                `json:"year"`
	Month   int                `json:"month"`
	Current Summary            `json:"current_month"`
	Recent  []core.Transaction `json:"recent"`
}

// recentCount is how many latest transactions the dashboard shows.
const recentCount = 5

// BuildDashboard assembles the dashboard for a reference time.
func BuildDashboard(txns []core.Transaction, now time.Time) Dashboard {
	d := Dashboard{
		AllTime: Totals(txns),
		Year:    now.Year(),
		Month:   int(now.Month()),
	}
	d.Current = Totals(InMonth(txns, d.Year, d.Month))

	recent := append([]core.Transaction(nil), txns...)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[j].Date.Before(recent[i].Date)
	})
	if len(recent) > recentCount {
		recent = recent[:recentCount]
	}
	d.Recent = recent
	return d
}

// TrendPoint is one month of the spending trend, scaled for a
// horizontal bar against the largest absolute net in the window.
type TrendPoint struct {
	Key     string     `json:"month"`
	Net     core.Money `json:"net"`
	BarFill int        `json:"bar_fill"`
}

// Trend returns up to months of the most recent month buckets with bar
// fills proportional to |net| / max |net|.
func Trend(txns []core.Transaction, months int) []TrendPoint {
	buckets := MonthBuckets(txns)
	if months > 0 && len(buckets) > months {
		buckets = buckets[len(buckets)-months:]
	}
	var maxAbs int64 = 0
	for _, b := range buckets {
		abs := b.Net.Cents
		if abs < 0 {
			abs = -abs
		}
		if abs > maxAbs {
			maxAbs = abs
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	out := make([]TrendPoint, 0, len(buckets))
	for _, b := range buckets {
		abs := b.Net.Cents
		if abs < 0 {
			abs = -abs
		}
		pct := float64(abs) / float64(maxAbs) * 100
		out = append(out, TrendPoint{
			Key:     b.Key(),
			Net:     b.Net,
			BarFill: BarFill(pct, BarWidth),
		})
	}
	return out
}
