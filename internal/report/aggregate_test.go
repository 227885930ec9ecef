package report

import (
	"testing"
	"time"

	"finbook/internal/core"
)

func txn(kind core.Kind, cents int64, category, date string) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{
		Owner:    "ada",
		Kind:     kind,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     d,
	}
}

func TestTotalsEmptyInput(t *testing.T) {
	s := Totals(nil)
	if s.Income.Cents != 0 || s.Expense.Cents != 0 || s.Net.Cents != 0 {
		t.Fatalf("empty input must yield zero totals, got %+v", s)
	}
}

func TestTotalsNetIdentityHoldsAtVolume(t *testing.T) {
	// 10,000 cent-valued entries, alternating kinds: the identity
	// income − expense == net must hold exactly with no drift.
	txns := make([]core.Transaction, 0, 10000)
	for i := 0; i < 10000; i++ {
		kind := core.Income
		if i%2 == 1 {
			kind = core.Expense
		}
		txns = append(txns, txn(kind, int64(i%97)+1, "Misc", "2025-01-15"))
	}
	s := Totals(txns)
	if s.Net.Cents != s.Income.Cents-s.Expense.Cents {
		t.Fatalf("net identity broken: %d - %d != %d", s.Income.Cents, s.Expense.Cents, s.Net.Cents)
	}
}

func TestMonthBucketsAscendingOrder(t *testing.T) {
	txns := []core.Transaction{
		txn(core.Income, 100, "Salary", "2025-03-01"),
		txn(core.Expense, 50, "Food", "2024-11-20"),
		txn(core.Income, 200, "Salary", "2025-01-05"),
		txn(core.Expense, 25, "Food", "2025-03-10"),
	}
	buckets := MonthBuckets(txns)
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	keys := []string{buckets[0].Key(), buckets[1].Key(), buckets[2].Key()}
	want := []string{"2024-11", "2025-01", "2025-03"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("bucket order = %v, want %v", keys, want)
		}
	}
	if buckets[2].Net.Cents != 75 {
		t.Errorf("2025-03 net = %d, want 75", buckets[2].Net.Cents)
	}
}

func TestCategoryTotalsSumToExpenseTotal(t *testing.T) {
	txns := []core.Transaction{
		txn(core.Expense, 1200, "Food", "2025-01-01"),
		txn(core.Expense, 800, "Rent", "2025-01-02"),
		txn(core.Expense, 500, "Food", "2025-01-03"),
		txn(core.Income, 99999, "Salary", "2025-01-04"), // excluded
		txn(core.Expense, 300, "", "2025-01-05"),        // Uncategorized
	}
	rows := CategoryTotals(txns)

	var sum int64
	for _, row := range rows {
		sum += row.Total.Cents
	}
	if expense := Totals(txns).Expense.Cents; sum != expense {
		t.Fatalf("category totals sum %d != expense total %d", sum, expense)
	}

	if rows[0].Category != "Food" || rows[0].Total.Cents != 1700 {
		t.Errorf("rows must sort by descending total, got %+v", rows[0])
	}
	found := false
	for _, row := range rows {
		if row.Category == core.UncategorizedLabel {
			found = true
		}
	}
	if !found {
		t.Error("blank category must collapse to Uncategorized")
	}
}

func TestPercentZeroTotalPolicy(t *testing.T) {
	if got := Percent(core.Money{Cents: 500}, core.Money{}); got != 0 {
		t.Errorf("Percent with zero total = %v, want 0", got)
	}
	if got := Percent(core.Money{Cents: 250}, core.Money{Cents: 1000}); got != 25 {
		t.Errorf("Percent(2.50, 10.00) = %v, want 25", got)
	}
}

func TestBarFill(t *testing.T) {
	tests := []struct {
		pct   float64
		width int
		want  int
	}{
		{0, 20, 0},
		{100, 20, 20},
		{50, 20, 10},
		{2.4, 20, 0},
		{2.6, 20, 1},
		{150, 20, 20},  // clamped high
		{-10, 20, 0},   // clamped low
		{33.3, 10, 3},
	}
	for _, tt := range tests {
		if got := BarFill(tt.pct, tt.width); got != tt.want {
			t.Errorf("BarFill(%v, %d) = %d, want %d", tt.pct, tt.width, got, tt.want)
		}
	}
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	txns := []core.Transaction{
		txn(core.Income, 100000, "Salary", "2025-06-01"),
		txn(core.Expense, 30000, "Rent", "2025-06-02"),
		txn(core.Income, 100000, "Salary", "2025-05-01"),
		txn(core.Expense, 5000, "Food", "2025-05-10"),
		txn(core.Expense, 1000, "Food", "2025-04-01"),
		txn(core.Expense, 2000, "Food", "2025-03-01"),
	}
	d := BuildDashboard(txns, now)

	if d.AllTime.Income.Cents != 200000 || d.AllTime.Expense.Cents != 38000 {
		t.Fatalf("all-time totals wrong: %+v", d.AllTime)
	}
	if d.Current.Net.Cents != 70000 {
		t.Errorf("current month net = %d, want 70000", d.Current.Net.Cents)
	}
	if len(d.Recent) != 5 {
		t.Fatalf("recent should cap at 5, got %d", len(d.Recent))
	}
	if d.Recent[0].Date.ISO() != "2025-06-02" && d.Recent[0].Date.ISO() != "2025-06-01" {
		t.Errorf("recent not sorted latest first: %s", d.Recent[0].Date.ISO())
	}
}

func TestTrendWindowAndScaling(t *testing.T) {
	txns := []core.Transaction{
		txn(core.Income, 10000, "Salary", "2025-01-01"),
		txn(core.Income, 20000, "Salary", "2025-02-01"),
		txn(core.Expense, 5000, "Rent", "2025-03-01"),
	}
	points := Trend(txns, 2)
	if len(points) != 2 {
		t.Fatalf("expected window of 2, got %d", len(points))
	}
	if points[0].Key != "2025-02" || points[1].Key != "2025-03" {
		t.Fatalf("unexpected window: %+v", points)
	}
	// 2025-02 has the max |net| (20000), so its bar is full.
	if points[0].BarFill != BarWidth {
		t.Errorf("max month bar = %d, want %d", points[0].BarFill, BarWidth)
	}
	if points[1].BarFill != 5 { // 5000/20000 = 25% of 20
		t.Errorf("scaled bar = %d, want 5", points[1].BarFill)
	}
}

func TestTrendAllZeroNetsDoesNotDivideByZero(t *testing.T) {
	txns := []core.Transaction{
		txn(core.Income, 1000, "Salary", "2025-01-01"),
		txn(core.Expense, 1000, "Food", "2025-01-02"),
	}
	points := Trend(txns, 6)
	if len(points) != 1 || points[0].BarFill != 0 {
		t.Fatalf("zero nets should yield zero bars: %+v", points)
	}
}
