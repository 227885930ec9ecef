package analytics

import (
	"errors"
	"math"
	"testing"

	"finbook/internal/report"
)

func TestHealthScoreBreakEvenFlat(t *testing.T) {
	// Equal income and expense every month: savings rate 0, zero
	// variance, so zero penalty and a score of exactly 0.
	buckets := []report.MonthBucket{
		bucket(2025, 1, 100000, 100000),
		bucket(2025, 2, 100000, 100000),
		bucket(2025, 3, 100000, 100000),
	}
	h, err := HealthScore(buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.SavingsRate != 0 {
		t.Errorf("savings rate = %v, want 0", h.SavingsRate)
	}
	if h.VolatilityPenalty != 0 {
		t.Errorf("penalty = %v, want 0", h.VolatilityPenalty)
	}
	if h.Score != 0 {
		t.Errorf("score = %v, want 0", h.Score)
	}
}

func TestHealthScoreSteadySaver(t *testing.T) {
	// Saving half of income with flat expenses: score equals the
	// savings rate untouched by volatility.
	buckets := []report.MonthBucket{
		bucket(2025, 1, 200000, 100000),
		bucket(2025, 2, 200000, 100000),
		bucket(2025, 3, 200000, 100000),
	}
	h, err := HealthScore(buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(h.SavingsRate-50) > 1e-9 {
		t.Errorf("savings rate = %v, want 50", h.SavingsRate)
	}
	if h.Score != 50 {
		t.Errorf("score = %v, want 50", h.Score)
	}
	if h.AvgNet.Cents != 100000 {
		t.Errorf("avg net = %s, want 1000.00", h.AvgNet)
	}
}

func TestHealthScoreVolatilityPenaltyCapped(t *testing.T) {
	// Wildly swinging expenses against zero income: the penalty is
	// capped at 40 and the floor clamps the score to 0.
	buckets := []report.MonthBucket{
		bucket(2025, 1, 0, 1),
		bucket(2025, 2, 0, 100000000),
		bucket(2025, 3, 0, 1),
	}
	h, err := HealthScore(buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.VolatilityPenalty != maxVolatilityPenalty {
		t.Errorf("penalty = %v, want capped at %d", h.VolatilityPenalty, maxVolatilityPenalty)
	}
	if h.Score != 0 {
		t.Errorf("score = %v, want 0", h.Score)
	}
}

func TestHealthScoreNegativeRateFloorsAtZero(t *testing.T) {
	// Spending double the income: raw rate is -100 but the score is
	// bounded below at 0.
	buckets := []report.MonthBucket{
		bucket(2025, 1, 50000, 100000),
	}
	h, err := HealthScore(buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.SavingsRate != -100 {
		t.Errorf("raw savings rate = %v, want -100", h.SavingsRate)
	}
	if h.Score != 0 {
		t.Errorf("score = %v, want 0", h.Score)
	}
}

func TestHealthScoreUsesLastThreeMonthsOnly(t *testing.T) {
	buckets := []report.MonthBucket{
		bucket(2024, 1, 0, 999999), // outside the window
		bucket(2025, 1, 100000, 50000),
		bucket(2025, 2, 100000, 50000),
		bucket(2025, 3, 100000, 50000),
	}
	h, err := HealthScore(buckets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Months != 3 {
		t.Errorf("months = %d, want 3", h.Months)
	}
	if h.AvgExpense.Cents != 50000 {
		t.Errorf("avg expense = %s; old months must not leak in", h.AvgExpense)
	}
}

func TestHealthScoreRequiresData(t *testing.T) {
	if _, err := HealthScore(nil); !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("expected ErrNotEnoughData, got %v", err)
	}
}
