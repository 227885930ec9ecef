package analytics

import (
	"math"

	"finbook/internal/core"
	"finbook/internal/report"
)

// healthWindow is how many trailing months feed the score.
const healthWindow = 3

// maxVolatilityPenalty caps how much expense volatility can subtract.
const maxVolatilityPenalty = 40

// Health is the score plus the intermediate figures shown alongside it.
type Health struct {
	Months            int        `json:"months"`
	AvgIncome         core.Money `json:"avg_income"`
	AvgExpense        core.Money `json:"avg_expense"`
	AvgNet            core.Money `json:"avg_net"`
	SavingsRate       float64    `json:"savings_rate"`
	VolatilityPenalty float64    `json:"volatility_penalty"`
	Score             float64    `json:"score"`
}

// HealthScore computes a 0-100 financial health figure from the last
// up-to-three months of buckets: the savings rate (clamped to 0-100)
// minus a capped expense-volatility penalty. At least one month of
// history is required.
func HealthScore(buckets []report.MonthBucket) (Health, error) {
	if len(buckets) == 0 {
		return Health{}, ErrNotEnoughData
	}
	if len(buckets) > healthWindow {
		buckets = buckets[len(buckets)-healthWindow:]
	}
	n := len(buckets)

	// Volatility is normalized against mean expense + 1 in currency
	// units, so the math here runs on unit floats, not cents.
	var incomeSum, expenseSum float64
	expenses := make([]float64, 0, n)
	for _, b := range buckets {
		inc := float64(b.Income.Cents) / 100
		exp := float64(b.Expense.Cents) / 100
		incomeSum += inc
		expenseSum += exp
		expenses = append(expenses, exp)
	}
	avgIncome := incomeSum / float64(n)
	avgExpense := expenseSum / float64(n)
	avgNet := avgIncome - avgExpense

	savingsRate := 0.0
	if avgIncome > 0 {
		savingsRate = avgNet / avgIncome * 100
	}
	rateScore := clamp(savingsRate, 0, 100)

	var variance float64
	for _, e := range expenses {
		d := e - avgExpense
		variance += d * d
	}
	variance /= float64(n)
	penalty := math.Min(maxVolatilityPenalty,
		maxVolatilityPenalty*math.Sqrt(variance)/(avgExpense+1))

	return Health{
		Months:            n,
		AvgIncome:         core.Money{Cents: int64(math.Round(avgIncome * 100))},
		AvgExpense:        core.Money{Cents: int64(math.Round(avgExpense * 100))},
		AvgNet:            core.Money{Cents: int64(math.Round(avgNet * 100))},
		SavingsRate:       savingsRate,
		VolatilityPenalty: penalty,
		Score:             clamp(rateScore-penalty, 0, 100),
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
