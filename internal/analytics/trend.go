// Package analytics derives forward-looking figures from the report
// engine's month buckets: a least-squares net prediction for the next
// month and a bounded financial health score. Both operations report
// insufficient history as ErrNotEnoughData rather than failing hard, so
// callers can render a warning and move on.
package analytics

import (
	"errors"
	"math"

	"finbook/internal/core"
	"finbook/internal/report"
)

// ErrNotEnoughData marks a precondition failure: the owner has too few
// months of history for the requested computation.
var ErrNotEnoughData = errors.New("not enough monthly data")

// Prediction is the outcome of the linear trend fit.
type Prediction struct {
	Months    int        `json:"months"`
	Slope     core.Money `json:"slope"`
	Predicted core.Money `json:"predicted_net"`
}

// PredictNextNet fits net-per-month against the month index with
// ordinary least squares and extrapolates one step ahead. At least two
// months of buckets are required.
func PredictNextNet(buckets []report.MonthBucket) (Prediction, error) {
	n := len(buckets)
	if n < 2 {
		return Prediction{}, ErrNotEnoughData
	}

	// Work in float cents; the result is rounded back to a cent.
	var xMean, yMean float64
	for i, b := range buckets {
		xMean += float64(i)
		yMean += float64(b.Net.Cents)
	}
	xMean /= float64(n)
	yMean /= float64(n)

	var num, den float64
	for i, b := range buckets {
		dx := float64(i) - xMean
		num += dx * (float64(b.Net.Cents) - yMean)
		den += dx * dx
	}
	if den == 0 {
		// Unreachable with n >= 2 distinct indices; floor anyway.
		den = 1
	}
	slope := num / den
	intercept := yMean - slope*xMean
	predicted := intercept + slope*float64(n)

	return Prediction{
		Months:    n,
		Slope:     core.Money{Cents: int64(math.Round(slope))},
		Predicted: core.Money{Cents: int64(math.Round(predicted))},
	}, nil
}
