// Package insights derives advisory views from ledger data: the
// next-month spend estimate, human-readable insight entries, and
// anomaly flags. Everything here is a pure function of its inputs.
package insights

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

var trendWeight = decimal.RequireFromString("0.3")

// Prediction is the next-month spend estimate.
type Prediction struct {
	Total               decimal.Decimal            `json:"total"`
	ByCategory          map[string]decimal.Decimal `json:"by_category"`
	Confidence          string                     `json:"confidence"`
	BasedOnTransactions int                        `json:"based_on_transactions"`
}

// PredictNextMonth estimates next month's spend from per-month totals.
// With fewer than three months of history the plain mean is returned;
// otherwise the mean is nudged toward the average of the three most
// recent calendar months, weighted at 0.3. Months must be in
// chronological order. An empty history yields zero.
func PredictNextMonth(months []core.MonthTotal) decimal.Decimal {
	if len(months) == 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	for _, m := range months {
		sum = sum.Add(m.Total)
	}
	average := sum.Div(decimal.NewFromInt(int64(len(months))))

	if len(months) < 3 {
		return average.Round(2)
	}

	recent := decimal.Zero
	for _, m := range months[len(months)-3:] {
		recent = recent.Add(m.Total)
	}
	recentAverage := recent.Div(decimal.NewFromInt(3))

	trend := recentAverage.Sub(average).Mul(trendWeight)
	return average.Add(trend).Round(2)
}

// Confidence grades a prediction by how many transactions back it:
// more than 30 is high, more than 10 is medium, anything less is low.
func Confidence(txCount int) string {
	switch {
	case txCount > 30:
		return "high"
	case txCount > 10:
		return "medium"
	default:
		return "low"
	}
}

// BuildPrediction assembles the full prediction payload, including the
// naive per-category estimate (category total spread over the number of
// distinct months on record).
func BuildPrediction(months []core.MonthTotal, categoryTotals map[string]decimal.Decimal, txCount int) Prediction {
	monthCount := int64(len(months))
	if monthCount < 1 {
		monthCount = 1
	}

	byCategory := make(map[string]decimal.Decimal, len(categoryTotals))
	for cat, total := range categoryTotals {
		byCategory[cat] = total.Div(decimal.NewFromInt(monthCount)).Round(2)
	}

	return Prediction{
		Total:               PredictNextMonth(months),
		ByCategory:          byCategory,
		Confidence:          Confidence(txCount),
		BasedOnTransactions: txCount,
	}
}

// Recommendation renders the budgeting advice attached to a prediction:
// the estimate plus a 10% safety margin.
func Recommendation(prediction decimal.Decimal) string {
	padded := prediction.Mul(decimal.RequireFromString("1.1")).Round(2)
	return fmt.Sprintf("Based on your spending patterns, budget $%s to be safe", padded.StringFixed(2))
}
