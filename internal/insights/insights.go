package insights

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

// Insight is one advisory entry derived from the current ledger state.
type Insight struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Icon    string `json:"icon"`
}

// Anomaly flags a recent record whose amount is far above the norm.
type Anomaly struct {
	Expense core.Expense `json:"expense"`
	Reason  string       `json:"reason"`
}

var savingsRate = decimal.RequireFromString("0.10")

// Generate produces the insight entries for the given records. Records
// must be in insertion order. An empty ledger yields an empty slice.
func Generate(items []core.Expense, now time.Time) []Insight {
	if len(items) == 0 {
		return []Insight{}
	}

	out := make([]Insight, 0, 3)

	total := decimal.Zero
	byCategory := make(map[string]decimal.Decimal)
	for _, e := range items {
		total = total.Add(e.Amount)
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}

	if top, ok := topCategory(byCategory); ok {
		pct := byCategory[top].Mul(decimal.NewFromInt(100)).Div(total)
		out = append(out, Insight{
			Type: "category_insight",
			Message: fmt.Sprintf("Your highest spending is on %s ($%s, %s%% of total)",
				top, byCategory[top].StringFixed(2), pct.StringFixed(1)),
			Icon: "📊",
		})
	}

	weekCutoff := now.AddDate(0, 0, -7)
	weekTotal := decimal.Zero
	weekSeen := false
	for _, e := range items {
		if e.Date.After(weekCutoff) {
			weekTotal = weekTotal.Add(e.Amount)
			weekSeen = true
		}
	}
	if weekSeen {
		// always divided by seven, even with fewer days of data
		dailyAvg := weekTotal.Div(decimal.NewFromInt(7))
		out = append(out, Insight{
			Type: "trend",
			Message: fmt.Sprintf("You've spent $%s this week ($%s/day average)",
				weekTotal.StringFixed(2), dailyAvg.StringFixed(2)),
			Icon: "📈",
		})
	}

	if total.Sign() > 0 {
		savings := total.Mul(savingsRate).Round(2)
		out = append(out, Insight{
			Type: "savings",
			Message: fmt.Sprintf("By reducing spending by 10%%, you could save $%s per month",
				savings.StringFixed(2)),
			Icon: "💰",
		})
	}

	return out
}

// topCategory picks the category with the largest subtotal. Equal
// subtotals are broken by the lexicographically smaller name so the
// result is deterministic.
func topCategory(byCategory map[string]decimal.Decimal) (string, bool) {
	var top string
	found := false
	for cat, total := range byCategory {
		if !found || total.GreaterThan(byCategory[top]) || (total.Equal(byCategory[top]) && cat < top) {
			top = cat
			found = true
		}
	}
	return top, found
}

// anomalyWindow bounds how many of the most recent records are checked.
const anomalyWindow = 20

// DetectAnomalies flags, among the 20 most recent records, any amount
// more than two sample standard deviations above the mean of all
// amounts. Fewer than ten records is too little history to judge.
func DetectAnomalies(items []core.Expense) []Anomaly {
	if len(items) < 10 {
		return []Anomaly{}
	}

	amounts := make([]float64, len(items))
	var sum float64
	for i, e := range items {
		amounts[i] = e.Amount.InexactFloat64()
		sum += amounts[i]
	}
	mean := sum / float64(len(amounts))

	var sq float64
	for _, a := range amounts {
		sq += (a - mean) * (a - mean)
	}
	stdev := math.Sqrt(sq / float64(len(amounts)-1))
	if stdev == 0 {
		return []Anomaly{}
	}

	threshold := mean + 2*stdev
	out := []Anomaly{}
	start := len(items) - anomalyWindow
	if start < 0 {
		start = 0
	}
	// most recent first
	for i := len(items) - 1; i >= start; i-- {
		e := items[i]
		if e.Amount.InexactFloat64() > threshold {
			out = append(out, Anomaly{
				Expense: e,
				Reason:  fmt.Sprintf("Unusually high amount ($%.2f vs average $%.2f)", e.Amount.InexactFloat64(), mean),
			})
		}
	}
	return out
}
