package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

// monthKey buckets a timestamp into its "YYYY-MM" calendar month.
const monthKeyLayout = "2006-01"

// Analytics computes the full-ledger snapshot: grand total, average per
// transaction, per-category breakdown with share of total, spend over the
// last 30 days, and the monthly trend. The second return is false when the
// ledger is empty, so callers never divide by zero.
func (l *Ledger) Analytics() (core.Analytics, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.items) == 0 {
		return core.Analytics{}, false
	}

	grand := decimal.Zero
	last30 := decimal.Zero
	cutoff := l.now().AddDate(0, 0, -30)

	type agg struct {
		total decimal.Decimal
		count int
	}
	byCategory := make(map[string]agg)
	byMonth := make(map[string]decimal.Decimal)

	for _, e := range l.items {
		grand = grand.Add(e.Amount)
		a := byCategory[e.Category]
		a.total = a.total.Add(e.Amount)
		a.count++
		byCategory[e.Category] = a
		key := e.Date.Format(monthKeyLayout)
		byMonth[key] = byMonth[key].Add(e.Amount)
		if e.Date.After(cutoff) {
			last30 = last30.Add(e.Amount)
		}
	}

	out := core.Analytics{
		Overall: core.Overall{
			TotalSpent:        grand.Round(2),
			TotalTransactions: len(l.items),
			AverageExpense:    grand.Div(decimal.NewFromInt(int64(len(l.items)))).Round(2),
			Last30Days:        last30.Round(2),
		},
		ByCategory:   make(map[string]core.CategoryStat, len(byCategory)),
		MonthlyTrend: make(map[string]decimal.Decimal, len(byMonth)),
	}
	for cat, a := range byCategory {
		out.ByCategory[cat] = core.CategoryStat{
			Total:      a.total.Round(2),
			Count:      a.count,
			Percentage: a.total.Mul(hundred).Div(grand).Round(1),
		}
	}
	for month, total := range byMonth {
		out.MonthlyTrend[month] = total.Round(2)
	}
	return out, true
}

// MonthlyTotals returns per-month spend in chronological order.
func (l *Ledger) MonthlyTotals() []core.MonthTotal {
	l.mu.Lock()
	defer l.mu.Unlock()

	byMonth := make(map[string]decimal.Decimal)
	for _, e := range l.items {
		key := e.Date.Format(monthKeyLayout)
		byMonth[key] = byMonth[key].Add(e.Amount)
	}

	out := make([]core.MonthTotal, 0, len(byMonth))
	for month, total := range byMonth {
		out = append(out, core.MonthTotal{Month: month, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// CategoryTotals returns the raw spend per category over the full ledger.
func (l *Ledger) CategoryTotals() map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]decimal.Decimal)
	for _, e := range l.items {
		out[e.Category] = out[e.Category].Add(e.Amount)
	}
	return out
}
