package core

import "github.com/shopspring/decimal"

// ListSummary aggregates a (possibly filtered) expense listing.
type ListSummary struct {
	Total      decimal.Decimal            `json:"total"`
	Count      int                        `json:"count"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
}

// CategoryStat is the per-category slice of the analytics snapshot.
// Percentage is the share of the grand total, rounded to one decimal.
type CategoryStat struct {
	Total      decimal.Decimal `json:"total"`
	Count      int             `json:"count"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Overall is the headline block of the analytics snapshot.
type Overall struct {
	TotalSpent        decimal.Decimal `json:"total_spent"`
	TotalTransactions int             `json:"total_transactions"`
	AverageExpense    decimal.Decimal `json:"average_expense"`
	Last30Days        decimal.Decimal `json:"last_30_days"`
}

// Analytics is a snapshot over the full ledger.
type Analytics struct {
	Overall      Overall                    `json:"overall"`
	ByCategory   map[string]CategoryStat    `json:"by_category"`
	MonthlyTrend map[string]decimal.Decimal `json:"monthly_trend"`
}

// MonthTotal is the spend aggregated for one calendar month. Month is a
// "YYYY-MM" key, so lexicographic order equals chronological order.
type MonthTotal struct {
	Month string
	Total decimal.Decimal
}

// BudgetStatus reports usage for one category with a configured budget.
type BudgetStatus struct {
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	Percentage decimal.Decimal `json:"percentage"`
	Alert      bool            `json:"alert"`
}

// BudgetAlert is the advisory raised when a category reaches 90% of its
// budget. It never blocks the expense from being recorded.
type BudgetAlert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
