// Package ledger implements the in-memory expense store. It owns the
// ordered record sequence and the per-category budget map, and is the
// sole mutator of both. All state is lost on restart.
package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
)

var (
	hundred        = decimal.NewFromInt(100)
	alertThreshold = decimal.NewFromInt(90)
)

// Filter narrows a listing. Zero times mean unbounded; both bounds are
// inclusive. An empty Category matches everything.
type Filter struct {
	Category string
	Start    time.Time
	End      time.Time
}

// AddResult is the outcome of a successful insertion.
type AddResult struct {
	Expense         core.Expense
	AutoCategorized bool
	Alert           *core.BudgetAlert
}

// Ledger is a mutex-guarded in-memory store. Every read-modify-write
// sequence (insert plus budget check) runs under the single lock, so
// concurrent handlers never observe a stale alert computation.
type Ledger struct {
	mu      sync.Mutex
	nextID  int64
	items   []core.Expense
	budgets map[string]decimal.Decimal
	now     func() time.Time
}

func New() *Ledger {
	return NewWithClock(time.Now)
}

// NewWithClock injects the time source, letting tests pin "now".
func NewWithClock(now func() time.Time) *Ledger {
	return &Ledger{
		budgets: make(map[string]decimal.Decimal),
		now:     now,
	}
}

// AddExpense validates, categorizes when needed, assigns the next
// identifier and the current time, and appends the record. Identifiers
// are strictly increasing and never reused, regardless of deletions.
// A budget alert on the record's category is advisory only.
func (l *Ledger) AddExpense(ne core.NewExpense) (AddResult, error) {
	if err := ne.Validate(); err != nil {
		return AddResult{}, err
	}

	category := strings.TrimSpace(ne.Category)
	auto := category == ""
	if auto {
		category = core.Categorize(ne.Description)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	e := core.Expense{
		ID:          l.nextID,
		Amount:      ne.Amount,
		Description: strings.TrimSpace(ne.Description),
		Category:    category,
		Date:        l.now(),
		Notes:       strings.TrimSpace(ne.Notes),
	}
	l.items = append(l.items, e)

	return AddResult{
		Expense:         e,
		AutoCategorized: auto,
		Alert:           l.budgetAlertLocked(category),
	}, nil
}

// budgetAlertLocked checks the post-insertion running total of a category
// against its budget, if one is set. Usage below 90% yields no alert.
func (l *Ledger) budgetAlertLocked(category string) *core.BudgetAlert {
	limit, ok := l.budgets[category]
	if !ok {
		return nil
	}
	spent := l.categoryTotalLocked(category)
	pct := spent.Mul(hundred).Div(limit)
	if pct.LessThan(alertThreshold) {
		return nil
	}
	level := "warning"
	if pct.GreaterThanOrEqual(hundred) {
		level = "critical"
	}
	return &core.BudgetAlert{
		Level: level,
		Message: fmt.Sprintf("Budget alert: %s%% of %s budget used ($%s/$%s)",
			pct.StringFixed(1), category, spent.StringFixed(2), limit.String()),
	}
}

func (l *Ledger) categoryTotalLocked(category string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.items {
		if e.Category == category {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// List returns the records matching all supplied filters in original
// insertion order, plus a summary computed over the filtered subsequence.
// An empty result is valid and yields zero totals.
func (l *Ledger) List(f Filter) ([]core.Expense, core.ListSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	matched := make([]core.Expense, 0, len(l.items))
	summary := core.ListSummary{
		Total:      decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
	}
	for _, e := range l.items {
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if !f.Start.IsZero() && e.Date.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && e.Date.After(f.End) {
			continue
		}
		matched = append(matched, e)
		summary.Total = summary.Total.Add(e.Amount)
		summary.ByCategory[e.Category] = summary.ByCategory[e.Category].Add(e.Amount)
	}
	summary.Count = len(matched)
	return matched, summary
}

// Get returns the record with the given identifier.
func (l *Ledger) Get(id int64) (core.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, core.ErrExpenseNotFound
}

// Delete removes the record with the given identifier. The identifier is
// never reassigned to a later insertion.
func (l *Ledger) Delete(id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.items {
		if e.ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return nil
		}
	}
	return core.ErrExpenseNotFound
}

// DeleteAll removes every record and reports how many were removed.
// Budgets and the identifier counter are untouched.
func (l *Ledger) DeleteAll() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.items)
	l.items = nil
	return n
}

// Count returns the number of stored records.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Snapshot returns a copy of all records in insertion order.
func (l *Ledger) Snapshot() []core.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Expense, len(l.items))
	copy(out, l.items)
	return out
}

// SetBudget sets the ceiling for a category, overwriting any prior limit.
func (l *Ledger) SetBudget(b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.budgets[strings.TrimSpace(b.Category)] = b.Amount
	return nil
}

// Budgets returns a copy of the budget map.
func (l *Ledger) Budgets() map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]decimal.Decimal, len(l.budgets))
	for cat, amount := range l.budgets {
		out[cat] = amount
	}
	return out
}

// BudgetStatus reports usage for every category with a configured budget.
// Spent covers the category's full ledger total, matching the running
// total the insertion-time alert is computed from.
func (l *Ledger) BudgetStatus() map[string]core.BudgetStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	status := make(map[string]core.BudgetStatus, len(l.budgets))
	for cat, limit := range l.budgets {
		spent := l.categoryTotalLocked(cat)
		pct := spent.Mul(hundred).Div(limit)
		status[cat] = core.BudgetStatus{
			Budget:     limit,
			Spent:      spent.Round(2),
			Remaining:  limit.Sub(spent).Round(2),
			Percentage: pct.Round(1),
			Alert:      pct.GreaterThanOrEqual(alertThreshold),
		}
	}
	return status
}
