package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendtrack/internal/core"
	"spendtrack/internal/insights"
	"spendtrack/internal/ledger"
	applog "spendtrack/internal/log"
)

type expenseRequest struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description string           `json:"description"`
	Category    string           `json:"category"`
	Notes       string           `json:"notes"`
}

type expenseResponse struct {
	Success         bool              `json:"success"`
	Expense         core.Expense      `json:"expense"`
	AutoCategorized bool              `json:"auto_categorized"`
	BudgetAlert     *core.BudgetAlert `json:"budget_alert"`
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount == nil || strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "amount and description are required")
		return
	}

	res, err := s.ledger.AddExpense(core.NewExpense{
		Amount:      *req.Amount,
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Notes:       sanitizeInput(req.Notes),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Expense recorded",
		applog.FieldExpenseID, res.Expense.ID,
		applog.FieldCategory, res.Expense.Category,
		applog.FieldAmount, res.Expense.Amount.String())
	if res.Alert != nil {
		logger.WarnContext(r.Context(), "Budget alert raised",
			applog.FieldCategory, res.Expense.Category,
			"level", res.Alert.Level)
	}

	writeJSON(w, http.StatusCreated, expenseResponse{
		Success:         true,
		Expense:         res.Expense,
		AutoCategorized: res.AutoCategorized,
		BudgetAlert:     res.Alert,
	})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := ledger.Filter{Category: strings.TrimSpace(q.Get("category"))}
	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		t, err := parseFilterDate(v, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date: expected YYYY-MM-DD or RFC 3339")
			return
		}
		filter.Start = t
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		t, err := parseFilterDate(v, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date: expected YYYY-MM-DD or RFC 3339")
			return
		}
		filter.End = t
	}

	items, summary := s.ledger.List(filter)
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses": items,
		"summary":  summary,
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusNotFound, core.ErrExpenseNotFound.Error())
		return
	}
	e, err := s.ledger.Get(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	id, ok := parseID(r)
	if !ok {
		writeError(w, http.StatusNotFound, core.ErrExpenseNotFound.Error())
		return
	}
	if err := s.ledger.Delete(id); err != nil {
		writeDomainError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Expense deleted", applog.FieldExpenseID, id)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"message":    fmt.Sprintf("Expense %d deleted successfully", id),
		"deleted_id": id,
	})
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	count := s.ledger.DeleteAll()
	logger.InfoContext(r.Context(), "All expenses deleted", applog.FieldCount, count)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "All expenses deleted successfully",
		"deleted_count": count,
	})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, ok := s.ledger.Analytics()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No expenses yet"})
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	items := s.ledger.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"insights":     insights.Generate(items, now),
		"anomalies":    insights.DetectAnomalies(items),
		"generated_at": now.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	prediction := insights.BuildPrediction(
		s.ledger.MonthlyTotals(),
		s.ledger.CategoryTotals(),
		s.ledger.Count(),
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"prediction":     prediction,
		"recommendation": insights.Recommendation(prediction.Total),
	})
}

type budgetRequest struct {
	Category string           `json:"category"`
	Amount   *decimal.Decimal `json:"amount"`
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	logger := applog.FromContext(r.Context())

	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Category) == "" || req.Amount == nil {
		writeError(w, http.StatusBadRequest, "category and amount are required")
		return
	}

	budget := core.Budget{Category: sanitizeInput(req.Category), Amount: *req.Amount}
	if err := s.ledger.SetBudget(budget); err != nil {
		writeDomainError(w, err)
		return
	}

	logger.InfoContext(r.Context(), "Budget set",
		applog.FieldCategory, budget.Category,
		applog.FieldAmount, budget.Amount.String())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Budget set for %s: $%s", budget.Category, budget.Amount.String()),
	})
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request) {
	status := s.ledger.BudgetStatus()
	if len(status) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"message": "No budgets set yet"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": status})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	_, summary := s.ledger.List(ledger.Filter{})
	writeJSON(w, http.StatusOK, map[string]any{
		"total_expenses": summary.Count,
		"total_spent":    summary.Total.Round(2),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	items := s.ledger.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"expenses":       items,
		"budgets":        s.ledger.Budgets(),
		"total_expenses": len(items),
		"exported_at":    s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":           "spendtrack API",
		"version":        "1.0",
		"total_expenses": s.ledger.Count(),
		"endpoints": map[string]string{
			"POST /expense":        "Add new expense",
			"GET /expenses":        "List expenses with optional filters",
			"GET /expense/{id}":    "Get specific expense",
			"DELETE /expense/{id}": "Delete specific expense",
			"DELETE /expenses/all": "Delete all expenses",
			"GET /analytics":       "Spending analytics",
			"GET /insights":        "Spending insights",
			"GET /predict":         "Predict next month spending",
			"POST /budget":         "Set category budget",
			"GET /budget-status":   "Check budget status",
			"GET /stats":           "Quick stats",
			"GET /export":          "Export all data",
		},
	})
}

// parseID extracts the numeric {id} path segment. A non-numeric segment
// is treated like an unknown identifier.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// parseFilterDate accepts YYYY-MM-DD or RFC 3339. A bare date used as an
// end bound covers the whole day.
func parseFilterDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
