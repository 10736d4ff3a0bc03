package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendtrack/internal/ledger"
	applog "spendtrack/internal/log"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	s := NewServer(":0", ledger.New(), logger, 1000)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func addExpense(t *testing.T, s *Server, amount float64, description, category string) map[string]any {
	t.Helper()
	body := map[string]any{"amount": amount, "description": description}
	if category != "" {
		body["category"] = category
	}
	w := doJSON(t, s, http.MethodPost, "/expense", body)
	require.Equal(t, http.StatusCreated, w.Code)
	return decode(t, w)
}

func TestAddExpense(t *testing.T) {
	s := newTestServer(t)

	res := addExpense(t, s, 12.5, "Starbucks coffee and pastry", "")

	assert.Equal(t, true, res["success"])
	assert.Equal(t, true, res["auto_categorized"])
	assert.Nil(t, res["budget_alert"])

	exp := res["expense"].(map[string]any)
	assert.Equal(t, float64(1), exp["id"])
	assert.Equal(t, 12.5, exp["amount"]) // plain JSON number, not a string
	assert.Equal(t, "food", exp["category"])
	assert.NotEmpty(t, exp["date"])
}

func TestAddExpenseValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body any
	}{
		{"missing amount", map[string]any{"description": "lunch"}},
		{"missing description", map[string]any{"amount": 10}},
		{"zero amount", map[string]any{"amount": 0, "description": "lunch"}},
		{"negative amount", map[string]any{"amount": -3, "description": "lunch"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/expense", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w), "error")
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/expense", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()
		s.Handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	// nothing was appended
	w := doJSON(t, s, http.MethodGet, "/stats", nil)
	assert.Equal(t, float64(0), decode(t, w)["total_expenses"])
}

func TestAddExpenseBudgetAlert(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/budget", map[string]any{"category": "food", "amount": 100})
	require.Equal(t, http.StatusOK, w.Code)

	res := addExpense(t, s, 95, "pizza party", "")
	alert := res["budget_alert"].(map[string]any)
	assert.Equal(t, "warning", alert["level"])
	assert.Contains(t, alert["message"], "95.0%")
}

func TestListExpenses(t *testing.T) {
	s := newTestServer(t)
	addExpense(t, s, 10, "pizza", "")
	addExpense(t, s, 20, "taxi ride", "")
	addExpense(t, s, 40, "burger", "")

	t.Run("unfiltered keeps insertion order", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/expenses", nil)
		require.Equal(t, http.StatusOK, w.Code)
		res := decode(t, w)
		items := res["expenses"].([]any)
		require.Len(t, items, 3)
		assert.Equal(t, float64(1), items[0].(map[string]any)["id"])
		assert.Equal(t, float64(3), items[2].(map[string]any)["id"])

		summary := res["summary"].(map[string]any)
		assert.Equal(t, float64(3), summary["count"])
		assert.Equal(t, float64(70), summary["total"])
	})

	t.Run("category filter scopes the summary", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/expenses?category=food", nil)
		res := decode(t, w)
		require.Len(t, res["expenses"].([]any), 2)

		summary := res["summary"].(map[string]any)
		assert.Equal(t, float64(50), summary["total"])
		byCategory := summary["by_category"].(map[string]any)
		require.Len(t, byCategory, 1)
		assert.Equal(t, float64(50), byCategory["food"])
	})

	t.Run("invalid date filter", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/expenses?start_date=yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("date range excludes nothing today", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/expenses?start_date=2000-01-01&end_date=2100-01-01", nil)
		res := decode(t, w)
		assert.Len(t, res["expenses"].([]any), 3)
	})
}

func TestGetExpense(t *testing.T) {
	s := newTestServer(t)
	addExpense(t, s, 15, "cinema ticket", "")

	w := doJSON(t, s, http.MethodGet, "/expense/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cinema ticket", decode(t, w)["description"])

	w = doJSON(t, s, http.MethodGet, "/expense/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodGet, "/expense/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteExpense(t *testing.T) {
	s := newTestServer(t)
	addExpense(t, s, 10, "pizza", "")

	w := doJSON(t, s, http.MethodDelete, "/expense/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, s, http.MethodDelete, "/expense/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, float64(1), res["deleted_id"])

	w = doJSON(t, s, http.MethodDelete, "/expense/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the identifier is never reassigned
	next := addExpense(t, s, 5, "snack", "")
	assert.Equal(t, float64(2), next["expense"].(map[string]any)["id"])
}

func TestDeleteAllExpenses(t *testing.T) {
	s := newTestServer(t)
	addExpense(t, s, 10, "pizza", "")
	addExpense(t, s, 20, "taxi ride", "")

	w := doJSON(t, s, http.MethodDelete, "/expenses/all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["deleted_count"])

	w = doJSON(t, s, http.MethodGet, "/stats", nil)
	assert.Equal(t, float64(0), decode(t, w)["total_expenses"])
}

func TestAnalytics(t *testing.T) {
	s := newTestServer(t)

	t.Run("empty ledger", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/analytics", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "No expenses yet", decode(t, w)["message"])
	})

	t.Run("with data", func(t *testing.T) {
		addExpense(t, s, 60, "groceries", "food")
		addExpense(t, s, 40, "fuel", "transport")

		w := doJSON(t, s, http.MethodGet, "/analytics", nil)
		res := decode(t, w)

		overall := res["overall"].(map[string]any)
		assert.Equal(t, float64(100), overall["total_spent"])
		assert.Equal(t, float64(2), overall["total_transactions"])
		assert.Equal(t, float64(50), overall["average_expense"])

		byCategory := res["by_category"].(map[string]any)
		food := byCategory["food"].(map[string]any)
		assert.Equal(t, float64(60), food["total"])
		assert.Equal(t, float64(60), food["percentage"])

		assert.NotEmpty(t, res["monthly_trend"])
	})
}

func TestInsights(t *testing.T) {
	s := newTestServer(t)

	t.Run("empty ledger yields empty sequences", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/insights", nil)
		res := decode(t, w)
		assert.Empty(t, res["insights"])
		assert.Empty(t, res["anomalies"])
		assert.NotEmpty(t, res["generated_at"])
	})

	t.Run("with data", func(t *testing.T) {
		addExpense(t, s, 70, "groceries", "food")
		addExpense(t, s, 30, "fuel", "transport")

		w := doJSON(t, s, http.MethodGet, "/insights", nil)
		res := decode(t, w)
		entries := res["insights"].([]any)
		require.NotEmpty(t, entries)
		first := entries[0].(map[string]any)
		assert.Equal(t, "category_insight", first["type"])
		assert.Contains(t, first["message"], "food")
	})
}

func TestPredict(t *testing.T) {
	s := newTestServer(t)

	t.Run("empty ledger", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/predict", nil)
		res := decode(t, w)
		prediction := res["prediction"].(map[string]any)
		assert.Equal(t, float64(0), prediction["total"])
		assert.Equal(t, "low", prediction["confidence"])
		assert.Equal(t, float64(0), prediction["based_on_transactions"])
	})

	t.Run("confidence grows with history", func(t *testing.T) {
		for i := 0; i < 11; i++ {
			addExpense(t, s, 10, "daily lunch", "")
		}
		w := doJSON(t, s, http.MethodGet, "/predict", nil)
		res := decode(t, w)
		prediction := res["prediction"].(map[string]any)
		assert.Equal(t, "medium", prediction["confidence"])
		assert.Equal(t, float64(11), prediction["based_on_transactions"])
		assert.Contains(t, res["recommendation"], "budget $")
	})
}

func TestSetBudget(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodPost, "/budget", map[string]any{"category": "food", "amount": 500})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.Equal(t, true, res["success"])
	assert.Contains(t, res["message"], "food")

	cases := []any{
		map[string]any{"amount": 500},
		map[string]any{"category": "food"},
		map[string]any{"category": "food", "amount": 0},
		map[string]any{"category": "food", "amount": -10},
	}
	for _, body := range cases {
		w := doJSON(t, s, http.MethodPost, "/budget", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestBudgetStatus(t *testing.T) {
	s := newTestServer(t)

	t.Run("no budgets", func(t *testing.T) {
		w := doJSON(t, s, http.MethodGet, "/budget-status", nil)
		assert.Equal(t, "No budgets set yet", decode(t, w)["message"])
	})

	t.Run("alert flag at ninety percent", func(t *testing.T) {
		doJSON(t, s, http.MethodPost, "/budget", map[string]any{"category": "food", "amount": 100})
		addExpense(t, s, 90, "groceries", "food")

		w := doJSON(t, s, http.MethodGet, "/budget-status", nil)
		budgets := decode(t, w)["budgets"].(map[string]any)
		food := budgets["food"].(map[string]any)
		assert.Equal(t, float64(90), food["spent"])
		assert.Equal(t, float64(10), food["remaining"])
		assert.Equal(t, true, food["alert"])
	})
}

func TestExport(t *testing.T) {
	s := newTestServer(t)
	addExpense(t, s, 10, "pizza", "")
	doJSON(t, s, http.MethodPost, "/budget", map[string]any{"category": "food", "amount": 100})

	w := doJSON(t, s, http.MethodGet, "/export", nil)
	res := decode(t, w)
	assert.Len(t, res["expenses"].([]any), 1)
	assert.Equal(t, float64(1), res["total_expenses"])
	assert.NotEmpty(t, res["exported_at"])
	assert.Equal(t, float64(100), res["budgets"].(map[string]any)["food"])
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.Equal(t, "spendtrack API", res["name"])
	assert.NotEmpty(t, res["endpoints"])

	w = doJSON(t, s, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestRateLimitAppliesToMutations(t *testing.T) {
	logger := applog.New(applog.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	s := NewServer(":0", ledger.New(), logger, 2)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	addExpense(t, s, 10, "pizza", "")
	addExpense(t, s, 10, "pizza", "")

	w := doJSON(t, s, http.MethodPost, "/expense", map[string]any{"amount": 10, "description": "pizza"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// reads stay unthrottled
	for i := 0; i < 5; i++ {
		w := doJSON(t, s, http.MethodGet, "/expenses", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
