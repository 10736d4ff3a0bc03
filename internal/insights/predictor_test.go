package insights

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendtrack/internal/core"
)

func months(totals ...string) []core.MonthTotal {
	out := make([]core.MonthTotal, len(totals))
	for i, tot := range totals {
		out[i] = core.MonthTotal{
			Month: "2026-0" + string(rune('1'+i)),
			Total: decimal.RequireFromString(tot),
		}
	}
	return out
}

func TestPredictNextMonth(t *testing.T) {
	cases := []struct {
		name   string
		months []core.MonthTotal
		want   string
	}{
		{"empty history", nil, "0"},
		{"single month returns its total", months("123.45"), "123.45"},
		{"two months returns the mean", months("100", "200"), "150"},
		// avg = 200, recent avg = 200, no trend
		{"three equal-trend months", months("100", "200", "300"), "200"},
		// avg = 250, recent avg = (200+300+400)/3 = 300,
		// trend = (300-250)*0.3 = 15 -> 265
		{"four months with upward trend", months("100", "200", "300", "400"), "265"},
		// avg = 250, recent avg = 200, trend = -15 -> 235
		{"four months with downward trend", months("400", "300", "200", "100"), "235"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PredictNextMonth(tc.months)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"got %s, want %s", got, tc.want)
		})
	}
}

func TestConfidenceBoundaries(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{0, "low"},
		{10, "low"},
		{11, "medium"},
		{30, "medium"},
		{31, "high"},
		{100, "high"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Confidence(tc.count), "count %d", tc.count)
	}
}

func TestBuildPrediction(t *testing.T) {
	catTotals := map[string]decimal.Decimal{
		"food":      decimal.NewFromInt(300),
		"transport": decimal.NewFromInt(90),
	}
	p := BuildPrediction(months("100", "140", "150"), catTotals, 12)

	assert.Equal(t, "medium", p.Confidence)
	assert.Equal(t, 12, p.BasedOnTransactions)
	assert.True(t, p.ByCategory["food"].Equal(decimal.NewFromInt(100)))
	assert.True(t, p.ByCategory["transport"].Equal(decimal.NewFromInt(30)))
}

func TestBuildPredictionEmptyLedger(t *testing.T) {
	p := BuildPrediction(nil, map[string]decimal.Decimal{}, 0)
	require.True(t, p.Total.IsZero())
	assert.Equal(t, "low", p.Confidence)
	assert.Empty(t, p.ByCategory)
}

func TestRecommendation(t *testing.T) {
	assert.Equal(t,
		"Based on your spending patterns, budget $110.00 to be safe",
		Recommendation(decimal.NewFromInt(100)))
}
