package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestinationsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"case insensitive", "Lisbon", "lisbon", true},
		{"whitespace", "  Lisbon ", "Lisbon", true},
		{"internal spacing", "New  York", "New York", true},
		{"different places", "Lisbon", "Porto", false},
		{"empty never matches", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, destinationsEqual(tt.a, tt.b))
		})
	}
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "USD", NormalizeCurrency("$"))
	assert.Equal(t, "EUR", NormalizeCurrency("€"))
	assert.Equal(t, "GBP", NormalizeCurrency(" gbp "))
	assert.Equal(t, "CHF", NormalizeCurrency("chf"))
	assert.Equal(t, "", NormalizeCurrency(""))
}

func TestBudgetsEqual(t *testing.T) {
	assert.True(t, budgetsEqual(&Budget{Amount: 3000, Currency: "USD"}, &Budget{Amount: 3000, Currency: "$"}))
	assert.True(t, budgetsEqual(&Budget{Amount: 3000}, &Budget{Amount: 3000, Currency: "USD"}), "missing currency matches any")
	assert.False(t, budgetsEqual(&Budget{Amount: 3000, Currency: "USD"}, &Budget{Amount: 3000, Currency: "EUR"}))
	assert.False(t, budgetsEqual(&Budget{Amount: 3000}, &Budget{Amount: 2500}))
	assert.False(t, budgetsEqual(nil, &Budget{Amount: 3000}))
}

func TestNormalizeDateToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-04-10", "2026-04-10"},
		{"April 10, 2026", "2026-04-10"},
		{"10 April 2026", "2026-04-10"},
		{"April 2026", "2026-04"},
		{"Apr 2026", "2026-04"},
		{"2026", "2026"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalizeDateToken(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := normalizeDateToken("next spring")
	assert.False(t, ok)
}

func TestNormalizeDateRangeClosesOpenEnd(t *testing.T) {
	got, ok := normalizeDateRange(DateRange{Start: "April 2026"})
	require.True(t, ok)
	assert.Equal(t, DateRange{Start: "2026-04", End: "2026-04"}, got)
}

func TestRangesCompatibleAcrossPrecision(t *testing.T) {
	month := &DateRange{Start: "2026-04", End: "2026-04"}
	days := &DateRange{Start: "2026-04-10", End: "2026-04-20"}
	other := &DateRange{Start: "2026-05", End: "2026-05"}

	assert.True(t, rangesCompatible(month, days), "month covers days within it")
	assert.True(t, rangesCompatible(days, month))
	assert.False(t, rangesCompatible(month, other))
	assert.False(t, rangesCompatible(nil, month))
}

func TestMergeRangePrecisionKeepsFinerTokens(t *testing.T) {
	month := &DateRange{Start: "2026-04", End: "2026-04"}
	days := &DateRange{Start: "2026-04-10", End: "2026-04-20"}

	merged := mergeRangePrecision(month, days)
	assert.Equal(t, &DateRange{Start: "2026-04-10", End: "2026-04-20"}, merged)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "2026-04", FormatDateRange(&DateRange{Start: "2026-04", End: "2026-04"}))
	assert.Equal(t, "2026-04-10 to 2026-04-20", FormatDateRange(&DateRange{Start: "2026-04-10", End: "2026-04-20"}))
	assert.Equal(t, "3000 USD", FormatBudget(&Budget{Amount: 3000, Currency: "usd"}))
	assert.Equal(t, "3000", FormatBudget(&Budget{Amount: 3000}))
}
