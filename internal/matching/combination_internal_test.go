package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func decimals(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = decimal.RequireFromString(v)
	}

	return out
}

func TestFindSubset(t *testing.T) {
	tol := decimal.RequireFromString("0.01")

	tests := []struct {
		name    string
		amounts []decimal.Decimal
		target  string
		want    []int
	}{
		{name: "Single", amounts: decimals("10", "50", "20"), target: "50", want: []int{1}},
		{name: "SinglePreferredOverPair", amounts: decimals("30", "20", "50"), target: "50", want: []int{2}},
		{name: "FirstPair", amounts: decimals("30", "20", "25", "25"), target: "50", want: []int{0, 1}},
		{name: "Triple", amounts: decimals("10", "11", "12", "13"), target: "34", want: []int{0, 1, 3}},
		{name: "Quad", amounts: decimals("1", "2", "4", "8", "16"), target: "15", want: []int{0, 1, 2, 3}},
		{name: "FiveNeeded", amounts: decimals("1", "2", "4", "8", "16"), target: "31", want: nil},
		{name: "WithinTolerance", amounts: decimals("33.333", "16.67"), target: "50", want: []int{0, 1}},
		{name: "Empty", amounts: nil, target: "50", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findSubset(tt.amounts, decimal.RequireFromString(tt.target), tol, maxCombination)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetPeriod(t *testing.T) {
	paid := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		partner Partner
		want    time.Time
	}{
		{name: "NoTerms", partner: Partner{}, want: paid},
		{name: "DayTerms", partner: Partner{PaymentDelayDays: 30, GapDays: 5}, want: time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)},
		{name: "MonthTerms", partner: Partner{PaymentDelayDays: 45, MonthlyTerms: true}, want: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{name: "MonthTermsExact", partner: Partner{PaymentDelayDays: 30, MonthlyTerms: true}, want: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, targetPeriod(paid, tt.partner))
		})
	}
}
