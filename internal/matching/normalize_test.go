package matching_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "vir sepa acme", want: "VIR SEPA ACME"},
		{in: "  Prélèvement  Société Générale ", want: "PRELEVEMENT SOCIETE GENERALE"},
		{in: "CB*AMAZON.FR--PAYMENTS", want: "CB AMAZON FR PAYMENTS"},
		{in: "Fact. n°0042", want: "FACT N 0042"},
		{in: "***", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, matching.Normalize(tt.in))
		})
	}
}

func TestMatchExpression(t *testing.T) {
	label := "VIR SEPA ACME CONSULTING FACT0042"

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "OrGroups", expr: "ACME, CONSULTING", want: true},
		{name: "AndTerms", expr: "ACME CONSULTING", want: true},
		{name: "AndTermMissing", expr: "ACME ZETA", want: false},
		{name: "SecondGroupMatches", expr: "ZETA, consulting", want: true},
		{name: "Substring", expr: "FACT00", want: true},
		{name: "Diacritics", expr: "Acmé", want: true},
		{name: "Empty", expr: " , ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matching.MatchExpression(label, tt.expr))
		})
	}
}

func TestEffectiveExpression(t *testing.T) {
	assert.Equal(t, "ACME", matching.EffectiveExpression("ACME", "Acme SA"))
	assert.Equal(t, "Acme SA", matching.EffectiveExpression("   ", "Acme SA"))
}

func TestAmountsEqual(t *testing.T) {
	tol := decimal.RequireFromString("0.01")
	ref := decimal.RequireFromString("1000.00")

	assert.True(t, matching.AmountsEqual(decimal.RequireFromString("1000.004"), ref, tol))
	assert.True(t, matching.AmountsEqual(decimal.RequireFromString("999.996"), ref, tol))
	assert.False(t, matching.AmountsEqual(decimal.RequireFromString("1000.02"), ref, tol))
	assert.False(t, matching.AmountsEqual(decimal.RequireFromString("1000.01"), ref, tol))
}
