package view

import (
	"context"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

const dbTimeout = 5 * time.Second

// FormatAmount renders a signed amount with two decimals and an explicit sign.
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2)
	}

	return "+" + d.StringFixed(2)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}

var statusColors = map[matching.Status]lipgloss.Color{
	matching.StatusMatched:   lipgloss.Color("46"),
	matching.StatusUncertain: lipgloss.Color("214"),
	matching.StatusUnmatched: lipgloss.Color("196"),
}

func statusStyle(s matching.Status) string {
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(string(s))
}

func batchStatusLabel(s reconciliation.Status) string {
	if s == reconciliation.StatusValidated {
		return "validated"
	}

	return "in progress"
}

func errorStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(s)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}
