package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeSide    = errors.New("debit and credit must not be negative")
	ErrAmountMismatch  = errors.New("amount must equal credit minus debit")
	ErrMissingDate     = errors.New("date is required")
	ErrDuplicateNumber = errors.New("duplicate line number")
)

// Transaction is one normalized bank statement row.
//
// Debit and Credit are always non-negative; Amount is signed (credit positive).
// LineNumber is assigned once at import and never regenerated.
type Transaction struct {
	LineNumber string
	Date       time.Time
	Label      string
	Debit      decimal.Decimal
	Credit     decimal.Decimal
	Amount     decimal.Decimal
}

// New builds a transaction from a signed amount, splitting it into debit and credit.
func New(date time.Time, label string, amount decimal.Decimal) Transaction {
	tx := Transaction{
		Date:   date,
		Label:  label,
		Amount: amount,
	}

	if amount.IsNegative() {
		tx.Debit = amount.Neg()
	} else {
		tx.Credit = amount
	}

	return tx
}

// IsCredit reports whether money came into the account.
func (t Transaction) IsCredit() bool {
	return t.Credit.IsPositive()
}

// IsDebit reports whether money left the account.
func (t Transaction) IsDebit() bool {
	return t.Debit.IsPositive()
}

// Abs returns the unsigned amount.
func (t Transaction) Abs() decimal.Decimal {
	return t.Amount.Abs()
}

// Validate checks the invariants the matchers rely on.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrMissingDate
	}

	if t.Debit.IsNegative() || t.Credit.IsNegative() {
		return ErrNegativeSide
	}

	if !t.Credit.Sub(t.Debit).Equal(t.Amount) {
		return fmt.Errorf("%w: credit %s, debit %s, amount %s", ErrAmountMismatch, t.Credit, t.Debit, t.Amount)
	}

	return nil
}

// DateRange returns the earliest and latest dates of txs.
func DateRange(txs []Transaction) (time.Time, time.Time) {
	if len(txs) == 0 {
		return time.Time{}, time.Time{}
	}

	minDate := txs[0].Date
	maxDate := txs[0].Date

	for _, t := range txs[1:] {
		if t.Date.Before(minDate) {
			minDate = t.Date
		}

		if t.Date.After(maxDate) {
			maxDate = t.Date
		}
	}

	return minDate, maxDate
}
