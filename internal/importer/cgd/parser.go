package cgd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches a known profile.
// Returns the matched profile, column index map, and header row index.
func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.TrimSpace(cell)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if profiles[i].matches(cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

// parseRows extracts transactions from data rows using the matched profile.
// headerRowNum is the 0-based index of the header in the original file (for error messages).
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]transaction.Transaction, error) {
	dateIdx := cols[p.DateCol]
	labelIdx := cols[p.LabelCol]

	var txs []transaction.Transaction

	for i, row := range rows {
		rowNum := headerRowNum + i + 2 // 1-based, skipping header

		date, ok := parseDate(cellValue(row, dateIdx), p.DateLayouts)
		if !ok {
			continue
		}

		label := cellValue(row, labelIdx)
		if label == "" {
			return nil, fmt.Errorf("row %d: missing label", rowNum)
		}

		debit, credit, ok := parseAmount(p, cols, row)
		if !ok {
			continue
		}

		txs = append(txs, transaction.Transaction{
			Date:   date,
			Label:  label,
			Debit:  debit,
			Credit: credit,
			Amount: credit.Sub(debit),
		})
	}

	return txs, nil
}

// parseDate returns false for empty or foreign cells, which marks footer rows.
func parseDate(s string, layouts []string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

// parseAmount extracts the non-negative debit and credit of a row based on the profile's amount mode.
func parseAmount(p *Profile, cols colIndex, row []string) (decimal.Decimal, decimal.Decimal, bool) {
	switch p.AmountMode {
	case amountSingle:
		return parseSingleAmount(row, cols[p.AmountCol])
	case amountSplit:
		return parseSplitAmount(row, cols[p.DebitCol], cols[p.CreditCol])
	}

	return decimal.Zero, decimal.Zero, false
}

// parseSingleAmount handles a single signed amount column.
func parseSingleAmount(row []string, idx int) (decimal.Decimal, decimal.Decimal, bool) {
	s := cellValue(row, idx)
	if s == "" {
		return decimal.Zero, decimal.Zero, false
	}

	amount, err := parseEuropeanAmount(s)
	if err != nil || amount.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}

	if amount.IsNegative() {
		return amount.Neg(), decimal.Zero, true
	}

	return decimal.Zero, amount, true
}

// parseSplitAmount handles separate debit/credit columns. Both sides are kept
// when a row fills both.
func parseSplitAmount(row []string, debitIdx, creditIdx int) (decimal.Decimal, decimal.Decimal, bool) {
	debit := splitSide(row, debitIdx)
	credit := splitSide(row, creditIdx)

	if debit.IsZero() && credit.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}

	return debit, credit, true
}

func splitSide(row []string, idx int) decimal.Decimal {
	s := cellValue(row, idx)
	if s == "" {
		return decimal.Zero
	}

	d, err := parseEuropeanAmount(s)
	if err != nil {
		return decimal.Zero
	}

	return d.Abs()
}

// cellValue safely gets a trimmed cell value from a row.
func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
