package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
)

var ErrUnknownFormat = errors.New("unknown export format")

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	return "text/csv; charset=utf-8"
}

// Record types of the matchedRecordType column.
const (
	RecordInvoice      = "invoice"
	RecordSubscription = "subscription"
	RecordDeclaration  = "declaration"
	RecordPartner      = "partner"
)

// Row is one flattened reconciliation line.
type Row struct {
	LineNumber        string
	Date              time.Time
	Label             string
	Debit             decimal.Decimal
	Credit            decimal.Decimal
	Status            matching.Status
	MatchedRecordRef  string
	MatchedRecordType string
	PartnerName       string
	MatchedAmount     decimal.NullDecimal
	Score             int
}

var Header = []string{
	"lineNumber", "date", "label", "debit", "credit", "status",
	"matchedRecordRef", "matchedRecordType", "partnerName", "matchedAmount", "score",
}

// Rows projects lines onto export rows, resolving references against snap.
func Rows(lines []matching.Line, snap *matching.Snapshot) []Row {
	rows := make([]Row, 0, len(lines))

	for _, l := range lines {
		t := l.Transaction
		row := Row{
			LineNumber: l.Number(),
			Date:       t.Date,
			Label:      t.Label,
			Debit:      t.Debit,
			Credit:     t.Credit,
			Status:     l.Status,
			Score:      l.Link.Score,
		}

		var (
			refs, types []string
			total       decimal.Decimal
			known       bool
		)

		for _, id := range l.Link.InvoiceIDs {
			inv, ok := snap.Invoice(id)
			if !ok {
				refs = append(refs, id.String())
				continue
			}

			refs = append(refs, inv.Number)
			total = total.Add(inv.Amount)
			known = true

			if row.PartnerName == "" {
				row.PartnerName = inv.PartnerName
			}
		}

		if len(l.Link.InvoiceIDs) > 0 {
			types = append(types, RecordInvoice)
		}

		if id := l.Link.SubscriptionID; id != nil {
			types = append(types, RecordSubscription)

			if sub, ok := snap.Subscription(*id); ok {
				refs = append(refs, sub.Name)

				if sub.MonthlyAmount.Valid {
					total = total.Add(sub.MonthlyAmount.Decimal)
					known = true
				}
			} else {
				refs = append(refs, id.String())
			}
		}

		if id := l.Link.DeclarationID; id != nil {
			types = append(types, RecordDeclaration)

			if d, ok := snap.Declaration(*id); ok {
				refs = append(refs, d.Name)

				if d.EstimatedAmount.Valid {
					total = total.Add(d.EstimatedAmount.Decimal)
					known = true
				}
			} else {
				refs = append(refs, id.String())
			}
		}

		if p := l.Link.Partner; p != nil {
			row.PartnerName = p.Name

			if len(types) == 0 {
				types = append(types, RecordPartner)
				refs = append(refs, p.Name)
			}
		}

		row.MatchedRecordRef = strings.Join(refs, "; ")
		row.MatchedRecordType = strings.Join(types, "+")

		if known {
			row.MatchedAmount = decimal.NewNullDecimal(total)
		}

		rows = append(rows, row)
	}

	return rows
}

func (r Row) fields() []string {
	amount := ""
	if r.MatchedAmount.Valid {
		amount = r.MatchedAmount.Decimal.StringFixed(2)
	}

	return []string{
		r.LineNumber,
		r.Date.Format(time.DateOnly),
		r.Label,
		r.Debit.StringFixed(2),
		r.Credit.StringFixed(2),
		string(r.Status),
		r.MatchedRecordRef,
		r.MatchedRecordType,
		r.PartnerName,
		amount,
		strconv.Itoa(r.Score),
	}
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range rows {
		if err := cw.Write(r.fields()); err != nil {
			return fmt.Errorf("writing line %s: %w", r.LineNumber, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteXLSX writes rows as a single-sheet workbook with numeric amount
// columns and a filterable header.
func WriteXLSX(w io.Writer, sheet string, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	lastCol, err := excelize.ColumnNumberToName(len(Header))
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		var amount any
		if r.MatchedAmount.Valid {
			amount = r.MatchedAmount.Decimal.InexactFloat64()
		}

		values := []any{
			r.LineNumber,
			r.Date.Format(time.DateOnly),
			r.Label,
			r.Debit.InexactFloat64(),
			r.Credit.InexactFloat64(),
			string(r.Status),
			r.MatchedRecordRef,
			r.MatchedRecordType,
			r.PartnerName,
			amount,
			r.Score,
		}

		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("writing line %s: %w", r.LineNumber, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 28); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "C", "C", 48); err != nil {
		return err
	}

	if len(rows) > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, len(rows)+1)
		if err := f.AutoFilter(sheet, ref, nil); err != nil {
			return fmt.Errorf("adding filter: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	return nil
}

// GenerateSummary renders a plain-text digest of a batch: one line per
// transaction followed by status totals.
func GenerateSummary(number string, rows []Row) string {
	var (
		sb     strings.Builder
		counts = map[matching.Status]int{}
	)

	fmt.Fprintf(&sb, "Batch %s\n\n", number)

	for _, r := range rows {
		counts[r.Status]++

		sign, amount := "+", r.Credit
		if r.Debit.IsPositive() {
			sign, amount = "-", r.Debit
		}

		ref := r.MatchedRecordRef
		if ref == "" {
			ref = "Sem correspondência"
		}

		fmt.Fprintf(&sb, "* %s | %s | %s%s € | %s | %s\n",
			r.Date.Format(time.DateOnly), r.Label, sign, amount.StringFixed(2), r.Status, ref)
	}

	fmt.Fprintf(&sb, "\n%d lines: %d matched, %d uncertain, %d unmatched\n", len(rows),
		counts[matching.StatusMatched], counts[matching.StatusUncertain], counts[matching.StatusUnmatched])

	return sb.String()
}

// Service exports batches through their open sessions, so unsaved edits
// are included.
type Service struct {
	batches *reconciliation.Service
}

func NewService(batches *reconciliation.Service) *Service {
	return &Service{batches: batches}
}

// Export writes the batch in the given format and returns the suggested file name.
func (s *Service) Export(ctx context.Context, batchID uuid.UUID, format Format, w io.Writer) (string, error) {
	sess, err := s.batches.Open(ctx, batchID)
	if err != nil {
		return "", fmt.Errorf("opening batch: %w", err)
	}

	b := sess.Batch()
	rows := Rows(sess.Lines(), sess.Snapshot())
	name := fmt.Sprintf("%s.%s", b.Number, format)

	switch format {
	case FormatCSV:
		err = WriteCSV(w, rows)
	case FormatXLSX:
		err = WriteXLSX(w, b.Number, rows)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return "", err
	}

	return name, nil
}

// Summary renders the text digest of a batch.
func (s *Service) Summary(ctx context.Context, batchID uuid.UUID) (string, error) {
	sess, err := s.batches.Open(ctx, batchID)
	if err != nil {
		return "", fmt.Errorf("opening batch: %w", err)
	}

	return GenerateSummary(sess.Batch().Number, Rows(sess.Lines(), sess.Snapshot())), nil
}
