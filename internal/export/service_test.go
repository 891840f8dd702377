package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/reconciler/internal/export"
	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func txn(number string, d int, label, signed string) transaction.Transaction {
	t := transaction.New(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC), label, dec(signed))
	t.LineNumber = number

	return t
}

type fixture struct {
	snap  *matching.Snapshot
	lines []matching.Line
}

func newFixture() fixture {
	inv1 := matching.Invoice{ID: uuid.New(), Number: "F-001", Amount: dec("30"), PartnerName: "Acme"}
	inv2 := matching.Invoice{ID: uuid.New(), Number: "F-002", Amount: dec("20"), PartnerName: "Acme"}
	sub := matching.Subscription{ID: uuid.New(), Name: "Internet", MonthlyAmount: decimal.NewNullDecimal(dec("29.99"))}
	decl := matching.Declaration{ID: uuid.New(), Name: "TVA"}
	bank := &matching.PartnerRef{ID: uuid.New(), Name: "Banque", Category: matching.PartnerBank}

	lines := []matching.Line{
		{Transaction: txn("L1", 5, "VIR ACME", "50"), Link: matching.Link{InvoiceIDs: []uuid.UUID{inv1.ID, inv2.ID}, Score: 100}},
		{Transaction: txn("L2", 6, "PRLV BOX", "-29.99"), Link: matching.Link{SubscriptionID: &sub.ID, Score: 90}},
		{Transaction: txn("L3", 7, "DGFIP TVA", "-400"), Link: matching.Link{DeclarationID: &decl.ID, Score: 75}},
		{Transaction: txn("L4", 8, "FRAIS TENUE", "-3.50"), Link: matching.Link{Partner: bank}},
		{Transaction: txn("L5", 9, "CB CAFE", "-2.10")},
	}

	for i := range lines {
		lines[i].Status = matching.Derive(lines[i].Link)
	}

	return fixture{
		snap: &matching.Snapshot{
			Invoices:      []matching.Invoice{inv1, inv2},
			Subscriptions: []matching.Subscription{sub},
			Declarations:  []matching.Declaration{decl},
		},
		lines: lines,
	}
}

func TestRows(t *testing.T) {
	f := newFixture()
	rows := export.Rows(f.lines, f.snap)
	require.Len(t, rows, 5)

	tests := []struct {
		name        string
		row         export.Row
		wantRef     string
		wantType    string
		wantAmount  string
		wantStatus  matching.Status
		wantPartner string
	}{
		{name: "Invoices", row: rows[0], wantRef: "F-001; F-002", wantType: "invoice", wantAmount: "50", wantStatus: matching.StatusMatched, wantPartner: "Acme"},
		{name: "Subscription", row: rows[1], wantRef: "Internet", wantType: "subscription", wantAmount: "29.99", wantStatus: matching.StatusMatched},
		{name: "DeclarationWithoutEstimate", row: rows[2], wantRef: "TVA", wantType: "declaration", wantStatus: matching.StatusMatched},
		{name: "PartnerOnly", row: rows[3], wantRef: "Banque", wantType: "partner", wantStatus: matching.StatusUncertain, wantPartner: "Banque"},
		{name: "Unmatched", row: rows[4], wantStatus: matching.StatusUnmatched},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRef, tt.row.MatchedRecordRef)
			assert.Equal(t, tt.wantType, tt.row.MatchedRecordType)
			assert.Equal(t, tt.wantStatus, tt.row.Status)
			assert.Equal(t, tt.wantPartner, tt.row.PartnerName)

			if tt.wantAmount == "" {
				assert.False(t, tt.row.MatchedAmount.Valid)
				return
			}

			require.True(t, tt.row.MatchedAmount.Valid)
			assert.True(t, dec(tt.wantAmount).Equal(tt.row.MatchedAmount.Decimal))
		})
	}
}

func TestWriteCSV(t *testing.T) {
	f := newFixture()

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, export.Rows(f.lines, f.snap)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 6)

	assert.Equal(t, export.Header, records[0])
	assert.Equal(t, []string{
		"L2", "2024-01-06", "PRLV BOX", "29.99", "0.00", "matched",
		"Internet", "subscription", "", "29.99", "90",
	}, records[2])
	assert.Equal(t, "", records[5][9], "no matched amount for an unmatched line")
}

func TestWriteXLSX(t *testing.T) {
	f := newFixture()

	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, "RB-20240131-ABC123", export.Rows(f.lines, f.snap)))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, "RB-20240131-ABC123", wb.GetSheetName(0))

	rows, err := wb.GetRows("RB-20240131-ABC123")
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, export.Header, rows[0])
	assert.Equal(t, "L1", rows[1][0])
	assert.Equal(t, "F-001; F-002", rows[1][6])
	assert.Equal(t, "50", rows[1][9])
}

func TestGenerateSummary(t *testing.T) {
	f := newFixture()

	got := export.GenerateSummary("RB-1", export.Rows(f.lines, f.snap))

	assert.True(t, strings.HasPrefix(got, "Batch RB-1\n"))
	assert.Contains(t, got, "* 2024-01-05 | VIR ACME | +50.00 € | matched | F-001; F-002\n")
	assert.Contains(t, got, "* 2024-01-09 | CB CAFE | -2.10 € | unmatched | Sem correspondência\n")
	assert.Contains(t, got, "5 lines: 3 matched, 1 uncertain, 1 unmatched")
}

func TestParseFormat(t *testing.T) {
	got, err := export.ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, got)

	got, err = export.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV, got)

	_, err = export.ParseFormat("pdf")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestService_Export(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := reconciliation.NewMockRepository(ctrl)
	loader := reconciliation.NewMockSnapshotLoader(ctrl)

	f := newFixture()
	b := &reconciliation.Batch{ID: uuid.New(), Number: "RB-20240131-ABC123", Status: reconciliation.StatusInProgress}

	repo.EXPECT().GetBatch(gomock.Any(), b.ID).Return(b, nil)
	repo.EXPECT().ListLines(gomock.Any(), b.ID).Return(f.lines, nil)
	loader.EXPECT().LoadSnapshot(gomock.Any()).Return(f.snap, nil)

	batches := reconciliation.NewService(repo, loader, matching.NewEngine(matching.DefaultConfig()),
		reconciliation.WithAutoSaveDelay(time.Hour))
	svc := export.NewService(batches)

	var buf bytes.Buffer

	name, err := svc.Export(context.Background(), b.ID, export.FormatCSV, &buf)
	require.NoError(t, err)
	assert.Equal(t, "RB-20240131-ABC123.csv", name)
	assert.Contains(t, buf.String(), "F-001; F-002")

	summary, err := svc.Summary(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Contains(t, summary, "Batch RB-20240131-ABC123")
}
