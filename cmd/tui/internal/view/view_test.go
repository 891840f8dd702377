package view

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}

	return d
}

func TestTimeframe_DateRange(t *testing.T) {
	tests := []struct {
		name      string
		tf        Timeframe
		now       string
		wantStart string
		wantEnd   string
	}{
		{name: "ThisMonth", tf: TimeframeThisMonth, now: "2024-05-15", wantStart: "2024-05-01", wantEnd: "2024-05-31"},
		{name: "LastMonth", tf: TimeframeLastMonth, now: "2024-05-15", wantStart: "2024-04-01", wantEnd: "2024-04-30"},
		{name: "LastMonthAcrossYear", tf: TimeframeLastMonth, now: "2024-01-10", wantStart: "2023-12-01", wantEnd: "2023-12-31"},
		{name: "ThisQuarter", tf: TimeframeThisQuarter, now: "2024-05-15", wantStart: "2024-04-01", wantEnd: "2024-06-30"},
		{name: "LastQuarter", tf: TimeframeLastQuarter, now: "2024-05-15", wantStart: "2024-01-01", wantEnd: "2024-03-31"},
		{name: "ThisYear", tf: TimeframeThisYear, now: "2024-05-15", wantStart: "2024-01-01", wantEnd: "2024-12-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.tf.dateRange(day(tt.now))

			assert.Equal(t, tt.wantStart, FormatDate(start))
			assert.Equal(t, tt.wantEnd, FormatDate(end))
		})
	}
}

func TestTimeframe_DateRangeAllIsZero(t *testing.T) {
	start, end := TimeframeAll.dateRange(day("2024-05-15"))

	assert.True(t, start.IsZero())
	assert.True(t, end.IsZero())
}

func TestPeriodForm_Resolve(t *testing.T) {
	now := day("2024-05-15")

	tests := []struct {
		name    string
		values  periodForm
		want    TimeframeSelectedMsg
		wantErr bool
	}{
		{
			name:   "All",
			values: periodForm{timeframe: TimeframeAll},
			want:   TimeframeSelectedMsg{All: true},
		},
		{
			name:   "LastMonth",
			values: periodForm{timeframe: TimeframeLastMonth},
			want:   TimeframeSelectedMsg{Start: day("2024-04-01"), End: day("2024-04-30")},
		},
		{
			name:   "Custom",
			values: periodForm{timeframe: TimeframeCustom, start: "2024-02-10", end: "2024-03-05"},
			want:   TimeframeSelectedMsg{Start: day("2024-02-10"), End: day("2024-03-05")},
		},
		{
			name:   "CustomSingleDay",
			values: periodForm{timeframe: TimeframeCustom, start: "2024-02-10", end: "2024-02-10"},
			want:   TimeframeSelectedMsg{Start: day("2024-02-10"), End: day("2024-02-10")},
		},
		{
			name:    "CustomReversed",
			values:  periodForm{timeframe: TimeframeCustom, start: "2024-03-05", end: "2024-02-10"},
			wantErr: true,
		},
		{
			name:    "CustomMalformed",
			values:  periodForm{timeframe: TimeframeCustom, start: "10/02/2024", end: "2024-02-10"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.values.resolve(now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "-12.5", want: "-12.50"},
		{in: "0", want: "+0.00"},
		{in: "1250", want: "+1250.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

var (
	invoiceID      = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	otherInvoiceID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	subscriptionID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	declarationID  = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	unknownID      = uuid.MustParse("abcdef12-0000-0000-0000-000000000000")
)

func testSnapshot() *matching.Snapshot {
	return &matching.Snapshot{
		Invoices: []matching.Invoice{
			{ID: invoiceID, Number: "F-001", EmissionDate: day("2024-01-02"), PartnerName: "Acme", Amount: decimal.RequireFromString("50")},
			{
				ID:           otherInvoiceID,
				Number:       "F-002",
				EmissionDate: day("2024-01-03"),
				Amount:       decimal.RequireFromString("20"),
				Linkage:      &matching.InvoiceLinkage{LineNumber: "L9"},
			},
		},
		Subscriptions: []matching.Subscription{{ID: subscriptionID, Name: "Internet"}},
		Declarations:  []matching.Declaration{{ID: declarationID, Name: "TVA", Organization: "DGFiP"}},
	}
}

func testLine(link matching.Link) matching.Line {
	tx := transaction.New(day("2024-01-05"), "VIR ACME", decimal.RequireFromString("50"))
	tx.LineNumber = "L1"

	return matching.Line{Transaction: tx, Link: link, Status: matching.Derive(link)}
}

func TestDescribeLink(t *testing.T) {
	tests := []struct {
		name string
		link matching.Link
		want string
	}{
		{
			name: "Unmatched",
			want: "",
		},
		{
			name: "Invoices",
			link: matching.Link{InvoiceIDs: []uuid.UUID{invoiceID}, Score: 80},
			want: "Invoices: F-001 | score 80",
		},
		{
			name: "UnknownSuggestion",
			link: matching.Link{SuggestedInvoiceIDs: []uuid.UUID{unknownID}, Score: 55},
			want: "Suggested: abcdef12 | score 55",
		},
		{
			name: "ChargesAndPartner",
			link: matching.Link{
				SubscriptionID: &subscriptionID,
				DeclarationID:  &declarationID,
				Partner:        &matching.PartnerRef{Name: "Orange", Category: matching.PartnerServicesSupplier},
			},
			want: "Subscription: Internet | Declaration: TVA | Partner: Orange (services_supplier)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeLink(testLine(tt.link), testSnapshot()))
		})
	}
}

func TestLinkForm_Override(t *testing.T) {
	line := testLine(matching.Link{
		InvoiceIDs:     []uuid.UUID{invoiceID},
		SubscriptionID: &subscriptionID,
		Notes:          "paid late",
	})

	t.Run("KeepsCurrentLink", func(t *testing.T) {
		f, form := newLinkForm(line, testSnapshot())
		require.NotNil(t, form)

		o := f.override()

		assert.Equal(t, "L1", o.LineNumber)
		assert.Equal(t, []uuid.UUID{invoiceID}, o.InvoiceIDs)
		require.NotNil(t, o.SubscriptionID)
		assert.Equal(t, subscriptionID, *o.SubscriptionID)
		assert.Nil(t, o.DeclarationID)
		require.NotNil(t, o.Notes)
		assert.Equal(t, "paid late", *o.Notes)
	})

	t.Run("NoInvoiceUnlinks", func(t *testing.T) {
		f, _ := newLinkForm(line, testSnapshot())
		f.invoices = nil
		f.declaration = declarationID

		o := f.override()

		assert.NotNil(t, o.InvoiceIDs)
		assert.Empty(t, o.InvoiceIDs)
		require.NotNil(t, o.DeclarationID)
		assert.Equal(t, declarationID, *o.DeclarationID)
	})

	t.Run("DoesNotAliasLine", func(t *testing.T) {
		f, _ := newLinkForm(line, testSnapshot())
		f.invoices[0] = otherInvoiceID

		assert.Equal(t, invoiceID, line.Link.InvoiceIDs[0])
	})
}
