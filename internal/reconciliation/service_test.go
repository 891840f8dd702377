package reconciliation_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func txn(number string, date time.Time, label, signed string) transaction.Transaction {
	t := transaction.New(date, label, decimal.RequireFromString(signed))
	t.LineNumber = number

	return t
}

type fixture struct {
	repo   *reconciliation.MockRepository
	loader *reconciliation.MockSnapshotLoader
	svc    *reconciliation.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := reconciliation.NewMockRepository(ctrl)
	loader := reconciliation.NewMockSnapshotLoader(ctrl)

	svc := reconciliation.NewService(repo, loader, matching.NewEngine(matching.DefaultConfig()),
		reconciliation.WithClock(func() time.Time { return fixedNow }),
		reconciliation.WithAutoSaveDelay(time.Hour),
		reconciliation.WithFlushConcurrency(2),
	)

	return &fixture{repo: repo, loader: loader, svc: svc}
}

// open loads a session for b over lines and snap.
func (f *fixture) open(t *testing.T, b *reconciliation.Batch, lines []matching.Line, snap *matching.Snapshot) *reconciliation.Session {
	t.Helper()

	f.repo.EXPECT().GetBatch(gomock.Any(), b.ID).Return(b, nil)
	f.repo.EXPECT().ListLines(gomock.Any(), b.ID).Return(lines, nil)
	f.loader.EXPECT().LoadSnapshot(gomock.Any()).Return(snap, nil)

	sess, err := f.svc.Open(context.Background(), b.ID)
	require.NoError(t, err)

	return sess
}

func januaryBatch() *reconciliation.Batch {
	return &reconciliation.Batch{
		ID:     uuid.New(),
		Number: "RB-20240131-A1B2C3",
		Start:  day(2024, 1, 1),
		End:    day(2024, 1, 31),
		Status: reconciliation.StatusInProgress,
	}
}

func TestService_Import(t *testing.T) {
	type testCase struct {
		name      string
		txs       []transaction.Transaction
		setupMock func(m *reconciliation.MockRepository)
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			txs: []transaction.Transaction{
				transaction.New(day(2024, 1, 20), "VIR ACME", decimal.RequireFromString("120.00")),
				txn("KEEP-1", day(2024, 1, 3), "PRLV EDF", "-45.10"),
			},
			setupMock: func(m *reconciliation.MockRepository) {
				m.EXPECT().
					CreateBatch(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b *reconciliation.Batch, lines []matching.Line) error {
						assert.True(t, strings.HasPrefix(b.Number, "RB-20240120-"), b.Number)
						assert.Equal(t, day(2024, 1, 3), b.Start)
						assert.Equal(t, day(2024, 1, 20), b.End)
						assert.Equal(t, reconciliation.StatusInProgress, b.Status)
						assert.Equal(t, 2, b.LineCount)
						assert.Equal(t, fixedNow, b.CreatedAt)

						if !assert.Len(t, lines, 2) {
							return nil
						}

						assert.True(t, strings.HasPrefix(lines[0].Number(), "RL-20240120-"), lines[0].Number())
						assert.Equal(t, "KEEP-1", lines[1].Number())

						for _, l := range lines {
							assert.Equal(t, matching.StatusUnmatched, l.Status)
						}

						return nil
					})
			},
		},
		{
			name:    "Empty",
			wantErr: reconciliation.ErrEmptyImport,
		},
		{
			name: "InvalidTransaction",
			txs: []transaction.Transaction{{
				Date:   day(2024, 1, 1),
				Debit:  decimal.RequireFromString("10"),
				Amount: decimal.RequireFromString("10"),
			}},
			wantErr: transaction.ErrAmountMismatch,
		},
		{
			name: "DuplicateNumbers",
			txs: []transaction.Transaction{
				txn("L1", day(2024, 1, 1), "A", "1"),
				txn("L1", day(2024, 1, 2), "B", "2"),
			},
			wantErr: transaction.ErrDuplicateNumber,
		},
		{
			name: "RepoError",
			txs:  []transaction.Transaction{txn("L1", day(2024, 1, 1), "A", "1")},
			setupMock: func(m *reconciliation.MockRepository) {
				m.EXPECT().
					CreateBatch(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(reconciliation.ErrDuplicateImport)
			},
			wantErr: reconciliation.ErrDuplicateImport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setupMock != nil {
				tt.setupMock(f.repo)
			}

			got, err := f.svc.Import(context.Background(), tt.txs)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, got.ID)
		})
	}
}

func TestService_Import_DoesNotMutateInput(t *testing.T) {
	f := newFixture(t)
	f.repo.EXPECT().CreateBatch(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	txs := []transaction.Transaction{transaction.New(day(2024, 1, 1), "A", decimal.RequireFromString("1"))}

	_, err := f.svc.Import(context.Background(), txs)
	require.NoError(t, err)
	assert.Empty(t, txs[0].LineNumber)
}

func TestService_Open_Cached(t *testing.T) {
	f := newFixture(t)
	b := januaryBatch()

	first := f.open(t, b, []matching.Line{{Transaction: txn("L1", day(2024, 1, 2), "A", "10")}}, &matching.Snapshot{})

	again, err := f.svc.Open(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Same(t, first, again)

	got, err := f.svc.Get(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Number, got.Number)
}

func TestService_Open_NotFound(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	f.repo.EXPECT().GetBatch(gomock.Any(), id).Return(nil, reconciliation.ErrNotFound)

	_, err := f.svc.Open(context.Background(), id)
	assert.ErrorIs(t, err, reconciliation.ErrNotFound)
}

func TestSession_Validate_RejectsReconciledPeriod(t *testing.T) {
	f := newFixture(t)
	b := januaryBatch()
	sess := f.open(t, b, []matching.Line{{Transaction: txn("L1", day(2024, 1, 20), "A", "10")}}, &matching.Snapshot{})

	f.repo.EXPECT().
		FindValidatedOverlap(gomock.Any(), day(2024, 1, 1), day(2024, 1, 31), b.ID).
		Return(&reconciliation.Batch{
			Number: "RB-20240215-FFEE01",
			Start:  day(2024, 1, 15),
			End:    day(2024, 2, 15),
			Status: reconciliation.StatusValidated,
		}, nil)

	// Any write would be an unexpected call on the mock.
	err := sess.Validate(context.Background())

	var already *reconciliation.AlreadyReconciledError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, "RB-20240215-FFEE01", already.Number)
	assert.ErrorIs(t, err, reconciliation.ErrAlreadyReconciled)
	assert.False(t, sess.Batch().Validated())
}

func TestSession_Validate_Writes(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	b := januaryBatch()

	inv := matching.Invoice{ID: uuid.New(), Number: "F-0042", Category: matching.CategorySales, Amount: decimal.RequireFromString("120")}
	sub := matching.Subscription{ID: uuid.New(), Name: "Internet"}
	snap := &matching.Snapshot{Invoices: []matching.Invoice{inv}, Subscriptions: []matching.Subscription{sub}}

	lines := []matching.Line{
		{Transaction: txn("L1", day(2024, 1, 5), "VIR ACME", "120"), Link: matching.Link{InvoiceIDs: []uuid.UUID{inv.ID}, Score: 110}},
		{Transaction: txn("L2", day(2024, 1, 9), "PRLV BOX", "-29.99"), Link: matching.Link{SubscriptionID: &sub.ID, Score: 90}},
		{Transaction: txn("L3", day(2024, 1, 12), "CB CAFE", "-3.20")},
	}

	sess := f.open(t, b, lines, snap)

	recs := map[string]uuid.UUID{"L1": uuid.New(), "L2": uuid.New(), "L3": uuid.New()}
	vtx := reconciliation.NewMockValidationTx(ctrl)

	f.repo.EXPECT().FindValidatedOverlap(gomock.Any(), b.Start, b.End, b.ID).Return(nil, nil)
	f.repo.EXPECT().UpsertLine(gomock.Any(), b.ID, gomock.Any()).Return(nil).Times(3)
	f.repo.EXPECT().UpdateCounts(gomock.Any(), b.ID, 3, 2).Return(nil)
	f.repo.EXPECT().BeginValidation(gomock.Any(), b.ID).Return(vtx, nil)

	vtx.EXPECT().
		EnsureReconciliation(gomock.Any(), b.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, n string) (uuid.UUID, error) {
			return recs[n], nil
		}).
		Times(3)
	vtx.EXPECT().LinkInvoice(gomock.Any(), reconciliation.InvoiceLink{
		InvoiceID:        inv.ID,
		ReconciliationID: recs["L1"],
		BatchNumber:      b.Number,
		LineNumber:       "L1",
		At:               fixedNow,
	}).Return(nil)
	gomock.InOrder(
		vtx.EXPECT().PurgePayments(gomock.Any(), recs["L2"]).Return(nil),
		vtx.EXPECT().
			CreatePayment(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *reconciliation.Payment) error {
				assert.Equal(t, reconciliation.PaymentSubscription, p.Kind)
				assert.Equal(t, recs["L2"], p.ReconciliationID)
				assert.Equal(t, &sub.ID, p.SubscriptionID)
				assert.True(t, decimal.RequireFromString("29.99").Equal(p.Amount))
				assert.Equal(t, day(2024, 1, 9), p.PaidOn)

				return nil
			}),
	)
	vtx.EXPECT().MarkValidated(gomock.Any(), b.ID, 2, fixedNow).Return(nil)
	vtx.EXPECT().Commit().Return(nil)
	vtx.EXPECT().Rollback().Return(nil).AnyTimes()

	require.NoError(t, sess.Validate(context.Background()))

	got := sess.Batch()
	assert.True(t, got.Validated())
	assert.Equal(t, 2, got.MatchedCount)
	require.NotNil(t, got.ValidatedAt)

	linked, ok := sess.Snapshot().Invoice(inv.ID)
	require.True(t, ok)
	require.NotNil(t, linked.Linkage)
	assert.Equal(t, "L1", linked.Linkage.LineNumber)

	assert.ErrorIs(t, sess.Validate(context.Background()), reconciliation.ErrBatchValidated)

	_, err := sess.Run(matching.StrategyInvoices)
	assert.ErrorIs(t, err, reconciliation.ErrBatchValidated)

	_, err = sess.Override(matching.Override{LineNumber: "L3", Notes: new("late")})
	assert.ErrorIs(t, err, reconciliation.ErrBatchValidated)
}

func TestSession_Validate_RollsBackOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	b := januaryBatch()
	sess := f.open(t, b, []matching.Line{{Transaction: txn("L1", day(2024, 1, 5), "A", "10")}}, &matching.Snapshot{})

	vtx := reconciliation.NewMockValidationTx(ctrl)

	f.repo.EXPECT().FindValidatedOverlap(gomock.Any(), b.Start, b.End, b.ID).Return(nil, nil)
	f.repo.EXPECT().UpsertLine(gomock.Any(), b.ID, gomock.Any()).Return(nil)
	f.repo.EXPECT().UpdateCounts(gomock.Any(), b.ID, 1, 0).Return(nil)
	f.repo.EXPECT().BeginValidation(gomock.Any(), b.ID).Return(vtx, nil)
	vtx.EXPECT().EnsureReconciliation(gomock.Any(), b.ID, "L1").Return(uuid.Nil, errors.New("db down"))
	vtx.EXPECT().Rollback().Return(nil)

	err := sess.Validate(context.Background())
	require.Error(t, err)
	assert.False(t, sess.Batch().Validated())
}

func TestSession_Validate_InvoiceHeldElsewhere(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	b := januaryBatch()

	inv := matching.Invoice{ID: uuid.New(), Category: matching.CategorySales, Amount: decimal.RequireFromString("50")}
	lines := []matching.Line{
		{Transaction: txn("L1", day(2024, 1, 5), "VIR ACME", "50"), Link: matching.Link{InvoiceIDs: []uuid.UUID{inv.ID}, Score: 100}},
	}

	sess := f.open(t, b, lines, &matching.Snapshot{Invoices: []matching.Invoice{inv}})

	vtx := reconciliation.NewMockValidationTx(ctrl)
	held := fmt.Errorf("invoice %s held by line RL-9 of batch RB-2: %w", inv.ID, reconciliation.ErrInvoiceReconciled)

	f.repo.EXPECT().FindValidatedOverlap(gomock.Any(), b.Start, b.End, b.ID).Return(nil, nil)
	f.repo.EXPECT().UpsertLine(gomock.Any(), b.ID, gomock.Any()).Return(nil)
	f.repo.EXPECT().UpdateCounts(gomock.Any(), b.ID, 1, 1).Return(nil)
	f.repo.EXPECT().BeginValidation(gomock.Any(), b.ID).Return(vtx, nil)
	vtx.EXPECT().EnsureReconciliation(gomock.Any(), b.ID, "L1").Return(uuid.New(), nil)
	vtx.EXPECT().LinkInvoice(gomock.Any(), gomock.Any()).Return(held)
	vtx.EXPECT().Rollback().Return(nil)

	err := sess.Validate(context.Background())
	require.ErrorIs(t, err, reconciliation.ErrInvoiceReconciled)
	assert.False(t, sess.Batch().Validated())

	snapInv, ok := sess.Snapshot().Invoice(inv.ID)
	require.True(t, ok)
	assert.Nil(t, snapInv.Linkage, "a failed validation leaves the snapshot untouched")
}

func TestSession_Reset(t *testing.T) {
	f := newFixture(t)
	b := januaryBatch()

	inv := matching.Invoice{
		ID:      uuid.New(),
		Number:  "F-7",
		Linkage: &matching.InvoiceLinkage{BatchNumber: b.Number, LineNumber: "L1", At: fixedNow},
	}
	sub := matching.Subscription{ID: uuid.New(), Name: "Phone"}
	snap := &matching.Snapshot{Invoices: []matching.Invoice{inv}, Subscriptions: []matching.Subscription{sub}}

	sess := f.open(t, b, []matching.Line{{
		Transaction: txn("L1", day(2024, 1, 5), "PRLV PHONE", "-40"),
		Link:        matching.Link{InvoiceIDs: []uuid.UUID{inv.ID}, SubscriptionID: &sub.ID, Score: 100, Notes: "checked"},
	}}, snap)

	l, _ := sess.Line("L1")
	require.Equal(t, matching.StatusMatched, l.Status)

	var saved matching.Line

	gomock.InOrder(
		f.repo.EXPECT().DeleteConsumptions(gomock.Any(), "L1").Return(nil),
		f.repo.EXPECT().DeletePayments(gomock.Any(), "L1").Return(nil),
		f.repo.EXPECT().DeleteInvoiceLinks(gomock.Any(), "L1").Return(nil),
		f.repo.EXPECT().UnlinkInvoices(gomock.Any(), "L1").Return(nil),
		f.repo.EXPECT().DeleteReconciliation(gomock.Any(), "L1").Return(nil),
		f.repo.EXPECT().
			UpsertLine(gomock.Any(), b.ID, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, l matching.Line) error {
				saved = l
				return nil
			}),
		f.repo.EXPECT().UpdateCounts(gomock.Any(), b.ID, 1, 0).Return(nil),
	)

	require.NoError(t, sess.Reset(context.Background(), "L1"))

	l, _ = sess.Line("L1")
	assert.Equal(t, matching.StatusUnmatched, l.Status)
	assert.Equal(t, matching.Link{Notes: "checked"}, l.Link)
	assert.Equal(t, matching.StatusUnmatched, saved.Status)

	got, _ := sess.Snapshot().Invoice(inv.ID)
	assert.Nil(t, got.Linkage)
}

func TestSession_Reset_ReportsFailedStep(t *testing.T) {
	f := newFixture(t)
	b := januaryBatch()
	inv := uuid.New()

	sess := f.open(t, b, []matching.Line{{
		Transaction: txn("L1", day(2024, 1, 5), "A", "10"),
		Link:        matching.Link{InvoiceIDs: []uuid.UUID{inv}},
	}}, &matching.Snapshot{})

	dbErr := errors.New("lock timeout")

	gomock.InOrder(
		f.repo.EXPECT().DeleteConsumptions(gomock.Any(), "L1").Return(nil),
		f.repo.EXPECT().DeletePayments(gomock.Any(), "L1").Return(dbErr),
	)

	err := sess.Reset(context.Background(), "L1")

	var cascade *reconciliation.CascadeError
	require.ErrorAs(t, err, &cascade)
	assert.Equal(t, reconciliation.StepPaymentDelete, cascade.Step)
	assert.Equal(t, "L1", cascade.LineNumber)
	assert.ErrorIs(t, err, dbErr)

	l, _ := sess.Line("L1")
	assert.Equal(t, matching.StatusMatched, l.Status, "line is untouched until reversal succeeds")

	assert.ErrorIs(t, sess.Reset(context.Background(), "NOPE"), matching.ErrLineNotFound)
}

func TestSession_Flush_PartialFailure(t *testing.T) {
	f := newFixture(t)
	b := januaryBatch()
	sess := f.open(t, b, []matching.Line{
		{Transaction: txn("L1", day(2024, 1, 5), "A", "10")},
		{Transaction: txn("L2", day(2024, 1, 6), "B", "10")},
		{Transaction: txn("L3", day(2024, 1, 7), "C", "10")},
	}, &matching.Snapshot{})

	dbErr := errors.New("constraint violation")

	f.repo.EXPECT().
		UpsertLine(gomock.Any(), b.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, l matching.Line) error {
			if l.Number() == "L2" {
				return dbErr
			}

			return nil
		}).
		Times(3)
	f.repo.EXPECT().UpdateCounts(gomock.Any(), b.ID, 3, 0).Return(nil)

	err := sess.Flush(context.Background())

	var saveErrs reconciliation.SaveErrors
	require.ErrorAs(t, err, &saveErrs)
	require.Len(t, saveErrs, 1)
	assert.Equal(t, "L2", saveErrs[0].LineNumber)
	assert.ErrorIs(t, err, dbErr)
}

func TestSession_Run_AppliesAndAutoSaves(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := reconciliation.NewMockRepository(ctrl)
	loader := reconciliation.NewMockSnapshotLoader(ctrl)

	svc := reconciliation.NewService(repo, loader, matching.NewEngine(matching.DefaultConfig()),
		reconciliation.WithAutoSaveDelay(10*time.Millisecond),
	)

	b := januaryBatch()
	partner := matching.Partner{ID: uuid.New(), Name: "EDF", Category: matching.PartnerServicesSupplier, Keywords: "EDF"}

	repo.EXPECT().GetBatch(gomock.Any(), b.ID).Return(b, nil)
	repo.EXPECT().ListLines(gomock.Any(), b.ID).Return([]matching.Line{
		{Transaction: txn("L1", day(2024, 1, 5), "PRLV EDF ENERGIE", "-80")},
	}, nil)
	loader.EXPECT().LoadSnapshot(gomock.Any()).Return(&matching.Snapshot{Partners: []matching.Partner{partner}}, nil)

	saved := make(chan struct{})

	repo.EXPECT().UpsertLine(gomock.Any(), b.ID, gomock.Any()).Return(nil)
	repo.EXPECT().
		UpdateCounts(gomock.Any(), b.ID, 1, 0).
		DoAndReturn(func(context.Context, uuid.UUID, int, int) error {
			close(saved)
			return nil
		})

	sess, err := svc.Open(context.Background(), b.ID)
	require.NoError(t, err)

	diff, err := sess.Run(matching.StrategyPartners)
	require.NoError(t, err)
	require.Len(t, diff, 1)

	l, _ := sess.Line("L1")
	assert.Equal(t, matching.StatusUncertain, l.Status)
	require.NotNil(t, l.Link.Partner)
	assert.Equal(t, partner.ID, l.Link.Partner.ID)

	select {
	case <-saved:
	case <-time.After(2 * time.Second):
		t.Fatal("auto-save did not run")
	}

	_, err = sess.Run("bogus")
	assert.ErrorIs(t, err, matching.ErrUnknownStrategy)
}

func TestService_Delete(t *testing.T) {
	b := januaryBatch()
	lines := []matching.Line{
		{Transaction: txn("L1", day(2024, 1, 5), "A", "10")},
		{Transaction: txn("L2", day(2024, 1, 6), "B", "10")},
	}

	reversal := func(m *reconciliation.MockRepository, n string) []any {
		return []any{
			m.EXPECT().DeleteConsumptions(gomock.Any(), n).Return(nil),
			m.EXPECT().DeletePayments(gomock.Any(), n).Return(nil),
			m.EXPECT().DeleteInvoiceLinks(gomock.Any(), n).Return(nil),
			m.EXPECT().UnlinkInvoices(gomock.Any(), n).Return(nil),
			m.EXPECT().DeleteReconciliation(gomock.Any(), n).Return(nil),
		}
	}

	type testCase struct {
		name      string
		setupMock func(m *reconciliation.MockRepository)
		wantStep  reconciliation.CascadeStep
		wantLine  string
		wantErr   error
	}

	tests := []testCase{
		{
			name: "Success",
			setupMock: func(m *reconciliation.MockRepository) {
				m.EXPECT().GetBatch(gomock.Any(), b.ID).Return(b, nil)
				m.EXPECT().ListLines(gomock.Any(), b.ID).Return(lines, nil)

				calls := reversal(m, "L1")
				calls = append(calls, m.EXPECT().DeleteLine(gomock.Any(), "L1").Return(nil))
				calls = append(calls, reversal(m, "L2")...)
				calls = append(calls,
					m.EXPECT().DeleteLine(gomock.Any(), "L2").Return(nil),
					m.EXPECT().DeleteBatch(gomock.Any(), b.ID).Return(nil),
				)
				gomock.InOrder(calls...)
			},
		},
		{
			name: "NotFound",
			setupMock: func(m *reconciliation.MockRepository) {
				m.EXPECT().GetBatch(gomock.Any(), b.ID).Return(nil, reconciliation.ErrNotFound)
			},
			wantErr: reconciliation.ErrNotFound,
		},
		{
			name: "UnlinkFails",
			setupMock: func(m *reconciliation.MockRepository) {
				m.EXPECT().GetBatch(gomock.Any(), b.ID).Return(b, nil)
				m.EXPECT().ListLines(gomock.Any(), b.ID).Return(lines, nil)
				gomock.InOrder(
					m.EXPECT().DeleteConsumptions(gomock.Any(), "L1").Return(nil),
					m.EXPECT().DeletePayments(gomock.Any(), "L1").Return(nil),
					m.EXPECT().DeleteInvoiceLinks(gomock.Any(), "L1").Return(nil),
					m.EXPECT().UnlinkInvoices(gomock.Any(), "L1").Return(errors.New("boom")),
				)
			},
			wantStep: reconciliation.StepInvoiceUnlink,
			wantLine: "L1",
		},
		{
			name: "BatchDeleteFails",
			setupMock: func(m *reconciliation.MockRepository) {
				m.EXPECT().GetBatch(gomock.Any(), b.ID).Return(b, nil)
				m.EXPECT().ListLines(gomock.Any(), b.ID).Return(nil, nil)
				m.EXPECT().DeleteBatch(gomock.Any(), b.ID).Return(errors.New("boom"))
			},
			wantStep: reconciliation.StepBatchDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMock(f.repo)

			err := f.svc.Delete(context.Background(), b.ID)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantStep != "":
				var cascade *reconciliation.CascadeError
				require.ErrorAs(t, err, &cascade)
				assert.Equal(t, tt.wantStep, cascade.Step)
				assert.Equal(t, tt.wantLine, cascade.LineNumber)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestService_Close_FlushesSessions(t *testing.T) {
	f := newFixture(t)
	b := januaryBatch()
	f.open(t, b, []matching.Line{{Transaction: txn("L1", day(2024, 1, 5), "A", "10")}}, &matching.Snapshot{})

	f.repo.EXPECT().UpsertLine(gomock.Any(), b.ID, gomock.Any()).Return(nil)
	f.repo.EXPECT().UpdateCounts(gomock.Any(), b.ID, 1, 0).Return(errors.New("db gone"))

	err := f.svc.Close(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), b.Number)
}
