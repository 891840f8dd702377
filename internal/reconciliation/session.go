package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
)

// Session is the open, in-memory state of one batch. Commands are
// serialised; persistence happens through the auto-saver.
type Session struct {
	repo        Repository
	engine      *matching.Engine
	log         *slog.Logger
	now         func() time.Time
	concurrency int

	mu    sync.Mutex
	ws    *matching.WorkingSet
	snap  *matching.Snapshot
	saver *Saver

	batchMu sync.RWMutex
	batch   Batch
}

func (s *Service) newSession(b *Batch, ws *matching.WorkingSet, snap *matching.Snapshot) *Session {
	sess := &Session{
		repo:        s.repo,
		engine:      s.engine,
		log:         s.log.With("batch", b.Number),
		now:         s.now,
		concurrency: s.concurrency,
		ws:          ws,
		snap:        snap,
		batch:       *b,
	}
	sess.saver = NewSaver(s.delay, sess.save, sess.log)

	return sess
}

// Batch returns a copy of the batch header.
func (s *Session) Batch() Batch {
	s.batchMu.RLock()
	defer s.batchMu.RUnlock()

	return s.batch
}

func (s *Session) Lines() []matching.Line {
	return s.ws.Lines()
}

func (s *Session) Line(number string) (matching.Line, bool) {
	return s.ws.Line(number)
}

// Snapshot returns the candidates the session matches against. The
// session never mutates a snapshot it has returned; callers must not either.
func (s *Session) Snapshot() *matching.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snap
}

// Run applies one matching strategy to every open line.
func (s *Session) Run(strategy matching.Strategy) (matching.Diff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Batch().Validated() {
		return nil, ErrBatchValidated
	}

	diff, err := s.engine.Run(strategy, s.ws, s.snap)
	if err != nil {
		return nil, err
	}

	if err := s.ws.Apply(diff); err != nil {
		return nil, fmt.Errorf("applying %s: %w", strategy, err)
	}

	s.touch(diff)
	s.log.Info("strategy applied", "strategy", strategy, "mutations", len(diff))

	return diff, nil
}

// Override links a line by hand.
func (s *Session) Override(o matching.Override) (matching.Diff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Batch().Validated() {
		return nil, ErrBatchValidated
	}

	diff, err := s.ws.Override(o, s.snap)
	if err != nil {
		return nil, err
	}

	s.touch(diff)

	return diff, nil
}

// Confirm accepts the suggested invoices of a line.
func (s *Session) Confirm(number string) (matching.Diff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Batch().Validated() {
		return nil, ErrBatchValidated
	}

	diff, err := s.ws.Confirm(number)
	if err != nil {
		return nil, err
	}

	s.touch(diff)

	return diff, nil
}

func (s *Session) touch(diff matching.Diff) {
	if len(diff) > 0 {
		s.saver.Touch()
	}
}

// Reset reverses everything written for a line, clears its linkage and
// saves it at once. It is allowed on validated batches.
func (s *Session) Reset(ctx context.Context, number string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ws.Line(number); !ok {
		return fmt.Errorf("%w: %s", matching.ErrLineNotFound, number)
	}

	if err := reverseLine(ctx, s.repo, number); err != nil {
		return err
	}

	prev, err := s.ws.Reset(number)
	if err != nil {
		return err
	}

	s.relink(func(snap *matching.Snapshot) {
		for _, id := range prev.InvoiceIDs {
			snap.SetLinkage(id, nil)
		}
	})

	if err := s.saver.Flush(ctx); err != nil {
		return fmt.Errorf("saving reset line %s: %w", number, err)
	}

	s.log.Info("line reset", "line", number)

	return nil
}

// relink swaps in a copy of the snapshot with updated invoice linkage, so
// snapshots already handed out are never written. Must hold mu.
func (s *Session) relink(update func(snap *matching.Snapshot)) {
	next := *s.snap
	next.Invoices = slices.Clone(s.snap.Invoices)
	update(&next)
	s.snap = &next
}

// Flush persists every line now.
func (s *Session) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// save upserts every line in parallel and refreshes the batch counts.
// Lines that fail are reported in SaveErrors; the rest stay written.
func (s *Session) save(ctx context.Context) error {
	id := s.Batch().ID
	lines := s.ws.Lines()

	var (
		mu   sync.Mutex
		errs SaveErrors
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, l := range lines {
		g.Go(func() error {
			if err := s.repo.UpsertLine(gctx, id, l); err != nil {
				mu.Lock()
				errs = append(errs, SaveError{LineNumber: l.Number(), Err: err})
				mu.Unlock()
			}

			return nil
		})
	}

	_ = g.Wait()

	total, matched := s.ws.Counts()
	if err := s.repo.UpdateCounts(ctx, id, total, matched); err != nil {
		return fmt.Errorf("updating batch counts: %w", err)
	}

	s.batchMu.Lock()
	s.batch.LineCount, s.batch.MatchedCount = total, matched
	s.batchMu.Unlock()

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Validate writes the batch's matches back and marks it VALIDATED. The
// period check runs before anything is written; the writes themselves
// happen in one transaction.
func (s *Session) Validate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.Batch()
	if b.Validated() {
		return ErrBatchValidated
	}

	other, err := s.repo.FindValidatedOverlap(ctx, b.Start, b.End, b.ID)
	if err != nil {
		return fmt.Errorf("checking reconciled periods: %w", err)
	}

	if other != nil {
		return &AlreadyReconciledError{Number: other.Number, Start: other.Start, End: other.End}
	}

	if err := s.saver.Flush(ctx); err != nil {
		return fmt.Errorf("flushing lines: %w", err)
	}

	vtx, err := s.repo.BeginValidation(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("begin validation: %w", err)
	}
	defer vtx.Rollback()

	now := s.now()
	lines := s.ws.Lines()
	matched := 0

	for _, l := range lines {
		recID, err := vtx.EnsureReconciliation(ctx, b.ID, l.Number())
		if err != nil {
			return fmt.Errorf("ensure reconciliation for %s: %w", l.Number(), err)
		}

		if l.Status != matching.StatusMatched {
			continue
		}

		matched++

		for _, invID := range l.Link.InvoiceIDs {
			link := InvoiceLink{
				InvoiceID:        invID,
				ReconciliationID: recID,
				BatchNumber:      b.Number,
				LineNumber:       l.Number(),
				At:               now,
			}
			if err := vtx.LinkInvoice(ctx, link); err != nil {
				return fmt.Errorf("link invoice %s: %w", invID, err)
			}
		}

		payments := paymentsFor(recID, l)
		if len(payments) == 0 {
			continue
		}

		if err := vtx.PurgePayments(ctx, recID); err != nil {
			return fmt.Errorf("purge payments for %s: %w", l.Number(), err)
		}

		for _, p := range payments {
			if err := vtx.CreatePayment(ctx, p); err != nil {
				return fmt.Errorf("create payment for %s: %w", l.Number(), err)
			}
		}
	}

	if err := vtx.MarkValidated(ctx, b.ID, matched, now); err != nil {
		return fmt.Errorf("mark validated: %w", err)
	}

	if err := vtx.Commit(); err != nil {
		return fmt.Errorf("commit validation: %w", err)
	}

	s.batchMu.Lock()
	s.batch.Status = StatusValidated
	s.batch.MatchedCount = matched
	s.batch.ValidatedAt = &now
	s.batchMu.Unlock()

	s.relink(func(snap *matching.Snapshot) {
		for _, l := range lines {
			if l.Status != matching.StatusMatched {
				continue
			}

			for _, invID := range l.Link.InvoiceIDs {
				snap.SetLinkage(invID, &matching.InvoiceLinkage{BatchNumber: b.Number, LineNumber: l.Number(), At: now})
			}
		}
	})

	s.log.Info("batch validated", "lines", len(lines), "matched", matched)

	return nil
}

// paymentsFor builds one payment per charge kind attached to a matched line.
func paymentsFor(recID uuid.UUID, l matching.Line) []*Payment {
	var payments []*Payment

	if l.Link.SubscriptionID != nil {
		id := *l.Link.SubscriptionID
		payments = append(payments, &Payment{
			ID:               uuid.New(),
			ReconciliationID: recID,
			Kind:             PaymentSubscription,
			SubscriptionID:   &id,
			Amount:           l.Transaction.Abs(),
			PaidOn:           l.Transaction.Date,
		})
	}

	if l.Link.DeclarationID != nil {
		id := *l.Link.DeclarationID
		payments = append(payments, &Payment{
			ID:               uuid.New(),
			ReconciliationID: recID,
			Kind:             PaymentDeclaration,
			DeclarationID:    &id,
			Amount:           l.Transaction.Abs(),
			PaidOn:           l.Transaction.Date,
		})
	}

	return payments
}

// reverseLine undoes the downstream writes of a line, children first.
func reverseLine(ctx context.Context, repo Repository, number string) error {
	steps := []struct {
		step CascadeStep
		run  func(context.Context, string) error
	}{
		{StepConsumptionDelete, repo.DeleteConsumptions},
		{StepPaymentDelete, repo.DeletePayments},
		{StepJoinDelete, repo.DeleteInvoiceLinks},
		{StepInvoiceUnlink, repo.UnlinkInvoices},
		{StepRecordDelete, repo.DeleteReconciliation},
	}

	for _, st := range steps {
		if err := st.run(ctx, number); err != nil {
			return &CascadeError{Step: st.step, LineNumber: number, Err: err}
		}
	}

	return nil
}
