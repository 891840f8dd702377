package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

const (
	defaultAutoSaveDelay    = 2 * time.Second
	defaultFlushConcurrency = 8
	defaultBatchPrefix      = "RB"
)

type Service struct {
	repo      Repository
	snapshots SnapshotLoader
	engine    *matching.Engine

	log         *slog.Logger
	now         func() time.Time
	delay       time.Duration
	concurrency int
	batchPrefix string
	lineNumbers *transaction.LineNumberGenerator

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithAutoSaveDelay(d time.Duration) Option {
	return func(s *Service) { s.delay = d }
}

func WithFlushConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithBatchPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.batchPrefix = prefix
		}
	}
}

func WithLineNumbers(g *transaction.LineNumberGenerator) Option {
	return func(s *Service) { s.lineNumbers = g }
}

func NewService(repo Repository, snapshots SnapshotLoader, engine *matching.Engine, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		snapshots:   snapshots,
		engine:      engine,
		log:         slog.Default(),
		now:         time.Now,
		delay:       defaultAutoSaveDelay,
		concurrency: defaultFlushConcurrency,
		batchPrefix: defaultBatchPrefix,
		lineNumbers: transaction.NewLineNumberGenerator(""),
		sessions:    make(map[uuid.UUID]*Session),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Import creates an IN_PROGRESS batch with one unmatched line per transaction.
func (s *Service) Import(ctx context.Context, txs []transaction.Transaction) (*Batch, error) {
	if len(txs) == 0 {
		return nil, ErrEmptyImport
	}

	txs = slices.Clone(txs)

	if err := s.lineNumbers.AssignLineNumbers(txs); err != nil {
		return nil, fmt.Errorf("assign line numbers: %w", err)
	}

	lines := make([]matching.Line, len(txs))

	for i, t := range txs {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("line %s: %w", t.LineNumber, err)
		}

		lines[i] = matching.Line{Transaction: t, Status: matching.StatusUnmatched}
	}

	start, end := transaction.DateRange(txs)

	b := &Batch{
		ID:        uuid.New(),
		Number:    newBatchNumber(s.batchPrefix, end),
		Start:     start,
		End:       end,
		Status:    StatusInProgress,
		LineCount: len(lines),
		CreatedAt: s.now(),
	}

	if err := s.repo.CreateBatch(ctx, b, lines); err != nil {
		return nil, fmt.Errorf("create batch: %w", err)
	}

	s.log.Info("batch imported", "batch", b.Number, "lines", len(lines),
		"start", b.Start.Format(time.DateOnly), "end", b.End.Format(time.DateOnly))

	return b, nil
}

func (s *Service) List(ctx context.Context) ([]*Batch, error) {
	return s.repo.ListBatches(ctx)
}

// Get prefers the open session's header, which carries unsaved counts.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Batch, error) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()

	if ok {
		b := sess.Batch()
		return &b, nil
	}

	return s.repo.GetBatch(ctx, id)
}

// Open returns the session of a batch, loading it on first use.
func (s *Service) Open(ctx context.Context, id uuid.UUID) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}

	b, err := s.repo.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.ListLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}

	snap, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	ws, err := matching.NewWorkingSet(lines)
	if err != nil {
		return nil, fmt.Errorf("build working set: %w", err)
	}

	sess := s.newSession(b, ws, snap)
	s.sessions[id] = sess

	return sess, nil
}

// Delete reverses every line of a batch, then removes the batch.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.repo.GetBatch(ctx, id)
	if err != nil {
		return err
	}

	if sess, ok := s.sessions[id]; ok {
		sess.saver.Stop()
		delete(s.sessions, id)
	}

	lines, err := s.repo.ListLines(ctx, id)
	if err != nil {
		return fmt.Errorf("list lines: %w", err)
	}

	for _, l := range lines {
		if err := reverseLine(ctx, s.repo, l.Number()); err != nil {
			return err
		}

		if err := s.repo.DeleteLine(ctx, l.Number()); err != nil {
			return &CascadeError{Step: StepLineDelete, LineNumber: l.Number(), Err: err}
		}
	}

	if err := s.repo.DeleteBatch(ctx, id); err != nil {
		return &CascadeError{Step: StepBatchDelete, Err: err}
	}

	s.log.Info("batch deleted", "batch", b.Number, "lines", len(lines))

	return nil
}

// Close flushes and stops every open session.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error

	for id, sess := range s.sessions {
		if err := sess.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush batch %s: %w", sess.Batch().Number, err))
		}

		sess.saver.Stop()
		delete(s.sessions, id)
	}

	return errors.Join(errs...)
}
