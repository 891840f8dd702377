package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
)

//go:generate mockgen -source=repository.go -destination=repository_mock.go -package=reconciliation
type Repository interface {
	CreateBatch(ctx context.Context, b *Batch, lines []matching.Line) error
	GetBatch(ctx context.Context, id uuid.UUID) (*Batch, error)
	ListBatches(ctx context.Context) ([]*Batch, error)
	ListLines(ctx context.Context, batchID uuid.UUID) ([]matching.Line, error)
	UpsertLine(ctx context.Context, batchID uuid.UUID, line matching.Line) error
	UpdateCounts(ctx context.Context, batchID uuid.UUID, lines, matched int) error

	// FindValidatedOverlap returns the first validated batch, other than
	// exclude, sharing a day with [start, end], or nil.
	FindValidatedOverlap(ctx context.Context, start, end time.Time, exclude uuid.UUID) (*Batch, error)

	// Reversal steps, keyed by line number. Each one is idempotent.
	DeleteConsumptions(ctx context.Context, lineNumber string) error
	DeletePayments(ctx context.Context, lineNumber string) error
	DeleteInvoiceLinks(ctx context.Context, lineNumber string) error
	UnlinkInvoices(ctx context.Context, lineNumber string) error
	DeleteReconciliation(ctx context.Context, lineNumber string) error
	DeleteLine(ctx context.Context, lineNumber string) error
	DeleteBatch(ctx context.Context, id uuid.UUID) error

	BeginValidation(ctx context.Context, batchID uuid.UUID) (ValidationTx, error)
}

// ValidationTx writes a batch validation atomically.
type ValidationTx interface {
	EnsureReconciliation(ctx context.Context, batchID uuid.UUID, lineNumber string) (uuid.UUID, error)
	LinkInvoice(ctx context.Context, link InvoiceLink) error
	PurgePayments(ctx context.Context, reconciliationID uuid.UUID) error
	CreatePayment(ctx context.Context, p *Payment) error
	MarkValidated(ctx context.Context, batchID uuid.UUID, matched int, at time.Time) error
	Commit() error
	Rollback() error
}

// SnapshotLoader reads the candidates a session matches against.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*matching.Snapshot, error)
}
