package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusValidated  Status = "VALIDATED"
)

// Batch is one imported statement period.
type Batch struct {
	ID           uuid.UUID
	Number       string
	Start        time.Time
	End          time.Time
	Status       Status
	LineCount    int
	MatchedCount int
	CreatedAt    time.Time
	ValidatedAt  *time.Time
}

func (b Batch) Validated() bool {
	return b.Status == StatusValidated
}

// Overlaps reports whether [start, end] shares at least one day with the batch.
func (b Batch) Overlaps(start, end time.Time) bool {
	return !start.After(b.End) && !end.Before(b.Start)
}

func newBatchNumber(prefix string, end time.Time) string {
	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])

	return fmt.Sprintf("%s-%s-%s", prefix, end.Format("20060102"), random)
}

type PaymentKind string

const (
	PaymentSubscription PaymentKind = "subscription"
	PaymentDeclaration  PaymentKind = "declaration"
)

// Payment records a subscription or declaration settled by a line.
type Payment struct {
	ID               uuid.UUID
	ReconciliationID uuid.UUID
	Kind             PaymentKind
	SubscriptionID   *uuid.UUID
	DeclarationID    *uuid.UUID
	Amount           decimal.Decimal
	PaidOn           time.Time
}

// InvoiceLink is the write-back stored on an invoice at validation.
type InvoiceLink struct {
	InvoiceID        uuid.UUID
	ReconciliationID uuid.UUID
	BatchNumber      string
	LineNumber       string
	At               time.Time
}
