package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
	"github.com/MrJamesThe3rd/reconciler/internal/reconciliation"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectBatchColumns = `
	id, number, date_start, date_end, status, line_count, matched_count, created_at, validated_at
`

func scanBatch(s scanner) (*reconciliation.Batch, error) {
	var (
		b           reconciliation.Batch
		status      string
		validatedAt sql.NullTime
	)

	if err := s.Scan(
		&b.ID, &b.Number, &b.Start, &b.End, &status, &b.LineCount, &b.MatchedCount, &b.CreatedAt, &validatedAt,
	); err != nil {
		return nil, err
	}

	b.Status = reconciliation.Status(status)

	if validatedAt.Valid {
		b.ValidatedAt = &validatedAt.Time
	}

	return &b, nil
}

// CreateBatch inserts the batch and its lines in one transaction. Line
// numbers are global: importing a number that already exists fails with
// ErrDuplicateImport.
func (s *Store) CreateBatch(ctx context.Context, b *reconciliation.Batch, lines []matching.Line) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch tx: %w", err)
	}
	defer dbTx.Rollback()

	numbers := make([]string, len(lines))
	for i, l := range lines {
		numbers[i] = l.Number()
	}

	var existing string

	err = dbTx.QueryRowContext(ctx,
		`SELECT line_number FROM reconciliation_lines WHERE line_number = ANY($1) LIMIT 1`, numbers,
	).Scan(&existing)

	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", reconciliation.ErrDuplicateImport, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("checking line numbers: %w", err)
	}

	query := `
		INSERT INTO reconciliation_batches (id, number, date_start, date_end, status, line_count, matched_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
	`
	if _, err := dbTx.ExecContext(ctx, query,
		b.ID, b.Number, b.Start, b.End, b.Status, b.LineCount, b.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting batch: %w", err)
	}

	for i, l := range lines {
		if err := insertLine(ctx, dbTx, b.ID, i, l); err != nil {
			return err
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}

	return nil
}

func insertLine(ctx context.Context, q execer, batchID uuid.UUID, position int, l matching.Line) error {
	cols, err := linkColumns(l)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reconciliation_lines (
			line_number, batch_id, position, date, label, debit, credit, amount,
			status, invoice_ids, suggested_invoice_ids, subscription_id, declaration_id,
			partner_id, partner_name, partner_category, score, notes, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, NOW())
	`

	t := l.Transaction

	args := append([]any{l.Number(), batchID, position, t.Date, t.Label, t.Debit, t.Credit, t.Amount}, cols...)
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("inserting line %s: %w", l.Number(), err)
	}

	return nil
}

// linkColumns returns status, invoice_ids, suggested_invoice_ids,
// subscription_id, declaration_id, partner_id, partner_name,
// partner_category, score and notes for a line.
func linkColumns(l matching.Line) ([]any, error) {
	invoiceIDs, err := uuidList(l.Link.InvoiceIDs)
	if err != nil {
		return nil, fmt.Errorf("encoding invoice ids of %s: %w", l.Number(), err)
	}

	suggested, err := uuidList(l.Link.SuggestedInvoiceIDs)
	if err != nil {
		return nil, fmt.Errorf("encoding suggested invoice ids of %s: %w", l.Number(), err)
	}

	var (
		partnerID                    uuid.NullUUID
		partnerName, partnerCategory sql.NullString
	)

	if p := l.Link.Partner; p != nil {
		partnerID = uuid.NullUUID{UUID: p.ID, Valid: true}
		partnerName = sql.NullString{String: p.Name, Valid: true}
		partnerCategory = sql.NullString{String: string(p.Category), Valid: true}
	}

	return []any{
		string(l.Status), invoiceIDs, suggested,
		nullUUID(l.Link.SubscriptionID), nullUUID(l.Link.DeclarationID),
		partnerID, partnerName, partnerCategory,
		l.Link.Score, l.Link.Notes,
	}, nil
}

func uuidList(ids []uuid.UUID) ([]byte, error) {
	if len(ids) == 0 {
		return []byte("[]"), nil
	}

	return json.Marshal(ids)
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}

	return uuid.NullUUID{UUID: *id, Valid: true}
}

func optionalUUID(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}

	return &id.UUID
}

func (s *Store) GetBatch(ctx context.Context, id uuid.UUID) (*reconciliation.Batch, error) {
	query := `SELECT ` + selectBatchColumns + ` FROM reconciliation_batches WHERE id = $1`

	b, err := scanBatch(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, reconciliation.ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}

	return b, nil
}

func (s *Store) ListBatches(ctx context.Context) ([]*reconciliation.Batch, error) {
	query := `SELECT ` + selectBatchColumns + ` FROM reconciliation_batches ORDER BY date_start DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	defer rows.Close()

	var batches []*reconciliation.Batch

	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning batch: %w", err)
		}

		batches = append(batches, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating batch rows: %w", err)
	}

	return batches, nil
}

func (s *Store) ListLines(ctx context.Context, batchID uuid.UUID) ([]matching.Line, error) {
	query := `
		SELECT line_number, date, label, debit, credit, amount, status,
			invoice_ids, suggested_invoice_ids, subscription_id, declaration_id,
			partner_id, partner_name, partner_category, score, notes
		FROM reconciliation_lines
		WHERE batch_id = $1
		ORDER BY position ASC
	`

	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("listing lines: %w", err)
	}
	defer rows.Close()

	var lines []matching.Line

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}

		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating line rows: %w", err)
	}

	return lines, nil
}

func scanLine(s scanner) (matching.Line, error) {
	var (
		l                             matching.Line
		t                             transaction.Transaction
		status                        string
		invoiceIDs, suggested         []byte
		subscriptionID, declarationID uuid.NullUUID
		partnerID                     uuid.NullUUID
		partnerName, partnerCategory  sql.NullString
	)

	if err := s.Scan(
		&t.LineNumber, &t.Date, &t.Label, &t.Debit, &t.Credit, &t.Amount, &status,
		&invoiceIDs, &suggested, &subscriptionID, &declarationID,
		&partnerID, &partnerName, &partnerCategory, &l.Link.Score, &l.Link.Notes,
	); err != nil {
		return l, err
	}

	if err := json.Unmarshal(invoiceIDs, &l.Link.InvoiceIDs); err != nil {
		return l, fmt.Errorf("decoding invoice ids of %s: %w", t.LineNumber, err)
	}

	if err := json.Unmarshal(suggested, &l.Link.SuggestedInvoiceIDs); err != nil {
		return l, fmt.Errorf("decoding suggested invoice ids of %s: %w", t.LineNumber, err)
	}

	l.Transaction = t
	l.Status = matching.Status(status)
	l.Link.SubscriptionID = optionalUUID(subscriptionID)
	l.Link.DeclarationID = optionalUUID(declarationID)

	if partnerID.Valid {
		l.Link.Partner = &matching.PartnerRef{
			ID:       partnerID.UUID,
			Name:     partnerName.String,
			Category: matching.PartnerCategory(partnerCategory.String),
		}
	}

	return l, nil
}

// UpsertLine writes the current link and status of a line. A line missing
// from the batch is appended after the last one.
func (s *Store) UpsertLine(ctx context.Context, batchID uuid.UUID, l matching.Line) error {
	cols, err := linkColumns(l)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO reconciliation_lines (
			line_number, batch_id, position, date, label, debit, credit, amount,
			status, invoice_ids, suggested_invoice_ids, subscription_id, declaration_id,
			partner_id, partner_name, partner_category, score, notes, updated_at
		)
		VALUES (
			$1, $2, COALESCE((SELECT MAX(position) + 1 FROM reconciliation_lines WHERE batch_id = $2), 0),
			$3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW()
		)
		ON CONFLICT (line_number) DO UPDATE SET
			status = EXCLUDED.status,
			invoice_ids = EXCLUDED.invoice_ids,
			suggested_invoice_ids = EXCLUDED.suggested_invoice_ids,
			subscription_id = EXCLUDED.subscription_id,
			declaration_id = EXCLUDED.declaration_id,
			partner_id = EXCLUDED.partner_id,
			partner_name = EXCLUDED.partner_name,
			partner_category = EXCLUDED.partner_category,
			score = EXCLUDED.score,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		WHERE reconciliation_lines.batch_id = EXCLUDED.batch_id
	`

	t := l.Transaction

	args := append([]any{l.Number(), batchID, t.Date, t.Label, t.Debit, t.Credit, t.Amount}, cols...)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upserting line %s: %w", l.Number(), err)
	}

	return nil
}

func (s *Store) UpdateCounts(ctx context.Context, batchID uuid.UUID, lines, matched int) error {
	query := `UPDATE reconciliation_batches SET line_count = $2, matched_count = $3 WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, batchID, lines, matched)
	if err != nil {
		return fmt.Errorf("updating batch counts: %w", err)
	}

	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}

	if n == 0 {
		return reconciliation.ErrNotFound
	}

	return nil
}

func (s *Store) FindValidatedOverlap(ctx context.Context, start, end time.Time, exclude uuid.UUID) (*reconciliation.Batch, error) {
	query := `SELECT ` + selectBatchColumns + `
		FROM reconciliation_batches
		WHERE status = $1 AND id <> $2 AND date_start <= $4 AND date_end >= $3
		ORDER BY date_start ASC
		LIMIT 1
	`

	b, err := scanBatch(s.db.QueryRowContext(ctx, query, reconciliation.StatusValidated, exclude, start, end))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("finding validated overlap: %w", err)
	}

	return b, nil
}

func (s *Store) DeleteConsumptions(ctx context.Context, lineNumber string) error {
	query := `
		DELETE FROM payment_consumptions pc
		USING payments p, reconciliations r
		WHERE pc.payment_id = p.id AND p.reconciliation_id = r.id AND r.line_number = $1
	`
	if _, err := s.db.ExecContext(ctx, query, lineNumber); err != nil {
		return fmt.Errorf("deleting payment consumptions: %w", err)
	}

	return nil
}

func (s *Store) DeletePayments(ctx context.Context, lineNumber string) error {
	query := `
		DELETE FROM payments p
		USING reconciliations r
		WHERE p.reconciliation_id = r.id AND r.line_number = $1
	`
	if _, err := s.db.ExecContext(ctx, query, lineNumber); err != nil {
		return fmt.Errorf("deleting payments: %w", err)
	}

	return nil
}

func (s *Store) DeleteInvoiceLinks(ctx context.Context, lineNumber string) error {
	query := `
		DELETE FROM invoice_reconciliations ir
		USING reconciliations r
		WHERE ir.reconciliation_id = r.id AND r.line_number = $1
	`
	if _, err := s.db.ExecContext(ctx, query, lineNumber); err != nil {
		return fmt.Errorf("deleting invoice links: %w", err)
	}

	return nil
}

func (s *Store) UnlinkInvoices(ctx context.Context, lineNumber string) error {
	query := `
		UPDATE invoices
		SET reconciliation_number = NULL, reconciliation_line = NULL, reconciled_at = NULL
		WHERE reconciliation_line = $1
	`
	if _, err := s.db.ExecContext(ctx, query, lineNumber); err != nil {
		return fmt.Errorf("unlinking invoices: %w", err)
	}

	return nil
}

func (s *Store) DeleteReconciliation(ctx context.Context, lineNumber string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reconciliations WHERE line_number = $1`, lineNumber); err != nil {
		return fmt.Errorf("deleting reconciliation: %w", err)
	}

	return nil
}

func (s *Store) DeleteLine(ctx context.Context, lineNumber string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reconciliation_lines WHERE line_number = $1`, lineNumber); err != nil {
		return fmt.Errorf("deleting line: %w", err)
	}

	return nil
}

func (s *Store) DeleteBatch(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reconciliation_batches WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting batch: %w", err)
	}

	return nil
}

// validationLockKey serialises validations so two overlapping batches
// cannot both pass the period check.
func validationLockKey() int64 {
	h := fnv.New64a()
	h.Write([]byte("reconciliation_batches"))
	h.Write([]byte{0})
	h.Write([]byte(reconciliation.StatusValidated))

	return int64(h.Sum64())
}

type validationTx struct {
	tx *sql.Tx
}

func (s *Store) BeginValidation(ctx context.Context, batchID uuid.UUID) (reconciliation.ValidationTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning validation tx: %w", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", validationLockKey()); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring validation lock for %s: %w", batchID, err)
	}

	return &validationTx{tx: dbTx}, nil
}

func (vtx *validationTx) Commit() error   { return vtx.tx.Commit() }
func (vtx *validationTx) Rollback() error { return vtx.tx.Rollback() }

// EnsureReconciliation returns the reconciliation record of a line,
// creating it when missing.
func (vtx *validationTx) EnsureReconciliation(ctx context.Context, batchID uuid.UUID, lineNumber string) (uuid.UUID, error) {
	query := `
		INSERT INTO reconciliations (id, batch_id, line_number, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (line_number) DO UPDATE SET batch_id = EXCLUDED.batch_id
		RETURNING id
	`

	var id uuid.UUID
	if err := vtx.tx.QueryRowContext(ctx, query, uuid.New(), batchID, lineNumber).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("ensuring reconciliation: %w", err)
	}

	return id, nil
}

func (vtx *validationTx) LinkInvoice(ctx context.Context, link reconciliation.InvoiceLink) error {
	query := `
		UPDATE invoices
		SET reconciliation_number = $2, reconciliation_line = $3, reconciled_at = $4
		WHERE id = $1 AND (reconciliation_line IS NULL OR reconciliation_line = $3)
	`

	res, err := vtx.tx.ExecContext(ctx, query, link.InvoiceID, link.BatchNumber, link.LineNumber, link.At)
	if err != nil {
		return fmt.Errorf("writing invoice reconciliation: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}

	if n == 0 {
		holder := vtx.tx.QueryRowContext(ctx,
			`SELECT reconciliation_number, reconciliation_line FROM invoices WHERE id = $1`, link.InvoiceID,
		)

		return invoiceConflict(holder, link.InvoiceID)
	}

	// The unique index on invoice_id rejects a second reconciliation.
	joinQuery := `
		INSERT INTO invoice_reconciliations (invoice_id, reconciliation_id)
		VALUES ($1, $2)
		ON CONFLICT (invoice_id, reconciliation_id) DO NOTHING
	`
	if _, err := vtx.tx.ExecContext(ctx, joinQuery, link.InvoiceID, link.ReconciliationID); err != nil {
		return fmt.Errorf("linking invoice to reconciliation: %w", err)
	}

	return nil
}

func (vtx *validationTx) PurgePayments(ctx context.Context, reconciliationID uuid.UUID) error {
	consumptions := `
		DELETE FROM payment_consumptions pc
		USING payments p
		WHERE pc.payment_id = p.id AND p.reconciliation_id = $1
	`
	if _, err := vtx.tx.ExecContext(ctx, consumptions, reconciliationID); err != nil {
		return fmt.Errorf("purging payment consumptions: %w", err)
	}

	if _, err := vtx.tx.ExecContext(ctx, `DELETE FROM payments WHERE reconciliation_id = $1`, reconciliationID); err != nil {
		return fmt.Errorf("purging payments: %w", err)
	}

	return nil
}

// CreatePayment inserts the payment and the consumption of its month.
func (vtx *validationTx) CreatePayment(ctx context.Context, p *reconciliation.Payment) error {
	query := `
		INSERT INTO payments (id, reconciliation_id, kind, subscription_id, declaration_id, amount, paid_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	if _, err := vtx.tx.ExecContext(ctx, query,
		p.ID, p.ReconciliationID, p.Kind, nullUUID(p.SubscriptionID), nullUUID(p.DeclarationID), p.Amount, p.PaidOn,
	); err != nil {
		return fmt.Errorf("inserting payment: %w", err)
	}

	consumption := `
		INSERT INTO payment_consumptions (id, payment_id, period, amount, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	if _, err := vtx.tx.ExecContext(ctx, consumption, uuid.New(), p.ID, periodOf(p.PaidOn), p.Amount); err != nil {
		return fmt.Errorf("inserting payment consumption: %w", err)
	}

	return nil
}

func periodOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MarkValidated flips the batch to VALIDATED. The period check is repeated
// under the validation lock.
func (vtx *validationTx) MarkValidated(ctx context.Context, batchID uuid.UUID, matched int, at time.Time) error {
	query := `
		UPDATE reconciliation_batches b
		SET status = $2, matched_count = $3, validated_at = $4
		WHERE b.id = $1 AND b.status = $5
			AND NOT EXISTS (
				SELECT 1 FROM reconciliation_batches o
				WHERE o.status = $2 AND o.id <> b.id
					AND o.date_start <= b.date_end AND o.date_end >= b.date_start
			)
	`

	res, err := vtx.tx.ExecContext(ctx, query,
		batchID, reconciliation.StatusValidated, matched, at, reconciliation.StatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("marking batch validated: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}

	if n == 0 {
		conflict := `
			SELECT o.number, o.date_start, o.date_end
			FROM reconciliation_batches o
			JOIN reconciliation_batches b ON b.id = $1
			WHERE o.status = $2 AND o.id <> b.id
				AND o.date_start <= b.date_end AND o.date_end >= b.date_start
			ORDER BY o.date_start ASC
			LIMIT 1
		`

		return reconciledConflict(vtx.tx.QueryRowContext(ctx, conflict, batchID, reconciliation.StatusValidated), batchID)
	}

	return nil
}

// invoiceConflict explains why an invoice could not be claimed: it is gone,
// or another line already holds it.
func invoiceConflict(row scanner, invoiceID uuid.UUID) error {
	var number, line sql.NullString

	err := row.Scan(&number, &line)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("invoice %s: %w", invoiceID, reconciliation.ErrNotFound)
	case err != nil:
		return fmt.Errorf("reading invoice %s: %w", invoiceID, err)
	}

	return fmt.Errorf("invoice %s held by line %s of batch %s: %w",
		invoiceID, line.String, number.String, reconciliation.ErrInvoiceReconciled)
}

// reconciledConflict reads the validated batch that blocked MarkValidated.
// With no overlap left, the batch itself was no longer in progress.
func reconciledConflict(row scanner, batchID uuid.UUID) error {
	var c reconciliation.AlreadyReconciledError

	err := row.Scan(&c.Number, &c.Start, &c.End)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("batch %s: %w", batchID, reconciliation.ErrBatchValidated)
	case err != nil:
		return fmt.Errorf("finding conflicting batch: %w", err)
	}

	return &c
}
