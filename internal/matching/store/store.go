package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
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

// LoadSnapshot reads every candidate collection in a deterministic order.
// All reads share one read-only transaction so the snapshot is consistent.
func (s *Store) LoadSnapshot(ctx context.Context) (*matching.Snapshot, error) {
	dbTx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("beginning snapshot tx: %w", err)
	}
	defer dbTx.Rollback()

	var snap matching.Snapshot

	if snap.Invoices, err = listInvoices(ctx, dbTx); err != nil {
		return nil, err
	}

	if snap.Partners, err = listPartners(ctx, dbTx); err != nil {
		return nil, err
	}

	if snap.Subscriptions, err = listSubscriptions(ctx, dbTx); err != nil {
		return nil, err
	}

	if snap.Declarations, err = listDeclarations(ctx, dbTx); err != nil {
		return nil, err
	}

	if snap.Rules, err = listRules(ctx, dbTx); err != nil {
		return nil, err
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing snapshot tx: %w", err)
	}

	return &snap, nil
}

func listInvoices(ctx context.Context, q *sql.Tx) ([]matching.Invoice, error) {
	query := `
		SELECT i.id, i.number, i.category, i.emission_date, i.partner_id, COALESCE(p.name, i.partner_name),
			i.amount_incl_tax, i.status, i.reconciliation_number, i.reconciliation_line, i.reconciled_at
		FROM invoices i
		LEFT JOIN partners p ON p.id = i.partner_id
		WHERE i.status <> 'cancelled'
		ORDER BY i.emission_date ASC, i.number ASC
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []matching.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice rows: %w", err)
	}

	return invoices, nil
}

func scanInvoice(s scanner) (matching.Invoice, error) {
	var (
		inv                matching.Invoice
		category, status   string
		partnerID          uuid.NullUUID
		recNumber, recLine sql.NullString
		reconciledAt       sql.NullTime
	)

	if err := s.Scan(
		&inv.ID, &inv.Number, &category, &inv.EmissionDate, &partnerID, &inv.PartnerName,
		&inv.Amount, &status, &recNumber, &recLine, &reconciledAt,
	); err != nil {
		return inv, err
	}

	inv.Category = matching.InvoiceCategory(category)
	inv.Status = matching.InvoiceStatus(status)

	if partnerID.Valid {
		inv.PartnerID = partnerID.UUID
	}

	if recLine.Valid {
		inv.Linkage = &matching.InvoiceLinkage{
			BatchNumber: recNumber.String,
			LineNumber:  recLine.String,
			At:          reconciledAt.Time,
		}
	}

	return inv, nil
}

func listPartners(ctx context.Context, q *sql.Tx) ([]matching.Partner, error) {
	query := `
		SELECT id, name, category, keywords, payment_delay_days, gap_days, monthly_terms
		FROM partners
		ORDER BY name ASC, id ASC
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing partners: %w", err)
	}
	defer rows.Close()

	var partners []matching.Partner

	for rows.Next() {
		var (
			p        matching.Partner
			category string
		)

		if err := rows.Scan(&p.ID, &p.Name, &category, &p.Keywords, &p.PaymentDelayDays, &p.GapDays, &p.MonthlyTerms); err != nil {
			return nil, fmt.Errorf("scanning partner: %w", err)
		}

		p.Category = matching.PartnerCategory(category)
		partners = append(partners, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating partner rows: %w", err)
	}

	return partners, nil
}

// partnerRef builds the optional partner reference of a LEFT JOINed row.
func partnerRef(id uuid.NullUUID, name, category sql.NullString) *matching.PartnerRef {
	if !id.Valid {
		return nil
	}

	return &matching.PartnerRef{ID: id.UUID, Name: name.String, Category: matching.PartnerCategory(category.String)}
}

func listSubscriptions(ctx context.Context, q *sql.Tx) ([]matching.Subscription, error) {
	query := `
		SELECT s.id, s.name, s.monthly_amount, s.keywords, p.id, p.name, p.category
		FROM subscriptions s
		LEFT JOIN partners p ON p.id = s.partner_id
		WHERE s.active
		ORDER BY s.name ASC, s.id ASC
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []matching.Subscription

	for rows.Next() {
		var (
			sub                   matching.Subscription
			partnerID             uuid.NullUUID
			partnerName, category sql.NullString
		)

		if err := rows.Scan(&sub.ID, &sub.Name, &sub.MonthlyAmount, &sub.Keywords, &partnerID, &partnerName, &category); err != nil {
			return nil, fmt.Errorf("scanning subscription: %w", err)
		}

		sub.Partner = partnerRef(partnerID, partnerName, category)
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscription rows: %w", err)
	}

	return subs, nil
}

func listDeclarations(ctx context.Context, q *sql.Tx) ([]matching.Declaration, error) {
	query := `
		SELECT d.id, d.name, d.organization, d.estimated_amount, d.keywords, p.id, p.name, p.category
		FROM declarations d
		LEFT JOIN partners p ON p.id = d.partner_id
		WHERE d.active
		ORDER BY d.due_date ASC NULLS LAST, d.name ASC, d.id ASC
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing declarations: %w", err)
	}
	defer rows.Close()

	var decls []matching.Declaration

	for rows.Next() {
		var (
			d                     matching.Declaration
			partnerID             uuid.NullUUID
			partnerName, category sql.NullString
		)

		if err := rows.Scan(&d.ID, &d.Name, &d.Organization, &d.EstimatedAmount, &d.Keywords, &partnerID, &partnerName, &category); err != nil {
			return nil, fmt.Errorf("scanning declaration: %w", err)
		}

		d.Partner = partnerRef(partnerID, partnerName, category)
		decls = append(decls, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating declaration rows: %w", err)
	}

	return decls, nil
}

func listRules(ctx context.Context, q *sql.Tx) ([]matching.Rule, error) {
	query := `
		SELECT id, name, type, conditions, score, priority, active
		FROM rules
		ORDER BY priority DESC, created_at ASC
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing rules: %w", err)
	}
	defer rows.Close()

	var rules []matching.Rule

	for rows.Next() {
		var (
			r          matching.Rule
			typ        string
			conditions []byte
		)

		if err := rows.Scan(&r.ID, &r.Name, &typ, &conditions, &r.Score, &r.Priority, &r.Active); err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}

		r.Type = matching.RuleType(typ)
		r.Conditions = conditions
		rules = append(rules, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rule rows: %w", err)
	}

	return rules, nil
}
