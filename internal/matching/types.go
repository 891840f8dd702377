package matching

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceCategory classifies invoices by ledger.
type InvoiceCategory string

const (
	CategorySales             InvoiceCategory = "SALES"
	CategoryPurchasesGeneral  InvoiceCategory = "PURCHASES_GENERAL"
	CategoryPurchasesServices InvoiceCategory = "PURCHASES_SERVICES"
	CategoryPurchasesState    InvoiceCategory = "PURCHASES_STATE"
)

func (c InvoiceCategory) IsPurchase() bool {
	switch c {
	case CategoryPurchasesGeneral, CategoryPurchasesServices, CategoryPurchasesState:
		return true
	}

	return false
}

// InvoiceStatus is the invoice lifecycle as seen by the invoicing module.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceValidated InvoiceStatus = "validated"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// InvoiceLinkage is the reconciliation write-back stored on an invoice at validation.
type InvoiceLinkage struct {
	BatchNumber string
	LineNumber  string
	At          time.Time
}

type Invoice struct {
	ID           uuid.UUID
	Number       string
	Category     InvoiceCategory
	EmissionDate time.Time
	PartnerID    uuid.UUID
	PartnerName  string
	Amount       decimal.Decimal // including tax
	Status       InvoiceStatus
	Linkage      *InvoiceLinkage // nil while the invoice is free
}

func (i Invoice) settled() bool {
	return i.Status == InvoiceValidated || i.Status == InvoicePaid
}

// PartnerCategory classifies non-financial counterparties.
type PartnerCategory string

const (
	PartnerGeneralSupplier  PartnerCategory = "general_supplier"
	PartnerServicesSupplier PartnerCategory = "services_supplier"
	PartnerStateSupplier    PartnerCategory = "state_supplier"
	PartnerClient           PartnerCategory = "client"
	PartnerBank             PartnerCategory = "bank"
	PartnerContractor       PartnerCategory = "contractor"
	PartnerEmployee         PartnerCategory = "employee"
)

// PartnerPriority is the order in which categories are searched for a keyword match.
var PartnerPriority = []PartnerCategory{
	PartnerGeneralSupplier,
	PartnerClient,
	PartnerServicesSupplier,
	PartnerStateSupplier,
	PartnerBank,
	PartnerContractor,
	PartnerEmployee,
}

// PartnerRef is the partner reference attached to a line.
type PartnerRef struct {
	ID       uuid.UUID
	Name     string
	Category PartnerCategory
}

type Partner struct {
	ID       uuid.UUID
	Name     string
	Category PartnerCategory
	Keywords string

	// Payment terms, used to locate the invoicing period of a payment.
	PaymentDelayDays int
	GapDays          int
	MonthlyTerms     bool
}

func (p Partner) Ref() PartnerRef {
	return PartnerRef{ID: p.ID, Name: p.Name, Category: p.Category}
}

func (p Partner) hasTerms() bool {
	return p.PaymentDelayDays > 0 || p.GapDays > 0 || p.MonthlyTerms
}

// Subscription is a recurring charge such as rent or a software plan.
type Subscription struct {
	ID            uuid.UUID
	Name          string
	MonthlyAmount decimal.NullDecimal
	Keywords      string
	Partner       *PartnerRef
}

// Declaration is a social-charge or tax declaration awaiting payment.
type Declaration struct {
	ID              uuid.UUID
	Name            string
	Organization    string
	EstimatedAmount decimal.NullDecimal
	Keywords        string
	Partner         *PartnerRef
}

// Snapshot is the read-only candidate set for one matching run.
type Snapshot struct {
	Invoices      []Invoice
	Subscriptions []Subscription
	Declarations  []Declaration
	Partners      []Partner
	Rules         []Rule
}

func (s *Snapshot) Invoice(id uuid.UUID) (Invoice, bool) {
	for _, inv := range s.Invoices {
		if inv.ID == id {
			return inv, true
		}
	}

	return Invoice{}, false
}

// SetLinkage records, or clears with nil, the reconciliation write-back of an invoice.
func (s *Snapshot) SetLinkage(id uuid.UUID, l *InvoiceLinkage) {
	for i := range s.Invoices {
		if s.Invoices[i].ID == id {
			s.Invoices[i].Linkage = l

			return
		}
	}
}

func (s *Snapshot) Subscription(id uuid.UUID) (Subscription, bool) {
	for _, sub := range s.Subscriptions {
		if sub.ID == id {
			return sub, true
		}
	}

	return Subscription{}, false
}

func (s *Snapshot) Declaration(id uuid.UUID) (Declaration, bool) {
	for _, d := range s.Declarations {
		if d.ID == id {
			return d, true
		}
	}

	return Declaration{}, false
}

func (s *Snapshot) Partner(id uuid.UUID) (Partner, bool) {
	for _, p := range s.Partners {
		if p.ID == id {
			return p, true
		}
	}

	return Partner{}, false
}

// partnerOf resolves the counterparty of an invoice, falling back to a
// reference built from the invoice itself when the partner is not on file.
func (s *Snapshot) partnerOf(inv Invoice) *PartnerRef {
	if inv.PartnerID != uuid.Nil {
		if p, ok := s.Partner(inv.PartnerID); ok {
			return new(p.Ref())
		}
	}

	name := Normalize(inv.PartnerName)
	if name == "" {
		return nil
	}

	for _, p := range s.Partners {
		if Normalize(p.Name) == name {
			return new(p.Ref())
		}
	}

	return &PartnerRef{ID: inv.PartnerID, Name: inv.PartnerName, Category: partnerCategoryFor(inv.Category)}
}

func partnerCategoryFor(c InvoiceCategory) PartnerCategory {
	switch c {
	case CategorySales:
		return PartnerClient
	case CategoryPurchasesServices:
		return PartnerServicesSupplier
	case CategoryPurchasesState:
		return PartnerStateSupplier
	default:
		return PartnerGeneralSupplier
	}
}
