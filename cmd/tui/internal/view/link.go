package view

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/matching"
)

// linkForm holds the bindings of the manual link form of one line.
type linkForm struct {
	line         string
	invoices     []uuid.UUID
	subscription uuid.UUID
	declaration  uuid.UUID
	notes        string
}

func newLinkForm(l matching.Line, snap *matching.Snapshot) (*linkForm, *huh.Form) {
	f := &linkForm{
		line:     l.Number(),
		invoices: slices.Clone(l.Link.InvoiceIDs),
		notes:    l.Link.Notes,
	}

	if l.Link.SubscriptionID != nil {
		f.subscription = *l.Link.SubscriptionID
	}

	if l.Link.DeclarationID != nil {
		f.declaration = *l.Link.DeclarationID
	}

	var invoiceOpts []huh.Option[uuid.UUID]

	for _, inv := range snap.Invoices {
		if inv.Linkage != nil && inv.Linkage.LineNumber != l.Number() {
			continue
		}

		label := fmt.Sprintf("%s  %s  %s  %s", inv.Number, FormatDate(inv.EmissionDate), inv.Amount.StringFixed(2), inv.PartnerName)
		invoiceOpts = append(invoiceOpts, huh.NewOption(label, inv.ID))
	}

	subOpts := []huh.Option[uuid.UUID]{huh.NewOption("None", uuid.Nil)}
	for _, s := range snap.Subscriptions {
		subOpts = append(subOpts, huh.NewOption(s.Name, s.ID))
	}

	declOpts := []huh.Option[uuid.UUID]{huh.NewOption("None", uuid.Nil)}
	for _, d := range snap.Declarations {
		declOpts = append(declOpts, huh.NewOption(fmt.Sprintf("%s (%s)", d.Name, d.Organization), d.ID))
	}

	fields := []huh.Field{}

	if len(invoiceOpts) > 0 {
		fields = append(fields, huh.NewMultiSelect[uuid.UUID]().
			Title("Invoices").
			Options(invoiceOpts...).
			Filterable(true).
			Height(8).
			Value(&f.invoices))
	}

	fields = append(fields,
		huh.NewSelect[uuid.UUID]().
			Title("Subscription").
			Options(subOpts...).
			Value(&f.subscription),
		huh.NewSelect[uuid.UUID]().
			Title("Declaration").
			Options(declOpts...).
			Value(&f.declaration),
		huh.NewInput().
			Title("Notes").
			Value(&f.notes),
	)

	form := huh.NewForm(huh.NewGroup(fields...)).WithWidth(70).WithShowHelp(false)

	return f, form
}

// override turns the form into a manual edit. Selecting no invoice unlinks them;
// a subscription or declaration is only cleared by a reset.
func (f *linkForm) override() matching.Override {
	o := matching.Override{
		LineNumber: f.line,
		InvoiceIDs: slices.Clone(f.invoices),
		Notes:      new(f.notes),
	}

	if o.InvoiceIDs == nil {
		o.InvoiceIDs = []uuid.UUID{}
	}

	if f.subscription != uuid.Nil {
		o.SubscriptionID = new(f.subscription)
	}

	if f.declaration != uuid.Nil {
		o.DeclarationID = new(f.declaration)
	}

	return o
}
