package matching

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

var (
	ErrLineNotFound        = errors.New("line not found")
	ErrDuplicateLine       = errors.New("duplicate line number")
	ErrConflictingLink     = errors.New("invoice linked to more than one line")
	ErrUnknownInvoice      = errors.New("unknown invoice")
	ErrInvoiceLinked       = errors.New("invoice already reconciled")
	ErrUnknownSubscription = errors.New("unknown subscription")
	ErrUnknownDeclaration  = errors.New("unknown declaration")
	ErrEmptyOverride       = errors.New("override changes nothing")
	ErrNothingToConfirm    = errors.New("line has no suggestion to confirm")
)

// ScoreManual is recorded when a user links a record by hand.
const ScoreManual = 100

// Link is everything a line is attached to.
type Link struct {
	InvoiceIDs          []uuid.UUID
	SuggestedInvoiceIDs []uuid.UUID
	SubscriptionID      *uuid.UUID
	DeclarationID       *uuid.UUID
	Partner             *PartnerRef
	Score               int
	Notes               string
}

// HasStrongLink reports whether the line carries evidence sufficient for a match.
func (l Link) HasStrongLink() bool {
	return len(l.InvoiceIDs) > 0 || l.SubscriptionID != nil || l.DeclarationID != nil
}

func (l Link) Clone() Link {
	c := l
	c.InvoiceIDs = slices.Clone(l.InvoiceIDs)
	c.SuggestedInvoiceIDs = slices.Clone(l.SuggestedInvoiceIDs)

	if l.SubscriptionID != nil {
		id := *l.SubscriptionID
		c.SubscriptionID = &id
	}

	if l.DeclarationID != nil {
		id := *l.DeclarationID
		c.DeclarationID = &id
	}

	if l.Partner != nil {
		p := *l.Partner
		c.Partner = &p
	}

	return c
}

type Line struct {
	Transaction transaction.Transaction
	Link        Link
	Status      Status
}

func (l Line) Number() string {
	return l.Transaction.LineNumber
}

// Mutation replaces the whole link of one line.
type Mutation struct {
	LineNumber string
	Link       Link
}

// Diff is the result of one strategy run or manual command.
type Diff []Mutation

// WorkingSet is the in-memory state of a batch being reconciled.
// Every change goes through Apply so that status is always derived.
type WorkingSet struct {
	mu    sync.RWMutex
	lines []Line
	index map[string]int
}

func NewWorkingSet(lines []Line) (*WorkingSet, error) {
	ws := &WorkingSet{
		lines: make([]Line, 0, len(lines)),
		index: make(map[string]int, len(lines)),
	}

	owner := make(map[uuid.UUID]string)

	for _, l := range lines {
		n := l.Number()
		if _, dup := ws.index[n]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLine, n)
		}

		for _, id := range l.Link.InvoiceIDs {
			if other, taken := owner[id]; taken {
				return nil, fmt.Errorf("%w: invoice %s on %s and %s", ErrConflictingLink, id, other, n)
			}

			owner[id] = n
		}

		l.Link = l.Link.Clone()
		l.Status = Derive(l.Link)

		ws.index[n] = len(ws.lines)
		ws.lines = append(ws.lines, l)
	}

	return ws, nil
}

func (ws *WorkingSet) Len() int {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	return len(ws.lines)
}

// Lines returns a copy of every line in import order.
func (ws *WorkingSet) Lines() []Line {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	out := make([]Line, len(ws.lines))
	for i, l := range ws.lines {
		l.Link = l.Link.Clone()
		out[i] = l
	}

	return out
}

func (ws *WorkingSet) Line(number string) (Line, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	i, ok := ws.index[number]
	if !ok {
		return Line{}, false
	}

	l := ws.lines[i]
	l.Link = l.Link.Clone()

	return l, true
}

// Counts returns the number of lines and how many of them are matched.
func (ws *WorkingSet) Counts() (total, matched int) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	for _, l := range ws.lines {
		if l.Status == StatusMatched {
			matched++
		}
	}

	return len(ws.lines), matched
}

// claimed returns every invoice linked or suggested anywhere in the set.
func (ws *WorkingSet) claimed() map[uuid.UUID]struct{} {
	ws.mu.RLock()
	defer ws.mu.RUnlock()

	ids := make(map[uuid.UUID]struct{})

	for _, l := range ws.lines {
		for _, id := range l.Link.InvoiceIDs {
			ids[id] = struct{}{}
		}

		for _, id := range l.Link.SuggestedInvoiceIDs {
			ids[id] = struct{}{}
		}
	}

	return ids
}

// Apply validates d against the whole set, then applies it in one step.
// Nothing is changed when an error is returned.
func (ws *WorkingSet) Apply(d Diff) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	return ws.apply(d)
}

func (ws *WorkingSet) apply(d Diff) error {
	pending := make(map[string]Link, len(d))

	for _, m := range d {
		if _, ok := ws.index[m.LineNumber]; !ok {
			return fmt.Errorf("%w: %s", ErrLineNotFound, m.LineNumber)
		}

		if _, dup := pending[m.LineNumber]; dup {
			return fmt.Errorf("%w: %s mutated twice", ErrDuplicateLine, m.LineNumber)
		}

		pending[m.LineNumber] = m.Link
	}

	owner := make(map[uuid.UUID]string)

	for _, l := range ws.lines {
		link := l.Link
		if p, ok := pending[l.Number()]; ok {
			link = p
		}

		for _, id := range link.InvoiceIDs {
			if other, taken := owner[id]; taken {
				return fmt.Errorf("%w: invoice %s on %s and %s", ErrConflictingLink, id, other, l.Number())
			}

			owner[id] = l.Number()
		}
	}

	for _, m := range d {
		i := ws.index[m.LineNumber]
		ws.lines[i].Link = m.Link.Clone()
		ws.lines[i].Status = Derive(ws.lines[i].Link)
	}

	return nil
}

// Override is a manual edit of one line. Nil fields are left unchanged;
// a non-nil InvoiceIDs replaces the linked invoices (an empty slice unlinks them).
type Override struct {
	LineNumber     string
	InvoiceIDs     []uuid.UUID
	SubscriptionID *uuid.UUID
	DeclarationID  *uuid.UUID
	Partner        *PartnerRef
	Notes          *string
}

func (o Override) empty() bool {
	return o.InvoiceIDs == nil && o.SubscriptionID == nil && o.DeclarationID == nil && o.Partner == nil && o.Notes == nil
}

// Override validates o against snap and applies it. Invoices taken from
// another line's suggestions are withdrawn from that line.
func (ws *WorkingSet) Override(o Override, snap *Snapshot) (Diff, error) {
	if o.empty() {
		return nil, ErrEmptyOverride
	}

	if err := validateOverride(o, snap); err != nil {
		return nil, err
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	i, ok := ws.index[o.LineNumber]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, o.LineNumber)
	}

	link := ws.lines[i].Link.Clone()
	strong := false

	if o.InvoiceIDs != nil {
		link.InvoiceIDs = slices.Clone(o.InvoiceIDs)
		link.SuggestedInvoiceIDs = nil
		strong = len(o.InvoiceIDs) > 0
	}

	if o.SubscriptionID != nil {
		id := *o.SubscriptionID
		link.SubscriptionID = &id
		strong = true
	}

	if o.DeclarationID != nil {
		id := *o.DeclarationID
		link.DeclarationID = &id
		strong = true
	}

	if o.Partner != nil {
		ref := *o.Partner
		if p, found := snap.Partner(ref.ID); found {
			ref = p.Ref()
		}

		link.Partner = &ref
	}

	if o.Notes != nil {
		link.Notes = *o.Notes
	}

	if strong {
		link.Score = ScoreManual
	}

	diff := Diff{{LineNumber: o.LineNumber, Link: link}}

	for j, other := range ws.lines {
		if j == i || len(other.Link.SuggestedInvoiceIDs) == 0 {
			continue
		}

		kept := slices.DeleteFunc(slices.Clone(other.Link.SuggestedInvoiceIDs), func(id uuid.UUID) bool {
			return slices.Contains(o.InvoiceIDs, id)
		})

		if len(kept) == len(other.Link.SuggestedInvoiceIDs) {
			continue
		}

		withdrawn := other.Link.Clone()
		withdrawn.SuggestedInvoiceIDs = kept

		if len(kept) == 0 && !withdrawn.HasStrongLink() {
			withdrawn.Score = 0
		}

		diff = append(diff, Mutation{LineNumber: other.Number(), Link: withdrawn})
	}

	if err := ws.apply(diff); err != nil {
		return nil, err
	}

	return diff, nil
}

func validateOverride(o Override, snap *Snapshot) error {
	for _, id := range o.InvoiceIDs {
		inv, ok := snap.Invoice(id)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownInvoice, id)
		}

		if inv.Linkage != nil && inv.Linkage.LineNumber != o.LineNumber {
			return fmt.Errorf("%w: %s by line %s", ErrInvoiceLinked, inv.Number, inv.Linkage.LineNumber)
		}
	}

	if o.SubscriptionID != nil {
		if _, ok := snap.Subscription(*o.SubscriptionID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSubscription, *o.SubscriptionID)
		}
	}

	if o.DeclarationID != nil {
		if _, ok := snap.Declaration(*o.DeclarationID); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownDeclaration, *o.DeclarationID)
		}
	}

	return nil
}

// Confirm promotes the suggested invoices of a line to links.
func (ws *WorkingSet) Confirm(number string) (Diff, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	i, ok := ws.index[number]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, number)
	}

	link := ws.lines[i].Link.Clone()
	if len(link.SuggestedInvoiceIDs) == 0 {
		return nil, ErrNothingToConfirm
	}

	link.InvoiceIDs = append(link.InvoiceIDs, link.SuggestedInvoiceIDs...)
	link.SuggestedInvoiceIDs = nil

	diff := Diff{{LineNumber: number, Link: link}}
	if err := ws.apply(diff); err != nil {
		return nil, err
	}

	return diff, nil
}

// Reset clears every linkage field of a line, keeping its notes, and
// returns the link it had before.
func (ws *WorkingSet) Reset(number string) (Link, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	i, ok := ws.index[number]
	if !ok {
		return Link{}, fmt.Errorf("%w: %s", ErrLineNotFound, number)
	}

	prev := ws.lines[i].Link.Clone()

	if err := ws.apply(Diff{{LineNumber: number, Link: Link{Notes: prev.Notes}}}); err != nil {
		return Link{}, err
	}

	return prev, nil
}
