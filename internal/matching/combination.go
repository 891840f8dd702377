package matching

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MatchCombinations links open lines to one to four invoices of the same
// party whose total equals the transaction amount. Invoices consumed by one
// line are unavailable to later lines of the same run.
//
// Candidates are ordered by emission date, then snapshot order, so the first
// subset found is the same on every run.
func (e *Engine) MatchCombinations(ws *WorkingSet, snap *Snapshot) Diff {
	consumed := ws.claimed()

	var pool []Invoice

	for _, inv := range snap.Invoices {
		if inv.Linkage == nil && inv.settled() {
			pool = append(pool, inv)
		}
	}

	slices.SortStableFunc(pool, func(a, b Invoice) int {
		return a.EmissionDate.Compare(b.EmissionDate)
	})

	groups := partnersByPriority(snap.Partners)

	var diff Diff

	for _, l := range ws.Lines() {
		if l.Link.HasStrongLink() || len(l.Link.SuggestedInvoiceIDs) > 0 {
			continue
		}

		if ref := l.Link.Partner; ref != nil && ref.Category != PartnerGeneralSupplier {
			p, ok := snap.Partner(ref.ID)
			if !ok || !p.paysOnTerms(l.Transaction.IsCredit()) {
				continue
			}
		}

		free := func(inv Invoice) bool {
			_, taken := consumed[inv.ID]
			return !taken
		}

		ids, party := e.sameMonthExpense(l, pool, free, snap)

		if ids == nil {
			ids, party = e.delayedCombination(l, pool, free, snap, groups)
		}

		if ids == nil {
			continue
		}

		for _, id := range ids {
			consumed[id] = struct{}{}
		}

		link := l.Link.Clone()
		link.InvoiceIDs = ids
		link.Score = ScoreCombination

		if link.Partner == nil {
			link.Partner = party
		}

		diff = append(diff, Mutation{LineNumber: l.Number(), Link: link})
	}

	return diff
}

// sameMonthExpense picks the first general-expense invoice of the
// transaction's month whose amount matches.
func (e *Engine) sameMonthExpense(l Line, pool []Invoice, free func(Invoice) bool, snap *Snapshot) ([]uuid.UUID, *PartnerRef) {
	tx := l.Transaction
	if !tx.IsDebit() {
		return nil, nil
	}

	for _, inv := range pool {
		if inv.Category != CategoryPurchasesGeneral || !free(inv) || !sameMonth(tx.Date, inv.EmissionDate) {
			continue
		}

		if AmountsEqual(tx.Abs(), inv.Amount.Abs(), e.config.Tolerance) {
			return []uuid.UUID{inv.ID}, snap.partnerOf(inv)
		}
	}

	return nil, nil
}

func (e *Engine) delayedCombination(l Line, pool []Invoice, free func(Invoice) bool, snap *Snapshot, groups [][]keyedPartner) ([]uuid.UUID, *PartnerRef) {
	tx := l.Transaction

	party, ok := e.partyOf(l, snap, groups)
	if !ok {
		return nil, nil
	}

	target := targetPeriod(tx.Date, party)

	var (
		cands   []Invoice
		amounts []decimal.Decimal
	)

	for _, inv := range pool {
		if !free(inv) || !sameMonth(inv.EmissionDate, target) || !invoiceOf(inv, party) {
			continue
		}

		if tx.IsCredit() != (inv.Category == CategorySales) {
			continue
		}

		cands = append(cands, inv)
		amounts = append(amounts, inv.Amount.Abs())
	}

	picked := findSubset(amounts, tx.Abs(), e.config.Tolerance, maxCombination)
	if picked == nil {
		return nil, nil
	}

	ids := make([]uuid.UUID, len(picked))
	for i, idx := range picked {
		ids[i] = cands[idx].ID
	}

	return ids, new(party.Ref())
}

// partyOf resolves the counterparty whose payment terms apply to the line:
// the attached partner when it has terms for the payment's direction,
// otherwise a keyword match among partners that do.
func (e *Engine) partyOf(l Line, snap *Snapshot, groups [][]keyedPartner) (Partner, bool) {
	credit := l.Transaction.IsCredit()

	if ref := l.Link.Partner; ref != nil {
		if p, ok := snap.Partner(ref.ID); ok && p.paysOnTerms(credit) {
			return p, true
		}
	}

	return findPartner(groups, Normalize(l.Transaction.Label), func(p Partner) bool {
		return p.paysOnTerms(credit)
	})
}

// paysOnTerms reports whether p settles invoices after a delay, in the
// direction of the payment: clients pay in, suppliers are paid out.
func (p Partner) paysOnTerms(credit bool) bool {
	if !p.hasTerms() {
		return false
	}

	if credit {
		return p.Category == PartnerClient
	}

	return p.Category == PartnerGeneralSupplier || p.Category == PartnerServicesSupplier || p.Category == PartnerStateSupplier
}

// targetPeriod is the invoicing period a payment made on paid settles.
func targetPeriod(paid time.Time, p Partner) time.Time {
	offset := p.PaymentDelayDays + p.GapDays

	if p.MonthlyTerms {
		months := (offset + 29) / 30
		first := time.Date(paid.Year(), paid.Month(), 1, 0, 0, 0, 0, paid.Location())

		return first.AddDate(0, -months, 0)
	}

	return paid.AddDate(0, 0, -offset)
}

func invoiceOf(inv Invoice, p Partner) bool {
	if inv.PartnerID != uuid.Nil {
		return inv.PartnerID == p.ID
	}

	return inv.PartnerName != "" && Normalize(inv.PartnerName) == Normalize(p.Name)
}

// findSubset returns the indices of the first subset of amounts, of size one
// up to maxSize, whose sum equals target. Subsets are enumerated by size,
// then in lexicographic index order.
func findSubset(amounts []decimal.Decimal, target, tol decimal.Decimal, maxSize int) []int {
	for size := 1; size <= maxSize && size <= len(amounts); size++ {
		picked := make([]int, 0, size)

		if found := searchSubset(amounts, target, tol, size, 0, decimal.Zero, picked); found != nil {
			return found
		}
	}

	return nil
}

func searchSubset(amounts []decimal.Decimal, target, tol decimal.Decimal, size, start int, sum decimal.Decimal, picked []int) []int {
	if len(picked) == size {
		if AmountsEqual(sum, target, tol) {
			return slices.Clone(picked)
		}

		return nil
	}

	for i := start; i <= len(amounts)-(size-len(picked)); i++ {
		if found := searchSubset(amounts, target, tol, size, i+1, sum.Add(amounts[i]), append(picked, i)); found != nil {
			return found
		}
	}

	return nil
}
