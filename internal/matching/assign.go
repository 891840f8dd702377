package matching

import (
	"cmp"
	"slices"

	"github.com/google/uuid"
)

// Candidate is one scored (line, invoice) pair.
type Candidate struct {
	LineNumber string
	InvoiceID  uuid.UUID
	Score      int
}

// Resolve turns scored pairs into a one-to-one assignment. Pairs are taken
// greedily by descending score; ties keep their input order.
func Resolve(cands []Candidate) []Candidate {
	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return cmp.Compare(b.Score, a.Score)
	})

	usedLines := make(map[string]struct{})
	usedInvoices := make(map[uuid.UUID]struct{})

	var assigned []Candidate

	for _, c := range sorted {
		if _, ok := usedLines[c.LineNumber]; ok {
			continue
		}

		if _, ok := usedInvoices[c.InvoiceID]; ok {
			continue
		}

		usedLines[c.LineNumber] = struct{}{}
		usedInvoices[c.InvoiceID] = struct{}{}

		assigned = append(assigned, c)
	}

	return assigned
}
