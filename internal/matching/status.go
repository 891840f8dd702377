package matching

type Status string

const (
	StatusMatched   Status = "matched"
	StatusUncertain Status = "uncertain"
	StatusUnmatched Status = "unmatched"
)

// Derive computes a line status from its linkage alone.
//
// A pending invoice suggestion counts like a partner: the line is uncertain
// until the suggestion is confirmed.
func Derive(l Link) Status {
	if l.HasStrongLink() {
		return StatusMatched
	}

	if l.Partner != nil || len(l.SuggestedInvoiceIDs) > 0 {
		return StatusUncertain
	}

	return StatusUnmatched
}
