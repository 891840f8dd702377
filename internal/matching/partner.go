package matching

type keyedPartner struct {
	partner Partner
	expr    Expression
}

// partnersByPriority groups partners per category, in PartnerPriority order,
// with their effective expressions parsed once.
func partnersByPriority(partners []Partner) [][]keyedPartner {
	groups := make([][]keyedPartner, len(PartnerPriority))

	for _, p := range partners {
		for i, c := range PartnerPriority {
			if p.Category == c {
				groups[i] = append(groups[i], keyedPartner{
					partner: p,
					expr:    ParseExpression(EffectiveExpression(p.Keywords, p.Name)),
				})

				break
			}
		}
	}

	return groups
}

// findPartner returns the first partner, by category priority then snapshot
// order, whose effective expression matches the label.
func findPartner(groups [][]keyedPartner, normalizedLabel string, accept func(Partner) bool) (Partner, bool) {
	for _, group := range groups {
		for _, kp := range group {
			if accept != nil && !accept(kp.partner) {
				continue
			}

			if kp.expr.Match(normalizedLabel) {
				return kp.partner, true
			}
		}
	}

	return Partner{}, false
}

// MatchPartners attaches a partner to every line that has none and whose
// label matches a partner's keywords.
func (e *Engine) MatchPartners(ws *WorkingSet, snap *Snapshot) Diff {
	groups := partnersByPriority(snap.Partners)

	var diff Diff

	for _, l := range ws.Lines() {
		if l.Link.Partner != nil {
			continue
		}

		p, ok := findPartner(groups, Normalize(l.Transaction.Label), nil)
		if !ok {
			continue
		}

		link := l.Link.Clone()
		link.Partner = new(p.Ref())

		diff = append(diff, Mutation{LineNumber: l.Number(), Link: link})
	}

	return diff
}
