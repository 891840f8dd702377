package matching

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

type chargeKind int

const (
	chargeSubscription chargeKind = iota + 1
	chargeDeclaration
)

type chargeMatch struct {
	kind    chargeKind
	id      uuid.UUID
	score   int
	partner *PartnerRef
}

// MatchCharges links lines to subscriptions and declarations. The direct
// path runs first; a configured rule replaces its result when it scores higher.
func (e *Engine) MatchCharges(ws *WorkingSet, snap *Snapshot) Diff {
	rules := activeRules(snap.Rules)

	var diff Diff

	for _, l := range ws.Lines() {
		if l.Link.SubscriptionID != nil || l.Link.DeclarationID != nil || len(l.Link.InvoiceIDs) > 0 {
			continue
		}

		label := Normalize(l.Transaction.Label)

		best, found := e.directCharge(l.Transaction, label, snap)

		if ruled, ok := e.ruledCharge(l.Transaction, label, snap, rules); ok && (!found || ruled.score > best.score) {
			best, found = ruled, true
		}

		if !found {
			continue
		}

		link := l.Link.Clone()

		switch best.kind {
		case chargeSubscription:
			link.SubscriptionID = &best.id
		case chargeDeclaration:
			link.DeclarationID = &best.id
		}

		link.Score = best.score

		if link.Partner == nil && best.partner != nil {
			p := *best.partner
			link.Partner = &p
		}

		diff = append(diff, Mutation{LineNumber: l.Number(), Link: link})
	}

	return diff
}

func (e *Engine) directCharge(tx transaction.Transaction, label string, snap *Snapshot) (chargeMatch, bool) {
	abs := tx.Abs()

	for _, s := range snap.Subscriptions {
		if s.MonthlyAmount.Valid && AmountsEqual(abs, s.MonthlyAmount.Decimal.Abs(), e.config.Tolerance) {
			return chargeMatch{kind: chargeSubscription, id: s.ID, score: ScoreChargeAmount, partner: s.Partner}, true
		}
	}

	for _, s := range snap.Subscriptions {
		if subscriptionMentioned(label, s) {
			return chargeMatch{kind: chargeSubscription, id: s.ID, score: ScoreChargeKeyword, partner: s.Partner}, true
		}
	}

	for _, d := range snap.Declarations {
		if !declarationMentioned(label, d) {
			continue
		}

		if !d.EstimatedAmount.Valid {
			return chargeMatch{kind: chargeDeclaration, id: d.ID, score: ScoreChargeKeyword, partner: d.Partner}, true
		}

		if AmountsEqual(abs, d.EstimatedAmount.Decimal.Abs(), e.config.DeclarationTolerance) {
			return chargeMatch{kind: chargeDeclaration, id: d.ID, score: ScoreChargeAmount, partner: d.Partner}, true
		}
	}

	return chargeMatch{}, false
}

func subscriptionMentioned(label string, s Subscription) bool {
	if ParseExpression(EffectiveExpression(s.Keywords, s.Name)).Match(label) {
		return true
	}

	return s.Partner != nil && ParseExpression(s.Partner.Name).Match(label)
}

func declarationMentioned(label string, d Declaration) bool {
	if ParseExpression(EffectiveExpression(d.Keywords, d.Name)).Match(label) {
		return true
	}

	if ParseExpression(d.Organization).Match(label) {
		return true
	}

	return d.Partner != nil && ParseExpression(d.Partner.Name).Match(label)
}

// ruledCharge returns the highest-scoring ABONNEMENT or DECLARATION_CHARGE
// rule that holds. Rules with undecodable conditions or unknown targets are skipped.
func (e *Engine) ruledCharge(tx transaction.Transaction, label string, snap *Snapshot, rules []Rule) (chargeMatch, bool) {
	var (
		best  chargeMatch
		found bool
	)

	for _, r := range rules {
		if r.Type != RuleSubscription && r.Type != RuleDeclaration {
			continue
		}

		c, ok := decodeConditions[chargeCondition](r)
		if !ok {
			continue
		}

		m, ok := e.chargeRuleHolds(r.Type, c, tx, label, snap)
		if !ok {
			continue
		}

		m.score = r.Score

		if !found || m.score > best.score {
			best, found = m, true
		}
	}

	return best, found
}

func (e *Engine) chargeRuleHolds(t RuleType, c chargeCondition, tx transaction.Transaction, label string, snap *Snapshot) (chargeMatch, bool) {
	var (
		m        chargeMatch
		fallback string
	)

	switch t {
	case RuleSubscription:
		s, ok := snap.Subscription(c.TargetID)
		if !ok {
			return m, false
		}

		m = chargeMatch{kind: chargeSubscription, id: s.ID, partner: s.Partner}
		fallback = EffectiveExpression(s.Keywords, s.Name)
	case RuleDeclaration:
		d, ok := snap.Declaration(c.TargetID)
		if !ok {
			return m, false
		}

		m = chargeMatch{kind: chargeDeclaration, id: d.ID, partner: d.Partner}
		fallback = EffectiveExpression(d.Keywords, d.Name)
	}

	if !ParseExpression(EffectiveExpression(c.Keywords, fallback)).Match(label) {
		return m, false
	}

	if c.Amount.Valid {
		tol := e.config.Tolerance
		if c.Tolerance.Valid {
			tol = decimal.Max(c.Tolerance.Decimal, tol)
		}

		if !AmountsEqual(tx.Abs(), c.Amount.Decimal.Abs(), tol) {
			return m, false
		}
	}

	return m, true
}
