package matching

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

type RuleType string

const (
	RuleAmount          RuleType = "AMOUNT"
	RuleDate            RuleType = "DATE"
	RuleLabel           RuleType = "LABEL"
	RulePartner         RuleType = "PARTNER"
	RuleTransactionType RuleType = "TRANSACTION_TYPE"
	RuleCustom          RuleType = "CUSTOM"
	RuleSubscription    RuleType = "ABONNEMENT"
	RuleDeclaration     RuleType = "DECLARATION_CHARGE"
)

// Rule is a configured scoring rule. Conditions are decoded per Type.
type Rule struct {
	ID         uuid.UUID
	Name       string
	Type       RuleType
	Conditions json.RawMessage
	Score      int
	Priority   int
	Active     bool
}

const customSupplierMonthly = "supplier_monthly"

type amountCondition struct {
	Tolerance decimal.Decimal `json:"tolerance"`
}

type dateCondition struct {
	MaxDays *int `json:"max_days"`
}

type labelCondition struct {
	Keywords []string `json:"keywords"`
}

type customCondition struct {
	Kind            string              `json:"kind"`
	SupplierKeyword string              `json:"supplier_keyword"`
	AmountTolerance decimal.NullDecimal `json:"amount_tolerance"`
	SameMonth       bool                `json:"same_month"`
	Keywords        []string            `json:"keywords"`
	KeywordBonus    int                 `json:"keyword_bonus"`
}

type chargeCondition struct {
	TargetID  uuid.UUID           `json:"target_id"`
	Keywords  string              `json:"keywords"`
	Amount    decimal.NullDecimal `json:"amount"`
	Tolerance decimal.NullDecimal `json:"tolerance"`
}

// decodeConditions never fails loudly: a condition that cannot be decoded
// disables its rule.
func decodeConditions[T any](r Rule) (T, bool) {
	var c T

	if len(r.Conditions) == 0 {
		return c, false
	}

	if err := json.Unmarshal(r.Conditions, &c); err != nil {
		return c, false
	}

	return c, true
}

// charge reports whether the rule drives subscription or declaration
// matching rather than invoice scoring.
func (r Rule) charge() bool {
	return r.Type == RuleSubscription || r.Type == RuleDeclaration
}

// activeRules returns the active rules ordered by priority, highest first.
func activeRules(rules []Rule) []Rule {
	var active []Rule

	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}

	slices.SortStableFunc(active, func(a, b Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	return active
}

// Evaluator scores transaction and invoice pairs.
type Evaluator struct {
	tolerance decimal.Decimal
}

func NewEvaluator(tolerance decimal.Decimal) Evaluator {
	return Evaluator{tolerance: tolerance}
}

// Score returns the score of the pair, or false when the pair is not a
// candidate at all: amounts differ, or a supplier-monthly rule vetoes it.
func (e Evaluator) Score(tx transaction.Transaction, inv Invoice, rules []Rule) (int, bool) {
	diff := tx.Abs().Sub(inv.Amount.Abs()).Abs()
	if !diff.LessThan(e.tolerance) {
		return 0, false
	}

	label := Normalize(tx.Label)
	active := slices.DeleteFunc(activeRules(rules), Rule.charge)

	if e.excluded(label, tx, inv, active) {
		return 0, false
	}

	if len(active) == 0 {
		return baseScore + e.defaultScore(label, tx, inv), true
	}

	score := baseScore

	for _, r := range active {
		if e.ruleHolds(r, label, diff, tx, inv) {
			score += r.Score
		}

		score += e.bonus(r, label, diff, tx, inv)
	}

	return score, true
}

func (e Evaluator) excluded(label string, tx transaction.Transaction, inv Invoice, rules []Rule) bool {
	for _, r := range rules {
		if r.Type != RuleCustom {
			continue
		}

		c, ok := decodeConditions[customCondition](r)
		if !ok || c.Kind != customSupplierMonthly || !c.SameMonth {
			continue
		}

		if MatchExpression(label, c.SupplierKeyword) && !sameMonth(tx.Date, inv.EmissionDate) {
			return true
		}
	}

	return false
}

func (e Evaluator) ruleHolds(r Rule, label string, diff decimal.Decimal, tx transaction.Transaction, inv Invoice) bool {
	switch r.Type {
	case RuleAmount:
		c, ok := decodeConditions[amountCondition](r)
		return ok && diff.LessThanOrEqual(c.Tolerance)
	case RuleDate:
		c, ok := decodeConditions[dateCondition](r)
		return ok && c.MaxDays != nil && daysBetween(tx.Date, inv.EmissionDate) <= *c.MaxDays
	case RuleLabel:
		c, ok := decodeConditions[labelCondition](r)
		return ok && anyKeyword(label, c.Keywords)
	case RulePartner:
		return labelMentions(label, inv.PartnerName)
	case RuleTransactionType:
		return typeMatches(tx, inv)
	case RuleCustom:
		c, ok := decodeConditions[customCondition](r)
		if !ok || c.Kind != customSupplierMonthly {
			return false
		}

		if !MatchExpression(label, c.SupplierKeyword) {
			return false
		}

		tol := e.tolerance
		if c.AmountTolerance.Valid {
			tol = c.AmountTolerance.Decimal
		}

		if diff.GreaterThan(tol) {
			return false
		}

		return !c.SameMonth || sameMonth(tx.Date, inv.EmissionDate)
	default:
		return false
	}
}

// bonus is the extra keyword-list score of a holding supplier-monthly rule.
func (e Evaluator) bonus(r Rule, label string, diff decimal.Decimal, tx transaction.Transaction, inv Invoice) int {
	if r.Type != RuleCustom {
		return 0
	}

	c, ok := decodeConditions[customCondition](r)
	if !ok || c.KeywordBonus == 0 || len(c.Keywords) == 0 {
		return 0
	}

	if !e.ruleHolds(r, label, diff, tx, inv) || !anyKeyword(label, c.Keywords) {
		return 0
	}

	return c.KeywordBonus
}

var paymentKeywords = map[string]struct{}{
	"VIR": {}, "VIREMENT": {}, "SEPA": {}, "PRLV": {}, "PRELEVEMENT": {},
	"CB": {}, "CARTE": {}, "CHQ": {}, "CHEQUE": {},
	"PAIEMENT": {}, "REGLEMENT": {}, "FACTURE": {}, "FACT": {},
}

func (e Evaluator) defaultScore(label string, tx transaction.Transaction, inv Invoice) int {
	score := 0

	if typeMatches(tx, inv) {
		score += 10
	}

	switch days := daysBetween(tx.Date, inv.EmissionDate); {
	case days == 0:
		score += 30
	case days <= 3:
		score += 25
	case days <= 7:
		score += 20
	case days <= 30:
		score += 10
	case days <= 60:
		score += 5
	}

	if labelMentions(label, inv.PartnerName) {
		score += 15
	}

	if digits := digitsOf(inv.Number); len(digits) >= 3 && strings.Contains(label, digits) {
		score += 10
	}

	for _, w := range strings.Fields(label) {
		if _, ok := paymentKeywords[w]; ok {
			score += 5
			break
		}
	}

	return score
}

func typeMatches(tx transaction.Transaction, inv Invoice) bool {
	if tx.Credit.IsPositive() && inv.Category == CategorySales {
		return true
	}

	return tx.Debit.IsPositive() && inv.Category.IsPurchase()
}

func anyKeyword(label string, keywords []string) bool {
	for _, k := range keywords {
		n := Normalize(k)
		if n != "" && strings.Contains(label, n) {
			return true
		}
	}

	return false
}

// daysBetween counts whole calendar days between a and b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	d := int(da.Sub(db).Hours() / 24)
	if d < 0 {
		return -d
	}

	return d
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

func digitsOf(s string) string {
	out := make([]rune, 0, len(s))

	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}

	return string(out)
}
