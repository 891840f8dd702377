package matching

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize uppercases s, strips diacritics and collapses every run of
// non-alphanumeric characters into a single space.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder

	b.Grow(len(stripped))

	gap := false

	for _, r := range strings.ToUpper(stripped) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			gap = true
			continue
		}

		if gap && b.Len() > 0 {
			b.WriteByte(' ')
		}

		gap = false

		b.WriteRune(r)
	}

	return b.String()
}

// Expression is a parsed keyword expression: OR groups of AND terms.
type Expression [][]string

// ParseExpression parses "A B, C" as (A AND B) OR C. Terms are normalized.
func ParseExpression(expr string) Expression {
	var groups Expression

	for _, group := range strings.Split(expr, ",") {
		terms := strings.Fields(Normalize(group))
		if len(terms) == 0 {
			continue
		}

		groups = append(groups, terms)
	}

	return groups
}

// Match reports whether an already-normalized label satisfies the expression.
func (e Expression) Match(normalizedLabel string) bool {
	if normalizedLabel == "" {
		return false
	}

	for _, terms := range e {
		all := true

		for _, term := range terms {
			if !strings.Contains(normalizedLabel, term) {
				all = false
				break
			}
		}

		if all {
			return true
		}
	}

	return false
}

// MatchExpression normalizes label and tests it against expr.
func MatchExpression(label, expr string) bool {
	return ParseExpression(expr).Match(Normalize(label))
}

// EffectiveExpression falls back to the entity name when no keywords are configured.
func EffectiveExpression(expr, name string) string {
	if strings.TrimSpace(expr) == "" {
		return name
	}

	return expr
}

// AmountsEqual reports whether a and b differ by strictly less than tol.
func AmountsEqual(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThan(tol)
}

// labelMentions reports whether the label contains name, or one of its words longer than three characters.
func labelMentions(normalizedLabel, name string) bool {
	n := Normalize(name)
	if n == "" || normalizedLabel == "" {
		return false
	}

	if strings.Contains(normalizedLabel, n) {
		return true
	}

	for _, w := range strings.Fields(n) {
		if len([]rune(w)) > 3 && strings.Contains(normalizedLabel, w) {
			return true
		}
	}

	return false
}
