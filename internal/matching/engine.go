package matching

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy names one matching pass.
type Strategy string

const (
	StrategyInvoices     Strategy = "invoices"
	StrategyPartners     Strategy = "partners"
	StrategyCharges      Strategy = "charges"
	StrategyCombinations Strategy = "combinations"
)

var Strategies = []Strategy{StrategyInvoices, StrategyPartners, StrategyCharges, StrategyCombinations}

func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies {
		if string(st) == s {
			return st, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Engine runs the matching strategies. It holds no state between runs:
// each strategy reads the working set and returns the diff to apply.
type Engine struct {
	config    Config
	evaluator Evaluator
}

func NewEngine(cfg Config) *Engine {
	cfg = cfg.withDefaults()

	return &Engine{
		config:    cfg,
		evaluator: NewEvaluator(cfg.Tolerance),
	}
}

// Run computes the diff of one strategy without applying it.
func (e *Engine) Run(s Strategy, ws *WorkingSet, snap *Snapshot) (Diff, error) {
	switch s {
	case StrategyInvoices:
		return e.MatchInvoices(ws, snap), nil
	case StrategyPartners:
		return e.MatchPartners(ws, snap), nil
	case StrategyCharges:
		return e.MatchCharges(ws, snap), nil
	case StrategyCombinations:
		return e.MatchCombinations(ws, snap), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// MatchInvoices scores every open line against every free invoice and keeps
// a conflict-free assignment. Assignments under the matched threshold are
// recorded as suggestions.
func (e *Engine) MatchInvoices(ws *WorkingSet, snap *Snapshot) Diff {
	claimed := ws.claimed()

	var pool []Invoice

	for _, inv := range snap.Invoices {
		if inv.Linkage != nil || inv.Status == InvoiceCancelled {
			continue
		}

		if _, ok := claimed[inv.ID]; ok {
			continue
		}

		pool = append(pool, inv)
	}

	lines := ws.Lines()
	byNumber := make(map[string]Line, len(lines))
	order := make(map[string]int, len(lines))

	var cands []Candidate

	for i, l := range lines {
		if l.Link.HasStrongLink() || len(l.Link.SuggestedInvoiceIDs) > 0 {
			continue
		}

		byNumber[l.Number()] = l
		order[l.Number()] = i

		for _, inv := range pool {
			score, ok := e.evaluator.Score(l.Transaction, inv, snap.Rules)
			if !ok {
				continue
			}

			cands = append(cands, Candidate{LineNumber: l.Number(), InvoiceID: inv.ID, Score: score})
		}
	}

	invoices := make(map[uuid.UUID]Invoice, len(pool))
	for _, inv := range pool {
		invoices[inv.ID] = inv
	}

	assigned := Resolve(cands)
	diff := make(Diff, 0, len(assigned))

	for _, a := range assigned {
		line := byNumber[a.LineNumber]
		link := line.Link.Clone()

		if a.Score >= e.config.MatchedThreshold {
			link.InvoiceIDs = []uuid.UUID{a.InvoiceID}
		} else {
			link.SuggestedInvoiceIDs = []uuid.UUID{a.InvoiceID}
		}

		link.Score = a.Score

		if link.Partner == nil {
			link.Partner = snap.partnerOf(invoices[a.InvoiceID])
		}

		diff = append(diff, Mutation{LineNumber: a.LineNumber, Link: link})
	}

	sortByOrder(diff, order)

	return diff
}

func sortByOrder(d Diff, order map[string]int) {
	slices.SortFunc(d, func(a, b Mutation) int {
		return cmp.Compare(order[a.LineNumber], order[b.LineNumber])
	})
}
