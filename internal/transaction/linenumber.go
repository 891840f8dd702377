package transaction

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// LineNumberGenerator produces unique, human-readable line numbers.
// Format: PREFIX-YYYYMMDD-RANDOM-SEQ, e.g. RL-20240115-3FA94C-0001.
type LineNumberGenerator struct {
	prefix string

	mu  sync.Mutex
	seq int
}

func NewLineNumberGenerator(prefix string) *LineNumberGenerator {
	if prefix == "" {
		prefix = "RL"
	}

	return &LineNumberGenerator{prefix: prefix}
}

func (g *LineNumberGenerator) Next(date time.Time) string {
	g.mu.Lock()
	g.seq++
	seq := g.seq
	g.mu.Unlock()

	random := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])

	return fmt.Sprintf("%s-%s-%s-%04d", g.prefix, date.Format("20060102"), random, seq)
}

// AssignLineNumbers fills in missing line numbers in place.
// Transactions that already carry a number keep it; duplicates are rejected.
func (g *LineNumberGenerator) AssignLineNumbers(txs []Transaction) error {
	seen := make(map[string]struct{}, len(txs))

	for _, t := range txs {
		if t.LineNumber == "" {
			continue
		}

		if _, dup := seen[t.LineNumber]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, t.LineNumber)
		}

		seen[t.LineNumber] = struct{}{}
	}

	for i := range txs {
		if txs[i].LineNumber != "" {
			continue
		}

		txs[i].LineNumber = g.Next(txs[i].Date)
	}

	return nil
}
