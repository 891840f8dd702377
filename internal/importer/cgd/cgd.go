// Package cgd reads Caixa Geral de Depósitos CSV exports.
package cgd

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	enc "github.com/MrJamesThe3rd/reconciler/internal/encoding"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

// Parser auto-detects which statement layout (conta, extrato, cartão, relevé) is being
// used by matching column headers against known profiles.
type Parser struct {
	log *slog.Logger
}

func New() *Parser {
	return &Parser{log: slog.Default()}
}

func (p *Parser) Parse(r io.Reader) ([]transaction.Transaction, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, colMap, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching CGD format found: expected columns for conta, extrato, cartão or relevé")
	}

	txs, err := parseRows(profile, colMap, rows[headerIdx+1:], headerIdx+1)
	if err != nil {
		return nil, err
	}

	p.log.Debug("parsed statement", "bank", "cgd", "profile", profile.Name, "charset", charset, "rows", len(txs))

	return txs, nil
}
