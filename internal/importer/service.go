package importer

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/MrJamesThe3rd/reconciler/internal/importer/cgd"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

var ErrUnknownBank = errors.New("unknown bank")

type Service struct {
	parsers map[Bank]Parser
}

func NewService() *Service {
	return &Service{
		parsers: map[Bank]Parser{
			BankCGD: cgd.New(),
		},
	}
}

// Register adds or replaces the parser of a bank.
func (s *Service) Register(bank Bank, p Parser) {
	s.parsers[bank] = p
}

func (s *Service) Banks() []Bank {
	banks := make([]Bank, 0, len(s.parsers))
	for b := range s.parsers {
		banks = append(banks, b)
	}

	slices.Sort(banks)

	return banks
}

// Import parses r and drops rows that fail validation.
func (s *Service) Import(bank Bank, r io.Reader) ([]transaction.Transaction, error) {
	parser, ok := s.parsers[bank]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBank, bank)
	}

	txs, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse %s statement: %w", bank, err)
	}

	return slices.DeleteFunc(txs, func(t transaction.Transaction) bool {
		return t.Validate() != nil
	}), nil
}
