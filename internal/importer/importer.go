package importer

import (
	"io"

	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

type Bank string

const (
	BankCGD Bank = "cgd"
)

// Parser turns a bank export into well-formed statement transactions.
// Rows it cannot read are skipped.
type Parser interface {
	Parse(r io.Reader) ([]transaction.Transaction, error)
}
