package cgd

type amountMode int

const (
	// amountSingle is one signed column, e.g. Montante "-10,00".
	amountSingle amountMode = iota
	// amountSplit is a pair of unsigned debit and credit columns.
	amountSplit
)

// Profile is the column layout of one statement export.
type Profile struct {
	Name        string
	DateCol     string
	LabelCol    string
	DateLayouts []string
	AmountMode  amountMode
	AmountCol   string
	DebitCol    string
	CreditCol   string
}

// matches reports whether a header row carries every column p reads.
func (p *Profile) matches(cols colIndex) bool {
	need := []string{p.DateCol, p.LabelCol}
	if p.AmountMode == amountSplit {
		need = append(need, p.DebitCol, p.CreditCol)
	} else {
		need = append(need, p.AmountCol)
	}

	for _, name := range need {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

var cgdDates = []string{"02-01-2006"}

// profiles is tried in order; more specific layouts come first.
var profiles = []Profile{
	{Name: "cartão", DateCol: "Data", LabelCol: "Descrição", DateLayouts: cgdDates, AmountMode: amountSplit, DebitCol: "Débito", CreditCol: "Crédito"},
	{Name: "extrato", DateCol: "Data mov.", LabelCol: "Descrição", DateLayouts: cgdDates, AmountMode: amountSingle, AmountCol: "Movimento"},
	{Name: "conta", DateCol: "Data mov.", LabelCol: "Descrição", DateLayouts: cgdDates, AmountMode: amountSingle, AmountCol: "Montante"},
	// French relevé downloads, as handed over by accountants.
	{Name: "relevé", DateCol: "Date", LabelCol: "Libellé", DateLayouts: []string{"02/01/2006", "02/01/06"}, AmountMode: amountSplit, DebitCol: "Débit", CreditCol: "Crédit"},
}
