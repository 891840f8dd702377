package cgd_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/reconciler/internal/importer/cgd"
	"github.com/MrJamesThe3rd/reconciler/internal/transaction"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// assertSides checks debit, credit and the signed amount of a transaction.
func assertSides(t *testing.T, tx transaction.Transaction, debit, credit string) {
	t.Helper()

	assert.True(t, dec(debit).Equal(tx.Debit), "debit: want %s, got %s", debit, tx.Debit)
	assert.True(t, dec(credit).Equal(tx.Credit), "credit: want %s, got %s", credit, tx.Credit)
	assert.NoError(t, tx.Validate())
}

func TestParser_Extrato(t *testing.T) {
	csv := `Consultar extrato - 15-02-2026 : 0829015676030
Nome empresa ;VIBRANTGARDEN UNIPESSOAL,LDA
NIF ;517948974
Conta ;0829015676030 - EUR - Conta Extracto
Intervalo de ;01-02-2026 a 14-02-2026
Tipos de movimento ;Todos
Saldo contabilístico Inicial ;48.825,46
Saldo contabilístico final ;41.393,66

Data mov. ;Data valor ;Origem ;Descrição ;Movimento ;Estorno ;Saldo contabilístico após movimento ;
13-02-2026;13-02-2026;"=""0003""";PAGAMENTO TSU ;-608,13;  ;41.393,66;
04-02-2026;04-02-2026;SIBS ;TFI Wise ;4.324,06;  ;51.302,85;
`

	txs, err := cgd.New().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, date(2026, 2, 13), txs[0].Date)
	assert.Equal(t, "PAGAMENTO TSU", txs[0].Label)
	assertSides(t, txs[0], "608.13", "0")

	assert.Equal(t, date(2026, 2, 4), txs[1].Date)
	assert.Equal(t, "TFI Wise", txs[1].Label)
	assertSides(t, txs[1], "0", "4324.06")
}

func TestParser_Cartao(t *testing.T) {
	csv := `Consultar saldos e movimentos de cartões - 15-02-2026
Nome empresa ;VIBRANTGARDEN UNIPESSOAL,LDA
NIF ;517948974

Conta cartão ;4163 **** **** 8016 - EUR - Business Débito
Tipo de movimentos ;Conta à ordem
Desde ;15/12/2025

Data ;Data valor ;Descrição ;Débito ;Crédito ;
16-12-2025 ;14-12-2025 ;PA GONDOMAR         GONDOMAR ;64,00 ; ;
31-12-2025 ;29-12-2025 ;UBER   *TRIP             HELP.UBER.COMNL ;47,91 ; ;
 ; ; ; ;Página 1/2 ;
`

	txs, err := cgd.New().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, date(2025, 12, 16), txs[0].Date)
	assert.Equal(t, "PA GONDOMAR         GONDOMAR", txs[0].Label)
	assertSides(t, txs[0], "64", "0")

	assert.Equal(t, date(2025, 12, 31), txs[1].Date)
	assertSides(t, txs[1], "47.91", "0")
	assert.True(t, txs[1].IsDebit())
}

func TestParser_SplitSides(t *testing.T) {
	tests := []struct {
		name          string
		debit, credit string
		wantDebit     string
		wantCredit    string
	}{
		{name: "CreditOnly", credit: "25,00", wantDebit: "0", wantCredit: "25"},
		{name: "BothSides", debit: "10,00", credit: "2,50", wantDebit: "10", wantCredit: "2.5"},
		{name: "SignedDebit", debit: "-7,30", wantDebit: "7.3", wantCredit: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			csv := "Data ;Data valor ;Descrição ;Débito ;Crédito ;\n" +
				"16-12-2025 ;14-12-2025 ;REFUND AMAZON ;" + tt.debit + " ;" + tt.credit + " ;\n"

			txs, err := cgd.New().Parse(strings.NewReader(csv))
			require.NoError(t, err)
			require.Len(t, txs, 1)
			assertSides(t, txs[0], tt.wantDebit, tt.wantCredit)
		})
	}
}

func TestParser_Releve(t *testing.T) {
	csv := `Date;Libellé;Débit;Crédit
05/01/2024;VIR SEPA ACME CONSULTING FACT0042;;1.200,00
08/01/2024;PRLV EDF ENERGIE;80,15;
`

	txs, err := cgd.New().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, date(2024, 1, 5), txs[0].Date)
	assertSides(t, txs[0], "0", "1200")
	assertSides(t, txs[1], "80.15", "0")
	assert.True(t, dec("-80.15").Equal(txs[1].Amount))
}

func TestParser_ReleveFormats(t *testing.T) {
	csv := "Date;Libellé;Débit;Crédit\n" +
		"31/01/24;VIR SEPA CLIENT LOYER;;2 450,00\n" +
		"31/01/24;PRLV URSSAF;1\u00a0012,40;\n" +
		"31-01-2024;LIGNE HORS FORMAT;5,00;\n"

	txs, err := cgd.New().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, date(2024, 1, 31), txs[0].Date)
	assertSides(t, txs[0], "0", "2450")
	assertSides(t, txs[1], "1012.4", "0")
}

func TestParser_Latin1Encoding(t *testing.T) {
	utf8CSV := "Data mov.;Descrição;Montante\n30-01-2026;CAFÉ CENTRAL;-10,00\n"

	latin1Bytes, err := charmap.Windows1252.NewEncoder().Bytes([]byte(utf8CSV))
	require.NoError(t, err)

	txs, err := cgd.New().Parse(bytes.NewReader(latin1Bytes))
	require.NoError(t, err)
	require.Len(t, txs, 1)

	assert.Equal(t, "CAFÉ CENTRAL", txs[0].Label)
}

func TestParser_EmptyFile(t *testing.T) {
	_, err := cgd.New().Parse(strings.NewReader(""))
	assert.ErrorContains(t, err, "no matching CGD format")
}

func TestParser_HeaderOnly(t *testing.T) {
	txs, err := cgd.New().Parse(strings.NewReader(`Data mov.;Data-valor;Descrição;Montante`))
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestParser_MissingLabel(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;;-10,00
`

	_, err := cgd.New().Parse(strings.NewReader(csv))
	assert.ErrorContains(t, err, "row 2: missing label")
}

func TestParser_LargeAmounts(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;BIG TRANSFER;-1.234.567,89
`

	txs, err := cgd.New().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assertSides(t, txs[0], "1234567.89", "0")
}

func TestParser_SkipsFooterAndZeroRows(t *testing.T) {
	csv := `Data mov.;Descrição;Montante
30-01-2026;TEST;-10,00
31-01-2026;ZERO;0,00
Totais;;;;
`

	txs, err := cgd.New().Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Empty(t, txs[0].LineNumber, "line numbers are assigned at import")
}
