package cgd_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reconciler/internal/importer/cgd"
)

func TestParser_Conta(t *testing.T) {
	type testCase struct {
		name       string
		csvContent string
		wantLabels []string
		wantErr    bool
	}

	tests := []testCase{
		{
			name: "StandardExport",
			csvContent: `Consultar saldos e movimentos à ordem - 31-01-2026;"=""0000"""
Nome cliente;JOHN DOE
NIF;"=""123"""

 Dados da conta
Conta;0000 - EUR - Conta Extracto
Saldo contabilístico;1.000,00 EUR
Saldo disponível;1.000,00 EUR

Dados da consulta
Período;Últimos 90 dias
Intervalo de;01-01-2026 a 31-01-2026
Tipos de movimento;Todos

Data mov.;Data-valor;Descrição;Montante;Saldo contabilístico após movimento
30-01-2026;30-01-2026;INSTITUTO GESTAO FINA;-588,74;48.825,46
09-01-2026;09-01-2026;TFI Wise;8.608,52;52.532,78
`,
			wantLabels: []string{"INSTITUTO GESTAO FINA", "TFI Wise"},
		},
		{
			name: "DifferentColumnOrder",
			csvContent: `Random;MetaData
Montante;Descrição;Data mov.;Ignored
-10,00;TEST_ORDER;30-01-2026;XXX
`,
			wantLabels: []string{"TEST_ORDER"},
		},
		{
			name:       "NoHeader",
			csvContent: "a;b;c\n1;2;3\n",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cgd.New().Parse(strings.NewReader(tt.csvContent))

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Len(t, got, len(tt.wantLabels))

			for i, label := range tt.wantLabels {
				assert.Equal(t, label, got[i].Label)
				assert.NoError(t, got[i].Validate())
			}
		})
	}
}
