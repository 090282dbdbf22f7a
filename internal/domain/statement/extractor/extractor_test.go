package extractor

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/ecad-statements/pkg/money"
)

func pagesOf(texts ...string) []statement.Page {
	pages := make([]statement.Page, len(texts))
	for i, t := range texts {
		pages[i] = statement.Page{Index: i, Text: t}
	}
	return pages
}

func TestPad_LeftFillsRightmostColumns(t *testing.T) {
	got := pad([]string{"1,00", "2,00", "3,00", "4,00"}, 6, true)

	want := []string{"---", "---", "1,00", "2,00", "3,00", "4,00"}
	assert.Equal(t, "", cmp.Diff(want, got))
}

func TestPad(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		left   bool
		want   []string
	}{
		{"exact", []string{"a", "b", "c"}, true, []string{"a", "b", "c"}},
		{"none", nil, true, []string{"---", "---", "---"}},
		{"right padding", []string{"a"}, false, []string{"a", "---", "---"}},
		{"surplus left keeps last", []string{"a", "b", "c", "d"}, true, []string{"b", "c", "d"}},
		{"surplus right keeps first", []string{"a", "b", "c", "d"}, false, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pad(tt.values, 3, tt.left))
		})
	}
}

func TestExtract_CategoryFourValueLine(t *testing.T) {
	pages := pagesOf(
		"ABRIL/2024\nPOR CATEGORIA\nRADIO 10,00 20,00 30,00 40,00\nPOR RUBRICA",
	)

	res := Extract(CategorySpec, pages)
	require.True(t, res.Found, res.Reason)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"---", "---", "10,00", "20,00", "30,00", "40,00"}, res.Rows[0].Values)

	rows := normalizer.Categories("2024_04", res.Rows)
	require.Len(t, rows, 1)
	got := rows[0].Amounts.Slice()
	want := []string{"0", "0", "10", "20", "30", "40"}
	for i := range want {
		assert.True(t, decimal.RequireFromString(want[i]).Equal(got[i]), "column %d = %s", i, got[i])
	}
}

func TestExtract_CategoryTwoPageScenario(t *testing.T) {
	pages := pagesOf(
		"DEMONSTRATIVO MARÇO/2024\nPOR CATEGORIA\nALFA 100,00 200,00 300,00 400,00 500,00 600,00",
		"POR RUBRICA",
	)

	res := Extract(CategorySpec, pages)
	require.True(t, res.Found, res.Reason)
	assert.Equal(t, "MARÇO/2024", res.Period)

	rows := normalizer.Categories("2024_03", res.Rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "ALFA", rows[0].Name)
	for i, v := range rows[0].Amounts.Slice() {
		assert.True(t, decimal.NewFromInt(int64(100*(i+1))).Equal(v), "column %d = %s", i, v)
	}
	assert.Equal(t, "2024-03-01", rows[0].Date.Format("2006-01-02"))
}

func TestExtract_ClipsAndSkips(t *testing.T) {
	pages := pagesOf(
		"CABECALHO 1,00 2,00\nRESUMO POR CATEGORIA DE ARRECADACAO\nSHOW 1.000,00 --- --- --- 5,00 1.005,00",
		"TOTAL PARCIAL 9,99\n\nRADIO --- --- --- --- --- 2,00",
		"TV ABERTA 3,00\nTOTAL 1.010,00\nDEMONSTRATIVO POR RUBRICA\nEXECUCAO 4,00",
	)

	res := Extract(CategorySpec, pages)
	require.True(t, res.Found)

	names := make([]string, len(res.Rows))
	for i, r := range res.Rows {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"SHOW", "RADIO", "TV ABERTA"}, names)
	assert.Equal(t, []string{"1.000,00", "---", "---", "---", "5,00", "1.005,00"}, res.Rows[0].Values)
	assert.Equal(t, []string{"---", "---", "---", "---", "---", "3,00"}, res.Rows[2].Values)
	assert.Equal(t, "", res.Period)
}

func TestExtract_ExclusionWindow(t *testing.T) {
	pages := pagesOf(strings.Join([]string{
		"POR RUBRICA",
		"EXECUCAO AO VIVO 10,00 --- --- --- --- 10,00",
		"EXEC. - NÚM. DE EXECUÇÕES 12 34",
		"ESTATISTICA 99,99",
		"OBRA RUBRICA PERÍODO RENDIMENTO % RATEIO CORREÇÃO EXEC (OC)",
		"SONORIZACAO 01/2024 A 03/2024 --- --- --- --- --- 7,00",
		"TOTAL DO TITULAR 17,00",
	}, "\n"))

	res := Extract(RubricSpec, pages)
	require.True(t, res.Found)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "EXECUCAO AO VIVO", res.Rows[0].Name)
	assert.Equal(t, "SONORIZACAO 01/2024 A 03/2024", res.Rows[1].Name)
}

func TestExtract_EndAnchorBeforeStartIsIgnored(t *testing.T) {
	pages := pagesOf(
		"VER POR RUBRICA ADIANTE\nPOR CATEGORIA\nSHOW --- --- --- --- --- 1,00",
		"POR RUBRICA",
	)

	res := Extract(CategorySpec, pages)
	require.True(t, res.Found)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "SHOW", res.Rows[0].Name)
}

func TestExtract_MissingAnchors(t *testing.T) {
	res := Extract(CategorySpec, pagesOf("MAIO/2024\nNADA AQUI"))
	assert.False(t, res.Found)
	assert.Empty(t, res.Rows)
	assert.Contains(t, res.Reason, "start anchor")
	assert.Equal(t, "MAIO/2024", res.Period)

	res = Extract(RubricSpec, pagesOf("POR RUBRICA\nRADIO 1,00", "SEM FIM"))
	assert.False(t, res.Found)
	assert.Empty(t, res.Rows)
	assert.Contains(t, res.Reason, "end anchor")

	res = Extract(WorkSpec, pagesOf("12 SEM CABECALHO 1,00"))
	assert.False(t, res.Found)
	assert.Empty(t, res.Rows)
}

func TestExtract_PeriodIsLastMarkerScanned(t *testing.T) {
	pages := pagesOf(
		"JANEIRO/2024\nPOR CATEGORIA\nSHOW --- --- --- --- --- 1,00",
		"POR RUBRICA\nFEVEREIRO/2024",
		"MARÇO/2024",
	)

	res := Extract(CategorySpec, pages)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "FEVEREIRO/2024", res.Period)
	assert.Equal(t, "FEVEREIRO/2024", res.Rows[0].Period)
}

func TestExtract_Works(t *testing.T) {
	pages := pagesOf(
		"JUNHO/2024\n123 LINHA ANTES DO CABECALHO 1,00",
		strings.Join([]string{
			"OBRA RUBRICA PERÍODO RENDIMENTO % RATEIO CORREÇÃO EXEC (OC)",
			"12345 CANCAO DO MAR SHOW 12,50 1.234,56",
			"  678 OUTRA OBRA 3,00",
			"99 SEM VALOR",
			"77 1,00 SEM NOME",
			"2024 ANO",
			"TOTAL GERAL",
			"1.237,56",
		}, "\n"),
	)

	res := Extract(WorkSpec, pages)
	require.True(t, res.Found)
	want := []statement.RawRow{
		{Code: "12345", Name: "CANCAO DO MAR SHOW", Values: []string{"1.234,56"}, Period: "JUNHO/2024"},
		{Code: "678", Name: "OUTRA OBRA", Values: []string{"3,00"}, Period: "JUNHO/2024"},
	}
	assert.Equal(t, "", cmp.Diff(want, res.Rows))
	assert.Equal(t, "1.237,56", res.StatedTotal)
}

func TestExtract_WorksStatedTotal(t *testing.T) {
	header := "OBRA RUBRICA PERÍODO RENDIMENTO % RATEIO CORREÇÃO EXEC (OC)\n12345 CANCAO DO MAR 900,00"

	tests := []struct {
		name string
		tail []string
		want string
	}{
		{"same line", []string{"TOTAL GERAL 900,00"}, "900,00"},
		{"same line before next line", []string{"TOTAL GERAL 900,00", "1,00"}, "900,00"},
		{"next line", []string{"TOTAL GERAL", "900,00"}, "900,00"},
		{"last label wins", []string{"TOTAL GERAL 100,00", "678 OUTRA OBRA 3,00", "TOTAL GERAL 903,00"}, "903,00"},
		{"label without amount keeps earlier", []string{"TOTAL GERAL 100,00", "TOTAL GERAL", "SEM VALOR"}, "100,00"},
		{"no label", []string{"VALORES EXPRESSOS EM REAIS"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(WorkSpec, pagesOf("MAIO/2024\n"+header+"\n"+strings.Join(tt.tail, "\n")))
			require.True(t, res.Found)
			assert.Equal(t, tt.want, res.StatedTotal)
		})
	}
}

func TestExtract_WorksGenerated(t *testing.T) {
	g := money.NewTestDataGeneratorWithSeed(7)
	lines := []string{"OBRA TITULO RATEIO"}
	var expected []money.TestWork
	for i := 0; i < 25; i++ {
		w := g.Work()
		expected = append(expected, w)
		lines = append(lines, w.Line)
	}

	res := Extract(WorkSpec, pagesOf(strings.Join(lines, "\n")))
	require.Len(t, res.Rows, len(expected))

	rows := normalizer.Works("gen", res.Rows)
	for i, w := range expected {
		assert.Equal(t, w.Code, rows[i].Code)
		assert.Equal(t, w.Name, rows[i].Name)
		assert.True(t, w.Rateio.ToDecimal().Equal(rows[i].Rateio))
	}
}

func TestCheckWorkTotal(t *testing.T) {
	rows := []statement.WorkRow{
		{Rateio: decimal.RequireFromString("100.00")},
		{Rateio: decimal.RequireFromString("50.25")},
	}

	check := CheckWorkTotal(rows, "150,50")
	assert.True(t, decimal.RequireFromString("150.25").Equal(check.Calculated))
	assert.False(t, check.Mismatch())

	assert.True(t, CheckWorkTotal(rows, "151,00").Mismatch())
	assert.False(t, CheckWorkTotal(rows, "").Mismatch())
}

func TestTableSpec_WithAnchors(t *testing.T) {
	spec := RubricSpec.WithAnchors("RESUMO POR RUBRICA", "TOTAL DO AUTOR")
	assert.Equal(t, "RESUMO POR RUBRICA", spec.StartAnchor)
	assert.Equal(t, "TOTAL DO AUTOR", spec.EndAnchor)
	assert.Equal(t, []string{"RESUMO POR RUBRICA", TotalPrefix}, spec.SkipPrefixes)
	assert.Equal(t, []string{"POR RUBRICA", TotalPrefix}, RubricSpec.SkipPrefixes, "original untouched")

	work := WorkSpec.WithAnchors("", "FIM")
	assert.False(t, work.Bounded())
	assert.Equal(t, "OBRA", work.StartAnchor)

	res := Extract(spec, pagesOf("RESUMO POR RUBRICA\nSHOW 1,00\nTOTAL DO AUTOR"))
	require.True(t, res.Found, res.Reason)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "SHOW", res.Rows[0].Name)
}
