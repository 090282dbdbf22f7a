// Package export renders statement datasets as spreadsheet workbooks and
// CSV files with the Portuguese column headers operators expect.
package export

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
)

// Column headers shared by the exports.
const (
	HeaderCategory  = "CATEGORIA"
	HeaderRubric    = "RUBRICA"
	HeaderDate      = "DATA REFERENTE"
	HeaderSubPeriod = "Período"
	HeaderModel     = "Rubrica_Modelo"
	HeaderSource    = "Arquivo"
	HeaderWorkCode  = "Código ECAD"
	HeaderWorkName  = "Nome Obra"
	HeaderRateio    = "Rateio"
	HeaderWorkDate  = "Data"
)

var periodHeaders = []string{"PERIODO_DIA", "PERIODO_MES", "PERIODO_TRIM", "PERIODO_ANO"}

// Table is a header row plus typed cell values, ready for any writer.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]any
}

// CategoryTable lays out category rows.
func CategoryTable(rows []statement.CategoryRow) Table {
	t := Table{Sheet: string(statement.KindCategory), Headers: sectionHeaders(HeaderCategory)}
	for _, r := range rows {
		cells := append([]any{r.Name}, amountCells(r.Amounts)...)
		cells = append(cells, dateCell(r.Date))
		t.Rows = append(t.Rows, append(cells, periodCells(r.Date)...))
	}
	return t
}

// RubricTable lays out rubric rows.
func RubricTable(rows []statement.RubricRow) Table {
	headers := sectionHeaders(HeaderRubric)
	headers = append(headers[:8:8], HeaderSubPeriod, HeaderModel)
	headers = append(headers, periodHeaders...)

	t := Table{Sheet: string(statement.KindRubric), Headers: headers}
	for _, r := range rows {
		cells := append([]any{r.Name}, amountCells(r.Amounts)...)
		cells = append(cells, dateCell(r.Date), r.SubPeriod, r.Model)
		t.Rows = append(t.Rows, append(cells, periodCells(r.Date)...))
	}
	return t
}

// WorkTable lays out work rows.
func WorkTable(rows []statement.WorkRow) Table {
	headers := []string{HeaderSource, HeaderWorkCode, HeaderWorkName, HeaderRateio, HeaderWorkDate}
	t := Table{Sheet: string(statement.KindWork), Headers: append(headers, periodHeaders...)}
	for _, r := range rows {
		cells := []any{r.Source, r.Code, r.Name, amountCell(r.Rateio), dateCell(r.Date)}
		t.Rows = append(t.Rows, append(cells, periodCells(r.Date)...))
	}
	return t
}

// sectionHeaders is name, the six amount columns, the date and the period
// columns.
func sectionHeaders(name string) []string {
	h := append([]string{name}, statement.SectionColumns...)
	h = append(h, HeaderDate)
	return append(h, periodHeaders...)
}

func amountCells(a statement.Amounts) []any {
	vals := a.Slice()
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = amountCell(v)
	}
	return out
}

func amountCell(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func dateCell(d time.Time) string {
	if normalizer.IsNoDate(d) {
		return ""
	}
	return d.Format("2006-01-02")
}

func periodCells(d time.Time) []any {
	c := normalizer.PeriodColumns(d)
	return []any{c.Day, c.Month, c.Quarter, c.Year}
}
