package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
)

// CSVDelimiter matches the list separator of pt-BR spreadsheet locales.
const CSVDelimiter = ';'

// AmountColumns are the six section amounts as two-decimal strings.
type AmountColumns struct {
	Distribution     string `csv:"DISTRIBUIÇÃO"`
	CreditRelease    string `csv:"LIBERAÇÃO CRÉD. RETIDO"`
	PendingRelease   string `csv:"LIBERAÇÃO DE PENDENTE"`
	ParameterRelease string `csv:"LIBERAÇÃO DE PARÂMETRO"`
	Adjustments      string `csv:"AJUSTES"`
	Total            string `csv:"TOTAL GERAL"`
}

type categoryRecord struct {
	Name string `csv:"CATEGORIA"`
	AmountColumns
	Date string `csv:"DATA REFERENTE"`
	normalizer.Columns
}

type rubricRecord struct {
	Name string `csv:"RUBRICA"`
	AmountColumns
	Date      string `csv:"DATA REFERENTE"`
	SubPeriod string `csv:"Período"`
	Model     string `csv:"Rubrica_Modelo"`
	normalizer.Columns
}

type workRecord struct {
	Source string `csv:"Arquivo"`
	Code   int64  `csv:"Código ECAD"`
	Name   string `csv:"Nome Obra"`
	Rateio string `csv:"Rateio"`
	Date   string `csv:"Data"`
	normalizer.Columns
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toAmountColumns(a statement.Amounts) AmountColumns {
	return AmountColumns{
		Distribution:     fixed(a.Distribution),
		CreditRelease:    fixed(a.CreditRelease),
		PendingRelease:   fixed(a.PendingRelease),
		ParameterRelease: fixed(a.ParameterRelease),
		Adjustments:      fixed(a.Adjustments),
		Total:            fixed(a.Total),
	}
}

// WriteCategoriesCSV writes category rows with a header line.
func WriteCategoriesCSV(w io.Writer, rows []statement.CategoryRow) error {
	records := make([]categoryRecord, len(rows))
	for i, r := range rows {
		records[i] = categoryRecord{
			Name:          r.Name,
			AmountColumns: toAmountColumns(r.Amounts),
			Date:          dateCell(r.Date),
			Columns:       normalizer.PeriodColumns(r.Date),
		}
	}
	return marshal(w, &records)
}

// WriteRubricsCSV writes rubric rows with a header line.
func WriteRubricsCSV(w io.Writer, rows []statement.RubricRow) error {
	records := make([]rubricRecord, len(rows))
	for i, r := range rows {
		records[i] = rubricRecord{
			Name:          r.Name,
			AmountColumns: toAmountColumns(r.Amounts),
			Date:          dateCell(r.Date),
			SubPeriod:     r.SubPeriod,
			Model:         r.Model,
			Columns:       normalizer.PeriodColumns(r.Date),
		}
	}
	return marshal(w, &records)
}

// WriteWorksCSV writes work rows with a header line.
func WriteWorksCSV(w io.Writer, rows []statement.WorkRow) error {
	records := make([]workRecord, len(rows))
	for i, r := range rows {
		records[i] = workRecord{
			Source:  r.Source,
			Code:    r.Code,
			Name:    r.Name,
			Rateio:  fixed(r.Rateio),
			Date:    dateCell(r.Date),
			Columns: normalizer.PeriodColumns(r.Date),
		}
	}
	return marshal(w, &records)
}

func marshal(w io.Writer, records any) error {
	cw := csv.NewWriter(w)
	cw.Comma = CSVDelimiter
	if err := gocsv.MarshalCSV(records, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return nil
}
