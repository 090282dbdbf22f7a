// Package statement holds the shared types of the ECAD statement pipeline:
// pages, raw extracted rows and the typed rows produced after normalization.
package statement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Page is one extracted page of a statement PDF. Text is empty when the
// page could not be read.
type Page struct {
	Index int
	Text  string
}

// Document is a sequence of pages sharing one resolved period.
type Document struct {
	Name   string
	Period string // raw period marker, "" when unknown
	Pages  []Page
}

// PageNumbers returns the 1-based page numbers of the document.
func (d Document) PageNumbers() []int {
	nums := make([]int, len(d.Pages))
	for i, p := range d.Pages {
		nums[i] = p.Index + 1
	}
	return nums
}

// TableKind identifies one of the three recovered tables.
type TableKind string

const (
	KindCategory TableKind = "categorias"
	KindRubric   TableKind = "rubricas"
	KindWork     TableKind = "obras"
)

// SectionColumns are the six numeric columns shared by category and rubric tables.
var SectionColumns = []string{
	"DISTRIBUIÇÃO",
	"LIBERAÇÃO CRÉD. RETIDO",
	"LIBERAÇÃO DE PENDENTE",
	"LIBERAÇÃO DE PARÂMETRO",
	"AJUSTES",
	"TOTAL GERAL",
}

// RawRow is a table line before normalization. Values hold locale currency
// literals or the placeholder; work rows carry their code and a single value.
type RawRow struct {
	Code   string
	Name   string
	Values []string
	Period string
}

// Amounts are the six numeric columns of a category or rubric row.
type Amounts struct {
	Distribution     decimal.Decimal
	CreditRelease    decimal.Decimal
	PendingRelease   decimal.Decimal
	ParameterRelease decimal.Decimal
	Adjustments      decimal.Decimal
	Total            decimal.Decimal
}

// Slice returns the amounts in column order.
func (a Amounts) Slice() []decimal.Decimal {
	return []decimal.Decimal{
		a.Distribution, a.CreditRelease, a.PendingRelease,
		a.ParameterRelease, a.Adjustments, a.Total,
	}
}

// CategoryRow is a normalized row of the "POR CATEGORIA" table.
type CategoryRow struct {
	Source string
	Name   string
	Amounts
	Date time.Time // zero when the period is unknown
}

// RubricRow is a normalized row of the "POR RUBRICA" table.
type RubricRow struct {
	Source string
	Name   string
	Amounts
	Date      time.Time
	SubPeriod string
	Model     string
}

// WorkRow is a normalized row of the per-work table.
type WorkRow struct {
	Source string
	Code   int64
	Name   string
	Rateio decimal.Decimal
	Date   time.Time
}

// Stage names the pipeline step a diagnostic was raised in.
type Stage string

const (
	StageRead      Stage = "read"
	StageSplit     Stage = "split"
	StageCategory  Stage = "categorias"
	StageRubric    Stage = "rubricas"
	StageWork      Stage = "obras"
	StageArtifacts Stage = "artifacts"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a per-document problem that did not stop the run.
type Diagnostic struct {
	Document string   `json:"document"`
	Stage    Stage    `json:"stage"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// DocumentError reports a failure of one input document.
type DocumentError struct {
	Document string
	Stage    Stage
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s, stage %s: %v", e.Document, e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error into an error-level diagnostic.
func (e *DocumentError) Diagnostic() Diagnostic {
	return Diagnostic{
		Document: e.Document,
		Stage:    e.Stage,
		Severity: SeverityError,
		Message:  e.Err.Error(),
	}
}
