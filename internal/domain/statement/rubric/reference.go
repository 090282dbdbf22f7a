// Package rubric assigns canonical model labels to rubric rows using an
// operator-maintained reference table.
package rubric

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/period"
)

// Reference table headers.
const (
	HeaderDescription = "Descrição"
	HeaderModel       = "Rubrica MODELO"
)

var (
	// ErrMissingColumn is returned when a reference table lacks a required header.
	ErrMissingColumn = errors.New("reference table is missing a required column")
	// ErrUnsupportedFormat is returned for reference files that are neither xlsx nor csv.
	ErrUnsupportedFormat = errors.New("unsupported reference table format")
)

// Reference maps a rubric description to its canonical model.
type Reference struct {
	models map[string]string
	keys   []string
}

// NewReference builds a reference from description/model pairs. Blank
// descriptions are ignored.
func NewReference(pairs map[string]string) *Reference {
	descs := make([]string, 0, len(pairs))
	for desc := range pairs {
		descs = append(descs, desc)
	}
	sort.Strings(descs)

	r := &Reference{models: make(map[string]string, len(pairs))}
	for _, desc := range descs {
		r.add(desc, pairs[desc])
	}
	return r
}

// add stores one pair; a later duplicate description replaces the model.
func (r *Reference) add(desc, model string) {
	desc = strings.TrimSpace(period.Canonical(desc))
	if desc == "" {
		return
	}
	if _, ok := r.models[desc]; !ok {
		r.keys = append(r.keys, desc)
	}
	r.models[desc] = strings.TrimSpace(period.Canonical(model))
}

// Lookup returns the model for an exact description match.
func (r *Reference) Lookup(desc string) (string, bool) {
	if r == nil {
		return "", false
	}
	m, ok := r.models[period.Canonical(desc)]
	return m, ok
}

// Len returns the number of descriptions in the table.
func (r *Reference) Len() int {
	if r == nil {
		return 0
	}
	return len(r.models)
}

// Descriptions returns the known descriptions in load order.
func (r *Reference) Descriptions() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// LoadReference reads the reference table at path, choosing the reader by
// file extension.
func LoadReference(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference table: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ReadXLSX(bytes.NewReader(data))
	case ".csv":
		return ReadCSV(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// ReadXLSX reads the first sheet of a workbook. The first row is the header.
func ReadXLSX(reader io.Reader) (*Reference, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open reference workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("reference workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty sheet %s", ErrMissingColumn, sheets[0])
	}

	descCol, modelCol, err := headerColumns(rows[0])
	if err != nil {
		return nil, err
	}

	ref := &Reference{models: make(map[string]string, len(rows)-1)}
	for _, row := range rows[1:] {
		ref.add(cell(row, descCol), cell(row, modelCol))
	}
	return ref, nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// headerColumns finds the description and model columns in a header row.
func headerColumns(header []string) (int, int, error) {
	descCol, modelCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(period.Canonical(h)) {
		case HeaderDescription:
			descCol = i
		case HeaderModel:
			modelCol = i
		}
	}
	if descCol < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMissingColumn, HeaderDescription)
	}
	if modelCol < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMissingColumn, HeaderModel)
	}
	return descCol, modelCol, nil
}

// referenceRow is one line of a CSV reference table.
type referenceRow struct {
	Description string `csv:"Descrição"`
	Model       string `csv:"Rubrica MODELO"`
}

// ReadCSV reads a reference table exported as CSV. Both ';' and ','
// delimiters are accepted.
func ReadCSV(reader io.Reader) (*Reference, error) {
	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference csv: %w", err)
	}
	data := period.Canonical(strings.TrimPrefix(string(raw), "\ufeff"))
	comma := detectDelimiter(data)

	header, err := newCSVReader(data, comma).Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumn, err)
	}
	if _, _, err := headerColumns(header); err != nil {
		return nil, err
	}

	var rows []referenceRow
	if err := gocsv.UnmarshalCSV(newCSVReader(data, comma), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse reference csv: %w", err)
	}

	ref := &Reference{models: make(map[string]string, len(rows))}
	for _, row := range rows {
		ref.add(row.Description, row.Model)
	}
	return ref, nil
}

func newCSVReader(data string, comma rune) *csv.Reader {
	r := csv.NewReader(strings.NewReader(data))
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r
}

// detectDelimiter picks ';' when the header line uses it, ',' otherwise.
func detectDelimiter(data string) rune {
	first, _, _ := strings.Cut(data, "\n")
	if strings.Count(first, ";") > strings.Count(first, ",") {
		return ';'
	}
	return ','
}
