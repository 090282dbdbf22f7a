package export

import (
	"bytes"
	"fmt"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/consolidator"
)

// CompiledPrefix names the consolidated outputs, one per table kind.
const CompiledPrefix = "tabela_compilada_"

// Artifact is one named output file.
type Artifact struct {
	Name string
	Data []byte
}

// DocumentWorkbook renders the three tables of one period document as a
// single workbook named after the document.
func DocumentWorkbook(t consolidator.Tables) (Artifact, error) {
	var buf bytes.Buffer
	err := WriteWorkbook(&buf,
		CategoryTable(t.Categories),
		RubricTable(t.Rubrics),
		WorkTable(t.Works),
	)
	if err != nil {
		return Artifact{}, fmt.Errorf("workbook for %s: %w", t.Document, err)
	}
	return Artifact{Name: t.Document + ".xlsx", Data: buf.Bytes()}, nil
}

// CompiledArtifacts renders each consolidated dataset as an xlsx workbook
// and a CSV file.
func CompiledArtifacts(ds consolidator.Datasets) ([]Artifact, error) {
	type kindOutput struct {
		kind  statement.TableKind
		table Table
		csv   func(*bytes.Buffer) error
	}
	outputs := []kindOutput{
		{statement.KindCategory, CategoryTable(ds.Categories), func(b *bytes.Buffer) error { return WriteCategoriesCSV(b, ds.Categories) }},
		{statement.KindRubric, RubricTable(ds.Rubrics), func(b *bytes.Buffer) error { return WriteRubricsCSV(b, ds.Rubrics) }},
		{statement.KindWork, WorkTable(ds.Works), func(b *bytes.Buffer) error { return WriteWorksCSV(b, ds.Works) }},
	}

	artifacts := make([]Artifact, 0, 2*len(outputs))
	for _, o := range outputs {
		base := CompiledPrefix + string(o.kind)

		var xlsx bytes.Buffer
		if err := WriteWorkbook(&xlsx, o.table); err != nil {
			return nil, fmt.Errorf("%s workbook: %w", o.kind, err)
		}
		var csvBuf bytes.Buffer
		if err := o.csv(&csvBuf); err != nil {
			return nil, fmt.Errorf("%s csv: %w", o.kind, err)
		}

		artifacts = append(artifacts,
			Artifact{Name: base + ".xlsx", Data: xlsx.Bytes()},
			Artifact{Name: base + ".csv", Data: csvBuf.Bytes()},
		)
	}
	return artifacts, nil
}
