// Package consolidator merges per-document tables into run-wide datasets.
package consolidator

import "github.com/FACorreiaa/ecad-statements/internal/domain/statement"

// Tables are the normalized rows extracted from one period document.
type Tables struct {
	Document   string
	Categories []statement.CategoryRow
	Rubrics    []statement.RubricRow
	Works      []statement.WorkRow
}

// Datasets are the consolidated rows of a run, one slice per table kind.
type Datasets struct {
	Categories []statement.CategoryRow
	Rubrics    []statement.RubricRow
	Works      []statement.WorkRow
}

// Len returns the row count of each kind.
func (d Datasets) Len() map[statement.TableKind]int {
	return map[statement.TableKind]int{
		statement.KindCategory: len(d.Categories),
		statement.KindRubric:   len(d.Rubrics),
		statement.KindWork:     len(d.Works),
	}
}

// Dataset is an append-only row collection that can be frozen.
type Dataset[T any] struct {
	rows   []T
	frozen bool
}

// NewDataset returns an empty dataset.
func NewDataset[T any]() *Dataset[T] {
	return &Dataset[T]{rows: make([]T, 0)}
}

// Append adds rows in order. It panics once the dataset is frozen.
func (d *Dataset[T]) Append(rows ...T) {
	if d.frozen {
		panic("consolidator: append to frozen dataset")
	}
	d.rows = append(d.rows, rows...)
}

// Freeze stops further appends and returns a copy of the rows.
func (d *Dataset[T]) Freeze() []T {
	d.frozen = true
	return d.Rows()
}

// Rows returns a copy of the rows collected so far.
func (d *Dataset[T]) Rows() []T {
	out := make([]T, len(d.rows))
	copy(out, d.rows)
	return out
}

// Len returns the number of rows.
func (d *Dataset[T]) Len() int {
	return len(d.rows)
}

// Consolidate concatenates tables in the order given, keeping each
// document's source line order. The result never holds nil slices.
func Consolidate(tables []Tables) Datasets {
	categories := NewDataset[statement.CategoryRow]()
	rubrics := NewDataset[statement.RubricRow]()
	works := NewDataset[statement.WorkRow]()

	for _, t := range tables {
		categories.Append(t.Categories...)
		rubrics.Append(t.Rubrics...)
		works.Append(t.Works...)
	}

	return Datasets{
		Categories: categories.Freeze(),
		Rubrics:    rubrics.Freeze(),
		Works:      works.Freeze(),
	}
}
