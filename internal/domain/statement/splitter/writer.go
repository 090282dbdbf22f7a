package splitter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

// ErrNoInputs is returned when Merge is called without documents.
var ErrNoInputs = errors.New("no pdf inputs to merge")

var disableConfigDir sync.Once

// Writer produces PDF artifacts: one file per period document and merged
// compilations of several inputs.
type Writer struct {
	conf *model.Configuration
}

// NewWriter creates a writer using relaxed validation.
func NewWriter() *Writer {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Writer{conf: conf}
}

// Extract returns a PDF holding only the pages of doc, taken from src.
func (w *Writer) Extract(src []byte, doc statement.Document) ([]byte, error) {
	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("document %s has no pages", doc.Name)
	}

	selected := make([]string, 0, len(doc.Pages))
	for _, n := range doc.PageNumbers() {
		selected = append(selected, strconv.Itoa(n))
	}

	var out bytes.Buffer
	if err := api.Trim(bytes.NewReader(src), &out, selected, w.conf); err != nil {
		return nil, fmt.Errorf("failed to extract pages of %s: %w", doc.Name, err)
	}
	return out.Bytes(), nil
}

// Merge concatenates inputs, in order, into one compiled PDF.
func (w *Writer) Merge(inputs [][]byte) ([]byte, error) {
	switch len(inputs) {
	case 0:
		return nil, ErrNoInputs
	case 1:
		return inputs[0], nil
	}

	readers := make([]io.ReadSeeker, len(inputs))
	for i, in := range inputs {
		readers[i] = bytes.NewReader(in)
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, w.conf); err != nil {
		return nil, fmt.Errorf("failed to merge %d pdfs: %w", len(inputs), err)
	}
	return out.Bytes(), nil
}
