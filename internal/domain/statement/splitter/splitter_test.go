package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

func pagesOf(texts ...string) []statement.Page {
	pages := make([]statement.Page, len(texts))
	for i, t := range texts {
		pages[i] = statement.Page{Index: i, Text: t}
	}
	return pages
}

func names(docs []statement.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Name
	}
	return out
}

func TestSplit_OneDocumentPerClosingMarker(t *testing.T) {
	pages := pagesOf(
		"DEMONSTRATIVO JANEIRO/2024\nPOR CATEGORIA",
		"POR RUBRICA\nVALORES EXPRESSOS EM REAIS",
		"DEMONSTRATIVO FEVEREIRO/2024",
		"VALORES EXPRESSOS EM REAIS",
		"DEMONSTRATIVO MARÇO/2024\nVALORES EXPRESSOS EM REAIS",
	)

	res := Split(pages, Options{})
	require.Len(t, res.Documents, 3)
	assert.Equal(t, []string{"2024_01", "2024_02", "2024_03"}, names(res.Documents))
	assert.Equal(t, 0, res.DroppedTrailing)

	assert.Equal(t, []int{1, 2}, res.Documents[0].PageNumbers())
	assert.Equal(t, []int{3, 4}, res.Documents[1].PageNumbers())
	assert.Equal(t, []int{5}, res.Documents[2].PageNumbers())
	assert.Equal(t, "FEVEREIRO/2024", res.Documents[1].Period)

	total := 0
	for _, d := range res.Documents {
		total += len(d.Pages)
	}
	assert.Equal(t, len(pages), total)
}

func TestSplit_PeriodCarriesForward(t *testing.T) {
	pages := pagesOf(
		"ABRIL/2024",
		"VALORES EXPRESSOS",
		"SEM MARCADOR\nVALORES EXPRESSOS",
	)

	res := Split(pages, Options{})
	assert.Equal(t, []string{"2024_04", "2024_04_2"}, names(res.Documents))
	assert.Equal(t, "ABRIL/2024", res.Documents[1].Period)
}

func TestSplit_UnknownPeriodNames(t *testing.T) {
	tests := []struct {
		name  string
		pages []statement.Page
		want  []string
	}{
		{
			name:  "no marker seen",
			pages: pagesOf("CAPA", "VALORES EXPRESSOS"),
			want:  []string{"sem_data_2"},
		},
		{
			name:  "unknown month",
			pages: pagesOf("PERIODO XPTO/2024 VALORES EXPRESSOS"),
			want:  []string{"sem_data_1"},
		},
		{
			name:  "marker appears later",
			pages: pagesOf("VALORES EXPRESSOS", "MAIO/2024 VALORES EXPRESSOS"),
			want:  []string{"sem_data_1", "2024_05"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Split(tt.pages, Options{}).Documents))
		})
	}
}

func TestSplit_DuplicateNames(t *testing.T) {
	pages := pagesOf(
		"JUNHO/2024 VALORES EXPRESSOS",
		"JUNHO/2024 VALORES EXPRESSOS",
		"JUNHO/2024 VALORES EXPRESSOS",
	)

	got := names(Split(pages, Options{}).Documents)
	assert.Equal(t, []string{"2024_06", "2024_06_2", "2024_06_3"}, got)
}

func TestNamer_AvoidsExistingSuffix(t *testing.T) {
	n := NewNamer()
	assert.Equal(t, "2024_06_2", n.Unique("2024_06_2"))
	assert.Equal(t, "2024_06", n.Unique("2024_06"))
	assert.Equal(t, "2024_06_3", n.Unique("2024_06"))
	assert.Equal(t, "2024_06_4", n.Unique("2024_06"))
}

func TestSplit_TrailingPages(t *testing.T) {
	pages := pagesOf(
		"JULHO/2024 VALORES EXPRESSOS",
		"AGOSTO/2024",
		"POR RUBRICA",
	)

	dropped := Split(pages, Options{})
	assert.Equal(t, []string{"2024_07"}, names(dropped.Documents))
	assert.Equal(t, 2, dropped.DroppedTrailing)

	kept := Split(pages, Options{KeepTrailing: true})
	assert.Equal(t, []string{"2024_07", "2024_08"}, names(kept.Documents))
	assert.Equal(t, 0, kept.DroppedTrailing)
	assert.Equal(t, []int{2, 3}, kept.Documents[1].PageNumbers())
}

func TestSplit_CustomMarkerAndEmpty(t *testing.T) {
	pages := pagesOf("SETEMBRO/2024 FIM", "OUTUBRO/2024 FIM")
	res := Split(pages, Options{ClosingMarker: "FIM"})
	assert.Equal(t, []string{"2024_09", "2024_10"}, names(res.Documents))

	empty := Split(nil, Options{})
	assert.Empty(t, empty.Documents)
	assert.Equal(t, 0, empty.DroppedTrailing)
}

func TestWriter_Errors(t *testing.T) {
	w := NewWriter()

	_, err := w.Merge(nil)
	assert.ErrorIs(t, err, ErrNoInputs)

	single := []byte("%PDF-1.4")
	out, err := w.Merge([][]byte{single})
	require.NoError(t, err)
	assert.Equal(t, single, out)

	_, err = w.Extract([]byte("%PDF-1.4"), statement.Document{Name: "vazio"})
	assert.Error(t, err)

	_, err = w.Extract([]byte("not a pdf"), statement.Document{Name: "2024_01", Pages: pagesOf("x")})
	assert.Error(t, err)

	_, err = w.Merge([][]byte{[]byte("a"), []byte("b")})
	assert.Error(t, err)
}
