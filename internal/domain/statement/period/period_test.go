package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"plain marker", "DATA REFERENTE: ABRIL/2024\nOUTRA LINHA", "ABRIL/2024", true},
		{"cedilla", "DISTRIBUIÇÃO MARÇO/2024", "MARÇO/2024", true},
		{"decomposed cedilla", "MARC\u0327O/2024", "MARÇO/2024", true},
		{"too short", "AB/2024", "", false},
		{"lowercase", "abril/2024", "", false},
		{"sub period is not a marker", "03/2024 A 05/2024", "", false},
		{"no marker", "POR CATEGORIA", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Find(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFold(t *testing.T) {
	pages := []statement.Page{
		{Index: 0, Text: "CABEÇALHO"},
		{Index: 1, Text: "JANEIRO/2024"},
		{Index: 2, Text: "SEM MARCADOR"},
		{Index: 3, Text: "FEVEREIRO/2024"},
		{Index: 4, Text: ""},
	}

	resolved := Fold(pages)

	require.Len(t, resolved, len(pages))
	got := make([]string, len(resolved))
	for i, r := range resolved {
		got[i] = r.Marker
		assert.Equal(t, pages[i], r.Page)
	}
	assert.Equal(t, []string{"", "JANEIRO/2024", "JANEIRO/2024", "FEVEREIRO/2024", "FEVEREIRO/2024"}, got)
	assert.Equal(t, "FEVEREIRO/2024", Last(pages))
}

func TestFold_Empty(t *testing.T) {
	assert.Empty(t, Fold(nil))
	assert.Equal(t, "", Last(nil))
}

func TestParse(t *testing.T) {
	tests := []struct {
		marker    string
		wantYear  int
		wantMonth int
		wantOK    bool
	}{
		{"MARÇO/2024", 2024, 3, true},
		{"MARCO/2024", 2024, 3, true},
		{"dezembro/2023", 2023, 12, true},
		{"SETEMBRO/2025", 2025, 9, true},
		{"XXX/2024", 0, 0, false},
		{"MAIO", 0, 0, false},
		{"", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.marker, func(t *testing.T) {
			y, m, ok := Parse(tt.marker)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantYear, y)
			assert.Equal(t, tt.wantMonth, m)
		})
	}
}

func TestFileToken(t *testing.T) {
	tok, ok := FileToken("MARÇO/2024")
	assert.True(t, ok)
	assert.Equal(t, "2024_03", tok)

	tok, ok = FileToken("NOVEMBRO/2023")
	assert.True(t, ok)
	assert.Equal(t, "2023_11", tok)

	_, ok = FileToken("XYZ/2024")
	assert.False(t, ok)

	_, ok = FileToken("")
	assert.False(t, ok)
}
