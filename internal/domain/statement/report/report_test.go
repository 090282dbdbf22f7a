package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/consolidator"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func amount(v string) statement.Amounts {
	return statement.Amounts{Total: decimal.RequireFromString(v)}
}

func sampleDatasets() consolidator.Datasets {
	return consolidator.Datasets{
		Categories: []statement.CategoryRow{
			{Name: "SHOW", Amounts: amount("100.00"), Date: month(2024, time.January)},
			{Name: "RADIO", Amounts: amount("300.00"), Date: month(2024, time.April)},
			{Name: "SHOW", Amounts: amount("250.00"), Date: month(2024, time.April)},
		},
		Rubrics: []statement.RubricRow{
			{Name: "EXECUCAO", Model: "AO VIVO", Amounts: amount("100.00"), Date: month(2024, time.January)},
			{Name: "CINEMA", Amounts: amount("40.00"), Date: month(2024, time.April)},
			{Name: "SHOW", Model: "AO VIVO", Amounts: amount("60.00"), Date: month(2024, time.April)},
			{Name: "SEM DATA", Model: "TV", Amounts: amount("5.00"), Date: normalizer.NoDate},
		},
		Works: []statement.WorkRow{
			{Name: "CANCAO A", Rateio: decimal.RequireFromString("10.00"), Date: month(2024, time.January)},
			{Name: "CANCAO B", Rateio: decimal.RequireFromString("30.00"), Date: month(2024, time.April)},
			{Name: "CANCAO A", Rateio: decimal.RequireFromString("25.00"), Date: month(2025, time.February)},
		},
	}
}

func TestNewFilter(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		selection []string
		wantMode  Mode
		wantErr   bool
	}{
		{"all", "", nil, ModeAll, false},
		{"month", "Mes", []string{"2024-01"}, ModeMonth, false},
		{"month accented", "MÊS", []string{"2024-01"}, ModeMonth, false},
		{"quarter alias", "trimestre", []string{"2024-Q2"}, ModeQuarter, false},
		{"year", "ano", []string{"2024"}, ModeYear, false},
		{"day range", "dia", []string{"2024-01-01", "2024-03-31"}, ModeDay, false},
		{"day without dates", "dia", nil, "", true},
		{"day bad date", "dia", []string{"01/01/2024"}, "", true},
		{"unknown", "semana", []string{"1"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.mode, tt.selection)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantMode, f.Mode)
		})
	}
}

func TestFilter_Match(t *testing.T) {
	jan := month(2024, time.January)
	apr := month(2024, time.April)

	mustFilter := func(mode string, sel ...string) Filter {
		f, err := NewFilter(mode, sel)
		require.NoError(t, err)
		return f
	}

	tests := []struct {
		name   string
		filter Filter
		date   time.Time
		want   bool
	}{
		{"all keeps no date", mustFilter(""), normalizer.NoDate, true},
		{"month hit", mustFilter("mes", "2024-04"), apr, true},
		{"month miss", mustFilter("mes", "2024-04"), jan, false},
		{"month empty selection", mustFilter("mes"), jan, false},
		{"quarter", mustFilter("trim", "2024-Q2"), apr, true},
		{"year", mustFilter("ano", "2023", "2024"), jan, true},
		{"no date excluded", mustFilter("ano", "2024"), normalizer.NoDate, false},
		{"day inside", mustFilter("dia", "2024-01-01", "2024-03-31"), jan, true},
		{"day outside", mustFilter("dia", "2024-01-01", "2024-03-31"), apr, false},
		{"day reversed range", mustFilter("dia", "2024-04-30", "2024-04-01"), apr, true},
		{"single day", mustFilter("dia", "2024-01-01"), jan, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(tt.date))
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	ds := sampleDatasets()
	f, err := NewFilter("ano", []string{"2024"})
	require.NoError(t, err)

	got := f.Apply(ds)
	assert.Len(t, got.Categories, 3)
	assert.Len(t, got.Rubrics, 3)
	assert.Len(t, got.Works, 2)
	assert.Len(t, ds.Works, 3)
}

func TestBuild(t *testing.T) {
	s := Build(sampleDatasets(), 1)

	assert.Equal(t, "650.00", s.Totals.Categories.String())
	assert.Equal(t, "205.00", s.Totals.Rubrics.String())
	assert.Equal(t, "65.00", s.Totals.Works.String())

	require.Len(t, s.ByMonth, 3)
	assert.Equal(t, []string{"2024-01", "2024-04", "sem data"}, keys(s.ByMonth))
	assert.Equal(t, "100.00", s.ByMonth[1].Amount.String())

	assert.Equal(t, []string{"AO VIVO", UnmappedModel, "TV"}, keys(s.ByModel))
	assert.Equal(t, "160.00", s.ByModel[0].Amount.String())

	assert.Equal(t, []string{"SHOW", "RADIO"}, keys(s.ByCategory))
	assert.Equal(t, "350.00", s.ByCategory[0].Amount.String())

	require.Len(t, s.TopWorks, 1)
	assert.Equal(t, "CANCAO A", s.TopWorks[0].Key)
	assert.Equal(t, "35.00", s.TopWorks[0].Amount.String())
}

func TestBuild_EmptyAndJSON(t *testing.T) {
	s := Build(consolidator.Consolidate(nil), 0)
	assert.Empty(t, s.TopWorks)
	assert.Equal(t, "0.00", s.Totals.Works.String())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"by_month":[]`)
	assert.Contains(t, string(data), `"obras":{"amount":"0.00"`)
}

func keys(totals []Total) []string {
	out := make([]string, len(totals))
	for i, t := range totals {
		out[i] = t.Key
	}
	return out
}
