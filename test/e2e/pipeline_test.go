// Package e2etest provides end-to-end tests for statement runs.
package e2etest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/handler"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/report"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/rubric"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/service"
	"github.com/FACorreiaa/ecad-statements/pkg/metrics"
	"github.com/FACorreiaa/ecad-statements/pkg/storage"
)

type pipeline struct {
	svc    *service.Service
	server *httptest.Server
}

func newPipeline(t *testing.T, opts service.Options) *pipeline {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	m := metrics.New()

	svc := service.NewService(opts, logger).
		WithReference(rubric.NewReference(map[string]string{"EXECUCAO AO VIVO": "AO VIVO"})).
		WithStore(store).
		WithMetrics(m)

	srv := httptest.NewServer(handler.NewRunsHandler(svc, logger).WithMetrics(m.Handler()))
	t.Cleanup(srv.Close)
	return &pipeline{svc: svc, server: srv}
}

func (p *pipeline) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(p.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func pages(name string, texts ...string) service.Source {
	src := service.Source{Name: name}
	for i, text := range texts {
		src.Pages = append(src.Pages, statement.Page{Index: i, Text: text})
	}
	return src
}

// TestTwoPageCategoryTable covers a category table whose end anchor sits on
// the following page.
func TestTwoPageCategoryTable(t *testing.T) {
	p := newPipeline(t, service.Options{})

	src := pages("demonstrativo.pdf",
		"DEMONSTRATIVO DE DIREITOS MARÇO/2024\nPOR CATEGORIA\nALFA 100,00 200,00 300,00 400,00 500,00 600,00",
		"POR RUBRICA\nVALORES EXPRESSOS EM REAIS",
	)
	res, err := p.svc.ProcessSources(context.Background(), []service.Source{src}, report.Filter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"2024_03"}, res.Documents)
	require.Len(t, res.Datasets.Categories, 1)
	row := res.Datasets.Categories[0]
	assert.Equal(t, "ALFA", row.Name)
	amounts := []string{
		row.Distribution.StringFixed(2), row.CreditRelease.StringFixed(2), row.PendingRelease.StringFixed(2),
		row.ParameterRelease.StringFixed(2), row.Adjustments.StringFixed(2), row.Total.StringFixed(2),
	}
	assert.Equal(t, []string{"100.00", "200.00", "300.00", "400.00", "500.00", "600.00"}, amounts)
	assert.Equal(t, "2024-03-01", row.Date.Format("2006-01-02"))
	assert.False(t, res.HasErrors())

	t.Run("summary over http", func(t *testing.T) {
		code, body := p.get(t, "/runs/"+res.RunID.String()+"/summary")
		require.Equal(t, http.StatusOK, code)

		var summary map[string]any
		require.NoError(t, json.Unmarshal([]byte(body), &summary))
		assert.Equal(t, res.RunID.String(), summary["run_id"])
		assert.Equal(t, []any{"2024_03"}, summary["documents"])
	})

	t.Run("compiled csv over http", func(t *testing.T) {
		code, body := p.get(t, "/runs/"+res.RunID.String()+"/artifacts/tabela_compilada_categorias.csv")
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "ALFA;100.00;200.00;300.00;400.00;500.00;600.00;2024-03-01")
	})

	t.Run("metrics", func(t *testing.T) {
		code, body := p.get(t, "/metrics")
		require.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "ecad_runs_total 1")
	})
}

func statementPeriod(month string, rubric, work1, work2, stated string) string {
	return strings.Join([]string{
		"DEMONSTRATIVO DE DIREITOS " + month,
		"POR CATEGORIA",
		"ALFA 100,00 --- --- --- --- 100,00",
		"POR RUBRICA",
		"EXECUCAO AO VIVO " + rubric,
		"TOTAL DO TITULAR " + rubric,
		"OBRA RUBRICA PERÍODO RENDIMENTO % RATEIO CORREÇÃO EXEC (OC)",
		"11111 PRIMEIRA OBRA " + work1,
		"22222 SEGUNDA OBRA " + work2,
		"TOTAL GERAL " + stated,
		"VALORES EXPRESSOS EM REAIS",
	}, "\n")
}

// TestMultiPeriodRun splits one input into three periods, filters a quarter
// and reconciles the works against the rubric total.
func TestMultiPeriodRun(t *testing.T) {
	p := newPipeline(t, service.Options{Workers: 3})

	src := pages("trimestre.pdf",
		statementPeriod("JANEIRO/2024", "1.000,00", "500,00", "400,00", "900,00"),
		statementPeriod("FEVEREIRO/2024", "1.000,00", "500,00", "400,00", "900,00"),
		statementPeriod("ABRIL/2024", "1.000,00", "500,00", "400,00", "900,00"),
		"PÁGINA SEM FECHAMENTO",
	)

	filter, err := report.NewFilter("trimestre", []string{"2024-Q1"})
	require.NoError(t, err)

	res, err := p.svc.ProcessSources(context.Background(), []service.Source{src}, filter)
	require.NoError(t, err)

	assert.Equal(t, []string{"2024_01", "2024_02", "2024_04"}, res.Documents)
	assert.Equal(t, 1, res.DroppedPages)

	require.Len(t, res.Datasets.Categories, 2)
	require.Len(t, res.Datasets.Works, 4)
	assert.True(t, res.Reconciliation.Applied)
	assert.Equal(t, "2000.00", res.Reconciliation.WorkAfter.StringFixed(2))

	code, body := p.get(t, "/runs/"+res.RunID.String()+"/artifacts")
	require.Equal(t, http.StatusOK, code)
	for _, doc := range res.Documents {
		assert.Contains(t, body, doc+".xlsx")
	}
}

func TestUnknownRun(t *testing.T) {
	p := newPipeline(t, service.Options{})

	code, _ := p.get(t, "/runs/00000000-0000-0000-0000-000000000000/summary")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = p.get(t, "/runs/abc/artifacts")
	assert.Equal(t, http.StatusBadRequest, code)
}
