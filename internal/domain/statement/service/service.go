// Package service runs the statement pipeline: it reads PDFs, splits them
// into period documents, extracts and normalizes the three tables, and
// consolidates, filters and reconciles the result of a run.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/consolidator"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/extractor"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/pdftext"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/reconciler"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/report"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/repository"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/rubric"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/splitter"
	"github.com/FACorreiaa/ecad-statements/pkg/metrics"
	"github.com/FACorreiaa/ecad-statements/pkg/storage"
)

// MergedInputName names the compiled PDF built from several inputs.
const MergedInputName = "compilado.pdf"

var tracer = otel.Tracer("github.com/FACorreiaa/ecad-statements/internal/domain/statement/service")

// Input is one statement PDF. Err marks an input that could not be loaded;
// it is reported like an unreadable PDF.
type Input struct {
	Name string
	Data []byte
	Err  error
}

// Source is an input whose page text is already known. Data holds the
// original PDF bytes and may be nil, in which case no period PDFs are
// written.
type Source struct {
	Name  string
	Data  []byte
	Pages []statement.Page
}

// Options tunes a Service.
type Options struct {
	// Workers bounds concurrent document processing; values below 1 mean 1.
	Workers int
	// KeepTrailing emits pages after the last closing marker as a document.
	KeepTrailing bool
	// ClosingMarker overrides splitter.DefaultClosingMarker.
	ClosingMarker string
	// Specs are the tables extracted from every document; extractor.Specs()
	// when nil.
	Specs []extractor.TableSpec
	// TopN limits the works listed in the summary.
	TopN int
	// Merge compiles the readable inputs into one PDF before splitting.
	Merge bool
}

// RunResult is the outcome of one batch. Documents that failed contribute a
// diagnostic and no rows.
type RunResult struct {
	RunID          uuid.UUID                   `json:"run_id"`
	StartedAt      time.Time                   `json:"started_at"`
	FinishedAt     time.Time                   `json:"finished_at"`
	Inputs         []string                    `json:"inputs"`
	Documents      []string                    `json:"documents"`
	DroppedPages   int                         `json:"dropped_pages"`
	Filter         report.Filter               `json:"filter"`
	Rows           map[statement.TableKind]int `json:"rows"`
	Reconciliation reconciler.Result           `json:"reconciliation"`
	Summary        report.Summary              `json:"summary"`
	Misses         []rubric.Miss               `json:"unmapped_rubrics"`
	Diagnostics    []statement.Diagnostic      `json:"diagnostics"`

	Datasets  consolidator.Datasets `json:"-"`
	Artifacts []*storage.FileInfo   `json:"-"`
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (r *RunResult) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == statement.SeverityError {
			return true
		}
	}
	return false
}

// Service orchestrates statement runs.
type Service struct {
	reader  *pdftext.Reader
	writer  *splitter.Writer
	mapper  *rubric.Mapper
	store   storage.Store            // Optional: nil disables artifacts
	repo    repository.RunRepository // Optional: nil disables persistence
	metrics *metrics.Metrics         // Optional
	opts    Options
	logger  *slog.Logger
}

// NewService creates a statement service without a rubric reference.
func NewService(opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Specs == nil {
		opts.Specs = extractor.Specs()
	}
	if opts.TopN <= 0 {
		opts.TopN = report.DefaultTopN
	}
	return &Service{
		reader: pdftext.NewReader(logger),
		writer: splitter.NewWriter(),
		mapper: rubric.NewMapper(nil, logger),
		opts:   opts,
		logger: logger,
	}
}

// WithReference labels rubric rows using ref.
func (s *Service) WithReference(ref *rubric.Reference) *Service {
	s.mapper = rubric.NewMapper(ref, s.logger)
	return s
}

// WithStore writes run artifacts to a workspace of store.
func (s *Service) WithStore(store storage.Store) *Service {
	s.store = store
	return s
}

// WithRepository persists every run.
func (s *Service) WithRepository(repo repository.RunRepository) *Service {
	s.repo = repo
	return s
}

// WithMetrics records pipeline metrics.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// ProcessBatch runs the pipeline over PDF inputs. An unreadable input only
// adds a diagnostic; the error return is reserved for fatal failures such
// as an unwritable workspace, a database error or cancellation.
func (s *Service) ProcessBatch(ctx context.Context, inputs []Input, filter report.Filter) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "statement.ProcessBatch",
		trace.WithAttributes(attribute.Int("inputs", len(inputs))))
	defer span.End()

	r := newRun(inputs)

	sources := make([]Source, 0, len(inputs))
	for _, in := range inputs {
		pages, err := s.readInput(in)
		if err != nil {
			r.record(s, (&statement.DocumentError{Document: in.Name, Stage: statement.StageRead, Err: err}).Diagnostic())
			s.metrics.Document(metrics.OutcomeFailed)
			s.logger.Warn("skipping unreadable input",
				slog.String("input", in.Name),
				slog.Any("error", err),
			)
			continue
		}
		sources = append(sources, Source{Name: in.Name, Data: in.Data, Pages: pages})
	}

	if s.opts.Merge && len(sources) > 1 {
		merged, err := s.merge(sources)
		if err != nil {
			r.record(s, statement.Diagnostic{
				Document: MergedInputName,
				Stage:    statement.StageRead,
				Severity: statement.SeverityWarning,
				Message:  fmt.Sprintf("inputs processed separately: %v", err),
			})
			s.logger.Warn("merge failed, processing inputs separately", slog.Any("error", err))
		} else {
			sources = []Source{merged}
		}
	}

	res, err := s.execute(ctx, r, sources, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("run_id", res.RunID.String()),
		attribute.Int("documents", len(res.Documents)),
		attribute.Int("diagnostics", len(res.Diagnostics)),
	)
	return res, nil
}

// ProcessSources runs the pipeline over inputs whose pages were already
// extracted.
func (s *Service) ProcessSources(ctx context.Context, sources []Source, filter report.Filter) (*RunResult, error) {
	ctx, span := tracer.Start(ctx, "statement.ProcessSources",
		trace.WithAttributes(attribute.Int("sources", len(sources))))
	defer span.End()

	inputs := make([]Input, len(sources))
	for i, src := range sources {
		inputs[i] = Input{Name: src.Name}
	}
	res, err := s.execute(ctx, newRun(inputs), sources, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (s *Service) readInput(in Input) ([]statement.Page, error) {
	if in.Err != nil {
		return nil, in.Err
	}
	return s.reader.PagesFromBytes(in.Data)
}

// merge compiles readable sources into one PDF. Pages keep their order, so
// the merged page list is the concatenation of the sources' pages.
func (s *Service) merge(sources []Source) (Source, error) {
	data := make([][]byte, len(sources))
	var pages []statement.Page
	for i, src := range sources {
		data[i] = src.Data
		for _, p := range src.Pages {
			pages = append(pages, statement.Page{Index: len(pages), Text: p.Text})
		}
	}
	merged, err := s.writer.Merge(data)
	if err != nil {
		return Source{}, fmt.Errorf("failed to merge inputs: %w", err)
	}
	s.logger.Info("inputs merged", slog.Int("inputs", len(sources)), slog.Int("pages", len(pages)))
	return Source{Name: MergedInputName, Data: merged, Pages: pages}, nil
}

// run accumulates the sequential parts of a batch.
type run struct {
	result *RunResult
	start  time.Time
}

func newRun(inputs []Input) *run {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = in.Name
	}
	now := time.Now()
	return &run{
		start: now,
		result: &RunResult{
			RunID:       uuid.New(),
			StartedAt:   now.UTC(),
			Inputs:      names,
			Documents:   []string{},
			Diagnostics: []statement.Diagnostic{},
		},
	}
}

func (r *run) record(s *Service, diags ...statement.Diagnostic) {
	for _, d := range diags {
		r.result.Diagnostics = append(r.result.Diagnostics, d)
		s.metrics.Diagnostic(string(d.Stage), string(d.Severity))
	}
}

// job is one period document with the PDF it was split from.
type job struct {
	source []byte
	doc    statement.Document
}

func (s *Service) execute(ctx context.Context, r *run, sources []Source, filter report.Filter) (*RunResult, error) {
	res := r.result
	res.Filter = filter

	jobs := s.split(r, sources)

	results := make([]DocumentResult, len(jobs))
	started := make([]bool, len(jobs))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		i, j := i, j
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			started[i] = true
			results[i] = s.ProcessDocument(ctx, j.doc)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	tables := make([]consolidator.Tables, 0, len(results))
	var misses []rubric.Miss
	for i, dr := range results {
		if !started[i] {
			continue
		}
		r.record(s, dr.Diagnostics...)
		if dr.Failed {
			s.metrics.Document(metrics.OutcomeFailed)
			continue
		}
		s.metrics.Document(metrics.OutcomeOK)
		res.Documents = append(res.Documents, dr.Tables.Document)
		tables = append(tables, dr.Tables)
		misses = mergeMisses(misses, dr.Misses)
	}
	res.Misses = misses
	if res.Misses == nil {
		res.Misses = []rubric.Miss{}
	}

	ds := filter.Apply(consolidator.Consolidate(tables))
	ds.Works, res.Reconciliation = reconciler.Reconcile(ds.Rubrics, ds.Works)
	if res.Reconciliation.Applied {
		s.logger.Info("work apportionments reconciled",
			slog.String("factor", res.Reconciliation.Factor.StringFixed(6)),
			slog.String("rubric_total", res.Reconciliation.RubricTotal.StringFixed(2)),
			slog.String("work_total_before", res.Reconciliation.WorkBefore.StringFixed(2)),
		)
	}
	res.Datasets = ds
	res.Rows = ds.Len()
	res.Summary = report.Build(ds, s.opts.TopN)

	if err := s.persist(ctx, r, jobs, results, started); err != nil {
		return nil, err
	}

	factor, _ := res.Reconciliation.Factor.Float64()
	s.metrics.Run(time.Since(r.start), factor)
	s.logger.Info("run completed",
		slog.String("run_id", res.RunID.String()),
		slog.Int("documents", len(res.Documents)),
		slog.Int("categorias", len(ds.Categories)),
		slog.Int("rubricas", len(ds.Rubrics)),
		slog.Int("obras", len(ds.Works)),
		slog.Int("diagnostics", len(res.Diagnostics)),
	)
	return res, nil
}

// split turns every source into period documents with names unique across
// the whole batch.
func (s *Service) split(r *run, sources []Source) []job {
	names := splitter.NewNamer()
	var jobs []job
	for _, src := range sources {
		out := splitter.Split(src.Pages, splitter.Options{
			ClosingMarker: s.opts.ClosingMarker,
			KeepTrailing:  s.opts.KeepTrailing,
		})
		if out.DroppedTrailing > 0 {
			r.result.DroppedPages += out.DroppedTrailing
			r.record(s, statement.Diagnostic{
				Document: src.Name,
				Stage:    statement.StageSplit,
				Severity: statement.SeverityWarning,
				Message:  fmt.Sprintf("%d trailing pages after the last closing marker were dropped", out.DroppedTrailing),
			})
			s.logger.Warn("trailing pages dropped",
				slog.String("input", src.Name),
				slog.Int("pages", out.DroppedTrailing),
			)
		}
		if len(out.Documents) == 0 {
			r.record(s, statement.Diagnostic{
				Document: src.Name,
				Stage:    statement.StageSplit,
				Severity: statement.SeverityWarning,
				Message:  "no period document found",
			})
		}
		for _, doc := range out.Documents {
			doc.Name = names.Unique(doc.Name)
			jobs = append(jobs, job{source: src.Data, doc: doc})
		}
	}
	return jobs
}

// mergeMisses folds b into a, summing counts of names seen in both.
func mergeMisses(a, b []rubric.Miss) []rubric.Miss {
	for _, m := range b {
		found := false
		for i := range a {
			if a[i].Name == m.Name {
				a[i].Count += m.Count
				found = true
				break
			}
		}
		if !found {
			a = append(a, m)
		}
	}
	return a
}
