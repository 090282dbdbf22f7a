package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/consolidator"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/extractor"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/rubric"
)

// DocumentResult holds the tables of one period document.
type DocumentResult struct {
	Tables      consolidator.Tables
	Diagnostics []statement.Diagnostic
	Misses      []rubric.Miss
	WorkTotal   extractor.TotalCheck

	// Failed is set when the document aborted; Diagnostics holds the cause.
	Failed bool
}

// ProcessDocument extracts, normalizes and maps the tables of doc. It never
// fails the batch: problems are returned as diagnostics.
func (s *Service) ProcessDocument(ctx context.Context, doc statement.Document) (out DocumentResult) {
	_, span := tracer.Start(ctx, "statement.ProcessDocument",
		trace.WithAttributes(
			attribute.String("document", doc.Name),
			attribute.Int("pages", len(doc.Pages)),
		))
	defer span.End()

	out.Tables = consolidator.Tables{Document: doc.Name}
	stage := statement.StageSplit

	defer func() {
		if rec := recover(); rec != nil {
			derr := &statement.DocumentError{Document: doc.Name, Stage: stage, Err: fmt.Errorf("panic: %v", rec)}
			s.logger.Error("document processing failed",
				slog.String("document", doc.Name),
				slog.Any("error", derr),
			)
			span.RecordError(derr)
			span.SetStatus(codes.Error, "document failed")
			out = DocumentResult{
				Tables:      consolidator.Tables{Document: doc.Name},
				Diagnostics: append(out.Diagnostics, derr.Diagnostic()),
				Failed:      true,
			}
		}
	}()

	for _, spec := range s.opts.Specs {
		stage = stageOf(spec.Kind)
		res := extractor.Extract(spec, doc.Pages)
		if !res.Found {
			out.Diagnostics = append(out.Diagnostics, statement.Diagnostic{
				Document: doc.Name,
				Stage:    stage,
				Severity: statement.SeverityWarning,
				Message:  res.Reason,
			})
			s.logger.Warn("table not found",
				slog.String("document", doc.Name),
				slog.String("table", string(spec.Kind)),
				slog.String("reason", res.Reason),
			)
		}

		switch spec.Kind {
		case statement.KindCategory:
			out.Tables.Categories = normalizer.Categories(doc.Name, res.Rows)
			s.metrics.Rows(string(spec.Kind), len(out.Tables.Categories))
		case statement.KindRubric:
			mapped := s.mapper.Apply(normalizer.Rubrics(doc.Name, res.Rows))
			out.Tables.Rubrics = mapped.Rows
			out.Misses = mapped.Misses
			s.metrics.Rows(string(spec.Kind), len(out.Tables.Rubrics))
		case statement.KindWork:
			out.Tables.Works = normalizer.Works(doc.Name, res.Rows)
			s.metrics.Rows(string(spec.Kind), len(out.Tables.Works))
			out.WorkTotal = extractor.CheckWorkTotal(out.Tables.Works, res.StatedTotal)
			if out.WorkTotal.Mismatch() {
				out.Diagnostics = append(out.Diagnostics, statement.Diagnostic{
					Document: doc.Name,
					Stage:    stage,
					Severity: statement.SeverityWarning,
					Message: fmt.Sprintf("sum of rateio %s differs from stated total %s",
						out.WorkTotal.Calculated.StringFixed(2), out.WorkTotal.Stated.StringFixed(2)),
				})
			}
		}
	}

	s.logger.Debug("document processed",
		slog.String("document", doc.Name),
		slog.Int("categorias", len(out.Tables.Categories)),
		slog.Int("rubricas", len(out.Tables.Rubrics)),
		slog.Int("obras", len(out.Tables.Works)),
	)
	return out
}

func stageOf(kind statement.TableKind) statement.Stage {
	switch kind {
	case statement.KindCategory:
		return statement.StageCategory
	case statement.KindRubric:
		return statement.StageRubric
	default:
		return statement.StageWork
	}
}
