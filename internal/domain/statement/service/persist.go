package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/export"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/repository"
	"github.com/FACorreiaa/ecad-statements/pkg/storage"
)

// SummaryFile is the run summary artifact.
const SummaryFile = "summary.json"

// ErrNoStore is returned by lookups when the service has no artifact store.
var ErrNoStore = errors.New("artifact store not configured")

// persist writes the run artifacts and the database record. Both are fatal
// on failure.
func (s *Service) persist(ctx context.Context, r *run, jobs []job, results []DocumentResult, started []bool) error {
	res := r.result

	var ws storage.Workspace
	if s.store != nil {
		var err error
		ws, err = s.store.NewWorkspace(ctx)
		if err != nil {
			return fmt.Errorf("failed to create workspace: %w", err)
		}
		res.RunID = ws.RunID()
		if err := s.writeArtifacts(ctx, ws, r, jobs, results, started); err != nil {
			return err
		}
	}

	res.FinishedAt = time.Now().UTC()
	summary, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}

	if ws != nil {
		if err := s.put(ctx, ws, res, SummaryFile, summary); err != nil {
			return err
		}
		s.logger.Info("artifacts written",
			slog.String("run_id", res.RunID.String()),
			slog.Int("files", len(res.Artifacts)),
		)
	}

	if s.repo != nil {
		err := s.repo.SaveRun(ctx, repository.Run{
			ID:            res.RunID,
			StartedAt:     res.StartedAt,
			FinishedAt:    res.FinishedAt,
			Inputs:        res.Inputs,
			Documents:     len(res.Documents),
			Diagnostics:   len(res.Diagnostics),
			Factor:        res.Reconciliation.Factor,
			FactorApplied: res.Reconciliation.Applied,
			Summary:       summary,
		}, res.Datasets)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
	}
	return nil
}

func (s *Service) writeArtifacts(ctx context.Context, ws storage.Workspace, r *run, jobs []job, results []DocumentResult, started []bool) error {
	res := r.result
	for i, j := range jobs {
		if !started[i] || results[i].Failed {
			continue
		}

		if j.source != nil {
			pdf, err := s.writer.Extract(j.source, j.doc)
			if err != nil {
				r.record(s, statement.Diagnostic{
					Document: j.doc.Name,
					Stage:    statement.StageArtifacts,
					Severity: statement.SeverityWarning,
					Message:  err.Error(),
				})
			} else if err := s.put(ctx, ws, res, j.doc.Name+".pdf", pdf); err != nil {
				return err
			}
		}

		wb, err := export.DocumentWorkbook(results[i].Tables)
		if err != nil {
			return fmt.Errorf("failed to render document workbook: %w", err)
		}
		if err := s.put(ctx, ws, res, wb.Name, wb.Data); err != nil {
			return err
		}
	}

	compiled, err := export.CompiledArtifacts(res.Datasets)
	if err != nil {
		return fmt.Errorf("failed to render compiled tables: %w", err)
	}
	for _, a := range compiled {
		if err := s.put(ctx, ws, res, a.Name, a.Data); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) put(ctx context.Context, ws storage.Workspace, res *RunResult, name string, data []byte) error {
	info, err := ws.Put(ctx, name, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	res.Artifacts = append(res.Artifacts, info)
	return nil
}

// Summary returns the stored summary.json of a run.
func (s *Service) Summary(ctx context.Context, runID uuid.UUID) ([]byte, error) {
	rc, err := s.OpenArtifact(ctx, runID, SummaryFile)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// Artifacts lists the stored files of a run.
func (s *Service) Artifacts(ctx context.Context, runID uuid.UUID) ([]*storage.FileInfo, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	ws, err := s.store.Workspace(ctx, runID)
	if err != nil {
		return nil, err
	}
	return ws.List(ctx)
}

// OpenArtifact returns a reader for one stored file of a run.
func (s *Service) OpenArtifact(ctx context.Context, runID uuid.UUID, name string) (io.ReadCloser, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	ws, err := s.store.Workspace(ctx, runID)
	if err != nil {
		return nil, err
	}
	return ws.Open(ctx, name)
}
