package api

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/report"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/service"
	"github.com/FACorreiaa/ecad-statements/pkg/cron"
)

// inboxAdapter adapts service.Service to the scheduler's Processor interface
type inboxAdapter struct {
	svc    *service.Service
	logger *slog.Logger
}

// newInboxAdapter creates a new adapter
func newInboxAdapter(svc *service.Service, logger *slog.Logger) cron.Processor {
	return &inboxAdapter{svc: svc, logger: logger}
}

// ProcessFile implements cron.Processor. Each inbox file is its own run over
// every period; a run that recorded error diagnostics moves the file to the
// failed directory.
func (a *inboxAdapter) ProcessFile(ctx context.Context, name string, data []byte) error {
	res, err := a.svc.ProcessBatch(ctx, []service.Input{{Name: name, Data: data}}, report.Filter{Mode: report.ModeAll})
	if err != nil {
		return err
	}
	if res.HasErrors() {
		return fmt.Errorf("run %s recorded error diagnostics", res.RunID)
	}

	a.logger.Info("inbox file processed",
		slog.String("file", name),
		slog.String("run_id", res.RunID.String()),
	)
	return nil
}
