package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/report"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/service"
)

// Serve runs the HTTP API and the inbox scheduler until ctx is cancelled.
func Serve(ctx context.Context, d *Dependencies) error {
	if d.Scheduler != nil {
		if err := d.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	httpServer := &http.Server{
		Addr:         d.Config.Server.Addr(),
		Handler:      d.RunsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		d.Logger.Info("starting http server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		d.Logger.Info("shutting down...")
	case serveErr = <-errCh:
	}

	if d.Scheduler != nil {
		// Wait for an in-flight inbox drain.
		<-d.Scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		d.Logger.Warn("http shutdown failed", slog.Any("error", err))
	}

	if serveErr != nil {
		return fmt.Errorf("server error: %w", serveErr)
	}
	return nil
}

// RunFiles processes the given PDF paths as one batch. A file that cannot be
// read is reported as a read diagnostic of the run.
func RunFiles(ctx context.Context, d *Dependencies, paths []string, filter report.Filter) (*service.RunResult, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}

	inputs := make([]service.Input, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			err = fmt.Errorf("failed to read %s: %w", path, err)
		}
		inputs = append(inputs, service.Input{Name: filepath.Base(path), Data: data, Err: err})
	}

	return d.StatementService.ProcessBatch(ctx, inputs, filter)
}
