// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Inbox subdirectories that receive handled files.
const (
	ProcessedDir = "processed"
	FailedDir    = "failed"
)

// Processor handles one PDF picked up from the inbox.
type Processor interface {
	ProcessFile(ctx context.Context, name string, data []byte) error
}

// Scheduler watches an inbox directory on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	spec      string
	inbox     string
	processor Processor
	timeout   time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a new inbox scheduler.
func NewScheduler(spec, inbox string, processor Processor, logger *slog.Logger) *Scheduler {
	cronLogger := cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	return &Scheduler{
		cron:      c,
		spec:      spec,
		inbox:     inbox,
		processor: processor,
		timeout:   30 * time.Minute,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	for _, dir := range []string{s.inbox, filepath.Join(s.inbox, ProcessedDir), filepath.Join(s.inbox, FailedDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create inbox directory: %w", err)
		}
	}

	if _, err := s.cron.AddFunc(s.spec, s.drain); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("inbox", s.inbox),
		slog.String("spec", s.spec),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow processes the inbox once, synchronously.
func (s *Scheduler) RunNow(ctx context.Context) (processed, failed int) {
	files, err := s.pending()
	if err != nil {
		s.logger.Error("failed to list inbox", slog.Any("error", err))
		return 0, 0
	}

	for _, name := range files {
		if ctx.Err() != nil {
			break
		}
		if err := s.handle(ctx, name); err != nil {
			s.logger.Warn("inbox file failed",
				slog.String("file", name),
				slog.Any("error", err),
			)
			failed++
			continue
		}
		processed++
	}
	return processed, failed
}

func (s *Scheduler) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	processed, failed := s.RunNow(ctx)
	if processed+failed == 0 {
		return
	}
	s.logger.Info("inbox drained",
		slog.Int("processed", processed),
		slog.Int("failed", failed),
	)
}

// pending lists inbox PDFs in name order.
func (s *Scheduler) pending() ([]string, error) {
	entries, err := os.ReadDir(s.inbox)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

func (s *Scheduler) handle(ctx context.Context, name string) error {
	src := filepath.Join(s.inbox, name)
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	procErr := s.processor.ProcessFile(ctx, name, data)
	dest := ProcessedDir
	if procErr != nil {
		dest = FailedDir
	}
	if err := os.Rename(src, filepath.Join(s.inbox, dest, name)); err != nil {
		return fmt.Errorf("failed to move %s: %w", name, err)
	}
	return procErr
}
