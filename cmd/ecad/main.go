package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/FACorreiaa/ecad-statements/cmd/api"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/report"
	"github.com/FACorreiaa/ecad-statements/pkg/config"
)

const usage = `usage:
  ecad run [flags] statement.pdf [more.pdf ...]
  ecad serve`

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if len(os.Args) < 2 {
		printError("%s\n", usage)
		os.Exit(2)
	}

	// stdout carries the run summary, so logs go to stderr
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "run":
		os.Exit(runCmd(ctx, cfg, logger, os.Args[2:]))
	case "serve":
		os.Exit(serveCmd(ctx, cfg, logger))
	default:
		printError("unknown command %q\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
}

func runCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var (
		merge      = fs.Bool("merge", cfg.Pipeline.Merge, "compile the readable inputs into one PDF before splitting")
		ref        = fs.String("ref", cfg.Pipeline.ReferencePath, "rubric reference table (.xlsx or .csv)")
		workers    = fs.Int("workers", cfg.Pipeline.Workers, "documents processed concurrently")
		keep       = fs.Bool("keep-trailing", cfg.Pipeline.KeepTrailing, "keep pages after the last closing marker")
		filterMode = fs.String("filter-mode", "", "period filter: dia, mes, trim or ano")
		filterSel  = fs.String("filter", "", "comma separated period values (dia: FROM,TO)")
		out        = fs.String("out", cfg.Storage.Root, "artifact output directory")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		printError("Error: at least one PDF is required\n%s\n", usage)
		return 2
	}
	if *workers < 1 {
		printError("Error: --workers must be at least 1\n")
		return 2
	}

	var selection []string
	if *filterSel != "" {
		selection = strings.Split(*filterSel, ",")
	}
	filter, err := report.NewFilter(*filterMode, selection)
	if err != nil {
		printError("Error: %v\n", err)
		return 2
	}

	cfg.Pipeline.Merge = *merge
	cfg.Pipeline.ReferencePath = *ref
	cfg.Pipeline.Workers = *workers
	cfg.Pipeline.KeepTrailing = *keep
	cfg.Storage.Root = *out
	cfg.Scheduler.Enabled = false

	deps, err := api.InitDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", slog.Any("error", err))
		return 1
	}
	defer deps.Cleanup()

	res, err := api.RunFiles(ctx, deps, fs.Args(), filter)
	if err != nil {
		logger.Error("run failed", slog.Any("error", err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("failed to write summary", slog.Any("error", err))
		return 1
	}

	logger.Info("run complete",
		slog.String("run_id", res.RunID.String()),
		slog.Int("documents", len(res.Documents)),
		slog.Int("diagnostics", len(res.Diagnostics)),
		slog.Int("artifacts", len(res.Artifacts)),
	)
	if res.HasErrors() {
		return 3
	}
	return 0
}

func serveCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger) int {
	deps, err := api.InitDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", slog.Any("error", err))
		return 1
	}
	defer deps.Cleanup()

	if err := api.Serve(ctx, deps); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		return 1
	}
	return 0
}
