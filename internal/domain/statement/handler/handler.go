// Package handler exposes finished runs over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/repository"
	"github.com/FACorreiaa/ecad-statements/internal/domain/statement/service"
	"github.com/FACorreiaa/ecad-statements/pkg/storage"
)

// RunReader reads the stored artifacts of a run.
type RunReader interface {
	Summary(ctx context.Context, runID uuid.UUID) ([]byte, error)
	Artifacts(ctx context.Context, runID uuid.UUID) ([]*storage.FileInfo, error)
	OpenArtifact(ctx context.Context, runID uuid.UUID, name string) (io.ReadCloser, error)
}

// RunLister lists persisted runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]repository.Run, error)
}

// HealthChecker reports the health of a dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RunsHandler serves run summaries, artifacts and health.
type RunsHandler struct {
	router  chi.Router
	runs    RunReader
	lister  RunLister     // Optional
	health  HealthChecker // Optional
	metrics http.Handler  // Optional
	logger  *slog.Logger
}

// NewRunsHandler creates the HTTP handler.
func NewRunsHandler(runs RunReader, logger *slog.Logger) *RunsHandler {
	h := &RunsHandler{runs: runs, logger: logger}
	h.setupRoutes()
	return h
}

// WithLister enables GET /runs.
func (h *RunsHandler) WithLister(l RunLister) *RunsHandler {
	h.lister = l
	return h
}

// WithHealth adds a dependency to /healthz.
func (h *RunsHandler) WithHealth(c HealthChecker) *RunsHandler {
	h.health = c
	return h
}

// WithMetrics mounts a metrics handler at /metrics.
func (h *RunsHandler) WithMetrics(m http.Handler) *RunsHandler {
	h.metrics = m
	return h
}

func (h *RunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *RunsHandler) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.logger))

	r.Get("/healthz", h.handleHealth)
	r.Get("/metrics", h.handleMetrics)

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", h.handleListRuns)
		r.Get("/{runID}/summary", h.handleSummary)
		r.Get("/{runID}/artifacts", h.handleArtifacts)
		r.Get("/{runID}/artifacts/{name}", h.handleArtifact)
	})

	h.router = r
}

func (h *RunsHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Health(ctx); err != nil {
			h.logger.Warn("health check failed", slog.Any("error", err))
			jsonError(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (h *RunsHandler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.metrics == nil {
		jsonError(w, "metrics disabled", http.StatusNotFound)
		return
	}
	h.metrics.ServeHTTP(w, r)
}

func (h *RunsHandler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.lister == nil {
		jsonError(w, "run history requires a database", http.StatusNotFound)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	runs, err := h.lister.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list runs", slog.Any("error", err))
		jsonError(w, "failed to list runs", http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []repository.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *RunsHandler) handleSummary(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(w, r)
	if !ok {
		return
	}
	data, err := h.runs.Summary(r.Context(), runID)
	if err != nil {
		h.lookupError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (h *RunsHandler) handleArtifacts(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(w, r)
	if !ok {
		return
	}
	files, err := h.runs.Artifacts(r.Context(), runID)
	if err != nil {
		h.lookupError(w, err)
		return
	}

	type artifact struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
		URL  string `json:"url"`
	}
	out := make([]artifact, len(files))
	for i, f := range files {
		out[i] = artifact{Name: f.Name, Size: f.Size, URL: "/runs/" + runID.String() + "/artifacts/" + f.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RunsHandler) handleArtifact(w http.ResponseWriter, r *http.Request) {
	runID, ok := parseRunID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	rc, err := h.runs.OpenArtifact(r.Context(), runID, name)
	if err != nil {
		h.lookupError(w, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("artifact download interrupted",
			slog.String("run_id", runID.String()),
			slog.String("name", name),
			slog.Any("error", err),
		)
	}
}

func (h *RunsHandler) lookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, service.ErrNoStore):
		jsonError(w, "artifact store disabled", http.StatusNotFound)
	default:
		h.logger.Error("run lookup failed", slog.Any("error", err))
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

func parseRunID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	runID, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		jsonError(w, "invalid run id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return runID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger logs incoming requests.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
