package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps one directory per run under basePath
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a new local filesystem store
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// NewWorkspace allocates a workspace for a new run
func (s *LocalStore) NewWorkspace(ctx context.Context) (Workspace, error) {
	runID := uuid.New()
	dir := filepath.Join(s.basePath, runID.String())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	return &LocalWorkspace{runID: runID, dir: dir}, nil
}

// Workspace reopens the workspace of an earlier run
func (s *LocalStore) Workspace(ctx context.Context, runID uuid.UUID) (Workspace, error) {
	dir := filepath.Join(s.basePath, runID.String())
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat run directory: %w", err)
	}
	return &LocalWorkspace{runID: runID, dir: dir}, nil
}

// LocalWorkspace implements Workspace on a directory
type LocalWorkspace struct {
	runID uuid.UUID
	dir   string
}

// RunID returns the owning run
func (w *LocalWorkspace) RunID() uuid.UUID {
	return w.runID
}

// Dir returns the workspace directory
func (w *LocalWorkspace) Dir() string {
	return w.dir
}

// Put stores an artifact
func (w *LocalWorkspace) Put(ctx context.Context, name string, r io.Reader) (*FileInfo, error) {
	safe := sanitizeFilename(name)
	if safe == "" {
		return nil, fmt.Errorf("invalid artifact name %q", name)
	}
	filePath := filepath.Join(w.dir, safe)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(filePath) // Cleanup on error
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return stat(filePath, safe)
}

// Open returns a reader for an artifact
func (w *LocalWorkspace) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(w.dir, sanitizeFilename(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("artifact %s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// List returns every artifact in the workspace
func (w *LocalWorkspace) List(ctx context.Context) ([]*FileInfo, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list run directory: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := stat(filepath.Join(w.dir, entry.Name()), entry.Name())
		if err != nil {
			return nil, err
		}
		files = append(files, info)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func stat(path, name string) (*FileInfo, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &FileInfo{
		Name:      name,
		Size:      fi.Size(),
		Path:      path,
		CreatedAt: fi.ModTime(),
	}, nil
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return strings.TrimSpace(replacer.Replace(name))
}
