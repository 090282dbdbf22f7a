// Package storage provides run-scoped artifact workspaces.
package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown runs and artifacts.
var ErrNotFound = errors.New("not found")

// FileInfo contains metadata about a stored artifact
type FileInfo struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Path      string    `json:"path"` // Location inside the store
	CreatedAt time.Time `json:"created_at"`
}

// Workspace is the artifact area of a single run.
type Workspace interface {
	// RunID identifies the run owning the workspace
	RunID() uuid.UUID

	// Put stores an artifact, replacing any previous one with the same name
	Put(ctx context.Context, name string, r io.Reader) (*FileInfo, error)

	// Open returns a reader for a stored artifact
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// List returns the artifacts of the run sorted by name
	List(ctx context.Context) ([]*FileInfo, error)
}

// Store creates and reopens workspaces.
type Store interface {
	NewWorkspace(ctx context.Context) (Workspace, error)
	Workspace(ctx context.Context, runID uuid.UUID) (Workspace, error)
}
