package cron

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	seen []string
	fail map[string]bool
}

func (f *fakeProcessor) ProcessFile(_ context.Context, name string, _ []byte) error {
	f.seen = append(f.seen, name)
	if f.fail[name] {
		return errors.New("unreadable pdf")
	}
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunNow(t *testing.T) {
	inbox := t.TempDir()
	for _, name := range []string{"b.pdf", "a.PDF", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(inbox, name), []byte("%PDF"), 0o600))
	}

	proc := &fakeProcessor{fail: map[string]bool{"b.pdf": true}}
	s := NewScheduler("@every 1h", inbox, proc, discard())
	require.NoError(t, s.Start())
	defer s.Stop()

	processed, failed := s.RunNow(context.Background())
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"a.PDF", "b.pdf"}, proc.seen)

	assert.FileExists(t, filepath.Join(inbox, ProcessedDir, "a.PDF"))
	assert.FileExists(t, filepath.Join(inbox, FailedDir, "b.pdf"))
	assert.FileExists(t, filepath.Join(inbox, "notes.txt"))
	assert.NoFileExists(t, filepath.Join(inbox, "a.PDF"))
}

func TestScheduler_CancelledContext(t *testing.T) {
	inbox := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "a.pdf"), []byte("%PDF"), 0o600))

	proc := &fakeProcessor{}
	s := NewScheduler("@every 1h", inbox, proc, discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	processed, failed := s.RunNow(ctx)
	assert.Zero(t, processed+failed)
	assert.Empty(t, proc.seen)
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler("not a schedule", t.TempDir(), &fakeProcessor{}, discard())
	assert.Error(t, s.Start())
}
