package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_SignalsOnConfigWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_url: http://localhost:8000\n"), 0600))

	w, err := NewWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(path, []byte("backend_url: http://localhost:9000\n"), 0600))

	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change signal after config write")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend_url: http://localhost:8000\n"), 0600))

	w, err := NewWatcher(path, 50*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0600))

	select {
	case <-w.Changes():
		t.Fatal("unexpected change signal for a sibling file")
	case <-time.After(300 * time.Millisecond):
	}
}
