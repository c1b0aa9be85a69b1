package store

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFileWatcherReloadsOnExternalWrite(t *testing.T) {
	dir := t.TempDir()

	kv, err := NewFileKV(dir)
	require.NoError(t, err)

	watcher, err := NewFileWatcher(kv, zerolog.Nop())
	require.NoError(t, err)
	defer watcher.Stop()

	reloaded := make(chan struct{}, 1)
	watcher.SetReloadCallback(func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})
	require.NoError(t, watcher.Start())

	// Simulate another process rewriting the flag file.
	other, err := NewFileKV(dir)
	require.NoError(t, err)
	require.NoError(t, other.Set("auth_token", "from-other-process"))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload after external write")
	}

	v, ok := kv.Get("auth_token")
	require.True(t, ok)
	require.Equal(t, "from-other-process", v)
}

func TestFileWatcherStopIsIdempotent(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	watcher, err := NewFileWatcher(kv, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, watcher.Start())

	watcher.Stop()
	watcher.Stop()
}
