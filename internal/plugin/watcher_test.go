package plugin

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	watched := writeScript(t, dir, "watched.lua", "-- v1")
	other := writeScript(t, dir, "other.lua", "-- v1")

	changed := make(chan string, 4)
	w, err := NewWatcher(func(path string) { changed <- path }, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, w.Add(watched))
	require.NoError(t, w.Add(watched))
	assert.Len(t, w.Watched(), 1)

	require.NoError(t, os.WriteFile(other, []byte("-- v2"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("-- v2"), 0o644))
	require.NoError(t, os.WriteFile(watched, []byte("-- v3"), 0o644))

	abs, err := filepath.Abs(watched)
	require.NoError(t, err)

	select {
	case got := <-changed:
		assert.Equal(t, abs, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case got := <-changed:
		t.Fatalf("unexpected extra change for %s", got)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := NewWatcher(func(string) {})
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	err = w.Add(filepath.Join(t.TempDir(), "x.lua"))
	assert.ErrorIs(t, err, ErrWatcherClosed)
}
