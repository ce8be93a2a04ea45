package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type collector struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (c *collector) handle(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, path)
	return c.err
}

func (c *collector) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func newTestWatcher(t *testing.T, c *collector) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := New(dir, c.handle, nil)
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)
	return w, dir
}

func TestWatcher_ProcessesNewExportOnce(t *testing.T) {
	c := &collector{}
	w, dir := newTestWatcher(t, c)
	w.Start(context.Background())
	defer w.Stop()

	path := filepath.Join(dir, "general_2024-11-13.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"date":`), 0o644))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString(`"2024-11-13"}`)
	f.Close()

	require.Eventually(t, func() bool { return len(c.seen()) == 1 }, 3*time.Second, 20*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{path}, c.seen(), "rapid writes should be debounced into one call")
	assert.Equal(t, 1, w.Stats().Processed)
	assert.Equal(t, path, w.Stats().LastEventPath)
}

func TestWatcher_IgnoresNonJSON(t *testing.T) {
	c := &collector{}
	w, dir := newTestWatcher(t, c)
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte("{}"), 0o644))

	require.Eventually(t, func() bool { return len(c.seen()) == 1 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, filepath.Join(dir, "b.json"), c.seen()[0])
}

func TestWatcher_CountsHandlerErrors(t *testing.T) {
	c := &collector{err: errors.New("analyze failed")}
	w, dir := newTestWatcher(t, c)
	w.Start(context.Background())
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte("{}"), 0o644))
	require.Eventually(t, func() bool { return w.Stats().Errors == 1 }, 3*time.Second, 20*time.Millisecond)
	assert.Zero(t, w.Stats().Processed)
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	c := &collector{}
	w, _ := newTestWatcher(t, c)
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	w.Start(ctx) // second start is a no-op

	cancel()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after context cancel")
	}
	w.Stop()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, _ := newTestWatcher(t, &collector{})
	w.Stop()
}

func TestNew_MissingDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), (&collector{}).handle, nil)
	assert.Error(t, err)
}
