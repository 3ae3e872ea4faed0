package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldExcludePath(t *testing.T) {
	root := t.TempDir()
	fw, err := NewFileWatcher(root, []string{"__pycache__", "dist/run.sh", "build"})
	require.NoError(t, err)
	defer fw.Close()

	tests := []struct {
		rel  string
		want bool
	}{
		{"pkg/__init__.py", false},
		{"pkg/__pycache__/x.pyc", true},
		{".git/HEAD", true},
		{"pkg/.mod.py.swp", true},
		{"dist/run.sh", true},
		{"dist/other.sh", false},
		{"build/lib/a.py", true},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, fw.shouldExcludePath(filepath.Join(root, filepath.FromSlash(tt.rel))))
		})
	}
}

func TestHandleEventIgnoresUnchangedContent(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "mod.py")
	require.NoError(t, os.WriteFile(p, []byte("X = 1\n"), 0644))

	fw, err := NewFileWatcher(root, nil)
	require.NoError(t, err)
	defer fw.Close()
	require.NoError(t, fw.addWatchersRecursively(root))

	assert.False(t, fw.handleEvent(fsnotify.Event{Name: p, Op: fsnotify.Chmod}))

	require.NoError(t, os.WriteFile(p, []byte("X = 22\n"), 0644))
	assert.True(t, fw.handleEvent(fsnotify.Event{Name: p, Op: fsnotify.Write}))

	assert.True(t, fw.handleEvent(fsnotify.Event{Name: p, Op: fsnotify.Remove}))
}

func TestWatchDebouncesChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("print(1)\n"), 0644))

	fw, err := NewFileWatcher(root, nil)
	require.NoError(t, err)
	fw.FileWatcher.Debounce = 50 * time.Millisecond

	started := make(chan struct{})
	changes := make(chan struct{}, 10)
	fw.FileWatcher.AddOnStartFunc(func() error {
		close(started)
		return nil
	})
	fw.FileWatcher.AddOnChangeFunc(func() error {
		changes <- struct{}{}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Watch(ctx) }()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "main.py"), []byte("print("+string(rune('2'+i))+")\n"), 0644))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no repackage after change")
	}

	cancel()
	require.NoError(t, <-done)
	require.NoError(t, fw.Close())
}

func TestSlowChangesNeverOverlap(t *testing.T) {
	fw, err := NewFileWatcher(t.TempDir(), nil)
	require.NoError(t, err)
	defer fw.Close()

	var running, maxRunning, calls atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)
	fw.FileWatcher.AddOnChangeFunc(func() error {
		defer wg.Done()
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		running.Add(-1)
		calls.Add(1)
		return nil
	})

	for i := 0; i < 3; i++ {
		go fw.runOnChange()
	}
	wg.Wait()

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int32(1), maxRunning.Load())
}
