package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tristendillon/dashc/core/cache"
	"github.com/tristendillon/dashc/core/logger"
	"github.com/tristendillon/dashc/core/models"
)

type FileWatcher interface {
	Watch(ctx context.Context) error
	Close() error
}

// FileWatcherImpl repackages a source tree whenever its content changes.
// Bursts of events are collapsed into one OnChange call.
type FileWatcherImpl struct {
	FileWatcher *models.FileWatcher
	Content     *cache.ContentCache

	// changeMu serializes OnChange calls: a slow repackage may outlive the
	// debounce window
	changeMu sync.Mutex
}

func NewFileWatcher(rootDir string, excludePaths []string) (*FileWatcherImpl, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	fw, err := models.NewFileWatcher(absRoot, excludePaths)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &FileWatcherImpl{
		FileWatcher: fw,
		Content:     cache.NewContentCache(),
	}, nil
}

// Watch blocks until ctx is cancelled or the underlying watcher fails
func (fw *FileWatcherImpl) Watch(ctx context.Context) error {
	if err := fw.addWatchersRecursively(fw.FileWatcher.RootDir); err != nil {
		return fmt.Errorf("failed to add watchers: %w", err)
	}
	fw.Content.LogStats()

	if err := fw.FileWatcher.OnStart(); err != nil {
		logger.Error("Watcher.OnStart failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.FileWatcher.Watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if fw.shouldExcludePath(event.Name) {
				continue
			}
			logger.Debug("File event: %s %s", event.Op, event.Name)

			if fw.handleEvent(event) {
				fw.debounceGenerate()
			}

		case err, ok := <-fw.FileWatcher.Watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			logger.Error("Watcher error: %v", err)
		}
	}
}

// handleEvent updates watches and the content cache and reports whether
// the tree needs repackaging
func (fw *FileWatcherImpl) handleEvent(event fsnotify.Event) bool {
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		fw.Content.RemoveContent(event.Name)
		return true
	}

	if event.Has(fsnotify.Create) {
		if stat, err := os.Stat(event.Name); err == nil && stat.IsDir() {
			logger.Debug("Adding watcher for new directory: %s", event.Name)
			if err := fw.addWatchersRecursively(event.Name); err != nil {
				logger.Error("Failed to watch %s: %v", event.Name, err)
			}
			return true
		}
	}

	changed, err := fw.Content.UpdateContent(event.Name)
	if err != nil {
		logger.Debug("Content check failed for %s: %v", event.Name, err)
		return true
	}
	if !changed {
		logger.Debug("Content unchanged, ignoring: %s", event.Name)
	}
	return changed
}

func (fw *FileWatcherImpl) debounceGenerate() {
	fw.FileWatcher.Mutex.Lock()
	defer fw.FileWatcher.Mutex.Unlock()

	if fw.FileWatcher.DebounceTimer != nil {
		fw.FileWatcher.DebounceTimer.Stop()
	}

	fw.FileWatcher.DebounceTimer = time.AfterFunc(fw.FileWatcher.Debounce, fw.runOnChange)
}

func (fw *FileWatcherImpl) runOnChange() {
	fw.changeMu.Lock()
	defer fw.changeMu.Unlock()

	logger.Debug("File changes detected, repackaging...")
	if err := fw.FileWatcher.OnChange(); err != nil {
		logger.Error("Watcher.OnChange failed: %v", err)
	}
}

func (fw *FileWatcherImpl) Close() error {
	fw.FileWatcher.Mutex.Lock()
	defer fw.FileWatcher.Mutex.Unlock()

	if fw.FileWatcher.DebounceTimer != nil {
		fw.FileWatcher.DebounceTimer.Stop()
	}

	if err := fw.FileWatcher.OnClose(); err != nil {
		logger.Error("Watcher.OnClose failed: %v", err)
	}

	return fw.FileWatcher.Watcher.Close()
}

// shouldExcludePath skips hidden entries, anything under an excluded
// directory name and the excluded relative paths themselves
func (fw *FileWatcherImpl) shouldExcludePath(path string) bool {
	relPath, err := filepath.Rel(fw.FileWatcher.RootDir, path)
	if err != nil {
		return false
	}
	relPath = filepath.ToSlash(filepath.Clean(relPath))
	if relPath == "." {
		return false
	}

	segments := strings.Split(relPath, "/")
	for _, segment := range segments {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}

	for _, excludePath := range fw.FileWatcher.ExcludePaths {
		excludePath = strings.Trim(filepath.ToSlash(filepath.Clean(excludePath)), "/")
		if excludePath == "" || excludePath == "." {
			continue
		}
		if relPath == excludePath || strings.HasPrefix(relPath, excludePath+"/") {
			return true
		}
		for _, segment := range segments {
			if segment == excludePath {
				return true
			}
		}
	}

	return false
}

func (fw *FileWatcherImpl) addWatchersRecursively(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if fw.shouldExcludePath(path) {
			if d.IsDir() {
				logger.Debug("Excluding directory: %s", path)
				return filepath.SkipDir
			}
			return nil
		}

		if !d.IsDir() {
			_, err := fw.Content.UpdateContent(path)
			return err
		}

		logger.Debug("Adding watcher for: %s", path)
		if err := fw.FileWatcher.Watcher.Add(path); err != nil {
			return fmt.Errorf("failed to add watcher for %s: %w", path, err)
		}

		return nil
	})
}
