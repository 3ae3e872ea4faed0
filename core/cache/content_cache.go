package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/tristendillon/dashc/core/logger"
)

// ContentEntry is the last seen state of one file
type ContentEntry struct {
	FilePath    string    `json:"file_path"`
	ContentHash string    `json:"content_hash"`
	ModTime     time.Time `json:"mod_time"`
	Size        int64     `json:"size"`
}

type CacheMetrics struct {
	Hits         int64   `json:"hits"`
	Misses       int64   `json:"misses"`
	TotalEntries int     `json:"total_entries"`
	HitRate      float64 `json:"hit_rate"`
}

func (m *CacheMetrics) CalculateHitRate() {
	total := m.Hits + m.Misses
	if total > 0 {
		m.HitRate = float64(m.Hits) / float64(total) * 100
	} else {
		m.HitRate = 0
	}
}

// ContentCache tells real edits apart from events that leave a file's
// bytes untouched (chmod, touch, editor swap files being renamed back)
type ContentCache struct {
	entries map[string]*ContentEntry
	mutex   sync.RWMutex
	metrics CacheMetrics
}

func NewContentCache() *ContentCache {
	return &ContentCache{
		entries: make(map[string]*ContentEntry),
	}
}

// UpdateContent records the current state of filePath and reports whether
// its content differs from the last recorded state. New and deleted files
// count as changed.
func (cc *ContentCache) UpdateContent(filePath string) (bool, error) {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	stat, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			if _, exists := cc.entries[filePath]; exists {
				logger.Debug("ContentCache: File deleted: %s", filePath)
				delete(cc.entries, filePath)
				return true, nil
			}
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}
	if stat.IsDir() {
		return false, nil
	}

	existing, exists := cc.entries[filePath]
	if !exists {
		logger.Debug("ContentCache: New file detected: %s", filePath)
		cc.metrics.Misses++
		hash, err := calculateFileHash(filePath)
		if err != nil {
			return false, fmt.Errorf("failed to calculate hash for %s: %w", filePath, err)
		}
		cc.entries[filePath] = &ContentEntry{FilePath: filePath, ContentHash: hash, ModTime: stat.ModTime(), Size: stat.Size()}
		return true, nil
	}

	if stat.Size() == existing.Size && stat.ModTime().Equal(existing.ModTime) {
		cc.metrics.Hits++
		return false, nil
	}

	newHash, err := calculateFileHash(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to calculate hash for %s: %w", filePath, err)
	}

	existing.ModTime = stat.ModTime()
	existing.Size = stat.Size()
	if newHash != existing.ContentHash {
		logger.Debug("ContentCache: Content changed for %s (hash: %s -> %s)", filePath, existing.ContentHash[:8], newHash[:8])
		existing.ContentHash = newHash
		cc.metrics.Misses++
		return true, nil
	}

	logger.Debug("ContentCache: Metadata changed but content same for %s", filePath)
	cc.metrics.Hits++
	return false, nil
}

// Seed records the current state of paths
func (cc *ContentCache) Seed(paths []string) error {
	for _, p := range paths {
		if _, err := cc.UpdateContent(p); err != nil {
			return err
		}
	}
	return nil
}

func (cc *ContentCache) GetContent(filePath string) (*ContentEntry, bool) {
	cc.mutex.RLock()
	defer cc.mutex.RUnlock()

	entry, exists := cc.entries[filePath]
	return entry, exists
}

// RemoveContent forgets filePath and every entry below it
func (cc *ContentCache) RemoveContent(filePath string) {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	prefix := filePath + string(os.PathSeparator)
	for p := range cc.entries {
		if p == filePath || len(p) > len(prefix) && p[:len(prefix)] == prefix {
			delete(cc.entries, p)
			logger.Debug("ContentCache: Removed entry for %s", p)
		}
	}
}

func (cc *ContentCache) GetMetrics() CacheMetrics {
	cc.mutex.RLock()
	defer cc.mutex.RUnlock()

	metrics := cc.metrics
	metrics.TotalEntries = len(cc.entries)
	metrics.CalculateHitRate()
	return metrics
}

func (cc *ContentCache) LogStats() {
	metrics := cc.GetMetrics()
	logger.Debug("Cache stats: Hits=%d, Misses=%d, Hit Rate=%.1f%%, Total Entries=%d",
		metrics.Hits, metrics.Misses, metrics.HitRate, metrics.TotalEntries)
}

func (cc *ContentCache) Clear() {
	cc.mutex.Lock()
	defer cc.mutex.Unlock()

	cc.entries = make(map[string]*ContentEntry)
	cc.metrics = CacheMetrics{}
	logger.Debug("ContentCache: Cleared all entries")
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
