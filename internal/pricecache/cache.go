// Package pricecache is an accumulate-only, on-disk cache for raw upstream
// price payloads. It is shared between concurrent invocations of the tool, so
// every key is guarded by its own cross-process advisory lock. The cache is a
// pure optimization: any failure, on either path, behaves as a miss.
package pricecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 100 * time.Millisecond

// Key identifies one cached fetch range. Keys map 1:1 to files on disk, so
// two processes working on disjoint ranges never contend.
type Key struct {
	Source      string
	Product     string
	Start       int64
	End         int64
	Granularity int
}

func (k Key) filename() string {
	return fmt.Sprintf("%s_%s_%d_%d_%d.json", k.Source, k.Product, k.Start, k.End, k.Granularity)
}

// Cache stores one raw payload file per key under a single directory, with a
// sibling ".lock" file per key used for inter-process mutual exclusion.
type Cache struct {
	dir         string
	lockTimeout time.Duration
}

// DefaultDir returns the per-user cache directory for this tool and creates
// it if needed. A pre-existing directory is not an error.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "market-maker-stats"), nil
}

// New opens a cache rooted at dir, creating the directory if needed.
func New(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir, lockTimeout: 30 * time.Second}, nil
}

// Read returns the payload stored for key, or ok=false on a miss. A missing
// file, a corrupt payload and a lock acquisition failure all count as misses.
func (c *Cache) Read(key Key) ([]byte, bool) {
	path := filepath.Join(c.dir, key.filename())

	unlock, ok := c.lock(path)
	if !ok {
		return nil, false
	}
	defer unlock()

	payload, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] price cache read %s: %v", key.filename(), err)
		}
		return nil, false
	}
	if !json.Valid(payload) {
		log.Printf("[WARN] price cache %s holds a corrupt payload, ignoring", key.filename())
		return nil, false
	}
	return payload, true
}

// Write stores the raw payload for key. Best effort: failures are logged and
// swallowed, the caller has already got the data from upstream.
func (c *Cache) Write(key Key, payload []byte) {
	path := filepath.Join(c.dir, key.filename())

	unlock, ok := c.lock(path)
	if !ok {
		return
	}
	defer unlock()

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		log.Printf("[WARN] price cache write %s: %v", key.filename(), err)
	}
}

// lock takes the per-key advisory lock. The lock is cooperative: when it
// cannot be acquired within the timeout the caller proceeds without the
// cache instead of blocking the run.
func (c *Cache) lock(path string) (func(), bool) {
	fl := flock.New(path + ".lock")

	ctx, cancel := context.WithTimeout(context.Background(), c.lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		log.Printf("[WARN] price cache lock %s not acquired, skipping cache: %v", filepath.Base(path), err)
		return nil, false
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			log.Printf("[WARN] price cache unlock %s: %v", filepath.Base(path), err)
		}
	}, true
}
