package actions

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// bump when diskEntry changes shape
const diskCacheSchemaVersion uint16 = 1

// DiskCache хранит метаданные экшенов между запусками.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
	ttl time.Duration
	now func() time.Time
}

type diskEntry struct {
	Schema    uint16    `msgpack:"schema"`
	Key       string    `msgpack:"key"`
	FetchedAt int64     `msgpack:"fetched_at"` // unix seconds
	Missing   bool      `msgpack:"missing"`    // negative entry for ErrNotFound
	Meta      *Metadata `msgpack:"meta"`
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/<app>/actions,
// or under dir when dir is not empty.
func OpenDiskCache(app, dir string, ttl time.Duration) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, app, "actions")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir, ttl: ttl, now: time.Now}, nil
}

func (c *DiskCache) pathFor(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".mp")
}

// Put stores meta for key; a nil meta records that the action does not exist.
func (c *DiskCache) Put(key string, meta *Metadata) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return err
	}
	ok := false
	defer func() {
		if !ok {
			_ = f.Close()           //nolint:errcheck
			_ = os.Remove(f.Name()) //nolint:errcheck
		}
	}()

	entry := diskEntry{
		Schema:    diskCacheSchemaVersion,
		Key:       key,
		FetchedAt: c.now().Unix(),
		Missing:   meta == nil,
		Meta:      meta,
	}
	if err := msgpack.NewEncoder(f).Encode(&entry); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// атомарная замена
	if err := os.Rename(f.Name(), p); err != nil {
		return err
	}
	ok = true
	return nil
}

// Get returns the cached entry for key. found is false for missing, stale,
// foreign-schema or colliding entries; meta is nil for negative entries.
func (c *DiskCache) Get(key string) (meta *Metadata, found bool, err error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var entry diskEntry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return nil, false, err
	}
	if entry.Schema != diskCacheSchemaVersion || entry.Key != key {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().Sub(time.Unix(entry.FetchedAt, 0)) > c.ttl {
		return nil, false, nil
	}
	if entry.Missing {
		return nil, true, nil
	}
	return entry.Meta, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + c.now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
