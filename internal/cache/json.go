// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
)

const (
	// DefaultTTL is how long entries stay valid unless configured otherwise.
	DefaultTTL = 24 * time.Hour

	dirPerm  = 0o750
	filePerm = 0o640
)

// ErrInvalidKey is returned for keys that cannot be used as file names.
var ErrInvalidKey = errors.New("invalid cache key")

type (
	// Entry is a cached latest-version lookup.
	// Date uses the YYYY-MM-DD layout; Updated is a unix timestamp set on write.
	Entry struct {
		Version string `json:"version"`
		Date    string `json:"date,omitempty"`
		Updated int64  `json:"updated"`
	}

	// Store reads and writes cache entries. Reads never fail: every problem is a miss.
	Store interface {
		Read(key string) (Entry, bool)
		Write(key string, entry Entry)
		Clear() error
	}

	// JSONCache stores one JSON file per key below a directory, fronted by an
	// in-memory layer for the life of the process.
	JSONCache struct {
		fs     afero.Fs
		dir    string
		ttl    time.Duration
		now    func() time.Time
		memory Manager[string, Entry]
		logger *log.Logger
	}

	// Option configures a JSONCache during construction.
	Option func(*JSONCache)

	// Usage summarizes what is stored on disk.
	Usage struct {
		Entries int
		Bytes   int64
	}
)

// WithTTL sets how long entries stay valid. Non-positive values keep the default.
func WithTTL(ttl time.Duration) Option {
	return func(c *JSONCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *JSONCache) {
		c.now = now
	}
}

// WithLogger sets the logger receiving debug output about misses and failures.
func WithLogger(logger *log.Logger) Option {
	return func(c *JSONCache) {
		c.logger = logger
	}
}

// WithMemory replaces the in-memory layer.
func WithMemory(m Manager[string, Entry]) Option {
	return func(c *JSONCache) {
		c.memory = m
	}
}

// NewJSONCache creates a cache storing files in dir on fsys.
func NewJSONCache(fsys afero.Fs, dir string, opts ...Option) *JSONCache {
	c := &JSONCache{
		fs:     fsys,
		dir:    dir,
		ttl:    DefaultTTL,
		now:    time.Now,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.memory == nil {
		c.memory = NewInMemoryManager[string, Entry](c.ttl, DefaultCleanupInterval)
	}
	return c
}

// Dir returns the directory holding the cache files.
func (c *JSONCache) Dir() string { return c.dir }

// TTL returns how long entries stay valid.
func (c *JSONCache) TTL() time.Duration { return c.ttl }

// Read returns the entry stored under key if it exists and has not expired.
func (c *JSONCache) Read(key string) (Entry, bool) {
	if e, ok := c.memory.Get(key); ok && c.valid(e) {
		return e, true
	}

	path, err := c.path(key)
	if err != nil {
		c.logger.Debug("cache read skipped", "key", key, "err", err)
		return Entry{}, false
	}
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("cache read failed", "key", key, "err", err)
		}
		return Entry{}, false
	}

	var e Entry
	if err := jsoniter.Unmarshal(data, &e); err != nil {
		c.logger.Debug("cache entry unreadable", "key", key, "err", err)
		return Entry{}, false
	}
	if !c.valid(e) {
		c.logger.Debug("cache entry expired", "key", key)
		return Entry{}, false
	}

	if remaining := c.remaining(e); remaining > 0 {
		c.memory.Set(key, e, remaining)
	}
	return e, true
}

// Write stores entry under key, stamping it with the current time. Failures are logged and ignored.
func (c *JSONCache) Write(key string, entry Entry) {
	entry.Updated = c.now().Unix()
	c.memory.Set(key, entry, c.ttl)

	if err := c.writeFile(key, entry); err != nil {
		c.logger.Debug("cache write failed", "key", key, "err", err)
	}
}

func (c *JSONCache) writeFile(key string, entry Entry) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	data, err := jsoniter.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	if err := c.fs.MkdirAll(c.dir, dirPerm); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := afero.WriteFile(c.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return nil
}

// Clear deletes the cache directory and every in-memory entry.
func (c *JSONCache) Clear() error {
	c.memory.Flush()
	if err := c.fs.RemoveAll(c.dir); err != nil {
		return fmt.Errorf("removing cache directory %s: %w", c.dir, err)
	}
	return nil
}

// Usage reports the number and total size of cache files on disk.
func (c *JSONCache) Usage() (Usage, error) {
	var u Usage
	exists, err := afero.DirExists(c.fs, c.dir)
	if err != nil || !exists {
		return u, err
	}
	err = afero.Walk(c.fs, c.dir, func(_ string, info fs.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.Mode().IsRegular() {
			u.Entries++
			u.Bytes += info.Size()
		}
		return nil
	})
	if err != nil {
		return Usage{}, fmt.Errorf("scanning cache directory %s: %w", c.dir, err)
	}
	return u, nil
}

func (c *JSONCache) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("%w %q", ErrInvalidKey, key)
	}
	return filepath.Join(c.dir, key), nil
}

func (c *JSONCache) valid(e Entry) bool {
	return c.remaining(e) >= 0
}

func (c *JSONCache) remaining(e Entry) time.Duration {
	expires := time.Unix(e.Updated, 0).Add(c.ttl)
	return expires.Sub(c.now())
}
