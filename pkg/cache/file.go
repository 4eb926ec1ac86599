package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// entryMagic starts every file written by [FileCache].
var entryMagic = []byte("FCE1")

// headerLen is the magic plus an 8-byte expiry in Unix nanoseconds (0 = never).
const headerLen = 12

// FileCache stores rendered diagrams on disk for the CLI, so repeated
// renders of an unchanged file survive between invocations.
//
// Entries live under dir/<hh>/<rest-of-hash>, where the hash is the SHA-256
// of the key. Writes go to a temp file that is renamed into place, so a
// concurrent reader sees either the old entry or the new one.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in dir, creating it if needed.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Get returns the entry for key. Expired and unreadable entries are removed
// and reported as misses.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	data, expires, ok := decodeEntry(raw)
	if !ok || (!expires.IsZero() && time.Now().After(expires)) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores data under key. A ttl <= 0 never expires.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(encodeEntry(data, expires)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete removes the entry for key. A missing entry is not an error.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Clear removes every entry but keeps the cache directory.
func (c *FileCache) Clear() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

// Close is a no-op.
func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(c.dir, h[:2], h[2:])
}

func encodeEntry(data []byte, expires time.Time) []byte {
	buf := make([]byte, headerLen, headerLen+len(data))
	copy(buf, entryMagic)
	if !expires.IsZero() {
		binary.BigEndian.PutUint64(buf[len(entryMagic):], uint64(expires.UnixNano()))
	}
	return append(buf, data...)
}

func decodeEntry(raw []byte) (data []byte, expires time.Time, ok bool) {
	if len(raw) < headerLen || !bytes.Equal(raw[:len(entryMagic)], entryMagic) {
		return nil, time.Time{}, false
	}
	if ns := binary.BigEndian.Uint64(raw[len(entryMagic):headerLen]); ns != 0 {
		expires = time.Unix(0, int64(ns))
	}
	return raw[headerLen:], expires, true
}

var _ Cache = (*FileCache)(nil)
