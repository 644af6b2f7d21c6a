// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/chatvault/internal/util"
)

// DefaultFastKey is the single key the chat history blob lives under.
const DefaultFastKey = "chat-history"

// DefaultFastQuota is the fast tier byte budget (5MB).
const DefaultFastQuota = 5 * 1024 * 1024

const blobExt = ".json"

// BlobCache is a small synchronous key/value store for whole blobs. Put must
// leave the previous value intact when it fails.
type BlobCache interface {
	// Get returns the blob for key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put stores data under key, or fails with ErrCapacityExceeded when the
	// quota would be exceeded.
	Put(key string, data []byte) error

	// Remove deletes key. A missing key is not an error.
	Remove(key string) error
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// =============================================================================
// FILE BLOB CACHE
// =============================================================================

// FileBlobCache keeps each key in its own file under a directory. The quota
// covers the combined size of every blob in the directory.
type FileBlobCache struct {
	dir   string
	quota int64 // <= 0 means unlimited
	mu    sync.Mutex
}

// NewFileBlobCache creates the directory if needed.
func NewFileBlobCache(dir string, quota int64) (*FileBlobCache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create fast tier directory: %w", err)
	}
	return &FileBlobCache{dir: dir, quota: quota}, nil
}

func (c *FileBlobCache) path(key string) string {
	return filepath.Join(c.dir, key+blobExt)
}

// Get implements BlobCache.
func (c *FileBlobCache) Get(key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

// Put implements BlobCache.
func (c *FileBlobCache) Put(key string, data []byte) error {
	if err := validKey(key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quota > 0 {
		used, err := c.usedExcept(key)
		if err != nil {
			return err
		}
		if used+int64(len(data)) > c.quota {
			return fmt.Errorf("%w: %d bytes requested, %d of %d in use",
				ErrCapacityExceeded, len(data), used, c.quota)
		}
	}
	return util.AtomicWriteFile(c.path(key), data, 0600)
}

// Remove implements BlobCache.
func (c *FileBlobCache) Remove(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return util.RemoveFile(c.path(key))
}

// Usage returns the bytes currently stored.
func (c *FileBlobCache) Usage() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usedExcept("")
}

func (c *FileBlobCache) usedExcept(key string) (int64, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, fmt.Errorf("read fast tier directory: %w", err)
	}
	skip := key + blobExt
	var used int64
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, blobExt) || name == skip {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		used += info.Size()
	}
	return used, nil
}

// =============================================================================
// MEMORY BLOB CACHE
// =============================================================================

// MemoryBlobCache is an in-process BlobCache.
type MemoryBlobCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	quota int64
}

// NewMemoryBlobCache creates an empty cache. A quota <= 0 means unlimited.
func NewMemoryBlobCache(quota int64) *MemoryBlobCache {
	return &MemoryBlobCache{data: make(map[string][]byte), quota: quota}
}

// Get implements BlobCache.
func (c *MemoryBlobCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return append([]byte(nil), data...), nil
}

// Put implements BlobCache.
func (c *MemoryBlobCache) Put(key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.quota > 0 {
		var used int64
		for k, v := range c.data {
			if k != key {
				used += int64(len(v))
			}
		}
		if used+int64(len(data)) > c.quota {
			return fmt.Errorf("%w: %d bytes requested, %d of %d in use",
				ErrCapacityExceeded, len(data), used, c.quota)
		}
	}
	c.data[key] = append([]byte(nil), data...)
	return nil
}

// Remove implements BlobCache.
func (c *MemoryBlobCache) Remove(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// Has reports whether key is present.
func (c *MemoryBlobCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
