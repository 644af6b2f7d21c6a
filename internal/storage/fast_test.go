// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBlobCache_PutGetRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fast")
	c, err := NewFileBlobCache(dir, 0)
	require.NoError(t, err)

	_, err = c.Get("chat-history")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Put("chat-history", []byte(`[1]`)))
	got, err := c.Get("chat-history")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	_, err = os.Stat(filepath.Join(dir, "chat-history.json"))
	assert.NoError(t, err)

	require.NoError(t, c.Remove("chat-history"))
	_, err = c.Get("chat-history")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, c.Remove("chat-history"), "removing a missing key")
}

func TestFileBlobCache_Quota(t *testing.T) {
	c, err := NewFileBlobCache(t.TempDir(), 10)
	require.NoError(t, err)

	require.NoError(t, c.Put("a", []byte("123456")))
	// Replacing a key does not count its old value.
	require.NoError(t, c.Put("a", []byte("1234567890")))

	err = c.Put("a", []byte("12345678901"))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	got, err := c.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", string(got), "failed put leaves the old value")

	// Other keys share the budget.
	assert.ErrorIs(t, c.Put("b", []byte("x")), ErrCapacityExceeded)

	used, err := c.Usage()
	require.NoError(t, err)
	assert.Equal(t, int64(10), used)
}

func TestFileBlobCache_InvalidKey(t *testing.T) {
	c, err := NewFileBlobCache(t.TempDir(), 0)
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		assert.ErrorIs(t, c.Put(key, []byte("x")), ErrInvalidKey, "key %q", key)
		_, err := c.Get(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestMemoryBlobCache(t *testing.T) {
	c := NewMemoryBlobCache(8)

	_, err := c.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Put("k", []byte("abcd")))
	assert.True(t, c.Has("k"))
	assert.ErrorIs(t, c.Put("other", []byte("abcdefg")), ErrCapacityExceeded)
	require.NoError(t, c.Put("k", []byte("abcdefgh")))

	got, err := c.Get("k")
	require.NoError(t, err)
	got[0] = 'X'
	again, _ := c.Get("k")
	assert.Equal(t, "abcdefgh", string(again), "Get returns a copy")

	require.NoError(t, c.Remove("k"))
	assert.False(t, c.Has("k"))
}
