// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"crmngr-cli/internal/testutil"
)

const testKey = "3f0a9c"

func newTestCache(t *testing.T, opts ...Option) (*JSONCache, afero.Fs, *testutil.FakeClock) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	clk := testutil.NewFakeClock(time.Unix(1_700_000_000, 0))
	opts = append([]Option{WithClock(clk.Now), WithTTL(time.Hour)}, opts...)
	return NewJSONCache(fsys, "/home/op/.crmngr/cache", opts...), fsys, clk
}

func TestJSONCache_WriteRead(t *testing.T) {
	t.Parallel()

	c, fsys, clk := newTestCache(t)
	c.Write(testKey, Entry{Version: "4.20.0", Date: "2017-08-01"})

	got, ok := c.Read(testKey)
	require.True(t, ok)
	require.Equal(t, Entry{Version: "4.20.0", Date: "2017-08-01", Updated: clk.Now().Unix()}, got)

	data, err := afero.ReadFile(fsys, filepath.Join(c.Dir(), testKey))
	require.NoError(t, err)
	require.JSONEq(t, `{"version":"4.20.0","date":"2017-08-01","updated":1700000000}`, string(data))
}

func TestJSONCache_ReadsFilesWrittenEarlier(t *testing.T) {
	t.Parallel()

	c, fsys, _ := newTestCache(t)
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(c.Dir(), testKey),
		[]byte(`{"version":"1.0.0","date":"2020-01-01","updated":1699999000}`), 0o640))

	got, ok := c.Read(testKey)
	require.True(t, ok)
	require.Equal(t, "1.0.0", got.Version)
}

func TestJSONCache_Expiry(t *testing.T) {
	t.Parallel()

	c, _, clk := newTestCache(t)
	c.Write(testKey, Entry{Version: "1.0.0"})

	clk.Advance(time.Hour)
	_, ok := c.Read(testKey)
	require.True(t, ok, "entry is valid up to and including its ttl")

	clk.Advance(time.Second)
	_, ok = c.Read(testKey)
	require.False(t, ok, "entry past its ttl is a miss")
}

func TestJSONCache_BoundaryEntryNotKeptInMemory(t *testing.T) {
	t.Parallel()

	c, fsys, _ := newTestCache(t)
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(c.Dir(), testKey),
		[]byte(`{"version":"1.0.0","updated":1699996400}`), 0o640))

	_, ok := c.Read(testKey)
	require.True(t, ok, "entry at its ttl is still valid")

	_, inMemory := c.memory.Get(testKey)
	require.False(t, inMemory, "entry without remaining lifetime must not be cached in memory")
}

func TestJSONCache_FailsSilently(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		c, _, _ := newTestCache(t)
		_, ok := c.Read("absent")
		require.False(t, ok)
	})

	t.Run("corrupt", func(t *testing.T) {
		t.Parallel()
		c, fsys, _ := newTestCache(t)
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(c.Dir(), testKey), []byte("{oops"), 0o640))
		_, ok := c.Read(testKey)
		require.False(t, ok)
	})

	t.Run("invalid_key", func(t *testing.T) {
		t.Parallel()
		c, _, _ := newTestCache(t)
		c.Write("../escape", Entry{Version: "1"})
		_, ok := c.Read("../other")
		require.False(t, ok)
	})

	t.Run("read_only_fs", func(t *testing.T) {
		t.Parallel()
		fsys := afero.NewReadOnlyFs(afero.NewMemMapFs())
		c := NewJSONCache(fsys, "/cache")
		require.NotPanics(t, func() { c.Write(testKey, Entry{Version: "1"}) })

		got, ok := c.Read(testKey)
		require.True(t, ok, "memory layer still serves the entry")
		require.Equal(t, "1", got.Version)
	})
}

func TestJSONCache_ClearAndUsage(t *testing.T) {
	t.Parallel()

	c, _, _ := newTestCache(t)

	usage, err := c.Usage()
	require.NoError(t, err)
	require.Equal(t, Usage{}, usage)

	c.Write("a", Entry{Version: "1"})
	c.Write("b", Entry{Version: "2"})

	usage, err = c.Usage()
	require.NoError(t, err)
	require.Equal(t, 2, usage.Entries)
	require.Positive(t, usage.Bytes)

	require.NoError(t, c.Clear())
	_, ok := c.Read("a")
	require.False(t, ok)

	usage, err = c.Usage()
	require.NoError(t, err)
	require.Zero(t, usage.Entries)
}

func TestInMemoryManager(t *testing.T) {
	t.Parallel()

	m := NewInMemoryManager[string, Entry](time.Minute, DefaultCleanupInterval)
	m.Set("k", Entry{Version: "1"}, time.Minute)

	got, ok := m.Get("k")
	require.True(t, ok)
	require.Equal(t, "1", got.Version)

	m.Delete("k")
	_, ok = m.Get("k")
	require.False(t, ok)

	m.Set("k", Entry{Version: "2"}, time.Minute)
	m.Flush()
	_, ok = m.Get("k")
	require.False(t, ok)
}
