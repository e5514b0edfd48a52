// SPDX-License-Identifier: MPL-2.0

package latest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"crmngr-cli/internal/cache"
	"crmngr-cli/pkg/puppetfile"
)

type (
	fakeRegistry struct {
		calls int
		v     puppetfile.Version
		err   error
	}

	fakeTags struct {
		calls int
		v     puppetfile.Version
		err   error
	}
)

func (f *fakeRegistry) CurrentVersion(context.Context, string, string) (puppetfile.Version, error) {
	f.calls++
	return f.v, f.err
}

func (f *fakeTags) LatestTag(context.Context, string) (puppetfile.Version, error) {
	f.calls++
	return f.v, f.err
}

var released = time.Date(2017, time.August, 1, 0, 0, 0, 0, time.UTC)

func newStore() cache.Store {
	return cache.NewJSONCache(afero.NewMemMapFs(), "/cache")
}

func TestSource_RegistryReadsThroughCache(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{v: puppetfile.Registry("4.20.0").WithDate(released)}
	store := newStore()
	src := NewSource(reg, &fakeTags{}, store)
	mod := puppetfile.MustRegistryModule("stdlib", "puppetlabs", nil)

	first, err := src.Latest(context.Background(), mod)
	require.NoError(t, err)
	require.Equal(t, "4.20.0 (2017-08-01)", first.Report())

	second, err := src.Latest(context.Background(), mod)
	require.NoError(t, err)
	require.True(t, first.Equal(second))
	require.Equal(t, puppetfile.KindRegistry, second.Kind)
	require.Equal(t, 1, reg.calls, "second lookup is served from the cache")

	entry, ok := store.Read(mod.CacheKey())
	require.True(t, ok)
	require.Equal(t, "2017-08-01", entry.Date)
}

func TestSource_GitUsesLatestTag(t *testing.T) {
	t.Parallel()

	tags := &fakeTags{v: puppetfile.Tag("v1.1.0").WithDate(released)}
	src := NewSource(&fakeRegistry{}, tags, newStore())
	mod := puppetfile.MustRepositoryModule("apache", "https://git.example.com/apache.git", nil)

	for range 2 {
		got, err := src.Latest(context.Background(), mod)
		require.NoError(t, err)
		require.Equal(t, puppetfile.KindTag, got.Kind)
		require.Equal(t, "v1.1.0", got.Value)
		require.True(t, got.Date.Equal(released))
	}
	require.Equal(t, 1, tags.calls)
}

func TestSource_FailuresAreNotCached(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	reg := &fakeRegistry{err: boom}
	src := NewSource(reg, &fakeTags{}, newStore())
	mod := puppetfile.MustRegistryModule("stdlib", "puppetlabs", nil)

	got, err := src.Latest(context.Background(), mod)
	require.ErrorIs(t, err, boom)
	require.Equal(t, puppetfile.KindUnknown, got.Kind)

	reg.err = nil
	reg.v = puppetfile.Registry("5.0.0")
	got, err = src.Latest(context.Background(), mod)
	require.NoError(t, err)
	require.Equal(t, "5.0.0", got.Value)
	require.Equal(t, 2, reg.calls)
}

func TestSource_NilStore(t *testing.T) {
	t.Parallel()

	reg := &fakeRegistry{v: puppetfile.Registry("1.0.0")}
	src := NewSource(reg, &fakeTags{}, nil)
	mod := puppetfile.MustRegistryModule("stdlib", "puppetlabs", nil)

	for range 2 {
		_, err := src.Latest(context.Background(), mod)
		require.NoError(t, err)
	}
	require.Equal(t, 2, reg.calls)
}
