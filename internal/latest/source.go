// SPDX-License-Identifier: MPL-2.0

package latest

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"crmngr-cli/internal/cache"
	"crmngr-cli/pkg/puppetfile"
)

type (
	// RegistryLookup returns the current release of a Forge module.
	RegistryLookup interface {
		CurrentVersion(ctx context.Context, namespace, name string) (puppetfile.Version, error)
	}

	// TagLookup returns the newest tag of a git repository.
	TagLookup interface {
		LatestTag(ctx context.Context, url string) (puppetfile.Version, error)
	}

	// Source resolves the latest version of a module, reading through a cache.
	// Registry modules are looked up on the Forge and git modules by their newest tag.
	Source struct {
		registry RegistryLookup
		tags     TagLookup
		store    cache.Store
		logger   *log.Logger
	}

	// Option configures a Source during construction.
	Option func(*Source)
)

// WithLogger sets the logger receiving debug output about lookups.
func WithLogger(logger *log.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// NewSource creates a Source. A nil store disables caching.
func NewSource(registry RegistryLookup, tags TagLookup, store cache.Store, opts ...Option) *Source {
	s := &Source{
		registry: registry,
		tags:     tags,
		store:    store,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latest returns the newest available version of m. On failure it returns
// an unknown version together with the error; failures are never cached.
func (s *Source) Latest(ctx context.Context, m puppetfile.Module) (puppetfile.Version, error) {
	key := m.CacheKey()
	if v, ok := s.cached(key, m.Source()); ok {
		s.logger.Debug("latest version from cache", "module", m.Name(), "version", v.Report())
		return v, nil
	}

	var (
		v   puppetfile.Version
		err error
	)
	switch m.Source() {
	case puppetfile.SourceRegistry:
		v, err = s.registry.CurrentVersion(ctx, m.Namespace(), m.Name())
	default:
		v, err = s.tags.LatestTag(ctx, m.URL())
	}
	if err != nil {
		s.logger.Debug("latest version lookup failed", "module", m.Name(), "err", err)
		return puppetfile.Unknown(), err
	}

	s.remember(key, v)
	return v, nil
}

func (s *Source) cached(key string, source puppetfile.Source) (puppetfile.Version, bool) {
	if s.store == nil {
		return puppetfile.Version{}, false
	}
	e, ok := s.store.Read(key)
	if !ok || e.Version == "" {
		return puppetfile.Version{}, false
	}

	v := puppetfile.Tag(e.Version)
	if source == puppetfile.SourceRegistry {
		v = puppetfile.Registry(e.Version)
	}
	if e.Date != "" {
		if date, err := time.Parse(puppetfile.DateLayout, e.Date); err == nil {
			v = v.WithDate(date)
		}
	}
	return v, true
}

func (s *Source) remember(key string, v puppetfile.Version) {
	if s.store == nil {
		return
	}
	e := cache.Entry{Version: v.Value}
	if !v.Date.IsZero() {
		e.Date = v.Date.Format(puppetfile.DateLayout)
	}
	s.store.Write(key, e)
}
