// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

var (
	// ErrProfileNotFound is the sentinel error wrapped by ProfileNotFoundError.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNoProfiles is returned when no profile is configured yet.
	ErrNoProfiles = errors.New("no profiles configured")
	// ErrInvalidConfig is returned when a configuration file does not match the schema.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Prefs holds the [crmngr] section of the prefs file.
	Prefs struct {
		// CacheTTL is in seconds.
		CacheTTL     int  `json:"cache_ttl" mapstructure:"cache_ttl"`
		VersionCheck bool `json:"version_check" mapstructure:"version_check"`
		Wrap         bool `json:"wrap" mapstructure:"wrap"`
	}

	// Profile names a control repository.
	Profile struct {
		Name       string
		Repository string `json:"repository"`
	}

	// Config is the loaded configuration.
	Config struct {
		// Dir is the configuration directory holding prefs, profiles and the cache.
		Dir      string
		Prefs    Prefs
		profiles map[string]Profile
	}

	// ProfileNotFoundError is returned when a requested profile is not configured.
	ProfileNotFoundError struct {
		Name string
	}
)

// DefaultPrefs returns the preferences used when the prefs file sets nothing.
func DefaultPrefs() Prefs {
	return Prefs{
		CacheTTL:     int(DefaultCacheTTL / time.Second),
		VersionCheck: true,
		Wrap:         true,
	}
}

// Error implements the error interface.
func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("No configuration for profile %s", e.Name)
}

// Unwrap returns ErrProfileNotFound so callers can use errors.Is for programmatic detection.
func (e *ProfileNotFoundError) Unwrap() error { return ErrProfileNotFound }

// CacheTTLDuration returns CacheTTL as a duration.
func (p Prefs) CacheTTLDuration() time.Duration {
	return time.Duration(p.CacheTTL) * time.Second
}

// CacheDir returns the directory of the version cache.
func (c *Config) CacheDir() string {
	return filepath.Join(c.Dir, CacheDirName)
}

// HasProfiles reports whether at least one profile is configured.
func (c *Config) HasProfiles() bool {
	return len(c.profiles) > 0
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.profiles[name]
	if !ok {
		return Profile{}, &ProfileNotFoundError{Name: name}
	}
	return p, nil
}

// Profiles returns every profile, the default profile first and the rest by name.
func (c *Config) Profiles() []Profile {
	out := make([]Profile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Profile) int {
		switch {
		case a.Name == DefaultProfile:
			return -1
		case b.Name == DefaultProfile:
			return 1
		default:
			return strings.Compare(a.Name, b.Name)
		}
	})
	return out
}
