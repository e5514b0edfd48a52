// SPDX-License-Identifier: MPL-2.0

package puppetfile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// SourceRegistry is a module released on the Forge.
	SourceRegistry Source = iota
	// SourceRepository is a module cloned directly from a git repository.
	SourceRepository
)

var (
	// ErrVersionKindMismatch is returned when a version kind cannot pin the module's source.
	ErrVersionKindMismatch = errors.New("version kind does not match module source")
	// ErrInvalidModuleName is returned when a module name is empty or not representable in a manifest.
	ErrInvalidModuleName = errors.New("invalid module name")
	// ErrMissingSource is returned when a module has neither a namespace nor a git URL.
	ErrMissingSource = errors.New("module has neither a forge namespace nor a git URL")
)

type (
	// Source distinguishes registry-sourced from repository-sourced modules.
	Source int

	// Module is a single dependency declaration. It is a value type: copying a
	// Module (including its Version) never aliases another environment's copy.
	Module struct {
		name      string
		source    Source
		namespace string
		url       string
		version   *Version
	}
)

// String returns the source name used in module keys.
func (s Source) String() string {
	if s == SourceRepository {
		return "git"
	}
	return "forge"
}

// NewRegistryModule creates a Forge module. A non-nil version must be of kind registry.
func NewRegistryModule(name, namespace string, version *Version) (Module, error) {
	if err := validateName(name); err != nil {
		return Module{}, err
	}
	if err := validateName(namespace); err != nil {
		return Module{}, fmt.Errorf("namespace: %w", err)
	}
	if version != nil && version.Kind != KindRegistry {
		return Module{}, fmt.Errorf("%w: %s module %s/%s cannot use %s version", ErrVersionKindMismatch, SourceRegistry, namespace, name, version.Kind)
	}
	return Module{name: name, source: SourceRegistry, namespace: namespace, version: cloneVersion(version)}, nil
}

// NewRepositoryModule creates a git module. A non-nil version must be a branch, commit, ref or tag.
func NewRepositoryModule(name, url string, version *Version) (Module, error) {
	if err := validateName(name); err != nil {
		return Module{}, err
	}
	if strings.TrimSpace(url) == "" {
		return Module{}, fmt.Errorf("%w: %s", ErrMissingSource, name)
	}
	if version != nil && !version.Kind.IsGit() {
		return Module{}, fmt.Errorf("%w: %s module %s cannot use %s version", ErrVersionKindMismatch, SourceRepository, name, version.Kind)
	}
	return Module{name: name, source: SourceRepository, url: url, version: cloneVersion(version)}, nil
}

// MustRegistryModule is like NewRegistryModule but panics on error. Intended for tests and literals.
func MustRegistryModule(name, namespace string, version *Version) Module {
	m, err := NewRegistryModule(name, namespace, version)
	if err != nil {
		panic(err)
	}
	return m
}

// MustRepositoryModule is like NewRepositoryModule but panics on error. Intended for tests and literals.
func MustRepositoryModule(name, url string, version *Version) Module {
	m, err := NewRepositoryModule(name, url, version)
	if err != nil {
		panic(err)
	}
	return m
}

func validateName(s string) error {
	if s == "" || strings.ContainsAny(s, "'\",\n") {
		return fmt.Errorf("%w %q", ErrInvalidModuleName, s)
	}
	return nil
}

func cloneVersion(v *Version) *Version {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Name returns the module name without namespace.
func (m Module) Name() string { return m.name }

// Source returns whether the module comes from the Forge or from git.
func (m Module) Source() Source { return m.source }

// Namespace returns the Forge author; empty for git modules.
func (m Module) Namespace() string { return m.namespace }

// URL returns the git clone URL; empty for Forge modules.
func (m Module) URL() string { return m.url }

// Version returns a copy of the declared version, or nil when none is declared.
func (m Module) Version() *Version { return cloneVersion(m.version) }

// HasVersion reports whether a version is declared.
func (m Module) HasVersion() bool { return m.version != nil }

// WithVersion returns a copy of m with the given version (nil unpins).
func (m Module) WithVersion(v *Version) (Module, error) {
	switch {
	case v == nil:
	case m.source == SourceRegistry && v.Kind != KindRegistry,
		m.source == SourceRepository && !v.Kind.IsGit():
		return m, fmt.Errorf("%w: %s module %s cannot use %s version", ErrVersionKindMismatch, m.source, m.name, v.Kind)
	}
	m.version = cloneVersion(v)
	return m, nil
}

// ForgeName returns "namespace/name" for Forge modules and the bare name otherwise.
func (m Module) ForgeName() string {
	if m.source == SourceRegistry {
		return m.namespace + "/" + m.name
	}
	return m.name
}

// SourceIdentity returns the Forge namespace or the git URL.
func (m Module) SourceIdentity() string {
	if m.source == SourceRegistry {
		return m.namespace
	}
	return m.url
}

// IdentityKey identifies the module regardless of version: "<name>:forge:<namespace>" or "<name>:git:<url>".
func (m Module) IdentityKey() string {
	return m.name + ":" + m.source.String() + ":" + m.SourceIdentity()
}

// Key identifies the module including its version; report rows are grouped by it.
func (m Module) Key() string {
	if m.version == nil {
		return m.IdentityKey()
	}
	return m.IdentityKey() + ":" + m.version.Key()
}

// String returns Key.
func (m Module) String() string { return m.Key() }

// Equal compares identity and version (version dates are ignored).
func (m Module) Equal(other Module) bool {
	return m.Key() == other.Key()
}

// CacheKey returns the stable hash under which latest-version data is cached.
func (m Module) CacheKey() string {
	subject := m.url
	if m.source == SourceRegistry {
		subject = m.ForgeName()
	}
	sum := sha256.Sum256([]byte(subject))
	return hex.EncodeToString(sum[:])
}

// UpdateCommitMessage returns the commit message used when pinning this module.
func (m Module) UpdateCommitMessage() string {
	if m.version == nil {
		return fmt.Sprintf("Update %s module", m.name)
	}
	return fmt.Sprintf("Update %s module (%s)", m.name, m.version.CommitFragment())
}

// ManifestLines renders the module declaration block.
func (m Module) ManifestLines() []string {
	if m.source == SourceRegistry {
		line := "mod " + quote(m.ForgeName())
		if m.version != nil {
			line += ", " + m.version.ManifestAttribute()
		}
		return []string{line}
	}

	gitLine := "  :git => " + quote(m.url)
	if m.version != nil {
		gitLine += ","
	}
	lines := []string{"mod " + quote(m.name) + ",", gitLine}
	if m.version != nil {
		lines = append(lines, m.version.ManifestAttribute())
	}
	return lines
}
