// SPDX-License-Identifier: MPL-2.0

package puppetfile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"slices"
	"testing"
)

func ptr(v Version) *Version { return &v }

func TestNewModule_RejectsKindMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func() (Module, error)
		want  error
	}{
		{
			name:  "registry_with_tag",
			build: func() (Module, error) { return NewRegistryModule("stdlib", "puppetlabs", ptr(Tag("1.0"))) },
			want:  ErrVersionKindMismatch,
		},
		{
			name:  "repository_with_registry",
			build: func() (Module, error) { return NewRepositoryModule("fw", "https://x/fw.git", ptr(Registry("1.0"))) },
			want:  ErrVersionKindMismatch,
		},
		{
			name:  "repository_with_unknown",
			build: func() (Module, error) { return NewRepositoryModule("fw", "https://x/fw.git", ptr(Unknown())) },
			want:  ErrVersionKindMismatch,
		},
		{
			name:  "repository_without_url",
			build: func() (Module, error) { return NewRepositoryModule("fw", " ", nil) },
			want:  ErrMissingSource,
		},
		{
			name:  "empty_name",
			build: func() (Module, error) { return NewRegistryModule("", "puppetlabs", nil) },
			want:  ErrInvalidModuleName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.build()
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestModule_WithVersion(t *testing.T) {
	t.Parallel()

	m := MustRepositoryModule("fw", "https://x/fw.git", ptr(Tag("1.0")))
	pinned, err := m.WithVersion(ptr(Branch("main")))
	if err != nil {
		t.Fatalf("WithVersion() error = %v", err)
	}
	if pinned.Version().Key() != "branch:main" {
		t.Errorf("pinned version = %v", pinned.Version())
	}
	if m.Version().Key() != "tag:1.0" {
		t.Errorf("original module changed to %v", m.Version())
	}

	if _, err := m.WithVersion(ptr(Registry("1.0"))); !errors.Is(err, ErrVersionKindMismatch) {
		t.Errorf("WithVersion(registry) error = %v", err)
	}

	unpinned, err := m.WithVersion(nil)
	if err != nil || unpinned.HasVersion() {
		t.Errorf("WithVersion(nil) = %v, %v", unpinned, err)
	}
}

func TestModule_VersionIsCopied(t *testing.T) {
	t.Parallel()

	v := Tag("1.0")
	m := MustRepositoryModule("fw", "https://x/fw.git", &v)
	v.Value = "2.0"
	got := m.Version()
	got.Value = "3.0"

	if m.Version().Value != "1.0" {
		t.Errorf("module version aliased caller memory: %v", m.Version())
	}
}

func TestModule_Keys(t *testing.T) {
	t.Parallel()

	forge := MustRegistryModule("stdlib", "puppetlabs", ptr(Registry("4.20.0")))
	git := MustRepositoryModule("firewall", "https://x/firewall.git", ptr(Tag("1.11.0")))
	bare := MustRepositoryModule("firewall", "https://x/firewall.git", nil)

	if got := forge.Key(); got != "stdlib:forge:puppetlabs:4.20.0" {
		t.Errorf("forge Key() = %q", got)
	}
	if got := git.Key(); got != "firewall:git:https://x/firewall.git:tag:1.11.0" {
		t.Errorf("git Key() = %q", got)
	}
	if got := bare.Key(); got != bare.IdentityKey() {
		t.Errorf("unversioned Key() = %q, want identity key %q", got, bare.IdentityKey())
	}
	if git.IdentityKey() != bare.IdentityKey() {
		t.Error("identity key must not depend on version")
	}
	if got := forge.ForgeName(); got != "puppetlabs/stdlib" {
		t.Errorf("ForgeName() = %q", got)
	}
}

func TestModule_CacheKey(t *testing.T) {
	t.Parallel()

	hash := func(s string) string {
		sum := sha256.Sum256([]byte(s))
		return hex.EncodeToString(sum[:])
	}

	forge := MustRegistryModule("stdlib", "puppetlabs", nil)
	git := MustRepositoryModule("firewall", "https://x/firewall.git", ptr(Tag("1.0")))

	if got := forge.CacheKey(); got != hash("puppetlabs/stdlib") {
		t.Errorf("forge CacheKey() = %q", got)
	}
	if got := git.CacheKey(); got != hash("https://x/firewall.git") {
		t.Errorf("git CacheKey() = %q", got)
	}
}

func TestModule_UpdateCommitMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		module Module
		want   string
	}{
		{module: MustRegistryModule("stdlib", "puppetlabs", ptr(Registry("4.20.0"))), want: "Update stdlib module (4.20.0)"},
		{module: MustRepositoryModule("fw", "u", ptr(Tag("1.0"))), want: "Update fw module (tag [1.0])"},
		{module: MustRepositoryModule("fw", "u", ptr(Branch("dev"))), want: "Update fw module (branch [dev])"},
		{module: MustRepositoryModule("fw", "u", nil), want: "Update fw module"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := tt.module.UpdateCommitMessage(); got != tt.want {
				t.Errorf("UpdateCommitMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestModule_ManifestLines(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		module Module
		want   []string
	}{
		{
			name:   "forge_versioned",
			module: MustRegistryModule("stdlib", "puppetlabs", ptr(Registry("4.20.0"))),
			want:   []string{"mod 'puppetlabs/stdlib', '4.20.0'"},
		},
		{
			name:   "forge_unversioned",
			module: MustRegistryModule("stdlib", "puppetlabs", nil),
			want:   []string{"mod 'puppetlabs/stdlib'"},
		},
		{
			name:   "git_tag",
			module: MustRepositoryModule("firewall", "https://x/firewall.git", ptr(Tag("1.11.0"))),
			want: []string{
				"mod 'firewall',",
				"  :git => 'https://x/firewall.git',",
				"  :tag => '1.11.0'",
			},
		},
		{
			name:   "git_unversioned",
			module: MustRepositoryModule("firewall", "https://x/firewall.git", nil),
			want: []string{
				"mod 'firewall',",
				"  :git => 'https://x/firewall.git'",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.module.ManifestLines(); !slices.Equal(got, tt.want) {
				t.Errorf("ManifestLines() = %q, want %q", got, tt.want)
			}
		})
	}
}
