// SPDX-License-Identifier: MPL-2.0

package puppetfile

import (
	"errors"
	"fmt"
	"time"

	"github.com/maruel/natural"
)

const (
	// KindUnknown marks a version that could not be determined.
	KindUnknown VersionKind = iota
	// KindRegistry is a Forge release version (e.g., "4.20.0").
	KindRegistry
	// KindBranch pins a git module to a branch.
	KindBranch
	// KindCommit pins a git module to a commit.
	KindCommit
	// KindRef pins a git module to an arbitrary ref.
	KindRef
	// KindTag pins a git module to a tag.
	KindTag
)

// DateLayout is the layout used for version dates in reports and the cache.
const DateLayout = "2006-01-02"

// ErrInvalidVersionKind is the sentinel error wrapped by InvalidVersionKindError.
var ErrInvalidVersionKind = errors.New("invalid version kind")

type (
	// VersionKind is the closed set of version variants.
	VersionKind int

	// InvalidVersionKindError is returned when a VersionKind value is not recognized.
	InvalidVersionKindError struct {
		Value string
	}

	// Version is an immutable module version.
	// Date is metadata only: it is shown in reports and ignored by Equal.
	Version struct {
		Kind  VersionKind
		Value string
		Date  time.Time
	}
)

// Error implements the error interface.
func (e *InvalidVersionKindError) Error() string {
	return fmt.Sprintf("invalid version kind %q (must be one of: forge, branch, commit, ref, tag)", e.Value)
}

// Unwrap returns ErrInvalidVersionKind so callers can use errors.Is for programmatic detection.
func (e *InvalidVersionKindError) Unwrap() error { return ErrInvalidVersionKind }

// String returns the manifest attribute key for git kinds and a name otherwise.
func (k VersionKind) String() string {
	switch k {
	case KindRegistry:
		return "forge"
	case KindBranch:
		return "branch"
	case KindCommit:
		return "commit"
	case KindRef:
		return "ref"
	case KindTag:
		return "tag"
	default:
		return "unknown"
	}
}

// IsGit reports whether the kind can pin a repository-sourced module.
func (k VersionKind) IsGit() bool {
	switch k {
	case KindBranch, KindCommit, KindRef, KindTag:
		return true
	default:
		return false
	}
}

// ParseVersionKind maps a manifest attribute key (without the colon) to a kind.
func ParseVersionKind(s string) (VersionKind, error) {
	switch s {
	case "forge":
		return KindRegistry, nil
	case "branch":
		return KindBranch, nil
	case "commit":
		return KindCommit, nil
	case "ref":
		return KindRef, nil
	case "tag":
		return KindTag, nil
	default:
		return KindUnknown, &InvalidVersionKindError{Value: s}
	}
}

// Registry returns a Forge release version.
func Registry(value string) Version { return Version{Kind: KindRegistry, Value: value} }

// Branch returns a git branch pin.
func Branch(value string) Version { return Version{Kind: KindBranch, Value: value} }

// Commit returns a git commit pin.
func Commit(value string) Version { return Version{Kind: KindCommit, Value: value} }

// Ref returns a git ref pin.
func Ref(value string) Version { return Version{Kind: KindRef, Value: value} }

// Tag returns a git tag pin.
func Tag(value string) Version { return Version{Kind: KindTag, Value: value} }

// Unknown returns the version used when a lookup produced nothing.
func Unknown() Version { return Version{Kind: KindUnknown} }

// WithDate returns a copy of v carrying the given release date.
func (v Version) WithDate(date time.Time) Version {
	v.Date = date
	return v
}

// Key returns the canonical comparison key: the bare value for registry
// versions, "<kind>:<value>" for git pins and "unknown" for unknown versions.
func (v Version) Key() string {
	switch v.Kind {
	case KindUnknown:
		return "unknown"
	case KindRegistry:
		return v.Value
	default:
		return v.Kind.String() + ":" + v.Value
	}
}

// String returns the canonical key.
func (v Version) String() string { return v.Key() }

// Equal compares kind and value.
func (v Version) Equal(other Version) bool {
	return v.Key() == other.Key()
}

// Less orders versions by natural comparison of their canonical keys.
func (v Version) Less(other Version) bool {
	return natural.Less(v.Key(), other.Key())
}

// Report returns the human readable form used in reports.
func (v Version) Report() string {
	if v.Kind == KindUnknown {
		return "unknown"
	}
	if v.Date.IsZero() {
		return v.Value
	}
	return fmt.Sprintf("%s (%s)", v.Value, v.Date.Format(DateLayout))
}

// CommitFragment returns the version as it appears in update commit messages.
func (v Version) CommitFragment() string {
	switch v.Kind {
	case KindBranch, KindCommit, KindTag:
		return fmt.Sprintf("%s [%s]", v.Kind, v.Value)
	default:
		return v.Value
	}
}

// ManifestAttribute returns the manifest text for the version: a quoted
// literal for registry versions and a ":<kind> => '<value>'" line for git pins.
func (v Version) ManifestAttribute() string {
	if v.Kind == KindRegistry {
		return quote(v.Value)
	}
	return fmt.Sprintf("  :%s => %s", v.Kind, quote(v.Value))
}

func quote(s string) string { return "'" + s + "'" }
