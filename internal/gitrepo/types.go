// SPDX-License-Identifier: MPL-2.0

package gitrepo

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrRefNotFound is the sentinel error wrapped by RefNotFoundError.
	ErrRefNotFound = errors.New("reference not found")
	// ErrNoTags is returned when a repository has no tags to pick the latest from.
	ErrNoTags = errors.New("repository has no tags")
	// ErrInvalidCommit is returned when a commit is not a hexadecimal SHA or prefix.
	ErrInvalidCommit = errors.New("invalid git commit")
	// ErrRepository wraps failures to reach or read a repository.
	ErrRepository = errors.New("git repository error")

	// commitPattern accepts full SHAs and abbreviated prefixes of at least 4 characters.
	commitPattern = regexp.MustCompile(`^[0-9a-fA-F]{4,40}$`)
)

type (
	// RefKind names the kind of reference a validation looked for.
	RefKind string

	// RefNotFoundError is returned when a branch, tag or commit does not exist in a repository.
	RefNotFoundError struct {
		URL  string
		Kind RefKind
		Name string
	}
)

const (
	// RefBranch is a branch head.
	RefBranch RefKind = "branch"
	// RefTag is a tag.
	RefTag RefKind = "tag"
	// RefCommit is a commit object.
	RefCommit RefKind = "commit"
)

// Error implements the error interface.
func (e *RefNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in %s", e.Kind, e.Name, e.URL)
}

// Unwrap returns ErrRefNotFound so callers can use errors.Is for programmatic detection.
func (e *RefNotFoundError) Unwrap() error { return ErrRefNotFound }

// ValidateCommitSHA returns nil if s looks like a full or abbreviated commit SHA.
func ValidateCommitSHA(s string) error {
	if !commitPattern.MatchString(s) {
		return fmt.Errorf("%w %q (must be 4 to 40 hexadecimal characters)", ErrInvalidCommit, s)
	}
	return nil
}
