// SPDX-License-Identifier: MPL-2.0

// Package filter implements the glob include/exclude filters used to select
// environments and modules.
//
// A filter is an ordered list of case-sensitive glob patterns:
//   - an empty filter matches everything
//   - if the first pattern is the literal "!", the remaining patterns are
//     exclusion patterns and a value matches when none of them match
//   - otherwise a value matches when any pattern matches
//
// The negation marker is only recognized in first position.
//
// Patterns follow shell fnmatch rules: "*" matches any run of characters,
// including "/", so "feature*" selects the branch "feature/x". "?" matches
// one character and "[...]" a character class, negated with "[!...]".
// Braces and backslashes are literal.
package filter

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// ExcludeMarker switches a filter into exclusion mode when it is the first pattern.
const ExcludeMarker = "!"

// ErrInvalidPattern is the sentinel error wrapped by InvalidPatternError.
var ErrInvalidPattern = errors.New("invalid filter pattern")

// compiled caches globs by pattern.
var compiled sync.Map

type (
	// Filter is an ordered list of glob patterns.
	Filter []string

	// InvalidPatternError is returned when a pattern is not a valid glob.
	InvalidPatternError struct {
		Pattern string
	}
)

// Error implements the error interface.
func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid filter pattern %q", e.Pattern)
}

// Unwrap returns ErrInvalidPattern so callers can use errors.Is for programmatic detection.
func (e *InvalidPatternError) Unwrap() error { return ErrInvalidPattern }

// Validate checks that every pattern is a well-formed glob.
func (f Filter) Validate() error {
	for _, p := range f.patterns() {
		if _, err := compile(p); err != nil {
			return &InvalidPatternError{Pattern: p}
		}
	}
	return nil
}

// IsExclude reports whether the filter is in exclusion mode.
func (f Filter) IsExclude() bool {
	return len(f) > 0 && f[0] == ExcludeMarker
}

// Match reports whether value is accepted by the filter.
func (f Filter) Match(value string) bool {
	if len(f) == 0 {
		return true
	}
	if f.IsExclude() {
		return !matchAny(value, f[1:])
	}
	return matchAny(value, f)
}

// Apply returns the values accepted by the filter, preserving order.
func (f Filter) Apply(values []string) []string {
	var out []string
	for _, v := range values {
		if f.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

// String renders the filter the way it was given on the command line.
func (f Filter) String() string {
	if len(f) == 0 {
		return "*"
	}
	return strings.Join(f, " ")
}

func (f Filter) patterns() []string {
	if f.IsExclude() {
		return f[1:]
	}
	return f
}

// matchAny mirrors fnmatch list matching: an invalid pattern never matches.
func matchAny(value string, patterns []string) bool {
	for _, p := range patterns {
		if g, err := compile(p); err == nil && g.Match(value) {
			return true
		}
	}
	return false
}

// compile builds a glob without separators, so wildcards cross "/".
func compile(pattern string) (glob.Glob, error) {
	if g, ok := compiled.Load(pattern); ok {
		return g.(glob.Glob), nil
	}
	g, err := glob.Compile(fnmatchSyntax(pattern))
	if err != nil {
		return nil, err
	}
	compiled.Store(pattern, g)
	return g, nil
}

// fnmatchSyntax escapes the glob syntax fnmatch does not have: brace
// alternation and backslash escapes. Character classes are copied verbatim.
func fnmatchSyntax(pattern string) string {
	var b strings.Builder
	inClass := false
	for _, r := range pattern {
		switch {
		case inClass:
			if r == ']' {
				inClass = false
			}
		case r == '[':
			inClass = true
		case r == '{', r == '}', r == '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
