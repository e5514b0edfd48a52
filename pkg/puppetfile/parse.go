// SPDX-License-Identifier: MPL-2.0

package puppetfile

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Keyword starts every module declaration.
	Keyword = "mod"
	// HeaderKeyword starts the registry source line of a manifest.
	HeaderKeyword = "forge"

	commentMarker  = "#"
	continuation   = ","
	quoteCutset    = " \t'\""
	attributeArrow = ">"
)

var (
	// ErrUnterminatedDeclaration is reported when input ends inside a continuation block.
	ErrUnterminatedDeclaration = errors.New("declaration block is never closed")
	// ErrInterruptedDeclaration is reported when a new declaration starts inside an open block.
	ErrInterruptedDeclaration = errors.New("declaration block interrupted by a new declaration")
	// ErrMalformedAttribute is returned when an attribute has no "=>" value.
	ErrMalformedAttribute = errors.New("malformed attribute")
	// ErrNotDeclaration is returned when ParseDeclaration is given text without the module keyword.
	ErrNotDeclaration = errors.New("not a module declaration")
)

type (
	// Declaration is one logical module declaration after continuation lines
	// have been collapsed. Line is the 1-based line the declaration starts on.
	Declaration struct {
		Line int
		Text string
	}

	// Problem describes manifest content that was skipped while loading.
	Problem struct {
		Line int
		Text string
		Err  error
	}
)

// Error implements the error interface.
func (p Problem) Error() string {
	return fmt.Sprintf("line %d: %v: %s", p.Line, p.Err, p.Text)
}

// Unwrap returns the underlying cause.
func (p Problem) Unwrap() error { return p.Err }

// Collapse turns raw manifest lines into logical declarations.
//
// Blank and comment lines are dropped. A declaration whose trimmed text ends
// with a comma opens a block that swallows following lines (trimmed, joined
// without separator) until a line that does not end with a comma. Lines that
// are neither declarations nor part of a block are ignored. Blocks that are
// never closed, or that are interrupted by another declaration, are returned
// as problems instead of declarations.
func Collapse(lines []string) ([]Declaration, []Problem) {
	var (
		decls    []Declaration
		problems []Problem
		open     *Declaration
	)

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentMarker) {
			continue
		}

		if open != nil {
			if isDeclaration(line) {
				problems = append(problems, Problem{Line: open.Line, Text: open.Text, Err: ErrInterruptedDeclaration})
				open = nil
			} else {
				open.Text += line
				if !strings.HasSuffix(line, continuation) {
					decls = append(decls, *open)
					open = nil
				}
				continue
			}
		}

		if !isDeclaration(line) {
			continue
		}
		decl := Declaration{Line: i + 1, Text: line}
		if strings.HasSuffix(line, continuation) {
			open = &decl
			continue
		}
		decls = append(decls, decl)
	}

	if open != nil {
		problems = append(problems, Problem{Line: open.Line, Text: open.Text, Err: ErrUnterminatedDeclaration})
	}
	return decls, problems
}

// ParseDeclaration converts one collapsed declaration into a Module.
func ParseDeclaration(text string) (Module, error) {
	text = strings.TrimSpace(text)
	if !isDeclaration(text) {
		return Module{}, fmt.Errorf("%w: %q", ErrNotDeclaration, text)
	}

	fields := strings.Split(text[len(Keyword):], ",")
	namespace, name := SplitModuleName(fields[0])

	var (
		url     string
		version *Version
	)
	for _, field := range fields[1:] {
		clean := strings.Trim(field, quoteCutset)
		if clean == "" {
			continue
		}
		if !strings.HasPrefix(clean, ":") {
			v := Registry(clean)
			version = &v
			continue
		}

		key := attributeKey(clean)
		if key != "git" && !isRefAttribute(key) {
			continue
		}
		value, err := attributeValue(clean)
		if err != nil {
			return Module{}, err
		}
		if key == "git" {
			url = value
			continue
		}
		kind, _ := ParseVersionKind(key)
		v := Version{Kind: kind, Value: value}
		version = &v
	}

	if namespace != "" && url == "" {
		return NewRegistryModule(name, namespace, version)
	}
	if url == "" {
		return Module{}, fmt.Errorf("%w: %s", ErrMissingSource, name)
	}
	return NewRepositoryModule(name, url, version)
}

// SplitModuleName splits "author/name" on the last slash. Quotes and
// surrounding whitespace are removed; namespace is empty when no slash is present.
func SplitModuleName(s string) (namespace, name string) {
	s = strings.Trim(s, quoteCutset)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// Parse builds the environment called name from manifest text. Declarations
// that cannot be collapsed or parsed are skipped and returned as problems.
func Parse(name, text string) (Environment, []Problem) {
	env := NewEnvironment(name)
	lines := strings.Split(text, "\n")

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if isKeywordLine(line, HeaderKeyword) {
			env.Header = line
			break
		}
	}

	decls, problems := Collapse(lines)
	for _, d := range decls {
		m, err := ParseDeclaration(d.Text)
		if err != nil {
			problems = append(problems, Problem{Line: d.Line, Text: d.Text, Err: err})
			continue
		}
		env.Modules[m.Name()] = m
	}
	return env, problems
}

func isDeclaration(line string) bool {
	return isKeywordLine(line, Keyword)
}

func isKeywordLine(line, keyword string) bool {
	if !strings.HasPrefix(line, keyword) || len(line) == len(keyword) {
		return false
	}
	switch line[len(keyword)] {
	case ' ', '\t', '\'', '"':
		return true
	default:
		return false
	}
}

func isRefAttribute(key string) bool {
	switch key {
	case "branch", "commit", "ref", "tag":
		return true
	default:
		return false
	}
}

func attributeKey(clean string) string {
	key := strings.TrimPrefix(clean, ":")
	if i := strings.IndexFunc(key, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	}); i >= 0 {
		key = key[:i]
	}
	return key
}

func attributeValue(clean string) (string, error) {
	i := strings.LastIndex(clean, attributeArrow)
	if i < 0 {
		return "", fmt.Errorf("%w %q", ErrMalformedAttribute, clean)
	}
	return strings.Trim(clean[i+1:], quoteCutset), nil
}
