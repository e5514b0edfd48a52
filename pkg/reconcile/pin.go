// SPDX-License-Identifier: MPL-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"crmngr-cli/pkg/puppetfile"
)

// Latest requests the newest forge release or git tag instead of an explicit value.
const Latest = "LATEST"

const (
	// PinForge pins a module released on the Forge.
	PinForge PinSource = iota
	// PinGit pins a module cloned from git.
	PinGit
)

// ErrPinValidation is wrapped by every PinError.
var ErrPinValidation = errors.New("pin validation failed")

type (
	// PinSource selects where a pinned module comes from.
	PinSource int

	// PinRequest describes a single-module pin as given on the command line.
	// Module is "author/name" for forge pins; for git pins any author prefix is dropped.
	// An empty URL reuses the URL already declared in the loaded environments.
	// Version and Tag accept Latest; at most one of Branch, Commit and Tag may be set.
	PinRequest struct {
		Module  string
		Source  PinSource
		URL     string
		Version string
		Branch  string
		Commit  string
		Tag     string
	}

	// Registry answers version questions about Forge modules.
	Registry interface {
		CurrentVersion(ctx context.Context, namespace, name string) (puppetfile.Version, error)
		HasVersion(ctx context.Context, namespace, name, version string) (bool, error)
	}

	// Repository answers ref questions about git module repositories.
	Repository interface {
		ValidateURL(ctx context.Context, url string) error
		LatestTag(ctx context.Context, url string) (puppetfile.Version, error)
		ValidateBranch(ctx context.Context, url, branch string) error
		ValidateCommit(ctx context.Context, url, commit string) error
		ValidateTag(ctx context.Context, url, tag string) error
	}

	// Resolver turns pin requests into validated modules.
	Resolver struct {
		registry   Registry
		repository Repository
	}

	// PinError explains why a pin request was rejected.
	PinError struct {
		Module string
		Reason string
		Err    error
	}
)

// Error implements the error interface.
func (e *PinError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Module, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Module, e.Reason)
}

// Unwrap exposes both ErrPinValidation and the underlying cause.
func (e *PinError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrPinValidation}
	}
	return []error{ErrPinValidation, e.Err}
}

// NewResolver creates a Resolver.
func NewResolver(registry Registry, repository Repository) *Resolver {
	return &Resolver{registry: registry, repository: repository}
}

// Resolve validates req against the registry or repository and returns the
// module to pin. envs are the loaded environments, used to find an existing
// git URL when req.URL is empty.
func (r *Resolver) Resolve(ctx context.Context, req PinRequest, envs []puppetfile.Environment) (puppetfile.Module, error) {
	if req.Source == PinForge {
		return r.resolveForge(ctx, req)
	}
	return r.resolveGit(ctx, req, envs)
}

func (r *Resolver) resolveForge(ctx context.Context, req PinRequest) (puppetfile.Module, error) {
	namespace, name := puppetfile.SplitModuleName(req.Module)
	if namespace == "" {
		return puppetfile.Module{}, &PinError{Module: req.Module, Reason: "forge modules must be given in author/module format"}
	}
	slug := namespace + "/" + name

	var version *puppetfile.Version
	switch req.Version {
	case "":
	case Latest:
		v, err := r.registry.CurrentVersion(ctx, namespace, name)
		if err != nil {
			return puppetfile.Module{}, &PinError{Module: slug, Reason: "could not determine latest forge version", Err: err}
		}
		v = puppetfile.Registry(v.Value)
		version = &v
	default:
		ok, err := r.registry.HasVersion(ctx, namespace, name, req.Version)
		if err != nil {
			return puppetfile.Module{}, &PinError{Module: slug, Reason: fmt.Sprintf("could not verify version %s", req.Version), Err: err}
		}
		if !ok {
			return puppetfile.Module{}, &PinError{Module: slug, Reason: fmt.Sprintf("%s is not a valid version", req.Version)}
		}
		v := puppetfile.Registry(req.Version)
		version = &v
	}

	m, err := puppetfile.NewRegistryModule(name, namespace, version)
	if err != nil {
		return puppetfile.Module{}, &PinError{Module: slug, Reason: "invalid module", Err: err}
	}
	return m, nil
}

func (r *Resolver) resolveGit(ctx context.Context, req PinRequest, envs []puppetfile.Environment) (puppetfile.Module, error) {
	_, name := puppetfile.SplitModuleName(req.Module)

	url := req.URL
	if url == "" {
		existing, err := existingURL(name, envs)
		if err != nil {
			return puppetfile.Module{}, err
		}
		url = existing
	}
	if err := r.repository.ValidateURL(ctx, url); err != nil {
		return puppetfile.Module{}, &PinError{Module: name, Reason: fmt.Sprintf("%s is not a valid git repository", url), Err: err}
	}

	var version *puppetfile.Version
	switch {
	case req.Branch != "":
		if err := r.repository.ValidateBranch(ctx, url, req.Branch); err != nil {
			return puppetfile.Module{}, &PinError{Module: name, Reason: fmt.Sprintf("could not verify branch %s", req.Branch), Err: err}
		}
		v := puppetfile.Branch(req.Branch)
		version = &v
	case req.Commit != "":
		if err := r.repository.ValidateCommit(ctx, url, req.Commit); err != nil {
			return puppetfile.Module{}, &PinError{Module: name, Reason: fmt.Sprintf("could not verify commit %s", req.Commit), Err: err}
		}
		v := puppetfile.Commit(req.Commit)
		version = &v
	case req.Tag == Latest:
		v, err := r.repository.LatestTag(ctx, url)
		if err != nil {
			return puppetfile.Module{}, &PinError{Module: name, Reason: "could not determine latest tag", Err: err}
		}
		v = puppetfile.Tag(v.Value)
		version = &v
	case req.Tag != "":
		if err := r.repository.ValidateTag(ctx, url, req.Tag); err != nil {
			return puppetfile.Module{}, &PinError{Module: name, Reason: fmt.Sprintf("could not verify tag %s", req.Tag), Err: err}
		}
		v := puppetfile.Tag(req.Tag)
		version = &v
	}

	m, err := puppetfile.NewRepositoryModule(name, url, version)
	if err != nil {
		return puppetfile.Module{}, &PinError{Module: name, Reason: "invalid module", Err: err}
	}
	return m, nil
}

// existingURL returns the single git URL declared for name across envs.
func existingURL(name string, envs []puppetfile.Environment) (string, error) {
	urls := make(map[string][]string)
	for _, env := range envs {
		m, ok := env.Module(name)
		if !ok || m.Source() != puppetfile.SourceRepository {
			continue
		}
		urls[m.URL()] = append(urls[m.URL()], env.Name)
	}

	switch len(urls) {
	case 0:
		return "", &PinError{
			Module: name,
			Reason: "git module is not declared in any of the selected environments; pass a URL to switch it to git",
		}
	case 1:
		for url := range urls {
			return url, nil
		}
	}

	lines := make([]string, 0, len(urls))
	for _, url := range slices.Sorted(maps.Keys(urls)) {
		envNames := urls[url]
		slices.Sort(envNames)
		lines = append(lines, fmt.Sprintf(" - %s (%s)", url, strings.Join(envNames, ", ")))
	}
	return "", &PinError{
		Module: name,
		Reason: "multiple URLs found across the selected environments; pass a URL or restrict the environments:\n" + strings.Join(lines, "\n"),
	}
}
