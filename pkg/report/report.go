// SPDX-License-Identifier: MPL-2.0

package report

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/maruel/natural"

	"crmngr-cli/pkg/filter"
	"crmngr-cli/pkg/puppetfile"
)

const (
	// StatusCurrent marks a pin equal to the newest available version.
	StatusCurrent Status = "current"
	// StatusOutdated marks a pin older than the newest available version.
	StatusOutdated Status = "outdated"
	// StatusFloating marks modules following a branch, commit, ref or no pin at all.
	StatusFloating Status = "floating"
	// StatusUnknown marks modules whose newest version could not be determined.
	StatusUnknown Status = "unknown"
)

var (
	// ErrNoEnvironment is returned when the environment filter matched nothing.
	ErrNoEnvironment = errors.New("no environment matched")
	// ErrTooFewEnvironments is returned when compare mode matched fewer than two environments.
	ErrTooFewEnvironments = errors.New("compare mode requires at least two environments")
)

type (
	// Status summarizes how a declared version relates to the newest available one.
	Status string

	// LatestSource looks up the newest available version of a module.
	LatestSource interface {
		Latest(ctx context.Context, m puppetfile.Module) (puppetfile.Version, error)
	}

	// Options select and shape a report.
	Options struct {
		ModuleFilter      filter.Filter
		EnvironmentFilter filter.Filter
		// Compare hides modules declared identically in every selected environment.
		Compare bool
		// OutdatedOnly keeps only modules with at least one outdated row. It implies VersionCheck.
		OutdatedOnly bool
		VersionCheck bool
	}

	// Report is the aggregated view of module versions across environments.
	Report struct {
		Environments []string `json:"environments" yaml:"environments" toml:"environments"`
		Compare      bool     `json:"compare" yaml:"compare" toml:"compare"`
		Modules      []Module `json:"modules" yaml:"modules" toml:"modules"`
	}

	// Module groups the distinct declarations of one module name.
	Module struct {
		Name    string   `json:"name" yaml:"name" toml:"name"`
		Rows    []Row    `json:"versions" yaml:"versions" toml:"versions"`
		Missing []string `json:"missing_from,omitempty" yaml:"missing_from,omitempty" toml:"missing_from,omitempty"`
	}

	// Row is one distinct declaration (source and version) and the environments using it.
	Row struct {
		Key          string            `json:"key" yaml:"key" toml:"key"`
		Source       string            `json:"source" yaml:"source" toml:"source"`
		Origin       string            `json:"origin" yaml:"origin" toml:"origin"`
		Kind         string            `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
		Version      string            `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
		Environments []string          `json:"environments" yaml:"environments" toml:"environments"`
		Latest       string            `json:"latest,omitempty" yaml:"latest,omitempty" toml:"latest,omitempty"`
		Status       Status            `json:"status,omitempty" yaml:"status,omitempty" toml:"status,omitempty"`
		Declared     puppetfile.Module `json:"-" yaml:"-" toml:"-"`
	}

	// TooFewEnvironmentsError reports which environments matched when compare mode needs more.
	TooFewEnvironmentsError struct {
		Matched []string
	}
)

// Error implements the error interface.
func (e *TooFewEnvironmentsError) Error() string {
	return fmt.Sprintf("%v; only matched environment: %s", ErrTooFewEnvironments, strings.Join(e.Matched, ", "))
}

// Unwrap returns ErrTooFewEnvironments so callers can use errors.Is for programmatic detection.
func (e *TooFewEnvironmentsError) Unwrap() error { return ErrTooFewEnvironments }

// Generate aggregates envs into a report. latest is only consulted when
// opts.VersionCheck or opts.OutdatedOnly is set and may otherwise be nil.
func Generate(ctx context.Context, envs []puppetfile.Environment, opts Options, latest LatestSource) (Report, error) {
	selected := make([]puppetfile.Environment, 0, len(envs))
	for _, env := range envs {
		if opts.EnvironmentFilter.Match(env.Name) {
			selected = append(selected, env)
		}
	}
	if len(selected) == 0 {
		return Report{}, ErrNoEnvironment
	}
	puppetfile.SortEnvironments(selected)
	names := puppetfile.EnvironmentNames(selected)
	if opts.Compare && len(selected) < 2 {
		return Report{}, &TooFewEnvironmentsError{Matched: names}
	}

	groups := group(selected)
	checker := newVersionChecker(latest, opts.VersionCheck || opts.OutdatedOnly)

	rep := Report{Environments: names, Compare: opts.Compare}
	for _, name := range slices.Sorted(maps.Keys(groups)) {
		if !opts.ModuleFilter.Match(name) {
			continue
		}
		byKey := groups[name]
		if opts.Compare && unanimous(byKey, len(names)) {
			continue
		}

		mod, err := buildModule(ctx, name, byKey, checker)
		if err != nil {
			return Report{}, err
		}
		if opts.Compare {
			mod.Missing = missing(byKey, names)
		}
		if opts.OutdatedOnly && !mod.Outdated() {
			continue
		}
		rep.Modules = append(rep.Modules, mod)
	}
	return rep, nil
}

// Outdated reports whether any row of m is outdated.
func (m Module) Outdated() bool {
	return slices.ContainsFunc(m.Rows, func(r Row) bool { return r.Status == StatusOutdated })
}

type deployment struct {
	module puppetfile.Module
	envs   map[string]struct{}
}

// group indexes modules by name and full key, collecting the environments deploying each.
func group(envs []puppetfile.Environment) map[string]map[string]*deployment {
	groups := make(map[string]map[string]*deployment)
	for _, env := range envs {
		for name, m := range env.Modules {
			byKey, ok := groups[name]
			if !ok {
				byKey = make(map[string]*deployment)
				groups[name] = byKey
			}
			d, ok := byKey[m.Key()]
			if !ok {
				d = &deployment{module: m, envs: make(map[string]struct{})}
				byKey[m.Key()] = d
			}
			d.envs[env.Name] = struct{}{}
		}
	}
	return groups
}

func unanimous(byKey map[string]*deployment, selected int) bool {
	if len(byKey) != 1 {
		return false
	}
	for _, d := range byKey {
		return len(d.envs) == selected
	}
	return false
}

func missing(byKey map[string]*deployment, selected []string) []string {
	var out []string
	for _, name := range selected {
		deployed := false
		for _, d := range byKey {
			if _, ok := d.envs[name]; ok {
				deployed = true
				break
			}
		}
		if !deployed {
			out = append(out, name)
		}
	}
	return out
}

func buildModule(ctx context.Context, name string, byKey map[string]*deployment, checker *versionChecker) (Module, error) {
	keys := slices.Collect(maps.Keys(byKey))
	slices.SortFunc(keys, func(a, b string) int {
		switch {
		case natural.Less(b, a):
			return -1
		case natural.Less(a, b):
			return 1
		default:
			return 0
		}
	})

	mod := Module{Name: name, Rows: make([]Row, 0, len(keys))}
	for _, key := range keys {
		d := byKey[key]
		row := Row{
			Key:          key,
			Source:       d.module.Source().String(),
			Origin:       d.module.SourceIdentity(),
			Environments: slices.Sorted(maps.Keys(d.envs)),
			Declared:     d.module,
		}
		if v := d.module.Version(); v != nil {
			row.Kind = v.Kind.String()
			row.Version = v.Value
		}

		if checker.enabled {
			latest, err := checker.latest(ctx, d.module)
			if err != nil {
				return Module{}, err
			}
			row.Latest = latest.Report()
			row.Status = Compare(d.module.Version(), latest)
		}
		mod.Rows = append(mod.Rows, row)
	}
	return mod, nil
}

// Compare derives the status of a declared version against the newest
// available one. Semantic versions are compared when both sides parse;
// otherwise only exact equality counts as current.
func Compare(declared *puppetfile.Version, latest puppetfile.Version) Status {
	if declared == nil {
		return StatusFloating
	}
	switch declared.Kind {
	case puppetfile.KindBranch, puppetfile.KindCommit, puppetfile.KindRef:
		return StatusFloating
	}
	if latest.Kind == puppetfile.KindUnknown || latest.Value == "" {
		return StatusUnknown
	}

	dv, derr := semver.NewVersion(declared.Value)
	lv, lerr := semver.NewVersion(latest.Value)
	if derr == nil && lerr == nil {
		if dv.LessThan(lv) {
			return StatusOutdated
		}
		return StatusCurrent
	}
	if declared.Value == latest.Value {
		return StatusCurrent
	}
	return StatusOutdated
}

// versionChecker memoizes latest lookups per module identity for one report.
type versionChecker struct {
	source  LatestSource
	enabled bool
	seen    map[string]puppetfile.Version
}

func newVersionChecker(source LatestSource, enabled bool) *versionChecker {
	return &versionChecker{source: source, enabled: enabled && source != nil, seen: make(map[string]puppetfile.Version)}
}

func (c *versionChecker) latest(ctx context.Context, m puppetfile.Module) (puppetfile.Version, error) {
	if v, ok := c.seen[m.IdentityKey()]; ok {
		return v, nil
	}
	v, err := c.source.Latest(ctx, m)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return puppetfile.Version{}, ctxErr
		}
		v = puppetfile.Unknown()
	}
	c.seen[m.IdentityKey()] = v
	return v, nil
}
