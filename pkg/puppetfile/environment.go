// SPDX-License-Identifier: MPL-2.0

package puppetfile

import (
	"maps"
	"slices"
	"strings"
)

// DefaultHeader is written when an environment has no registry source line.
const DefaultHeader = "forge 'https://forgeapi.puppetlabs.com'"

// Environment is the parsed manifest of one control repository branch.
type Environment struct {
	Name    string
	Header  string
	Modules map[string]Module
}

// NewEnvironment returns an empty environment.
func NewEnvironment(name string) Environment {
	return Environment{Name: name, Modules: make(map[string]Module)}
}

// Clone returns a copy whose module map can be changed without affecting e.
func (e Environment) Clone() Environment {
	c := e
	c.Modules = maps.Clone(e.Modules)
	if c.Modules == nil {
		c.Modules = make(map[string]Module)
	}
	return c
}

// Module looks up a module by name.
func (e Environment) Module(name string) (Module, bool) {
	m, ok := e.Modules[name]
	return m, ok
}

// ModuleNames returns the module names in ascending order.
func (e Environment) ModuleNames() []string {
	return slices.Sorted(maps.Keys(e.Modules))
}

// SortedModules returns the modules in ascending name order.
func (e Environment) SortedModules() []Module {
	names := e.ModuleNames()
	mods := make([]Module, 0, len(names))
	for _, n := range names {
		mods = append(mods, e.Modules[n])
	}
	return mods
}

// Render serializes the environment as manifest text.
func (e Environment) Render() string {
	header := e.Header
	if header == "" {
		header = DefaultHeader
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	for _, m := range e.SortedModules() {
		for _, line := range m.ManifestLines() {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// CompareEnvironments orders environments ascending by name.
func CompareEnvironments(a, b Environment) int {
	return strings.Compare(a.Name, b.Name)
}

// SortEnvironments sorts envs in place, ascending by name.
func SortEnvironments(envs []Environment) {
	slices.SortFunc(envs, CompareEnvironments)
}

// EnvironmentNames returns the names of envs in the given order.
func EnvironmentNames(envs []Environment) []string {
	names := make([]string, len(envs))
	for i, e := range envs {
		names[i] = e.Name
	}
	return names
}

// FindEnvironment returns the environment called name.
func FindEnvironment(envs []Environment, name string) (Environment, bool) {
	i := slices.IndexFunc(envs, func(e Environment) bool { return e.Name == name })
	if i < 0 {
		return Environment{}, false
	}
	return envs[i], true
}
