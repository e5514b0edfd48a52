// SPDX-License-Identifier: MPL-2.0

package puppetfile

import (
	"slices"
	"testing"
)

func TestEnvironment_Render(t *testing.T) {
	t.Parallel()

	env := NewEnvironment("production")
	env.Modules["stdlib"] = MustRegistryModule("stdlib", "puppetlabs", ptr(Registry("4.20.0")))
	env.Modules["firewall"] = MustRepositoryModule("firewall", "https://x/firewall.git", ptr(Tag("1.11.0")))
	env.Modules["apt"] = MustRegistryModule("apt", "puppetlabs", nil)

	want := "forge 'https://forgeapi.puppetlabs.com'\n" +
		"\n" +
		"mod 'puppetlabs/apt'\n" +
		"mod 'firewall',\n" +
		"  :git => 'https://x/firewall.git',\n" +
		"  :tag => '1.11.0'\n" +
		"mod 'puppetlabs/stdlib', '4.20.0'\n"

	if got := env.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestEnvironment_CloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	env := NewEnvironment("dev")
	env.Modules["a"] = MustRegistryModule("a", "ns", ptr(Registry("1.0")))

	c := env.Clone()
	c.Modules["a"] = MustRegistryModule("a", "ns", ptr(Registry("2.0")))
	delete(c.Modules, "a")
	c.Modules["b"] = MustRegistryModule("b", "ns", nil)

	if len(env.Modules) != 1 || env.Modules["a"].Version().Value != "1.0" {
		t.Errorf("original environment changed: %v", env.Modules)
	}

	var zero Environment
	if zero.Clone().Modules == nil {
		t.Error("Clone() of zero environment should have a usable module map")
	}
}

// Environments are ordered ascending by name, never descending.
func TestSortEnvironments_Ascending(t *testing.T) {
	t.Parallel()

	envs := []Environment{NewEnvironment("staging"), NewEnvironment("dev"), NewEnvironment("production")}
	SortEnvironments(envs)

	want := []string{"dev", "production", "staging"}
	if got := EnvironmentNames(envs); !slices.Equal(got, want) {
		t.Errorf("sorted names = %v, want %v", got, want)
	}
}

func TestFindEnvironment(t *testing.T) {
	t.Parallel()

	envs := []Environment{NewEnvironment("dev"), NewEnvironment("prod")}
	if e, ok := FindEnvironment(envs, "prod"); !ok || e.Name != "prod" {
		t.Errorf("FindEnvironment(prod) = %v, %v", e, ok)
	}
	if _, ok := FindEnvironment(envs, "missing"); ok {
		t.Error("FindEnvironment(missing) should fail")
	}
}
