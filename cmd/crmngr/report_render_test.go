// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"crmngr-cli/pkg/puppetfile"
	"crmngr-cli/pkg/report"
)

func versionOf(v puppetfile.Version) *puppetfile.Version { return &v }

func renderPlain(t *testing.T, rep report.Report, opts textOptions) string {
	t.Helper()
	var buf bytes.Buffer
	renderReport(&buf, rep, opts)
	return ansi.Strip(buf.String())
}

func TestRenderReport(t *testing.T) {
	t.Parallel()

	stdlib := puppetfile.MustRegistryModule("stdlib", "puppetlabs", versionOf(puppetfile.Registry("9.4.1")))
	ntp := puppetfile.MustRepositoryModule("ntp", "https://git.example.com/ntp.git",
		versionOf(puppetfile.Commit("0123456789abcdef0123456789abcdef01234567")))

	rep := report.Report{
		Environments: []string{"production", "staging", "testing"},
		Compare:      true,
		Modules: []report.Module{
			{
				Name:    "ntp",
				Rows:    []report.Row{{Declared: ntp, Environments: []string{"production", "staging"}, Latest: "v2.0.0"}},
				Missing: []string{"testing"},
			},
			{
				Name: "stdlib",
				Rows: []report.Row{{
					Declared:     stdlib,
					Environments: []string{"production", "staging", "testing"},
					Latest:       "9.5.0",
					Status:       report.StatusOutdated,
				}},
			},
		},
	}

	out := renderPlain(t, rep, textOptions{versionCheck: true, wrap: true})

	for _, want := range []string{
		"Module: ntp\n",
		"    Git:        https://git.example.com/ntp.git\n",
		"                Commit: 0123456 [Latest: v2.0.0]\n",
		"    Used by:    production staging\n",
		"  Missing from:\n                testing\n",
		"Module: stdlib\n",
		"    Forge:      puppetlabs/stdlib:\n",
		"                9.4.1 [Latest: 9.5.0]\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "0123456789") {
		t.Error("commit SHA not shortened")
	}
}

func TestRenderReportSingleEnvironment(t *testing.T) {
	t.Parallel()

	rep := report.Report{
		Environments: []string{"production"},
		Modules: []report.Module{{
			Name: "concat",
			Rows: []report.Row{{
				Declared:     puppetfile.MustRegistryModule("concat", "puppetlabs", nil),
				Environments: []string{"production"},
			}},
		}},
	}

	out := renderPlain(t, rep, textOptions{})
	if strings.Contains(out, "Used by:") {
		t.Errorf("single environment report lists users:\n%s", out)
	}
	if !strings.Contains(out, "                UNSPECIFIED\n") {
		t.Errorf("unversioned forge module not marked:\n%s", out)
	}
	if strings.Contains(out, "[Latest:") {
		t.Errorf("version check disabled but latest shown:\n%s", out)
	}
}

func TestWrapList(t *testing.T) {
	t.Parallel()

	items := make([]string, 12)
	for i := range items {
		items[i] = "environment"
	}

	lines := wrapList(items, true)
	if len(lines) < 2 {
		t.Fatalf("wrapList() = %d lines, want several", len(lines))
	}
	for _, line := range lines {
		if len(line) > reportWidth-reportIndent {
			t.Errorf("line %q exceeds %d columns", line, reportWidth-reportIndent)
		}
		if strings.HasSuffix(line, " ") {
			t.Errorf("line %q has trailing spaces", line)
		}
	}

	if got := wrapList(items, false); len(got) != 1 {
		t.Errorf("wrapList(wrap=false) = %d lines, want 1", len(got))
	}
}

func TestGitVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		v    *puppetfile.Version
		want string
	}{
		{name: "unversioned", v: nil, want: "UNSPECIFIED"},
		{name: "branch", v: versionOf(puppetfile.Branch("main")), want: "Branch: main"},
		{name: "short commit", v: versionOf(puppetfile.Commit("abc12")), want: "Commit: abc12"},
		{name: "ref", v: versionOf(puppetfile.Ref("refs/heads/x")), want: "Ref: refs/heads/x"},
		{name: "tag", v: versionOf(puppetfile.Tag("v1.0.0")), want: "Tag: v1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ansi.Strip(gitVersion(tt.v, report.StatusCurrent)); got != tt.want {
				t.Errorf("gitVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}
