// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"crmngr-cli/internal/config"
	"crmngr-cli/pkg/filter"
	"crmngr-cli/pkg/report"
)

type (
	// displayFlags are the report display toggles whose defaults come from prefs.
	displayFlags struct {
		versionCheck   bool
		noVersionCheck bool
		wrap           bool
		noWrap         bool
	}

	reportFlags struct {
		display      displayFlags
		environments []string
		modules      []string
		compare      bool
		outdatedOnly bool
		output       string
	}
)

func addDisplayFlags(cmd *cobra.Command, f *displayFlags) {
	flags := cmd.Flags()
	flags.BoolVar(&f.versionCheck, "version-check", false, "look up the latest version of every module (default from prefs)")
	flags.BoolVar(&f.noVersionCheck, "no-version-check", false, "do not look up latest versions")
	flags.BoolVar(&f.wrap, "wrap", false, "wrap long environment lists (default from prefs)")
	flags.BoolVar(&f.noWrap, "no-wrap", false, "do not wrap environment lists")
	cmd.MarkFlagsMutuallyExclusive("version-check", "no-version-check")
	cmd.MarkFlagsMutuallyExclusive("wrap", "no-wrap")
}

// resolve applies the flags given on the command line over prefs.
func (f displayFlags) resolve(prefs config.Prefs) textOptions {
	opts := textOptions{versionCheck: prefs.VersionCheck, wrap: prefs.Wrap}
	switch {
	case f.versionCheck:
		opts.versionCheck = true
	case f.noVersionCheck:
		opts.versionCheck = false
	}
	switch {
	case f.wrap:
		opts.wrap = true
	case f.noWrap:
		opts.wrap = false
	}
	return opts
}

// filterAliases accepts the long spellings of the environment and module filters.
func filterAliases(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "environment", "environments":
		name = "env"
	case "mod", "modules":
		name = "module"
	case "diff-only":
		name = "dry-run"
	}
	return pflag.NormalizedName(name)
}

func addFilterFlags(cmd *cobra.Command, environments, modules *[]string, verb string) {
	flags := cmd.Flags()
	flags.StringSliceVarP(environments, "env", "e", nil,
		"only "+verb+" environments matching any PATTERN; a first PATTERN of ! inverts the filter")
	flags.StringSliceVarP(modules, "module", "m", nil,
		"only "+verb+" modules matching any PATTERN; a first PATTERN of ! inverts the filter")
	flags.SetNormalizeFunc(filterAliases)
}

// parseFilter builds and validates a filter from flag values.
func parseFilter(patterns []string) (filter.Filter, error) {
	f := filter.Filter(patterns)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func newReportCommand(a *App) *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report module versions across environments",
		Long: `Report module versions across environments.

For every module the report lists each distinct declaration (source and
version) and the environments using it. With version check on, the latest
forge release or git tag is shown next to the declared version.

Filter PATTERNs are case-sensitive globs. If the first PATTERN is !, the
filter selects everything NOT matching the remaining PATTERNs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(cmd, runReport(cmd, a, f))
		},
	}

	addFilterFlags(cmd, &f.environments, &f.modules, "report")
	flags := cmd.Flags()
	flags.BoolVarP(&f.compare, "compare", "c", false, "only show modules that differ between the selected environments")
	flags.BoolVar(&f.outdatedOnly, "outdated-only", false, "only show modules with an outdated declaration (implies version check)")
	flags.StringVarP(&f.output, "output", "o", string(report.FormatText),
		"output format ("+strings.Join(formatNames(), ", ")+")")
	addDisplayFlags(cmd, &f.display)
	return cmd
}

func runReport(cmd *cobra.Command, a *App, f reportFlags) error {
	format, err := report.ParseFormat(f.output)
	if err != nil {
		return err
	}
	envs, err := parseFilter(f.environments)
	if err != nil {
		return err
	}
	modules, err := parseFilter(f.modules)
	if err != nil {
		return err
	}
	text := f.display.resolve(a.cfg.Prefs)

	rep, err := a.service().Report(cmd.Context(), a.profile.Repository, report.Options{
		EnvironmentFilter: envs,
		ModuleFilter:      modules,
		Compare:           f.compare,
		OutdatedOnly:      f.outdatedOnly,
		VersionCheck:      text.versionCheck,
	})
	if err != nil {
		return err
	}
	return writeReport(a, rep, format, text)
}

func writeReport(a *App, rep report.Report, format report.Format, text textOptions) error {
	if format == report.FormatText {
		renderReport(a.stdout, rep, text)
		return nil
	}
	return report.Encode(a.stdout, rep, format)
}

func formatNames() []string {
	var names []string
	for _, f := range report.Formats() {
		names = append(names, string(f))
	}
	return names
}
