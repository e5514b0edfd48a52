// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for crmngr.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"crmngr-cli/internal/config"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the crmngr command tree around a.
func NewRootCommand(a *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "crmngr",
		Short: "Manage a r10k-style control repository",
		Long: TitleStyle.Render("crmngr") + SubtitleStyle.Render(" - manage a r10k-style control repository") + `

Every branch of the control repository is a Puppet environment whose
Puppetfile declares the modules deployed in it. crmngr reports module
versions across environments and updates Puppetfiles in bulk.

` + SubtitleStyle.Render("Examples:") + `
  crmngr report -c                      Compare all environments
  crmngr update -e 'feature_*' -n       Show what a bulk update would change
  crmngr update -m puppetlabs/stdlib --forge --version
                                        Pin stdlib to its latest forge release
  crmngr create feature_x -t production Copy production into a new environment`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.flags.profile, "profile", "p", config.DefaultProfile, "crmngr configuration profile")
	flags.IntVar(&a.flags.cacheTTL, "cache-ttl", 0, "time-to-live in seconds for version cache entries (default from prefs)")
	flags.BoolVarP(&a.flags.debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(
		newCleanCommand(a),
		newCreateCommand(a),
		newDeleteCommand(a),
		newEnvironmentsCommand(a),
		newProfilesCommand(a),
		newReportCommand(a),
		newUpdateCommand(a),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs crmngr. This is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))
	// fang overrides rootCmd.Version, so the version goes through fang.WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
