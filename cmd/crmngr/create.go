// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	appsvc "crmngr-cli/internal/app"
	"crmngr-cli/pkg/report"
)

func newCreateCommand(a *App) *cobra.Command {
	var (
		template string
		noReport bool
		display  displayFlags
	)
	cmd := &cobra.Command{
		Use:   "create ENVIRONMENT",
		Short: "Create a new environment",
		Long: `Create a new environment.

Without a template the environment starts with an empty Puppetfile and a
manifests/site.pp. With --template it starts as a copy of the template
environment, without its history, and a report of the copy is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := display.resolve(a.cfg.Prefs)
			req := appsvc.CreateRequest{Name: args[0], Template: template}
			if !noReport {
				req.Report = &report.Options{VersionCheck: text.versionCheck}
			}

			rep, err := a.service().Create(cmd.Context(), a.profile.Repository, req)
			if err != nil {
				return a.handleError(cmd, err)
			}
			if rep != nil {
				renderReport(a.stdout, *rep, text)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&template, "template", "t", "", "copy the modules and content of the TEMPLATE environment")
	flags.BoolVar(&noReport, "no-report", false, "do not print a report of the new environment")
	addDisplayFlags(cmd, &display)
	return cmd
}
