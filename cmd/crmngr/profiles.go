// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProfilesCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configured profiles",
		Long: `List configured profiles.

Profiles are sections of ~/.crmngr/profiles naming a control repository.
Select one with --profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newStyledPrinter(a.stdout)
			p.Heading("Available profiles:")
			for _, profile := range a.cfg.Profiles() {
				p.Item(fmt.Sprintf("%s: %s", profile.Name, profile.Repository))
			}
			return nil
		},
	}
}
