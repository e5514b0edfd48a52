// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnvironmentsCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "environments",
		Aliases: []string{"envs"},
		Short:   "List environments",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.service().Environments(cmd.Context(), a.profile.Repository)
			if err != nil {
				return a.handleError(cmd, err)
			}
			p := newStyledPrinter(a.stdout)
			p.Heading(fmt.Sprintf("Environments in profile %s", a.profile.Name))
			for _, name := range names {
				p.Item(name)
			}
			return nil
		},
	}
}
