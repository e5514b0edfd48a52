// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/spf13/cobra"

func newDeleteCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ENVIRONMENT",
		Short: "Delete an environment",
		Long: `Delete an environment.

The environment branch is deleted from the control repository after
confirmation. This cannot be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.service().Delete(cmd.Context(), a.profile.Repository, args[0])
			return a.handleError(cmd, err)
		},
	}
}
