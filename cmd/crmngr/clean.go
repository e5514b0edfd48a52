// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

func newCleanCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Clear the version cache",
		Long: `Clear the version cache.

Latest versions of forge and git modules are cached in ~/.crmngr/cache for
the cache TTL. Clearing the cache forces fresh lookups on the next report.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := a.versionCache()
			usage, cleared, err := a.service().Clean(cmd.Context(), store)
			if err != nil {
				return a.handleError(cmd, err)
			}
			if cleared {
				fmt.Fprintln(a.stdout, SuccessStyle.Render(fmt.Sprintf(
					"Removed %d cache entries (%s) from %s", usage.Entries, units.HumanSize(float64(usage.Bytes)), store.Dir())))
			}
			return nil
		},
	}
}
