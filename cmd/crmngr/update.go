// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	appsvc "crmngr-cli/internal/app"
	"crmngr-cli/pkg/reconcile"
)

// existingURL is the value of --git given without a URL.
const existingURL = "EXISTING"

// errInvalidUpdateOptions is wrapped by every update flag validation error.
var errInvalidUpdateOptions = errors.New("invalid update options")

type updateFlags struct {
	environments   []string
	modules        []string
	reference      string
	add            bool
	remove         bool
	dryRun         bool
	nonInteractive bool
	forge          bool
	git            string
	version        string
	tag            string
	commit         string
	branch         string
}

func newUpdateCommand(a *App) *cobra.Command {
	var f updateFlags
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update Puppetfiles of environments",
		Long: `Update Puppetfiles of environments.

Without update or version options every module matching the filters is
updated to its latest version: the current forge release for forge modules
and the newest tag for git modules.

With --forge or --git a single module (-m) is pinned in every selected
environment declaring it, or added with --add. --version, --tag, --commit
and --branch choose the pin; --version and --tag without a value mean the
latest release or tag. Values of optional flags must be attached with =,
e.g. --git=https://git.example.com/ntp.git.

With --reference the selected environments take the module declarations of
the reference environment. --remove deletes all modules matching -m.

Every changed Puppetfile is shown as a diff and committed and pushed after
confirmation.`,
		Example: `  crmngr update -e production -m ntp --git --tag
  crmngr update -m puppetlabs/stdlib --forge --version=9.4.1 --add
  crmngr update -e 'feature_*' -r production --add --remove
  crmngr update -m 'legacy_*' --remove --non-interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildUpdateRequest(f, cmd.Flags().Changed("git"))
			if err != nil {
				return a.handleError(cmd, err)
			}
			_, err = a.service().Update(cmd.Context(), a.profile.Repository, req)
			return a.handleError(cmd, err)
		},
	}

	addFilterFlags(cmd, &f.environments, &f.modules, "update")
	flags := cmd.Flags()
	flags.BoolVar(&f.add, "add", false, "add the module (-m) to environments not declaring it yet")
	flags.BoolVar(&f.remove, "remove", false, "remove all modules matching -m; version options are ignored")
	flags.StringVarP(&f.reference, "reference", "r", "", "update modules to the declarations of the reference ENVIRONMENT")
	flags.BoolVarP(&f.dryRun, "dry-run", "n", false, "only show the diffs of what would change")
	flags.BoolVar(&f.nonInteractive, "non-interactive", false, "commit and push without showing diffs or asking. Use with care!")
	flags.BoolVar(&f.forge, "forge", false, "source the module from the puppet forge")
	flags.StringVar(&f.git, "git", "", "source the module from git URL; without URL the declared URL is kept")
	flags.StringVar(&f.version, "version", "", "pin the module to a forge VERSION; without VERSION the latest release")
	flags.StringVar(&f.tag, "tag", "", "pin the module to a git TAG; without TAG the latest tag")
	flags.StringVar(&f.commit, "commit", "", "pin the module to a git commit")
	flags.StringVar(&f.branch, "branch", "", "pin the module to a git branch")
	flags.Lookup("git").NoOptDefVal = existingURL
	flags.Lookup("version").NoOptDefVal = reconcile.Latest
	flags.Lookup("tag").NoOptDefVal = reconcile.Latest

	cmd.MarkFlagsMutuallyExclusive("dry-run", "non-interactive")
	cmd.MarkFlagsMutuallyExclusive("forge", "git")
	cmd.MarkFlagsMutuallyExclusive("version", "tag", "commit", "branch")
	return cmd
}

// buildUpdateRequest validates f and turns it into a service request.
// gitSet reports whether --git was given at all.
func buildUpdateRequest(f updateFlags, gitSet bool) (appsvc.UpdateRequest, error) {
	if err := validateUpdateFlags(f, gitSet); err != nil {
		return appsvc.UpdateRequest{}, err
	}
	envs, err := parseFilter(f.environments)
	if err != nil {
		return appsvc.UpdateRequest{}, err
	}

	req := appsvc.UpdateRequest{
		Environments:   envs,
		Reference:      strings.TrimSpace(f.reference),
		Add:            f.add,
		Remove:         f.remove,
		DryRun:         f.dryRun,
		NonInteractive: f.nonInteractive,
	}

	switch {
	case gitSet:
		url := f.git
		if url == existingURL {
			url = ""
		}
		req.Pin = &reconcile.PinRequest{
			Module: f.modules[0],
			Source: reconcile.PinGit,
			URL:    url,
			Tag:    f.tag,
			Commit: f.commit,
			Branch: f.branch,
		}
	case f.forge:
		req.Pin = &reconcile.PinRequest{
			Module:  f.modules[0],
			Source:  reconcile.PinForge,
			Version: f.version,
		}
	}

	// Pins and removals name modules, possibly as author/module; only the
	// name selects the declarations to change.
	modules := f.modules
	if req.Pin != nil || f.remove {
		modules = make([]string, len(f.modules))
		for i, m := range f.modules {
			modules[i] = m[strings.LastIndex(m, "/")+1:]
		}
	}
	if req.Modules, err = parseFilter(modules); err != nil {
		return appsvc.UpdateRequest{}, err
	}
	return req, nil
}

// validateUpdateFlags rejects flag combinations update cannot act on.
func validateUpdateFlags(f updateFlags, gitSet bool) error {
	switch {
	case gitSet:
		if err := ensureSingleModule(f); err != nil {
			return err
		}
		if f.version != "" {
			return updateOptionsError("--version is not supported for git modules.")
		}
	case f.forge:
		if err := ensureSingleModule(f); err != nil {
			return err
		}
		if f.branch != "" || f.commit != "" || f.tag != "" {
			return updateOptionsError("it is not supported to specify --branch/--commit/--tag without --git.")
		}
		if !f.remove && !strings.Contains(f.modules[0], "/") {
			return updateOptionsError("when adding or updating forge modules, -m has to be in author/module format")
		}
	default:
		if f.version != "" {
			return updateOptionsError("it is not supported to specify --version without --forge.")
		}
		if f.branch != "" || f.commit != "" || f.tag != "" {
			return updateOptionsError("it is not supported to specify --branch/--commit/--tag without --git.")
		}
		if f.reference != "" {
			// --add and --remove select the reference copy mode.
			return nil
		}
		if f.add {
			return updateOptionsError("--add is not supported for bulk updates. Combine --add with version options.")
		}
		if f.remove && len(f.modules) == 0 {
			return updateOptionsError("it is not supported to specify --remove without specifying a module filter (-m).")
		}
	}
	return nil
}

func ensureSingleModule(f updateFlags) error {
	switch {
	case len(f.modules) == 0:
		return updateOptionsError("it is not supported to specify --git/--forge without specifying a module (-m).")
	case len(f.modules) > 1:
		return updateOptionsError("cannot operate on multiple modules when version options are set.")
	case f.reference != "":
		return updateOptionsError("it is not supported to specify -r/--reference in combination with version options.")
	case f.add && f.remove:
		return updateOptionsError("it is not supported to specify both --add/--remove when working on a single module.")
	}
	return nil
}

func updateOptionsError(msg string) error {
	return fmt.Errorf("%w: %s", errInvalidUpdateOptions, msg)
}
