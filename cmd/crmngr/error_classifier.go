// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	appsvc "crmngr-cli/internal/app"
	"crmngr-cli/internal/config"
	"crmngr-cli/internal/controlrepo"
	"crmngr-cli/internal/forge"
	"crmngr-cli/internal/gitrepo"
	"crmngr-cli/internal/issue"
	"crmngr-cli/pkg/reconcile"
	"crmngr-cli/pkg/report"
)

const (
	noEnvironmentMessage = "no environment is affected by your command. typo?"
	abortedMessage       = "crmngr has been aborted."
)

// classifyError maps a failure to an issue catalog ID and returns a styled
// message for CLI rendering.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, config.ErrProfileNotFound):
		issueID = issue.ProfileNotFoundId
	case errors.Is(err, config.ErrInvalidConfig):
		issueID = issue.ConfigLoadFailedId
	case errors.Is(err, controlrepo.ErrPushRejected):
		issueID = issue.PushRejectedId
	case errors.Is(err, controlrepo.ErrEnvironmentExists):
		issueID = issue.EnvironmentExistsId
	case errors.Is(err, controlrepo.ErrEnvironmentNotFound):
		issueID = issue.EnvironmentNotFoundId
	case errors.Is(err, controlrepo.ErrRemoteUnreachable), errors.Is(err, controlrepo.ErrNotGitRepo):
		issueID = issue.ControlRepositoryUnreachableId
	case errors.Is(err, errInvalidUpdateOptions):
		issueID = issue.InvalidUpdateOptionsId
	case errors.Is(err, forge.ErrForge):
		issueID = issue.ForgeUnreachableId
	case errors.Is(err, gitrepo.ErrRepository), errors.Is(err, gitrepo.ErrRefNotFound), errors.Is(err, gitrepo.ErrNoTags):
		issueID = issue.ModuleRepositoryUnreachableId
	case errors.Is(err, reconcile.ErrPinValidation):
		issueID = issue.InvalidUpdateOptionsId
	case errors.Is(err, report.ErrTooFewEnvironments):
		issueID = issue.TooFewEnvironmentsId
	default:
		var ae *issue.ActionableError
		if errors.As(err, &ae) && ae.Operation == "load preferences" {
			issueID = issue.ConfigLoadFailedId
		}
	}

	return issueID, fmt.Sprintf("%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// are formatted with their suggestions; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// handleError renders err for the user and returns the error RunE should
// return. Outcomes that are not failures of the run return nil.
func (a *App) handleError(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	stderr := cmd.ErrOrStderr()

	var tooFew *report.TooFewEnvironmentsError
	switch {
	case appsvc.IsNoEnvironment(err):
		fmt.Fprintln(stderr, WarningStyle.Render(noEnvironmentMessage))
		return nil
	case appsvc.IsAborted(err):
		fmt.Fprintln(stderr, ErrorStyle.Render(abortedMessage))
		return &ExitError{Code: 1, Err: err}
	case errors.As(err, &tooFew):
		fmt.Fprintln(stderr, WarningStyle.Render(
			"At least two environments required in compare mode. Only matched environment: "+strings.Join(tooFew.Matched, ", ")))
		return &ExitError{Code: 1, Err: err}
	}

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		issueID, styled := classifyError(err, a.flags.debug)
		svcErr = newServiceError(err, issueID, styled)
	}
	renderServiceError(stderr, svcErr, a.logger)
	return &ExitError{Code: 1, Err: err}
}
