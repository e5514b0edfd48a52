// SPDX-License-Identifier: MPL-2.0

package controlrepo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

var (
	// ErrGit is the sentinel error wrapped by GitError.
	ErrGit = errors.New("git command failed")
	// ErrNotGitRepo indicates the working directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")
	// ErrRemoteUnreachable indicates the control repository could not be read from its remote.
	ErrRemoteUnreachable = errors.New("could not read from remote repository")
)

// Compile-time check that RealExecutor implements Executor.
var _ Executor = (*RealExecutor)(nil)

type (
	// Executor runs git subcommands in a directory and returns their standard output.
	Executor interface {
		Run(ctx context.Context, dir string, args ...string) (string, error)
	}

	// RealExecutor implements Executor by running the git binary.
	RealExecutor struct {
		logger *log.Logger
	}

	// GitError describes a failed git invocation.
	GitError struct {
		Args   []string
		Output string
		// Err is a more specific sentinel when the output was recognized.
		Err error
	}
)

// NewRealExecutor creates a RealExecutor. A nil logger discards debug output.
func NewRealExecutor(logger *log.Logger) *RealExecutor {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &RealExecutor{logger: logger}
}

// Run executes git with args in dir.
func (e *RealExecutor) Run(ctx context.Context, dir string, args ...string) (string, error) {
	//nolint:gosec // G204: args are built by this package
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		output := strings.TrimSpace(stderr.String())
		if output == "" {
			output = err.Error()
		}
		e.logger.Debug("git command failed", "args", strings.Join(args, " "), "output", output)
		return "", parseGitError(args, output)
	}

	out := stdout.String()
	e.logger.Debug("git command completed", "args", strings.Join(args, " "),
		"output", strings.ReplaceAll(strings.TrimSpace(out), "\n", "; "))
	return out, nil
}

// parseGitError converts git stderr output to a GitError carrying a specific sentinel where possible.
func parseGitError(args []string, output string) error {
	lower := strings.ToLower(output)
	gerr := &GitError{Args: args, Output: output}

	switch {
	case strings.Contains(lower, "not a git repository"):
		gerr.Err = ErrNotGitRepo
	case strings.Contains(lower, "could not read from remote repository"),
		strings.Contains(lower, "repository not found"),
		strings.Contains(lower, "does not appear to be a git repository"):
		gerr.Err = ErrRemoteUnreachable
	}
	return gerr
}

// Error implements the error interface.
func (e *GitError) Error() string {
	return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), strings.ReplaceAll(e.Output, "\n", "; "))
}

// Unwrap returns ErrGit and, when recognized, the specific sentinel.
func (e *GitError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrGit, e.Err}
	}
	return []error{ErrGit}
}
