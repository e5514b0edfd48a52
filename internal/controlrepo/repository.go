// SPDX-License-Identifier: MPL-2.0

package controlrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"crmngr-cli/pkg/filter"
	"crmngr-cli/pkg/puppetfile"
)

const (
	// ManifestFile is the manifest file name at the root of every environment branch.
	ManifestFile = "Puppetfile"
	// SiteManifest is the main manifest created for new empty environments.
	SiteManifest = "manifests/site.pp"
	// SiteManifestContent is the content of SiteManifest in new empty environments.
	SiteManifestContent = "hiera_include('classes')"
	// InitMessage is the commit message of a new environment's first commit.
	InitMessage = "Initialize new environment."

	tempPrefix = "crmngr_repository_"
	cloneDir   = "git"
	filePerm   = 0o644
	dirPerm    = 0o755
)

var (
	// ErrNoEnvironment is returned when the environment filter matched no branch.
	ErrNoEnvironment = errors.New("no environment matched")
	// ErrEnvironmentExists is returned when creating an environment that already exists.
	ErrEnvironmentExists = errors.New("environment already exists")
	// ErrEnvironmentNotFound is returned when an environment does not exist.
	ErrEnvironmentNotFound = errors.New("environment not found")
	// ErrPushRejected is returned when pushing an environment failed.
	ErrPushRejected = errors.New("push rejected")
	// ErrManifestMissing is reported for branches without a manifest file.
	ErrManifestMissing = errors.New("environment has no " + ManifestFile)

	// remoteBranchPattern matches remote branches in `git branch --list --all`
	// output. Symbolic refs such as "HEAD -> origin/main" do not match.
	remoteBranchPattern = regexp.MustCompile(`^\s*remotes/origin/(\S+)$`)
)

type (
	// Repository is a temporary clone of a control repository whose branches are environments.
	// It must be closed to remove the clone.
	Repository struct {
		url     string
		base    afero.Fs
		root    string
		workdir string
		fs      afero.Fs
		exec    Executor
		logger  *log.Logger
	}

	// Option configures a Repository during Clone.
	Option func(*Repository)

	// Warning is a non-fatal problem found while loading an environment.
	Warning struct {
		Environment string
		Err         error
	}

	// EnvironmentError is returned when an environment is missing or already exists.
	EnvironmentError struct {
		Environment string
		Err         error
	}

	// PushRejectedError is returned when pushing an environment to the remote failed.
	PushRejectedError struct {
		Environment string
		Err         error
	}
)

// WithExecutor replaces the git executor.
func WithExecutor(e Executor) Option {
	return func(r *Repository) {
		r.exec = e
	}
}

// WithFs replaces the filesystem holding the temporary clone.
func WithFs(fsys afero.Fs) Option {
	return func(r *Repository) {
		r.base = fsys
	}
}

// WithLogger sets the logger receiving debug output.
func WithLogger(logger *log.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	return fmt.Sprintf("%s: %v", w.Environment, w.Err)
}

// Error implements the error interface.
func (e *EnvironmentError) Error() string {
	if errors.Is(e.Err, ErrEnvironmentExists) {
		return fmt.Sprintf("environment %s already exists", e.Environment)
	}
	return fmt.Sprintf("environment %s does not exist", e.Environment)
}

// Unwrap returns the sentinel describing the failure.
func (e *EnvironmentError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *PushRejectedError) Error() string {
	return fmt.Sprintf("could not update environment %s. Maybe somebody else pushed changes to %s during the current run. Full git error: %v",
		e.Environment, e.Environment, e.Err)
}

// Unwrap returns ErrPushRejected and the underlying git error.
func (e *PushRejectedError) Unwrap() []error { return []error{ErrPushRejected, e.Err} }

// Clone makes a shallow clone of every branch of url in a new temporary directory.
func Clone(ctx context.Context, url string, opts ...Option) (*Repository, error) {
	r := &Repository{
		url:    url,
		base:   afero.NewOsFs(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.exec == nil {
		r.exec = NewRealExecutor(r.logger)
	}

	root, err := afero.TempDir(r.base, "", tempPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating clone directory: %w", err)
	}
	r.root = root
	r.workdir = filepath.Join(root, cloneDir)
	r.fs = afero.NewBasePathFs(r.base, r.workdir)

	if _, err := r.exec.Run(ctx, root, "clone", "--depth=1", "--quiet", "--no-single-branch", url, cloneDir); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("cloning control repository %s: %w", url, err)
	}
	r.logger.Debug("cloned control repository", "url", url, "dir", r.workdir)
	return r, nil
}

// Close removes the temporary clone.
func (r *Repository) Close() error {
	if r.root == "" {
		return nil
	}
	if err := r.base.RemoveAll(r.root); err != nil {
		return fmt.Errorf("removing clone directory %s: %w", r.root, err)
	}
	return nil
}

// URL returns the remote URL of the control repository.
func (r *Repository) URL() string { return r.url }

// Branches returns the names of all remote branches.
func (r *Repository) Branches(ctx context.Context) ([]string, error) {
	out, err := r.git(ctx, "branch", "--list", "--all")
	if err != nil {
		return nil, err
	}
	return parseBranches(out), nil
}

func parseBranches(out string) []string {
	var branches []string
	for _, line := range strings.Split(out, "\n") {
		m := remoteBranchPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		branches = append(branches, m[1])
	}
	return branches
}

// HasEnvironment reports whether a branch named env exists.
func (r *Repository) HasEnvironment(ctx context.Context, env string) (bool, error) {
	branches, err := r.Branches(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(branches, env), nil
}

// Load parses the manifest of every branch matched by envs, plus the branches
// named in extra. Environments are returned sorted by name. Parse problems and
// missing manifests are returned as warnings; a branch without a manifest
// loads as an empty environment.
func (r *Repository) Load(ctx context.Context, envs filter.Filter, extra ...string) ([]puppetfile.Environment, []Warning, error) {
	branches, err := r.Branches(ctx)
	if err != nil {
		return nil, nil, err
	}

	var (
		loaded   []puppetfile.Environment
		warnings []Warning
	)
	for _, branch := range branches {
		if !envs.Match(branch) && !slices.Contains(extra, branch) {
			r.logger.Debug("branch does not match environment filter", "branch", branch, "filter", envs.String())
			continue
		}

		text, existed, err := r.readManifest(ctx, branch)
		if err != nil {
			return nil, nil, err
		}
		if !existed {
			warnings = append(warnings, Warning{Environment: branch, Err: ErrManifestMissing})
		}

		env, problems := puppetfile.Parse(branch, text)
		for _, p := range problems {
			warnings = append(warnings, Warning{Environment: branch, Err: p})
		}
		loaded = append(loaded, env)
	}

	if len(loaded) == 0 {
		return nil, warnings, ErrNoEnvironment
	}
	puppetfile.SortEnvironments(loaded)
	return loaded, warnings, nil
}

// Stage writes the rendered manifest of env to its branch and returns the
// resulting diff. Nothing is written when the manifest is unchanged, or when
// the branch has no manifest and env declares no modules.
func (r *Repository) Stage(ctx context.Context, env puppetfile.Environment) (Diff, error) {
	old, existed, err := r.readManifest(ctx, env.Name)
	if err != nil {
		return Diff{}, err
	}
	if !existed && len(env.Modules) == 0 {
		r.logger.Debug("no manifest to write", "environment", env.Name)
		return Diff{Environment: env.Name}, nil
	}

	d := Diff{
		Environment: env.Name,
		Old:         old,
		New:         env.Render(),
		existed:     existed,
	}
	d.Lines = lineDiff(d.Old, d.New)
	if !d.Changed() {
		r.logger.Debug("manifest unchanged", "environment", env.Name)
		return d, nil
	}

	if err := afero.WriteFile(r.fs, ManifestFile, []byte(d.New), filePerm); err != nil {
		return Diff{}, fmt.Errorf("writing %s of environment %s: %w", ManifestFile, env.Name, err)
	}
	return d, nil
}

// Revert restores the manifest that was present before d was staged.
func (r *Repository) Revert(ctx context.Context, d Diff) error {
	if err := r.checkout(ctx, d.Environment); err != nil {
		return err
	}
	if !d.existed {
		if err := r.fs.Remove(ManifestFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("reverting %s of environment %s: %w", ManifestFile, d.Environment, err)
		}
		return nil
	}
	if err := afero.WriteFile(r.fs, ManifestFile, []byte(d.Old), filePerm); err != nil {
		return fmt.Errorf("reverting %s of environment %s: %w", ManifestFile, d.Environment, err)
	}
	return nil
}

// Publish commits the staged manifest of d with message and pushes the branch.
func (r *Repository) Publish(ctx context.Context, d Diff, message string) error {
	if err := r.checkout(ctx, d.Environment); err != nil {
		return err
	}
	if !d.existed {
		if _, err := r.git(ctx, "add", ManifestFile); err != nil {
			return err
		}
	}
	if _, err := r.git(ctx, "commit", "-m", message, ManifestFile); err != nil {
		return fmt.Errorf("committing environment %s: %w", d.Environment, err)
	}
	return r.push(ctx, d.Environment)
}

// CreateEnvironment creates and pushes a new environment branch. With an
// empty template the branch starts with a manifest holding only the header
// and a site manifest; otherwise it starts as a copy of the template branch
// without its history.
func (r *Repository) CreateEnvironment(ctx context.Context, name, template string) error {
	branches, err := r.Branches(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(branches, name) {
		return &EnvironmentError{Environment: name, Err: ErrEnvironmentExists}
	}
	if template != "" && !slices.Contains(branches, template) {
		return &EnvironmentError{Environment: template, Err: ErrEnvironmentNotFound}
	}

	if template != "" {
		if err := r.checkout(ctx, template); err != nil {
			return err
		}
		if _, err := r.git(ctx, "checkout", "--orphan", name); err != nil {
			return err
		}
	} else {
		if err := r.initEmpty(ctx, name); err != nil {
			return err
		}
	}

	if _, err := r.git(ctx, "commit", "-m", InitMessage); err != nil {
		return fmt.Errorf("committing environment %s: %w", name, err)
	}
	return r.push(ctx, name)
}

func (r *Repository) initEmpty(ctx context.Context, name string) error {
	if _, err := r.git(ctx, "checkout", "--orphan", name); err != nil {
		return err
	}
	if _, err := r.git(ctx, "reset", "--hard"); err != nil {
		return err
	}

	manifest := puppetfile.NewEnvironment(name).Render()
	if err := afero.WriteFile(r.fs, ManifestFile, []byte(manifest), filePerm); err != nil {
		return fmt.Errorf("writing %s of environment %s: %w", ManifestFile, name, err)
	}
	if err := r.fs.MkdirAll(path.Dir(SiteManifest), dirPerm); err != nil {
		return fmt.Errorf("creating manifests directory: %w", err)
	}
	if err := afero.WriteFile(r.fs, SiteManifest, []byte(SiteManifestContent), filePerm); err != nil {
		return fmt.Errorf("writing %s of environment %s: %w", SiteManifest, name, err)
	}
	_, err := r.git(ctx, "add", ManifestFile, SiteManifest)
	return err
}

// DeleteEnvironment deletes the environment branch on the remote.
func (r *Repository) DeleteEnvironment(ctx context.Context, name string) error {
	ok, err := r.HasEnvironment(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return &EnvironmentError{Environment: name, Err: ErrEnvironmentNotFound}
	}
	if _, err := r.git(ctx, "push", "origin", ":"+name); err != nil {
		return fmt.Errorf("deleting environment %s: %w", name, err)
	}
	return nil
}

// readManifest checks out branch and returns its manifest text.
func (r *Repository) readManifest(ctx context.Context, branch string) (text string, existed bool, err error) {
	if err := r.checkout(ctx, branch); err != nil {
		return "", false, err
	}
	data, err := afero.ReadFile(r.fs, ManifestFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("environment has no manifest", "environment", branch)
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading %s of environment %s: %w", ManifestFile, branch, err)
	}
	return string(data), true, nil
}

func (r *Repository) checkout(ctx context.Context, branch string) error {
	if _, err := r.git(ctx, "checkout", "--quiet", branch); err != nil {
		return fmt.Errorf("checking out environment %s: %w", branch, err)
	}
	return nil
}

func (r *Repository) push(ctx context.Context, branch string) error {
	if _, err := r.git(ctx, "push", "--quiet", "origin", branch); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &PushRejectedError{Environment: branch, Err: err}
	}
	return nil
}

func (r *Repository) git(ctx context.Context, args ...string) (string, error) {
	return r.exec.Run(ctx, r.workdir, args...)
}
