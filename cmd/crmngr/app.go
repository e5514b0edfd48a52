// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	appsvc "crmngr-cli/internal/app"
	"crmngr-cli/internal/cache"
	"crmngr-cli/internal/config"
	"crmngr-cli/internal/forge"
	"crmngr-cli/internal/gitrepo"
	"crmngr-cli/internal/prompt"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives an App and
	// delegates to the service it builds.
	App struct {
		Config     config.Provider
		Fs         afero.Fs
		ConfigDir  string
		Prompt     prompt.Prompter
		Open       appsvc.Opener
		Registry   appsvc.Registry
		Repository appsvc.Repository
		stdout     io.Writer
		stderr     io.Writer

		flags   globalFlags
		logger  *log.Logger
		cfg     *config.Config
		profile config.Profile
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config     config.Provider
		Fs         afero.Fs
		ConfigDir  string
		Prompt     prompt.Prompter
		Open       appsvc.Opener
		Registry   appsvc.Registry
		Repository appsvc.Repository
		Stdout     io.Writer
		Stderr     io.Writer
	}

	globalFlags struct {
		profile  string
		cacheTTL int
		debug    bool
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	a := &App{
		Config:     deps.Config,
		Fs:         deps.Fs,
		ConfigDir:  deps.ConfigDir,
		Prompt:     deps.Prompt,
		Open:       deps.Open,
		Registry:   deps.Registry,
		Repository: deps.Repository,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
		logger:     log.New(io.Discard),
	}
	if a.Config == nil {
		a.Config = config.NewProvider()
	}
	if a.Fs == nil {
		a.Fs = afero.NewOsFs()
	}
	if a.Prompt == nil {
		a.Prompt = prompt.NewHuhPrompter(prompt.DefaultConfig())
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	return a
}

// setup configures logging, loads the configuration and selects the profile.
// It runs before every command.
func (a *App) setup(cmd *cobra.Command) error {
	a.logger = log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName})
	if a.flags.debug {
		a.logger.SetLevel(log.DebugLevel)
		a.logger.SetReportTimestamp(true)
	}

	ctx := cmd.Context()
	opts := config.LoadOptions{ConfigDirPath: a.ConfigDir, Fs: a.Fs}
	cfg, err := a.Config.Load(ctx, opts)
	if err != nil {
		return a.handleError(cmd, err)
	}

	if !cfg.HasProfiles() {
		created, err := a.firstRun(ctx, cfg.Dir)
		if err != nil {
			return a.handleError(cmd, err)
		}
		if !created {
			cmd.SilenceErrors = true
			cmd.SilenceUsage = true
			return &ExitError{Code: 0}
		}
		if cfg, err = a.Config.Load(ctx, opts); err != nil {
			return a.handleError(cmd, err)
		}
	}

	profile, err := cfg.Profile(a.flags.profile)
	if err != nil {
		return a.handleError(cmd, err)
	}
	a.cfg, a.profile = cfg, profile
	a.logger.Debug("using profile", "profile", profile.Name, "repository", profile.Repository)
	return nil
}

// firstRun asks for the control repository of the default profile. It
// reports false when the operator left the URL empty.
func (a *App) firstRun(ctx context.Context, dir string) (bool, error) {
	fmt.Fprintln(a.stderr, "No valid profile file found!")
	fmt.Fprintln(a.stderr, "Enter git url of control repository to create one.")
	fmt.Fprintln(a.stderr, "Leave empty to abort")
	fmt.Fprintln(a.stderr)

	url, err := a.Prompt.Input(ctx, "Control repository url:")
	if err != nil {
		return false, err
	}
	if url == "" {
		return false, nil
	}
	if err := config.CreateDefaultProfile(a.Fs, dir, url); err != nil {
		return false, err
	}
	return true, nil
}

// cacheTTL returns the --cache-ttl override or the configured TTL.
func (a *App) cacheTTL() time.Duration {
	if a.flags.cacheTTL > 0 {
		return time.Duration(a.flags.cacheTTL) * time.Second
	}
	return a.cfg.Prefs.CacheTTLDuration()
}

// versionCache opens the persistent version cache.
func (a *App) versionCache() *cache.JSONCache {
	return cache.NewJSONCache(a.Fs, a.cfg.CacheDir(),
		cache.WithTTL(a.cacheTTL()),
		cache.WithLogger(a.logger),
	)
}

// service builds the operation service for the selected profile.
func (a *App) service() *appsvc.Service {
	registry := a.Registry
	if registry == nil {
		registry = forge.NewClient(forge.WithUserAgent(config.AppName + "/" + Version))
	}
	repository := a.Repository
	if repository == nil {
		repository = gitrepo.NewClient(gitrepo.WithLogger(a.logger))
	}
	return appsvc.NewService(appsvc.Dependencies{
		Open:       a.Open,
		Registry:   registry,
		Repository: repository,
		Cache:      a.versionCache(),
		Prompt:     a.Prompt,
		Printer:    newStyledPrinter(a.stdout),
		Logger:     a.logger,
	})
}
