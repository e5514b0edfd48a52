// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"crmngr-cli/internal/cache"
	"crmngr-cli/internal/controlrepo"
	"crmngr-cli/internal/forge"
	"crmngr-cli/internal/gitrepo"
	"crmngr-cli/internal/issue"
	"crmngr-cli/internal/latest"
	"crmngr-cli/internal/prompt"
	"crmngr-cli/pkg/filter"
	"crmngr-cli/pkg/puppetfile"
	"crmngr-cli/pkg/reconcile"
)

type (
	// ControlRepository is the part of controlrepo.Repository the service uses.
	ControlRepository interface {
		Branches(ctx context.Context) ([]string, error)
		HasEnvironment(ctx context.Context, env string) (bool, error)
		Load(ctx context.Context, envs filter.Filter, extra ...string) ([]puppetfile.Environment, []controlrepo.Warning, error)
		Stage(ctx context.Context, env puppetfile.Environment) (controlrepo.Diff, error)
		Revert(ctx context.Context, d controlrepo.Diff) error
		Publish(ctx context.Context, d controlrepo.Diff, message string) error
		CreateEnvironment(ctx context.Context, name, template string) error
		DeleteEnvironment(ctx context.Context, name string) error
		Close() error
	}

	// Opener clones the control repository at url.
	Opener func(ctx context.Context, url string) (ControlRepository, error)

	// Registry answers version questions about Forge modules.
	Registry interface {
		reconcile.Registry
	}

	// Repository answers ref questions about git module repositories.
	Repository interface {
		reconcile.Repository
	}

	// Printer shows progress and results to the operator.
	Printer interface {
		Heading(text string)
		Item(text string)
		Success(text string)
		Diff(d controlrepo.Diff)
	}

	// Dependencies are the collaborators of a Service. Nil fields are replaced
	// with production defaults by NewService.
	Dependencies struct {
		Open       Opener
		Registry   Registry
		Repository Repository
		// Cache persists latest-version lookups of reports. Nil disables caching.
		Cache   cache.Store
		Prompt  prompt.Confirmer
		Printer Printer
		Logger  *log.Logger
	}

	// Service runs crmngr operations.
	Service struct {
		open       Opener
		registry   Registry
		repository Repository
		cache      cache.Store
		prompt     prompt.Confirmer
		out        Printer
		logger     *log.Logger
	}
)

// NewService creates a Service from deps.
func NewService(deps Dependencies) *Service {
	s := &Service{
		open:       deps.Open,
		registry:   deps.Registry,
		repository: deps.Repository,
		cache:      deps.Cache,
		prompt:     deps.Prompt,
		out:        deps.Printer,
		logger:     deps.Logger,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.open == nil {
		s.open = CloneOpener(s.logger)
	}
	if s.registry == nil {
		s.registry = forge.NewClient()
	}
	if s.repository == nil {
		s.repository = gitrepo.NewClient(gitrepo.WithLogger(s.logger))
	}
	if s.prompt == nil {
		s.prompt = prompt.NewHuhPrompter(prompt.DefaultConfig())
	}
	if s.out == nil {
		s.out = NewTextPrinter(os.Stdout)
	}
	return s
}

// CloneOpener opens control repositories with controlrepo.Clone.
func CloneOpener(logger *log.Logger, opts ...controlrepo.Option) Opener {
	return func(ctx context.Context, url string) (ControlRepository, error) {
		all := append([]controlrepo.Option{controlrepo.WithLogger(logger)}, opts...)
		return controlrepo.Clone(ctx, url, all...)
	}
}

// latestSource resolves latest versions through store; a nil store disables caching.
func (s *Service) latestSource(store cache.Store) *latest.Source {
	return latest.NewSource(s.registry, s.repository, store, latest.WithLogger(s.logger))
}

// withRepository clones url, runs fn and removes the clone.
func (s *Service) withRepository(ctx context.Context, url string, fn func(ControlRepository) error) (err error) {
	repo, err := s.open(ctx, url)
	if err != nil {
		return issue.WrapWithContext(err, "clone control repository", url)
	}
	defer func() {
		if cerr := repo.Close(); cerr != nil {
			s.logger.Warn("could not remove temporary clone", "err", cerr)
		}
	}()
	return fn(repo)
}

func (s *Service) warnLoad(warnings []controlrepo.Warning) {
	for _, w := range warnings {
		s.logger.Warn("problem loading environment", "environment", w.Environment, "err", w.Err)
	}
}
