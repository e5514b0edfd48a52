// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"crmngr-cli/internal/cache"
	"crmngr-cli/internal/controlrepo"
	"crmngr-cli/pkg/filter"
	"crmngr-cli/pkg/report"
)

type (
	// CreateRequest describes a new environment.
	CreateRequest struct {
		Name string
		// Template is the environment to copy; empty creates an empty environment.
		Template string
		// Report, when set, is used to report on a copied environment.
		Report *report.Options
	}

	// ClearableCache is a cache that can be emptied and measured.
	ClearableCache interface {
		Clear() error
		Usage() (cache.Usage, error)
	}
)

// Report aggregates the environments of the control repository at url.
// Latest versions are looked up through the persistent cache.
func (s *Service) Report(ctx context.Context, url string, opts report.Options) (report.Report, error) {
	var rep report.Report
	err := s.withRepository(ctx, url, func(repo ControlRepository) error {
		var err error
		rep, err = s.report(ctx, repo, opts)
		return err
	})
	return rep, err
}

func (s *Service) report(ctx context.Context, repo ControlRepository, opts report.Options) (report.Report, error) {
	envs, warnings, err := repo.Load(ctx, opts.EnvironmentFilter)
	s.warnLoad(warnings)
	if err != nil {
		return report.Report{}, err
	}
	return report.Generate(ctx, envs, opts, s.latestSource(s.cache))
}

// Create creates the environment described by req and pushes it. For copied
// environments it returns a report of the new environment when req.Report is set.
func (s *Service) Create(ctx context.Context, url string, req CreateRequest) (*report.Report, error) {
	var rep *report.Report
	err := s.withRepository(ctx, url, func(repo ControlRepository) error {
		if err := repo.CreateEnvironment(ctx, req.Name, req.Template); err != nil {
			return err
		}
		if req.Template == "" {
			s.out.Success(fmt.Sprintf("Created new empty environment %s", req.Name))
			return nil
		}
		s.out.Success(fmt.Sprintf("Created environment %s from %s", req.Name, req.Template))
		if req.Report == nil {
			return nil
		}

		opts := *req.Report
		opts.EnvironmentFilter = filter.Filter{req.Name}
		r, err := s.report(ctx, repo, opts)
		if err != nil {
			return err
		}
		rep = &r
		return nil
	})
	return rep, err
}

// Delete removes the environment name after confirmation. It reports
// whether the environment was deleted.
func (s *Service) Delete(ctx context.Context, url, name string) (bool, error) {
	deleted := false
	err := s.withRepository(ctx, url, func(repo ControlRepository) error {
		ok, err := repo.HasEnvironment(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", controlrepo.ErrNoEnvironment, name)
		}

		question := fmt.Sprintf("Really delete environment %s? This is a irreversible operation!", name)
		if ok, err = s.prompt.Confirm(ctx, question, false); err != nil || !ok {
			return err
		}
		if err := repo.DeleteEnvironment(ctx, name); err != nil {
			return err
		}
		deleted = true
		s.out.Success(fmt.Sprintf("Deleted environment %s", name))
		return nil
	})
	return deleted, err
}

// Environments returns the environment names of the control repository at url, sorted.
func (s *Service) Environments(ctx context.Context, url string) ([]string, error) {
	var names []string
	err := s.withRepository(ctx, url, func(repo ControlRepository) error {
		branches, err := repo.Branches(ctx)
		if err != nil {
			return err
		}
		names = slices.Sorted(slices.Values(branches))
		return nil
	})
	return names, err
}

// Clean empties c after confirmation and returns what was removed.
// The zero Usage and false are returned when the operator declined.
func (s *Service) Clean(ctx context.Context, c ClearableCache) (cache.Usage, bool, error) {
	ok, err := s.prompt.Confirm(ctx, "Really clear cache directory?", true)
	if err != nil || !ok {
		return cache.Usage{}, false, err
	}

	usage, err := c.Usage()
	if err != nil {
		s.logger.Debug("could not measure cache", "err", err)
	}
	if err := c.Clear(); err != nil {
		return cache.Usage{}, false, err
	}
	return usage, true, nil
}

// IsNoEnvironment reports whether err means no environment matched.
func IsNoEnvironment(err error) bool {
	return errors.Is(err, controlrepo.ErrNoEnvironment) || errors.Is(err, report.ErrNoEnvironment)
}
