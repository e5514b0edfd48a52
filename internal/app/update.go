// SPDX-License-Identifier: MPL-2.0

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"crmngr-cli/internal/cache"
	"crmngr-cli/internal/controlrepo"
	"crmngr-cli/internal/prompt"
	"crmngr-cli/pkg/filter"
	"crmngr-cli/pkg/puppetfile"
	"crmngr-cli/pkg/reconcile"
)

// updateCacheDir is the directory of the per-run cache of bulk updates.
const updateCacheDir = "crmngr_update_cache"

type (
	// UpdateRequest selects environments and the way their manifests change.
	//
	// The mode is chosen in this order: Reference copies from another
	// environment, Pin (without Remove) sets a single module, Remove deletes
	// the modules matched by Modules, and otherwise every matched module is
	// refreshed to its latest version.
	UpdateRequest struct {
		Environments filter.Filter
		Modules      filter.Filter
		Reference    string
		Pin          *reconcile.PinRequest
		Add          bool
		Remove       bool
		// DryRun shows the diff of every environment and reverts it.
		DryRun bool
		// NonInteractive publishes without showing diffs or asking.
		NonInteractive bool
	}

	// UpdateSummary counts what happened to the processed environments.
	UpdateSummary struct {
		Published []string
		Skipped   []string
		Unchanged []string
	}
)

// Update applies req to every matched environment of the control repository
// at url. Each changed manifest is shown, confirmed, committed and pushed
// before the next environment is processed.
func (s *Service) Update(ctx context.Context, url string, req UpdateRequest) (UpdateSummary, error) {
	var summary UpdateSummary
	err := s.withRepository(ctx, url, func(repo ControlRepository) error {
		var extra []string
		if req.Reference != "" {
			extra = append(extra, req.Reference)
		}
		envs, warnings, err := repo.Load(ctx, req.Environments, extra...)
		s.warnLoad(warnings)
		if err != nil {
			return err
		}

		apply, err := s.updateMode(ctx, req, envs)
		if err != nil {
			return err
		}

		processed := 0
		for _, env := range envs {
			if req.Reference != "" && env.Name == req.Reference {
				continue
			}
			processed++

			res, err := apply(env)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				s.logger.Warn("could not determine latest version", "environment", env.Name, "module", w.Module, "err", w.Err)
			}
			if err := s.write(ctx, repo, res, req, &summary); err != nil {
				return err
			}
		}
		if processed == 0 {
			return controlrepo.ErrNoEnvironment
		}
		return nil
	})
	return summary, err
}

// updateMode picks the reconciliation pass req asks for.
func (s *Service) updateMode(ctx context.Context, req UpdateRequest, envs []puppetfile.Environment) (func(puppetfile.Environment) (reconcile.Result, error), error) {
	switch {
	case req.Reference != "":
		reference, ok := puppetfile.FindEnvironment(envs, req.Reference)
		if !ok {
			return nil, &controlrepo.EnvironmentError{Environment: req.Reference, Err: controlrepo.ErrEnvironmentNotFound}
		}
		engine := reconcile.NewEngine(nil)
		return func(env puppetfile.Environment) (reconcile.Result, error) {
			return engine.ReferenceCopy(env, reference, req.Add, req.Remove), nil
		}, nil

	case req.Pin != nil && !req.Remove:
		module, err := reconcile.NewResolver(s.registry, s.repository).Resolve(ctx, *req.Pin, envs)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("resolved pin", "module", module.Key())
		engine := reconcile.NewEngine(nil)
		return func(env puppetfile.Environment) (reconcile.Result, error) {
			return engine.Pin(env, module, req.Add), nil
		}, nil

	case req.Remove:
		engine := reconcile.NewEngine(nil)
		return func(env puppetfile.Environment) (reconcile.Result, error) {
			return engine.BulkRemove(env, req.Modules), nil
		}, nil

	default:
		// Lookups are shared between the environments of one run but never
		// outlive it, so a bulk update always sees fresh versions.
		store := cache.NewJSONCache(afero.NewMemMapFs(), updateCacheDir, cache.WithLogger(s.logger))
		engine := reconcile.NewEngine(s.latestSource(store))
		return func(env puppetfile.Environment) (reconcile.Result, error) {
			return engine.BulkRefresh(ctx, env, req.Modules)
		}, nil
	}
}

// write stages the reconciled manifest and then reverts or publishes it.
func (s *Service) write(ctx context.Context, repo ControlRepository, res reconcile.Result, req UpdateRequest, summary *UpdateSummary) error {
	name := res.Environment.Name
	d, err := repo.Stage(ctx, res.Environment)
	if err != nil {
		return err
	}
	if !d.Changed() {
		s.logger.Debug("manifest unchanged", "environment", name)
		summary.Unchanged = append(summary.Unchanged, name)
		return nil
	}

	if !req.NonInteractive {
		s.out.Heading(fmt.Sprintf("Diff for environment %s:", name))
		s.out.Diff(d)
	}
	if req.DryRun {
		summary.Skipped = append(summary.Skipped, name)
		return repo.Revert(ctx, d)
	}

	if !req.NonInteractive {
		ok, err := s.prompt.Confirm(ctx, fmt.Sprintf("Update (commit and push) Puppetfile for environment %s", name), true)
		if err != nil {
			return errors.Join(err, repo.Revert(ctx, d))
		}
		if !ok {
			summary.Skipped = append(summary.Skipped, name)
			return repo.Revert(ctx, d)
		}
	}

	if err := repo.Publish(ctx, d, res.Message); err != nil {
		return err
	}
	summary.Published = append(summary.Published, name)
	s.out.Success(fmt.Sprintf("Updated environment %s", name))
	return nil
}

// IsAborted reports whether err comes from the operator cancelling a prompt.
func IsAborted(err error) bool {
	return errors.Is(err, prompt.ErrAborted)
}
