// SPDX-License-Identifier: MPL-2.0

package reconcile

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"crmngr-cli/pkg/filter"
	"crmngr-cli/pkg/puppetfile"
)

// DefaultMessage is the commit message used when no update mode changed the environment.
const DefaultMessage = "Update Environment"

// ErrNoLatestVersion is reported when a latest-version lookup produced no usable version.
var ErrNoLatestVersion = errors.New("could not determine latest version")

type (
	// LatestSource looks up the newest available version of a module.
	LatestSource interface {
		Latest(ctx context.Context, m puppetfile.Module) (puppetfile.Version, error)
	}

	// LatestSourceFunc adapts a function to LatestSource.
	LatestSourceFunc func(ctx context.Context, m puppetfile.Module) (puppetfile.Version, error)

	// Engine computes new module sets for environments. Every method works on
	// a copy of its input and never mutates the environments it is given.
	Engine struct {
		latest LatestSource
	}

	// Result is the outcome of one reconciliation pass over one environment.
	Result struct {
		Environment puppetfile.Environment
		Message     string
		Warnings    []Warning
	}

	// Warning is a recoverable per-module failure.
	Warning struct {
		Module string
		Err    error
	}
)

// Latest implements LatestSource.
func (f LatestSourceFunc) Latest(ctx context.Context, m puppetfile.Module) (puppetfile.Version, error) {
	return f(ctx, m)
}

// Error implements the error interface.
func (w Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Module, w.Err)
}

// Unwrap returns the underlying cause.
func (w Warning) Unwrap() error { return w.Err }

// NewEngine creates an engine resolving latest versions through latest.
func NewEngine(latest LatestSource) *Engine {
	return &Engine{latest: latest}
}

// BulkMessage returns the commit message of bulk refresh and bulk remove.
func BulkMessage(env string) string {
	return fmt.Sprintf("Bulk update %s.", env)
}

// ReferenceMessage returns the commit message of a reference copy.
func ReferenceMessage(env, reference string) string {
	return fmt.Sprintf("Update %s based on %s.", env, reference)
}

// BulkRefresh moves every module matching modules to its latest version. A
// failed lookup unpins the module and is reported as a warning; the remaining
// modules are still processed. Only context cancellation aborts the pass.
func (e *Engine) BulkRefresh(ctx context.Context, env puppetfile.Environment, modules filter.Filter) (Result, error) {
	out := env.Clone()
	res := Result{Message: BulkMessage(env.Name)}

	for _, name := range out.ModuleNames() {
		if !modules.Match(name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		m := out.Modules[name]
		v, err := e.latest.Latest(ctx, m)
		if ctxErr := ctx.Err(); err != nil && ctxErr != nil {
			return Result{}, ctxErr
		}
		if err == nil && v.Kind == puppetfile.KindUnknown {
			err = ErrNoLatestVersion
		}

		var updated puppetfile.Module
		if err == nil {
			updated, err = m.WithVersion(&v)
		}
		if err != nil {
			res.Warnings = append(res.Warnings, Warning{Module: name, Err: err})
			updated, _ = m.WithVersion(nil)
		}
		out.Modules[name] = updated
	}

	res.Environment = out
	return res, nil
}

// Pin sets module in env when add is true or a module of the same name is
// already declared. Otherwise env is returned unchanged.
func (e *Engine) Pin(env puppetfile.Environment, module puppetfile.Module, add bool) Result {
	out := env.Clone()
	if _, present := out.Modules[module.Name()]; !add && !present {
		return Result{Environment: out, Message: DefaultMessage}
	}
	out.Modules[module.Name()] = module
	return Result{Environment: out, Message: module.UpdateCommitMessage()}
}

// ReferenceCopy aligns env with reference. Modules present in both take the
// reference's declaration; remove drops modules the reference lacks; add
// inserts reference modules env lacks. With both add and remove the module
// set becomes an exact copy of the reference's.
func (e *Engine) ReferenceCopy(env, reference puppetfile.Environment, add, remove bool) Result {
	res := Result{Message: ReferenceMessage(env.Name, reference.Name)}

	if add && remove {
		out := env.Clone()
		out.Modules = maps.Clone(reference.Modules)
		if out.Modules == nil {
			out.Modules = make(map[string]puppetfile.Module)
		}
		res.Environment = out
		return res
	}

	out := env.Clone()
	for name := range env.Modules {
		ref, ok := reference.Modules[name]
		switch {
		case ok:
			out.Modules[name] = ref
		case remove:
			delete(out.Modules, name)
		}
	}
	if add {
		for name, ref := range reference.Modules {
			if _, ok := out.Modules[name]; !ok {
				out.Modules[name] = ref
			}
		}
	}

	res.Environment = out
	return res
}

// BulkRemove deletes every module matching modules.
func (e *Engine) BulkRemove(env puppetfile.Environment, modules filter.Filter) Result {
	out := env.Clone()
	for name := range env.Modules {
		if modules.Match(name) {
			delete(out.Modules, name)
		}
	}
	return Result{Environment: out, Message: BulkMessage(env.Name)}
}
