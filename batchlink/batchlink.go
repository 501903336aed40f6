// Package batchlink exercises the guarantee that link.VerifyModule is safe
// to call concurrently on disjoint inputs: VerifyAll fans a batch of
// modules out across goroutines, all checked against the same shared,
// read-only dependency set, and collects one result per module.
package batchlink

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/glyphlang/glyph/bytecode"
	"github.com/glyphlang/glyph/bytecode/link"
)

// Result is one module's verification outcome. Err is nil iff module linked
// cleanly against dependencies.
type Result struct {
	Module *bytecode.CompiledModule
	Err    error
}

// VerifyAll verifies every module in modules against the same dependencies
// slice, running up to len(modules) checks concurrently. dependencies is
// read-only for the duration of the call and never mutated by any worker.
//
// Results are returned in the same order as modules, regardless of which
// goroutine finishes first. VerifyAll itself never fails: a module's own
// link error is reported in its Result, not returned as the call's error.
// The only error VerifyAll returns is ctx.Err(), if ctx is canceled before
// every worker finishes.
func VerifyAll(ctx context.Context, modules []*bytecode.CompiledModule, dependencies []*bytecode.CompiledModule) ([]Result, error) {
	results := make([]Result, len(modules))

	g, ctx := errgroup.WithContext(ctx)
	for i, m := range modules {
		i, m := i, m
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = Result{Module: m, Err: link.VerifyModule(m, dependencies)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
