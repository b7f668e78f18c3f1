//  Copyright (c) 2023 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package accumulation coordinates the entire workflow: it runs the collection phase over all
// units of the program, then the checks of every unit concurrently, and accumulates the
// diagnostics of the units in a deterministic order.
package accumulation

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/assertion"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
	"go.uber.org/nullaway/util/analysishelper"
	"golang.org/x/sync/errgroup"
)

// Options tunes a run.
type Options struct {
	// Jobs bounds the number of units checked concurrently; GOMAXPROCS if not positive.
	Jobs int
	// Upstream supplies the contracts of library bindings, e.g., read from facts of an earlier
	// run. Bindings declared by the program take precedence.
	Upstream []*annotation.Store
}

// Result is the outcome of a run.
type Result struct {
	// Diagnostics holds the diagnostics of all units, in unit order and sorted within each unit.
	Diagnostics []diagnostic.Diagnostic
	// Store is the frozen contract store of the run, which can be exported as facts.
	Store *annotation.Store
}

// Run is the primary driver function for NullAway's analysis.
//
// It starts off with the collection phase: the defaults of every unit are gathered and the
// contracts of all bindings are computed into the store, which is complete before any check
// starts. This makes the results independent of the order of the units.
//
// It then checks the units concurrently. Each unit has its own diagnostic engine, and the store
// is only read. The failures of a unit (errors and recovered panics) are turned into internal
// error diagnostics of that unit, and do not stop the analysis of the other units.
//
// The returned error is only set for an invalid configuration or a cancelled context.
func Run(ctx context.Context, prog *program.Program, cfg *config.Config, opts Options) (*Result, error) {
	shared, err := analysishelper.Collect(prog, cfg, opts.Upstream...)
	if err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each goroutine writes its own index, so no locking is needed.
	results := make([][]diagnostic.Diagnostic, len(prog.Units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(prog.Units))))
	for i, u := range prog.Units {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = checkUnit(shared, u)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	n := 0
	for _, r := range results {
		n += len(r)
	}
	diags := make([]diagnostic.Diagnostic, 0, n)
	for _, r := range results {
		diags = append(diags, r...)
	}
	return &Result{Diagnostics: diags, Store: shared.Store}, nil
}

// checkUnit runs the checks over the unit and returns its sorted diagnostics.
func checkUnit(shared *analysishelper.Shared, u *program.Unit) []diagnostic.Diagnostic {
	r := assertion.Analyzer.Apply(shared.NewPass(u))
	if r.Err == nil {
		return r.Res
	}

	// For now, if there are any errors in the sub-analyzers, we directly emit a diagnostic on the
	// error next to the diagnostics that were produced.
	diags := append(r.Res, errorToDiagnostic(u, r.Err))
	diagnostic.SortDiagnostics(diags)
	return diags
}

// errorToDiagnostic converts an internal error to a diagnostic at the start of the unit.
func errorToDiagnostic(u *program.Unit, err error) diagnostic.Diagnostic {
	return diagnostic.Diagnostic{
		Kind:     diagnostic.InternalError,
		Severity: diagnostic.SeverityError,
		Span:     program.Span{Filename: u.Filename, Line: 1, Column: 1},
		Message:  fmt.Sprintf("INTERNAL ERROR: %s", err),
	}
}
