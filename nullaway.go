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

// Package nullaway implements the top-level entry point of the checker. It links the compilation
// units handed over by a front end into a program, collects the contracts of all bindings, checks
// every unit and returns the ordered diagnostics.
package nullaway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/nullaway/accumulation"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/program"
)

// Options tunes an analysis; see accumulation.Options.
type Options = accumulation.Options

// Result is the outcome of an analysis; see accumulation.Result.
type Result = accumulation.Result

// Analyze checks the units with the given configuration, the default one if nil. The units must
// not be shared with a concurrent analysis, since linking annotates them in place.
func Analyze(ctx context.Context, units []*program.Unit, cfg *config.Config, opts Options) (*Result, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	prog, err := program.NewProgram(units...)
	if err != nil {
		return nil, fmt.Errorf("link program: %w", err)
	}
	return accumulation.Run(ctx, prog, cfg, opts)
}

// LoadUnits reads the units stored in the files, in order. All unreadable files are reported.
func LoadUnits(paths ...string) ([]*program.Unit, error) {
	var units []*program.Unit
	var errs []error
	for _, path := range paths {
		us, err := program.LoadFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		units = append(units, us...)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return units, nil
}

// Sources maps the file names of the units to their source text, for rendering excerpts. Units
// without source are left out.
func Sources(units []*program.Unit) map[string]string {
	sources := make(map[string]string, len(units))
	for _, u := range units {
		if u.Source != "" {
			sources[u.Filename] = u.Source
		}
	}
	return sources
}
