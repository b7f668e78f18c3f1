//  Copyright (c) 2025 Uber Technologies, Inc.
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

package analysishelper

import (
	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/defaults"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
)

// Shared is the state built by the collection phase over the whole program. It is read-only
// afterwards and shared by the passes of all units, which may run concurrently.
type Shared struct {
	Prog       *program.Program
	Config     *config.Config
	Recognizer *annotation.Recognizer
	Defaults   *defaults.Resolver
	Collector  *annotation.Collector
	// Store holds the contracts of every binding of the program, and the imported contracts of
	// the bindings it does not declare. It is frozen.
	Store *annotation.Store

	policy *diagnostic.Policy
}

// Collect runs the collection phase: it gathers the nullness defaults of every unit, computes the
// contracts of all bindings and merges the upstream contracts, if any. The configuration must be
// valid.
func Collect(prog *program.Program, cfg *config.Config, upstream ...*annotation.Store) (*Shared, error) {
	policy, err := diagnostic.NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	rec := annotation.NewRecognizer(cfg)
	defs := defaults.NewResolver(prog, rec)
	col := annotation.NewCollector(prog, rec, defs, cfg)
	store := col.Collect()
	for _, up := range upstream {
		store.Import(up)
	}
	store.Freeze()
	return &Shared{
		Prog:       prog,
		Config:     cfg,
		Recognizer: rec,
		Defaults:   defs,
		Collector:  col,
		Store:      store,
		policy:     policy,
	}, nil
}

// NewPass creates the pass over unit u, with a fresh diagnostic engine that honors the
// @SuppressWarnings scopes of the unit.
func (s *Shared) NewPass(u *program.Unit) *Pass {
	return &Pass{
		Engine: diagnostic.NewEngine(s.policy, diagnostic.SuppressionRanges(u)),
		Shared: s,
		Unit:   u,
	}
}

// Pass is the context of the analysis of one compilation unit. Pass implements
// annotation.Reporter through its diagnostic engine, which belongs to this pass only.
type Pass struct {
	*diagnostic.Engine
	*Shared

	Unit *program.Unit
}

// Types returns the types declared in the unit, including nested, local and anonymous ones, in
// declaration order.
func (p *Pass) Types() []*program.Type {
	var out []*program.Type
	for _, t := range p.Prog.Types() {
		if t.Unit() == p.Unit {
			out = append(out, t)
		}
	}
	return out
}
