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

// Package flow implements the flow-sensitive nullness analysis of method, constructor and
// initializer bodies. Each body is analyzed on its own CFG: the states of the tracked variables are
// propagated forward to a fixed point, and the diagnostics are reported in a final pass over the
// converged states, once per program point.
package flow

import (
	"fmt"

	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/assertion/function/preprocess"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
)

// Analyzer checks bodies against the contracts of the store. It keeps no per-body state, so one
// Analyzer may be shared by concurrent analyses.
type Analyzer struct {
	prog      *program.Program
	store     *annotation.Store
	col       *annotation.Collector
	syntactic bool
}

// New returns an Analyzer reading contracts from the (frozen) store, and declared contracts of
// local variables through the collector.
func New(prog *program.Program, store *annotation.Store, col *annotation.Collector, cfg *config.Config) *Analyzer {
	return &Analyzer{prog: prog, store: store, col: col, syntactic: cfg.SyntacticFieldAnalysis}
}

// Method analyzes the body of a method or constructor, if it has one.
func (a *Analyzer) Method(m *program.Method, rep annotation.Reporter) {
	if m.Body == nil {
		return
	}
	f := a.newFn(preprocess.Build(m.Body), resolveLocals(m.Params, m.Body), rep)
	c, ok := a.store.Method(m.Key())
	for i, p := range m.Params {
		slot := f.vars.slot(f.locals.key(p, p.Name))
		f.params = append(f.params, slot)
		f.typeNames[slot] = p.Type.SimpleName()
		if ok {
			f.decls[slot] = c.Param(i)
		}
	}
	if ok && !m.Constructor && !m.Return.IsVoid() {
		f.ret, f.retType = c.Return, m.Return
	}
	f.run()
}

// Initializer analyzes an initializer block.
func (a *Analyzer) Initializer(init *program.Initializer, rep annotation.Reporter) {
	if init.Body == nil {
		return
	}
	a.newFn(preprocess.Build(init.Body), resolveLocals(nil, init.Body), rep).run()
}

// FieldInit checks the initializer expression of a field against the contract of the field.
func (a *Analyzer) FieldInit(fld *program.Field, rep annotation.Reporter) {
	if fld.Init == nil {
		return
	}
	f := a.newFn(nil, newLocals(), rep)
	f.rep = newReporter(rep)
	s := &state{}
	v := f.eval(fld.Init, s)
	if want, ok := a.store.Field(fld.Ref().Key()); ok {
		f.checkSink(v, want, fld.Type.SimpleName(), fld.Init.Pos())
	}
}

// fn is the analysis of one body.
type fn struct {
	a     *Analyzer
	graph  *preprocess.CFG
	vars   *vars
	locals *locals
	// decls are the declared contracts of the parameters and local variables.
	decls     map[uint32]annotation.Val
	typeNames map[uint32]string
	params    []uint32
	// ret is the return contract; retType is nil for constructors and void methods.
	ret     annotation.Val
	retType *program.TypeRef
	// catchParams are the parameters of catch clauses, declared without an initializer.
	catchParams map[*program.LocalVar]bool
	// rep is nil while the fixed point is computed.
	rep *reporter
	// silent suppresses the comparison diagnostics of trusted conditions.
	silent bool
	// reportTo receives the diagnostics of the final pass.
	reportTo annotation.Reporter
}

func (a *Analyzer) newFn(g *preprocess.CFG, loc *locals, rep annotation.Reporter) *fn {
	f := &fn{
		a:           a,
		graph:       g,
		vars:        newVars(),
		locals:      loc,
		decls:       make(map[uint32]annotation.Val),
		typeNames:   make(map[uint32]string),
		catchParams: make(map[*program.LocalVar]bool),
		reportTo:    rep,
	}
	if g == nil {
		return f
	}
	for _, b := range g.Blocks {
		for i, n := range b.Nodes {
			if n, ok := n.(*program.LocalVar); ok {
				if b.Kind == preprocess.KindCatch && i == 0 {
					f.catchParams[n] = true
				}
				slot := f.localSlot(n)
				f.decls[slot] = a.col.LocalVal(n, nil)
				f.typeNames[slot] = n.Type.SimpleName()
			}
		}
	}
	return f
}

// entryState returns the states of the parameters at entry: NonNull parameters are protected, all
// others are Unknown.
func (f *fn) entryState() *state {
	s := &state{}
	for _, slot := range f.params {
		if f.decls[slot].IsNonNull() {
			s.set(slot, ProtectedNonNull)
		}
	}
	return s
}

// blockOut is the result of the transfer of a block.
type blockOut struct {
	// out is the state after the nodes of the block.
	out *state
	// onTrue and onFalse are the states on the two branches of the condition, if any.
	onTrue, onFalse *state
}

// edge returns the state flowing from the block into its i-th normal successor.
func (o blockOut) edge(b *preprocess.Block, i int) *state {
	if b.Cond == nil {
		return o.out
	}
	if i == 0 {
		return o.onTrue
	}
	return o.onFalse
}

func (f *fn) run() {
	blocks := f.graph.Blocks
	ins := make([]*state, len(blocks))
	outs := make([]blockOut, len(blocks))
	changes := make([]int, len(blocks))
	order := reversePostorder(f.graph)

	inState := func(b *preprocess.Block) *state {
		var in *state
		if b == f.graph.Entry {
			in = f.entryState()
		}
		for _, p := range b.Preds {
			o := outs[p.Index]
			for i, succ := range p.Succs {
				if succ == b {
					in = merge(in, o.edge(p, i))
				}
			}
			for _, succ := range p.Exceptional {
				if succ == b && ins[p.Index] != nil {
					// An exception may be thrown before or after the effects of the block.
					in = merge(in, merge(ins[p.Index], o.out))
				}
			}
		}
		return in
	}

	roundCount := 0
	for updated := true; updated; {
		updated = false
		roundCount++
		for _, b := range order {
			in := inState(b)
			if in == nil {
				continue
			}
			if prev := ins[b.Index]; prev != nil {
				in = merge(prev, in)
				if in.equal(prev) {
					continue
				}
				changes[b.Index]++
				if changes[b.Index] > config.StableRoundLimit {
					in = widenInto(prev, in)
				}
			}
			ins[b.Index] = in
			outs[b.Index] = f.transferBlock(b, in)
			updated = true
		}
		checkFixedPointRuntime(roundCount, len(blocks))
	}

	// Report once per program point from the converged states.
	f.rep = newReporter(f.reportTo)
	for _, b := range order {
		if ins[b.Index] != nil {
			f.transferBlock(b, ins[b.Index])
		}
	}
}

// checkFixedPointRuntime panics if the fixed point computation does not converge within the bound
// implied by the height of the lattice and the widening limit.
func checkFixedPointRuntime(rounds, blocks int) {
	if limit := (config.StableRoundLimit + 5) * (blocks + 1); rounds > limit {
		panic(fmt.Sprintf("flow analysis did not converge after %d rounds over %d blocks", rounds, blocks))
	}
}

// reversePostorder returns the blocks in reverse postorder from the entry, so that every block but
// the loop heads is visited after its predecessors.
func reversePostorder(g *preprocess.CFG) []*preprocess.Block {
	visited := make([]bool, len(g.Blocks))
	post := make([]*preprocess.Block, 0, len(g.Blocks))
	var visit func(b *preprocess.Block)
	visit = func(b *preprocess.Block) {
		visited[b.Index] = true
		for _, succs := range [][]*preprocess.Block{b.Succs, b.Exceptional} {
			for _, s := range succs {
				if !visited[s.Index] {
					visit(s)
				}
			}
		}
		post = append(post, b)
	}
	visit(g.Entry)
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

func (f *fn) transferBlock(b *preprocess.Block, in *state) blockOut {
	s := in.copy()
	for _, n := range b.Nodes {
		f.transferNode(n, s)
	}
	if b.Cond == nil {
		return blockOut{out: s}
	}
	f.silent = b.Trusted
	t, fl := f.cond(b.Cond, s)
	f.silent = false
	return blockOut{out: s, onTrue: t, onFalse: fl}
}

func (f *fn) transferNode(n program.Node, s *state) {
	switch n := n.(type) {
	case *program.ExprStmt:
		f.eval(n.X, s)
	case *program.LocalVar:
		slot := f.localSlot(n)
		switch {
		case n.Init != nil:
			v := f.eval(n.Init, s)
			f.checkSink(v, f.decls[slot], n.Type.SimpleName(), n.Init.Pos())
			s.set(slot, v.settled())
		case f.catchParams[n]:
			s.set(slot, DefinitelyNonNull)
		default:
			s.set(slot, Unknown)
		}
	case *program.Return:
		if n.X == nil {
			break
		}
		v := f.eval(n.X, s)
		if f.retType != nil {
			f.checkSink(v, f.ret, f.retType.SimpleName(), n.X.Pos())
		}
	case *program.Throw:
		f.deref(f.eval(n.X, s), n.X, s)
	case *program.ForEach:
		f.deref(f.eval(n.X, s), n.X, s)
	case *program.Switch:
		f.deref(f.eval(n.X, s), n.X, s)
	case *program.Synchronized:
		f.deref(f.eval(n.Lock, s), n.Lock, s)
	case *program.Empty:
	default:
		panic(fmt.Sprintf("unexpected CFG node %T", n))
	}
	if f.a.syntactic {
		s.expireFields(f.vars)
	}
}

// reporter forwards the diagnostics of the final pass, dropping the duplicates reported from the
// copies of finally blocks.
type reporter struct {
	rep  annotation.Reporter
	seen map[string]bool
}

func newReporter(rep annotation.Reporter) *reporter {
	return &reporter{rep: rep, seen: make(map[string]bool)}
}

func (r *reporter) report(k diagnostic.Kind, span program.Span, msg string) {
	if r.rep == nil || !r.rep.Enabled(k) {
		return
	}
	key := fmt.Sprintf("%d|%s|%d|%s", k, span.Filename, span.Offset, msg)
	if r.seen[key] {
		return
	}
	r.seen[key] = true
	r.rep.Report(k, span, msg)
}

// localSlot returns the slot of a local variable declaration.
func (f *fn) localSlot(v *program.LocalVar) uint32 {
	return f.vars.slot(f.locals.key(v, v.Name))
}
