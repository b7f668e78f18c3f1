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

package structfield

import (
	"slices"

	"go.uber.org/nullaway/assertion/function/preprocess"
	"go.uber.org/nullaway/program"
)

// fieldSet holds one bit per candidate field of a FieldContext: true if the field is definitely
// assigned.
type fieldSet []bool

func (s fieldSet) clone() fieldSet {
	return slices.Clone(s)
}

// intersect removes from s the fields not in other, and reports whether s changed.
func (s fieldSet) intersect(other fieldSet) bool {
	changed := false
	for i := range s {
		if s[i] && !other[i] {
			s[i] = false
			changed = true
		}
	}
	return changed
}

func (s fieldSet) fill() {
	for i := range s {
		s[i] = true
	}
}

// FieldContext tracks the definite assignment of the candidate fields of a type: the NonNull
// fields without an initializer, either all static or all instance fields.
type FieldContext struct {
	owner  *program.Type
	static bool
	fields []*program.Field
	index  map[string]int
}

func newFieldContext(owner *program.Type, static bool, fields []*program.Field) *FieldContext {
	fc := &FieldContext{owner: owner, static: static, fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		fc.index[f.Name] = i
	}
	return fc
}

func (fc *FieldContext) empty() fieldSet {
	return make(fieldSet, len(fc.fields))
}

// MustAssign returns the fields definitely assigned when the body of g completes normally, given
// the fields assigned on entry. It returns nil if the body never completes normally. With
// assumeDefault, the edge a switch without default case takes when no case matches is ignored.
func (fc *FieldContext) MustAssign(g *preprocess.CFG, entry fieldSet, assumeDefault bool) fieldSet {
	ins := make([]fieldSet, len(g.Blocks))
	ins[g.Entry.Index] = entry.clone()

	propagate := func(to *preprocess.Block, s fieldSet) bool {
		if ins[to.Index] == nil {
			ins[to.Index] = s.clone()
			return true
		}
		return ins[to.Index].intersect(s)
	}

	for updated := true; updated; {
		updated = false
		for _, b := range g.Blocks {
			in := ins[b.Index]
			if in == nil {
				continue
			}
			out := in.clone()
			for _, n := range b.Nodes {
				fc.assignedIn(n, out)
			}
			if b.Cond != nil {
				fc.assignedIn(b.Cond, out)
			}
			for i, succ := range b.Succs {
				if assumeDefault && b.MissingDefault && i == len(b.Succs)-1 {
					continue
				}
				if propagate(succ, out) {
					updated = true
				}
			}
			// An exception may be raised before any assignment of the block.
			for _, succ := range b.Exceptional {
				if propagate(succ, in) {
					updated = true
				}
			}
		}
	}
	return ins[g.Exit.Index]
}

// assignedIn adds to s the fields assigned by the CFG node n. Compound statements contribute the
// expressions evaluated at the node only; their bodies are nodes of their own.
func (fc *FieldContext) assignedIn(n program.Node, s fieldSet) {
	var root program.Node
	switch n := n.(type) {
	case *program.ExprStmt:
		root = n.X
	case *program.LocalVar:
		root = n.Init
	case *program.Return:
		root = n.X
	case *program.Throw:
		root = n.X
	case *program.ForEach:
		root = n.X
	case *program.Switch:
		root = n.X
	case *program.Synchronized:
		root = n.Lock
	case program.Expr:
		root = n
	}
	if root == nil {
		return
	}
	program.Inspect(root, func(n program.Node) bool {
		switch n := n.(type) {
		case *program.Lambda, *program.Type:
			return false
		case *program.Assign:
			if i, ok := fc.target(n.LHS); ok && n.Op == program.OpAssign {
				s[i] = true
			}
		case *program.Call:
			if !fc.static && fc.delegates(n) {
				s.fill()
			}
		}
		return true
	})
}

// target returns the candidate field assigned through lhs.
func (fc *FieldContext) target(lhs program.Expr) (int, bool) {
	var ref *program.FieldRef
	switch lhs := program.StripCasts(lhs).(type) {
	case *program.Ident:
		ref = lhs.Field
	case *program.FieldAccess:
		if !fc.ownReceiver(lhs.X) {
			return 0, false
		}
		ref = lhs.Field
	}
	if ref == nil || ref.Owner != fc.owner.QualifiedName() {
		return 0, false
	}
	i, ok := fc.index[ref.Name]
	return i, ok
}

// ownReceiver returns true if x denotes the object under construction, or the type itself for
// static fields.
func (fc *FieldContext) ownReceiver(x program.Expr) bool {
	switch x := x.(type) {
	case nil:
		return fc.static
	case *program.This:
		return !fc.static && (x.Qualifier == "" || x.Qualifier == fc.owner.Name)
	case *program.Ident:
		return fc.static && x.Field == nil && x.Name == fc.owner.Name
	}
	return false
}

// delegates returns true for an explicit this(...) constructor call, after which the delegate
// constructor has initialized every field.
func (fc *FieldContext) delegates(c *program.Call) bool {
	if c.Method != nil {
		return c.Method.Constructor && c.Method.Owner == fc.owner.QualifiedName()
	}
	return c.X == nil && c.Name == "this"
}
