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

// Package override checks that methods overriding or implementing inherited methods keep the
// nullness contracts of the methods they override, and that a type inheriting several
// implementations of one method can satisfy all of their contracts at once.
package override

import (
	"fmt"
	"strings"

	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
)

// Checker checks the overriding relations of the types of a program. It only reads the contract
// store, which must be complete before checking starts.
type Checker struct {
	prog  *program.Program
	store *annotation.Store
}

// New returns a checker over the given program and contract store.
func New(prog *program.Program, store *annotation.Store) *Checker {
	return &Checker{prog: prog, store: store}
}

// inherited is a contract of a method overridden by the checked method.
type inherited struct {
	declaring string
	contract  *annotation.MethodContract
}

// CheckUnit checks every type declared in unit u, including local and anonymous classes.
func (c *Checker) CheckUnit(u *program.Unit, rep annotation.Reporter) {
	for _, t := range c.prog.Types() {
		if t.Unit() != u {
			continue
		}
		for _, m := range t.Methods {
			c.checkMethod(m, rep)
		}
		if rep.Enabled(diagnostic.IncompatibleInheritedContracts) {
			c.checkInherited(t, rep)
		}
	}
}

// overridden returns the contracts m immediately overrides. Supertypes outside the program are
// looked up in the store, which may hold contracts imported from library facts.
func (c *Checker) overridden(m *program.Method) []inherited {
	if !annotation.Overridable(m) {
		return nil
	}
	var out []inherited
	for _, p := range annotation.Affiliations(c.prog, m) {
		if sc, ok := c.store.Method(p.Overridden.Key()); ok {
			out = append(out, inherited{declaring: p.Overridden.Owner().QualifiedName(), contract: sc})
		}
	}
	for _, st := range m.Owner().Supertypes() {
		if c.prog.Type(st) != nil {
			continue
		}
		if sc, ok := c.store.Method(st + "#" + m.Descriptor()); ok && !sc.Static {
			out = append(out, inherited{declaring: st, contract: sc})
		}
	}
	return out
}

func (c *Checker) checkMethod(m *program.Method, rep annotation.Reporter) {
	own, ok := c.store.Method(m.Key())
	if !ok {
		return
	}
	for _, s := range c.overridden(m) {
		from := program.SimpleName(s.declaring)
		for i, p := range m.Params {
			c.checkParam(p, own.Param(i), s.contract.Param(i), from, rep)
		}
		if m.Return.IsVoid() {
			continue
		}
		if s.contract.Return.Tag == annotation.NonNull && own.Return.Tag != annotation.NonNull &&
			rep.Enabled(diagnostic.IncompatibleReturnNullness) {
			rep.Report(diagnostic.IncompatibleReturnNullness, returnSpan(m),
				fmt.Sprintf("The return type is incompatible with '@NonNull %s' returned from %s.%s (mismatching null constraints)",
					m.Return, from, s.contract.Signature))
		}
	}
}

func (c *Checker) checkParam(p *program.Param, own, super annotation.Val, from string, rep annotation.Reporter) {
	switch {
	case own.Tag == annotation.NonNull && super.Tag == annotation.Nullable:
		if rep.Enabled(diagnostic.IllegalParameterRedefinition) {
			rep.Report(diagnostic.IllegalParameterRedefinition, p.Span,
				fmt.Sprintf("Illegal redefinition of parameter %s, inherited method from %s declares this parameter as @Nullable", p.Name, from))
		}
	case own.Tag == annotation.NonNull && super.Tag == annotation.Unspecified:
		if rep.Enabled(diagnostic.IllegalParameterRedefinition) {
			rep.Report(diagnostic.IllegalParameterRedefinition, p.Span,
				fmt.Sprintf("Illegal redefinition of parameter %s, inherited method from %s does not constrain this parameter", p.Name, from))
		}
	case own.Tag == annotation.Unspecified && super.Tag == annotation.NonNull:
		if rep.Enabled(diagnostic.MissingNonNullParameterAnnotation) {
			rep.Report(diagnostic.MissingNonNullParameterAnnotation, p.Span,
				fmt.Sprintf("Missing non-null annotation: inherited method from %s specifies this parameter as @NonNull", from))
		}
	}
}

func returnSpan(m *program.Method) program.Span {
	if m.Return != nil && m.Return.Span.IsValid() {
		return m.Return.Span
	}
	return m.Span
}

// checkInherited reports the methods t inherits from several supertypes without overriding them,
// when the implementation t inherits cannot satisfy the weakest common contract of all of them.
func (c *Checker) checkInherited(t *program.Type, rep annotation.Reporter) {
	annotation.InheritedMethods(c.prog, t).OrderedRange(func(_ string, ms []*program.Method) bool {
		if len(ms) < 2 {
			return true
		}
		var impls []*program.Method
		contracts := make([]*annotation.MethodContract, 0, len(ms))
		for _, m := range ms {
			if sc, ok := c.store.Method(m.Key()); ok {
				impls = append(impls, m)
				contracts = append(contracts, sc)
			}
		}
		if len(contracts) < 2 || allSame(contracts) {
			return true
		}
		weakest := WeakestCommonContract(contracts)
		for i, impl := range contracts {
			// Abstract methods leave the contract to the subtypes.
			if impls[i].Body == nil || satisfies(impl, weakest) {
				continue
			}
			var others []string
			for _, sc := range contracts {
				if sc != impl && !sameContract(sc, impl) {
					others = append(others, program.SimpleName(sc.Declaring))
				}
			}
			rep.Report(diagnostic.IncompatibleInheritedContracts, t.Span,
				fmt.Sprintf("The method %s inherited from %s cannot satisfy the null contracts inherited from %s in %s",
					impl.Signature, program.SimpleName(impl.Declaring), strings.Join(others, ", "), t.DeclName()))
		}
		return true
	})
}

// WeakestCommonContract returns the contract that satisfies each of the given contracts: every
// parameter takes the most permissive constraint, and the return takes the strictest one.
func WeakestCommonContract(contracts []*annotation.MethodContract) *annotation.MethodContract {
	out := &annotation.MethodContract{}
	n := 0
	for _, c := range contracts {
		n = max(n, len(c.Params))
	}
	out.Params = make([]annotation.Val, n)
	for i := range n {
		tag := annotation.NonNull
		for _, c := range contracts {
			switch c.Param(i).Tag {
			case annotation.Nullable:
				tag = annotation.Nullable
			case annotation.Unspecified:
				if tag == annotation.NonNull {
					tag = annotation.Unspecified
				}
			}
		}
		out.Params[i] = annotation.Val{Tag: tag, Origin: annotation.DefaultInduced}
	}

	ret := annotation.Nullable
	for _, c := range contracts {
		switch c.Return.Tag {
		case annotation.NonNull:
			ret = annotation.NonNull
		case annotation.Unspecified:
			if ret == annotation.Nullable {
				ret = annotation.Unspecified
			}
		}
	}
	out.Return = annotation.Val{Tag: ret, Origin: annotation.DefaultInduced}
	return out
}

// satisfies returns true if a method with contract c could override a method with contract want
// without violating it.
func satisfies(c, want *annotation.MethodContract) bool {
	for i, w := range want.Params {
		if permissiveness(c.Param(i).Tag) < permissiveness(w.Tag) {
			return false
		}
	}
	return want.Return.Tag != annotation.NonNull || c.Return.Tag == annotation.NonNull
}

// permissiveness orders parameter constraints by the values they accept.
func permissiveness(t annotation.NullTag) int {
	switch t {
	case annotation.NonNull:
		return 0
	case annotation.Unspecified:
		return 1
	default:
		return 2
	}
}

func sameContract(a, b *annotation.MethodContract) bool {
	if len(a.Params) != len(b.Params) || a.Return.Tag != b.Return.Tag {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Tag != b.Params[i].Tag {
			return false
		}
	}
	return true
}

func allSame(contracts []*annotation.MethodContract) bool {
	for _, c := range contracts[1:] {
		if !sameContract(contracts[0], c) {
			return false
		}
	}
	return true
}
