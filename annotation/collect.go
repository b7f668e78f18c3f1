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

package annotation

import (
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
)

// DefaultProvider tells whether a NonNull default applies at a location within a scope.
// defaults.Resolver implements it.
type DefaultProvider interface {
	NonNullByDefault(scope program.Decl, loc Location) bool
}

// Collector computes the effective contracts of declarations from their explicit annotations and
// the applicable defaults.
type Collector struct {
	prog     *program.Program
	rec      *Recognizer
	defaults DefaultProvider
	inherit  bool
}

// NewCollector creates a collector for the program.
func NewCollector(prog *program.Program, rec *Recognizer, defaults DefaultProvider, cfg *config.Config) *Collector {
	return &Collector{prog: prog, rec: rec, defaults: defaults, inherit: cfg.InheritNullAnnotations}
}

// Recognizer returns the recognizer the collector resolves annotations with.
func (c *Collector) Recognizer() *Recognizer {
	return c.rec
}

// Defaultable returns true if defaults apply to a declaration of type t: reference and array
// types, but not primitives, void or type variables.
func Defaultable(t *program.TypeRef) bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case program.ReferenceType, program.ArrayType:
		return true
	}
	return false
}

func (c *Collector) resolve(site Site, scope program.Decl, loc Location, rep Reporter) Val {
	v := c.rec.Resolve(site, rep)
	if len(c.rec.NullAnnotations(site)) > 0 {
		// Explicit, or dropped because it was illegal or contradictory.
		return v
	}
	if Defaultable(site.Type) && c.defaults.NonNullByDefault(scope, loc) {
		return Val{Tag: NonNull, Origin: DefaultInduced}
	}
	return UnspecifiedVal
}

// ParamVal returns the effective contract of parameter p of m, ignoring inherited annotations.
func (c *Collector) ParamVal(m *program.Method, p *program.Param, rep Reporter) Val {
	return c.resolve(Site{Type: p.Type, Annotations: p.Annotations, Span: p.Span}, m, Parameter, rep)
}

// ReturnVal returns the effective return contract of m, ignoring inherited annotations. The
// declaration annotations of a method apply to its return type.
func (c *Collector) ReturnVal(m *program.Method, rep Reporter) Val {
	if m.Constructor {
		return UnspecifiedVal
	}
	return c.resolve(Site{Type: m.Return, Annotations: m.Annotations, Span: m.Span}, m, ReturnType, rep)
}

// FieldVal returns the effective contract of f. Enum constants are implicitly NonNull.
func (c *Collector) FieldVal(f *program.Field, rep Reporter) Val {
	v := c.resolve(Site{Type: f.Type, Annotations: f.Annotations, Span: f.Span}, f, Field, rep)
	if v.Tag == Unspecified && isEnumConstant(f) && len(c.rec.NullAnnotations(Site{Type: f.Type, Annotations: f.Annotations})) == 0 {
		return Val{Tag: NonNull, Origin: DefaultInduced}
	}
	return v
}

func isEnumConstant(f *program.Field) bool {
	owner := f.Owner()
	return owner != nil && owner.Kind == program.EnumKind && f.Static && f.Final &&
		f.Type != nil && f.Type.Name == owner.QualifiedName()
}

// LocalVal returns the explicit contract of a local variable. Defaults never apply to locals,
// whose nullness is tracked by the flow analysis.
func (c *Collector) LocalVal(lv *program.LocalVar, rep Reporter) Val {
	return c.rec.Resolve(Site{Type: lv.Type, Annotations: lv.Annotations, Span: lv.Span}, rep)
}

// MethodContract returns the contract of m, ignoring inherited annotations.
func (c *Collector) MethodContract(m *program.Method, rep Reporter) *MethodContract {
	mc := &MethodContract{
		Declaring: m.Owner().QualifiedName(),
		Signature: m.Signature(),
		Return:    c.ReturnVal(m, rep),
		Static:    m.Static || m.Constructor,
	}
	for _, p := range m.Params {
		mc.ParamNames = append(mc.ParamNames, p.Name)
		mc.Params = append(mc.Params, c.ParamVal(m, p, rep))
	}
	return mc
}

// Collect computes the contracts of every binding of the program. The returned store is frozen
// once imported facts, if any, have been merged by the caller.
func (c *Collector) Collect() *Store {
	store := NewStore()
	for _, t := range c.prog.Types() {
		for _, f := range t.Fields {
			store.SetField(f.Ref().Key(), c.FieldVal(f, nil))
		}
		for _, m := range t.Methods {
			store.SetMethod(m.Key(), c.MethodContract(m, nil))
		}
	}
	if c.inherit {
		c.inheritContracts(store)
	}
	return store
}

// inheritContracts fills the parameters and returns that carry no explicit annotation with the
// contract of the overridden method. Overridden methods are completed first, so that contracts
// are inherited transitively.
func (c *Collector) inheritContracts(store *Store) {
	done := make(map[*program.Method]bool)
	var visit func(m *program.Method)
	visit = func(m *program.Method) {
		if done[m] {
			return
		}
		done[m] = true
		pairs := Affiliations(c.prog, m)
		for _, p := range pairs {
			visit(p.Overridden)
		}
		own, ok := store.Method(m.Key())
		if !ok {
			return
		}
		for i := range own.Params {
			if own.Params[i].IsExplicit() {
				continue
			}
			for _, p := range pairs {
				if sc, ok := store.Method(p.Overridden.Key()); ok && sc.Param(i).Tag != Unspecified {
					own.Params[i] = Val{Tag: sc.Param(i).Tag, Origin: DefaultInduced}
					break
				}
			}
		}
		if !m.Return.IsVoid() && !own.Return.IsExplicit() {
			for _, p := range pairs {
				if sc, ok := store.Method(p.Overridden.Key()); ok && sc.Return.Tag != Unspecified {
					own.Return = Val{Tag: sc.Return.Tag, Origin: DefaultInduced}
					break
				}
			}
		}
	}
	for _, t := range c.prog.Types() {
		for _, m := range t.Methods {
			visit(m)
		}
	}
}

// CheckDeclarations reports the annotation findings of the declarations of unit u: illegal and
// contradictory annotations, and explicit annotations repeating the applicable default.
func (c *Collector) CheckDeclarations(u *program.Unit, rep Reporter) {
	for _, t := range c.prog.Types() {
		if t.Unit() != u {
			continue
		}
		if rep.Enabled(diagnostic.IllegalAnnotationLocation) {
			c.rec.CheckTypeDeclaration(t, rep)
		}
		for _, f := range t.Fields {
			site := Site{Type: f.Type, Annotations: f.Annotations, Span: f.Span}
			c.checkRedundant(site, c.FieldVal(f, rep), f, Field, rep)
			c.checkTypeArguments(f.Type, f, rep)
		}
		for _, m := range t.Methods {
			for _, p := range m.Params {
				site := Site{Type: p.Type, Annotations: p.Annotations, Span: p.Span}
				c.checkRedundant(site, c.ParamVal(m, p, rep), m, Parameter, rep)
				c.checkTypeArguments(p.Type, m, rep)
			}
			if !m.Constructor {
				site := Site{Type: m.Return, Annotations: m.Annotations, Span: m.Span}
				c.checkRedundant(site, c.ReturnVal(m, rep), m, ReturnType, rep)
				c.checkTypeArguments(m.Return, m, rep)
			}
		}
	}
	program.InspectUnit(u, func(n program.Node) bool {
		switch n := n.(type) {
		case *program.LocalVar:
			c.LocalVal(n, rep)
			c.checkTypeArguments(n.Type, nil, rep)
		case *program.Lambda:
			for _, p := range n.Params {
				c.rec.Resolve(Site{Type: p.Type, Annotations: p.Annotations, Span: p.Span}, rep)
				c.checkTypeArguments(p.Type, nil, rep)
			}
		}
		return true
	})
}

// checkTypeArguments checks the null annotations nested in a declared type: on its type arguments
// and array element types, at any depth. With a scope, NonNull type arguments repeating a default
// for type arguments are reported as redundant.
func (c *Collector) checkTypeArguments(t *program.TypeRef, scope program.Decl, rep Reporter) {
	if t == nil {
		return
	}
	for _, arg := range t.Args {
		site := Site{Type: arg, Span: arg.Span}
		v := c.rec.Resolve(site, rep)
		if scope != nil {
			c.checkRedundant(site, v, scope, TypeArgument, rep)
		}
		c.checkTypeArguments(arg, scope, rep)
	}
	if t.Elem != nil {
		c.rec.Resolve(Site{Type: t.Elem, Span: t.Elem.Span}, rep)
		c.checkTypeArguments(t.Elem, scope, rep)
	}
}

func (c *Collector) checkRedundant(site Site, v Val, scope program.Decl, loc Location, rep Reporter) {
	if !v.IsExplicit() || v.Tag != NonNull || !rep.Enabled(diagnostic.RedundantNullnessAnnotation) {
		return
	}
	if !Defaultable(site.Type) || !c.defaults.NonNullByDefault(scope, loc) {
		return
	}
	anns := c.rec.NullAnnotations(site)
	rep.Report(diagnostic.RedundantNullnessAnnotation, spanOf(anns[0], site),
		"The nullness annotation is redundant with a default that applies to this location")
}
