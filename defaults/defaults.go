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

// Package defaults resolves the nullness default that applies at a declaration by walking its
// chain of enclosing scopes: local class, method, type, enclosing types and finally the package.
package defaults

import (
	"fmt"

	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
)

// Default is the nullness default declared by a scope.
type Default struct {
	// Off is true for a default that cancels the defaults of the enclosing scopes, e.g.,
	// @NonNullByDefault(false) or @NonNullByDefault({}).
	Off bool
	// Locations are the locations a NonNull default applies to.
	Locations annotation.LocationSet
	// Scope is the declaration carrying the default.
	Scope program.Decl
	// Span is the span of the default annotation.
	Span program.Span
}

// Same returns true if both defaults have the same effect.
func (d *Default) Same(o *Default) bool {
	if d.Off || o.Off {
		return d.Off == o.Off
	}
	return d.Locations == o.Locations
}

func (d *Default) String() string {
	if d.Off {
		return "off"
	}
	return "nonnull " + d.Locations.String()
}

// Parse returns the default denoted by a default annotation: no value is a NonNull default for
// every location, "false" or an empty location list turns defaults off, and a location list
// restricts the default to those locations.
func Parse(a *program.Annotation) *Default {
	v, ok := a.Arg("value")
	if !ok || v == "true" {
		return &Default{Locations: annotation.AllLocations, Span: a.Span}
	}
	if v == "false" {
		return &Default{Off: true, Span: a.Span}
	}
	var locs []annotation.Location
	for _, name := range a.ArgValues("value") {
		if l, ok := annotation.ParseLocation(name); ok {
			locs = append(locs, l)
		}
	}
	if len(locs) == 0 {
		return &Default{Off: true, Span: a.Span}
	}
	return &Default{Locations: annotation.NewLocationSet(locs...), Span: a.Span}
}

// Resolver resolves effective defaults. It is built once from the whole program, so that package
// defaults declared in any unit apply regardless of the order units are given in, and it is
// read-only afterwards.
type Resolver struct {
	prog     *program.Program
	declared map[program.Decl]*Default
}

var _ annotation.DefaultProvider = (*Resolver)(nil)

// NewResolver collects the defaults declared on every package, type, method and field.
func NewResolver(prog *program.Program, rec *annotation.Recognizer) *Resolver {
	r := &Resolver{prog: prog, declared: make(map[program.Decl]*Default)}
	declare := func(d program.Decl) {
		for _, a := range d.DeclAnnotations() {
			if rec.IsDefault(a) {
				def := Parse(a)
				def.Scope = d
				r.declared[d] = def
				return
			}
		}
	}
	for _, name := range prog.PackageNames() {
		declare(prog.Package(name))
	}
	for _, t := range prog.Types() {
		declare(t)
		for _, f := range t.Fields {
			declare(f)
		}
		for _, m := range t.Methods {
			declare(m)
		}
	}
	return r
}

// Declared returns the default declared by the scope itself, or nil.
func (r *Resolver) Declared(scope program.Decl) *Default {
	return r.declared[scope]
}

// Effective returns the default that applies within scope: its own, else the nearest enclosing
// one. It returns nil if no scope of the chain declares a default.
func (r *Resolver) Effective(scope program.Decl) *Default {
	for d := scope; d != nil; d = d.Parent() {
		if def, ok := r.declared[d]; ok {
			return def
		}
	}
	return nil
}

// NonNullByDefault implements annotation.DefaultProvider.
func (r *Resolver) NonNullByDefault(scope program.Decl, loc annotation.Location) bool {
	def := r.Effective(scope)
	return def != nil && !def.Off && def.Locations.Has(loc)
}

// Check reports the redundant defaults declared in unit u and, if required, the top-level types
// of u that have no default at all.
func (r *Resolver) Check(u *program.Unit, requireExplicit bool, rep annotation.Reporter) {
	for _, t := range r.prog.Types() {
		if t.Unit() != u {
			continue
		}
		r.checkRedundant(t, rep)
		for _, f := range t.Fields {
			r.checkRedundant(f, rep)
		}
		for _, m := range t.Methods {
			r.checkRedundant(m, rep)
		}
		if requireExplicit && t.EnclosingType() == nil && r.Effective(t) == nil &&
			rep.Enabled(diagnostic.MissingDefaultAnnotationOnScope) {
			rep.Report(diagnostic.MissingDefaultAnnotationOnScope, t.Span,
				fmt.Sprintf("A default nullness annotation has not been specified for the type %s", t.QualifiedName()))
		}
	}
}

func (r *Resolver) checkRedundant(scope program.Decl, rep annotation.Reporter) {
	own := r.Declared(scope)
	if own == nil || !rep.Enabled(diagnostic.RedundantNullnessDefault) {
		return
	}
	inherited := r.Effective(scope.Parent())
	if inherited == nil || !own.Same(inherited) {
		return
	}
	rep.Report(diagnostic.RedundantNullnessDefault, own.Span,
		fmt.Sprintf("Nullness default is redundant with a default specified for the enclosing %s", describe(inherited.Scope)))
}

func describe(d program.Decl) string {
	switch d := d.(type) {
	case *program.Package:
		return "package " + d.DeclName()
	case *program.Type:
		if d.Anonymous {
			return "type " + d.DeclName()
		}
		return "type " + d.QualifiedName()
	case *program.Method:
		return "method " + d.Signature()
	case *program.Field:
		return "field " + d.Name
	}
	return d.DeclName()
}
