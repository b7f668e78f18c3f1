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

package program

import (
	"errors"
	"fmt"
	"strconv"
)

// Link prepares a program for analysis: it merges package declarations across units, assigns
// qualified names and parent links to every type (including local and anonymous classes nested at
// any depth), and assigns synthetic positions to nodes the front end left without one. Link is
// idempotent.
func Link(p *Program) error {
	p.packages = make(map[string]*Package)
	p.types = make(map[string]*Type)
	p.typeOrder = nil

	for _, u := range p.Units {
		assignSpans(u)
	}
	// Packages first, so that defaults declared in package-info units are visible regardless of the
	// order in which units were handed over.
	for _, u := range p.Units {
		pkg := p.packageFor(u.Package)
		if len(u.PackageAnnotations) > 0 {
			pkg.Annotations = append(pkg.Annotations, u.PackageAnnotations...)
			if !pkg.Span.IsValid() {
				pkg.Span = u.PackageSpan
			}
		}
	}

	var errs []error
	for _, u := range p.Units {
		l := &linker{prog: p, unit: u, counters: make(map[*Type]int)}
		for _, t := range u.Types {
			qualified := t.Name
			if u.Package != "" {
				qualified = u.Package + "." + t.Name
			}
			errs = append(errs, l.linkType(t, p.packages[u.Package], qualified))
		}
	}
	return errors.Join(errs...)
}

func (p *Program) packageFor(name string) *Package {
	pkg, ok := p.packages[name]
	if !ok {
		pkg = &Package{Name: name}
		p.packages[name] = pkg
	}
	return pkg
}

type linker struct {
	prog *Program
	unit *Unit
	// counters numbers local and anonymous classes per enclosing top-level-or-member type.
	counters map[*Type]int
}

func (l *linker) linkType(t *Type, parent Decl, qualified string) error {
	if _, ok := l.prog.types[qualified]; ok {
		return fmt.Errorf("duplicate type %q in %s", qualified, l.unit.Filename)
	}
	t.qualified = qualified
	t.parent = parent
	t.unit = l.unit
	l.prog.types[qualified] = t
	l.prog.typeOrder = append(l.prog.typeOrder, qualified)

	var errs []error
	for _, f := range t.Fields {
		f.owner = t
		if f.Init != nil {
			errs = append(errs, l.linkLocalTypes(f.Init, f))
		}
	}
	for _, i := range t.Initializers {
		i.owner = t
		if i.Body != nil {
			errs = append(errs, l.linkLocalTypes(i.Body, i))
		}
	}
	for _, m := range t.Methods {
		m.owner = t
		if m.Body != nil {
			errs = append(errs, l.linkLocalTypes(m.Body, m))
		}
	}
	for _, member := range t.Members {
		errs = append(errs, l.linkType(member, t, qualified+"$"+member.Name))
	}
	return errors.Join(errs...)
}

// linkLocalTypes links the local and anonymous classes found directly inside a body. Classes
// nested inside those are linked recursively by linkType.
func (l *linker) linkLocalTypes(root Node, owner Decl) error {
	outer := EnclosingType(owner)
	var errs []error
	var visit func(n Node) bool
	visit = func(n Node) bool {
		var local *Type
		switch n := n.(type) {
		case *LocalClass:
			local = n.Type
			if local != nil {
				local.Local = true
			}
		case *New:
			local = n.Body
			if local != nil {
				local.Anonymous = true
				if local.Super == "" && n.Type != nil {
					local.Super = n.Type.Name
				}
				// Constructor arguments belong to the enclosing body.
				for _, a := range n.Args {
					Inspect(a, visit)
				}
			}
		}
		if local == nil {
			return true
		}
		l.counters[outer]++
		name := outer.qualified + "$" + strconv.Itoa(l.counters[outer])
		if !local.Anonymous {
			name += local.Name
		}
		errs = append(errs, l.linkType(local, owner, name))
		// The nested type was handled by linkType, including its own bodies.
		return false
	}
	Inspect(root, visit)
	return errors.Join(errs...)
}

// assignSpans gives every node without a valid span a synthetic one. Synthetic offsets are
// pre-order indices, so that source order and containment are preserved.
func assignSpans(u *Unit) {
	next := 1
	var visit func(n Node)
	visit = func(n Node) {
		s := n.span()
		synthetic := !s.IsValid()
		if synthetic {
			s.Offset = next
			s.Line = next
			s.Column = 1
		}
		if s.Filename == "" {
			s.Filename = u.Filename
		}
		next++
		for _, c := range children(n) {
			visit(c)
		}
		if synthetic {
			s.End = next
		}
	}
	for _, a := range u.PackageAnnotations {
		visit(a)
	}
	if !u.PackageSpan.IsValid() && len(u.PackageAnnotations) > 0 {
		u.PackageSpan = Span{Filename: u.Filename, Offset: 0, End: next, Line: 1, Column: 1}
	}
	for _, t := range u.Types {
		visit(t)
	}
}
