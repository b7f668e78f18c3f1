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
	"slices"

	"go.uber.org/nullaway/program"
	"go.uber.org/nullaway/util/orderedmap"
)

// This file contains the affiliations mechanism: the overriding relation between the methods of a
// type and the methods of its supertypes.

// An AffiliationPair is the atomic object of the affiliations mechanism: a pair consisting of an
// inherited method and the method overriding (or implementing) it.
type AffiliationPair struct {
	Overriding *program.Method
	Overridden *program.Method
}

// Overridable returns true if the method takes part in overriding.
func Overridable(m *program.Method) bool {
	return !m.Constructor && !m.Static && !m.Private
}

// Affiliations returns the methods m immediately overrides: for every direct supertype of m's
// declaring type, the nearest declaration with the same descriptor. Supertypes that are not part
// of the program are skipped.
func Affiliations(prog *program.Program, m *program.Method) []AffiliationPair {
	if !Overridable(m) || m.Owner() == nil {
		return nil
	}
	var out []AffiliationPair
	seen := make(map[*program.Method]bool)
	desc := m.Descriptor()
	for _, st := range m.Owner().Supertypes() {
		for _, s := range nearestDeclarations(prog, st, desc, make(map[string]bool)) {
			if !seen[s] {
				seen[s] = true
				out = append(out, AffiliationPair{Overriding: m, Overridden: s})
			}
		}
	}
	return out
}

// nearestDeclarations returns the overridable declarations of desc in the named type, or in its
// supertypes if the type does not declare it.
func nearestDeclarations(prog *program.Program, name, desc string, visited map[string]bool) []*program.Method {
	if visited[name] {
		return nil
	}
	visited[name] = true
	t := prog.Type(name)
	if t == nil {
		return nil
	}
	if m := t.Method(desc); m != nil && Overridable(m) {
		return []*program.Method{m}
	}
	var out []*program.Method
	for _, st := range t.Supertypes() {
		out = append(out, nearestDeclarations(prog, st, desc, visited)...)
	}
	return out
}

// InheritedMethods returns, per descriptor, the methods t inherits without overriding them, in
// supertype order. A descriptor inherited through several supertypes lists every declaration.
func InheritedMethods(prog *program.Program, t *program.Type) *orderedmap.OrderedMap[string, []*program.Method] {
	out := orderedmap.New[string, []*program.Method]()
	for _, st := range t.Supertypes() {
		visible := visibleMethods(prog, st, make(map[string]bool))
		visible.OrderedRange(func(desc string, ms []*program.Method) bool {
			if own := t.Method(desc); own != nil && Overridable(own) {
				return true
			}
			existing := out.Value(desc)
			for _, m := range ms {
				if !slices.Contains(existing, m) {
					existing = append(existing, m)
				}
			}
			out.Store(desc, existing)
			return true
		})
	}
	return out
}

// visibleMethods returns the nearest overridable declarations of every descriptor reachable from
// the named type.
func visibleMethods(prog *program.Program, name string, visited map[string]bool) *orderedmap.OrderedMap[string, []*program.Method] {
	out := orderedmap.New[string, []*program.Method]()
	if visited[name] {
		return out
	}
	visited[name] = true
	t := prog.Type(name)
	if t == nil {
		return out
	}
	for _, m := range t.Methods {
		if Overridable(m) {
			out.Store(m.Descriptor(), []*program.Method{m})
		}
	}
	for _, st := range t.Supertypes() {
		visibleMethods(prog, st, visited).OrderedRange(func(desc string, ms []*program.Method) bool {
			if own := t.Method(desc); own != nil && Overridable(own) {
				return true
			}
			existing := out.Value(desc)
			for _, m := range ms {
				if !slices.Contains(existing, m) {
					existing = append(existing, m)
				}
			}
			out.Store(desc, existing)
			return true
		})
	}
	return out
}
