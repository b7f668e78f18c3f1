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
	"fmt"
	"sort"
	"strings"
)

// Decl is a declaration that may carry declaration annotations and may host a nullness default:
// packages, types, methods (including constructors), fields and initializer blocks. Parent links
// form the lexical scope chain that the default resolver walks.
type Decl interface {
	Node
	// Parent returns the lexically enclosing declaration, or nil for a package.
	Parent() Decl
	// DeclAnnotations returns the declaration annotations.
	DeclAnnotations() []*Annotation
	// DeclName returns a human-readable name used in diagnostics.
	DeclName() string
}

// Program is the set of compilation units analyzed together. It must be linked (see Link) before
// it is handed to the checker.
type Program struct {
	Units []*Unit

	packages map[string]*Package
	types    map[string]*Type
	// typeOrder keeps the qualified type names in declaration order for deterministic iteration.
	typeOrder []string
}

// Unit is one compilation unit (source file). A unit with PackageAnnotations and no types plays
// the role of a package-info file.
type Unit struct {
	Filename           string
	Source             string
	Package            string
	PackageAnnotations []*Annotation
	PackageSpan        Span
	Types              []*Type
}

// Package collects the package-level annotations contributed by all units of a package.
type Package struct {
	Name        string
	Annotations []*Annotation
	// Span is the span of the package declaration that contributed annotations, if any.
	Span Span
}

// Pos implements Node.
func (p *Package) Pos() Span { return p.Span }

func (p *Package) span() *Span { return &p.Span }

// Parent implements Decl.
func (*Package) Parent() Decl { return nil }

// DeclAnnotations implements Decl.
func (p *Package) DeclAnnotations() []*Annotation { return p.Annotations }

// DeclName implements Decl.
func (p *Package) DeclName() string {
	if p.Name == "" {
		return "(default package)"
	}
	return p.Name
}

// TypeDeclKind distinguishes the kinds of type declarations.
type TypeDeclKind uint8

const (
	// ClassKind is a class declaration.
	ClassKind TypeDeclKind = iota
	// InterfaceKind is an interface declaration.
	InterfaceKind
	// EnumKind is an enum declaration.
	EnumKind
	// AnnotationKind is an annotation type declaration.
	AnnotationKind
)

// Type is a class, interface, enum or annotation type declaration, possibly nested, local or
// anonymous.
type Type struct {
	Name         string
	Kind         TypeDeclKind
	Annotations  []*Annotation
	TypeParams   []string
	Super        string
	Interfaces   []string
	Abstract     bool
	Anonymous    bool
	Local        bool
	Fields       []*Field
	Methods      []*Method
	Initializers []*Initializer
	Members      []*Type
	Span         Span

	qualified string
	parent    Decl
	unit      *Unit
}

// Pos implements Node.
func (t *Type) Pos() Span { return t.Span }

func (t *Type) span() *Span { return &t.Span }

// Parent implements Decl.
func (t *Type) Parent() Decl { return t.parent }

// DeclAnnotations implements Decl.
func (t *Type) DeclAnnotations() []*Annotation { return t.Annotations }

// DeclName implements Decl.
func (t *Type) DeclName() string {
	if t.Anonymous {
		return "new " + simpleName(t.Super) + "() {...}"
	}
	return t.Name
}

// QualifiedName returns the binary-style qualified name assigned by Link, e.g., "p.Outer$Inner".
func (t *Type) QualifiedName() string { return t.qualified }

// Unit returns the compilation unit declaring this type.
func (t *Type) Unit() *Unit { return t.unit }

// IsInterface returns true for interfaces and annotation types.
func (t *Type) IsInterface() bool {
	return t.Kind == InterfaceKind || t.Kind == AnnotationKind
}

// Supertypes returns the qualified names of the direct supertypes, superclass first.
func (t *Type) Supertypes() []string {
	var out []string
	if t.Super != "" {
		out = append(out, t.Super)
	}
	return append(out, t.Interfaces...)
}

// Constructors returns the declared constructors.
func (t *Type) Constructors() []*Method {
	var out []*Method
	for _, m := range t.Methods {
		if m.Constructor {
			out = append(out, m)
		}
	}
	return out
}

// Method returns the declared method with the given descriptor, or nil.
func (t *Type) Method(descriptor string) *Method {
	for _, m := range t.Methods {
		if !m.Constructor && m.Descriptor() == descriptor {
			return m
		}
	}
	return nil
}

// Field returns the declared field with the given name, or nil.
func (t *Type) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EnclosingType returns the nearest enclosing type declaration, or nil for a top-level type.
func (t *Type) EnclosingType() *Type {
	return EnclosingType(t.parent)
}

// EnclosingType returns d itself if it is a type, otherwise the nearest type enclosing d.
func EnclosingType(d Decl) *Type {
	for ; d != nil; d = d.Parent() {
		if t, ok := d.(*Type); ok {
			return t
		}
	}
	return nil
}

// EnclosingPackage returns the package at the root of d's scope chain.
func EnclosingPackage(d Decl) *Package {
	for ; d != nil; d = d.Parent() {
		if p, ok := d.(*Package); ok {
			return p
		}
	}
	return nil
}

// Field is a field declaration.
type Field struct {
	Name        string
	Type        *TypeRef
	Static      bool
	Final       bool
	Annotations []*Annotation
	Init        Expr
	Span        Span

	owner *Type
}

// Pos implements Node.
func (f *Field) Pos() Span { return f.Span }

func (f *Field) span() *Span { return &f.Span }

// Parent implements Decl.
func (f *Field) Parent() Decl { return f.owner }

// DeclAnnotations implements Decl.
func (f *Field) DeclAnnotations() []*Annotation { return f.Annotations }

// DeclName implements Decl.
func (f *Field) DeclName() string { return f.Name }

// Owner returns the declaring type.
func (f *Field) Owner() *Type { return f.owner }

// Ref returns a reference to this field usable in expressions.
func (f *Field) Ref() *FieldRef {
	return &FieldRef{Owner: f.owner.QualifiedName(), Name: f.Name, Static: f.Static}
}

// Param is a formal parameter.
type Param struct {
	Name        string        `json:"name" msgpack:"name"`
	Type        *TypeRef      `json:"type" msgpack:"type"`
	Annotations []*Annotation `json:"annotations,omitempty" msgpack:"annotations,omitempty"`
	Span        Span          `json:"span" msgpack:"span"`
}

// Pos implements Node.
func (p *Param) Pos() Span { return p.Span }

func (p *Param) span() *Span { return &p.Span }

// Method is a method or constructor declaration. Return is nil for constructors.
type Method struct {
	Name        string
	Params      []*Param
	Return      *TypeRef
	Constructor bool
	Static      bool
	Abstract    bool
	Private     bool
	Annotations []*Annotation
	Body        *Block
	Span        Span

	owner *Type
}

// Pos implements Node.
func (m *Method) Pos() Span { return m.Span }

func (m *Method) span() *Span { return &m.Span }

// Parent implements Decl.
func (m *Method) Parent() Decl { return m.owner }

// DeclAnnotations implements Decl.
func (m *Method) DeclAnnotations() []*Annotation { return m.Annotations }

// DeclName implements Decl.
func (m *Method) DeclName() string { return m.Signature() }

// Owner returns the declaring type.
func (m *Method) Owner() *Type { return m.owner }

// Descriptor returns the name and erased parameter types, e.g., "foo(Object,String)". It
// identifies a method within its declaring type and matches overriding methods across types.
func (m *Method) Descriptor() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type.Erasure()
	}
	name := m.Name
	if m.Constructor {
		name = "<init>"
	}
	return name + "(" + strings.Join(params, ",") + ")"
}

// Signature renders the method the way it is named in messages, e.g., "foo(Object)" or
// "X(String)" for constructors.
func (m *Method) Signature() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type.String()
	}
	name := m.Name
	if m.Constructor && m.owner != nil {
		name = m.owner.Name
	}
	return name + "(" + strings.Join(params, ", ") + ")"
}

// Key returns the binding key of this method, see MethodRef.Key.
func (m *Method) Key() string {
	return m.owner.QualifiedName() + "#" + m.Descriptor()
}

// Ref returns a reference to this method usable in call expressions.
func (m *Method) Ref() *MethodRef {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type.Erasure()
	}
	return &MethodRef{Owner: m.owner.QualifiedName(), Name: m.Name, Params: params, Static: m.Static, Constructor: m.Constructor}
}

// Initializer is an instance or static initializer block.
type Initializer struct {
	Static bool
	Body   *Block
	Span   Span

	owner *Type
}

// Pos implements Node.
func (i *Initializer) Pos() Span { return i.Span }

func (i *Initializer) span() *Span { return &i.Span }

// Parent implements Decl.
func (i *Initializer) Parent() Decl { return i.owner }

// DeclAnnotations implements Decl.
func (*Initializer) DeclAnnotations() []*Annotation { return nil }

// DeclName implements Decl.
func (i *Initializer) DeclName() string {
	if i.Static {
		return "static initializer"
	}
	return "initializer"
}

// Owner returns the declaring type.
func (i *Initializer) Owner() *Type { return i.owner }

// FieldRef is a resolved reference to a field.
type FieldRef struct {
	Owner  string `json:"owner" msgpack:"owner"`
	Name   string `json:"name" msgpack:"name"`
	Static bool   `json:"static,omitempty" msgpack:"static,omitempty"`
}

// Key returns the binding key of the field, e.g., "p.X#f".
func (f *FieldRef) Key() string {
	return f.Owner + "#" + f.Name
}

// MethodRef is a resolved reference to a method or constructor.
type MethodRef struct {
	Owner       string   `json:"owner" msgpack:"owner"`
	Name        string   `json:"name" msgpack:"name"`
	Params      []string `json:"params,omitempty" msgpack:"params,omitempty"`
	Static      bool     `json:"static,omitempty" msgpack:"static,omitempty"`
	Constructor bool     `json:"constructor,omitempty" msgpack:"constructor,omitempty"`
}

// Descriptor returns the method descriptor, see Method.Descriptor.
func (m *MethodRef) Descriptor() string {
	name := m.Name
	if m.Constructor {
		name = "<init>"
	}
	return name + "(" + strings.Join(m.Params, ",") + ")"
}

// Key returns the binding key of the method, e.g., "p.X#foo(Object)".
func (m *MethodRef) Key() string {
	return m.Owner + "#" + m.Descriptor()
}

// Package returns the merged package declaration for the given name. Link must have been called.
func (p *Program) Package(name string) *Package {
	if pkg, ok := p.packages[name]; ok {
		return pkg
	}
	return nil
}

// Type returns the type with the given qualified name, or nil if the program does not declare it.
func (p *Program) Type(qualified string) *Type {
	return p.types[qualified]
}

// Types returns all types (including nested, local and anonymous ones) in declaration order.
func (p *Program) Types() []*Type {
	out := make([]*Type, 0, len(p.typeOrder))
	for _, n := range p.typeOrder {
		out = append(out, p.types[n])
	}
	return out
}

// PackageNames returns the sorted names of all packages in the program.
func (p *Program) PackageNames() []string {
	names := make([]string, 0, len(p.packages))
	for n := range p.packages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Binding returns the method (or constructor) declared in the program for the reference.
func (p *Program) Binding(ref *MethodRef) *Method {
	t := p.Type(ref.Owner)
	if t == nil {
		return nil
	}
	d := ref.Descriptor()
	for _, m := range t.Methods {
		if m.Descriptor() == d {
			return m
		}
	}
	return nil
}

// FieldBinding returns the field declared in the program for the reference.
func (p *Program) FieldBinding(ref *FieldRef) *Field {
	t := p.Type(ref.Owner)
	if t == nil {
		return nil
	}
	return t.Field(ref.Name)
}

func (p *Program) String() string {
	return fmt.Sprintf("program(%d units, %d types)", len(p.Units), len(p.types))
}
