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
	"strings"
)

// TypeKind classifies a type reference.
type TypeKind uint8

const (
	// ReferenceType is a class or interface type.
	ReferenceType TypeKind = iota
	// PrimitiveType is one of the primitive types (int, boolean, ...).
	PrimitiveType
	// VoidType is the void return type.
	VoidType
	// TypeVariable is a reference to a declared type parameter.
	TypeVariable
	// ArrayType is an array of Elem.
	ArrayType
)

var _typeKindNames = [...]string{
	ReferenceType: "reference",
	PrimitiveType: "primitive",
	VoidType:      "void",
	TypeVariable:  "typevar",
	ArrayType:     "array",
}

func (k TypeKind) String() string {
	if int(k) < len(_typeKindNames) {
		return _typeKindNames[k]
	}
	return "unknown"
}

// ParseTypeKind is the inverse of TypeKind.String.
func ParseTypeKind(s string) (TypeKind, bool) {
	for k, n := range _typeKindNames {
		if n == s {
			return TypeKind(k), true
		}
	}
	return ReferenceType, false
}

// MarshalText implements encoding.TextMarshaler.
func (k TypeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *TypeKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseTypeKind(string(text))
	if !ok {
		return fmt.Errorf("unknown type kind %q", text)
	}
	*k = parsed
	return nil
}

// TypeRef is a use of a type, together with the type annotations written on it.
type TypeRef struct {
	Kind        TypeKind      `json:"kind" msgpack:"kind"`
	Name        string        `json:"name" msgpack:"name"`
	Annotations []*Annotation `json:"annotations,omitempty" msgpack:"annotations,omitempty"`
	Args        []*TypeRef    `json:"args,omitempty" msgpack:"args,omitempty"`
	Elem        *TypeRef      `json:"elem,omitempty" msgpack:"elem,omitempty"`
	// Bound is the resolved bound of a type variable, if known.
	Bound *TypeRef `json:"bound,omitempty" msgpack:"bound,omitempty"`
	Span  Span     `json:"span" msgpack:"span"`
}

// Pos implements Node.
func (t *TypeRef) Pos() Span { return t.Span }

func (t *TypeRef) span() *Span { return &t.Span }

// IsPrimitive returns true for primitive types and void, which can never hold null. A type
// variable whose bound resolves to a primitive is treated the same way.
func (t *TypeRef) IsPrimitive() bool {
	if t == nil {
		return true
	}
	switch t.Kind {
	case PrimitiveType, VoidType:
		return true
	case TypeVariable:
		return t.Bound != nil && t.Bound.IsPrimitive()
	}
	return false
}

// IsVoid returns true for the void type or a missing type.
func (t *TypeRef) IsVoid() bool {
	return t == nil || t.Kind == VoidType
}

// SimpleName returns the unqualified name of the type, e.g., "String" for "java.lang.String".
func (t *TypeRef) SimpleName() string {
	if t == nil {
		return "void"
	}
	if t.Kind == ArrayType && t.Elem != nil {
		return t.Elem.SimpleName() + "[]"
	}
	return simpleName(t.Name)
}

// Erasure returns the name used in method descriptors.
func (t *TypeRef) Erasure() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case ArrayType:
		if t.Elem != nil {
			return t.Elem.Erasure() + "[]"
		}
	case TypeVariable:
		if t.Bound != nil {
			return t.Bound.Erasure()
		}
		return "Object"
	}
	return simpleName(t.Name)
}

// String renders the type with its type arguments but without annotations.
func (t *TypeRef) String() string {
	if t == nil {
		return "void"
	}
	if len(t.Args) == 0 {
		return t.SimpleName()
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return t.SimpleName() + "<" + strings.Join(args, ",") + ">"
}

// Annotation is an annotation occurrence, with its fully qualified type name as resolved by the
// front end and its element values rendered as strings.
type Annotation struct {
	Name string            `json:"name" msgpack:"name"`
	Args map[string]string `json:"args,omitempty" msgpack:"args,omitempty"`
	Span Span              `json:"span" msgpack:"span"`
}

// Pos implements Node.
func (a *Annotation) Pos() Span { return a.Span }

func (a *Annotation) span() *Span { return &a.Span }

// Arg returns the element value with the given name. The single-element shorthand is stored
// under "value".
func (a *Annotation) Arg(name string) (string, bool) {
	if a == nil || a.Args == nil {
		return "", false
	}
	v, ok := a.Args[name]
	return v, ok
}

// SimpleName returns the unqualified name of the annotation type.
func (a *Annotation) SimpleName() string {
	return simpleName(a.Name)
}

// ArgValues splits an array-valued element ("{A, B}") into its members.
func (a *Annotation) ArgValues(name string) []string {
	v, ok := a.Arg(name)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "{")
	v = strings.TrimSuffix(v, "}")
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.Trim(strings.TrimSpace(p), "\"")
		if p != "" {
			out = append(out, simpleName(p))
		}
	}
	return out
}

// SimpleName returns the last segment of a qualified name, e.g., "Inner" for "p.Outer$Inner".
func SimpleName(name string) string {
	return simpleName(name)
}

func simpleName(name string) string {
	if i := strings.LastIndexAny(name, ".$"); i >= 0 {
		return name[i+1:]
	}
	return name
}
