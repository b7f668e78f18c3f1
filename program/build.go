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

// This file contains small constructors for front ends and tests that assemble a program in Go
// code. Spans are left unset; Link assigns synthetic positions.

// NewProgram links the given units into a program.
func NewProgram(units ...*Unit) (*Program, error) {
	p := &Program{Units: units}
	if err := Link(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Ann returns an annotation with the given fully qualified name. Args are key, value pairs.
func Ann(name string, args ...string) *Annotation {
	a := &Annotation{Name: name}
	if len(args) > 1 {
		a.Args = make(map[string]string, len(args)/2)
		for i := 0; i+1 < len(args); i += 2 {
			a.Args[args[i]] = args[i+1]
		}
	}
	return a
}

// Ref returns a reference type with optional type annotations.
func Ref(name string, anns ...*Annotation) *TypeRef {
	return &TypeRef{Kind: ReferenceType, Name: name, Annotations: anns}
}

// Generic returns a parameterized reference type such as List<String>.
func Generic(name string, args ...*TypeRef) *TypeRef {
	return &TypeRef{Kind: ReferenceType, Name: name, Args: args}
}

// Prim returns a primitive type.
func Prim(name string) *TypeRef {
	return &TypeRef{Kind: PrimitiveType, Name: name}
}

// Void returns the void type.
func Void() *TypeRef {
	return &TypeRef{Kind: VoidType, Name: "void"}
}

// TypeVar returns a reference to a type variable.
func TypeVar(name string, anns ...*Annotation) *TypeRef {
	return &TypeRef{Kind: TypeVariable, Name: name, Annotations: anns}
}

// ArrayOf returns an array type of elem.
func ArrayOf(elem *TypeRef, anns ...*Annotation) *TypeRef {
	return &TypeRef{Kind: ArrayType, Name: elem.Name + "[]", Elem: elem, Annotations: anns}
}

// P returns a parameter.
func P(name string, t *TypeRef, anns ...*Annotation) *Param {
	return &Param{Name: name, Type: t, Annotations: anns}
}

// MRef returns a reference to an instance method declared by owner.
func MRef(owner, name string, params ...string) *MethodRef {
	return &MethodRef{Owner: owner, Name: name, Params: params}
}

// StaticRef returns a reference to a static method declared by owner.
func StaticRef(owner, name string, params ...string) *MethodRef {
	return &MethodRef{Owner: owner, Name: name, Params: params, Static: true}
}

// CtorRef returns a reference to a constructor of owner.
func CtorRef(owner string, params ...string) *MethodRef {
	return &MethodRef{Owner: owner, Name: simpleName(owner), Params: params, Constructor: true}
}

// Body returns a block of statements.
func Body(stmts ...Stmt) *Block {
	return &Block{Stmts: stmts}
}

// Var declares a local variable.
func Var(name string, t *TypeRef, init Expr) *LocalVar {
	return &LocalVar{Name: name, Type: t, Init: init}
}

// Do wraps an expression into a statement.
func Do(x Expr) *ExprStmt {
	return &ExprStmt{X: x}
}

// Ret returns x; a nil x is a bare return.
func Ret(x Expr) *Return {
	return &Return{X: x}
}

// IfElse returns an if statement; els may be nil.
func IfElse(cond Expr, then, els Stmt) *If {
	return &If{Cond: cond, Then: then, Else: els}
}

// Null returns the null literal.
func Null() *NullLit {
	return &NullLit{}
}

// Str returns a string literal.
func Str(v string) *Literal {
	return &Literal{Kind: StringLit, Value: v}
}

// Int returns an integer literal.
func Int(v string) *Literal {
	return &Literal{Kind: IntLit, Value: v}
}

// Bool returns a boolean literal.
func Bool(v bool) *Literal {
	if v {
		return &Literal{Kind: BoolLit, Value: "true"}
	}
	return &Literal{Kind: BoolLit, Value: "false"}
}

// Id returns a reference to a local variable or parameter.
func Id(name string) *Ident {
	return &Ident{Name: name}
}

// FieldId returns an unqualified reference to a field of owner.
func FieldId(owner, name string) *Ident {
	return &Ident{Name: name, Field: &FieldRef{Owner: owner, Name: name}}
}

// Sel returns x.name referring to a field of owner.
func Sel(x Expr, owner, name string) *FieldAccess {
	return &FieldAccess{X: x, Name: name, Field: &FieldRef{Owner: owner, Name: name}}
}

// ThisSel returns this.name referring to a field of owner.
func ThisSel(owner, name string) *FieldAccess {
	return Sel(&This{}, owner, name)
}

// Invoke returns a call of the resolved method on x; x is nil for unqualified or static calls.
func Invoke(x Expr, m *MethodRef, args ...Expr) *Call {
	return &Call{X: x, Name: m.Name, Args: args, Method: m}
}

// Unresolved returns a call whose target the front end could not resolve.
func Unresolved(x Expr, name string, args ...Expr) *Call {
	return &Call{X: x, Name: name, Args: args}
}

// NewObj returns an instance creation of the given type with the resolved constructor.
func NewObj(t *TypeRef, ctor *MethodRef, args ...Expr) *New {
	return &New{Type: t, Args: args, Ctor: ctor}
}

// Set returns the assignment lhs = rhs.
func Set(lhs, rhs Expr) *Assign {
	return &Assign{Op: OpAssign, LHS: lhs, RHS: rhs}
}

// Eq returns x == y.
func Eq(x, y Expr) *Binary {
	return &Binary{Op: OpEq, X: x, Y: y}
}

// Ne returns x != y.
func Ne(x, y Expr) *Binary {
	return &Binary{Op: OpNe, X: x, Y: y}
}

// And returns x && y.
func And(x, y Expr) *Binary {
	return &Binary{Op: OpAndAnd, X: x, Y: y}
}

// Or returns x || y.
func Or(x, y Expr) *Binary {
	return &Binary{Op: OpOrOr, X: x, Y: y}
}

// Not returns !x.
func Not(x Expr) *Unary {
	return &Unary{Op: OpNot, X: x}
}
