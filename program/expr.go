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

// Expr is an expression.
type Expr interface {
	Node
	exprNode()
}

// LiteralKind classifies non-null literals.
type LiteralKind uint8

const (
	// StringLit is a string literal, the only reference-typed non-null literal.
	StringLit LiteralKind = iota
	// IntLit is an integral literal.
	IntLit
	// FloatLit is a floating point literal.
	FloatLit
	// BoolLit is true or false.
	BoolLit
	// CharLit is a character literal.
	CharLit
	// ClassLit is a class literal such as String.class.
	ClassLit
)

// Op is a unary or binary operator.
type Op uint8

const (
	// OpEq is ==.
	OpEq Op = iota
	// OpNe is !=.
	OpNe
	// OpAndAnd is the conditional-and &&.
	OpAndAnd
	// OpOrOr is the conditional-or ||.
	OpOrOr
	// OpNot is the logical complement !.
	OpNot
	// OpAdd is +, which is also string concatenation.
	OpAdd
	// OpArith is any other arithmetic, bitwise or relational operator.
	OpArith
	// OpAssign is plain assignment =.
	OpAssign
	// OpCompound is any compound assignment such as +=.
	OpCompound
)

var _opNames = [...]string{
	OpEq:       "==",
	OpNe:       "!=",
	OpAndAnd:   "&&",
	OpOrOr:     "||",
	OpNot:      "!",
	OpAdd:      "+",
	OpArith:    "op",
	OpAssign:   "=",
	OpCompound: "op=",
}

func (o Op) String() string {
	if int(o) < len(_opNames) {
		return _opNames[o]
	}
	return "?"
}

// ParseOp is the inverse of Op.String.
func ParseOp(s string) (Op, bool) {
	for o, n := range _opNames {
		if n == s {
			return Op(o), true
		}
	}
	return OpArith, false
}

type (
	// NullLit is the null literal.
	NullLit struct {
		Span Span
	}

	// Literal is any non-null literal.
	Literal struct {
		Kind  LiteralKind
		Value string
		Span  Span
	}

	// Ident is a simple name. Field is set when the name resolves to a field, otherwise the name
	// denotes a local variable or parameter.
	Ident struct {
		Name  string
		Field *FieldRef
		Span  Span
	}

	// This is the this expression, optionally qualified (Outer.this).
	This struct {
		Qualifier string
		Span      Span
	}

	// FieldAccess is X.Name. X is nil for a static access through a type name.
	FieldAccess struct {
		X     Expr
		Name  string
		Field *FieldRef
		Span  Span
	}

	// Call is a method invocation. X is nil for unqualified or static calls. Method is nil when the
	// front end could not resolve the target.
	Call struct {
		X      Expr
		Name   string
		Args   []Expr
		Method *MethodRef
		Span   Span
	}

	// New is an instance creation expression; Body is set for anonymous classes.
	New struct {
		Type *TypeRef
		Args []Expr
		Ctor *MethodRef
		Body *Type
		Span Span
	}

	// NewArray creates an array, with dimensions or an initializer.
	NewArray struct {
		Elem *TypeRef
		Dims []Expr
		Init []Expr
		Span Span
	}

	// Binary is a binary expression.
	Binary struct {
		Op   Op
		X    Expr
		Y    Expr
		Span Span
	}

	// Unary is a prefix unary expression.
	Unary struct {
		Op   Op
		X    Expr
		Span Span
	}

	// Assign is an assignment expression.
	Assign struct {
		Op   Op
		LHS  Expr
		RHS  Expr
		Span Span
	}

	// InstanceOf is X instanceof Type, with an optional pattern binding.
	InstanceOf struct {
		X       Expr
		Type    *TypeRef
		Binding string
		Span    Span
	}

	// Conditional is Cond ? Then : Else.
	Conditional struct {
		Cond Expr
		Then Expr
		Else Expr
		Span Span
	}

	// Cast is (Type) X.
	Cast struct {
		Type *TypeRef
		X    Expr
		Span Span
	}

	// Index is X[Index].
	Index struct {
		X     Expr
		Index Expr
		Span  Span
	}

	// Lambda is a lambda expression. Its body is not analyzed as part of the enclosing method.
	Lambda struct {
		Params []*Param
		Body   Node
		Span   Span
	}
)

func (e *NullLit) Pos() Span     { return e.Span }
func (e *Literal) Pos() Span     { return e.Span }
func (e *Ident) Pos() Span       { return e.Span }
func (e *This) Pos() Span        { return e.Span }
func (e *FieldAccess) Pos() Span { return e.Span }
func (e *Call) Pos() Span        { return e.Span }
func (e *New) Pos() Span         { return e.Span }
func (e *NewArray) Pos() Span    { return e.Span }
func (e *Binary) Pos() Span      { return e.Span }
func (e *Unary) Pos() Span       { return e.Span }
func (e *Assign) Pos() Span      { return e.Span }
func (e *InstanceOf) Pos() Span  { return e.Span }
func (e *Conditional) Pos() Span { return e.Span }
func (e *Cast) Pos() Span        { return e.Span }
func (e *Index) Pos() Span       { return e.Span }
func (e *Lambda) Pos() Span      { return e.Span }

func (e *NullLit) span() *Span     { return &e.Span }
func (e *Literal) span() *Span     { return &e.Span }
func (e *Ident) span() *Span       { return &e.Span }
func (e *This) span() *Span        { return &e.Span }
func (e *FieldAccess) span() *Span { return &e.Span }
func (e *Call) span() *Span        { return &e.Span }
func (e *New) span() *Span         { return &e.Span }
func (e *NewArray) span() *Span    { return &e.Span }
func (e *Binary) span() *Span      { return &e.Span }
func (e *Unary) span() *Span       { return &e.Span }
func (e *Assign) span() *Span      { return &e.Span }
func (e *InstanceOf) span() *Span  { return &e.Span }
func (e *Conditional) span() *Span { return &e.Span }
func (e *Cast) span() *Span        { return &e.Span }
func (e *Index) span() *Span       { return &e.Span }
func (e *Lambda) span() *Span      { return &e.Span }

func (*NullLit) exprNode()     {}
func (*Literal) exprNode()     {}
func (*Ident) exprNode()       {}
func (*This) exprNode()        {}
func (*FieldAccess) exprNode() {}
func (*Call) exprNode()        {}
func (*New) exprNode()         {}
func (*NewArray) exprNode()    {}
func (*Binary) exprNode()      {}
func (*Unary) exprNode()       {}
func (*Assign) exprNode()      {}
func (*InstanceOf) exprNode()  {}
func (*Conditional) exprNode() {}
func (*Cast) exprNode()        {}
func (*Index) exprNode()       {}
func (*Lambda) exprNode()      {}

// StripCasts removes enclosing casts, which never change nullness.
func StripCasts(e Expr) Expr {
	for {
		c, ok := e.(*Cast)
		if !ok {
			return e
		}
		e = c.X
	}
}

// ExprString renders an expression compactly for messages, e.g., "this.f" or "o".
func ExprString(e Expr) string {
	switch e := e.(type) {
	case nil:
		return ""
	case *NullLit:
		return "null"
	case *Literal:
		if e.Kind == StringLit {
			return "\"" + e.Value + "\""
		}
		return e.Value
	case *Ident:
		return e.Name
	case *This:
		if e.Qualifier != "" {
			return simpleName(e.Qualifier) + ".this"
		}
		return "this"
	case *FieldAccess:
		if e.X == nil {
			if e.Field != nil {
				return simpleName(e.Field.Owner) + "." + e.Name
			}
			return e.Name
		}
		return ExprString(e.X) + "." + e.Name
	case *Call:
		recv := ""
		if e.X != nil {
			recv = ExprString(e.X) + "."
		}
		return recv + e.Name + "(...)"
	case *New:
		return "new " + e.Type.SimpleName() + "(...)"
	case *NewArray:
		return "new " + e.Elem.SimpleName() + "[]"
	case *Binary:
		return ExprString(e.X) + " " + e.Op.String() + " " + ExprString(e.Y)
	case *Unary:
		return e.Op.String() + ExprString(e.X)
	case *Assign:
		return ExprString(e.LHS) + " " + e.Op.String() + " " + ExprString(e.RHS)
	case *InstanceOf:
		return ExprString(e.X) + " instanceof " + e.Type.SimpleName()
	case *Conditional:
		return ExprString(e.Cond) + " ? " + ExprString(e.Then) + " : " + ExprString(e.Else)
	case *Cast:
		return "(" + e.Type.SimpleName() + ") " + ExprString(e.X)
	case *Index:
		return ExprString(e.X) + "[" + ExprString(e.Index) + "]"
	case *Lambda:
		return "(...) -> {...}"
	}
	return "?"
}
