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

package flow

import (
	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/hook"
	"go.uber.org/nullaway/program"
)

// subjectKind classifies the source of a value for messages.
type subjectKind uint8

const (
	_expression subjectKind = iota
	_variable
	_field
	_method
)

// value is the result of evaluating an expression.
type value struct {
	state State
	// decl is the declared contract of the source, which applies when state is Unknown.
	decl annotation.Val
	// slot is the tracked variable the value was read from, if tracked is set.
	slot    uint32
	tracked bool

	kind subjectKind
	name string
}

var _nonNullValue = value{state: DefinitelyNonNull}

// null returns true if the value is null on every path.
func (v value) null() bool { return v.state == DefinitelyNull }

// nonNull returns true if the value is provably non-null, by flow or by contract.
func (v value) nonNull() bool {
	return v.state.NonNull() || v.state == Unknown && v.decl.IsNonNull()
}

// mayBeNull returns true if the value is null on some path, or declared Nullable.
func (v value) mayBeNull() bool {
	return v.state == PotentiallyNull || v.state == Unknown && v.decl.IsNullable()
}

// unchecked returns true if nothing is known about the value.
func (v value) unchecked() bool {
	return v.state == Unknown && v.decl.Tag == annotation.Unspecified
}

// settled returns the state of a variable assigned the value.
func (v value) settled() State {
	if v.state != Unknown {
		return v.state
	}
	switch v.decl.Tag {
	case annotation.NonNull:
		return DefinitelyNonNull
	case annotation.Nullable:
		return PotentiallyNull
	}
	return Unknown
}

func (v value) subject() string {
	switch v.kind {
	case _variable:
		return "The variable " + v.name
	case _field:
		return "The field " + v.name
	case _method:
		return "The method " + v.name
	}
	return "This expression"
}

func (v value) cannotBeNull() string {
	if v.kind == _method {
		return v.subject() + " cannot return null"
	}
	return v.subject() + " cannot be null at this location"
}

func (v value) canOnlyBeNull() string {
	return v.subject() + " can only be null at this location"
}

func (v value) mayBeNullMessage() string {
	switch {
	case v.kind == _method:
		return "Potential null pointer access: " + v.subject() + " may return null"
	case v.state == PotentiallyNull:
		return "Potential null pointer access: " + v.subject() + " may be null at this location"
	case v.kind == _field:
		return "Potential null pointer access: " + v.subject() + " is specified as @Nullable"
	}
	return "Potential null pointer access: this expression has a '@Nullable' type"
}

func (f *fn) report(k diagnostic.Kind, span program.Span, msg string) {
	if f.rep != nil {
		f.rep.report(k, span, msg)
	}
}

// deref checks a dereference of the value of x. Afterward the variable, if tracked, is known to be
// non-null since the dereference would have thrown otherwise.
func (f *fn) deref(v value, x program.Expr, s *state) {
	switch {
	case v.null():
		f.report(diagnostic.NullPointerAccess, x.Pos(), "Null pointer access: "+v.canOnlyBeNull())
	case v.mayBeNull():
		f.report(diagnostic.PotentialNullPointerAccess, x.Pos(), v.mayBeNullMessage())
	}
	if v.tracked {
		s.set(v.slot, DefinitelyNonNull)
	}
}

// checkSink checks a value flowing into a location with the given contract.
func (f *fn) checkSink(v value, want annotation.Val, typeName string, span program.Span) {
	if !want.IsNonNull() {
		return
	}
	switch {
	case v.null():
		f.report(diagnostic.NullTypeMismatch, span,
			"Null type mismatch: required '@NonNull "+typeName+"' but the provided value is null")
	case v.state == PotentiallyNull:
		f.report(diagnostic.NullTypeMismatch, span,
			"Null type mismatch: required '@NonNull "+typeName+"' but the provided value is inferred as @Nullable")
	case v.mayBeNull():
		f.report(diagnostic.NullTypeMismatch, span,
			"Null type mismatch: required '@NonNull "+typeName+"' but the provided value is specified as @Nullable")
	case v.unchecked():
		f.report(diagnostic.UncheckedNullConversion, span,
			"Null type safety: The expression of type '"+typeName+"' needs unchecked conversion to conform to '@NonNull "+typeName+"'")
	}
}

// eval evaluates an expression in the state s, which it updates with the effects of the
// expression.
func (f *fn) eval(e program.Expr, s *state) value {
	switch e := e.(type) {
	case nil:
		return _nonNullValue
	case *program.NullLit:
		return value{state: DefinitelyNull}
	case *program.Literal, *program.This, *program.Lambda:
		return _nonNullValue
	case *program.Ident:
		if e.Field == nil {
			slot := f.vars.slot(f.locals.use(e))
			return value{state: s.get(slot), decl: f.decls[slot], slot: slot, tracked: true, kind: _variable, name: e.Name}
		}
		return f.fieldValue(e.Field, fieldKey(e.Field, "this"), s)
	case *program.FieldAccess:
		return f.evalFieldAccess(e, s)
	case *program.Call:
		return f.evalCall(e, s)
	case *program.New:
		for i, arg := range e.Args {
			v := f.eval(arg, s)
			if e.Ctor != nil {
				f.checkArg(e.Ctor, i, v, arg)
			}
		}
		f.expireOnCall(s)
		return _nonNullValue
	case *program.NewArray:
		for _, d := range e.Dims {
			f.eval(d, s)
		}
		for _, x := range e.Init {
			f.eval(x, s)
		}
		return _nonNullValue
	case *program.Binary:
		switch {
		case e.Op == program.OpAndAnd || e.Op == program.OpOrOr:
			f.join(s, e)
		case (e.Op == program.OpEq || e.Op == program.OpNe) && nullComparand(e) != nil:
			f.join(s, e)
		default:
			f.eval(e.X, s)
			f.eval(e.Y, s)
		}
		return _nonNullValue
	case *program.Unary:
		f.eval(e.X, s)
		return _nonNullValue
	case *program.Assign:
		return f.evalAssign(e, s)
	case *program.InstanceOf:
		f.eval(e.X, s)
		if e.Binding != "" {
			s.set(f.vars.slot(f.locals.key(e, e.Binding)), Unknown)
		}
		return _nonNullValue
	case *program.Conditional:
		return f.evalConditional(e, s)
	case *program.Cast:
		return f.eval(e.X, s)
	case *program.Index:
		f.deref(f.eval(e.X, s), e.X, s)
		f.eval(e.Index, s)
		return value{}
	}
	return value{}
}

// join evaluates a boolean expression in value context: both outcomes flow on.
func (f *fn) join(s *state, e program.Expr) {
	t, fl := f.cond(e, s)
	if m := merge(t, fl); m != nil {
		s.vals = m.vals
	}
}

// fieldKey returns the tracking key of a field read through the receiver with the given key.
func fieldKey(ref *program.FieldRef, recv string) string {
	if ref.Static {
		return ref.Key()
	}
	return recv + "." + ref.Name
}

// fieldValue returns the value of a field, tracked under key in the syntactic field mode.
func (f *fn) fieldValue(ref *program.FieldRef, key string, s *state) value {
	v := value{kind: _field, name: ref.Name}
	if decl, ok := (&annotation.FieldAnnotationKey{Field: ref}).Lookup(f.a.store); ok {
		v.decl = decl
	}
	if f.a.syntactic && key != "" {
		v.slot, v.tracked = f.vars.slot(key), true
		v.state = s.get(v.slot)
	}
	return v
}

func (f *fn) evalFieldAccess(e *program.FieldAccess, s *state) value {
	var recv string
	switch x := e.X.(type) {
	case nil:
	case *program.This:
		if x.Qualifier == "" {
			recv = "this"
		}
	default:
		xv := f.eval(x, s)
		if e.Field == nil || !e.Field.Static {
			f.deref(xv, x, s)
		}
		if xv.tracked {
			recv = f.vars.keys[xv.slot]
		}
	}
	if e.Field == nil {
		// Unresolved, or the length of an array.
		return value{}
	}
	if recv == "" && !e.Field.Static {
		return f.fieldValue(e.Field, "", s)
	}
	return f.fieldValue(e.Field, fieldKey(e.Field, recv), s)
}

func (f *fn) evalCall(e *program.Call, s *state) value {
	if e.X != nil {
		xv := f.eval(e.X, s)
		if e.Method == nil || !e.Method.Static {
			f.deref(xv, e.X, s)
		}
	}
	for i, arg := range e.Args {
		v := f.eval(arg, s)
		if e.Method != nil {
			f.checkArg(e.Method, i, v, arg)
		}
	}
	f.expireOnCall(s)

	v := value{kind: _method, name: e.Name + "()"}
	switch {
	case e.Method == nil:
	case hook.AssumeReturn(e):
		v.state = DefinitelyNonNull
	default:
		if decl, ok := (&annotation.RetAnnotationKey{Method: e.Method}).Lookup(f.a.store); ok {
			v.decl = decl
		}
	}
	return v
}

// checkArg checks an argument against the contract of the statically resolved target.
func (f *fn) checkArg(ref *program.MethodRef, i int, v value, arg program.Expr) {
	want, ok := (&annotation.ParamAnnotationKey{Method: ref, ParamNum: i}).Lookup(f.a.store)
	if !ok {
		return
	}
	typeName := "Object"
	if i < len(ref.Params) {
		typeName = program.SimpleName(ref.Params[i])
	}
	f.checkSink(v, want, typeName, arg.Pos())
}

// expireOnCall forgets the field facts in the syntactic mode, since any call may assign fields.
func (f *fn) expireOnCall(s *state) {
	if f.a.syntactic {
		s.expireFields(f.vars)
	}
}

// target is the location written by an assignment.
type target struct {
	value
	typeName string
}

func (f *fn) evalAssign(e *program.Assign, s *state) value {
	lhs := f.lvalue(e.LHS, s)
	rv := f.eval(e.RHS, s)
	if e.Op != program.OpAssign {
		// Compound assignments compute a primitive or a string.
		rv = _nonNullValue
	} else {
		f.checkSink(rv, lhs.decl, lhs.typeName, e.RHS.Pos())
	}
	if lhs.kind == _field && f.a.syntactic {
		s.expireField(f.vars, lhs.name)
	}
	out := lhs.value
	out.state = rv.settled()
	if lhs.tracked {
		s.set(lhs.slot, out.state)
	}
	return out
}

// lvalue evaluates the receiver of an assignment target and returns the written location.
func (f *fn) lvalue(e program.Expr, s *state) target {
	switch e := e.(type) {
	case *program.Ident:
		if e.Field == nil {
			slot := f.vars.slot(f.locals.use(e))
			return target{
				value:    value{decl: f.decls[slot], slot: slot, tracked: true, kind: _variable, name: e.Name},
				typeName: f.typeNames[slot],
			}
		}
		return target{value: f.fieldValue(e.Field, fieldKey(e.Field, "this"), s), typeName: f.fieldType(e.Field)}
	case *program.FieldAccess:
		if e.Field == nil {
			f.evalFieldAccess(e, s)
			return target{}
		}
		return target{value: f.evalFieldAccess(e, s), typeName: f.fieldType(e.Field)}
	case *program.Index:
		f.deref(f.eval(e.X, s), e.X, s)
		f.eval(e.Index, s)
		return target{}
	}
	f.eval(e, s)
	return target{}
}

func (f *fn) fieldType(ref *program.FieldRef) string {
	if fld := f.a.prog.FieldBinding(ref); fld != nil && fld.Type != nil {
		return fld.Type.SimpleName()
	}
	return "Object"
}

func (f *fn) evalConditional(e *program.Conditional, s *state) value {
	t, fl := f.cond(e.Cond, s)
	var then, els value
	if t != nil {
		then = f.eval(e.Then, t)
	}
	if fl != nil {
		els = f.eval(e.Else, fl)
	}
	if m := merge(t, fl); m != nil {
		s.vals = m.vals
	}
	switch {
	case t == nil:
		return els
	case fl == nil:
		return then
	}
	out := value{state: Merge(then.settled(), els.settled())}
	if out.state == Unknown && then.decl == els.decl {
		out.decl = then.decl
	}
	return out
}

// cond evaluates a condition in the state s and returns the states when it is true and when it is
// false; a nil state means the outcome is impossible. s itself is left unchanged.
func (f *fn) cond(e program.Expr, s *state) (*state, *state) {
	switch c := e.(type) {
	case *program.Binary:
		switch c.Op {
		case program.OpAndAnd:
			ta, fa := f.cond(c.X, s)
			if ta == nil {
				return nil, fa
			}
			tb, fb := f.cond(c.Y, ta)
			return tb, merge(fa, fb)
		case program.OpOrOr:
			ta, fa := f.cond(c.X, s)
			if fa == nil {
				return ta, nil
			}
			tb, fb := f.cond(c.Y, fa)
			return merge(ta, tb), fb
		case program.OpEq, program.OpNe:
			if operand := nullComparand(c); operand != nil {
				return f.compare(c, operand, s)
			}
		}
	case *program.Unary:
		// A double negation is not simplified; it is evaluated as an opaque value below.
		if inner, ok := c.X.(*program.Unary); c.Op == program.OpNot && (!ok || inner.Op != program.OpNot) {
			t, fl := f.cond(c.X, s)
			return fl, t
		}
	case *program.Call:
		if r := hook.ReplaceConditional(c); r != nil {
			return f.cond(r, s)
		}
	case *program.InstanceOf:
		out := s.copy()
		v := f.eval(c.X, out)
		t := out.copy()
		if v.tracked {
			t.set(v.slot, ProtectedNonNull)
		}
		if c.Binding != "" {
			t.set(f.vars.slot(f.locals.key(c, c.Binding)), ProtectedNonNull)
		}
		return t, out
	case *program.Literal:
		if c.Kind == program.BoolLit {
			if c.Value == "true" {
				return s.copy(), nil
			}
			return nil, s.copy()
		}
	}
	out := s.copy()
	f.eval(e, out)
	return out, out.copy()
}

// nullComparand returns the operand compared against the null literal, if any.
func nullComparand(b *program.Binary) program.Expr {
	_, xNull := program.StripCasts(b.X).(*program.NullLit)
	_, yNull := program.StripCasts(b.Y).(*program.NullLit)
	switch {
	case yNull && !xNull:
		return b.X
	case xNull && !yNull:
		return b.Y
	}
	return nil
}

// compare evaluates `x == null` or `x != null`, reporting comparisons whose outcome is known and
// narrowing x on both branches.
func (f *fn) compare(c *program.Binary, x program.Expr, s *state) (*state, *state) {
	out := s.copy()
	v := f.eval(x, out)
	eq := c.Op == program.OpEq

	if !f.silent {
		switch {
		case v.nonNull() && eq:
			f.report(diagnostic.NullComparisonAlwaysFalse, c.Pos(), "Null comparison always yields false: "+v.cannotBeNull())
		case v.nonNull():
			f.report(diagnostic.RedundantNullCheck, c.Pos(), "Redundant null check: "+v.cannotBeNull())
		case v.null() && eq:
			f.report(diagnostic.NullComparisonAlwaysTrue, c.Pos(), "Null comparison always yields true: "+v.canOnlyBeNull())
		case v.null():
			f.report(diagnostic.NullComparisonAlwaysFalse, c.Pos(), "Null comparison always yields false: "+v.canOnlyBeNull())
		}
	}

	isNull, notNull := out, out.copy()
	if v.tracked {
		isNull.set(v.slot, DefinitelyNull)
		notNull.set(v.slot, ProtectedNonNull)
	}
	switch {
	case v.nonNull():
		isNull = nil
	case v.null():
		notNull = nil
	}
	if eq {
		return isNull, notNull
	}
	return notNull, isNull
}
