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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/defaults"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
)

const (
	_nonNull  = "org.eclipse.jdt.annotation.NonNull"
	_nullable = "org.eclipse.jdt.annotation.Nullable"
)

var _hashCode = program.MRef("java.lang.Object", "hashCode")

// Nodes are not shared between programs: linking assigns their spans.
func object() *program.TypeRef { return program.Ref("java.lang.Object") }

type finding struct {
	Kind    diagnostic.Kind
	Message string
}

type recorder struct {
	findings []finding
}

func (r *recorder) Report(k diagnostic.Kind, _ program.Span, message string, _ ...string) {
	r.findings = append(r.findings, finding{Kind: k, Message: message})
}

func (*recorder) Enabled(diagnostic.Kind) bool { return true }

// analyze declares p.A with the given fields and methods and runs the flow analysis over every
// body of it.
func analyze(t *testing.T, syntactic bool, fields []*program.Field, methods ...*program.Method) []finding {
	t.Helper()

	prog, err := program.NewProgram(&program.Unit{
		Filename: "p/A.java",
		Package:  "p",
		Types:    []*program.Type{{Name: "A", Fields: fields, Methods: methods}},
	})
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	cfg.SyntacticFieldAnalysis = syntactic
	rec := annotation.NewRecognizer(cfg)
	col := annotation.NewCollector(prog, rec, defaults.NewResolver(prog, rec), cfg)
	store := col.Collect()
	store.Freeze()

	a := New(prog, store, col, cfg)
	var r recorder
	typ := prog.Type("p.A")
	for _, f := range typ.Fields {
		a.FieldInit(f, &r)
	}
	for _, m := range typ.Methods {
		a.Method(m, &r)
	}
	return r.findings
}

func method(name string, params []*program.Param, body ...program.Stmt) *program.Method {
	return &program.Method{Name: name, Params: params, Return: program.Void(), Body: program.Body(body...)}
}

func params(ps ...*program.Param) []*program.Param { return ps }

func hash(x program.Expr) program.Stmt { return program.Do(program.Invoke(x, _hashCode)) }

func TestMerge(t *testing.T) {
	t.Parallel()

	all := []State{Unknown, DefinitelyNull, DefinitelyNonNull, PotentiallyNull, ProtectedNonNull}
	for _, a := range all {
		require.Equal(t, a, Merge(a, a))
		require.Equal(t, PotentiallyNull, Merge(a, PotentiallyNull))
		for _, b := range all {
			require.Equal(t, Merge(a, b), Merge(b, a), "%s ⊔ %s", a, b)
		}
	}

	require.Equal(t, DefinitelyNonNull, Merge(DefinitelyNonNull, ProtectedNonNull))
	require.Equal(t, PotentiallyNull, Merge(DefinitelyNull, DefinitelyNonNull))
	require.Equal(t, PotentiallyNull, Merge(DefinitelyNull, ProtectedNonNull))
	require.Equal(t, PotentiallyNull, Merge(Unknown, DefinitelyNull))
	require.Equal(t, Unknown, Merge(Unknown, DefinitelyNonNull))
	require.Equal(t, Unknown, Merge(Unknown, ProtectedNonNull))
}

func TestMergeKeepsNonNullAcrossJoins(t *testing.T) {
	t.Parallel()

	v := newVars()
	x := v.slot("x")
	a, b := &state{}, &state{}
	a.set(x, DefinitelyNonNull)
	b.set(x, DefinitelyNonNull)
	require.Equal(t, DefinitelyNonNull, merge(a, b).get(x))
	require.Equal(t, DefinitelyNonNull, merge(a, nil).get(x))
	require.Nil(t, merge(nil, nil))

	b.set(x, ProtectedNonNull)
	require.Equal(t, DefinitelyNonNull, merge(a, b).get(x))
	require.Equal(t, "{x=nonnull}", merge(a, b).format(v))
}

func TestWiden(t *testing.T) {
	t.Parallel()

	require.Equal(t, PotentiallyNull, widen(DefinitelyNull, DefinitelyNonNull))
	require.Equal(t, Unknown, widen(ProtectedNonNull, Unknown))
	require.Equal(t, DefinitelyNonNull, widen(DefinitelyNonNull, DefinitelyNonNull))
}

func TestDereference(t *testing.T) {
	t.Parallel()

	systemOut := &program.FieldAccess{Name: "out", Field: &program.FieldRef{Owner: "java.lang.System", Name: "out", Static: true}}
	toString := program.Invoke(program.Id("o"), program.MRef("java.lang.Object", "toString"))

	tests := []struct {
		name   string
		method *program.Method
		want   []finding
	}{
		{
			name: "nullable parameter",
			method: method("foo", params(program.P("o", object(), program.Ann(_nullable))),
				program.Do(program.Invoke(systemOut, program.MRef("java.io.PrintStream", "print", "String"), toString)),
			),
			want: []finding{{
				Kind:    diagnostic.PotentialNullPointerAccess,
				Message: "Potential null pointer access: this expression has a '@Nullable' type",
			}},
		},
		{
			name: "null local",
			method: method("foo", nil,
				program.Var("x", object(), program.Null()),
				hash(program.Id("x")),
				// Reported once: the variable is non-null after the first dereference.
				hash(program.Id("x")),
			),
			want: []finding{{
				Kind:    diagnostic.NullPointerAccess,
				Message: "Null pointer access: The variable x can only be null at this location",
			}},
		},
		{
			name: "checked before use",
			method: method("foo", params(program.P("o", object(), program.Ann(_nullable))),
				program.IfElse(program.Eq(program.Id("o"), program.Null()), program.Ret(nil), nil),
				hash(program.Id("o")),
			),
		},
		{
			name: "unannotated parameter",
			method: method("foo", params(program.P("o", object())),
				hash(program.Id("o")),
			),
		},
		{
			name: "throw null",
			method: method("foo", nil,
				&program.Throw{X: program.Null()},
			),
			want: []finding{{
				Kind:    diagnostic.NullPointerAccess,
				Message: "Null pointer access: This expression can only be null at this location",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := analyze(t, false, nil, tt.method)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected findings (-want +got):\n%s", diff)
			}
		})
	}
}

func TestComparisons(t *testing.T) {
	t.Parallel()

	nonNullParam := func() []*program.Param { return params(program.P("o", object(), program.Ann(_nonNull))) }
	tests := []struct {
		name   string
		method *program.Method
		want   []finding
	}{
		{
			name: "redundant check of a nonnull parameter",
			method: method("foo", nonNullParam(),
				program.IfElse(program.Ne(program.Id("o"), program.Null()),
					program.Do(program.Invoke(nil, program.MRef("p.A", "print", "Object"), program.Id("o"))), nil),
			),
			want: []finding{{
				Kind:    diagnostic.RedundantNullCheck,
				Message: "Redundant null check: The variable o cannot be null at this location",
			}},
		},
		{
			name: "nonnull compared equal",
			method: method("foo", nonNullParam(),
				program.IfElse(program.Eq(program.Id("o"), program.Null()), program.Ret(nil), nil),
				hash(program.Id("o")),
			),
			want: []finding{{
				Kind:    diagnostic.NullComparisonAlwaysFalse,
				Message: "Null comparison always yields false: The variable o cannot be null at this location",
			}},
		},
		{
			name: "null compared equal",
			method: method("foo", nil,
				program.Var("x", object(), program.Null()),
				program.IfElse(program.Eq(program.Id("x"), program.Null()), program.Ret(nil), nil),
			),
			want: []finding{{
				Kind:    diagnostic.NullComparisonAlwaysTrue,
				Message: "Null comparison always yields true: The variable x can only be null at this location",
			}},
		},
		{
			name: "null compared unequal",
			method: method("foo", nil,
				program.Var("x", object(), program.Null()),
				program.IfElse(program.Ne(program.Id("x"), program.Null()), hash(program.Id("x")), nil),
			),
			want: []finding{{
				Kind:    diagnostic.NullComparisonAlwaysFalse,
				Message: "Null comparison always yields false: The variable x can only be null at this location",
			}},
		},
		{
			name: "trusted call is not a redundant check",
			method: method("foo", nonNullParam(),
				program.Do(program.Invoke(nil, program.StaticRef("java.util.Objects", "requireNonNull", "Object"), program.Id("o"))),
				hash(program.Id("o")),
			),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := analyze(t, false, nil, tt.method)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected findings (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBooleanComposition(t *testing.T) {
	t.Parallel()

	a := program.Id("a")
	positive := func() program.Expr {
		return &program.Binary{Op: program.OpArith, X: program.Invoke(program.Id("a"), _hashCode), Y: program.Int("0")}
	}

	tests := []struct {
		name string
		cond program.Expr
		then program.Stmt
		want []finding
	}{
		{name: "and protects the right operand", cond: program.And(program.Ne(a, program.Null()), positive())},
		{name: "or protects the right operand", cond: program.Or(program.Eq(a, program.Null()), positive())},
		{
			name: "or with the wrong test",
			cond: program.Or(program.Ne(a, program.Null()), positive()),
			want: []finding{{
				Kind:    diagnostic.NullPointerAccess,
				Message: "Null pointer access: The variable a can only be null at this location",
			}},
		},
		{name: "negated test", cond: program.Not(program.Eq(a, program.Null())), then: hash(program.Id("a"))},
		{
			name: "double negation is not a test",
			cond: program.Not(program.Not(program.Ne(a, program.Null()))),
			then: hash(program.Id("a")),
			want: []finding{{
				Kind:    diagnostic.PotentialNullPointerAccess,
				Message: "Potential null pointer access: The variable a may be null at this location",
			}},
		},
		{
			name: "both operands narrow",
			cond: program.And(program.Ne(a, program.Null()), program.Ne(program.Id("b"), program.Null())),
			then: program.Body(hash(program.Id("a")), hash(program.Id("b"))),
		},
		{
			name: "instanceof",
			cond: &program.InstanceOf{X: a, Type: program.Ref("java.lang.String")},
			then: hash(program.Id("a")),
		},
		{
			name: "trusted conditional",
			cond: program.Invoke(nil, program.StaticRef("java.util.Objects", "nonNull", "Object"), program.Id("a")),
			then: hash(program.Id("a")),
		},
	}
	// The subtests share nodes, so they run one at a time.
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			then := tt.then
			if then == nil {
				then = program.Body()
			}
			m := method("foo", params(program.P("a", object(), program.Ann(_nullable)), program.P("b", object(), program.Ann(_nullable))),
				program.IfElse(tt.cond, then, nil),
			)
			got := analyze(t, false, nil, m)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected findings (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNarrowingAfterAndOnFalseBranch(t *testing.T) {
	t.Parallel()

	a, b := program.Id("a"), program.Id("b")
	m := method("foo", params(program.P("a", object(), program.Ann(_nullable)), program.P("b", object(), program.Ann(_nullable))),
		program.IfElse(program.And(program.Ne(a, program.Null()), program.Ne(b, program.Null())),
			program.Ret(nil),
			// Neither is known on the false branch.
			program.Body(hash(program.Id("a")), hash(program.Id("b")))),
	)
	got := analyze(t, false, nil, m)
	require.Len(t, got, 2)
	for _, f := range got {
		require.Equal(t, diagnostic.PotentialNullPointerAccess, f.Kind)
	}
}

func TestLoops(t *testing.T) {
	t.Parallel()

	c := func() program.Expr { return program.Id("c") }
	x := func() program.Expr { return program.Id("x") }
	newObject := func() program.Expr { return program.NewObj(object(), program.CtorRef("java.lang.Object")) }

	t.Run("assigned null in the body", func(t *testing.T) {
		t.Parallel()

		m := method("foo", params(program.P("c", program.Prim("boolean"))),
			program.Var("x", object(), newObject()),
			&program.While{Cond: c(), Body: program.Body(hash(x()), program.Do(program.Set(x(), program.Null())))},
		)
		require.Equal(t, []finding{{
			Kind:    diagnostic.PotentialNullPointerAccess,
			Message: "Potential null pointer access: The variable x may be null at this location",
		}}, analyze(t, false, nil, m))
	})

	t.Run("checked in the body", func(t *testing.T) {
		t.Parallel()

		m := method("foo", params(program.P("c", program.Prim("boolean"))),
			program.Var("x", object(), program.Null()),
			&program.While{Cond: c(), Body: program.Body(
				program.IfElse(program.Ne(x(), program.Null()), hash(x()), nil),
				program.Do(program.Set(x(), newObject())),
			)},
		)
		require.Empty(t, analyze(t, false, nil, m))
	})

	t.Run("infinite loop", func(t *testing.T) {
		t.Parallel()

		m := method("foo", nil,
			program.Var("x", object(), program.Null()),
			&program.While{Cond: program.Bool(true), Body: program.Body(program.Do(program.Set(x(), newObject())))},
			// Not reachable.
			hash(x()),
		)
		require.Empty(t, analyze(t, false, nil, m))
	})
}

func TestTryFinally(t *testing.T) {
	t.Parallel()

	x := func() program.Expr { return program.Id("x") }
	m := method("foo", nil,
		program.Var("x", object(), program.Null()),
		&program.Try{
			Body:    program.Body(program.Do(program.Set(x(), program.NewObj(object(), program.CtorRef("java.lang.Object"))))),
			Finally: program.Body(hash(x())),
		},
	)
	// Only the copy run on exceptions sees the null value; the normal copy does not report.
	require.Equal(t, []finding{{
		Kind:    diagnostic.PotentialNullPointerAccess,
		Message: "Potential null pointer access: The variable x may be null at this location",
	}}, analyze(t, false, nil, m))
}

func TestSinks(t *testing.T) {
	t.Parallel()

	returning := func(ret program.Expr, ps ...*program.Param) *program.Method {
		return &program.Method{
			Name:        "get",
			Params:      ps,
			Return:      object(),
			Annotations: []*program.Annotation{program.Ann(_nonNull)},
			Body:        program.Body(program.Ret(ret)),
		}
	}
	unannotated := &program.Method{Name: "other", Return: object()}
	take := &program.Method{Name: "take", Params: params(program.P("x", object(), program.Ann(_nonNull))), Return: program.Void()}

	tests := []struct {
		name    string
		methods []*program.Method
		fields  []*program.Field
		want    []finding
	}{
		{
			name:    "return null",
			methods: []*program.Method{returning(program.Null())},
			want: []finding{{
				Kind:    diagnostic.NullTypeMismatch,
				Message: "Null type mismatch: required '@NonNull Object' but the provided value is null",
			}},
		},
		{
			name:    "return nullable parameter",
			methods: []*program.Method{returning(program.Id("o"), program.P("o", object(), program.Ann(_nullable)))},
			want: []finding{{
				Kind:    diagnostic.NullTypeMismatch,
				Message: "Null type mismatch: required '@NonNull Object' but the provided value is specified as @Nullable",
			}},
		},
		{
			name:    "return unannotated call",
			methods: []*program.Method{returning(program.Invoke(nil, program.MRef("p.A", "other"))), unannotated},
			want: []finding{{
				Kind:    diagnostic.UncheckedNullConversion,
				Message: "Null type safety: The expression of type 'Object' needs unchecked conversion to conform to '@NonNull Object'",
			}},
		},
		{
			name: "argument",
			methods: []*program.Method{
				method("foo", nil,
					program.Var("x", object(), program.Null()),
					program.IfElse(program.Id("c"), program.Do(program.Set(program.Id("x"), program.Str("s"))), nil),
					program.Do(program.Invoke(nil, program.MRef("p.A", "take", "Object"), program.Id("x"))),
				),
				take,
			},
			want: []finding{{
				Kind:    diagnostic.NullTypeMismatch,
				Message: "Null type mismatch: required '@NonNull Object' but the provided value is inferred as @Nullable",
			}},
		},
		{
			name: "field initializer",
			fields: []*program.Field{{
				Name: "f", Type: object(), Annotations: []*program.Annotation{program.Ann(_nonNull)}, Init: program.Null(),
			}},
			want: []finding{{
				Kind:    diagnostic.NullTypeMismatch,
				Message: "Null type mismatch: required '@NonNull Object' but the provided value is null",
			}},
		},
		{
			name: "field assignment",
			fields: []*program.Field{{
				Name: "f", Type: program.Ref("java.lang.String"), Annotations: []*program.Annotation{program.Ann(_nonNull)},
			}},
			methods: []*program.Method{method("foo", nil, program.Do(program.Set(program.ThisSel("p.A", "f"), program.Null())))},
			want: []finding{{
				Kind:    diagnostic.NullTypeMismatch,
				Message: "Null type mismatch: required '@NonNull String' but the provided value is null",
			}},
		},
		{
			name: "conditional expression",
			methods: []*program.Method{returning(
				&program.Conditional{
					Cond: program.Ne(program.Id("o"), program.Null()),
					Then: program.Id("o"),
					Else: program.Str("default"),
				},
				program.P("o", object(), program.Ann(_nullable)),
			)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := analyze(t, false, tt.fields, tt.methods...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected findings (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSyntacticFieldAnalysis(t *testing.T) {
	t.Parallel()

	nullableField := func() []*program.Field {
		return []*program.Field{{Name: "f", Type: object(), Annotations: []*program.Annotation{program.Ann(_nullable)}}}
	}
	thisF := func() program.Expr { return program.ThisSel("p.A", "f") }
	bareF := func() program.Expr { return program.FieldId("p.A", "f") }
	fieldMessage := finding{
		Kind:    diagnostic.PotentialNullPointerAccess,
		Message: "Potential null pointer access: The field f is specified as @Nullable",
	}

	tests := []struct {
		name      string
		syntactic bool
		method    *program.Method
		want      []finding
	}{
		{
			name:   "check ignored without the syntactic mode",
			method: method("foo", nil, program.IfElse(program.Ne(thisF(), program.Null()), hash(thisF()), nil)),
			want:   []finding{fieldMessage},
		},
		{
			name:      "check honored",
			syntactic: true,
			method:    method("foo", nil, program.IfElse(program.Ne(thisF(), program.Null()), hash(bareF()), nil)),
		},
		{
			name:      "expired by a call",
			syntactic: true,
			method: method("foo", nil, program.IfElse(program.Ne(bareF(), program.Null()),
				program.Body(program.Do(program.Invoke(nil, program.MRef("p.A", "bar"))), hash(bareF())), nil)),
			want: []finding{fieldMessage},
		},
		{
			name:      "expired by an empty statement",
			syntactic: true,
			method: method("foo", nil, program.IfElse(program.Ne(bareF(), program.Null()),
				program.Body(&program.Empty{}, hash(bareF())), nil)),
			want: []finding{fieldMessage},
		},
		{
			name:      "parameter hiding the field",
			syntactic: true,
			method: method("foo", params(program.P("f", object())),
				program.IfElse(program.Ne(program.Id("f"), program.Null()), hash(thisF()), nil)),
			want: []finding{fieldMessage},
		},
		{
			name:      "field checked through a local",
			syntactic: true,
			method: method("foo", nil,
				program.Var("a", program.Ref("p.A"), program.NewObj(program.Ref("p.A"), program.CtorRef("p.A"))),
				program.IfElse(program.Ne(program.Sel(program.Id("a"), "p.A", "f"), program.Null()),
					hash(program.Sel(program.Id("a"), "p.A", "f")), nil)),
		},
		{
			name:      "call results are not tracked",
			syntactic: true,
			method: method("foo", nil,
				program.IfElse(program.Ne(program.Sel(program.Invoke(nil, program.MRef("p.A", "self")), "p.A", "f"), program.Null()),
					hash(program.Sel(program.Invoke(nil, program.MRef("p.A", "self")), "p.A", "f")), nil)),
			want: []finding{fieldMessage},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := analyze(t, tt.syntactic, nullableField(), tt.method)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("unexpected findings (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSameNameInSiblingScopes(t *testing.T) {
	t.Parallel()

	nonNullLocal := func() *program.LocalVar {
		return &program.LocalVar{Name: "s", Type: object(), Annotations: []*program.Annotation{program.Ann(_nonNull)}, Init: program.Null()}
	}
	mismatch := finding{
		Kind:    diagnostic.NullTypeMismatch,
		Message: "Null type mismatch: required '@NonNull Object' but the provided value is null",
	}

	tests := []struct {
		name   string
		blocks []program.Stmt
	}{
		{
			name:   "annotated first",
			blocks: []program.Stmt{program.Body(nonNullLocal()), program.Body(program.Var("s", object(), program.Null()))},
		},
		{
			name:   "annotated last",
			blocks: []program.Stmt{program.Body(program.Var("s", object(), program.Null())), program.Body(nonNullLocal())},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := analyze(t, false, nil, method("foo", nil, tt.blocks...))
			require.Equal(t, []finding{mismatch}, got)
		})
	}

	t.Run("states are not shared", func(t *testing.T) {
		t.Parallel()

		m := method("foo", nil,
			program.Body(program.Var("s", object(), program.Null())),
			program.Body(
				program.Var("s", object(), program.NewObj(object(), program.CtorRef("java.lang.Object"))),
				program.IfElse(program.Ne(program.Id("s"), program.Null()), hash(program.Id("s")), nil),
			),
		)
		require.Equal(t, []finding{{
			Kind:    diagnostic.RedundantNullCheck,
			Message: "Redundant null check: The variable s cannot be null at this location",
		}}, analyze(t, false, nil, m))
	})
}

func TestResolveLocals(t *testing.T) {
	t.Parallel()

	first, second := program.Id("s"), program.Id("s")
	param := program.Id("p")
	shadowed := program.Id("p")
	body := program.Body(
		program.Body(program.Var("s", object(), nil), program.Do(first)),
		&program.While{Cond: program.Bool(true), Body: program.Body(program.Var("s", object(), nil), program.Do(second))},
		program.Do(param),
		&program.Try{
			Body:    program.Body(),
			Catches: []*program.Catch{{Param: program.Var("p", program.Ref("java.lang.Exception"), nil), Body: program.Body(program.Do(shadowed))}},
		},
	)
	l := resolveLocals(params(program.P("p", object())), body)
	require.Equal(t, "s", l.use(first))
	require.Equal(t, "s:2", l.use(second))
	require.Equal(t, "p", l.use(param))
	require.Equal(t, "p:2", l.use(shadowed))
	require.Equal(t, "q", l.use(program.Id("q")))
}

// A dereference in a finally block inside a loop is reported once per distinct outcome: the copies
// of the finally block reporting the same problem at the same place are merged.
func TestLoopWithTryFinally(t *testing.T) {
	t.Parallel()

	x := func() program.Expr { return program.Id("x") }
	newObject := func() program.Expr { return program.NewObj(object(), program.CtorRef("java.lang.Object")) }
	nullAccess := finding{
		Kind:    diagnostic.NullPointerAccess,
		Message: "Null pointer access: The variable x can only be null at this location",
	}
	potentialAccess := finding{
		Kind:    diagnostic.PotentialNullPointerAccess,
		Message: "Potential null pointer access: The variable x may be null at this location",
	}

	t.Run("loop carried", func(t *testing.T) {
		t.Parallel()

		m := method("foo", params(program.P("c", program.Prim("boolean"))),
			program.Var("x", object(), newObject()),
			&program.While{Cond: program.Id("c"), Body: program.Body(&program.Try{
				Body:    program.Body(hash(x()), program.Do(program.Set(x(), program.Null()))),
				Finally: program.Body(hash(x())),
			})},
		)
		// The normal copy sees null, the exceptional one sees either value. The dereference in the
		// finally block makes x non-null again, so the try body never reports.
		require.ElementsMatch(t, []finding{nullAccess, potentialAccess}, analyze(t, false, nil, m))
	})

	t.Run("duplicates merged", func(t *testing.T) {
		t.Parallel()

		m := method("foo", params(program.P("c", program.Prim("boolean"))),
			program.Var("x", object(), newObject()),
			&program.While{Cond: program.Id("c"), Body: program.Body(&program.Try{
				Body: program.Body(
					program.IfElse(program.Id("c"), program.Body(program.Do(program.Set(x(), program.Null())), program.Ret(nil)), nil),
					program.Do(program.Set(x(), program.Null())),
				),
				Finally: program.Body(hash(x())),
			})},
		)
		// The return copy and the normal copy both see null at the same dereference.
		require.ElementsMatch(t, []finding{nullAccess, potentialAccess}, analyze(t, false, nil, m))
	})
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
