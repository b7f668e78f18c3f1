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

package structfield

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/defaults"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/nullawaytest"
	"go.uber.org/nullaway/program"
)

const _nonNull = "org.eclipse.jdt.annotation.NonNull"

type finding struct {
	Span    program.Span
	Message string
	Notes   []string
}

type recorder struct {
	findings []finding
}

func (r *recorder) Report(k diagnostic.Kind, span program.Span, message string, notes ...string) {
	if k != diagnostic.PossiblyUninitializedNonNullField {
		return
	}
	r.findings = append(r.findings, finding{Span: span, Message: message, Notes: notes})
}

func (*recorder) Enabled(diagnostic.Kind) bool { return true }

// check declares p.A and runs the checker over it. It returns the linked type along with the
// findings so that expected spans can be looked up.
func check(t *testing.T, typ *program.Type) (*program.Type, []finding) {
	t.Helper()

	typ.Name = "A"
	prog, err := program.NewProgram(&program.Unit{Filename: "p/A.java", Package: "p", Types: []*program.Type{typ}})
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	rec := annotation.NewRecognizer(cfg)
	store := annotation.NewCollector(prog, rec, defaults.NewResolver(prog, rec), cfg).Collect()
	store.Freeze()

	var r recorder
	linked := prog.Type("p.A")
	New(store, rec).Check(linked, &r)
	return linked, r.findings
}

func nonNullField(name string, anns ...*program.Annotation) *program.Field {
	return &program.Field{
		Name:        name,
		Type:        program.Ref("java.lang.Object"),
		Annotations: append([]*program.Annotation{program.Ann(_nonNull)}, anns...),
	}
}

func staticField(name string) *program.Field {
	f := nonNullField(name)
	f.Static = true
	return f
}

func ctor(params []*program.Param, body ...program.Stmt) *program.Method {
	return &program.Method{Name: "A", Constructor: true, Params: params, Body: program.Body(body...)}
}

func newObject() program.Expr {
	return program.NewObj(program.Ref("java.lang.Object"), program.CtorRef("java.lang.Object"))
}

func assignThis(name string) program.Stmt {
	return program.Do(program.Set(program.ThisSel("p.A", name), newObject()))
}

func assignBare(name string) program.Stmt {
	return program.Do(program.Set(program.FieldId("p.A", name), newObject()))
}

func TestFieldWithoutConstructor(t *testing.T) {
	t.Parallel()

	typ, findings := check(t, &program.Type{Fields: []*program.Field{nonNullField("o")}})
	want := []finding{{
		Span:    typ.Field("o").Span,
		Message: "The @NonNull field o may not have been initialized",
	}}
	require.Empty(t, cmp.Diff(want, findings))
}

func TestConstructorPaths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body func() []program.Stmt
		// report is true if the constructor leaves o possibly unassigned.
		report bool
	}{
		{
			name: "assigned",
			body: func() []program.Stmt { return []program.Stmt{assignThis("o")} },
		},
		{
			name: "assigned through bare name",
			body: func() []program.Stmt { return []program.Stmt{assignBare("o")} },
		},
		{
			name: "assigned on both branches",
			body: func() []program.Stmt {
				return []program.Stmt{program.IfElse(program.Id("b"), assignThis("o"), assignBare("o"))}
			},
		},
		{
			name: "assigned on one branch",
			body: func() []program.Stmt {
				return []program.Stmt{program.IfElse(program.Id("b"), assignThis("o"), nil)}
			},
			report: true,
		},
		{
			name: "other branch throws",
			body: func() []program.Stmt {
				return []program.Stmt{program.IfElse(program.Id("b"), assignThis("o"), &program.Throw{X: newObject()})}
			},
		},
		{
			name: "assigned in a loop body",
			body: func() []program.Stmt {
				return []program.Stmt{&program.While{Cond: program.Id("b"), Body: assignThis("o")}}
			},
			report: true,
		},
		{
			name: "returns early",
			body: func() []program.Stmt {
				return []program.Stmt{program.IfElse(program.Id("b"), program.Ret(nil), nil), assignThis("o")}
			},
			report: true,
		},
		{
			name: "assigned in try, swallowed in catch",
			body: func() []program.Stmt {
				return []program.Stmt{&program.Try{
					Body: program.Body(program.Do(program.Invoke(nil, program.StaticRef("p.A", "init"))), assignThis("o")),
					Catches: []*program.Catch{{
						Param: program.Var("e", program.Ref("java.lang.Exception"), nil),
						Body:  program.Body(),
					}},
				}}
			},
			report: true,
		},
		{
			name: "assigned in finally",
			body: func() []program.Stmt {
				return []program.Stmt{&program.Try{
					Body:    program.Body(program.Do(program.Invoke(nil, program.StaticRef("p.A", "init")))),
					Finally: program.Body(assignThis("o")),
				}}
			},
		},
		{
			name: "local variable of the same name",
			body: func() []program.Stmt {
				return []program.Stmt{program.Var("o", program.Ref("java.lang.Object"), newObject())}
			},
			report: true,
		},
		{
			name: "assigned on another instance",
			body: func() []program.Stmt {
				return []program.Stmt{program.Do(program.Set(program.Sel(program.Id("other"), "p.A", "o"), newObject()))}
			},
			report: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ps := []*program.Param{program.P("b", program.Prim("boolean")), program.P("other", program.Ref("p.A"))}
			typ, findings := check(t, &program.Type{
				Fields:  []*program.Field{nonNullField("o")},
				Methods: []*program.Method{ctor(ps, tt.body()...)},
			})
			if !tt.report {
				require.Empty(t, findings)
				return
			}
			m := typ.Constructors()[0]
			want := []finding{{
				Span:    m.Span,
				Message: "The @NonNull field o may not have been initialized in constructor A(boolean, A)",
			}}
			require.Empty(t, cmp.Diff(want, findings))
		})
	}
}

func TestEveryConstructorIsChecked(t *testing.T) {
	t.Parallel()

	typ, findings := check(t, &program.Type{
		Fields: []*program.Field{nonNullField("o"), nonNullField("q")},
		Methods: []*program.Method{
			ctor(nil, assignThis("o"), assignThis("q")),
			ctor([]*program.Param{program.P("s", program.Ref("java.lang.String"))}, assignThis("q")),
			// this(...) leaves the initialization to the delegate.
			ctor([]*program.Param{program.P("i", program.Prim("int"))},
				program.Do(program.Invoke(nil, program.CtorRef("p.A")))),
		},
	})
	want := []finding{{
		Span:    typ.Constructors()[1].Span,
		Message: "The @NonNull field o may not have been initialized in constructor A(String)",
	}}
	require.Empty(t, cmp.Diff(want, findings))
}

func TestInitializers(t *testing.T) {
	t.Parallel()

	withInit := nonNullField("withInit")
	withInit.Init = newObject()
	_, findings := check(t, &program.Type{
		Fields: []*program.Field{withInit, nonNullField("byBlock"), staticField("s")},
		Initializers: []*program.Initializer{
			{Body: program.Body(assignThis("byBlock"))},
			{Static: true, Body: program.Body(program.Do(program.Set(program.Sel(nil, "p.A", "s"), newObject())))},
		},
		Methods: []*program.Method{ctor(nil)},
	})
	require.Empty(t, findings)
}

func TestStaticFields(t *testing.T) {
	t.Parallel()

	// Constructors do not initialize static fields.
	typ, findings := check(t, &program.Type{
		Fields:  []*program.Field{staticField("s")},
		Methods: []*program.Method{ctor(nil, program.Do(program.Set(program.FieldId("p.A", "s"), newObject())))},
	})
	want := []finding{{
		Span:    typ.Field("s").Span,
		Message: "The @NonNull field s may not have been initialized",
	}}
	require.Empty(t, cmp.Diff(want, findings))
}

func TestInjectedFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		field  func() *program.Field
		report bool
	}{
		{
			name:  "injected",
			field: func() *program.Field { return nonNullField("o", program.Ann("javax.inject.Inject")) },
		},
		{
			name: "optional injection",
			field: func() *program.Field {
				return nonNullField("o", program.Ann("org.springframework.beans.factory.annotation.Autowired", "required", "false"))
			},
			report: true,
		},
		{
			name: "static injection",
			field: func() *program.Field {
				f := nonNullField("o", program.Ann("javax.inject.Inject"))
				f.Static = true
				return f
			},
			report: true,
		},
		{
			name:   "not a marker",
			field:  func() *program.Field { return nonNullField("o", program.Ann("p.Inject")) },
			report: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, findings := check(t, &program.Type{Fields: []*program.Field{tt.field()}})
			if tt.report {
				require.Len(t, findings, 1)
			} else {
				require.Empty(t, findings)
			}
		})
	}
}

func TestMissingDefaultCase(t *testing.T) {
	t.Parallel()

	sw := func(withDefault bool) program.Stmt {
		s := &program.Switch{
			X: program.Id("k"),
			Cases: []*program.Case{
				{Values: []program.Expr{program.Int("1")}, Body: []program.Stmt{assignThis("o"), &program.Break{}}},
				{Values: []program.Expr{program.Int("2")}, Body: []program.Stmt{assignThis("o"), &program.Break{}}},
			},
		}
		if withDefault {
			s.Cases = append(s.Cases, &program.Case{Default: true, Body: []program.Stmt{assignThis("o")}})
		}
		return s
	}
	k := func() []*program.Param { return []*program.Param{program.P("k", program.Prim("int"))} }

	_, findings := check(t, &program.Type{
		Fields:  []*program.Field{nonNullField("o")},
		Methods: []*program.Method{ctor(k(), sw(false))},
	})
	require.Len(t, findings, 1)
	require.Equal(t, []string{MissingDefaultNote}, findings[0].Notes)

	_, findings = check(t, &program.Type{
		Fields:  []*program.Field{nonNullField("o")},
		Methods: []*program.Method{ctor(k(), sw(true))},
	})
	require.Empty(t, findings)

	// Without any assignment the default case would not help.
	_, findings = check(t, &program.Type{
		Fields:  []*program.Field{nonNullField("o")},
		Methods: []*program.Method{ctor(k(), &program.Switch{X: program.Id("k")})},
	})
	require.Len(t, findings, 1)
	require.Empty(t, findings[0].Notes)
}

func TestNullableAndUnspecifiedFieldsAreIgnored(t *testing.T) {
	t.Parallel()

	_, findings := check(t, &program.Type{
		Fields: []*program.Field{
			{Name: "a", Type: program.Ref("java.lang.Object"), Annotations: []*program.Annotation{program.Ann("org.eclipse.jdt.annotation.Nullable")}},
			{Name: "b", Type: program.Ref("java.lang.Object")},
		},
	})
	require.Empty(t, findings)
}

func TestAnalyzer(t *testing.T) {
	t.Parallel()

	pass := nullawaytest.NewPasses(t, nil, &program.Unit{Filename: "p/A.java", Package: "p", Types: []*program.Type{
		{Name: "A", Fields: []*program.Field{nonNullField("o")}, Members: []*program.Type{
			{Name: "B", Fields: []*program.Field{nonNullField("q")}},
		}},
	}})[0]

	r := Analyzer.Apply(pass)
	require.NoError(t, r.Err)
	require.Equal(t, 2, r.Res)
	want := []nullawaytest.Finding{
		{Kind: diagnostic.PossiblyUninitializedNonNullField, Line: pass.Prog.Type("p.A").Field("o").Span.Line, Message: "The @NonNull field o may not have been initialized"},
		{Kind: diagnostic.PossiblyUninitializedNonNullField, Line: pass.Prog.Type("p.A$B").Field("q").Span.Line, Message: "The @NonNull field q may not have been initialized"},
	}
	require.Empty(t, cmp.Diff(want, nullawaytest.Findings(pass.Diagnostics())))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
