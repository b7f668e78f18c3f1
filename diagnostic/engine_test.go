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

package diagnostic

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/program"
)

func span(file string, offset int) program.Span {
	return program.Span{Filename: file, Offset: offset, End: offset + 1, Line: offset, Column: 1}
}

func newEngine(t *testing.T, cfg *config.Config, ranges ...Range) *Engine {
	t.Helper()
	policy, err := NewPolicy(cfg)
	require.NoError(t, err)
	return NewEngine(policy, ranges)
}

func TestEngineOrderAndDedup(t *testing.T) {
	t.Parallel()

	e := newEngine(t, config.DefaultConfig())
	e.Report(NullTypeMismatch, span("B.java", 1), "b")
	e.Report(RedundantNullCheck, span("A.java", 9), "late")
	e.Report(PotentialNullPointerAccess, span("A.java", 3), "second")
	e.Report(NullPointerAccess, span("A.java", 3), "first")
	e.Report(PotentialNullPointerAccess, span("A.java", 3), "second")

	var got []string
	for _, d := range e.Diagnostics() {
		got = append(got, d.Span.Filename+":"+d.Message)
	}
	want := []string{"A.java:first", "A.java:second", "A.java:late", "B.java:b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected diagnostics (-want +got):\n%s", diff)
	}
}

func TestPolicySeverities(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Severities = map[string]config.Severity{
		"redundantnullcheck":         config.SeverityIgnore,
		"PotentialNullPointerAccess": config.SeverityError,
	}
	e := newEngine(t, cfg)
	require.False(t, e.Enabled(RedundantNullCheck))
	require.True(t, e.Enabled(NullTypeMismatch))

	e.Report(RedundantNullCheck, span("A.java", 1), "dropped")
	e.Report(PotentialNullPointerAccess, span("A.java", 2), "escalated")
	diags := e.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, SeverityError, diags[0].Severity)

	cfg.Severities = map[string]config.Severity{"NoSuchCategory": config.SeverityIgnore}
	_, err := NewPolicy(cfg)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestPolicyDefaults(t *testing.T) {
	t.Parallel()

	p, err := NewPolicy(config.DefaultConfig())
	require.NoError(t, err)
	for _, k := range Kinds() {
		require.Equal(t, k.DefaultSeverity(), p.Severity(k), k.String())
	}
	require.Equal(t, SeverityError, NullTypeMismatch.DefaultSeverity())
	require.Equal(t, SeverityWarning, RedundantNullCheck.DefaultSeverity())
	require.Equal(t, SeverityError, Kind(255).DefaultSeverity())
}

func TestPolicyDisabled(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Enabled = false
	e := newEngine(t, cfg)
	for _, k := range Kinds() {
		if k == InternalError {
			require.True(t, e.Enabled(k))
			continue
		}
		require.False(t, e.Enabled(k), k.String())
	}
}

func TestSuppression(t *testing.T) {
	t.Parallel()

	suppressed := Range{Filename: "A.java", From: 10, To: 20}
	tests := []struct {
		name           string
		suppressErrors bool
		kind           Kind
		offset         int
		want           bool
	}{
		{name: "warning inside", kind: PotentialNullPointerAccess, offset: 12, want: false},
		{name: "warning outside", kind: PotentialNullPointerAccess, offset: 25, want: true},
		{name: "optional error kept", kind: NullTypeMismatch, offset: 12, want: true},
		{name: "optional error suppressed", suppressErrors: true, kind: NullTypeMismatch, offset: 12, want: false},
		{name: "mandatory error kept", suppressErrors: true, kind: ContradictoryNullSpecification, offset: 12, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.DefaultConfig()
			cfg.SuppressOptionalErrors = tt.suppressErrors
			e := newEngine(t, cfg, suppressed)
			e.Report(tt.kind, span("A.java", tt.offset), "m")
			require.Equal(t, tt.want, len(e.Diagnostics()) == 1)
		})
	}
}

func TestSuppressionRanges(t *testing.T) {
	t.Parallel()

	method := &program.Method{
		Name:        "m",
		Return:      program.Void(),
		Annotations: []*program.Annotation{program.Ann("java.lang.SuppressWarnings", "value", `{"unchecked", "null"}`)},
		Body:        program.Body(),
	}
	local := &program.LocalVar{
		Name:        "x",
		Type:        program.Ref("java.lang.Object"),
		Annotations: []*program.Annotation{program.Ann("SuppressWarnings", "value", `"all"`)},
	}
	other := &program.Method{
		Name:        "n",
		Return:      program.Void(),
		Annotations: []*program.Annotation{program.Ann("java.lang.SuppressWarnings", "value", `"unchecked"`)},
		Body:        program.Body(local),
	}
	unit := &program.Unit{Filename: "A.java", Package: "p", Types: []*program.Type{{Name: "A", Methods: []*program.Method{method, other}}}}
	_, err := program.NewProgram(unit)
	require.NoError(t, err)

	ranges := SuppressionRanges(unit)
	require.Equal(t, []Range{
		{Filename: "A.java", From: method.Span.Offset, To: method.Span.End},
		{Filename: "A.java", From: local.Span.Offset, To: local.Span.End},
	}, ranges)
	require.True(t, ranges[0].Contains(method.Body.Span))
	require.False(t, ranges[0].Contains(other.Span))
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, k := range Kinds() {
		parsed, ok := ParseKind(k.String())
		require.True(t, ok)
		require.Equal(t, k, parsed)
	}
	_, ok := ParseKind("Bogus")
	require.False(t, ok)
}

func TestPrinter(t *testing.T) {
	t.Parallel()

	src := "class X {\n  void foo(Object o) {\n    o.toString();\n  }\n}\n"
	offset := bytes.Index([]byte(src), []byte("o.toString"))
	diags := []Diagnostic{
		{
			Kind:     PotentialNullPointerAccess,
			Severity: SeverityWarning,
			Span:     program.Span{Filename: "src/p/X.java", Offset: offset, End: offset + 1, Line: 3, Column: 5},
			Message:  "Potential null pointer access: The variable o may be null at this location",
		},
		{
			Kind:     PossiblyUninitializedNonNullField,
			Severity: SeverityError,
			Span:     program.Span{Filename: "src/p/Y.java", Offset: 4, End: 5, Line: 2, Column: 1},
			Message:  "The @NonNull field f may not have been initialized",
			Notes:    []string{"a switch without default case may leave the field unassigned"},
		},
	}

	var buf bytes.Buffer
	p := NewPrinter(&buf, map[string]string{"src/p/X.java": src}, false)
	require.NoError(t, p.Print(diags))
	require.NoError(t, p.Summary())
	want := "----------\n" +
		"1. WARNING in p/X.java (at line 3)\n" +
		"\to.toString();\n" +
		"\t^\n" +
		"Potential null pointer access: The variable o may be null at this location\n" +
		"----------\n" +
		"2. ERROR in p/Y.java (at line 2)\n" +
		"The @NonNull field f may not have been initialized\n" +
		"Note: a switch without default case may leave the field unassigned\n" +
		"----------\n" +
		"2 problems (1 error, 1 warning)\n"
	require.Equal(t, want, buf.String())
	require.Equal(t, 1, p.Errors())
}

func TestExcerptWidth(t *testing.T) {
	t.Parallel()

	src := "\tif (o != null) print(o);\n"
	line, caret, ok := excerpt(src, program.Span{Offset: 5, End: 14})
	require.True(t, ok)
	require.Equal(t, "if (o != null) print(o);", line)
	require.Equal(t, "    ^^^^^^^^^", caret)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
