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

package nullawaytest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
)

func TestFindExpectedValues(t *testing.T) {
	t.Parallel()

	u := &program.Unit{Filename: "p/A.java", Source: `package p;
class A {
  void m(Object o) {
    o.hashCode(); // want: PotentialNullPointerAccess
    o.toString(); //want:NullPointerAccess RedundantNullCheck
    o.equals(o); // want:
    // unrelated comment
    o.getClass();
  }
}`}
	want := map[int][]string{
		4: {"PotentialNullPointerAccess"},
		5: {"NullPointerAccess", "RedundantNullCheck"},
		6: nil,
	}
	require.Empty(t, cmp.Diff(want, FindExpectedValues(u, "want:")))
}

func TestFindings(t *testing.T) {
	t.Parallel()

	diags := []diagnostic.Diagnostic{
		{Kind: diagnostic.RedundantNullCheck, Span: program.Span{Line: 3}, Message: "b"},
		{Kind: diagnostic.NullPointerAccess, Span: program.Span{Line: 1}, Message: "a"},
	}
	require.Equal(t, []Finding{
		{Kind: diagnostic.RedundantNullCheck, Line: 3, Message: "b"},
		{Kind: diagnostic.NullPointerAccess, Line: 1, Message: "a"},
	}, Findings(diags))
	require.Equal(t, []diagnostic.Kind{diagnostic.RedundantNullCheck, diagnostic.NullPointerAccess}, Kinds(diags))
}

func TestNewPasses(t *testing.T) {
	t.Parallel()

	passes := NewPasses(t, nil /* cfg */,
		&program.Unit{Filename: "p/A.java", Package: "p", Types: []*program.Type{{Name: "A"}}},
		&program.Unit{Filename: "p/B.java", Package: "p", Types: []*program.Type{{Name: "B"}}},
	)
	require.Len(t, passes, 2)
	require.Equal(t, "p/B.java", passes[1].Unit.Filename)
	require.Same(t, passes[0].Store, passes[1].Store)
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
