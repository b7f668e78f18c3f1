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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestLoadTxtar(t *testing.T) {
	t.Parallel()

	units, err := LoadFile(filepath.Join("testdata", "units.txtar"))
	require.NoError(t, err)
	require.Len(t, units, 2)

	x := units[0]
	require.Equal(t, "X.java", x.Filename)
	require.Contains(t, x.Source, "class X {")
	require.Len(t, x.Types, 1)

	get := x.Types[0].Methods[0]
	require.Equal(t, "p.Nullable", get.Params[0].Annotations[0].Name)
	require.Len(t, get.Body.Stmts, 2)

	ifStmt, ok := get.Body.Stmts[0].(*If)
	require.True(t, ok)
	cond, ok := ifStmt.Cond.(*Binary)
	require.True(t, ok)
	require.Equal(t, OpNe, cond.Op)
	require.IsType(t, &NullLit{}, cond.Y)
	ret, ok := ifStmt.Then.(*Return)
	require.True(t, ok)
	call, ok := ret.X.(*Call)
	require.True(t, ok)
	require.Equal(t, "java.lang.Object#toString()", call.Method.Key())

	pkgInfo := units[1]
	require.Empty(t, pkgInfo.Types)
	require.Equal(t, "p.NonNullByDefault", pkgInfo.PackageAnnotations[0].Name)

	prog, err := NewProgram(units...)
	require.NoError(t, err)
	require.NotNil(t, prog.Type("p.X"))
	require.Equal(t, 3, get.Span.Line, "front end positions must be kept")
}

func TestDecodeFormats(t *testing.T) {
	t.Parallel()

	doc := `{"file": "A.java", "package": "q", "types": [{"name": "A", "kind": "interface",
		"methods": [{"name": "m", "abstract": true, "return": {"kind": "void", "name": "void"}}]}]}`

	fromJSON, err := Decode([]byte(doc), FormatJSON)
	require.NoError(t, err)
	require.Len(t, fromJSON, 1)
	require.Equal(t, InterfaceKind, fromJSON[0].Types[0].Kind)

	var wu wireUnit
	require.NoError(t, json.Unmarshal([]byte(doc), &wu))
	packed, err := msgpack.Marshal(&wu)
	require.NoError(t, err)
	fromMsgpack, err := Decode(packed, FormatMsgpack)
	require.NoError(t, err)

	opts := cmp.AllowUnexported(Type{}, Field{}, Method{}, Initializer{})
	if diff := cmp.Diff(fromJSON, fromMsgpack, opts); diff != "" {
		t.Errorf("msgpack and JSON decoding differ (-json +msgpack):\n%s", diff)
	}
}

func TestLoadCompressed(t *testing.T) {
	t.Parallel()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	compressed := enc.EncodeAll([]byte(`{"file": "B.java", "package": "q", "types": [{"name": "B"}]}`), nil)
	require.NoError(t, enc.Close())

	path := filepath.Join(t.TempDir(), "b.json.zst")
	require.NoError(t, os.WriteFile(path, compressed, 0o600))

	units, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, units, 1)
	require.Equal(t, "B", units[0].Types[0].Name)
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{"file": "C.java", "types": [{"name": "C", "kind": "struct"}]}`), FormatJSON)
	require.ErrorContains(t, err, `unknown type declaration kind "struct"`)

	_, err = Decode([]byte(`{"file": "C.java", "types": [{"name": "C", "methods": [{"name": "m",
		"body": {"kind": "block", "stmts": [{"kind": "goto"}, {"kind": "expr", "x": {"kind": "binary", "op": "<=>"}}]}}]}]}`), FormatJSON)
	require.ErrorContains(t, err, `unknown statement kind "goto"`)
	require.ErrorContains(t, err, `unknown operator "<=>"`)

	_, err = FormatOf("x.yaml")
	require.Error(t, err)
}
