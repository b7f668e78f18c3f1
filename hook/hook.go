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

// Package hook implements a hook framework for NullAway where it hooks into different parts to
// provide additional context for certain method calls. This is useful for well-known standard
// or 3rd party libraries where we can encode certain knowledge about them (e.g.,
// `Objects.requireNonNull(x)` implies `x != null`) and use that to provide better analysis.
package hook

import (
	"regexp"

	"go.uber.org/nullaway/program"
)

// methodKind indicates the kind of the trusted method:
// (1) _instance: it is invoked on a receiver;
// (2) _static: it is a static method of a class.
type methodKind uint8

const (
	_instance methodKind = iota
	_static
)

// trustedFuncSig defines the signature of a method that we "trust" to have a certain effect on its arguments, for example.
type trustedFuncSig struct {
	kind           methodKind
	enclosingRegex *regexp.Regexp
	funcNameRegex  *regexp.Regexp
}

// match checks if a given call matches with a trusted method's signature. Namely, it performs a
// strict matching for the method name and a user-defined regex match for the qualified name of
// the declaring class. Calls the front end could not resolve never match.
func (t *trustedFuncSig) match(call *program.Call) bool {
	ref := call.Method
	if ref == nil || ref.Constructor || !t.funcNameRegex.MatchString(ref.Name) {
		return false
	}
	if (t.kind == _static) != ref.Static {
		return false
	}
	return t.enclosingRegex.MatchString(ref.Owner)
}

// arg returns the argument at index i of the call, counting from the end for negative indices.
func arg(call *program.Call, i int) program.Expr {
	if i < 0 {
		i += len(call.Args)
	}
	if i < 0 || i >= len(call.Args) {
		return nil
	}
	return call.Args[i]
}

// newNullBinaryExpr creates a new binary expression "expr op null" at the position of expr.
func newNullBinaryExpr(expr program.Expr, op program.Op) *program.Binary {
	return &program.Binary{
		Op:   op,
		X:    expr,
		Y:    &program.NullLit{Span: expr.Pos()},
		Span: expr.Pos(),
	}
}
