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

package hook

import (
	"regexp"

	"go.uber.org/nullaway/program"
)

// ReplaceConditional replaces a call to a matched method with the returned expression. This is
// useful for modeling stdlib and 3rd party methods that return a single boolean value, which
// implies nullness checks on their arguments. For example, `Objects.isNull(x)` is replaced by
// `x == null`.
//
// If the call does not match any known method, nil is returned.
func ReplaceConditional(call *program.Call) program.Expr {
	for _, r := range _replaceConditionals {
		if r.sig.match(call) {
			return r.action(call)
		}
	}
	return nil
}

type replaceConditionalAction func(call *program.Call) program.Expr

// _isNullAction replaces `Objects.isNull(x)` with `x == null`.
var _isNullAction replaceConditionalAction = func(call *program.Call) program.Expr {
	if len(call.Args) != 1 {
		return nil
	}
	return newNullBinaryExpr(call.Args[0], program.OpEq)
}

// _nonNullAction replaces `Objects.nonNull(x)` with `x != null`.
var _nonNullAction replaceConditionalAction = func(call *program.Call) program.Expr {
	if len(call.Args) != 1 {
		return nil
	}
	return newNullBinaryExpr(call.Args[0], program.OpNe)
}

var _replaceConditionals = []struct {
	sig    trustedFuncSig
	action replaceConditionalAction
}{
	{
		sig: trustedFuncSig{
			kind:           _static,
			enclosingRegex: regexp.MustCompile(`^java\.util\.Objects$`),
			funcNameRegex:  regexp.MustCompile(`^isNull$`),
		},
		action: _isNullAction,
	},
	{
		sig: trustedFuncSig{
			kind:           _static,
			enclosingRegex: regexp.MustCompile(`^java\.util\.Objects$`),
			funcNameRegex:  regexp.MustCompile(`^nonNull$`),
		},
		action: _nonNullAction,
	},
}
