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

// SplitBlockOn splits the CFG block on seeing matched trusted methods, where the condition is
// the returned expression. For example, a binary expression `x != null` is returned for trusted
// method `Objects.requireNonNull(x)`, and the CFG block is split as if it were written like
// `if (x != null) { <...code after the call...> } else { throw ... }`. This helps NullAway
// understand the nullness of the arguments after certain methods with side effects.
func SplitBlockOn(call *program.Call) program.Expr {
	for _, act := range _splitBlockOn {
		if act.sig.match(call) {
			return act.action(call, act.argIndex)
		}
	}
	return nil
}

// splitBlockOnAction defines the effect the trusted method can have on its argument `argIndex`.
type splitBlockOnAction func(call *program.Call, argIndex int) program.Expr

// nullBinaryExpr returns `expr == null`, e.g., for `Assertions.assertNull(x)`.
var nullBinaryExpr splitBlockOnAction = func(call *program.Call, argIndex int) program.Expr {
	a := arg(call, argIndex)
	if a == nil {
		return nil
	}
	return newNullBinaryExpr(a, program.OpEq)
}

// nonnullBinaryExpr returns `expr != null`, e.g., for `Objects.requireNonNull(x)`.
var nonnullBinaryExpr splitBlockOnAction = func(call *program.Call, argIndex int) program.Expr {
	a := arg(call, argIndex)
	if a == nil {
		return nil
	}
	return newNullBinaryExpr(a, program.OpNe)
}

// selfExpr returns the argument itself, e.g., for `Preconditions.checkArgument(x != null)`.
var selfExpr splitBlockOnAction = arg

// negatedSelfExpr is same as selfExpr, but returns a negated expr, e.g., for
// `Assertions.assertFalse(x == null)`.
var negatedSelfExpr splitBlockOnAction = func(call *program.Call, argIndex int) program.Expr {
	a := arg(call, argIndex)
	if a == nil {
		return nil
	}
	return &program.Unary{Op: program.OpNot, X: a, Span: a.Pos()}
}

type splitBlockOn struct {
	sig      trustedFuncSig
	action   splitBlockOnAction
	argIndex int
}

// _junit4 matches JUnit 4 assertions, whose optional message comes first; the checked value is
// therefore the last argument.
var _junit4 = regexp.MustCompile(`^(org\.junit\.Assert|junit\.framework\.(Assert|TestCase))$`)

// _junit5 matches JUnit 5 assertions, whose optional message comes last.
var _junit5 = regexp.MustCompile(`^org\.junit\.jupiter\.api\.Assertions$`)

var _splitBlockOn = []splitBlockOn{
	// `java.util.Objects.requireNonNull`
	{
		sig: trustedFuncSig{
			kind:           _static,
			enclosingRegex: regexp.MustCompile(`^java\.util\.Objects$`),
			funcNameRegex:  regexp.MustCompile(`^requireNonNull$`),
		},
		action: nonnullBinaryExpr, argIndex: 0,
	},
	// Guava `Preconditions.checkNotNull` and `Verify.verifyNotNull`
	{
		sig: trustedFuncSig{
			kind:           _static,
			enclosingRegex: regexp.MustCompile(`^com\.google\.common\.base\.(Preconditions|Verify)$`),
			funcNameRegex:  regexp.MustCompile(`^(checkNotNull|verifyNotNull)$`),
		},
		action: nonnullBinaryExpr, argIndex: 0,
	},
	// Guava `Preconditions.checkArgument` / `Preconditions.checkState` / `Verify.verify`
	{
		sig: trustedFuncSig{
			kind:           _static,
			enclosingRegex: regexp.MustCompile(`^com\.google\.common\.base\.(Preconditions|Verify)$`),
			funcNameRegex:  regexp.MustCompile(`^(checkArgument|checkState|verify)$`),
		},
		action: selfExpr, argIndex: 0,
	},
	// Apache commons `Validate.notNull` / `Validate.isTrue`
	{
		sig: trustedFuncSig{
			kind:           _static,
			enclosingRegex: regexp.MustCompile(`^org\.apache\.commons\.lang3?\.Validate$`),
			funcNameRegex:  regexp.MustCompile(`^notNull$`),
		},
		action: nonnullBinaryExpr, argIndex: 0,
	},
	{
		sig: trustedFuncSig{
			kind:           _static,
			enclosingRegex: regexp.MustCompile(`^org\.apache\.commons\.lang3?\.Validate$`),
			funcNameRegex:  regexp.MustCompile(`^isTrue$`),
		},
		action: selfExpr, argIndex: 0,
	},

	// JUnit 4
	{
		sig:    trustedFuncSig{kind: _static, enclosingRegex: _junit4, funcNameRegex: regexp.MustCompile(`^assertNotNull$`)},
		action: nonnullBinaryExpr, argIndex: -1,
	},
	{
		sig:    trustedFuncSig{kind: _static, enclosingRegex: _junit4, funcNameRegex: regexp.MustCompile(`^assertNull$`)},
		action: nullBinaryExpr, argIndex: -1,
	},
	{
		sig:    trustedFuncSig{kind: _static, enclosingRegex: _junit4, funcNameRegex: regexp.MustCompile(`^assertTrue$`)},
		action: selfExpr, argIndex: -1,
	},
	{
		sig:    trustedFuncSig{kind: _static, enclosingRegex: _junit4, funcNameRegex: regexp.MustCompile(`^assertFalse$`)},
		action: negatedSelfExpr, argIndex: -1,
	},

	// JUnit 5
	{
		sig:    trustedFuncSig{kind: _static, enclosingRegex: _junit5, funcNameRegex: regexp.MustCompile(`^assertNotNull$`)},
		action: nonnullBinaryExpr, argIndex: 0,
	},
	{
		sig:    trustedFuncSig{kind: _static, enclosingRegex: _junit5, funcNameRegex: regexp.MustCompile(`^assertNull$`)},
		action: nullBinaryExpr, argIndex: 0,
	},
	{
		sig:    trustedFuncSig{kind: _static, enclosingRegex: _junit5, funcNameRegex: regexp.MustCompile(`^assertTrue$`)},
		action: selfExpr, argIndex: 0,
	},
	{
		sig:    trustedFuncSig{kind: _static, enclosingRegex: _junit5, funcNameRegex: regexp.MustCompile(`^assertFalse$`)},
		action: negatedSelfExpr, argIndex: 0,
	},
}
