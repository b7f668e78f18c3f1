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
	"slices"

	"go.uber.org/nullaway/program"
)

// IsThrowingCall returns true if the call always completes by throwing, like a throw statement.
// Unlike no-return calls, the exception still reaches enclosing catch and finally blocks.
func IsThrowingCall(call *program.Call) bool {
	return slices.ContainsFunc(_throwingCalls, func(sig trustedFuncSig) bool { return sig.match(call) })
}

var _throwingCalls = []trustedFuncSig{
	// JUnit `fail`
	{
		kind:           _static,
		enclosingRegex: regexp.MustCompile(`^(org\.junit\.Assert|org\.junit\.jupiter\.api\.Assertions|junit\.framework\.(Assert|TestCase))$`),
		funcNameRegex:  regexp.MustCompile(`^fail$`),
	},
	// AssertJ `fail` / `failBecauseExceptionWasNotThrown`
	{
		kind:           _static,
		enclosingRegex: regexp.MustCompile(`^org\.assertj\.core\.api\.(Assertions|Fail)$`),
		funcNameRegex:  regexp.MustCompile(`^(fail|failBecauseExceptionWasNotThrown)$`),
	},
	// Guava `Throwables.propagate`
	{
		kind:           _static,
		enclosingRegex: regexp.MustCompile(`^com\.google\.common\.base\.Throwables$`),
		funcNameRegex:  regexp.MustCompile(`^propagate$`),
	},
}
