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

// IsNoReturnCall returns true if the call never returns because it terminates the process, so
// that the CFG block containing it has no successors.
func IsNoReturnCall(call *program.Call) bool {
	return slices.ContainsFunc(_noReturnCalls, func(sig trustedFuncSig) bool { return sig.match(call) })
}

var _noReturnCalls = []trustedFuncSig{
	// `System.exit`
	{
		kind:           _static,
		enclosingRegex: regexp.MustCompile(`^java\.lang\.System$`),
		funcNameRegex:  regexp.MustCompile(`^exit$`),
	},
	// `Runtime.getRuntime().exit` / `Runtime.getRuntime().halt`
	{
		kind:           _instance,
		enclosingRegex: regexp.MustCompile(`^java\.lang\.Runtime$`),
		funcNameRegex:  regexp.MustCompile(`^(exit|halt)$`),
	},
}
