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

// AssumeReturn returns true if the result of the call is assumed to be non-null. This is useful
// for modeling the return value of library methods whose contracts are not annotated. For
// example, `String.valueOf` never returns null.
func AssumeReturn(call *program.Call) bool {
	for _, sig := range _assumeReturns {
		if sig.match(call) {
			return true
		}
	}
	return false
}

var _assumeReturns = []trustedFuncSig{
	// `Objects.requireNonNull` returns its checked argument.
	{
		kind:           _static,
		enclosingRegex: regexp.MustCompile(`^java\.util\.Objects$`),
		funcNameRegex:  regexp.MustCompile(`^(requireNonNull|requireNonNullElse|requireNonNullElseGet|toString)$`),
	},
	{
		kind:           _static,
		enclosingRegex: regexp.MustCompile(`^com\.google\.common\.base\.(Preconditions|Verify)$`),
		funcNameRegex:  regexp.MustCompile(`^(checkNotNull|verifyNotNull)$`),
	},
	// `String.valueOf` / `String.format` / `String.join`
	{
		kind:           _static,
		enclosingRegex: regexp.MustCompile(`^java\.lang\.String$`),
		funcNameRegex:  regexp.MustCompile(`^(valueOf|format|join|copyValueOf)$`),
	},
	// Factories of immutable collections and optionals.
	{
		kind:           _static,
		enclosingRegex: regexp.MustCompile(`^java\.util\.(List|Set|Map|Optional|Collections|Arrays)$`),
		funcNameRegex:  regexp.MustCompile(`^(of|ofNullable|empty|copyOf|asList|singleton(List|Map)?|unmodifiable\w*|empty\w*)$`),
	},
	// `StringBuilder.toString` and friends.
	{
		kind:           _instance,
		enclosingRegex: regexp.MustCompile(`^java\.lang\.(StringBuilder|StringBuffer|String)$`),
		funcNameRegex:  regexp.MustCompile(`^(toString|append|trim|substring|toLowerCase|toUpperCase|strip)$`),
	},
}
