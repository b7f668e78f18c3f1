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

package override

import (
	"go.uber.org/nullaway/util/analysishelper"
)

const _doc = "Methods overriding or implementing inherited methods must not narrow parameters to " +
	"@NonNull nor widen returns to @Nullable, and inherited implementations must have compatible contracts."

// Analyzer checks the overriding relations of the types of a unit. Its result is the number of
// methods checked.
var Analyzer = &analysishelper.Analyzer[int]{
	Name: "nullaway_override_analyzer",
	Doc:  _doc,
	Run:  run,
}

func run(pass *analysishelper.Pass) (int, error) {
	New(pass.Prog, pass.Store).CheckUnit(pass.Unit, pass)
	n := 0
	for _, t := range pass.Types() {
		n += len(t.Methods)
	}
	return n, nil
}
