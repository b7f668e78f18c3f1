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

// Package assertion implements a sub-analyzer that runs the checks of the sub-analyzers over a
// compilation unit and collects their diagnostics for the entire unit.
package assertion

import (
	"errors"

	"go.uber.org/nullaway/assertion/function"
	"go.uber.org/nullaway/assertion/global"
	"go.uber.org/nullaway/assertion/override"
	"go.uber.org/nullaway/assertion/structfield"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/util/analysishelper"
)

const _doc = "Check the declarations, the overriding relations, the field initialization and the " +
	"bodies of a unit against the contracts of the store, and collect the diagnostics of the unit"

// Analyzer runs every check over a unit. Its result is the sorted list of diagnostics of the
// unit; the failures of the sub-analyzers do not discard the diagnostics of the others.
var Analyzer = &analysishelper.Analyzer[[]diagnostic.Diagnostic]{
	Name: "nullaway_assertion_analyzer",
	Doc:  _doc,
	Run:  run,
}

func run(pass *analysishelper.Pass) ([]diagnostic.Diagnostic, error) {
	// Run the sub-analyzers and merge their errors.
	r1 := global.Analyzer.Apply(pass)
	r2 := override.Analyzer.Apply(pass)
	r3 := structfield.Analyzer.Apply(pass)
	r4 := function.Analyzer.Apply(pass)
	return pass.Diagnostics(), errors.Join(r1.Err, r2.Err, r3.Err, r4.Err)
}
