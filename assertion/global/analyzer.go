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

// Package global implements a sub-analyzer that checks the declarations of a unit, as opposed to
// the bodies: illegal and contradictory null annotations, annotations and defaults that repeat
// the applicable default, and top-level types lacking a default when one is required.
package global

import (
	"go.uber.org/nullaway/util/analysishelper"
)

const _doc = "Null annotations must be legal at their location and should not repeat the nullness " +
	"default already in effect; top-level types must declare a default when the project requires it."

// Analyzer checks the declarations of a unit. Its result is the number of types checked.
var Analyzer = &analysishelper.Analyzer[int]{
	Name: "nullaway_global_analyzer",
	Doc:  _doc,
	Run:  run,
}

func run(pass *analysishelper.Pass) (int, error) {
	pass.Collector.CheckDeclarations(pass.Unit, pass)
	pass.Defaults.Check(pass.Unit, pass.Config.RequireExplicitDefault, pass)
	return len(pass.Types()), nil
}
