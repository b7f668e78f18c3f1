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

// Package function implements a sub-analyzer that runs the flow analysis over every body of a
// compilation unit: methods, constructors, initializer blocks and field initializers.
package function

import (
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/nullaway/assertion/function/flow"
	"go.uber.org/nullaway/program"
	"go.uber.org/nullaway/util/analysishelper"
)

const _doc = "Run the flow-sensitive nullness analysis over each body declared in this unit, " +
	"reporting dereferences, null checks and assignments that violate the contracts of the store"

// Analyzer runs the flow analysis over the bodies of a unit. Its result is the number of bodies
// analyzed.
var Analyzer = &analysishelper.Analyzer[int]{
	Name: "nullaway_function_analyzer",
	Doc:  _doc,
	Run:  run,
}

// body is one unit of work of the flow analysis.
type body struct {
	// decl is the declaration owning the body, used for error messages.
	decl    program.Decl
	analyze func()
}

func run(pass *analysishelper.Pass) (int, error) {
	a := flow.New(pass.Prog, pass.Store, pass.Collector, pass.Config)

	// Bodies are analyzed in declaration order, field initializers first since they run before
	// the initializer blocks and constructors.
	var bodies []body
	for _, t := range pass.Types() {
		for _, f := range t.Fields {
			if f.Init != nil {
				bodies = append(bodies, body{decl: f, analyze: func() { a.FieldInit(f, pass) }})
			}
		}
		for _, init := range t.Initializers {
			if init.Body != nil {
				bodies = append(bodies, body{decl: init, analyze: func() { a.Initializer(init, pass) }})
			}
		}
		for _, m := range t.Methods {
			if m.Body != nil {
				bodies = append(bodies, body{decl: m, analyze: func() { a.Method(m, pass) }})
			}
		}
	}

	// A failure in one body does not stop the analysis of the others.
	var errs []error
	for _, b := range bodies {
		if err := analyzeBody(b); err != nil {
			errs = append(errs, err)
		}
	}
	return len(bodies) - len(errs), errors.Join(errs...)
}

// analyzeBody runs the analysis of a body, converting panics into errors.
func analyzeBody(b body) (err error) {
	defer func() {
		if r := recover(); r != nil {
			pos := b.decl.Pos()
			err = fmt.Errorf("analyzing %s at %s: INTERNAL PANIC: %s\n%s", describe(b.decl), pos, r, string(debug.Stack()))
		}
	}()
	b.analyze()
	return nil
}

func describe(d program.Decl) string {
	owner := program.EnclosingType(d.Parent())
	if owner == nil {
		return d.DeclName()
	}
	return owner.QualifiedName() + "." + d.DeclName()
}
