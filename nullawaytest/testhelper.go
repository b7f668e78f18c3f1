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

// Package nullawaytest implements utility functions for tests.
package nullawaytest

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
	"go.uber.org/nullaway/util/analysishelper"
)

// NewPasses links the units, runs the collection phase with the given configuration (the default
// one if nil) and returns one pass per unit.
func NewPasses(t testing.TB, cfg *config.Config, units ...*program.Unit) []*analysishelper.Pass {
	t.Helper()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	prog, err := program.NewProgram(units...)
	require.NoError(t, err)
	shared, err := analysishelper.Collect(prog, cfg)
	require.NoError(t, err)

	passes := make([]*analysishelper.Pass, len(prog.Units))
	for i, u := range prog.Units {
		passes[i] = shared.NewPass(u)
	}
	return passes
}

// Finding is a diagnostic reduced to what tests usually compare.
type Finding struct {
	Kind    diagnostic.Kind
	Line    int
	Message string
}

// Findings reduces the diagnostics to findings, keeping their order.
func Findings(diags []diagnostic.Diagnostic) []Finding {
	out := make([]Finding, 0, len(diags))
	for _, d := range diags {
		out = append(out, Finding{Kind: d.Kind, Line: d.Span.Line, Message: d.Message})
	}
	return out
}

// Kinds returns the kinds of the diagnostics, keeping their order.
func Kinds(diags []diagnostic.Diagnostic) []diagnostic.Kind {
	out := make([]diagnostic.Kind, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Kind)
	}
	return out
}

// FindExpectedValues inspects the source of the unit and gathers the expected values written in
// line comments starting with expectedPrefix, keyed by line number. For example, the line
//
//	o.toString(); // want: PotentialNullPointerAccess
//
// expects one diagnostic of that kind on its line.
func FindExpectedValues(u *program.Unit, expectedPrefix string) map[int][]string {
	results := make(map[int][]string)
	scanner := bufio.NewScanner(strings.NewReader(u.Source))
	for line := 1; scanner.Scan(); line++ {
		_, comment, ok := strings.Cut(scanner.Text(), "//")
		if !ok {
			continue
		}
		// Trim the extra spaces and the prefix and extract the set of expected values.
		text := strings.TrimSpace(comment)
		if !strings.HasPrefix(text, expectedPrefix) {
			continue
		}
		text = strings.TrimSpace(strings.TrimPrefix(text, expectedPrefix))
		// If no expected values are written after the `expectedPrefix`, the line expects nothing.
		results[line] = nil
		if len(text) != 0 {
			results[line] = strings.Fields(text)
		}
	}
	return results
}
