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

// Package diagnostic hosts the diagnostic engine, which is responsible for collecting the findings
// of the annotation checks, the override checks and the flow analysis, applying the configured
// severities and @SuppressWarnings scopes, and producing a deterministic list of diagnostics.
package diagnostic

import (
	"cmp"
	"fmt"
	"slices"

	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/program"
)

// Diagnostic is one finding, ready for rendering.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Span     program.Span
	Message  string
	// Notes give contextual causes, e.g., a switch without default case on the reported path.
	Notes []string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s %s: %s", d.Span, d.Severity, d.Kind, d.Message)
}

// Policy holds the per-kind severities and the suppression switches derived from the
// configuration. It is immutable and shared by the engines of all units.
type Policy struct {
	enabled                bool
	suppressOptionalErrors bool
	severities             [numKinds]Severity
}

// NewPolicy derives the policy from the configuration. Unknown category names are an error.
func NewPolicy(cfg *config.Config) (*Policy, error) {
	p := &Policy{
		enabled:                cfg.Enabled,
		suppressOptionalErrors: cfg.SuppressOptionalErrors,
	}
	for _, k := range Kinds() {
		p.severities[k] = k.DefaultSeverity()
	}
	// Sorted so that the first reported error does not depend on map order.
	names := make([]string, 0, len(cfg.Severities))
	for name := range cfg.Severities {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		k, ok := ParseKind(name)
		if !ok || k == InternalError {
			return nil, fmt.Errorf("%w: unknown diagnostic category %q", config.ErrInvalidConfig, name)
		}
		s, ok := severityFromConfig(cfg.Severities[name])
		if !ok {
			return nil, fmt.Errorf("%w: unknown severity %q for %s", config.ErrInvalidConfig, cfg.Severities[name], k)
		}
		p.severities[k] = s
	}
	return p, nil
}

// Severity returns the severity diagnostics of kind k are reported with.
func (p *Policy) Severity(k Kind) Severity {
	if k == InternalError {
		return SeverityError
	}
	if !p.enabled {
		return SeverityIgnore
	}
	return p.severities[k]
}

// Enabled returns true if diagnostics of kind k are reported at all. Checks whose only purpose is
// one kind skip their work when it is disabled.
func (p *Policy) Enabled(k Kind) bool {
	return p.Severity(k) != SeverityIgnore
}

// suppressible returns true if a diagnostic of kind k with severity s can be silenced by
// @SuppressWarnings.
func (p *Policy) suppressible(k Kind, s Severity) bool {
	if s != SeverityError {
		return k != InternalError
	}
	return p.suppressOptionalErrors && k.Optional()
}

// Engine collects the diagnostics of one compilation unit. It is not safe for concurrent use.
type Engine struct {
	policy       *Policy
	suppressions []Range
	diagnostics  []Diagnostic
}

// NewEngine creates a new diagnostic engine for a unit with the given @SuppressWarnings scopes.
func NewEngine(policy *Policy, suppressions []Range) *Engine {
	return &Engine{policy: policy, suppressions: suppressions}
}

// Policy returns the policy the engine applies.
func (e *Engine) Policy() *Policy {
	return e.policy
}

// Enabled returns true if diagnostics of kind k are reported.
func (e *Engine) Enabled(k Kind) bool {
	return e.policy.Enabled(k)
}

// Report adds a diagnostic of kind k at span. It is dropped if the kind is ignored.
func (e *Engine) Report(k Kind, span program.Span, message string, notes ...string) {
	s := e.policy.Severity(k)
	if s == SeverityIgnore {
		return
	}
	e.diagnostics = append(e.diagnostics, Diagnostic{Kind: k, Severity: s, Span: span, Message: message, Notes: notes})
}

// Diagnostics returns the collected diagnostics that are not suppressed, sorted by file name,
// offset, kind and message, with duplicates removed. Duplicates arise when the same statement is
// analyzed more than once, e.g., in copies of a finally block.
func (e *Engine) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(e.diagnostics))
	for _, d := range e.diagnostics {
		if e.suppressed(d) {
			continue
		}
		out = append(out, d)
	}
	SortDiagnostics(out)
	return slices.CompactFunc(out, func(a, b Diagnostic) bool {
		return a.Kind == b.Kind && a.Span == b.Span && a.Message == b.Message
	})
}

func (e *Engine) suppressed(d Diagnostic) bool {
	if !e.policy.suppressible(d.Kind, d.Severity) {
		return false
	}
	for _, r := range e.suppressions {
		if r.Contains(d.Span) {
			return true
		}
	}
	return false
}

// SortDiagnostics sorts diagnostics by file name, offset, kind order and message.
func SortDiagnostics(diags []Diagnostic) {
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		if n := cmp.Compare(a.Span.Filename, b.Span.Filename); n != 0 {
			return n
		}
		if n := cmp.Compare(a.Span.Offset, b.Span.Offset); n != 0 {
			return n
		}
		if n := cmp.Compare(a.Kind, b.Kind); n != 0 {
			return n
		}
		return cmp.Compare(a.Message, b.Message)
	})
}
