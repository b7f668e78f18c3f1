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

// Package structfield implements the check that every NonNull field is definitely assigned when an
// object is constructed, and every NonNull static field when the static initializers complete.
package structfield

import (
	"go.uber.org/nullaway/annotation"
	"go.uber.org/nullaway/assertion/function/preprocess"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
	"go.uber.org/nullaway/util/analysishelper"
)

const _doc = "NonNull fields must be assigned on every path through every constructor, and NonNull " +
	"static fields on every path through the static initializers."

// Analyzer checks the field initialization of the types of a unit. Its result is the number of
// types checked.
var Analyzer = &analysishelper.Analyzer[int]{
	Name: "nullaway_struct_field_analyzer",
	Doc:  _doc,
	Run:  run,
}

func run(pass *analysishelper.Pass) (int, error) {
	c := New(pass.Store, pass.Recognizer)
	types := pass.Types()
	for _, t := range types {
		c.Check(t, pass)
	}
	return len(types), nil
}

// MissingDefaultNote is attached to an uninitialized field diagnostic when the field would be
// assigned if the switch statements on the path had a default case.
const MissingDefaultNote = "A problem regarding missing 'default:' on 'switch' has been suppressed, which is perhaps related to this problem"

// Checker reports NonNull fields that may be left unassigned.
type Checker struct {
	store *annotation.Store
	rec   *annotation.Recognizer
}

// New returns a Checker reading field contracts from the store.
func New(store *annotation.Store, rec *annotation.Recognizer) *Checker {
	return &Checker{store: store, rec: rec}
}

// Check checks the static fields of t against its static initializers, and the instance fields
// against every constructor.
func (c *Checker) Check(t *program.Type, rep annotation.Reporter) {
	if t.IsInterface() || !rep.Enabled(diagnostic.PossiblyUninitializedNonNullField) {
		return
	}
	c.checkStatic(t, rep)
	c.checkInstance(t, rep)
}

// candidates returns the NonNull fields without initializer expression. Injected instance fields
// are exempt unless the injection is optional.
func (c *Checker) candidates(t *program.Type, static bool) []*program.Field {
	var out []*program.Field
	for _, f := range t.Fields {
		if f.Static != static || f.Init != nil {
			continue
		}
		if v, ok := c.store.Field(f.Ref().Key()); !ok || v.Tag != annotation.NonNull {
			continue
		}
		if !static && c.injected(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (c *Checker) injected(f *program.Field) bool {
	for _, a := range f.Annotations {
		if c.rec.IsInjection(a) {
			return !optional(a)
		}
	}
	return false
}

// optional returns true for injection markers that allow the injection to be skipped, e.g.,
// @Autowired(required = false) or @Inject(optional = true).
func optional(a *program.Annotation) bool {
	if v, ok := a.Arg("required"); ok && v == "false" {
		return true
	}
	if v, ok := a.Arg("optional"); ok && v == "true" {
		return true
	}
	return false
}

func (c *Checker) checkStatic(t *program.Type, rep annotation.Reporter) {
	fields := c.candidates(t, true)
	if len(fields) == 0 {
		return
	}
	fc := newFieldContext(t, true, fields)
	assigned, relaxed := fc.initializers(t, true)
	for i, f := range fields {
		if assigned == nil || assigned[i] {
			continue
		}
		report(rep, f.Span, f, "", relaxed[i])
	}
}

func (c *Checker) checkInstance(t *program.Type, rep annotation.Reporter) {
	fields := c.candidates(t, false)
	if len(fields) == 0 {
		return
	}
	fc := newFieldContext(t, false, fields)
	assigned, relaxed := fc.initializers(t, false)
	if assigned == nil {
		// Initialization never completes.
		return
	}

	ctors := t.Constructors()
	if len(ctors) == 0 {
		// The default constructor assigns nothing.
		for i, f := range fields {
			if !assigned[i] {
				report(rep, f.Span, f, "", relaxed[i])
			}
		}
		return
	}

	for _, m := range ctors {
		if m.Body == nil {
			continue
		}
		g := preprocess.Build(m.Body)
		out := fc.MustAssign(g, assigned, false)
		if out == nil {
			continue
		}
		var withDefault fieldSet
		for i, f := range fields {
			if out[i] {
				continue
			}
			if withDefault == nil {
				withDefault = fc.MustAssign(g, relaxed, true)
			}
			report(rep, m.Span, f, m.Signature(), withDefault == nil || withDefault[i])
		}
	}
}

// initializers runs the initializer blocks of t in declaration order and returns the fields they
// definitely assign, both as is and assuming every switch has a default case. It returns nil
// sets if some initializer never completes normally.
func (fc *FieldContext) initializers(t *program.Type, static bool) (assigned, relaxed fieldSet) {
	assigned, relaxed = fc.empty(), fc.empty()
	for _, init := range t.Initializers {
		if init.Static != static || init.Body == nil {
			continue
		}
		g := preprocess.Build(init.Body)
		if assigned = fc.MustAssign(g, assigned, false); assigned == nil {
			return nil, nil
		}
		if relaxed = fc.MustAssign(g, relaxed, true); relaxed == nil {
			relaxed = fc.empty()
			relaxed.fill()
		}
	}
	return assigned, relaxed
}

func report(rep annotation.Reporter, span program.Span, f *program.Field, ctor string, missingDefault bool) {
	msg := "The @NonNull field " + f.Name + " may not have been initialized"
	if ctor != "" {
		msg += " in constructor " + ctor
	}
	if missingDefault {
		rep.Report(diagnostic.PossiblyUninitializedNonNullField, span, msg, MissingDefaultNote)
		return
	}
	rep.Report(diagnostic.PossiblyUninitializedNonNullField, span, msg)
}
