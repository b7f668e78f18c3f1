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

package annotation

import (
	"fmt"

	"go.uber.org/nullaway/config"
	"go.uber.org/nullaway/diagnostic"
	"go.uber.org/nullaway/program"
)

// Reporter receives the findings of the checks. *diagnostic.Engine implements it.
type Reporter interface {
	Report(k diagnostic.Kind, span program.Span, message string, notes ...string)
	Enabled(k diagnostic.Kind) bool
}

// Recognizer knows the configured annotation names and maps annotations to null tags.
type Recognizer struct {
	nonNull   map[string]bool
	nullable  map[string]bool
	byDefault map[string]bool
	injection map[string]bool
}

// NewRecognizer creates a recognizer for the configured (primary and secondary) names.
func NewRecognizer(cfg *config.Config) *Recognizer {
	set := func(names []string) map[string]bool {
		m := make(map[string]bool, len(names))
		for _, n := range names {
			if n != "" {
				m[n] = true
			}
		}
		return m
	}
	return &Recognizer{
		nonNull:   set(cfg.Annotations.NonNullNames()),
		nullable:  set(cfg.Annotations.NullableNames()),
		byDefault: set(cfg.Annotations.NonNullByDefaultNames()),
		injection: set(cfg.InjectionAnnotations),
	}
}

// Tag returns the null tag denoted by the annotation, if it is a null annotation.
func (r *Recognizer) Tag(a *program.Annotation) (NullTag, bool) {
	switch {
	case r.nonNull[a.Name]:
		return NonNull, true
	case r.nullable[a.Name]:
		return Nullable, true
	}
	return Unspecified, false
}

// IsDefault returns true if the annotation declares a nullness default.
func (r *Recognizer) IsDefault(a *program.Annotation) bool {
	return r.byDefault[a.Name]
}

// IsInjection returns true if the annotation marks an injected member.
func (r *Recognizer) IsInjection(a *program.Annotation) bool {
	return r.injection[a.Name]
}

// Site is a type-use site: a declared type with its type annotations, and the annotations of the
// declaration it belongs to, which also apply to the type.
type Site struct {
	Type        *program.TypeRef
	Annotations []*program.Annotation
	// Span is where findings are reported when no annotation span is available.
	Span program.Span
}

// NullAnnotations returns the null annotations of the site, type annotations first.
func (r *Recognizer) NullAnnotations(s Site) []*program.Annotation {
	var out []*program.Annotation
	if s.Type != nil {
		for _, a := range s.Type.Annotations {
			if _, ok := r.Tag(a); ok {
				out = append(out, a)
			}
		}
	}
	for _, a := range s.Annotations {
		if _, ok := r.Tag(a); ok {
			out = append(out, a)
		}
	}
	return out
}

// Resolve returns the explicit contract of the site: Unspecified when no null annotation is given,
// when the given ones contradict each other, or when they annotate a primitive type or void. The
// findings are passed to rep, which may be nil.
func (r *Recognizer) Resolve(s Site, rep Reporter) Val {
	anns := r.NullAnnotations(s)
	if len(anns) == 0 {
		return UnspecifiedVal
	}

	tag, _ := r.Tag(anns[0])
	for _, a := range anns[1:] {
		if other, _ := r.Tag(a); other != tag {
			if rep != nil {
				rep.Report(diagnostic.ContradictoryNullSpecification, spanOf(a, s),
					"Contradictory null specification; only one of @NonNull and @Nullable can be specified at any location")
			}
			return UnspecifiedVal
		}
	}

	if s.Type.IsPrimitive() {
		if rep != nil {
			rep.Report(diagnostic.IllegalAnnotationForType, spanOf(anns[0], s),
				fmt.Sprintf("The nullness annotation %s is not applicable for the primitive type %s",
					tagName(anns[0]), s.Type.SimpleName()))
		}
		return UnspecifiedVal
	}
	return Val{Tag: tag, Origin: Explicit}
}

// CheckTypeDeclaration reports null annotations placed on a type declaration itself.
func (r *Recognizer) CheckTypeDeclaration(t *program.Type, rep Reporter) {
	for _, a := range t.Annotations {
		if _, ok := r.Tag(a); ok {
			rep.Report(diagnostic.IllegalAnnotationLocation, spanOf(a, Site{Span: t.Span}),
				fmt.Sprintf("The nullness annotation '%s' is not applicable at this location", a.SimpleName()))
		}
	}
}

func spanOf(a *program.Annotation, s Site) program.Span {
	if a.Span.IsValid() {
		return a.Span
	}
	return s.Span
}

func tagName(a *program.Annotation) string {
	return "@" + a.SimpleName()
}
