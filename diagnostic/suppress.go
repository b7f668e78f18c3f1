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

package diagnostic

import (
	"strings"

	"go.uber.org/nullaway/program"
)

// Range is a minimal struct that stores the filename and the start and end offsets of an element
// annotated with @SuppressWarnings("null") or @SuppressWarnings("all").
type Range struct {
	Filename string
	From, To int
}

// Contains returns true if the span lies within the range.
func (r Range) Contains(s program.Span) bool {
	return r.Filename == s.Filename && r.From <= s.Offset && s.Offset < r.To
}

// SuppressionRanges returns the @SuppressWarnings scopes of the unit: types (including local and
// anonymous ones), methods, fields and local variable declarations.
func SuppressionRanges(u *program.Unit) []Range {
	var ranges []Range
	program.InspectUnit(u, func(n program.Node) bool {
		var anns []*program.Annotation
		switch n := n.(type) {
		case program.Decl:
			anns = n.DeclAnnotations()
		case *program.LocalVar:
			anns = n.Annotations
		default:
			return true
		}
		if suppressesNull(anns) {
			s := n.Pos()
			ranges = append(ranges, Range{Filename: s.Filename, From: s.Offset, To: s.End})
		}
		return true
	})
	return ranges
}

// suppressesNull checks if the annotations contain @SuppressWarnings with the "null" or "all"
// token.
func suppressesNull(anns []*program.Annotation) bool {
	for _, a := range anns {
		if a.SimpleName() != "SuppressWarnings" {
			continue
		}
		for _, token := range a.ArgValues("value") {
			if strings.EqualFold(token, "all") || strings.EqualFold(token, "null") {
				return true
			}
		}
	}
	return false
}
