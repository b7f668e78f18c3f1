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

// Package annotation implements the annotation model of the checker: the null tags recognized on
// type-use sites, their resolution from explicit annotations and defaults, and the store of
// per-binding contracts (methods, constructors and fields) that the checks consult.
package annotation

import "strings"

// NullTag is the declared nullness of a type-use site.
type NullTag uint8

const (
	// Unspecified means no contract is declared.
	Unspecified NullTag = iota
	// NonNull means the location never holds null.
	NonNull
	// Nullable means the location may hold null.
	Nullable
)

func (t NullTag) String() string {
	switch t {
	case NonNull:
		return "@NonNull"
	case Nullable:
		return "@Nullable"
	}
	return "unspecified"
}

// TagOrigin records where a tag came from. It only affects message wording and suppression, never
// semantics.
type TagOrigin uint8

const (
	// Explicit tags are written at the location.
	Explicit TagOrigin = iota
	// DefaultInduced tags come from a default of an enclosing scope, or from the overridden
	// method when null annotations are inherited.
	DefaultInduced
	// InferredFlow tags are derived by the flow analysis, e.g., for unannotated locals.
	InferredFlow
)

func (o TagOrigin) String() string {
	switch o {
	case Explicit:
		return "explicit"
	case DefaultInduced:
		return "default"
	case InferredFlow:
		return "inferred"
	}
	return "unknown"
}

// Val is the resolved contract of a location.
type Val struct {
	Tag    NullTag
	Origin TagOrigin
}

// UnspecifiedVal is the value of locations without any contract.
var UnspecifiedVal = Val{Tag: Unspecified, Origin: DefaultInduced}

// IsNonNull returns true for NonNull contracts.
func (v Val) IsNonNull() bool { return v.Tag == NonNull }

// IsNullable returns true for Nullable contracts.
func (v Val) IsNullable() bool { return v.Tag == Nullable }

// IsExplicit returns true if the tag is written at the location.
func (v Val) IsExplicit() bool { return v.Tag != Unspecified && v.Origin == Explicit }

func (v Val) String() string {
	if v.Tag == Unspecified {
		return v.Tag.String()
	}
	return v.Tag.String() + " (" + v.Origin.String() + ")"
}

// Location is a kind of type-use site a default can apply to.
type Location uint8

const (
	// Parameter is a method or constructor parameter.
	Parameter Location = iota
	// ReturnType is a method return type.
	ReturnType
	// Field is a field type.
	Field
	// TypeArgument is a type argument of a parameterized type.
	TypeArgument

	numLocations
)

var _locationNames = [numLocations]string{
	Parameter:    "PARAMETER",
	ReturnType:   "RETURN_TYPE",
	Field:        "FIELD",
	TypeArgument: "TYPE_ARGUMENT",
}

func (l Location) String() string {
	if l < numLocations {
		return _locationNames[l]
	}
	return "UNKNOWN"
}

// LocationSet is a set of locations.
type LocationSet uint8

// AllLocations contains every location; it is the set of a default without explicit locations.
const AllLocations LocationSet = 1<<numLocations - 1

// NewLocationSet returns the set of the given locations.
func NewLocationSet(locs ...Location) LocationSet {
	var s LocationSet
	for _, l := range locs {
		s |= 1 << l
	}
	return s
}

// ParseLocation parses a location name such as "PARAMETER" or "DefaultLocation.PARAMETER".
func ParseLocation(name string) (Location, bool) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	for l, n := range _locationNames {
		if n == name {
			return Location(l), true
		}
	}
	return 0, false
}

// Has returns true if l is in the set.
func (s LocationSet) Has(l Location) bool {
	return s&(1<<l) != 0
}

func (s LocationSet) String() string {
	if s == AllLocations {
		return "all"
	}
	var names []string
	for l := range numLocations {
		if s.Has(l) {
			names = append(names, l.String())
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}
