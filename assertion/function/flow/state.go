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

package flow

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"
)

// State is the nullness of a tracked variable at a program point.
type State uint8

const (
	// Unknown means nothing is known beyond the declared contract of the variable.
	Unknown State = iota
	// DefinitelyNull means the variable is null on every path.
	DefinitelyNull
	// DefinitelyNonNull means the variable is non-null on every path.
	DefinitelyNonNull
	// PotentiallyNull means the variable is null on some path.
	PotentiallyNull
	// ProtectedNonNull means the variable was checked against null, or was declared NonNull.
	ProtectedNonNull
)

func (s State) String() string {
	switch s {
	case Unknown:
		return "unknown"
	case DefinitelyNull:
		return "null"
	case DefinitelyNonNull:
		return "nonnull"
	case PotentiallyNull:
		return "nullable"
	case ProtectedNonNull:
		return "protected"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// NonNull returns true for the two non-null facts.
func (s State) NonNull() bool {
	return s == DefinitelyNonNull || s == ProtectedNonNull
}

// Merge returns the state at a join point of two paths.
func Merge(a, b State) State {
	switch {
	case a == b:
		return a
	case a == PotentiallyNull || b == PotentiallyNull:
		return PotentiallyNull
	case a.NonNull() && b.NonNull():
		return DefinitelyNonNull
	case a == DefinitelyNull || b == DefinitelyNull:
		// The other side is Unknown or non-null.
		return PotentiallyNull
	default:
		// Unknown and a non-null fact.
		return Unknown
	}
}

// widen returns the state of a variable whose value keeps changing at a loop head.
func widen(prev, next State) State {
	if prev == next {
		return next
	}
	m := Merge(prev, next)
	if m == PotentiallyNull || m == DefinitelyNull {
		return PotentiallyNull
	}
	return Unknown
}

// vars interns the keys of tracked variables into slots: local variables and parameters by name,
// and field paths such as "this.f" or "x.f".
type vars struct {
	slots map[string]uint32
	keys  []string
}

func newVars() *vars {
	return &vars{slots: make(map[string]uint32)}
}

func (v *vars) slot(key string) uint32 {
	if s, ok := v.slots[key]; ok {
		return s
	}
	s, err := safecast.Conv[uint32](len(v.keys))
	if err != nil {
		panic(fmt.Errorf("len(vars) overflow: %w", err))
	}
	v.slots[key] = s
	v.keys = append(v.keys, key)
	return s
}

// isField returns true if the i-th key is a field path.
func (v *vars) isField(i int) bool {
	return strings.ContainsAny(v.keys[i], ".#")
}

// state maps the slots of tracked variables to their states. Slots beyond the end are Unknown.
// A nil *state stands for a program point that is not reachable.
type state struct {
	vals []State
}

func (s *state) get(slot uint32) State {
	return s.at(int(slot))
}

func (s *state) at(i int) State {
	if i >= len(s.vals) {
		return Unknown
	}
	return s.vals[i]
}

func (s *state) set(slot uint32, st State) {
	for int(slot) >= len(s.vals) {
		s.vals = append(s.vals, Unknown)
	}
	s.vals[slot] = st
}

func (s *state) copy() *state {
	if s == nil {
		return nil
	}
	return &state{vals: slices.Clone(s.vals)}
}

// merge returns the state at the join of two paths; unreachable paths do not contribute.
func merge(a, b *state) *state {
	switch {
	case a == nil:
		return b.copy()
	case b == nil:
		return a.copy()
	}
	out := &state{vals: make([]State, max(len(a.vals), len(b.vals)))}
	for i := range out.vals {
		out.vals[i] = Merge(a.at(i), b.at(i))
	}
	return out
}

func (s *state) equal(o *state) bool {
	if s == nil || o == nil {
		return s == o
	}
	n := max(len(s.vals), len(o.vals))
	for i := 0; i < n; i++ {
		if s.at(i) != o.at(i) {
			return false
		}
	}
	return true
}

// widenInto widens every slot of next that differs from prev.
func widenInto(prev, next *state) *state {
	if prev == nil || next == nil {
		return next
	}
	out := next.copy()
	for i := range out.vals {
		out.vals[i] = widen(prev.at(i), next.at(i))
	}
	return out
}

// expireFields forgets the facts about every tracked field path.
func (s *state) expireFields(v *vars) {
	for i := range s.vals {
		if v.isField(i) {
			s.vals[i] = Unknown
		}
	}
}

// expireField forgets the facts about the field paths ending in the given field name.
func (s *state) expireField(v *vars, name string) {
	for i := range s.vals {
		key := v.keys[i]
		if v.isField(i) && (strings.HasSuffix(key, "."+name) || strings.HasSuffix(key, "#"+name)) {
			s.vals[i] = Unknown
		}
	}
}

func (s *state) format(v *vars) string {
	if s == nil {
		return "unreachable"
	}
	var parts []string
	for i, st := range s.vals {
		if st != Unknown {
			parts = append(parts, v.keys[i]+"="+st.String())
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
