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

// Package program defines the resolved program model that the nullness checker consumes. It is
// produced by an external front end (parsing, name and type resolution are out of scope here) and
// is either built in memory or decoded from the JSON / MessagePack wire formats in codec.go.
package program

import (
	"fmt"
	"go/token"
)

// Span locates a node in its compilation unit. Offsets are byte offsets into the unit source,
// End is exclusive. Lines and columns are 1-based.
type Span struct {
	Filename string `json:"file,omitempty" msgpack:"file,omitempty"`
	Offset   int    `json:"offset" msgpack:"offset"`
	End      int    `json:"end" msgpack:"end"`
	Line     int    `json:"line" msgpack:"line"`
	Column   int    `json:"column" msgpack:"column"`
}

// IsValid returns true if the span was assigned a position.
func (s Span) IsValid() bool {
	return s.Line > 0
}

// Position converts the span start to a token.Position.
func (s Span) Position() token.Position {
	return token.Position{Filename: s.Filename, Offset: s.Offset, Line: s.Line, Column: s.Column}
}

// Contains returns true if o lies within s (same file).
func (s Span) Contains(o Span) bool {
	return s.Filename == o.Filename && s.Offset <= o.Offset && o.End <= s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
}

// Node is implemented by every element of the program model that carries a span.
type Node interface {
	Pos() Span
	// span returns a pointer to the node's span so that the linker can assign synthetic positions.
	span() *Span
}
