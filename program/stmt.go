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

package program

// Stmt is a statement in a method or initializer body.
type Stmt interface {
	Node
	stmtNode()
}

type (
	// Block is a braced sequence of statements.
	Block struct {
		Stmts []Stmt
		Span  Span
	}

	// LocalVar declares a local variable, optionally initialized.
	LocalVar struct {
		Name        string
		Type        *TypeRef
		Annotations []*Annotation
		Init        Expr
		Span        Span
	}

	// ExprStmt evaluates an expression for its side effects.
	ExprStmt struct {
		X    Expr
		Span Span
	}

	// If is an if statement; Else may be nil.
	If struct {
		Cond Expr
		Then Stmt
		Else Stmt
		Span Span
	}

	// While is a while loop.
	While struct {
		Cond Expr
		Body Stmt
		Span Span
	}

	// DoWhile is a do-while loop.
	DoWhile struct {
		Body Stmt
		Cond Expr
		Span Span
	}

	// For is a classic for loop. A nil Cond loops forever.
	For struct {
		Init   []Stmt
		Cond   Expr
		Update []Expr
		Body   Stmt
		Span   Span
	}

	// ForEach is an enhanced for loop over X.
	ForEach struct {
		Var  *LocalVar
		X    Expr
		Body Stmt
		Span Span
	}

	// Return returns from the method; X is nil for a bare return.
	Return struct {
		X    Expr
		Span Span
	}

	// Throw throws X.
	Throw struct {
		X    Expr
		Span Span
	}

	// Try is a try statement with optional resources, catch clauses and finally block.
	Try struct {
		Resources []*LocalVar
		Body      *Block
		Catches   []*Catch
		Finally   *Block
		Span      Span
	}

	// Catch is a catch clause of a try statement.
	Catch struct {
		Param *LocalVar
		Body  *Block
		Span  Span
	}

	// Switch is a switch statement with fall-through case groups.
	Switch struct {
		X     Expr
		Cases []*Case
		Span  Span
	}

	// Case is one case group of a switch statement. Default marks the default group.
	Case struct {
		Values  []Expr
		Default bool
		Body    []Stmt
		Span    Span
	}

	// Break leaves the innermost loop or switch, or the labeled statement.
	Break struct {
		Label string
		Span  Span
	}

	// Continue starts the next iteration of the innermost loop, or of the labeled loop.
	Continue struct {
		Label string
		Span  Span
	}

	// Labeled attaches a label to a statement.
	Labeled struct {
		Label string
		Stmt  Stmt
		Span  Span
	}

	// Empty is the empty statement ";".
	Empty struct {
		Span Span
	}

	// LocalClass declares a local class inside a body.
	LocalClass struct {
		Type *Type
		Span Span
	}

	// Assert is an assert statement.
	Assert struct {
		Cond    Expr
		Message Expr
		Span    Span
	}

	// Synchronized is a synchronized block.
	Synchronized struct {
		Lock Expr
		Body *Block
		Span Span
	}
)

func (s *Block) Pos() Span        { return s.Span }
func (s *LocalVar) Pos() Span     { return s.Span }
func (s *ExprStmt) Pos() Span     { return s.Span }
func (s *If) Pos() Span           { return s.Span }
func (s *While) Pos() Span        { return s.Span }
func (s *DoWhile) Pos() Span      { return s.Span }
func (s *For) Pos() Span          { return s.Span }
func (s *ForEach) Pos() Span      { return s.Span }
func (s *Return) Pos() Span       { return s.Span }
func (s *Throw) Pos() Span        { return s.Span }
func (s *Try) Pos() Span          { return s.Span }
func (s *Catch) Pos() Span        { return s.Span }
func (s *Switch) Pos() Span       { return s.Span }
func (s *Case) Pos() Span         { return s.Span }
func (s *Break) Pos() Span        { return s.Span }
func (s *Continue) Pos() Span     { return s.Span }
func (s *Labeled) Pos() Span      { return s.Span }
func (s *Empty) Pos() Span        { return s.Span }
func (s *LocalClass) Pos() Span   { return s.Span }
func (s *Assert) Pos() Span       { return s.Span }
func (s *Synchronized) Pos() Span { return s.Span }

func (s *Block) span() *Span        { return &s.Span }
func (s *LocalVar) span() *Span     { return &s.Span }
func (s *ExprStmt) span() *Span     { return &s.Span }
func (s *If) span() *Span           { return &s.Span }
func (s *While) span() *Span        { return &s.Span }
func (s *DoWhile) span() *Span      { return &s.Span }
func (s *For) span() *Span          { return &s.Span }
func (s *ForEach) span() *Span      { return &s.Span }
func (s *Return) span() *Span       { return &s.Span }
func (s *Throw) span() *Span        { return &s.Span }
func (s *Try) span() *Span          { return &s.Span }
func (s *Catch) span() *Span        { return &s.Span }
func (s *Switch) span() *Span       { return &s.Span }
func (s *Case) span() *Span         { return &s.Span }
func (s *Break) span() *Span        { return &s.Span }
func (s *Continue) span() *Span     { return &s.Span }
func (s *Labeled) span() *Span      { return &s.Span }
func (s *Empty) span() *Span        { return &s.Span }
func (s *LocalClass) span() *Span   { return &s.Span }
func (s *Assert) span() *Span       { return &s.Span }
func (s *Synchronized) span() *Span { return &s.Span }

func (*Block) stmtNode()        {}
func (*LocalVar) stmtNode()     {}
func (*ExprStmt) stmtNode()     {}
func (*If) stmtNode()           {}
func (*While) stmtNode()        {}
func (*DoWhile) stmtNode()      {}
func (*For) stmtNode()          {}
func (*ForEach) stmtNode()      {}
func (*Return) stmtNode()       {}
func (*Throw) stmtNode()        {}
func (*Try) stmtNode()          {}
func (*Switch) stmtNode()       {}
func (*Break) stmtNode()        {}
func (*Continue) stmtNode()     {}
func (*Labeled) stmtNode()      {}
func (*Empty) stmtNode()        {}
func (*LocalClass) stmtNode()   {}
func (*Assert) stmtNode()       {}
func (*Synchronized) stmtNode() {}

// HasDefault returns true if one of the case groups is the default group.
func (s *Switch) HasDefault() bool {
	for _, c := range s.Cases {
		if c.Default {
			return true
		}
	}
	return false
}
