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

// Package preprocess hosts preprocessing logic for the input (e.g., CFGs etc.) to make it more
// amenable to analysis.
package preprocess

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"go.uber.org/nullaway/program"
)

// BlockKind describes why a block was created.
type BlockKind uint8

const (
	// KindEntry is the entry block of a body.
	KindEntry BlockKind = iota
	// KindExit is the block reached by normal completion and by return statements.
	KindExit
	// KindBody is a block of straight-line statements.
	KindBody
	// KindIfThen is the then branch of an if statement.
	KindIfThen
	// KindIfElse is the else branch of an if statement.
	KindIfElse
	// KindIfDone follows an if statement.
	KindIfDone
	// KindLoopHead evaluates the condition of a loop.
	KindLoopHead
	// KindLoopBody is the body of a loop.
	KindLoopBody
	// KindLoopPost holds the update expressions of a for loop and the condition of a do loop.
	KindLoopPost
	// KindLoopDone follows a loop.
	KindLoopDone
	// KindSwitchCase is a case group of a switch statement.
	KindSwitchCase
	// KindSwitchDone follows a switch statement.
	KindSwitchDone
	// KindTry is the start of a try body.
	KindTry
	// KindCatch is a catch clause.
	KindCatch
	// KindFinally is one copy of a finally block.
	KindFinally
	// KindTryDone follows a try statement.
	KindTryDone
	// KindLabelDone follows a labeled statement.
	KindLabelDone
	// KindFailure is reached when an assertion fails.
	KindFailure
	// KindUnreachable follows a statement that cannot complete normally.
	KindUnreachable
)

var _kindNames = [...]string{
	KindEntry:       "entry",
	KindExit:        "exit",
	KindBody:        "body",
	KindIfThen:      "if.then",
	KindIfElse:      "if.else",
	KindIfDone:      "if.done",
	KindLoopHead:    "loop.head",
	KindLoopBody:    "loop.body",
	KindLoopPost:    "loop.post",
	KindLoopDone:    "loop.done",
	KindSwitchCase:  "switch.case",
	KindSwitchDone:  "switch.done",
	KindTry:         "try",
	KindCatch:       "catch",
	KindFinally:     "finally",
	KindTryDone:     "try.done",
	KindLabelDone:   "label.done",
	KindFailure:     "failure",
	KindUnreachable: "unreachable",
}

func (k BlockKind) String() string {
	if int(k) < len(_kindNames) {
		return _kindNames[k]
	}
	return "unknown"
}

// Block is a basic block of a CFG.
type Block struct {
	Index uint32
	Kind  BlockKind
	// Nodes are the statements evaluated in order: simple statements, local variable declarations,
	// and the headers of compound statements (*program.ForEach, *program.Switch and
	// *program.Synchronized, whose expression is evaluated in the block).
	Nodes []program.Node
	// Cond, if set, is evaluated after the nodes; Succs[0] is taken when it is true and Succs[1]
	// when it is false. Without a condition every successor may be taken.
	Cond program.Expr
	// Trusted is set when Cond was derived from a trusted call such as `Objects.requireNonNull(x)`
	// rather than written in the source.
	Trusted bool
	Succs   []*Block
	// Exceptional are the catch and finally blocks an exception thrown in this block reaches.
	Exceptional []*Block
	// Preds are the normal and exceptional predecessors.
	Preds []*Block
	// LoopHead is set on blocks that are the target of a back edge.
	LoopHead bool
	// MissingDefault is set on a switch block whose last successor is the edge taken when no
	// case matches.
	MissingDefault bool
	// Live is set on blocks reachable from the entry. Only the exit block of a body that never
	// completes normally is kept without being live.
	Live bool
}

func (b *Block) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d:%s", b.Index, b.Kind)
	if b.LoopHead {
		sb.WriteString(" loop")
	}
	for _, n := range b.Nodes {
		sb.WriteString(" [")
		sb.WriteString(nodeString(n))
		sb.WriteString("]")
	}
	if b.Cond != nil {
		fmt.Fprintf(&sb, " if %s", program.ExprString(b.Cond))
	}
	if len(b.Succs) > 0 {
		sb.WriteString(" ->")
		for _, s := range b.Succs {
			fmt.Fprintf(&sb, " %d", s.Index)
		}
	}
	if len(b.Exceptional) > 0 {
		sb.WriteString(" !>")
		for _, s := range b.Exceptional {
			fmt.Fprintf(&sb, " %d", s.Index)
		}
	}
	return sb.String()
}

func nodeString(n program.Node) string {
	switch n := n.(type) {
	case *program.ExprStmt:
		return program.ExprString(n.X)
	case *program.LocalVar:
		if n.Init == nil {
			return "var " + n.Name
		}
		return "var " + n.Name + " = " + program.ExprString(n.Init)
	case *program.Return:
		return "return " + program.ExprString(n.X)
	case *program.Throw:
		return "throw " + program.ExprString(n.X)
	case *program.ForEach:
		return "foreach " + program.ExprString(n.X)
	case *program.Switch:
		return "switch " + program.ExprString(n.X)
	case *program.Synchronized:
		return "synchronized " + program.ExprString(n.Lock)
	case *program.Empty:
		return ";"
	}
	return fmt.Sprintf("%T", n)
}

// CFG is the control flow graph of one body.
type CFG struct {
	Blocks []*Block
	Entry  *Block
	Exit   *Block
}

func (g *CFG) String() string {
	lines := make([]string, len(g.Blocks))
	for i, b := range g.Blocks {
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// target is a frame of the break/continue target stack.
type target struct {
	tail  *target
	label string
	brk   *Block
	// cont is nil for switch statements and labeled non-loop statements.
	cont *Block
	// handlers is the depth of the handler stack where the target was pushed.
	handlers int
}

// handler is a frame of the try statement stack.
type handler struct {
	try *program.Try
	// catches are the catch entries; nil once the try body has been built.
	catches []*Block
	// rethrow is the entry of the finally copy run on exceptional exits, if there is a finally.
	rethrow *Block
}

type builder struct {
	cfg      *CFG
	current  *Block
	targets  *target
	handlers []*handler
}

// Build returns the CFG of a method, constructor or initializer body, with the hooks of the hook
// package applied. Lambda bodies and local classes are not part of the graph.
func Build(body *program.Block) *CFG {
	g := &CFG{}
	b := &builder{cfg: g}
	g.Entry = b.newBlock(KindEntry)
	g.Exit = b.newBlock(KindExit)
	b.current = g.Entry
	if body != nil {
		b.stmtList(body.Stmts)
	}
	b.jump(g.Exit)

	for _, block := range g.Blocks {
		restructureOnNoReturnCall(block)
	}
	for i := 0; i < len(g.Blocks); i++ {
		splitBlockOnTrustedFuncs(b, g.Blocks[i])
	}
	for _, block := range g.Blocks {
		replaceConditional(block)
	}

	b.finish()
	return g
}

// newBlock creates a block. Blocks created inside a try statement get exceptional edges to the
// handlers an exception would reach.
func (b *builder) newBlock(kind BlockKind) *Block {
	block := &Block{Kind: kind, Exceptional: b.exceptionalTargets()}
	b.cfg.Blocks = append(b.cfg.Blocks, block)
	return block
}

func (b *builder) exceptionalTargets() []*Block {
	var out []*Block
	for i := len(b.handlers) - 1; i >= 0; i-- {
		h := b.handlers[i]
		out = append(out, h.catches...)
		if h.rethrow != nil {
			// The finally copy rethrows to the outer handlers itself.
			return append(out, h.rethrow)
		}
	}
	return out
}

// jump links the current block to the given block and starts an unreachable one.
func (b *builder) jump(to *Block) {
	if b.current.Cond == nil {
		b.current.Succs = append(b.current.Succs, to)
	}
	b.current = b.newBlock(KindUnreachable)
}

// startBlock makes the given block current, linking the current block to it.
func (b *builder) startBlock(block *Block) {
	b.current.Succs = append(b.current.Succs, block)
	b.current = block
}

// add appends a node to the current block. Inside try statements, every statement gets its own
// block so that catch blocks see the state between any two statements.
func (b *builder) add(n program.Node) {
	b.current.Nodes = append(b.current.Nodes, n)
	if len(b.handlers) > 0 {
		b.startBlock(b.newBlock(KindBody))
	}
}

// branch ends the current block with a condition.
func (b *builder) branch(cond program.Expr, then, els *Block) {
	b.current.Cond = cond
	b.current.Succs = []*Block{then, els}
}

func (b *builder) stmtList(stmts []program.Stmt) {
	for _, s := range stmts {
		b.stmt(s, "")
	}
}

func (b *builder) stmt(s program.Stmt, label string) {
	switch s := s.(type) {
	case nil:
	case *program.Block:
		b.stmtList(s.Stmts)
	case *program.LocalVar, *program.ExprStmt, *program.Empty:
		b.add(s)
	case *program.LocalClass:
		// Analyzed as a type of its own.
	case *program.If:
		then, done := b.newBlock(KindIfThen), b.newBlock(KindIfDone)
		els := done
		if s.Else != nil {
			els = b.newBlock(KindIfElse)
		}
		b.branch(s.Cond, then, els)
		b.current = then
		b.stmt(s.Then, "")
		b.jump(done)
		if s.Else != nil {
			b.current = els
			b.stmt(s.Else, "")
			b.jump(done)
		}
		b.current = done
	case *program.While:
		head := b.newBlock(KindLoopHead)
		body, done := b.newBlock(KindLoopBody), b.newBlock(KindLoopDone)
		b.startBlock(head)
		b.branch(s.Cond, body, done)
		b.loopBody(s.Body, label, body, done, head)
		b.current = done
	case *program.DoWhile:
		body, post, done := b.newBlock(KindLoopBody), b.newBlock(KindLoopPost), b.newBlock(KindLoopDone)
		b.startBlock(body)
		b.loopBody(s.Body, label, body, done, post)
		b.current = post
		b.branch(s.Cond, body, done)
		b.current = done
	case *program.For:
		for _, init := range s.Init {
			b.stmt(init, "")
		}
		head := b.newBlock(KindLoopHead)
		body, post, done := b.newBlock(KindLoopBody), b.newBlock(KindLoopPost), b.newBlock(KindLoopDone)
		b.startBlock(head)
		if s.Cond != nil {
			b.branch(s.Cond, body, done)
		} else {
			b.current.Succs = []*Block{body}
		}
		b.loopBody(s.Body, label, body, done, post)
		b.current = post
		for _, u := range s.Update {
			b.current.Nodes = append(b.current.Nodes, &program.ExprStmt{X: u, Span: u.Pos()})
		}
		b.jump(head)
		b.current = done
	case *program.ForEach:
		b.add(s)
		head := b.newBlock(KindLoopHead)
		body, done := b.newBlock(KindLoopBody), b.newBlock(KindLoopDone)
		b.startBlock(head)
		b.current.Succs = []*Block{body, done}
		if s.Var != nil {
			body.Nodes = append(body.Nodes, s.Var)
		}
		b.loopBody(s.Body, label, body, done, head)
		b.current = done
	case *program.Labeled:
		switch s.Stmt.(type) {
		case *program.While, *program.DoWhile, *program.For, *program.ForEach:
			b.stmt(s.Stmt, s.Label)
			return
		}
		done := b.newBlock(KindLabelDone)
		b.targets = &target{tail: b.targets, label: s.Label, brk: done, handlers: len(b.handlers)}
		b.stmt(s.Stmt, "")
		b.targets = b.targets.tail
		b.jump(done)
		b.current = done
	case *program.Switch:
		b.switchStmt(s, label)
	case *program.Return:
		b.current.Nodes = append(b.current.Nodes, s)
		b.jumpThroughFinally(b.cfg.Exit, 0)
	case *program.Throw:
		b.current.Nodes = append(b.current.Nodes, s)
		b.current = b.newBlock(KindUnreachable)
	case *program.Break:
		if t := b.findTarget(s.Label, false); t != nil {
			b.jumpThroughFinally(t.brk, t.handlers)
		}
	case *program.Continue:
		if t := b.findTarget(s.Label, true); t != nil {
			b.jumpThroughFinally(t.cont, t.handlers)
		}
	case *program.Try:
		b.tryStmt(s)
	case *program.Assert:
		next, fail := b.newBlock(KindBody), b.newBlock(KindFailure)
		b.branch(s.Cond, next, fail)
		if s.Message != nil {
			fail.Nodes = append(fail.Nodes, &program.ExprStmt{X: s.Message, Span: s.Message.Pos()})
		}
		b.current = next
	case *program.Synchronized:
		b.add(s)
		if s.Body != nil {
			b.stmtList(s.Body.Stmts)
		}
	default:
		panic(fmt.Sprintf("unexpected statement %T", s))
	}
}

// loopBody builds the body of a loop starting at body; break jumps to done and continue to cont.
func (b *builder) loopBody(s program.Stmt, label string, body, done, cont *Block) {
	b.targets = &target{tail: b.targets, label: label, brk: done, cont: cont, handlers: len(b.handlers)}
	b.current = body
	b.stmt(s, "")
	b.targets = b.targets.tail
	b.jump(cont)
}

func (b *builder) findTarget(label string, cont bool) *target {
	for t := b.targets; t != nil; t = t.tail {
		if cont && t.cont == nil {
			continue
		}
		if label == "" || t.label == label {
			return t
		}
	}
	return nil
}

// jumpThroughFinally jumps to the target, running a copy of the finally block of every try
// statement left on the way, innermost first. Handlers below depth are not left.
func (b *builder) jumpThroughFinally(to *Block, depth int) {
	saved := b.handlers
	for i := len(saved) - 1; i >= depth; i-- {
		h := saved[i]
		if h.try.Finally == nil {
			continue
		}
		b.handlers = saved[:i]
		copyEntry := b.newBlock(KindFinally)
		b.startBlock(copyEntry)
		b.stmtList(h.try.Finally.Stmts)
	}
	b.handlers = saved
	b.jump(to)
}

func (b *builder) switchStmt(s *program.Switch, label string) {
	b.current.Nodes = append(b.current.Nodes, s)
	header := b.current
	done := b.newBlock(KindSwitchDone)
	cases := make([]*Block, len(s.Cases))
	for i := range s.Cases {
		cases[i] = b.newBlock(KindSwitchCase)
	}
	header.Succs = append(header.Succs, cases...)
	if !s.HasDefault() {
		header.Succs = append(header.Succs, done)
		header.MissingDefault = true
	}

	b.targets = &target{tail: b.targets, label: label, brk: done, handlers: len(b.handlers)}
	for i, c := range s.Cases {
		// Fall through from the previous group.
		if i > 0 {
			b.current.Succs = append(b.current.Succs, cases[i])
		}
		b.current = cases[i]
		b.stmtList(c.Body)
	}
	b.targets = b.targets.tail
	b.jump(done)
	b.current = done
}

func (b *builder) tryStmt(s *program.Try) {
	h := &handler{try: s}
	for range s.Catches {
		h.catches = append(h.catches, b.newBlock(KindCatch))
	}
	if s.Finally != nil {
		h.rethrow = b.newBlock(KindFinally)
	}
	done := b.newBlock(KindTryDone)

	b.handlers = append(b.handlers, h)
	b.startBlock(b.newBlock(KindTry))
	for _, r := range s.Resources {
		b.add(r)
	}
	if s.Body != nil {
		b.stmtList(s.Body.Stmts)
	}
	// Exceptions thrown in catch blocks only reach the finally block.
	catches := h.catches
	h.catches = nil
	b.jumpThroughFinally(done, len(b.handlers)-1)

	for i, c := range s.Catches {
		b.current = catches[i]
		b.current.Exceptional = b.exceptionalTargets()
		if c.Param != nil {
			b.current.Nodes = append(b.current.Nodes, c.Param)
		}
		if c.Body != nil {
			b.stmtList(c.Body.Stmts)
		}
		b.jumpThroughFinally(done, len(b.handlers)-1)
	}
	b.handlers = b.handlers[:len(b.handlers)-1]

	if h.rethrow != nil {
		// The exceptional copy of the finally block ends by rethrowing to the outer handlers.
		b.current = h.rethrow
		b.stmtList(s.Finally.Stmts)
		b.current = b.newBlock(KindUnreachable)
	}
	b.current = done
}

// finish drops the blocks unreachable from the entry, moves the exit block last, numbers the
// blocks, and computes predecessors and loop heads.
func (b *builder) finish() {
	g := b.cfg
	onStack := make(map[*Block]bool)
	var visit func(block *Block)
	visit = func(block *Block) {
		block.Live = true
		onStack[block] = true
		for _, succ := range block.Succs {
			if onStack[succ] {
				succ.LoopHead = true
			} else if !succ.Live {
				visit(succ)
			}
		}
		for _, succ := range block.Exceptional {
			if !succ.Live {
				visit(succ)
			}
		}
		onStack[block] = false
	}
	visit(g.Entry)

	blocks := make([]*Block, 0, len(g.Blocks))
	for _, block := range g.Blocks {
		if block.Live && block != g.Exit {
			blocks = append(blocks, block)
		}
	}
	g.Blocks = append(blocks, g.Exit)

	for i, block := range g.Blocks {
		index, err := safecast.Conv[uint32](i)
		if err != nil {
			panic(fmt.Errorf("len(blocks) overflow: %w", err))
		}
		block.Index = index
		for _, succ := range block.Succs {
			succ.Preds = append(succ.Preds, block)
		}
		for _, succ := range block.Exceptional {
			succ.Preds = append(succ.Preds, block)
		}
	}
}
