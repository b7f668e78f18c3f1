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

package preprocess

import (
	"go.uber.org/nullaway/hook"
	"go.uber.org/nullaway/program"
)

// restructureOnNoReturnCall truncates a block after a call that never returns normally. Calls that
// exit the process lose every successor; calls that always throw keep their exceptional edges.
func restructureOnNoReturnCall(block *Block) {
	for i, node := range block.Nodes {
		stmt, ok := node.(*program.ExprStmt)
		if !ok {
			continue
		}
		call, ok := program.StripCasts(stmt.X).(*program.Call)
		if !ok {
			continue
		}
		noReturn := hook.IsNoReturnCall(call)
		if !noReturn && !hook.IsThrowingCall(call) {
			continue
		}
		block.Nodes = block.Nodes[:i+1]
		block.Succs = nil
		block.Cond = nil
		block.MissingDefault = false
		if noReturn {
			block.Exceptional = nil
		}
		return
	}
}

// splitBlockOnTrustedFuncs splits the block at the first trusted call with a known effect on its
// arguments. The nodes after the call move to a new block taken when the call's condition holds,
// and a failure block without successors is taken otherwise. The new blocks are appended to the
// graph and split in turn by the caller.
func splitBlockOnTrustedFuncs(b *builder, block *Block) {
	for i, node := range block.Nodes {
		call := trustedCallOf(node)
		if call == nil {
			continue
		}
		cond := hook.SplitBlockOn(call)
		if cond == nil {
			continue
		}

		rest := b.newBlock(KindBody)
		rest.Nodes = block.Nodes[i+1:]
		rest.Cond = block.Cond
		rest.Trusted = block.Trusted
		rest.Succs = block.Succs
		rest.Exceptional = block.Exceptional
		rest.MissingDefault = block.MissingDefault

		failure := b.newBlock(KindFailure)
		failure.Exceptional = block.Exceptional

		block.Nodes = block.Nodes[:i+1:i+1]
		block.Cond = cond
		block.Trusted = true
		block.Succs = []*Block{rest, failure}
		block.MissingDefault = false
		return
	}
}

// trustedCallOf returns the call evaluated last by a statement node, if the statement is a call,
// an assignment of a call or a local variable initialized by a call.
func trustedCallOf(node program.Node) *program.Call {
	var x program.Expr
	switch node := node.(type) {
	case *program.ExprStmt:
		x = node.X
		if assign, ok := x.(*program.Assign); ok && assign.Op == program.OpAssign {
			x = assign.RHS
		}
	case *program.LocalVar:
		x = node.Init
	default:
		return nil
	}
	call, _ := program.StripCasts(x).(*program.Call)
	return call
}

// replaceConditional rewrites trusted boolean calls in branch conditions into the equivalent null
// comparisons, e.g., `Objects.isNull(x)` into `x == null`.
func replaceConditional(block *Block) {
	if block.Cond != nil {
		block.Cond = ReplaceConditional(block.Cond)
	}
}

// ReplaceConditional returns cond with trusted boolean calls replaced by null comparisons. Only the
// operands of `!`, `&&` and `||` are rewritten; cond itself is never modified.
func ReplaceConditional(cond program.Expr) program.Expr {
	switch e := cond.(type) {
	case *program.Call:
		if r := hook.ReplaceConditional(e); r != nil {
			return r
		}
	case *program.Unary:
		if e.Op != program.OpNot {
			return cond
		}
		if x := ReplaceConditional(e.X); x != e.X {
			return &program.Unary{Op: e.Op, X: x, Span: e.Span}
		}
	case *program.Binary:
		if e.Op != program.OpAndAnd && e.Op != program.OpOrOr {
			return cond
		}
		x, y := ReplaceConditional(e.X), ReplaceConditional(e.Y)
		if x != e.X || y != e.Y {
			return &program.Binary{Op: e.Op, X: x, Y: y, Span: e.Span}
		}
	}
	return cond
}
