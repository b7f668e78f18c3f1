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
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/nullaway/program"
)

var (
	_object = program.Ref("java.lang.Object")
	_call   = program.MRef("p.A", "run")
	_other  = program.MRef("p.A", "other")
)

func run() program.Stmt   { return program.Do(program.Invoke(nil, _call)) }
func other() program.Stmt { return program.Do(program.Invoke(nil, _other)) }

func live(g *CFG, kind BlockKind) []*Block {
	var out []*Block
	for _, b := range g.Blocks {
		if b.Live && b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

func TestIfElse(t *testing.T) {
	t.Parallel()

	g := Build(program.Body(
		program.Var("x", _object, program.Null()),
		program.IfElse(program.Ne(program.Id("x"), program.Null()), run(), other()),
		program.Ret(nil),
	))

	require.Equal(t, g.Exit, g.Blocks[len(g.Blocks)-1])
	require.Equal(t, "x != null", program.ExprString(g.Entry.Cond))
	require.Len(t, g.Entry.Nodes, 1)
	require.Len(t, g.Entry.Succs, 2)
	then, els := g.Entry.Succs[0], g.Entry.Succs[1]
	require.Equal(t, KindIfThen, then.Kind)
	require.Equal(t, KindIfElse, els.Kind)
	require.Len(t, then.Succs, 1)
	require.Equal(t, then.Succs, els.Succs)

	done := then.Succs[0]
	require.Equal(t, KindIfDone, done.Kind)
	require.IsType(t, &program.Return{}, done.Nodes[0])
	require.Equal(t, []*Block{g.Exit}, done.Succs)
	require.ElementsMatch(t, []*Block{then, els}, done.Preds)
	require.True(t, g.Exit.Live)

	for i, b := range g.Blocks {
		require.EqualValues(t, i, b.Index)
		require.False(t, b.LoopHead)
	}
}

func TestLoops(t *testing.T) {
	t.Parallel()

	t.Run("while", func(t *testing.T) {
		t.Parallel()

		g := Build(program.Body(
			&program.While{Cond: program.Ne(program.Id("x"), program.Null()), Body: program.Do(program.Set(program.Id("x"), program.Null()))},
		))
		head := g.Entry.Succs[0]
		require.Equal(t, KindLoopHead, head.Kind)
		require.True(t, head.LoopHead)
		require.Equal(t, "x != null", program.ExprString(head.Cond))
		body := head.Succs[0]
		require.Equal(t, KindLoopBody, body.Kind)
		require.Equal(t, []*Block{head}, body.Succs)
		require.Equal(t, KindLoopDone, head.Succs[1].Kind)
		require.Len(t, live(g, KindLoopHead), 1)
	})

	t.Run("do while", func(t *testing.T) {
		t.Parallel()

		g := Build(program.Body(
			&program.DoWhile{Body: run(), Cond: program.Eq(program.Id("x"), program.Null())},
		))
		body := g.Entry.Succs[0]
		require.Equal(t, KindLoopBody, body.Kind)
		require.True(t, body.LoopHead)
		post := body.Succs[0]
		require.Equal(t, KindLoopPost, post.Kind)
		require.Equal(t, body, post.Succs[0])
		require.False(t, post.LoopHead)
	})

	t.Run("for without condition", func(t *testing.T) {
		t.Parallel()

		g := Build(program.Body(
			&program.For{
				Init:   []program.Stmt{program.Var("i", program.Prim("int"), program.Int("0"))},
				Update: []program.Expr{program.Set(program.Id("i"), program.Int("1"))},
				Body:   program.Body(&program.Break{}),
			},
		))
		require.Len(t, g.Entry.Nodes, 1)
		head := g.Entry.Succs[0]
		require.Nil(t, head.Cond)
		require.Len(t, head.Succs, 1)
		// The update is never reached since the body always breaks.
		require.Empty(t, live(g, KindLoopPost))
		require.Len(t, live(g, KindLoopDone), 1)
		require.False(t, head.LoopHead)
	})

	t.Run("for each", func(t *testing.T) {
		t.Parallel()

		elem := program.Var("e", _object, nil)
		g := Build(program.Body(
			&program.ForEach{Var: elem, X: program.Id("xs"), Body: run()},
		))
		require.IsType(t, &program.ForEach{}, g.Entry.Nodes[0])
		head := g.Entry.Succs[0]
		require.True(t, head.LoopHead)
		require.Nil(t, head.Cond)
		require.Len(t, head.Succs, 2)
		body := head.Succs[0]
		require.Equal(t, elem, body.Nodes[0])
		require.Equal(t, []*Block{head}, body.Succs)
	})

	t.Run("labeled continue", func(t *testing.T) {
		t.Parallel()

		inner := &program.While{Cond: program.Id("b"), Body: program.Body(&program.Continue{Label: "outer"})}
		g := Build(program.Body(
			&program.Labeled{Label: "outer", Stmt: &program.While{Cond: program.Id("a"), Body: inner}},
		))
		outerHead := g.Entry.Succs[0]
		innerHead := outerHead.Succs[0].Succs[0]
		require.Equal(t, KindLoopHead, innerHead.Kind)
		innerBody := innerHead.Succs[0]
		require.Equal(t, []*Block{outerHead}, innerBody.Succs)
		require.True(t, outerHead.LoopHead)
		require.False(t, innerHead.LoopHead)
	})
}

func TestSwitch(t *testing.T) {
	t.Parallel()

	cases := func(withDefault bool) []*program.Case {
		return []*program.Case{
			{Values: []program.Expr{program.Int("1")}, Body: []program.Stmt{run()}},
			{Values: []program.Expr{program.Int("2")}, Default: withDefault, Body: []program.Stmt{other(), &program.Break{}}},
		}
	}

	g := Build(program.Body(&program.Switch{X: program.Id("k"), Cases: cases(false)}))
	require.IsType(t, &program.Switch{}, g.Entry.Nodes[0])
	require.True(t, g.Entry.MissingDefault)
	require.Len(t, g.Entry.Succs, 3)
	first, second, done := g.Entry.Succs[0], g.Entry.Succs[1], g.Entry.Succs[2]
	require.Equal(t, KindSwitchDone, done.Kind)
	// The first group falls through into the second.
	require.Equal(t, []*Block{second}, first.Succs)
	require.Equal(t, []*Block{done}, second.Succs)

	g = Build(program.Body(&program.Switch{X: program.Id("k"), Cases: cases(true)}))
	require.False(t, g.Entry.MissingDefault)
	require.Len(t, g.Entry.Succs, 2)
}

func TestTry(t *testing.T) {
	t.Parallel()

	t.Run("catch", func(t *testing.T) {
		t.Parallel()

		param := program.Var("e", program.Ref("java.lang.Exception"), nil)
		g := Build(program.Body(
			&program.Try{
				Body:    program.Body(run(), other()),
				Catches: []*program.Catch{{Param: param, Body: program.Body(run())}},
			},
			program.Ret(nil),
		))
		catches := live(g, KindCatch)
		require.Len(t, catches, 1)
		catch := catches[0]
		require.Equal(t, param, catch.Nodes[0])

		try := g.Entry.Succs[0]
		require.Equal(t, KindTry, try.Kind)
		require.Len(t, try.Nodes, 1)
		require.Equal(t, []*Block{catch}, try.Exceptional)
		// Every statement of the try body ends its own block, and each reaches the catch.
		next := try.Succs[0]
		require.Len(t, next.Nodes, 1)
		require.Equal(t, []*Block{catch}, next.Exceptional)
		require.Empty(t, catch.Exceptional)
	})

	t.Run("finally per exit", func(t *testing.T) {
		t.Parallel()

		g := Build(program.Body(
			&program.Try{
				Body:    program.Body(run(), program.Ret(program.Id("x"))),
				Finally: program.Body(other()),
			},
		))
		finals := live(g, KindFinally)
		// One copy runs before returning, one rethrows; the copy for normal completion is dead.
		require.Len(t, finals, 2)
		var returning, rethrowing *Block
		for _, f := range finals {
			require.Len(t, f.Nodes, 1)
			if len(f.Succs) == 0 {
				rethrowing = f
			} else {
				returning = f
			}
		}
		require.NotNil(t, returning)
		require.NotNil(t, rethrowing)
		require.Equal(t, []*Block{g.Exit}, returning.Succs)
		require.IsType(t, &program.Return{}, returning.Preds[0].Nodes[0])
		require.Empty(t, returning.Exceptional)

		try := g.Entry.Succs[0]
		require.Equal(t, []*Block{rethrowing}, try.Exceptional)
		require.Equal(t, []*Block{rethrowing}, try.Succs[0].Exceptional)
	})

	t.Run("break through finally", func(t *testing.T) {
		t.Parallel()

		g := Build(program.Body(
			&program.While{
				Cond: program.Id("a"),
				Body: &program.Try{Body: program.Body(&program.Break{}), Finally: program.Body(other())},
			},
		))
		done := live(g, KindLoopDone)
		require.Len(t, done, 1)
		var found bool
		for _, f := range live(g, KindFinally) {
			if len(f.Succs) == 1 && f.Succs[0] == done[0] {
				found = true
			}
		}
		require.True(t, found, "expected a finally copy leading out of the loop")
	})
}

func TestAssert(t *testing.T) {
	t.Parallel()

	g := Build(program.Body(
		&program.Assert{Cond: program.Ne(program.Id("x"), program.Null()), Message: program.Str("x")},
		run(),
	))
	require.Equal(t, "x != null", program.ExprString(g.Entry.Cond))
	next, fail := g.Entry.Succs[0], g.Entry.Succs[1]
	require.Equal(t, KindBody, next.Kind)
	require.Equal(t, KindFailure, fail.Kind)
	require.Empty(t, fail.Succs)
	require.Len(t, fail.Nodes, 1)
}

func TestNoReturnCall(t *testing.T) {
	t.Parallel()

	exit := program.Invoke(nil, program.StaticRef("java.lang.System", "exit", "int"), program.Int("1"))
	g := Build(program.Body(
		program.IfElse(program.Eq(program.Id("x"), program.Null()), program.Body(program.Do(exit), run()), nil),
		program.Ret(program.Id("x")),
	))
	then, done := g.Entry.Succs[0], g.Entry.Succs[1]
	require.Len(t, then.Nodes, 1)
	require.Empty(t, then.Succs)
	require.Equal(t, []*Block{g.Entry}, done.Preds)
}

func TestSplitBlockOnTrustedFuncs(t *testing.T) {
	t.Parallel()

	requireNonNull := program.StaticRef("java.util.Objects", "requireNonNull", "Object")
	g := Build(program.Body(
		program.Var("y", _object, program.Invoke(nil, requireNonNull, program.Id("x"))),
		program.Do(program.Invoke(program.Id("x"), program.MRef("java.lang.Object", "hashCode"))),
		program.Do(program.Invoke(nil, requireNonNull, program.Id("z"))),
	))

	require.Len(t, g.Entry.Nodes, 1)
	require.Equal(t, "x != null", program.ExprString(g.Entry.Cond))
	rest, failure := g.Entry.Succs[0], g.Entry.Succs[1]
	require.Equal(t, KindFailure, failure.Kind)
	require.Empty(t, failure.Succs)

	// The remaining nodes are split again on the second call.
	require.Len(t, rest.Nodes, 2)
	require.Equal(t, "z != null", program.ExprString(rest.Cond))
	require.Empty(t, rest.Succs[0].Nodes)
	require.Equal(t, []*Block{g.Exit}, rest.Succs[0].Succs)
}

func TestReplaceConditional(t *testing.T) {
	t.Parallel()

	isNull := program.Invoke(nil, program.StaticRef("java.util.Objects", "isNull", "Object"), program.Id("x"))
	nonNull := program.Invoke(nil, program.StaticRef("java.util.Objects", "nonNull", "Object"), program.Id("y"))
	cond := program.And(program.Not(isNull), nonNull)
	g := Build(program.Body(program.IfElse(cond, run(), nil)))

	require.Equal(t, "!x == null && y != null", program.ExprString(g.Entry.Cond))
	// The statement itself is left untouched.
	require.Same(t, isNull, cond.X.(*program.Unary).X)
}

func TestString(t *testing.T) {
	t.Parallel()

	g := Build(program.Body(program.Var("x", _object, program.Null()), program.Ret(program.Id("x"))))
	require.Equal(t, "0:entry [var x = null] [return x] -> 1\n1:exit", g.String())
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
