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
	"strconv"

	"go.uber.org/nullaway/program"
)

// locals resolves the uses of local variables and parameters in a body to their declarations, and
// gives every declaration its own tracking key. Two locals of the same name declared in disjoint
// scopes get distinct keys: the first keeps the bare name, later ones are numbered ("s:2").
type locals struct {
	// uses maps a use to its declaration: a *program.Param, a *program.LocalVar, or the
	// *program.InstanceOf declaring a pattern binding.
	uses map[*program.Ident]program.Node
	keys map[program.Node]string
	// last is the key of the latest declaration of each name, for uses the walk did not see.
	last   map[string]string
	counts map[string]int

	scopes []map[string]program.Node
}

func newLocals() *locals {
	return &locals{
		uses:   make(map[*program.Ident]program.Node),
		keys:   make(map[program.Node]string),
		last:   make(map[string]string),
		counts: make(map[string]int),
	}
}

// resolveLocals walks a body with its parameters in scope.
func resolveLocals(params []*program.Param, body *program.Block) *locals {
	l := newLocals()
	l.push()
	for _, p := range params {
		l.declare(p, p.Name)
	}
	if body != nil {
		l.stmt(body)
	}
	l.pop()
	return l
}

// key returns the tracking key of a declaration.
func (l *locals) key(decl program.Node, name string) string {
	if k, ok := l.keys[decl]; ok {
		return k
	}
	return name
}

// use returns the tracking key of the local denoted by id.
func (l *locals) use(id *program.Ident) string {
	if d, ok := l.uses[id]; ok {
		return l.keys[d]
	}
	if k, ok := l.last[id.Name]; ok {
		return k
	}
	return id.Name
}

func (l *locals) push() { l.scopes = append(l.scopes, make(map[string]program.Node)) }
func (l *locals) pop()  { l.scopes = l.scopes[:len(l.scopes)-1] }

func (l *locals) declare(decl program.Node, name string) {
	if _, ok := l.keys[decl]; !ok {
		l.counts[name]++
		k := name
		if n := l.counts[name]; n > 1 {
			k += ":" + strconv.Itoa(n)
		}
		l.keys[decl] = k
		l.last[name] = k
	}
	l.scopes[len(l.scopes)-1][name] = decl
}

func (l *locals) lookup(name string) (program.Node, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if d, ok := l.scopes[i][name]; ok {
			return d, true
		}
	}
	return nil, false
}

func (l *locals) localVar(v *program.LocalVar) {
	if v == nil {
		return
	}
	l.expr(v.Init)
	l.declare(v, v.Name)
}

func (l *locals) stmts(ss []program.Stmt) {
	for _, s := range ss {
		l.stmt(s)
	}
}

// nested resolves s in a scope of its own.
func (l *locals) nested(s program.Stmt) {
	if s == nil {
		return
	}
	l.push()
	l.stmt(s)
	l.pop()
}

func (l *locals) stmt(s program.Stmt) {
	switch s := s.(type) {
	case *program.Block:
		if s == nil {
			return
		}
		l.push()
		l.stmts(s.Stmts)
		l.pop()
	case *program.LocalVar:
		l.localVar(s)
	case *program.ExprStmt:
		l.expr(s.X)
	case *program.If:
		// Pattern bindings of the condition stay in scope after the statement.
		l.expr(s.Cond)
		l.nested(s.Then)
		l.nested(s.Else)
	case *program.While:
		l.push()
		l.expr(s.Cond)
		l.nested(s.Body)
		l.pop()
	case *program.DoWhile:
		l.push()
		l.nested(s.Body)
		l.expr(s.Cond)
		l.pop()
	case *program.For:
		l.push()
		l.stmts(s.Init)
		l.expr(s.Cond)
		l.nested(s.Body)
		for _, u := range s.Update {
			l.expr(u)
		}
		l.pop()
	case *program.ForEach:
		l.expr(s.X)
		l.push()
		if s.Var != nil {
			l.declare(s.Var, s.Var.Name)
		}
		l.nested(s.Body)
		l.pop()
	case *program.Return:
		l.expr(s.X)
	case *program.Throw:
		l.expr(s.X)
	case *program.Try:
		l.push()
		for _, r := range s.Resources {
			l.localVar(r)
		}
		l.stmt(s.Body)
		l.pop()
		for _, c := range s.Catches {
			l.push()
			if c.Param != nil {
				l.declare(c.Param, c.Param.Name)
			}
			l.stmt(c.Body)
			l.pop()
		}
		l.stmt(s.Finally)
	case *program.Switch:
		l.expr(s.X)
		// The case groups of a switch share one scope.
		l.push()
		for _, c := range s.Cases {
			for _, v := range c.Values {
				l.expr(v)
			}
			l.stmts(c.Body)
		}
		l.pop()
	case *program.Labeled:
		l.stmt(s.Stmt)
	case *program.Assert:
		l.expr(s.Cond)
		l.expr(s.Message)
	case *program.Synchronized:
		l.expr(s.Lock)
		l.stmt(s.Body)
	}
}

func (l *locals) expr(e program.Expr) {
	if e == nil {
		return
	}
	program.Inspect(e, func(n program.Node) bool {
		switch n := n.(type) {
		case *program.Lambda, *program.Type:
			// Not analyzed as part of the body.
			return false
		case *program.InstanceOf:
			l.expr(n.X)
			if n.Binding != "" {
				l.declare(n, n.Binding)
			}
			return false
		case *program.Ident:
			if n.Field == nil {
				if d, ok := l.lookup(n.Name); ok {
					l.uses[n] = d
				}
			}
		}
		return true
	})
}
