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

// Inspect traverses the tree rooted at n in source order, calling f for each node. If f returns
// false, the children of that node are skipped. Nil children are never passed to f.
func Inspect(n Node, f func(Node) bool) {
	if isNil(n) || !f(n) {
		return
	}
	for _, c := range children(n) {
		Inspect(c, f)
	}
}

// InspectUnit traverses every type declared in the unit, see Inspect.
func InspectUnit(u *Unit, f func(Node) bool) {
	for _, a := range u.PackageAnnotations {
		Inspect(a, f)
	}
	for _, t := range u.Types {
		Inspect(t, f)
	}
}

func isNil(n Node) bool {
	if n == nil {
		return true
	}
	switch n := n.(type) {
	case *Block:
		return n == nil
	case *Type:
		return n == nil
	case *TypeRef:
		return n == nil
	case *LocalVar:
		return n == nil
	}
	return false
}

func children(n Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if !isNil(c) {
				out = append(out, c)
			}
		}
	}
	addAnns := func(anns []*Annotation) {
		for _, a := range anns {
			add(a)
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			if e != nil {
				add(e)
			}
		}
	}
	addStmts := func(ss []Stmt) {
		for _, s := range ss {
			if s != nil {
				add(s)
			}
		}
	}
	addExpr := func(e Expr) {
		if e != nil {
			add(e)
		}
	}
	addStmt := func(s Stmt) {
		if s != nil {
			add(s)
		}
	}

	switch n := n.(type) {
	case *Type:
		addAnns(n.Annotations)
		for _, f := range n.Fields {
			add(f)
		}
		for _, i := range n.Initializers {
			add(i)
		}
		for _, m := range n.Methods {
			add(m)
		}
		for _, m := range n.Members {
			add(m)
		}
	case *Field:
		addAnns(n.Annotations)
		add(n.Type)
		addExpr(n.Init)
	case *Method:
		addAnns(n.Annotations)
		if n.Return != nil {
			add(n.Return)
		}
		for _, p := range n.Params {
			add(p)
		}
		if n.Body != nil {
			add(n.Body)
		}
	case *Param:
		addAnns(n.Annotations)
		add(n.Type)
	case *Initializer:
		if n.Body != nil {
			add(n.Body)
		}
	case *TypeRef:
		addAnns(n.Annotations)
		for _, a := range n.Args {
			add(a)
		}
		if n.Elem != nil {
			add(n.Elem)
		}

	case *Block:
		addStmts(n.Stmts)
	case *LocalVar:
		addAnns(n.Annotations)
		if n.Type != nil {
			add(n.Type)
		}
		addExpr(n.Init)
	case *ExprStmt:
		addExpr(n.X)
	case *If:
		addExpr(n.Cond)
		addStmt(n.Then)
		addStmt(n.Else)
	case *While:
		addExpr(n.Cond)
		addStmt(n.Body)
	case *DoWhile:
		addStmt(n.Body)
		addExpr(n.Cond)
	case *For:
		addStmts(n.Init)
		addExpr(n.Cond)
		addExprs(n.Update)
		addStmt(n.Body)
	case *ForEach:
		if n.Var != nil {
			add(n.Var)
		}
		addExpr(n.X)
		addStmt(n.Body)
	case *Return:
		addExpr(n.X)
	case *Throw:
		addExpr(n.X)
	case *Try:
		for _, r := range n.Resources {
			add(r)
		}
		if n.Body != nil {
			add(n.Body)
		}
		for _, c := range n.Catches {
			add(c)
		}
		if n.Finally != nil {
			add(n.Finally)
		}
	case *Catch:
		if n.Param != nil {
			add(n.Param)
		}
		if n.Body != nil {
			add(n.Body)
		}
	case *Switch:
		addExpr(n.X)
		for _, c := range n.Cases {
			add(c)
		}
	case *Case:
		addExprs(n.Values)
		addStmts(n.Body)
	case *Labeled:
		addStmt(n.Stmt)
	case *LocalClass:
		if n.Type != nil {
			add(n.Type)
		}
	case *Assert:
		addExpr(n.Cond)
		addExpr(n.Message)
	case *Synchronized:
		addExpr(n.Lock)
		if n.Body != nil {
			add(n.Body)
		}

	case *FieldAccess:
		addExpr(n.X)
	case *Call:
		addExpr(n.X)
		addExprs(n.Args)
	case *New:
		if n.Type != nil {
			add(n.Type)
		}
		addExprs(n.Args)
		if n.Body != nil {
			add(n.Body)
		}
	case *NewArray:
		addExprs(n.Dims)
		addExprs(n.Init)
	case *Binary:
		addExpr(n.X)
		addExpr(n.Y)
	case *Unary:
		addExpr(n.X)
	case *Assign:
		addExpr(n.LHS)
		addExpr(n.RHS)
	case *InstanceOf:
		addExpr(n.X)
	case *Conditional:
		addExpr(n.Cond)
		addExpr(n.Then)
		addExpr(n.Else)
	case *Cast:
		addExpr(n.X)
	case *Index:
		addExpr(n.X)
		addExpr(n.Index)
	case *Lambda:
		if n.Body != nil {
			add(n.Body)
		}
	}
	return out
}
