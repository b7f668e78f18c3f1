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

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/tools/txtar"
)

// Format is the serialization format of a unit file produced by a front end.
type Format uint8

const (
	// FormatJSON is a JSON document holding one unit or an array of units.
	FormatJSON Format = iota
	// FormatMsgpack is the msgpack encoding of the same document.
	FormatMsgpack
	// FormatTxtar is a txtar archive whose .json members are units. A member named after a
	// unit's file (e.g. "X.java") supplies that unit's source text.
	FormatTxtar
)

// FormatOf guesses the format from the file name. A trailing ".zst" is ignored.
func FormatOf(name string) (Format, error) {
	name = strings.TrimSuffix(name, ".zst")
	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, nil
	case ".txtar":
		return FormatTxtar, nil
	}
	return 0, fmt.Errorf("unknown unit file format %q", name)
}

// LoadFile reads the units stored in the file. Files ending in ".zst" are zstd-compressed.
func LoadFile(path string) ([]*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		if data, err = dec.DecodeAll(data, nil); err != nil {
			return nil, fmt.Errorf("decompress %s: %w", path, err)
		}
	}
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	units, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return units, nil
}

// Decode decodes the units stored in data.
func Decode(data []byte, format Format) ([]*Unit, error) {
	switch format {
	case FormatJSON:
		var wus []*wireUnit
		if err := unmarshalOneOrMany(data, json.Unmarshal, &wus); err != nil {
			return nil, err
		}
		return decodeUnits(wus)
	case FormatMsgpack:
		var wus []*wireUnit
		if err := unmarshalOneOrMany(data, msgpack.Unmarshal, &wus); err != nil {
			return nil, err
		}
		return decodeUnits(wus)
	case FormatTxtar:
		return decodeArchive(txtar.Parse(data))
	}
	return nil, fmt.Errorf("unsupported format %d", format)
}

func unmarshalOneOrMany(data []byte, unmarshal func([]byte, any) error, out *[]*wireUnit) error {
	if err := unmarshal(data, out); err == nil {
		return nil
	}
	var one wireUnit
	if err := unmarshal(data, &one); err != nil {
		return err
	}
	*out = []*wireUnit{&one}
	return nil
}

func decodeArchive(a *txtar.Archive) ([]*Unit, error) {
	sources := make(map[string]string)
	for _, f := range a.Files {
		if filepath.Ext(f.Name) != ".json" {
			sources[f.Name] = string(f.Data)
		}
	}
	var units []*Unit
	var errs []error
	for _, f := range a.Files {
		if filepath.Ext(f.Name) != ".json" {
			continue
		}
		us, err := Decode(f.Data, FormatJSON)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name, err))
			continue
		}
		for _, u := range us {
			if u.Source == "" {
				u.Source = sources[u.Filename]
			}
		}
		units = append(units, us...)
	}
	return units, errors.Join(errs...)
}

// ReadUnits decodes a JSON or msgpack stream of units from r.
func ReadUnits(r io.Reader, format Format) ([]*Unit, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return Decode(buf.Bytes(), format)
}

type wireUnit struct {
	File               string        `json:"file" msgpack:"file"`
	Source             string        `json:"source,omitempty" msgpack:"source,omitempty"`
	Package            string        `json:"package,omitempty" msgpack:"package,omitempty"`
	PackageAnnotations []*Annotation `json:"packageAnnotations,omitempty" msgpack:"packageAnnotations,omitempty"`
	PackageSpan        Span          `json:"packageSpan" msgpack:"packageSpan"`
	Types              []*wireType   `json:"types,omitempty" msgpack:"types,omitempty"`
}

type wireType struct {
	Name         string        `json:"name" msgpack:"name"`
	Kind         string        `json:"kind,omitempty" msgpack:"kind,omitempty"`
	Annotations  []*Annotation `json:"annotations,omitempty" msgpack:"annotations,omitempty"`
	TypeParams   []string      `json:"typeParams,omitempty" msgpack:"typeParams,omitempty"`
	Super        string        `json:"super,omitempty" msgpack:"super,omitempty"`
	Interfaces   []string      `json:"interfaces,omitempty" msgpack:"interfaces,omitempty"`
	Abstract     bool          `json:"abstract,omitempty" msgpack:"abstract,omitempty"`
	Fields       []*wireField  `json:"fields,omitempty" msgpack:"fields,omitempty"`
	Methods      []*wireMethod `json:"methods,omitempty" msgpack:"methods,omitempty"`
	Initializers []*wireInit   `json:"initializers,omitempty" msgpack:"initializers,omitempty"`
	Members      []*wireType   `json:"members,omitempty" msgpack:"members,omitempty"`
	Span         Span          `json:"span" msgpack:"span"`
}

type wireField struct {
	Name        string        `json:"name" msgpack:"name"`
	Type        *TypeRef      `json:"type" msgpack:"type"`
	Static      bool          `json:"static,omitempty" msgpack:"static,omitempty"`
	Final       bool          `json:"final,omitempty" msgpack:"final,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty" msgpack:"annotations,omitempty"`
	Init        *wireNode     `json:"init,omitempty" msgpack:"init,omitempty"`
	Span        Span          `json:"span" msgpack:"span"`
}

type wireMethod struct {
	Name        string        `json:"name" msgpack:"name"`
	Params      []*Param      `json:"params,omitempty" msgpack:"params,omitempty"`
	Return      *TypeRef      `json:"return,omitempty" msgpack:"return,omitempty"`
	Constructor bool          `json:"constructor,omitempty" msgpack:"constructor,omitempty"`
	Static      bool          `json:"static,omitempty" msgpack:"static,omitempty"`
	Abstract    bool          `json:"abstract,omitempty" msgpack:"abstract,omitempty"`
	Private     bool          `json:"private,omitempty" msgpack:"private,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty" msgpack:"annotations,omitempty"`
	Body        *wireNode     `json:"body,omitempty" msgpack:"body,omitempty"`
	Span        Span          `json:"span" msgpack:"span"`
}

type wireInit struct {
	Static bool      `json:"static,omitempty" msgpack:"static,omitempty"`
	Body   *wireNode `json:"body" msgpack:"body"`
	Span   Span      `json:"span" msgpack:"span"`
}

// wireNode is the serialized form of every statement and expression, discriminated by Kind.
type wireNode struct {
	Kind        string        `json:"kind" msgpack:"kind"`
	Span        Span          `json:"span" msgpack:"span"`
	Name        string        `json:"name,omitempty" msgpack:"name,omitempty"`
	Label       string        `json:"label,omitempty" msgpack:"label,omitempty"`
	Value       string        `json:"value,omitempty" msgpack:"value,omitempty"`
	Literal     string        `json:"literal,omitempty" msgpack:"literal,omitempty"`
	Op          string        `json:"op,omitempty" msgpack:"op,omitempty"`
	Qualifier   string        `json:"qualifier,omitempty" msgpack:"qualifier,omitempty"`
	Binding     string        `json:"binding,omitempty" msgpack:"binding,omitempty"`
	Default     bool          `json:"default,omitempty" msgpack:"default,omitempty"`
	Type        *TypeRef      `json:"type,omitempty" msgpack:"type,omitempty"`
	Annotations []*Annotation `json:"annotations,omitempty" msgpack:"annotations,omitempty"`
	Field       *FieldRef     `json:"field,omitempty" msgpack:"field,omitempty"`
	Method      *MethodRef    `json:"method,omitempty" msgpack:"method,omitempty"`
	Params      []*Param      `json:"params,omitempty" msgpack:"params,omitempty"`
	Class       *wireType     `json:"class,omitempty" msgpack:"class,omitempty"`
	X           *wireNode     `json:"x,omitempty" msgpack:"x,omitempty"`
	Y           *wireNode     `json:"y,omitempty" msgpack:"y,omitempty"`
	Cond        *wireNode     `json:"cond,omitempty" msgpack:"cond,omitempty"`
	Then        *wireNode     `json:"then,omitempty" msgpack:"then,omitempty"`
	Else        *wireNode     `json:"else,omitempty" msgpack:"else,omitempty"`
	Init        *wireNode     `json:"init,omitempty" msgpack:"init,omitempty"`
	Body        *wireNode     `json:"body,omitempty" msgpack:"body,omitempty"`
	Var         *wireNode     `json:"var,omitempty" msgpack:"var,omitempty"`
	Finally     *wireNode     `json:"finally,omitempty" msgpack:"finally,omitempty"`
	Args        []*wireNode   `json:"args,omitempty" msgpack:"args,omitempty"`
	Stmts       []*wireNode   `json:"stmts,omitempty" msgpack:"stmts,omitempty"`
	Inits       []*wireNode   `json:"inits,omitempty" msgpack:"inits,omitempty"`
	Update      []*wireNode   `json:"update,omitempty" msgpack:"update,omitempty"`
	Resources   []*wireNode   `json:"resources,omitempty" msgpack:"resources,omitempty"`
	Catches     []*wireNode   `json:"catches,omitempty" msgpack:"catches,omitempty"`
	Cases       []*wireNode   `json:"cases,omitempty" msgpack:"cases,omitempty"`
}

var _typeDeclKinds = map[string]TypeDeclKind{
	"":           ClassKind,
	"class":      ClassKind,
	"interface":  InterfaceKind,
	"enum":       EnumKind,
	"annotation": AnnotationKind,
}

var _literalKinds = map[string]LiteralKind{
	"":       StringLit,
	"string": StringLit,
	"int":    IntLit,
	"float":  FloatLit,
	"bool":   BoolLit,
	"char":   CharLit,
	"class":  ClassLit,
}

// decoder accumulates errors so that one malformed node does not hide others.
type decoder struct {
	errs []error
}

func (d *decoder) errorf(s Span, format string, args ...any) {
	d.errs = append(d.errs, fmt.Errorf("%s: %s", s, fmt.Sprintf(format, args...)))
}

func decodeUnits(wus []*wireUnit) ([]*Unit, error) {
	d := &decoder{}
	units := make([]*Unit, 0, len(wus))
	for _, wu := range wus {
		if wu == nil {
			continue
		}
		u := &Unit{
			Filename:           wu.File,
			Source:             wu.Source,
			Package:            wu.Package,
			PackageAnnotations: wu.PackageAnnotations,
			PackageSpan:        wu.PackageSpan,
		}
		for _, wt := range wu.Types {
			u.Types = append(u.Types, d.typeDecl(wt))
		}
		units = append(units, u)
	}
	return units, errors.Join(d.errs...)
}

func (d *decoder) typeDecl(wt *wireType) *Type {
	if wt == nil {
		return nil
	}
	kind, ok := _typeDeclKinds[wt.Kind]
	if !ok {
		d.errorf(wt.Span, "unknown type declaration kind %q", wt.Kind)
	}
	t := &Type{
		Name:        wt.Name,
		Kind:        kind,
		Annotations: wt.Annotations,
		TypeParams:  wt.TypeParams,
		Super:       wt.Super,
		Interfaces:  wt.Interfaces,
		Abstract:    wt.Abstract,
		Span:        wt.Span,
	}
	for _, wf := range wt.Fields {
		t.Fields = append(t.Fields, &Field{
			Name:        wf.Name,
			Type:        wf.Type,
			Static:      wf.Static,
			Final:       wf.Final,
			Annotations: wf.Annotations,
			Init:        d.expr(wf.Init),
			Span:        wf.Span,
		})
	}
	for _, wm := range wt.Methods {
		t.Methods = append(t.Methods, &Method{
			Name:        wm.Name,
			Params:      wm.Params,
			Return:      wm.Return,
			Constructor: wm.Constructor,
			Static:      wm.Static,
			Abstract:    wm.Abstract,
			Private:     wm.Private,
			Annotations: wm.Annotations,
			Body:        d.block(wm.Body),
			Span:        wm.Span,
		})
	}
	for _, wi := range wt.Initializers {
		t.Initializers = append(t.Initializers, &Initializer{Static: wi.Static, Body: d.block(wi.Body), Span: wi.Span})
	}
	for _, wm := range wt.Members {
		t.Members = append(t.Members, d.typeDecl(wm))
	}
	return t
}

func (d *decoder) block(n *wireNode) *Block {
	if n == nil {
		return nil
	}
	if n.Kind != "block" {
		d.errorf(n.Span, "expected block, got %q", n.Kind)
		return nil
	}
	return &Block{Stmts: d.stmts(n.Stmts), Span: n.Span}
}

func (d *decoder) stmts(ns []*wireNode) []Stmt {
	out := make([]Stmt, 0, len(ns))
	for _, n := range ns {
		if s := d.stmt(n); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) exprs(ns []*wireNode) []Expr {
	out := make([]Expr, 0, len(ns))
	for _, n := range ns {
		if e := d.expr(n); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (d *decoder) localVar(n *wireNode) *LocalVar {
	if n == nil {
		return nil
	}
	return &LocalVar{Name: n.Name, Type: n.Type, Annotations: n.Annotations, Init: d.expr(n.Init), Span: n.Span}
}

func (d *decoder) op(n *wireNode) Op {
	op, ok := ParseOp(n.Op)
	if !ok {
		d.errorf(n.Span, "unknown operator %q", n.Op)
	}
	return op
}

func (d *decoder) stmt(n *wireNode) Stmt {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case "block":
		return d.block(n)
	case "local":
		return d.localVar(n)
	case "expr":
		return &ExprStmt{X: d.expr(n.X), Span: n.Span}
	case "if":
		return &If{Cond: d.expr(n.Cond), Then: d.stmt(n.Then), Else: d.stmt(n.Else), Span: n.Span}
	case "while":
		return &While{Cond: d.expr(n.Cond), Body: d.stmt(n.Body), Span: n.Span}
	case "do":
		return &DoWhile{Body: d.stmt(n.Body), Cond: d.expr(n.Cond), Span: n.Span}
	case "for":
		return &For{Init: d.stmts(n.Inits), Cond: d.expr(n.Cond), Update: d.exprs(n.Update), Body: d.stmt(n.Body), Span: n.Span}
	case "foreach":
		return &ForEach{Var: d.localVar(n.Var), X: d.expr(n.X), Body: d.stmt(n.Body), Span: n.Span}
	case "return":
		return &Return{X: d.expr(n.X), Span: n.Span}
	case "throw":
		return &Throw{X: d.expr(n.X), Span: n.Span}
	case "try":
		t := &Try{Body: d.block(n.Body), Finally: d.block(n.Finally), Span: n.Span}
		for _, r := range n.Resources {
			t.Resources = append(t.Resources, d.localVar(r))
		}
		for _, c := range n.Catches {
			t.Catches = append(t.Catches, &Catch{Param: d.localVar(c.Var), Body: d.block(c.Body), Span: c.Span})
		}
		return t
	case "switch":
		s := &Switch{X: d.expr(n.X), Span: n.Span}
		for _, c := range n.Cases {
			s.Cases = append(s.Cases, &Case{Values: d.exprs(c.Args), Default: c.Default, Body: d.stmts(c.Stmts), Span: c.Span})
		}
		return s
	case "break":
		return &Break{Label: n.Label, Span: n.Span}
	case "continue":
		return &Continue{Label: n.Label, Span: n.Span}
	case "labeled":
		return &Labeled{Label: n.Label, Stmt: d.stmt(n.Body), Span: n.Span}
	case "empty":
		return &Empty{Span: n.Span}
	case "class":
		return &LocalClass{Type: d.typeDecl(n.Class), Span: n.Span}
	case "assert":
		return &Assert{Cond: d.expr(n.Cond), Message: d.expr(n.X), Span: n.Span}
	case "synchronized":
		return &Synchronized{Lock: d.expr(n.X), Body: d.block(n.Body), Span: n.Span}
	}
	d.errorf(n.Span, "unknown statement kind %q", n.Kind)
	return nil
}

func (d *decoder) expr(n *wireNode) Expr {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case "null":
		return &NullLit{Span: n.Span}
	case "literal":
		kind, ok := _literalKinds[n.Literal]
		if !ok {
			d.errorf(n.Span, "unknown literal kind %q", n.Literal)
		}
		return &Literal{Kind: kind, Value: n.Value, Span: n.Span}
	case "ident":
		return &Ident{Name: n.Name, Field: n.Field, Span: n.Span}
	case "this":
		return &This{Qualifier: n.Qualifier, Span: n.Span}
	case "select":
		return &FieldAccess{X: d.expr(n.X), Name: n.Name, Field: n.Field, Span: n.Span}
	case "call":
		return &Call{X: d.expr(n.X), Name: n.Name, Args: d.exprs(n.Args), Method: n.Method, Span: n.Span}
	case "new":
		return &New{Type: n.Type, Args: d.exprs(n.Args), Ctor: n.Method, Body: d.typeDecl(n.Class), Span: n.Span}
	case "newarray":
		return &NewArray{Elem: n.Type, Dims: d.exprs(n.Args), Init: d.exprs(n.Inits), Span: n.Span}
	case "binary":
		return &Binary{Op: d.op(n), X: d.expr(n.X), Y: d.expr(n.Y), Span: n.Span}
	case "unary":
		return &Unary{Op: d.op(n), X: d.expr(n.X), Span: n.Span}
	case "assign":
		op := OpAssign
		if n.Op != "" {
			op = d.op(n)
		}
		return &Assign{Op: op, LHS: d.expr(n.X), RHS: d.expr(n.Y), Span: n.Span}
	case "instanceof":
		return &InstanceOf{X: d.expr(n.X), Type: n.Type, Binding: n.Binding, Span: n.Span}
	case "conditional":
		return &Conditional{Cond: d.expr(n.Cond), Then: d.expr(n.Then), Else: d.expr(n.Else), Span: n.Span}
	case "cast":
		return &Cast{Type: n.Type, X: d.expr(n.X), Span: n.Span}
	case "index":
		return &Index{X: d.expr(n.X), Index: d.expr(n.Y), Span: n.Span}
	case "lambda":
		l := &Lambda{Params: n.Params, Span: n.Span}
		if n.Body != nil {
			if n.Body.Kind == "block" {
				l.Body = d.block(n.Body)
			} else {
				l.Body = d.expr(n.Body)
			}
		}
		return l
	}
	d.errorf(n.Span, "unknown expression kind %q", n.Kind)
	return nil
}
