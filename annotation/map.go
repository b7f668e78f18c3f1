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

package annotation

import (
	"fmt"

	"go.uber.org/nullaway/program"
	"go.uber.org/nullaway/util/orderedmap"
)

// Map is an abstraction that concrete contract stores must implement to be checked against.
type Map interface {
	CheckFieldAnn(*program.FieldRef) (Val, bool)
	CheckMethodParamAnn(*program.MethodRef, int) (Val, bool)
	CheckMethodRetAnn(*program.MethodRef) (Val, bool)
}

// MethodContract is the declared nullness of a method or constructor: one Val per parameter and
// the return Val (Unspecified for constructors and void methods).
type MethodContract struct {
	// Declaring is the qualified name of the declaring type.
	Declaring string
	// Signature renders the method for messages, e.g., "foo(Object)".
	Signature  string
	ParamNames []string
	Params     []Val
	Return     Val
	// Static is true for static methods and constructors, which do not take part in overriding.
	Static bool
}

// Param returns the contract of parameter i, Unspecified if out of range (e.g., varargs).
func (c *MethodContract) Param(i int) Val {
	if i < 0 || i >= len(c.Params) {
		return UnspecifiedVal
	}
	return c.Params[i]
}

// Store is the Binding Contract Store: the contracts of every method, constructor and field of
// the program, plus the contracts imported from already-analyzed libraries. It is populated in
// the collection phase and read-only afterward, so it can be shared by concurrent unit analyses.
type Store struct {
	methods *orderedmap.OrderedMap[string, *MethodContract]
	fields  *orderedmap.OrderedMap[string, Val]
	frozen  bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		methods: orderedmap.New[string, *MethodContract](),
		fields:  orderedmap.New[string, Val](),
	}
}

// SetMethod records the contract of the method with the given binding key.
func (s *Store) SetMethod(key string, c *MethodContract) {
	s.mustBeMutable()
	s.methods.Store(key, c)
}

// SetField records the contract of the field with the given binding key.
func (s *Store) SetField(key string, v Val) {
	s.mustBeMutable()
	s.fields.Store(key, v)
}

// Freeze makes the store read-only.
func (s *Store) Freeze() {
	s.frozen = true
}

func (s *Store) mustBeMutable() {
	if s.frozen {
		panic("annotation: contract store modified after collection")
	}
}

// Method returns the contract recorded for the binding key.
func (s *Store) Method(key string) (*MethodContract, bool) {
	return s.methods.Load(key)
}

// Field returns the contract recorded for the binding key.
func (s *Store) Field(key string) (Val, bool) {
	return s.fields.Load(key)
}

// Len returns the number of bindings in the store.
func (s *Store) Len() int {
	return s.methods.Len() + s.fields.Len()
}

// CheckFieldAnn implements Map.
func (s *Store) CheckFieldAnn(ref *program.FieldRef) (Val, bool) {
	return s.fields.Load(ref.Key())
}

// CheckMethodParamAnn implements Map.
func (s *Store) CheckMethodParamAnn(ref *program.MethodRef, i int) (Val, bool) {
	c, ok := s.methods.Load(ref.Key())
	if !ok || i < 0 || i >= len(c.Params) {
		return UnspecifiedVal, false
	}
	return c.Params[i], true
}

// CheckMethodRetAnn implements Map.
func (s *Store) CheckMethodRetAnn(ref *program.MethodRef) (Val, bool) {
	c, ok := s.methods.Load(ref.Key())
	if !ok {
		return UnspecifiedVal, false
	}
	return c.Return, true
}

func (s *Store) String() string {
	return fmt.Sprintf("contracts(%d methods, %d fields)", s.methods.Len(), s.fields.Len())
}
