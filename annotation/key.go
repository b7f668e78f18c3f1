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
)

// A Key names a contract location (field, parameter or return) of a binding in a Map.
type Key interface {
	// Lookup returns the contract at this location. Bindings the map knows nothing about
	// (library code without imported facts) yield UnspecifiedVal and false.
	Lookup(Map) (Val, bool)

	// Binding returns the binding key of the method or field this key belongs to.
	Binding() string

	// String describes the location for messages.
	String() string

	equals(Key) bool
}

// FieldAnnotationKey allows the Lookup of a field's contract in the Map.
type FieldAnnotationKey struct {
	Field *program.FieldRef
}

// Lookup implements Key.
func (k *FieldAnnotationKey) Lookup(annMap Map) (Val, bool) {
	if val, ok := annMap.CheckFieldAnn(k.Field); ok {
		return val, true
	}
	return UnspecifiedVal, false
}

// Binding implements Key.
func (k *FieldAnnotationKey) Binding() string {
	return k.Field.Key()
}

func (k *FieldAnnotationKey) equals(other Key) bool {
	if other, ok := other.(*FieldAnnotationKey); ok {
		return *k.Field == *other.Field
	}
	return false
}

func (k *FieldAnnotationKey) String() string {
	return fmt.Sprintf("field %s", k.Field.Name)
}

// ParamAnnotationKey allows the Lookup of a parameter's contract in the Map.
type ParamAnnotationKey struct {
	Method   *program.MethodRef
	ParamNum int
}

// Lookup implements Key.
func (pk *ParamAnnotationKey) Lookup(annMap Map) (Val, bool) {
	if val, ok := annMap.CheckMethodParamAnn(pk.Method, pk.ParamNum); ok {
		return val, true
	}
	return UnspecifiedVal, false
}

// Binding implements Key.
func (pk *ParamAnnotationKey) Binding() string {
	return pk.Method.Key()
}

func (pk *ParamAnnotationKey) equals(other Key) bool {
	if other, ok := other.(*ParamAnnotationKey); ok {
		return pk.Method.Key() == other.Method.Key() && pk.ParamNum == other.ParamNum
	}
	return false
}

func (pk *ParamAnnotationKey) String() string {
	return fmt.Sprintf("parameter %d of %s", pk.ParamNum, pk.Method.Descriptor())
}

// RetAnnotationKey allows the Lookup of a method's return contract in the Map.
type RetAnnotationKey struct {
	Method *program.MethodRef
}

// Lookup implements Key.
func (rk *RetAnnotationKey) Lookup(annMap Map) (Val, bool) {
	if val, ok := annMap.CheckMethodRetAnn(rk.Method); ok {
		return val, true
	}
	return UnspecifiedVal, false
}

// Binding implements Key.
func (rk *RetAnnotationKey) Binding() string {
	return rk.Method.Key()
}

func (rk *RetAnnotationKey) equals(other Key) bool {
	if other, ok := other.(*RetAnnotationKey); ok {
		return rk.Method.Key() == other.Method.Key()
	}
	return false
}

func (rk *RetAnnotationKey) String() string {
	return fmt.Sprintf("result of %s", rk.Method.Descriptor())
}

// Equal returns true if both keys denote the same location.
func Equal(a, b Key) bool {
	return a.equals(b)
}
