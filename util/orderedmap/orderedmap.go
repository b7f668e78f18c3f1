// Package orderedmap implements a generic map that remembers insertion order, so that iteration
// and gob encoding are deterministic.
package orderedmap

import (
	"bytes"
	"encoding/gob"
	"errors"
	"io"
)

// Pair is a key-value pair stored in an OrderedMap.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// OrderedMap is a map that keeps its pairs in insertion order. Pairs is exposed for cheap
// ordered iteration and must not be modified directly.
type OrderedMap[K comparable, V any] struct {
	index map[K]int
	Pairs []*Pair[K, V]
}

// New returns an empty OrderedMap.
func New[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{index: make(map[K]int)}
}

// Load returns the value stored for the key, and whether it was present.
func (m *OrderedMap[K, V]) Load(key K) (V, bool) {
	if i, ok := m.index[key]; ok {
		return m.Pairs[i].Value, true
	}
	var zero V
	return zero, false
}

// Value returns the value stored for the key or the zero value.
func (m *OrderedMap[K, V]) Value(key K) V {
	v, _ := m.Load(key)
	return v
}

// Store sets the value for the key. Storing an existing key keeps its original position.
func (m *OrderedMap[K, V]) Store(key K, value V) {
	if i, ok := m.index[key]; ok {
		m.Pairs[i].Value = value
		return
	}
	m.index[key] = len(m.Pairs)
	m.Pairs = append(m.Pairs, &Pair[K, V]{Key: key, Value: value})
}

// Len returns the number of pairs in the map.
func (m *OrderedMap[K, V]) Len() int {
	return len(m.Pairs)
}

// OrderedRange calls f for each pair in insertion order until f returns false.
func (m *OrderedMap[K, V]) OrderedRange(f func(key K, value V) bool) {
	for _, p := range m.Pairs {
		if !f(p.Key, p.Value) {
			return
		}
	}
}

// GobEncode encodes the pairs in insertion order.
func (m *OrderedMap[K, V]) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, p := range m.Pairs {
		// Pointers make gob keep the interface type information when V (or K) is an interface.
		if err := enc.Encode(&p.Key); err != nil {
			return nil, err
		}
		if err := enc.Encode(&p.Value); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// GobDecode decodes pairs produced by GobEncode, preserving their order.
func (m *OrderedMap[K, V]) GobDecode(b []byte) error {
	if m.index == nil {
		m.index = make(map[K]int)
	}
	dec := gob.NewDecoder(bytes.NewBuffer(b))
	for {
		var k K
		if err := dec.Decode(&k); errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
		var v V
		if err := dec.Decode(&v); err != nil {
			return err
		}
		m.Store(k, v)
	}
}
