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
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"go.uber.org/nullaway/util/orderedmap"
)

// storeFacts is the gob representation of a Store.
type storeFacts struct {
	Methods *orderedmap.OrderedMap[string, *MethodContract]
	Fields  *orderedmap.OrderedMap[string, Val]
}

// GobEncode encodes the store as s2-compressed gob.
func (s *Store) GobEncode() (b []byte, err error) {
	var buf bytes.Buffer
	writer := s2.NewWriter(&buf)
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	if err := gob.NewEncoder(writer).Encode(storeFacts{Methods: s.methods, Fields: s.fields}); err != nil {
		return nil, err
	}

	// Close the s2 writer before getting the bytes such that we have complete information.
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode decodes a store produced by GobEncode. The decoded store is frozen.
func (s *Store) GobDecode(input []byte) error {
	facts := storeFacts{
		Methods: orderedmap.New[string, *MethodContract](),
		Fields:  orderedmap.New[string, Val](),
	}
	if err := gob.NewDecoder(s2.NewReader(bytes.NewBuffer(input))).Decode(&facts); err != nil {
		return err
	}
	s.methods, s.fields, s.frozen = facts.Methods, facts.Fields, true
	return nil
}

// WriteFacts writes the contracts of the store so that a later run can treat the analyzed code
// as a library.
func WriteFacts(w io.Writer, s *Store) error {
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encode contract facts: %w", err)
	}
	return nil
}

// ReadFacts reads contracts written by WriteFacts.
func ReadFacts(r io.Reader) (*Store, error) {
	s := NewStore()
	if err := gob.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("decode contract facts: %w", err)
	}
	return s, nil
}

// Import adds the contracts of upstream for the bindings s does not declare itself. It returns
// the number of imported contracts.
func (s *Store) Import(upstream *Store) int {
	s.mustBeMutable()
	n := 0
	upstream.methods.OrderedRange(func(key string, c *MethodContract) bool {
		if _, ok := s.methods.Load(key); !ok {
			s.methods.Store(key, c)
			n++
		}
		return true
	})
	upstream.fields.OrderedRange(func(key string, v Val) bool {
		if _, ok := s.fields.Load(key); !ok {
			s.fields.Store(key, v)
			n++
		}
		return true
	})
	return n
}
