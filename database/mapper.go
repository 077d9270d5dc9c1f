/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tomoncle/litedb/types"
)

// Mapper controls how values are converted to and from documents stored in
// the database.
type Mapper struct {
	// EmptyStringToNull stores "" as null.
	EmptyStringToNull bool `json:"empty_string_to_null" yaml:"empty_string_to_null"`
	// TrimWhitespace trims leading and trailing spaces from strings.
	TrimWhitespace bool `json:"trim_whitespace" yaml:"trim_whitespace"`
	// SerializeNullValues keeps null fields in the document instead of dropping them.
	SerializeNullValues bool `json:"serialize_null_values" yaml:"serialize_null_values"`
}

var (
	globalMapper     *Mapper
	globalMapperOnce sync.Once
)

// NewMapper returns a mapper with the default rules.
func NewMapper() *Mapper {
	return &Mapper{
		EmptyStringToNull:   true,
		TrimWhitespace:      true,
		SerializeNullValues: false,
	}
}

// GlobalMapper returns the process wide default mapper.
func GlobalMapper() *Mapper {
	globalMapperOnce.Do(func() { globalMapper = NewMapper() })
	return globalMapper
}

// Clone returns an independent copy of m.
func (m *Mapper) Clone() *Mapper {
	if m == nil {
		return NewMapper()
	}
	c := *m
	return &c
}

// ToDocument converts a struct or map into a document, applying the string
// and null rules of the mapper. Field names follow the json tags of v.
func (m *Mapper) ToDocument(v any) (types.Document, error) {
	if v == nil {
		return nil, fmt.Errorf("mapper: cannot convert nil to document")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mapper: failed to serialize %T: %w", v, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("mapper: %T is not a document: %w", v, err)
	}
	return types.Document(m.normalizeMap(doc)), nil
}

// FromDocument populates v (a pointer) from doc.
func (m *Mapper) FromDocument(doc types.Document, v any) error {
	raw, err := json.Marshal(map[string]any(doc))
	if err != nil {
		return fmt.Errorf("mapper: failed to serialize document: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("mapper: failed to populate %T: %w", v, err)
	}
	return nil
}

func (m *Mapper) normalizeMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		nv := m.normalize(v)
		if nv == nil && !m.SerializeNullValues {
			continue
		}
		out[k] = nv
	}
	return out
}

func (m *Mapper) normalize(v any) any {
	switch val := v.(type) {
	case string:
		if m.TrimWhitespace {
			val = strings.TrimSpace(val)
		}
		if val == "" && m.EmptyStringToNull {
			return nil
		}
		return val
	case map[string]any:
		return m.normalizeMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = m.normalize(item)
		}
		return out
	default:
		return val
	}
}
