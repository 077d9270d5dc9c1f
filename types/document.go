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

package types

import (
	"database/sql/driver"
	"errors"

	"github.com/vmihailenco/msgpack/v5"
)

// Document is a schemaless record stored in a single msgpack encoded column.
type Document map[string]interface{}

// Value implements driver.Valuer for Document.
func (d Document) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return msgpack.Marshal(map[string]interface{}(d))
}

// Scan implements sql.Scanner for Document.
func (d *Document) Scan(value interface{}) error {
	if value == nil {
		*d = make(Document)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion must be []byte")
	}
	m := make(map[string]interface{})
	if err := msgpack.Unmarshal(bytes, &m); err != nil {
		return err
	}
	*d = m
	return nil
}

// Get returns the value stored under key.
func (d Document) Get(key string) (interface{}, bool) {
	v, ok := d[key]
	return v, ok
}
