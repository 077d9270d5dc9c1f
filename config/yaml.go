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

package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a YAML document from path and flattens it into a Source.
func LoadYAML(path string) (MapSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML flattens a YAML document: nested mappings become ':' separated
// keys and sequence items are addressed by index.
//
//	ConnectionStrings:
//	  LiteDatabase: ":memory:"
//
// yields the key "ConnectionStrings:LiteDatabase".
func ParseYAML(data []byte) (MapSource, error) {
	var root map[string]interface{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	out := MapSource{}
	flatten(out, "", root)
	return out, nil
}

func flatten(out MapSource, prefix string, v interface{}) {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, child := range val {
			flatten(out, join(prefix, k), child)
		}
	case []interface{}:
		for i, child := range val {
			flatten(out, join(prefix, strconv.Itoa(i)), child)
		}
	case nil:
		if prefix != "" {
			out.Set(prefix, "")
		}
	default:
		if prefix != "" {
			out.Set(prefix, fmt.Sprint(val))
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}
