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
	"strings"
)

// ConnectionStringsSection is the section holding named connection strings.
const ConnectionStringsSection = "ConnectionStrings"

// Source is a read-only key/value configuration lookup.
type Source interface {
	Lookup(key string) (string, bool)
}

// ConnectionString returns the connection string registered under name,
// i.e. the value of "ConnectionStrings:<name>".
func ConnectionString(src Source, name string) (string, bool) {
	if src == nil {
		return "", false
	}
	return src.Lookup(ConnectionStringsSection + ":" + name)
}

// MapSource is an in-memory Source.
type MapSource map[string]string

// NewMapSource copies values into a MapSource with normalized keys.
func NewMapSource(values map[string]string) MapSource {
	m := make(MapSource, len(values))
	for k, v := range values {
		m.Set(k, v)
	}
	return m
}

// Set stores value under key.
func (m MapSource) Set(key, value string) MapSource {
	m[normalizeKey(key)] = value
	return m
}

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[normalizeKey(key)]
	return v, ok
}

type chain []Source

// Chain combines sources; a later source wins over an earlier one.
func Chain(sources ...Source) Source {
	return chain(sources)
}

func (c chain) Lookup(key string) (string, bool) {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i] == nil {
			continue
		}
		if v, ok := c[i].Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
