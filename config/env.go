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
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// EnvSource resolves keys from environment variables, falling back to
// values read from .env files. "ConnectionStrings:LiteDatabase" is looked up
// as CONNECTIONSTRINGS__LITEDATABASE (with the optional prefix prepended).
type EnvSource struct {
	prefix string
	values map[string]string
}

// NewEnvSource reads the given .env files (".env" when none are given).
// Files that do not exist are skipped; the process environment is not
// modified.
func NewEnvSource(files ...string) (*EnvSource, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	values := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		for k, v := range m {
			values[strings.ToUpper(k)] = v
		}
	}
	return &EnvSource{values: values}, nil
}

// WithPrefix returns a copy of s that prepends prefix to every variable name.
func (s *EnvSource) WithPrefix(prefix string) *EnvSource {
	return &EnvSource{prefix: strings.ToUpper(prefix), values: s.values}
}

func (s *EnvSource) Lookup(key string) (string, bool) {
	name := s.prefix + EnvName(key)
	if v, ok := os.LookupEnv(name); ok {
		return v, true
	}
	v, ok := s.values[name]
	return v, ok
}

// EnvName converts a configuration key to its environment variable name.
func EnvName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(key), ":", "__"))
}
