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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name     string   `json:"name"`
	Nickname string   `json:"nickname"`
	Email    *string  `json:"email"`
	Age      int      `json:"age"`
	Tags     []string `json:"tags"`
}

func TestMapper_Defaults(t *testing.T) {
	m := NewMapper()
	assert.True(t, m.EmptyStringToNull)
	assert.True(t, m.TrimWhitespace)
	assert.False(t, m.SerializeNullValues)
}

func TestGlobalMapper_Clone(t *testing.T) {
	global := GlobalMapper()
	assert.Same(t, global, GlobalMapper())

	clone := global.Clone()
	require.NotSame(t, global, clone)
	clone.EmptyStringToNull = false
	assert.True(t, global.EmptyStringToNull)

	var nilMapper *Mapper
	assert.Equal(t, NewMapper(), nilMapper.Clone())
}

func TestMapper_ToDocument(t *testing.T) {
	p := profile{Name: "  alice ", Nickname: "   ", Age: 30, Tags: []string{" a ", ""}}

	doc, err := NewMapper().ToDocument(p)
	require.NoError(t, err)
	assert.Equal(t, "alice", doc["name"])
	assert.NotContains(t, doc, "nickname")
	assert.NotContains(t, doc, "email")
	assert.Equal(t, float64(30), doc["age"])
	assert.Equal(t, []any{"a", nil}, doc["tags"])
}

func TestMapper_ToDocument_Options(t *testing.T) {
	m := &Mapper{SerializeNullValues: true}
	doc, err := m.ToDocument(profile{Name: " bob ", Nickname: ""})
	require.NoError(t, err)
	assert.Equal(t, " bob ", doc["name"])
	assert.Equal(t, "", doc["nickname"])
	require.Contains(t, doc, "email")
	assert.Nil(t, doc["email"])

	m = &Mapper{EmptyStringToNull: true, SerializeNullValues: true}
	doc, err = m.ToDocument(map[string]any{"nickname": ""})
	require.NoError(t, err)
	require.Contains(t, doc, "nickname")
	assert.Nil(t, doc["nickname"])
}

func TestMapper_ToDocument_Invalid(t *testing.T) {
	_, err := NewMapper().ToDocument(nil)
	assert.Error(t, err)

	_, err = NewMapper().ToDocument([]int{1, 2})
	assert.Error(t, err)

	_, err = NewMapper().ToDocument(make(chan int))
	assert.Error(t, err)
}

func TestMapper_FromDocument(t *testing.T) {
	m := NewMapper()
	doc, err := m.ToDocument(profile{Name: "carol", Age: 41})
	require.NoError(t, err)

	var p profile
	require.NoError(t, m.FromDocument(doc, &p))
	assert.Equal(t, profile{Name: "carol", Age: 41}, p)

	assert.Error(t, m.FromDocument(doc, p))
}
