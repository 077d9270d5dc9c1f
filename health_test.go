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
package litedb_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/litedb"
	"github.com/tomoncle/litedb/database"
)

func get(t *testing.T, h http.Handler, path string, v any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
	return rec.Code
}

func TestRoutes_Healthy(t *testing.T) {
	t.Parallel()

	i := configured(t)
	require.NoError(t, litedb.RegisterDefaults(i))
	h := litedb.Routes(i)

	var health database.HealthStatus
	assert.Equal(t, http.StatusOK, get(t, h, "/health", &health))
	assert.True(t, health.Healthy)
	assert.True(t, health.Connected)

	var stats database.DBStats
	assert.Equal(t, http.StatusOK, get(t, h, "/stats", &stats))
	assert.Equal(t, 1, stats.MaxOpenConns)

	var version map[string]string
	assert.Equal(t, http.StatusOK, get(t, h, "/version", &version))
	assert.Equal(t, litedb.Version().String(), version["version"])
	assert.True(t, strings.HasPrefix(version["version"], "1.0.0"))
}

func TestRoutes_Unconstructible(t *testing.T) {
	t.Parallel()

	i := emptyConfiguration(t)
	require.NoError(t, litedb.RegisterDefaults(i))
	h := litedb.Routes(i)

	var health database.HealthStatus
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/health", &health))
	assert.False(t, health.Healthy)
	assert.Contains(t, health.LastError, "ConnectionString.Filename")

	var body map[string]string
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/stats", &body))
	assert.NotEmpty(t, body["message"])
}
