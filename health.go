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
package litedb

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/do/v2"

	"github.com/tomoncle/litedb/database"
)

// Routes returns a handler reporting on the database registered in i:
//
//	GET /health   database.HealthStatus, 503 when unhealthy
//	GET /stats    database.DBStats
//	GET /version  module version
//
// A database that cannot be constructed is reported as unhealthy.
func Routes(i do.Injector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		db, err := do.Invoke[*database.LiteDatabase](i)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, &database.HealthStatus{LastError: err.Error()})
			return
		}
		status := db.Health(req.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		db, err := do.Invoke[*database.LiteDatabase](i)
		if err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, db.Stats())
	})

	r.Get("/version", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": Version().String()})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
