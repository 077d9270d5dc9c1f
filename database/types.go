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
	"time"
)

// MemoryFilename opens a private in-memory database.
const MemoryFilename = ":memory:"

// HealthStatus holds the result of a health check against the database.
type HealthStatus struct {
	Healthy       bool          `json:"healthy"`
	Connected     bool          `json:"connected"`
	ResponseTime  time.Duration `json:"response_time"`
	ActiveConns   int           `json:"active_conns"`
	IdleConns     int           `json:"idle_conns"`
	LastError     string        `json:"last_error,omitempty"`
	LastCheckTime time.Time     `json:"last_check_time"`
}

// DBStats mirrors database/sql stats for the single embedded connection.
type DBStats struct {
	MaxOpenConns int           `json:"max_open_conns"`
	OpenConns    int           `json:"open_conns"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration"`
}

// ConnectionString describes where and how to open the embedded database.
type ConnectionString struct {
	Filename      string        `json:"filename" yaml:"filename"`
	ReadOnly      bool          `json:"readonly" yaml:"readonly"`
	Journal       string        `json:"journal" yaml:"journal"` // WAL, DELETE, MEMORY ...
	BusyTimeout   time.Duration `json:"busy_timeout" yaml:"busy_timeout"`
	ForeignKeys   bool          `json:"foreign_keys" yaml:"foreign_keys"`
	QueryLog      bool          `json:"query_log" yaml:"query_log"`
	SlowQueryTime time.Duration `json:"slow_query_time" yaml:"slow_query_time"`
}

// DefaultConnectionString returns a connection string with an empty filename
// and sensible defaults for everything else.
func DefaultConnectionString() ConnectionString {
	return ConnectionString{
		BusyTimeout: 5 * time.Second,
		ForeignKeys: true,
	}
}

// IsMemory reports whether the connection string names an in-memory database.
func (cs ConnectionString) IsMemory() bool {
	return cs.Filename == MemoryFilename
}

type pragma struct {
	name  string
	value string
}
