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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseConnectionString parses either a bare filename (":memory:",
// "/var/lib/app/app.db") or a semicolon separated list of key=value pairs:
//
//	filename=/var/lib/app/app.db;journal=wal;busy_timeout=2s;readonly=true
//
// Keys are case-insensitive. Unknown keys are rejected.
func ParseConnectionString(s string) (ConnectionString, error) {
	cs := DefaultConnectionString()
	s = strings.TrimSpace(s)
	if s == "" {
		return cs, NewArgumentError("connectionString", "cannot be empty")
	}
	if !strings.Contains(s, "=") {
		cs.Filename = s
		return cs, nil
	}

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return cs, NewArgumentError("connectionString", fmt.Sprintf("has malformed segment %q", part))
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if err := cs.set(key, value); err != nil {
			return cs, err
		}
	}
	return cs, nil
}

// MustParseConnectionString is like ParseConnectionString but panics on error.
func MustParseConnectionString(s string) ConnectionString {
	cs, err := ParseConnectionString(s)
	if err != nil {
		panic(err)
	}
	return cs
}

func (cs *ConnectionString) set(key, value string) error {
	var err error
	switch key {
	case "filename", "file", "data source", "datasource":
		cs.Filename = value
	case "readonly", "read_only":
		cs.ReadOnly, err = strconv.ParseBool(value)
	case "journal", "journal_mode":
		cs.Journal = strings.ToUpper(value)
	case "busy_timeout", "timeout":
		cs.BusyTimeout, err = parseDuration(value)
	case "foreign_keys":
		cs.ForeignKeys, err = strconv.ParseBool(value)
	case "query_log":
		cs.QueryLog, err = strconv.ParseBool(value)
	case "slow_query_time":
		cs.SlowQueryTime, err = parseDuration(value)
	default:
		return NewArgumentError("connectionString", fmt.Sprintf("has unknown key %q", key))
	}
	if err != nil {
		return NewArgumentError("connectionString", fmt.Sprintf("has invalid %s %q: %v", key, value, err))
	}
	return nil
}

// parseDuration accepts Go durations ("2s") and bare milliseconds ("2000").
func parseDuration(value string) (time.Duration, error) {
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(value)
}

// String renders the connection string in key=value form.
func (cs ConnectionString) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "filename=%s", cs.Filename)
	if cs.ReadOnly {
		sb.WriteString(";readonly=true")
	}
	if cs.Journal != "" {
		fmt.Fprintf(&sb, ";journal=%s", cs.Journal)
	}
	if cs.BusyTimeout > 0 {
		fmt.Fprintf(&sb, ";busy_timeout=%s", cs.BusyTimeout)
	}
	if !cs.ForeignKeys {
		sb.WriteString(";foreign_keys=false")
	}
	if cs.QueryLog {
		sb.WriteString(";query_log=true")
	}
	if cs.SlowQueryTime > 0 {
		fmt.Fprintf(&sb, ";slow_query_time=%s", cs.SlowQueryTime)
	}
	return sb.String()
}

// pragmas returns the statements applied to the connection right after it
// is opened. They are executed rather than encoded in the DSN so that both
// drivers selected by sqliteshim honor them.
func (cs ConnectionString) pragmas() []pragma {
	fk := "OFF"
	if cs.ForeignKeys {
		fk = "ON"
	}
	journal := cs.Journal
	if journal == "" {
		journal = "WAL"
		if cs.IsMemory() {
			journal = "MEMORY"
		}
	}
	pragmas := []pragma{
		{name: "foreign_keys", value: fk},
		{name: "journal_mode", value: journal},
	}
	if cs.BusyTimeout > 0 {
		pragmas = append(pragmas, pragma{name: "busy_timeout", value: strconv.FormatInt(cs.BusyTimeout.Milliseconds(), 10)})
	}
	if cs.ReadOnly {
		pragmas = append(pragmas, pragma{name: "query_only", value: "ON"})
	}
	return pragmas
}
