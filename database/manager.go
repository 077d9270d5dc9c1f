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
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// LiteDatabase is the handle to an open embedded database. A container owns
// exactly one of them for its whole lifetime.
type LiteDatabase struct {
	cs     ConnectionString
	mapper *Mapper
	logger Logger

	mu     sync.RWMutex
	db     *bun.DB
	sqlDB  *sql.DB
	closed bool
}

// openDatabase opens the database described by cs and applies its pragmas.
// The returned handle has not been patched yet.
func openDatabase(ctx context.Context, cs ConnectionString, mapper *Mapper, logger Logger) (*LiteDatabase, error) {
	sqlDB, err := sql.Open(sqliteshim.ShimName, cs.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every database/sql connection to :memory: is a different database, so
	// the pool is pinned to one connection that is never recycled.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
	sqlDB.SetConnMaxIdleTime(0)

	db := bun.NewDB(sqlDB, sqlitedialect.New())

	success := false
	defer func() {
		if !success {
			_ = db.Close()
		}
	}()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	for _, p := range cs.pragmas() {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return nil, fmt.Errorf("failed to apply pragma %s: %w", p.name, err)
		}
	}

	addQueryHooks(db, cs, logger)

	success = true
	return &LiteDatabase{
		cs:     cs,
		mapper: mapper,
		logger: logger,
		db:     db,
		sqlDB:  sqlDB,
	}, nil
}

// Bun returns the Bun database.
func (d *LiteDatabase) Bun() *bun.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.db
}

// SQL returns the underlying database/sql handle.
func (d *LiteDatabase) SQL() *sql.DB {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sqlDB
}

// Mapper returns the mapper the database was opened with.
func (d *LiteDatabase) Mapper() *Mapper {
	return d.mapper
}

// ConnectionString returns the connection string the database was opened with.
func (d *LiteDatabase) ConnectionString() ConnectionString {
	return d.cs
}

// Filename is shorthand for ConnectionString().Filename.
func (d *LiteDatabase) Filename() string {
	return d.cs.Filename
}

// RegisterModels registers bun models (m2m join tables and friends).
func (d *LiteDatabase) RegisterModels(models ...interface{}) {
	if len(models) == 0 {
		return
	}
	d.Bun().RegisterModel(models...)
}

// UserVersion returns the user_version stored in the database header.
func (d *LiteDatabase) UserVersion(ctx context.Context) (int, error) {
	db := d.Bun()
	if db == nil {
		return 0, fmt.Errorf("database not connected")
	}
	var v int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return v, nil
}

// SetUserVersion stores v in the database header.
func (d *LiteDatabase) SetUserVersion(ctx context.Context, v int) error {
	db := d.Bun()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
		return fmt.Errorf("failed to write user_version: %w", err)
	}
	return nil
}

func (d *LiteDatabase) Ping(ctx context.Context) error {
	db := d.Bun()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

// HealthCheck pings the database; the container calls it from its own
// health check.
func (d *LiteDatabase) HealthCheck(ctx context.Context) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	return d.Ping(ctxTimeout)
}

// Health returns a detailed health report.
func (d *LiteDatabase) Health(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}

	err := d.HealthCheck(ctx)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.LastError = err.Error()
	} else {
		status.Healthy = true
		status.Connected = true
	}

	if sqlDB := d.SQL(); sqlDB != nil {
		stats := sqlDB.Stats()
		status.ActiveConns = stats.InUse
		status.IdleConns = stats.Idle
	}
	return status
}

func (d *LiteDatabase) Stats() *DBStats {
	sqlDB := d.SQL()
	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns: stats.MaxOpenConnections,
		OpenConns:    stats.OpenConnections,
		InUse:        stats.InUse,
		Idle:         stats.Idle,
		WaitCount:    stats.WaitCount,
		WaitDuration: stats.WaitDuration,
	}
}

// Close closes the database. Closing twice is a no-op.
func (d *LiteDatabase) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed || d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	d.sqlDB = nil
	d.closed = true

	if d.logger != nil {
		if err != nil {
			d.logger.Error("Failed to close database", "filename", d.cs.Filename, "error", err)
		} else {
			d.logger.Info("Database closed", "filename", d.cs.Filename)
		}
	}
	return err
}

// Shutdown closes the database when the owning container shuts down.
func (d *LiteDatabase) Shutdown() error {
	return d.Close()
}
