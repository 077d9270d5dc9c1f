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
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// Migration is an applied migration record.
type Migration struct {
	bun.BaseModel `bun:"table:lite_migrations"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
}

// MigrationPatch applies every item whose version has not been recorded in
// lite_migrations yet, in ascending version order, one transaction each.
func MigrationPatch(items ...MigrationItem) Patch {
	migrations := make([]MigrationItem, len(items))
	copy(migrations, items)
	sort.SliceStable(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return func(ctx context.Context, db *LiteDatabase) error {
		if err := createMigrationTable(ctx, db.Bun()); err != nil {
			return fmt.Errorf("failed to create migrations table: %w", err)
		}
		for _, migration := range migrations {
			if err := runMigration(ctx, db, migration); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
			}
		}
		return nil
	}
}

// AppliedMigrations returns the recorded migrations ordered by version.
func AppliedMigrations(ctx context.Context, db *LiteDatabase) ([]Migration, error) {
	var applied []Migration
	err := db.Bun().NewSelect().
		Model(&applied).
		Order("version ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return applied, nil
}

func createMigrationTable(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func runMigration(ctx context.Context, db *LiteDatabase, migration MigrationItem) error {
	if migration.Version == "" {
		return fmt.Errorf("migration %q has no version", migration.Name)
	}
	bdb := db.Bun()
	exists, err := bdb.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	err = bdb.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if migration.Up != nil {
			if err := migration.Up(ctx, tx); err != nil {
				return err
			}
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if db.logger != nil {
		db.logger.Info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	}
	return nil
}
