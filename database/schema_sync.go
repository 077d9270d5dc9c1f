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
	"reflect"
	"sort"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type columnSpec struct {
	Name       string
	Type       string
	NotNull    bool
	Default    string
	PrimaryKey bool
	RenameFrom string
}

type indexSpec struct {
	Name    string
	Columns []string
}

// SchemaSyncPatch brings existing tables in line with their models: missing
// columns are added, columns tagged `litedb:"rename:old"` are renamed and
// unique indexes declared with the bun "unique" option are created. Tables
// that do not exist yet are created. Columns are never dropped.
func SchemaSyncPatch(models ...interface{}) Patch {
	return func(ctx context.Context, db *LiteDatabase) error {
		for _, model := range models {
			if err := syncModel(ctx, db, model); err != nil {
				return fmt.Errorf("failed to synchronize %T: %w", model, err)
			}
		}
		return nil
	}
}

func syncModel(ctx context.Context, db *LiteDatabase, model interface{}) error {
	bdb := db.Bun()
	t := reflect.TypeOf(model)
	if t == nil {
		return fmt.Errorf("nil model")
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("model %s is not a struct", t)
	}
	meta := bdb.Table(t)
	table := meta.Name

	existing, err := listExistingColumns(ctx, bdb, table)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		_, err := bdb.NewCreateTable().Model(reflect.New(t).Interface()).IfNotExists().Exec(ctx)
		return err
	}

	existingIndexes, err := listExistingIndexes(ctx, bdb, table)
	if err != nil {
		return err
	}

	desired, indexes := desiredSchema(meta)
	plan := append(planColumns(table, desired, existing), planIndexes(table, indexes, existingIndexes)...)
	if len(plan) == 0 {
		return nil
	}

	err = bdb.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range plan {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute %q: %w", stmt, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if db.logger != nil {
		db.logger.Info("Schema synchronized", "table", table, "changes", len(plan))
	}
	return nil
}

// planColumns returns the statements adding or renaming columns, ordered by
// column name.
func planColumns(table string, desired, existing map[string]columnSpec) []string {
	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)

	var plan []string
	for _, name := range names {
		col := desired[name]
		if _, ok := existing[name]; ok {
			continue
		}
		if col.RenameFrom != "" {
			if _, ok := existing[col.RenameFrom]; ok {
				plan = append(plan, buildRenameColumnSQL(table, col.RenameFrom, name))
				continue
			}
		}
		// SQLite cannot add a primary key to an existing table.
		if col.PrimaryKey {
			continue
		}
		plan = append(plan, buildAddColumnSQL(table, col))
	}
	return plan
}

func planIndexes(table string, desired []indexSpec, existing map[string]bool) []string {
	sort.Slice(desired, func(i, j int) bool { return desired[i].Name < desired[j].Name })
	plan := make([]string, 0, len(desired))
	for _, idx := range desired {
		if existing[idx.Name] {
			continue
		}
		cols := make([]string, len(idx.Columns))
		for i, c := range idx.Columns {
			cols[i] = quoteIdent(c)
		}
		plan = append(plan, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)",
			quoteIdent(idx.Name), quoteIdent(table), strings.Join(cols, ", ")))
	}
	return plan
}

// desiredSchema reads columns and unique indexes from bun's table metadata,
// so untagged fields and embedded structs map the way bun maps them. An
// unnamed "unique" option yields one uk_<table>_<column> index per field.
func desiredSchema(meta *schema.Table) (map[string]columnSpec, []indexSpec) {
	cols := make(map[string]columnSpec, len(meta.Fields))
	for _, f := range meta.Fields {
		spec := columnSpec{
			Name:       f.Name,
			Type:       f.CreateTableSQLType,
			NotNull:    f.NotNull,
			Default:    f.SQLDefault,
			PrimaryKey: f.IsPK,
		}
		if opt := strings.TrimSpace(f.StructField.Tag.Get("litedb")); strings.HasPrefix(opt, "rename:") {
			spec.RenameFrom = strings.Trim(strings.TrimPrefix(opt, "rename:"), "'\" ")
		}
		cols[f.Name] = spec
	}

	var idx []indexSpec
	for name, fields := range meta.Unique {
		if name == "" {
			for _, f := range fields {
				idx = append(idx, indexSpec{
					Name:    fmt.Sprintf("uk_%s_%s", meta.Name, f.Name),
					Columns: []string{f.Name},
				})
			}
			continue
		}
		columns := make([]string, len(fields))
		for i, f := range fields {
			columns[i] = f.Name
		}
		idx = append(idx, indexSpec{Name: name, Columns: columns})
	}
	return cols, idx
}

func listExistingColumns(ctx context.Context, db bun.IDB, table string) (map[string]columnSpec, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	cols := map[string]columnSpec{}
	for rows.Next() {
		var (
			cid, notnull, pk int
			name, typ        string
			def              sql.NullString
		)
		if err := rows.Scan(&cid, &name, &typ, &notnull, &def, &pk); err != nil {
			return nil, err
		}
		cols[name] = columnSpec{
			Name:       name,
			Type:       typ,
			NotNull:    notnull == 1,
			Default:    def.String,
			PrimaryKey: pk > 0,
		}
	}
	return cols, rows.Err()
}

func listExistingIndexes(ctx context.Context, db bun.IDB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ?", table)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	names := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// buildAddColumnSQL renders ALTER TABLE ADD COLUMN. SQLite rejects NOT NULL
// columns without a default on existing tables, so NOT NULL is only kept
// when a default is present.
func buildAddColumnSQL(table string, c columnSpec) string {
	notNull := ""
	if c.NotNull && c.Default != "" {
		notNull = " NOT NULL"
	}
	def := ""
	if c.Default != "" {
		def = " DEFAULT " + c.Default
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s%s%s", quoteIdent(table), quoteIdent(c.Name), c.Type, notNull, def)
}

func buildRenameColumnSQL(table, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", quoteIdent(table), quoteIdent(oldName), quoteIdent(newName))
}
