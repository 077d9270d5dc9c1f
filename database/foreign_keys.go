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
	"strings"
)

// ForeignKeyViolation is a row reported by PRAGMA foreign_key_check.
type ForeignKeyViolation struct {
	Table  string
	RowID  sql.NullInt64 // invalid for WITHOUT ROWID tables
	Parent string
	FKID   int
}

func (v ForeignKeyViolation) String() string {
	if v.RowID.Valid {
		return fmt.Sprintf("%s(rowid=%d) -> %s (fk #%d)", v.Table, v.RowID.Int64, v.Parent, v.FKID)
	}
	return fmt.Sprintf("%s -> %s (fk #%d)", v.Table, v.Parent, v.FKID)
}

// ForeignKeyViolations lists the rows whose foreign keys point to missing
// parents. An empty table name checks the whole database.
func ForeignKeyViolations(ctx context.Context, db *LiteDatabase, table string) ([]ForeignKeyViolation, error) {
	query := "PRAGMA foreign_key_check"
	if table != "" {
		query = fmt.Sprintf("PRAGMA foreign_key_check(%s)", quoteIdent(table))
	}
	rows, err := db.Bun().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to check foreign keys: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var violations []ForeignKeyViolation
	for rows.Next() {
		var v ForeignKeyViolation
		if err := rows.Scan(&v.Table, &v.RowID, &v.Parent, &v.FKID); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// ForeignKeyCheckPatch fails construction when the database holds rows that
// violate a foreign key. Databases written with foreign_keys=false can
// accumulate those silently.
func ForeignKeyCheckPatch(tables ...string) Patch {
	if len(tables) == 0 {
		tables = []string{""}
	}
	return func(ctx context.Context, db *LiteDatabase) error {
		var all []ForeignKeyViolation
		for _, table := range tables {
			violations, err := ForeignKeyViolations(ctx, db, table)
			if err != nil {
				return err
			}
			all = append(all, violations...)
		}
		if len(all) == 0 {
			return nil
		}

		const maxListed = 5
		listed := make([]string, 0, maxListed)
		for i, v := range all {
			if i == maxListed {
				break
			}
			listed = append(listed, v.String())
		}
		if db.logger != nil {
			db.logger.Error("Foreign key violations found", "count", len(all))
		}
		return fmt.Errorf("%d foreign key violation(s): %s", len(all), strings.Join(listed, "; "))
	}
}
