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
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

type userV1 struct {
	bun.BaseModel `bun:"table:users"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Nickname string `bun:"nickname"`
}

type userV2 struct {
	bun.BaseModel `bun:"table:users"`

	ID          int64     `bun:"id,pk,autoincrement"`
	DisplayName string    `bun:"display_name" litedb:"rename:nickname"`
	Email       string    `bun:"email,notnull,unique"`
	Score       float64   `bun:"score,notnull,default:0"`
	CreatedAt   time.Time `bun:"created_at"`
	Ignored     string    `bun:"-"`
}

func TestSchemaSyncPatch_CreatesMissingTable(t *testing.T) {
	db := openMemory(t, SchemaSyncPatch((*userV2)(nil)))

	cols, err := listExistingColumns(context.Background(), db.Bun(), "users")
	require.NoError(t, err)
	assert.Contains(t, cols, "display_name")
	assert.Contains(t, cols, "email")
}

func TestSchemaSyncPatch_AltersExistingTable(t *testing.T) {
	ctx := context.Background()
	logger := &memoryLogger{}
	db, err := NewFactory(FactoryOptions{
		ConnectionString: MustParseConnectionString(MemoryFilename),
		Logger:           logger,
		Patches: []Patch{
			CreateTablesPatch(NewModelAdapter((*userV1)(nil), 0)),
			func(ctx context.Context, db *LiteDatabase) error {
				_, err := db.Bun().NewInsert().Model(&userV1{Nickname: "neo"}).Exec(ctx)
				return err
			},
			SchemaSyncPatch((*userV2)(nil)),
			SchemaSyncPatch((*userV2)(nil)),
		},
	}).Create(ctx)
	require.NoError(t, err)
	defer db.Close()

	cols, err := listExistingColumns(ctx, db.Bun(), "users")
	require.NoError(t, err)
	assert.NotContains(t, cols, "nickname")
	assert.NotContains(t, cols, "ignored")
	assert.Equal(t, "TIMESTAMP", cols["created_at"].Type)
	assert.True(t, cols["score"].NotNull)
	assert.False(t, cols["email"].NotNull)

	var u userV2
	require.NoError(t, db.Bun().NewSelect().Model(&u).Limit(1).Scan(ctx))
	assert.Equal(t, "neo", u.DisplayName)
	assert.Equal(t, float64(0), u.Score)

	var unique int
	require.NoError(t, db.SQL().QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type = 'index' AND name = 'uk_users_email'").Scan(&unique))
	assert.Equal(t, 1, unique)

	synced := 0
	for _, e := range logger.snapshot() {
		if strings.HasPrefix(e, "INFO Schema synchronized") {
			synced++
		}
	}
	assert.Equal(t, 1, synced)
}

func TestSchemaSyncPatch_InvalidModel(t *testing.T) {
	db := openMemory(t)
	assert.Error(t, SchemaSyncPatch(42)(context.Background(), db))
	assert.Error(t, SchemaSyncPatch(nil)(context.Background(), db))
}

type memberV1 struct {
	bun.BaseModel `bun:"table:members"`

	ID int64 `bun:"id,pk,autoincrement"`
}

type memberV2 struct {
	bun.BaseModel `bun:"table:members"`

	ID       int64 `bun:"id,pk,autoincrement"`
	Email    string
	JoinedAt time.Time
}

func TestSchemaSyncPatch_UntaggedFields(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t,
		CreateTablesPatch(NewModelAdapter((*memberV1)(nil), 0)),
		SchemaSyncPatch((*memberV2)(nil)),
	)

	cols, err := listExistingColumns(ctx, db.Bun(), "members")
	require.NoError(t, err)
	assert.Contains(t, cols, "email")
	assert.Contains(t, cols, "joined_at")

	_, err = db.Bun().NewInsert().Model(&memberV2{Email: "a@b.c", JoinedAt: time.Now()}).Exec(ctx)
	require.NoError(t, err)
}

type ledgerEntry struct {
	ID   int64 `bun:"id,pk,autoincrement"`
	Note string
}

func TestSchemaSyncPatch_DefaultTableName(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	table := db.Bun().Table(reflect.TypeOf(ledgerEntry{})).Name
	require.NotEmpty(t, table)

	_, err := db.SQL().Exec(`CREATE TABLE ` + quoteIdent(table) + ` (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	require.NoError(t, SchemaSyncPatch((*ledgerEntry)(nil))(ctx, db))

	cols, err := listExistingColumns(ctx, db.Bun(), table)
	require.NoError(t, err)
	assert.Contains(t, cols, "note")

	_, err = db.Bun().NewInsert().Model(&ledgerEntry{Note: "opening balance"}).Exec(ctx)
	require.NoError(t, err)
}

func TestSchemaSyncPatch_DefaultTableNameCreates(t *testing.T) {
	db := openMemory(t, SchemaSyncPatch(ledgerEntry{}))

	table := db.Bun().Table(reflect.TypeOf(ledgerEntry{})).Name
	assert.True(t, tableExists(t, db, table))
}

type tenantUser struct {
	bun.BaseModel `bun:"table:tenant_users"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Tenant string `bun:"tenant,unique:uq_tenant_login"`
	Login  string `bun:"login,unique:uq_tenant_login"`
	Email  string `bun:"email,unique"`
}

func TestDesiredSchema_UniqueGroups(t *testing.T) {
	db := openMemory(t)
	_, indexes := desiredSchema(db.Bun().Table(reflect.TypeOf(tenantUser{})))

	assert.Equal(t, []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS "uk_tenant_users_email" ON "tenant_users" ("email")`,
		`CREATE UNIQUE INDEX IF NOT EXISTS "uq_tenant_login" ON "tenant_users" ("tenant", "login")`,
	}, planIndexes("tenant_users", indexes, nil))
}

func TestPlanColumns(t *testing.T) {
	db := openMemory(t)
	desired, indexes := desiredSchema(db.Bun().Table(reflect.TypeOf(userV2{})))
	existing := map[string]columnSpec{
		"id":       {Name: "id", PrimaryKey: true},
		"nickname": {Name: "nickname"},
	}

	assert.NotContains(t, desired, "ignored")
	assert.Equal(t, []string{
		`ALTER TABLE "users" ADD COLUMN "created_at" TIMESTAMP`,
		`ALTER TABLE "users" RENAME COLUMN "nickname" TO "display_name"`,
		`ALTER TABLE "users" ADD COLUMN "email" VARCHAR`,
		`ALTER TABLE "users" ADD COLUMN "score" DOUBLE PRECISION NOT NULL DEFAULT 0`,
	}, planColumns("users", desired, existing))

	assert.Equal(t, []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS "uk_users_email" ON "users" ("email")`,
	}, planIndexes("users", indexes, nil))
	assert.Empty(t, planIndexes("users", indexes, map[string]bool{"uk_users_email": true}))
}

func TestForeignKeyCheckPatch(t *testing.T) {
	ctx := context.Background()
	db, err := NewFactory(FactoryOptions{
		ConnectionString: MustParseConnectionString("filename=:memory:;foreign_keys=false"),
	}).Create(ctx)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.SQL().Exec(`CREATE TABLE parents (id INTEGER PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.SQL().Exec(`CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parents(id))`)
	require.NoError(t, err)

	require.NoError(t, ForeignKeyCheckPatch()(ctx, db))

	_, err = db.SQL().Exec(`INSERT INTO children (id, parent_id) VALUES (1, 99)`)
	require.NoError(t, err)

	violations, err := ForeignKeyViolations(ctx, db, "children")
	require.NoError(t, err)
	require.Len(t, violations, 1)
	assert.Equal(t, "children", violations[0].Table)
	assert.Equal(t, "parents", violations[0].Parent)
	assert.Equal(t, "children(rowid=1) -> parents (fk #0)", violations[0].String())

	err = ForeignKeyCheckPatch("children")(ctx, db)
	assert.ErrorContains(t, err, "1 foreign key violation(s)")

	none, err := ForeignKeyViolations(ctx, db, "parents")
	require.NoError(t, err)
	assert.Empty(t, none)
}
