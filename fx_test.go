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
	"context"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/tomoncle/litedb"
	"github.com/tomoncle/litedb/database"
)

func TestModule(t *testing.T) {
	i := do.New()
	t.Cleanup(func() { i.Shutdown() })
	require.NoError(t, litedb.RegisterConnectionString(i, memory))
	require.NoError(t, litedb.RegisterConfigure(i, func(o *litedb.Options) {
		o.AddPatch(database.UserVersionPatch(5))
	}))

	var (
		db    *database.LiteDatabase
		bunDB *bun.DB
	)
	app := fxtest.New(t,
		litedb.Module(i),
		fx.Populate(&db, &bunDB),
	)
	app.RequireStart()

	fromInjector := resolve(t, i)
	assert.Same(t, fromInjector, db)
	assert.Same(t, db.Bun(), bunDB)
	assert.Equal(t, 5, userVersion(t, db))

	app.RequireStop()
	assert.Error(t, db.Ping(context.Background()))
}

func TestModule_ConstructionError(t *testing.T) {
	i := do.New()
	t.Cleanup(func() { i.Shutdown() })
	require.NoError(t, litedb.RegisterDefaults(i))

	var db *database.LiteDatabase
	app := fx.New(
		fx.NopLogger,
		litedb.Module(i),
		fx.Populate(&db),
	)
	err := app.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrInvalidConfiguration)
}
