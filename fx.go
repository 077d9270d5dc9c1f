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
	"context"

	"github.com/samber/do/v2"
	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/tomoncle/litedb/database"
)

// Module exposes the database registered in i to an fx application. The
// database is resolved from the injector when fx first needs it and closed
// when the application stops.
func Module(i do.Injector) fx.Option {
	return fx.Module("litedb",
		fx.Provide(
			func() (*database.LiteDatabase, error) {
				return do.Invoke[*database.LiteDatabase](i)
			},
			func(db *database.LiteDatabase) *bun.DB {
				return db.Bun()
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, db *database.LiteDatabase) {
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					return db.Close()
				},
			})
		}),
	)
}
