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
	"fmt"
)

// Patch mutates a freshly opened database before it is handed out. Patches
// are the place for one-time migration and versioning work.
type Patch func(ctx context.Context, db *LiteDatabase) error

// applyPatches runs patches in order. A panicking patch is reported as an
// error like any other failure.
func applyPatches(ctx context.Context, db *LiteDatabase, patches []Patch) (err error) {
	for i, patch := range patches {
		if patch == nil {
			continue
		}
		if err = runPatch(ctx, db, patch); err != nil {
			return fmt.Errorf("patch #%d: %w", i, err)
		}
	}
	return nil
}

func runPatch(ctx context.Context, db *LiteDatabase, patch Patch) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return patch(ctx, db)
}

// UserVersionPatch sets the user_version header field to v.
func UserVersionPatch(v int) Patch {
	return func(ctx context.Context, db *LiteDatabase) error {
		return db.SetUserVersion(ctx, v)
	}
}

// CreateTablesPatch creates a table for every model that does not have one
// yet. Models are created in ascending priority order.
func CreateTablesPatch(models ...SQLModel) Patch {
	registry := NewModelRegistry()
	for _, m := range models {
		registry.Register(m)
	}
	return func(ctx context.Context, db *LiteDatabase) error {
		for _, model := range registry.Instances() {
			_, err := db.Bun().NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}
		return nil
	}
}
