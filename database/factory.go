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
)

// FactoryOptions is the finalized configuration a Factory builds from.
type FactoryOptions struct {
	ConnectionString ConnectionString
	Mapper           *Mapper
	Logger           Logger
	Patches          []Patch
	Models           []interface{}
}

// Factory turns finalized options into an open, patched LiteDatabase.
type Factory struct {
	opts FactoryOptions
}

// NewFactory returns a factory for opts.
func NewFactory(opts FactoryOptions) *Factory {
	return &Factory{opts: opts}
}

// Create validates the options, opens the database and applies every patch
// in order. The handle is only returned once all patches succeeded; on any
// failure it is closed and a *ConstructionError is returned.
func (f *Factory) Create(ctx context.Context) (*LiteDatabase, error) {
	cs := f.opts.ConnectionString
	if cs.Filename == "" {
		return nil, &ConfigurationError{
			Field:   "ConnectionString.Filename",
			Message: "database connection string is invalid",
		}
	}

	mapper := f.opts.Mapper
	if mapper == nil {
		mapper = GlobalMapper()
	}

	if f.opts.Logger != nil {
		f.opts.Logger.Info("Using database", "filename", cs.Filename)
	}

	db, err := openDatabase(ctx, cs, mapper, f.opts.Logger)
	if err != nil {
		return nil, &ConstructionError{Filename: cs.Filename, Stage: "open", Cause: err}
	}
	db.RegisterModels(f.opts.Models...)

	if err := applyPatches(ctx, db, f.opts.Patches); err != nil {
		_ = db.Close()
		return nil, &ConstructionError{Filename: cs.Filename, Stage: "patch", Cause: err}
	}
	return db, nil
}
