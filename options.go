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
	"github.com/tomoncle/litedb/database"
)

const (
	// ConnectionStringKey names the connection string looked up in the
	// configuration source: "ConnectionStrings:LiteDatabase".
	ConnectionStringKey = "LiteDatabase"

	// LoggerCategory is the category of the logger attached by the defaults step.
	LoggerCategory = "LiteDB.LiteDatabase"
)

// Options configures the database registered in an injector.
type Options struct {
	// ConnectionString describes the database file to open.
	ConnectionString database.ConnectionString
	// Mapper converts values to and from documents.
	Mapper *database.Mapper
	// Logger receives the "Using database" entry and operational logs. Optional.
	Logger database.Logger
	// Patches run in order right after the database is opened.
	Patches []database.Patch
	// Models are registered on the Bun database after it is opened.
	Models []interface{}
}

// DefaultOptions returns options with an empty connection string and a copy
// of the global mapper.
func DefaultOptions() *Options {
	return &Options{
		ConnectionString: database.DefaultConnectionString(),
		Mapper:           database.GlobalMapper().Clone(),
	}
}

// NewOptions returns default options opening connectionString.
func NewOptions(connectionString string) (*Options, error) {
	if connectionString == "" {
		return nil, database.NewArgumentError("connectionString", "cannot be empty")
	}
	opts := DefaultOptions()
	if err := opts.SetConnectionString(connectionString); err != nil {
		return nil, err
	}
	return opts, nil
}

// SetConnectionString parses s and replaces the connection string.
func (o *Options) SetConnectionString(s string) error {
	cs, err := database.ParseConnectionString(s)
	if err != nil {
		return err
	}
	o.ConnectionString = cs
	return nil
}

// AddPatch appends a post-open patch.
func (o *Options) AddPatch(patch database.Patch) *Options {
	o.Patches = append(o.Patches, patch)
	return o
}

// AddModels appends Bun models registered after open.
func (o *Options) AddModels(models ...interface{}) *Options {
	o.Models = append(o.Models, models...)
	return o
}

func (o *Options) factoryOptions() database.FactoryOptions {
	patches := make([]database.Patch, len(o.Patches))
	copy(patches, o.Patches)
	models := make([]interface{}, len(o.Models))
	copy(models, o.Models)
	return database.FactoryOptions{
		ConnectionString: o.ConnectionString,
		Mapper:           o.Mapper,
		Logger:           o.Logger,
		Patches:          patches,
		Models:           models,
	}
}

// Configurer is a post-configuration step registered with RegisterConfigurer.
type Configurer interface {
	Configure(opts *Options) error
}
