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
	"fmt"
	"reflect"
	"sync"

	"github.com/samber/do/v2"
	"github.com/tomoncle/litedb/database"
)

var coreMu sync.Mutex

// core returns the pipeline of the injector, registering it together with
// the lazy *database.LiteDatabase singleton on first use.
func core(i do.Injector) (*pipeline, error) {
	if i == nil {
		return nil, database.NewArgumentError("injector", "cannot be nil")
	}

	coreMu.Lock()
	defer coreMu.Unlock()

	if p, err := do.InvokeNamed[*pipeline](i, pipelineServiceName); err == nil {
		return p, nil
	}

	p := newPipeline()
	do.ProvideNamedValue(i, pipelineServiceName, p)
	do.Provide(i, func(i do.Injector) (*database.LiteDatabase, error) {
		return p.build(i)
	})
	return p, nil
}

// RegisterDefaults registers the database using only the connection string
// found under "ConnectionStrings:LiteDatabase" of the provided config.Source.
func RegisterDefaults(i do.Injector) error {
	_, err := core(i)
	return err
}

// RegisterOptions copies the connection string, mapper, logger, patches and
// models of opts into the pipeline as a primary step.
func RegisterOptions(i do.Injector, opts *Options) error {
	if opts == nil {
		return database.NewArgumentError("options", "cannot be nil")
	}
	cs := opts.ConnectionString
	mapper := opts.Mapper
	logger := opts.Logger
	patches := append([]database.Patch(nil), opts.Patches...)
	models := append([]interface{}(nil), opts.Models...)

	return addConfigure(i, "options", func(_ do.Injector, o *Options) error {
		o.ConnectionString = cs
		if mapper != nil {
			o.Mapper = mapper
		}
		if logger != nil {
			o.Logger = logger
		}
		o.Patches = append(o.Patches, patches...)
		o.Models = append(o.Models, models...)
		return nil
	})
}

// RegisterConnectionString registers a primary step that sets only the
// connection string. The string is parsed immediately.
func RegisterConnectionString(i do.Injector, connectionString string) error {
	if connectionString == "" {
		return database.NewArgumentError("connectionString", "cannot be empty")
	}
	cs, err := database.ParseConnectionString(connectionString)
	if err != nil {
		return err
	}
	return addConfigure(i, "connection string", func(_ do.Injector, o *Options) error {
		o.ConnectionString = cs
		return nil
	})
}

// RegisterConfigure registers fn as a primary step.
func RegisterConfigure(i do.Injector, fn func(*Options)) error {
	if fn == nil {
		return database.NewArgumentError("configure", "cannot be nil")
	}
	return addConfigure(i, "configure", func(_ do.Injector, o *Options) error {
		fn(o)
		return nil
	})
}

// RegisterPostConfigure registers fn as a post-configuration step. It runs
// after every primary step, whenever it was registered.
func RegisterPostConfigure(i do.Injector, fn func(*Options)) error {
	if fn == nil {
		return database.NewArgumentError("configure", "cannot be nil")
	}
	return addPost(i, "post configure", func(_ do.Injector, o *Options) error {
		fn(o)
		return nil
	})
}

// RegisterConfigurer registers T as a post-configuration step. T is invoked
// from the injector when the options are finalized; when the injector does
// not provide T, a zero value (or a new instance for pointer types) is used.
func RegisterConfigurer[T Configurer](i do.Injector) error {
	name := do.NameOf[T]()
	return addPost(i, name, func(i do.Injector, o *Options) error {
		c, ok, err := optional[T](i)
		if err != nil {
			return err
		}
		if !ok {
			if c, err = newConfigurer[T](); err != nil {
				return err
			}
		}
		return c.Configure(o)
	})
}

// ResolveOptions returns the finalized options of the injector, running the
// pipeline if that has not happened yet. Registration is closed afterwards.
func ResolveOptions(i do.Injector) (*Options, error) {
	p, err := core(i)
	if err != nil {
		return nil, err
	}
	return p.finalize(i)
}

func addConfigure(i do.Injector, name string, fn stepFunc) error {
	p, err := core(i)
	if err != nil {
		return err
	}
	return p.addConfigure(step{name: name, apply: fn})
}

func addPost(i do.Injector, name string, fn stepFunc) error {
	p, err := core(i)
	if err != nil {
		return err
	}
	return p.addPost(step{name: name, apply: fn})
}

func newConfigurer[T Configurer]() (T, error) {
	var zero T
	rt := reflect.TypeOf(&zero).Elem()
	switch rt.Kind() {
	case reflect.Pointer:
		return reflect.New(rt.Elem()).Interface().(T), nil
	case reflect.Interface:
		return zero, fmt.Errorf("configurer %s is not provided by the injector", rt)
	default:
		return zero, nil
	}
}
