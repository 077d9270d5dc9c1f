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
	"errors"
	"fmt"
	"sync"

	"github.com/samber/do/v2"
	"github.com/tomoncle/litedb/config"
	"github.com/tomoncle/litedb/database"
)

// ErrOptionsFinalized is returned when a step is registered after the
// options were already resolved.
var ErrOptionsFinalized = errors.New("litedb: options already finalized")

const pipelineServiceName = "litedb.options-pipeline"

type stepFunc func(i do.Injector, opts *Options) error

type step struct {
	name  string
	apply stepFunc
}

// pipeline holds the two ordered step lists of one injector and memoizes
// the finalized options and the database built from them.
type pipeline struct {
	mu        sync.Mutex
	configure []step
	post      []step
	finalized bool

	optionsOnce sync.Once
	options     *Options
	optionsErr  error

	dbOnce sync.Once
	db     *database.LiteDatabase
	dbErr  error
}

func newPipeline() *pipeline {
	p := &pipeline{}
	p.configure = append(p.configure, step{name: "defaults", apply: defaultsStep})
	return p
}

func (p *pipeline) addConfigure(s step) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized {
		return ErrOptionsFinalized
	}
	p.configure = append(p.configure, s)
	return nil
}

func (p *pipeline) addPost(s step) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finalized {
		return ErrOptionsFinalized
	}
	p.post = append(p.post, s)
	return nil
}

// steps freezes the pipeline and returns every step in execution order.
func (p *pipeline) steps() []step {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finalized = true
	all := make([]step, 0, len(p.configure)+len(p.post))
	all = append(all, p.configure...)
	return append(all, p.post...)
}

// finalize runs every step once against fresh default options.
func (p *pipeline) finalize(i do.Injector) (*Options, error) {
	p.optionsOnce.Do(func() {
		opts := DefaultOptions()
		for _, s := range p.steps() {
			if err := s.apply(i, opts); err != nil {
				p.optionsErr = fmt.Errorf("%w: %s step: %w", database.ErrInvalidConfiguration, s.name, err)
				return
			}
		}
		p.options = opts
	})
	return p.options, p.optionsErr
}

// build builds the singleton. The first outcome, success or failure, is
// returned on every later call.
func (p *pipeline) build(i do.Injector) (*database.LiteDatabase, error) {
	p.dbOnce.Do(func() {
		opts, err := p.finalize(i)
		if err != nil {
			p.dbErr = err
			return
		}
		p.db, p.dbErr = database.NewFactory(opts.factoryOptions()).Create(context.Background())
	})
	return p.db, p.dbErr
}

// defaultsStep attaches a logger when a database.LoggerFactory is provided
// and reads "ConnectionStrings:LiteDatabase" when a config.Source is provided.
func defaultsStep(i do.Injector, opts *Options) error {
	factory, ok, err := optional[database.LoggerFactory](i)
	if err != nil {
		return err
	}
	if ok && factory != nil {
		opts.Logger = factory.CreateLogger(LoggerCategory)
	}

	src, ok, err := optional[config.Source](i)
	if err != nil {
		return err
	}
	if !ok || src == nil {
		return nil
	}
	value, found := config.ConnectionString(src, ConnectionStringKey)
	if !found {
		return nil
	}
	if value == "" {
		opts.ConnectionString = database.DefaultConnectionString()
		return nil
	}
	cs, err := database.ParseConnectionString(value)
	if err != nil {
		return fmt.Errorf("%s:%s: %w", config.ConnectionStringsSection, ConnectionStringKey, err)
	}
	opts.ConnectionString = cs
	return nil
}

// optional invokes T, treating a service that was never provided as absent.
func optional[T any](i do.Injector) (T, bool, error) {
	v, err := do.Invoke[T](i)
	if err == nil {
		return v, true, nil
	}
	var zero T
	if errors.Is(err, do.ErrServiceNotFound) {
		return zero, false, nil
	}
	return zero, false, err
}
