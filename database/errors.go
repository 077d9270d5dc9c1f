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
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned by registration helpers when a required
	// argument is nil or empty.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidConfiguration is returned when the finalized options cannot
	// describe a database, e.g. the connection string has no filename.
	ErrInvalidConfiguration = errors.New("invalid database configuration")

	// ErrConstruction is matched by every error raised while opening or
	// patching the database.
	ErrConstruction = errors.New("database construction failed")
)

// ArgumentError reports which registration argument was rejected.
type ArgumentError struct {
	Name   string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidArgument, e.Name)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidArgument, e.Name, e.Reason)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// NewArgumentError returns an ArgumentError for the named argument.
func NewArgumentError(name, reason string) error {
	return &ArgumentError{Name: name, Reason: reason}
}

// ConfigurationError names the option that made the configuration unusable.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrInvalidConfiguration, e.Message, e.Field)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// ConstructionError wraps the cause of a failed open or patch. The handle
// that was being built has already been closed when this error is returned.
type ConstructionError struct {
	Filename string
	Stage    string
	Cause    error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s %q: %v", ErrConstruction, e.Stage, e.Filename, e.Cause)
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}

func (e *ConstructionError) Unwrap() error {
	return e.Cause
}
