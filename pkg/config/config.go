/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

// Package config loads service configuration from a file, overlays
// environment variables, and validates the result.
package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/carverauto/vcsync/pkg/logger"
)

var errInvalidConfigPtr = errors.New("config must be a non-nil pointer")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VCSYNC_"

// ConfigLoader fills dst from some source.
type ConfigLoader interface {
	Load(ctx context.Context, path string, dst interface{}) error
}

// Validator is implemented by configs with cross-field rules that struct
// tags cannot express.
type Validator interface {
	Validate() error
}

// Config holds the configuration loading dependencies.
type Config struct {
	fileLoader ConfigLoader
	envLoader  ConfigLoader
	logger     logger.Logger
}

func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Config{
		fileLoader: &FileConfigLoader{},
		envLoader:  NewEnvConfigLoader(log, EnvPrefix),
		logger:     log,
	}
}

// LoadAndValidate reads path into cfg, applies environment overrides, and
// validates struct tags followed by Validate() when cfg implements Validator.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errInvalidConfigPtr
	}

	if path != "" {
		if err := c.fileLoader.Load(ctx, path, cfg); err != nil {
			return err
		}
	}

	if err := c.envLoader.Load(ctx, path, cfg); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStruct(cfg); err != nil {
		return err
	}

	if err := ValidateConfig(cfg); err != nil {
		return err
	}

	c.logger.Debug().Str("path", path).Msg("Configuration loaded")

	return nil
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}
