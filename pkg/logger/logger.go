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

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level      string     `json:"level" yaml:"level"`
	Debug      bool       `json:"debug" yaml:"debug"`
	Output     string     `json:"output" yaml:"output" validate:"omitempty,oneof=stdout stderr"`
	TimeFormat string     `json:"time_format" yaml:"time_format"`
	OTel       OTelConfig `json:"otel" yaml:"otel"`
}

type zerologLogger struct {
	zl zerolog.Logger
}

// New builds a Logger from config. When OTel log export is enabled the
// records are also shipped to the collector.
func New(ctx context.Context, config *Config) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	var output io.Writer = os.Stdout
	if config.Output == "stderr" {
		output = os.Stderr
	}

	return newWithWriter(ctx, config, output)
}

func newWithWriter(ctx context.Context, config *Config, output io.Writer) (Logger, error) {
	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	if config.OTel.Enabled {
		otelWriter, err := NewOTELWriter(ctx, config.OTel)
		if err != nil {
			return nil, err
		}

		output = zerolog.MultiLevelWriter(output, otelWriter)
	}

	zl := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()

	return &zerologLogger{zl: zl}, nil
}

func (l *zerologLogger) Trace() *zerolog.Event { return l.zl.Trace() }
func (l *zerologLogger) Debug() *zerolog.Event { return l.zl.Debug() }
func (l *zerologLogger) Info() *zerolog.Event  { return l.zl.Info() }
func (l *zerologLogger) Warn() *zerolog.Event  { return l.zl.Warn() }
func (l *zerologLogger) Error() *zerolog.Event { return l.zl.Error() }
func (l *zerologLogger) Fatal() *zerolog.Event { return l.zl.Fatal() }
func (l *zerologLogger) Panic() *zerolog.Event { return l.zl.Panic() }
func (l *zerologLogger) With() zerolog.Context { return l.zl.With() }

func (l *zerologLogger) WithComponent(component string) Logger {
	return &zerologLogger{zl: l.zl.With().Str("component", component).Logger()}
}

func (l *zerologLogger) WithFields(fields map[string]interface{}) Logger {
	return &zerologLogger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *zerologLogger) SetLevel(level zerolog.Level) {
	l.zl = l.zl.Level(level)
}

func (l *zerologLogger) SetDebug(debug bool) {
	if debug {
		l.SetLevel(zerolog.DebugLevel)
		return
	}

	l.SetLevel(zerolog.InfoLevel)
}
