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

// Package lifecycle wires process-wide concerns: logging, telemetry and
// running a long-lived service until it is signalled to stop.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/vcsync/pkg/logger"
)

const defaultStopTimeout = 30 * time.Second

// Service is anything with a blocking Start and a graceful Stop.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// InitializeLogger builds the root logger. A nil config uses
// logger.DefaultConfig, which reads VCSYNC_LOG_LEVEL and friends.
func InitializeLogger(ctx context.Context, config *logger.Config) (logger.Logger, error) {
	if config == nil {
		config = logger.DefaultConfig()
	}

	log, err := logger.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return log, nil
}

// ShutdownFunc flushes whatever InitializeTelemetry started.
type ShutdownFunc func(ctx context.Context) error

// InitializeTelemetry installs the tracer provider and, when OTLP export is
// enabled, the meter provider. Metrics stay in-process otherwise.
func InitializeTelemetry(ctx context.Context, serviceName string, config *logger.Config, log logger.Logger) (ShutdownFunc, error) {
	var otelConfig *logger.OTelConfig
	if config != nil {
		otelConfig = &config.OTel
	}

	tp, err := logger.InitializeTracing(ctx, serviceName, otelConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if _, err := logger.InitializeMetrics(ctx, otelConfig); err != nil {
		if !errors.Is(err, logger.ErrOTelMetricsDisabled) {
			_ = tp.Shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}

		log.Debug().Msg("OTLP metrics export disabled")
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), logger.Shutdown(ctx))
	}, nil
}

// RunService starts svc and blocks until it returns, ctx ends, or the
// process receives SIGINT or SIGTERM. svc is then stopped within
// stopTimeout (30s when zero).
func RunService(ctx context.Context, svc Service, log logger.Logger, stopTimeout time.Duration) error {
	if stopTimeout <= 0 {
		stopTimeout = defaultStopTimeout
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		errCh <- svc.Start(ctx)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown requested")
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			log.Error().Err(runErr).Msg("Service stopped unexpectedly")
		}
	}

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
	defer cancel()

	if err := svc.Stop(stopCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("failed to stop service: %w", err))
	}

	if errors.Is(runErr, context.Canceled) {
		return nil
	}

	return runErr
}
