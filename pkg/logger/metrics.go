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

package logger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

var ErrOTelMetricsDisabled = errors.New("OTel metrics exporter disabled")

const defaultMetricsInterval = 15 * time.Second

// meters owns the process-wide MeterProvider so Shutdown can flush it.
//
//nolint:gochecknoglobals // one provider per process
var meters struct {
	sync.Mutex
	provider *sdkmetric.MeterProvider
}

// InitializeMetrics installs a global MeterProvider pushing the resolver,
// NetBox and sync instruments to the collector every MetricsInterval.
// Without an enabled endpoint the instruments stay on the no-op provider
// and ErrOTelMetricsDisabled is returned. Later calls reuse the provider.
func InitializeMetrics(ctx context.Context, config *OTelConfig) (*sdkmetric.MeterProvider, error) {
	if config == nil || !config.Enabled || config.Endpoint == "" {
		return nil, ErrOTelMetricsDisabled
	}

	meters.Lock()
	defer meters.Unlock()

	if meters.provider != nil {
		return meters.provider, nil
	}

	target, err := config.collector()
	if err != nil {
		return nil, err
	}

	exporter, err := otlpmetricgrpc.New(ctx, target.metricOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := serviceResource(ctx, config.ServiceName)
	if err != nil {
		return nil, err
	}

	interval := time.Duration(config.MetricsInterval)
	if interval <= 0 {
		interval = defaultMetricsInterval
	}

	meters.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
	)

	otel.SetMeterProvider(meters.provider)

	return meters.provider, nil
}

func shutdownMeterProvider(ctx context.Context) error {
	meters.Lock()
	defer meters.Unlock()

	if meters.provider == nil {
		return nil
	}

	err := meters.provider.Shutdown(ctx)
	meters.provider = nil

	return err
}
