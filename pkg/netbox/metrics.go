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

package netbox

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName             = "github.com/carverauto/vcsync/pkg/netbox"
	metricRequests        = "vcsync_netbox_requests_total"
	metricRequestDuration = "vcsync_netbox_request_duration_seconds"
	metricWrites          = "vcsync_netbox_writes_total"
	metricBreaker         = "vcsync_netbox_breaker_transitions_total"
)

//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
var (
	meterOnce        sync.Once
	requestCounter   metric.Int64Counter
	requestHistogram metric.Float64Histogram
	writeCounter     metric.Int64Counter
	breakerCounter   metric.Int64Counter
)

func initMeter() {
	meter := otel.Meter(meterName)

	var err error

	if requestCounter, err = meter.Int64Counter(
		metricRequests,
		metric.WithDescription("NetBox API requests by method and status"),
	); err != nil {
		otel.Handle(err)
	}

	if requestHistogram, err = meter.Float64Histogram(
		metricRequestDuration,
		metric.WithDescription("Latency of NetBox API requests"),
		metric.WithUnit("s"),
	); err != nil {
		otel.Handle(err)
	}

	if writeCounter, err = meter.Int64Counter(
		metricWrites,
		metric.WithDescription("Records written to NetBox by kind and operation"),
	); err != nil {
		otel.Handle(err)
	}

	if breakerCounter, err = meter.Int64Counter(
		metricBreaker,
		metric.WithDescription("Circuit breaker state changes by target state"),
	); err != nil {
		otel.Handle(err)
	}
}

func recordRequest(ctx context.Context, method string, resp *http.Response, err error, d time.Duration) {
	meterOnce.Do(initMeter)

	status := "error"

	switch {
	case resp != nil:
		status = strconv.Itoa(resp.StatusCode)
	case err != nil:
		status = "transport_error"
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	)

	if requestCounter != nil {
		requestCounter.Add(ctx, 1, attrs)
	}

	if requestHistogram != nil {
		requestHistogram.Record(ctx, d.Seconds(), attrs)
	}
}

func recordWrite(ctx context.Context, kind, op string) {
	meterOnce.Do(initMeter)

	if writeCounter == nil {
		return
	}

	writeCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("op", op),
	))
}

func recordBreakerTransition(ctx context.Context, name, state string) {
	meterOnce.Do(initMeter)

	if breakerCounter == nil {
		return
	}

	breakerCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker", name),
		attribute.String("state", state),
	))
}
