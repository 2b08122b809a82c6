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

package sync

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName         = "github.com/carverauto/vcsync/pkg/sync"
	metricRuns        = "vcsync_sync_runs_total"
	metricRunDuration = "vcsync_sync_run_duration_seconds"
	resultSuccess     = "success"
	resultFailure     = "failure"
)

//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
var (
	meterOnce    sync.Once
	runCounter   metric.Int64Counter
	runHistogram metric.Float64Histogram
)

func initMeter() {
	meter := otel.Meter(meterName)

	var err error

	if runCounter, err = meter.Int64Counter(
		metricRuns,
		metric.WithDescription("Completed synchronization runs by result"),
	); err != nil {
		otel.Handle(err)
	}

	if runHistogram, err = meter.Float64Histogram(
		metricRunDuration,
		metric.WithDescription("Duration of synchronization runs"),
		metric.WithUnit("s"),
	); err != nil {
		otel.Handle(err)
	}
}

func recordRun(ctx context.Context, err error, d time.Duration) {
	meterOnce.Do(initMeter)

	result := resultSuccess
	if err != nil {
		result = resultFailure
	}

	attrs := metric.WithAttributes(attribute.String("result", result))

	if runCounter != nil {
		runCounter.Add(ctx, 1, attrs)
	}

	if runHistogram != nil {
		runHistogram.Record(ctx, d.Seconds(), attrs)
	}
}
