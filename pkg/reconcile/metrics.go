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

package reconcile

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carverauto/vcsync/pkg/models"
)

const (
	meterName             = "github.com/carverauto/vcsync/pkg/reconcile"
	metricResolutions     = "vcsync_resolutions_total"
	metricSkips           = "vcsync_skips_total"
	metricMACAmbiguous    = "vcsync_mac_ambiguous_total"
	metricRunDuration     = "vcsync_run_duration_seconds"
	attrEntityKind        = "kind"
	attrResolveStrategy   = "strategy"
	attrSkipReason        = "reason"
	attrSourceName        = "source"
	skipReasonDuplicate   = "duplicate_name"
	skipReasonFiltered    = "filtered"
	skipReasonNoCluster   = "missing_cluster"
	skipReasonNoName      = "missing_name"
	skipReasonClusterRule = "cluster_filtered"
)

//nolint:gochecknoglobals // metrics instruments are shared across the process intentionally
var (
	meterOnce            sync.Once
	resolutionCounter    metric.Int64Counter
	skipCounter          metric.Int64Counter
	ambiguousCounter     metric.Int64Counter
	runDurationHistogram metric.Float64Histogram
)

func initMeter() {
	meter := otel.Meter(meterName)

	var err error

	if resolutionCounter, err = meter.Int64Counter(
		metricResolutions,
		metric.WithDescription("Entities bound to a CMDB record, by resolving strategy"),
	); err != nil {
		otel.Handle(err)
	}

	if skipCounter, err = meter.Int64Counter(
		metricSkips,
		metric.WithDescription("Entities skipped during reconciliation"),
	); err != nil {
		otel.Handle(err)
	}

	if ambiguousCounter, err = meter.Int64Counter(
		metricMACAmbiguous,
		metric.WithDescription("MAC resolutions rejected because no parent dominated"),
	); err != nil {
		otel.Handle(err)
	}

	if runDurationHistogram, err = meter.Float64Histogram(
		metricRunDuration,
		metric.WithDescription("Duration of a reconciliation run per source"),
		metric.WithUnit("s"),
	); err != nil {
		otel.Handle(err)
	}
}

func recordResolution(ctx context.Context, kind models.EntityKind, strategy models.Strategy) {
	meterOnce.Do(initMeter)

	if resolutionCounter == nil {
		return
	}

	resolutionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrEntityKind, string(kind)),
		attribute.String(attrResolveStrategy, string(strategy)),
	))
}

func recordSkip(ctx context.Context, kind models.EntityKind, reason string) {
	meterOnce.Do(initMeter)

	if skipCounter == nil {
		return
	}

	skipCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrEntityKind, string(kind)),
		attribute.String(attrSkipReason, reason),
	))
}

func recordAmbiguousMAC(ctx context.Context, kind models.EntityKind) {
	meterOnce.Do(initMeter)

	if ambiguousCounter == nil {
		return
	}

	ambiguousCounter.Add(ctx, 1, metric.WithAttributes(attribute.String(attrEntityKind, string(kind))))
}

func recordRunDuration(ctx context.Context, source string, d time.Duration) {
	meterOnce.Do(initMeter)

	if runDurationHistogram == nil {
		return
	}

	runDurationHistogram.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String(attrSourceName, source)))
}
