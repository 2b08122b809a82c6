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
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/vcsync/pkg/models"
)

const (
	envPrefix           = "VCSYNC_"
	defaultServiceName  = "vcsync"
	defaultBatchTimeout = 5 * time.Second
)

// DefaultConfig is used when the config file has no logging section.
// VCSYNC_LOG_LEVEL, VCSYNC_LOG_DEBUG, VCSYNC_LOG_OUTPUT and
// VCSYNC_LOG_TIME_FORMAT override the defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:      envString("LOG_LEVEL", "info"),
		Debug:      envBool("LOG_DEBUG", false),
		Output:     envString("LOG_OUTPUT", "stdout"),
		TimeFormat: envString("LOG_TIME_FORMAT", ""),
		OTel:       DefaultOTelConfig(),
	}
}

// DefaultOTelConfig reads the standard OTEL_* exporter variables. The
// logs-specific endpoint wins over the generic one.
func DefaultOTelConfig() OTelConfig {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")
	if endpoint == "" {
		endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}

	batchTimeout := defaultBatchTimeout
	if d, err := time.ParseDuration(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_TIMEOUT")); err == nil && d > 0 {
		batchTimeout = d
	}

	serviceName := os.Getenv("OTEL_SERVICE_NAME")
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	insecure, _ := strconv.ParseBool(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE"))

	return OTelConfig{
		Enabled:      envBool("OTEL_LOGS_ENABLED", endpoint != ""), // VCSYNC_OTEL_LOGS_ENABLED
		Endpoint:     endpoint,
		Headers:      parseHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS")),
		ServiceName:  serviceName,
		BatchTimeout: models.Duration(batchTimeout),
		Insecure:     insecure,
	}
}

// parseHeaders reads the k1=v1,k2=v2 form of OTEL_EXPORTER_OTLP_HEADERS.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			continue
		}

		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	return headers
}

func envString(name, fallback string) string {
	if v := os.Getenv(envPrefix + name); v != "" {
		return v
	}

	return fallback
}

func envBool(name string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(envPrefix + name))
	if err != nil {
		return fallback
	}

	return b
}
