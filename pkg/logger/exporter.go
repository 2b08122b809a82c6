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
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"google.golang.org/grpc/credentials"

	"github.com/carverauto/vcsync/pkg/models"
)

var (
	ErrOTelEndpointRequired = errors.New("OTel endpoint is required when enabled")
	errFailedToParseCACert  = errors.New("failed to parse CA certificate")
	errKeyPairIncomplete    = errors.New("tls cert_file and key_file must be set together")
)

// OTelConfig configures the OTLP collector shared by the log, trace and
// metric exporters.
type OTelConfig struct {
	Enabled      bool              `json:"enabled" yaml:"enabled"`
	Endpoint     string            `json:"endpoint" yaml:"endpoint"`
	Headers      map[string]string `json:"headers" yaml:"headers"`
	ServiceName  string            `json:"service_name" yaml:"service_name"`
	BatchTimeout models.Duration   `json:"batch_timeout" yaml:"batch_timeout"`
	Insecure     bool              `json:"insecure" yaml:"insecure"`
	TLS          *TLSConfig        `json:"tls,omitempty" yaml:"tls,omitempty"`

	// MetricsInterval is the OTLP metric push period, 15s when zero.
	MetricsInterval models.Duration `json:"metrics_interval" yaml:"metrics_interval"`
}

type TLSConfig struct {
	CertFile string `json:"cert_file" yaml:"cert_file"`
	KeyFile  string `json:"key_file" yaml:"key_file"`
	CAFile   string `json:"ca_file,omitempty" yaml:"ca_file,omitempty"`
}

// collector is the resolved OTLP/gRPC target.
type collector struct {
	endpoint string
	insecure bool
	creds    credentials.TransportCredentials
	headers  map[string]string
}

func (c *OTelConfig) collector() (*collector, error) {
	if c.Endpoint == "" {
		return nil, ErrOTelEndpointRequired
	}

	out := &collector{
		endpoint: c.Endpoint,
		insecure: c.Insecure,
		headers:  c.Headers,
	}

	if !c.Insecure && c.TLS != nil {
		tlsConfig, err := c.TLS.build()
		if err != nil {
			return nil, fmt.Errorf("failed to setup TLS configuration: %w", err)
		}

		out.creds = credentials.NewTLS(tlsConfig)
	}

	return out, nil
}

func (c *collector) logOptions() []otlploggrpc.Option {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(c.endpoint)}

	switch {
	case c.insecure:
		opts = append(opts, otlploggrpc.WithInsecure())
	case c.creds != nil:
		opts = append(opts, otlploggrpc.WithTLSCredentials(c.creds))
	}

	if len(c.headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(c.headers))
	}

	return opts
}

func (c *collector) traceOptions() []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.endpoint)}

	switch {
	case c.insecure:
		opts = append(opts, otlptracegrpc.WithInsecure())
	case c.creds != nil:
		opts = append(opts, otlptracegrpc.WithTLSCredentials(c.creds))
	}

	if len(c.headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(c.headers))
	}

	return opts
}

func (c *collector) metricOptions() []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(c.endpoint)}

	switch {
	case c.insecure:
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	case c.creds != nil:
		opts = append(opts, otlpmetricgrpc.WithTLSCredentials(c.creds))
	}

	if len(c.headers) > 0 {
		opts = append(opts, otlpmetricgrpc.WithHeaders(c.headers))
	}

	return opts
}

func (t *TLSConfig) build() (*tls.Config, error) {
	if (t.CertFile == "") != (t.KeyFile == "") {
		return nil, errKeyPairIncomplete
	}

	config := &tls.Config{MinVersion: tls.VersionTLS12}

	if t.CertFile != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}

		config.Certificates = []tls.Certificate{cert}
	}

	if t.CAFile == "" {
		return config, nil
	}

	caCert, err := os.ReadFile(t.CAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, errFailedToParseCACert
	}

	config.RootCAs = pool

	return config, nil
}
