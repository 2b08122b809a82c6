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
	"time"

	"github.com/carverauto/vcsync/pkg/models"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultPageSize = 200
)

// Config holds the NetBox API settings.
type Config struct {
	URL                string          `json:"url" yaml:"url" validate:"required,url"`
	APIToken           string          `json:"api_token" yaml:"api_token" validate:"required"`
	InsecureSkipVerify bool            `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Timeout            models.Duration `json:"timeout" yaml:"timeout"`
	RequestsPerSecond  float64         `json:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
	Burst              int             `json:"burst" yaml:"burst" validate:"gte=0"`
	PageSize           int             `json:"page_size" yaml:"page_size" validate:"gte=0,lte=1000"`
	DryRun             bool            `json:"dry_run" yaml:"dry_run"`

	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker" yaml:"circuit_breaker"`
}

func (c *Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}

	return time.Duration(c.Timeout)
}

func (c *Config) pageSize() int {
	if c.PageSize <= 0 {
		return defaultPageSize
	}

	return c.PageSize
}
