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

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/vcsync/pkg/models"
)

var errNoHosts = errors.New("at least one host")

type testSection struct {
	URL   string `json:"url" yaml:"url" validate:"required,url"`
	Token string `json:"token" yaml:"token"`
}

type testConfig struct {
	Name     string            `json:"name" yaml:"name" validate:"required"`
	Interval models.Duration   `json:"interval" yaml:"interval"`
	Hosts    []string          `json:"hosts" yaml:"hosts"`
	Labels   map[string]string `json:"labels" yaml:"labels"`
	Retries  *int              `json:"retries" yaml:"retries"`
	Section  testSection       `json:"section" yaml:"section"`
	Optional *testSection      `json:"optional" yaml:"optional"`
}

func (c *testConfig) Validate() error {
	if len(c.Hosts) == 0 {
		return errNoHosts
	}

	return nil
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadAndValidateYAML(t *testing.T) {
	path := writeFile(t, "vcsync.yaml", `
name: lab
interval: 30s
hosts: [a, b]
section:
  url: https://netbox.example.com
`)

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "lab", cfg.Name)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Interval))
	assert.Equal(t, []string{"a", "b"}, cfg.Hosts)
	assert.Nil(t, cfg.Optional)
}

func TestLoadAndValidateJSONWithEnvOverrides(t *testing.T) {
	path := writeFile(t, "vcsync.json", `{"name":"lab","hosts":["a"],"section":{"url":"https://old.example.com"}}`)

	t.Setenv("VCSYNC_SECTION_URL", "https://new.example.com")
	t.Setenv("VCSYNC_INTERVAL", "2m")
	t.Setenv("VCSYNC_HOSTS", "x, y")
	t.Setenv("VCSYNC_LABELS", "env=prod,team=infra")
	t.Setenv("VCSYNC_RETRIES", "3")
	t.Setenv("VCSYNC_OPTIONAL_URL", "https://ignored.example.com")

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "https://new.example.com", cfg.Section.URL)
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.Interval))
	assert.Equal(t, []string{"x", "y"}, cfg.Hosts)
	assert.Equal(t, map[string]string{"env": "prod", "team": "infra"}, cfg.Labels)
	require.NotNil(t, cfg.Retries)
	assert.Equal(t, 3, *cfg.Retries)
	assert.Nil(t, cfg.Optional, "nil optional sections stay nil")
}

func TestLoadAndValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "missing required fields",
			body:    `{"hosts":["a"],"section":{"url":"not a url"}}`,
			wantErr: ErrInvalidField,
		},
		{
			name:    "custom validator",
			body:    `{"name":"lab","section":{"url":"https://netbox.example.com"}}`,
			wantErr: errNoHosts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "cfg.json", tt.body)

			var cfg testConfig
			err := NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigJSONOverride(t *testing.T) {
	t.Setenv("VCSYNC_CONFIG_JSON", `{"name":"env","hosts":["h"],"section":{"url":"https://env.example.com"}}`)

	var cfg testConfig
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), "", &cfg))
	assert.Equal(t, "env", cfg.Name)
}

func TestLoadRejectsNonPointer(t *testing.T) {
	err := NewConfig(nil).LoadAndValidate(context.Background(), "", testConfig{})
	require.ErrorIs(t, err, errInvalidConfigPtr)
}

func TestEnvOverridesMapOfSections(t *testing.T) {
	type withSources struct {
		Sources map[string]testSection `json:"sources"`
	}

	path := writeFile(t, "sources.yaml", `
sources:
  vc-01:
    url: https://vc01.example.com
  lab:
    url: https://lab.example.com
`)

	t.Setenv("VCSYNC_SOURCES_VC_01_TOKEN", "s3cret")

	var cfg withSources
	require.NoError(t, NewConfig(nil).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "s3cret", cfg.Sources["vc-01"].Token)
	assert.Equal(t, "https://vc01.example.com", cfg.Sources["vc-01"].URL)
	assert.Empty(t, cfg.Sources["lab"].Token)
}
