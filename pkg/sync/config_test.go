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
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/vcsync/pkg/config"
	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "no sources",
			mutate:  func(c *Config) { c.Sources = nil },
			wantErr: errNoSources,
		},
		{
			name:    "negative interval",
			mutate:  func(c *Config) { c.PollInterval = models.Duration(-time.Second) },
			wantErr: errNegativePollInterval,
		},
		{
			name: "missing host",
			mutate: func(c *Config) {
				src := c.Sources["vc01"]
				src.HostFQDN = " "
				c.Sources["vc01"] = src
			},
			wantErr: errHostRequired,
		},
		{
			name: "empty site in relation",
			mutate: func(c *Config) {
				src := c.Sources["vc01"]
				src.ClusterSiteRelation = map[string]string{"prod": ""}
				c.Sources["vc01"] = src
			},
			wantErr: errSiteRelation,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig("vc01")
			tc.mutate(cfg)

			err := cfg.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestConfigValidateReportsPatternsAndSubnets(t *testing.T) {
	t.Parallel()

	cfg := testConfig("vc01")
	src := cfg.Sources["vc01"]
	src.VMExcludeFilter = "web[0-9"
	src.PermittedSubnets = []string{"10.0.0.0/33"}
	cfg.Sources["vc01"] = src

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `source "vc01"`)
	assert.Contains(t, err.Error(), "vm exclude filter")
	assert.Contains(t, err.Error(), "permitted_subnets")
}

func TestSourceOptions(t *testing.T) {
	t.Parallel()

	off := false
	src := SourceConfig{
		HostFQDN:                " vc01.example.com ",
		Port:                    8443,
		Username:                "sync",
		Password:                "secret",
		Timeout:                 models.Duration(time.Minute),
		HostIncludeFilter:       "esx",
		PermittedSubnets:        []string{"10.1.2.3/16", "2001:db8::/32"},
		ClusterSiteRelation:     map[string]string{"prod": "Berlin"},
		VMRole:                  "VM",
		CollectHardwareAssetTag: &off,
	}

	opts, err := src.options("vc01")
	require.NoError(t, err)
	assert.Equal(t, "vc01", opts.Source)
	assert.True(t, opts.Filters.Host.Allows("esx01"))
	assert.False(t, opts.Filters.Host.Allows("node-esx01"))
	assert.True(t, opts.Filters.VM.Allows("anything"))
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.1.0.0/16"),
		netip.MustParsePrefix("2001:db8::/32"),
	}, opts.PermittedSubnets)
	assert.Equal(t, "Berlin", opts.ClusterSites["prod"])
	assert.Equal(t, "VM", opts.VMRole)

	vc := src.vsphereConfig(opts.PermittedSubnets)
	assert.Equal(t, "vc01.example.com", vc.Host)
	assert.Equal(t, 8443, vc.Port)
	assert.Equal(t, time.Minute, vc.Timeout)
	assert.False(t, vc.CollectAssetTag)
}

func TestSourceDefaults(t *testing.T) {
	t.Parallel()

	src := SourceConfig{HostFQDN: "vc01", Username: "sync"}
	assert.True(t, src.collectAssetTag())

	subnets, err := src.subnets()
	require.NoError(t, err)
	require.Len(t, subnets, len(defaultPermittedSubnets))
	assert.Equal(t, netip.MustParsePrefix("10.0.0.0/8"), subnets[0])

	src.PermittedSubnets = []string{}
	subnets, err = src.subnets()
	require.NoError(t, err)
	assert.Empty(t, subnets, "an explicit empty list permits nothing")

	cfg := testConfig("vc01")
	assert.Equal(t, defaultPollInterval, cfg.Interval())

	cfg.PollInterval = models.Duration(10 * time.Minute)
	assert.Equal(t, 10*time.Minute, cfg.Interval())
}

const testYAML = `
poll_interval: 15m
netbox:
  url: https://netbox.example.com
  api_token: token
  requests_per_second: 10
sources:
  vc-01:
    host_fqdn: vc01.example.com
    username: sync
    vm_exclude_filter: "^tmp-"
    cluster_site_relation:
      prod: Berlin
journal:
  host: db.internal
  database: vcsync
`

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o600))

	t.Setenv("VCSYNC_SOURCES_VC_01_PASSWORD", "from-env")

	var cfg Config
	require.NoError(t, config.NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, 15*time.Minute, cfg.Interval())
	assert.Equal(t, []string{"vc-01"}, cfg.SourceNames())

	src := cfg.Sources["vc-01"]
	assert.Equal(t, "from-env", src.Password)
	assert.Equal(t, "Berlin", src.ClusterSiteRelation["prod"])
	assert.True(t, src.collectAssetTag())

	require.NotNil(t, cfg.Journal)
	assert.True(t, cfg.Journal.Enabled())
	assert.False(t, cfg.NATS.Enabled())
}

func TestLoadConfigFileRejectsMissingToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vcsync.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "netbox": {"url": "https://netbox.example.com"},
  "sources": {"vc01": {"host_fqdn": "vc01", "username": "sync"}}
}`), 0o600))

	var cfg Config
	err := config.NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg)
	require.ErrorIs(t, err, config.ErrInvalidField)
	assert.Contains(t, err.Error(), "APIToken")
}
