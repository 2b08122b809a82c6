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
	"errors"
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"time"

	"github.com/carverauto/vcsync/pkg/events"
	"github.com/carverauto/vcsync/pkg/journal"
	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/netbox"
	"github.com/carverauto/vcsync/pkg/reconcile"
	"github.com/carverauto/vcsync/pkg/vsphere"
)

var (
	errNoSources            = errors.New("at least one source is required")
	errNegativePollInterval = errors.New("poll_interval must not be negative")
	errSiteRelation         = errors.New("cluster_site_relation needs a cluster and a site name")
	errHostRequired         = errors.New("host_fqdn is required")
)

const defaultPollInterval = time.Hour

// defaultPermittedSubnets apply when a source does not list permitted_subnets.
//
//nolint:gochecknoglobals // immutable default list
var defaultPermittedSubnets = []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "fd00::/8"}

// Config is the top-level vcsync configuration.
type Config struct {
	Sources      map[string]SourceConfig `json:"sources" yaml:"sources" validate:"required,min=1,dive"`
	NetBox       netbox.Config           `json:"netbox" yaml:"netbox"`
	PollInterval models.Duration         `json:"poll_interval" yaml:"poll_interval"`
	NATS         *events.Config          `json:"nats,omitempty" yaml:"nats,omitempty"`
	Journal      *journal.Config         `json:"journal,omitempty" yaml:"journal,omitempty"`
	Logging      *logger.Config          `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// SourceConfig describes one vCenter and how its inventory maps onto the
// CMDB.
type SourceConfig struct {
	HostFQDN           string          `json:"host_fqdn" yaml:"host_fqdn"`
	Port               int             `json:"port" yaml:"port" validate:"gte=0,lte=65535"`
	Username           string          `json:"username" yaml:"username" validate:"required"`
	Password           string          `json:"password" yaml:"password"`
	InsecureSkipVerify bool            `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Timeout            models.Duration `json:"timeout" yaml:"timeout"`

	ClusterIncludeFilter string `json:"cluster_include_filter" yaml:"cluster_include_filter"`
	ClusterExcludeFilter string `json:"cluster_exclude_filter" yaml:"cluster_exclude_filter"`
	HostIncludeFilter    string `json:"host_include_filter" yaml:"host_include_filter"`
	HostExcludeFilter    string `json:"host_exclude_filter" yaml:"host_exclude_filter"`
	VMIncludeFilter      string `json:"vm_include_filter" yaml:"vm_include_filter"`
	VMExcludeFilter      string `json:"vm_exclude_filter" yaml:"vm_exclude_filter"`

	PermittedSubnets        []string          `json:"permitted_subnets" yaml:"permitted_subnets"`
	ClusterSiteRelation     map[string]string `json:"cluster_site_relation" yaml:"cluster_site_relation"`
	HostRole                string            `json:"host_role" yaml:"host_role"`
	VMRole                  string            `json:"vm_role" yaml:"vm_role"`
	CollectHardwareAssetTag *bool             `json:"collect_hardware_asset_tag" yaml:"collect_hardware_asset_tag"`
}

// Validate checks what struct tags cannot: filter patterns, subnets and the
// cluster to site relation of every source. All problems are reported.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Sources) == 0 {
		errs = append(errs, errNoSources)
	}

	if c.PollInterval < 0 {
		errs = append(errs, errNegativePollInterval)
	}

	for _, name := range c.SourceNames() {
		src := c.Sources[name]
		if err := src.validate(); err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// SourceNames returns the configured source names in sorted order.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Interval is the poll interval with the default applied.
func (c *Config) Interval() time.Duration {
	if c.PollInterval <= 0 {
		return defaultPollInterval
	}

	return time.Duration(c.PollInterval)
}

func (c *SourceConfig) validate() error {
	var errs []error

	if strings.TrimSpace(c.HostFQDN) == "" {
		errs = append(errs, errHostRequired)
	}

	if _, err := c.filters(); err != nil {
		errs = append(errs, err)
	}

	if _, err := c.subnets(); err != nil {
		errs = append(errs, err)
	}

	for cluster, site := range c.ClusterSiteRelation {
		if strings.TrimSpace(cluster) == "" || strings.TrimSpace(site) == "" {
			errs = append(errs, fmt.Errorf("%w: %q = %q", errSiteRelation, cluster, site))
		}
	}

	return errors.Join(errs...)
}

func (c *SourceConfig) collectAssetTag() bool {
	return c.CollectHardwareAssetTag == nil || *c.CollectHardwareAssetTag
}

func (c *SourceConfig) filters() (reconcile.Filters, error) {
	var (
		f   reconcile.Filters
		err error
	)

	if f.Cluster, err = reconcile.NewFilter(c.ClusterIncludeFilter, c.ClusterExcludeFilter); err != nil {
		return reconcile.Filters{}, fmt.Errorf("cluster %w", err)
	}

	if f.Host, err = reconcile.NewFilter(c.HostIncludeFilter, c.HostExcludeFilter); err != nil {
		return reconcile.Filters{}, fmt.Errorf("host %w", err)
	}

	if f.VM, err = reconcile.NewFilter(c.VMIncludeFilter, c.VMExcludeFilter); err != nil {
		return reconcile.Filters{}, fmt.Errorf("vm %w", err)
	}

	return f, nil
}

func (c *SourceConfig) subnets() ([]netip.Prefix, error) {
	raw := c.PermittedSubnets
	if raw == nil {
		raw = defaultPermittedSubnets
	}

	out := make([]netip.Prefix, 0, len(raw))

	for _, s := range raw {
		p, err := netip.ParsePrefix(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("permitted_subnets: %w", err)
		}

		out = append(out, p.Masked())
	}

	return out, nil
}

// options builds the reconciliation options of the source called name.
func (c *SourceConfig) options(name string) (reconcile.Options, error) {
	filters, err := c.filters()
	if err != nil {
		return reconcile.Options{}, err
	}

	subnets, err := c.subnets()
	if err != nil {
		return reconcile.Options{}, err
	}

	return reconcile.Options{
		Source:           name,
		Filters:          filters,
		PermittedSubnets: subnets,
		ClusterSites:     c.ClusterSiteRelation,
		HostRole:         c.HostRole,
		VMRole:           c.VMRole,
	}, nil
}

// vsphereConfig builds the connection settings; subnets come from options.
func (c *SourceConfig) vsphereConfig(subnets []netip.Prefix) *vsphere.Config {
	return &vsphere.Config{
		Host:               strings.TrimSpace(c.HostFQDN),
		Port:               c.Port,
		Username:           c.Username,
		Password:           c.Password,
		InsecureSkipVerify: c.InsecureSkipVerify,
		Timeout:            time.Duration(c.Timeout),
		CollectAssetTag:    c.collectAssetTag(),
		PermittedSubnets:   subnets,
	}
}
