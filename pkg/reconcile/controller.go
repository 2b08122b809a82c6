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

// Package reconcile binds hosts and virtual machines discovered in vCenter
// to CMDB records, creating a record only when no existing one represents
// the same entity.
package reconcile

//go:generate mockgen -destination=mock_backend.go -package=reconcile github.com/carverauto/vcsync/pkg/reconcile Backend

import (
	"context"
	"fmt"
	"net/netip"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

const (
	// StandaloneCluster houses hosts that are not part of any cluster.
	StandaloneCluster = "Standalone ESXi Host"
	// ClusterType is the CMDB cluster type of every vCenter cluster.
	ClusterType = "VMware ESXi"
	// DefaultRole is the device role used when none is configured.
	DefaultRole = "Server"
	roleColor   = "9e9e9e"
)

// Backend iterates the inventory of one virtualization backend. Every call
// walks a fresh, finite sequence; an error returned by fn stops the walk and
// is returned unchanged.
type Backend interface {
	EachDatacenter(ctx context.Context, fn func(name string) error) error
	EachCluster(ctx context.Context, fn func(*models.DiscoveredCluster) error) error
	EachHost(ctx context.Context, fn func(*models.DiscoveredEntity) error) error
	EachVirtualMachine(ctx context.Context, fn func(*models.DiscoveredEntity) error) error
}

// Options configures reconciliation for one source.
type Options struct {
	Source           string
	Filters          Filters
	PermittedSubnets []netip.Prefix
	ClusterSites     map[string]string
	HostRole         string
	VMRole           string
}

// SourceTag is attached to every record written for this source.
func (o *Options) SourceTag() string { return "Source: " + o.Source }

// DefaultSite holds hosts of clusters without a site relation.
func (o *Options) DefaultSite() string { return "vCenter: " + o.Source }

func (o *Options) siteFor(cluster string) string {
	if site, ok := o.ClusterSites[cluster]; ok && site != "" {
		return site
	}

	return o.DefaultSite()
}

// Controller drives one source through the datacenter, cluster, host and
// two VM passes. It processes entities strictly one at a time; each one is
// written to the store before the next is resolved.
type Controller struct {
	store  Store
	opts   Options
	logger logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewController(store Store, opts Options, log logger.Logger) *Controller {
	if opts.HostRole == "" {
		opts.HostRole = DefaultRole
	}

	if opts.VMRole == "" {
		opts.VMRole = DefaultRole
	}

	return &Controller{
		store:  store,
		opts:   opts,
		logger: log.WithComponent("reconcile"),
		tracer: otel.Tracer(meterName),
		now:    time.Now,
	}
}

// Run reconciles everything backend reports. Backend and store failures
// abort the run and are returned together with the partial report.
func (c *Controller) Run(ctx context.Context, backend Backend) (*models.Report, error) {
	ctx, span := c.tracer.Start(ctx, "reconcile.Run", trace.WithAttributes(attribute.String(attrSourceName, c.opts.Source)))
	defer span.End()

	state := NewRunState()
	report := &models.Report{RunID: state.RunID, Source: c.opts.Source, Started: c.now()}

	c.logger.Info().Str("source", c.opts.Source).Str("run_id", state.RunID).Msg("Starting reconciliation")

	err := c.run(ctx, backend, state, report)

	report.Finished = c.now()
	recordRunDuration(ctx, c.opts.Source, report.Finished.Sub(report.Started))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return report, err
	}

	stats := report.Stats()
	c.logger.Info().
		Str("source", c.opts.Source).
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("skipped", stats.Skipped).
		Dur("duration", report.Finished.Sub(report.Started)).
		Msg("Reconciliation finished")

	return report, nil
}

func (c *Controller) run(ctx context.Context, backend Backend, state *RunState, report *models.Report) error {
	if err := backend.EachDatacenter(ctx, c.addDatacenter); err != nil {
		return fmt.Errorf("failed to iterate datacenters: %w", err)
	}

	if err := backend.EachCluster(ctx, c.addCluster); err != nil {
		return fmt.Errorf("failed to iterate clusters: %w", err)
	}

	err := backend.EachHost(ctx, func(e *models.DiscoveredEntity) error {
		out, err := c.ProcessHost(ctx, state, e)
		if out != nil {
			report.Add(*out)
		}

		return err
	})
	if err != nil {
		return fmt.Errorf("failed to process hosts: %w", err)
	}

	if err := c.scanVMs(ctx, backend, state, report); err != nil {
		return err
	}

	state.Advance()

	if err := c.scanVMs(ctx, backend, state, report); err != nil {
		return err
	}

	return c.updateBasicData()
}

func (c *Controller) scanVMs(ctx context.Context, backend Backend, state *RunState, report *models.Report) error {
	ctx, span := c.tracer.Start(ctx, "reconcile.VMPass", trace.WithAttributes(attribute.String("pass", string(state.Pass()))))
	defer span.End()

	err := backend.EachVirtualMachine(ctx, func(e *models.DiscoveredEntity) error {
		out, err := c.ProcessVM(ctx, state, e)
		if out != nil {
			out.Pass = string(state.Pass())
			report.Add(*out)
		}

		return err
	})
	if err != nil {
		return fmt.Errorf("failed to process virtual machines (%s): %w", state.Pass(), err)
	}

	return nil
}

func (c *Controller) addDatacenter(name string) error {
	if name == "" {
		return nil
	}

	if _, err := c.store.Upsert(&models.ClusterGroup{Name: name}, nil); err != nil {
		return fmt.Errorf("failed to store cluster group %q: %w", name, err)
	}

	return nil
}

func (c *Controller) addCluster(cl *models.DiscoveredCluster) error {
	if cl == nil || cl.Name == "" {
		return nil
	}

	if !c.opts.Filters.Cluster.Allows(cl.Name) {
		c.logger.Debug().Str("cluster", cl.Name).Msg("Cluster filtered out")
		return nil
	}

	site := c.opts.siteFor(cl.Name)
	if err := c.ensureSite(site); err != nil {
		return err
	}

	_, err := c.store.Upsert(&models.Cluster{
		Name:  cl.Name,
		Type:  ClusterType,
		Group: cl.Datacenter,
		Site:  site,
		Tags:  []string{c.opts.SourceTag()},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to store cluster %q: %w", cl.Name, err)
	}

	return nil
}

func (c *Controller) ensureSite(name string) error {
	if _, err := c.store.Upsert(&models.Site{Name: name}, nil); err != nil {
		return fmt.Errorf("failed to store site %q: %w", name, err)
	}

	return nil
}

func (c *Controller) ensureStandaloneCluster() error {
	_, err := c.store.Upsert(&models.Cluster{
		Name: StandaloneCluster,
		Type: ClusterType,
		Tags: []string{c.opts.SourceTag()},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to store standalone cluster: %w", err)
	}

	return nil
}

// updateBasicData writes the source tag, the device roles, and refreshes
// the descriptions of the default site and the standalone cluster when they exist.
func (c *Controller) updateBasicData() error {
	tag := &models.Tag{
		Name:        c.opts.SourceTag(),
		Description: fmt.Sprintf("Marks objects synced from vCenter %q", c.opts.Source),
	}
	if _, err := c.store.Upsert(tag, nil); err != nil {
		return fmt.Errorf("failed to store source tag: %w", err)
	}

	site := &models.Site{Name: c.opts.DefaultSite()}
	if rec := c.store.Find(site, nil); rec != nil {
		site.Comments = "Default site for objects synced from vCenter " + c.opts.Source
		if err := c.store.Update(rec, site, nil); err != nil {
			return fmt.Errorf("failed to update default site: %w", err)
		}
	}

	standalone := &models.Cluster{Name: StandaloneCluster}
	if rec := c.store.Find(standalone, nil); rec != nil {
		standalone.Comments = "Cluster for ESXi hosts that are not part of a vCenter cluster"
		if err := c.store.Update(rec, standalone, nil); err != nil {
			return fmt.Errorf("failed to update standalone cluster: %w", err)
		}
	}

	vmRole := true

	for _, name := range uniqueStrings(c.opts.HostRole, c.opts.VMRole) {
		role := &models.DeviceRole{Name: name, Color: roleColor, VMRole: &vmRole}
		if _, err := c.store.Upsert(role, nil); err != nil {
			return fmt.Errorf("failed to store device role %q: %w", name, err)
		}
	}

	return nil
}

func uniqueStrings(values ...string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))

	for _, v := range values {
		if _, ok := seen[v]; ok || v == "" {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
