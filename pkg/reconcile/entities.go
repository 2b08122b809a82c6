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
	"fmt"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/normalize"
)

// resolveRequest carries what the object resolvers may consult.
type resolveRequest struct {
	entity *models.DiscoveredEntity
	object models.Object
	ipv4   string
	ipv6   string
}

// matchMACs are the MACs the MAC strategy may count. Hosts are matched by
// their pNICs only; VMkernel adapters share MACs across unrelated hosts.
func (r *resolveRequest) matchMACs() []string {
	if r.entity.Kind == models.EntityHost {
		return r.entity.MACs(models.InterfacePhysical)
	}

	return r.entity.MACs()
}

type objectResolver struct {
	strategy models.Strategy
	resolve  func(ctx context.Context, c *Controller, req *resolveRequest) *inventory.Record
}

// objectResolvers is consulted in order; the first match wins.
//
//nolint:gochecknoglobals // fixed strategy table
var objectResolvers = []objectResolver{
	{
		strategy: models.StrategyExact,
		resolve: func(_ context.Context, c *Controller, req *resolveRequest) *inventory.Record {
			return c.store.Find(req.object, nil)
		},
	},
	{
		strategy: models.StrategyMAC,
		resolve: func(ctx context.Context, c *Controller, req *resolveRequest) *inventory.Record {
			rec, ambiguous := ResolveByMACs(c.store, req.object.Kind(), req.matchMACs())
			if ambiguous {
				recordAmbiguousMAC(ctx, req.entity.Kind)
				c.logger.Debug().
					Str("name", req.entity.Name).
					Msg("MAC addresses match several records without a clear winner")
			}

			return rec
		},
	},
	{
		strategy: models.StrategyPrimaryIP,
		resolve: func(_ context.Context, c *Controller, req *resolveRequest) *inventory.Record {
			return ResolveByPrimaryIP(c.store, req.object.Kind(), req.ipv4, req.ipv6)
		},
	},
}

// ProcessHost resolves and writes one host. It returns a nil outcome only
// together with an error.
func (c *Controller) ProcessHost(ctx context.Context, state *RunState, e *models.DiscoveredEntity) (*models.Outcome, error) {
	out := &models.Outcome{Kind: models.EntityHost, Name: e.Name}

	if e.Name == "" {
		c.logger.Error().Str("cluster", e.Cluster).Msg("Host has no name, skipping")
		return c.skip(ctx, out, skipReasonNoName), nil
	}

	if !state.claimHost(e.Name) {
		c.logger.Warn().Str("host", e.Name).Msg("Host name already processed in this run, skipping duplicate")
		return c.skip(ctx, out, skipReasonDuplicate), nil
	}

	if !c.opts.Filters.Host.Allows(e.Name) {
		c.logger.Debug().Str("host", e.Name).Msg("Host filtered out")
		return c.skip(ctx, out, skipReasonFiltered), nil
	}

	cluster := e.Cluster
	standalone := cluster == e.Name

	if !standalone && cluster != "" && !c.opts.Filters.Cluster.Allows(cluster) {
		c.logger.Debug().Str("host", e.Name).Str("cluster", cluster).Msg("Host cluster filtered out")
		return c.skip(ctx, out, skipReasonClusterRule), nil
	}

	site := c.opts.siteFor(cluster)

	if standalone {
		state.markStandalone(e.Name)
		cluster = StandaloneCluster

		if err := c.ensureStandaloneCluster(); err != nil {
			return nil, err
		}
	}

	if err := c.ensureSite(site); err != nil {
		return nil, err
	}

	ipv4, ipv6 := c.permittedPrimaries(e)

	device := &models.Device{
		Name:         e.Name,
		Role:         c.opts.HostRole,
		Manufacturer: e.Manufacturer,
		Model:        e.Model,
		Site:         site,
		Cluster:      cluster,
		Status:       e.Status,
		Serial:       e.Serial,
		AssetTag:     e.AssetTag,
		Platform:     e.Platform,
		Tags:         []string{c.opts.SourceTag()},
	}

	return c.bind(ctx, out, &resolveRequest{entity: e, object: device, ipv4: ipv4, ipv6: ipv6})
}

// ProcessVM resolves and writes one virtual machine. A nil outcome with a
// nil error means the VM was left for a later pass or was already bound
// in an earlier one.
func (c *Controller) ProcessVM(ctx context.Context, state *RunState, e *models.DiscoveredEntity) (*models.Outcome, error) {
	out := &models.Outcome{Kind: models.EntityVM, Name: e.Name, UUID: e.UUID}

	if pass, seen := state.vmUUIDPass(e.UUID); seen {
		if pass != state.Pass() {
			return nil, nil
		}

		c.logger.Warn().Str("vm", e.Name).Str("uuid", e.UUID).Msg("VM UUID already processed in this pass, skipping duplicate")

		return c.skip(ctx, out, skipReasonDuplicate), nil
	}

	if pass, skipped := state.skippedIn(e); skipped && pass != state.Pass() {
		return nil, nil
	}

	if state.Pass() == PassScanningActive && e.Status != models.StatusActive {
		return nil, nil
	}

	if e.Name == "" {
		c.logger.Error().Str("uuid", e.UUID).Msg("VM has no name, skipping")
		return c.skipVM(ctx, state, e, out, skipReasonNoName), nil
	}

	if !c.opts.Filters.VM.Allows(e.Name) {
		c.logger.Debug().Str("vm", e.Name).Msg("VM filtered out")
		return c.skipVM(ctx, state, e, out, skipReasonFiltered), nil
	}

	cluster := e.Cluster
	if cluster == "" {
		c.logger.Error().Str("vm", e.Name).Msg("Unable to determine cluster of VM, skipping")
		return c.skipVM(ctx, state, e, out, skipReasonNoCluster), nil
	}

	if state.isStandalone(cluster) {
		cluster = StandaloneCluster
	} else if !c.opts.Filters.Cluster.Allows(cluster) {
		c.logger.Debug().Str("vm", e.Name).Str("cluster", cluster).Msg("VM cluster filtered out")
		return c.skipVM(ctx, state, e, out, skipReasonClusterRule), nil
	}

	if pass, seen := state.vmNamePass(e.Name); seen {
		if e.UUID == "" && pass != state.Pass() {
			c.logger.Debug().Str("vm", e.Name).Str("pass", string(pass)).
				Msg("VM without UUID already bound in an earlier pass, skipping")

			return nil, nil
		}

		c.logger.Warn().Str("vm", e.Name).Str("uuid", e.UUID).Msg("VM name already processed in this run, skipping duplicate")

		return c.skip(ctx, out, skipReasonDuplicate), nil
	}

	state.markVM(e.UUID, e.Name)

	ipv4, ipv6 := c.permittedPrimaries(e)

	vm := &models.VirtualMachine{
		Name:     e.Name,
		Cluster:  cluster,
		Role:     c.opts.VMRole,
		Status:   e.Status,
		Platform: e.Platform,
		VCPUs:    e.VCPUs,
		Memory:   e.Memory,
		Disk:     e.Disk,
		Comments: e.Comments,
		Tags:     []string{c.opts.SourceTag()},
	}

	return c.bind(ctx, out, &resolveRequest{entity: e, object: vm, ipv4: ipv4, ipv6: ipv6})
}

// skipVM rejects a VM and remembers it so the next pass does not count it twice.
func (c *Controller) skipVM(
	ctx context.Context, state *RunState, e *models.DiscoveredEntity, out *models.Outcome, reason string,
) *models.Outcome {
	state.markSkipped(e)

	return c.skip(ctx, out, reason)
}

func (c *Controller) skip(ctx context.Context, out *models.Outcome, reason string) *models.Outcome {
	recordSkip(ctx, out.Kind, reason)

	out.Action = models.ActionSkipped
	out.Reason = reason

	return out
}

// bind resolves req to an existing record, updating it, or creates one, and
// then writes the entity's interfaces and addresses.
func (c *Controller) bind(ctx context.Context, out *models.Outcome, req *resolveRequest) (*models.Outcome, error) {
	var (
		rec      *inventory.Record
		strategy = models.StrategyNone
	)

	for _, r := range objectResolvers {
		if rec = r.resolve(ctx, c, req); rec != nil {
			strategy = r.strategy
			break
		}
	}

	if rec == nil {
		created, err := c.store.Create(req.object, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s %q: %w", req.object.Kind(), req.entity.Name, err)
		}

		rec = created
		out.Action = models.ActionCreated
	} else {
		if err := c.store.Update(rec, req.object, nil); err != nil {
			return nil, fmt.Errorf("failed to update %s %q: %w", req.object.Kind(), req.entity.Name, err)
		}

		out.Action = models.ActionUpdated
	}

	if err := c.syncInterfaces(rec, req); err != nil {
		return nil, err
	}

	recordResolution(ctx, req.entity.Kind, strategy)

	out.Strategy = strategy
	out.RecordID = rec.ID

	c.logger.Debug().
		Str("name", req.entity.Name).
		Str("strategy", string(strategy)).
		Str("action", string(out.Action)).
		Msg("Entity reconciled")

	return out, nil
}

func (c *Controller) syncInterfaces(parent *inventory.Record, req *resolveRequest) error {
	e := req.entity
	kind := interfaceKindFor(parent.Kind())
	matches := ReconcileInterfaces(c.store, parent, e.Interfaces)

	var primary4, primary6 models.IPRef

	for _, name := range e.InterfaceNames() {
		nic := e.Interfaces[name]
		if nic == nil {
			continue
		}

		obj := c.interfaceObject(kind, name, nic)

		nicRec := matches[name]
		if nicRec == nil {
			created, err := c.store.Create(obj, parent)
			if err != nil {
				return fmt.Errorf("failed to create interface %q of %q: %w", name, e.Name, err)
			}

			nicRec = created
		} else if err := c.store.Update(nicRec, obj, nil); err != nil {
			return fmt.Errorf("failed to update interface %q of %q: %w", name, e.Name, err)
		}

		for _, raw := range nic.IPAddresses {
			addr := normalize.IP(raw)
			if !normalize.IPPermitted(addr, c.opts.PermittedSubnets) {
				c.logger.Debug().Str("interface", name).Str("ip", raw).Msg("IP address not permitted, skipping")
				continue
			}

			isPrimary := sameAddress(normalize.StripPrefix(addr), normalize.StripPrefix(req.ipv4)) ||
				sameAddress(normalize.StripPrefix(addr), normalize.StripPrefix(req.ipv6))

			ipRec, err := c.store.Upsert(&models.IPAddress{
				Address: addr,
				Primary: isPrimary,
				Tags:    []string{c.opts.SourceTag()},
			}, nicRec)
			if err != nil {
				return fmt.Errorf("failed to store IP %s of %q: %w", addr, e.Name, err)
			}

			if !isPrimary {
				continue
			}

			ref := models.IPRef{Address: addr, ID: ipRec.ID}
			if normalize.Family(addr) == 4 {
				primary4 = ref
			} else {
				primary6 = ref
			}
		}
	}

	if primary4.IsZero() && primary6.IsZero() {
		return nil
	}

	if err := c.store.Update(parent, primaryPatch(parent.Kind(), primary4, primary6), nil); err != nil {
		return fmt.Errorf("failed to set primary IP of %q: %w", e.Name, err)
	}

	return nil
}

func (c *Controller) interfaceObject(kind models.Kind, name string, nic *models.DiscoveredInterface) models.Object {
	enabled := nic.Enabled

	data := models.NIC{
		Name:        name,
		MACAddress:  nic.MACAddress,
		Type:        nic.Type,
		Description: nic.Description,
		Enabled:     &enabled,
		MTU:         nic.MTU,
		Tags:        []string{c.opts.SourceTag()},
	}

	if kind == models.KindVMInterface {
		data.Type = ""
		return &models.VMInterface{NIC: data}
	}

	if data.Type == "" {
		data.Type = "other"
		if nic.Kind != models.InterfacePhysical {
			data.Type = "virtual"
		}
	}

	return &models.Interface{NIC: data}
}

func primaryPatch(kind models.Kind, v4, v6 models.IPRef) models.Object {
	if kind == models.KindVirtualMachine {
		return &models.VirtualMachine{PrimaryIP4: v4, PrimaryIP6: v6}
	}

	return &models.Device{PrimaryIP4: v4, PrimaryIP6: v6}
}

// permittedPrimaries returns the entity's primary addresses that may be
// written, in addr/prefix form.
func (c *Controller) permittedPrimaries(e *models.DiscoveredEntity) (string, string) {
	pick := func(raw string) string {
		addr := normalize.IP(raw)
		if addr == "" || !normalize.IPPermitted(addr, c.opts.PermittedSubnets) {
			return ""
		}

		return addr
	}

	return pick(e.PrimaryIP4), pick(e.PrimaryIP6)
}
