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

package vsphere

import (
	"context"
	"sort"

	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/carverauto/vcsync/pkg/models"
)

//nolint:gochecknoglobals // property paths requested from vCenter
var (
	hostProperties        = []string{"name", "parent", "summary", "config.network"}
	hostPlacementProperty = []string{"name", "parent", "config.network.portgroup"}
	vmProperties          = []string{"name", "config", "runtime", "guest"}
)

func (s *Source) datacenters(ctx context.Context) ([]mo.Datacenter, error) {
	var dcs []mo.Datacenter
	if err := s.retrieve(ctx, s.root(), "Datacenter", []string{"name"}, &dcs); err != nil {
		return nil, err
	}

	sort.Slice(dcs, func(i, j int) bool { return dcs[i].Name < dcs[j].Name })

	return dcs, nil
}

func (s *Source) EachDatacenter(ctx context.Context, fn func(name string) error) error {
	dcs, err := s.datacenters(ctx)
	if err != nil {
		return err
	}

	for i := range dcs {
		if err := fn(dcs[i].Name); err != nil {
			return err
		}
	}

	return nil
}

func (s *Source) EachCluster(ctx context.Context, fn func(*models.DiscoveredCluster) error) error {
	dcs, err := s.datacenters(ctx)
	if err != nil {
		return err
	}

	for i := range dcs {
		var clusters []mo.ClusterComputeResource
		if err := s.retrieve(ctx, dcs[i].Reference(), "ClusterComputeResource", []string{"name"}, &clusters); err != nil {
			return err
		}

		for j := range clusters {
			if err := fn(&models.DiscoveredCluster{Name: clusters[j].Name, Datacenter: dcs[i].Name}); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *Source) EachHost(ctx context.Context, fn func(*models.DiscoveredEntity) error) error {
	computes, err := s.computeResources(ctx)
	if err != nil {
		return err
	}

	nets, err := s.networks(ctx)
	if err != nil {
		return err
	}

	var hosts []mo.HostSystem
	if err := s.retrieve(ctx, s.root(), "HostSystem", hostProperties, &hosts); err != nil {
		return err
	}

	opts := s.extractOptions()

	for i := range hosts {
		if err := fn(hostEntity(&hosts[i], parentName(computes, hosts[i].Parent), nets, opts)); err != nil {
			return err
		}
	}

	return nil
}

func (s *Source) EachVirtualMachine(ctx context.Context, fn func(*models.DiscoveredEntity) error) error {
	computes, err := s.computeResources(ctx)
	if err != nil {
		return err
	}

	nets, err := s.networks(ctx)
	if err != nil {
		return err
	}

	var hosts []mo.HostSystem
	if err := s.retrieve(ctx, s.root(), "HostSystem", hostPlacementProperty, &hosts); err != nil {
		return err
	}

	hostCluster := make(map[string]string, len(hosts))

	for i := range hosts {
		hostCluster[hosts[i].Reference().Value] = parentName(computes, hosts[i].Parent)

		if cfg := hosts[i].Config; cfg != nil && cfg.Network != nil {
			nets.addHostPortGroups(cfg.Network)
		}
	}

	var vms []mo.VirtualMachine
	if err := s.retrieve(ctx, s.root(), "VirtualMachine", vmProperties, &vms); err != nil {
		return err
	}

	opts := s.extractOptions()

	for i := range vms {
		vm := &vms[i]

		if vm.Config != nil && vm.Config.Template {
			s.logger.Debug().Str("vm", vm.Name).Msg("Skipping VM template")
			continue
		}

		cluster := ""
		if vm.Runtime.Host != nil {
			cluster = hostCluster[vm.Runtime.Host.Value]
		}

		e := vmEntity(vm, cluster, nets, opts)
		if e.Name == "" {
			s.logger.Debug().Str("uuid", e.UUID).Msg("Skipping VM without a name")
			continue
		}

		if err := fn(e); err != nil {
			return err
		}
	}

	return nil
}

// computeResources maps compute resource references to their names. A
// standalone host sits in a compute resource named after the host.
func (s *Source) computeResources(ctx context.Context) (map[string]string, error) {
	var crs []mo.ComputeResource
	if err := s.retrieve(ctx, s.root(), "ComputeResource", []string{"name"}, &crs); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(crs))
	for i := range crs {
		names[crs[i].Reference().Value] = crs[i].Name
	}

	return names, nil
}

func (s *Source) networks(ctx context.Context) (*networkIndex, error) {
	var nets []mo.Network
	if err := s.retrieve(ctx, s.root(), "Network", []string{"name"}, &nets); err != nil {
		return nil, err
	}

	var pgs []mo.DistributedVirtualPortgroup
	if err := s.retrieve(ctx, s.root(), "DistributedVirtualPortgroup", []string{"name", "key", "config.defaultPortConfig"}, &pgs); err != nil {
		return nil, err
	}

	ix := newNetworkIndex()
	ix.addNetworks(nets)
	ix.addPortGroups(pgs)

	return ix, nil
}

func (s *Source) extractOptions() extractOptions {
	return extractOptions{
		collectAssetTag: s.cfg.CollectAssetTag,
		permitted:       s.cfg.PermittedSubnets,
	}
}

func parentName(names map[string]string, parent *types.ManagedObjectReference) string {
	if parent == nil {
		return ""
	}

	return names[parent.Value]
}
