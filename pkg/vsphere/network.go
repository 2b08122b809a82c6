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
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

type portGroup struct {
	name string
	vlan int
}

// networkIndex resolves NIC backings to network names and VLAN IDs.
type networkIndex struct {
	names        map[string]string    // network reference -> name
	dvPortGroups map[string]portGroup // distributed port group key
	vlans        map[string]int       // standard port group name -> VLAN
}

func newNetworkIndex() *networkIndex {
	return &networkIndex{
		names:        make(map[string]string),
		dvPortGroups: make(map[string]portGroup),
		vlans:        make(map[string]int),
	}
}

func (n *networkIndex) addNetworks(nets []mo.Network) {
	for i := range nets {
		n.names[nets[i].Reference().Value] = nets[i].Name
	}
}

func (n *networkIndex) addPortGroups(pgs []mo.DistributedVirtualPortgroup) {
	for i := range pgs {
		pg := &pgs[i]
		n.dvPortGroups[pg.Key] = portGroup{name: pg.Name, vlan: dvVLAN(pg.Config.DefaultPortConfig)}
	}
}

func (n *networkIndex) addHostPortGroups(info *types.HostNetworkInfo) {
	for _, pg := range info.Portgroup {
		if pg.Spec.Name != "" && pg.Spec.VlanId > 0 {
			n.vlans[pg.Spec.Name] = int(pg.Spec.VlanId)
		}
	}
}

func dvVLAN(setting types.BaseDVPortSetting) int {
	vmw, ok := setting.(*types.VMwareDVSPortSetting)
	if !ok || vmw == nil {
		return 0
	}

	if spec, ok := vmw.Vlan.(*types.VmwareDistributedVirtualSwitchVlanIdSpec); ok && spec != nil {
		return int(spec.VlanId)
	}

	return 0
}

// portGroupByKey returns the distributed port group name for key.
func (n *networkIndex) portGroupByKey(key string) string {
	return n.dvPortGroups[key].name
}

// backing returns the network name and VLAN ID of a virtual NIC backing.
func (n *networkIndex) backing(b types.BaseVirtualDeviceBackingInfo) (string, int) {
	switch v := b.(type) {
	case *types.VirtualEthernetCardNetworkBackingInfo:
		name := v.DeviceName
		if name == "" && v.Network != nil {
			name = n.names[v.Network.Value]
		}

		return name, n.vlans[name]
	case *types.VirtualEthernetCardDistributedVirtualPortBackingInfo:
		pg := n.dvPortGroups[v.Port.PortgroupKey]
		return pg.name, pg.vlan
	default:
		return "", 0
	}
}
