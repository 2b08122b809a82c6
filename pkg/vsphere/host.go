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
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/normalize"
)

type extractOptions struct {
	collectAssetTag bool
	permitted       []netip.Prefix
}

//nolint:gochecknoglobals // lookup tables
var (
	// serialKeys lists identifying info keys in order of preference.
	serialKeys = []string{"EnclosureSerialNumberTag", "SerialNumberTag", "ServiceTag"}

	// placeholderAssetTags are vendor defaults that carry no information.
	placeholderAssetTags = []string{
		"default string", "na", "n/a", "none", "null", "oem", "o.e.m",
		"to be filled by o.e.m.", "unknown",
	}

	pnicTypes = map[int]string{
		100:   "100base-tx",
		1000:  "1000base-t",
		10000: "10gbase-t",
		25000: "25gbase-x-sfp28",
		40000: "40gbase-x-qsfpp",
	}
)

const assetTagKey = "AssetTag"

type hostSwitch struct {
	name string
	mtu  int
}

func hostEntity(h *mo.HostSystem, cluster string, nets *networkIndex, opts extractOptions) *models.DiscoveredEntity {
	e := &models.DiscoveredEntity{
		Kind:       models.EntityHost,
		Name:       normalize.String(h.Name),
		Cluster:    cluster,
		Status:     hostStatus(h),
		Interfaces: make(map[string]*models.DiscoveredInterface),
	}

	if hw := h.Summary.Hardware; hw != nil {
		e.Manufacturer = normalize.String(hw.Vendor)
		e.Model = normalize.String(hw.Model)
		e.Serial, e.AssetTag = identifyingInfo(hw.OtherIdentifyingInfo, opts.collectAssetTag)
	}

	if p := h.Summary.Config.Product; p != nil {
		e.Platform = normalize.String(p.Name + " " + p.Version)
	}

	if h.Config != nil && h.Config.Network != nil {
		addPhysicalNICs(e, h.Config.Network)
		addVMKernelNICs(e, h.Config.Network, nets, opts.permitted)
	}

	return e
}

func hostStatus(h *mo.HostSystem) models.Status {
	state := h.Runtime.ConnectionState
	if h.Summary.Runtime != nil {
		state = h.Summary.Runtime.ConnectionState
	}

	if state == types.HostSystemConnectionStateConnected {
		return models.StatusActive
	}

	return models.StatusOffline
}

// identifyingInfo returns the preferred serial number and, when enabled,
// the asset tag unless it is a vendor placeholder.
func identifyingInfo(infos []types.HostSystemIdentificationInfo, withAssetTag bool) (serial, assetTag string) {
	values := make(map[string]string, len(infos))

	for _, info := range infos {
		if info.IdentifierType == nil {
			continue
		}

		key := info.IdentifierType.GetElementDescription().Key
		if v := normalize.String(info.IdentifierValue); v != "" {
			if _, ok := values[key]; !ok {
				values[key] = v
			}
		}
	}

	for _, key := range serialKeys {
		if v := values[key]; v != "" {
			serial = v
			break
		}
	}

	if withAssetTag {
		tag := values[assetTagKey]
		if !slices.Contains(placeholderAssetTags, strings.ToLower(tag)) {
			assetTag = tag
		}
	}

	return serial, assetTag
}

func addPhysicalNICs(e *models.DiscoveredEntity, network *types.HostNetworkInfo) {
	switches := pnicSwitches(network)

	for _, pnic := range network.Pnic {
		nic := &models.DiscoveredInterface{
			Name:       pnic.Device,
			MACAddress: normalize.MAC(pnic.Mac),
			Kind:       models.InterfacePhysical,
			Type:       "other",
		}

		speed := 0
		if pnic.LinkSpeed != nil {
			speed = int(pnic.LinkSpeed.SpeedMb)
			nic.Enabled = true
		}

		if t, ok := pnicTypes[speed]; ok {
			nic.Type = t
		}

		sw := switches[pnic.Key]
		if sw.mtu > 0 {
			mtu := sw.mtu
			nic.MTU = &mtu
		}

		nic.Description = pnicDescription(speed, sw.name)
		e.Interfaces[nic.Name] = nic
	}
}

// pnicSwitches maps physical NIC keys to the standard or distributed
// switch using them as uplink.
func pnicSwitches(network *types.HostNetworkInfo) map[string]hostSwitch {
	out := make(map[string]hostSwitch)

	for _, vs := range network.Vswitch {
		for _, key := range vs.Pnic {
			out[key] = hostSwitch{name: vs.Name, mtu: int(vs.Mtu)}
		}
	}

	for _, ps := range network.ProxySwitch {
		for _, key := range ps.Pnic {
			out[key] = hostSwitch{name: ps.DvsName, mtu: int(ps.Mtu)}
		}
	}

	return out
}

func pnicDescription(speedMb int, switchName string) string {
	desc := "pNIC"

	switch {
	case speedMb >= 1000:
		desc = fmt.Sprintf("%dGb/s pNIC", speedMb/1000)
	case speedMb > 0:
		desc = fmt.Sprintf("%dMb/s pNIC", speedMb)
	}

	if switchName != "" {
		desc += " (" + switchName + ")"
	}

	return desc
}

// addVMKernelNICs adds the host's vmk interfaces. A vmk on a management
// port group or with its own IP route provides the host's primary IPs.
func addVMKernelNICs(e *models.DiscoveredEntity, network *types.HostNetworkInfo, nets *networkIndex, permitted []netip.Prefix) {
	for _, vnic := range network.Vnic {
		nic := &models.DiscoveredInterface{
			Name:        vnic.Device,
			MACAddress:  normalize.MAC(vnic.Spec.Mac),
			Kind:        models.InterfaceVirtual,
			Type:        "virtual",
			Enabled:     true,
			Description: vnic.Portgroup,
		}

		if nic.Description == "" && vnic.Spec.DistributedVirtualPort != nil {
			nic.Description = nets.portGroupByKey(vnic.Spec.DistributedVirtualPort.PortgroupKey)
		}

		if vnic.Spec.Mtu > 0 {
			mtu := int(vnic.Spec.Mtu)
			nic.MTU = &mtu
		}

		if ip := vnic.Spec.Ip; ip != nil {
			if addr := normalize.IPWithMask(ip.IpAddress, ip.SubnetMask); addr != "" {
				nic.IPAddresses = append(nic.IPAddresses, addr)
			}

			if ip.IpV6Config != nil {
				for _, v6 := range ip.IpV6Config.IpV6Address {
					if addr := normalize.IPWithPrefix(v6.IpAddress, int(v6.PrefixLength)); addr != "" {
						nic.IPAddresses = append(nic.IPAddresses, addr)
					}
				}
			}
		}

		if strings.Contains(strings.ToLower(nic.Description), "management") || vnic.Spec.IpRouteSpec != nil {
			for _, addr := range nic.IPAddresses {
				setPrimary(e, addr, permitted)
			}
		}

		e.Interfaces[nic.Name] = nic
	}
}

// setPrimary records addr as the primary IP of its family unless one is
// already set or addr is not permitted.
func setPrimary(e *models.DiscoveredEntity, addr string, permitted []netip.Prefix) {
	if !normalize.IPPermitted(addr, permitted) {
		return
	}

	switch normalize.Family(addr) {
	case 4:
		if e.PrimaryIP4 == "" {
			e.PrimaryIP4 = addr
		}
	case 6:
		if e.PrimaryIP6 == "" {
			e.PrimaryIP6 = addr
		}
	}
}
