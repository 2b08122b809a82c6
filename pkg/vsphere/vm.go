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
	"reflect"
	"strings"

	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/normalize"
)

const bytesPerGB = 1024 * 1024 * 1024

func vmEntity(vm *mo.VirtualMachine, cluster string, nets *networkIndex, opts extractOptions) *models.DiscoveredEntity {
	e := &models.DiscoveredEntity{
		Kind:       models.EntityVM,
		Name:       normalize.String(vm.Name),
		Cluster:    cluster,
		Status:     models.StatusOffline,
		Interfaces: make(map[string]*models.DiscoveredInterface),
	}

	if vm.Runtime.PowerState == types.VirtualMachinePowerStatePoweredOn {
		e.Status = models.StatusActive
	}

	cfg := vm.Config
	if cfg == nil {
		return e
	}

	vcpus := int(cfg.Hardware.NumCPU)
	memory := int(cfg.Hardware.MemoryMB)
	disk := diskGB(cfg.Hardware.Device)

	e.UUID = cfg.Uuid
	e.Comments = normalize.String(cfg.Annotation)
	e.Platform = normalize.String(cfg.GuestFullName)
	e.VCPUs = &vcpus
	e.Memory = &memory
	e.Disk = &disk

	if vm.Guest != nil && vm.Guest.GuestFullName != "" {
		e.Platform = normalize.String(vm.Guest.GuestFullName)
	}

	addVMNICs(e, cfg.Hardware.Device, vm.Guest, nets, opts.permitted)

	return e
}

func diskGB(devices []types.BaseVirtualDevice) int {
	var total int64

	for _, dev := range devices {
		disk, ok := dev.(*types.VirtualDisk)
		if !ok {
			continue
		}

		if disk.CapacityInBytes > 0 {
			total += disk.CapacityInBytes
		} else {
			total += disk.CapacityInKB * 1024
		}
	}

	return int(total / bytesPerGB)
}

// addVMNICs adds one interface per virtual ethernet card. The first
// permitted address of a NIC whose subnet holds a default gateway becomes
// the primary IP of its family.
func addVMNICs(e *models.DiscoveredEntity, devices []types.BaseVirtualDevice, guest *types.GuestInfo, nets *networkIndex, permitted []netip.Prefix) {
	gateways := defaultGateways(guest)

	for _, dev := range devices {
		card, ok := dev.(types.BaseVirtualEthernetCard)
		if !ok {
			continue
		}

		eth := card.GetVirtualEthernetCard()

		label := ""
		if eth.DeviceInfo != nil {
			label = eth.DeviceInfo.GetDescription().Label
		}

		network, vlan := nets.backing(eth.Backing)

		nic := &models.DiscoveredInterface{
			Name:        vnicName(label, eth.Key, network),
			MACAddress:  normalize.MAC(eth.MacAddress),
			Kind:        models.InterfaceVirtual,
			Type:        "virtual",
			Description: vnicDescription(label, deviceClass(dev), vlan),
			Enabled:     eth.Connectable != nil && eth.Connectable.Connected,
			IPAddresses: guestAddresses(guest, eth.Key, normalize.MAC(eth.MacAddress)),
		}

		for _, addr := range nic.IPAddresses {
			if onGatewaySubnet(addr, gateways) {
				setPrimary(e, addr, permitted)
			}
		}

		e.Interfaces[nic.Name] = nic
	}
}

// vnicName turns "Network adapter 2" into "vNIC 2 (<network>)".
func vnicName(label string, key int32, network string) string {
	number := fmt.Sprint(key)
	if fields := strings.Fields(label); len(fields) > 0 {
		number = fields[len(fields)-1]
	}

	name := "vNIC " + number
	if network != "" {
		name += " (" + network + ")"
	}

	return name
}

func vnicDescription(label, class string, vlan int) string {
	desc := label
	if class != "" {
		desc = strings.TrimSpace(desc + " (" + class + ")")
	}

	if vlan > 0 {
		desc += fmt.Sprintf(" (vlan ID: %d)", vlan)
	}

	return desc
}

// deviceClass returns the card model, "Vmxnet3" for a VirtualVmxnet3.
func deviceClass(dev types.BaseVirtualDevice) string {
	t := reflect.TypeOf(dev)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return strings.TrimPrefix(t.Name(), "Virtual")
}

// guestAddresses returns the addresses VMware Tools reports for the card
// with the given device key or MAC.
func guestAddresses(guest *types.GuestInfo, key int32, mac string) []string {
	if guest == nil {
		return nil
	}

	var out []string

	for i := range guest.Net {
		gn := &guest.Net[i]
		if gn.DeviceConfigId != key && (mac == "" || normalize.MAC(gn.MacAddress) != mac) {
			continue
		}

		if gn.IpConfig != nil && len(gn.IpConfig.IpAddress) > 0 {
			for _, a := range gn.IpConfig.IpAddress {
				if addr := normalize.IPWithPrefix(a.IpAddress, int(a.PrefixLength)); addr != "" {
					out = append(out, addr)
				}
			}

			continue
		}

		for _, raw := range gn.IpAddress {
			if addr := normalize.IP(raw); addr != "" {
				out = append(out, addr)
			}
		}
	}

	return out
}

func defaultGateways(guest *types.GuestInfo) []netip.Addr {
	if guest == nil {
		return nil
	}

	var out []netip.Addr

	for _, stack := range guest.IpStack {
		if stack.IpRouteConfig == nil {
			continue
		}

		for _, route := range stack.IpRouteConfig.IpRoute {
			if route.PrefixLength != 0 {
				continue
			}

			if gw, err := netip.ParseAddr(route.Gateway.IpAddress); err == nil {
				out = append(out, gw.Unmap())
			}
		}
	}

	return out
}

func onGatewaySubnet(addr string, gateways []netip.Addr) bool {
	p, err := netip.ParsePrefix(addr)
	if err != nil {
		return false
	}

	p = p.Masked()

	for _, gw := range gateways {
		if p.Contains(gw) {
			return true
		}
	}

	return false
}
