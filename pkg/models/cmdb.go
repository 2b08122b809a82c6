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

package models

import (
	"slices"
	"strings"
)

// Kind identifies a CMDB object type.
type Kind string

const (
	KindTag            Kind = "tag"
	KindSite           Kind = "site"
	KindClusterGroup   Kind = "cluster_group"
	KindCluster        Kind = "cluster"
	KindDeviceRole     Kind = "device_role"
	KindDevice         Kind = "device"
	KindVirtualMachine Kind = "virtual_machine"
	KindInterface      Kind = "interface"
	KindVMInterface    Kind = "vm_interface"
	KindIPAddress      Kind = "ip_address"
)

// ApplyOrder lists kinds so that every referenced object precedes the
// objects referring to it.
var ApplyOrder = []Kind{
	KindTag,
	KindSite,
	KindClusterGroup,
	KindCluster,
	KindDeviceRole,
	KindDevice,
	KindVirtualMachine,
	KindInterface,
	KindVMInterface,
	KindIPAddress,
}

// Status is the operational status written to devices and VMs.
type Status string

const (
	StatusActive  Status = "active"
	StatusOffline Status = "offline"
)

// Key is the exact-match identity of an object. Scope is the site for
// devices, the cluster for VMs, and the owning record for interfaces.
type Key struct {
	Kind  Kind
	Name  string
	Scope string
}

// Object is the typed field data of a CMDB record.
type Object interface {
	Kind() Kind
	Key() Key
	// Merge copies every field set on other into the receiver and reports
	// whether anything changed. Unset fields on other are ignored.
	Merge(other Object) bool
}

// IPRef points at a primary IP either inline by address or by the ID of
// an IPAddress record.
type IPRef struct {
	Address string
	ID      int
}

func (r IPRef) IsZero() bool {
	return r.Address == "" && r.ID == 0
}

type Tag struct {
	Name        string
	Description string
}

func (*Tag) Kind() Kind { return KindTag }

func (t *Tag) Key() Key { return Key{Kind: KindTag, Name: t.Name} }

func (t *Tag) Merge(other Object) bool {
	o, ok := other.(*Tag)
	if !ok {
		return false
	}

	return mergeString(&t.Description, o.Description)
}

type Site struct {
	Name     string
	Comments string
}

func (*Site) Kind() Kind { return KindSite }

func (s *Site) Key() Key { return Key{Kind: KindSite, Name: s.Name} }

func (s *Site) Merge(other Object) bool {
	o, ok := other.(*Site)
	if !ok {
		return false
	}

	return mergeString(&s.Comments, o.Comments)
}

type ClusterGroup struct {
	Name string
}

func (*ClusterGroup) Kind() Kind { return KindClusterGroup }

func (g *ClusterGroup) Key() Key { return Key{Kind: KindClusterGroup, Name: g.Name} }

func (*ClusterGroup) Merge(Object) bool { return false }

type Cluster struct {
	Name     string
	Type     string
	Group    string
	Site     string
	Comments string
	Tags     []string
}

func (*Cluster) Kind() Kind { return KindCluster }

func (c *Cluster) Key() Key { return Key{Kind: KindCluster, Name: c.Name} }

func (c *Cluster) Merge(other Object) bool {
	o, ok := other.(*Cluster)
	if !ok {
		return false
	}

	changed := mergeString(&c.Type, o.Type)
	changed = mergeString(&c.Group, o.Group) || changed
	changed = mergeString(&c.Site, o.Site) || changed
	changed = mergeString(&c.Comments, o.Comments) || changed

	return mergeTags(&c.Tags, o.Tags) || changed
}

type DeviceRole struct {
	Name   string
	Color  string
	VMRole *bool
}

func (*DeviceRole) Kind() Kind { return KindDeviceRole }

func (r *DeviceRole) Key() Key { return Key{Kind: KindDeviceRole, Name: r.Name} }

func (r *DeviceRole) Merge(other Object) bool {
	o, ok := other.(*DeviceRole)
	if !ok {
		return false
	}

	changed := mergeString(&r.Color, o.Color)

	return mergeBool(&r.VMRole, o.VMRole) || changed
}

// Device is a physical host.
type Device struct {
	Name         string
	Role         string
	Manufacturer string
	Model        string
	Site         string
	Cluster      string
	Status       Status
	Serial       string
	AssetTag     string
	Platform     string
	PrimaryIP4   IPRef
	PrimaryIP6   IPRef
	Tags         []string
}

func (*Device) Kind() Kind { return KindDevice }

func (d *Device) Key() Key { return Key{Kind: KindDevice, Name: d.Name, Scope: d.Site} }

func (d *Device) PrimaryIPs() (IPRef, IPRef) { return d.PrimaryIP4, d.PrimaryIP6 }

func (d *Device) Merge(other Object) bool {
	o, ok := other.(*Device)
	if !ok {
		return false
	}

	changed := mergeString(&d.Name, o.Name)
	changed = mergeString(&d.Role, o.Role) || changed
	changed = mergeString(&d.Manufacturer, o.Manufacturer) || changed
	changed = mergeString(&d.Model, o.Model) || changed
	changed = mergeString(&d.Site, o.Site) || changed
	changed = mergeString(&d.Cluster, o.Cluster) || changed
	changed = mergeStatus(&d.Status, o.Status) || changed
	changed = mergeString(&d.Serial, o.Serial) || changed
	changed = mergeString(&d.AssetTag, o.AssetTag) || changed
	changed = mergeString(&d.Platform, o.Platform) || changed
	changed = mergeIPRef(&d.PrimaryIP4, o.PrimaryIP4) || changed
	changed = mergeIPRef(&d.PrimaryIP6, o.PrimaryIP6) || changed

	return mergeTags(&d.Tags, o.Tags) || changed
}

// VirtualMachine is a guest placed in a cluster.
type VirtualMachine struct {
	Name       string
	Cluster    string
	Role       string
	Status     Status
	Platform   string
	VCPUs      *int
	Memory     *int
	Disk       *int
	Comments   string
	PrimaryIP4 IPRef
	PrimaryIP6 IPRef
	Tags       []string
}

func (*VirtualMachine) Kind() Kind { return KindVirtualMachine }

func (v *VirtualMachine) Key() Key {
	return Key{Kind: KindVirtualMachine, Name: v.Name, Scope: v.Cluster}
}

func (v *VirtualMachine) PrimaryIPs() (IPRef, IPRef) { return v.PrimaryIP4, v.PrimaryIP6 }

func (v *VirtualMachine) Merge(other Object) bool {
	o, ok := other.(*VirtualMachine)
	if !ok {
		return false
	}

	changed := mergeString(&v.Name, o.Name)
	changed = mergeString(&v.Cluster, o.Cluster) || changed
	changed = mergeString(&v.Role, o.Role) || changed
	changed = mergeStatus(&v.Status, o.Status) || changed
	changed = mergeString(&v.Platform, o.Platform) || changed
	changed = mergeInt(&v.VCPUs, o.VCPUs) || changed
	changed = mergeInt(&v.Memory, o.Memory) || changed
	changed = mergeInt(&v.Disk, o.Disk) || changed
	changed = mergeString(&v.Comments, o.Comments) || changed
	changed = mergeIPRef(&v.PrimaryIP4, o.PrimaryIP4) || changed
	changed = mergeIPRef(&v.PrimaryIP6, o.PrimaryIP6) || changed

	return mergeTags(&v.Tags, o.Tags) || changed
}

// NIC holds the fields shared by device and VM interfaces.
type NIC struct {
	Name        string
	MACAddress  string
	Type        string
	Description string
	Enabled     *bool
	MTU         *int
	Tags        []string
}

func (n *NIC) InterfaceName() string { return n.Name }

func (n *NIC) MAC() string { return n.MACAddress }

func (n *NIC) merge(o *NIC) bool {
	changed := mergeString(&n.Name, o.Name)
	changed = mergeString(&n.MACAddress, o.MACAddress) || changed
	changed = mergeString(&n.Type, o.Type) || changed
	changed = mergeString(&n.Description, o.Description) || changed
	changed = mergeBool(&n.Enabled, o.Enabled) || changed
	changed = mergeInt(&n.MTU, o.MTU) || changed

	return mergeTags(&n.Tags, o.Tags) || changed
}

// NetworkInterface is implemented by Interface and VMInterface.
type NetworkInterface interface {
	Object
	InterfaceName() string
	MAC() string
	IsVirtual() bool
}

// Interface belongs to a Device.
type Interface struct {
	NIC
}

func (*Interface) Kind() Kind { return KindInterface }

func (i *Interface) Key() Key { return Key{Kind: KindInterface, Name: i.Name} }

// IsVirtual treats an unset type as virtual.
func (i *Interface) IsVirtual() bool {
	return i.Type == "" || strings.Contains(i.Type, "virtual")
}

func (i *Interface) Merge(other Object) bool {
	o, ok := other.(*Interface)
	if !ok {
		return false
	}

	return i.merge(&o.NIC)
}

// VMInterface belongs to a VirtualMachine and is always virtual.
type VMInterface struct {
	NIC
}

func (*VMInterface) Kind() Kind { return KindVMInterface }

func (i *VMInterface) Key() Key { return Key{Kind: KindVMInterface, Name: i.Name} }

func (*VMInterface) IsVirtual() bool { return true }

func (i *VMInterface) Merge(other Object) bool {
	o, ok := other.(*VMInterface)
	if !ok {
		return false
	}

	return i.merge(&o.NIC)
}

// IPAddress is keyed by its CIDR address and assigned to one interface.
type IPAddress struct {
	Address string
	Primary bool
	Tags    []string
}

func (*IPAddress) Kind() Kind { return KindIPAddress }

func (a *IPAddress) Key() Key { return Key{Kind: KindIPAddress, Name: a.Address} }

func (a *IPAddress) Merge(other Object) bool {
	o, ok := other.(*IPAddress)
	if !ok {
		return false
	}

	changed := false
	if o.Primary && !a.Primary {
		a.Primary = true
		changed = true
	}

	return mergeTags(&a.Tags, o.Tags) || changed
}

func mergeString(dst *string, src string) bool {
	if src == "" || *dst == src {
		return false
	}

	*dst = src

	return true
}

func mergeStatus(dst *Status, src Status) bool {
	if src == "" || *dst == src {
		return false
	}

	*dst = src

	return true
}

func mergeInt(dst **int, src *int) bool {
	if src == nil || (*dst != nil && **dst == *src) {
		return false
	}

	v := *src
	*dst = &v

	return true
}

func mergeBool(dst **bool, src *bool) bool {
	if src == nil || (*dst != nil && **dst == *src) {
		return false
	}

	v := *src
	*dst = &v

	return true
}

// mergeIPRef keeps a known record ID when the address is unchanged.
func mergeIPRef(dst *IPRef, src IPRef) bool {
	if src.IsZero() {
		return false
	}

	if src.Address != "" && src.Address == dst.Address {
		if src.ID != 0 && src.ID != dst.ID {
			dst.ID = src.ID
			return true
		}

		return false
	}

	if src == *dst {
		return false
	}

	*dst = src

	return true
}

func mergeTags(dst *[]string, src []string) bool {
	changed := false

	for _, tag := range src {
		if !slices.Contains(*dst, tag) {
			*dst = append(*dst, tag)
			changed = true
		}
	}

	return changed
}
