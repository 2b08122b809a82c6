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
	"sort"
)

// EntityKind distinguishes hosts from virtual machines.
type EntityKind string

const (
	EntityHost EntityKind = "host"
	EntityVM   EntityKind = "vm"
)

// InterfaceKind partitions interfaces for MAC matching.
type InterfaceKind string

const (
	InterfacePhysical InterfaceKind = "physical"
	InterfaceVirtual  InterfaceKind = "virtual"
)

// DiscoveredInterface is a NIC as reported by the virtualization backend.
// Name is unique within its parent entity.
type DiscoveredInterface struct {
	Name        string
	MACAddress  string
	Kind        InterfaceKind
	Type        string
	Description string
	Enabled     bool
	MTU         *int
	IPAddresses []string
}

// DiscoveredEntity is a host or VM observed during one pass. Optional
// attributes are left at their zero value when the backend does not report them.
type DiscoveredEntity struct {
	Kind    EntityKind
	Name    string
	UUID    string
	Cluster string
	Status  Status

	Manufacturer string
	Model        string
	Serial       string
	AssetTag     string
	Platform     string
	Comments     string

	VCPUs  *int
	Memory *int
	Disk   *int

	PrimaryIP4 string
	PrimaryIP6 string

	Interfaces map[string]*DiscoveredInterface
}

// MACs returns the distinct non-empty interface MACs in sorted order.
func (e *DiscoveredEntity) MACs(kinds ...InterfaceKind) []string {
	macs := make([]string, 0, len(e.Interfaces))

	for _, nic := range e.Interfaces {
		if len(kinds) > 0 && !slices.Contains(kinds, nic.Kind) {
			continue
		}

		if nic.MACAddress != "" && !slices.Contains(macs, nic.MACAddress) {
			macs = append(macs, nic.MACAddress)
		}
	}

	sort.Strings(macs)

	return macs
}

// InterfaceNames returns the interface names in sorted order.
func (e *DiscoveredEntity) InterfaceNames() []string {
	names := make([]string, 0, len(e.Interfaces))
	for name := range e.Interfaces {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// DiscoveredCluster is a compute cluster and the datacenter holding it.
type DiscoveredCluster struct {
	Name       string
	Datacenter string
}
