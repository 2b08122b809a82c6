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
	"sort"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/models"
)

type interfaceMatcher struct {
	name  string
	match func(ix *InterfaceIndex, name string, nic *models.DiscoveredInterface) *inventory.Record
}

// interfaceCascade is tried in order for every discovered interface.
//
//nolint:gochecknoglobals // fixed strategy table
var interfaceCascade = []interfaceMatcher{
	{
		name: "name",
		match: func(ix *InterfaceIndex, name string, _ *models.DiscoveredInterface) *inventory.Record {
			return ix.ByName(name)
		},
	},
	{
		name: "mac_same_kind",
		match: func(ix *InterfaceIndex, _ string, nic *models.DiscoveredInterface) *inventory.Record {
			return ix.ByMAC(nic.MACAddress, discoveredPartition(nic))
		},
	},
	{
		name: "mac_any_kind",
		match: func(ix *InterfaceIndex, _ string, nic *models.DiscoveredInterface) *inventory.Record {
			return ix.ByAnyMAC(nic.MACAddress)
		},
	},
}

func discoveredPartition(nic *models.DiscoveredInterface) models.InterfaceKind {
	if nic.Kind == models.InterfacePhysical {
		return models.InterfacePhysical
	}

	return models.InterfaceVirtual
}

// ReconcileInterfaces maps every discovered interface name to the existing
// interface of parent that represents it, or to nil when a new interface
// must be created. No existing interface is assigned twice.
//
// Discovered names are processed in sorted order through interfaceCascade.
// Names nothing matched are then paired, in sorted order, with the sorted
// names of the existing interfaces still unclaimed.
func ReconcileInterfaces(store Store, parent *inventory.Record, discovered map[string]*models.DiscoveredInterface) map[string]*inventory.Record {
	result := make(map[string]*inventory.Record, len(discovered))

	names := make([]string, 0, len(discovered))
	for name := range discovered {
		names = append(names, name)
		result[name] = nil
	}

	if parent == nil {
		return result
	}

	sort.Strings(names)

	ix := NewInterfaceIndex(store.Children(parent, interfaceKindFor(parent.Kind())))

	var deferred []string

	for _, name := range names {
		nic := discovered[name]
		if nic == nil {
			nic = &models.DiscoveredInterface{Name: name}
		}

		var found *inventory.Record

		for _, m := range interfaceCascade {
			if found = m.match(ix, name, nic); found != nil {
				break
			}
		}

		if found == nil {
			deferred = append(deferred, name)
			continue
		}

		ix.Claim(found)
		result[name] = found
	}

	leftovers := ix.Unclaimed()

	for i, name := range deferred {
		if i >= len(leftovers) {
			break
		}

		ix.Claim(leftovers[i])
		result[name] = leftovers[i]
	}

	return result
}
