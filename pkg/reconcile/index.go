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

// InterfaceIndex indexes interface records by name and by MAC, with the MAC
// index also split into physical and virtual partitions. Claimed records
// are hidden from every lookup.
type InterfaceIndex struct {
	records     []*inventory.Record
	byName      map[string][]*inventory.Record
	byMAC       map[string][]*inventory.Record
	byPartition map[models.InterfaceKind]map[string][]*inventory.Record
	claimed     map[*inventory.Record]struct{}
}

// NewInterfaceIndex indexes records, ignoring anything that is not an interface.
func NewInterfaceIndex(records []*inventory.Record) *InterfaceIndex {
	ix := &InterfaceIndex{
		byName: make(map[string][]*inventory.Record),
		byMAC:  make(map[string][]*inventory.Record),
		byPartition: map[models.InterfaceKind]map[string][]*inventory.Record{
			models.InterfacePhysical: {},
			models.InterfaceVirtual:  {},
		},
		claimed: make(map[*inventory.Record]struct{}),
	}

	for _, rec := range records {
		nic, ok := rec.Object.(models.NetworkInterface)
		if !ok {
			continue
		}

		ix.records = append(ix.records, rec)
		ix.byName[nic.InterfaceName()] = append(ix.byName[nic.InterfaceName()], rec)

		if mac := nic.MAC(); mac != "" {
			ix.byMAC[mac] = append(ix.byMAC[mac], rec)
			part := ix.byPartition[partitionOf(nic)]
			part[mac] = append(part[mac], rec)
		}
	}

	return ix
}

func partitionOf(nic models.NetworkInterface) models.InterfaceKind {
	if nic.IsVirtual() {
		return models.InterfaceVirtual
	}

	return models.InterfacePhysical
}

func (ix *InterfaceIndex) ByName(name string) *inventory.Record {
	return ix.firstUnclaimed(ix.byName[name])
}

// ByMAC looks up mac within one partition.
func (ix *InterfaceIndex) ByMAC(mac string, kind models.InterfaceKind) *inventory.Record {
	if mac == "" {
		return nil
	}

	return ix.firstUnclaimed(ix.byPartition[kind][mac])
}

// ByAnyMAC looks up mac regardless of partition.
func (ix *InterfaceIndex) ByAnyMAC(mac string) *inventory.Record {
	if mac == "" {
		return nil
	}

	return ix.firstUnclaimed(ix.byMAC[mac])
}

// WithMAC returns every record carrying mac, claimed or not.
func (ix *InterfaceIndex) WithMAC(mac string) []*inventory.Record {
	return ix.byMAC[mac]
}

func (ix *InterfaceIndex) Claim(rec *inventory.Record) {
	ix.claimed[rec] = struct{}{}
}

// Unclaimed returns the records not yet claimed, sorted by interface name.
func (ix *InterfaceIndex) Unclaimed() []*inventory.Record {
	out := make([]*inventory.Record, 0, len(ix.records))

	for _, rec := range ix.records {
		if _, taken := ix.claimed[rec]; !taken {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })

	return out
}

func (ix *InterfaceIndex) firstUnclaimed(candidates []*inventory.Record) *inventory.Record {
	for _, rec := range candidates {
		if _, taken := ix.claimed[rec]; !taken {
			return rec
		}
	}

	return nil
}
