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

// macDominanceRatio is how many times more matching interfaces the best
// parent needs over the runner-up before a MAC match is trusted.
const macDominanceRatio = 2.0

type macCandidate struct {
	parent *inventory.Record
	count  int
}

// ResolveByMACs returns the existing device or VM owning the interfaces that
// carry macs. With several candidate parents the best one is returned only
// when it dominates the runner-up by macDominanceRatio; otherwise ambiguous
// is true and no record is returned.
func ResolveByMACs(store Store, kind models.Kind, macs []string) (match *inventory.Record, ambiguous bool) {
	if len(macs) == 0 {
		return nil, false
	}

	ix := NewInterfaceIndex(store.All(interfaceKindFor(kind)))

	var candidates []*macCandidate

	byParent := make(map[*inventory.Record]*macCandidate)
	seen := make(map[string]struct{}, len(macs))

	for _, mac := range macs {
		if _, dup := seen[mac]; dup || mac == "" {
			continue
		}

		seen[mac] = struct{}{}

		for _, rec := range ix.WithMAC(mac) {
			if rec.Parent == nil || rec.Parent.Kind() != kind {
				continue
			}

			c, ok := byParent[rec.Parent]
			if !ok {
				c = &macCandidate{parent: rec.Parent}
				byParent[rec.Parent] = c
				candidates = append(candidates, c)
			}

			c.count++
		}
	}

	switch len(candidates) {
	case 0:
		return nil, false
	case 1:
		return candidates[0].parent, false
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].count > candidates[j].count })

	first, second := candidates[0].count, candidates[1].count
	if float64(first)/float64(second) >= macDominanceRatio {
		return candidates[0].parent, false
	}

	return nil, true
}
