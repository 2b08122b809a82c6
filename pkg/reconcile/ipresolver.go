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
	"net/netip"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/normalize"
)

type primaryAddressed interface {
	PrimaryIPs() (v4, v6 models.IPRef)
}

// ResolveByPrimaryIP returns the first device or VM whose primary IPv4
// equals ipv4, or failing that the first whose primary IPv6 equals ipv6.
// Prefix lengths are ignored on both sides.
func ResolveByPrimaryIP(store Store, kind models.Kind, ipv4, ipv6 string) *inventory.Record {
	ipv4 = normalize.StripPrefix(ipv4)
	ipv6 = normalize.StripPrefix(ipv6)

	if ipv4 == "" && ipv6 == "" {
		return nil
	}

	records := store.All(kind)

	if ipv4 != "" {
		for _, rec := range records {
			if obj, ok := rec.Object.(primaryAddressed); ok {
				v4, _ := obj.PrimaryIPs()
				if sameAddress(dereference(store, v4), ipv4) {
					return rec
				}
			}
		}
	}

	if ipv6 != "" {
		for _, rec := range records {
			if obj, ok := rec.Object.(primaryAddressed); ok {
				_, v6 := obj.PrimaryIPs()
				if sameAddress(dereference(store, v6), ipv6) {
					return rec
				}
			}
		}
	}

	return nil
}

// dereference returns the bare address of an inline or referenced primary IP.
func dereference(store Store, ref models.IPRef) string {
	if ref.Address != "" {
		return normalize.StripPrefix(ref.Address)
	}

	if ref.ID == 0 {
		return ""
	}

	rec := store.ByID(models.KindIPAddress, ref.ID)
	if rec == nil {
		return ""
	}

	ip, ok := rec.Object.(*models.IPAddress)
	if !ok {
		return ""
	}

	return normalize.StripPrefix(ip.Address)
}

func sameAddress(a, b string) bool {
	if a == "" || b == "" {
		return false
	}

	pa, errA := netip.ParseAddr(a)
	pb, errB := netip.ParseAddr(b)

	if errA != nil || errB != nil {
		return a == b
	}

	return pa.Unmap() == pb.Unmap()
}
