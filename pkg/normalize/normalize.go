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

// Package normalize converts raw backend attribute values into the
// canonical forms used for matching and for CMDB writes.
package normalize

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// MAC returns the lower-case colon separated form of raw, or "" when raw
// is not a 48-bit MAC. Colons, dashes, dots or no separators are accepted.
func MAC(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	hw, err := net.ParseMAC(raw)
	if err != nil || len(hw) != 6 {
		hw, err = parseBareMAC(raw)
		if err != nil {
			return ""
		}
	}

	return hw.String()
}

func parseBareMAC(raw string) (net.HardwareAddr, error) {
	if len(raw) != 12 {
		return nil, errInvalidMAC
	}

	parts := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		parts = append(parts, raw[i:i+2])
	}

	hw, err := net.ParseMAC(strings.Join(parts, ":"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errInvalidMAC, raw)
	}

	return hw, nil
}

// IP returns address in addr/prefix form. A bare address gets a host
// prefix (/32 or /128). Invalid input yields "".
func IP(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return ""
		}

		return netip.PrefixFrom(p.Addr().Unmap(), p.Bits()).String()
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return ""
	}

	addr = addr.Unmap()

	return netip.PrefixFrom(addr, addr.BitLen()).String()
}

// IPWithMask combines an IPv4 address with a dotted subnet mask.
func IPWithMask(addr, mask string) string {
	ip := net.ParseIP(strings.TrimSpace(addr))
	m := net.ParseIP(strings.TrimSpace(mask))

	if ip == nil || m == nil || m.To4() == nil {
		return IP(addr)
	}

	ones, bits := net.IPMask(m.To4()).Size()
	if bits == 0 {
		return IP(addr)
	}

	return IP(fmt.Sprintf("%s/%d", ip.String(), ones))
}

// IPWithPrefix combines an address with a prefix length.
func IPWithPrefix(addr string, prefixLen int) string {
	return IP(fmt.Sprintf("%s/%d", strings.TrimSpace(addr), prefixLen))
}

// StripPrefix drops a /prefix suffix and returns the bare address.
func StripPrefix(s string) string {
	addr, _, _ := strings.Cut(strings.TrimSpace(s), "/")
	return addr
}

// Family returns 4 or 6 for a valid address with or without prefix, else 0.
func Family(s string) int {
	addr, err := netip.ParseAddr(StripPrefix(s))
	if err != nil {
		return 0
	}

	if addr.Unmap().Is4() {
		return 4
	}

	return 6
}

// ParseSubnets parses CIDR strings for IPPermitted.
func ParseSubnets(cidrs []string) ([]netip.Prefix, error) {
	subnets := make([]netip.Prefix, 0, len(cidrs))

	for _, c := range cidrs {
		p, err := netip.ParsePrefix(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("invalid permitted subnet %q: %w", c, err)
		}

		subnets = append(subnets, p.Masked())
	}

	return subnets, nil
}

// IPPermitted reports whether cidr may be written to the CMDB: it must
// parse, must not be link-local or loopback, and must fall inside one of
// subnets. With no subnets nothing is permitted.
func IPPermitted(cidr string, subnets []netip.Prefix) bool {
	addr, err := netip.ParseAddr(StripPrefix(cidr))
	if err != nil {
		return false
	}

	addr = addr.Unmap()
	if addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() || addr.IsLoopback() {
		return false
	}

	for _, subnet := range subnets {
		if subnet.Contains(addr) {
			return true
		}
	}

	return false
}

// String trims s and returns "" for values that only hold whitespace.
func String(s string) string {
	return strings.TrimSpace(s)
}
