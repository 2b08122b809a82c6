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

package netbox

import (
	"strings"

	"github.com/carverauto/vcsync/pkg/models"
)

const (
	pathTags          = "/api/extras/tags/"
	pathSites         = "/api/dcim/sites/"
	pathClusterGroups = "/api/virtualization/cluster-groups/"
	pathClusterTypes  = "/api/virtualization/cluster-types/"
	pathClusters      = "/api/virtualization/clusters/"
	pathDeviceRoles   = "/api/dcim/device-roles/"
	pathManufacturers = "/api/dcim/manufacturers/"
	pathDeviceTypes   = "/api/dcim/device-types/"
	pathPlatforms     = "/api/dcim/platforms/"
	pathDevices       = "/api/dcim/devices/"
	pathVMs           = "/api/virtualization/virtual-machines/"
	pathInterfaces    = "/api/dcim/interfaces/"
	pathVMInterfaces  = "/api/virtualization/interfaces/"
	pathIPAddresses   = "/api/ipam/ip-addresses/"

	objectTypeInterface   = "dcim.interface"
	objectTypeVMInterface = "virtualization.vminterface"
	objectTypeSite        = "dcim.site"

	maxSlugLength = 100
)

//nolint:gochecknoglobals // kind to endpoint table
var kindPaths = map[models.Kind]string{
	models.KindTag:            pathTags,
	models.KindSite:           pathSites,
	models.KindClusterGroup:   pathClusterGroups,
	models.KindCluster:        pathClusters,
	models.KindDeviceRole:     pathDeviceRoles,
	models.KindDevice:         pathDevices,
	models.KindVirtualMachine: pathVMs,
	models.KindInterface:      pathInterfaces,
	models.KindVMInterface:    pathVMInterfaces,
	models.KindIPAddress:      pathIPAddresses,
}

// nested is the brief representation NetBox embeds for related objects.
type nested struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Model   string `json:"model"`
	Address string `json:"address"`
}

func (n *nested) name() string {
	if n == nil {
		return ""
	}

	return n.Name
}

type choice struct {
	Value string `json:"value"`
}

func (c *choice) value() string {
	if c == nil {
		return ""
	}

	return c.Value
}

type tagList []nested

func (t tagList) names() []string {
	if len(t) == 0 {
		return nil
	}

	out := make([]string, 0, len(t))
	for i := range t {
		out = append(out, t[i].Name)
	}

	return out
}

type tagRecord struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type siteRecord struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Comments string `json:"comments"`
}

type clusterGroupRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type clusterRecord struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Type      *nested `json:"type"`
	Group     *nested `json:"group"`
	Site      *nested `json:"site"`
	ScopeType string  `json:"scope_type"`
	Scope     *nested `json:"scope"`
	Comments  string  `json:"comments"`
	Tags      tagList `json:"tags"`
}

// site returns the cluster's site from either the legacy site field or
// a site scope.
func (r *clusterRecord) site() string {
	if r.Site != nil {
		return r.Site.Name
	}

	if r.ScopeType == objectTypeSite {
		return r.Scope.name()
	}

	return ""
}

type deviceRoleRecord struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	VMRole *bool  `json:"vm_role"`
}

type deviceTypeRef struct {
	Model        string  `json:"model"`
	Manufacturer *nested `json:"manufacturer"`
}

type deviceRecord struct {
	ID         int            `json:"id"`
	Name       *string        `json:"name"`
	Role       *nested        `json:"role"`
	DeviceRole *nested        `json:"device_role"`
	DeviceType *deviceTypeRef `json:"device_type"`
	Site       *nested        `json:"site"`
	Cluster    *nested        `json:"cluster"`
	Status     *choice        `json:"status"`
	Serial     string         `json:"serial"`
	AssetTag   *string        `json:"asset_tag"`
	Platform   *nested        `json:"platform"`
	PrimaryIP4 *nested        `json:"primary_ip4"`
	PrimaryIP6 *nested        `json:"primary_ip6"`
	Tags       tagList        `json:"tags"`
}

type vmRecord struct {
	ID         int      `json:"id"`
	Name       string   `json:"name"`
	Cluster    *nested  `json:"cluster"`
	Role       *nested  `json:"role"`
	Status     *choice  `json:"status"`
	Platform   *nested  `json:"platform"`
	VCPUs      *float64 `json:"vcpus"`
	Memory     *int     `json:"memory"`
	Disk       *int     `json:"disk"`
	Comments   string   `json:"comments"`
	PrimaryIP4 *nested  `json:"primary_ip4"`
	PrimaryIP6 *nested  `json:"primary_ip6"`
	Tags       tagList  `json:"tags"`
}

type interfaceRecord struct {
	ID             int     `json:"id"`
	Device         *nested `json:"device"`
	VirtualMachine *nested `json:"virtual_machine"`
	Name           string  `json:"name"`
	MACAddress     *string `json:"mac_address"`
	Type           *choice `json:"type"`
	Description    string  `json:"description"`
	Enabled        *bool   `json:"enabled"`
	MTU            *int    `json:"mtu"`
	Tags           tagList `json:"tags"`
}

type ipAddressRecord struct {
	ID                 int     `json:"id"`
	Address            string  `json:"address"`
	AssignedObjectType *string `json:"assigned_object_type"`
	AssignedObjectID   *int    `json:"assigned_object_id"`
	Tags               tagList `json:"tags"`
}

// ref points at a related object by ID, or by name when the ID is not
// known yet.
type ref struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type tagRef struct {
	Name string `json:"name"`
}

func tagRefs(names []string) []tagRef {
	if len(names) == 0 {
		return nil
	}

	out := make([]tagRef, 0, len(names))
	for _, n := range names {
		out = append(out, tagRef{Name: n})
	}

	return out
}

type tagPayload struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
}

type sitePayload struct {
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Comments string `json:"comments,omitempty"`
}

type namedPayload struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type clusterPayload struct {
	Name     string   `json:"name"`
	Type     *ref     `json:"type,omitempty"`
	Group    *ref     `json:"group,omitempty"`
	Site     *ref     `json:"site,omitempty"`
	Comments string   `json:"comments,omitempty"`
	Tags     []tagRef `json:"tags,omitempty"`
}

type deviceRolePayload struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Color  string `json:"color,omitempty"`
	VMRole *bool  `json:"vm_role,omitempty"`
}

type manufacturerPayload = namedPayload

type deviceTypePayload struct {
	Manufacturer ref    `json:"manufacturer"`
	Model        string `json:"model"`
	Slug         string `json:"slug"`
}

type devicePayload struct {
	Name       string   `json:"name"`
	Role       *ref     `json:"role,omitempty"`
	DeviceType *ref     `json:"device_type,omitempty"`
	Site       *ref     `json:"site,omitempty"`
	Cluster    *ref     `json:"cluster,omitempty"`
	Status     string   `json:"status,omitempty"`
	Serial     string   `json:"serial,omitempty"`
	AssetTag   string   `json:"asset_tag,omitempty"`
	Platform   *ref     `json:"platform,omitempty"`
	Tags       []tagRef `json:"tags,omitempty"`
}

type vmPayload struct {
	Name     string   `json:"name"`
	Cluster  *ref     `json:"cluster,omitempty"`
	Role     *ref     `json:"role,omitempty"`
	Status   string   `json:"status,omitempty"`
	Platform *ref     `json:"platform,omitempty"`
	VCPUs    *int     `json:"vcpus,omitempty"`
	Memory   *int     `json:"memory,omitempty"`
	Disk     *int     `json:"disk,omitempty"`
	Comments string   `json:"comments,omitempty"`
	Tags     []tagRef `json:"tags,omitempty"`
}

type interfacePayload struct {
	Device         *ref     `json:"device,omitempty"`
	VirtualMachine *ref     `json:"virtual_machine,omitempty"`
	Name           string   `json:"name"`
	Type           string   `json:"type,omitempty"`
	MACAddress     string   `json:"mac_address,omitempty"`
	Description    string   `json:"description,omitempty"`
	Enabled        *bool    `json:"enabled,omitempty"`
	MTU            *int     `json:"mtu,omitempty"`
	Tags           []tagRef `json:"tags,omitempty"`
}

type ipAddressPayload struct {
	Address            string   `json:"address"`
	AssignedObjectType string   `json:"assigned_object_type,omitempty"`
	AssignedObjectID   int      `json:"assigned_object_id,omitempty"`
	Tags               []tagRef `json:"tags,omitempty"`
}

// primaryPayload omits a family whose record ID is unknown so the PATCH
// leaves it untouched.
type primaryPayload struct {
	PrimaryIP4 *int `json:"primary_ip4,omitempty"`
	PrimaryIP6 *int `json:"primary_ip6,omitempty"`
}

// slugify lowercases s and replaces every run of characters outside
// [a-z0-9_] with a single dash.
func slugify(s string) string {
	var b strings.Builder

	dash := false

	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)

			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')

			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimSuffix(slug[:maxSlugLength], "-")
	}

	return slug
}
