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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/normalize"
)

var (
	errNoParent       = errors.New("parent record not loaded")
	errInvalidAddress = errors.New("invalid IP address")
)

type decodeFunc func(s *inventory.Store, raw json.RawMessage) (id int, obj models.Object, parent *inventory.Record, err error)

//nolint:gochecknoglobals // kind to decoder table
var decoders = map[models.Kind]decodeFunc{
	models.KindTag:            decodeTag,
	models.KindSite:           decodeSite,
	models.KindClusterGroup:   decodeClusterGroup,
	models.KindCluster:        decodeCluster,
	models.KindDeviceRole:     decodeDeviceRole,
	models.KindDevice:         decodeDevice,
	models.KindVirtualMachine: decodeVM,
	models.KindInterface:      decodeInterface,
	models.KindVMInterface:    decodeVMInterface,
	models.KindIPAddress:      decodeIPAddress,
}

// Load reads every supported object type from NetBox into s. Kinds are
// read in apply order so interfaces and IP addresses find their owners.
// Records whose owner is missing are skipped.
func (c *Client) Load(ctx context.Context, s *inventory.Store) error {
	for _, kind := range models.ApplyOrder {
		decode := decoders[kind]
		loaded, skipped := 0, 0

		err := c.list(ctx, kindPaths[kind], func(raw json.RawMessage) error {
			id, obj, parent, err := decode(s, raw)
			if err != nil {
				if errors.Is(err, errNoParent) || errors.Is(err, errInvalidAddress) {
					skipped++
					return nil
				}

				return fmt.Errorf("failed to decode %s: %w", kind, err)
			}

			if _, err := s.Load(id, obj, parent); err != nil {
				c.logger.Warn().Err(err).Str("kind", string(kind)).Int("id", id).Msg("Skipping record")

				skipped++

				return nil
			}

			loaded++

			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to load %s records: %w", kind, err)
		}

		c.logger.Debug().
			Str("kind", string(kind)).
			Int("loaded", loaded).
			Int("skipped", skipped).
			Msg("Loaded NetBox records")
	}

	markPrimaries(s)

	return nil
}

// markPrimaries flags addresses referenced as a device or VM primary IP so
// an unchanged primary does not register as an update.
func markPrimaries(s *inventory.Store) {
	for _, kind := range []models.Kind{models.KindDevice, models.KindVirtualMachine} {
		for _, rec := range s.All(kind) {
			owner, ok := rec.Object.(interface{ PrimaryIPs() (models.IPRef, models.IPRef) })
			if !ok {
				continue
			}

			v4, v6 := owner.PrimaryIPs()
			for _, ref := range []models.IPRef{v4, v6} {
				if ref.ID == 0 {
					continue
				}

				if ip := s.ByID(models.KindIPAddress, ref.ID); ip != nil {
					ip.Object.(*models.IPAddress).Primary = true
				}
			}
		}
	}
}

func decodeTag(_ *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r tagRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	return r.ID, &models.Tag{Name: r.Name, Description: r.Description}, nil, nil
}

func decodeSite(_ *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r siteRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	return r.ID, &models.Site{Name: r.Name, Comments: r.Comments}, nil, nil
}

func decodeClusterGroup(_ *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r clusterGroupRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	return r.ID, &models.ClusterGroup{Name: r.Name}, nil, nil
}

func decodeCluster(_ *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r clusterRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	return r.ID, &models.Cluster{
		Name:     r.Name,
		Type:     r.Type.name(),
		Group:    r.Group.name(),
		Site:     r.site(),
		Comments: r.Comments,
		Tags:     r.Tags.names(),
	}, nil, nil
}

func decodeDeviceRole(_ *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r deviceRoleRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	return r.ID, &models.DeviceRole{Name: r.Name, Color: r.Color, VMRole: r.VMRole}, nil, nil
}

func decodeDevice(_ *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r deviceRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	d := &models.Device{
		Role:       r.Role.name(),
		Site:       r.Site.name(),
		Cluster:    r.Cluster.name(),
		Status:     models.Status(r.Status.value()),
		Serial:     r.Serial,
		Platform:   r.Platform.name(),
		PrimaryIP4: ipRef(r.PrimaryIP4),
		PrimaryIP6: ipRef(r.PrimaryIP6),
		Tags:       r.Tags.names(),
	}

	if r.Name != nil {
		d.Name = *r.Name
	}

	if d.Role == "" {
		d.Role = r.DeviceRole.name()
	}

	if r.AssetTag != nil {
		d.AssetTag = *r.AssetTag
	}

	if r.DeviceType != nil {
		d.Model = r.DeviceType.Model
		d.Manufacturer = r.DeviceType.Manufacturer.name()
	}

	return r.ID, d, nil, nil
}

func decodeVM(_ *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r vmRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	vm := &models.VirtualMachine{
		Name:       r.Name,
		Cluster:    r.Cluster.name(),
		Role:       r.Role.name(),
		Status:     models.Status(r.Status.value()),
		Platform:   r.Platform.name(),
		Memory:     r.Memory,
		Disk:       r.Disk,
		Comments:   r.Comments,
		PrimaryIP4: ipRef(r.PrimaryIP4),
		PrimaryIP6: ipRef(r.PrimaryIP6),
		Tags:       r.Tags.names(),
	}

	if r.VCPUs != nil {
		vcpus := int(math.Round(*r.VCPUs))
		vm.VCPUs = &vcpus
	}

	return r.ID, vm, nil, nil
}

func decodeInterface(s *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r interfaceRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	if r.Device == nil {
		return 0, nil, nil, errNoParent
	}

	parent := s.ByID(models.KindDevice, r.Device.ID)
	if parent == nil {
		return 0, nil, nil, errNoParent
	}

	nic := r.nic()
	nic.Type = r.Type.value()

	return r.ID, &models.Interface{NIC: nic}, parent, nil
}

func decodeVMInterface(s *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r interfaceRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	if r.VirtualMachine == nil {
		return 0, nil, nil, errNoParent
	}

	parent := s.ByID(models.KindVirtualMachine, r.VirtualMachine.ID)
	if parent == nil {
		return 0, nil, nil, errNoParent
	}

	return r.ID, &models.VMInterface{NIC: r.nic()}, parent, nil
}

func (r *interfaceRecord) nic() models.NIC {
	nic := models.NIC{
		Name:        r.Name,
		Description: r.Description,
		Enabled:     r.Enabled,
		MTU:         r.MTU,
		Tags:        r.Tags.names(),
	}

	if r.MACAddress != nil {
		nic.MACAddress = normalize.MAC(*r.MACAddress)
	}

	return nic
}

// decodeIPAddress loads unassigned addresses without a parent. Addresses
// assigned to an interface that was not loaded are skipped.
func decodeIPAddress(s *inventory.Store, raw json.RawMessage) (int, models.Object, *inventory.Record, error) {
	var r ipAddressRecord
	if err := json.Unmarshal(raw, &r); err != nil {
		return 0, nil, nil, err
	}

	addr := normalize.IP(r.Address)
	if addr == "" {
		return 0, nil, nil, fmt.Errorf("%w: %q", errInvalidAddress, r.Address)
	}

	obj := &models.IPAddress{Address: addr, Tags: r.Tags.names()}

	if r.AssignedObjectType == nil || r.AssignedObjectID == nil {
		return r.ID, obj, nil, nil
	}

	var parent *inventory.Record

	switch *r.AssignedObjectType {
	case objectTypeInterface:
		parent = s.ByID(models.KindInterface, *r.AssignedObjectID)
	case objectTypeVMInterface:
		parent = s.ByID(models.KindVMInterface, *r.AssignedObjectID)
	default:
		return r.ID, obj, nil, nil
	}

	if parent == nil {
		return 0, nil, nil, errNoParent
	}

	return r.ID, obj, parent, nil
}

func ipRef(n *nested) models.IPRef {
	if n == nil {
		return models.IPRef{}
	}

	return models.IPRef{Address: normalize.IP(n.Address), ID: n.ID}
}
