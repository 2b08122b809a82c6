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
	"context"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

func newTestController(store Store) *Controller {
	return NewController(store, Options{
		Source:           "vc01",
		PermittedSubnets: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("2001:db8::/32")},
	}, logger.NewTestLogger())
}

func loadDevice(t *testing.T, s *inventory.Store, id int, name string, macs ...string) *inventory.Record {
	t.Helper()

	dev, err := s.Load(id, &models.Device{Name: name, Site: "dc1"}, nil)
	require.NoError(t, err)

	for i, mac := range macs {
		_, err := s.Load(id*100+i, &models.Interface{NIC: models.NIC{
			Name:       "vmnic" + string(rune('0'+i)),
			MACAddress: mac,
			Type:       "1000base-t",
		}}, dev)
		require.NoError(t, err)
	}

	return dev
}

func loadVMInterface(t *testing.T, s *inventory.Store, vm *inventory.Record, name, mac string) *inventory.Record {
	t.Helper()

	rec, err := s.Load(0, &models.VMInterface{NIC: models.NIC{Name: name, MACAddress: mac}}, vm)
	require.NoError(t, err)

	return rec
}

func feed(entities ...*models.DiscoveredEntity) func(context.Context, func(*models.DiscoveredEntity) error) error {
	return func(_ context.Context, fn func(*models.DiscoveredEntity) error) error {
		for _, e := range entities {
			if err := fn(e); err != nil {
				return err
			}
		}

		return nil
	}
}

func vmEntity(name, id, cluster string, status models.Status, nics ...*models.DiscoveredInterface) *models.DiscoveredEntity {
	e := &models.DiscoveredEntity{
		Kind:       models.EntityVM,
		Name:       name,
		UUID:       id,
		Cluster:    cluster,
		Status:     status,
		Interfaces: make(map[string]*models.DiscoveredInterface, len(nics)),
	}

	for _, nic := range nics {
		e.Interfaces[nic.Name] = nic
	}

	return e
}

func vnic(name, mac string, ips ...string) *models.DiscoveredInterface {
	return &models.DiscoveredInterface{
		Name:        name,
		MACAddress:  mac,
		Kind:        models.InterfaceVirtual,
		Enabled:     true,
		IPAddresses: ips,
	}
}

func markAllSynced(s *inventory.Store) {
	for _, kind := range models.ApplyOrder {
		for _, rec := range s.Pending(kind) {
			s.MarkSynced(rec)
		}
	}
}

func pendingCount(s *inventory.Store) int {
	n := 0
	for _, kind := range models.ApplyOrder {
		n += len(s.Pending(kind))
	}

	return n
}
