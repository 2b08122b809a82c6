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

package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/vcsync/pkg/models"
)

func TestUpsertCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	s := New()

	rec, err := s.Upsert(&models.Device{Name: "esx01", Site: "dc1", Serial: "A1"}, nil)
	require.NoError(t, err)
	assert.True(t, rec.IsNew())

	again, err := s.Upsert(&models.Device{Name: "esx01", Site: "dc1", Serial: "B2"}, nil)
	require.NoError(t, err)
	assert.Same(t, rec, again, "same identity must reuse the record")
	assert.True(t, again.IsNew(), "records created this run stay new after updates")
	assert.Equal(t, "B2", again.Object.(*models.Device).Serial)

	other, err := s.Upsert(&models.Device{Name: "esx01", Site: "dc2"}, nil)
	require.NoError(t, err)
	assert.NotSame(t, rec, other, "site is part of device identity")
	assert.Len(t, s.All(models.KindDevice), 2)
}

func TestLoadedRecordsTrackChanges(t *testing.T) {
	t.Parallel()

	s := New()

	rec, err := s.Load(7, &models.VirtualMachine{Name: "web01", Cluster: "prod"}, nil)
	require.NoError(t, err)
	assert.Same(t, rec, s.ByID(models.KindVirtualMachine, 7))
	assert.Empty(t, s.Pending(models.KindVirtualMachine))

	require.NoError(t, s.Update(rec, &models.VirtualMachine{Name: "web01", Cluster: "prod"}, nil))
	assert.False(t, rec.IsModified(), "identical data is not a change")

	require.NoError(t, s.Update(rec, &models.VirtualMachine{Comments: "frontend"}, nil))
	assert.True(t, rec.IsModified())
	assert.Equal(t, []*Record{rec}, s.Pending(models.KindVirtualMachine))

	s.MarkSynced(rec)
	assert.Empty(t, s.Pending(models.KindVirtualMachine))

	_, err = s.Load(7, &models.VirtualMachine{Name: "web02", Cluster: "prod"}, nil)
	require.Error(t, err)
}

func TestRenameReindexesKey(t *testing.T) {
	t.Parallel()

	s := New()

	rec, err := s.Load(1, &models.VirtualMachine{Name: "old", Cluster: "prod"}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Update(rec, &models.VirtualMachine{Name: "new", Cluster: "prod"}, nil))

	assert.Nil(t, s.Find(&models.VirtualMachine{Name: "old", Cluster: "prod"}, nil))
	assert.Same(t, rec, s.Find(&models.VirtualMachine{Name: "new", Cluster: "prod"}, nil))
}

func TestInterfacesAreScopedToParent(t *testing.T) {
	t.Parallel()

	s := New()

	dev1, err := s.Upsert(&models.Device{Name: "esx01"}, nil)
	require.NoError(t, err)
	dev2, err := s.Upsert(&models.Device{Name: "esx02"}, nil)
	require.NoError(t, err)

	nic1, err := s.Upsert(&models.Interface{NIC: models.NIC{Name: "vmnic0"}}, dev1)
	require.NoError(t, err)
	nic2, err := s.Upsert(&models.Interface{NIC: models.NIC{Name: "vmnic0"}}, dev2)
	require.NoError(t, err)

	assert.NotSame(t, nic1, nic2)
	assert.Equal(t, []*Record{nic1}, s.Children(dev1, models.KindInterface))
	assert.Same(t, nic2, s.Find(&models.Interface{NIC: models.NIC{Name: "vmnic0"}}, dev2))

	dup, err := s.Create(&models.Interface{NIC: models.NIC{Name: "vmnic0"}}, dev1)
	require.NoError(t, err)
	assert.NotSame(t, nic1, dup, "Create never merges")
	assert.Len(t, s.Children(dev1, models.KindInterface), 2)
}

func TestParentValidation(t *testing.T) {
	t.Parallel()

	s := New()

	vm, err := s.Upsert(&models.VirtualMachine{Name: "web01", Cluster: "prod"}, nil)
	require.NoError(t, err)

	_, err = s.Upsert(&models.Interface{NIC: models.NIC{Name: "eth0"}}, nil)
	require.ErrorIs(t, err, ErrParentRequired)

	_, err = s.Upsert(&models.Interface{NIC: models.NIC{Name: "eth0"}}, vm)
	require.ErrorIs(t, err, ErrInvalidParent)

	_, err = s.Upsert(nil, nil)
	require.ErrorIs(t, err, ErrNilObject)

	err = s.Update(vm, &models.Device{Name: "web01"}, nil)
	require.ErrorIs(t, err, ErrKindMismatch)
}

func TestIPAddressReassignment(t *testing.T) {
	t.Parallel()

	s := New()

	vm, _ := s.Upsert(&models.VirtualMachine{Name: "web01", Cluster: "prod"}, nil)
	eth0, _ := s.Upsert(&models.VMInterface{NIC: models.NIC{Name: "eth0"}}, vm)
	eth1, _ := s.Upsert(&models.VMInterface{NIC: models.NIC{Name: "eth1"}}, vm)

	ip, err := s.Load(3, &models.IPAddress{Address: "10.0.0.5/24"}, eth0)
	require.NoError(t, err)

	moved, err := s.Upsert(&models.IPAddress{Address: "10.0.0.5/24"}, eth1)
	require.NoError(t, err)
	assert.Same(t, ip, moved)
	assert.Same(t, eth1, ip.Parent)
	assert.True(t, ip.IsModified())
	assert.Empty(t, s.Children(eth0, models.KindIPAddress))
	assert.Equal(t, []*Record{ip}, s.Children(eth1, models.KindIPAddress))
}
