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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeNetBox(t)

	fake.seed(pathTags,
		`{"id":1,"name":"Source: vc01","description":"vCenter vc01"}`,
		`{"id":2,"name":"prod"}`,
		`{"id":3,"name":"lab"}`,
	)
	fake.seed(pathClusters,
		`{"id":4,"name":"prod","type":{"id":1,"name":"VMware ESXi"},"scope_type":"dcim.site","scope":{"id":7,"name":"dc1"}}`,
	)
	fake.seed(pathDevices,
		`{"id":9,"name":"esx01","role":{"id":5,"name":"Server"},
		  "device_type":{"model":"PowerEdge R640","manufacturer":{"name":"Dell Inc."}},
		  "site":{"name":"dc1"},"cluster":{"name":"prod"},"status":{"value":"active"},
		  "asset_tag":null,"primary_ip4":{"id":11,"address":"10.0.0.5/24"},
		  "tags":[{"name":"Source: vc01"}]}`,
	)
	fake.seed(pathVMs,
		`{"id":20,"name":"web","cluster":{"name":"prod"},"vcpus":2.0,"memory":4096,"status":{"value":"offline"}}`,
	)
	fake.seed(pathInterfaces,
		`{"id":10,"device":{"id":9},"name":"vmk0","mac_address":"00:50:56:AA:BB:CC","type":{"value":"virtual"},"enabled":true}`,
		`{"id":12,"device":{"id":99},"name":"orphan"}`,
	)
	fake.seed(pathVMInterfaces,
		`{"id":30,"virtual_machine":{"id":21},"name":"eth0"}`,
	)
	fake.seed(pathIPAddresses,
		`{"id":11,"address":"10.0.0.5/24","assigned_object_type":"dcim.interface","assigned_object_id":10}`,
		`{"id":13,"address":"192.0.2.1/24","assigned_object_type":null,"assigned_object_id":null}`,
		`{"id":14,"address":"198.51.100.1/24","assigned_object_type":"dcim.interface","assigned_object_id":12}`,
	)

	s := inventory.New()
	require.NoError(t, newTestClient(srv).Load(context.Background(), s))

	assert.Len(t, s.All(models.KindTag), 3)

	cluster := s.ByID(models.KindCluster, 4)
	require.NotNil(t, cluster)
	assert.Equal(t, &models.Cluster{Name: "prod", Type: "VMware ESXi", Site: "dc1"}, cluster.Object)

	dev := s.ByID(models.KindDevice, 9)
	require.NotNil(t, dev)
	assert.Equal(t, &models.Device{
		Name:         "esx01",
		Role:         "Server",
		Manufacturer: "Dell Inc.",
		Model:        "PowerEdge R640",
		Site:         "dc1",
		Cluster:      "prod",
		Status:       models.StatusActive,
		PrimaryIP4:   models.IPRef{Address: "10.0.0.5/24", ID: 11},
		Tags:         []string{"Source: vc01"},
	}, dev.Object)

	vm := s.ByID(models.KindVirtualMachine, 20)
	require.NotNil(t, vm)
	require.NotNil(t, vm.Object.(*models.VirtualMachine).VCPUs)
	assert.Equal(t, 2, *vm.Object.(*models.VirtualMachine).VCPUs)

	nics := s.All(models.KindInterface)
	require.Len(t, nics, 1, "interface of an unknown device is skipped")
	assert.Same(t, dev, nics[0].Parent)
	assert.Equal(t, "00:50:56:aa:bb:cc", nics[0].Object.(*models.Interface).MACAddress)
	assert.Empty(t, s.All(models.KindVMInterface))

	primary := s.ByID(models.KindIPAddress, 11)
	require.NotNil(t, primary)
	assert.Same(t, nics[0], primary.Parent)
	assert.True(t, primary.Object.(*models.IPAddress).Primary)

	unassigned := s.ByID(models.KindIPAddress, 13)
	require.NotNil(t, unassigned)
	assert.Nil(t, unassigned.Parent)
	assert.Nil(t, s.ByID(models.KindIPAddress, 14))

	for _, kind := range models.ApplyOrder {
		assert.Empty(t, s.Pending(kind), "loaded %s records are not pending", kind)
	}
}

func TestApplyCreatesInDependencyOrder(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeNetBox(t)
	s := inventory.New()

	mustUpsert := func(obj models.Object, parent *inventory.Record) *inventory.Record {
		rec, err := s.Upsert(obj, parent)
		require.NoError(t, err)

		return rec
	}

	mustUpsert(&models.Tag{Name: "Source: vc01"}, nil)
	mustUpsert(&models.Site{Name: "vCenter: vc01"}, nil)
	mustUpsert(&models.Cluster{Name: "prod", Type: "VMware ESXi", Site: "vCenter: vc01", Tags: []string{"Source: vc01"}}, nil)
	mustUpsert(&models.DeviceRole{Name: "Server", Color: "9e9e9e"}, nil)

	dev := mustUpsert(&models.Device{
		Name:         "esx01",
		Role:         "Server",
		Manufacturer: "Dell Inc.",
		Model:        "PowerEdge R640",
		Site:         "vCenter: vc01",
		Cluster:      "prod",
		Status:       models.StatusActive,
		Platform:     "VMware ESXi 8.0.2",
		PrimaryIP4:   models.IPRef{Address: "10.0.0.5/24"},
	}, nil)

	nic, err := s.Create(&models.Interface{NIC: models.NIC{Name: "vmk0", MACAddress: "00:50:56:00:00:01", Type: "virtual"}}, dev)
	require.NoError(t, err)

	mustUpsert(&models.IPAddress{Address: "10.0.0.5/24", Primary: true}, nic)

	client := newTestClient(srv)

	stats, err := client.Apply(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, &ApplyStats{Created: 7}, stats)

	assert.Equal(t, []string{
		"POST " + pathTags,
		"POST " + pathSites,
		"POST " + pathClusterTypes,
		"POST " + pathClusters,
		"POST " + pathDeviceRoles,
		"POST " + pathManufacturers,
		"POST " + pathDeviceTypes,
		"POST " + pathPlatforms,
		"POST " + pathDevices,
		"POST " + pathInterfaces,
		"POST " + pathIPAddresses,
		"PATCH " + pathDevices + "9/",
	}, fake.writeLog())

	cluster := fake.body(http.MethodPost, pathClusters)
	assert.Equal(t, map[string]interface{}{"id": float64(3)}, cluster["type"])
	assert.Equal(t, map[string]interface{}{"id": float64(2)}, cluster["site"])

	device := fake.body(http.MethodPost, pathDevices)
	assert.Equal(t, "active", device["status"])
	assert.Equal(t, map[string]interface{}{"id": float64(5)}, device["role"])
	assert.Equal(t, map[string]interface{}{"id": float64(7)}, device["device_type"])
	assert.Equal(t, map[string]interface{}{"id": float64(4)}, device["cluster"])
	assert.Equal(t, map[string]interface{}{"id": float64(8)}, device["platform"])

	iface := fake.body(http.MethodPost, pathInterfaces)
	assert.Equal(t, map[string]interface{}{"id": float64(9)}, iface["device"])
	assert.Equal(t, "00:50:56:00:00:01", iface["mac_address"])

	ip := fake.body(http.MethodPost, pathIPAddresses)
	assert.Equal(t, objectTypeInterface, ip["assigned_object_type"])
	assert.InDelta(t, 10, ip["assigned_object_id"], 0)

	assert.Equal(t, map[string]interface{}{"primary_ip4": float64(11)}, fake.body(http.MethodPatch, pathDevices+"9/"))

	assert.Equal(t, 9, dev.ID)
	assert.Equal(t, models.IPRef{Address: "10.0.0.5/24", ID: 11}, dev.Object.(*models.Device).PrimaryIP4)

	for _, kind := range models.ApplyOrder {
		assert.Empty(t, s.Pending(kind))
	}

	stats, err = client.Apply(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, &ApplyStats{}, stats)
	assert.Len(t, fake.writeLog(), 12, "a second apply writes nothing")
}

func TestApplyPatchesModifiedRecords(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeNetBox(t)
	s := inventory.New()

	site, err := s.Load(5, &models.Site{Name: "dc1"}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Update(site, &models.Site{Comments: "Clusters: prod"}, nil))

	stats, err := newTestClient(srv).Apply(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, &ApplyStats{Updated: 1}, stats)

	assert.Equal(t, []string{"PATCH " + pathSites + "5/"}, fake.writeLog())
	assert.Equal(t, map[string]interface{}{
		"name":     "dc1",
		"slug":     "dc1",
		"comments": "Clusters: prod",
	}, fake.body(http.MethodPatch, pathSites+"5/"))
}

func TestApplyReusesEnsuredObjects(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeNetBox(t)
	fake.seed(pathPlatforms, `{"id":40,"name":"Ubuntu Linux (64-bit)","slug":"ubuntu-linux-64-bit"}`)

	s := inventory.New()

	for _, vm := range []*models.VirtualMachine{
		{Name: "dc01", Cluster: "prod", Platform: "Microsoft Windows Server 2022"},
		{Name: "dc02", Cluster: "prod", Platform: "Microsoft Windows Server 2022"},
		{Name: "web01", Cluster: "prod", Platform: "Ubuntu Linux (64-bit)"},
		{Name: "web02", Cluster: "prod", Platform: "Ubuntu Linux (64-bit)"},
	} {
		_, err := s.Upsert(vm, nil)
		require.NoError(t, err)
	}

	_, err := newTestClient(srv).Apply(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST " + pathPlatforms}, writesTo(fake.writeLog(), "POST "+pathPlatforms))
	assert.Len(t, writesTo(fake.writeLog(), "POST "+pathVMs), 4)
	assert.Equal(t, map[string]interface{}{"id": float64(40)}, fake.body(http.MethodPost, pathVMs)["platform"])
}

func TestApplyDryRun(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeNetBox(t)
	s := inventory.New()

	dev, err := s.Upsert(&models.Device{Name: "esx01", Site: "dc1", Model: "R640", PrimaryIP4: models.IPRef{Address: "10.0.0.5/24"}}, nil)
	require.NoError(t, err)

	nic, err := s.Create(&models.Interface{NIC: models.NIC{Name: "vmk0"}}, dev)
	require.NoError(t, err)

	_, err = s.Upsert(&models.IPAddress{Address: "10.0.0.5/24", Primary: true}, nic)
	require.NoError(t, err)

	stats, err := newTestClient(srv, func(c *Config) { c.DryRun = true }).Apply(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, &ApplyStats{Created: 3}, stats)

	assert.Empty(t, fake.writeLog())
	assert.Zero(t, dev.ID)
	assert.Empty(t, s.Pending(models.KindDevice))
}

func TestApplyContinuesAfterFailedWrite(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeNetBox(t)
	fake.failures["POST "+pathDevices] = http.StatusBadRequest

	s := inventory.New()

	_, err := s.Upsert(&models.Site{Name: "dc1"}, nil)
	require.NoError(t, err)

	dev, err := s.Upsert(&models.Device{Name: "esx01", Site: "dc1"}, nil)
	require.NoError(t, err)

	_, err = s.Create(&models.Interface{NIC: models.NIC{Name: "vmk0"}}, dev)
	require.NoError(t, err)

	stats, err := newTestClient(srv).Apply(context.Background(), s)
	require.Error(t, err)
	require.ErrorIs(t, err, errUnexpectedStatusCode)
	require.ErrorIs(t, err, errParentNotSynced)
	assert.Contains(t, err.Error(), "rejected")

	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 2, stats.Failed)
	assert.Len(t, s.Pending(models.KindDevice), 1, "failed records stay pending")
}

func TestApplyOpensCircuitOnServerErrors(t *testing.T) {
	t.Parallel()

	fake, srv := newFakeNetBox(t)
	fake.failures["POST "+pathSites] = http.StatusInternalServerError

	s := inventory.New()

	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		_, err := s.Upsert(&models.Site{Name: name}, nil)
		require.NoError(t, err)
	}

	client := newTestClient(srv)

	stats, err := client.Apply(context.Background(), s)
	require.ErrorIs(t, err, errUnexpectedStatusCode)
	require.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 6, stats.Failed)
	assert.Equal(t, StateOpen, client.Breaker().State())
}

func TestRequestsCarryToken(t *testing.T) {
	t.Parallel()

	_, srv := newFakeNetBox(t)

	client := New(&Config{URL: srv.URL + "/", APIToken: "wrong"}, srv.Client(), logger.NewTestLogger())

	err := client.Load(context.Background(), inventory.New())
	require.ErrorIs(t, err, errUnexpectedStatusCode)
	assert.Contains(t, err.Error(), "403")
}
