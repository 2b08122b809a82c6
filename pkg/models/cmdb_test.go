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

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func intPtr(v int) *int { return &v }

func TestDeviceMerge(t *testing.T) {
	t.Parallel()

	dev := &Device{Name: "esx01", Site: "dc1", Serial: "ABC", Status: StatusActive}

	changed := dev.Merge(&Device{Name: "esx01", Site: "dc1", Status: StatusActive})
	assert.False(t, changed, "identical fields should not report a change")
	assert.Equal(t, "ABC", dev.Serial, "unset fields must not clear stored values")

	changed = dev.Merge(&Device{Status: StatusOffline, Platform: "ESXi 8.0"})
	assert.True(t, changed)
	assert.Equal(t, StatusOffline, dev.Status)
	assert.Equal(t, "ESXi 8.0", dev.Platform)

	assert.False(t, dev.Merge(&VirtualMachine{Name: "other"}), "mismatched kinds are ignored")
}

func TestMergeIPRefKeepsRecordID(t *testing.T) {
	t.Parallel()

	vm := &VirtualMachine{PrimaryIP4: IPRef{Address: "10.0.0.5/24", ID: 12}}

	assert.False(t, vm.Merge(&VirtualMachine{PrimaryIP4: IPRef{Address: "10.0.0.5/24"}}))
	assert.Equal(t, 12, vm.PrimaryIP4.ID)

	assert.True(t, vm.Merge(&VirtualMachine{PrimaryIP4: IPRef{Address: "10.0.0.6/24"}}))
	assert.Equal(t, IPRef{Address: "10.0.0.6/24"}, vm.PrimaryIP4)
}

func TestMergeOptionalNumbers(t *testing.T) {
	t.Parallel()

	vm := &VirtualMachine{Memory: intPtr(2048)}

	assert.False(t, vm.Merge(&VirtualMachine{Memory: intPtr(2048)}))
	assert.True(t, vm.Merge(&VirtualMachine{Memory: intPtr(4096), VCPUs: intPtr(2)}))
	require.NotNil(t, vm.VCPUs)
	assert.Equal(t, 4096, *vm.Memory)
	assert.Equal(t, 2, *vm.VCPUs)
}

func TestInterfaceIsVirtual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  string
		want bool
	}{
		{typ: "", want: true},
		{typ: "virtual", want: true},
		{typ: "1000base-t", want: false},
		{typ: "other", want: false},
	}

	for _, tt := range tests {
		iface := &Interface{NIC: NIC{Type: tt.typ}}
		assert.Equal(t, tt.want, iface.IsVirtual(), "type %q", tt.typ)
	}

	assert.True(t, (&VMInterface{}).IsVirtual())
}

func TestDiscoveredEntityMACs(t *testing.T) {
	t.Parallel()

	e := &DiscoveredEntity{Interfaces: map[string]*DiscoveredInterface{
		"vmnic1": {Name: "vmnic1", MACAddress: "00:50:56:00:00:02", Kind: InterfacePhysical},
		"vmnic0": {Name: "vmnic0", MACAddress: "00:50:56:00:00:01", Kind: InterfacePhysical},
		"vmk0":   {Name: "vmk0", MACAddress: "00:50:56:00:00:01", Kind: InterfaceVirtual},
		"vmk1":   {Name: "vmk1", MACAddress: "00:50:56:00:00:03", Kind: InterfaceVirtual},
		"vmk2":   {Name: "vmk2", Kind: InterfaceVirtual},
	}}

	assert.Equal(t, []string{"00:50:56:00:00:01", "00:50:56:00:00:02", "00:50:56:00:00:03"}, e.MACs())
	assert.Equal(t, []string{"00:50:56:00:00:01", "00:50:56:00:00:02"}, e.MACs(InterfacePhysical))
	assert.Equal(t, []string{"00:50:56:00:00:01", "00:50:56:00:00:03"}, e.MACs(InterfaceVirtual))
	assert.Equal(t, []string{"vmk0", "vmk1", "vmk2", "vmnic0", "vmnic1"}, e.InterfaceNames())
}

func TestDurationDecoding(t *testing.T) {
	t.Parallel()

	var cfg struct {
		Interval Duration `yaml:"interval"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("interval: 90s"), &cfg))
	assert.Equal(t, "1m30s", cfg.Interval.String())

	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"5m"`)))
	assert.Equal(t, "5m0s", d.String())
	require.Error(t, d.UnmarshalJSON([]byte(`true`)))
}
