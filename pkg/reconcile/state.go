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
	"github.com/google/uuid"

	"github.com/carverauto/vcsync/pkg/models"
)

// Pass is the VM iteration a run is in.
type Pass string

const (
	// PassScanningActive is the first VM iteration; offline VMs are deferred.
	PassScanningActive Pass = "scanning_active"
	// PassScanningAll is the second iteration over every remaining VM.
	PassScanningAll Pass = "scanning_all"
)

// RunState is the dedup state of one synchronization run. A fresh value is
// created per run so nothing leaks between runs.
type RunState struct {
	RunID string

	pass               Pass
	processedHostNames map[string]struct{}
	processedVMUUIDs   map[string]Pass
	processedVMNames   map[string]Pass
	skippedVMs         map[string]Pass
	standaloneHosts    map[string]struct{}
}

func NewRunState() *RunState {
	return &RunState{
		RunID:              uuid.NewString(),
		pass:               PassScanningActive,
		processedHostNames: make(map[string]struct{}),
		processedVMUUIDs:   make(map[string]Pass),
		processedVMNames:   make(map[string]Pass),
		skippedVMs:         make(map[string]Pass),
		standaloneHosts:    make(map[string]struct{}),
	}
}

func (s *RunState) Pass() Pass { return s.pass }

// Advance moves from PassScanningActive to PassScanningAll. It is a no-op
// once the run is already scanning all VMs.
func (s *RunState) Advance() {
	s.pass = PassScanningAll
}

// claimHost records name and reports false if a host of that name was
// already processed this run.
func (s *RunState) claimHost(name string) bool {
	if _, ok := s.processedHostNames[name]; ok {
		return false
	}

	s.processedHostNames[name] = struct{}{}

	return true
}

func (s *RunState) markStandalone(host string) {
	s.standaloneHosts[host] = struct{}{}
}

func (s *RunState) isStandalone(host string) bool {
	_, ok := s.standaloneHosts[host]
	return ok
}

func (s *RunState) vmUUIDPass(id string) (Pass, bool) {
	if id == "" {
		return "", false
	}

	p, ok := s.processedVMUUIDs[id]

	return p, ok
}

func (s *RunState) vmNamePass(name string) (Pass, bool) {
	p, ok := s.processedVMNames[name]
	return p, ok
}

func (s *RunState) markVM(id, name string) {
	if id != "" {
		s.processedVMUUIDs[id] = s.pass
	}

	s.processedVMNames[name] = s.pass
}

// vmKey identifies a VM across passes: its UUID, else its name.
func vmKey(e *models.DiscoveredEntity) string {
	switch {
	case e.UUID != "":
		return e.UUID
	case e.Name != "":
		return "name:" + e.Name
	default:
		return ""
	}
}

// markSkipped records that e was rejected in the current pass, so the
// second iteration does not count it again.
func (s *RunState) markSkipped(e *models.DiscoveredEntity) {
	if key := vmKey(e); key != "" {
		s.skippedVMs[key] = s.pass
	}
}

func (s *RunState) skippedIn(e *models.DiscoveredEntity) (Pass, bool) {
	key := vmKey(e)
	if key == "" {
		return "", false
	}

	p, ok := s.skippedVMs[key]

	return p, ok
}
