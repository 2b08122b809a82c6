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

import "time"

// Action is what a run did with one discovered entity.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionSkipped Action = "skipped"
)

// Strategy names the resolver that bound an entity to a record.
type Strategy string

const (
	StrategyExact     Strategy = "exact"
	StrategyMAC       Strategy = "mac"
	StrategyPrimaryIP Strategy = "primary_ip"
	StrategyNone      Strategy = "none"
)

// Outcome records how one entity was handled.
type Outcome struct {
	Kind     EntityKind `json:"kind"`
	Name     string     `json:"name"`
	UUID     string     `json:"uuid,omitempty"`
	Pass     string     `json:"pass,omitempty"`
	Action   Action     `json:"action"`
	Strategy Strategy   `json:"strategy,omitempty"`
	Reason   string     `json:"reason,omitempty"`
	RecordID int        `json:"record_id,omitempty"`
}

// RunStats summarizes a report.
type RunStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Report is the result of one source run.
type Report struct {
	RunID    string    `json:"run_id"`
	Source   string    `json:"source"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Outcomes []Outcome `json:"outcomes"`
}

func (r *Report) Add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) Stats() RunStats {
	var stats RunStats

	for i := range r.Outcomes {
		switch r.Outcomes[i].Action {
		case ActionCreated:
			stats.Created++
		case ActionUpdated:
			stats.Updated++
		case ActionSkipped:
			stats.Skipped++
		}
	}

	return stats
}
