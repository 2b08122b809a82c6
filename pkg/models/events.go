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
	"time"

	"github.com/google/uuid"
)

const (
	CloudEventsSpecVersion = "1.0"
	jsonContentType        = "application/json"
)

// CloudEvent is the CloudEvents 1.0 JSON envelope published for
// reconciled entities.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}

// NewCloudEvent builds a JSON event with a fresh ID. A zero at leaves the
// time attribute out.
func NewCloudEvent(source, eventType, subject string, at time.Time, data interface{}) CloudEvent {
	event := CloudEvent{
		SpecVersion:     CloudEventsSpecVersion,
		ID:              uuid.NewString(),
		Source:          source,
		Type:            eventType,
		DataContentType: jsonContentType,
		Subject:         subject,
		Data:            data,
	}

	if !at.IsZero() {
		at = at.UTC()
		event.Time = &at
	}

	return event
}
