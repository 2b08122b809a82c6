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

package sync

//go:generate mockgen -destination=mock_sync.go -package=sync github.com/carverauto/vcsync/pkg/sync Dialer,Backend,CMDB,EventPublisher,RunJournal

import (
	"context"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/netbox"
	"github.com/carverauto/vcsync/pkg/reconcile"
)

// Backend is an open session to one source.
type Backend interface {
	reconcile.Backend
	Close(ctx context.Context) error
}

// Dialer opens a session to the source called name.
type Dialer interface {
	Dial(ctx context.Context, name string, cfg *SourceConfig) (Backend, error)
}

// CMDB loads existing records into a store and writes pending ones back.
// *netbox.Client satisfies it.
type CMDB interface {
	Load(ctx context.Context, s *inventory.Store) error
	Apply(ctx context.Context, s *inventory.Store) (*netbox.ApplyStats, error)
}

// EventPublisher announces the entities a run created or updated.
type EventPublisher interface {
	PublishReport(ctx context.Context, report *models.Report) (int, error)
}

// RunJournal stores run reports.
type RunJournal interface {
	Record(ctx context.Context, report *models.Report, runErr error) error
}
