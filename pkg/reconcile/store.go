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
	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/models"
)

// Store is the view of the inventory the resolvers depend on.
type Store interface {
	Find(obj models.Object, parent *inventory.Record) *inventory.Record
	All(kind models.Kind) []*inventory.Record
	Children(parent *inventory.Record, kind models.Kind) []*inventory.Record
	ByID(kind models.Kind, id int) *inventory.Record
	Upsert(obj models.Object, parent *inventory.Record) (*inventory.Record, error)
	Create(obj models.Object, parent *inventory.Record) (*inventory.Record, error)
	Update(rec *inventory.Record, obj models.Object, parent *inventory.Record) error
}

var _ Store = (*inventory.Store)(nil)

func interfaceKindFor(parent models.Kind) models.Kind {
	if parent == models.KindVirtualMachine {
		return models.KindVMInterface
	}

	return models.KindInterface
}
