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

// Package inventory holds the CMDB records known to a synchronization run.
//
// The Store is the single source of truth for "does an equivalent record
// already exist". Records are loaded from the CMDB at run start, created or
// updated by reconciliation, and flushed back by the CMDB client. Every
// method takes the store lock, so concurrent callers observe a serialized
// history of reads and writes.
package inventory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/carverauto/vcsync/pkg/models"
)

var (
	ErrNilObject       = errors.New("object is nil")
	ErrParentRequired  = errors.New("interface records require a parent")
	ErrKindMismatch    = errors.New("object kind does not match record")
	ErrInvalidParent   = errors.New("parent kind cannot own this object")
	ErrUnknownRecord   = errors.New("record does not belong to this store")
	errDuplicateLoadID = errors.New("record ID already loaded")
)

type changeState int

const (
	stateUnchanged changeState = iota
	stateCreated
	stateUpdated
)

// Record is one CMDB object plus its bookkeeping. ID is the CMDB primary
// key and stays zero until the record has been created remotely.
type Record struct {
	ID     int
	Object models.Object
	Parent *Record

	handle uint64
	key    models.Key
	state  changeState
}

func (r *Record) Kind() models.Kind { return r.Object.Kind() }

// IsNew reports whether the record was created during this run.
func (r *Record) IsNew() bool { return r.state == stateCreated }

// IsModified reports whether the record was updated during this run.
func (r *Record) IsModified() bool { return r.state == stateUpdated }

// Name is the display name of the record's object.
func (r *Record) Name() string { return r.Object.Key().Name }

func (r *Record) String() string {
	if r.Parent != nil {
		return fmt.Sprintf("%s %q on %s", r.Kind(), r.Name(), r.Parent.Name())
	}

	return fmt.Sprintf("%s %q", r.Kind(), r.Name())
}

// Store is an in-memory, kind-partitioned index of records.
type Store struct {
	mu         sync.RWMutex
	nextHandle uint64
	byKind     map[models.Kind][]*Record
	byKey      map[models.Key]*Record
	byID       map[models.Kind]map[int]*Record
	children   map[uint64][]*Record
}

func New() *Store {
	return &Store{
		byKind:   make(map[models.Kind][]*Record),
		byKey:    make(map[models.Key]*Record),
		byID:     make(map[models.Kind]map[int]*Record),
		children: make(map[uint64][]*Record),
	}
}

// Load adds a record that already exists in the CMDB.
func (s *Store) Load(id int, obj models.Object, parent *Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ids := s.byID[objKind(obj)]; ids != nil && id != 0 {
		if _, ok := ids[id]; ok {
			return nil, fmt.Errorf("%w: %s %d", errDuplicateLoadID, obj.Kind(), id)
		}
	}

	rec, err := s.insert(obj, parent, stateUnchanged)
	if err != nil {
		return nil, err
	}

	s.setID(rec, id)

	return rec, nil
}

// Find returns the record with the exact identity of obj, or nil.
// For interfaces the identity includes parent.
func (s *Store) Find(obj models.Object, parent *Record) *Record {
	if obj == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byKey[keyFor(obj, parent)]
}

// All returns every record of kind in insertion order.
func (s *Store) All(kind models.Kind) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*Record(nil), s.byKind[kind]...)
}

// Children returns the records of kind owned by parent.
func (s *Store) Children(parent *Record, kind models.Kind) []*Record {
	if parent == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record

	for _, rec := range s.children[parent.handle] {
		if rec.Kind() == kind {
			out = append(out, rec)
		}
	}

	return out
}

// ByID returns the record of kind with CMDB ID id, or nil.
func (s *Store) ByID(kind models.Kind, id int) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byID[kind][id]
}

// Upsert updates the record sharing obj's identity or creates a new one.
func (s *Store) Upsert(obj models.Object, parent *Record) (*Record, error) {
	if obj == nil {
		return nil, ErrNilObject
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec := s.byKey[keyFor(obj, parent)]; rec != nil {
		if err := s.update(rec, obj, parent); err != nil {
			return nil, err
		}

		return rec, nil
	}

	return s.insert(obj, parent, stateCreated)
}

// Create always adds a new record, even if one with the same identity exists.
func (s *Store) Create(obj models.Object, parent *Record) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insert(obj, parent, stateCreated)
}

// Update merges obj into rec. A non-nil parent re-assigns the record.
func (s *Store) Update(rec *Record, obj models.Object, parent *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(rec, obj, parent)
}

// AssignID records the CMDB primary key after a remote create.
func (s *Store) AssignID(rec *Record, id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setID(rec, id)
}

// Pending returns the created or updated records of kind in insertion order.
func (s *Store) Pending(kind models.Kind) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record

	for _, rec := range s.byKind[kind] {
		if rec.state != stateUnchanged {
			out = append(out, rec)
		}
	}

	return out
}

// MarkSynced clears the change state after a successful CMDB write.
func (s *Store) MarkSynced(rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.state = stateUnchanged
}

func (s *Store) insert(obj models.Object, parent *Record, state changeState) (*Record, error) {
	if obj == nil {
		return nil, ErrNilObject
	}

	if err := checkParent(obj.Kind(), parent); err != nil {
		return nil, err
	}

	s.nextHandle++

	rec := &Record{
		Object: obj,
		Parent: parent,
		handle: s.nextHandle,
		key:    keyFor(obj, parent),
		state:  state,
	}

	s.byKind[obj.Kind()] = append(s.byKind[obj.Kind()], rec)

	if _, taken := s.byKey[rec.key]; !taken {
		s.byKey[rec.key] = rec
	}

	if parent != nil {
		s.children[parent.handle] = append(s.children[parent.handle], rec)
	}

	return rec, nil
}

func (s *Store) update(rec *Record, obj models.Object, parent *Record) error {
	if rec == nil || obj == nil {
		return ErrNilObject
	}

	if rec.Kind() != obj.Kind() {
		return fmt.Errorf("%w: %s into %s", ErrKindMismatch, obj.Kind(), rec.Kind())
	}

	if s.byKind[rec.Kind()] == nil {
		return ErrUnknownRecord
	}

	reparent := parent != nil && parent != rec.Parent
	if reparent {
		if err := checkParent(rec.Kind(), parent); err != nil {
			return err
		}
	}

	changed := rec.Object.Merge(obj)

	if reparent {
		s.moveChild(rec, parent)
		changed = true
	}

	if key := keyFor(rec.Object, rec.Parent); key != rec.key {
		if s.byKey[rec.key] == rec {
			delete(s.byKey, rec.key)
		}

		rec.key = key
		if _, taken := s.byKey[key]; !taken {
			s.byKey[key] = rec
		}
	}

	if changed && rec.state == stateUnchanged {
		rec.state = stateUpdated
	}

	return nil
}

func (s *Store) moveChild(rec, parent *Record) {
	if rec.Parent != nil {
		siblings := s.children[rec.Parent.handle]
		for i, c := range siblings {
			if c == rec {
				s.children[rec.Parent.handle] = append(siblings[:i:i], siblings[i+1:]...)
				break
			}
		}
	}

	rec.Parent = parent
	s.children[parent.handle] = append(s.children[parent.handle], rec)
}

func (s *Store) setID(rec *Record, id int) {
	if id == 0 {
		return
	}

	ids := s.byID[rec.Kind()]
	if ids == nil {
		ids = make(map[int]*Record)
		s.byID[rec.Kind()] = ids
	}

	rec.ID = id
	ids[id] = rec
}

func objKind(obj models.Object) models.Kind {
	if obj == nil {
		return ""
	}

	return obj.Kind()
}

func keyFor(obj models.Object, parent *Record) models.Key {
	key := obj.Key()

	switch key.Kind {
	case models.KindInterface, models.KindVMInterface:
		if parent != nil {
			key.Scope = fmt.Sprintf("#%d", parent.handle)
		}
	default:
	}

	return key
}

func checkParent(kind models.Kind, parent *Record) error {
	switch kind {
	case models.KindInterface:
		if parent == nil {
			return ErrParentRequired
		}

		if parent.Kind() != models.KindDevice {
			return fmt.Errorf("%w: %s under %s", ErrInvalidParent, kind, parent.Kind())
		}
	case models.KindVMInterface:
		if parent == nil {
			return ErrParentRequired
		}

		if parent.Kind() != models.KindVirtualMachine {
			return fmt.Errorf("%w: %s under %s", ErrInvalidParent, kind, parent.Kind())
		}
	case models.KindIPAddress:
		if parent != nil && parent.Kind() != models.KindInterface && parent.Kind() != models.KindVMInterface {
			return fmt.Errorf("%w: %s under %s", ErrInvalidParent, kind, parent.Kind())
		}
	default:
		if parent != nil {
			return fmt.Errorf("%w: %s under %s", ErrInvalidParent, kind, parent.Kind())
		}
	}

	return nil
}
