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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/carverauto/vcsync/pkg/inventory"
	"github.com/carverauto/vcsync/pkg/models"
)

var (
	errParentNotSynced = errors.New("parent record has no NetBox ID")
	errUnsupportedKind = errors.New("unsupported object kind")
)

const (
	opCreate = "create"
	opUpdate = "update"

	unknownName = "Unknown"
)

// ApplyStats counts the writes of one Apply call.
type ApplyStats struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

type primaryOwner interface {
	PrimaryIPs() (models.IPRef, models.IPRef)
}

// Apply writes every pending record of s to NetBox in dependency order.
// New records receive the ID NetBox assigned. A failed write is counted
// and reported but does not stop the remaining writes. Primary IPs are
// set last, once the addresses exist and are assigned.
func (c *Client) Apply(ctx context.Context, s *inventory.Store) (*ApplyStats, error) {
	stats := &ApplyStats{}

	var (
		errs   []error
		owners []*inventory.Record
	)

	for _, kind := range models.ApplyOrder {
		for _, rec := range s.Pending(kind) {
			if err := ctx.Err(); err != nil {
				return stats, errors.Join(append(errs, err)...)
			}

			if kind == models.KindDevice || kind == models.KindVirtualMachine {
				owners = append(owners, rec)
			}

			if err := c.write(ctx, s, rec, stats); err != nil {
				stats.Failed++

				errs = append(errs, err)

				c.logger.Error().Err(err).Str("record", rec.String()).Msg("Failed to write record")
			}
		}
	}

	for _, rec := range owners {
		if err := c.applyPrimaries(ctx, s, rec); err != nil {
			stats.Failed++

			errs = append(errs, err)

			c.logger.Error().Err(err).Str("record", rec.String()).Msg("Failed to set primary IP")
		}
	}

	c.logger.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("failed", stats.Failed).
		Bool("dry_run", c.cfg.DryRun).
		Msg("NetBox apply finished")

	return stats, errors.Join(errs...)
}

func (c *Client) write(ctx context.Context, s *inventory.Store, rec *inventory.Record, stats *ApplyStats) error {
	payload, err := c.payload(ctx, s, rec)
	if err != nil {
		return fmt.Errorf("%s: %w", rec, err)
	}

	path := kindPaths[rec.Kind()]

	op := opUpdate
	if rec.ID == 0 {
		op = opCreate
	}

	if c.cfg.DryRun {
		c.logDryRun(op, rec, payload)
	} else if op == opCreate {
		id, err := c.create(ctx, path, payload)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", rec, err)
		}

		s.AssignID(rec, id)
	} else if err := c.patch(ctx, path, rec.ID, payload); err != nil {
		return fmt.Errorf("failed to update %s: %w", rec, err)
	}

	s.MarkSynced(rec)
	recordWrite(ctx, string(rec.Kind()), op)

	if op == opCreate {
		stats.Created++
	} else {
		stats.Updated++
	}

	return nil
}

func (c *Client) logDryRun(op string, rec *inventory.Record, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		body = []byte(err.Error())
	}

	c.logger.Info().
		Str("op", op).
		Str("kind", string(rec.Kind())).
		Str("name", rec.Name()).
		Int("id", rec.ID).
		RawJSON("payload", body).
		Msg("Dry run, skipping NetBox write")
}

func (c *Client) payload(ctx context.Context, s *inventory.Store, rec *inventory.Record) (interface{}, error) {
	switch obj := rec.Object.(type) {
	case *models.Tag:
		return tagPayload{Name: obj.Name, Slug: slugify(obj.Name), Description: obj.Description}, nil
	case *models.Site:
		return sitePayload{Name: obj.Name, Slug: slugify(obj.Name), Comments: obj.Comments}, nil
	case *models.ClusterGroup:
		return namedPayload{Name: obj.Name, Slug: slugify(obj.Name)}, nil
	case *models.Cluster:
		return c.clusterPayload(ctx, s, obj)
	case *models.DeviceRole:
		return deviceRolePayload{Name: obj.Name, Slug: slugify(obj.Name), Color: obj.Color, VMRole: obj.VMRole}, nil
	case *models.Device:
		return c.devicePayload(ctx, s, rec, obj)
	case *models.VirtualMachine:
		return c.vmPayload(ctx, s, obj)
	case *models.Interface:
		parent, err := c.parentRef(rec)
		if err != nil {
			return nil, err
		}

		p := nicPayload(&obj.NIC)
		p.Device = parent
		p.Type = obj.Type

		return p, nil
	case *models.VMInterface:
		parent, err := c.parentRef(rec)
		if err != nil {
			return nil, err
		}

		p := nicPayload(&obj.NIC)
		p.VirtualMachine = parent

		return p, nil
	case *models.IPAddress:
		return c.ipPayload(rec, obj)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedKind, rec.Kind())
	}
}

func (c *Client) parentRef(rec *inventory.Record) (*ref, error) {
	if rec.Parent == nil {
		return nil, errParentNotSynced
	}

	if rec.Parent.ID == 0 && !c.cfg.DryRun {
		return nil, fmt.Errorf("%w: %s", errParentNotSynced, rec.Parent)
	}

	if rec.Parent.ID == 0 {
		return &ref{Name: rec.Parent.Name()}, nil
	}

	return &ref{ID: rec.Parent.ID}, nil
}

// refTo points at the record sharing obj's identity, by ID once NetBox
// knows it and by name otherwise.
func refTo(s *inventory.Store, obj models.Object) *ref {
	name := obj.Key().Name
	if name == "" {
		return nil
	}

	if rec := s.Find(obj, nil); rec != nil && rec.ID != 0 {
		return &ref{ID: rec.ID}
	}

	return &ref{Name: name}
}

func (c *Client) clusterPayload(ctx context.Context, s *inventory.Store, obj *models.Cluster) (interface{}, error) {
	p := clusterPayload{
		Name:     obj.Name,
		Comments: obj.Comments,
		Tags:     tagRefs(obj.Tags),
	}

	if obj.Type != "" {
		typeRef, err := c.ensure(ctx, pathClusterTypes,
			url.Values{"slug": {slugify(obj.Type)}},
			namedPayload{Name: obj.Type, Slug: slugify(obj.Type)})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve cluster type %q: %w", obj.Type, err)
		}

		p.Type = typeRef
	}

	if obj.Group != "" {
		p.Group = refTo(s, &models.ClusterGroup{Name: obj.Group})
	}

	if obj.Site != "" {
		p.Site = refTo(s, &models.Site{Name: obj.Site})
	}

	return p, nil
}

func (c *Client) devicePayload(ctx context.Context, s *inventory.Store, rec *inventory.Record, obj *models.Device) (interface{}, error) {
	p := devicePayload{
		Name:     obj.Name,
		Status:   string(obj.Status),
		Serial:   obj.Serial,
		AssetTag: obj.AssetTag,
		Tags:     tagRefs(obj.Tags),
	}

	if obj.Role != "" {
		p.Role = refTo(s, &models.DeviceRole{Name: obj.Role})
	}

	if obj.Site != "" {
		p.Site = refTo(s, &models.Site{Name: obj.Site})
	}

	if obj.Cluster != "" {
		p.Cluster = refTo(s, &models.Cluster{Name: obj.Cluster})
	}

	// Every new device needs a device type; existing ones keep theirs
	// unless discovery reported a model.
	if obj.Model != "" || rec.ID == 0 {
		dt, err := c.ensureDeviceType(ctx, obj.Manufacturer, obj.Model)
		if err != nil {
			return nil, err
		}

		p.DeviceType = dt
	}

	if obj.Platform != "" {
		platform, err := c.ensurePlatform(ctx, obj.Platform)
		if err != nil {
			return nil, err
		}

		p.Platform = platform
	}

	return p, nil
}

func (c *Client) vmPayload(ctx context.Context, s *inventory.Store, obj *models.VirtualMachine) (interface{}, error) {
	p := vmPayload{
		Name:     obj.Name,
		Status:   string(obj.Status),
		VCPUs:    obj.VCPUs,
		Memory:   obj.Memory,
		Disk:     obj.Disk,
		Comments: obj.Comments,
		Tags:     tagRefs(obj.Tags),
	}

	if obj.Cluster != "" {
		p.Cluster = refTo(s, &models.Cluster{Name: obj.Cluster})
	}

	if obj.Role != "" {
		p.Role = refTo(s, &models.DeviceRole{Name: obj.Role})
	}

	if obj.Platform != "" {
		platform, err := c.ensurePlatform(ctx, obj.Platform)
		if err != nil {
			return nil, err
		}

		p.Platform = platform
	}

	return p, nil
}

func nicPayload(n *models.NIC) interfacePayload {
	return interfacePayload{
		Name:        n.Name,
		MACAddress:  n.MACAddress,
		Description: n.Description,
		Enabled:     n.Enabled,
		MTU:         n.MTU,
		Tags:        tagRefs(n.Tags),
	}
}

func (c *Client) ipPayload(rec *inventory.Record, obj *models.IPAddress) (interface{}, error) {
	p := ipAddressPayload{Address: obj.Address, Tags: tagRefs(obj.Tags)}

	if rec.Parent == nil {
		return p, nil
	}

	parent, err := c.parentRef(rec)
	if err != nil {
		return nil, err
	}

	p.AssignedObjectID = parent.ID
	p.AssignedObjectType = objectTypeInterface

	if rec.Parent.Kind() == models.KindVMInterface {
		p.AssignedObjectType = objectTypeVMInterface
	}

	return p, nil
}

func (c *Client) ensureDeviceType(ctx context.Context, manufacturer, model string) (*ref, error) {
	if manufacturer == "" {
		manufacturer = unknownName
	}

	if model == "" {
		model = unknownName
	}

	mfr, err := c.ensure(ctx, pathManufacturers,
		url.Values{"slug": {slugify(manufacturer)}},
		manufacturerPayload{Name: manufacturer, Slug: slugify(manufacturer)})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manufacturer %q: %w", manufacturer, err)
	}

	if mfr == nil {
		return nil, nil
	}

	dt, err := c.ensure(ctx, pathDeviceTypes,
		url.Values{"slug": {slugify(model)}, "manufacturer_id": {strconv.Itoa(mfr.ID)}},
		deviceTypePayload{Manufacturer: ref{ID: mfr.ID}, Model: model, Slug: slugify(model)})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve device type %q: %w", model, err)
	}

	return dt, nil
}

func (c *Client) ensurePlatform(ctx context.Context, name string) (*ref, error) {
	platform, err := c.ensure(ctx, pathPlatforms,
		url.Values{"slug": {slugify(name)}},
		namedPayload{Name: name, Slug: slugify(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve platform %q: %w", name, err)
	}

	return platform, nil
}

// ensure returns the object at path matching query, creating it from
// payload when none exists. Results are cached for the client's lifetime.
// In dry-run mode a missing object yields nil.
func (c *Client) ensure(ctx context.Context, path string, query url.Values, payload interface{}) (*ref, error) {
	key := path + "?" + query.Encode()

	c.mu.Lock()
	id, ok := c.ensured[key]
	c.mu.Unlock()

	if ok {
		return &ref{ID: id}, nil
	}

	q := url.Values{"limit": {"1"}}
	for k, v := range query {
		q[k] = v
	}

	var p page
	if err := c.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, &p); err != nil {
		return nil, err
	}

	if len(p.Results) > 0 {
		var found created
		if err := json.Unmarshal(p.Results[0], &found); err != nil {
			return nil, err
		}

		id = found.ID
	} else {
		if c.cfg.DryRun {
			return nil, nil
		}

		var err error
		if id, err = c.create(ctx, path, payload); err != nil {
			return nil, err
		}

		recordWrite(ctx, path, opCreate)
	}

	c.mu.Lock()
	c.ensured[key] = id
	c.mu.Unlock()

	return &ref{ID: id}, nil
}

// applyPrimaries points the owner's primary_ip4 and primary_ip6 at the
// address records written earlier in this Apply.
func (c *Client) applyPrimaries(ctx context.Context, s *inventory.Store, rec *inventory.Record) error {
	owner, ok := rec.Object.(primaryOwner)
	if !ok {
		return nil
	}

	v4, v6 := owner.PrimaryIPs()
	v4 = resolvePrimary(s, v4)
	v6 = resolvePrimary(s, v6)

	var p primaryPayload

	if v4.ID != 0 {
		p.PrimaryIP4 = &v4.ID
	}

	if v6.ID != 0 {
		p.PrimaryIP6 = &v6.ID
	}

	if p.PrimaryIP4 == nil && p.PrimaryIP6 == nil {
		return nil
	}

	if c.cfg.DryRun {
		c.logDryRun(opUpdate, rec, p)
		return nil
	}

	if rec.ID == 0 {
		return fmt.Errorf("%w: %s", errParentNotSynced, rec)
	}

	if err := c.patch(ctx, kindPaths[rec.Kind()], rec.ID, p); err != nil {
		return fmt.Errorf("failed to set primary IP of %s: %w", rec, err)
	}

	var patch models.Object = &models.Device{PrimaryIP4: v4, PrimaryIP6: v6}
	if rec.Kind() == models.KindVirtualMachine {
		patch = &models.VirtualMachine{PrimaryIP4: v4, PrimaryIP6: v6}
	}

	if err := s.Update(rec, patch, nil); err != nil {
		return err
	}

	s.MarkSynced(rec)

	return nil
}

func resolvePrimary(s *inventory.Store, r models.IPRef) models.IPRef {
	if r.Address == "" {
		return r
	}

	if ip := s.Find(&models.IPAddress{Address: r.Address}, nil); ip != nil && ip.ID != 0 {
		r.ID = ip.ID
	}

	return r
}
