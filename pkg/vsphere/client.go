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

// Package vsphere reads datacenters, clusters, hosts and virtual machines
// from a vCenter server and converts them into discovered entities.
package vsphere

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/view"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"
	"github.com/vmware/govmomi/vim25/types"

	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/reconcile"
)

// Source is a logged-in vCenter session. It implements reconcile.Backend.
type Source struct {
	name   string
	cfg    Config
	client *govmomi.Client
	views  *view.Manager
	logger logger.Logger
}

var _ reconcile.Backend = (*Source)(nil)

// Dial logs in to the vCenter described by cfg.
func Dial(ctx context.Context, name string, cfg *Config, log logger.Logger) (*Source, error) {
	u, err := cfg.URL()
	if err != nil {
		return nil, err
	}

	log = log.WithComponent("vsphere").WithFields(map[string]interface{}{"source": name})

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	client, err := govmomi.NewClient(ctx, u, cfg.InsecureSkipVerify)
	if err != nil {
		log.Warn().Err(err).Str("host", cfg.Host).Msg("vCenter login failed, retrying with a plain SOAP session")

		client, err = loginSOAP(ctx, u, cfg)
		if err != nil {
			return nil, err
		}
	}

	if us, err := client.SessionManager.UserSession(ctx); err == nil && us != nil {
		log.Info().Str("host", cfg.Host).Str("user", us.UserName).Msg("Connected to vCenter")
	}

	return &Source{
		name:   name,
		cfg:    *cfg,
		client: client,
		views:  view.NewManager(client.Client),
		logger: log,
	}, nil
}

func loginSOAP(ctx context.Context, u *url.URL, cfg *Config) (*govmomi.Client, error) {
	soapClient := soap.NewClient(u, cfg.InsecureSkipVerify)
	if cfg.Timeout > 0 {
		soapClient.Timeout = cfg.Timeout
	}

	vimClient, err := vim25.NewClient(ctx, soapClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create vim25 client for %s: %w", cfg.Host, err)
	}

	client := &govmomi.Client{
		Client:         vimClient,
		SessionManager: session.NewManager(vimClient),
	}

	if err := client.Login(ctx, u.User); err != nil {
		return nil, fmt.Errorf("vCenter login to %s failed: %w", cfg.Host, err)
	}

	return client, nil
}

// Name is the configured source name.
func (s *Source) Name() string { return s.name }

// Close ends the vCenter session.
func (s *Source) Close(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		return fmt.Errorf("vCenter logout from %s failed: %w", s.cfg.Host, err)
	}

	return nil
}

// retrieve loads props of every managed object of kind below root into dst
// through a short-lived container view.
func (s *Source) retrieve(ctx context.Context, root types.ManagedObjectReference, kind string, props []string, dst interface{}) error {
	v, err := s.views.CreateContainerView(ctx, root, []string{kind}, true)
	if err != nil {
		return fmt.Errorf("failed to create %s view: %w", kind, err)
	}

	defer func() {
		if err := v.Destroy(ctx); err != nil {
			s.logger.Debug().Err(err).Str("kind", kind).Msg("Failed to destroy container view")
		}
	}()

	if err := v.Retrieve(ctx, []string{kind}, props, dst); err != nil {
		return fmt.Errorf("failed to retrieve %s objects: %w", kind, err)
	}

	return nil
}

func (s *Source) root() types.ManagedObjectReference {
	return s.client.ServiceContent.RootFolder
}
