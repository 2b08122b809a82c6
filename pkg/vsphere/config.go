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

package vsphere

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"time"
)

var (
	errHostRequired     = errors.New("vCenter host is required")
	errUsernameRequired = errors.New("vCenter username is required")
)

const defaultPort = 443

// Config holds the connection and extraction settings of one vCenter.
type Config struct {
	Host               string
	Port               int
	Username           string
	Password           string
	InsecureSkipVerify bool
	Timeout            time.Duration
	CollectAssetTag    bool
	PermittedSubnets   []netip.Prefix
}

// URL returns the SDK endpoint with the credentials attached.
func (c *Config) URL() (*url.URL, error) {
	if c.Host == "" {
		return nil, errHostRequired
	}

	if c.Username == "" {
		return nil, errUsernameRequired
	}

	port := c.Port
	if port == 0 {
		port = defaultPort
	}

	u, err := url.Parse(fmt.Sprintf("https://%s/sdk", net.JoinHostPort(c.Host, strconv.Itoa(port))))
	if err != nil {
		return nil, fmt.Errorf("invalid vCenter address %q: %w", c.Host, err)
	}

	u.User = url.UserPassword(c.Username, c.Password)

	return u, nil
}
