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

// Package netbox loads CMDB records from the NetBox REST API into an
// inventory store and writes the store's pending changes back.
package netbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/carverauto/vcsync/pkg/logger"
)

var (
	errUnexpectedStatusCode = errors.New("unexpected status code")
	errMissingID            = errors.New("response did not contain an object ID")
)

const maxErrorBody = 512

// HTTPClient is the subset of *http.Client the NetBox client uses.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to one NetBox instance. Requests are throttled by a token
// bucket and pass through a circuit breaker.
type Client struct {
	cfg     Config
	baseURL string
	http    HTTPClient
	limiter *rate.Limiter
	breaker *CircuitBreaker
	logger  logger.Logger

	mu      sync.Mutex
	ensured map[string]int
}

// New builds a client for cfg. A nil httpClient selects an *http.Client
// honoring the TLS and timeout settings.
func New(cfg *Config, httpClient HTTPClient, log logger.Logger) *Client {
	log = log.WithComponent("netbox")

	if httpClient == nil {
		//nolint:gosec // verification may be disabled for lab NetBox instances
		httpClient = &http.Client{
			Timeout: cfg.timeout(),
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				DialContext:         (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
				MaxIdleConnsPerHost: 4,
			},
		}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		cfg:     *cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		breaker: NewCircuitBreaker("netbox", cfg.CircuitBreaker, log),
		logger:  log,
		ensured: make(map[string]int),
	}
}

// Breaker exposes the circuit breaker for health reporting.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

func (c *Client) resolve(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	return c.baseURL + ref
}

// do sends one request. body is JSON encoded when non-nil and the response
// is decoded into out when non-nil.
func (c *Client) do(ctx context.Context, method, ref string, body, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader = http.NoBody

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s request: %w", method, ref, err)
		}

		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(ref), reader)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Token "+c.cfg.APIToken)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var resp *http.Response

	start := time.Now()

	err = c.breaker.Execute(ctx, func() error {
		var doErr error

		resp, doErr = c.http.Do(req)
		if doErr != nil {
			return doErr
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			defer c.closeResponse(resp)
			return c.statusError(method, ref, resp)
		}

		return nil
	})

	recordRequest(ctx, method, resp, err, time.Since(start))

	if err != nil {
		return fmt.Errorf("netbox %s %s: %w", method, ref, err)
	}

	defer c.closeResponse(resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.statusError(method, ref, resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, ref, err)
	}

	return nil
}

func (*Client) statusError(method, ref string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return fmt.Errorf("%w: %s %s returned %d: %s",
		errUnexpectedStatusCode, method, ref, resp.StatusCode, strings.TrimSpace(string(snippet)))
}

func (c *Client) closeResponse(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Failed to close response body")
	}
}

type page struct {
	Count   int               `json:"count"`
	Next    *string           `json:"next"`
	Results []json.RawMessage `json:"results"`
}

// list walks every page of path and hands each result to fn.
func (c *Client) list(ctx context.Context, path string, fn func(json.RawMessage) error) error {
	ref := path + "?limit=" + strconv.Itoa(c.cfg.pageSize())

	for ref != "" {
		var p page
		if err := c.do(ctx, http.MethodGet, ref, nil, &p); err != nil {
			return err
		}

		for _, raw := range p.Results {
			if err := fn(raw); err != nil {
				return err
			}
		}

		ref = ""
		if p.Next != nil {
			ref = *p.Next
		}
	}

	return nil
}

type created struct {
	ID int `json:"id"`
}

func (c *Client) create(ctx context.Context, path string, payload interface{}) (int, error) {
	var out created
	if err := c.do(ctx, http.MethodPost, path, payload, &out); err != nil {
		return 0, err
	}

	if out.ID == 0 {
		return 0, fmt.Errorf("%w: POST %s", errMissingID, path)
	}

	return out.ID, nil
}

func (c *Client) patch(ctx context.Context, path string, id int, payload interface{}) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("%s%d/", path, id), payload, nil)
}
