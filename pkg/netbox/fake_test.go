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
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/carverauto/vcsync/pkg/logger"
)

// fakeNetBox serves a minimal subset of the NetBox REST API from memory.
type fakeNetBox struct {
	t *testing.T

	mu       sync.Mutex
	objects  map[string][]map[string]interface{}
	bodies   map[string]map[string]interface{}
	writes   []string
	failures map[string]int
	nextID   int
}

func newFakeNetBox(t *testing.T) (*fakeNetBox, *httptest.Server) {
	t.Helper()

	f := &fakeNetBox{
		t:        t,
		objects:  make(map[string][]map[string]interface{}),
		bodies:   make(map[string]map[string]interface{}),
		failures: make(map[string]int),
	}

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	return f, srv
}

func newTestClient(srv *httptest.Server, mutate ...func(*Config)) *Client {
	cfg := &Config{URL: srv.URL, APIToken: "secret", PageSize: 2}
	for _, m := range mutate {
		m(cfg)
	}

	return New(cfg, srv.Client(), logger.NewTestLogger())
}

func (f *fakeNetBox) seed(path string, objects ...string) {
	f.t.Helper()

	for _, raw := range objects {
		var obj map[string]interface{}
		require.NoError(f.t, json.Unmarshal([]byte(raw), &obj))

		f.objects[path] = append(f.objects[path], obj)
	}
}

func (f *fakeNetBox) writeLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.writes...)
}

func (f *fakeNetBox) body(method, path string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.bodies[method+" "+path]
}

func (f *fakeNetBox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Token secret" {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	key := r.Method + " " + r.URL.Path

	if status, ok := f.failures[key]; ok {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"rejected"}`))

		return
	}

	switch r.Method {
	case http.MethodGet:
		f.list(w, r)
	case http.MethodPost:
		body := f.decode(r)
		f.nextID++
		body["id"] = float64(f.nextID)
		f.objects[r.URL.Path] = append(f.objects[r.URL.Path], body)
		f.bodies[key] = body
		f.writes = append(f.writes, key)

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]int{"id": f.nextID})
	case http.MethodPatch:
		f.bodies[key] = f.decode(r)
		f.writes = append(f.writes, key)

		_, _ = w.Write([]byte(`{}`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeNetBox) decode(r *http.Request) map[string]interface{} {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		f.t.Errorf("invalid request body for %s %s: %v", r.Method, r.URL.Path, err)
	}

	return body
}

func (f *fakeNetBox) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var items []map[string]interface{}

	for _, obj := range f.objects[r.URL.Path] {
		if slug := q.Get("slug"); slug != "" && obj["slug"] != slug {
			continue
		}

		items = append(items, obj)
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	offset, _ := strconv.Atoi(q.Get("offset"))
	end := min(offset+limit, len(items))
	start := min(offset, end)

	resp := map[string]interface{}{
		"count":   len(items),
		"next":    nil,
		"results": items[start:end],
	}

	if end == start {
		resp["results"] = []interface{}{}
	}

	if end < len(items) {
		resp["next"] = fmt.Sprintf("http://%s%s?limit=%d&offset=%d", r.Host, r.URL.Path, limit, end)
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func writesTo(log []string, prefix string) []string {
	var out []string

	for _, w := range log {
		if strings.HasPrefix(w, prefix) {
			out = append(out, w)
		}
	}

	return out
}
