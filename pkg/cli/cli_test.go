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

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/vcsync/pkg/models"
	"github.com/carverauto/vcsync/pkg/netbox"
	"github.com/carverauto/vcsync/pkg/sync"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "vcsync dev")
}

func TestValidateCommand(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vcsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
netbox:
  url: https://netbox.example.com
  api_token: secret
sources:
  vc01:
    host_fqdn: vc01.example.com
    username: sync
`), 0o600))

	out, err := execute(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "is valid")
	assert.Contains(t, out, "source vc01 -> vc01.example.com")
	assert.Contains(t, out, "poll interval 1h0m0s")
}

func TestValidateCommandRejectsBadConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vcsync.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"netbox": {"url": "https://netbox.example.com", "api_token": "x"}, "sources": {}}`), 0o600))

	_, err := execute(t, "validate", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRenderSummary(t *testing.T) {
	t.Parallel()

	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &sync.Result{
		Started:  started,
		Finished: started.Add(1500 * time.Millisecond),
		Reports: []*models.Report{
			{
				RunID:  "run-1",
				Source: "vc01",
				Outcomes: []models.Outcome{
					{Kind: models.EntityHost, Name: "esx01", Action: models.ActionCreated},
					{Kind: models.EntityVM, Name: "web01", Action: models.ActionSkipped},
				},
			},
			{RunID: "run-2", Source: "vc02"},
		},
		Applied:   &netbox.ApplyStats{Created: 2, Failed: 1},
		Published: 1,
	}

	out := renderSummary(result, nil, newStyles())
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "vc01")
	assert.Contains(t, out, "run-2")
	assert.Contains(t, out, "NetBox writes: 2 created, 0 updated, 1 failed")
	assert.Contains(t, out, "Events published: 1")
	assert.Contains(t, out, "Run finished in 1.5s")

	failed := renderSummary(result, errors.New("source \"vc02\": dial failed"), newStyles())
	assert.Contains(t, failed, "Run finished with errors")
	assert.NotContains(t, failed, "Run finished in")
}
