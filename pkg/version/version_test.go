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

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info Info
		want string
	}{
		{"bare", Info{Version: "dev", GoVersion: "go1.25.0"}, "dev (go1.25.0)"},
		{
			"stamped",
			Info{Version: "v1.4.0", Commit: "3f9c2a1b7d4e", BuildDate: "2025-03-01", GoVersion: "go1.25.0"},
			"v1.4.0 (commit 3f9c2a1b7d4e, built 2025-03-01, go1.25.0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestGetUsesInjectedVersion(t *testing.T) {
	t.Parallel()

	info := Get()
	assert.Equal(t, GetVersion(), info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
