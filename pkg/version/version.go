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

// Package version reports the build information stamped into vcsync.
package version

import (
	"runtime"
	"runtime/debug"
)

const shortCommitLength = 12

// Set with -ldflags "-X github.com/carverauto/vcsync/pkg/version.version=v1.2.3".
//
//nolint:gochecknoglobals // ldflags injection targets
var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get returns the stamped build information. When no commit was injected
// the VCS revision recorded by the toolchain is used.
func Get() Info {
	info := Info{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
		GoVersion: runtime.Version(),
	}

	if info.Commit != "" {
		return info
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > shortCommitLength {
				info.Commit = info.Commit[:shortCommitLength]
			}
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		}
	}

	return info
}

// GetVersion returns the release version alone.
func GetVersion() string {
	return version
}

// String renders "v1.2.3 (commit abc123, built 2025-03-01, go1.25.0)".
func (i Info) String() string {
	s := i.Version + " ("

	if i.Commit != "" {
		s += "commit " + i.Commit + ", "
	}

	if i.BuildDate != "" {
		s += "built " + i.BuildDate + ", "
	}

	return s + i.GoVersion + ")"
}
